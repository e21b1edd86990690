package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/sheetkeeper/internal/common"
	"github.com/dmitrijs2005/sheetkeeper/internal/server/content"
)

type messageResponse struct {
	Msg string `json:"msg"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageResponse{Msg: msg})
}

// writeError maps a service error to its status code. Unknown errors are
// logged and reported as a generic 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *common.ValidationError

	switch {
	case errors.As(err, &verr):
		writeMessage(w, http.StatusBadRequest, verr.Msg)
	case errors.Is(err, common.ErrValidation):
		writeMessage(w, http.StatusBadRequest, "Invalid request")
	case errors.Is(err, content.ErrInvalidContentEncoding):
		writeMessage(w, http.StatusUnprocessableEntity, "Content is not valid JSON")
	case errors.Is(err, content.ErrContentNotSerializable):
		writeMessage(w, http.StatusUnprocessableEntity, "Content cannot be serialized to JSON")
	case errors.Is(err, common.ErrUnprocessable):
		writeMessage(w, http.StatusUnprocessableEntity, "Unprocessable content")
	case errors.Is(err, common.ErrorNotFound):
		writeMessage(w, http.StatusNotFound, "File not found")
	case errors.Is(err, common.ErrorAlreadyExists):
		writeMessage(w, http.StatusBadRequest, "Email already registered")
	case errors.Is(err, common.ErrorUnauthorized):
		writeMessage(w, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrTokenExpired):
		writeMessage(w, http.StatusUnauthorized, "Invalid or expired token")
	default:
		s.logger.Error(r.Context(), "request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", requestIDFromContext(r.Context()),
		)
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
	}
}
