package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/sheetkeeper/internal/server/services"
	"github.com/gorilla/mux"
)

// maxBodyBytes bounds request bodies; spreadsheets are the largest payload.
const maxBodyBytes = 8 << 20

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sess, err := s.users.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info(r.Context(), "Registered", "user_id", sess.User.ID)
	writeJSON(w, http.StatusCreated, toSessionResponse(sess))
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sess, err := s.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(sess))
}

func (s *Server) ping(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

func (s *Server) listFiles(w http.ResponseWriter, r *http.Request) {
	owner, _ := userIDFromContext(r.Context())

	q := r.URL.Query()
	opts := services.ListOptions{
		SortField: services.SortFieldName,
		SortOrder: services.SortOrderAsc,
	}
	if q.Has("sort_field") {
		opts.SortField = q.Get("sort_field")
	}
	if q.Has("sort_order") {
		opts.SortOrder = q.Get("sort_order")
	}

	list, err := s.files.List(r.Context(), owner, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toFileResponses(list))
}

func (s *Server) createFile(w http.ResponseWriter, r *http.Request) {
	owner, _ := userIDFromContext(r.Context())

	fields, err := readFileFields(w, r)
	if err != nil {
		s.writeBodyError(w, r, err)
		return
	}

	f, err := s.files.Create(r.Context(), owner, services.NewFile{
		Name:        fields.Name,
		Description: fields.Description,
		Content:     fields.Content,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toFileResponse(f))
}

func (s *Server) getFile(w http.ResponseWriter, r *http.Request) {
	owner, _ := userIDFromContext(r.Context())
	id, ok := fileID(w, r)
	if !ok {
		return
	}

	f, err := s.files.Get(r.Context(), owner, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toFileResponse(f))
}

func (s *Server) updateFile(w http.ResponseWriter, r *http.Request) {
	owner, _ := userIDFromContext(r.Context())
	id, ok := fileID(w, r)
	if !ok {
		return
	}

	fields, err := readFileFields(w, r)
	if err != nil {
		// a file the caller cannot see is reported as missing, whatever the body
		if _, getErr := s.files.Get(r.Context(), owner, id); getErr != nil {
			s.writeError(w, r, getErr)
			return
		}
		s.writeBodyError(w, r, err)
		return
	}

	f, err := s.files.Update(r.Context(), owner, id, services.FilePatch{
		Name:        fields.Name,
		Description: fields.Description,
		Content:     fields.Content,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toFileResponse(f))
}

func (s *Server) deleteFile(w http.ResponseWriter, r *http.Request) {
	owner, _ := userIDFromContext(r.Context())
	id, ok := fileID(w, r)
	if !ok {
		return
	}

	if err := s.files.Delete(r.Context(), owner, id); err != nil {
		s.writeError(w, r, err)
		return
	}

	writeMessage(w, http.StatusOK, "File deleted")
}

// --- helpers below ---

func readFileFields(w http.ResponseWriter, r *http.Request) (fileFields, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return fileFields{}, errBadBody
	}
	return decodeFileFields(body)
}

func (s *Server) writeBodyError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, errBadBody) {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	s.writeError(w, r, err)
}

// fileID parses the {id} route variable. The route pattern only admits
// digits, so the only failure left is overflow, which cannot name a file.
func fileID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeMessage(w, http.StatusNotFound, "File not found")
		return 0, false
	}
	return id, true
}
