package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/sheetkeeper/internal/common"
)

// APIError is a non-2xx response. It matches the common sentinel errors
// for its status code with errors.Is.
type APIError struct {
	Status int
	Msg    string
}

func (e *APIError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Msg)
}

func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusBadRequest:
		return common.ErrValidation
	case http.StatusUnauthorized:
		return common.ErrorUnauthorized
	case http.StatusNotFound:
		return common.ErrorNotFound
	case http.StatusUnprocessableEntity:
		return common.ErrUnprocessable
	}
	return common.ErrorInternal
}

func newAPIError(resp *http.Response) error {
	var body struct {
		Msg string `json:"msg"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = json.Unmarshal(data, &body)
	return &APIError{Status: resp.StatusCode, Msg: body.Msg}
}
