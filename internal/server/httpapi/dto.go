package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"

	"github.com/dmitrijs2005/sheetkeeper/internal/common"
	"github.com/dmitrijs2005/sheetkeeper/internal/server/content"
	"github.com/dmitrijs2005/sheetkeeper/internal/server/models"
	"github.com/dmitrijs2005/sheetkeeper/internal/server/services"
)

var errBadBody = errors.New("invalid request body")

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	IsActive bool   `json:"is_active"`
}

type sessionResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type fileResponse struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Content      string `json:"content"`
	CreatedDate  string `json:"created_date"`
	ModifiedDate string `json:"modified_date"`
	UserID       int64  `json:"user_id"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, IsActive: u.IsActive}
}

func toSessionResponse(s *services.Session) sessionResponse {
	return sessionResponse{Token: s.Token, User: toUserResponse(s.User)}
}

func toFileResponse(f *models.File) fileResponse {
	return fileResponse{
		ID:           f.ID,
		Name:         f.Name,
		Description:  f.Description,
		Content:      f.Content,
		CreatedDate:  f.CreatedAt.UTC().Format(time.RFC3339Nano),
		ModifiedDate: f.ModifiedAt.UTC().Format(time.RFC3339Nano),
		UserID:       f.UserID,
	}
}

func toFileResponses(list []*models.File) []fileResponse {
	out := make([]fileResponse, 0, len(list))
	for _, f := range list {
		out = append(out, toFileResponse(f))
	}
	return out
}

// fileFields is a create or update body. Keys are kept raw so an absent key
// can be told apart from an explicit null.
type fileFields struct {
	Name        *string
	Description *string
	Content     *content.Raw
}

func decodeFileFields(body []byte) (fileFields, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		return fileFields{}, errBadBody
	}

	var out fileFields

	if msg, ok := raw["name"]; ok {
		name, err := optionalString(msg)
		if err != nil {
			return fileFields{}, common.Invalid("File name must be a string")
		}
		out.Name = &name
	}

	if msg, ok := raw["description"]; ok {
		desc, err := optionalString(msg)
		if err != nil {
			return fileFields{}, common.Invalid("Description must be a string")
		}
		out.Description = &desc
	}

	if msg, ok := raw["content"]; ok {
		c, err := content.FromJSON(msg)
		if err != nil {
			return fileFields{}, err
		}
		out.Content = &c
	}

	return out, nil
}

// optionalString decodes a JSON string, mapping null to "".
func optionalString(msg json.RawMessage) (string, error) {
	if bytes.Equal(bytes.TrimSpace(msg), []byte("null")) {
		return "", nil
	}
	var s string
	err := json.Unmarshal(msg, &s)
	return s, err
}
