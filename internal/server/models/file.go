package models

import "time"

// File is a named spreadsheet document. Content always holds valid JSON text.
type File struct {
	ID          int64
	Name        string
	Description string
	Content     string
	CreatedAt   time.Time
	ModifiedAt  time.Time
	// UserID is the owner; it never changes after creation.
	UserID int64
}
