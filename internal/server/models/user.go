// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is an account owning zero or more files.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
}
