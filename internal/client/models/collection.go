// Package models defines the client-side domain types and their wire shapes.
package models

import "github.com/dmitrijs2005/learnassist/internal/timex"

// Collection is a user-defined grouping of uploaded files ("course" in the UI).
type Collection struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	CreatedAt timex.Timestamp `json:"created_at"`
}

// FileRecord is a server-owned uploaded file.
type FileRecord struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Type         string          `json:"type"`
	Path         string          `json:"path,omitempty"`
	CollectionID string          `json:"course_id"`
	Summary      string          `json:"summary,omitempty"`
	UploadedAt   timex.Timestamp `json:"uploaded_at"`
}
