package models

import "github.com/dmitrijs2005/learnassist/internal/timex"

// Artifact is the outcome of a generate request.
type Artifact struct {
	Success  bool   `json:"success"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// Card is a generated note card.
type Card struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Content      string          `json:"content"`
	Image        string          `json:"image,omitempty"`
	CollectionID string          `json:"course_id"`
	FileIDs      []string        `json:"file_ids,omitempty"`
	CreatedAt    timex.Timestamp `json:"created_at"`
	ImageSource  string          `json:"image_source,omitempty"`
}
