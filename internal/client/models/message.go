package models

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one entry of the append-only conversation log. Loading marks a
// transient placeholder that is replaced once its request resolves.
type Message struct {
	ID          string
	Role        Role
	Content     string
	Attachments []string
	Loading     bool
	CreatedAt   time.Time
}

func NewMessage(role Role, content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
}

func NewPlaceholder(content string) Message {
	m := NewMessage(RoleAssistant, content)
	m.Loading = true
	return m
}

// Note is a message saved for later review. Notes never leave the machine
// unless explicitly shared.
type Note struct {
	ID           string
	Content      string
	CollectionID string
	MessageID    string
	CreatedAt    time.Time
}
