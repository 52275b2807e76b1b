// Package ai talks to the generative-AI vendor behind the proxy.
package ai

import (
	"context"
	"errors"
	"fmt"
)

// ErrEmptyReply means the vendor answered without any candidate text.
var ErrEmptyReply = errors.New("vendor returned no text")

type Role string

const (
	RoleUser   Role = "user"
	RoleModel  Role = "model"
	RoleSystem Role = "system"
)

// Message is one conversation turn sent to the vendor.
type Message struct {
	Role Role
	Text string
}

// Attachment is inline media sent next to a prompt.
type Attachment struct {
	MIMEType string
	Data     []byte
}

// Model is the vendor surface the proxy needs.
type Model interface {
	// Describe answers prompt about one inline attachment.
	Describe(ctx context.Context, prompt string, media Attachment) (string, error)
	// Chat continues a conversation and returns the next model turn.
	Chat(ctx context.Context, history []Message) (string, error)
}

// APIError is a non-2xx vendor response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("vendor http %d", e.StatusCode)
}
