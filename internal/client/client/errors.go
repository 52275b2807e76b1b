package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/learnassist/internal/common"
)

var (
	// ErrUnavailable wraps every transport failure: no response was received.
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
)

// StatusError is a response with a non-2xx status.
type StatusError struct {
	StatusCode int
	Message    string
	Body       string
}

func (e *StatusError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("http error: status=%d message=%s", e.StatusCode, msg)
}

func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

func (e *StatusError) retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// RemoteError is a 2xx response whose body reports failure through an
// "error" field or "success": false.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return "request rejected"
	}
	return e.Message
}

// parseStatusError pulls a human message out of the common error bodies:
// {"detail": "..."}, {"error": "..."} and {"message": "..."}.
func parseStatusError(status int, raw []byte) error {
	body := strings.TrimSpace(string(raw))
	e := &StatusError{StatusCode: status, Body: body}

	var env struct {
		Detail  any    `json:"detail"`
		Error   any    `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &env); err == nil {
		switch {
		case asText(env.Detail) != "":
			e.Message = asText(env.Detail)
		case asText(env.Error) != "":
			e.Message = asText(env.Error)
		default:
			e.Message = strings.TrimSpace(env.Message)
		}
	}
	return e
}

func asText(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case map[string]any:
		if m, ok := t["message"].(string); ok {
			return strings.TrimSpace(m)
		}
	}
	return ""
}

// checkEnvelope turns {"success": false} or a non-empty "error" into a
// RemoteError.
func checkEnvelope(raw []byte) error {
	var env struct {
		Success *bool  `json:"success"`
		Error   any    `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil
	}
	if msg := asText(env.Error); msg != "" {
		return &RemoteError{Message: msg}
	}
	if env.Success != nil && !*env.Success {
		return &RemoteError{Message: strings.TrimSpace(env.Message)}
	}
	return nil
}

// Describe renders err for the message log: the server's own text when it
// sent one, otherwise a localized generic message.
func Describe(err error) string {
	var remote *RemoteError
	if errors.As(err, &remote) && remote.Message != "" {
		return remote.Message
	}
	var status *StatusError
	if errors.As(err, &status) {
		if status.Message != "" {
			return status.Message
		}
		return fmt.Sprintf("HTTP %d", status.StatusCode)
	}
	if errors.Is(err, ErrUnavailable) || errors.Is(err, context.DeadlineExceeded) {
		return common.MsgNetworkError
	}
	if errors.Is(err, context.Canceled) {
		return "已取消"
	}
	return common.MsgUnknownError
}

// DescribeOr is Describe with a caller-specific text for failures that carry
// no message of their own.
func DescribeOr(err error, fallback string) string {
	var remote *RemoteError
	if errors.As(err, &remote) && remote.Message == "" {
		return fallback
	}
	if s := Describe(err); s != common.MsgUnknownError {
		return s
	}
	return fallback
}
