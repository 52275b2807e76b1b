// Package messages persists the conversation log so a REPL restart can
// restore earlier history.
package messages

import (
	"context"

	"github.com/dmitrijs2005/learnassist/internal/client/models"
)

type Repository interface {
	Append(ctx context.Context, msgs ...models.Message) error
	// List returns up to limit most recent messages, oldest first. A
	// non-positive limit returns everything.
	List(ctx context.Context, limit int) ([]models.Message, error)
	Clear(ctx context.Context) error
}
