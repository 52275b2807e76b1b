package services

import (
	"context"

	"github.com/dmitrijs2005/learnassist/internal/client/models"
	"github.com/dmitrijs2005/learnassist/internal/client/repositories/messages"
	"github.com/dmitrijs2005/learnassist/internal/client/state"
	"github.com/dmitrijs2005/learnassist/internal/logging"
)

// messageLog appends to the in-memory log and writes final messages through
// to local history. A failed write is logged and otherwise ignored; the
// conversation itself must not break on a disk error.
type messageLog struct {
	store *state.Store
	repo  messages.Repository
	log   logging.Logger
}

func (l messageLog) append(ctx context.Context, m models.Message) {
	if _, err := l.store.Dispatch(state.AppendMessage{Message: m}); err != nil {
		l.log.Error(ctx, "append message", "error", err)
		return
	}
	l.persist(ctx, m)
}

func (l messageLog) assistant(ctx context.Context, content string) models.Message {
	m := models.NewMessage(models.RoleAssistant, content)
	l.append(ctx, m)
	return m
}

// resolve swaps a loading placeholder for its reply.
func (l messageLog) resolve(ctx context.Context, placeholderID string, reply models.Message) error {
	if _, err := l.store.Dispatch(state.ResolvePlaceholder{PlaceholderID: placeholderID, Reply: reply}); err != nil {
		return err
	}
	l.persist(ctx, reply)
	return nil
}

func (l messageLog) persist(ctx context.Context, m models.Message) {
	if l.repo == nil || m.Loading {
		return
	}
	// history survives the command that produced it
	if err := l.repo.Append(context.WithoutCancel(ctx), m); err != nil {
		l.log.Warn(ctx, "persist message", "id", m.ID, "error", err)
	}
}
