// Package services contains the application services of the learnassist
// client. This file defines the session service: liveness probe, restoring
// local state at start-up and housekeeping of the local database.
package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/learnassist/internal/client/client"
	"github.com/dmitrijs2005/learnassist/internal/client/repositories/messages"
	"github.com/dmitrijs2005/learnassist/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/learnassist/internal/client/state"
	"github.com/dmitrijs2005/learnassist/internal/logging"
)

// SessionService covers what happens around the user's work rather than the
// work itself.
//
// Contract:
//   - Ping: check backend liveness.
//   - Restore: reload message history and the last active collection.
//   - Remember: persist the active collection so the next run starts there.
//   - ClearLocalData: wipe cached metadata and history.
//   - Close: release underlying client resources.
type SessionService interface {
	Ping(ctx context.Context) error
	Restore(ctx context.Context, historyLimit int) error
	Remember(ctx context.Context) error
	ClearLocalData(ctx context.Context) error
	Close(ctx context.Context) error
}

type sessionService struct {
	client   client.Client
	store    *state.Store
	meta     metadata.Repository
	messages messages.Repository
	log      logging.Logger
}

func NewSessionService(c client.Client, store *state.Store, meta metadata.Repository, msgs messages.Repository, log logging.Logger) SessionService {
	if log == nil {
		log = logging.Nop{}
	}
	return &sessionService{client: c, store: store, meta: meta, messages: msgs, log: log}
}

// Ping proxies a liveness check to the underlying client.
func (s *sessionService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

// Restore loads persisted history into the store and reactivates the saved
// collection when it still exists. Collections must be loaded first for the
// latter to take effect.
func (s *sessionService) Restore(ctx context.Context, historyLimit int) error {
	if s.messages != nil {
		msgs, err := s.messages.List(ctx, historyLimit)
		if err != nil {
			return fmt.Errorf("load history: %w", err)
		}
		if _, err := s.store.Dispatch(state.LoadHistory{Messages: msgs}); err != nil {
			return err
		}
	}

	if s.meta == nil {
		return nil
	}
	id, err := metadata.GetString(ctx, s.meta, metadata.KeyActiveCollection)
	if err != nil {
		return fmt.Errorf("load active collection: %w", err)
	}
	if id == "" {
		return nil
	}
	if _, err := s.store.Dispatch(state.SetActiveCollection{ID: id}); err != nil {
		s.log.Debug(ctx, "saved collection no longer exists", "collection", id)
	}
	return nil
}

func (s *sessionService) Remember(ctx context.Context) error {
	if s.meta == nil {
		return nil
	}
	return metadata.SetString(ctx, s.meta, metadata.KeyActiveCollection, s.store.Snapshot().ActiveCollection)
}

// ClearLocalData wipes locally cached metadata and message history.
func (s *sessionService) ClearLocalData(ctx context.Context) error {
	if s.meta != nil {
		if err := s.meta.Clear(ctx); err != nil {
			return err
		}
	}
	if s.messages != nil {
		if err := s.messages.Clear(ctx); err != nil {
			return err
		}
	}
	_, err := s.store.Dispatch(state.ClearMessages{})
	return err
}

// Close releases resources held by the underlying client.
func (s *sessionService) Close(ctx context.Context) error {
	return s.client.Close()
}
