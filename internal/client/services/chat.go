package services

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/dmitrijs2005/learnassist/internal/client/client"
	"github.com/dmitrijs2005/learnassist/internal/client/models"
	"github.com/dmitrijs2005/learnassist/internal/client/repositories/messages"
	"github.com/dmitrijs2005/learnassist/internal/client/state"
	"github.com/dmitrijs2005/learnassist/internal/common"
	"github.com/dmitrijs2005/learnassist/internal/cryptox"
	"github.com/dmitrijs2005/learnassist/internal/logging"
)

// ChatService dispatches user messages to the right endpoint and keeps the
// conversation log consistent while requests are in flight.
type ChatService interface {
	// Submit posts text, waits for the reply and returns it. Failures are
	// reported in the log as an assistant message and also returned.
	Submit(ctx context.Context, text string) (string, error)
}

type chatService struct {
	client client.Client
	store  *state.Store
	msgs   messageLog
	log    logging.Logger

	mu      sync.Mutex
	pending map[string]struct{}
}

func NewChatService(c client.Client, store *state.Store, history messages.Repository, log logging.Logger) ChatService {
	if log == nil {
		log = logging.Nop{}
	}
	return &chatService{
		client:  c,
		store:   store,
		msgs:    messageLog{store: store, repo: history, log: log},
		log:     log,
		pending: map[string]struct{}{},
	}
}

func (s *chatService) Submit(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", common.ErrEmptyInput
	}

	snap := s.store.Snapshot()
	req := route(snap, text)

	key := cryptox.Fingerprint(append([]string{string(req.Route), req.CollectionID, text}, req.FileIDs...)...)
	if !s.begin(key) {
		return "", common.ErrDuplicateSubmission
	}
	defer s.end(key)

	user := models.NewMessage(models.RoleUser, text)
	user.Attachments = slices.Clone(req.FileIDs)
	s.msgs.append(ctx, user)

	waiting := common.MsgThinking
	if req.Route == models.RouteFileScoped {
		waiting = common.MsgThinkingWithFiles
	}
	placeholder := models.NewPlaceholder(waiting)
	s.msgs.append(ctx, placeholder)

	reply, err := s.client.Chat(ctx, req)
	if err != nil {
		s.log.Warn(ctx, "chat failed", "route", req.Route, "error", err)
		if rerr := s.msgs.resolve(ctx, placeholder.ID, models.NewMessage(models.RoleAssistant, common.MsgChatFailed)); rerr != nil {
			s.log.Error(ctx, "resolve placeholder", "error", rerr)
		}
		return "", err
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		reply = common.MsgChatEmptyReply
	}
	if err := s.msgs.resolve(ctx, placeholder.ID, models.NewMessage(models.RoleAssistant, reply)); err != nil {
		return reply, err
	}
	return reply, nil
}

// route decides the endpoint once, from the state at submission time.
func route(snap state.State, text string) models.ChatRequest {
	sel := snap.Selection
	if !sel.Empty() && snap.ActiveCollection != "" {
		return models.ChatRequest{
			Route:        models.RouteFileScoped,
			Message:      text,
			CollectionID: sel.CollectionID,
			FileIDs:      slices.Clone(sel.FileIDs),
		}
	}
	return models.ChatRequest{
		Route:   models.RouteGeneric,
		Message: text,
		History: slices.DeleteFunc(slices.Clone(snap.Messages), func(m models.Message) bool { return m.Loading }),
	}
}

func (s *chatService) begin(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.pending[key]; busy {
		return false
	}
	s.pending[key] = struct{}{}
	return true
}

func (s *chatService) end(key string) {
	s.mu.Lock()
	delete(s.pending, key)
	s.mu.Unlock()
}
