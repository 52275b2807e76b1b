package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/learnassist/internal/client/client"
	"github.com/dmitrijs2005/learnassist/internal/client/models"
	"github.com/dmitrijs2005/learnassist/internal/client/repositories/messages"
	"github.com/dmitrijs2005/learnassist/internal/client/state"
	"github.com/dmitrijs2005/learnassist/internal/common"
	"github.com/dmitrijs2005/learnassist/internal/filex"
	"github.com/dmitrijs2005/learnassist/internal/logging"
)

// AnalyzeService sends a single pdf, audio or video file straight to the AI
// proxy, bypassing the backend.
type AnalyzeService interface {
	Analyze(ctx context.Context, path, prompt string) (string, error)
}

type analyzeService struct {
	client   client.Client
	msgs     messageLog
	maxBytes int64
}

func NewAnalyzeService(c client.Client, store *state.Store, history messages.Repository, maxBytes int64, log logging.Logger) AnalyzeService {
	if log == nil {
		log = logging.Nop{}
	}
	return &analyzeService{
		client:   c,
		msgs:     messageLog{store: store, repo: history, log: log},
		maxBytes: maxBytes,
	}
}

func (s *analyzeService) Analyze(ctx context.Context, path, prompt string) (string, error) {
	info, err := filex.Inspect(path)
	if err != nil {
		return "", err
	}
	if !info.Kind.Analyzable() {
		return "", fmt.Errorf("%w: %s", common.ErrUnsupportedKind, info.Kind)
	}
	if s.maxBytes > 0 && info.Size > s.maxBytes {
		return "", fmt.Errorf("%w: %s", common.ErrFileTooLarge, info.Name)
	}

	user := models.NewMessage(models.RoleUser, fmt.Sprintf("分析 %s", info.Name))
	s.msgs.append(ctx, user)

	content, err := s.client.Analyze(ctx, info, prompt)
	if err != nil {
		s.msgs.assistant(ctx, client.Describe(err))
		return "", err
	}
	s.msgs.assistant(ctx, content)
	return content, nil
}
