package services

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/learnassist/internal/client/client"
	"github.com/dmitrijs2005/learnassist/internal/client/models"
	"github.com/dmitrijs2005/learnassist/internal/client/repositories/messages"
	"github.com/dmitrijs2005/learnassist/internal/client/state"
	"github.com/dmitrijs2005/learnassist/internal/common"
	"github.com/dmitrijs2005/learnassist/internal/logging"
)

// ArtifactService triggers server-side generation from the current selection.
type ArtifactService interface {
	// GenerateNoteCard asks for one card built from the selected files. The
	// outcome is always reported as exactly one assistant message; the
	// selection is cleared only on success.
	GenerateNoteCard(ctx context.Context) (models.Artifact, error)
	GenerateHandwrittenNote(ctx context.Context, content string) (models.Artifact, error)
}

type artifactService struct {
	client client.Client
	store  *state.Store
	msgs   messageLog
	log    logging.Logger
}

func NewArtifactService(c client.Client, store *state.Store, history messages.Repository, log logging.Logger) ArtifactService {
	if log == nil {
		log = logging.Nop{}
	}
	return &artifactService{
		client: c,
		store:  store,
		msgs:   messageLog{store: store, repo: history, log: log},
		log:    log,
	}
}

func (s *artifactService) GenerateNoteCard(ctx context.Context) (models.Artifact, error) {
	sel := s.store.Snapshot().Selection
	if sel.Empty() {
		return models.Artifact{}, common.ErrEmptySelection
	}

	art, err := s.client.GenerateNoteCard(ctx, sel.CollectionID, sel.FileIDs, common.ArtifactVariantCanonical)
	if err != nil {
		s.log.Warn(ctx, "note card generation failed", "collection", sel.CollectionID, "files", len(sel.FileIDs), "error", err)
		reason := client.DescribeOr(err, common.MsgCardFailed)
		s.msgs.assistant(ctx, common.CardFailure(reason))
		return models.Artifact{Error: reason}, err
	}

	s.msgs.assistant(ctx, common.MsgCardGenerated)
	if _, err := s.store.Dispatch(state.ClearSelection{}); err != nil {
		return art, err
	}
	return art, nil
}

func (s *artifactService) GenerateHandwrittenNote(ctx context.Context, content string) (models.Artifact, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Artifact{}, common.ErrEmptyInput
	}
	active := s.store.Snapshot().ActiveCollection
	if active == "" {
		return models.Artifact{}, common.ErrNoCollection
	}

	art, err := s.client.GenerateHandwrittenNote(ctx, active, content)
	if err != nil {
		return models.Artifact{Error: client.Describe(err)}, err
	}
	s.msgs.assistant(ctx, common.HandwrittenNoteReady(art.ImageURL))
	return art, nil
}
