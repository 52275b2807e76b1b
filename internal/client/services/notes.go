package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/learnassist/internal/client/models"
	"github.com/dmitrijs2005/learnassist/internal/client/repositories/notes"
	"github.com/dmitrijs2005/learnassist/internal/client/state"
	"github.com/dmitrijs2005/learnassist/internal/common"
	"github.com/dmitrijs2005/learnassist/internal/logging"
	"github.com/google/uuid"
)

var ErrSharingDisabled = errors.New("note sharing is not configured")

// Exporter publishes a document and returns a link to it.
type Exporter interface {
	Export(ctx context.Context, key string, body []byte, contentType string) (string, error)
}

// NoteService keeps chat replies the user chose to save. Notes are local
// until shared.
type NoteService interface {
	SaveMessage(ctx context.Context, messageID string) (models.Note, error)
	List(ctx context.Context, collectionID string) ([]models.Note, error)
	Delete(ctx context.Context, id string) error
	Share(ctx context.Context, collectionID string) (string, error)
}

type noteService struct {
	repo     notes.Repository
	store    *state.Store
	exporter Exporter
	log      logging.Logger
	now      func() time.Time
}

// NewNoteService wires the service; exporter may be nil, in which case Share
// returns ErrSharingDisabled.
func NewNoteService(repo notes.Repository, store *state.Store, exporter Exporter, log logging.Logger) NoteService {
	if log == nil {
		log = logging.Nop{}
	}
	return &noteService{repo: repo, store: store, exporter: exporter, log: log, now: time.Now}
}

func (s *noteService) SaveMessage(ctx context.Context, messageID string) (models.Note, error) {
	snap := s.store.Snapshot()
	msg, ok := snap.Message(messageID)
	if !ok {
		return models.Note{}, fmt.Errorf("%w: %s", state.ErrMessageNotFound, messageID)
	}
	if msg.Loading || strings.TrimSpace(msg.Content) == "" {
		return models.Note{}, common.ErrEmptyInput
	}

	n := models.Note{
		ID:           uuid.NewString(),
		Content:      msg.Content,
		CollectionID: snap.ActiveCollection,
		MessageID:    msg.ID,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return models.Note{}, err
	}
	return n, nil
}

func (s *noteService) List(ctx context.Context, collectionID string) ([]models.Note, error) {
	return s.repo.List(ctx, collectionID)
}

func (s *noteService) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// Share renders the collection's notes as Markdown and publishes them.
func (s *noteService) Share(ctx context.Context, collectionID string) (string, error) {
	if s.exporter == nil {
		return "", ErrSharingDisabled
	}
	list, err := s.repo.List(ctx, collectionID)
	if err != nil {
		return "", err
	}
	if len(list) == 0 {
		return "", common.ErrEmptyInput
	}

	title := collectionID
	if c, ok := s.store.Snapshot().Collection(collectionID); ok {
		title = c.Name
	}
	key := fmt.Sprintf("notes/%s/%s.md", s.now().UTC().Format("2006-01-02"), uuid.NewString())

	link, err := s.exporter.Export(ctx, key, []byte(renderNotes(title, list)), "text/markdown; charset=utf-8")
	if err != nil {
		return "", fmt.Errorf("share notes: %w", err)
	}
	s.log.Info(ctx, "notes shared", "collection", collectionID, "count", len(list))
	return link, nil
}

func renderNotes(title string, list []models.Note) string {
	var b strings.Builder
	if title == "" {
		title = "全部笔记"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	for _, n := range list {
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", n.CreatedAt.Format("2006-01-02 15:04"), strings.TrimSpace(n.Content))
	}
	return b.String()
}
