package services

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/dmitrijs2005/learnassist/internal/client/client"
	"github.com/dmitrijs2005/learnassist/internal/client/models"
	"github.com/dmitrijs2005/learnassist/internal/client/repositories/messages"
	"github.com/dmitrijs2005/learnassist/internal/client/state"
	"github.com/dmitrijs2005/learnassist/internal/common"
	"github.com/dmitrijs2005/learnassist/internal/filex"
	"github.com/dmitrijs2005/learnassist/internal/logging"
	"github.com/dmitrijs2005/learnassist/internal/netx"
	"golang.org/x/sync/errgroup"
)

const batchDeleteLimit = 4

type CardService interface {
	// List returns the cards of one collection; an empty id lists all.
	List(ctx context.Context, collectionID string) ([]models.Card, error)
	Edit(ctx context.Context, cardID, title, content string) error
	Delete(ctx context.Context, cardID string) error
	// DeleteBatch deletes every distinct id and reports the counts.
	DeleteBatch(ctx context.Context, cardIDs []string) (succeeded, failed int)
	// DownloadImage saves a card's image under dir and returns the path.
	DownloadImage(ctx context.Context, card models.Card, dir string) (string, error)
}

type cardService struct {
	client client.Client
	hc     *http.Client
	msgs   messageLog
	log    logging.Logger
}

func NewCardService(c client.Client, hc *http.Client, store *state.Store, history messages.Repository, log logging.Logger) CardService {
	if log == nil {
		log = logging.Nop{}
	}
	return &cardService{
		client: c,
		hc:     hc,
		msgs:   messageLog{store: store, repo: history, log: log},
		log:    log,
	}
}

func (s *cardService) List(ctx context.Context, collectionID string) ([]models.Card, error) {
	if collectionID == "" {
		collectionID = common.AllCollectionsID
	}
	return s.client.ListCards(ctx, collectionID)
}

func (s *cardService) Edit(ctx context.Context, cardID, title, content string) error {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(content) == "" {
		return common.ErrEmptyInput
	}
	return s.client.EditCard(ctx, cardID, title, content)
}

func (s *cardService) Delete(ctx context.Context, cardID string) error {
	return s.client.DeleteCard(ctx, cardID)
}

func (s *cardService) DeleteBatch(ctx context.Context, cardIDs []string) (int, int) {
	ids := slices.Compact(slices.Sorted(slices.Values(cardIDs)))
	ids = slices.DeleteFunc(ids, func(id string) bool { return id == "" })

	var ok, failed atomic.Int32
	g := new(errgroup.Group)
	g.SetLimit(batchDeleteLimit)
	for _, id := range ids {
		g.Go(func() error {
			if err := s.client.DeleteCard(ctx, id); err != nil {
				s.log.Warn(ctx, "delete card", "id", id, "error", err)
				failed.Add(1)
				return nil
			}
			ok.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	succeeded, lost := int(ok.Load()), int(failed.Load())
	s.msgs.assistant(ctx, common.BatchDeleteSummary(succeeded, lost))
	return succeeded, lost
}

func (s *cardService) DownloadImage(ctx context.Context, card models.Card, dir string) (string, error) {
	if card.Image == "" {
		return "", fmt.Errorf("%w: card %s has no image", common.ErrEmptyInput, card.ID)
	}
	dir, err := filex.EnsureSubDir(dir)
	if err != nil {
		return "", err
	}

	name := card.Title
	if name == "" {
		name = card.ID
	}
	ext := path.Ext(strings.SplitN(card.Image, "?", 2)[0])
	if ext == "" {
		ext = ".png"
	}
	dst := filepath.Join(dir, filex.SafeName(name)+ext)

	if _, err := netx.DownloadToFile(ctx, s.hc, s.client.ResolveURL(card.Image), dst); err != nil {
		return "", fmt.Errorf("download card image: %w", err)
	}
	return dst, nil
}
