package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/learnassist/internal/client/client"
	"github.com/dmitrijs2005/learnassist/internal/client/models"
	"github.com/dmitrijs2005/learnassist/internal/client/state"
	"github.com/dmitrijs2005/learnassist/internal/common"
	"github.com/dmitrijs2005/learnassist/internal/logging"
)

// CollectionService manages collections, their cached file listings and the
// file selection.
type CollectionService interface {
	Refresh(ctx context.Context) ([]models.Collection, error)
	Create(ctx context.Context, name string) (models.Collection, error)
	Rename(ctx context.Context, id, name string) error
	Delete(ctx context.Context, id string) error
	Use(id string) error

	LoadFiles(ctx context.Context, collectionID string) ([]models.FileRecord, error)
	DeleteFile(ctx context.Context, fileID string) error
	ImportURL(ctx context.Context, link string) (string, error)

	Select(fileIDs ...string) error
	Toggle(fileID string) error
	Unselect(fileID string) error
	ClearSelection()
}

type collectionService struct {
	client client.Client
	store  *state.Store
	log    logging.Logger
}

func NewCollectionService(c client.Client, store *state.Store, log logging.Logger) CollectionService {
	if log == nil {
		log = logging.Nop{}
	}
	return &collectionService{client: c, store: store, log: log}
}

func (s *collectionService) Refresh(ctx context.Context) ([]models.Collection, error) {
	cols, err := s.client.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	if _, err := s.store.Dispatch(state.CollectionsLoaded{Collections: cols}); err != nil {
		return nil, err
	}
	return cols, nil
}

func (s *collectionService) Create(ctx context.Context, name string) (models.Collection, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Collection{}, common.ErrEmptyInput
	}
	col, err := s.client.CreateCollection(ctx, name)
	if err != nil {
		return models.Collection{}, fmt.Errorf("create collection: %w", err)
	}
	if col.ID == "" {
		// the backend answered without an id; trust a fresh listing instead
		_, err := s.Refresh(ctx)
		return col, err
	}
	if _, err := s.store.Dispatch(state.CollectionAdded{Collection: col}); err != nil {
		return models.Collection{}, err
	}
	return col, nil
}

func (s *collectionService) Rename(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return common.ErrEmptyInput
	}
	if !s.store.Snapshot().HasCollection(id) {
		return fmt.Errorf("%w: %s", common.ErrUnknownCollection, id)
	}
	col, err := s.client.RenameCollection(ctx, id, name)
	if err != nil {
		return fmt.Errorf("rename collection: %w", err)
	}
	_, err = s.store.Dispatch(state.CollectionRenamed{ID: id, Name: col.Name})
	return err
}

func (s *collectionService) Delete(ctx context.Context, id string) error {
	if !s.store.Snapshot().HasCollection(id) {
		return fmt.Errorf("%w: %s", common.ErrUnknownCollection, id)
	}
	if err := s.client.DeleteCollection(ctx, id); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	_, err := s.store.Dispatch(state.CollectionRemoved{ID: id})
	return err
}

func (s *collectionService) Use(id string) error {
	_, err := s.store.Dispatch(state.SetActiveCollection{ID: id})
	return err
}

// LoadFiles refetches one collection's listing. On failure the cached
// listing becomes empty so nothing stale stays selectable.
func (s *collectionService) LoadFiles(ctx context.Context, collectionID string) ([]models.FileRecord, error) {
	if collectionID == "" {
		collectionID = s.store.Snapshot().ActiveCollection
	}
	if collectionID == "" {
		return nil, common.ErrNoCollection
	}

	files, err := s.client.ListFiles(ctx, collectionID)
	if err != nil {
		if _, derr := s.store.Dispatch(state.FilesLoaded{CollectionID: collectionID}); derr != nil {
			s.log.Error(ctx, "reset file cache", "collection", collectionID, "error", derr)
		}
		return nil, fmt.Errorf("list files: %w", err)
	}
	if _, err := s.store.Dispatch(state.FilesLoaded{CollectionID: collectionID, Files: files}); err != nil {
		return nil, err
	}
	return files, nil
}

// DeleteFile removes a file on the server, drops it locally right away and
// then refetches the owning collection.
func (s *collectionService) DeleteFile(ctx context.Context, fileID string) error {
	owner, ok := s.store.Snapshot().Owner[fileID]
	if !ok {
		return fmt.Errorf("%w: %s", common.ErrUnknownFile, fileID)
	}
	if err := s.client.DeleteFile(ctx, owner, fileID); err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	if _, err := s.store.Dispatch(state.FileRemoved{CollectionID: owner, FileID: fileID}); err != nil {
		return err
	}
	if _, err := s.LoadFiles(ctx, owner); err != nil {
		s.log.Warn(ctx, "refetch after delete", "collection", owner, "error", err)
	}
	return nil
}

// ImportURL asks the backend to fetch a remote document into the active
// collection.
func (s *collectionService) ImportURL(ctx context.Context, link string) (string, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return "", common.ErrEmptyInput
	}
	active := s.store.Snapshot().ActiveCollection
	if active == "" {
		return "", common.ErrNoCollection
	}

	msg, err := s.client.UploadByURL(ctx, active, link)
	if err != nil {
		return "", fmt.Errorf("import url: %w", err)
	}
	if msg == "" {
		msg = common.MsgImportSucceeded
	}
	if _, err := s.LoadFiles(ctx, active); err != nil {
		s.log.Warn(ctx, "refetch after import", "collection", active, "error", err)
	}
	return msg, nil
}

func (s *collectionService) Select(fileIDs ...string) error {
	_, err := s.store.Dispatch(state.SelectFiles{FileIDs: fileIDs})
	return err
}

func (s *collectionService) Toggle(fileID string) error {
	_, err := s.store.Dispatch(state.ToggleSelection{FileID: fileID})
	return err
}

func (s *collectionService) Unselect(fileID string) error {
	_, err := s.store.Dispatch(state.DeselectFile{FileID: fileID})
	return err
}

func (s *collectionService) ClearSelection() {
	_, _ = s.store.Dispatch(state.ClearSelection{})
}
