package state

import (
	"errors"
	"fmt"
	"slices"

	"github.com/dmitrijs2005/learnassist/internal/client/models"
	"github.com/dmitrijs2005/learnassist/internal/common"
)

var (
	ErrMessageNotFound = errors.New("message not found")
	ErrUnknownTask     = errors.New("unknown upload task")
	ErrDuplicateTask   = errors.New("duplicate upload task")
)

// CollectionsLoaded replaces the collection list after a fetch. Cached files
// of vanished collections are dropped; the first collection becomes active
// when none is.
type CollectionsLoaded struct {
	Collections []models.Collection
}

func (a CollectionsLoaded) Apply(s State) (State, error) {
	s.Collections = slices.Clone(a.Collections)

	for id := range s.Files {
		if !s.HasCollection(id) {
			dropFiles(&s, id)
		}
	}
	if s.Selection.CollectionID != "" && !s.HasCollection(s.Selection.CollectionID) {
		s.Selection = Selection{}
	}
	if !s.HasCollection(s.ActiveCollection) {
		s.ActiveCollection = ""
	}
	if s.ActiveCollection == "" && len(s.Collections) > 0 {
		s.ActiveCollection = s.Collections[0].ID
	}
	return s, nil
}

type CollectionAdded struct {
	Collection models.Collection
}

func (a CollectionAdded) Apply(s State) (State, error) {
	for i, c := range s.Collections {
		if c.ID == a.Collection.ID {
			s.Collections[i] = a.Collection
			return s, nil
		}
	}
	s.Collections = append(s.Collections, a.Collection)
	if s.ActiveCollection == "" {
		s.ActiveCollection = a.Collection.ID
	}
	return s, nil
}

type CollectionRenamed struct {
	ID   string
	Name string
}

func (a CollectionRenamed) Apply(s State) (State, error) {
	for i, c := range s.Collections {
		if c.ID == a.ID {
			s.Collections[i].Name = a.Name
			return s, nil
		}
	}
	return s, fmt.Errorf("%w: %s", common.ErrUnknownCollection, a.ID)
}

type CollectionRemoved struct {
	ID string
}

func (a CollectionRemoved) Apply(s State) (State, error) {
	s.Collections = slices.DeleteFunc(s.Collections, func(c models.Collection) bool { return c.ID == a.ID })
	dropFiles(&s, a.ID)
	if s.Selection.CollectionID == a.ID {
		s.Selection = Selection{}
	}
	if s.ActiveCollection == a.ID {
		s.ActiveCollection = ""
		if len(s.Collections) > 0 {
			s.ActiveCollection = s.Collections[0].ID
		}
	}
	return s, nil
}

// SetActiveCollection switches the active collection. A selection made in a
// different collection is cleared.
type SetActiveCollection struct {
	ID string
}

func (a SetActiveCollection) Apply(s State) (State, error) {
	if !s.HasCollection(a.ID) {
		return s, fmt.Errorf("%w: %s", common.ErrUnknownCollection, a.ID)
	}
	s.ActiveCollection = a.ID
	if s.Selection.CollectionID != a.ID {
		s.Selection = Selection{}
	}
	return s, nil
}

// FilesLoaded stores a fresh listing for one collection, rebuilds that
// collection's index entries and prunes selected ids that disappeared.
type FilesLoaded struct {
	CollectionID string
	Files        []models.FileRecord
}

func (a FilesLoaded) Apply(s State) (State, error) {
	if a.CollectionID == "" {
		return s, common.ErrNoCollection
	}
	dropFiles(&s, a.CollectionID)

	files := make([]models.FileRecord, 0, len(a.Files))
	for _, f := range a.Files {
		f.CollectionID = a.CollectionID
		files = append(files, f)
		s.Owner[f.ID] = a.CollectionID
	}
	s.Files[a.CollectionID] = files

	if s.Selection.CollectionID == a.CollectionID {
		s.Selection.FileIDs = slices.DeleteFunc(s.Selection.FileIDs, func(id string) bool {
			return s.Owner[id] != a.CollectionID
		})
		if len(s.Selection.FileIDs) == 0 {
			s.Selection = Selection{}
		}
	}
	return s, nil
}

// FileRemoved is the optimistic local removal after a successful delete.
type FileRemoved struct {
	CollectionID string
	FileID       string
}

func (a FileRemoved) Apply(s State) (State, error) {
	if files, ok := s.Files[a.CollectionID]; ok {
		s.Files[a.CollectionID] = slices.DeleteFunc(files, func(f models.FileRecord) bool { return f.ID == a.FileID })
	}
	if s.Owner[a.FileID] == a.CollectionID {
		delete(s.Owner, a.FileID)
	}
	removeFromSelection(&s, a.FileID)
	return s, nil
}

// ToggleSelection adds or removes one file. Selecting a file of another
// collection starts a new selection there and makes it active.
type ToggleSelection struct {
	FileID string
}

func (a ToggleSelection) Apply(s State) (State, error) {
	owner, ok := s.Owner[a.FileID]
	if !ok {
		return s, fmt.Errorf("%w: %s", common.ErrUnknownFile, a.FileID)
	}
	if s.Selection.CollectionID != owner {
		s.Selection = Selection{CollectionID: owner, FileIDs: []string{a.FileID}}
		s.ActiveCollection = owner
		return s, nil
	}
	if s.Selection.Contains(a.FileID) {
		removeFromSelection(&s, a.FileID)
		return s, nil
	}
	s.Selection.FileIDs = append(s.Selection.FileIDs, a.FileID)
	return s, nil
}

// SelectFiles adds files in the given order, skipping ones already selected.
// All ids must be known and share one collection.
type SelectFiles struct {
	FileIDs []string
}

func (a SelectFiles) Apply(s State) (State, error) {
	if len(a.FileIDs) == 0 {
		return s, common.ErrEmptySelection
	}
	owner := ""
	for _, id := range a.FileIDs {
		o, ok := s.Owner[id]
		if !ok {
			return s, fmt.Errorf("%w: %s", common.ErrUnknownFile, id)
		}
		if owner != "" && o != owner {
			return s, common.ErrMixedSelection
		}
		owner = o
	}

	if s.Selection.CollectionID != owner {
		s.Selection = Selection{CollectionID: owner}
		s.ActiveCollection = owner
	}
	for _, id := range a.FileIDs {
		if !s.Selection.Contains(id) {
			s.Selection.FileIDs = append(s.Selection.FileIDs, id)
		}
	}
	return s, nil
}

type DeselectFile struct {
	FileID string
}

func (a DeselectFile) Apply(s State) (State, error) {
	removeFromSelection(&s, a.FileID)
	return s, nil
}

type ClearSelection struct{}

func (ClearSelection) Apply(s State) (State, error) {
	s.Selection = Selection{}
	return s, nil
}

type AppendMessage struct {
	Message models.Message
}

func (a AppendMessage) Apply(s State) (State, error) {
	s.Messages = append(s.Messages, a.Message)
	return s, nil
}

// LoadHistory prepends persisted messages to the log.
type LoadHistory struct {
	Messages []models.Message
}

func (a LoadHistory) Apply(s State) (State, error) {
	s.Messages = append(slices.Clone(a.Messages), s.Messages...)
	return s, nil
}

type ClearMessages struct{}

func (ClearMessages) Apply(s State) (State, error) {
	s.Messages = nil
	return s, nil
}

// RemoveMessage removes exactly the message with ID, wherever it sits.
type RemoveMessage struct {
	ID string
}

func (a RemoveMessage) Apply(s State) (State, error) {
	i := slices.IndexFunc(s.Messages, func(m models.Message) bool { return m.ID == a.ID })
	if i < 0 {
		return s, fmt.Errorf("%w: %s", ErrMessageNotFound, a.ID)
	}
	s.Messages = slices.Delete(s.Messages, i, i+1)
	return s, nil
}

// ResolvePlaceholder removes the loading message and appends its answer in
// one step, so no reader observes the log with neither.
type ResolvePlaceholder struct {
	PlaceholderID string
	Reply         models.Message
}

func (a ResolvePlaceholder) Apply(s State) (State, error) {
	s, err := RemoveMessage{ID: a.PlaceholderID}.Apply(s)
	if err != nil {
		return s, err
	}
	s.Messages = append(s.Messages, a.Reply)
	return s, nil
}

type UploadsStarted struct {
	Tasks []models.UploadTask
}

func (a UploadsStarted) Apply(s State) (State, error) {
	for _, t := range a.Tasks {
		if _, ok := s.Upload(t.ID); ok {
			return s, fmt.Errorf("%w: %s", ErrDuplicateTask, t.ID)
		}
		t.State = models.TaskPending
		t.Progress = 0
		s.Uploads = append(s.Uploads, t)
	}
	return s, nil
}

// UploadProgressed raises a running task's progress. Values never decrease
// and stay below 100 until the server has answered.
type UploadProgressed struct {
	TaskID  string
	Percent int
}

func (a UploadProgressed) Apply(s State) (State, error) {
	i := slices.IndexFunc(s.Uploads, func(t models.UploadTask) bool { return t.ID == a.TaskID })
	if i < 0 {
		return s, fmt.Errorf("%w: %s", ErrUnknownTask, a.TaskID)
	}
	t := &s.Uploads[i]
	if t.Terminal() {
		return s, nil
	}
	t.State = models.TaskRunning
	p := min(max(a.Percent, 0), 99)
	if p > t.Progress {
		t.Progress = p
	}
	return s, nil
}

// UploadFinished moves a task to its terminal state; later calls are ignored.
type UploadFinished struct {
	TaskID string
	Err    error
}

func (a UploadFinished) Apply(s State) (State, error) {
	i := slices.IndexFunc(s.Uploads, func(t models.UploadTask) bool { return t.ID == a.TaskID })
	if i < 0 {
		return s, fmt.Errorf("%w: %s", ErrUnknownTask, a.TaskID)
	}
	t := &s.Uploads[i]
	if t.Terminal() {
		return s, nil
	}
	if a.Err != nil {
		t.State = models.TaskFailed
		t.Progress = models.ProgressFailed
		t.Err = a.Err.Error()
		return s, nil
	}
	t.State = models.TaskSucceeded
	t.Progress = 100
	return s, nil
}

// UploadsCleared drops the listed tasks once terminal; with no ids it drops
// every terminal task.
type UploadsCleared struct {
	TaskIDs []string
}

func (a UploadsCleared) Apply(s State) (State, error) {
	s.Uploads = slices.DeleteFunc(s.Uploads, func(t models.UploadTask) bool {
		if !t.Terminal() {
			return false
		}
		return len(a.TaskIDs) == 0 || slices.Contains(a.TaskIDs, t.ID)
	})
	return s, nil
}

func dropFiles(s *State, collectionID string) {
	for _, f := range s.Files[collectionID] {
		if s.Owner[f.ID] == collectionID {
			delete(s.Owner, f.ID)
		}
	}
	delete(s.Files, collectionID)
}

func removeFromSelection(s *State, fileID string) {
	s.Selection.FileIDs = slices.DeleteFunc(s.Selection.FileIDs, func(id string) bool { return id == fileID })
	if len(s.Selection.FileIDs) == 0 {
		s.Selection = Selection{}
	}
}
