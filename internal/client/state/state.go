package state

import (
	"slices"

	"github.com/dmitrijs2005/learnassist/internal/client/models"
)

// Selection is the ordered set of file ids in context for the next generate
// or chat request. All ids belong to CollectionID.
type Selection struct {
	CollectionID string
	FileIDs      []string
}

func (s Selection) Empty() bool {
	return len(s.FileIDs) == 0
}

func (s Selection) Contains(fileID string) bool {
	return slices.Contains(s.FileIDs, fileID)
}

type State struct {
	Collections      []models.Collection
	ActiveCollection string

	// Files holds the last fetched listing per collection. A missing key
	// means the collection has never been loaded.
	Files map[string][]models.FileRecord
	// Owner maps every cached file id to its collection id.
	Owner map[string]string

	Selection Selection
	Messages  []models.Message
	Uploads   []models.UploadTask
}

func newState() State {
	return State{
		Files: map[string][]models.FileRecord{},
		Owner: map[string]string{},
	}
}

func (s State) Collection(id string) (models.Collection, bool) {
	for _, c := range s.Collections {
		if c.ID == id {
			return c, true
		}
	}
	return models.Collection{}, false
}

func (s State) HasCollection(id string) bool {
	_, ok := s.Collection(id)
	return ok
}

// FilesOf returns the cached listing and whether it was ever loaded.
func (s State) FilesOf(collectionID string) ([]models.FileRecord, bool) {
	files, ok := s.Files[collectionID]
	return files, ok
}

func (s State) File(fileID string) (models.FileRecord, bool) {
	owner, ok := s.Owner[fileID]
	if !ok {
		return models.FileRecord{}, false
	}
	for _, f := range s.Files[owner] {
		if f.ID == fileID {
			return f, true
		}
	}
	return models.FileRecord{}, false
}

func (s State) Message(id string) (models.Message, bool) {
	for _, m := range s.Messages {
		if m.ID == id {
			return m, true
		}
	}
	return models.Message{}, false
}

func (s State) Upload(taskID string) (models.UploadTask, bool) {
	for _, t := range s.Uploads {
		if t.ID == taskID {
			return t, true
		}
	}
	return models.UploadTask{}, false
}

func (s State) clone() State {
	out := State{
		Collections:      slices.Clone(s.Collections),
		ActiveCollection: s.ActiveCollection,
		Files:            make(map[string][]models.FileRecord, len(s.Files)),
		Owner:            make(map[string]string, len(s.Owner)),
		Selection: Selection{
			CollectionID: s.Selection.CollectionID,
			FileIDs:      slices.Clone(s.Selection.FileIDs),
		},
		Messages: make([]models.Message, len(s.Messages)),
		Uploads:  slices.Clone(s.Uploads),
	}
	for k, v := range s.Files {
		out.Files[k] = slices.Clone(v)
	}
	for k, v := range s.Owner {
		out.Owner[k] = v
	}
	for i, m := range s.Messages {
		m.Attachments = slices.Clone(m.Attachments)
		out.Messages[i] = m
	}
	return out
}
