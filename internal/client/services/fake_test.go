package services

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	"github.com/dmitrijs2005/learnassist/internal/client/client"
	"github.com/dmitrijs2005/learnassist/internal/client/migrations"
	"github.com/dmitrijs2005/learnassist/internal/client/models"
	"github.com/dmitrijs2005/learnassist/internal/client/state"
	"github.com/dmitrijs2005/learnassist/internal/filex"
	"github.com/dmitrijs2005/learnassist/internal/netx"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

// fakeClient implements client.Client for unit tests. Unset hooks panic
// through the embedded nil interface, so every test names what it uses.
type fakeClient struct {
	client.Client

	mu    sync.Mutex
	calls []string

	PingFn            func(ctx context.Context) error
	ListCollectionsFn func(ctx context.Context) ([]models.Collection, error)
	CreateFn          func(ctx context.Context, name string) (models.Collection, error)
	RenameFn          func(ctx context.Context, id, name string) (models.Collection, error)
	DeleteColFn       func(ctx context.Context, id string) error
	ListFilesFn       func(ctx context.Context, collectionID string) ([]models.FileRecord, error)
	UploadFn          func(ctx context.Context, collectionID string, f filex.Info, p netx.ProgressFunc) error
	DeleteFileFn      func(ctx context.Context, collectionID, fileID string) error
	UploadByURLFn     func(ctx context.Context, collectionID, url string) (string, error)
	NoteCardFn        func(ctx context.Context, collectionID string, fileIDs []string, variant int) (models.Artifact, error)
	HandwrittenFn     func(ctx context.Context, collectionID, content string) (models.Artifact, error)
	ListCardsFn       func(ctx context.Context, collectionID string) ([]models.Card, error)
	EditCardFn        func(ctx context.Context, id, title, content string) error
	DeleteCardFn      func(ctx context.Context, id string) error
	ChatFn            func(ctx context.Context, req models.ChatRequest) (string, error)
	AnalyzeFn         func(ctx context.Context, f filex.Info, prompt string) (string, error)
	BaseURL           string
	Closed            bool
}

func (f *fakeClient) record(name string) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
}

func (f *fakeClient) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeClient) Close() error { f.Closed = true; return nil }
func (f *fakeClient) Ping(ctx context.Context) error {
	f.record("Ping")
	return f.PingFn(ctx)
}
func (f *fakeClient) ListCollections(ctx context.Context) ([]models.Collection, error) {
	f.record("ListCollections")
	return f.ListCollectionsFn(ctx)
}
func (f *fakeClient) CreateCollection(ctx context.Context, name string) (models.Collection, error) {
	f.record("CreateCollection")
	return f.CreateFn(ctx, name)
}
func (f *fakeClient) RenameCollection(ctx context.Context, id, name string) (models.Collection, error) {
	f.record("RenameCollection")
	return f.RenameFn(ctx, id, name)
}
func (f *fakeClient) DeleteCollection(ctx context.Context, id string) error {
	f.record("DeleteCollection")
	return f.DeleteColFn(ctx, id)
}
func (f *fakeClient) ListFiles(ctx context.Context, collectionID string) ([]models.FileRecord, error) {
	f.record("ListFiles")
	return f.ListFilesFn(ctx, collectionID)
}
func (f *fakeClient) UploadFile(ctx context.Context, collectionID string, file filex.Info, p netx.ProgressFunc) error {
	f.record("UploadFile")
	return f.UploadFn(ctx, collectionID, file, p)
}
func (f *fakeClient) DeleteFile(ctx context.Context, collectionID, fileID string) error {
	f.record("DeleteFile")
	return f.DeleteFileFn(ctx, collectionID, fileID)
}
func (f *fakeClient) UploadByURL(ctx context.Context, collectionID, url string) (string, error) {
	f.record("UploadByURL")
	return f.UploadByURLFn(ctx, collectionID, url)
}
func (f *fakeClient) GenerateNoteCard(ctx context.Context, collectionID string, fileIDs []string, variant int) (models.Artifact, error) {
	f.record("GenerateNoteCard")
	return f.NoteCardFn(ctx, collectionID, fileIDs, variant)
}
func (f *fakeClient) GenerateHandwrittenNote(ctx context.Context, collectionID, content string) (models.Artifact, error) {
	f.record("GenerateHandwrittenNote")
	return f.HandwrittenFn(ctx, collectionID, content)
}
func (f *fakeClient) ListCards(ctx context.Context, collectionID string) ([]models.Card, error) {
	f.record("ListCards")
	return f.ListCardsFn(ctx, collectionID)
}
func (f *fakeClient) EditCard(ctx context.Context, id, title, content string) error {
	f.record("EditCard")
	return f.EditCardFn(ctx, id, title, content)
}
func (f *fakeClient) DeleteCard(ctx context.Context, id string) error {
	f.record("DeleteCard")
	return f.DeleteCardFn(ctx, id)
}
func (f *fakeClient) Chat(ctx context.Context, req models.ChatRequest) (string, error) {
	f.record("Chat")
	return f.ChatFn(ctx, req)
}
func (f *fakeClient) Analyze(ctx context.Context, file filex.Info, prompt string) (string, error) {
	f.record("Analyze")
	return f.AnalyzeFn(ctx, file, prompt)
}
func (f *fakeClient) ResolveURL(p string) string { return f.BaseURL + p }

var errBoom = errors.New("boom")

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, migrations.Apply(context.Background(), db))
	return db
}

// seededStore returns a store with collections c1 and c2 loaded; c1 owns
// f1..f3 and c2 owns g1.
func seededStore(t *testing.T) *state.Store {
	t.Helper()
	st := state.NewStore()
	_, err := st.Dispatch(state.CollectionsLoaded{Collections: []models.Collection{{ID: "c1", Name: "数学"}, {ID: "c2", Name: "物理"}}})
	require.NoError(t, err)
	_, err = st.Dispatch(state.FilesLoaded{CollectionID: "c1", Files: []models.FileRecord{{ID: "f1"}, {ID: "f2"}, {ID: "f3"}}})
	require.NoError(t, err)
	_, err = st.Dispatch(state.FilesLoaded{CollectionID: "c2", Files: []models.FileRecord{{ID: "g1"}}})
	require.NoError(t, err)
	return st
}

func lastMessage(t *testing.T, st *state.Store) models.Message {
	t.Helper()
	msgs := st.Snapshot().Messages
	require.NotEmpty(t, msgs)
	return msgs[len(msgs)-1]
}
