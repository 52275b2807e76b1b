package state

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/dmitrijs2005/learnassist/internal/client/models"
	"github.com/dmitrijs2005/learnassist/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDispatch(t *testing.T, s *Store, a Action) State {
	t.Helper()
	st, err := s.Dispatch(a)
	require.NoError(t, err)
	return st
}

func seeded(t *testing.T) *Store {
	t.Helper()
	s := NewStore()
	mustDispatch(t, s, CollectionsLoaded{Collections: []models.Collection{{ID: "c1", Name: "数学"}, {ID: "c2", Name: "物理"}}})
	mustDispatch(t, s, FilesLoaded{CollectionID: "c1", Files: []models.FileRecord{{ID: "f1"}, {ID: "f2"}, {ID: "f3"}}})
	mustDispatch(t, s, FilesLoaded{CollectionID: "c2", Files: []models.FileRecord{{ID: "g1"}}})
	return s
}

func TestCollectionsLoaded_DefaultsActive(t *testing.T) {
	s := NewStore()
	st := mustDispatch(t, s, CollectionsLoaded{Collections: []models.Collection{{ID: "c1"}, {ID: "c2"}}})
	assert.Equal(t, "c1", st.ActiveCollection)

	mustDispatch(t, s, SetActiveCollection{ID: "c2"})
	st = mustDispatch(t, s, CollectionsLoaded{Collections: []models.Collection{{ID: "c1"}, {ID: "c2"}}})
	assert.Equal(t, "c2", st.ActiveCollection, "a still-present active collection is kept")
}

func TestCollectionsLoaded_DropsVanished(t *testing.T) {
	s := seeded(t)
	mustDispatch(t, s, SelectFiles{FileIDs: []string{"g1"}})

	st := mustDispatch(t, s, CollectionsLoaded{Collections: []models.Collection{{ID: "c1"}}})
	_, loaded := st.FilesOf("c2")
	assert.False(t, loaded)
	assert.NotContains(t, st.Owner, "g1")
	assert.True(t, st.Selection.Empty())
	assert.Equal(t, "c1", st.ActiveCollection)
}

func TestFilesLoaded_BuildsOwnerIndex(t *testing.T) {
	st := seeded(t).Snapshot()
	assert.Equal(t, "c1", st.Owner["f2"])
	assert.Equal(t, "c2", st.Owner["g1"])

	f, ok := st.File("f3")
	require.True(t, ok)
	assert.Equal(t, "c1", f.CollectionID)
}

func TestFilesLoaded_PrunesSelection(t *testing.T) {
	s := seeded(t)
	mustDispatch(t, s, SelectFiles{FileIDs: []string{"f1", "f2"}})

	st := mustDispatch(t, s, FilesLoaded{CollectionID: "c1", Files: []models.FileRecord{{ID: "f2"}, {ID: "f4"}}})
	assert.Equal(t, []string{"f2"}, st.Selection.FileIDs)
	assert.NotContains(t, st.Owner, "f1")
	assert.Equal(t, "c1", st.Owner["f4"])
}

func TestFilesLoaded_EmptyListIsLoaded(t *testing.T) {
	s := NewStore()
	st := mustDispatch(t, s, FilesLoaded{CollectionID: "c9"})
	files, loaded := st.FilesOf("c9")
	assert.True(t, loaded)
	assert.Empty(t, files)

	_, err := s.Dispatch(FilesLoaded{})
	assert.ErrorIs(t, err, common.ErrNoCollection)
}

func TestFileRemoved_RemovesFromCacheIndexAndSelection(t *testing.T) {
	s := seeded(t)
	mustDispatch(t, s, SelectFiles{FileIDs: []string{"f1", "f2"}})

	st := mustDispatch(t, s, FileRemoved{CollectionID: "c1", FileID: "f1"})
	assert.Equal(t, []string{"f2"}, st.Selection.FileIDs)
	assert.NotContains(t, st.Owner, "f1")
	files, _ := st.FilesOf("c1")
	assert.Len(t, files, 2)
	for _, f := range files {
		assert.NotEqual(t, "f1", f.ID)
	}
}

func TestToggleSelection(t *testing.T) {
	s := seeded(t)

	st := mustDispatch(t, s, ToggleSelection{FileID: "f2"})
	assert.Equal(t, Selection{CollectionID: "c1", FileIDs: []string{"f2"}}, st.Selection)

	st = mustDispatch(t, s, ToggleSelection{FileID: "f1"})
	assert.Equal(t, []string{"f2", "f1"}, st.Selection.FileIDs)

	st = mustDispatch(t, s, ToggleSelection{FileID: "f2"})
	assert.Equal(t, []string{"f1"}, st.Selection.FileIDs)

	st = mustDispatch(t, s, ToggleSelection{FileID: "g1"})
	assert.Equal(t, Selection{CollectionID: "c2", FileIDs: []string{"g1"}}, st.Selection)
	assert.Equal(t, "c2", st.ActiveCollection)

	st = mustDispatch(t, s, ToggleSelection{FileID: "g1"})
	assert.True(t, st.Selection.Empty())
	assert.Empty(t, st.Selection.CollectionID)

	_, err := s.Dispatch(ToggleSelection{FileID: "nope"})
	assert.ErrorIs(t, err, common.ErrUnknownFile)
}

func TestSelectFiles_Rules(t *testing.T) {
	s := seeded(t)

	_, err := s.Dispatch(SelectFiles{FileIDs: []string{"f1", "g1"}})
	assert.ErrorIs(t, err, common.ErrMixedSelection)
	assert.True(t, s.Snapshot().Selection.Empty(), "failed action leaves state untouched")

	_, err = s.Dispatch(SelectFiles{})
	assert.ErrorIs(t, err, common.ErrEmptySelection)

	st := mustDispatch(t, s, SelectFiles{FileIDs: []string{"f3", "f1", "f3"}})
	assert.Equal(t, []string{"f3", "f1"}, st.Selection.FileIDs)

	st = mustDispatch(t, s, DeselectFile{FileID: "f3"})
	assert.Equal(t, []string{"f1"}, st.Selection.FileIDs)

	st = mustDispatch(t, s, ClearSelection{})
	assert.True(t, st.Selection.Empty())
}

func TestSetActiveCollection(t *testing.T) {
	s := seeded(t)
	mustDispatch(t, s, SelectFiles{FileIDs: []string{"f1"}})

	st := mustDispatch(t, s, SetActiveCollection{ID: "c1"})
	assert.False(t, st.Selection.Empty(), "same collection keeps the selection")

	st = mustDispatch(t, s, SetActiveCollection{ID: "c2"})
	assert.True(t, st.Selection.Empty())

	_, err := s.Dispatch(SetActiveCollection{ID: "zzz"})
	assert.ErrorIs(t, err, common.ErrUnknownCollection)
}

func TestCollectionLifecycle(t *testing.T) {
	s := seeded(t)

	st := mustDispatch(t, s, CollectionAdded{Collection: models.Collection{ID: "c3", Name: "化学"}})
	assert.Len(t, st.Collections, 3)

	st = mustDispatch(t, s, CollectionRenamed{ID: "c3", Name: "有机化学"})
	c, _ := st.Collection("c3")
	assert.Equal(t, "有机化学", c.Name)

	_, err := s.Dispatch(CollectionRenamed{ID: "none", Name: "x"})
	assert.ErrorIs(t, err, common.ErrUnknownCollection)

	mustDispatch(t, s, SelectFiles{FileIDs: []string{"f1"}})
	st = mustDispatch(t, s, CollectionRemoved{ID: "c1"})
	assert.Equal(t, "c2", st.ActiveCollection)
	assert.True(t, st.Selection.Empty())
	assert.NotContains(t, st.Owner, "f1")
}

func TestRemoveMessage_ExactlyOneByID(t *testing.T) {
	s := NewStore()
	a := models.NewMessage(models.RoleUser, "a")
	p1 := models.NewPlaceholder("正在思考...")
	b := models.NewMessage(models.RoleUser, "b")
	p2 := models.NewPlaceholder("正在思考...")
	for _, m := range []models.Message{a, p1, b, p2} {
		mustDispatch(t, s, AppendMessage{Message: m})
	}

	st := mustDispatch(t, s, RemoveMessage{ID: p1.ID})
	require.Len(t, st.Messages, 3)
	assert.Equal(t, []string{a.ID, b.ID, p2.ID}, []string{st.Messages[0].ID, st.Messages[1].ID, st.Messages[2].ID})

	_, err := s.Dispatch(RemoveMessage{ID: p1.ID})
	assert.ErrorIs(t, err, ErrMessageNotFound)
	assert.Len(t, s.Snapshot().Messages, 3)
}

func TestResolvePlaceholder_ConcurrentSubmissions(t *testing.T) {
	s := NewStore()
	const n = 50

	placeholders := make([]models.Message, n)
	for i := range placeholders {
		mustDispatch(t, s, AppendMessage{Message: models.NewMessage(models.RoleUser, fmt.Sprint("q", i))})
		placeholders[i] = models.NewPlaceholder("正在思考...")
		mustDispatch(t, s, AppendMessage{Message: placeholders[i]})
	}

	var wg sync.WaitGroup
	for i := n - 1; i >= 0; i-- {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Dispatch(ResolvePlaceholder{
				PlaceholderID: placeholders[i].ID,
				Reply:         models.NewMessage(models.RoleAssistant, fmt.Sprint("a", i)),
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	st := s.Snapshot()
	assert.Len(t, st.Messages, 2*n)
	for _, m := range st.Messages {
		assert.False(t, m.Loading)
	}
}

func TestLoadHistoryAndClear(t *testing.T) {
	s := NewStore()
	live := models.NewMessage(models.RoleUser, "live")
	mustDispatch(t, s, AppendMessage{Message: live})
	old := models.NewMessage(models.RoleUser, "old")

	st := mustDispatch(t, s, LoadHistory{Messages: []models.Message{old}})
	assert.Equal(t, []string{"old", "live"}, []string{st.Messages[0].Content, st.Messages[1].Content})

	st = mustDispatch(t, s, ClearMessages{})
	assert.Empty(t, st.Messages)
}

func TestUploadProgress_Monotonic(t *testing.T) {
	s := NewStore()
	mustDispatch(t, s, UploadsStarted{Tasks: []models.UploadTask{{ID: "t1", Name: "a.pdf"}, {ID: "t2", Name: "b.pdf"}}})

	steps := []struct {
		percent int
		want    int
	}{{10, 10}, {5, 10}, {60, 60}, {100, 99}, {-3, 99}}
	for _, step := range steps {
		st := mustDispatch(t, s, UploadProgressed{TaskID: "t1", Percent: step.percent})
		task, _ := st.Upload("t1")
		assert.Equal(t, step.want, task.Progress)
		assert.Equal(t, models.TaskRunning, task.State)
	}

	st := mustDispatch(t, s, UploadFinished{TaskID: "t1"})
	task, _ := st.Upload("t1")
	assert.Equal(t, 100, task.Progress)
	assert.Equal(t, models.TaskSucceeded, task.State)

	st = mustDispatch(t, s, UploadProgressed{TaskID: "t1", Percent: 20})
	task, _ = st.Upload("t1")
	assert.Equal(t, 100, task.Progress, "terminal tasks never regress")

	st = mustDispatch(t, s, UploadFinished{TaskID: "t2", Err: errors.New("HTTP 500")})
	task, _ = st.Upload("t2")
	assert.Equal(t, models.ProgressFailed, task.Progress)
	assert.Equal(t, "HTTP 500", task.Err)

	st = mustDispatch(t, s, UploadFinished{TaskID: "t2"})
	task, _ = st.Upload("t2")
	assert.Equal(t, models.TaskFailed, task.State, "first terminal state wins")

	_, err := s.Dispatch(UploadProgressed{TaskID: "nope", Percent: 1})
	assert.ErrorIs(t, err, ErrUnknownTask)
	_, err = s.Dispatch(UploadsStarted{Tasks: []models.UploadTask{{ID: "t1"}}})
	assert.ErrorIs(t, err, ErrDuplicateTask)
}

func TestUploadsCleared_OnlyTerminal(t *testing.T) {
	s := NewStore()
	mustDispatch(t, s, UploadsStarted{Tasks: []models.UploadTask{{ID: "t1"}, {ID: "t2"}, {ID: "t3"}}})
	mustDispatch(t, s, UploadFinished{TaskID: "t1"})
	mustDispatch(t, s, UploadFinished{TaskID: "t2", Err: errors.New("x")})

	st := mustDispatch(t, s, UploadsCleared{TaskIDs: []string{"t1", "t3"}})
	require.Len(t, st.Uploads, 2)

	st = mustDispatch(t, s, UploadsCleared{})
	require.Len(t, st.Uploads, 1)
	assert.Equal(t, "t3", st.Uploads[0].ID)
}

func TestSnapshot_IsDeepCopy(t *testing.T) {
	s := seeded(t)
	mustDispatch(t, s, SelectFiles{FileIDs: []string{"f1"}})

	snap := s.Snapshot()
	snap.Selection.FileIDs[0] = "mutated"
	snap.Files["c1"][0].Name = "mutated"
	snap.Owner["x"] = "y"

	fresh := s.Snapshot()
	assert.Equal(t, "f1", fresh.Selection.FileIDs[0])
	assert.Empty(t, fresh.Files["c1"][0].Name)
	assert.NotContains(t, fresh.Owner, "x")
}

func TestSubscribe(t *testing.T) {
	s := NewStore()
	var got []int
	unsubscribe := s.Subscribe(func(st State) { got = append(got, len(st.Messages)) })

	mustDispatch(t, s, AppendMessage{Message: models.NewMessage(models.RoleUser, "1")})
	_, _ = s.Dispatch(RemoveMessage{ID: "missing"})
	mustDispatch(t, s, AppendMessage{Message: models.NewMessage(models.RoleUser, "2")})
	unsubscribe()
	mustDispatch(t, s, AppendMessage{Message: models.NewMessage(models.RoleUser, "3")})

	assert.Equal(t, []int{1, 2}, got)
}

func TestDispatch_ConcurrentReadModifyWrite(t *testing.T) {
	s := seeded(t)
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Dispatch(AppendMessage{Message: models.NewMessage(models.RoleUser, "x")})
		}()
	}
	wg.Wait()
	assert.Len(t, s.Snapshot().Messages, 100, "no lost updates")
}
