package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/learnassist/internal/client/client"
	"github.com/dmitrijs2005/learnassist/internal/client/models"
	"github.com/dmitrijs2005/learnassist/internal/client/state"
	"github.com/dmitrijs2005/learnassist/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefresh_SetsActive(t *testing.T) {
	fc := &fakeClient{ListCollectionsFn: func(ctx context.Context) ([]models.Collection, error) {
		return []models.Collection{{ID: "course_001"}, {ID: "course_002"}}, nil
	}}
	st := state.NewStore()

	cols, err := NewCollectionService(fc, st, nil).Refresh(context.Background())
	require.NoError(t, err)
	assert.Len(t, cols, 2)
	assert.Equal(t, "course_001", st.Snapshot().ActiveCollection)
}

func TestCreateRenameDelete(t *testing.T) {
	fc := &fakeClient{
		CreateFn: func(ctx context.Context, name string) (models.Collection, error) {
			return models.Collection{ID: "c3", Name: name}, nil
		},
		RenameFn: func(ctx context.Context, id, name string) (models.Collection, error) {
			return models.Collection{ID: id, Name: name}, nil
		},
		DeleteColFn: func(ctx context.Context, id string) error { return nil },
	}
	st := seededStore(t)
	svc := NewCollectionService(fc, st, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, "  ")
	assert.ErrorIs(t, err, common.ErrEmptyInput)

	col, err := svc.Create(ctx, "化学")
	require.NoError(t, err)
	assert.Equal(t, "c3", col.ID)
	assert.True(t, st.Snapshot().HasCollection("c3"))

	require.NoError(t, svc.Rename(ctx, "c3", "有机化学"))
	c, _ := st.Snapshot().Collection("c3")
	assert.Equal(t, "有机化学", c.Name)
	assert.ErrorIs(t, svc.Rename(ctx, "nope", "x"), common.ErrUnknownCollection)

	require.NoError(t, svc.Delete(ctx, "c1"))
	snap := st.Snapshot()
	assert.False(t, snap.HasCollection("c1"))
	_, cached := snap.FilesOf("c1")
	assert.False(t, cached)
	assert.Equal(t, "c2", snap.ActiveCollection)
}

func TestLoadFiles_FailureEmptiesCache(t *testing.T) {
	fc := &fakeClient{ListFilesFn: func(ctx context.Context, cid string) ([]models.FileRecord, error) {
		return nil, errBoom
	}}
	st := seededStore(t)
	_, err := st.Dispatch(state.SelectFiles{FileIDs: []string{"f1"}})
	require.NoError(t, err)

	_, err = NewCollectionService(fc, st, nil).LoadFiles(context.Background(), "")
	require.ErrorIs(t, err, errBoom)

	snap := st.Snapshot()
	files, ok := snap.FilesOf("c1")
	assert.True(t, ok)
	assert.Empty(t, files)
	assert.True(t, snap.Selection.Empty())
}

func TestDeleteFile_RemovesFromSelectionAndCache(t *testing.T) {
	var refetched bool
	fc := &fakeClient{
		DeleteFileFn: func(ctx context.Context, cid, fid string) error {
			assert.Equal(t, "c1", cid)
			assert.Equal(t, "f2", fid)
			return nil
		},
		ListFilesFn: func(ctx context.Context, cid string) ([]models.FileRecord, error) {
			refetched = true
			return []models.FileRecord{{ID: "f1"}, {ID: "f3"}}, nil
		},
	}
	st := seededStore(t)
	svc := NewCollectionService(fc, st, nil)
	require.NoError(t, svc.Select("f1", "f2"))

	require.NoError(t, svc.DeleteFile(context.Background(), "f2"))
	assert.True(t, refetched)

	snap := st.Snapshot()
	assert.Equal(t, []string{"f1"}, snap.Selection.FileIDs)
	_, ok := snap.File("f2")
	assert.False(t, ok)
	assert.Equal(t, []string{"DeleteFile", "ListFiles"}, fc.Calls())

	assert.ErrorIs(t, svc.DeleteFile(context.Background(), "f2"), common.ErrUnknownFile)
}

func TestDeleteFile_ServerErrorKeepsCache(t *testing.T) {
	fc := &fakeClient{DeleteFileFn: func(ctx context.Context, cid, fid string) error { return errBoom }}
	st := seededStore(t)

	err := NewCollectionService(fc, st, nil).DeleteFile(context.Background(), "f1")
	require.ErrorIs(t, err, errBoom)
	_, ok := st.Snapshot().File("f1")
	assert.True(t, ok)
}

func TestImportURL(t *testing.T) {
	fc := &fakeClient{
		UploadByURLFn: func(ctx context.Context, cid, url string) (string, error) {
			assert.Equal(t, "c1", cid)
			return "", nil
		},
		ListFilesFn: func(ctx context.Context, cid string) ([]models.FileRecord, error) { return nil, nil },
	}
	svc := NewCollectionService(fc, seededStore(t), nil)

	_, err := svc.ImportURL(context.Background(), "")
	assert.ErrorIs(t, err, common.ErrEmptyInput)

	msg, err := svc.ImportURL(context.Background(), "https://example.com/a.pdf")
	require.NoError(t, err)
	assert.Equal(t, common.MsgImportSucceeded, msg)
	assert.Equal(t, []string{"UploadByURL", "ListFiles"}, fc.Calls())

	_, err = NewCollectionService(fc, state.NewStore(), nil).ImportURL(context.Background(), "https://x")
	assert.ErrorIs(t, err, common.ErrNoCollection)
}

func TestImportURL_Rejected(t *testing.T) {
	fc := &fakeClient{
		UploadByURLFn: func(ctx context.Context, cid, url string) (string, error) {
			return "", &client.RemoteError{Message: common.MsgImportFailed}
		},
	}
	svc := NewCollectionService(fc, seededStore(t), nil)

	msg, err := svc.ImportURL(context.Background(), "https://example.com/a.pdf")
	var re *client.RemoteError
	require.ErrorAs(t, err, &re)
	assert.Empty(t, msg)
	assert.Equal(t, common.MsgImportFailed, client.Describe(err))
	assert.Equal(t, []string{"UploadByURL"}, fc.Calls())
}

func TestSelection_Operations(t *testing.T) {
	st := seededStore(t)
	svc := NewCollectionService(&fakeClient{}, st, nil)

	require.NoError(t, svc.Toggle("f1"))
	require.NoError(t, svc.Toggle("f2"))
	require.NoError(t, svc.Unselect("f1"))
	assert.Equal(t, []string{"f2"}, st.Snapshot().Selection.FileIDs)

	assert.ErrorIs(t, svc.Select("f1", "g1"), common.ErrMixedSelection)
	assert.ErrorIs(t, svc.Toggle("zz"), common.ErrUnknownFile)

	require.NoError(t, svc.Use("c2"))
	assert.True(t, st.Snapshot().Selection.Empty())

	require.NoError(t, svc.Select("g1"))
	svc.ClearSelection()
	assert.True(t, st.Snapshot().Selection.Empty())
}
