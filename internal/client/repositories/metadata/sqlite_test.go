package metadata

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/learnassist/internal/client/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, migrations.Apply(context.Background(), db))
	return db
}

func TestSetAndGet(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "k1", []byte{0x01, 0x02}))
	v, err := r.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02}, v)

	require.NoError(t, r.Set(ctx, "k1", []byte("new")))
	v, err = r.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), v)
}

func TestGet_MissingIsNilNil(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))

	v, err := r.Get(context.Background(), "absent")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestStringHelpers(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	got, err := GetString(ctx, r, KeyActiveCollection)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, SetString(ctx, r, KeyActiveCollection, "course_001"))
	got, err = GetString(ctx, r, KeyActiveCollection)
	require.NoError(t, err)
	assert.Equal(t, "course_001", got)
}

func TestListAndDelete(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "a", []byte{0xAA}))
	require.NoError(t, r.Set(ctx, "b", nil))
	require.NoError(t, r.Delete(ctx, "a"))

	all, err := r.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{"b": {}}, all)

	require.NoError(t, r.Clear(ctx))
	all, err = r.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestGet_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT value FROM metadata").WithArgs("k").WillReturnError(errors.New("disk I/O"))

	_, err = NewSQLiteRepository(db).Get(context.Background(), "k")
	require.ErrorContains(t, err, "get metadata[k]: disk I/O")
}
