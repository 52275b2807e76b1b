package client

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/learnassist/internal/client/migrations"
	"github.com/dmitrijs2005/learnassist/internal/client/repositories/messages"
	"github.com/dmitrijs2005/learnassist/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/learnassist/internal/client/repositories/notes"
)

// Repositories groups the local stores opened by InitDatabase.
type Repositories struct {
	DB       *sql.DB
	Metadata metadata.Repository
	Messages messages.Repository
	Notes    notes.Repository
}

func (r *Repositories) Close() error {
	return r.DB.Close()
}

// InitDatabase opens the SQLite file at dsn, applies pending migrations and
// wires the repositories on top of it.
func InitDatabase(ctx context.Context, dsn string) (*Repositories, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// one writer keeps SQLite from returning SQLITE_BUSY under concurrent uploads
	db.SetMaxOpenConns(1)

	if err := migrations.Apply(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Repositories{
		DB:       db,
		Metadata: metadata.NewSQLiteRepository(db),
		Messages: messages.NewSQLiteRepository(db),
		Notes:    notes.NewSQLiteRepository(db),
	}, nil
}
