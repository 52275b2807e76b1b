package notes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/learnassist/internal/client/models"
	"github.com/dmitrijs2005/learnassist/internal/common"
	"github.com/dmitrijs2005/learnassist/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, n models.Note) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO notes (id, content, collection_id, message_id, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, n.ID, n.Content, n.CollectionID, n.MessageID, n.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("insert note: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (models.Note, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, content, collection_id, message_id, created_at FROM notes WHERE id = ?
	`, id)
	n, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Note{}, common.ErrorNotFound
	}
	if err != nil {
		return models.Note{}, fmt.Errorf("get note %s: %w", id, err)
	}
	return n, nil
}

func (r *SQLiteRepository) List(ctx context.Context, collectionID string) ([]models.Note, error) {
	query := `SELECT id, content, collection_id, message_id, created_at FROM notes`
	var args []any
	if collectionID != "" {
		query += ` WHERE collection_id = ?`
		args = append(args, collectionID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var out []models.Note
	for rows.Next() {
		n, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete note %s: %w", id, err)
	}
	return dbx.RowsAffected(res, common.ErrorNotFound)
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(s scanner) (models.Note, error) {
	var (
		n       models.Note
		created int64
	)
	if err := s.Scan(&n.ID, &n.Content, &n.CollectionID, &n.MessageID, &created); err != nil {
		return models.Note{}, err
	}
	n.CreatedAt = time.Unix(0, created).UTC()
	return n, nil
}
