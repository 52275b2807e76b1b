package messages

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/learnassist/internal/client/models"
	"github.com/dmitrijs2005/learnassist/internal/dbx"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Append stores msgs in one transaction. Loading placeholders are skipped;
// they never outlive the request that created them.
func (r *SQLiteRepository) Append(ctx context.Context, msgs ...models.Message) error {
	return dbx.WithTx(ctx, r.db, func(ctx context.Context, tx dbx.DBTX) error {
		for _, m := range msgs {
			if m.Loading {
				continue
			}
			attachments := m.Attachments
			if attachments == nil {
				attachments = []string{}
			}
			raw, err := json.Marshal(attachments)
			if err != nil {
				return fmt.Errorf("encode attachments: %w", err)
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO messages (id, role, content, attachments, created_at)
				VALUES (?, ?, ?, ?, ?)
				ON CONFLICT(id) DO NOTHING
			`, m.ID, string(m.Role), m.Content, string(raw), m.CreatedAt.UnixNano())
			if err != nil {
				return fmt.Errorf("insert message %s: %w", m.ID, err)
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) List(ctx context.Context, limit int) ([]models.Message, error) {
	query := `SELECT id, role, content, attachments, created_at FROM messages ORDER BY created_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var out []models.Message
	for rows.Next() {
		var (
			m       models.Message
			role    string
			attach  string
			created int64
		)
		if err := rows.Scan(&m.ID, &role, &m.Content, &attach, &created); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.Role = models.Role(role)
		m.CreatedAt = time.Unix(0, created).UTC()
		if err := json.Unmarshal([]byte(attach), &m.Attachments); err != nil {
			return nil, fmt.Errorf("decode attachments of %s: %w", m.ID, err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM messages`); err != nil {
		return fmt.Errorf("clear messages: %w", err)
	}
	return nil
}
