// Package metadata stores small client settings (active collection and the
// like) as key/value pairs in the local database.
package metadata

import (
	"context"
)

// KeyActiveCollection remembers the course selected in the last session.
const KeyActiveCollection = "active_collection"

type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
}

// GetString reads key as text; a missing key yields "".
func GetString(ctx context.Context, r Repository, key string) (string, error) {
	b, err := r.Get(ctx, key)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func SetString(ctx context.Context, r Repository, key, value string) error {
	return r.Set(ctx, key, []byte(value))
}
