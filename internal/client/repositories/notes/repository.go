// Package notes stores chat replies the user saved for later review.
package notes

import (
	"context"

	"github.com/dmitrijs2005/learnassist/internal/client/models"
)

type Repository interface {
	Create(ctx context.Context, n models.Note) error
	Get(ctx context.Context, id string) (models.Note, error)
	// List returns notes of one collection, newest first. An empty
	// collectionID lists every note.
	List(ctx context.Context, collectionID string) ([]models.Note, error)
	Delete(ctx context.Context, id string) error
}
