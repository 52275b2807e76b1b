package client

import (
	"context"

	"github.com/dmitrijs2005/learnassist/internal/client/models"
	"github.com/dmitrijs2005/learnassist/internal/filex"
	"github.com/dmitrijs2005/learnassist/internal/netx"
)

// Client is the contract between the orchestration services and the remote
// side: the course backend and the AI proxy.
type Client interface {
	Close() error
	Ping(ctx context.Context) error

	ListCollections(ctx context.Context) ([]models.Collection, error)
	CreateCollection(ctx context.Context, name string) (models.Collection, error)
	RenameCollection(ctx context.Context, id, name string) (models.Collection, error)
	DeleteCollection(ctx context.Context, id string) error

	ListFiles(ctx context.Context, collectionID string) ([]models.FileRecord, error)
	UploadFile(ctx context.Context, collectionID string, file filex.Info, progress netx.ProgressFunc) error
	DeleteFile(ctx context.Context, collectionID, fileID string) error
	UploadByURL(ctx context.Context, collectionID, url string) (string, error)

	GenerateNoteCard(ctx context.Context, collectionID string, fileIDs []string, variant int) (models.Artifact, error)
	GenerateHandwrittenNote(ctx context.Context, collectionID, content string) (models.Artifact, error)

	ListCards(ctx context.Context, collectionID string) ([]models.Card, error)
	EditCard(ctx context.Context, cardID, title, content string) error
	DeleteCard(ctx context.Context, cardID string) error

	Chat(ctx context.Context, req models.ChatRequest) (string, error)
	Analyze(ctx context.Context, file filex.Info, prompt string) (string, error)

	// ResolveURL makes a backend-relative asset path absolute.
	ResolveURL(path string) string
}
