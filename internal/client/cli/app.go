package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/learnassist/internal/auth"
	"github.com/dmitrijs2005/learnassist/internal/client/client"
	"github.com/dmitrijs2005/learnassist/internal/client/config"
	"github.com/dmitrijs2005/learnassist/internal/client/models"
	"github.com/dmitrijs2005/learnassist/internal/client/services"
	"github.com/dmitrijs2005/learnassist/internal/client/share"
	"github.com/dmitrijs2005/learnassist/internal/client/state"
	"github.com/dmitrijs2005/learnassist/internal/logging"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

const (
	pingTimeout   = 3 * time.Second
	tokenTTL      = 15 * time.Minute
	tokenClientID = "learnassist-cli"
)

type App struct {
	config *config.Config
	log    logging.Logger
	repos  *client.Repositories
	api    client.Client
	store  *state.Store

	session     services.SessionService
	collections services.CollectionService
	uploads     services.UploadService
	chat        services.ChatService
	artifacts   services.ArtifactService
	cards       services.CardService
	notes       services.NoteService
	analyzer    services.AnalyzeService

	reader *bufio.Reader
	out    io.Writer

	mu   sync.Mutex
	mode Mode

	// shown holds the ids of messages already printed.
	shown map[string]struct{}
	// lastCards is the most recent card listing, for download by index.
	lastCards []models.Card
	progress  *progressPrinter
}

// NewApp opens the local database, builds the HTTP client and wires every
// service onto one shared store.
func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	if log == nil {
		log = logging.Nop{}
	}

	repos, err := client.InitDatabase(ctx, cfg.DBPath)
	if err != nil {
		log.Error(ctx, "init database", "error", err)
		return nil, err
	}

	hc := &http.Client{}
	opts := client.Options{
		BackendURL:     cfg.BackendURL,
		AssistantURL:   cfg.AssistantURL,
		RequestTimeout: cfg.RequestTimeout,
		UploadTimeout:  cfg.UploadTimeout,
		MaxRetries:     cfg.Retries,
		HTTPClient:     hc,
		Logger:         log,
	}
	if cfg.ProxySecret != "" {
		opts.AssistantToken = &auth.Signer{ClientID: tokenClientID, Secret: []byte(cfg.ProxySecret), TTL: tokenTTL}
	}
	api, err := client.NewHTTPClient(opts)
	if err != nil {
		_ = repos.Close()
		return nil, err
	}

	var exporter services.Exporter
	if cfg.Share.Enabled() {
		e, err := share.NewS3Exporter(ctx, cfg.Share, hc)
		if err != nil {
			_ = repos.Close()
			return nil, fmt.Errorf("note sharing: %w", err)
		}
		exporter = e
	}

	a := newApp(cfg, log, repos, api, hc, exporter)
	a.reader = bufio.NewReader(os.Stdin)
	a.out = os.Stdout
	return a, nil
}

func newApp(cfg *config.Config, log logging.Logger, repos *client.Repositories, api client.Client, hc *http.Client, exporter services.Exporter) *App {
	store := state.NewStore()
	collections := services.NewCollectionService(api, store, log)

	a := &App{
		config:      cfg,
		log:         log,
		repos:       repos,
		api:         api,
		store:       store,
		session:     services.NewSessionService(api, store, repos.Metadata, repos.Messages, log),
		collections: collections,
		uploads: services.NewUploadService(api, store, collections, repos.Messages,
			services.UploadOptions{Concurrency: cfg.UploadConcurrency, MaxBytes: cfg.MaxUploadBytes}, log),
		chat:      services.NewChatService(api, store, repos.Messages, log),
		artifacts: services.NewArtifactService(api, store, repos.Messages, log),
		cards:     services.NewCardService(api, hc, store, repos.Messages, log),
		notes:     services.NewNoteService(repos.Notes, store, exporter, log),
		analyzer:  services.NewAnalyzeService(api, store, repos.Messages, cfg.MaxUploadBytes, log),
		mode:      ModeOffline,
		shown:     map[string]struct{}{},
	}
	a.progress = newProgressPrinter(a.writer)
	return a
}

func (a *App) writer() io.Writer {
	if a.out == nil {
		return io.Discard
	}
	return a.out
}

func (a *App) Mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

func (a *App) setMode(ctx context.Context, mode Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()
	if changed {
		a.log.Info(ctx, "connectivity changed", "mode", mode)
	}
}

// Start probes the backend, loads the collections and restores the previous
// session. Only a failed history restore is fatal: the app stays usable
// offline.
func (a *App) Start(ctx context.Context) error {
	if err := a.probe(ctx); err != nil {
		a.log.Warn(ctx, "backend unreachable", "error", err)
	} else if _, err := a.collections.Refresh(ctx); err != nil {
		a.log.Warn(ctx, "load collections", "error", err)
	}

	if err := a.session.Restore(ctx, a.config.HistoryLimit); err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	// history from earlier runs is not echoed again
	for _, m := range a.store.Snapshot().Messages {
		a.shown[m.ID] = struct{}{}
	}

	if id := a.store.Snapshot().ActiveCollection; id != "" && a.Mode() == ModeOnline {
		if _, err := a.collections.LoadFiles(ctx, id); err != nil {
			a.log.Warn(ctx, "load files", "collection", id, "error", err)
		}
	}
	return nil
}

// Close remembers the active collection and releases the database.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if err := a.session.Remember(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := a.session.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	if a.repos != nil {
		if err := a.repos.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (a *App) probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	err := a.session.Ping(ctx)
	if err != nil {
		a.setMode(ctx, ModeOffline)
		return err
	}
	a.setMode(ctx, ModeOnline)
	return nil
}

// StartOnlineStatusWatcher pings the backend every interval and flips the
// mode shown in the prompt. It returns when ctx is done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = a.probe(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) getStatus() string {
	snap := a.store.Snapshot()
	s := ""
	if c, ok := snap.Collection(snap.ActiveCollection); ok {
		s = c.Name + " "
	}
	if n := len(snap.Selection.FileIDs); n > 0 {
		s += fmt.Sprintf("[%d] ", n)
	}
	s += string(a.Mode())
	return fmt.Sprintf("(%s)", s)
}
