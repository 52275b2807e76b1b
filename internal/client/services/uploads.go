package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/dmitrijs2005/learnassist/internal/client/client"
	"github.com/dmitrijs2005/learnassist/internal/client/models"
	"github.com/dmitrijs2005/learnassist/internal/client/repositories/messages"
	"github.com/dmitrijs2005/learnassist/internal/client/state"
	"github.com/dmitrijs2005/learnassist/internal/common"
	"github.com/dmitrijs2005/learnassist/internal/filex"
	"github.com/dmitrijs2005/learnassist/internal/logging"
	"github.com/dmitrijs2005/learnassist/internal/netx"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ProgressObserver receives a copy of a task every time its progress or
// state changes. It may be called from several goroutines at once.
type ProgressObserver func(task models.UploadTask)

// UploadService sequences batch uploads into one collection.
type UploadService interface {
	// UploadBatch uploads every path concurrently, waits for all of them,
	// posts one summary message and refetches the collection's files when
	// at least one upload succeeded. An empty collectionID means the active
	// collection. The returned error is non-nil only for preconditions and
	// for a failed refetch.
	UploadBatch(ctx context.Context, collectionID string, paths []string, observe ProgressObserver) (models.BatchResult, error)
	// ClearProgress drops finished tasks from the progress display.
	ClearProgress()
}

type UploadOptions struct {
	Concurrency int
	MaxBytes    int64
}

type fileLoader interface {
	LoadFiles(ctx context.Context, collectionID string) ([]models.FileRecord, error)
}

type uploadService struct {
	client  client.Client
	store   *state.Store
	files   fileLoader
	msgs    messageLog
	opts    UploadOptions
	log     logging.Logger
	inspect func(path string) (filex.Info, error)
}

func NewUploadService(c client.Client, store *state.Store, files fileLoader, history messages.Repository, opts UploadOptions, log logging.Logger) UploadService {
	if log == nil {
		log = logging.Nop{}
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 3
	}
	return &uploadService{
		client:  c,
		store:   store,
		files:   files,
		msgs:    messageLog{store: store, repo: history, log: log},
		opts:    opts,
		log:     log,
		inspect: filex.Inspect,
	}
}

type plannedUpload struct {
	task models.UploadTask
	info filex.Info
	err  error
}

func (s *uploadService) UploadBatch(ctx context.Context, collectionID string, paths []string, observe ProgressObserver) (models.BatchResult, error) {
	snap := s.store.Snapshot()
	if collectionID == "" {
		collectionID = snap.ActiveCollection
	}
	if collectionID == "" {
		return models.BatchResult{}, common.ErrNoCollection
	}
	if !snap.HasCollection(collectionID) {
		return models.BatchResult{}, fmt.Errorf("%w: %s", common.ErrUnknownCollection, collectionID)
	}

	plan := s.plan(collectionID, paths)
	if len(plan) == 0 {
		return models.BatchResult{}, common.ErrEmptyInput
	}

	tasks := make([]models.UploadTask, len(plan))
	for i, p := range plan {
		tasks[i] = p.task
	}
	if _, err := s.store.Dispatch(state.UploadsStarted{Tasks: tasks}); err != nil {
		return models.BatchResult{}, err
	}
	s.log.Info(ctx, "upload batch started", "collection", collectionID, "files", len(plan))

	// one slot per task; each goroutine writes only its own index
	results := make([]error, len(plan))

	g := new(errgroup.Group)
	g.SetLimit(s.opts.Concurrency)
	for i, p := range plan {
		if p.err != nil {
			results[i] = p.err
			s.finish(p.task.ID, p.err, observe)
			continue
		}
		g.Go(func() error {
			err := s.client.UploadFile(ctx, collectionID, p.info, func(sent, total int64) {
				s.progress(p.task.ID, netx.Percent(sent, total), observe)
			})
			results[i] = err
			s.finish(p.task.ID, err, observe)
			if err != nil {
				s.log.Warn(ctx, "upload failed", "file", p.info.Name, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	res := models.BatchResult{Tasks: make([]models.UploadTask, 0, len(plan))}
	final := s.store.Snapshot()
	for i, p := range plan {
		if results[i] == nil {
			res.Succeeded++
		} else {
			res.Failed++
		}
		if t, ok := final.Upload(p.task.ID); ok {
			res.Tasks = append(res.Tasks, t)
		}
	}

	s.msgs.assistant(ctx, common.UploadSummary(res.Succeeded, res.Failed))
	s.log.Info(ctx, "upload batch finished", "collection", collectionID, "succeeded", res.Succeeded, "failed", res.Failed)

	if res.Succeeded > 0 && s.files != nil {
		if _, err := s.files.LoadFiles(ctx, collectionID); err != nil {
			return res, fmt.Errorf("refresh files: %w", err)
		}
	}
	return res, nil
}

// plan collapses duplicate paths and preflights every file. Preflight
// failures become tasks that fail without a request.
func (s *uploadService) plan(collectionID string, paths []string) []plannedUpload {
	var (
		seen []string
		out  []plannedUpload
	)
	for _, p := range paths {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = filepath.Clean(p)
		}
		if slices.Contains(seen, abs) {
			continue
		}
		seen = append(seen, abs)

		task := models.UploadTask{
			ID:           uuid.NewString(),
			Name:         filepath.Base(abs),
			Path:         abs,
			CollectionID: collectionID,
			Kind:         filex.DetectKind(abs),
		}
		info, err := s.inspect(abs)
		if err == nil {
			task.Size, task.Kind, task.Pages = info.Size, info.Kind, info.Pages
			if s.opts.MaxBytes > 0 && info.Size > s.opts.MaxBytes {
				err = fmt.Errorf("%w: %s is %d bytes, limit %d", common.ErrFileTooLarge, info.Name, info.Size, s.opts.MaxBytes)
			}
		}
		out = append(out, plannedUpload{task: task, info: info, err: err})
	}
	return out
}

func (s *uploadService) progress(taskID string, percent int, observe ProgressObserver) {
	snap, err := s.store.Dispatch(state.UploadProgressed{TaskID: taskID, Percent: percent})
	if err != nil {
		return
	}
	notify(snap, taskID, observe)
}

func (s *uploadService) finish(taskID string, uploadErr error, observe ProgressObserver) {
	if uploadErr != nil {
		uploadErr = errors.New(failureText(uploadErr))
	}
	snap, err := s.store.Dispatch(state.UploadFinished{TaskID: taskID, Err: uploadErr})
	if err != nil {
		return
	}
	notify(snap, taskID, observe)
}

// failureText prefers the localized text for remote and transport failures
// and the raw error for local ones (missing file, size limit).
func failureText(err error) string {
	var (
		se *client.StatusError
		re *client.RemoteError
	)
	if errors.As(err, &se) || errors.As(err, &re) || errors.Is(err, client.ErrUnavailable) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return client.Describe(err)
	}
	return err.Error()
}

func notify(snap state.State, taskID string, observe ProgressObserver) {
	if observe == nil {
		return
	}
	if t, ok := snap.Upload(taskID); ok {
		observe(t)
	}
}

func (s *uploadService) ClearProgress() {
	_, _ = s.store.Dispatch(state.UploadsCleared{})
}
