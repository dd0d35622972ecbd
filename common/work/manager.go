package work

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/LexiconIndonesia/prospect-discovery-service/common"
)

const (
	workStateKeyPrefix = "work:state:"
	runningState       = "running"
	// workTimeout bounds how long a search is considered running without a
	// Resume, so searches that died without cleanup do not stay stuck.
	workTimeout = 24 * time.Hour
)

// Job statuses written to search_jobs
const (
	StatusStarted    = "started"
	StatusOnProgress = "on_progress"
	StatusFinished   = "finished"
	StatusCancelled  = "cancelled"
)

// StateStore is the subset of the Redis wrapper the manager uses
type StateStore interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
	ScanKeys(ctx context.Context, pattern string) ([]string, error)
}

// JobStatusStore persists the status history of a search
type JobStatusStore interface {
	UpsertStatus(ctx context.Context, id, status string) error
}

// WorkManager tracks which continuous searches are running
type WorkManager struct {
	state StateStore
	jobs  JobStatusStore
}

// NewWorkManager creates a new WorkManager. jobs may be nil; in that case
// state is only kept in Redis.
func NewWorkManager(state StateStore, jobs JobStatusStore) *WorkManager {
	return &WorkManager{
		state: state,
		jobs:  jobs,
	}
}

func (wm *WorkManager) getWorkKey(workID string) string {
	return workStateKeyPrefix + workID
}

// Start marks a work as running, failing with ErrSearchAlreadyRunning if it already is
func (wm *WorkManager) Start(ctx context.Context, workID string) error {
	ok, err := wm.state.SetNX(ctx, wm.getWorkKey(workID), runningState, workTimeout)
	if err != nil {
		return fmt.Errorf("failed to start work %s: %w", workID, err)
	}
	if !ok {
		return fmt.Errorf("work %s: %w", workID, common.ErrSearchAlreadyRunning)
	}

	wm.persist(ctx, workID, StatusStarted)
	return nil
}

// IsRunning checks if a work is currently marked as running
func (wm *WorkManager) IsRunning(ctx context.Context, workID string) (bool, error) {
	state, err := wm.state.Get(ctx, wm.getWorkKey(workID))
	if err != nil {
		if errors.Is(err, redisv9.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get work state for %s: %w", workID, err)
	}
	return state == runningState, nil
}

func (wm *WorkManager) removeWork(ctx context.Context, workID string) error {
	if err := wm.state.Delete(ctx, wm.getWorkKey(workID)); err != nil {
		return fmt.Errorf("failed to remove work %s: %w", workID, err)
	}
	return nil
}

// Complete clears the running state of a search that ended on its own
func (wm *WorkManager) Complete(ctx context.Context, workID string) error {
	if err := wm.removeWork(ctx, workID); err != nil {
		return err
	}
	wm.persist(ctx, workID, StatusFinished)
	return nil
}

// Cancel clears the running state of a search that was stopped
func (wm *WorkManager) Cancel(ctx context.Context, workID string) error {
	if err := wm.removeWork(ctx, workID); err != nil {
		return err
	}
	wm.persist(ctx, workID, StatusCancelled)
	return nil
}

// ListRunningWorks returns the IDs of all works currently marked as running
func (wm *WorkManager) ListRunningWorks(ctx context.Context) ([]string, error) {
	keys, err := wm.state.ScanKeys(ctx, workStateKeyPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("failed to scan for running works: %w", err)
	}

	workIDs := make([]string, 0, len(keys))
	for _, key := range keys {
		workIDs = append(workIDs, strings.TrimPrefix(key, workStateKeyPrefix))
	}
	return workIDs, nil
}

// Resume extends the expiration of a running work and reports whether it was running
func (wm *WorkManager) Resume(ctx context.Context, workID string) (bool, error) {
	running, err := wm.IsRunning(ctx, workID)
	if err != nil || !running {
		return false, err
	}

	if err := wm.state.Set(ctx, wm.getWorkKey(workID), runningState, workTimeout); err != nil {
		return true, fmt.Errorf("failed to extend work session for %s: %w", workID, err)
	}
	wm.persist(ctx, workID, StatusOnProgress)
	return true, nil
}

func (wm *WorkManager) persist(ctx context.Context, workID, status string) {
	if wm.jobs == nil {
		return
	}
	if err := wm.jobs.UpsertStatus(ctx, workID, status); err != nil {
		log.Warn().Err(err).Str("workID", workID).Str("status", status).Msg("failed to persist job status to DB")
	}
}
