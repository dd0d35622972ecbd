package continuous

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/LexiconIndonesia/prospect-discovery-service/common"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/config"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/models"
	"github.com/LexiconIndonesia/prospect-discovery-service/discovery/dedup"
)

// BatchSink receives every batch a worker emits
type BatchSink interface {
	HandleBatch(ctx context.Context, batch models.BatchReady) error
}

// RunTracker records which campaigns have a search running, across
// instances of the service.
type RunTracker interface {
	Start(ctx context.Context, workID string) error
	Complete(ctx context.Context, workID string) error
	Cancel(ctx context.Context, workID string) error
	Resume(ctx context.Context, workID string) (bool, error)
}

// EventLogger records the lifecycle of continuous searches
type EventLogger interface {
	SearchStarted(ctx context.Context, campaignID, industry string, maxPerHour int) error
	SearchStopped(ctx context.Context, campaignID, reason string, totalFound int) error
	BatchReady(ctx context.Context, campaignID string, batchNumber, size, totalSoFar int) error
}

// TrackerFactory creates the seen-address set of a campaign
type TrackerFactory func(campaignID string) dedup.Tracker

// Manager owns one worker and one pool per campaign
type Manager struct {
	searcher Searcher
	planner  KeywordSource
	cfg      config.ContinuousConfig

	sinks      []BatchSink
	runs       RunTracker
	events     EventLogger
	trackers   TrackerFactory
	workerOpts []WorkerOption
	now        func() time.Time

	mu      sync.RWMutex
	workers map[string]*Worker
	pools   map[string]*Pool
	// settled[id] is closed once the last run of a campaign has ended and its
	// running state is recorded; until then the pool still has an owner
	settled map[string]chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type ManagerOption func(*Manager)

func WithSinks(sinks ...BatchSink) ManagerOption {
	return func(m *Manager) {
		m.sinks = append(m.sinks, sinks...)
	}
}

func WithRunTracker(runs RunTracker) ManagerOption {
	return func(m *Manager) {
		m.runs = runs
	}
}

func WithEventLogger(events EventLogger) ManagerOption {
	return func(m *Manager) {
		m.events = events
	}
}

func WithTrackerFactory(fn TrackerFactory) ManagerOption {
	return func(m *Manager) {
		m.trackers = fn
	}
}

func WithWorkerOptions(opts ...WorkerOption) ManagerOption {
	return func(m *Manager) {
		m.workerOpts = append(m.workerOpts, opts...)
	}
}

// WithLimiterClock sets the time source of the hourly limiters
func WithLimiterClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.now = now
	}
}

func NewManager(searcher Searcher, planner KeywordSource, cfg config.ContinuousConfig, opts ...ManagerOption) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		searcher: searcher,
		planner:  planner,
		cfg:      cfg,
		now:      time.Now,
		workers:  make(map[string]*Worker),
		pools:    make(map[string]*Pool),
		settled:  make(map[string]chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start launches the continuous search of a campaign. A campaign that ran
// before keeps its pool, so addresses it already found are not returned
// again and the hourly cap still counts them.
func (m *Manager) Start(ctx context.Context, c Campaign) error {
	c.ID = strings.TrimSpace(c.ID)
	if c.ID == "" {
		return errors.New("campaign id is required")
	}
	if strings.TrimSpace(c.Industry) == "" && c.Strategy == nil {
		return fmt.Errorf("campaign %s: %w: an industry or a strategy is required", c.ID, common.ErrInvalidStrategy)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ctx.Err() != nil {
		return fmt.Errorf("campaign %s: manager is shut down", c.ID)
	}
	if m.live(c.ID) {
		return fmt.Errorf("campaign %s: %w", c.ID, common.ErrSearchAlreadyRunning)
	}
	if m.runs != nil {
		if err := m.runs.Start(ctx, c.ID); err != nil {
			return err
		}
	}

	pool, ok := m.pools[c.ID]
	if !ok {
		var tracker dedup.Tracker
		if m.trackers != nil {
			tracker = m.trackers(c.ID)
		}
		limiter := NewHourlyLimiter(int(m.cfg.MaxPerHour), m.now)
		pool = NewPool(c.ID, int(m.cfg.MaxPerHour), int(m.cfg.TargetTotal), tracker, limiter)
		m.pools[c.ID] = pool
	}

	w := NewWorker(c, m.cfg, m.searcher, m.planner, pool, m.workerOpts...)
	settled := make(chan struct{})
	m.workers[c.ID] = w
	m.settled[c.ID] = settled
	w.running.Store(true)

	if m.events != nil {
		_ = m.events.SearchStarted(ctx, c.ID, c.Industry, int(m.cfg.MaxPerHour))
	}

	m.wg.Add(1)
	go m.run(w, c.ID, settled)
	return nil
}

// live reports whether a run of the campaign has not settled yet, including
// a stopped one still finishing its last search. Callers hold m.mu.
func (m *Manager) live(campaignID string) bool {
	settled, ok := m.settled[campaignID]
	if !ok {
		return false
	}
	select {
	case <-settled:
		return false
	default:
		return true
	}
}

// StartFromMessage starts a search requested over the message bus
func (m *Manager) StartFromMessage(ctx context.Context, msg models.SearchControlMessage) error {
	return m.Start(ctx, Campaign{
		ID:        msg.CampaignID,
		UserID:    msg.UserID,
		Industry:  msg.Industry,
		Audience:  common.ParseAudience(msg.Audience),
		OwnDomain: msg.OwnDomain,
		Strategy:  msg.Strategy,
	})
}

// run drives a worker and, once its last batch is delivered, records how
// the search ended.
func (m *Manager) run(w *Worker, campaignID string, settled chan struct{}) {
	defer m.wg.Done()
	defer close(settled)

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		m.drain(w, campaignID)
	}()

	reason := w.Run(m.ctx)
	<-drained

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if m.runs != nil {
		var err error
		if reason == ReasonStopped || reason == ReasonCancelled {
			err = m.runs.Cancel(ctx, campaignID)
		} else {
			err = m.runs.Complete(ctx, campaignID)
		}
		if err != nil {
			log.Warn().Err(err).Str("campaignID", campaignID).Msg("Failed to clear search running state")
		}
	}
	if m.events != nil {
		_ = m.events.SearchStopped(ctx, campaignID, reason, w.Pool().Total())
	}
}

func (m *Manager) drain(w *Worker, campaignID string) {
	for batch := range w.Events() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		for _, sink := range m.sinks {
			if err := sink.HandleBatch(ctx, batch); err != nil {
				log.Error().Err(err).Str("campaignID", campaignID).Int("batchNumber", batch.BatchNumber).Msg("Batch sink failed")
			}
		}
		if m.events != nil {
			_ = m.events.BatchReady(ctx, campaignID, batch.BatchNumber, len(batch.Prospects), batch.TotalSoFar)
		}
		if m.runs != nil {
			if _, err := m.runs.Resume(ctx, campaignID); err != nil {
				log.Warn().Err(err).Str("campaignID", campaignID).Msg("Failed to extend search running state")
			}
		}
		cancel()
	}
}

// Stop asks the running search of a campaign to end
func (m *Manager) Stop(_ context.Context, campaignID string) error {
	m.mu.RLock()
	w, ok := m.workers[campaignID]
	m.mu.RUnlock()

	if !ok || !w.Running() {
		return fmt.Errorf("campaign %s: %w", campaignID, common.ErrSearchNotRunning)
	}
	w.Stop()
	return nil
}

// Wait blocks until the search of a campaign has ended and its running state
// is recorded, or ctx is done
func (m *Manager) Wait(ctx context.Context, campaignID string) error {
	m.mu.RLock()
	settled, ok := m.settled[campaignID]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("campaign %s: %w", campaignID, common.ErrSearchNotRunning)
	}

	select {
	case <-settled:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) pool(campaignID string) (*Pool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	pool, ok := m.pools[campaignID]
	if !ok {
		return nil, fmt.Errorf("campaign %s: %w", campaignID, common.ErrSearchNotRunning)
	}
	return pool, nil
}

// Stats returns the state of a campaign's search
func (m *Manager) Stats(campaignID string) (Stats, error) {
	pool, err := m.pool(campaignID)
	if err != nil {
		return Stats{}, err
	}
	return pool.Stats(), nil
}

// Pool returns up to n prospects found for a campaign, most recent first
func (m *Manager) Pool(campaignID string, n int) ([]models.Prospect, error) {
	pool, err := m.pool(campaignID)
	if err != nil {
		return nil, err
	}
	return pool.Snapshot(n), nil
}

// Clear empties the pool of a campaign
func (m *Manager) Clear(ctx context.Context, campaignID string) error {
	pool, err := m.pool(campaignID)
	if err != nil {
		return err
	}
	if err := pool.Clear(ctx); err != nil {
		return fmt.Errorf("clearing pool of campaign %s: %w", campaignID, err)
	}
	log.Info().Str("campaignID", campaignID).Msg("Prospect pool cleared")
	return nil
}

// List returns the stats of every campaign the manager knows, ordered by id
func (m *Manager) List() []Stats {
	m.mu.RLock()
	pools := maps.Clone(m.pools)
	m.mu.RUnlock()

	ids := slices.Sorted(maps.Keys(pools))
	out := make([]Stats, 0, len(ids))
	for _, id := range ids {
		out = append(out, pools[id].Stats())
	}
	return out
}

// Shutdown stops every search and waits for the workers to finish
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	for _, w := range m.workers {
		w.Stop()
	}
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.cancel()
		return nil
	case <-ctx.Done():
		m.cancel()
		return ctx.Err()
	}
}
