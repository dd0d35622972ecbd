// Package continuous runs the long-lived background search of a campaign:
// keyword after keyword, under an hourly cap, handing out fixed-size
// batches of new prospects as they accumulate.
package continuous

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/LexiconIndonesia/prospect-discovery-service/common"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/config"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/models"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/retry"
	"github.com/LexiconIndonesia/prospect-discovery-service/discovery/orchestrator"
)

// Reasons a worker stops
const (
	ReasonStopped           = "stopped"
	ReasonTargetReached     = "target_reached"
	ReasonKeywordsExhausted = "keywords_exhausted"
	ReasonCancelled         = "cancelled"
)

const (
	// a round with more duplicates than this share and fewer than
	// exhaustedMinNew new addresses spends its keyword
	exhaustedDuplicateRate = 0.5
	exhaustedMinNew        = 5
	eventBuffer            = 4
)

// Searcher runs one keyword and returns enriched prospects
type Searcher interface {
	SearchKeyword(ctx context.Context, keyword string, req orchestrator.Request) ([]models.Prospect, error)
}

// KeywordSource plans the keywords of a campaign
type KeywordSource interface {
	Plan(strategy *models.Strategy, targetIndustry string) []string
	PlanCreativeVariations(targetIndustry string) []string
}

// Campaign is what a continuous search searches for
type Campaign struct {
	ID        string
	UserID    string
	Industry  string
	Audience  common.Audience
	OwnDomain string
	Strategy  *models.Strategy
}

type Worker struct {
	campaign Campaign
	cfg      config.ContinuousConfig
	searcher Searcher
	planner  KeywordSource
	pool     *Pool

	events   chan models.BatchReady
	stop     chan struct{}
	stopOnce sync.Once
	running  atomic.Bool
	done     chan struct{}

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration, wake <-chan struct{}) error
	newID func() string
}

type WorkerOption func(*Worker)

// WithClock sets the time source of the worker
func WithClock(now func() time.Time) WorkerOption {
	return func(w *Worker) {
		w.now = now
	}
}

// WithSleeper replaces the interruptible wait used between searches and
// while the hourly cap is reached.
func WithSleeper(fn func(ctx context.Context, d time.Duration, wake <-chan struct{}) error) WorkerOption {
	return func(w *Worker) {
		w.sleep = fn
	}
}

func NewWorker(campaign Campaign, cfg config.ContinuousConfig, searcher Searcher, planner KeywordSource, pool *Pool, opts ...WorkerOption) *Worker {
	w := &Worker{
		campaign: campaign,
		cfg:      cfg,
		searcher: searcher,
		planner:  planner,
		pool:     pool,
		events:   make(chan models.BatchReady, eventBuffer),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		now:      time.Now,
		sleep:    retry.Sleep,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Events delivers a BatchReady for every full batch. It is closed when Run
// returns, after the last partial batch.
func (w *Worker) Events() <-chan models.BatchReady {
	return w.events
}

// Done is closed when Run returns
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

func (w *Worker) Pool() *Pool {
	return w.pool
}

// Running reports whether the loop is active
func (w *Worker) Running() bool {
	return w.running.Load()
}

// Stop asks the loop to end at the top of its next iteration and cuts
// short any wait. A search in flight is allowed to finish.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		w.running.Store(false)
		close(w.stop)
	})
}

func (w *Worker) stopped() bool {
	select {
	case <-w.stop:
		return true
	default:
		return false
	}
}

// Run executes the search loop until it is stopped, reaches the target,
// runs out of keywords or ctx is done, and returns the reason.
func (w *Worker) Run(ctx context.Context) string {
	defer close(w.done)
	defer close(w.events)

	logger := log.With().Str("campaignID", w.campaign.ID).Logger()

	w.running.Store(!w.stopped())
	w.pool.markStarted(w.now())

	base := w.planner.Plan(w.campaign.Strategy, w.campaign.Industry)
	w.pool.Refill(base)
	logger.Info().Strs("keywords", base).Int("maxPerHour", int(w.cfg.MaxPerHour)).Int("target", int(w.cfg.TargetTotal)).Msg("Continuous search started")

	reason := w.loop(ctx, base)

	w.running.Store(false)
	w.emitBatches(ctx, true)
	w.pool.markStopped(reason, w.now())

	logger.Info().Str("reason", reason).Int("total", w.pool.Total()).Msg("Continuous search ended")
	return reason
}

func (w *Worker) loop(ctx context.Context, base []string) string {
	logger := log.With().Str("campaignID", w.campaign.ID).Logger()

	req := orchestrator.Request{
		Industry:   w.campaign.Industry,
		Strategy:   w.campaign.Strategy,
		MaxResults: int(w.cfg.RequestSize),
		Audience:   w.campaign.Audience,
		OwnDomain:  w.campaign.OwnDomain,
		CampaignID: w.campaign.ID,
	}

	for w.running.Load() {
		if ctx.Err() != nil {
			return ReasonCancelled
		}
		if w.pool.TargetReached() {
			return ReasonTargetReached
		}

		if wait := w.pool.RateLimitWait(); wait > 0 {
			logger.Info().Dur("wait", wait).Msg("Hourly cap reached, waiting")
			if err := w.sleep(ctx, wait, w.stop); err != nil {
				return ReasonCancelled
			}
			continue
		}

		keyword, ok := w.pool.NextKeyword()
		if !ok {
			if w.refill(base) == 0 {
				return ReasonKeywordsExhausted
			}
			continue
		}

		prospects, err := w.searcher.SearchKeyword(ctx, keyword, req)
		if err != nil {
			logger.Warn().Err(err).Str("keyword", keyword).Msg("Continuous search round failed")
			if err := w.sleep(ctx, w.cfg.ErrorDelay, w.stop); err != nil {
				return ReasonCancelled
			}
			continue
		}

		admitted, fresh, err := w.pool.Admit(ctx, prospects)
		if err != nil {
			logger.Warn().Err(err).Str("keyword", keyword).Msg("Failed to admit prospects")
		}

		if keywordSpent(len(prospects), fresh) {
			logger.Info().Str("keyword", keyword).Int("returned", len(prospects)).Int("new", fresh).Msg("Keyword exhausted")
		} else if fresh > 0 {
			w.pool.Requeue(keyword)
		}

		logger.Debug().
			Str("keyword", keyword).
			Int("returned", len(prospects)).
			Int("new", fresh).
			Int("admitted", len(admitted)).
			Int("total", w.pool.Total()).
			Msg("Continuous search round finished")

		w.emitBatches(ctx, false)

		if err := w.sleep(ctx, w.cfg.SearchDelay, w.stop); err != nil {
			return ReasonCancelled
		}
	}
	return ReasonStopped
}

// refill queues the unused planned keywords, or the unused creative
// variations once the planned ones are spent.
func (w *Worker) refill(base []string) int {
	if n := w.pool.Refill(base); n > 0 {
		return n
	}
	n := w.pool.Refill(w.planner.PlanCreativeVariations(w.campaign.Industry))
	if n > 0 {
		log.Info().Str("campaignID", w.campaign.ID).Int("count", n).Msg("Switched to creative keyword variations")
	}
	return n
}

func keywordSpent(returned, fresh int) bool {
	if returned == 0 {
		return false
	}
	duplicates := float64(returned-fresh) / float64(returned)
	return duplicates > exhaustedDuplicateRate && fresh < exhaustedMinNew
}

// emitBatches sends every full batch waiting in the pool, and with final
// set also what is left over.
func (w *Worker) emitBatches(ctx context.Context, final bool) {
	for {
		prospects, number, ok := w.pool.NextBatch(int(w.cfg.BatchSize), final)
		if !ok {
			return
		}

		batch := models.BatchReady{
			ID:          w.newID(),
			CampaignID:  w.campaign.ID,
			UserID:      w.campaign.UserID,
			BatchNumber: number,
			Prospects:   prospects,
			TotalSoFar:  w.pool.Total(),
			TargetTotal: int(w.cfg.TargetTotal),
			EmittedAt:   w.now(),
		}

		select {
		case w.events <- batch:
		case <-ctx.Done():
			return
		}
	}
}
