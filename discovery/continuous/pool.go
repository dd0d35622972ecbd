package continuous

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/LexiconIndonesia/prospect-discovery-service/common/models"
	"github.com/LexiconIndonesia/prospect-discovery-service/discovery/dedup"
)

// Stats is a point-in-time view of a campaign's continuous search
type Stats struct {
	CampaignID        string        `json:"campaignId"`
	Running           bool          `json:"running"`
	StopReason        string        `json:"stopReason,omitempty"`
	TotalFound        int           `json:"totalFound"`
	TargetTotal       int           `json:"targetTotal"`
	BatchesEmitted    int           `json:"batchesEmitted"`
	Searches          int           `json:"searches"`
	CurrentKeyword    string        `json:"currentKeyword,omitempty"`
	KeywordsQueued    int           `json:"keywordsQueued"`
	KeywordsUsed      int           `json:"keywordsUsed"`
	CountThisHour     int           `json:"countThisHour"`
	MaxPerHour        int           `json:"maxPerHour"`
	RemainingThisHour int           `json:"remainingThisHour"`
	ResetIn           time.Duration `json:"resetIn"`
	StartedAt         time.Time     `json:"startedAt"`
	StoppedAt         time.Time     `json:"stoppedAt,omitempty"`
}

// Pool is the state of one campaign's continuous search: the accepted
// prospects, the keyword queue and the hourly limiter. Only the owning
// worker mutates it; readers get copies.
type Pool struct {
	mu         sync.RWMutex
	campaignID string
	maxPerHour int
	target     int
	tracker    dedup.Tracker
	limiter    *HourlyLimiter

	prospects []models.Prospect
	queue     []string
	used      map[string]struct{}
	current   string
	reported  int
	batches   int
	searches  int

	running    bool
	stopReason string
	startedAt  time.Time
	stoppedAt  time.Time
}

func NewPool(campaignID string, maxPerHour, target int, tracker dedup.Tracker, limiter *HourlyLimiter) *Pool {
	if tracker == nil {
		tracker = dedup.NewMemoryTracker()
	}
	if limiter == nil {
		limiter = NewHourlyLimiter(maxPerHour, nil)
	}
	return &Pool{
		campaignID: campaignID,
		maxPerHour: maxPerHour,
		target:     target,
		tracker:    tracker,
		limiter:    limiter,
		used:       make(map[string]struct{}),
	}
}

// markStarted opens a new run on the pool. Prospects, seen addresses and the
// hourly count carry over from earlier runs; the keyword queue does not.
func (p *Pool) markStarted(at time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queue = nil
	p.used = make(map[string]struct{})
	p.current = ""
	p.running = true
	p.startedAt = at
	p.stopReason = ""
	p.stoppedAt = time.Time{}
}

func (p *Pool) markStopped(reason string, at time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.running = false
	p.stopReason = reason
	p.stoppedAt = at
	p.current = ""
}

// NextKeyword pops the head of the keyword queue
func (p *Pool) NextKeyword() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.queue) == 0 {
		return "", false
	}
	kw := p.queue[0]
	p.queue = p.queue[1:]
	p.current = kw
	p.searches++
	return kw, true
}

// Requeue puts a productive keyword back at the tail of the queue
func (p *Pool) Requeue(keyword string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queue = append(p.queue, keyword)
}

// Refill queues the keywords of candidates that were never used and marks
// them used. It returns how many were queued.
func (p *Pool) Refill(candidates []string) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	added := 0
	for _, kw := range candidates {
		key := strings.ToLower(strings.TrimSpace(kw))
		if key == "" {
			continue
		}
		if _, ok := p.used[key]; ok {
			continue
		}
		p.used[key] = struct{}{}
		p.queue = append(p.queue, kw)
		added++
	}
	return added
}

// RateLimitWait is how long the worker has to wait before the hourly cap
// lets another prospect in; zero when it may search now.
func (p *Pool) RateLimitWait() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.limiter.Exhausted() {
		return 0
	}
	return p.limiter.ResetIn()
}

// TargetReached reports whether the pool holds the target number of prospects
func (p *Pool) TargetReached() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.target > 0 && len(p.prospects) >= p.target
}

// Admit adds the candidates not seen before, as far as the hourly cap and
// the target allow. It returns the admitted prospects and how many
// candidates were new; new candidates over the cap are dropped and stay
// unseen.
func (p *Pool) Admit(ctx context.Context, candidates []models.Prospect) ([]models.Prospect, int, error) {
	unseen := make([]models.Prospect, 0, len(candidates))
	batch := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		key := models.NormalizeEmail(c.Email)
		if _, dup := batch[key]; dup {
			continue
		}
		batch[key] = struct{}{}

		seen, err := p.tracker.Seen(ctx, key)
		if err != nil {
			return nil, 0, fmt.Errorf("checking %s: %w", key, err)
		}
		if !seen {
			unseen = append(unseen, c)
		}
	}

	p.mu.Lock()
	room := len(unseen)
	if p.target > 0 {
		room = min(room, p.target-len(p.prospects))
	}
	granted := p.limiter.Take(max(room, 0))
	admitted := slices.Clone(unseen[:granted])
	p.prospects = append(p.prospects, admitted...)
	p.mu.Unlock()

	if len(admitted) > 0 {
		emails := lo.Map(admitted, func(a models.Prospect, _ int) string { return models.NormalizeEmail(a.Email) })
		if _, err := p.tracker.Add(ctx, emails...); err != nil {
			return admitted, len(unseen), fmt.Errorf("recording admitted prospects: %w", err)
		}
	}
	return admitted, len(unseen), nil
}

// NextBatch returns the next full batch of unreported prospects and its
// number. With partial set it also returns a smaller final batch.
func (p *Pool) NextBatch(size int, partial bool) ([]models.Prospect, int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pending := len(p.prospects) - p.reported
	if pending <= 0 || size <= 0 || (pending < size && !partial) {
		return nil, 0, false
	}

	n := min(size, pending)
	batch := slices.Clone(p.prospects[p.reported : p.reported+n])
	p.reported += n
	p.batches++
	return batch, p.batches, true
}

// Total is the number of prospects in the pool
func (p *Pool) Total() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.prospects)
}

// Snapshot returns up to n prospects, most recent first; n <= 0 means all
func (p *Pool) Snapshot(n int) []models.Prospect {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := slices.Clone(p.prospects)
	slices.Reverse(out)
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Clear drops the accumulated prospects and forgets which addresses were
// seen. The hourly count is kept.
func (p *Pool) Clear(ctx context.Context) error {
	p.mu.Lock()
	p.prospects = nil
	p.reported = 0
	p.batches = 0
	p.mu.Unlock()

	return p.tracker.Reset(ctx)
}

func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	return Stats{
		CampaignID:        p.campaignID,
		Running:           p.running,
		StopReason:        p.stopReason,
		TotalFound:        len(p.prospects),
		TargetTotal:       p.target,
		BatchesEmitted:    p.batches,
		Searches:          p.searches,
		CurrentKeyword:    p.current,
		KeywordsQueued:    len(p.queue),
		KeywordsUsed:      len(p.used),
		CountThisHour:     p.limiter.Count(),
		MaxPerHour:        p.maxPerHour,
		RemainingThisHour: p.limiter.Remaining(),
		ResetIn:           p.limiter.ResetIn(),
		StartedAt:         p.startedAt,
		StoppedAt:         p.stoppedAt,
	}
}
