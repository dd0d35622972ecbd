// Package orchestrator runs one discovery request across the configured
// search adapters: keyword rounds on the primary adapter, fall through to
// the secondary adapters, the optional pattern fallback, then own-domain
// filtering, deduplication and enrichment.
package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/LexiconIndonesia/prospect-discovery-service/common"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/config"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/models"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/retry"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/source"
	"github.com/LexiconIndonesia/prospect-discovery-service/discovery/dedup"
	"github.com/LexiconIndonesia/prospect-discovery-service/discovery/enrich"
	"github.com/LexiconIndonesia/prospect-discovery-service/discovery/extractor"
	"github.com/LexiconIndonesia/prospect-discovery-service/discovery/keywords"
	"github.com/LexiconIndonesia/prospect-discovery-service/discovery/patterns"
	"github.com/LexiconIndonesia/prospect-discovery-service/discovery/scoring"
)

// State of one discovery run
type State string

const (
	StateInit         State = "init"
	StateTryingSource State = "trying_source"
	StateRetrying     State = "retrying"
	StateEnriching    State = "enriching"
	StateDone         State = "done"
	StateExhausted    State = "exhausted"
)

// Search methods reported in the response
const (
	MethodPattern = "pattern_fallback"
	MethodNone    = "none"

	// SourcePattern marks synthetic prospects
	SourcePattern = "pattern"
	// patternConfidence keeps synthetic candidates below any found address
	patternConfidence = 30
	// maxKeptTexts bounds the adapter text kept for the pattern fallback
	maxKeptTexts = 200
)

// NoResultsMessage is returned when every strategy came back empty
const NoResultsMessage = "no prospects found for this request"

// Request is one discovery request
type Request struct {
	Query      string
	Industry   string
	Strategy   *models.Strategy
	MaxResults int
	Audience   common.Audience
	OwnDomain  string
	CampaignID string
}

func (r Request) ownDomain() string {
	if r.OwnDomain != "" {
		return r.OwnDomain
	}
	return r.Strategy.OwnDomain()
}

func (r Request) industry() string {
	if r.Industry != "" {
		return r.Industry
	}
	return r.Query
}

// Report is the outcome of a run together with how it got there
type Report struct {
	Response models.DiscoveryResponse
	State    State
	// Rounds counts the keyword rounds run on the primary adapter
	Rounds int
	// Calls counts calls per adapter name
	Calls map[string]int
}

type Orchestrator struct {
	adapters []source.Adapter
	cfg      config.DiscoveryConfig
	planner  *keywords.Planner
	enricher *enrich.Enricher
	sleep    func(ctx context.Context, d time.Duration) error
}

type Option func(*Orchestrator)

func WithPlanner(p *keywords.Planner) Option {
	return func(o *Orchestrator) {
		o.planner = p
	}
}

func WithEnricher(e *enrich.Enricher) Option {
	return func(o *Orchestrator) {
		o.enricher = e
	}
}

// WithSleep replaces the wait between keyword rounds.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(o *Orchestrator) {
		o.sleep = fn
	}
}

// New returns an orchestrator over adapters, tried in the given order; the
// first one is the primary adapter.
func New(adapters []source.Adapter, cfg config.DiscoveryConfig, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		adapters: adapters,
		cfg:      cfg,
		planner:  keywords.NewPlanner(),
		enricher: enrich.New(),
		sleep: func(ctx context.Context, d time.Duration) error {
			return retry.Sleep(ctx, d, nil)
		},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Adapters returns the adapter names in priority order
func (o *Orchestrator) Adapters() []string {
	return lo.Map(o.adapters, func(a source.Adapter, _ int) string {
		return a.Name()
	})
}

// Keywords returns the keyword rounds a request runs on the primary
// adapter: the explicit query first, then the planned keywords.
func (o *Orchestrator) Keywords(req Request) []string {
	planned := o.planner.Plan(req.Strategy, req.industry())

	var out []string
	if q := strings.TrimSpace(req.Query); q != "" {
		out = append(out, q)
	}
	for _, kw := range planned {
		if !lo.ContainsBy(out, func(s string) bool { return strings.EqualFold(s, kw) }) {
			out = append(out, kw)
		}
	}

	if limit := int(o.cfg.MaxSearches); limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

type run struct {
	req      Request
	state    State
	target   int
	seen     map[string]struct{}
	lists    [][]models.Prospect
	methods  []string
	rounds   int
	calls    map[string]int
	failures int

	textMu sync.Mutex
	texts  []string
}

// keepText is the text sink of the run. Adapters may report from their
// page fetch workers.
func (r *run) keepText(text string) {
	r.textMu.Lock()
	defer r.textMu.Unlock()
	if len(r.texts) < maxKeptTexts {
		r.texts = append(r.texts, text)
	}
}

func (r *run) keptText() string {
	r.textMu.Lock()
	defer r.textMu.Unlock()
	return strings.Join(r.texts, "\n")
}

func (r *run) transition(to State) {
	log.Debug().Str("campaignID", r.req.CampaignID).Str("from", string(r.state)).Str("to", string(to)).Msg("Discovery state change")
	r.state = to
}

// add records the accepted prospects of one call and returns how many
// addresses were not seen before in this run.
func (r *run) add(adapter string, prospects []models.Prospect) int {
	fresh := 0
	for _, p := range prospects {
		key := models.NormalizeEmail(p.Email)
		if _, ok := r.seen[key]; ok {
			continue
		}
		r.seen[key] = struct{}{}
		fresh++
	}
	if len(prospects) > 0 {
		r.lists = append(r.lists, prospects)
	}
	if fresh > 0 && !lo.Contains(r.methods, adapter) {
		r.methods = append(r.methods, adapter)
	}
	return fresh
}

func (r *run) unique() int {
	return len(r.seen)
}

// Discover runs the whole state machine for req. It never fails: an adapter
// that errors counts as an empty round, and a run without any result is
// reported with Success=false and NoResultsMessage.
func (o *Orchestrator) Discover(ctx context.Context, req Request) Report {
	r := &run{
		req:    req,
		state:  StateInit,
		target: req.MaxResults,
		seen:   make(map[string]struct{}),
		calls:  make(map[string]int),
	}
	if r.target <= 0 {
		r.target = int(o.cfg.DefaultMaxResults)
	}

	kws := o.Keywords(req)
	logger := log.With().Str("campaignID", req.CampaignID).Str("audience", string(req.Audience)).Logger()
	logger.Info().Strs("keywords", kws).Strs("adapters", o.Adapters()).Int("target", r.target).Msg("Starting discovery")

	if len(o.adapters) == 0 {
		logger.Warn().Msg("No search adapters available")
		r.transition(StateExhausted)
		return o.report(r, nil, kws)
	}

	if o.cfg.PatternFallback {
		ctx = source.WithTextSink(ctx, r.keepText)
	}
	o.runPrimary(ctx, r, kws)
	o.runSecondaries(ctx, r, kws)

	if r.unique() == 0 && o.cfg.PatternFallback && ctx.Err() == nil {
		o.runPatterns(r, kws)
	}

	if r.unique() == 0 {
		r.transition(StateExhausted)
		logger.Info().Int("rounds", r.rounds).Int("failures", r.failures).Msg("Discovery exhausted without results")
		return o.report(r, nil, kws)
	}

	r.transition(StateEnriching)
	prospects := o.finish(r.lists, req, r.target)
	r.transition(StateDone)

	logger.Info().Int("found", len(prospects)).Int("rounds", r.rounds).Strs("methods", r.methods).Msg("Discovery completed")
	return o.report(r, prospects, kws)
}

// SearchKeyword runs a single keyword through the adapters in priority
// order and stops at the first adapter that yields accepted prospects. The
// prospects come back deduplicated and enriched. An error is returned only
// when every adapter failed.
func (o *Orchestrator) SearchKeyword(ctx context.Context, keyword string, req Request) ([]models.Prospect, error) {
	if len(o.adapters) == 0 {
		return nil, common.ErrNoSources
	}

	r := &run{
		req:    req,
		state:  StateTryingSource,
		target: req.MaxResults,
		seen:   make(map[string]struct{}),
		calls:  make(map[string]int),
	}
	for _, adapter := range o.adapters {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if r.add(adapter.Name(), o.call(ctx, r, adapter, keyword, 1)) > 0 {
			break
		}
	}

	if r.failures == len(o.adapters) {
		return nil, fmt.Errorf("searching %q: every adapter failed: %w", keyword, common.ErrAdapterUnavailable)
	}
	return o.finish(r.lists, req, r.target), nil
}

func (o *Orchestrator) runPrimary(ctx context.Context, r *run, kws []string) {
	primary := o.adapters[0]
	maxEmpty := int(o.cfg.MaxConsecutiveEmpty)
	consecutiveEmpty := 0

	r.transition(StateTryingSource)
	for i, kw := range kws {
		if ctx.Err() != nil {
			return
		}
		if i > 0 {
			r.transition(StateRetrying)
			if err := o.sleep(ctx, o.cfg.DelayBetweenSearches); err != nil {
				return
			}
		}

		r.rounds++
		fresh := r.add(primary.Name(), o.call(ctx, r, primary, kw, i+1))
		log.Debug().Str("adapter", primary.Name()).Str("keyword", kw).Int("new", fresh).Int("total", r.unique()).Msg("Keyword round finished")

		if fresh == 0 {
			consecutiveEmpty++
			if maxEmpty > 0 && consecutiveEmpty >= maxEmpty {
				log.Info().Str("adapter", primary.Name()).Int("rounds", r.rounds).Msg("Stopping keyword rounds, no new addresses")
				return
			}
		} else {
			consecutiveEmpty = 0
		}

		if r.unique() >= r.target {
			return
		}
	}
}

func (o *Orchestrator) runSecondaries(ctx context.Context, r *run, kws []string) {
	if len(o.adapters) < 2 || len(kws) == 0 {
		return
	}
	threshold := min(int(o.cfg.MinResults), r.target)

	for _, adapter := range o.adapters[1:] {
		if r.unique() >= threshold || ctx.Err() != nil {
			return
		}
		r.transition(StateTryingSource)
		r.add(adapter.Name(), o.call(ctx, r, adapter, kws[0], 1))
	}
}

// call runs one adapter call and returns the prospects that pass the
// audience gate and the own-domain filter. Failures count as empty.
func (o *Orchestrator) call(ctx context.Context, r *run, adapter source.Adapter, keyword string, round int) []models.Prospect {
	r.calls[adapter.Name()]++

	res := adapter.Discover(ctx, keyword, r.target)
	if !res.Success {
		r.failures++
		log.Warn().Str("adapter", adapter.Name()).Str("keyword", keyword).Str("error", res.Error).Msg("Search adapter returned no usable result")
		return nil
	}

	accepted := o.accept(res.Prospects, r.req)
	for i := range accepted {
		if accepted[i].Source == "" {
			accepted[i].Source = adapter.Name()
		}
		accepted[i].Metadata.SearchRound = round
	}
	return accepted
}

// accept applies the validity rules, the audience gate and the own-domain
// filter to raw adapter output.
func (o *Orchestrator) accept(prospects []models.Prospect, req Request) []models.Prospect {
	valid := lo.Filter(prospects, func(p models.Prospect, _ int) bool {
		if !extractor.IsValid(models.NormalizeEmail(p.Email)) {
			log.Debug().Str("email", p.Email).Msg("Dropped invalid candidate")
			return false
		}
		return o.passesAudience(p.Email, req.Audience)
	})
	return dedup.FilterOwnDomain(valid, req.ownDomain())
}

func (o *Orchestrator) passesAudience(email string, audience common.Audience) bool {
	email = models.NormalizeEmail(email)
	switch audience {
	case common.AudienceBusiness:
		return scoring.Business(email) >= int(o.cfg.BusinessMinScore)
	case common.AudienceConsumer:
		return extractor.IsLikelyReal(email) && scoring.Personal(email) >= int(o.cfg.ConsumerMinScore)
	default:
		return true
	}
}

// runPatterns guesses addresses for the people and social handles named
// in the text the adapters read, then company inboxes from the keywords.
// Guesses are synthetic and never outrank a found address.
func (o *Orchestrator) runPatterns(r *run, kws []string) {
	r.transition(StateTryingSource)

	limit := int(o.cfg.PatternCandidateLimit)
	minScore := int(o.cfg.PatternMinScore)
	now := time.Now()

	identities := patterns.ExtractIdentities(r.keptText())
	if len(identities) > 0 {
		log.Debug().Str("campaignID", r.req.CampaignID).Int("identities", len(identities)).Msg("Found names and handles in search text")
	}
	for _, kw := range kws {
		identities = append(identities, patterns.Identity{Kind: patterns.KindCompany, Company: kw, Context: kw})
	}

	var prospects []models.Prospect
	for _, id := range identities {
		for _, c := range patterns.Generate(id, "") {
			if c.Confidence < minScore {
				continue
			}
			prospects = append(prospects, models.Prospect{
				Email:      c.Email,
				Source:     SourcePattern,
				Confidence: min(patternConfidence, c.Confidence),
				Metadata: models.Metadata{
					DiscoveryMethod: c.Source,
					Query:           id.Context,
					FoundAt:         now,
					Synthetic:       true,
				},
			})
		}
	}

	accepted := o.accept(prospects, r.req)
	if limit > 0 && len(accepted) > limit {
		accepted = accepted[:limit]
	}
	if r.add(MethodPattern, accepted) > 0 {
		log.Warn().Int("count", len(accepted)).Msg("Using synthetic pattern candidates")
	}
}

// finish filters, deduplicates, enriches and orders the collected lists.
func (o *Orchestrator) finish(lists [][]models.Prospect, req Request, target int) []models.Prospect {
	var all []models.Prospect
	for _, l := range lists {
		all = append(all, l...)
	}

	merged := dedup.Merge(dedup.FilterOwnDomain(all, req.ownDomain()))
	enriched := o.enricher.Enrich(merged, req.industry())

	switch req.Audience {
	case common.AudienceBusiness:
		sort.SliceStable(enriched, func(i, j int) bool {
			return enriched[i].BusinessScore > enriched[j].BusinessScore
		})
	case common.AudienceConsumer:
		sort.SliceStable(enriched, func(i, j int) bool {
			return enriched[i].PersonalScore > enriched[j].PersonalScore
		})
	}

	if target > 0 && len(enriched) > target {
		enriched = enriched[:target]
	}
	return enriched
}

func (o *Orchestrator) report(r *run, prospects []models.Prospect, kws []string) Report {
	if prospects == nil {
		prospects = []models.Prospect{}
	}

	resp := models.DiscoveryResponse{
		Success:      len(prospects) > 0,
		Prospects:    prospects,
		IsRealData:   lo.ContainsBy(prospects, func(p models.Prospect) bool { return !p.Metadata.Synthetic }),
		SearchMethod: MethodNone,
		Keywords:     kws,
	}
	if len(r.methods) > 0 {
		resp.SearchMethod = strings.Join(r.methods, "+")
	}
	if len(prospects) == 0 {
		resp.Message = NoResultsMessage
		if len(o.adapters) == 0 {
			resp.Message = fmt.Sprintf("%s: %v", NoResultsMessage, common.ErrNoSources)
		}
	}

	return Report{Response: resp, State: r.state, Rounds: r.rounds, Calls: r.calls}
}
