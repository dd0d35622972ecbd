// Package ollama finds addresses through SearxNG and asks a local Ollama
// model for an outreach profile of every address found.
package ollama

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/LexiconIndonesia/prospect-discovery-service/common"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/config"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/llm"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/models"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/source"
	"github.com/LexiconIndonesia/prospect-discovery-service/sources"
	"github.com/LexiconIndonesia/prospect-discovery-service/sources/searxng"
)

// Name is the registry name of the adapter
const Name = "ollama-searxng"

// MethodProfiled marks prospects that went through the model
const MethodProfiled = "ollama_searxng_integration"

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Adapter is the richest and slowest backend: every prospect it returns
// carries a role and company size estimated by the model.
type Adapter struct {
	*source.BaseAdapter
	client     *searxng.Client
	harvester  *source.Harvester
	ollamaURL  string
	model      string
	llmTimeout time.Duration
	workers    int
}

// Create builds the adapter; it needs both an Ollama URL and a SearxNG instance
func Create(cfg config.SearchConfig, deps source.Dependencies) (source.Adapter, error) {
	ollamaURL := strings.TrimRight(strings.TrimSpace(cfg.OllamaURL), "/")
	if ollamaURL == "" || cfg.OllamaModel == "" {
		return nil, fmt.Errorf("ollama: model endpoint not configured: %w", common.ErrAdapterUnavailable)
	}

	baseCfg := sources.BaseConfig(cfg)
	baseCfg.Timeout = cfg.HTTPTimeout + cfg.LLMTimeout
	base := source.NewBaseAdapter(Name, baseCfg, deps.HTTPClient, deps.Cache)

	client, err := searxng.NewClient(base, cfg.SearxNGInstances)
	if err != nil {
		return nil, err
	}

	return &Adapter{
		BaseAdapter: base,
		client:      client,
		harvester:   sources.NewHarvester(base, cfg, deps),
		ollamaURL:   ollamaURL,
		model:       cfg.OllamaModel,
		llmTimeout:  cfg.LLMTimeout,
		workers:     max(int(cfg.ProfileWorkers), 1),
	}, nil
}

func (a *Adapter) Discover(ctx context.Context, query string, maxResults int) source.Result {
	return a.Run(ctx, query, maxResults, a.search)
}

func (a *Adapter) search(ctx context.Context, query string, maxResults int) ([]models.Prospect, error) {
	hits, err := a.client.Search(ctx, sources.EmailQuery(query))
	if err != nil {
		return nil, err
	}

	prospects := sources.Collect(ctx, a.harvester, hits, maxResults)
	if len(prospects) == 0 {
		return prospects, nil
	}

	a.profile(ctx, prospects, query)
	return prospects, nil
}

// profile fills in the model's estimate for every prospect. An answer that
// cannot be parsed yields the default profile; a call that fails leaves the
// prospect untouched. Neither fails the search.
func (a *Adapter) profile(ctx context.Context, prospects []models.Prospect, keyword string) {
	if a.llmTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.llmTimeout)
		defer cancel()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)

	for i := range prospects {
		g.Go(func() error {
			p := &prospects[i]
			text, err := a.generate(gctx, buildPrompt(*p, keyword))
			if err != nil {
				log.Warn().Err(err).Str("email", p.Email).Msg("Profile generation failed")
				return nil
			}
			applyProfile(p, llm.ParseProfile(text))
			return nil
		})
	}
	_ = g.Wait()
}

func (a *Adapter) generate(ctx context.Context, prompt string) (string, error) {
	req := generateRequest{
		Model:  a.model,
		Prompt: prompt,
		Stream: false,
		Options: map[string]any{
			"temperature": 0.8,
			"num_predict": 500,
			"num_ctx":     2048,
		},
	}

	var resp generateResponse
	if err := a.PostJSON(ctx, a.ollamaURL+"/api/generate", req, &resp); err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Response), nil
}

func buildPrompt(p models.Prospect, keyword string) string {
	var b strings.Builder
	b.WriteString("Build a short business profile for the owner of this email address.\n\n")
	fmt.Fprintf(&b, "Email: %s\n", p.Email)
	fmt.Fprintf(&b, "Found on: %s\n", p.Metadata.SourceTitle)
	fmt.Fprintf(&b, "Page: %s\n", p.Metadata.SourceURL)
	fmt.Fprintf(&b, "Industry: %s\n\n", keyword)
	b.WriteString(`Answer with JSON only, using exactly these keys:
{
  "estimated_role": "CEO, Sales, Marketing, Support, ...",
  "company_size": "Startup, SME or Enterprise",
  "decision_level": "High, Medium or Low",
  "communication_style": "Formal, Casual or Technical",
  "pain_points": ["..."],
  "best_contact_time": "...",
  "email_strategy": "...",
  "personalization_tips": ["..."],
  "confidence_score": 0.8
}`)
	return b.String()
}

func applyProfile(p *models.Prospect, profile llm.Profile) {
	if p.Role == "" {
		p.Role = profile.EstimatedRole
	}
	if p.CompanySize == "" && !strings.EqualFold(profile.CompanySize, "unknown") {
		p.CompanySize = profile.CompanySize
	}
	p.Metadata.DiscoveryMethod = MethodProfiled
	if p.Metadata.Extra == nil {
		p.Metadata.Extra = make(map[string]string)
	}
	p.Metadata.Extra["decisionLevel"] = profile.DecisionLevel
	p.Metadata.Extra["communicationStyle"] = profile.CommunicationStyle
	p.Metadata.Extra["bestContactTime"] = profile.BestContactTime
	p.Metadata.Extra["emailStrategy"] = profile.EmailStrategy
	p.Metadata.Extra["painPoints"] = strings.Join(profile.PainPoints, "; ")
}
