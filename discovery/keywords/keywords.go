// Package keywords turns a campaign strategy into short search keywords.
package keywords

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/LexiconIndonesia/prospect-discovery-service/common"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/models"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

const (
	DefaultMaxKeywords = 5
	DefaultMaxCreative = 10
	maxWordsPerKeyword = 2
	perGroupLimit      = 3
	minKeywordLength   = 2
	minPlannedKeywords = 3
)

// Generic terms that match far too many pages to be useful as a query.
var blacklist = lo.Keyify([]string{
	"business", "company", "startup", "corporate", "enterprise", "organization", "firm",
})

var industryTerms = []string{
	"AI", "Machine Learning", "SaaS", "Technology", "Software",
	"Marketing", "Sales", "Finance", "Healthcare", "Education",
	"E-commerce", "Retail", "Manufacturing", "Consulting",
	"Cloud", "Data", "Analytics", "Security", "Mobile",
}

var fallbackTerms = []string{"technology", "startup", "innovation"}

var industrySynonyms = []struct {
	key      string
	synonyms []string
}{
	{"technology", []string{"tech", "software", "digital", "IT"}},
	{"ai", []string{"artificial intelligence", "machine learning", "ML", "deep learning"}},
	{"marketing", []string{"advertising", "promotion", "branding", "outreach"}},
	{"saas", []string{"cloud software", "web app", "platform"}},
	{"finance", []string{"fintech", "banking", "investment", "trading"}},
	{"healthcare", []string{"medical", "health tech", "wellness", "biotech"}},
	{"education", []string{"edtech", "learning", "training", "teaching"}},
	{"ecommerce", []string{"retail", "online shop", "marketplace", "shopping"}},
}

var roleTerms = []string{
	"CEO", "founder", "director", "manager", "executive",
	"VP", "head", "lead", "specialist", "engineer",
}

var sizeTerms = []string{"startup", "SMB", "enterprise", "small business", "corporation"}

// Planner builds keyword lists. The zero value is not usable, use NewPlanner.
type Planner struct {
	MaxKeywords int
	MaxCreative int
	shuffle     func([]string) []string
}

type Option func(*Planner)

// WithShuffle replaces the random shuffle applied to creative variations.
func WithShuffle(fn func([]string) []string) Option {
	return func(p *Planner) {
		p.shuffle = fn
	}
}

func NewPlanner(opts ...Option) *Planner {
	p := &Planner{
		MaxKeywords: DefaultMaxKeywords,
		MaxCreative: DefaultMaxCreative,
		shuffle: func(s []string) []string {
			return lo.Shuffle(s)
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var defaultPlanner = NewPlanner()

// Plan is NewPlanner().Plan.
func Plan(strategy *models.Strategy, targetIndustry string) []string {
	return defaultPlanner.Plan(strategy, targetIndustry)
}

// PlanCreativeVariations is NewPlanner().PlanCreativeVariations.
func PlanCreativeVariations(targetIndustry string) []string {
	return defaultPlanner.PlanCreativeVariations(targetIndustry)
}

// keywordSet accumulates unique keywords of at most two words.
type keywordSet struct {
	items []string
	seen  map[string]struct{}
}

func newKeywordSet() *keywordSet {
	return &keywordSet{seen: make(map[string]struct{})}
}

func (s *keywordSet) add(raw string) {
	words := strings.Fields(raw)
	if len(words) > maxWordsPerKeyword {
		words = words[:maxWordsPerKeyword]
	}
	kw := strings.Join(words, " ")
	key := strings.ToLower(kw)

	if len(key) < minKeywordLength || lo.HasKey(blacklist, key) {
		return
	}
	if _, ok := s.seen[key]; ok {
		return
	}
	s.seen[key] = struct{}{}
	s.items = append(s.items, kw)
}

// Plan returns up to MaxKeywords keywords of one or two words each, best
// first: the target industry, the strategy keyword groups, industry terms
// found in the description and finally a few broad fallbacks.
func (p *Planner) Plan(strategy *models.Strategy, targetIndustry string) []string {
	set := newKeywordSet()
	set.add(targetIndustry)

	if strategy != nil {
		groups := strategy.TargetAudience.SearchKeywords
		for _, group := range [][]string{groups.Primary, groups.Industry, groups.Solution} {
			for _, kw := range lo.Slice(group, 0, perGroupLimit) {
				set.add(kw)
			}
		}
	}

	if len(set.items) < minPlannedKeywords {
		if desc, ok := strategy.DescriptionText().Get(); ok {
			descWords := words(desc)
			for _, term := range industryTerms {
				if len(set.items) >= p.MaxKeywords {
					break
				}
				if containsPhrase(descWords, words(term)) {
					set.add(term)
				}
			}
		}
	}

	if len(set.items) < minPlannedKeywords {
		for _, term := range fallbackTerms {
			set.add(term)
		}
	}

	out := lo.Slice(set.items, 0, p.MaxKeywords)
	log.Debug().Strs("keywords", out).Str("industry", targetIndustry).Msg("Planned search keywords")
	return out
}

// words splits text into lowercased words without surrounding punctuation.
func words(text string) []string {
	return lo.FilterMap(strings.Fields(strings.ToLower(text)), func(w string, _ int) (string, bool) {
		w = strings.TrimFunc(w, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		return w, w != ""
	})
}

// containsPhrase reports whether phrase occurs in text as consecutive whole words.
func containsPhrase(text, phrase []string) bool {
	if len(phrase) == 0 {
		return false
	}
	for i := 0; i+len(phrase) <= len(text); i++ {
		if slices.Equal(text[i:i+len(phrase)], phrase) {
			return true
		}
	}
	return false
}

// PlanCreativeVariations returns shuffled synonyms of the industry plus
// role and company-size terms, used once the planned keywords are spent.
func (p *Planner) PlanCreativeVariations(targetIndustry string) []string {
	industry := strings.ToLower(strings.TrimSpace(targetIndustry))
	tokens := lo.Keyify(strings.Fields(strings.ReplaceAll(industry, "-", "")))

	var variations []string
	for _, entry := range industrySynonyms {
		if industry == entry.key || lo.HasKey(tokens, entry.key) {
			variations = append(variations, entry.synonyms...)
		}
	}
	variations = append(variations, roleTerms...)
	variations = append(variations, sizeTerms...)

	if industry != "" && len(strings.Fields(industry)) == 1 {
		name := strings.TrimSpace(targetIndustry)
		variations = append(variations, name+" CEO", name+" founder")
	}

	variations = lo.UniqBy(variations, strings.ToLower)
	return lo.Slice(p.shuffle(variations), 0, p.MaxCreative)
}

// ParseStrategy decodes a strategy document. A body that is not a JSON
// object is a caller error and reported as ErrInvalidStrategy.
func ParseStrategy(data []byte) (*models.Strategy, error) {
	var s models.Strategy
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidStrategy, err)
	}
	return &s, nil
}
