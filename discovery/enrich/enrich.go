// Package enrich fills the derived fields of a prospect: identity, scores,
// inferred role and tags.
package enrich

import (
	"strings"
	"time"

	"github.com/LexiconIndonesia/prospect-discovery-service/common/models"
	"github.com/LexiconIndonesia/prospect-discovery-service/discovery/scoring"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

type Enricher struct {
	now   func() time.Time
	newID func() string
}

type Option func(*Enricher)

func WithClock(now func() time.Time) Option {
	return func(e *Enricher) {
		e.now = now
	}
}

func WithIDGenerator(fn func() string) Option {
	return func(e *Enricher) {
		e.newID = fn
	}
}

func New(opts ...Option) *Enricher {
	e := &Enricher{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enrich returns a copy of prospects with derived fields set. Fields an
// adapter already filled in are kept.
func (e *Enricher) Enrich(prospects []models.Prospect, industry string) []models.Prospect {
	now := e.now()
	return lo.Map(prospects, func(p models.Prospect, _ int) models.Prospect {
		return e.enrichOne(p, industry, now)
	})
}

func (e *Enricher) enrichOne(p models.Prospect, industry string, now time.Time) models.Prospect {
	p.Email = models.NormalizeEmail(p.Email)
	if p.ID == "" {
		p.ID = e.newID()
	}
	if p.DiscoveredAt.IsZero() {
		p.DiscoveredAt = now
	}
	if p.Metadata.FoundAt.IsZero() {
		p.Metadata.FoundAt = now
	}
	if p.Industry == "" {
		p.Industry = industry
	}
	if strings.TrimSpace(p.Name) == "" || scoring.IsGenericPrefix(strings.ToLower(p.Name)) {
		p.Name = NameFromEmail(p.Email)
	}
	if p.Company == "" {
		p.Company = CompanyFromDomain(models.EmailDomain(p.Email))
	}

	p.BusinessScore = scoring.Business(p.Email)
	p.PersonalScore = scoring.Personal(p.Email)

	role := scoring.InferRole(p.Email, p.CompanySize)
	if p.Role == "" {
		p.Role = role.Title
	}
	p.RoleLevel = role.Level
	p.DecisionMaker = p.DecisionMaker || role.DecisionMaker
	p.PriorityScore = PriorityScore(p.Confidence, role)
	p.Tags = tags(p, role)

	return p
}

// PriorityScore blends adapter confidence with the role priority into [0, 100].
func PriorityScore(confidence int, role scoring.Role) int {
	c := max(0, min(confidence, 100))
	score := (c*6 + role.Priority.Weight()*4) / 10
	if role.DecisionMaker {
		score += 10
	}
	return max(0, min(score, 100))
}

func tags(p models.Prospect, role scoring.Role) []string {
	out := []string{
		strings.ToLower(p.Industry),
		p.Source,
		strings.ToLower(role.Level),
	}
	if role.DecisionMaker {
		out = append(out, "decision_maker")
	}
	if scoring.IsPersonalProvider(models.EmailDomain(p.Email)) {
		out = append(out, "personal_mailbox")
	}
	if p.Metadata.Synthetic {
		out = append(out, "pattern")
	}
	return lo.Uniq(lo.Compact(out))
}
