package llm

import (
	"github.com/rs/zerolog/log"
)

// Profile is the outreach profile a model writes for one prospect
type Profile struct {
	EstimatedRole       string   `json:"estimated_role"`
	CompanySize         string   `json:"company_size"`
	DecisionLevel       string   `json:"decision_level"`
	CommunicationStyle  string   `json:"communication_style"`
	PainPoints          []string `json:"pain_points"`
	BestContactTime     string   `json:"best_contact_time"`
	EmailStrategy       string   `json:"email_strategy"`
	PersonalizationTips []string `json:"personalization_tips"`
	ConfidenceScore     float64  `json:"confidence_score"`
}

// DefaultProfile is used whenever a response cannot be parsed
func DefaultProfile() Profile {
	return Profile{
		EstimatedRole:       "Business Professional",
		CompanySize:         "unknown",
		DecisionLevel:       "medium",
		CommunicationStyle:  "professional",
		PainPoints:          []string{"efficiency", "growth"},
		BestContactTime:     "morning",
		EmailStrategy:       "Professional outreach with value proposition",
		PersonalizationTips: []string{"Mention industry relevance", "Focus on business benefits"},
		ConfidenceScore:     0.5,
	}
}

// ParseProfile never fails: a response that cannot be parsed yields the
// default profile, and missing fields are filled from it.
func ParseProfile(text string) Profile {
	res := Parse[Profile](text)
	if res.IsError() {
		log.Warn().Err(res.Error()).Msg("Falling back to default profile")
		return DefaultProfile()
	}
	return res.MustGet().withDefaults()
}

func (p Profile) withDefaults() Profile {
	def := DefaultProfile()
	if p.EstimatedRole == "" {
		p.EstimatedRole = def.EstimatedRole
	}
	if p.CompanySize == "" {
		p.CompanySize = def.CompanySize
	}
	if p.DecisionLevel == "" {
		p.DecisionLevel = def.DecisionLevel
	}
	if p.CommunicationStyle == "" {
		p.CommunicationStyle = def.CommunicationStyle
	}
	if len(p.PainPoints) == 0 {
		p.PainPoints = def.PainPoints
	}
	if p.BestContactTime == "" {
		p.BestContactTime = def.BestContactTime
	}
	if p.EmailStrategy == "" {
		p.EmailStrategy = def.EmailStrategy
	}
	if len(p.PersonalizationTips) == 0 {
		p.PersonalizationTips = def.PersonalizationTips
	}
	if p.ConfidenceScore <= 0 || p.ConfidenceScore > 1 {
		p.ConfidenceScore = def.ConfidenceScore
	}
	return p
}
