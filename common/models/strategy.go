package models

import (
	"encoding/json"
	"strings"

	"github.com/samber/mo"
)

// Strategy is the marketing strategy a campaign was created with. Only the
// fields used for keyword planning and own-domain filtering are modelled.
type Strategy struct {
	CompanyName        string         `json:"company_name"`
	Domain             string         `json:"domain"`
	Website            string         `json:"website"`
	Description        string         `json:"description"`
	CompanyDescription string         `json:"company_description"`
	TargetAudience     TargetAudience `json:"target_audience"`
}

type TargetAudience struct {
	Type            string        `json:"type"`
	SearchKeywords  KeywordGroups `json:"search_keywords"`
	PrimarySegments []string      `json:"primary_segments"`
}

// KeywordGroups holds the keyword lists produced by the strategy generator
type KeywordGroups struct {
	Primary  []string `json:"primary_keywords"`
	Industry []string `json:"industry_keywords"`
	Solution []string `json:"solution_keywords"`
}

// UnmarshalJSON accepts both the grouped object and the older flat array of
// keywords, which is read as the primary group.
func (k *KeywordGroups) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" || trimmed == "" {
		return nil
	}

	if strings.HasPrefix(trimmed, "[") {
		var flat []string
		if err := json.Unmarshal(data, &flat); err != nil {
			return err
		}
		k.Primary = flat
		return nil
	}

	type plain KeywordGroups
	var groups plain
	if err := json.Unmarshal(data, &groups); err != nil {
		return err
	}
	*k = KeywordGroups(groups)
	return nil
}

// DescriptionText returns the free-text company description, if any
func (s *Strategy) DescriptionText() mo.Option[string] {
	if s == nil {
		return mo.None[string]()
	}
	if d := strings.TrimSpace(s.Description); d != "" {
		return mo.Some(d)
	}
	if d := strings.TrimSpace(s.CompanyDescription); d != "" {
		return mo.Some(d)
	}
	return mo.None[string]()
}

// OwnDomain returns the campaign owner's domain, falling back to the website
func (s *Strategy) OwnDomain() string {
	if s == nil {
		return ""
	}
	if s.Domain != "" {
		return s.Domain
	}
	return s.Website
}
