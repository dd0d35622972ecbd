package scoring

import (
	"strings"

	"github.com/LexiconIndonesia/prospect-discovery-service/common/models"
)

type Priority string

const (
	PriorityHighest Priority = "highest"
	PriorityHigh    Priority = "high"
	PriorityMedium  Priority = "medium"
	PriorityLow     Priority = "low"
)

// Weight maps a priority onto the 0-100 scale used for priority scores.
func (p Priority) Weight() int {
	switch p {
	case PriorityHighest:
		return 100
	case PriorityHigh:
		return 80
	case PriorityLow:
		return 30
	default:
		return 55
	}
}

// Role is the inferred position of the person behind an address.
type Role struct {
	Title         string   `json:"role"`
	Level         string   `json:"level"`
	DecisionMaker bool     `json:"decisionMaker"`
	Priority      Priority `json:"priority"`
}

// InferRole guesses the contact role from the mailbox name. companySize
// "small" turns sales and general inboxes into decision makers.
func InferRole(email, companySize string) Role {
	local := models.LocalPart(email)
	small := strings.EqualFold(companySize, "small")

	switch {
	case strings.HasSuffix(local, "ceo") || strings.HasSuffix(local, "founder"):
		return Role{Title: "CEO/Founder", Level: "C-Level", DecisionMaker: true, Priority: PriorityHighest}
	case strings.HasSuffix(local, "vp") || strings.Contains(local, "vice") ||
		strings.HasSuffix(local, "director") || strings.HasSuffix(local, "head"):
		return Role{Title: "VP/Director", Level: "Executive", DecisionMaker: true, Priority: PriorityHigh}
	}

	switch Classify(local) {
	case TierSales:
		return Role{Title: "Sales Professional", Level: "Sales", DecisionMaker: small, Priority: PriorityHigh}
	case TierMarketing:
		return Role{Title: "Marketing Professional", Level: "Marketing", Priority: PriorityMedium}
	case TierGeneral:
		return Role{Title: "General Business Contact", Level: "General", DecisionMaker: small, Priority: PriorityMedium}
	case TierSupport:
		return Role{Title: "Customer Support", Level: "Support", Priority: PriorityLow}
	}

	return Role{Title: "Business Contact", Level: "Unknown", Priority: PriorityMedium}
}
