package scoring

import (
	"regexp"
	"strings"

	"github.com/LexiconIndonesia/prospect-discovery-service/common/models"
	"github.com/samber/lo"
)

const (
	MaxBusinessScore = 150
	MaxPersonalScore = 100
)

// Tier is the priority class of a mailbox local part.
type Tier int

const (
	TierNone Tier = iota
	TierSupport
	TierGeneral
	TierMarketing
	TierSales
	TierExecutive
	TierAvoid
)

var (
	executivePrefixes = []string{
		"ceo", "founder", "cofounder", "president", "vp", "vice.president",
		"director", "manager", "head", "chief", "owner", "partner",
	}
	salesPrefixes = []string{
		"sales", "business", "partnerships", "partner", "bd", "bizdev",
		"enterprise", "corporate", "wholesale", "b2b", "commercial",
	}
	marketingPrefixes = []string{
		"marketing", "pr", "media", "press", "communications", "outreach",
		"brand", "growth", "acquisition", "digital", "social",
	}
	generalPrefixes = []string{
		"contact", "info", "hello", "hi", "general", "office",
		"team", "inquiries", "connect", "reach",
	}
	supportPrefixes = []string{
		"support", "help", "service", "customer", "care", "success",
		"onboarding", "technical", "tech",
	}
	avoidPrefixes = []string{
		"noreply", "no-reply", "donotreply", "admin", "webmaster",
		"postmaster", "mailer", "daemon", "system", "automated",
	}

	tierPoints = map[Tier]int{
		TierExecutive: 100,
		TierSales:     85,
		TierMarketing: 70,
		TierGeneral:   60,
		TierSupport:   30,
	}
)

var (
	dottedName     = regexp.MustCompile(`^[a-z]+\.[a-z]+$`)
	underscoreName = regexp.MustCompile(`^[a-z]+_[a-z]+$`)
	plainName      = regexp.MustCompile(`^[a-z]+$`)
)

// Classify returns the tier of a local part. Avoid prefixes win over every
// other tier.
func Classify(local string) Tier {
	local = strings.ToLower(local)
	switch {
	case lo.Contains(avoidPrefixes, local):
		return TierAvoid
	case lo.Contains(executivePrefixes, local):
		return TierExecutive
	case lo.Contains(salesPrefixes, local):
		return TierSales
	case lo.Contains(marketingPrefixes, local):
		return TierMarketing
	case lo.Contains(generalPrefixes, local):
		return TierGeneral
	case lo.Contains(supportPrefixes, local):
		return TierSupport
	}
	return TierNone
}

// IsGenericPrefix reports whether the local part is a role inbox rather than
// a person's name.
func IsGenericPrefix(local string) bool {
	return Classify(local) != TierNone
}

// Business scores an address for B2B outreach, in [0, 150]. Rules are
// additive except for avoid prefixes, which score 0 outright.
func Business(email string) int {
	email = strings.ToLower(strings.TrimSpace(email))
	at := strings.LastIndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return 0
	}
	local, domain := email[:at], email[at+1:]

	tier := Classify(local)
	if tier == TierAvoid {
		return 0
	}
	score := tierPoints[tier]

	personal := IsPersonalProvider(domain)
	switch {
	case personal:
		score -= 20
	case hasBusinessTLD(domain):
		score += 40
	}

	switch {
	case dottedName.MatchString(local):
		score += 15
	case underscoreName.MatchString(local):
		score += 10
	case plainName.MatchString(local) && len(local) >= 3 && len(local) <= 15:
		score += 5
	}

	labels := strings.Split(domain, ".")
	if len(labels) == 2 && len(labels[0]) >= 3 && len(labels[0]) <= 20 {
		score += 10
	}

	if !personal && IsIndustryDomain(domain) {
		score += 20
	}

	return clamp(score, 0, MaxBusinessScore)
}

// Personal scores an address for B2C outreach, in [0, 100].
func Personal(email string) int {
	local := models.LocalPart(email)
	domain := models.EmailDomain(email)
	if local == "" || domain == "" {
		return 0
	}

	score := 0
	if IsPersonalProvider(domain) {
		score += 50
	}
	if strings.Contains(local, ".") {
		score += 10
	}
	if strings.Contains(local, "_") {
		score += 5
	}
	if strings.ContainsAny(local, "0123456789") {
		score += 15
	}
	for _, indicator := range businessIndicators {
		if strings.Contains(local, indicator) {
			score -= 30
			break
		}
	}
	if len(local) >= 6 && len(local) <= 20 {
		score += 10
	}

	return clamp(score, 0, MaxPersonalScore)
}

var businessIndicators = []string{"admin", "info", "support", "contact", "sales", "service"}

func clamp(v, floor, ceil int) int {
	return max(floor, min(v, ceil))
}
