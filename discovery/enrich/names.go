package enrich

import (
	"regexp"
	"strings"

	"github.com/LexiconIndonesia/prospect-discovery-service/common/models"
	"github.com/LexiconIndonesia/prospect-discovery-service/discovery/dedup"
	"github.com/LexiconIndonesia/prospect-discovery-service/discovery/scoring"
	"github.com/samber/lo"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Local parts that name a function, not a person.
var genericPrefixes = lo.Keyify([]string{
	"info", "contact", "sales", "support", "admin", "help", "service",
	"marketing", "team", "office", "general", "inquiry", "mail", "email",
	"hello", "hi", "welcome", "noreply", "no-reply", "donotreply",
	"customer", "client", "business", "company", "corp", "inc",
	"webmaster", "postmaster", "accounts", "billing", "finance",
	"hr", "careers", "jobs", "press", "media", "news", "pr",
})

var (
	digitsOnly = regexp.MustCompile(`^\d+$`)
	nonLetters = regexp.MustCompile(`[^a-zA-Z]`)
	titleSplit = regexp.MustCompile(`\s+-\s+|\s*[|:–—]\s*`)
)

const (
	defaultName  = "Contact"
	maxTitleName = 100
)

// a Caser keeps state, so each call gets its own
func title(s string) string {
	return cases.Title(language.English).String(s)
}

// NameFromEmail derives a display name from the mailbox. Role inboxes such
// as info@ get the company name instead.
func NameFromEmail(email string) string {
	local := models.LocalPart(email)
	domain := models.EmailDomain(email)
	if local == "" {
		return defaultName
	}
	if isGeneric(local) {
		return companyOr(domain)
	}

	for _, sep := range []string{".", "_"} {
		if !strings.Contains(local, sep) {
			continue
		}
		for _, part := range strings.Split(local, sep) {
			if len(part) > 1 && !isGeneric(part) && !digitsOnly.MatchString(part) {
				return title(part)
			}
		}
	}

	clean := nonLetters.ReplaceAllString(local, "")
	if len(clean) < 2 || isGeneric(clean) {
		return companyOr(domain)
	}
	return title(clean)
}

func isGeneric(s string) bool {
	return lo.HasKey(genericPrefixes, s) || scoring.IsGenericPrefix(s)
}

func companyOr(domain string) string {
	if c := CompanyFromDomain(domain); c != "" {
		return c
	}
	return defaultName
}

// CompanyFromDomain title-cases the registrable label of domain, so
// "mail.acme-labs.co.uk" becomes "Acme-Labs".
func CompanyFromDomain(domain string) string {
	if domain == "" {
		return ""
	}
	return title(dedup.CompanyLabel(domain))
}

// CompanyFromTitle takes the first segment of a page title, falling back to
// the page's domain when the title is missing or too long.
func CompanyFromTitle(title, pageURL string) string {
	if t := strings.TrimSpace(title); t != "" {
		first := strings.TrimSpace(titleSplit.Split(t, 2)[0])
		if first != "" && len(first) < maxTitleName {
			return first
		}
	}
	if pageURL != "" {
		return CompanyFromDomain(pageURL)
	}
	return ""
}
