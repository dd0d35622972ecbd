// Package patterns guesses addresses from a company name, a person's name
// or a social handle. The output is synthetic and only used as a last resort.
package patterns

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/LexiconIndonesia/prospect-discovery-service/discovery/scoring"
	"github.com/samber/lo"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

type Kind string

const (
	KindCompany Kind = "company"
	KindPerson  Kind = "person"
	KindHandle  Kind = "handle"
)

// Identity is what a candidate address is derived from.
type Identity struct {
	Kind     Kind   `json:"kind"`
	Company  string `json:"company,omitempty"`
	First    string `json:"first,omitempty"`
	Middle   string `json:"middle,omitempty"`
	Last     string `json:"last,omitempty"`
	Handle   string `json:"handle,omitempty"`
	Platform string `json:"platform,omitempty"`
	Context  string `json:"context,omitempty"`
}

// Candidate is a generated address with its heuristic score.
type Candidate struct {
	Email      string `json:"email"`
	Source     string `json:"source"`
	Confidence int    `json:"confidence"`
}

const (
	SourceCompany  = "company_name_pattern"
	SourceName     = "name_pattern"
	SourceUsername = "username_pattern"
)

var (
	DefaultRoles     = []string{"sales", "contact", "business"}
	businessSuffixes = []string{".com", ".co", ".io", ".net"}
	handleSuffixes   = []string{"official", "real"}
)

const (
	companyMinScore = 40
	companyLimit    = 10
	maxCompanyLen   = 15
	topProviders    = 5
)

var (
	nonAlnum  = regexp.MustCompile(`[^a-z0-9]`)
	nonLetter = regexp.MustCompile(`[^a-z]`)
)

// Fold lowercases s and strips diacritics, "José" becomes "jose".
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

// Generate produces candidate addresses for id. When domain is set every
// candidate is placed on it; otherwise a fixed domain list per kind is used.
func Generate(id Identity, domain string) []Candidate {
	switch id.Kind {
	case KindCompany:
		return CompanyCandidates(id.Company, domain, DefaultRoles)
	case KindPerson:
		return PersonCandidates(id.First, id.Middle, id.Last, domain)
	case KindHandle:
		return HandleCandidates(id.Handle, domain)
	}
	return nil
}

// CompanyCandidates combines role inboxes with the cleaned company name.
// Only candidates scoring above 40 are kept, best first, at most 10.
func CompanyCandidates(company, domain string, roles []string) []Candidate {
	clean := nonAlnum.ReplaceAllString(Fold(company), "")
	if len(clean) > maxCompanyLen {
		clean = clean[:maxCompanyLen]
	}
	if clean == "" && domain == "" {
		return nil
	}
	if len(roles) == 0 {
		roles = DefaultRoles
	}

	domains := lo.Map(businessSuffixes, func(suffix string, _ int) string {
		return clean + suffix
	})
	if domain != "" {
		domains = []string{strings.ToLower(domain)}
	}

	var out []Candidate
	for _, d := range domains {
		for _, role := range roles {
			email := fmt.Sprintf("%s@%s", role, d)
			score := scoring.Business(email)
			if score <= companyMinScore {
				continue
			}
			out = append(out, Candidate{Email: email, Source: SourceCompany, Confidence: score})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})
	if len(out) > companyLimit {
		out = out[:companyLimit]
	}
	return out
}

// PersonCandidates produces the usual first/last combinations.
func PersonCandidates(first, middle, last, domain string) []Candidate {
	f := nonLetter.ReplaceAllString(Fold(first), "")
	m := nonLetter.ReplaceAllString(Fold(middle), "")
	l := nonLetter.ReplaceAllString(Fold(last), "")
	if f == "" || l == "" {
		return nil
	}

	locals := []string{
		f + l,
		f + "." + l,
		f + "_" + l,
		f + "-" + l,
		f + l + "123",
		f + l + "1",
		f + "." + l + "2024",
		f[:1] + l,
		f + l[:1],
	}
	if m != "" {
		locals = append(locals, f+m+l, f+"."+m+"."+l, f[:1]+m[:1]+l)
	}

	return combine(locals, providersFor(domain, len(scoring.PersonalProviders)), SourceName)
}

// HandleCandidates turns a social handle into mailbox guesses on the top
// consumer providers.
func HandleCandidates(handle, domain string) []Candidate {
	raw := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(handle), "@"))
	clean := nonAlnum.ReplaceAllString(Fold(raw), "")
	if clean == "" {
		return nil
	}

	locals := []string{clean, raw}
	for _, suffix := range handleSuffixes {
		locals = append(locals, clean+suffix)
	}
	locals = append(locals, "the"+clean)

	return combine(locals, providersFor(domain, topProviders), SourceUsername)
}

func providersFor(domain string, n int) []string {
	if domain != "" {
		return []string{strings.ToLower(domain)}
	}
	return scoring.PersonalProviders[:min(n, len(scoring.PersonalProviders))]
}

func combine(locals, domains []string, source string) []Candidate {
	locals = lo.Uniq(locals)
	out := make([]Candidate, 0, len(locals)*len(domains))
	for _, d := range domains {
		for _, local := range locals {
			email := local + "@" + d
			out = append(out, Candidate{Email: email, Source: source, Confidence: scoring.Personal(email)})
		}
	}
	return out
}
