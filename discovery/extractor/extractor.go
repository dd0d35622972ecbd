// Package extractor pulls email addresses out of arbitrary text or HTML and
// drops the ones that cannot belong to a reachable person or company.
package extractor

import (
	"regexp"
	"strings"

	"github.com/LexiconIndonesia/prospect-discovery-service/common/models"
	"github.com/LexiconIndonesia/prospect-discovery-service/discovery/scoring"
	"github.com/samber/lo"
)

var emailPattern = regexp.MustCompile(`(?i)[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}`)

// a dot opening a capitalised word, as in "info@acme.com.Next we ship",
// where a sentence ran on without a space
var sentenceBreak = regexp.MustCompile(`\.[A-Z][a-z]`)

// leading url-encoded bytes such as "%20" or "%3A" glued to an address
var encodedPrefix = regexp.MustCompile(`^(%[0-9a-fA-F]{2})+`)

var fileLikeLocal = regexp.MustCompile(`\.(php|html?|js|css|json|xml|py|java|cpp)$`)

var (
	placeholderDomains = []string{
		"example.com", "example.org", "example.net", "test.com", "domain.com",
		"email.com", "yourdomain.com", "yourcompany.com", "company.com",
		"sample.com", "lorem.com", "localhost", "sentry.io", "wixpress.com",
	}
	disposableDomains = []string{
		"mailinator.com", "guerrillamail.com", "10minutemail.com", "tempmail.com",
		"temp-mail.org", "yopmail.com", "trashmail.com", "getnada.com",
		"sharklasers.com", "dispostable.com", "throwawaymail.com", "maildrop.cc",
		"fakeinbox.com",
	}
	placeholderLocals  = []string{"test", "sample", "example", "demo"}
	placeholderMarkers = []string{"placeholder", "dummy", "fake", "youremail", "yourname", "sampleemail"}
	assetTLDs          = lo.Keyify([]string{
		"png", "jpg", "jpeg", "gif", "svg", "webp", "ico",
		"css", "js", "json", "xml", "php", "html",
	})
)

// Extract returns the valid addresses found in text, lowercased, without
// duplicates, in order of first appearance.
func Extract(text string) []string {
	matches := emailPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return []string{}
	}

	out := make([]string, 0, len(matches))
	seen := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		email := models.NormalizeEmail(encodedPrefix.ReplaceAllString(trimSentence(m), ""))
		if _, dup := seen[email]; dup {
			continue
		}
		if !IsValid(email) {
			continue
		}
		seen[email] = struct{}{}
		out = append(out, email)
	}
	return out
}

// trimSentence cuts the domain of a match at the first sentence break that
// still leaves a dotted domain behind.
func trimSentence(m string) string {
	at := strings.LastIndexByte(m, '@')
	domain := m[at+1:]
	for _, loc := range sentenceBreak.FindAllStringIndex(domain, -1) {
		if strings.Contains(domain[:loc[0]], ".") {
			return m[:at+1+loc[0]]
		}
	}
	return m
}

// IsValid applies the syntactic and placeholder rules every candidate must
// pass before it can become a prospect.
func IsValid(email string) bool {
	email = strings.ToLower(email)
	if strings.Count(email, "@") != 1 || strings.Contains(email, "..") {
		return false
	}
	local, domain, _ := strings.Cut(email, "@")
	if local == "" || len(domain) < 3 || !strings.Contains(domain, ".") {
		return false
	}
	if hasEdge(local, ".-") || hasEdge(domain, ".-") {
		return false
	}
	if strings.ContainsAny(local, `/\`) || fileLikeLocal.MatchString(local) {
		return false
	}
	if tld := domain[strings.LastIndexByte(domain, '.')+1:]; lo.HasKey(assetTLDs, tld) {
		return false
	}
	if matchesDomain(domain, placeholderDomains) || matchesDomain(domain, disposableDomains) {
		return false
	}
	if lo.Contains(placeholderLocals, local) {
		return false
	}
	for _, marker := range placeholderMarkers {
		if strings.Contains(email, marker) {
			return false
		}
	}
	return true
}

func hasEdge(s, chars string) bool {
	return strings.ContainsAny(s[:1], chars) || strings.ContainsAny(s[len(s)-1:], chars)
}

// matchesDomain is true for an exact hit or a subdomain of any listed domain.
func matchesDomain(domain string, list []string) bool {
	for _, d := range list {
		if domain == d || strings.HasSuffix(domain, "."+d) {
			return true
		}
	}
	return false
}

var (
	strictPattern = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)

	systemPrefixes = []string{
		"noreply", "no-reply", "donotreply", "mailer-daemon", "postmaster",
		"abuse", "admin", "webmaster", "hostmaster", "info", "support",
		"sales", "contact", "help", "service",
	}

	stubLocals = []string{"user", "email", "name", "your", "my"}

	// mailboxes on consumer providers must look like a real person's
	naturalUsernames = []*regexp.Regexp{
		regexp.MustCompile(`^[a-z]+[a-z0-9]*$`),
		regexp.MustCompile(`^[a-z]+\.[a-z]+$`),
		regexp.MustCompile(`^[a-z]+_[a-z]+$`),
		regexp.MustCompile(`^[a-z]+\.[a-z]+[0-9]{1,4}$`),
		regexp.MustCompile(`^[a-z]{2,}[0-9]{2,4}$`),
		regexp.MustCompile(`^[a-z]+[a-z]*[0-9]{1,4}$`),
	}
)

// IsLikelyReal is the stricter check used when targeting individual people:
// system and role inboxes are rejected along with odd looking usernames.
func IsLikelyReal(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	if !strictPattern.MatchString(email) || !IsValid(email) {
		return false
	}
	local, domain, _ := strings.Cut(email, "@")

	for _, prefix := range systemPrefixes {
		if strings.HasPrefix(local, prefix) {
			return false
		}
	}
	if lo.Contains(stubLocals, local) {
		return false
	}
	if len(local) < 3 || len(local) > 30 {
		return false
	}
	if strings.Count(local, ".")+strings.Count(local, "_")+strings.Count(local, "-") > 2 {
		return false
	}

	if scoring.IsPersonalProvider(domain) {
		return lo.SomeBy(naturalUsernames, func(re *regexp.Regexp) bool {
			return re.MatchString(local)
		})
	}
	return true
}

// ExtractLikelyReal is Extract followed by IsLikelyReal.
func ExtractLikelyReal(text string) []string {
	return lo.Filter(Extract(text), func(email string, _ int) bool {
		return IsLikelyReal(email)
	})
}
