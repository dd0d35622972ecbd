package patterns

import (
	"regexp"
	"strings"

	"github.com/samber/lo"
)

var namePatterns = []*regexp.Regexp{
	regexp.MustCompile(`My name is ([A-Z][a-z]+ [A-Z][a-z]+)`),
	regexp.MustCompile(`I'm ([A-Z][a-z]+ [A-Z][a-z]+)`),
	regexp.MustCompile(`Contact ([A-Z][a-z]+ [A-Z][a-z]+)`),
	regexp.MustCompile(`Written by ([A-Z][a-z]+ [A-Z][a-z]+)`),
	regexp.MustCompile(`Author: ([A-Z][a-z]+ [A-Z][a-z]+)`),
}

var socialPatterns = []struct {
	platform string
	re       *regexp.Regexp
}{
	{"twitter", regexp.MustCompile(`(?i)(?:twitter|x)\.com/([a-z0-9_]+)`)},
	{"instagram", regexp.MustCompile(`(?i)instagram\.com/([a-z0-9_.]+)`)},
	{"facebook", regexp.MustCompile(`(?i)facebook\.com/([a-z0-9.]+)`)},
	{"linkedin", regexp.MustCompile(`(?i)linkedin\.com/in/([a-z0-9-]+)`)},
}

// path segments that are pages, not accounts
var reservedHandles = lo.Keyify([]string{
	"share", "sharer", "intent", "home", "login", "pages", "groups", "hashtag", "search", "explore", "p",
})

// ExtractIdentities finds person names and social handles in page text.
// The same name or handle is reported once.
func ExtractIdentities(content string) []Identity {
	var out []Identity
	seen := map[string]struct{}{}

	add := func(key string, id Identity) {
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, id)
	}

	for _, re := range namePatterns {
		for _, m := range re.FindAllStringSubmatch(content, -1) {
			parts := strings.Fields(m[1])
			if len(parts) < 2 {
				continue
			}
			first, last := parts[0], parts[len(parts)-1]
			add("person:"+strings.ToLower(first+" "+last), Identity{
				Kind:    KindPerson,
				First:   first,
				Last:    last,
				Context: m[0],
			})
		}
	}

	for _, sp := range socialPatterns {
		for _, m := range sp.re.FindAllStringSubmatch(content, -1) {
			handle := strings.Trim(m[1], ".")
			if handle == "" || lo.HasKey(reservedHandles, strings.ToLower(handle)) {
				continue
			}
			add("handle:"+strings.ToLower(handle), Identity{
				Kind:     KindHandle,
				Handle:   handle,
				Platform: sp.platform,
				Context:  m[0],
			})
		}
	}

	return out
}
