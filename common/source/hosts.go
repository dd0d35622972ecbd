package source

import (
	"net/url"
	"strings"
)

// Hosts whose pages rarely carry a reachable contact address.
var lowValueHosts = []string{
	"wikipedia.org", "reddit.com", "stackoverflow.com", "github.com", "youtube.com",
	"google.com", "bing.com", "duckduckgo.com", "yahoo.com", "baidu.com",
}

// IsLowValueURL reports whether the page is on a low-value host or a search engine.
func IsLowValueURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return true
	}
	host := strings.ToLower(u.Hostname())
	for _, h := range lowValueHosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}
