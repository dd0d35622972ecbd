package scoring

import (
	"strings"

	"github.com/samber/lo"
)

// PersonalProviders are consumer mailbox providers. A hit adds to the
// personal score and subtracts from the business score.
var PersonalProviders = []string{
	"gmail.com", "yahoo.com", "hotmail.com", "outlook.com",
	"icloud.com", "aol.com", "live.com", "msn.com", "protonmail.com",
	"mail.com", "ymail.com", "rocketmail.com", "me.com", "mac.com",
	"qq.com", "163.com", "126.com", "sina.com", "foxmail.com",
	"sohu.com", "aliyun.com", "yeah.net", "189.cn",
}

var personalProviderSet = lo.Keyify(PersonalProviders)

// businessTLDs mark a domain as company-like.
var businessTLDs = lo.Keyify([]string{
	"com", "co", "net", "org", "io", "ai",
	"tech", "biz", "inc", "corp", "ltd", "llc",
})

var industryIndicators = []string{
	"tech", "software", "app", "digital", "ai", "data", "cloud",
	"consulting", "agency", "studio", "lab", "solutions", "services",
	"media", "marketing", "design", "creative", "innovation",
}

// IsPersonalProvider reports whether domain is a known consumer mail provider.
func IsPersonalProvider(domain string) bool {
	_, ok := personalProviderSet[strings.ToLower(domain)]
	return ok
}

func hasBusinessTLD(domain string) bool {
	i := strings.LastIndexByte(domain, '.')
	if i < 0 {
		return false
	}
	_, ok := businessTLDs[domain[i+1:]]
	return ok
}

// IsIndustryDomain reports whether the domain name (TLD excluded) carries an
// industry keyword such as "tech" or "consulting".
func IsIndustryDomain(domain string) bool {
	name := domain
	if i := strings.LastIndexByte(domain, '.'); i > 0 {
		name = domain[:i]
	}
	for _, indicator := range industryIndicators {
		if strings.Contains(name, indicator) {
			return true
		}
	}
	return false
}
