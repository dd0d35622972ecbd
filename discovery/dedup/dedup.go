// Package dedup merges prospect lists from several sources and removes
// addresses that must never be contacted, such as the campaign owner's own.
package dedup

import (
	"sort"
	"strings"

	"github.com/LexiconIndonesia/prospect-discovery-service/common/models"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/publicsuffix"
)

// Merge returns one record per lowercase email. On collision the record with
// the highest confidence wins; the result is ordered by confidence, ties
// keeping the order in which addresses were first seen.
func Merge(lists ...[]models.Prospect) []models.Prospect {
	index := make(map[string]int)
	var out []models.Prospect

	for _, list := range lists {
		for _, p := range list {
			key := models.NormalizeEmail(p.Email)
			if key == "" {
				continue
			}
			p.Email = key

			i, ok := index[key]
			if !ok {
				index[key] = len(out)
				out = append(out, p)
				continue
			}
			if p.Confidence > out[i].Confidence {
				out[i] = p
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})
	return out
}

// CleanDomain reduces a domain or website URL to a bare lowercase host.
func CleanDomain(raw string) string {
	d := strings.ToLower(strings.TrimSpace(raw))
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	d = strings.TrimPrefix(d, "www.")
	if i := strings.IndexAny(d, "/?#"); i >= 0 {
		d = d[:i]
	}
	if i := strings.LastIndexByte(d, ':'); i >= 0 {
		d = d[:i]
	}
	return strings.Trim(d, ".")
}

// RegistrableDomain returns the eTLD+1 of host ("mail.acme.co.uk" becomes
// "acme.co.uk"), or host itself when it has none.
func RegistrableDomain(host string) string {
	host = CleanDomain(host)
	if d, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		return d
	}
	return host
}

// CompanyLabel is the name part of the registrable domain ("acme" for
// "mail.acme.co.uk").
func CompanyLabel(host string) string {
	d := RegistrableDomain(host)
	if suffix, _ := publicsuffix.PublicSuffix(d); suffix != "" && suffix != d {
		return strings.TrimSuffix(d, "."+suffix)
	}
	label, _, _ := strings.Cut(d, ".")
	return label
}

// minCompanyMatch keeps very short labels like "ab" from matching every company
const minCompanyMatch = 3

// FilterOwnDomain drops prospects on the owner's domain or any subdomain of
// it, and prospects whose company field names the owner.
func FilterOwnDomain(prospects []models.Prospect, ownDomain string) []models.Prospect {
	own := CleanDomain(ownDomain)
	if own == "" {
		return prospects
	}
	ownRoot := RegistrableDomain(own)
	label := CompanyLabel(own)

	out := make([]models.Prospect, 0, len(prospects))
	for _, p := range prospects {
		domain := models.EmailDomain(p.Email)
		if domain == "" {
			continue
		}

		sameDomain := domain == own || strings.HasSuffix(domain, "."+own) || RegistrableDomain(domain) == ownRoot
		sameCompany := len(label) >= minCompanyMatch && strings.Contains(strings.ToLower(p.Company), label)
		if sameDomain || sameCompany {
			log.Info().
				Str("email", p.Email).
				Str("company", p.Company).
				Str("ownDomain", own).
				Msg("Excluded own-domain prospect")
			continue
		}
		out = append(out, p)
	}
	return out
}
