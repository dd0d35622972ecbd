package models

import (
	"strings"
	"time"
)

// Prospect is a discovered contact candidate
type Prospect struct {
	ID          string   `json:"id,omitempty"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	Company     string   `json:"company"`
	Role        string   `json:"role,omitempty"`
	Source      string   `json:"source"`
	Confidence  int      `json:"confidence"`
	Industry    string   `json:"industry,omitempty"`
	CompanySize string   `json:"companySize,omitempty"`
	Location    string   `json:"location,omitempty"`
	Verified    bool     `json:"verified"`
	Metadata    Metadata `json:"metadata"`

	// Filled in by enrichment
	BusinessScore int       `json:"businessScore"`
	PersonalScore int       `json:"personalScore"`
	PriorityScore int       `json:"priorityScore"`
	RoleLevel     string    `json:"roleLevel,omitempty"`
	DecisionMaker bool      `json:"decisionMaker"`
	Tags          []string  `json:"tags,omitempty"`
	DiscoveredAt  time.Time `json:"discoveredAt"`
}

// Metadata carries discovery provenance
type Metadata struct {
	DiscoveryMethod string            `json:"discoveryMethod,omitempty"`
	SearchRound     int               `json:"searchRound,omitempty"`
	Query           string            `json:"query,omitempty"`
	SourceURL       string            `json:"sourceUrl,omitempty"`
	SourceTitle     string            `json:"sourceTitle,omitempty"`
	FoundAt         time.Time         `json:"foundAt"`
	Synthetic       bool              `json:"synthetic,omitempty"`
	Extra           map[string]string `json:"extra,omitempty"`
}

// NormalizeEmail is the deduplication key of an address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EmailDomain returns the lowercase part after the last '@', or "" when there is none
func EmailDomain(email string) string {
	at := strings.LastIndexByte(email, '@')
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return strings.ToLower(email[at+1:])
}

// LocalPart returns the lowercase part before the last '@'
func LocalPart(email string) string {
	at := strings.LastIndexByte(email, '@')
	if at < 0 {
		return strings.ToLower(email)
	}
	return strings.ToLower(email[:at])
}
