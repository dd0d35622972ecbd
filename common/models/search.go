package models

import (
	"github.com/LexiconIndonesia/prospect-discovery-service/common/constants"
)

// SearchControlMessage is the NATS payload that starts or stops a campaign search
type SearchControlMessage struct {
	ID         string               `json:"id"`
	Type       constants.ActionType `json:"type"`
	CampaignID string               `json:"campaignId"`
	UserID     string               `json:"userId"`
	Industry   string               `json:"industry"`
	Audience   string               `json:"audience"`
	OwnDomain  string               `json:"ownDomain"`
	Strategy   *Strategy            `json:"strategy,omitempty"`
}

// DiscoveryResponse is the outward shape of a one-shot discovery
type DiscoveryResponse struct {
	Success      bool       `json:"success"`
	Prospects    []Prospect `json:"prospects"`
	IsRealData   bool       `json:"isRealData"`
	SearchMethod string     `json:"searchMethod"`
	Keywords     []string   `json:"keywords,omitempty"`
	Message      string     `json:"message,omitempty"`
}
