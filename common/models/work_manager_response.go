package models

import "time"

// SearchJob is the persisted status of a campaign's continuous search
type SearchJob struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DiscoveryEvent is one lifecycle event recorded for a campaign
type DiscoveryEvent struct {
	ID         string         `json:"id"`
	CampaignID string         `json:"campaign_id"`
	EventType  string         `json:"event_type"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details"`
	CreatedAt  time.Time      `json:"created_at"`
}

type WorkDetailResponse struct {
	Job     SearchJob        `json:"job"`
	Running bool             `json:"running"`
	Events  []DiscoveryEvent `json:"events"`
}
