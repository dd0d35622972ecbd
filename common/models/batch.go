package models

import "time"

// BatchReady is emitted by a continuous search every time a full batch of new
// prospects is available.
type BatchReady struct {
	ID          string     `json:"id"`
	CampaignID  string     `json:"campaignId"`
	UserID      string     `json:"userId"`
	BatchNumber int        `json:"batchNumber"`
	Prospects   []Prospect `json:"prospects"`
	TotalSoFar  int        `json:"totalSoFar"`
	TargetTotal int        `json:"targetTotal"`
	EmittedAt   time.Time  `json:"emittedAt"`
}
