package models

// SearchSource describes a search backend the service knows how to build
type SearchSource struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
	Primary bool   `json:"primary"`
	// Priority is the 1-based position among enabled sources, 0 when disabled
	Priority int `json:"priority"`
}
