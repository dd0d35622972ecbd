package constants

// ActionType defines the type of action a search control message represents.
type ActionType string

const (
	// StartSearchAction starts a campaign's continuous search.
	StartSearchAction ActionType = "search:start"
	// StopSearchAction stops a campaign's continuous search.
	StopSearchAction ActionType = "search:stop"
	// ClearPoolAction drops the accumulated pool of a campaign.
	ClearPoolAction ActionType = "search:clear"
)
