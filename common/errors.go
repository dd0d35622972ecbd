package common

import (
	"errors"
)

// Common error constants
var (
	// ErrAdapterUnavailable is returned when a search backend is unreachable, rejects
	// the credentials or has no quota left
	ErrAdapterUnavailable = errors.New("search adapter unavailable")

	// ErrMalformedResponse is returned when a backend answers with data that cannot be parsed
	ErrMalformedResponse = errors.New("malformed backend response")

	// ErrRateLimited is returned when a backend signals 429/402
	ErrRateLimited = errors.New("rate limited")

	// ErrInvalidStrategy is returned when the marketing strategy passed to the planner is unusable
	ErrInvalidStrategy = errors.New("invalid strategy")

	// ErrNoSources is returned when no search adapter is registered or configured
	ErrNoSources = errors.New("no search sources configured")

	// ErrSearchAlreadyRunning is returned when a continuous search is started twice for one campaign
	ErrSearchAlreadyRunning = errors.New("continuous search already running")

	// ErrSearchNotRunning is returned when a campaign has no continuous search
	ErrSearchNotRunning = errors.New("continuous search not running")
)
