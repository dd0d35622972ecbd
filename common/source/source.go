// Package source holds what every search backend adapter shares: the
// adapter contract, the registry, caching, rate limiting, retries and page
// text extraction.
package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/LexiconIndonesia/prospect-discovery-service/common"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/models"
)

// Result is what an adapter hands back for one query. Adapters never return
// errors; a failure is Success=false with a message.
type Result struct {
	Success   bool              `json:"success"`
	Prospects []models.Prospect `json:"prospects"`
	Error     string            `json:"error,omitempty"`
	Cached    bool              `json:"cached,omitempty"`
}

// Adapter wraps one external discovery backend.
type Adapter interface {
	Name() string
	Discover(ctx context.Context, query string, maxResults int) Result
}

func Succeeded(prospects []models.Prospect) Result {
	if prospects == nil {
		prospects = []models.Prospect{}
	}
	return Result{Success: true, Prospects: prospects}
}

func Failed(err error) Result {
	return Result{Success: false, Prospects: []models.Prospect{}, Error: err.Error()}
}

// StatusError is a non-2xx answer from a backend.
type StatusError struct {
	Backend string
	Code    int
	Body    string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s returned status %d", e.Backend, e.Code)
	}
	return fmt.Sprintf("%s returned status %d: %s", e.Backend, e.Code, e.Body)
}

func (e *StatusError) StatusCode() int {
	return e.Code
}

// Unwrap maps the status onto the error taxonomy so callers can use errors.Is.
func (e *StatusError) Unwrap() error {
	switch {
	case e.Code == http.StatusTooManyRequests || e.Code == http.StatusPaymentRequired:
		return common.ErrRateLimited
	case e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden || e.Code >= 500:
		return common.ErrAdapterUnavailable
	}
	return nil
}

// IsUnavailable reports whether err means the backend cannot serve anything
// right now, as opposed to a bad answer for this one query.
func IsUnavailable(err error) bool {
	return errors.Is(err, common.ErrAdapterUnavailable) || errors.Is(err, common.ErrRateLimited)
}
