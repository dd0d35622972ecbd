package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LexiconIndonesia/prospect-discovery-service/common/models"
)

type fakeJobs struct {
	jobs   []models.SearchJob
	events []models.DiscoveryEvent
	status string
}

func (f *fakeJobs) List(_ context.Context, status string, limit, offset int) ([]models.SearchJob, error) {
	f.status = status
	end := min(offset+limit, len(f.jobs))
	if offset >= end {
		return nil, nil
	}
	return f.jobs[offset:end], nil
}

func (f *fakeJobs) Count(context.Context, string) (int64, error) {
	return int64(len(f.jobs)), nil
}

func (f *fakeJobs) GetStatus(_ context.Context, id string) (string, time.Time, error) {
	for _, j := range f.jobs {
		if j.ID == id {
			return j.Status, j.UpdatedAt, nil
		}
	}
	return "", time.Time{}, pgx.ErrNoRows
}

func (f *fakeJobs) Events(_ context.Context, campaignID string, _ int) ([]models.DiscoveryEvent, error) {
	var out []models.DiscoveryEvent
	for _, e := range f.events {
		if e.CampaignID == campaignID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeLocks struct {
	running   map[string]bool
	cancelled []string
}

func (f *fakeLocks) IsRunning(_ context.Context, id string) (bool, error) {
	return f.running[id], nil
}

func (f *fakeLocks) Cancel(_ context.Context, id string) error {
	f.running[id] = false
	f.cancelled = append(f.cancelled, id)
	return nil
}

func newWorkFixture() (*WorkManagerHandler, *fakeJobs, *fakeLocks, *fakeSearches) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	jobs := &fakeJobs{
		jobs: []models.SearchJob{
			{ID: "c1", Status: "on_progress", UpdatedAt: now},
			{ID: "c2", Status: "finished", UpdatedAt: now.Add(-time.Hour)},
			{ID: "c3", Status: "on_progress", UpdatedAt: now.Add(-2 * time.Hour)},
		},
		events: []models.DiscoveryEvent{
			{ID: "e1", CampaignID: "c1", EventType: "batch.ready", Details: map[string]any{"batch_number": float64(1)}},
			{ID: "e2", CampaignID: "c2", EventType: "search.stopped"},
		},
	}
	locks := &fakeLocks{running: map[string]bool{"c1": true, "c3": true}}
	searches := &fakeSearches{running: map[string]bool{"c1": true}}
	return NewWorkManagerHandler(jobs, locks, searches), jobs, locks, searches
}

func TestWorkManagerListWorks(t *testing.T) {
	h, jobs, _, _ := newWorkFixture()

	rec := do(h.Router(), http.MethodGet, "/?page=2&limit=2&status=on_progress", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "on_progress", jobs.status)

	var got []models.SearchJob
	decodeData(t, rec, &got)
	require.Len(t, got, 1)
	assert.Equal(t, "c3", got[0].ID)

	rec = do(h.Router(), http.MethodGet, "/?page=9", "")
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &got)
	assert.Empty(t, got)
}

func TestWorkManagerGetWork(t *testing.T) {
	h, _, _, _ := newWorkFixture()

	rec := do(h.Router(), http.MethodGet, "/c1", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var detail models.WorkDetailResponse
	decodeData(t, rec, &detail)
	assert.Equal(t, "on_progress", detail.Job.Status)
	assert.True(t, detail.Running)
	require.Len(t, detail.Events, 1)
	assert.Equal(t, "batch.ready", detail.Events[0].EventType)

	rec = do(h.Router(), http.MethodGet, "/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWorkManagerCancel(t *testing.T) {
	h, _, locks, searches := newWorkFixture()

	rec := do(h.Router(), http.MethodPost, "/c1/cancel", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.False(t, searches.running["c1"], "a local search is stopped")
	assert.Empty(t, locks.cancelled)

	rec = do(h.Router(), http.MethodPost, "/c3/cancel", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"c3"}, locks.cancelled, "an orphaned flag is released")

	rec = do(h.Router(), http.MethodPost, "/c2/cancel", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
