package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/LexiconIndonesia/prospect-discovery-service/common/models"
)

const upsertJobSQL = `INSERT INTO search_jobs (id, status, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status, updated_at = EXCLUDED.updated_at`

const listJobsSQL = `SELECT id, status, updated_at FROM search_jobs
WHERE ($1 = '' OR status = $1)
ORDER BY updated_at DESC
LIMIT $2 OFFSET $3`

const listEventsSQL = `SELECT id, campaign_id, event_type, COALESCE(message, ''), details, created_at
FROM discovery_events
WHERE campaign_id = $1
ORDER BY created_at DESC
LIMIT $2`

var _ JobService = (*JobRepository)(nil)

// JobRepository is the PostgreSQL JobService
type JobRepository struct {
	db Querier
}

// NewJobRepository creates a new PostgreSQL JobRepository
func NewJobRepository(db Querier) *JobRepository {
	return &JobRepository{db: db}
}

// UpsertStatus creates the job row or updates its status
func (r *JobRepository) UpsertStatus(ctx context.Context, id, status string) error {
	if _, err := r.db.Exec(ctx, upsertJobSQL, id, status); err != nil {
		return fmt.Errorf("upsert job status: %w", err)
	}
	return nil
}

// GetStatus returns the last status of a job and when it was written
func (r *JobRepository) GetStatus(ctx context.Context, id string) (string, time.Time, error) {
	var (
		status    string
		updatedAt time.Time
	)
	err := r.db.QueryRow(ctx, `SELECT status, updated_at FROM search_jobs WHERE id = $1`, id).Scan(&status, &updatedAt)
	if err != nil {
		return "", time.Time{}, err
	}
	return status, updatedAt, nil
}

// List returns jobs, most recently updated first. An empty status matches all.
func (r *JobRepository) List(ctx context.Context, status string, limit, offset int) ([]models.SearchJob, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.Query(ctx, listJobsSQL, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var out []models.SearchJob
	for rows.Next() {
		var job models.SearchJob
		if err := rows.Scan(&job.ID, &job.Status, &job.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

// Count counts jobs with the given status, or all jobs when status is empty
func (r *JobRepository) Count(ctx context.Context, status string) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM search_jobs WHERE ($1 = '' OR status = $1)`, status).Scan(&n); err != nil {
		return 0, fmt.Errorf("count jobs: %w", err)
	}
	return n, nil
}

// Events returns the latest lifecycle events of a campaign, newest first
func (r *JobRepository) Events(ctx context.Context, campaignID string, limit int) ([]models.DiscoveryEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, listEventsSQL, campaignID, limit)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []models.DiscoveryEvent
	for rows.Next() {
		var (
			e       models.DiscoveryEvent
			details []byte
		)
		if err := rows.Scan(&e.ID, &e.CampaignID, &e.EventType, &e.Message, &details, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &e.Details); err != nil {
				log.Warn().Err(err).Str("eventID", e.ID).Msg("Ignoring unreadable event details")
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
