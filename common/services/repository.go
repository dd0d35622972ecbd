package services

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/LexiconIndonesia/prospect-discovery-service/common/models"
)

// Querier is the part of pgxpool.Pool the repositories use
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ContactService defines the contact persistence operations
type ContactService interface {
	// Save stores one prospect; saving the same email twice for a campaign is not an error
	Save(ctx context.Context, userID, campaignID string, prospect models.Prospect) (bool, error)

	// SaveBatch stores prospects and returns how many were new
	SaveBatch(ctx context.Context, userID, campaignID string, prospects []models.Prospect) (int, error)

	// ListByCampaign lists the stored contacts of a campaign, newest first
	ListByCampaign(ctx context.Context, campaignID string, limit, offset int) ([]models.Prospect, error)

	// CountByCampaign counts the stored contacts of a campaign
	CountByCampaign(ctx context.Context, campaignID string) (int64, error)
}

// JobService defines search job status persistence
type JobService interface {
	UpsertStatus(ctx context.Context, id, status string) error
	GetStatus(ctx context.Context, id string) (string, time.Time, error)
	List(ctx context.Context, status string, limit, offset int) ([]models.SearchJob, error)
	Count(ctx context.Context, status string) (int64, error)
	Events(ctx context.Context, campaignID string, limit int) ([]models.DiscoveryEvent, error)
}
