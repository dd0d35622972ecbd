package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"

	"github.com/LexiconIndonesia/prospect-discovery-service/common/models"
)

const uniqueViolation = "23505"

const insertContactSQL = `INSERT INTO contacts
	(id, user_id, campaign_id, email, name, company, role, source, confidence, industry, metadata, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())`

const listContactsSQL = `SELECT id, email, name, company, role, source, confidence, industry, metadata, created_at
FROM contacts
WHERE campaign_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

// ContactRepository is the PostgreSQL ContactService
type ContactRepository struct {
	db Querier
}

// NewContactRepository creates a new PostgreSQL ContactRepository
func NewContactRepository(db Querier) *ContactRepository {
	return &ContactRepository{db: db}
}

// Save inserts the prospect, swallowing unique-violation errors
func (r *ContactRepository) Save(ctx context.Context, userID, campaignID string, p models.Prospect) (bool, error) {
	email := models.NormalizeEmail(p.Email)
	if email == "" {
		return false, errors.New("prospect has no email")
	}

	id := p.ID
	if id == "" {
		id = uuid.NewString()
	}

	metadata, err := json.Marshal(p.Metadata)
	if err != nil {
		return false, fmt.Errorf("marshal metadata: %w", err)
	}

	_, err = r.db.Exec(ctx, insertContactSQL,
		id, userID, campaignID, email, p.Name, p.Company, p.Role, p.Source, p.Confidence, p.Industry, metadata)
	if err != nil {
		if isUniqueViolation(err) {
			log.Debug().Str("campaignID", campaignID).Str("email", email).Msg("Contact already stored")
			return false, nil
		}
		return false, fmt.Errorf("insert contact: %w", err)
	}
	return true, nil
}

// SaveBatch saves prospects one by one; the first hard error stops the batch
func (r *ContactRepository) SaveBatch(ctx context.Context, userID, campaignID string, prospects []models.Prospect) (int, error) {
	saved := 0
	for _, p := range prospects {
		inserted, err := r.Save(ctx, userID, campaignID, p)
		if err != nil {
			return saved, err
		}
		if inserted {
			saved++
		}
	}
	return saved, nil
}

// ListByCampaign lists stored contacts, newest first
func (r *ContactRepository) ListByCampaign(ctx context.Context, campaignID string, limit, offset int) ([]models.Prospect, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, listContactsSQL, campaignID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	var out []models.Prospect
	for rows.Next() {
		var (
			p        models.Prospect
			metadata []byte
		)
		if err := rows.Scan(&p.ID, &p.Email, &p.Name, &p.Company, &p.Role, &p.Source, &p.Confidence, &p.Industry, &metadata, &p.DiscoveredAt); err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &p.Metadata); err != nil {
				log.Warn().Err(err).Str("contactID", p.ID).Msg("Ignoring unreadable contact metadata")
			}
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CountByCampaign counts stored contacts
func (r *ContactRepository) CountByCampaign(ctx context.Context, campaignID string) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM contacts WHERE campaign_id = $1`, campaignID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count contacts: %w", err)
	}
	return n, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
