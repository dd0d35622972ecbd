package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/LexiconIndonesia/prospect-discovery-service/common/models"
)

// BatchArchiver keeps a JSON copy of every emitted batch in object storage
type BatchArchiver struct {
	store  StorageService
	bucket string
	prefix string
}

func NewBatchArchiver(store StorageService, bucket, prefix string) *BatchArchiver {
	return &BatchArchiver{store: store, bucket: bucket, prefix: prefix}
}

// ObjectName is the object a batch is archived under
func (a *BatchArchiver) ObjectName(campaignID string, batchNumber int) string {
	return path.Join(a.prefix, campaignID, "batches", fmt.Sprintf("batch-%04d.json", batchNumber))
}

func (a *BatchArchiver) HandleBatch(ctx context.Context, batch models.BatchReady) error {
	data, err := json.MarshalIndent(batch, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal batch: %w", err)
	}

	name := a.ObjectName(batch.CampaignID, batch.BatchNumber)
	if _, err := a.store.Upload(ctx, a.bucket, name, data, "application/json"); err != nil {
		return fmt.Errorf("archive batch %d of %s: %w", batch.BatchNumber, batch.CampaignID, err)
	}

	log.Debug().Str("campaignID", batch.CampaignID).Str("object", name).Msg("Archived batch")
	return nil
}

// SignedURL returns a time-limited download URL of an archived batch
func (a *BatchArchiver) SignedURL(ctx context.Context, campaignID string, batchNumber int, ttl time.Duration) (string, error) {
	return a.store.GetSignedURL(ctx, a.bucket, a.ObjectName(campaignID, batchNumber), int64(ttl.Seconds()))
}

// Load reads an archived batch back
func (a *BatchArchiver) Load(ctx context.Context, campaignID string, batchNumber int) (models.BatchReady, error) {
	var batch models.BatchReady
	data, err := a.store.Download(ctx, a.bucket, a.ObjectName(campaignID, batchNumber))
	if err != nil {
		return batch, err
	}
	if err := json.Unmarshal(data, &batch); err != nil {
		return batch, fmt.Errorf("decode archived batch: %w", err)
	}
	return batch, nil
}
