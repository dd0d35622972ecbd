package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/LexiconIndonesia/prospect-discovery-service/common/models"
)

// SyncPublisher is satisfied by NatsBroker
type SyncPublisher interface {
	PublishSync(ctx context.Context, subject string, data []byte) error
}

// BatchPublisher publishes BatchReady events on the campaign batch subject
type BatchPublisher struct {
	pub SyncPublisher
}

func NewBatchPublisher(pub SyncPublisher) *BatchPublisher {
	return &BatchPublisher{pub: pub}
}

func (p *BatchPublisher) HandleBatch(ctx context.Context, batch models.BatchReady) error {
	data, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("marshal batch %d: %w", batch.BatchNumber, err)
	}
	return p.pub.PublishSync(ctx, BatchSubject(batch.CampaignID), data)
}
