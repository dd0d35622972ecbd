package messaging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"

	"github.com/LexiconIndonesia/prospect-discovery-service/common/constants"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/models"
)

// ContactSaver persists the prospects of a batch
type ContactSaver interface {
	SaveBatch(ctx context.Context, userID, campaignID string, prospects []models.Prospect) (int, error)
}

// StartContactConsumer consumes BatchReady events from the batch stream and
// stores their prospects. The returned ConsumeContext stops consumption.
func StartContactConsumer(broker *NatsBroker, saver ContactSaver) (jetstream.ConsumeContext, error) {
	consumer, err := GetJetStreamConsumer(broker, constants.BatchStream, constants.BatchSubjectWildcard)
	if err != nil {
		return nil, err
	}

	return broker.Consume(consumer, func(msg jetstream.Msg) {
		if err := handleBatchMessage(msg.Data(), saver); err != nil {
			log.Error().Err(err).Str("subject", msg.Subject()).Msg("Failed to persist batch")
			_ = msg.NakWithDelay(5 * time.Second)
			return
		}
		_ = msg.Ack()
	})
}

func handleBatchMessage(data []byte, saver ContactSaver) error {
	var batch models.BatchReady
	if err := json.Unmarshal(data, &batch); err != nil {
		// A payload that cannot be decoded will never succeed; drop it.
		log.Warn().Err(err).Msg("Dropping undecodable batch message")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	saved, err := saver.SaveBatch(ctx, batch.UserID, batch.CampaignID, batch.Prospects)
	if err != nil {
		return err
	}

	log.Info().
		Str("campaignID", batch.CampaignID).
		Int("batch", batch.BatchNumber).
		Int("saved", saved).
		Msg("Persisted prospect batch")
	return nil
}
