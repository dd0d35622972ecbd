package messaging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/LexiconIndonesia/prospect-discovery-service/common/constants"
	"github.com/LexiconIndonesia/prospect-discovery-service/common/models"
)

// SearchController starts and stops continuous searches
type SearchController interface {
	StartFromMessage(ctx context.Context, msg models.SearchControlMessage) error
	Stop(ctx context.Context, campaignID string) error
	Clear(ctx context.Context, campaignID string) error
}

// SubscribeSearchControl routes start and stop messages to ctrl
func SubscribeSearchControl(broker *NatsBroker, ctrl SearchController) error {
	if _, err := broker.QueueSubscribe(constants.SearchStartTopic, constants.SearchWorkersQueue, func(m *nats.Msg) {
		handleControl(m, ctrl)
	}); err != nil {
		return err
	}
	_, err := broker.QueueSubscribe(constants.SearchStopTopic, constants.SearchWorkersQueue, func(m *nats.Msg) {
		handleControl(m, ctrl)
	})
	return err
}

func handleControl(m *nats.Msg, ctrl SearchController) {
	var msg models.SearchControlMessage
	if err := json.Unmarshal(m.Data, &msg); err != nil {
		log.Warn().Err(err).Str("subject", m.Subject).Msg("Invalid search control message")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var err error
	switch {
	case m.Subject == constants.SearchStopTopic || msg.Type == constants.StopSearchAction:
		err = ctrl.Stop(ctx, msg.CampaignID)
	case msg.Type == constants.ClearPoolAction:
		err = ctrl.Clear(ctx, msg.CampaignID)
	default:
		err = ctrl.StartFromMessage(ctx, msg)
	}

	if err != nil {
		log.Error().Err(err).Str("campaignID", msg.CampaignID).Str("subject", m.Subject).Msg("Search control failed")
	}

	if m.Reply != "" {
		reply := map[string]any{"ok": err == nil}
		if err != nil {
			reply["error"] = err.Error()
		}
		data, _ := json.Marshal(reply)
		_ = m.Respond(data)
	}
}
