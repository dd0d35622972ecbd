package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

// GetJetStreamConsumer returns a durable pull consumer for subject on streamName
func GetJetStreamConsumer(client *NatsBroker, streamName, subject string) (jetstream.Consumer, error) {
	if !client.JetStreamEnabled() {
		return nil, fmt.Errorf("JetStream not initialized")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stream, err := EnsureStream(ctx, client, streamName, []string{subject})
	if err != nil {
		return nil, err
	}

	consumerName := ConsumerName(subject)
	consumerConfig := jetstream.ConsumerConfig{
		Name:          consumerName,
		Durable:       consumerName,
		FilterSubject: subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		MaxDeliver:    5,
	}

	consumer, err := stream.CreateOrUpdateConsumer(ctx, consumerConfig)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("stream", streamName).
		Str("subject", subject).
		Str("consumer", consumerName).
		Msg("Got JetStream pull consumer")

	return consumer, nil
}

// ConsumerName derives a durable consumer name from a subject
func ConsumerName(subject string) string {
	r := strings.NewReplacer(".", "-", "*", "all", ">", "all")
	return "consumer_" + r.Replace(subject)
}

// EnsureStream ensures a stream exists with the specified subjects
func EnsureStream(ctx context.Context, client *NatsBroker, name string, subjects []string) (jetstream.Stream, error) {
	stream, err := client.GetStream(ctx, name)
	if err != nil {
		if !errors.Is(err, jetstream.ErrStreamNotFound) && !strings.Contains(err.Error(), "stream not found") {
			log.Error().Err(err).Str("stream_name", name).Msg("Failed to get stream for unknown reasons")
			return nil, err
		}
		streamConfig := jetstream.StreamConfig{
			Name:     name,
			Subjects: subjects,
			MaxAge:   7 * 24 * time.Hour,
		}

		return client.CreateStream(ctx, streamConfig)
	}

	info, err := stream.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get stream info: %w", err)
	}

	config := info.Config
	merged, changed := mergeSubjects(config.Subjects, subjects)
	if !changed {
		log.Debug().Str("stream_name", name).Msg("No new subjects to add to stream")
		return stream, nil
	}

	config.Subjects = merged
	log.Info().Strs("subjects", config.Subjects).Str("stream_name", name).Msg("Updating stream with new subjects")
	return client.CreateStream(ctx, config)
}

func mergeSubjects(existing, wanted []string) ([]string, bool) {
	set := make(map[string]struct{}, len(existing))
	for _, s := range existing {
		set[s] = struct{}{}
	}

	out := append([]string(nil), existing...)
	changed := false
	for _, s := range wanted {
		if _, ok := set[s]; !ok {
			set[s] = struct{}{}
			out = append(out, s)
			changed = true
		}
	}
	return out, changed
}
