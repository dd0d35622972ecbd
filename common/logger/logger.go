package logger

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const insertEventSQL = `INSERT INTO discovery_events (id, campaign_id, event_type, message, details, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`

// Execer is the part of pgxpool.Pool the event writers need
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// Setup configures the global level and, when pretty is set, a console writer
func Setup(level string, pretty bool) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339

	if pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

// EventLogHook implements zerolog.Hook interface
// for storing logs in the database
type EventLogHook struct {
	db Execer
}

// NewEventLogHook creates a new log hook
func NewEventLogHook(db Execer) *EventLogHook {
	return &EventLogHook{
		db: db,
	}
}

// Run implements zerolog.Hook.Run
func (h *EventLogHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	if level < zerolog.InfoLevel || msg == "" {
		return
	}

	// zerolog does not expose the event's fields, so campaignID is read from
	// the "campaignID=..." convention in the message when present.
	event := LogEvent{
		CampaignID: extractField(msg, "campaignID"),
		EventType:  level.String(),
		Message:    msg,
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := writeEvent(ctx, h.db, event); err != nil {
			// Printed without the hook to avoid recursion
			_, _ = os.Stderr.WriteString("failed to persist log event: " + err.Error() + "\n")
		}
	}()
}

func extractField(msg, fieldName string) string {
	searchStr := fieldName + "="
	idx := strings.Index(msg, searchStr)
	if idx < 0 {
		return ""
	}
	start := idx + len(searchStr)
	end := strings.IndexAny(msg[start:], " ,\n\t")
	if end < 0 {
		return msg[start:]
	}
	return msg[start : start+end]
}

func writeEvent(ctx context.Context, db Execer, event LogEvent) error {
	detailsJSON := json.RawMessage("{}")
	if event.Details != nil {
		raw, err := json.Marshal(event.Details)
		if err != nil {
			log.Error().Err(err).Msg("Failed to marshal log details")
		} else {
			detailsJSON = raw
		}
	}

	var message *string
	if event.Message != "" {
		message = &event.Message
	}

	_, err := db.Exec(ctx, insertEventSQL,
		uuid.New().String(),
		event.CampaignID,
		event.EventType,
		message,
		detailsJSON,
		time.Now().UTC(),
	)
	return err
}

// InitializeLogging attaches the database hook to the global logger
func InitializeLogging(db Execer) {
	log.Logger = log.Logger.Hook(NewEventLogHook(db))
}

// LogEvent represents a log event
type LogEvent struct {
	CampaignID string
	EventType  string
	Message    string
	Details    map[string]any
}

// LogService records discovery lifecycle events in the database and on the console
type LogService struct {
	db Execer
}

// NewLogService creates a new log service. db may be nil, in which case
// events only go to the console.
func NewLogService(db Execer) *LogService {
	return &LogService{
		db: db,
	}
}

// Log creates a log entry in the database
func (s *LogService) Log(ctx context.Context, event LogEvent) error {
	log.Info().
		Str("campaignID", event.CampaignID).
		Str("eventType", event.EventType).
		Interface("details", event.Details).
		Msg(event.Message)

	if s == nil || s.db == nil {
		return nil
	}
	if err := writeEvent(ctx, s.db, event); err != nil {
		log.Error().Err(err).Str("eventType", event.EventType).Msg("Failed to insert event into database")
		return err
	}
	return nil
}

// Error logs an error event
func (s *LogService) Error(ctx context.Context, campaignID, message string, err error, details map[string]any) error {
	detailMap := map[string]any{"error": err.Error()}
	for k, v := range details {
		detailMap[k] = v
	}

	return s.Log(ctx, LogEvent{
		CampaignID: campaignID,
		EventType:  "error",
		Message:    message,
		Details:    detailMap,
	})
}

// SearchStarted logs the start of a continuous search
func (s *LogService) SearchStarted(ctx context.Context, campaignID, industry string, maxPerHour int) error {
	return s.Log(ctx, LogEvent{
		CampaignID: campaignID,
		EventType:  "search.started",
		Message:    "Continuous search started",
		Details: map[string]any{
			"industry":     industry,
			"max_per_hour": maxPerHour,
		},
	})
}

// SearchStopped logs the end of a continuous search
func (s *LogService) SearchStopped(ctx context.Context, campaignID, reason string, totalFound int) error {
	return s.Log(ctx, LogEvent{
		CampaignID: campaignID,
		EventType:  "search.stopped",
		Message:    "Continuous search stopped",
		Details: map[string]any{
			"reason":      reason,
			"total_found": totalFound,
		},
	})
}

// BatchReady logs the emission of a prospect batch
func (s *LogService) BatchReady(ctx context.Context, campaignID string, batchNumber, size, totalSoFar int) error {
	return s.Log(ctx, LogEvent{
		CampaignID: campaignID,
		EventType:  "batch.ready",
		Message:    "Prospect batch ready",
		Details: map[string]any{
			"batch_number": batchNumber,
			"size":         size,
			"total_so_far": totalSoFar,
		},
	})
}

// DiscoveryCompleted logs the outcome of a one-shot discovery
func (s *LogService) DiscoveryCompleted(ctx context.Context, campaignID, method string, found int) error {
	return s.Log(ctx, LogEvent{
		CampaignID: campaignID,
		EventType:  "discovery.completed",
		Message:    "Discovery completed",
		Details: map[string]any{
			"search_method": method,
			"found":         found,
		},
	})
}
