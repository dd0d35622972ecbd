package db

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
)

type recordingTracer struct {
	starts int
	ends   int
}

func (r *recordingTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, _ pgx.TraceQueryStartData) context.Context {
	r.starts++
	return ctx
}

func (r *recordingTracer) TraceQueryEnd(_ context.Context, _ *pgx.Conn, _ pgx.TraceQueryEndData) {
	r.ends++
}

func TestFilteredTracer(t *testing.T) {
	tests := []struct {
		name      string
		sql       string
		wantCalls int
	}{
		{"contacts insert is traced", "INSERT INTO contacts (id) VALUES ($1)", 1},
		{"events insert is skipped", "INSERT INTO discovery_events (id) VALUES ($1)", 0},
		{"case insensitive", "insert into DISCOVERY_EVENTS (id) values ($1)", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inner := &recordingTracer{}
			tracer := NewFilteredTracer(inner, EventsTable)

			ctx := tracer.TraceQueryStart(context.Background(), nil, pgx.TraceQueryStartData{SQL: tt.sql})
			tracer.TraceQueryEnd(ctx, nil, pgx.TraceQueryEndData{})

			if inner.starts != tt.wantCalls || inner.ends != tt.wantCalls {
				t.Errorf("got starts=%d ends=%d, want %d each", inner.starts, inner.ends, tt.wantCalls)
			}
		})
	}
}
