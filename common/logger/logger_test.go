package logger

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExecer struct {
	mu    sync.Mutex
	calls [][]any
	err   error
}

func (f *fakeExecer) Exec(_ context.Context, _ string, args ...any) (pgconn.CommandTag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, args)
	return pgconn.NewCommandTag("INSERT 0 1"), f.err
}

func TestExtractField(t *testing.T) {
	tests := []struct {
		msg  string
		want string
	}{
		{"batch ready campaignID=c-1 size=10", "c-1"},
		{"campaignID=c-2", "c-2"},
		{"no id here", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, extractField(tt.msg, "campaignID"), tt.msg)
	}
}

func TestLogServiceWritesEvent(t *testing.T) {
	db := &fakeExecer{}
	svc := NewLogService(db)

	require.NoError(t, svc.BatchReady(context.Background(), "camp-1", 2, 10, 20))
	require.Len(t, db.calls, 1)

	args := db.calls[0]
	assert.Equal(t, "camp-1", args[1])
	assert.Equal(t, "batch.ready", args[2])

	var details map[string]any
	require.NoError(t, json.Unmarshal(args[4].(json.RawMessage), &details))
	assert.EqualValues(t, 2, details["batch_number"])
	assert.EqualValues(t, 20, details["total_so_far"])
}

func TestLogServiceReturnsInsertError(t *testing.T) {
	db := &fakeExecer{err: errors.New("down")}
	svc := NewLogService(db)
	assert.Error(t, svc.SearchStopped(context.Background(), "c", "stopped", 3))
}

func TestLogServiceWithoutDatabase(t *testing.T) {
	svc := NewLogService(nil)
	assert.NoError(t, svc.Error(context.Background(), "c", "failed", errors.New("x"), map[string]any{"k": "v"}))
}
