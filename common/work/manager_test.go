package work

import (
	"context"
	"errors"
	"path"
	"sync"
	"testing"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"github.com/LexiconIndonesia/prospect-discovery-service/common"
)

type memState struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemState() *memState { return &memState{data: map[string]string{}} }

func (m *memState) SetNX(_ context.Context, key string, value interface{}, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = value.(string)
	return true, nil
}

func (m *memState) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value.(string)
	return nil
}

func (m *memState) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", redisv9.Nil
	}
	return v, nil
}

func (m *memState) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memState) ScanKeys(_ context.Context, pattern string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for k := range m.data {
		if ok, _ := path.Match(pattern, k); ok {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

type memJobs struct {
	statuses map[string][]string
	err      error
}

func (m *memJobs) UpsertStatus(_ context.Context, id, status string) error {
	if m.statuses == nil {
		m.statuses = map[string][]string{}
	}
	m.statuses[id] = append(m.statuses[id], status)
	return m.err
}

func TestWorkManagerLifecycle(t *testing.T) {
	ctx := context.Background()
	jobs := &memJobs{}
	wm := NewWorkManager(newMemState(), jobs)

	if err := wm.Start(ctx, "campaign-1"); err != nil {
		t.Fatal(err)
	}

	err := wm.Start(ctx, "campaign-1")
	if !errors.Is(err, common.ErrSearchAlreadyRunning) {
		t.Errorf("Expected ErrSearchAlreadyRunning, got %v", err)
	}

	running, err := wm.IsRunning(ctx, "campaign-1")
	if err != nil || !running {
		t.Errorf("Expected running, got %v (err %v)", running, err)
	}

	resumed, err := wm.Resume(ctx, "campaign-1")
	if err != nil || !resumed {
		t.Errorf("Expected resume to succeed, got %v (err %v)", resumed, err)
	}

	ids, err := wm.ListRunningWorks(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[0] != "campaign-1" {
		t.Errorf("Unexpected running works %v", ids)
	}

	if err := wm.Cancel(ctx, "campaign-1"); err != nil {
		t.Fatal(err)
	}
	running, _ = wm.IsRunning(ctx, "campaign-1")
	if running {
		t.Error("Expected search to be stopped")
	}

	want := []string{StatusStarted, StatusOnProgress, StatusCancelled}
	got := jobs.statuses["campaign-1"]
	if len(got) != len(want) {
		t.Fatalf("Expected statuses %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Status %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestWorkManagerResumeNotRunning(t *testing.T) {
	wm := NewWorkManager(newMemState(), nil)
	resumed, err := wm.Resume(context.Background(), "missing")
	if err != nil || resumed {
		t.Errorf("Expected not resumed without error, got %v (err %v)", resumed, err)
	}
}

func TestWorkManagerJobStoreFailureIsNotFatal(t *testing.T) {
	wm := NewWorkManager(newMemState(), &memJobs{err: errors.New("db down")})
	if err := wm.Start(context.Background(), "c"); err != nil {
		t.Errorf("Expected job store errors to be logged only, got %v", err)
	}
	if err := wm.Complete(context.Background(), "c"); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
}
