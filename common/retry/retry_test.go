package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LexiconIndonesia/prospect-discovery-service/common"
)

type statusErr int

func (s statusErr) Error() string   { return fmt.Sprintf("status %d", int(s)) }
func (s statusErr) StatusCode() int { return int(s) }

func fastPolicy() Policy {
	return Policy{MaxRetries: 3, BaseDelay: time.Millisecond, Multiplier: 2, MaxDelay: 10 * time.Millisecond}
}

func TestDelay(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, 1*time.Second, p.Delay(1))
	assert.Equal(t, 2*time.Second, p.Delay(2))
	assert.Equal(t, 4*time.Second, p.Delay(3))

	p.MaxDelay = 3 * time.Second
	assert.Equal(t, 3*time.Second, p.Delay(3))
}

func TestDelayJitterStaysBounded(t *testing.T) {
	p := Policy{BaseDelay: 100 * time.Millisecond, Multiplier: 2, Jitter: 0.5}
	for i := 0; i < 50; i++ {
		d := p.Delay(1)
		assert.GreaterOrEqual(t, d, 100*time.Millisecond)
		assert.LessOrEqual(t, d, 150*time.Millisecond)
	}
}

func TestIsRetriable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"429", statusErr(429), true},
		{"503", statusErr(503), true},
		{"402 credits", statusErr(402), true},
		{"403 auth", statusErr(403), false},
		{"wrapped 500", fmt.Errorf("search: %w", statusErr(500)), true},
		{"rate limited sentinel", common.ErrRateLimited, true},
		{"deadline", context.DeadlineExceeded, true},
		{"canceled", context.Canceled, false},
		{"plain", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetriable(tt.err))
		})
	}
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(), func(context.Context) error {
		calls++
		if calls < 3 {
			return statusErr(429)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoStopsOnPermanentError(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(), func(context.Context) error {
		calls++
		return statusErr(403)
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoGivesUpAfterMaxRetries(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(), func(context.Context) error {
		calls++
		return statusErr(500)
	})
	require.Error(t, err)
	assert.Equal(t, 4, calls)
	var sc StatusCoder
	assert.True(t, errors.As(err, &sc))
}

func TestSleep(t *testing.T) {
	t.Run("wake ends early", func(t *testing.T) {
		wake := make(chan struct{})
		close(wake)
		start := time.Now()
		require.NoError(t, Sleep(context.Background(), time.Hour, wake))
		assert.Less(t, time.Since(start), time.Second)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.ErrorIs(t, Sleep(ctx, time.Hour, nil), context.Canceled)
	})

	t.Run("elapses", func(t *testing.T) {
		require.NoError(t, Sleep(context.Background(), time.Millisecond, nil))
	})
}
