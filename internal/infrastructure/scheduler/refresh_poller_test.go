package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingRefresher struct {
	calls atomic.Int64
	err   error
	delay time.Duration
}

func (r *countingRefresher) Refresh(ctx context.Context) error {
	r.calls.Add(1)
	if r.delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.delay):
		}
	}
	return r.err
}

func TestRefreshPollerConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  RefreshPollerConfig
		wantErr bool
	}{
		{"default", DefaultRefreshPollerConfig(), false},
		{"too short", RefreshPollerConfig{Interval: 100 * time.Millisecond}, true},
		{"negative timeout", RefreshPollerConfig{Interval: time.Second, Timeout: -time.Second}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewRefreshPoller_DefaultsTimeoutToInterval(t *testing.T) {
	p, err := NewRefreshPoller(RefreshPollerConfig{Interval: 2 * time.Second}, &countingRefresher{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, p.config.Timeout)
}

func TestRefreshPoller_RunOnStartAndTrigger(t *testing.T) {
	r := &countingRefresher{}
	p, err := NewRefreshPoller(RefreshPollerConfig{Interval: time.Hour, RunOnStart: true}, r, zap.NewNop())
	require.NoError(t, err)

	assert.ErrorIs(t, p.Trigger(), ErrPollerNotRunning)

	require.NoError(t, p.Start(context.Background()))
	require.NoError(t, p.Start(context.Background()))
	assert.True(t, p.IsRunning())

	require.Eventually(t, func() bool { return r.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, p.Trigger())
	require.Eventually(t, func() bool { return r.calls.Load() == 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, p.Stop(context.Background()))
	assert.False(t, p.IsRunning())
	assert.Equal(t, int64(2), p.Runs())
	assert.NoError(t, p.Stop(context.Background()))
}

func TestRefreshPoller_FailuresDoNotStopLoop(t *testing.T) {
	r := &countingRefresher{err: errors.New("sheet unavailable")}
	p, err := NewRefreshPoller(RefreshPollerConfig{Interval: time.Hour}, r, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, p.Start(context.Background()))
	defer func() { _ = p.Stop(context.Background()) }()

	for i := 0; i < 3; i++ {
		require.NoError(t, p.Trigger())
		want := int64(i + 1)
		require.Eventually(t, func() bool { return r.calls.Load() == want }, time.Second, 5*time.Millisecond)
	}
	assert.Equal(t, int64(3), p.failures.Load())
}

func TestRefreshPoller_StopCancelsInFlightRefresh(t *testing.T) {
	r := &countingRefresher{delay: time.Minute}
	p, err := NewRefreshPoller(RefreshPollerConfig{Interval: time.Hour, RunOnStart: true}, r, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, p.Start(context.Background()))
	require.Eventually(t, func() bool { return r.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, p.Stop(ctx))
}
