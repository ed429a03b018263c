package statsapi

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"LinkTelemetry-Dashboard/internal/domain"
)

type fakeFetcher struct {
	calls int32
	err   error
}

func (f *fakeFetcher) FetchStats(ctx context.Context, shortCode, bearer, shareToken string) (*domain.UrlStats, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return nil, f.err
	}
	return &domain.UrlStats{ShortCode: shortCode, TotalClicks: int64(atomic.LoadInt32(&f.calls))}, nil
}

func TestPoller_DeliversSnapshots(t *testing.T) {
	fetcher := &fakeFetcher{}
	poller := NewPoller(fetcher, PollerConfig{Interval: 10 * time.Millisecond, FetchTimeout: time.Second}, zap.NewNop())

	snapshots := make(chan *domain.UrlStats, 16)
	err := poller.Start(context.Background(), "abc123", "owner-token", "", func(s *domain.UrlStats) {
		snapshots <- s
	})
	require.NoError(t, err)
	defer poller.Stop()

	for i := 0; i < 2; i++ {
		select {
		case s := <-snapshots:
			assert.Equal(t, "abc123", s.ShortCode)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for snapshot")
		}
	}
}

func TestPoller_ShareTokenDisablesPolling(t *testing.T) {
	fetcher := &fakeFetcher{}
	poller := NewPoller(fetcher, PollerConfig{Interval: 5 * time.Millisecond, FetchTimeout: time.Second}, zap.NewNop())

	err := poller.Start(context.Background(), "abc123", "", "share-tok", func(*domain.UrlStats) {
		t.Error("share-token views must never receive polled snapshots")
	})
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&fetcher.calls))

	// Stop is safe even though polling never started.
	poller.Stop()
}

func TestPoller_StopPreventsFurtherDeliveries(t *testing.T) {
	fetcher := &fakeFetcher{}
	poller := NewPoller(fetcher, PollerConfig{Interval: 5 * time.Millisecond, FetchTimeout: time.Second}, zap.NewNop())

	var delivered int32
	err := poller.Start(context.Background(), "abc123", "tok", "", func(*domain.UrlStats) {
		atomic.AddInt32(&delivered, 1)
	})
	require.NoError(t, err)

	time.Sleep(30 * time.Millisecond)
	poller.Stop()

	after := atomic.LoadInt32(&delivered)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, atomic.LoadInt32(&delivered))
}

func TestPoller_CancelledContextStopsPolling(t *testing.T) {
	fetcher := &fakeFetcher{}
	poller := NewPoller(fetcher, PollerConfig{Interval: 5 * time.Millisecond, FetchTimeout: time.Second}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	var delivered int32
	err := poller.Start(ctx, "abc123", "tok", "", func(*domain.UrlStats) {
		atomic.AddInt32(&delivered, 1)
	})
	require.NoError(t, err)

	cancel()
	time.Sleep(20 * time.Millisecond)
	after := atomic.LoadInt32(&delivered)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, atomic.LoadInt32(&delivered))

	poller.Stop()
}

func TestPoller_Restart(t *testing.T) {
	fetcher := &fakeFetcher{}
	poller := NewPoller(fetcher, PollerConfig{Interval: time.Millisecond, FetchTimeout: time.Second}, zap.NewNop())

	// Each cycle's goroutine must close the channel it was started with,
	// never the one a subsequent Start installed.
	for i := 0; i < 20; i++ {
		require.NoError(t, poller.Start(context.Background(), "abc123", "tok", "", func(*domain.UrlStats) {}))
		poller.Stop()
	}
}

func TestPoller_DoubleStart(t *testing.T) {
	fetcher := &fakeFetcher{}
	poller := NewPoller(fetcher, PollerConfig{Interval: time.Hour, FetchTimeout: time.Second}, zap.NewNop())

	require.NoError(t, poller.Start(context.Background(), "abc123", "tok", "", func(*domain.UrlStats) {}))
	assert.Error(t, poller.Start(context.Background(), "abc123", "tok", "", func(*domain.UrlStats) {}))

	poller.Stop()
}

func TestPoller_FetchFailureKeepsPolling(t *testing.T) {
	fetcher := &fakeFetcher{err: ErrDataUnavailable}
	poller := NewPoller(fetcher, PollerConfig{Interval: 5 * time.Millisecond, FetchTimeout: time.Second}, zap.NewNop())

	err := poller.Start(context.Background(), "abc123", "tok", "", func(*domain.UrlStats) {
		t.Error("failed fetches must not deliver snapshots")
	})
	require.NoError(t, err)

	time.Sleep(40 * time.Millisecond)
	poller.Stop()

	// Polling carried on past the first failure.
	assert.Greater(t, atomic.LoadInt32(&fetcher.calls), int32(1))
}
