package statsapi

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"LinkTelemetry-Dashboard/internal/domain"
)

// StatsFetcher is the part of the client the poller needs.
type StatsFetcher interface {
	FetchStats(ctx context.Context, shortCode, bearer, shareToken string) (*domain.UrlStats, error)
}

// PollerConfig holds configuration for the stats poller.
type PollerConfig struct {
	Interval     time.Duration // Time between refreshes
	FetchTimeout time.Duration // Timeout for each refresh attempt
}

// DefaultPollerConfig returns sensible default configuration.
func DefaultPollerConfig() PollerConfig {
	return PollerConfig{
		Interval:     30 * time.Second,
		FetchTimeout: 10 * time.Second,
	}
}

// Poller periodically re-fetches one link's stats snapshot and hands each
// fresh snapshot to the subscriber. Share-token views never poll: the token
// holder cannot act on fresher data, so their snapshot stays static. After
// Stop (or cancellation of the Start context) no further deliveries happen.
type Poller struct {
	config PollerConfig
	client StatsFetcher
	log    *zap.Logger

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewPoller creates a poller over the given fetcher.
func NewPoller(client StatsFetcher, config PollerConfig, log *zap.Logger) *Poller {
	if config.Interval <= 0 {
		config.Interval = DefaultPollerConfig().Interval
	}
	if config.FetchTimeout <= 0 {
		config.FetchTimeout = DefaultPollerConfig().FetchTimeout
	}

	return &Poller{
		config: config,
		client: client,
		log:    log,
	}
}

// Start begins polling for the given link. When a share token is present
// this is a no-op: the view keeps its initial snapshot. onSnapshot is
// invoked from the polling goroutine for every successful refresh; fetch
// failures are logged and the previous snapshot stays on screen untouched.
func (p *Poller) Start(ctx context.Context, shortCode, bearer, shareToken string, onSnapshot func(*domain.UrlStats)) error {
	if shareToken != "" {
		p.log.Debug("polling disabled for share-token view", zap.String("short_code", shortCode))
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return fmt.Errorf("poller already started")
	}

	pollCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done
	p.started = true

	p.log.Info("starting stats poller",
		zap.String("short_code", shortCode),
		zap.Duration("interval", p.config.Interval),
	)

	// run owns the channel it was started with; a restart replaces p.done
	// with a fresh channel for the next goroutine.
	go p.run(pollCtx, done, shortCode, bearer, onSnapshot)

	return nil
}

// Stop cancels polling and waits for the polling goroutine to exit, so no
// snapshot is delivered after Stop returns. Safe to call when polling never
// started (share-token views).
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	cancel := p.cancel
	done := p.done
	p.started = false
	p.mu.Unlock()

	cancel()
	<-done
	p.log.Info("stats poller stopped")
}

func (p *Poller) run(ctx context.Context, done chan struct{}, shortCode, bearer string, onSnapshot func(*domain.UrlStats)) {
	defer close(done)

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.refresh(ctx, shortCode, bearer, onSnapshot)
		case <-ctx.Done():
			return
		}
	}
}

func (p *Poller) refresh(ctx context.Context, shortCode, bearer string, onSnapshot func(*domain.UrlStats)) {
	fetchCtx, cancel := context.WithTimeout(ctx, p.config.FetchTimeout)
	defer cancel()

	stats, err := p.client.FetchStats(fetchCtx, shortCode, bearer, "")
	if err != nil {
		p.log.Warn("stats refresh failed",
			zap.String("short_code", shortCode),
			zap.Error(err),
		)
		return
	}

	// The view may have been navigated away from during the fetch.
	if ctx.Err() != nil {
		return
	}

	onSnapshot(stats)
}
