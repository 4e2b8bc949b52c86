package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Refresher reloads the order collection from the remote service
type Refresher interface {
	Refresh(ctx context.Context) error
}

// RefreshPollerConfig holds configuration for the refresh poller
type RefreshPollerConfig struct {
	// Interval between two refreshes
	Interval time.Duration

	// Timeout bounds a single refresh; zero means Interval
	Timeout time.Duration

	// RunOnStart refreshes immediately instead of waiting one interval
	RunOnStart bool
}

// DefaultRefreshPollerConfig returns default configuration
func DefaultRefreshPollerConfig() RefreshPollerConfig {
	return RefreshPollerConfig{
		Interval:   30 * time.Second,
		RunOnStart: false,
	}
}

// Validate checks the configuration
func (c RefreshPollerConfig) Validate() error {
	if c.Interval < time.Second {
		return fmt.Errorf("%w: interval must be at least 1s, got %s", ErrInvalidConfig, c.Interval)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%w: timeout cannot be negative", ErrInvalidConfig)
	}
	return nil
}

// RefreshPoller refreshes the store on a fixed interval. Refreshes never overlap;
// ticks missed during a slow refresh are dropped.
type RefreshPoller struct {
	config    RefreshPollerConfig
	refresher Refresher
	logger    *zap.Logger

	trigger chan struct{}
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex

	isRunning bool
	runs      atomic.Int64
	failures  atomic.Int64
}

// NewRefreshPoller creates a new refresh poller
func NewRefreshPoller(config RefreshPollerConfig, refresher Refresher, logger *zap.Logger) (*RefreshPoller, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Timeout == 0 {
		config.Timeout = config.Interval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RefreshPoller{
		config:    config,
		refresher: refresher,
		logger:    logger,
		trigger:   make(chan struct{}, 1),
	}, nil
}

// Start starts the poll loop
func (p *RefreshPoller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.isRunning {
		return nil
	}
	p.isRunning = true

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.wg.Add(1)
	go p.runLoop(ctx)

	p.logger.Info("Refresh poller started",
		zap.Duration("interval", p.config.Interval),
		zap.Bool("run_on_start", p.config.RunOnStart),
	)
	return nil
}

// Stop stops the poll loop and waits for an in-flight refresh, bounded by ctx
func (p *RefreshPoller) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.isRunning {
		p.mu.Unlock()
		return nil
	}
	p.isRunning = false
	cancel := p.cancel
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("Refresh poller stopped",
			zap.Int64("runs", p.runs.Load()),
			zap.Int64("failures", p.failures.Load()),
		)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Trigger asks for a refresh outside the schedule. Requests made while one is already
// pending collapse into one.
func (p *RefreshPoller) Trigger() error {
	p.mu.Lock()
	running := p.isRunning
	p.mu.Unlock()
	if !running {
		return ErrPollerNotRunning
	}
	select {
	case p.trigger <- struct{}{}:
	default:
	}
	return nil
}

// IsRunning reports whether the poll loop is active
func (p *RefreshPoller) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.isRunning
}

// Runs returns how many refreshes were attempted
func (p *RefreshPoller) Runs() int64 {
	return p.runs.Load()
}

func (p *RefreshPoller) runLoop(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	if p.config.RunOnStart {
		p.poll(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		case <-p.trigger:
			p.poll(ctx)
		}
	}
}

func (p *RefreshPoller) poll(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	p.runs.Add(1)
	start := time.Now()
	if err := p.refresher.Refresh(ctx); err != nil {
		p.failures.Add(1)
		if errors.Is(ctx.Err(), context.Canceled) {
			p.logger.Debug("Refresh cancelled", zap.Error(err))
			return
		}
		p.logger.Warn("Scheduled refresh failed",
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return
	}
	p.logger.Debug("Scheduled refresh completed", zap.Duration("duration", time.Since(start)))
}
