package tracker

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// RunnerConfig configures the background loop of a Runner.
type RunnerConfig struct {
	// AlertInterval is the time between alert engine ticks.
	// Default: 10 seconds.
	AlertInterval time.Duration
}

// DefaultRunnerConfig returns the default configuration.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{AlertInterval: 10 * time.Second}
}

// Runner drives a headless Session by ticking the alert engine on a fixed
// period.
type Runner struct {
	session *Session
	config  RunnerConfig
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRunner creates a runner for session.
func NewRunner(session *Session, config RunnerConfig, logger *slog.Logger) *Runner {
	if config.AlertInterval <= 0 {
		config.AlertInterval = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		session: session,
		config:  config,
		logger:  logger.With("component", "runner"),
	}
}

// Start launches the background loop. It stops when parent is cancelled
// or Stop is called.
func (r *Runner) Start(parent context.Context) {
	r.ctx, r.cancel = context.WithCancel(parent)

	r.wg.Add(1)
	go r.runAlerts()

	r.logger.Info("runner started", "alert_interval", r.config.AlertInterval)
}

// Stop cancels the loop and waits for an in-progress tick to finish.
func (r *Runner) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
	r.logger.Info("runner stopped")
}

func (r *Runner) runAlerts() {
	defer r.wg.Done()

	// Run immediately on start
	r.tick()

	ticker := time.NewTicker(r.config.AlertInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.tick()
		}
	}
}

func (r *Runner) tick() {
	ctx, cancel := context.WithTimeout(r.ctx, r.config.AlertInterval)
	defer cancel()

	if events := r.session.Tick(ctx); len(events) > 0 {
		r.logger.Info("alert cycle complete", "alerts", len(events))
	}
}
