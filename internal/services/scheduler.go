package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"budgethub/internal/log"
)

// SchedulerConfig holds configuration for the periodic push scheduler.
type SchedulerConfig struct {
	// Interval between push rounds (default: 15m)
	Interval time.Duration
}

func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{Interval: 15 * time.Minute}
}

// BatchPusher pushes every linked budget once.
type BatchPusher interface {
	PushAll(ctx context.Context) error
}

// Scheduler periodically pushes every linked budget.
type Scheduler struct {
	pusher BatchPusher
	config SchedulerConfig
	logger *slog.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewScheduler(pusher BatchPusher, config SchedulerConfig, logger *slog.Logger) *Scheduler {
	if config.Interval <= 0 {
		config.Interval = DefaultSchedulerConfig().Interval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		pusher: pusher,
		config: config,
		logger: logger.With(log.FieldComponent, log.ComponentWorker),
	}
}

// Start begins the push loop. Returns an error if already running.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler is already running")
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	go s.runLoop(ctx)

	s.logger.InfoContext(ctx, "Scheduler started", "interval", s.config.Interval)
	return nil
}

// Stop signals the loop and waits for the current round to finish.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	stopCh, doneCh := s.stopCh, s.doneCh
	s.running = false
	s.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		s.logger.InfoContext(ctx, "Scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.WarnContext(ctx, "Scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) runLoop(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.pusher.PushAll(ctx); err != nil {
				s.logger.ErrorContext(ctx, "Push round had failures", log.FieldError, err)
			}
		}
	}
}
