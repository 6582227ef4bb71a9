package sessions

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/rendis/vetassist/internal/logging"
)

// DefaultSweepSchedule runs the sweeper every minute.
const DefaultSweepSchedule = "@every 1m"

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSchedule parses a five-field cron expression or a descriptor such as "@every 30s".
func ParseSchedule(spec string) (cron.Schedule, error) {
	sched, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("parse sweep schedule %q: %w", spec, err)
	}
	return sched, nil
}

// Sweeper periodically calls Manager.Sweep on a cron schedule.
type Sweeper struct {
	manager  *Manager
	schedule cron.Schedule
	logger   *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSweeper creates a sweeper for m using the given schedule spec.
func NewSweeper(m *Manager, spec string, logger *slog.Logger) (*Sweeper, error) {
	if spec == "" {
		spec = DefaultSweepSchedule
	}
	sched, err := ParseSchedule(spec)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Sweeper{manager: m, schedule: sched, logger: logger}, nil
}

// Start launches the background sweep loop.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		return fmt.Errorf("sweeper already started")
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.loop(loopCtx, s.done)
	s.logger.Info("session sweeper started", slog.Duration("ttl", s.manager.TTL()))
	return nil
}

func (s *Sweeper) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		now := time.Now()
		timer := time.NewTimer(s.schedule.Next(now).Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.manager.Sweep(ctx)
		}
	}
}

// Stop shuts the loop down and waits for an in-progress sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil

	s.logger.Info("session sweeper stopped")
}
