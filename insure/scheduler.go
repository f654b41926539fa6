package insure

import (
	"context"
	"sync"
	"time"

	"coverbot/logger"
)

const (
	tickInterval    = time.Minute
	defaultInterval = 5 * time.Minute
)

// SchedulerStatus is a point-in-time snapshot for the status command.
type SchedulerStatus struct {
	Enabled  bool
	Interval time.Duration
	LastRun  time.Time
}

// Scheduler drives periodic reconciliation. It ticks once a minute and runs
// a pass only when enabled and when the configured interval has elapsed
// since the last effective run, so re-enabling or shortening the interval
// takes effect within a minute without restarting the process.
type Scheduler struct {
	engine *Engine
	log    *logger.Log

	mu       sync.Mutex
	enabled  bool
	interval time.Duration
	lastRun  time.Time

	cancel context.CancelFunc
	done   chan struct{}
	now    func() time.Time
}

func NewScheduler(engine *Engine, log *logger.Log) *Scheduler {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Scheduler{
		engine:   engine,
		log:      log,
		interval: defaultInterval,
		now:      time.Now,
	}
}

// Start launches the tick loop. It returns immediately; Stop shuts the loop
// down and waits for any in-flight pass to finish.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.done = make(chan struct{})
	s.mu.Unlock()
	go s.loop(ctx)
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs one scheduler evaluation. Exposed so a single evaluation can be
// driven without the loop.
func (s *Scheduler) Tick(ctx context.Context) {
	s.mu.Lock()
	if !s.enabled {
		s.mu.Unlock()
		return
	}
	now := s.now()
	if !s.lastRun.IsZero() && now.Sub(s.lastRun) < s.interval {
		s.mu.Unlock()
		return
	}
	s.lastRun = now
	s.mu.Unlock()

	stats := s.engine.Reconcile(ctx)
	s.log.WithComponent("scheduler").WithFields(logger.Fields{
		"run_id":        stats.RunID,
		"discovered":    stats.Discovered,
		"activated":     stats.Activated,
		"still_pending": stats.StillPending,
	}).Info("scheduled pass finished")
}

// Enable turns the scheduler on. An interval <= 0 keeps the current one.
func (s *Scheduler) Enable(interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = true
	if interval > 0 {
		s.interval = interval
	}
}

func (s *Scheduler) Disable() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = false
}

func (s *Scheduler) Status() SchedulerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SchedulerStatus{Enabled: s.enabled, Interval: s.interval, LastRun: s.lastRun}
}

// Stop ends the loop and blocks until it has exited.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}
