package hologram

import (
	"context"
	"sync"
	"time"
)

// Scheduler owns the primary loop: a single goroutine that runs the
// reconciliation tick on a fixed interval and executes tasks submitted with
// Submit. Everything that calls the presentation backend for registered
// displays runs on this goroutine while the scheduler is running.
//
// Stop has a synchronous guarantee: once it returns, the loop goroutine has
// exited and no further tick runs until Start is called again.
type Scheduler struct {
	interval time.Duration
	tick     func()
	logger   Logger

	mu      sync.Mutex
	base    context.Context
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
	queue   []func()
	wake    chan struct{}
}

// NewScheduler creates a stopped scheduler that calls tick every interval.
func NewScheduler(interval time.Duration, tick func()) *Scheduler {
	if interval <= 0 {
		interval = DefaultUpdateInterval.Duration(DefaultTickDuration)
	}
	return &Scheduler{
		interval: interval,
		tick:     tick,
		logger:   noopLogger{},
		base:     context.Background(),
		wake:     make(chan struct{}, 1),
	}
}

// SetLogger sets the logger for the scheduler.
func (s *Scheduler) SetLogger(logger Logger) {
	s.logger = logger
}

// Interval returns the time between ticks.
func (s *Scheduler) Interval() time.Duration { return s.interval }

// Start launches the loop. The first tick runs immediately. The loop also
// stops when ctx is cancelled. Starting a running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ctx != nil {
		s.base = ctx
	}
	s.startLocked()
}

func (s *Scheduler) startLocked() {
	if s.running {
		return
	}
	s.ctx, s.cancel = context.WithCancel(s.base)
	s.done = make(chan struct{})
	s.running = true

	go s.loop(s.ctx, s.done)
}

// Stop cancels the loop and waits for it to exit. Tasks still queued are run
// on the calling goroutine before Stop returns. Stop must not be called from
// a tick or a submitted task.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.cancel()
	done := s.done
	s.mu.Unlock()

	<-done
	s.drain()
}

// Restart stops the loop and starts it again with the last context passed
// to Start.
func (s *Scheduler) Restart() {
	s.Stop()

	s.mu.Lock()
	s.startLocked()
	s.mu.Unlock()
}

// Running reports whether the loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Submit queues fn to run on the loop goroutine. It returns false when the
// scheduler is not running; the caller then owns running fn itself.
func (s *Scheduler) Submit(fn func()) bool {
	s.mu.Lock()
	if !s.running || s.ctx.Err() != nil {
		s.mu.Unlock()
		return false
	}
	s.queue = append(s.queue, fn)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return true
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer func() {
		s.mu.Lock()
		if s.done == done {
			s.running = false
		}
		s.mu.Unlock()
		s.drain()
		close(done)
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runTick()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.wake:
			s.drain()
		case <-ticker.C:
			s.drain()
			if ctx.Err() != nil {
				return
			}
			s.runTick()
		}
	}
}

// drain runs every queued task in submission order.
func (s *Scheduler) drain() {
	for {
		s.mu.Lock()
		queue := s.queue
		s.queue = nil
		s.mu.Unlock()

		if len(queue) == 0 {
			return
		}
		for _, fn := range queue {
			if err := guard(func() error { fn(); return nil }); err != nil {
				s.logger.Error("scheduled task failed", "error", err)
			}
		}
	}
}

func (s *Scheduler) runTick() {
	if err := guard(func() error { s.tick(); return nil }); err != nil {
		s.logger.Error("reconciliation tick failed", "error", err)
	}
}
