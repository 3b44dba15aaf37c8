package notification

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/kazuki11111/expiry-tracker/domain"
)

const DefaultInterval = time.Hour

type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type TickerFactory func(d time.Duration) Ticker

type timeTicker struct {
	t *time.Ticker
}

func (t timeTicker) C() <-chan time.Time { return t.t.C }

func (t timeTicker) Stop() { t.t.Stop() }

func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

type Runner interface {
	Run(ctx context.Context) (domain.PassReport, error)
}

type Option func(*Scheduler)

func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

func WithPassTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithTickerFactory(f TickerFactory) Option {
	return func(s *Scheduler) {
		s.newTicker = f
	}
}

// Scheduler runs the evaluator once on Start and then on every tick. At most
// one pass is in flight; ticks that arrive during a pass are dropped.
type Scheduler struct {
	runner    Runner
	interval  time.Duration
	timeout   time.Duration
	newTicker TickerFactory

	inFlight atomic.Bool

	mu      sync.Mutex
	active  bool
	cancel  context.CancelFunc
	ticker  Ticker
	passes  *sync.WaitGroup
	stopped chan struct{}
}

func NewScheduler(runner Runner, opts ...Option) *Scheduler {
	s := &Scheduler{
		runner:    runner,
		interval:  DefaultInterval,
		newTicker: NewTimeTicker,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.timeout == 0 {
		s.timeout = s.interval
	}
	return s
}

// Start runs a pass synchronously and registers the recurring ticker. It is
// a no-op while the scheduler is active.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	passes := &sync.WaitGroup{}
	ticker := s.newTicker(s.interval)

	s.active = true
	s.cancel = cancel
	s.ticker = ticker
	s.passes = passes
	s.stopped = make(chan struct{})

	passes.Add(2)
	s.mu.Unlock()

	go s.loop(ctx, ticker, passes)

	func() {
		defer passes.Done()
		if !s.inFlight.CompareAndSwap(false, true) {
			log.Infow("notification pass skipped", "reason", domain.SkipReasonBusy)
			return
		}
		defer s.inFlight.Store(false)
		s.pass(ctx)
	}()
}

// Stop cancels the timer and any in-flight pass and returns once every pass
// started by this run has finished. Calling Stop on an idle scheduler waits
// for a concurrent Stop, if any, and returns.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.active {
		stopped := s.stopped
		s.mu.Unlock()
		if stopped != nil {
			<-stopped
		}
		return
	}
	s.active = false
	cancel, ticker, passes, stopped := s.cancel, s.ticker, s.passes, s.stopped
	s.mu.Unlock()

	cancel()
	ticker.Stop()
	passes.Wait()
	close(stopped)
}

func (s *Scheduler) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// RunOnce runs a pass on demand unless one is already in flight.
func (s *Scheduler) RunOnce(ctx context.Context) (domain.PassReport, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return domain.PassReport{Skipped: domain.SkipReasonBusy}, nil
	}
	defer s.inFlight.Store(false)
	return s.pass(ctx)
}

func (s *Scheduler) loop(ctx context.Context, ticker Ticker, passes *sync.WaitGroup) {
	defer passes.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			if ctx.Err() != nil {
				return
			}
			if !s.inFlight.CompareAndSwap(false, true) {
				log.Infow("notification tick skipped", "reason", domain.SkipReasonBusy)
				continue
			}
			passes.Add(1)
			go func() {
				defer passes.Done()
				defer s.inFlight.Store(false)
				s.pass(ctx)
			}()
		}
	}
}

func (s *Scheduler) pass(ctx context.Context) (domain.PassReport, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	report, err := s.runner.Run(ctx)
	if err != nil {
		log.Errorw("notification pass failed", "error", err, "elapsed", time.Since(start).String())
		return report, err
	}
	log.Infow("notification pass complete",
		"skipped", report.Skipped,
		"products", report.Products,
		"sent", report.Sent,
		"failed", report.Failed,
		"elapsed", time.Since(start).String(),
	)
	return report, nil
}
