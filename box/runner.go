package box

import (
	"log"
	"sync"
	"time"
)

// Ticker is anything the runner can drive with wall-clock ticks.
type Ticker interface {
	Tick(now time.Time)
}

// Runner drives a Ticker from a single goroutine at a fixed period. It is
// the only caller of Tick, so puzzle updates never overlap.
type Runner struct {
	sync.Mutex

	target Ticker
	period time.Duration
	logger *log.Logger

	ticks   uint64
	paused  bool
	running bool

	stop chan struct{}
	done chan struct{}
}

// NewRunner creates a runner over target. A non-positive period falls back
// to 10ms, matching the cadence the input debouncing is tuned for.
func NewRunner(target Ticker, period time.Duration, logger *log.Logger) *Runner {
	if period <= 0 {
		period = 10 * time.Millisecond
	}

	if logger == nil {
		logger = log.Default()
	}

	return &Runner{
		target: target,
		period: period,
		logger: logger,
	}
}

// Run starts the tick loop in its own goroutine.
func (r *Runner) Run() {
	r.Lock()
	defer r.Unlock()

	if r.running {
		return
	}

	r.running = true
	r.stop = make(chan struct{})
	r.done = make(chan struct{})

	go r.loop(r.stop, r.done)
}

func (r *Runner) loop(stop, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.period)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			r.Lock()
			paused := r.paused
			if !paused {
				r.ticks++
			}
			r.Unlock()

			if !paused {
				r.target.Tick(now)
			}
		}
	}
}

// Pause suspends ticking. The loop keeps running but skips updates, so
// Continue resumes without re-priming timers.
func (r *Runner) Pause() {
	r.Lock()
	defer r.Unlock()

	if !r.paused {
		r.paused = true
		r.logger.Printf("runner: paused")
	}
}

// Continue resumes ticking after a Pause.
func (r *Runner) Continue() {
	r.Lock()
	defer r.Unlock()

	if r.paused {
		r.paused = false
		r.logger.Printf("runner: continued")
	}
}

// Paused reports whether ticking is suspended.
func (r *Runner) Paused() bool {
	r.Lock()
	defer r.Unlock()

	return r.paused
}

// Ticks returns the number of ticks delivered so far.
func (r *Runner) Ticks() uint64 {
	r.Lock()
	defer r.Unlock()

	return r.ticks
}

// Stop terminates the loop and waits for it to exit. A stopped runner can
// be started again with Run.
func (r *Runner) Stop() {
	r.Lock()

	if !r.running {
		r.Unlock()
		return
	}

	r.running = false
	stop, done := r.stop, r.done
	r.Unlock()

	close(stop)
	<-done
}
