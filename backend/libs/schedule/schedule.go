// Package schedule runs named periodic jobs on independent wall-clock
// intervals. Jobs are fault-isolated: an error or panic in one run is logged
// and never stops the job's ticker, the other jobs, or the process. A per-job
// in-flight flag guarantees that a slow run is never overlapped by the next
// tick of the same job.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Sink receives job lifecycle events and duration samples. Both methods are
// fire-and-forget.
type Sink interface {
	Event(name string)
	Metric(name string, value float64)
}

// Job is one periodic unit of work.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

type jobState struct {
	Job
	inFlight atomic.Bool
}

// Runner owns a set of jobs and their tickers.
type Runner struct {
	logger *zap.Logger
	sink   Sink

	mu      sync.Mutex
	jobs    []*jobState
	cancel  context.CancelFunc
	started bool

	wg sync.WaitGroup
}

// NewRunner builds an empty runner. A nil sink is allowed.
func NewRunner(logger *zap.Logger, sink Sink) *Runner {
	return &Runner{logger: logger, sink: sink}
}

// Add registers a job. Jobs must be added before Start.
func (r *Runner) Add(job Job) error {
	if job.Name == "" {
		return errors.New("schedule: job name required")
	}
	if job.Interval <= 0 {
		return fmt.Errorf("schedule: job %s has no interval", job.Name)
	}
	if job.Run == nil {
		return fmt.Errorf("schedule: job %s has no run func", job.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return errors.New("schedule: runner already started")
	}
	r.jobs = append(r.jobs, &jobState{Job: job})
	return nil
}

// Start launches one ticker goroutine per job. The jobs stop when Stop is
// called or ctx is cancelled; in-flight runs are allowed to complete.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return
	}
	r.started = true
	ctx, r.cancel = context.WithCancel(ctx)
	jobs := r.jobs
	r.mu.Unlock()

	for _, job := range jobs {
		r.wg.Add(1)
		go r.loop(ctx, job)
		r.logger.Info("background job started",
			zap.String("job", job.Name),
			zap.Duration("interval", job.Interval))
	}
	r.event("background_tasks_started")
}

// Stop cancels all tickers and waits for in-flight runs.
func (r *Runner) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	r.wg.Wait()
	r.event("background_tasks_stopped")
	r.logger.Info("background jobs stopped")
}

func (r *Runner) loop(ctx context.Context, job *jobState) {
	defer r.wg.Done()

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !job.inFlight.CompareAndSwap(false, true) {
				r.logger.Warn("previous run still in flight, skipping tick",
					zap.String("job", job.Name))
				r.event("job_tick_skipped")
				continue
			}
			r.wg.Add(1)
			go func() {
				defer r.wg.Done()
				defer job.inFlight.Store(false)
				r.runOnce(ctx, job)
			}()
		}
	}
}

func (r *Runner) runOnce(ctx context.Context, job *jobState) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("background job panicked",
				zap.String("job", job.Name),
				zap.Any("panic", rec))
			r.event("job_panicked")
		}
	}()

	start := time.Now()
	err := job.Run(ctx)
	elapsed := time.Since(start)

	if err != nil {
		r.logger.Error("background job failed",
			zap.String("job", job.Name),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		r.event("job_failed")
		return
	}

	r.logger.Debug("background job completed",
		zap.String("job", job.Name),
		zap.Duration("elapsed", elapsed))
	r.metric("job_duration_seconds:"+job.Name, elapsed.Seconds())
}

func (r *Runner) event(name string) {
	if r.sink != nil {
		r.sink.Event(name)
	}
}

func (r *Runner) metric(name string, value float64) {
	if r.sink != nil {
		r.sink.Metric(name, value)
	}
}
