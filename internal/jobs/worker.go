package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/graficaops/envelopamento-api/pkg/logger"
)

// Job represents a background task
type Job func(ctx context.Context) error

// Worker runs fire-and-forget jobs with bounded concurrency and periodic
// maintenance tasks. Jobs see a context that is cancelled on Shutdown.
type Worker struct {
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	asyncSem      chan struct{}
	maxConcurrent int
	stats         WorkerStats
	statsMu       sync.RWMutex
}

// WorkerStats holds statistics about the worker
type WorkerStats struct {
	ActiveJobs    int   `json:"active_jobs"`
	CompletedJobs int64 `json:"completed_jobs"`
	FailedJobs    int64 `json:"failed_jobs"`
	QueueLength   int   `json:"queue_length"`
	MaxConcurrent int   `json:"max_concurrent"`
}

// NewWorker creates a worker running at most numWorkers*2 async jobs at once
func NewWorker(numWorkers int) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	asyncLimit := numWorkers * 2
	if asyncLimit < 2 {
		asyncLimit = 2
	}

	return &Worker{
		ctx:           ctx,
		cancel:        cancel,
		asyncSem:      make(chan struct{}, asyncLimit),
		maxConcurrent: asyncLimit,
	}
}

// EnqueueAsync runs a job in a new goroutine, bounded by semaphore
func (w *Worker) EnqueueAsync(job Job) {
	if w.ctx.Err() != nil {
		logger.Warn("[Worker] Dropping job submitted after shutdown")
		return
	}

	w.wg.Add(1)
	w.trackQueued(1)
	go func() {
		defer w.wg.Done()

		select {
		case w.asyncSem <- struct{}{}:
		case <-w.ctx.Done():
			w.trackQueued(-1)
			return
		}
		defer func() { <-w.asyncSem }()
		w.trackQueued(-1)

		w.run("[Worker]", job)
	}()
}

// ScheduleEvery runs a job at fixed intervals. The first run happens after the interval.
func (w *Worker) ScheduleEvery(interval time.Duration, job Job) {
	w.schedule(interval, job, false)
}

// ScheduleEveryImmediate runs a job once at startup, then at fixed intervals,
// so maintenance catches up right after a restart.
func (w *Worker) ScheduleEveryImmediate(interval time.Duration, job Job) {
	w.schedule(interval, job, true)
}

func (w *Worker) schedule(interval time.Duration, job Job, immediate bool) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if immediate {
			w.run("[Scheduler]", job)
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-w.ctx.Done():
				return
			case <-ticker.C:
				w.run("[Scheduler]", job)
			}
		}
	}()
}

func (w *Worker) run(tag string, job Job) {
	w.trackJobStart()
	start := time.Now()
	failed := false
	defer func() {
		if r := recover(); r != nil {
			logger.Error(tag+" Job panic", "panic", r)
			failed = true
		}
		w.trackJobEnd(failed)
	}()

	if err := job(w.ctx); err != nil {
		logger.Error(tag+" Job error", "error", err)
		failed = true
		return
	}
	logger.Debug(tag+" Job completed", "duration", time.Since(start))
}

// Shutdown cancels pending work and waits for running jobs to return
func (w *Worker) Shutdown() {
	w.cancel()
	w.wg.Wait()
}

// GetStats returns the current worker statistics
func (w *Worker) GetStats() WorkerStats {
	w.statsMu.RLock()
	defer w.statsMu.RUnlock()
	stats := w.stats
	stats.MaxConcurrent = w.maxConcurrent
	return stats
}

func (w *Worker) trackQueued(delta int) {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	w.stats.QueueLength += delta
}

func (w *Worker) trackJobStart() {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	w.stats.ActiveJobs++
}

// trackJobEnd counts every finished job as completed; failures are a subset
func (w *Worker) trackJobEnd(failed bool) {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	w.stats.ActiveJobs--
	w.stats.CompletedJobs++
	if failed {
		w.stats.FailedJobs++
	}
}
