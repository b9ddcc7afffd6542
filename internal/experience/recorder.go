package experience

import (
	"context"
	"log/slog"
	"sync"

	"facestage/internal/logging"
)

const defaultRecorderBuffer = 64

// Job is blocking work handed off the tick, such as a session row update or
// a snapshot upload.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// Recorder runs jobs in submission order on one background goroutine so the
// tick never blocks on I/O.
type Recorder struct {
	logger *slog.Logger
	jobs   chan Job

	mu      sync.Mutex
	running bool
	closed  bool
	ctx     context.Context
	wg      sync.WaitGroup
}

// NewRecorder returns a stopped recorder with room for buffer pending jobs.
func NewRecorder(logger *slog.Logger, buffer int) *Recorder {
	if buffer <= 0 {
		buffer = defaultRecorderBuffer
	}
	return &Recorder{
		logger: logging.NewComponentLogger(logger, "recorder"),
		jobs:   make(chan Job, buffer),
		ctx:    context.Background(),
	}
}

// Start launches the worker. Jobs keep ctx's values but not its
// cancellation, so a shutdown still drains pending writes.
func (r *Recorder) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running || r.closed {
		return
	}
	r.running = true
	r.ctx = context.WithoutCancel(ctx)
	r.wg.Add(1)
	go r.loop(r.ctx)
}

// Submit queues job without blocking. A full queue drops the job with a
// warning and returns false.
func (r *Recorder) Submit(job Job) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}
	select {
	case r.jobs <- job:
		return true
	default:
		logging.WarnWithContext(r.logger, "recorder queue full; dropping job", "recorder_dropped",
			logging.String("job", job.Name),
			logging.String(logging.FieldImpact, "session history or snapshot may be incomplete"),
		)
		return false
	}
}

// Stop refuses new jobs, drains the queue and waits for the worker.
func (r *Recorder) Stop() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	running := r.running
	close(r.jobs)
	r.mu.Unlock()

	if running {
		r.wg.Wait()
		return
	}
	for job := range r.jobs {
		r.run(r.ctx, job)
	}
}

func (r *Recorder) loop(ctx context.Context) {
	defer r.wg.Done()
	for job := range r.jobs {
		r.run(ctx, job)
	}
}

func (r *Recorder) run(ctx context.Context, job Job) {
	if job.Run == nil {
		return
	}
	if err := job.Run(ctx); err != nil {
		logging.WarnWithContext(r.logger, "background job failed", "recorder_job_failed",
			logging.String("job", job.Name),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the session database and share storage"),
			logging.String(logging.FieldImpact, "experience continues; record may be incomplete"),
		)
		return
	}
	r.logger.Debug("background job done", logging.String("job", job.Name))
}
