package batch

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spigell/sourcerer/internal/sourcing"

	"go.uber.org/zap"
)

// Processor is the orchestrator boundary: the whole sourcing pipeline seen
// as a single call. Any failure it raises is a job-level error, never a
// pool-level fault.
type Processor interface {
	Process(ctx context.Context, req *sourcing.JobRequest) (*sourcing.Report, error)
}

// State is the pool lifecycle.
type State int32

const (
	StateCreated State = iota
	StateRunning
	StateDraining
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

const (
	defaultWorkers       = 3
	defaultQueueCapacity = 100
)

// Config holds the pool settings, fixed at construction.
type Config struct {
	Workers       int `mapstructure:"workers"`
	QueueCapacity int `mapstructure:"queue-capacity"`
}

// Pool executes sourcing jobs on a fixed set of workers pulling from a
// bounded queue. Jobs may be submitted before Start; nothing is processed
// until workers run.
type Pool struct {
	ctx       context.Context
	processor Processor
	logger    *zap.Logger
	workers   int

	queue     *Queue
	collector *Collector

	mu    sync.Mutex
	state State
	wg    sync.WaitGroup

	accepted        atomic.Int64
	completed       atomic.Int64
	failed          atomic.Int64
	processingNanos atomic.Int64

	// progress wakes WaitForCompletion after each finished job.
	progress chan struct{}
}

func NewPool(ctx context.Context, processor Processor, cfg *Config, logger *zap.Logger) *Pool {
	workers := defaultWorkers
	capacity := defaultQueueCapacity
	if cfg != nil {
		if cfg.Workers > 0 {
			workers = cfg.Workers
		}
		if cfg.QueueCapacity > 0 {
			capacity = cfg.QueueCapacity
		}
	}

	return &Pool{
		ctx:       ctx,
		processor: processor,
		logger:    logger,
		workers:   workers,
		queue:     NewQueue(capacity),
		collector: NewCollector(),
		progress:  make(chan struct{}, 1),
	}
}

// Start spawns the workers. Starting a running pool is a no-op; starting a
// draining or stopped pool is an error.
func (p *Pool) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.state {
	case StateRunning:
		return nil
	case StateDraining, StateStopped:
		return fmt.Errorf("cannot start pool in state %s", p.state)
	}

	p.state = StateRunning
	p.logger.Info("starting worker pool", zap.Int("workers", p.workers))

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	return nil
}

// Submit offers the job to the queue. It returns false, never blocking, when
// the queue is full or the pool no longer accepts work.
func (p *Pool) Submit(job *sourcing.JobRequest) bool {
	p.mu.Lock()
	state := p.state
	p.mu.Unlock()

	if state == StateDraining || state == StateStopped {
		return false
	}

	job.Normalize()

	if !p.queue.Submit(job) {
		p.logger.Warn("job rejected, queue at capacity",
			zap.String("job_id", job.JobID),
			zap.Int("queued", p.queue.Len()),
		)
		return false
	}

	p.accepted.Add(1)
	p.logger.Debug("job submitted",
		zap.String("job_id", job.JobID),
		zap.Int("priority", job.Priority),
	)
	return true
}

// WaitForCompletion blocks until every accepted job has produced a result,
// or ctx is cancelled.
func (p *Pool) WaitForCompletion(ctx context.Context) error {
	for {
		if p.completed.Load() >= p.accepted.Load() {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.progress:
		case <-time.After(100 * time.Millisecond):
			// Re-check: the single-slot progress signal may have been
			// consumed by another waiter.
		}
	}
}

// Shutdown stops intake, lets queued and in-flight jobs finish, and waits
// for the workers to exit.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	if p.state == StateStopped {
		p.mu.Unlock()
		return
	}
	p.state = StateDraining
	p.mu.Unlock()

	p.logger.Info("draining worker pool", zap.Int("queued", p.queue.Len()))
	p.queue.Close()
	p.wg.Wait()

	p.mu.Lock()
	p.state = StateStopped
	p.mu.Unlock()
	p.logger.Info("worker pool stopped")
}

// GetResult blocks up to timeout for one unread result.
func (p *Pool) GetResult(timeout time.Duration) *sourcing.JobResult {
	return p.collector.GetResult(timeout)
}

// GetAllResults returns a snapshot of every result produced so far.
func (p *Pool) GetAllResults() []*sourcing.JobResult {
	return p.collector.GetAllResults()
}

// State returns the current lifecycle state.
func (p *Pool) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.state
}

// Stats is a point-in-time view of pool throughput.
type Stats struct {
	Submitted         int64         `json:"jobs_submitted"`
	Completed         int64         `json:"jobs_completed"`
	Failed            int64         `json:"jobs_failed"`
	Queued            int           `json:"queue_size"`
	AverageProcessing time.Duration `json:"average_processing_time"`
}

func (p *Pool) Stats() Stats {
	stats := Stats{
		Submitted: p.accepted.Load(),
		Completed: p.completed.Load(),
		Failed:    p.failed.Load(),
		Queued:    p.queue.Len(),
	}
	if stats.Completed > 0 {
		stats.AverageProcessing = time.Duration(p.processingNanos.Load() / stats.Completed)
	}
	return stats
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	logger := p.logger.With(zap.Int("worker", id))
	logger.Debug("worker started")

	for {
		job, ok := p.queue.Take()
		if !ok {
			logger.Debug("worker exiting, no more work")
			return
		}

		logger.Info("processing job", zap.String("job_id", job.JobID))
		result := p.execute(job, logger)

		p.collector.Push(result)
		p.completed.Add(1)
		if !result.Success {
			p.failed.Add(1)
		}
		p.processingNanos.Add(int64(result.ProcessingTime))

		select {
		case p.progress <- struct{}{}:
		default:
		}
	}
}

// execute runs one orchestrator call and converts its outcome, including a
// panic, into a JobResult. A lost job must surface as a failed result, not
// vanish: the accepted and completed counters have to converge.
func (p *Pool) execute(job *sourcing.JobRequest, logger *zap.Logger) (result *sourcing.JobResult) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic while processing job",
				zap.String("job_id", job.JobID),
				zap.Any("panic", r),
				zap.String("stack", string(debug.Stack())),
			)
			result = &sourcing.JobResult{
				JobID:          job.JobID,
				Success:        false,
				Error:          fmt.Sprintf("panic: %v", r),
				ProcessingTime: time.Since(start),
				CompletedAt:    time.Now(),
			}
		}
	}()

	report, err := p.processor.Process(p.ctx, job)
	elapsed := time.Since(start)

	if err != nil {
		logger.Warn("job failed",
			zap.String("job_id", job.JobID),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return &sourcing.JobResult{
			JobID:          job.JobID,
			Success:        false,
			Error:          err.Error(),
			ProcessingTime: elapsed,
			CompletedAt:    time.Now(),
		}
	}

	logger.Info("job completed",
		zap.String("job_id", job.JobID),
		zap.Duration("elapsed", elapsed),
		zap.Int("candidates_found", report.CandidatesFound),
	)

	return &sourcing.JobResult{
		JobID:           job.JobID,
		Success:         true,
		Report:          report,
		ProcessingTime:  elapsed,
		CandidatesFound: report.CandidatesFound,
		CompletedAt:     time.Now(),
	}
}
