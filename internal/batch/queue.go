package batch

import (
	"container/heap"
	"sync"

	"github.com/spigell/sourcerer/internal/sourcing"
)

// Queue is a bounded, priority-ordered queue of pending jobs. Submission
// never blocks: a full queue rejects the job so the caller can apply its own
// retry or drop policy. Dequeue order is highest priority first, FIFO within
// a priority tier. The bound exists for backpressure towards rate-limited
// upstream services, not as a tuning knob.
type Queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  jobHeap
	limit  int
	closed bool
	seq    uint64
}

func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1
	}
	q := &Queue{limit: capacity}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Submit enqueues the job. It returns false immediately when the queue is at
// capacity or closed.
func (q *Queue) Submit(job *sourcing.JobRequest) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed || q.items.Len() >= q.limit {
		return false
	}

	q.seq++
	heap.Push(&q.items, &queuedJob{job: job, seq: q.seq})
	q.cond.Signal()
	return true
}

// Take blocks until a job is available. Once the queue is closed and drained
// it returns ok=false, the signal for workers to exit.
func (q *Queue) Take() (job *sourcing.JobRequest, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.items.Len() == 0 && !q.closed {
		q.cond.Wait()
	}
	if q.items.Len() == 0 {
		return nil, false
	}

	item := heap.Pop(&q.items).(*queuedJob)
	return item.job, true
}

// Close stops intake. Already queued jobs remain takeable.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.cond.Broadcast()
}

// Len returns the number of currently queued jobs.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.items.Len()
}

type queuedJob struct {
	job *sourcing.JobRequest
	seq uint64
}

// jobHeap orders by priority descending, submission order ascending within a
// tier.
type jobHeap []*queuedJob

func (h jobHeap) Len() int { return len(h) }

func (h jobHeap) Less(i, j int) bool {
	if h[i].job.Priority != h[j].job.Priority {
		return h[i].job.Priority > h[j].job.Priority
	}
	return h[i].seq < h[j].seq
}

func (h jobHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *jobHeap) Push(x any) { *h = append(*h, x.(*queuedJob)) }

func (h *jobHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}
