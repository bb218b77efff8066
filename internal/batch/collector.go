package batch

import (
	"sync"
	"time"

	"github.com/spigell/sourcerer/internal/sourcing"
)

// Collector aggregates results produced by workers. It supports two
// consumption models at once: draining results one by one (GetResult, which
// delivers each result at most once) and periodic snapshotting
// (GetAllResults, which never consumes).
type Collector struct {
	mu     sync.Mutex
	all    []*sourcing.JobResult
	unread []*sourcing.JobResult

	// arrival is closed and replaced on every push, waking every blocked
	// GetResult at once.
	arrival chan struct{}
}

func NewCollector() *Collector {
	return &Collector{arrival: make(chan struct{})}
}

// Push appends a result. Called only by workers; always succeeds.
func (c *Collector) Push(result *sourcing.JobResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.all = append(c.all, result)
	c.unread = append(c.unread, result)

	close(c.arrival)
	c.arrival = make(chan struct{})
}

// GetResult blocks up to timeout for an unread result and returns the oldest
// one, or nil when the timeout elapses first.
func (c *Collector) GetResult(timeout time.Duration) *sourcing.JobResult {
	deadline := time.Now().Add(timeout)

	for {
		result, arrival := c.takeUnread()
		if result != nil {
			return result
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil
		}

		timer := time.NewTimer(remaining)
		select {
		case <-arrival:
			timer.Stop()
		case <-timer.C:
		}
	}
}

// takeUnread pops the oldest unread result, or returns the channel that the
// next push closes. Grabbing the channel under the same lock as the
// emptiness check means a push that lands in between still wakes the caller.
func (c *Collector) takeUnread() (*sourcing.JobResult, chan struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.unread) == 0 {
		return nil, c.arrival
	}

	result := c.unread[0]
	c.unread = c.unread[1:]
	return result, nil
}

// GetAllResults returns a snapshot of every result produced so far without
// marking anything consumed.
func (c *Collector) GetAllResults() []*sourcing.JobResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	snapshot := make([]*sourcing.JobResult, len(c.all))
	copy(snapshot, c.all)
	return snapshot
}

// Count returns how many results have been produced so far.
func (c *Collector) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.all)
}
