package service

import "sync"

// PendingQueue holds variant ids awaiting batch processing. Enqueue
// never blocks and the queue is unbounded on the producer side; the
// consumer drains at most a fixed batch per tick.
type PendingQueue struct {
	mu  sync.Mutex
	ids []string
}

// NewPendingQueue creates an empty queue
func NewPendingQueue() *PendingQueue {
	return &PendingQueue{}
}

// Enqueue appends ids without blocking
func (q *PendingQueue) Enqueue(ids ...string) {
	if len(ids) == 0 {
		return
	}
	q.mu.Lock()
	q.ids = append(q.ids, ids...)
	q.mu.Unlock()
}

// Drain removes and returns up to max ids in arrival order
func (q *PendingQueue) Drain(max int) []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.ids) == 0 || max <= 0 {
		return nil
	}
	n := max
	if n > len(q.ids) {
		n = len(q.ids)
	}
	batch := make([]string, n)
	copy(batch, q.ids[:n])
	q.ids = q.ids[n:]
	return batch
}

// Len reports how many ids are waiting
func (q *PendingQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ids)
}
