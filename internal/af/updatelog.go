package af

import "sync"

// UpdateLog is the ordered queue of pending structural updates. It is a
// strict FIFO with exactly-once delivery: Drain hands out each enqueued
// op once, in submission order, and is not restartable. Coalescing or
// reordering updates is not supported; equivalence of reordered streams
// would have to be proven at the model level first.
type UpdateLog struct {
	mu      sync.Mutex
	pending []UpdateOp
	drained uint64
}

// NewUpdateLog returns an empty log.
func NewUpdateLog() *UpdateLog {
	return &UpdateLog{}
}

// Enqueue appends op to the log.
func (l *UpdateLog) Enqueue(op UpdateOp) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending = append(l.pending, op)
}

// EnqueueAll appends ops in order.
func (l *UpdateLog) EnqueueAll(ops []UpdateOp) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending = append(l.pending, ops...)
}

// Drain removes and returns every pending op in submission order. A
// second Drain without intervening Enqueues returns nil; drained ops are
// gone for good.
func (l *UpdateLog) Drain() []UpdateOp {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.pending) == 0 {
		return nil
	}
	out := l.pending
	l.pending = nil
	l.drained += uint64(len(out))
	return out
}

// Next removes and returns the oldest pending op, if any.
func (l *UpdateLog) Next() (UpdateOp, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.pending) == 0 {
		return UpdateOp{}, false
	}
	op := l.pending[0]
	l.pending = l.pending[1:]
	l.drained++
	return op, true
}

// Len reports the number of pending ops.
func (l *UpdateLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}

// Drained reports how many ops have been handed out over the log's life.
func (l *UpdateLog) Drained() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.drained
}
