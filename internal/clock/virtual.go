package clock

import (
	"container/heap"
	"sync"
	"time"
)

// Virtual is a deterministic, manually-advanced Clock for tests. It is
// used only when passed in explicitly as engine.Options.Clock (as
// cyre.NewTestInstance does); CYRE_TEST_MODE is not read.
// Advance fires every due callback synchronously, in deadline order,
// exactly the way the teacher's test suites avoid real sleeps in favor
// of manual ticking (see internal/core processing tests for the same
// "advance, then assert" shape, applied here to scheduling instead of
// HTTP handlers).
type Virtual struct {
	mu  sync.Mutex
	now time.Time
	pq  pendingQueue
	seq uint64
}

// NewVirtual creates a virtual clock starting at t0.
func NewVirtual(t0 time.Time) *Virtual {
	return &Virtual{now: t0}
}

func (v *Virtual) Now() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.now
}

func (v *Virtual) AfterFunc(d time.Duration, f func()) Cancelable {
	v.mu.Lock()
	defer v.mu.Unlock()
	if d < 0 {
		d = 0
	}
	v.seq++
	item := &pendingItem{at: v.now.Add(d), seq: v.seq, fn: f}
	heap.Push(&v.pq, item)
	return item
}

// Advance moves the virtual clock forward by d, firing every callback
// whose deadline falls at or before the new time, in deadline order
// (ties broken by arrival order).
func (v *Virtual) Advance(d time.Duration) {
	v.mu.Lock()
	target := v.now.Add(d)
	var due []*pendingItem
	for v.pq.Len() > 0 && !v.pq[0].at.After(target) {
		item := heap.Pop(&v.pq).(*pendingItem)
		if item.canceled {
			continue
		}
		due = append(due, item)
	}
	v.now = target
	v.mu.Unlock()

	for _, item := range due {
		item.fn()
	}
}

type pendingItem struct {
	at       time.Time
	seq      uint64
	fn       func()
	canceled bool
	index    int
}

func (p *pendingItem) Stop() bool {
	already := p.canceled
	p.canceled = true
	return !already
}

type pendingQueue []*pendingItem

func (q pendingQueue) Len() int { return len(q) }
func (q pendingQueue) Less(i, j int) bool {
	if q[i].at.Equal(q[j].at) {
		return q[i].seq < q[j].seq
	}
	return q[i].at.Before(q[j].at)
}
func (q pendingQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}
func (q *pendingQueue) Push(x any) {
	item := x.(*pendingItem)
	item.index = len(*q)
	*q = append(*q, item)
}
func (q *pendingQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}
