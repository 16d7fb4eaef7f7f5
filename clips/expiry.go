//nolint:forcetypeassert
package clips

import (
	"container/heap"
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

// deadlineScheduler tracks one expiry deadline per clip ID using a min-heap
// and a single clockwork timer armed for the earliest deadline. Fired clip
// IDs are delivered on Chan. Schedule and Cancel are serialized through the
// scheduler's own goroutine, so callers never race the timer.
type deadlineScheduler struct {
	items   map[string]*deadlineItem
	heap    deadlineQueue
	chFired chan string
	chCmd   chan func()
	timer   clockwork.Timer
	timerTS time.Time
	ctx     context.Context
	cancel  context.CancelFunc
	clock   clockwork.Clock
}

func newDeadlineScheduler(clock clockwork.Clock) *deadlineScheduler {
	if clock == nil {
		panic("clock is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	ds := &deadlineScheduler{
		items:   make(map[string]*deadlineItem),
		heap:    make(deadlineQueue, 0),
		chFired: make(chan string),
		chCmd:   make(chan func(), 64),
		timer:   clock.NewTimer(time.Second),
		ctx:     ctx,
		cancel:  cancel,
		clock:   clock,
	}
	heap.Init(&ds.heap)

	go ds.loop()
	return ds
}

// Chan delivers clip IDs whose deadline has passed. Closed on Shutdown.
func (ds *deadlineScheduler) Chan() <-chan string {
	return ds.chFired
}

func (ds *deadlineScheduler) Schedule(key string, at time.Time) {
	ds.chCmd <- func() {
		ds.doSchedule(&deadlineItem{key: key, ts: at})
	}
}

func (ds *deadlineScheduler) Cancel(key string) {
	ds.chCmd <- func() {
		ds.doCancel(key)
	}
}

// Shutdown only cancels; the loop goroutine owns the timer and tears
// it down itself, so no other goroutine ever touches it.
func (ds *deadlineScheduler) Shutdown() {
	ds.cancel()
}

func (ds *deadlineScheduler) doSchedule(item *deadlineItem) {
	if cur, ok := ds.items[item.key]; ok {
		// rescheduling an existing key replaces its deadline
		heap.Remove(&ds.heap, cur.index)
	}

	ds.items[item.key] = item
	heap.Push(&ds.heap, item)
	ds.armTimer()
}

func (ds *deadlineScheduler) doCancel(key string) {
	if item, ok := ds.items[key]; ok {
		delete(ds.items, key)
		heap.Remove(&ds.heap, item.index)
		ds.armTimer()
	}
}

func (ds *deadlineScheduler) clearTimer() {
	ds.timer.Stop()
	ds.timerTS = time.Time{}
}

func (ds *deadlineScheduler) armTimer() {
	if len(ds.items) == 0 {
		ds.clearTimer()
		return
	}

	top := ds.heap[0]
	// the same due, no need to rearm
	if ds.timerTS.Equal(top.ts) {
		return
	}

	delay := top.ts.Sub(ds.clock.Now())
	if delay < 0 {
		delay = 0
	}

	ds.timerTS = top.ts
	ds.timer.Stop()
	ds.timer.Reset(delay)
}

func (ds *deadlineScheduler) loop() {
	for {
		select {
		case <-ds.ctx.Done():
			ds.clearTimer()
			close(ds.chFired)
			return
		case cmd, ok := <-ds.chCmd:
			if !ok {
				return
			}
			cmd()
		case <-ds.timer.Chan():
			ds.clearTimer()
			ds.fireDue()
		}
	}
}

func (ds *deadlineScheduler) fireDue() {
	now := ds.clock.Now()

	for len(ds.items) > 0 {
		select {
		case <-ds.ctx.Done():
			return
		default:
		}

		if ds.heap[0].ts.After(now) {
			break
		}

		top := heap.Pop(&ds.heap).(*deadlineItem)
		delete(ds.items, top.key)
		ds.chFired <- top.key
	}

	ds.armTimer()
}

type deadlineItem struct {
	key   string
	ts    time.Time
	index int
}

type deadlineQueue []*deadlineItem

func (q deadlineQueue) Len() int { return len(q) }

func (q deadlineQueue) Less(i, j int) bool { return q[i].ts.Before(q[j].ts) }

func (q deadlineQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *deadlineQueue) Push(x any) {
	item := x.(*deadlineItem)
	item.index = len(*q)
	*q = append(*q, item)
}

func (q *deadlineQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}
