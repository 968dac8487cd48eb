package vclock

import "container/heap"

// waker is a single pending wake request: Fire is closed when virtual
// time reaches Deadline. This is the ordered-timer-queue half of the
// virtual-time driver, adapted from the container/heap-based alarm queue
// the engine this package was ported from uses to track one pending
// alarm per node - generalized here to an arbitrary number of wakers with
// no per-owner uniqueness constraint, since the event loop schedules many
// concurrent CAD/airtime deadlines rather than one alarm per node.
type waker struct {
	deadline uint64
	fire     chan struct{}
	index    int
}

type timerHeap []*waker

func (h timerHeap) Len() int            { return len(h) }
func (h timerHeap) Less(i, j int) bool  { return h[i].deadline < h[j].deadline }
func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x interface{}) {
	w := x.(*waker)
	w.index = len(*h)
	*h = append(*h, w)
}

func (h *timerHeap) Pop() interface{} {
	old := *h
	n := len(old)
	w := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return w
}

// ScheduleWake returns a channel that is closed once NowTicks reaches
// deadlineTicks. A background goroutine drives the wake; callers that no
// longer care about the wake may simply stop selecting on it.
func (d *Driver) ScheduleWake(deadlineTicks uint64) <-chan struct{} {
	w := &waker{deadline: deadlineTicks, fire: make(chan struct{})}

	d.schedMu.Lock()
	heap.Push(&d.timers, w)
	d.schedMu.Unlock()

	go func() {
		d.SleepUntil(deadlineTicks, nil)
		close(w.fire)

		d.schedMu.Lock()
		if w.index >= 0 && w.index < len(d.timers) && d.timers[w.index] == w {
			heap.Remove(&d.timers, w.index)
		}
		d.schedMu.Unlock()
	}()

	return w.fire
}

// NextScheduledTick returns the earliest pending ScheduleWake deadline, or
// Ever if none are pending.
func (d *Driver) NextScheduledTick() uint64 {
	d.schedMu.Lock()
	defer d.schedMu.Unlock()
	if len(d.timers) == 0 {
		return Ever
	}
	return d.timers[0].deadline
}

// Ever is a sentinel "infinitely far in the future" virtual tick, used
// the same way the dispatcher this package was adapted from uses
// math.MaxUint64/2 to represent "no pending alarm".
const Ever uint64 = 1<<63 - 1
