// Package vclock implements the rescaled virtual-time clock shared by the
// network event loop and every node task. Real time is rescaled by a
// user-selectable integer percent so the whole simulation can run faster
// or slower than real time while every cooperative task observes the same
// monotonic, continuous clock.
//
// Locking discipline: the Driver holds two independent pieces of state,
// clock state (origins, scale, epoch) and scheduler state (the timer
// heap). Acquisition order is always Clock before Scheduler, matching the
// discipline of the engine this package was adapted from
// (github.com/openthread/ot-ns/progctx and dispatcher). Operations that
// need both snapshot the clock fields into locals, release the clock
// lock, then take the scheduler lock.
package vclock

import (
	"sync"
	"time"
)

const (
	// MinSpeedPercent and MaxSpeedPercent bound the valid speed range.
	MinSpeedPercent uint32 = 1
	MaxSpeedPercent uint32 = 1000

	defaultSpeedPercent uint32 = 100

	// waitSlice bounds how long any internal wait blocks before
	// re-checking the clock. This guarantees a speedup doesn't strand a
	// timer behind a stale long sleep.
	waitSlice = 25 * time.Millisecond
)

// Driver provides the single global clock for every cooperative task in
// the simulator: Now, scheduled wakes, and speed control.
type Driver struct {
	clockMu sync.Mutex
	realOrigin    time.Time
	virtualOrigin uint64
	scaleQ32      uint64 // Q32.32 fixed point: (percent << 32) / 100
	speedPercent  uint32
	epoch         uint64

	schedMu sync.Mutex
	timers  timerHeap
	gen     chan struct{} // closed and replaced whenever epoch bumps

	nowFunc func() time.Time // overridable for tests
}

// NewDriver creates a Driver starting at virtual tick 0, running at the
// given initial speed percent (clamped to [MinSpeedPercent,MaxSpeedPercent]).
func NewDriver(initialPercent uint32) *Driver {
	d := &Driver{
		nowFunc: time.Now,
		gen:     make(chan struct{}),
	}
	d.realOrigin = d.nowFunc()
	d.virtualOrigin = 0
	d.speedPercent = clampPercent(initialPercent)
	d.scaleQ32 = scaleForPercent(d.speedPercent)
	return d
}

func clampPercent(p uint32) uint32 {
	if p < MinSpeedPercent {
		return MinSpeedPercent
	}
	if p > MaxSpeedPercent {
		return MaxSpeedPercent
	}
	return p
}

// scaleForPercent computes the Q32.32 fixed-point scale factor for a
// percent value: scale = (percent * 2^32) / 100.
func scaleForPercent(percent uint32) uint64 {
	return (uint64(percent) << 32) / 100
}

// applyScale computes (deltaReal * scale) >> 32 in integer arithmetic so
// tick computation is deterministic and free of floating drift.
func applyScale(deltaNs uint64, scaleQ32 uint64) uint64 {
	hi, lo := bitsMul64(deltaNs, scaleQ32)
	// (deltaNs * scaleQ32) >> 32, computed from a 128-bit product held as
	// (hi, lo) 64-bit halves.
	return (hi << 32) | (lo >> 32)
}

// bitsMul64 returns the high and low 64 bits of the 128-bit product a*b.
func bitsMul64(a, b uint64) (hi, lo uint64) {
	const mask32 = 0xffffffff
	aLo, aHi := a&mask32, a>>32
	bLo, bHi := b&mask32, b>>32

	lo = aLo * bLo
	mid1 := aHi * bLo
	mid2 := aLo * bHi
	hi = aHi * bHi

	// fold the two middle terms into lo/hi with carry
	carry := (lo >> 32) + (mid1 & mask32) + (mid2 & mask32)
	lo = (lo & mask32) | (carry << 32)
	hi += (mid1 >> 32) + (mid2 >> 32) + (carry >> 32)

	return hi, lo
}

// nowTicksLocked computes the current virtual tick given the current
// clock state and wall-clock time. Caller must hold clockMu.
func (d *Driver) nowTicksLocked(realNow time.Time) uint64 {
	if realNow.Before(d.realOrigin) {
		return d.virtualOrigin
	}
	deltaNs := uint64(realNow.Sub(d.realOrigin).Nanoseconds())
	return d.virtualOrigin + applyScale(deltaNs, d.scaleQ32)
}

// NowTicks returns the current virtual time in ticks (nanoseconds of
// virtual time).
func (d *Driver) NowTicks() uint64 {
	d.clockMu.Lock()
	defer d.clockMu.Unlock()
	return d.nowTicksLocked(d.nowFunc())
}

// GetSpeed returns the current speed percent.
func (d *Driver) GetSpeed() uint32 {
	d.clockMu.Lock()
	defer d.clockMu.Unlock()
	return d.speedPercent
}

// SetSpeed rebases the clock's origin to (now_real, now_virtual) and
// applies the new scale going forward, per the continuity contract: this
// never causes now_ticks to jump, and no pending timer is retroactively
// pushed into the past. percent is clamped to [1,1000]; an out-of-range
// value is clamped and logged by the caller (medium.Loop.SetSpeed, which
// both auto speed and the UI command relay go through, owns that log
// line, since vclock has no logger dependency of its own).
func (d *Driver) SetSpeed(percent uint32) uint32 {
	clamped := clampPercent(percent)

	d.clockMu.Lock()
	now := d.nowFunc()
	v0 := d.nowTicksLocked(now)
	d.realOrigin = now
	d.virtualOrigin = v0
	d.speedPercent = clamped
	d.scaleQ32 = scaleForPercent(clamped)
	d.epoch++
	d.clockMu.Unlock()

	d.bumpGeneration()
	return clamped
}

func (d *Driver) bumpGeneration() {
	d.schedMu.Lock()
	close(d.gen)
	d.gen = make(chan struct{})
	d.schedMu.Unlock()
}

func (d *Driver) generation() chan struct{} {
	d.schedMu.Lock()
	defer d.schedMu.Unlock()
	return d.gen
}

// realDeadlineFor converts a virtual deadline into the wall-clock instant
// it currently corresponds to, under the clock's current origin/scale.
func (d *Driver) realDeadlineFor(deadlineTicks uint64) time.Time {
	d.clockMu.Lock()
	defer d.clockMu.Unlock()

	if deadlineTicks <= d.virtualOrigin {
		return d.realOrigin
	}
	if d.scaleQ32 == 0 {
		return d.realOrigin.Add(time.Duration(1<<62) * time.Nanosecond)
	}
	deltaTicks := deadlineTicks - d.virtualOrigin
	// invert applyScale: deltaNs = deltaTicks / scale = (deltaTicks << 32) / scaleQ32
	deltaNs := mulDiv(deltaTicks, uint64(1)<<32, d.scaleQ32)
	return d.realOrigin.Add(time.Duration(deltaNs))
}

// mulDiv computes (a*b)/c using the 128-bit product helper, avoiding
// overflow for the ranges this package deals in (ticks are nanosecond
// counts, well under 2^63 for any simulation run of practical length).
func mulDiv(a, b, c uint64) uint64 {
	hi, lo := bitsMul64(a, b)
	if hi == 0 {
		return lo / c
	}
	// fall back to floating division for the rare overflow case; only
	// relevant for deadlines far beyond any realistic run length.
	return uint64((float64(hi)*18446744073709551616.0 + float64(lo)) / float64(c))
}

// SleepUntil blocks the calling goroutine until virtual time reaches
// deadlineTicks or stop fires, whichever first. Internally it waits in
// slices of at most 25ms of real time and recomputes its real deadline
// from the (possibly rebased) clock each time, so a SetSpeed call is
// observed within one slice rather than stranding the sleeper behind a
// stale long sleep. Returns false if stop fired before the deadline.
func (d *Driver) SleepUntil(deadlineTicks uint64, stop <-chan struct{}) bool {
	for {
		if d.NowTicks() >= deadlineTicks {
			return true
		}

		realDeadline := d.realDeadlineFor(deadlineTicks)
		sleepFor := time.Until(realDeadline)
		if sleepFor > waitSlice {
			sleepFor = waitSlice
		}
		if sleepFor < 0 {
			sleepFor = 0
		}

		gen := d.generation()
		timer := time.NewTimer(sleepFor)
		select {
		case <-timer.C:
		case <-gen:
			timer.Stop()
		case <-stop:
			timer.Stop()
			return false
		}
	}
}
