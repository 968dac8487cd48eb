package medium

import "time"

// autoSpeedController implements spec §4.4.4's feedback speed control:
// every heartbeat tick, sample delay = real_elapsed - virtual_elapsed/scale
// (the gap between how much wall-clock time actually passed and how much
// should have passed to sustain the current speed). A delay at or above
// the high-water mark means the loop is falling behind real time and
// speed is cut immediately; a delay staying below the low-water mark for
// 5 consecutive samples means there's slack to speed back up.
type autoSpeedController struct {
	enabled bool
	ceiling uint32 // user-requested speed percent; auto control never exceeds this

	highWaterMs float64
	lowWaterMs  float64
	step        uint32 // percent adjustment per evaluation
	lowStreak   int
	requiredLowStreak int

	haveSample    bool
	lastRealNow   time.Time
	lastVirtualTicks uint64
}

func newAutoSpeedController() *autoSpeedController {
	return &autoSpeedController{
		ceiling:           MaxAutoSpeedPercent,
		highWaterMs:       200,
		lowWaterMs:        20,
		step:              10,
		requiredLowStreak: 5,
	}
}

// Enable turns auto speed control on, capping the achievable speed at
// ceilingPercent.
func (a *autoSpeedController) Enable(ceilingPercent uint32) {
	a.enabled = true
	a.ceiling = ceilingPercent
	a.haveSample = false
	a.lowStreak = 0
}

// Disable turns auto speed control off; the loop's speed is then only
// changed by explicit SetSpeed calls.
func (a *autoSpeedController) Disable() {
	a.enabled = false
	a.haveSample = false
	a.lowStreak = 0
}

// Evaluate samples the current (real, virtual) time pair against the one
// taken at the previous heartbeat and returns the speed percent to apply,
// or changed=false if no adjustment is warranted. The very first call
// after Enable (or after the controller is constructed) only seeds the
// sample and never reports a change, since there is no prior sample to
// diff against.
func (a *autoSpeedController) Evaluate(realNow time.Time, virtualTicks uint64, currentPercent uint32) (newPercent uint32, changed bool) {
	if !a.enabled {
		return 0, false
	}

	if !a.haveSample {
		a.lastRealNow = realNow
		a.lastVirtualTicks = virtualTicks
		a.haveSample = true
		return 0, false
	}

	realElapsedMs := float64(realNow.Sub(a.lastRealNow)) / float64(time.Millisecond)
	virtualElapsedMs := float64(virtualTicks-a.lastVirtualTicks) / float64(time.Millisecond)
	a.lastRealNow = realNow
	a.lastVirtualTicks = virtualTicks

	scale := float64(currentPercent) / 100.0
	var delayMs float64
	if scale > 0 {
		delayMs = realElapsedMs - virtualElapsedMs/scale
	}

	if delayMs >= a.highWaterMs {
		a.lowStreak = 0
		next := uint32(MinAutoSpeedPercent)
		if currentPercent >= a.step+MinAutoSpeedPercent {
			next = currentPercent - a.step
		}
		if next == currentPercent {
			return 0, false
		}
		return next, true
	}

	if delayMs <= a.lowWaterMs {
		a.lowStreak++
		if a.lowStreak < a.requiredLowStreak {
			return 0, false
		}
		a.lowStreak = 0
		next := currentPercent + a.step
		if next > a.ceiling {
			next = a.ceiling
		}
		if next == currentPercent {
			return 0, false
		}
		return next, true
	}

	a.lowStreak = 0
	return 0, false
}

// MinAutoSpeedPercent and MaxAutoSpeedPercent bound the range auto speed
// control will drive the simulation to, matching vclock's own [1,1000]
// bound (spec §4.4.4 "Bounds [1, 1000]").
const (
	MinAutoSpeedPercent = 1
	MaxAutoSpeedPercent = 1000
)
