package medium

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAutoSpeedFirstSampleSeedsOnly(t *testing.T) {
	a := newAutoSpeedController()
	a.Enable(1000)

	_, changed := a.Evaluate(time.Now(), 0, 100)
	assert.False(t, changed, "first sample has no prior reading to diff against")
}

func TestAutoSpeedSlowsDownImmediatelyOnHighDelay(t *testing.T) {
	a := newAutoSpeedController()
	a.Enable(1000)

	now := time.Now()
	a.Evaluate(now, 0, 100)

	// 10ms of virtual time should have elapsed at 100%, but 300ms of real
	// time passed: delay = 300 - 10/1.0 = 290ms, well over the high-water
	// mark, so speed must drop immediately without any debounce.
	next, changed := a.Evaluate(now.Add(300*time.Millisecond), uint64(10*time.Millisecond), 100)
	assert.True(t, changed)
	assert.EqualValues(t, 90, next)
}

func TestAutoSpeedRequiresFiveConsecutiveLowSamplesBeforeSpeedingUp(t *testing.T) {
	a := newAutoSpeedController()
	a.Enable(1000)

	now := time.Now()
	virtual := uint64(0)
	a.Evaluate(now, virtual, 100)

	// Each step: 50ms of real time elapses while 50ms of virtual time
	// elapses at 100% speed, so delay == 0 - comfortably under the
	// low-water mark - on every sample.
	for i := 0; i < 4; i++ {
		now = now.Add(50 * time.Millisecond)
		virtual += uint64(50 * time.Millisecond)
		_, changed := a.Evaluate(now, virtual, 100)
		assert.False(t, changed, "speed-up should not fire before the 5th consecutive low sample")
	}

	now = now.Add(50 * time.Millisecond)
	virtual += uint64(50 * time.Millisecond)
	next, changed := a.Evaluate(now, virtual, 100)
	assert.True(t, changed, "5th consecutive low sample should trigger a speed-up")
	assert.EqualValues(t, 110, next)
}

func TestAutoSpeedLowStreakResetsOnHighSample(t *testing.T) {
	a := newAutoSpeedController()
	a.Enable(1000)

	now := time.Now()
	virtual := uint64(0)
	a.Evaluate(now, virtual, 100)

	for i := 0; i < 3; i++ {
		now = now.Add(50 * time.Millisecond)
		virtual += uint64(50 * time.Millisecond)
		a.Evaluate(now, virtual, 100)
	}

	// A single high-delay sample interrupts the low streak: the next low
	// sample should need another 5 in a row, not just 2 more.
	now = now.Add(300 * time.Millisecond)
	virtual += uint64(10 * time.Millisecond)
	next, changed := a.Evaluate(now, virtual, 100)
	require := assert.New(t)
	require.True(changed)
	require.EqualValues(90, next)

	now = now.Add(50 * time.Millisecond)
	virtual += uint64(50 * time.Millisecond)
	_, changed = a.Evaluate(now, virtual, 90)
	assert.False(t, changed, "streak should have reset after the slowdown sample")
}

func TestAutoSpeedNeverExceedsCeiling(t *testing.T) {
	a := newAutoSpeedController()
	a.Enable(105)

	now := time.Now()
	virtual := uint64(0)
	a.Evaluate(now, virtual, 100)

	var next uint32
	var changed bool
	for i := 0; i < 5; i++ {
		now = now.Add(50 * time.Millisecond)
		virtual += uint64(50 * time.Millisecond)
		next, changed = a.Evaluate(now, virtual, 100)
	}
	assert.True(t, changed)
	assert.EqualValues(t, 105, next, "speed-up must clamp to the configured ceiling")
}

func TestAutoSpeedDisabledNeverChanges(t *testing.T) {
	a := newAutoSpeedController()
	_, changed := a.Evaluate(time.Now(), 0, 100)
	assert.False(t, changed)
}
