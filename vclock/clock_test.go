package vclock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNowTicksMonotonic(t *testing.T) {
	d := NewDriver(100)
	t1 := d.NowTicks()
	time.Sleep(2 * time.Millisecond)
	t2 := d.NowTicks()
	assert.GreaterOrEqual(t, t2, t1)
}

func TestSetSpeedIsContinuous(t *testing.T) {
	d := NewDriver(100)
	before := d.NowTicks()
	d.SetSpeed(50)
	after := d.NowTicks()
	// no jump: before/after differ only by the real time elapsed between
	// the two calls, not by a discontinuity from rebasing.
	assert.InDelta(t, float64(before), float64(after), float64(5*time.Millisecond))
}

func TestSetSpeedClampsOutOfRange(t *testing.T) {
	d := NewDriver(100)
	assert.Equal(t, MinSpeedPercent, d.SetSpeed(0))
	assert.Equal(t, MaxSpeedPercent, d.SetSpeed(5000))
}

func TestSetSpeedIdempotentBeyondEpochBump(t *testing.T) {
	d := NewDriver(100)
	d.SetSpeed(50)
	before := d.epoch
	d.SetSpeed(50)
	assert.Equal(t, before+1, d.epoch)
	assert.Equal(t, uint32(50), d.GetSpeed())
}

func TestScaleForPercentRoundTrip(t *testing.T) {
	assert.Equal(t, uint64(1)<<32, scaleForPercent(100))
	assert.Equal(t, (uint64(1)<<32)/2, scaleForPercent(50))
}

func TestScheduleWakeFires(t *testing.T) {
	d := NewDriver(1000)
	deadline := d.NowTicks() + uint64(5*time.Millisecond)
	wake := d.ScheduleWake(deadline)

	select {
	case <-wake:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
	assert.GreaterOrEqual(t, d.NowTicks(), deadline)
}
