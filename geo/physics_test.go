package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testPathLossParams() PathLossParams {
	return PathLossParams{
		Exponent:            2.0,
		ShadowingSigmaDb:    0,
		ReferencePathLossDb: 40.0,
		NoiseFloorDbm:       -120,
	}
}

func TestPathLossAtReferenceDistance(t *testing.T) {
	p := testPathLossParams()
	assert.Equal(t, p.ReferencePathLossDb, PathLoss(p, 1.0, 0))
}

func TestNoiseSumDbmEmptyIsNoiseFloor(t *testing.T) {
	assert.Equal(t, -120.0, NoiseSumDbm(-120, nil))
}

func TestSnrLimitMonotonicDecreasing(t *testing.T) {
	prev := SnrLimit(5)
	for sf := 6; sf <= 12; sf++ {
		cur := SnrLimit(sf)
		assert.Less(t, cur, prev)
		prev = cur
	}
}

func TestAirtimeWindowPositive(t *testing.T) {
	lp := LoraParams{
		BandwidthHz:     125000,
		SpreadingFactor: 7,
		CodingRate:      1,
		PreambleSymbols: 8,
		CrcEnabled:      true,
	}
	a := Airtime(lp, 50)
	assert.Greater(t, a, 0.0)
}

func TestEffectiveDistancePositiveAndMonotonicInTxPower(t *testing.T) {
	pl := testPathLossParams()
	d1 := EffectiveDistance(pl, 10, 7)
	d2 := EffectiveDistance(pl, 20, 7)
	assert.Greater(t, d1, 0.0)
	assert.Greater(t, d2, d1)
}

func TestLinkQualityClampedRange(t *testing.T) {
	assert.Equal(t, 0, LinkQuality(-100, 7))
	assert.Equal(t, 63, LinkQuality(100, 7))
}
