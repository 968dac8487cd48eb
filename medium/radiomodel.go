package medium

import "github.com/lorasim/lorasim/geo"

// captureThresholdDb is the RSSI margin (dB) above which a later/earlier
// overlapping signal destroys the currently-locked one (spec §4.4.3).
const captureThresholdDb = 6.0

// Outcome is what a RadioModel decides for one terminating airtime
// window.
type Outcome struct {
	Captured    bool
	Delivered   bool
	LinkQuality int
}

// RadioModel evaluates interference and capture for a receiver's
// just-ended airtime window. Two implementations are provided: the
// default full interference/capture model (spec §4.4.3) and an
// IdealRadioModel for fast, collision-free smoke tests - mirroring the
// swappable-strategy design the event loop this package was adapted from
// uses for its own radio models.
type RadioModel interface {
	Evaluate(p *AirtimeWaitingPacket, overlapping []*AirtimeWaitingPacket, noiseFloorDbm float64, sf int) Outcome
}

// InterferenceRadioModel implements the preamble-lock/capture rule and
// SNR decode check from spec §4.4.3.
type InterferenceRadioModel struct{}

func (InterferenceRadioModel) Evaluate(p *AirtimeWaitingPacket, overlapping []*AirtimeWaitingPacket, noiseFloorDbm float64, sf int) Outcome {
	for _, q := range overlapping {
		if q == p {
			continue
		}
		// later-arriving stronger signal captures the lock
		if q.StartTicks > p.StartTicks && q.RssiDbm-p.RssiDbm > captureThresholdDb {
			return Outcome{Captured: true}
		}
		// earlier overlapping signal that arrives stronger than the
		// currently-locked one also captures it (symmetric rule)
		if q.StartTicks <= p.StartTicks && q.RssiDbm-p.RssiDbm > captureThresholdDb {
			return Outcome{Captured: true}
		}
	}

	interferers := make([]float64, 0, len(overlapping))
	for _, q := range overlapping {
		if q != p {
			interferers = append(interferers, q.RssiDbm)
		}
	}
	totalNoise := geo.NoiseSumDbm(noiseFloorDbm, interferers)

	if p.RssiDbm-totalNoise >= geo.SnrLimit(sf) {
		snr := p.RssiDbm - totalNoise
		return Outcome{Delivered: true, LinkQuality: geo.LinkQuality(snr, sf)}
	}
	return Outcome{Delivered: false}
}

// IdealRadioModel delivers every non-captured packet unconditionally,
// ignoring noise and collisions - useful for smoke tests that only care
// about topology and timing, not the physical layer.
type IdealRadioModel struct{}

func (IdealRadioModel) Evaluate(p *AirtimeWaitingPacket, overlapping []*AirtimeWaitingPacket, noiseFloorDbm float64, sf int) Outcome {
	return Outcome{Delivered: true, LinkQuality: 63}
}
