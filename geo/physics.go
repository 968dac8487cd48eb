package geo

import "math"

// DbValue is a decibel-scale quantity (dB or dBm depending on context),
// named the way the radio model this package was adapted from names its
// log-domain values.
type DbValue = float64

// PathLossParams holds the log-distance shadowing model's tunables and the
// noise floor; the LoRa modem parameters live in LoraParams.
type PathLossParams struct {
	Exponent           float64 // path-loss exponent n
	ShadowingSigmaDb    float64 // sigma of the zero-mean Gaussian shadowing term
	ReferencePathLossDb float64 // PL0, path loss at d0 = 1m
	NoiseFloorDbm       float64
}

const referenceDistanceM = 1.0

// PathLoss computes PL(d) = PL0 + 10*n*log10(max(d,1)/d0) + x, where x is
// the caller-supplied shadowing sample (0 for a deterministic draw).
func PathLoss(p PathLossParams, distanceM float64, shadowingSample float64) DbValue {
	d := distanceM
	if d < referenceDistanceM {
		d = referenceDistanceM
	}
	return p.ReferencePathLossDb + 10*p.Exponent*math.Log10(d/referenceDistanceM) + shadowingSample
}

// Rssi returns the received signal strength at distanceM given a
// transmitter power in dBm and a shadowing sample.
func Rssi(p PathLossParams, txPowerDbm DbValue, distanceM float64, shadowingSample float64) DbValue {
	return txPowerDbm - PathLoss(p, distanceM, shadowingSample)
}

// snrLimitTable maps spreading factor (index 5..12) to the minimum SNR
// (dB) LoRa needs to decode a frame. Values decrease monotonically with
// SF, matching the standard LoRa sensitivity table (SX126x/SX127x
// datasheets): higher SF trades airtime for sensitivity.
var snrLimitTable = map[int]DbValue{
	5:  -7.5,
	6:  -10.0,
	7:  -12.5,
	8:  -15.0,
	9:  -17.5,
	10: -20.0,
	11: -22.5,
	12: -25.0,
}

// SnrLimit returns the minimum decodable SNR (dB) for the given spreading
// factor. Panics on an out-of-range SF since scene validation must reject
// those before this is ever called.
func SnrLimit(sf int) DbValue {
	v, ok := snrLimitTable[sf]
	if !ok {
		panic("geo: spreading factor out of range [5,12]")
	}
	return v
}

// NoiseSumDbm sums a noise floor and a set of interferer RSSI values
// (all dBm) by converting to milliwatts, summing linearly, and converting
// back - addSignalPowersDbm generalized from pairwise to N-ary. Each
// pairwise step short-circuits when one signal dominates the other by
// more than 15 dB, since 10^(-1.5) contributes under 0.14 dB and is below
// the precision this model cares about.
func NoiseSumDbm(noiseFloorDbm DbValue, interferersDbm []DbValue) DbValue {
	total := noiseFloorDbm
	for _, rssi := range interferersDbm {
		total = addDbm(total, rssi)
	}
	return total
}

func addDbm(p1, p2 DbValue) DbValue {
	if p1 > p2+15.0 {
		return p1
	}
	if p2 > p1+15.0 {
		return p2
	}
	return 10.0 * math.Log10(math.Pow(10, p1/10.0)+math.Pow(10, p2/10.0))
}

// LoraParams holds the modem configuration needed for airtime/CAD timing.
type LoraParams struct {
	BandwidthHz            float64
	SpreadingFactor        int
	CodingRate             int // 1..4, meaning 4/5 .. 4/8
	PreambleSymbols        int
	CrcEnabled             bool
	LowDataRateOptimization bool
}

// cadSymbols maps SF to the number of symbols a CAD window must span
// (CAD_N), per the LoRa modem's channel-activity-detection timing.
var cadSymbols = map[int]float64{
	5: 1, 6: 1, 7: 1, 8: 1, 9: 2, 10: 2, 11: 2, 12: 2,
}

// SymbolTime returns Ts = 2^SF / BW, the duration of one LoRa symbol.
func SymbolTime(p LoraParams) float64 {
	return math.Pow(2, float64(p.SpreadingFactor)) / p.BandwidthHz
}

// PreambleTime returns the duration of the configured preamble, including
// the fixed 4.25-symbol sync/detect overhead.
func PreambleTime(p LoraParams) float64 {
	return (float64(p.PreambleSymbols) + 4.25) * SymbolTime(p)
}

// CadTime returns the duration of a channel-activity-detection window.
func CadTime(p LoraParams) float64 {
	n := cadSymbols[p.SpreadingFactor]
	return (n + 0.5) * SymbolTime(p)
}

// PayloadSymbols returns the number of symbols needed to transmit
// payloadLen bytes, per the standard LoRa airtime equation.
func PayloadSymbols(p LoraParams, payloadLen int) float64 {
	sf := float64(p.SpreadingFactor)
	de := 0.0
	if p.LowDataRateOptimization {
		de = 1.0
	}
	crc := 0.0
	if p.CrcEnabled {
		crc = 1.0
	}

	numerator := 8*float64(payloadLen) - 4*sf + 28 + 16*crc - 20*de
	denominator := 4 * (sf - 2*de)

	n := math.Ceil(numerator/denominator) * float64(p.CodingRate+4)
	if n < 0 {
		n = 0
	}
	return n
}

// PayloadAirtime returns the on-air duration of the payload portion only
// (excludes preamble).
func PayloadAirtime(p LoraParams, payloadLen int) float64 {
	return PayloadSymbols(p, payloadLen) * SymbolTime(p)
}

// Airtime returns the total on-air duration (preamble + payload) in
// seconds for a payloadLen-byte packet under the given LoRa parameters.
func Airtime(p LoraParams, payloadLen int) float64 {
	return PreambleTime(p) + PayloadAirtime(p, payloadLen)
}

// EffectiveDistance numerically solves rssi(d) - noiseFloor == snrLimit(SF)
// for d, given txPower and sigma=0 (deterministic shadowing). Uses
// bisection since PathLoss is monotonically increasing in d, so
// Rssi(d) - noiseFloor is monotonically decreasing: a single root exists
// for any txPower that clears the noise floor at d0.
func EffectiveDistance(pl PathLossParams, txPowerDbm DbValue, sf int) float64 {
	target := SnrLimit(sf)

	margin := func(d float64) float64 {
		return Rssi(pl, txPowerDbm, d, 0) - pl.NoiseFloorDbm - target
	}

	lo, hi := referenceDistanceM, 2.0
	// grow hi until the margin goes negative (out of range) or we give up
	for i := 0; i < 64 && margin(hi) > 0; i++ {
		hi *= 2
	}
	if margin(hi) > 0 {
		// txPower never falls below the floor within a sane bound; return
		// the largest bound considered rather than looping forever.
		return hi
	}

	for i := 0; i < 100; i++ {
		mid := (lo + hi) / 2
		if margin(mid) > 0 {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2
}

// LinkQuality maps a post-noise SNR (dB) linearly to a clamped 0-63
// integer scale for UI display.
func LinkQuality(snrDb DbValue, sf int) int {
	limit := SnrLimit(sf)
	const ceilingDb = 20.0 // SNR at/above this maps to the top of the scale
	if snrDb <= limit {
		return 0
	}
	if snrDb >= ceilingDb {
		return 63
	}
	scaled := (snrDb - limit) / (ceilingDb - limit) * 63.0
	return int(math.Round(scaled))
}
