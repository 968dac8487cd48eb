package prng

import "math/rand"

// Generators holds independently-seeded sub-generators derived from one
// scene-level root seed (spec §9: all randomness must be reproducible from
// a seed). Keeping shadowing draws and packet-loss draws on separate
// streams means adding or removing one kind of draw never perturbs the
// sequence the other kind sees, the same way the teacher derives one
// sub-generator per concern from a single root seed.
type Generators struct {
	Shadowing  *rand.Rand
	PacketLoss *rand.Rand
}

// New builds the generators for a run seeded by rootSeed. rootSeed == 0
// falls back to a fixed default so an unset scene seed still reproduces,
// rather than silently going time-based.
func New(rootSeed int64) *Generators {
	if rootSeed == 0 {
		rootSeed = 42
	}
	root := rand.New(rand.NewSource(rootSeed))
	return &Generators{
		Shadowing:  rand.New(rand.NewSource(rootSeed + root.Int63())),
		PacketLoss: rand.New(rand.NewSource(rootSeed + root.Int63())),
	}
}

// NormShadowing draws the standard-normal sample used to scale a link's
// log-distance shadowing term.
func (g *Generators) NormShadowing() float64 {
	return g.Shadowing.NormFloat64()
}

// UnitPacketLoss draws a uniform [0,1) sample compared against a scene's
// configured packet-loss ratio.
func (g *Generators) UnitPacketLoss() float64 {
	return g.PacketLoss.Float64()
}
