package bridge

import (
	"github.com/lorasim/lorasim/medium"
	"github.com/lorasim/lorasim/node"
	"github.com/lorasim/lorasim/scene"
)

// MediumSink adapts a Visualizer to medium.EventSink, the narrower
// interface the event loop itself depends on. Keeping medium.EventSink
// separate from bridge.Visualizer lets the event loop avoid importing
// this package at all; MediumSink is the one place the two vocabularies
// are wired together, normally from cmd/lorasim.
type MediumSink struct {
	Visualizer Visualizer
}

var _ medium.EventSink = MediumSink{}

func (s MediumSink) NodeSentRadioMessage(sender scene.NodeID, msgType node.MessageType, effectiveDistance float64) {
	s.Visualizer.NodeSentRadioMessage(sender, uint8(msgType), effectiveDistance)
}

func (s MediumSink) NodeReceivedRadioMessage(receiver, sender scene.NodeID, msgType node.MessageType, linkQuality int, collided bool) {
	s.Visualizer.NodeReceivedRadioMessage(receiver, sender, uint8(msgType), nil, 0, 0, 0, linkQuality, collided)
}

// pulseLifetimeMs is the fixed pulse duration spec §6's Pulse event names.
const pulseLifetimeMs = 1000

func (s MediumSink) Pulse(nodeID scene.NodeID, radius float64) {
	s.Visualizer.Pulse(nodeID, radius, pulseLifetimeMs)
}

func (s MediumSink) CountersChanged(c medium.Counters) {
	s.Visualizer.Counters(c.TotalTx, c.TotalRx, c.Collisions)
}

func (s MediumSink) SpeedChanged(percent uint32) {
	s.Visualizer.SpeedChanged(percent)
}

func (s MediumSink) MeasurementProgress(snap medium.MeasurementSnapshot) {
	s.Visualizer.MeasurementProgress(snap.Percent, snap.T50Ms, snap.T90Ms, snap.T100Ms, snap.PacketsPerNode)
}
