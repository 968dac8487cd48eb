package bridge

import (
	"github.com/lorasim/lorasim/node"
	"github.com/lorasim/lorasim/scene"
)

// MultiVisualizer fans every event out to a fixed set of Visualizers,
// grounded on the teacher's visualize/multi.multiVisualizer: the simplest
// way to attach both a gRPC stream and a statslog writer to one run.
type MultiVisualizer struct {
	targets []Visualizer
}

// NewMultiVisualizer wraps targets for fan-out. A nil target is skipped.
func NewMultiVisualizer(targets ...Visualizer) *MultiVisualizer {
	m := &MultiVisualizer{}
	for _, t := range targets {
		if t != nil {
			m.targets = append(m.targets, t)
		}
	}
	return m
}

func (m *MultiVisualizer) Alert(msg string) {
	for _, t := range m.targets {
		t.Alert(msg)
	}
}

func (m *MultiVisualizer) SceneLoaded(nodeCount, obstacleCount int, worldTopLeft, worldBottomRight [2]float64) {
	for _, t := range m.targets {
		t.SceneLoaded(nodeCount, obstacleCount, worldTopLeft, worldBottomRight)
	}
}

func (m *MultiVisualizer) NodeSentRadioMessage(nodeID scene.NodeID, messageType uint8, effectiveDistance float64) {
	for _, t := range m.targets {
		t.NodeSentRadioMessage(nodeID, messageType, effectiveDistance)
	}
}

func (m *MultiVisualizer) NodeReceivedRadioMessage(nodeID, senderID scene.NodeID, messageType uint8, sequence *uint32, packetIndex, packetCount uint32, size int, linkQuality int, collided bool) {
	for _, t := range m.targets {
		t.NodeReceivedRadioMessage(nodeID, senderID, messageType, sequence, packetIndex, packetCount, size, linkQuality, collided)
	}
}

func (m *MultiVisualizer) Counters(totalTx, totalRx, collisions uint64) {
	for _, t := range m.targets {
		t.Counters(totalTx, totalRx, collisions)
	}
}

func (m *MultiVisualizer) Pulse(nodeID scene.NodeID, radius float64, lifetimeMs int) {
	for _, t := range m.targets {
		t.Pulse(nodeID, radius, lifetimeMs)
	}
}

func (m *MultiVisualizer) SpeedChanged(percent uint32) {
	for _, t := range m.targets {
		t.SpeedChanged(percent)
	}
}

func (m *MultiVisualizer) NodeInfo(nodeID scene.NodeID, history []node.HistoryEntry) {
	for _, t := range m.targets {
		t.NodeInfo(nodeID, history)
	}
}

func (m *MultiVisualizer) MeasurementProgress(percent int, t50, t90, t100 *float64, packetsPerNode map[scene.NodeID]int) {
	for _, t := range m.targets {
		t.MeasurementProgress(percent, t50, t90, t100, packetsPerNode)
	}
}

func (m *MultiVisualizer) AnalyzerDelay(ms float64) {
	for _, t := range m.targets {
		t.AnalyzerDelay(ms)
	}
}

func (m *MultiVisualizer) VisualizationEnded() {
	for _, t := range m.targets {
		t.VisualizationEnded()
	}
}
