// Package bridge implements the UI/control bridge (C5): the one-way event
// vocabulary the core pushes to any attached observer, plus the
// opaque-command channel external collaborators push back through. It is
// the direct descendant of the teacher's visualize package, retargeted
// from OpenThread roles/partitions/routers to the LoRa event vocabulary in
// spec §6.
package bridge

import (
	"github.com/lorasim/lorasim/node"
	"github.com/lorasim/lorasim/scene"
)

// Visualizer is the full §6 event vocabulary a UI/control observer
// receives. A Loop drives at most one Visualizer directly, typically a
// MultiVisualizer fanning out to several.
type Visualizer interface {
	// Alert surfaces a recoverable error for display as a modal banner.
	Alert(msg string)
	// SceneLoaded announces a freshly loaded topology.
	SceneLoaded(nodeCount, obstacleCount int, worldTopLeft, worldBottomRight [2]float64)
	// NodeSentRadioMessage reports one transmission starting.
	NodeSentRadioMessage(nodeID scene.NodeID, messageType uint8, effectiveDistance float64)
	// NodeReceivedRadioMessage reports one airtime window finalizing,
	// delivered or not.
	NodeReceivedRadioMessage(nodeID, senderID scene.NodeID, messageType uint8, sequence *uint32, packetIndex, packetCount uint32, size int, linkQuality int, collided bool)
	// Counters reports the current engine-wide tallies.
	Counters(totalTx, totalRx, collisions uint64)
	// Pulse requests a short-lived visual pulse centered on a node.
	Pulse(nodeID scene.NodeID, radius float64, lifetimeMs int)
	// SpeedChanged reports the clock's current speed percent.
	SpeedChanged(percent uint32)
	// NodeInfo answers a RequestNodeInfo command with a node's full
	// history snapshot (spec §6 NodeInfo).
	NodeInfo(nodeID scene.NodeID, history []node.HistoryEntry)
	// MeasurementProgress reports convergence-measurement percentiles as
	// they stabilize; t50/t90/t100 are nil until enough samples exist.
	MeasurementProgress(percent int, t50, t90, t100 *float64, packetsPerNode map[scene.NodeID]int)
	// AnalyzerDelay reports a single analyzer-mode propagation delay
	// computation, in milliseconds.
	AnalyzerDelay(ms float64)
	// VisualizationEnded signals the run has finished and no further
	// events will be sent.
	VisualizationEnded()
}

// Command is the opaque external-control vocabulary from spec §6: the
// core only type-switches on the tagged-union shape, never interprets
// SendControlCommand's payload.
type Command struct {
	StartMode        *StartMode
	RequestNodeInfo  *scene.NodeID
	StartMeasurement *scene.NodeID
	ResetMeasurement bool
	SetSpeedPercent  *uint32
	SetAutoSpeed     *bool
	SendControlCommand *string
}

// StartMode selects how a run begins: a live scene or a replay/analyzer
// pass, with an optional log file path.
type StartMode struct {
	Mode      string
	ScenePath string
	LogPath   string
}
