// Package medium implements the network event loop (C4): the single
// writer of all shared-medium state. One Loop instance owns the node
// table, per-sender TX queues, CAD windows, in-flight airtime records,
// and the measurement/auto-speed controllers, and is the sole goroutine
// that mutates any of them - every other task (node shims, the UI
// bridge) interacts with it only through bounded channels, so there is
// no locking inside this package (spec §4.4, §5, §9).
package medium

import (
	"github.com/lorasim/lorasim/geo"
	"github.com/lorasim/lorasim/node"
	"github.com/lorasim/lorasim/scene"
)

// CadItem is a channel-activity-detection window held per sending node;
// at most one is active per node at a time.
type CadItem struct {
	NodeID     scene.NodeID
	StartTicks uint64
	EndTicks   uint64
}

// AirtimeWaitingPacket is the in-flight record for one candidate
// sender/receiver pair, from TX start until its window is finalized
// (delivered, dropped, or captured).
type AirtimeWaitingPacket struct {
	Sender     scene.NodeID
	Receiver   scene.NodeID
	RssiDbm    float64
	StartTicks uint64
	EndTicks   uint64
	Packet     node.Packet
	Captured   bool
}

// Counters mirrors the engine-level tallies the UI bridge polls.
type Counters struct {
	TotalTx     uint64
	TotalRx     uint64
	Collisions  uint64
}

// nodeEntry is the medium's private view of one node: its scene-derived
// physical attributes plus the handle back to its running task.
type nodeEntry struct {
	id                scene.NodeID
	position          geo.Point
	radioStrengthDbm  float64
	effectiveDistance float64

	inputQueue chan<- node.RxDelivery
	txQueue    []node.Packet
}

const txQueueCapacity = 16
