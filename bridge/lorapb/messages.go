// Package lorapb implements the gRPC transport for the UI/control bridge
// (spec §4.5, §6), grounded on the teacher's visualize/grpc package: one
// server-streaming RPC pushes the refresh-event vocabulary to an attached
// UI, and one unary RPC accepts control commands back.
//
// The teacher generates its wire messages from visualize/grpc/replay/*.proto
// via protoc; that toolchain isn't available in this environment, so these
// messages are hand-written plain structs carried over a small gob-based
// grpc codec (see codec.go) rather than protoc-generated protobuf types.
// The RPC shape (one server-streaming Subscribe, one unary Command) and the
// grpc.Server/grpc.ClientConn wiring are unchanged from what protoc-gen-go
// and protoc-gen-go-grpc would have produced.
package lorapb

import "time"

// RefreshEvent is the wire form of one bridge.Visualizer call. Exactly one
// field beyond Kind is set, matching the tagged-union shape the in-process
// bridge.Visualizer interface uses.
type RefreshEvent struct {
	Kind string

	Alert               *AlertEvent
	SceneLoaded         *SceneLoadedEvent
	NodeSentRadioMsg    *NodeSentRadioMessageEvent
	NodeReceivedRadioMsg *NodeReceivedRadioMessageEvent
	Counters            *CountersEvent
	Pulse               *PulseEvent
	SpeedChanged        *SpeedChangedEvent
	NodeInfo            *NodeInfoEvent
	MeasurementProgress *MeasurementProgressEvent
	AnalyzerDelay       *AnalyzerDelayEvent
	VisualizationEnded  bool

	Heartbeat bool
}

type AlertEvent struct{ Message string }

type SceneLoadedEvent struct {
	NodeCount, ObstacleCount         int
	WorldTopLeft, WorldBottomRight   [2]float64
}

type NodeSentRadioMessageEvent struct {
	NodeID            uint32
	MessageType       uint8
	EffectiveDistance float64
}

type NodeReceivedRadioMessageEvent struct {
	NodeID, SenderID         uint32
	MessageType              uint8
	Sequence                 *uint32
	PacketIndex, PacketCount uint32
	Size                      int
	LinkQuality               int
	Collided                  bool
}

type CountersEvent struct {
	TotalTx, TotalRx, Collisions uint64
}

type PulseEvent struct {
	NodeID     uint32
	Radius     float64
	LifetimeMs int
}

type SpeedChangedEvent struct {
	Percent uint32
}

type NodeInfoEvent struct {
	NodeID  uint32
	History []HistoryEntryEvent
}

type HistoryEntryEvent struct {
	Kind        uint8
	TimestampNs uint64
	PeerID      uint32
	MessageType uint8
	Size        int
	LinkQuality int
	Collided    bool
}

type MeasurementProgressEvent struct {
	Percent                int
	T50, T90, T100         *float64
	PacketsPerNode         map[uint32]int
}

type AnalyzerDelayEvent struct {
	Milliseconds float64
}

// SubscribeRequest starts a refresh-event stream. ClientVersion is
// informational only.
type SubscribeRequest struct {
	ClientVersion string
}

// CommandMessage is the wire form of bridge.Command.
type CommandMessage struct {
	StartMode          *StartModeMessage
	RequestNodeInfo    *uint32
	StartMeasurement   *uint32
	ResetMeasurement   bool
	SetSpeedPercent    *uint32
	SetAutoSpeed       *bool
	SendControlCommand *string
}

type StartModeMessage struct {
	Mode      string
	ScenePath string
	LogPath   string
}

// CommandAck acknowledges a CommandMessage.
type CommandAck struct {
	Accepted bool
	Error    string
}

// heartbeatInterval matches the teacher's grpcServer heartbeat cadence,
// which keeps idle streams from being reaped by intermediate proxies.
const heartbeatInterval = time.Second
