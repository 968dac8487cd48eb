package lorapb

import (
	"context"
	"sync"
	"time"

	"github.com/lorasim/lorasim/bridge"
	"github.com/lorasim/lorasim/node"
	"github.com/lorasim/lorasim/scene"
	"github.com/lorasim/lorasim/simerrors"
	"github.com/lorasim/lorasim/simlog"
)

// Server is the gRPC-facing half of the bridge: it implements
// bridge.Visualizer (so a Loop can drive it directly or through a
// MultiVisualizer) by fanning every call out to every subscribed gRPC
// stream as a RefreshEvent, and implements BridgeServer by decoding
// incoming CommandMessages back into bridge.Command and handing them to
// Commands for the owner (cmd/lorasim) to apply.
//
// Grounded on the teacher's grpcVisualizer+grpcServer+grpcStream trio:
// one object plays both the Visualizer and the grpc service roles there
// too, with a per-stream registry guarded by its own lock.
type Server struct {
	mu          sync.Mutex
	subscribers map[*subscriber]struct{}

	commands chan bridge.Command
}

type subscriber struct {
	events chan *RefreshEvent
}

// NewServer creates a Server with no subscribers yet.
func NewServer() *Server {
	return &Server{
		subscribers: make(map[*subscriber]struct{}),
		commands:    make(chan bridge.Command, 16),
	}
}

var _ bridge.Visualizer = (*Server)(nil)
var _ BridgeServer = (*Server)(nil)

// Commands yields decoded commands received from any subscriber.
func (s *Server) Commands() <-chan bridge.Command {
	return s.commands
}

func (s *Server) broadcast(evt *RefreshEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sub := range s.subscribers {
		select {
		case sub.events <- evt:
		default:
			err := simerrors.New(simerrors.KindQueueSaturated, "subscriber queue full, dropping event")
			simlog.Warnf("lorapb: %v", err)
		}
	}
}

// Subscribe implements BridgeServer: it registers stream as a subscriber,
// sends a heartbeat on an interval so idle connections aren't reaped, and
// blocks until the stream's context is done.
func (s *Server) Subscribe(req *SubscribeRequest, stream Bridge_SubscribeServer) error {
	sub := &subscriber{events: make(chan *RefreshEvent, 64)}

	s.mu.Lock()
	s.subscribers[sub] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.subscribers, sub)
		s.mu.Unlock()
	}()

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	done := stream.Context().Done()
	for {
		select {
		case evt := <-sub.events:
			if err := stream.Send(evt); err != nil {
				return err
			}
		case <-ticker.C:
			if err := stream.Send(&RefreshEvent{Kind: "heartbeat", Heartbeat: true}); err != nil {
				return err
			}
		case <-done:
			return stream.Context().Err()
		}
	}
}

// Command implements BridgeServer: decode and forward.
func (s *Server) Command(ctx context.Context, msg *CommandMessage) (*CommandAck, error) {
	cmd := fromWireCommand(msg)
	select {
	case s.commands <- cmd:
		return &CommandAck{Accepted: true}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func fromWireCommand(m *CommandMessage) bridge.Command {
	cmd := bridge.Command{
		ResetMeasurement:   m.ResetMeasurement,
		SetSpeedPercent:    m.SetSpeedPercent,
		SetAutoSpeed:       m.SetAutoSpeed,
		SendControlCommand: m.SendControlCommand,
	}
	if m.StartMode != nil {
		cmd.StartMode = &bridge.StartMode{
			Mode:      m.StartMode.Mode,
			ScenePath: m.StartMode.ScenePath,
			LogPath:   m.StartMode.LogPath,
		}
	}
	if m.RequestNodeInfo != nil {
		id := scene.NodeID(*m.RequestNodeInfo)
		cmd.RequestNodeInfo = &id
	}
	if m.StartMeasurement != nil {
		id := scene.NodeID(*m.StartMeasurement)
		cmd.StartMeasurement = &id
	}
	return cmd
}

// --- bridge.Visualizer ---

func (s *Server) Alert(msg string) {
	s.broadcast(&RefreshEvent{Kind: "alert", Alert: &AlertEvent{Message: msg}})
}

func (s *Server) SceneLoaded(nodeCount, obstacleCount int, worldTopLeft, worldBottomRight [2]float64) {
	s.broadcast(&RefreshEvent{Kind: "scene_loaded", SceneLoaded: &SceneLoadedEvent{
		NodeCount: nodeCount, ObstacleCount: obstacleCount,
		WorldTopLeft: worldTopLeft, WorldBottomRight: worldBottomRight,
	}})
}

func (s *Server) NodeSentRadioMessage(nodeID scene.NodeID, messageType uint8, effectiveDistance float64) {
	s.broadcast(&RefreshEvent{Kind: "node_sent", NodeSentRadioMsg: &NodeSentRadioMessageEvent{
		NodeID: uint32(nodeID), MessageType: messageType, EffectiveDistance: effectiveDistance,
	}})
}

func (s *Server) NodeReceivedRadioMessage(nodeID, senderID scene.NodeID, messageType uint8, sequence *uint32, packetIndex, packetCount uint32, size int, linkQuality int, collided bool) {
	s.broadcast(&RefreshEvent{Kind: "node_received", NodeReceivedRadioMsg: &NodeReceivedRadioMessageEvent{
		NodeID: uint32(nodeID), SenderID: uint32(senderID), MessageType: messageType,
		Sequence: sequence, PacketIndex: packetIndex, PacketCount: packetCount,
		Size: size, LinkQuality: linkQuality, Collided: collided,
	}})
}

func (s *Server) Counters(totalTx, totalRx, collisions uint64) {
	s.broadcast(&RefreshEvent{Kind: "counters", Counters: &CountersEvent{
		TotalTx: totalTx, TotalRx: totalRx, Collisions: collisions,
	}})
}

func (s *Server) Pulse(nodeID scene.NodeID, radius float64, lifetimeMs int) {
	s.broadcast(&RefreshEvent{Kind: "pulse", Pulse: &PulseEvent{
		NodeID: uint32(nodeID), Radius: radius, LifetimeMs: lifetimeMs,
	}})
}

func (s *Server) SpeedChanged(percent uint32) {
	s.broadcast(&RefreshEvent{Kind: "speed_changed", SpeedChanged: &SpeedChangedEvent{Percent: percent}})
}

func (s *Server) NodeInfo(nodeID scene.NodeID, history []node.HistoryEntry) {
	entries := make([]HistoryEntryEvent, len(history))
	for i, h := range history {
		entries[i] = HistoryEntryEvent{
			Kind:        uint8(h.Kind),
			TimestampNs: h.TimestampNs,
			PeerID:      uint32(h.PeerID),
			MessageType: uint8(h.MessageType),
			Size:        h.Size,
			LinkQuality: h.LinkQuality,
			Collided:    h.Collided,
		}
	}
	s.broadcast(&RefreshEvent{Kind: "node_info", NodeInfo: &NodeInfoEvent{
		NodeID: uint32(nodeID), History: entries,
	}})
}

func (s *Server) MeasurementProgress(percent int, t50, t90, t100 *float64, packetsPerNode map[scene.NodeID]int) {
	ppn := make(map[uint32]int, len(packetsPerNode))
	for id, n := range packetsPerNode {
		ppn[uint32(id)] = n
	}
	s.broadcast(&RefreshEvent{Kind: "measurement_progress", MeasurementProgress: &MeasurementProgressEvent{
		Percent: percent, T50: t50, T90: t90, T100: t100, PacketsPerNode: ppn,
	}})
}

func (s *Server) AnalyzerDelay(ms float64) {
	s.broadcast(&RefreshEvent{Kind: "analyzer_delay", AnalyzerDelay: &AnalyzerDelayEvent{Milliseconds: ms}})
}

func (s *Server) VisualizationEnded() {
	s.broadcast(&RefreshEvent{Kind: "visualization_ended", VisualizationEnded: true})
}
