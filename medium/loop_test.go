package medium_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorasim/lorasim/geo"
	"github.com/lorasim/lorasim/medium"
	"github.com/lorasim/lorasim/node"
	"github.com/lorasim/lorasim/progctx"
	"github.com/lorasim/lorasim/scene"
	"github.com/lorasim/lorasim/vclock"
)

// commonPathLoss and commonLora give every test a short, predictable
// airtime and a path-loss model with zero shadowing, so test outcomes
// depend only on the distances the test chooses.
func commonPathLoss() geo.PathLossParams {
	return geo.PathLossParams{
		Exponent:            2,
		ShadowingSigmaDb:    0,
		ReferencePathLossDb: 40,
		NoiseFloorDbm:       -120,
	}
}

func commonLora() geo.LoraParams {
	return geo.LoraParams{
		BandwidthHz:     125000,
		SpreadingFactor: 7,
		CodingRate:      1,
		PreambleSymbols: 8,
		CrcEnabled:      true,
	}
}

func nodeAt(id scene.NodeID, x, y float64) scene.Node {
	return scene.Node{
		ID:                id,
		Position:          geo.Point{X: x, Y: y},
		RadioStrengthDbm:  0,
		EffectiveDistance: 1000,
		HasEffectiveDist:  true,
	}
}

func newTestLoop(t *testing.T, nodes []scene.Node, obstacles []geo.Obstacle, rm medium.RadioModel) (*medium.Loop, *vclock.Driver) {
	t.Helper()
	sc := &scene.Scene{
		WorldTopLeft:     geo.Point{X: 0, Y: 0},
		WorldBottomRight: geo.Point{X: 1000, Y: 1000},
		Nodes:            nodes,
		Obstacles:        obstacles,
		PathLoss:         commonPathLoss(),
		Lora:             commonLora(),
		Seed:             1,
	}
	clock := vclock.NewDriver(100)
	loop := medium.NewLoop(sc, clock, rm)
	return loop, clock
}

func runLoop(t *testing.T, loop *medium.Loop) *progctx.ProgCtx {
	t.Helper()
	ctx := progctx.New(context.Background())
	go loop.Run(ctx)
	t.Cleanup(func() { ctx.Cancel("test done") })
	return ctx
}

func recvWithTimeout(t *testing.T, ch <-chan node.RxDelivery) (node.RxDelivery, bool) {
	t.Helper()
	select {
	case rx := <-ch:
		return rx, true
	case <-time.After(2 * time.Second):
		return node.RxDelivery{}, false
	}
}

func TestTwoNodeLineOfSightDelivery(t *testing.T) {
	nodes := []scene.Node{nodeAt(1, 0, 0), nodeAt(2, 10, 0)}
	loop, _ := newTestLoop(t, nodes, nil, nil)

	rxB := make(chan node.RxDelivery, 4)
	loop.RegisterNode(2, rxB)
	runLoop(t, loop)

	loop.Output() <- node.OutputEvent{
		NodeID:   1,
		TxPacket: &node.Packet{SenderID: 1, Payload: []byte("hello"), MessageType: 3},
	}

	rx, ok := recvWithTimeout(t, rxB)
	require.True(t, ok, "node 2 never received the packet")
	assert.False(t, rx.Collided)
	assert.EqualValues(t, 1, rx.SenderID)
	assert.Equal(t, node.MessageType(3), rx.Packet.MessageType)
}

func TestObstacleBlocksLineOfSight(t *testing.T) {
	nodes := []scene.Node{nodeAt(1, 0, 0), nodeAt(2, 10, 0)}
	wall := geo.Obstacle{Rect: &geo.Rectangle{
		TopLeft:     geo.Point{X: 4, Y: -5},
		BottomRight: geo.Point{X: 6, Y: 5},
	}}
	loop, _ := newTestLoop(t, nodes, []geo.Obstacle{wall}, nil)

	rxB := make(chan node.RxDelivery, 4)
	loop.RegisterNode(2, rxB)
	runLoop(t, loop)

	loop.Output() <- node.OutputEvent{
		NodeID:   1,
		TxPacket: &node.Packet{SenderID: 1, Payload: []byte("blocked"), MessageType: 1},
	}

	_, ok := recvWithTimeout(t, rxB)
	assert.False(t, ok, "obstacle should have blocked delivery entirely")
}

func TestOverlappingSendersWithoutCaptureBothDeliver(t *testing.T) {
	// Two senders equidistant from the receiver: identical RSSI, so
	// neither clears the other's 6dB capture margin, and LoRa's
	// processing gain tolerates the resulting 0dB co-channel SNR.
	nodes := []scene.Node{nodeAt(1, 0, 0), nodeAt(2, 0, 20), nodeAt(3, 10, 10)}
	loop, _ := newTestLoop(t, nodes, nil, nil)

	rxC := make(chan node.RxDelivery, 4)
	loop.RegisterNode(3, rxC)
	runLoop(t, loop)

	loop.Output() <- node.OutputEvent{NodeID: 1, TxPacket: &node.Packet{SenderID: 1, Payload: []byte("a")}}
	loop.Output() <- node.OutputEvent{NodeID: 2, TxPacket: &node.Packet{SenderID: 2, Payload: []byte("b")}}

	first, ok := recvWithTimeout(t, rxC)
	require.True(t, ok)
	second, ok := recvWithTimeout(t, rxC)
	require.True(t, ok)

	assert.False(t, first.Collided)
	assert.False(t, second.Collided)
}

func TestCaptureEffectFavorsStrongerSignal(t *testing.T) {
	// Node 2 is ten times closer to the receiver than node 1, clearing
	// the 6dB capture margin comfortably: node 2's packet should survive
	// and node 1's should be marked collided.
	nodes := []scene.Node{nodeAt(1, 0, 0), nodeAt(2, 9, 0), nodeAt(3, 10, 0)}
	loop, _ := newTestLoop(t, nodes, nil, nil)

	rxC := make(chan node.RxDelivery, 4)
	loop.RegisterNode(3, rxC)
	runLoop(t, loop)

	loop.Output() <- node.OutputEvent{NodeID: 1, TxPacket: &node.Packet{SenderID: 1, Payload: []byte("weak")}}
	loop.Output() <- node.OutputEvent{NodeID: 2, TxPacket: &node.Packet{SenderID: 2, Payload: []byte("strong")}}

	a, ok := recvWithTimeout(t, rxC)
	require.True(t, ok)
	b, ok := recvWithTimeout(t, rxC)
	require.True(t, ok)

	bySender := map[uint32]node.RxDelivery{a.SenderID: a, b.SenderID: b}
	assert.True(t, bySender[1].Collided, "the far, weaker sender should lose capture")
	assert.False(t, bySender[2].Collided, "the near, stronger sender should survive capture")
}

func TestSetSpeedAppliesToClock(t *testing.T) {
	nodes := []scene.Node{nodeAt(1, 0, 0)}
	loop, clock := newTestLoop(t, nodes, nil, nil)
	runLoop(t, loop)

	applied := loop.SetSpeed(400)
	assert.EqualValues(t, 400, applied)
	assert.EqualValues(t, 400, clock.GetSpeed())
}
