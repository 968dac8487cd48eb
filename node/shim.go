package node

import (
	"strconv"

	"github.com/lorasim/lorasim/progctx"
	"github.com/lorasim/lorasim/scene"
	"github.com/lorasim/lorasim/simerrors"
	"github.com/lorasim/lorasim/simlog"
)

const (
	// InputQueueCapacity and OutputQueueCapacity are the bounded-queue
	// sizes mandated by spec §4.3.
	InputQueueCapacity  = 50
	OutputQueueCapacity = 100
)

// Task is one node's cooperative task: it owns the node's input queue,
// holds a handle to the medium's shared output queue, drives one
// Firmware instance, and maintains that node's message history ring.
type Task struct {
	ID       scene.NodeID
	input    chan RxDelivery
	output   chan<- OutputEvent
	firmware Firmware
	History  *History
}

// NewTask creates a node task. output is the medium-owned, shared
// node->medium queue (capacity OutputQueueCapacity); every node task
// shares the same output channel, matching spec §4.3's "shares one
// output queue".
func NewTask(id scene.NodeID, output chan<- OutputEvent, firmware Firmware) *Task {
	return &Task{
		ID:       id,
		input:    make(chan RxDelivery, InputQueueCapacity),
		output:   output,
		firmware: firmware,
		History:  NewHistory(),
	}
}

// InputQueue returns the send side of this node's input queue, for the
// medium to deliver RX events into. A full input queue applies
// backpressure to the medium's deliverer: the medium's delivery step
// blocks (cooperative yield) rather than dropping, since protocol
// semantics require ordered delivery (spec §4.3).
func (t *Task) InputQueue() chan<- RxDelivery {
	return t.input
}

// Run drives the node task until ctx is cancelled. It is meant to run on
// its own goroutine, one per node, all cooperating through bounded
// channels per spec §5 (no shared mutable state between node tasks).
func (t *Task) Run(ctx *progctx.ProgCtx) {
	name := taskName(t.ID)
	ctx.WaitAdd(name, 1)
	defer ctx.WaitDone(name)
	defer t.firmware.Close()

	done := ctx.Done()
	for {
		select {
		case pkt, ok := <-t.firmware.TxRequests():
			if !ok {
				return
			}
			t.handleTx(ctx, pkt)
		case notif, ok := <-t.firmware.Notifications():
			if !ok {
				return
			}
			t.handleNotification(ctx, notif)
		case rx := <-t.input:
			t.handleRx(rx)
		case <-done:
			return
		}
	}
}

func (t *Task) handleTx(ctx *progctx.ProgCtx, pkt Packet) {
	pkt.SenderID = t.ID
	if pkt.ClampPayload() {
		err := simerrors.New(simerrors.KindPayloadOverflow, "firmware produced payload over max bytes, clamped")
		simlog.Warnf("node %d: %v (max %d)", t.ID, err, MaxPayloadBytes)
	}

	t.History.Push(HistoryEntry{
		Kind:        HistoryTx,
		MessageType: pkt.MessageType,
		Size:        len(pkt.Payload),
	})

	evt := OutputEvent{NodeID: t.ID, TxPacket: &pkt}
	select {
	case t.output <- evt:
	case <-ctx.Done():
	}
}

func (t *Task) handleNotification(ctx *progctx.ProgCtx, n FirmwareNotification) {
	evt := OutputEvent{NodeID: t.ID}
	switch {
	case n.FullMessageSent != nil:
		evt.FullMessageSent = n.FullMessageSent
	case n.FullMessageReceived != nil:
		evt.FullMessageReceived = n.FullMessageReceived
	case n.StartMeasurement != nil:
		evt.StartMeasurement = n.StartMeasurement
	default:
		return
	}

	select {
	case t.output <- evt:
	case <-ctx.Done():
	}
}

func (t *Task) handleRx(rx RxDelivery) {
	t.History.Push(HistoryEntry{
		Kind:        HistoryRx,
		PeerID:      rx.SenderID,
		MessageType: rx.Packet.MessageType,
		Size:        len(rx.Packet.Payload),
		LinkQuality: rx.LinkQuality,
		Collided:    rx.Collided,
	})
	t.firmware.DeliverRx(rx)
}

func taskName(id scene.NodeID) string {
	return "node-" + strconv.FormatUint(uint64(id), 10)
}
