package medium

import (
	"sort"
	"time"

	"github.com/lorasim/lorasim/geo"
	"github.com/lorasim/lorasim/node"
	"github.com/lorasim/lorasim/prng"
	"github.com/lorasim/lorasim/progctx"
	"github.com/lorasim/lorasim/scene"
	"github.com/lorasim/lorasim/simerrors"
	"github.com/lorasim/lorasim/simlog"
	"github.com/lorasim/lorasim/vclock"
)

// heartbeatTicks bounds how long the loop can go without re-evaluating its
// deadline even when nothing is scheduled to finish, so a newly registered
// node or a UI command is never stuck behind an arbitrarily long wait.
const heartbeatTicks = uint64(10 * time.Millisecond)

const defaultSeed = 42

// EventSink receives the events a UI bridge cares about. Keeping this
// interface local to medium (rather than importing a bridge package) keeps
// the event loop - the single-writer core - free of any transport or
// protobuf dependency; bridge implementations satisfy it from the outside.
type EventSink interface {
	NodeSentRadioMessage(sender scene.NodeID, msgType node.MessageType, effectiveDistance float64)
	NodeReceivedRadioMessage(receiver, sender scene.NodeID, msgType node.MessageType, linkQuality int, collided bool)
	// Pulse requests the short-lived visual pulse spec §4.4.3's "Delivery
	// effect" names (position, effective radius, color class) - radius is
	// the receiver's effective distance; position/color are derived by the
	// bridge from nodeID and the paired NodeReceivedRadioMessage call.
	Pulse(nodeID scene.NodeID, radius float64)
	CountersChanged(Counters)
	SpeedChanged(percent uint32)
	MeasurementProgress(MeasurementSnapshot)
}

type nopSink struct{}

func (nopSink) NodeSentRadioMessage(scene.NodeID, node.MessageType, float64)                     {}
func (nopSink) NodeReceivedRadioMessage(scene.NodeID, scene.NodeID, node.MessageType, int, bool) {}
func (nopSink) Pulse(scene.NodeID, float64)                                                      {}
func (nopSink) CountersChanged(Counters)                                                         {}
func (nopSink) SpeedChanged(uint32)                                                              {}
func (nopSink) MeasurementProgress(MeasurementSnapshot)                                          {}

// Command is the subset of the §6 UI-command vocabulary that mutates
// loop-private state (the measurement tracker, the auto-speed
// controller) and therefore must be funneled through Run's own select
// per spec §4.4.1 step 2b, rather than called directly the way
// SetSpeed is (SetSpeed only touches vclock.Driver's own
// already-synchronized state). Exactly one field is set per Command.
type Command struct {
	StartMeasurement *scene.NodeID
	ResetMeasurement bool
	SetAutoSpeed     *bool
}

// Loop is the network event loop (C4): the single goroutine that owns the
// node table, CAD windows, in-flight airtime records, and counters. Other
// tasks reach it through the shared output channel, the command channel
// (Commands), or SetSpeed; the remaining methods below read or write
// loop-private state without locking and are safe only before Run starts
// or on the loop's own goroutine - matching the single-writer discipline
// the dispatcher this package was adapted from uses for its own event queue.
type Loop struct {
	sc         *scene.Scene
	clock      *vclock.Driver
	radioModel RadioModel
	rng        *prng.Generators
	sink       EventSink

	nodes  map[scene.NodeID]*nodeEntry
	output chan node.OutputEvent
	cmds   chan Command

	cad     map[scene.NodeID]*CadItem
	waiting []*AirtimeWaitingPacket

	counters     Counters
	measurements *measurementTracker
	auto         *autoSpeedController
	nextSeq      uint32
}

// NewLoop builds a Loop over sc, ready to have node input queues registered
// via RegisterNode before Run starts. rm selects the interference model;
// pass nil for the default InterferenceRadioModel.
func NewLoop(sc *scene.Scene, clock *vclock.Driver, rm RadioModel) *Loop {
	if rm == nil {
		rm = InterferenceRadioModel{}
	}
	seed := sc.Seed
	if seed == 0 {
		seed = defaultSeed
	}

	nodes := make(map[scene.NodeID]*nodeEntry, len(sc.Nodes))
	for _, n := range sc.Nodes {
		nodes[n.ID] = &nodeEntry{
			id:                n.ID,
			position:          n.Position,
			radioStrengthDbm:  n.RadioStrengthDbm,
			effectiveDistance: n.EffectiveDistance,
		}
	}

	return &Loop{
		sc:           sc,
		clock:        clock,
		radioModel:   rm,
		rng:          prng.New(seed),
		sink:         nopSink{},
		nodes:        nodes,
		output:       make(chan node.OutputEvent, node.OutputQueueCapacity),
		cmds:         make(chan Command, 16),
		cad:          make(map[scene.NodeID]*CadItem),
		measurements: newMeasurementTracker(len(sc.Nodes)),
		auto:         newAutoSpeedController(),
	}
}

// Commands returns the loop's command intake for UI-issued
// StartMeasurement, ResetMeasurement, and SetAutoSpeed requests (spec
// §4.4.1, §6). The owner (cmd/lorasim, or a CLI dispatcher) sends on it;
// Run drains it on its own goroutine so these commands never race the
// measurement tracker or auto-speed controller they mutate.
func (l *Loop) Commands() chan<- Command {
	return l.cmds
}

// SetSink attaches a UI bridge. Must be called before Run starts, or while
// the loop is not running, since sink is read without synchronization on
// the loop's own goroutine.
func (l *Loop) SetSink(sink EventSink) {
	if sink == nil {
		sink = nopSink{}
	}
	l.sink = sink
}

// Output returns the shared node->medium output queue every node task's
// Task is constructed with.
func (l *Loop) Output() chan node.OutputEvent {
	return l.output
}

// RegisterNode attaches a node's input queue so the loop can deliver RX
// events to it. Must be called before Run starts processing traffic for
// that node.
func (l *Loop) RegisterNode(id scene.NodeID, inputQueue chan<- node.RxDelivery) {
	if n, ok := l.nodes[id]; ok {
		n.inputQueue = inputQueue
	}
}

// SetSpeed forwards to the clock and notifies the UI sink, matching the
// logging contract vclock.Driver.SetSpeed documents as belonging to its
// caller.
func (l *Loop) SetSpeed(percent uint32) uint32 {
	applied := l.clock.SetSpeed(percent)
	if applied != percent {
		err := simerrors.New(simerrors.KindSpeedOutOfRange,
			"requested speed out of [1,1000] range, clamped")
		simlog.Warnf("medium: %v (requested %d%%, applied %d%%)", err, percent, applied)
	} else {
		simlog.Infof("medium: speed set to %d%%", applied)
	}
	l.sink.SpeedChanged(applied)
	return applied
}

// Counters returns a snapshot of the current tally.
func (l *Loop) Counters() Counters {
	return l.counters
}

// EnableAutoSpeed turns on the feedback speed controller (spec §4.4.4),
// capping it at ceilingPercent. Like the measurement tracker, l.auto is
// loop-private: call this only from the loop's own goroutine (i.e. from
// handleCommand) or before Run starts, never concurrently with Run.
func (l *Loop) EnableAutoSpeed(ceilingPercent uint32) {
	l.auto.Enable(ceilingPercent)
}

// DisableAutoSpeed returns speed control to explicit SetSpeed calls only.
// Same single-goroutine discipline as EnableAutoSpeed.
func (l *Loop) DisableAutoSpeed() {
	l.auto.Disable()
}

func (l *Loop) maybeAutoSpeed() {
	next, changed := l.auto.Evaluate(time.Now(), l.clock.NowTicks(), l.clock.GetSpeed())
	if changed {
		l.SetSpeed(next)
	}
}

// Run drives the event loop until ctx is cancelled. One Loop, one Run call,
// for the lifetime of a simulation.
func (l *Loop) Run(ctx *progctx.ProgCtx) {
	ctx.WaitAdd("medium", 1)
	defer ctx.WaitDone("medium")

	done := ctx.Done()
	for {
		heartbeat := l.clock.NowTicks() + heartbeatTicks
		deadline := l.nextDeadlineTicks(heartbeat)
		wake := l.clock.ScheduleWake(deadline)

		select {
		case evt, ok := <-l.output:
			if !ok {
				return
			}
			l.handleOutputEvent(evt)
		case cmd := <-l.cmds:
			l.handleCommand(cmd)
		case <-wake:
			l.advance(l.clock.NowTicks())
			if deadline == heartbeat {
				l.maybeAutoSpeed()
			}
		case <-done:
			return
		}

		l.drainTxQueues(l.clock.NowTicks())
	}
}

// nextDeadlineTicks is the earliest of: any pending CAD window's end, any
// in-flight airtime window's end, or one heartbeat from now (spec §4.4.1).
func (l *Loop) nextDeadlineTicks(heartbeat uint64) uint64 {
	next := heartbeat
	for _, c := range l.cad {
		if c.EndTicks < next {
			next = c.EndTicks
		}
	}
	for _, p := range l.waiting {
		if p.EndTicks < next {
			next = p.EndTicks
		}
	}
	return next
}

func (l *Loop) handleOutputEvent(evt node.OutputEvent) {
	switch {
	case evt.TxPacket != nil:
		l.enqueueTx(evt.NodeID, *evt.TxPacket)
	case evt.StartMeasurement != nil:
		l.measurements.Start(evt.NodeID, evt.StartMeasurement.Sequence, l.clock.NowTicks())
	case evt.FullMessageReceived != nil:
		// spec §4.4.5: "on every FullMessageReceived{node, sequence==seq}:
		// add node to reached. Emit percentile timings..."
		fr := evt.FullMessageReceived
		if snap, ok := l.measurements.Observe(evt.NodeID, fr.Sequence, l.clock.NowTicks()); ok {
			l.sink.MeasurementProgress(snap)
		}
	default:
		// FullMessageSent carries no medium-state change; the UI bridge
		// learns of it only if it also observes NodeSentRadioMessage.
	}
}

// handleCommand applies one UI-issued Command on the loop's own
// goroutine (spec §4.4.1 step 2b).
func (l *Loop) handleCommand(cmd Command) {
	switch {
	case cmd.StartMeasurement != nil:
		seq := l.nextSeq
		l.nextSeq++
		l.measurements.Start(*cmd.StartMeasurement, seq, l.clock.NowTicks())
	case cmd.ResetMeasurement:
		l.measurements.Reset()
	case cmd.SetAutoSpeed != nil:
		if *cmd.SetAutoSpeed {
			l.EnableAutoSpeed(vclock.MaxSpeedPercent)
		} else {
			l.DisableAutoSpeed()
		}
	}
}

// enqueueTx appends pkt to sender's per-node TX queue (spec §3
// tx_queue_per_node); Run's drainTxQueues admits at most one queued packet
// per sender per iteration once the sender is no longer mid-CAD or
// mid-transmission (§4.4.1 step 4). A sender queueing faster than it can be
// admitted is persistent backpressure (spec §7 QueueSaturated): the oldest
// queued packet is dropped with a warning rather than growing unbounded,
// since unlike the node<->medium queues this arbitration queue carries no
// ordering contract the firmware depends on.
func (l *Loop) enqueueTx(sender scene.NodeID, pkt node.Packet) {
	n, ok := l.nodes[sender]
	if !ok {
		return
	}
	if len(n.txQueue) >= txQueueCapacity {
		err := simerrors.New(simerrors.KindQueueSaturated, "sender tx queue saturated, dropping oldest queued packet")
		simlog.Warnf("medium: node %d: %v (cap %d)", sender, err, txQueueCapacity)
		n.txQueue = n.txQueue[1:]
	}
	n.txQueue = append(n.txQueue, pkt)
}

// drainTxQueues implements spec §4.4.1 step 4: "Process at most one queued
// transmit per node per iteration... drain one packet from each node's TX
// queue that is ready to start now (no in-flight CAD or overlapping TX for
// that sender)." Node IDs are visited in ascending order so draining is
// deterministic across runs with the same scene and seed.
func (l *Loop) drainTxQueues(now uint64) {
	ids := make([]scene.NodeID, 0, len(l.nodes))
	for id := range l.nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		n := l.nodes[id]
		if len(n.txQueue) == 0 || l.senderBusy(id, now) {
			continue
		}
		pkt := n.txQueue[0]
		n.txQueue = n.txQueue[1:]
		l.startTransmission(id, pkt)
	}
}

// senderBusy reports whether sender already has an active CAD window or an
// in-flight (not yet finalized) airtime window at now, the fairness gate
// spec §4.4.1 step 4 names.
func (l *Loop) senderBusy(sender scene.NodeID, now uint64) bool {
	if c, ok := l.cad[sender]; ok && c.EndTicks > now {
		return true
	}
	for _, p := range l.waiting {
		if p.Sender == sender && p.EndTicks > now {
			return true
		}
	}
	return false
}

// startTransmission implements spec §4.4.2: it opens a CAD window for the
// sender, then gates every other node by squared distance and obstacle
// LOS, computing an RSSI (with a shadowing draw) for each node that passes
// before admitting it as a candidate receiver for this packet's airtime
// window. RSSI is not a gate here; the radio model judges it at
// finalization.
func (l *Loop) startTransmission(sender scene.NodeID, pkt node.Packet) {
	now := l.clock.NowTicks()
	src, ok := l.nodes[sender]
	if !ok {
		return
	}

	lora := l.sc.Lora
	cadSeconds := geo.CadTime(lora)
	airtimeSeconds := geo.Airtime(lora, len(pkt.Payload))

	endTicks := now + secondsToTicks(airtimeSeconds)
	if endTicks <= now {
		err := simerrors.New(simerrors.KindInternal, "non-positive airtime computed for transmission, dropping packet")
		simlog.Errorf("medium: node %d: %v", sender, err)
		return
	}

	l.cad[sender] = &CadItem{
		NodeID:     sender,
		StartTicks: now,
		EndTicks:   now + secondsToTicks(cadSeconds),
	}

	for id, dst := range l.nodes {
		if id == sender {
			continue
		}

		// spec §4.4.2: "reject if d²(sender, r) > effective_distance(sender)²"
		// - only the sender's own effective distance gates candidate
		// receivers, not the receiver's.
		if geo.DistSq(src.position, dst.position) > src.effectiveDistance*src.effectiveDistance {
			continue
		}
		if l.blockedByObstacle(src.position, dst.position) {
			continue
		}

		shadow := l.rng.NormShadowing() * l.sc.PathLoss.ShadowingSigmaDb
		rssi := geo.Rssi(l.sc.PathLoss, src.radioStrengthDbm, geo.Dist(src.position, dst.position), shadow)

		l.waiting = append(l.waiting, &AirtimeWaitingPacket{
			Sender:     sender,
			Receiver:   id,
			RssiDbm:    rssi,
			StartTicks: now,
			EndTicks:   endTicks,
			Packet:     pkt,
		})
	}

	l.counters.TotalTx++
	l.sink.NodeSentRadioMessage(sender, pkt.MessageType, src.effectiveDistance)
	l.sink.CountersChanged(l.counters)
}

func (l *Loop) blockedByObstacle(a, b geo.Point) bool {
	for _, o := range l.sc.Obstacles {
		if o.IntersectsSegment(a, b) {
			return true
		}
	}
	return false
}

// advance finalizes every CAD window and airtime window whose end has
// passed, in the tie-break order spec §4.4.3 mandates: ascending
// (receiver_id, start_tick).
func (l *Loop) advance(now uint64) {
	for id, c := range l.cad {
		if c.EndTicks <= now {
			delete(l.cad, id)
		}
	}

	var due []*AirtimeWaitingPacket
	var remaining []*AirtimeWaitingPacket
	for _, p := range l.waiting {
		if p.EndTicks <= now {
			due = append(due, p)
		} else {
			remaining = append(remaining, p)
		}
	}
	if len(due) == 0 {
		return
	}
	l.waiting = remaining

	sort.Slice(due, func(i, j int) bool {
		if due[i].Receiver != due[j].Receiver {
			return due[i].Receiver < due[j].Receiver
		}
		return due[i].StartTicks < due[j].StartTicks
	})

	for _, p := range due {
		l.finalize(p, due)
	}

	l.sink.CountersChanged(l.counters)
}

// finalize resolves one airtime window against every other window destined
// for the same receiver that temporally overlaps it (spec §4.4.3), then
// delivers the outcome to the receiving node's input queue. Spec §4.4.3's
// "Delivery effect" (RX enqueue, counters, history, UI pulse) applies
// whenever an RX event is enqueued, delivered or collided alike; only the
// link-quality value is meaningless on a non-delivery.
func (l *Loop) finalize(p *AirtimeWaitingPacket, due []*AirtimeWaitingPacket) {
	dst, ok := l.nodes[p.Receiver]
	if !ok || dst.inputQueue == nil {
		return
	}

	overlapping := l.overlappingFor(p, due)
	outcome := l.radioModel.Evaluate(p, overlapping, l.sc.PathLoss.NoiseFloorDbm, l.sc.Lora.SpreadingFactor)

	delivered := outcome.Delivered && !outcome.Captured
	if delivered && l.sc.PacketLossRatio > 0 && l.rng.UnitPacketLoss() < l.sc.PacketLossRatio {
		delivered = false
	}

	linkQuality := 0
	if delivered {
		linkQuality = outcome.LinkQuality
		l.counters.TotalRx++
	} else {
		l.counters.Collisions++
	}

	dst.inputQueue <- node.RxDelivery{
		Packet:      p.Packet,
		SenderID:    p.Sender,
		RssiDbm:     p.RssiDbm,
		LinkQuality: linkQuality,
		Collided:    !delivered,
	}
	l.sink.NodeReceivedRadioMessage(p.Receiver, p.Sender, p.Packet.MessageType, linkQuality, !delivered)
	l.sink.Pulse(p.Receiver, dst.effectiveDistance)
}

// overlappingFor returns every window (including p itself) destined for
// p.Receiver whose [start,end) interval overlaps p's, searching both this
// finalization batch and anything still waiting (an overlapping window can
// end later than p's).
func (l *Loop) overlappingFor(p *AirtimeWaitingPacket, due []*AirtimeWaitingPacket) []*AirtimeWaitingPacket {
	var out []*AirtimeWaitingPacket
	consider := func(q *AirtimeWaitingPacket) {
		if q.Receiver != p.Receiver {
			return
		}
		if q.StartTicks >= p.EndTicks || p.StartTicks >= q.EndTicks {
			return
		}
		out = append(out, q)
	}
	for _, q := range due {
		consider(q)
	}
	for _, q := range l.waiting {
		consider(q)
	}
	return out
}

func secondsToTicks(seconds float64) uint64 {
	return uint64(seconds * 1e9)
}
