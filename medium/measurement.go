package medium

import "github.com/lorasim/lorasim/scene"

// MeasurementSnapshot is what EventSink.MeasurementProgress receives for
// every FullMessageReceived matching the active convergence measurement's
// sequence (spec §4.4.5), including repeat deliveries to a node already in
// the reached set. T50/T90/T100 stay nil until the
// corresponding |reached|/|nodes| threshold has first been crossed, then
// hold the elapsed milliseconds (since the run started) at which that
// happened.
type MeasurementSnapshot struct {
	Percent        int
	T50Ms          *float64
	T90Ms          *float64
	T100Ms         *float64
	PacketsPerNode map[scene.NodeID]int
}

// measurementRun is spec §3's "measurement state" as {sequence,
// started_at, reached: set<node>}; the origin node is not stored on its
// own, only as the first member of reached. It also keeps a per-node
// delivery tally for the UI's packets_per_node field.
type measurementRun struct {
	sequence   uint32
	startTicks uint64
	totalNodes int
	reached    map[scene.NodeID]bool
	packets    map[scene.NodeID]int
	t50        *uint64 // elapsed ticks since startTicks
	t90        *uint64
	t100       *uint64
}

// measurementTracker holds at most one active run, matching spec §3's
// single "measurement" state: a fresh StartMeasurement replaces whatever
// was running, and ResetMeasurement clears it entirely.
type measurementTracker struct {
	totalNodes int
	run        *measurementRun
}

func newMeasurementTracker(totalNodes int) *measurementTracker {
	return &measurementTracker{totalNodes: totalNodes}
}

// Start begins a new run, seeding the reached set with origin per spec
// §4.4.5 ("set measurement={seq,origin,started_at=now,reached={origin}}").
func (m *measurementTracker) Start(origin scene.NodeID, sequence uint32, nowTicks uint64) {
	m.run = &measurementRun{
		sequence:   sequence,
		startTicks: nowTicks,
		totalNodes: m.totalNodes,
		reached:    map[scene.NodeID]bool{origin: true},
		packets:    map[scene.NodeID]int{},
	}
}

// Reset clears the active run (UI ResetMeasurement command).
func (m *measurementTracker) Reset() {
	m.run = nil
}

// Observe records nodeID having fully received sequence at nowTicks. It
// reports a snapshot and true only when a measurement is active for this
// exact sequence (spec §4.4.5: "on every FullMessageReceived{node,
// sequence==seq}"); otherwise the event is unrelated to any in-progress
// measurement and is ignored.
func (m *measurementTracker) Observe(nodeID scene.NodeID, sequence uint32, nowTicks uint64) (MeasurementSnapshot, bool) {
	run := m.run
	if run == nil || run.sequence != sequence || run.totalNodes == 0 {
		return MeasurementSnapshot{}, false
	}

	run.packets[nodeID]++
	if !run.reached[nodeID] {
		run.reached[nodeID] = true
		elapsed := nowTicks - run.startTicks
		fraction := float64(len(run.reached)) / float64(run.totalNodes)
		if run.t50 == nil && fraction >= 0.50 {
			run.t50 = &elapsed
		}
		if run.t90 == nil && fraction >= 0.90 {
			run.t90 = &elapsed
		}
		if run.t100 == nil && fraction >= 1.0 {
			run.t100 = &elapsed
		}
	}

	return run.snapshot(), true
}

func (run *measurementRun) snapshot() MeasurementSnapshot {
	packets := make(map[scene.NodeID]int, len(run.packets))
	for id, n := range run.packets {
		packets[id] = n
	}
	return MeasurementSnapshot{
		Percent:        (len(run.reached) * 100) / run.totalNodes,
		T50Ms:          ticksToMs(run.t50),
		T90Ms:          ticksToMs(run.t90),
		T100Ms:         ticksToMs(run.t100),
		PacketsPerNode: packets,
	}
}

func ticksToMs(ticks *uint64) *float64 {
	if ticks == nil {
		return nil
	}
	ms := float64(*ticks) / 1e6
	return &ms
}
