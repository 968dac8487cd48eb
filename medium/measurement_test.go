package medium_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorasim/lorasim/medium"
	"github.com/lorasim/lorasim/node"
	"github.com/lorasim/lorasim/scene"
)

// recordingSink captures MeasurementProgress snapshots (and nothing else)
// so a test can assert on the convergence percentiles spec §4.4.5 names.
type recordingSink struct {
	progress chan medium.MeasurementSnapshot
}

func newRecordingSink() *recordingSink {
	return &recordingSink{progress: make(chan medium.MeasurementSnapshot, 16)}
}

func (s *recordingSink) NodeSentRadioMessage(scene.NodeID, node.MessageType, float64)                     {}
func (s *recordingSink) NodeReceivedRadioMessage(scene.NodeID, scene.NodeID, node.MessageType, int, bool) {}
func (s *recordingSink) Pulse(scene.NodeID, float64)                                                      {}
func (s *recordingSink) CountersChanged(medium.Counters)                                                  {}
func (s *recordingSink) SpeedChanged(uint32)                                                              {}
func (s *recordingSink) MeasurementProgress(snap medium.MeasurementSnapshot)                               { s.progress <- snap }

func recvSnapshot(t *testing.T, ch <-chan medium.MeasurementSnapshot) medium.MeasurementSnapshot {
	t.Helper()
	select {
	case snap := <-ch:
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for MeasurementProgress")
		return medium.MeasurementSnapshot{}
	}
}

func TestMeasurementConvergencePercentiles(t *testing.T) {
	nodes := []scene.Node{nodeAt(1, 0, 0), nodeAt(2, 10, 0), nodeAt(3, 20, 0)}
	loop, _ := newTestLoop(t, nodes, nil, nil)

	sink := newRecordingSink()
	loop.SetSink(sink)
	runLoop(t, loop)

	origin := scene.NodeID(1)
	loop.Commands() <- medium.Command{StartMeasurement: &origin}

	// origin (node 1) is seeded into reached at Start; node 2 joining takes
	// the run from 1/3 to 2/3, crossing the 50% threshold.
	loop.Output() <- node.OutputEvent{
		NodeID:              2,
		FullMessageReceived: &node.FullMessageReceived{SenderID: 1, Sequence: 0},
	}
	snap := recvSnapshot(t, sink.progress)
	assert.Equal(t, 66, snap.Percent)
	require.NotNil(t, snap.T50Ms)
	assert.Nil(t, snap.T90Ms)
	assert.Nil(t, snap.T100Ms)

	// node 3 joining completes the reached set, crossing both 90% and 100%
	// in the same observation.
	loop.Output() <- node.OutputEvent{
		NodeID:              3,
		FullMessageReceived: &node.FullMessageReceived{SenderID: 1, Sequence: 0},
	}
	snap = recvSnapshot(t, sink.progress)
	assert.Equal(t, 100, snap.Percent)
	require.NotNil(t, snap.T90Ms)
	require.NotNil(t, snap.T100Ms)
}

func TestMeasurementIgnoresStaleSequence(t *testing.T) {
	nodes := []scene.Node{nodeAt(1, 0, 0), nodeAt(2, 10, 0)}
	loop, _ := newTestLoop(t, nodes, nil, nil)

	sink := newRecordingSink()
	loop.SetSink(sink)
	runLoop(t, loop)

	origin := scene.NodeID(1)
	loop.Commands() <- medium.Command{StartMeasurement: &origin}

	// A FullMessageReceived from a prior (now-stale) measurement sequence
	// must not produce a MeasurementProgress snapshot.
	loop.Output() <- node.OutputEvent{
		NodeID:              2,
		FullMessageReceived: &node.FullMessageReceived{SenderID: 1, Sequence: 99},
	}

	select {
	case snap := <-sink.progress:
		t.Fatalf("unexpected snapshot for stale sequence: %+v", snap)
	case <-time.After(200 * time.Millisecond):
	}
}
