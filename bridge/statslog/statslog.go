// Package statslog implements a CSV-based stats logger Visualizer,
// grounded on the teacher's visualize/statslog/statslogVisualizer.go: both
// periodically append one row per tracked counter change to a plain text
// file on disk. The teacher's sibling package (pcap, not carried over
// here) wrote binary radio frames for offline dissection; this
// package replaces that with a human-readable counters/latency trace
// suited to a physical-layer simulator with no frame dissector of its own.
package statslog

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/lorasim/lorasim/bridge"
	"github.com/lorasim/lorasim/node"
	"github.com/lorasim/lorasim/scene"
)

// Visualizer appends one CSV row per counters update and per measurement
// progress update to a log file. It implements bridge.Visualizer but only
// acts on the rows relevant to a stats trace; every other event is a
// no-op, mirroring how the teacher's statslogVisualizer ignores most of
// the Visualizer interface and only reacts to role/partition changes.
type Visualizer struct {
	file   *os.File
	writer *csv.Writer
}

var _ bridge.Visualizer = (*Visualizer)(nil)

// New opens (creating if needed) path and returns a Visualizer appending
// to it. The caller must call Close when the run ends.
func New(path string) (*Visualizer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("statslog: opening %s: %w", path, err)
	}
	return &Visualizer{file: f, writer: csv.NewWriter(f)}, nil
}

// Close flushes and closes the underlying file.
func (v *Visualizer) Close() error {
	v.writer.Flush()
	return v.file.Close()
}

func (v *Visualizer) writeRow(fields ...string) {
	_ = v.writer.Write(fields)
	v.writer.Flush()
}

func (v *Visualizer) Alert(msg string) {
	v.writeRow("alert", msg)
}

func (v *Visualizer) SceneLoaded(nodeCount, obstacleCount int, _, _ [2]float64) {
	v.writeRow("scene_loaded", strconv.Itoa(nodeCount), strconv.Itoa(obstacleCount))
}

func (v *Visualizer) NodeSentRadioMessage(scene.NodeID, uint8, float64) {}

func (v *Visualizer) NodeReceivedRadioMessage(scene.NodeID, scene.NodeID, uint8, *uint32, uint32, uint32, int, int, bool) {
}

func (v *Visualizer) Counters(totalTx, totalRx, collisions uint64) {
	v.writeRow("counters",
		strconv.FormatUint(totalTx, 10),
		strconv.FormatUint(totalRx, 10),
		strconv.FormatUint(collisions, 10))
}

func (v *Visualizer) Pulse(scene.NodeID, float64, int) {}

func (v *Visualizer) SpeedChanged(percent uint32) {
	v.writeRow("speed", strconv.FormatUint(uint64(percent), 10))
}

func (v *Visualizer) NodeInfo(scene.NodeID, []node.HistoryEntry) {}

func (v *Visualizer) MeasurementProgress(percent int, t50, t90, t100 *float64, _ map[scene.NodeID]int) {
	v.writeRow("measurement", strconv.Itoa(percent), formatPtr(t50), formatPtr(t90), formatPtr(t100))
}

func (v *Visualizer) AnalyzerDelay(ms float64) {
	v.writeRow("analyzer_delay", strconv.FormatFloat(ms, 'f', -1, 64))
}

func (v *Visualizer) VisualizationEnded() {
	v.writeRow("ended")
}

func formatPtr(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}
