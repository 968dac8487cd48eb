package bridge

import (
	"github.com/lorasim/lorasim/node"
	"github.com/lorasim/lorasim/scene"
)

// NopVisualizer discards every event. It is the bridge a headless run (or
// a test) attaches when no UI is watching, grounded on the teacher's
// visualize/nopVisualizer.go.
type NopVisualizer struct{}

func (NopVisualizer) Alert(string)                                  {}
func (NopVisualizer) SceneLoaded(int, int, [2]float64, [2]float64)   {}
func (NopVisualizer) NodeSentRadioMessage(scene.NodeID, uint8, float64) {}
func (NopVisualizer) NodeReceivedRadioMessage(scene.NodeID, scene.NodeID, uint8, *uint32, uint32, uint32, int, int, bool) {
}
func (NopVisualizer) Counters(uint64, uint64, uint64)                             {}
func (NopVisualizer) Pulse(scene.NodeID, float64, int)                            {}
func (NopVisualizer) SpeedChanged(uint32)                                         {}
func (NopVisualizer) NodeInfo(scene.NodeID, []node.HistoryEntry)                   {}
func (NopVisualizer) MeasurementProgress(int, *float64, *float64, *float64, map[scene.NodeID]int) {
}
func (NopVisualizer) AnalyzerDelay(float64) {}
func (NopVisualizer) VisualizationEnded()   {}
