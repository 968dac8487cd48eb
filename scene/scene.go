// Package scene parses and validates a simulation topology: world bounds,
// nodes, obstacles, and radio/LoRa parameters. A Scene is immutable once
// Load returns it successfully - the medium and node packages only ever
// read from it.
package scene

import (
	"encoding/json"
	"io"

	"github.com/lorasim/lorasim/geo"
	"github.com/lorasim/lorasim/simerrors"
)

const (
	MaxLoraPayload = 255
	MaxNodes       = 10000
	MaxWorldCoord  = 10000.0

	MinRadioStrengthDbm = -50.0
	MaxRadioStrengthDbm = 50.0

	MinSpreadingFactor = 5
	MaxSpreadingFactor = 12
	MinCodingRate      = 1
	MaxCodingRate      = 4
)

// NodeID uniquely identifies a node within a scene.
type NodeID = uint32

// Node is one radio endpoint in the topology.
type Node struct {
	ID                NodeID
	Position          geo.Point
	RadioStrengthDbm  float64
	EffectiveDistance float64 // derived after load, unless supplied (analyzer mode)
	HasEffectiveDist  bool    // true once EffectiveDistance is set, whether supplied by the scene file or derived at load
}

// RadioModuleConfig carries the firmware-level timing constants the node
// shim's driven firmware instance consumes; opaque to the core beyond
// passing them through at node-task construction.
type RadioModuleConfig struct {
	DelayBetweenTxPacketsMs     uint32
	DelayBetweenTxMessagesMs    uint32
	EchoRequestMinimalIntervalS uint32
	EchoMessagesTargetIntervalS uint32
	EchoGatheringTimeoutS       uint32
	RelayPositionDelayMs        uint32
	ScoringMatrix               [5]float64
	RetryIntervalForMissingMs   uint32
}

// Scene is the immutable, validated topology and physics configuration
// for one simulation run.
type Scene struct {
	WorldTopLeft     geo.Point
	WorldBottomRight geo.Point

	Nodes     []Node
	Obstacles []geo.Obstacle

	PathLoss geo.PathLossParams
	Lora     geo.LoraParams
	Module   RadioModuleConfig

	// AnalyzerMode relaxes the requirement that PathLoss/Lora/Module be
	// present, but requires every node to carry an explicit
	// EffectiveDistance.
	AnalyzerMode bool

	// Seed drives reproducible shadowing draws; 0 selects a fixed default
	// so unseeded scenes are still deterministic across runs.
	Seed int64

	// PacketLossRatio is an optional uniform extra-drop knob in [0,1),
	// applied at delivery time independent of the SNR decode check. Not
	// part of the physical model; useful for stress-testing higher
	// layers. Zero value disables it.
	PacketLossRatio float64
}

// wireScene mirrors the JSON schema from the scene file (see spec §6); it
// is decoded and then validated/converted into a Scene.
type wireScene struct {
	WorldTopLeft     wirePoint `json:"world_top_left"`
	WorldBottomRight wirePoint `json:"world_bottom_right"`
	Width            float64   `json:"width"`
	Height           float64   `json:"height"`

	PathLossParameters *wirePathLoss `json:"path_loss_parameters"`
	LoraParameters     *wireLora     `json:"lora_parameters"`
	RadioModuleConfig  *wireModule   `json:"radio_module_config"`

	Nodes     []wireNode     `json:"nodes"`
	Obstacles []wireObstacle `json:"obstacles"`

	Seed            int64   `json:"seed"`
	PacketLossRatio float64 `json:"packet_loss_ratio"`
	AnalyzerMode    bool    `json:"analyzer_mode"`
}

type wirePoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type wirePathLoss struct {
	PathLossExponent          float64 `json:"path_loss_exponent"`
	ShadowingSigma            float64 `json:"shadowing_sigma"`
	PathLossAtReferenceDistance float64 `json:"path_loss_at_reference_distance"`
	NoiseFloor                float64 `json:"noise_floor"`
}

type wireLora struct {
	Bandwidth               float64 `json:"bandwidth"`
	SpreadingFactor         int     `json:"spreading_factor"`
	CodingRate              int     `json:"coding_rate"`
	PreambleSymbols         int     `json:"preamble_symbols"`
	CrcEnabled              bool    `json:"crc_enabled"`
	LowDataRateOptimization bool    `json:"low_data_rate_optimization"`
}

type wireModule struct {
	DelayBetweenTxPackets      uint32     `json:"delay_between_tx_packets"`
	DelayBetweenTxMessages     uint32     `json:"delay_between_tx_messages"`
	EchoRequestMinimalInterval uint32     `json:"echo_request_minimal_interval"`
	EchoMessagesTargetInterval uint32     `json:"echo_messages_target_interval"`
	EchoGatheringTimeout       uint32     `json:"echo_gathering_timeout"`
	RelayPositionDelay         uint32     `json:"relay_position_delay"`
	ScoringMatrix              [5]float64 `json:"scoring_matrix"`
	RetryIntervalForMissing    uint32     `json:"retry_interval_for_missing_packets"`
}

type wireNode struct {
	NodeID            uint32    `json:"node_id"`
	Position          wirePoint `json:"position"`
	RadioStrength     float64   `json:"radio_strength"`
	EffectiveDistance *float64  `json:"effective_distance,omitempty"`
}

type wireObstacle struct {
	Type             string    `json:"type"`
	TopLeftPosition  wirePoint `json:"top-left-position"`
	BottomRightPosition wirePoint `json:"bottom-right-position"`
	CenterPosition   wirePoint `json:"center_position"`
	Radius           float64   `json:"radius"`
}

// Load decodes and validates a scene from r. Any violation of the
// invariants in the data model returns a *simerrors.SimError with
// KindSceneInvalid and a human-readable message; Load never panics on
// malformed-but-parseable input.
func Load(r io.Reader) (*Scene, error) {
	var w wireScene
	dec := json.NewDecoder(r)
	if err := dec.Decode(&w); err != nil {
		return nil, simerrors.Wrap(simerrors.KindSceneInvalid, err, "decoding scene JSON")
	}
	return fromWire(&w)
}
