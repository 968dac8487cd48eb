package scene

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validSceneJSON = `{
	"world_top_left": {"x": 0, "y": 0},
	"world_bottom_right": {"x": 5000, "y": 5000},
	"path_loss_parameters": {
		"path_loss_exponent": 2.0,
		"shadowing_sigma": 0,
		"path_loss_at_reference_distance": 40,
		"noise_floor": -120
	},
	"lora_parameters": {
		"bandwidth": 125000,
		"spreading_factor": 7,
		"coding_rate": 1,
		"preamble_symbols": 8,
		"crc_enabled": true,
		"low_data_rate_optimization": false
	},
	"radio_module_config": {
		"delay_between_tx_packets": 100,
		"delay_between_tx_messages": 500,
		"echo_request_minimal_interval": 30,
		"echo_messages_target_interval": 300,
		"echo_gathering_timeout": 5,
		"relay_position_delay": 50,
		"scoring_matrix": [1,2,3,4,5],
		"retry_interval_for_missing_packets": 1000
	},
	"nodes": [
		{"node_id": 1, "position": {"x": 1000, "y": 1000}, "radio_strength": 14},
		{"node_id": 2, "position": {"x": 3000, "y": 1000}, "radio_strength": 14}
	],
	"obstacles": [
		{"type": "rectangle", "top-left-position": {"x": 1500, "y": 500}, "bottom-right-position": {"x": 2500, "y": 1500}}
	]
}`

func TestLoadValidScene(t *testing.T) {
	s, err := Load(strings.NewReader(validSceneJSON))
	require.NoError(t, err)
	assert.Len(t, s.Nodes, 2)
	assert.Len(t, s.Obstacles, 1)
	assert.Greater(t, s.Nodes[0].EffectiveDistance, 0.0)
	assert.True(t, s.Nodes[0].HasEffectiveDist)
}

func TestLoadRejectsDegenerateWorldBounds(t *testing.T) {
	bad := strings.Replace(validSceneJSON, `"world_bottom_right": {"x": 5000, "y": 5000}`, `"world_bottom_right": {"x": 0, "y": 5000}`, 1)
	_, err := Load(strings.NewReader(bad))
	require.Error(t, err)
}

func TestLoadRejectsDuplicateNodeID(t *testing.T) {
	bad := strings.Replace(validSceneJSON, `{"node_id": 2, "position": {"x": 3000, "y": 1000}, "radio_strength": 14}`,
		`{"node_id": 1, "position": {"x": 3000, "y": 1000}, "radio_strength": 14}`, 1)
	_, err := Load(strings.NewReader(bad))
	require.Error(t, err)
}

func TestLoadRejectsBadCodingRate(t *testing.T) {
	bad := strings.Replace(validSceneJSON, `"coding_rate": 1,`, `"coding_rate": 0,`, 1)
	_, err := Load(strings.NewReader(bad))
	require.Error(t, err)

	bad2 := strings.Replace(validSceneJSON, `"coding_rate": 1,`, `"coding_rate": 5,`, 1)
	_, err = Load(strings.NewReader(bad2))
	require.Error(t, err)
}

func TestLoadRejectsBadRectangle(t *testing.T) {
	bad := strings.Replace(validSceneJSON,
		`{"type": "rectangle", "top-left-position": {"x": 1500, "y": 500}, "bottom-right-position": {"x": 2500, "y": 1500}}`,
		`{"type": "rectangle", "top-left-position": {"x": 2500, "y": 500}, "bottom-right-position": {"x": 1500, "y": 1500}}`, 1)
	_, err := Load(strings.NewReader(bad))
	require.Error(t, err)
}

func TestAnalyzerModeRequiresEffectiveDistance(t *testing.T) {
	analyzer := `{
		"analyzer_mode": true,
		"world_top_left": {"x": 0, "y": 0},
		"world_bottom_right": {"x": 5000, "y": 5000},
		"nodes": [{"node_id": 1, "position": {"x": 1000, "y": 1000}, "radio_strength": 14}]
	}`
	_, err := Load(strings.NewReader(analyzer))
	require.Error(t, err)

	analyzerOk := `{
		"analyzer_mode": true,
		"world_top_left": {"x": 0, "y": 0},
		"world_bottom_right": {"x": 5000, "y": 5000},
		"nodes": [{"node_id": 1, "position": {"x": 1000, "y": 1000}, "radio_strength": 14, "effective_distance": 2500}]
	}`
	s, err := Load(strings.NewReader(analyzerOk))
	require.NoError(t, err)
	assert.Equal(t, 2500.0, s.Nodes[0].EffectiveDistance)
}
