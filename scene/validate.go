package scene

import (
	"fmt"

	"github.com/lorasim/lorasim/geo"
	"github.com/lorasim/lorasim/simerrors"
)

func invalid(format string, args ...interface{}) error {
	return simerrors.New(simerrors.KindSceneInvalid, fmt.Sprintf(format, args...))
}

// fromWire validates w and converts it into an immutable Scene. Failure
// returns a human-readable *simerrors.SimError and no partially-built
// Scene.
func fromWire(w *wireScene) (*Scene, error) {
	tl := geo.Point{X: w.WorldTopLeft.X, Y: w.WorldTopLeft.Y}
	br := geo.Point{X: w.WorldBottomRight.X, Y: w.WorldBottomRight.Y}

	if br.X <= tl.X || br.Y <= tl.Y {
		return nil, invalid("world bounds must have non-degenerate extent: top-left=%+v bottom-right=%+v", tl, br)
	}
	if tl.X < 0 || tl.Y < 0 || br.X > MaxWorldCoord || br.Y > MaxWorldCoord {
		return nil, invalid("world bounds must lie within [0,%v]", MaxWorldCoord)
	}

	if len(w.Nodes) > MaxNodes {
		return nil, invalid("node count %d exceeds maximum %d", len(w.Nodes), MaxNodes)
	}

	s := &Scene{
		WorldTopLeft:     tl,
		WorldBottomRight: br,
		AnalyzerMode:     w.AnalyzerMode,
		Seed:             w.Seed,
		PacketLossRatio:  w.PacketLossRatio,
	}

	if !s.AnalyzerMode {
		if w.PathLossParameters == nil || w.LoraParameters == nil || w.RadioModuleConfig == nil {
			return nil, invalid("path_loss_parameters, lora_parameters and radio_module_config are required unless analyzer_mode is set")
		}
		pl, err := validatePathLoss(w.PathLossParameters)
		if err != nil {
			return nil, err
		}
		lp, err := validateLora(w.LoraParameters)
		if err != nil {
			return nil, err
		}
		s.PathLoss = pl
		s.Lora = lp
		s.Module = convertModule(w.RadioModuleConfig)
	}

	nodes, err := validateNodes(w.Nodes, tl, br, s.AnalyzerMode)
	if err != nil {
		return nil, err
	}
	s.Nodes = nodes

	obstacles, err := validateObstacles(w.Obstacles)
	if err != nil {
		return nil, err
	}
	s.Obstacles = obstacles

	if !s.AnalyzerMode {
		for i := range s.Nodes {
			s.Nodes[i].EffectiveDistance = geo.EffectiveDistance(s.PathLoss, s.Nodes[i].RadioStrengthDbm, s.Lora.SpreadingFactor)
			s.Nodes[i].HasEffectiveDist = true
		}
	}

	return s, nil
}

func validatePathLoss(w *wirePathLoss) (geo.PathLossParams, error) {
	if w.ShadowingSigma < 0 {
		return geo.PathLossParams{}, invalid("shadowing_sigma must be >= 0, got %v", w.ShadowingSigma)
	}
	return geo.PathLossParams{
		Exponent:            w.PathLossExponent,
		ShadowingSigmaDb:    w.ShadowingSigma,
		ReferencePathLossDb: w.PathLossAtReferenceDistance,
		NoiseFloorDbm:       w.NoiseFloor,
	}, nil
}

func validateLora(w *wireLora) (geo.LoraParams, error) {
	if w.Bandwidth <= 0 {
		return geo.LoraParams{}, invalid("bandwidth must be > 0, got %v", w.Bandwidth)
	}
	if w.SpreadingFactor < MinSpreadingFactor || w.SpreadingFactor > MaxSpreadingFactor {
		return geo.LoraParams{}, invalid("spreading_factor must be in [%d,%d], got %d", MinSpreadingFactor, MaxSpreadingFactor, w.SpreadingFactor)
	}
	if w.CodingRate < MinCodingRate || w.CodingRate > MaxCodingRate {
		return geo.LoraParams{}, invalid("coding_rate must be in [%d,%d], got %d", MinCodingRate, MaxCodingRate, w.CodingRate)
	}
	return geo.LoraParams{
		BandwidthHz:             w.Bandwidth,
		SpreadingFactor:         w.SpreadingFactor,
		CodingRate:              w.CodingRate,
		PreambleSymbols:         w.PreambleSymbols,
		CrcEnabled:              w.CrcEnabled,
		LowDataRateOptimization: w.LowDataRateOptimization,
	}, nil
}

func convertModule(w *wireModule) RadioModuleConfig {
	return RadioModuleConfig{
		DelayBetweenTxPacketsMs:     w.DelayBetweenTxPackets,
		DelayBetweenTxMessagesMs:    w.DelayBetweenTxMessages,
		EchoRequestMinimalIntervalS: w.EchoRequestMinimalInterval,
		EchoMessagesTargetIntervalS: w.EchoMessagesTargetInterval,
		EchoGatheringTimeoutS:       w.EchoGatheringTimeout,
		RelayPositionDelayMs:        w.RelayPositionDelay,
		ScoringMatrix:               w.ScoringMatrix,
		RetryIntervalForMissingMs:   w.RetryIntervalForMissing,
	}
}

func validateNodes(wns []wireNode, tl, br geo.Point, analyzerMode bool) ([]Node, error) {
	seen := make(map[NodeID]struct{}, len(wns))
	nodes := make([]Node, 0, len(wns))

	for _, wn := range wns {
		if _, dup := seen[wn.NodeID]; dup {
			return nil, invalid("duplicate node_id %d", wn.NodeID)
		}
		seen[wn.NodeID] = struct{}{}

		pos := geo.Point{X: wn.Position.X, Y: wn.Position.Y}
		if pos.X < tl.X || pos.X > br.X || pos.Y < tl.Y || pos.Y > br.Y {
			return nil, invalid("node %d position %+v is outside world bounds", wn.NodeID, pos)
		}
		if wn.RadioStrength < MinRadioStrengthDbm || wn.RadioStrength > MaxRadioStrengthDbm {
			return nil, invalid("node %d radio_strength %v outside [%v,%v]", wn.NodeID, wn.RadioStrength, MinRadioStrengthDbm, MaxRadioStrengthDbm)
		}

		n := Node{
			ID:               wn.NodeID,
			Position:         pos,
			RadioStrengthDbm: wn.RadioStrength,
		}

		if analyzerMode {
			if wn.EffectiveDistance == nil {
				return nil, invalid("node %d: effective_distance is mandatory in analyzer mode", wn.NodeID)
			}
			n.EffectiveDistance = *wn.EffectiveDistance
			n.HasEffectiveDist = true
		} else if wn.EffectiveDistance != nil {
			n.EffectiveDistance = *wn.EffectiveDistance
			n.HasEffectiveDist = true
		}

		nodes = append(nodes, n)
	}

	return nodes, nil
}

func validateObstacles(wos []wireObstacle) ([]geo.Obstacle, error) {
	obstacles := make([]geo.Obstacle, 0, len(wos))
	for _, wo := range wos {
		switch wo.Type {
		case "rectangle":
			tl := geo.Point{X: wo.TopLeftPosition.X, Y: wo.TopLeftPosition.Y}
			br := geo.Point{X: wo.BottomRightPosition.X, Y: wo.BottomRightPosition.Y}
			if tl.X >= br.X || tl.Y >= br.Y {
				return nil, invalid("rectangle obstacle requires top-left < bottom-right, got tl=%+v br=%+v", tl, br)
			}
			r := geo.Rectangle{TopLeft: tl, BottomRight: br}
			obstacles = append(obstacles, geo.Obstacle{Rect: &r})
		case "circle":
			if wo.Radius <= 0 {
				return nil, invalid("circle obstacle requires radius > 0, got %v", wo.Radius)
			}
			c := geo.Circle{Center: geo.Point{X: wo.CenterPosition.X, Y: wo.CenterPosition.Y}, Radius: wo.Radius}
			obstacles = append(obstacles, geo.Obstacle{Circ: &c})
		default:
			return nil, invalid("unknown obstacle type %q", wo.Type)
		}
	}
	return obstacles, nil
}
