// Package node implements the per-node task shim (C3): it wraps one
// firmware instance and bridges its TX/RX traffic to the shared medium
// through two bounded queues, per the bridge contract in spec §4.3/§4.5.
package node

import "github.com/lorasim/lorasim/scene"

// MaxPayloadBytes is the hard LoRa PHY payload ceiling. A firmware that
// produces a longer payload is a firmware bug, surfaced as a warning and
// clamped rather than treated as fatal.
const MaxPayloadBytes = 255

// MessageType is opaque to the core: firmware assigns it, the core only
// threads it through to the UI (NodeReceivedRadioMessage.type in §6).
type MessageType uint8

// Packet is a firmware-issued transmission.
type Packet struct {
	SenderID    scene.NodeID
	Payload     []byte
	MessageType MessageType
	Sequence    *uint32
	PacketIndex uint32
	PacketCount uint32
}

// ClampPayload truncates p.Payload to MaxPayloadBytes if it is longer,
// returning whether truncation occurred. Over-length payloads are a
// firmware bug surfaced as a warning, never fatal (spec §3, §4.4.6).
func (p *Packet) ClampPayload() (truncated bool) {
	if len(p.Payload) > MaxPayloadBytes {
		p.Payload = p.Payload[:MaxPayloadBytes]
		return true
	}
	return false
}

// RxDelivery is what the medium hands back to a receiving node's input
// queue once a transmission's airtime window has been finalized.
type RxDelivery struct {
	Packet      Packet
	SenderID    scene.NodeID
	RssiDbm     float64
	LinkQuality int // 0-63, only meaningful when Collided is false
	Collided    bool
}
