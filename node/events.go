package node

import "github.com/lorasim/lorasim/scene"

// OutputEvent is the tagged union a node task emits on its shared output
// queue toward the medium. Exactly one field beyond NodeID is non-nil/set.
type OutputEvent struct {
	NodeID scene.NodeID

	TxPacket           *Packet
	FullMessageSent    *FullMessageSent
	FullMessageReceived *FullMessageReceived
	StartMeasurement   *StartMeasurement
}

// FullMessageSent is emitted when the firmware finishes assembling and
// transmitting a complete multi-packet message.
type FullMessageSent struct {
	MessageType MessageType
	Sequence    uint32
}

// FullMessageReceived is emitted when the firmware finishes reassembling
// a complete multi-packet message from received packets.
type FullMessageReceived struct {
	MessageType MessageType
	SenderID    scene.NodeID
	Sequence    uint32
}

// StartMeasurement is emitted when firmware announces the start of a
// convergence measurement run (spec §4.4.5).
type StartMeasurement struct {
	Sequence uint32
}

// FirmwareNotification is the tagged union of firmware-level events the
// node shim forwards as OutputEvents; see Firmware.Notifications.
type FirmwareNotification struct {
	FullMessageSent     *FullMessageSent
	FullMessageReceived *FullMessageReceived
	StartMeasurement    *StartMeasurement
}

// Firmware is the external collaborator contract C3 binds to: the
// embedded radio firmware's message assembly, relay scoring, and dedup
// logic live behind this interface and are driven purely through it.
type Firmware interface {
	// TxRequests yields packets the firmware wants transmitted, in FIFO
	// order. The node shim drains this continuously.
	TxRequests() <-chan Packet
	// DeliverRx feeds one received packet, with its medium-computed
	// quality info, into the firmware.
	DeliverRx(RxDelivery)
	// Notifications yields full-message and measurement-start events the
	// firmware wants surfaced to the UI.
	Notifications() <-chan FirmwareNotification
	// Close releases any resources the firmware instance holds.
	Close()
}
