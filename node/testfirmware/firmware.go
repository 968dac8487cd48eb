// Package testfirmware provides a minimal, deterministic Firmware
// implementation used by the node test suite and by cmd/lorasim in place of the
// real embedded radio firmware, which lives outside this repo (spec §1:
// "the embedded firmware itself... is driven through the node shim
// contract"). It echoes a scripted sequence of packets and reports every
// delivered RX, closely matching the black-box harness style the
// simulator this core is adapted from uses for its own node stand-ins.
package testfirmware

import (
	"github.com/lorasim/lorasim/node"
)

// Firmware is a scriptable stand-in for real node firmware.
type Firmware struct {
	tx      chan node.Packet
	notif   chan node.FirmwareNotification
	Delivered []node.RxDelivery
}

// New creates a Firmware with no scheduled transmissions; call Send to
// enqueue one.
func New() *Firmware {
	return &Firmware{
		tx:    make(chan node.Packet, 16),
		notif: make(chan node.FirmwareNotification, 16),
	}
}

// Send schedules pkt for transmission; the node task will pick it up on
// its next TxRequests receive.
func (f *Firmware) Send(pkt node.Packet) {
	f.tx <- pkt
}

// AnnounceMeasurement pushes a StartMeasurement notification.
func (f *Firmware) AnnounceMeasurement(seq uint32) {
	f.notif <- node.FirmwareNotification{StartMeasurement: &node.StartMeasurement{Sequence: seq}}
}

func (f *Firmware) TxRequests() <-chan node.Packet { return f.tx }

func (f *Firmware) Notifications() <-chan node.FirmwareNotification { return f.notif }

func (f *Firmware) DeliverRx(rx node.RxDelivery) {
	f.Delivered = append(f.Delivered, rx)
	if !rx.Collided {
		f.notif <- node.FirmwareNotification{
			FullMessageReceived: &node.FullMessageReceived{
				MessageType: rx.Packet.MessageType,
				SenderID:    rx.SenderID,
				Sequence:    valueOrZero(rx.Packet.Sequence),
			},
		}
	}
}

func (f *Firmware) Close() {
	close(f.tx)
	close(f.notif)
}

func valueOrZero(p *uint32) uint32 {
	if p == nil {
		return 0
	}
	return *p
}
