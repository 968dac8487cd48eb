package node

import "github.com/lorasim/lorasim/scene"

// historyCapacity bounds the message history ring per node (spec §3:
// "a bounded ring of the last <=1000 radio events").
const historyCapacity = 1000

// HistoryKind distinguishes TX/RX entries in a node's history ring.
type HistoryKind int

const (
	HistoryTx HistoryKind = iota
	HistoryRx
)

// HistoryEntry is one radio event recorded for UI query (NodeInfo in
// §6), adapted from the accumulate-on-event bookkeeping pattern used for
// per-node energy tallies in the engine this shim design is based on -
// retargeted here from joules-spent-per-state to a bounded event log.
type HistoryEntry struct {
	Kind        HistoryKind
	TimestampNs uint64
	PeerID      scene.NodeID
	MessageType MessageType
	Size        int
	LinkQuality int
	Collided    bool
}

// History is a fixed-capacity ring buffer of the most recent radio
// events for one node. Oldest entries are evicted on overflow.
type History struct {
	entries []HistoryEntry
	start   int // index of the oldest entry
}

// NewHistory creates an empty history ring.
func NewHistory() *History {
	return &History{entries: make([]HistoryEntry, 0, historyCapacity)}
}

// Push appends e, evicting the oldest entry if the ring is full.
func (h *History) Push(e HistoryEntry) {
	if len(h.entries) < historyCapacity {
		h.entries = append(h.entries, e)
		return
	}
	h.entries[h.start] = e
	h.start = (h.start + 1) % historyCapacity
}

// Snapshot returns the history's entries in chronological order (oldest
// first), safe for a caller to retain without aliasing internal state.
func (h *History) Snapshot() []HistoryEntry {
	out := make([]HistoryEntry, 0, len(h.entries))
	if len(h.entries) < historyCapacity {
		out = append(out, h.entries...)
		return out
	}
	out = append(out, h.entries[h.start:]...)
	out = append(out, h.entries[:h.start]...)
	return out
}
