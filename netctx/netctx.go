// Package netctx provides the thin peer-reporting handle that PeerTable
// holds a reference to without owning, mirroring the rust
// SyncNetworkContext used by controllers/peers.rs. Keeping this as an
// interface-sized capability, rather than embedding the real network
// stack, avoids the cyclic ownership the sync core must not introduce
// (network owns peers, peers must not own network back).
package netctx

import (
	"github.com/libp2p/go-libp2p-core/peer"

	"github.com/c410-f3r/0g-storage-node/reputation"
)

// Context is the capability PeerTable needs from the networking layer:
// the ability to report a peer's misbehavior to the reputation sink.
type Context interface {
	ReportPeer(id peer.ID, severity reputation.Severity, reason string)
}

// Handle is a minimal Context backed directly by a reputation.Sink,
// sufficient for wiring the core without a real transport.
type Handle struct {
	Sink reputation.Sink
}

// NewHandle wraps sink in a Context.
func NewHandle(sink reputation.Sink) *Handle {
	return &Handle{Sink: sink}
}

// ReportPeer forwards the report to the underlying sink.
func (h *Handle) ReportPeer(id peer.ID, severity reputation.Severity, reason string) {
	if h == nil || h.Sink == nil {
		return
	}
	h.Sink.Report(id, severity, reason)
}
