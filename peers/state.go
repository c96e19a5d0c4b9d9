// Package peers tracks each known peer's connection lifecycle, applying
// timeout-driven transitions and reporting misbehavior to a reputation
// sink and a file-location cache, mirroring the teacher's
// beacon-chain/p2p/peers package and the rust sync::controllers::peers
// module this core is ported from.
package peers

// State is the closed set of a peer's lifecycle states.
//
//	Found ---dial---> Connecting ---established---> Connected
//	                       |                              |
//	                    timeout                      begin disc.
//	                       v                              v
//	                  (removed)    (removed) <--timeout-- Disconnecting
//	                                                      |
//	                                                    done
//	                                                      v
//	                                               Disconnected
//	                                                      |
//	                                            (removed next sweep)
//
// Found and Connected are stable: no timeout evicts them. Connecting and
// Disconnecting carry timeouts measured from the last state change.
type State int

const (
	// Found means the peer was discovered but no connection has been
	// attempted yet.
	Found State = iota
	// Connecting means a dial is in progress.
	Connecting
	// Connected means the connection is established.
	Connected
	// Disconnecting means graceful teardown has started.
	Disconnecting
	// Disconnected is terminal: the peer is evicted on the next sweep.
	Disconnected
)

func (s State) String() string {
	switch s {
	case Found:
		return "found"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Disconnecting:
		return "disconnecting"
	case Disconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}
