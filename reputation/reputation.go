// Package reputation defines the peer-reputation sink the sync layer
// reports to, and a small in-memory implementation that scores peers the
// way the teacher's beacon-chain/p2p/peers scorers package does.
package reputation

import (
	"sync"

	"github.com/libp2p/go-libp2p-core/peer"
)

// Severity classifies how tolerant the node should be of the reported
// behavior. Named after prysm's PeerAction, the pack's closest real
// analogue to the rust PeerAction used by SyncNetworkContext.report_peer.
// The sync core only ever emits LowToleranceError; the richer set exists
// because a production reputation sink has more callers than this core.
type Severity int

const (
	LowToleranceError Severity = iota
	MidToleranceError
	HighToleranceError
	MaxToleranceError
)

func (s Severity) String() string {
	switch s {
	case LowToleranceError:
		return "low_tolerance_error"
	case MidToleranceError:
		return "mid_tolerance_error"
	case HighToleranceError:
		return "high_tolerance_error"
	case MaxToleranceError:
		return "max_tolerance_error"
	default:
		return "unknown"
	}
}

// penalty is the score decrement applied for one report of a given
// severity, loosely mirroring prysm's scorer weight constants.
func (s Severity) penalty() float64 {
	switch s {
	case LowToleranceError:
		return -5
	case MidToleranceError:
		return -10
	case HighToleranceError:
		return -20
	case MaxToleranceError:
		return -100
	default:
		return 0
	}
}

// Sink receives reputation reports for misbehaving or unresponsive peers.
// Implementations are expected to be non-blocking; the core never waits
// on a report.
type Sink interface {
	Report(id peer.ID, severity Severity, reason string)
}

// ScoringSink is an in-memory Sink that accumulates a score per peer,
// grounded on the teacher's PeerScorer/ScoreBlockProvider pattern of
// tallying weighted increments per peer ID. Scores do not decay.
type ScoringSink struct {
	mu     sync.Mutex
	scores map[peer.ID]float64
	// BanThreshold is the score at or below which a peer is considered
	// banned. Zero means no automatic banning.
	BanThreshold float64
}

// NewScoringSink returns a ready-to-use ScoringSink with no ban threshold.
func NewScoringSink() *ScoringSink {
	return &ScoringSink{scores: make(map[peer.ID]float64)}
}

// Report records one occurrence of severity against id.
func (s *ScoringSink) Report(id peer.ID, severity Severity, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scores[id] += severity.penalty()
	log.WithFields(map[string]interface{}{
		"peer":     id,
		"severity": severity,
		"reason":   reason,
		"score":    s.scores[id],
	}).Debug("peer reputation report")
}

// Score returns the current accumulated score for id (zero for an
// unreported peer).
func (s *ScoringSink) Score(id peer.ID) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scores[id]
}

// IsBanned reports whether id's score has fallen to or below BanThreshold.
// Always false when BanThreshold is zero (the default, meaning unset).
func (s *ScoringSink) IsBanned(id peer.ID) bool {
	if s.BanThreshold == 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scores[id] <= s.BanThreshold
}
