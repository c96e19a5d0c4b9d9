package peers

import (
	"github.com/libp2p/go-libp2p-core/peer"
	"github.com/prometheus/client_golang/prometheus"
)

var peerStateGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "zgs",
	Subsystem: "sync_peers",
	Name:      "state_count",
	Help:      "Number of tracked peers per lifecycle state.",
}, []string{"state"})

func init() {
	prometheus.MustRegister(peerStateGauge)
}

// recordStates refreshes the per-state gauge snapshot. Called at the end
// of every Transition sweep, with the table's lock already held.
func recordStates(peers map[peer.ID]*Record) {
	counts := map[State]int{
		Found:         0,
		Connecting:    0,
		Connected:     0,
		Disconnecting: 0,
		Disconnected:  0,
	}
	for _, rec := range peers {
		counts[rec.State]++
	}
	for state, count := range counts {
		peerStateGauge.WithLabelValues(state.String()).Set(float64(count))
	}
}
