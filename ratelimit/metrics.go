package ratelimit

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c410-f3r/0g-storage-node/rpcproto"
)

var (
	verdictCount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "zgs",
		Subsystem: "rpc_rate_limiter",
		Name:      "verdicts_total",
		Help:      "Count of admission verdicts per protocol.",
	}, []string{"protocol", "verdict"})

	bucketKeys = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "zgs",
		Subsystem: "rpc_rate_limiter",
		Name:      "tracked_peers",
		Help:      "Number of peers with a live bucket entry, per protocol.",
	}, []string{"protocol"})
)

func init() {
	prometheus.MustRegister(verdictCount)
	prometheus.MustRegister(bucketKeys)
}

func recordVerdict(protocol rpcproto.Protocol, v Verdict) {
	verdictCount.WithLabelValues(protocol.String(), v.String()).Inc()
}

func recordBucketSize(protocol rpcproto.Protocol, size int) {
	bucketKeys.WithLabelValues(protocol.String()).Set(float64(size))
}
