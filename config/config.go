// Package config holds the user-facing configuration recognized by this
// core: per-protocol RPC quotas and the peer connect/disconnect eviction
// timeouts. There is no persisted state, no environment variable
// handling, and no dynamic reconfiguration — matching spec.md's
// non-goals; loading these values from a file or flags is the
// responsibility of cmd/node.
package config

import (
	"time"

	"github.com/c410-f3r/0g-storage-node/peers"
	"github.com/c410-f3r/0g-storage-node/ratelimit"
	"github.com/c410-f3r/0g-storage-node/rpcproto"
)

// ProtocolQuota pairs a protocol with its rate limiting Quota.
type ProtocolQuota struct {
	Protocol rpcproto.Protocol
	Quota    ratelimit.Quota
}

// Config is the full set of options this core accepts.
type Config struct {
	PeerConnectTimeout    time.Duration
	PeerDisconnectTimeout time.Duration
	Quotas                []ProtocolQuota
}

// Default returns the quota set used by the reference node: a hard
// one-per-period limit on low-volume control protocols (one every 5s for
// Ping and Status, one every 10s for Goodbye), and burst-capable
// quotas on data-moving ones, mirroring the intent (if not the exact
// figures, which are deployment-specific) of the rust source's
// RPCRateLimiterBuilder wiring in the node's sync service.
func Default() Config {
	return Config{
		PeerConnectTimeout:    15 * time.Second,
		PeerDisconnectTimeout: 15 * time.Second,
		Quotas: []ProtocolQuota{
			{Protocol: rpcproto.Ping, Quota: ratelimit.OneEvery(5 * time.Second)},
			{Protocol: rpcproto.Status, Quota: ratelimit.OneEvery(5 * time.Second)},
			{Protocol: rpcproto.Goodbye, Quota: ratelimit.OneEvery(10 * time.Second)},
			{Protocol: rpcproto.DataByHash, Quota: ratelimit.NEvery(128, time.Second)},
			{Protocol: rpcproto.AnswerFile, Quota: ratelimit.NEvery(8, time.Second)},
			{Protocol: rpcproto.GetChunks, Quota: ratelimit.NEvery(100, 10*time.Second)},
		},
	}
}

// BuildRateLimiter materializes a ratelimit.RateLimiter from the configured
// per-protocol quotas.
func (c Config) BuildRateLimiter() (*ratelimit.RateLimiter, error) {
	b := ratelimit.NewBuilder()
	for _, pq := range c.Quotas {
		b.SetQuota(pq.Protocol, pq.Quota)
	}
	return b.Build()
}

// BuildPeerTableConfig projects the peer-timeout portion of Config into a
// peers.Config.
func (c Config) BuildPeerTableConfig() peers.Config {
	return peers.Config{
		PeerConnectTimeout:    c.PeerConnectTimeout,
		PeerDisconnectTimeout: c.PeerDisconnectTimeout,
	}
}
