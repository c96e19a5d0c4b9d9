package ratelimit

import (
	"context"
	"time"

	"github.com/libp2p/go-libp2p-core/peer"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"

	"github.com/c410-f3r/0g-storage-node/rpcproto"
)

// pruneInterval is the fixed period at which the background driver prunes
// stale per-peer buckets. Not user-configurable in this version.
const pruneInterval = 30 * time.Second

// RateLimiter polices inbound RPCs on a per-(peer, protocol) basis. It
// owns one bucket per rpcproto.Protocol and dispatches admission checks to
// the bucket matching the request's protocol; buckets for distinct
// protocols never interfere with each other.
type RateLimiter struct {
	clock    Clock
	initTime time.Time

	buckets map[rpcproto.Protocol]*bucket[peer.ID]
}

// Builder is a user-friendly way to assemble a RateLimiter: set a quota
// per protocol, then Build. Build fails if any protocol in the closed set
// was left unspecified.
type Builder struct {
	clock  Clock
	quotas map[rpcproto.Protocol]Quota
}

// NewBuilder returns an empty Builder using the system clock.
func NewBuilder() *Builder {
	return &Builder{quotas: make(map[rpcproto.Protocol]Quota)}
}

// WithClock overrides the clock used by the resulting RateLimiter, for
// tests that need a synthetic timeline.
func (b *Builder) WithClock(clock Clock) *Builder {
	b.clock = clock
	return b
}

// OneEvery sets a hard one-token-per-period quota for protocol.
func (b *Builder) OneEvery(protocol rpcproto.Protocol, period time.Duration) *Builder {
	return b.setQuota(protocol, OneEvery(period))
}

// NEvery sets a burst-capable quota of n tokens per period for protocol.
func (b *Builder) NEvery(protocol rpcproto.Protocol, n uint64, period time.Duration) *Builder {
	return b.setQuota(protocol, NEvery(n, period))
}

// SetQuota sets an arbitrary quota for protocol.
func (b *Builder) SetQuota(protocol rpcproto.Protocol, quota Quota) *Builder {
	return b.setQuota(protocol, quota)
}

func (b *Builder) setQuota(protocol rpcproto.Protocol, quota Quota) *Builder {
	b.quotas[protocol] = quota
	return b
}

// Build validates that every protocol in the closed set has a quota and
// materializes one bucket per protocol.
func (b *Builder) Build() (*RateLimiter, error) {
	clock := b.clock
	if clock == nil {
		clock = realClock{}
	}

	buckets := make(map[rpcproto.Protocol]*bucket[peer.ID], len(rpcproto.All()))
	for _, protocol := range rpcproto.All() {
		quota, ok := b.quotas[protocol]
		if !ok {
			return nil, errors.Errorf("quota for protocol %s not specified", protocol)
		}
		bkt, err := newBucket[peer.ID](quota)
		if err != nil {
			return nil, errors.Wrapf(err, "building bucket for protocol %s", protocol)
		}
		buckets[protocol] = bkt
	}

	return &RateLimiter{
		clock:    clock,
		initTime: clock.Now(),
		buckets:  buckets,
	}, nil
}

// Allows checks whether request from peer id is admitted right now,
// dispatching on the request's protocol to the owning bucket. It never
// performs I/O and cannot fail except by returning a non-Ok Verdict.
func (rl *RateLimiter) Allows(ctx context.Context, id peer.ID, request rpcproto.Request) Verdict {
	_, span := trace.StartSpan(ctx, "ratelimit.Allows")
	defer span.End()

	now := toNanosecs(rl.clock.Now().Sub(rl.initTime))

	tokens := request.ExpectedResponses()
	if tokens < 1 {
		tokens = 1
	}

	bkt, ok := rl.buckets[request.Protocol()]
	if !ok {
		// Unreachable given Build's exhaustiveness check, but fail closed
		// rather than panic if the closed set is ever extended without a
		// matching Builder call.
		return TooLargeVerdict
	}

	verdict := bkt.allows(now, id, tokens)
	recordVerdict(request.Protocol(), verdict)
	return verdict
}

// Prune walks every protocol's bucket and removes keys whose bucket has
// fully refilled.
func (rl *RateLimiter) Prune() {
	now := toNanosecs(rl.clock.Now().Sub(rl.initTime))
	for protocol, bkt := range rl.buckets {
		bkt.prune(now)
		recordBucketSize(protocol, len(bkt.tat))
	}
}

// Run is the RateLimiter's long-lived background driver: every time the
// prune ticker fires, it prunes every bucket. It never returns on its own;
// cancel ctx to stop it. Multiple ticks accumulated since the last poll
// (e.g. after a long GC pause) are each drained in turn, matching the
// rust Future::poll's "drain all ready ticks" behavior.
func (rl *RateLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.Prune()
			log.WithFields(map[string]interface{}{
				"pruned_protocols": len(rl.buckets),
			}).Debug("pruned rate limiter buckets")
			// Drain any further ticks that piled up while we were busy,
			// so pruning lag stays bounded even after a stall.
			for drained := true; drained; {
				select {
				case <-ticker.C:
					rl.Prune()
				default:
					drained = false
				}
			}
		}
	}
}
