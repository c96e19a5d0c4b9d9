package ratelimit

import (
	"sync"

	"github.com/pkg/errors"
)

// nanosecs is nanoseconds elapsed since a limiter's init time. Maintained
// as a uint64 to keep memory footprint down: this limits a limiter to
// managing at most ~584 years since construction, which is realistic to
// assume is fine.
type nanosecs = uint64

// bucket is a per-key GCRA (Generic Cell Rate Algorithm) limiter. It
// tracks, per key, the "theoretical arrival time" (TAT) at which that
// key's bucket would next be full, and grants or denies requests by
// comparing the incoming time against it.
//
// A key absent from tat is equivalent to TAT == now: a never-seen key
// starts with a full bucket.
type bucket[K comparable] struct {
	mu sync.Mutex

	// tau is how long it takes for the bucket to go from empty to full,
	// i.e. the replenish period expressed in nanoseconds.
	tau nanosecs
	// t is how long it takes to replenish a single token, tau/maxTokens.
	t nanosecs

	tat map[K]nanosecs
}

// newBucket builds a bucket from a Quota, deriving tau and t and
// validating that both fit the limiter's nanosecond-resolution model.
func newBucket[K comparable](quota Quota) (*bucket[K], error) {
	if quota.MaxTokens == 0 {
		return nil, errors.New("max tokens must be positive")
	}
	tau := quota.ReplenishPeriod.Nanoseconds()
	if tau <= 0 {
		return nil, errors.New("replenish period must be positive")
	}

	t := uint64(tau) / quota.MaxTokens
	if t == 0 {
		return nil, errors.New("replenish period too short for the requested max tokens")
	}

	return &bucket[K]{
		tau: uint64(tau),
		t:   t,
		tat: make(map[K]nanosecs),
	}, nil
}

// allows decides whether a request of the given token cost, arriving at
// now (nanoseconds since the limiter's init time), is admitted for key.
func (b *bucket[K]) allows(now nanosecs, key K, tokens uint64) Verdict {
	cost := b.t * tokens
	if cost > b.tau {
		// The time required to process this many tokens exceeds the time
		// that fills the whole bucket: this batch can never be processed.
		return TooLargeVerdict
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	tat, ok := b.tat[key]
	if !ok {
		// A fresh key is considered full: its first request is allowed.
		tat = now
	}

	earliest := saturatingSub(tat+cost, b.tau)
	if now < earliest {
		return TooSoonVerdict(toDuration(earliest - now))
	}

	newTAT := now
	if tat > newTAT {
		newTAT = tat
	}
	b.tat[key] = newTAT + cost
	return OkVerdict
}

// prune removes every key whose bucket has already fully refilled by
// now. This is an amortization, not a correctness requirement: a pruned
// key behaves identically to a never-seen key on its next request.
func (b *bucket[K]) prune(now nanosecs) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for k, tat := range b.tat {
		if tat < now {
			delete(b.tat, k)
		}
	}
}

func saturatingSub(a, b nanosecs) nanosecs {
	if a < b {
		return 0
	}
	return a - b
}
