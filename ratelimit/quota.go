package ratelimit

import "time"

// Quota is the user-friendly rate limiting parameters of the GCRA.
//
// A quota of MaxTokens tokens every ReplenishPeriod means that:
//  1. One token is replenished every ReplenishPeriod/MaxTokens.
//  2. Instantaneous bursts of up to MaxTokens tokens are allowed.
//
// The above implies that if MaxTokens is greater than 1, the perceived
// rate may be higher (but bounded) than the defined rate when
// instantaneous bursts occur. For instance, for a rate of 4T/2s a first
// burst of 4T is allowed with subsequent requests of 1T every 0.5s
// forever, producing a perceived rate over the window of the first 2s of
// 8T. However, subsequent sliding windows of 2s keep the limit.
//
// To produce a hard limit, set MaxTokens to 1.
type Quota struct {
	// ReplenishPeriod is how often MaxTokens are fully replenished.
	ReplenishPeriod time.Duration
	// MaxTokens is the token limit, i.e. how large an instantaneous
	// burst of tokens can be.
	MaxTokens uint64
}

// OneEvery returns a hard-limit quota of a single token per period.
func OneEvery(period time.Duration) Quota {
	return Quota{ReplenishPeriod: period, MaxTokens: 1}
}

// NEvery returns a burst-capable quota of n tokens per period.
func NEvery(n uint64, period time.Duration) Quota {
	return Quota{ReplenishPeriod: period, MaxTokens: n}
}
