package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func secs(f float64) nanosecs {
	return toNanosecs(time.Duration(f * float64(time.Second)))
}

func TestBucket_BurstThenDrip(t *testing.T) {
	b, err := newBucket[int](Quota{ReplenishPeriod: 2 * time.Second, MaxTokens: 4})
	require.NoError(t, err)
	key := 10

	assert.True(t, b.allows(secs(0.0), key, 4).Ok())
	b.prune(secs(0.1))

	_, tooSoon := b.allows(secs(0.1), key, 1).TooSoon()
	assert.True(t, tooSoon)

	assert.True(t, b.allows(secs(0.5), key, 1).Ok())
	assert.True(t, b.allows(secs(1.0), key, 1).Ok())

	_, tooSoon = b.allows(secs(1.4), key, 1).TooSoon()
	assert.True(t, tooSoon)

	assert.True(t, b.allows(secs(2.0), key, 2).Ok())
}

func TestBucket_Drip(t *testing.T) {
	b, err := newBucket[int](Quota{ReplenishPeriod: 2 * time.Second, MaxTokens: 4})
	require.NoError(t, err)
	key := 10

	assert.True(t, b.allows(secs(0.0), key, 1).Ok())
	assert.True(t, b.allows(secs(0.1), key, 1).Ok())
	assert.True(t, b.allows(secs(0.2), key, 1).Ok())
	assert.True(t, b.allows(secs(0.3), key, 1).Ok())

	_, tooSoon := b.allows(secs(0.4), key, 1).TooSoon()
	assert.True(t, tooSoon)
}

func TestBucket_TooLarge(t *testing.T) {
	b, err := newBucket[int](Quota{ReplenishPeriod: time.Second, MaxTokens: 4})
	require.NoError(t, err)

	v := b.allows(secs(0), 1, 5)
	assert.True(t, v.TooLarge())
}

func TestBucket_IdlenessDoesNotAccumulateCredit(t *testing.T) {
	b, err := newBucket[int](Quota{ReplenishPeriod: 2 * time.Second, MaxTokens: 4})
	require.NoError(t, err)
	key := 1

	require.True(t, b.allows(secs(0), key, 4).Ok())

	// Idle for much longer than the replenish period.
	now := secs(100)
	require.True(t, b.allows(now, key, 4).Ok())
	// The burst drained exactly one full bucket; a further token must be denied.
	assert.False(t, b.allows(now, key, 1).Ok())
}

func TestBucket_Independence(t *testing.T) {
	b, err := newBucket[int](Quota{ReplenishPeriod: time.Second, MaxTokens: 1})
	require.NoError(t, err)

	assert.True(t, b.allows(secs(0), 1, 1).Ok())
	// A distinct key is unaffected by key 1's exhausted bucket.
	assert.True(t, b.allows(secs(0), 2, 1).Ok())
	assert.False(t, b.allows(secs(0), 1, 1).Ok())
}

func TestBucket_PruneEquivalence(t *testing.T) {
	quota := Quota{ReplenishPeriod: time.Second, MaxTokens: 1}

	b1, err := newBucket[int](quota)
	require.NoError(t, err)
	b2, err := newBucket[int](quota)
	require.NoError(t, err)

	require.True(t, b1.allows(secs(0), 1, 1).Ok())
	require.True(t, b2.allows(secs(0), 1, 1).Ok())

	// Both buckets now have TAT == 1s for key 1. By t=2s that TAT is
	// strictly in the past, so pruning b1 (and not b2) before the next
	// request must not change the verdict either bucket produces.
	b1.prune(secs(2))

	v1 := b1.allows(secs(2), 1, 1)
	v2 := b2.allows(secs(2), 1, 1)
	assert.Equal(t, v1.Ok(), v2.Ok())
}

func TestBucket_ConstructionValidation(t *testing.T) {
	_, err := newBucket[int](Quota{ReplenishPeriod: time.Second, MaxTokens: 0})
	assert.Error(t, err)

	_, err = newBucket[int](Quota{ReplenishPeriod: 0, MaxTokens: 1})
	assert.Error(t, err)
}
