// Package shard describes which subset of the content-addressed storage
// space a peer is responsible for serving, and the coverage predicate the
// sync layer uses to decide whether a set of peers can reconstruct a file
// in full.
package shard

import "fmt"

// TxID identifies a stored transaction (file) by its storage root and
// sequence number, mirroring the rust node's shared_types::TxID.
type TxID struct {
	Root uint64
	Seq  uint64
}

func (t TxID) String() string {
	return fmt.Sprintf("%d/%d", t.Root, t.Seq)
}

// Config describes one peer's shard assignment: it serves every piece
// whose index is congruent to ShardID modulo NumShard.
type Config struct {
	ShardID  uint64
	NumShard uint64
}

// IsDefault reports whether c is the zero-value config. Its NumShard is
// zero, which AllShardsAvailable treats as covering nothing.
func (c Config) IsDefault() bool {
	return c == Config{}
}

// AllShardsAvailable answers whether the union of the given shard
// assignments covers the entire shard space. It is the storage layer's
// predicate in the real node (out of scope for this core); this is a
// concrete stand-in with the same contract so PeerTable.AllShardsAvailable
// is testable in isolation.
//
// A set of configs covers the space once, for the smallest NumShard
// reported, every residue class 0..NumShard-1 is claimed by at least one
// config whose own NumShard equals it (a peer serving 1-of-N
// shards only attests to coverage of that N; finer shardings are ignored
// for the coarsest requirement).
func AllShardsAvailable(configs []Config) bool {
	if len(configs) == 0 {
		return false
	}

	minShards := configs[0].NumShard
	for _, c := range configs[1:] {
		if c.NumShard < minShards {
			minShards = c.NumShard
		}
	}
	if minShards == 0 {
		return false
	}

	covered := make([]bool, minShards)
	remaining := minShards
	for _, c := range configs {
		if c.NumShard != minShards {
			continue
		}
		residue := c.ShardID % minShards
		if !covered[residue] {
			covered[residue] = true
			remaining--
		}
	}
	return remaining == 0
}
