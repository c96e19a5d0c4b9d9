// Package filecache defines the file-location cache contract the sync
// layer evicts entries from when a peer dial times out, and a simple
// in-memory implementation of it.
package filecache

import (
	"sync"

	"github.com/libp2p/go-libp2p-core/peer"

	"github.com/c410-f3r/0g-storage-node/shard"
)

// Cache tracks which peers have announced which files. Remove is
// idempotent: removing an announcement that does not exist is a no-op.
type Cache interface {
	Remove(tx shard.TxID, id peer.ID)
}

// MemCache is an in-memory Cache suitable for a single node process. It
// has no persistence and no eviction policy beyond explicit Remove calls.
type MemCache struct {
	mu        sync.Mutex
	announced map[shard.TxID]map[peer.ID]struct{}
}

// NewMemCache returns an empty MemCache.
func NewMemCache() *MemCache {
	return &MemCache{announced: make(map[shard.TxID]map[peer.ID]struct{})}
}

// Announce records that id claims to have tx available. Nothing inside
// this module calls it; the sync layer outside this core's scope does,
// and it is kept here so Remove has something real to evict.
func (c *MemCache) Announce(tx shard.TxID, id peer.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	peers, ok := c.announced[tx]
	if !ok {
		peers = make(map[peer.ID]struct{})
		c.announced[tx] = peers
	}
	peers[id] = struct{}{}
}

// Remove evicts id's announcement of tx, if any.
func (c *MemCache) Remove(tx shard.TxID, id peer.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	peers, ok := c.announced[tx]
	if !ok {
		return
	}
	delete(peers, id)
	if len(peers) == 0 {
		delete(c.announced, tx)
	}
}

// Announcers returns the set of peers currently believed to have tx,
// primarily for tests.
func (c *MemCache) Announcers(tx shard.TxID) []peer.ID {
	c.mu.Lock()
	defer c.mu.Unlock()
	peers, ok := c.announced[tx]
	if !ok {
		return nil
	}
	out := make([]peer.ID, 0, len(peers))
	for id := range peers {
		out = append(out, id)
	}
	return out
}
