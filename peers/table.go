package peers

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/libp2p/go-libp2p-core/peer"
	"go.opencensus.io/trace"

	"github.com/c410-f3r/0g-storage-node/filecache"
	"github.com/c410-f3r/0g-storage-node/netctx"
	"github.com/c410-f3r/0g-storage-node/reputation"
	"github.com/c410-f3r/0g-storage-node/shard"
)

// Config holds the eviction deadlines PeerTable.Transition applies to
// peers stuck in a transitional state.
type Config struct {
	// PeerConnectTimeout is how long a peer may stay Connecting before
	// Transition evicts it.
	PeerConnectTimeout time.Duration
	// PeerDisconnectTimeout is how long a peer may stay Disconnecting
	// before Transition evicts it.
	PeerDisconnectTimeout time.Duration
}

// clock abstracts time.Now for deterministic tests.
type clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Record is everything the table knows about one peer.
type Record struct {
	Address     string
	State       State
	ShardConfig shard.Config
	// Since is the instant of the last state change through the
	// canonical mutator (UpdateState/AddNewPeer). UpdateStateForce does
	// NOT update Since — see Table.UpdateStateForce's doc comment.
	Since time.Time
}

// Table is the map of known peers and their lifecycle state, mirroring
// the rust SyncPeers. It does not own its network-context or
// file-location-cache collaborators, only references them, to avoid
// cyclic ownership with the networking layer.
type Table struct {
	mu     sync.RWMutex
	config Config
	clock  clock

	peers map[peer.ID]*Record

	ctx netctx.Context

	fileCacheTxID shard.TxID
	fileCache     filecache.Cache
}

// New returns an empty Table with no network-context or file-cache
// collaborators attached. Use AttachNetContext / AttachFileCache to wire
// them in, the way a real node does once those services are available.
func New(config Config) *Table {
	return &Table{
		config: config,
		clock:  realClock{},
		peers:  make(map[peer.ID]*Record),
	}
}

// AttachNetContext wires a reputation-reporting handle into the table.
// Transition uses it to report Connecting peers that time out.
func (t *Table) AttachNetContext(ctx netctx.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ctx = ctx
}

// AttachFileCache wires a file-location cache into the table, scoped to a
// single tracked transaction. Transition uses it to evict announcements
// from peers that time out while dialing.
func (t *Table) AttachFileCache(txID shard.TxID, cache filecache.Cache) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fileCacheTxID = txID
	t.fileCache = cache
}

// AddNewPeer inserts peer id, discovered at address with the given shard
// assignment, in state Found. If id is already known with the exact same
// ShardConfig, this is a no-op and returns false. Otherwise any prior
// record is overwritten (a peer rediscovered with a changed shard config
// resets to Found) and true is returned.
func (t *Table) AddNewPeer(id peer.ID, address string, cfg shard.Config) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if existing, ok := t.peers[id]; ok && existing.ShardConfig == cfg {
		return false
	}

	t.peers[id] = &Record{
		Address:     address,
		State:       Found,
		ShardConfig: cfg,
		Since:       t.clock.Now(),
	}
	return true
}

// UpdateState transitions id from `from` to `to`, updating Since. Returns
// (false, false) if id is unknown; (false, true) if id's current state is
// not `from` (no change made); (true, true) on a successful transition.
func (t *Table) UpdateState(id peer.ID, from, to State) (changed bool, known bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.peers[id]
	if !ok {
		return false, false
	}
	if rec.State != from {
		return false, true
	}
	rec.State = to
	rec.Since = t.clock.Now()
	return true, true
}

// UpdateStateForce unconditionally overwrites id's state and returns its
// previous state (ok is false if id is unknown).
//
// Unlike UpdateState, this does NOT update Since. This means
// Transition's Connecting/Disconnecting timeouts are measured from the
// *previous* state change, which may be arbitrarily stale if a caller
// force-sets state repeatedly. This replicates the rust source's
// update_state_force literally; callers that want fresh timeouts should
// use UpdateState instead.
func (t *Table) UpdateStateForce(id peer.ID, state State) (previous State, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.peers[id]
	if !ok {
		return 0, false
	}
	previous = rec.State
	rec.State = state
	return previous, true
}

// PeerState returns id's current state, if known.
func (t *Table) PeerState(id peer.ID) (State, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rec, ok := t.peers[id]
	if !ok {
		return 0, false
	}
	return rec.State, true
}

// ShardConfig returns id's shard assignment, if known.
func (t *Table) ShardConfig(id peer.ID) (shard.Config, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rec, ok := t.peers[id]
	if !ok {
		return shard.Config{}, false
	}
	return rec.ShardConfig, true
}

// RandomPeer uniformly samples one peer currently in state s. Returns
// false if no peer is in that state.
func (t *Table) RandomPeer(s State) (peer.ID, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var chosen peer.ID
	found := false
	count := 0
	for id, rec := range t.peers {
		if rec.State != s {
			continue
		}
		count++
		// Reservoir sampling of size 1: each candidate replaces the
		// current choice with probability 1/count, giving a uniform
		// pick over map iteration without allocating a slice.
		if rand.Intn(count) == 0 {
			chosen = id
			found = true
		}
	}
	return chosen, found
}

// FilterPeers returns every peer whose state is one of states, in
// unspecified order.
func (t *Table) FilterPeers(states ...State) []peer.ID {
	t.mu.RLock()
	defer t.mu.RUnlock()

	want := make(map[State]struct{}, len(states))
	for _, s := range states {
		want[s] = struct{}{}
	}

	out := make([]peer.ID, 0)
	for id, rec := range t.peers {
		if _, ok := want[rec.State]; ok {
			out = append(out, id)
		}
	}
	return out
}

// AllShardsAvailable collects the shard configs of every peer in one of
// states and asks shard.AllShardsAvailable whether their union covers the
// entire shard space.
func (t *Table) AllShardsAvailable(states ...State) bool {
	ids := t.FilterPeers(states...)

	t.mu.RLock()
	defer t.mu.RUnlock()
	configs := make([]shard.Config, 0, len(ids))
	for _, id := range ids {
		if rec, ok := t.peers[id]; ok {
			configs = append(configs, rec.ShardConfig)
		}
	}
	return shard.AllShardsAvailable(configs)
}

// States returns a histogram of peers by state.
func (t *Table) States() map[State]int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[State]int)
	for _, rec := range t.peers {
		out[rec.State]++
	}
	return out
}

// Transition sweeps every peer and evicts those stuck in a transitional
// or terminal state:
//
//   - Found, Connected: no action.
//   - Connecting: evicted once PeerConnectTimeout has elapsed since Since;
//     reports a LowToleranceError with reason "Dial timeout" if a network
//     context is attached, and removes any cached file announcement if a
//     file cache is attached.
//   - Disconnecting: evicted once PeerDisconnectTimeout has elapsed.
//   - Disconnected: evicted unconditionally.
//
// Reporting happens before removal, and every marked peer is removed
// exactly once per sweep.
func (t *Table) Transition(ctx context.Context) {
	_, span := trace.StartSpan(ctx, "peers.Transition")
	defer span.End()

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	var evict []peer.ID

	for id, rec := range t.peers {
		switch rec.State {
		case Found, Connected:
			// no action

		case Connecting:
			if now.Sub(rec.Since) >= t.config.PeerConnectTimeout {
				log.WithFields(map[string]interface{}{
					"peer": id,
					"addr": rec.Address,
				}).Info("peer connection timeout")
				evict = append(evict, id)

				if t.ctx != nil {
					t.ctx.ReportPeer(id, reputation.LowToleranceError, "Dial timeout")
				}
				if t.fileCache != nil {
					t.fileCache.Remove(t.fileCacheTxID, id)
				}
			}

		case Disconnecting:
			if now.Sub(rec.Since) >= t.config.PeerDisconnectTimeout {
				log.WithFields(map[string]interface{}{
					"peer": id,
					"addr": rec.Address,
				}).Info("peer disconnect timeout")
				evict = append(evict, id)
			}

		case Disconnected:
			evict = append(evict, id)
		}
	}

	for _, id := range evict {
		delete(t.peers, id)
	}
	recordStates(t.peers)
}
