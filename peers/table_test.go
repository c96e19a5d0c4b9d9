package peers

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/libp2p/go-libp2p-core/peer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c410-f3r/0g-storage-node/reputation"
	"github.com/c410-f3r/0g-storage-node/shard"
)

type reportCall struct {
	id       peer.ID
	severity reputation.Severity
	reason   string
}

type fakeNetCtx struct {
	reports []reportCall
}

func (f *fakeNetCtx) ReportPeer(id peer.ID, severity reputation.Severity, reason string) {
	f.reports = append(f.reports, reportCall{id, severity, reason})
}

type fakeFileCache struct {
	removed []peer.ID
}

func (f *fakeFileCache) Remove(tx shard.TxID, id peer.ID) {
	f.removed = append(f.removed, id)
}

func newTestTable() (*Table, *fakeClock) {
	tbl := New(Config{
		PeerConnectTimeout:    5 * time.Second,
		PeerDisconnectTimeout: 5 * time.Second,
	})
	fc := newFakeClock()
	tbl.clock = fc
	return tbl, fc
}

func TestTable_AddNewPeerIdempotent(t *testing.T) {
	tbl, _ := newTestTable()
	id := peer.ID("peer-1")

	assert.True(t, tbl.AddNewPeer(id, "addr", shard.Config{}))
	assert.False(t, tbl.AddNewPeer(id, "addr", shard.Config{}))

	state, ok := tbl.PeerState(id)
	require.True(t, ok)
	assert.Equal(t, Found, state)
}

func TestTable_AddNewPeerResetsOnShardChange(t *testing.T) {
	tbl, clk := newTestTable()
	id := peer.ID("peer-1")

	tbl.AddNewPeer(id, "addr", shard.Config{ShardID: 0, NumShard: 2})
	tbl.UpdateState(id, Found, Connecting)
	clk.advance(time.Second)

	changed := tbl.AddNewPeer(id, "addr", shard.Config{ShardID: 1, NumShard: 2})
	assert.True(t, changed)

	state, _ := tbl.PeerState(id)
	assert.Equal(t, Found, state)
}

func TestTable_UpdateStateNoopOnMismatch(t *testing.T) {
	tbl, _ := newTestTable()
	id := peer.ID("peer-1")
	tbl.AddNewPeer(id, "addr", shard.Config{})

	changed, known := tbl.UpdateState(id, Connecting, Connected)
	assert.False(t, changed)
	assert.True(t, known)

	state, _ := tbl.PeerState(id)
	assert.Equal(t, Found, state)
}

func TestTable_UpdateStateUnknownPeer(t *testing.T) {
	tbl, _ := newTestTable()
	changed, known := tbl.UpdateState(peer.ID("ghost"), Found, Connecting)
	assert.False(t, changed)
	assert.False(t, known)
}

func TestTable_UpdateStateForceDoesNotUpdateSince(t *testing.T) {
	tbl, clk := newTestTable()
	id := peer.ID("peer-1")
	tbl.AddNewPeer(id, "addr", shard.Config{})
	sinceBefore := tbl.peers[id].Since

	clk.advance(time.Minute)
	prev, ok := tbl.UpdateStateForce(id, Connecting)
	require.True(t, ok)
	assert.Equal(t, Found, prev)

	assert.Equal(t, sinceBefore, tbl.peers[id].Since)
}

func TestTable_ConnectingTimeoutEviction(t *testing.T) {
	tbl, clk := newTestTable()
	ctx := &fakeNetCtx{}
	cache := &fakeFileCache{}
	txID := shard.TxID{Root: 1, Seq: 2}
	tbl.AttachNetContext(ctx)
	tbl.AttachFileCache(txID, cache)

	id := peer.ID("peer-1")
	tbl.AddNewPeer(id, "addr", shard.Config{})
	tbl.UpdateState(id, Found, Connecting)

	clk.advance(tbl.config.PeerConnectTimeout)
	tbl.Transition(context.Background())

	_, ok := tbl.PeerState(id)
	assert.False(t, ok)

	require.Len(t, ctx.reports, 1)
	assert.Equal(t, reputation.LowToleranceError, ctx.reports[0].severity)
	assert.Equal(t, "Dial timeout", ctx.reports[0].reason)

	require.Len(t, cache.removed, 1)
	assert.Equal(t, id, cache.removed[0])
}

func TestTable_DisconnectingTimeoutEviction(t *testing.T) {
	tbl, clk := newTestTable()
	id := peer.ID("peer-1")
	tbl.AddNewPeer(id, "addr", shard.Config{})
	tbl.UpdateState(id, Found, Connecting)
	tbl.UpdateState(id, Connecting, Connected)
	tbl.UpdateState(id, Connected, Disconnecting)

	clk.advance(tbl.config.PeerDisconnectTimeout)
	tbl.Transition(context.Background())

	_, ok := tbl.PeerState(id)
	assert.False(t, ok)
}

func TestTable_DisconnectedAlwaysEvicted(t *testing.T) {
	tbl, _ := newTestTable()
	id := peer.ID("peer-1")
	tbl.AddNewPeer(id, "addr", shard.Config{})
	tbl.UpdateStateForce(id, Disconnected)

	// No time has passed at all; Disconnected is evicted unconditionally.
	tbl.Transition(context.Background())

	_, ok := tbl.PeerState(id)
	assert.False(t, ok)
}

func TestTable_FoundAndConnectedAreStable(t *testing.T) {
	tbl, clk := newTestTable()
	found := peer.ID("found")
	connected := peer.ID("connected")
	tbl.AddNewPeer(found, "addr", shard.Config{})
	tbl.AddNewPeer(connected, "addr", shard.Config{})
	tbl.UpdateState(connected, Found, Connecting)
	tbl.UpdateState(connected, Connecting, Connected)

	clk.advance(10 * time.Hour)
	tbl.Transition(context.Background())

	_, ok := tbl.PeerState(found)
	assert.True(t, ok)
	_, ok = tbl.PeerState(connected)
	assert.True(t, ok)
}

func TestTable_RandomPeer(t *testing.T) {
	tbl, _ := newTestTable()
	const count = 50
	ids := make(map[peer.ID]struct{}, count)
	for i := 0; i < count; i++ {
		id := peer.ID(fmt.Sprintf("peer-%d", i))
		ids[id] = struct{}{}
		tbl.AddNewPeer(id, "addr", shard.Config{})
	}

	_, ok := tbl.RandomPeer(Connecting)
	assert.False(t, ok)

	for i := 0; i < 1000; i++ {
		id, ok := tbl.RandomPeer(Found)
		require.True(t, ok)
		_, known := ids[id]
		assert.True(t, known)
	}
}

func TestTable_FilterPeers(t *testing.T) {
	tbl, _ := newTestTable()
	a, b, c := peer.ID("a"), peer.ID("b"), peer.ID("c")
	tbl.AddNewPeer(a, "addr", shard.Config{})
	tbl.AddNewPeer(b, "addr", shard.Config{})
	tbl.AddNewPeer(c, "addr", shard.Config{})
	tbl.UpdateState(a, Found, Connecting)
	tbl.UpdateState(b, Found, Connected)

	got := tbl.FilterPeers(Connecting, Connected)
	assert.ElementsMatch(t, []peer.ID{a, b}, got)
}

func TestTable_AllShardsAvailable(t *testing.T) {
	tbl, _ := newTestTable()
	a, b := peer.ID("a"), peer.ID("b")
	tbl.AddNewPeer(a, "addr", shard.Config{ShardID: 0, NumShard: 2})
	tbl.AddNewPeer(b, "addr", shard.Config{ShardID: 1, NumShard: 2})

	assert.True(t, tbl.AllShardsAvailable(Found))
}

func TestTable_States(t *testing.T) {
	tbl, _ := newTestTable()
	a, b := peer.ID("a"), peer.ID("b")
	tbl.AddNewPeer(a, "addr", shard.Config{})
	tbl.AddNewPeer(b, "addr", shard.Config{})
	tbl.UpdateState(a, Found, Connecting)

	hist := tbl.States()
	assert.Equal(t, 1, hist[Found])
	assert.Equal(t, 1, hist[Connecting])
}

// TestScenarioD mirrors spec.md scenario D.
func TestScenarioD(t *testing.T) {
	tbl, clk := newTestTable()
	ctx := &fakeNetCtx{}
	cache := &fakeFileCache{}
	tbl.AttachNetContext(ctx)
	tbl.AttachFileCache(shard.TxID{}, cache)

	id := peer.ID("peer-1")
	tbl.AddNewPeer(id, "addr", shard.Config{})
	tbl.UpdateState(id, Found, Connecting)

	clk.advance(tbl.config.PeerConnectTimeout)
	tbl.Transition(context.Background())

	assert.Len(t, ctx.reports, 1)
	assert.Equal(t, "Dial timeout", ctx.reports[0].reason)
	assert.Len(t, cache.removed, 1)
}
