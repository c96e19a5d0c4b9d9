// Command node is a thin entrypoint wiring the rate limiter and peer
// table together, the way cmd/beacon-chain wires
// beacon-chain/p2p/peers and beacon-chain/sync in the teacher repo. It
// does not implement networking, storage, or mining — those are external
// collaborators per spec.md §1.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/c410-f3r/0g-storage-node/config"
	"github.com/c410-f3r/0g-storage-node/filecache"
	"github.com/c410-f3r/0g-storage-node/netctx"
	"github.com/c410-f3r/0g-storage-node/peers"
	"github.com/c410-f3r/0g-storage-node/reputation"
	"github.com/c410-f3r/0g-storage-node/shard"
)

var log = logrus.WithField("prefix", "node")

var (
	connectTimeoutFlag = &cli.DurationFlag{
		Name:  "peer-connect-timeout",
		Usage: "how long a dial may stay in progress before the peer is evicted",
		Value: config.Default().PeerConnectTimeout,
	}
	disconnectTimeoutFlag = &cli.DurationFlag{
		Name:  "peer-disconnect-timeout",
		Usage: "how long graceful teardown may take before the peer is evicted",
		Value: config.Default().PeerDisconnectTimeout,
	}
)

func main() {
	app := cli.NewApp()
	app.Name = "node"
	app.Usage = "0g-storage-node RPC admission-control and peer lifecycle core"
	app.Flags = []cli.Flag{connectTimeoutFlag, disconnectTimeoutFlag}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Fatal("node exited with error")
	}
}

func run(c *cli.Context) error {
	cfg := config.Default()
	cfg.PeerConnectTimeout = c.Duration(connectTimeoutFlag.Name)
	cfg.PeerDisconnectTimeout = c.Duration(disconnectTimeoutFlag.Name)

	rl, err := cfg.BuildRateLimiter()
	if err != nil {
		return err
	}

	table := peers.New(cfg.BuildPeerTableConfig())
	sink := reputation.NewScoringSink()
	table.AttachNetContext(netctx.NewHandle(sink))
	table.AttachFileCache(shard.TxID{}, filecache.NewMemCache())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go rl.Run(ctx)
	go runTransitionLoop(ctx, table)

	log.WithFields(logrus.Fields{
		"peer_connect_timeout":    cfg.PeerConnectTimeout,
		"peer_disconnect_timeout": cfg.PeerDisconnectTimeout,
	}).Info("core wired up, awaiting shutdown signal")

	waitForSignal()
	return nil
}

// transitionInterval is how often the peer table is swept for timed-out
// peers. Unlike the rate limiter's fixed 30s prune, this is a node-level
// choice, not part of the core's contract.
const transitionInterval = 5 * time.Second

func runTransitionLoop(ctx context.Context, table *peers.Table) {
	ticker := time.NewTicker(transitionInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			table.Transition(ctx)
		}
	}
}

func waitForSignal() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
}
