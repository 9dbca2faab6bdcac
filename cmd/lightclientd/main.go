// Command lightclientd runs the light client daemon: it restores or
// constructs a light client state, then polls the configured relay for
// the next header and proof, advancing the engine one height at a time.
package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	dbm "github.com/tendermint/tm-db"

	"github.com/bridgewatch/lightclient/config"
	"github.com/bridgewatch/lightclient/engine"
	"github.com/bridgewatch/lightclient/logging"
	"github.com/bridgewatch/lightclient/memledger"
	"github.com/bridgewatch/lightclient/relay"
	"github.com/bridgewatch/lightclient/store"
)

var (
	cfgFile string
	v       = viper.New()
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "lightclientd",
		Short: "Run the light client daemon",
		RunE:  run,
	}
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to lightclient.toml")
	rootCmd.PersistentFlags().String("chain_name", "", "configured chain name")
	rootCmd.PersistentFlags().String("relay_url", "", "relay base URL")
	rootCmd.PersistentFlags().String("store_path", "", "on-disk store path")
	rootCmd.PersistentFlags().Duration("poll_interval", 0, "poll interval")
	rootCmd.PersistentFlags().String("log_level", "", "debug|info|error")
	v.BindPFlags(rootCmd.PersistentFlags())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile, v)
	if err != nil {
		return err
	}

	logger := logging.NewLogger(cfg.LogLevel)

	db, err := dbm.NewGoLevelDB("lightclientd", cfg.StorePath)
	if err != nil {
		return err
	}
	defer db.Close()
	st := store.New(db)

	relayClient := relay.New(cfg.RelayURL, "")
	ledger := memledger.NewLedger(big.NewInt(0))
	hooks := memledger.NewHooks()

	eng, err := bootstrap(cfg, st, relayClient, ledger, hooks, logger)
	if err != nil {
		return err
	}

	ctx := context.Background()
	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()

	for {
		pollOnce(ctx, eng, relayClient, st, logger)
		<-ticker.C
	}
}

// pollOnce fetches and advances by exactly one height, persisting the
// resulting state on success. Errors are logged, never returned, so the
// daemon's poll loop keeps retrying on the next tick.
func pollOnce(ctx context.Context, eng *engine.Engine, relayClient *relay.Client, st store.Store, logger logging.Logger) {
	height := eng.Height() + 1
	headerBytes, proofBytes, err := relayClient.FetchHeader(ctx, height)
	if err != nil {
		logger.Error("fetch header failed", "height", height, "err", err)
		return
	}
	if err := eng.Advance(headerBytes, proofBytes); err != nil {
		logger.Error("advance failed", "height", height, "err", err)
		return
	}
	state := eng.State()
	if err := st.SaveState(state.HeightOffset(), state.LastHeader(), state.CommitRoots()); err != nil {
		logger.Error("persist failed", "height", height, "err", err)
	}
}

// bootstrap restores the engine from st if it has persisted state, or
// constructs it fresh from the relay's current chaintip header otherwise.
func bootstrap(cfg *config.Config, st store.Store, relayClient *relay.Client, ledger *memledger.Ledger, hooks *memledger.Hooks, logger logging.Logger) (*engine.Engine, error) {
	h, err := st.Height()
	if err != nil {
		return nil, err
	}
	if h >= 0 {
		heightOffset, lastHeader, commitRoots, err := st.LoadState()
		if err != nil {
			return nil, err
		}
		return engine.Restore(heightOffset, lastHeader, commitRoots, cfg.ChainName, ledger, hooks, logger), nil
	}

	ctx := context.Background()
	tip, err := relayClient.FetchChaintipHeight(ctx)
	if err != nil {
		return nil, err
	}
	genesisHeader, _, err := relayClient.FetchHeader(ctx, tip)
	if err != nil {
		return nil, err
	}
	return engine.New(genesisHeader, cfg.ChainName, ledger, hooks, logger)
}
