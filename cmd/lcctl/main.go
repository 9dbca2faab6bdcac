// Command lcctl is a one-shot operator tool for inspecting and driving a
// light client store: print its status, feed it one header/proof, or feed
// it one withdrawal transaction and report that it executed. The withdraw
// command does not print what was released.
package main

import (
	"fmt"
	"io/ioutil"
	"math/big"
	"os"

	"github.com/spf13/cobra"
	dbm "github.com/tendermint/tm-db"

	"github.com/bridgewatch/lightclient/engine"
	"github.com/bridgewatch/lightclient/errs"
	"github.com/bridgewatch/lightclient/logging"
	"github.com/bridgewatch/lightclient/memledger"
	"github.com/bridgewatch/lightclient/store"
)

var (
	storePath string
	chainName string
)

func main() {
	rootCmd := &cobra.Command{Use: "lcctl"}
	rootCmd.PersistentFlags().StringVar(&storePath, "store_path", "lightclient.db", "on-disk store path")
	rootCmd.PersistentFlags().StringVar(&chainName, "chain_name", "", "configured chain name")

	rootCmd.AddCommand(statusCmd(), advanceCmd(), withdrawCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openEngine() (*engine.Engine, store.Store, error) {
	db, err := dbm.NewGoLevelDB("lcctl", storePath)
	if err != nil {
		return nil, nil, err
	}
	st := store.New(db)

	h, err := st.Height()
	if err != nil {
		return nil, nil, err
	}
	if h < 0 {
		return nil, nil, errs.StoreEmpty{}
	}

	heightOffset, lastHeader, commitRoots, err := st.LoadState()
	if err != nil {
		return nil, nil, err
	}

	ledger := memledger.NewLedger(big.NewInt(0))
	hooks := memledger.NewHooks()
	eng := engine.Restore(heightOffset, lastHeader, commitRoots, chainName, ledger, hooks, logging.NopLogger{})
	return eng, st, nil
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the light client's current height and last commit root",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, _, err := openEngine()
			if err != nil {
				return err
			}
			state := eng.State()
			roots := state.CommitRoots()
			fmt.Printf("height: %d\n", state.Height())
			fmt.Printf("commit_root: %x\n", roots[len(roots)-1])
			return nil
		},
	}
}

func advanceCmd() *cobra.Command {
	var headerPath, proofPath string
	cmd := &cobra.Command{
		Use:   "advance",
		Short: "Feed one header and finalization proof from local files",
		RunE: func(cmd *cobra.Command, args []string) error {
			headerBytes, err := ioutil.ReadFile(headerPath)
			if err != nil {
				return err
			}
			proofBytes, err := ioutil.ReadFile(proofPath)
			if err != nil {
				return err
			}

			eng, st, err := openEngine()
			if err != nil {
				return err
			}
			if err := eng.Advance(headerBytes, proofBytes); err != nil {
				return err
			}

			state := eng.State()
			if err := st.SaveState(state.HeightOffset(), state.LastHeader(), state.CommitRoots()); err != nil {
				return err
			}
			fmt.Printf("advanced to height %d\n", state.Height())
			return nil
		},
	}
	cmd.Flags().StringVar(&headerPath, "header", "", "path to raw header bytes")
	cmd.Flags().StringVar(&proofPath, "proof", "", "path to raw finalization proof bytes")
	return cmd
}

func withdrawCmd() *cobra.Command {
	var txPath, payloadPath, proofPath string
	var height uint64
	cmd := &cobra.Command{
		Use:   "withdraw",
		Short: "Feed one transaction, execution payload, and Merkle proof",
		RunE: func(cmd *cobra.Command, args []string) error {
			txBytes, err := ioutil.ReadFile(txPath)
			if err != nil {
				return err
			}
			payloadBytes, err := ioutil.ReadFile(payloadPath)
			if err != nil {
				return err
			}
			proofBytes, err := ioutil.ReadFile(proofPath)
			if err != nil {
				return err
			}

			eng, _, err := openEngine()
			if err != nil {
				return err
			}
			if err := eng.Execute(txBytes, payloadBytes, height, proofBytes); err != nil {
				return err
			}
			fmt.Println("withdrawal executed")
			return nil
		},
	}
	cmd.Flags().StringVar(&txPath, "tx", "", "path to raw transaction bytes")
	cmd.Flags().StringVar(&payloadPath, "payload", "", "path to raw execution payload bytes")
	cmd.Flags().StringVar(&proofPath, "proof", "", "path to raw Merkle proof bytes")
	cmd.Flags().Uint64Var(&height, "height", 0, "block height the transaction was committed at")
	return cmd
}
