// Package engine composes the light client state machine and withdrawal
// dispatcher behind a single mutex-guarded facade, the only entry point
// cmd/lightclientd and cmd/lcctl call.
package engine

import (
	"sync"

	"github.com/bridgewatch/lightclient/lightclient"
	"github.com/bridgewatch/lightclient/logging"
	"github.com/bridgewatch/lightclient/wire"
	"github.com/bridgewatch/lightclient/withdrawal"
)

// Engine serializes Advance against Execute and Advance, and protects the
// withdrawal dispatcher's release call with the host's reentrancy guard.
// Advance calls must be totally ordered by height; Execute calls may be
// issued in any order against any already-accepted height.
type Engine struct {
	mu     sync.RWMutex
	state  *lightclient.State
	disp   *withdrawal.Dispatcher
	hooks  withdrawal.HostHooks
	logger logging.Logger
}

// New constructs an Engine from an already-trusted genesis header. The
// chain name is baked in here and enforced by every subsequent Execute.
func New(genesisHeaderBytes []byte, chainName string, ledger withdrawal.AssetLedger, hooks withdrawal.HostHooks, logger logging.Logger) (*Engine, error) {
	genesis, err := wire.DecodeHeader(genesisHeaderBytes)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &Engine{
		state:  lightclient.NewState(genesis.BlockHeight, genesisHeaderBytes, genesis.CommitMerkleRoot),
		disp:   &withdrawal.Dispatcher{ChainName: chainName, Ledger: ledger, Hooks: hooks},
		hooks:  hooks,
		logger: logger,
	}, nil
}

// Restore constructs an Engine from state persisted by Store, skipping
// genesis re-verification.
func Restore(heightOffset uint64, lastHeader []byte, commitRoots [][32]byte, chainName string, ledger withdrawal.AssetLedger, hooks withdrawal.HostHooks, logger logging.Logger) *Engine {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &Engine{
		state:  lightclient.Restore(heightOffset, lastHeader, commitRoots),
		disp:   &withdrawal.Dispatcher{ChainName: chainName, Ledger: ledger, Hooks: hooks},
		hooks:  hooks,
		logger: logger,
	}
}

// Height returns the height of the most recently accepted header.
func (e *Engine) Height() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.Height()
}

// State exposes the underlying light client state for Store persistence
// and read-only inspection; callers must not mutate what it returns.
func (e *Engine) State() *lightclient.State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Advance verifies and accepts one new header, under the write lock.
func (e *Engine) Advance(headerBytes, proofBytes []byte) error {
	unlock := e.guardWrite()
	defer unlock()

	err := lightclient.Advance(e.state, headerBytes, proofBytes)
	if err != nil {
		e.logger.Error("advance failed", "err", err)
		return err
	}

	h, _ := wire.DecodeHeader(headerBytes)
	e.logger.Info("advance succeeded", "height", h.BlockHeight, "commit_root", h.CommitMerkleRoot)
	if e.hooks != nil {
		e.hooks.EmitEvent(withdrawal.EventUpdateLightClient, map[string]interface{}{
			"blockHeight": h.BlockHeight,
			"lastHeader":  headerBytes,
		})
	}
	return nil
}

// Execute verifies and dispatches one withdrawal transaction, under the
// read lock (Execute only reads commitRoots; it never mutates state) plus
// the host's reentrancy guard around the ledger effect.
func (e *Engine) Execute(txBytes, payloadBytes []byte, blockHeight uint64, proofBytes []byte) error {
	unlock := e.guardRead()
	defer unlock()

	if e.hooks != nil {
		release, err := e.hooks.ReentrancyGuard()
		if err != nil {
			return err
		}
		defer release()
	}

	result, err := e.disp.Execute(txBytes, payloadBytes, blockHeight, proofBytes, e.state)
	if err != nil {
		e.logger.Error("execute failed", "err", err)
		return err
	}

	e.logger.Info("execute succeeded", "kind", result.Kind, "receiver", result.Receiver, "amount_or_token_id", result.AmountOrTokenID)
	return nil
}

func (e *Engine) guardWrite() func() {
	e.mu.Lock()
	return e.mu.Unlock
}

func (e *Engine) guardRead() func() {
	e.mu.RLock()
	return e.mu.RUnlock
}
