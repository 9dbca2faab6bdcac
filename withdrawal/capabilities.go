// Package withdrawal dispatches a finalized withdrawal transaction to the
// host's asset ledger once its Merkle commitment and execution-hash
// envelope have been verified.
package withdrawal

import (
	"math/big"

	"github.com/bridgewatch/lightclient/crypto"
	"github.com/bridgewatch/lightclient/wire"
)

// TokenID identifies a non-fungible token within a collection.
type TokenID [16]byte

// Result summarizes a successful Execute call for the caller's own
// logging: which kind of transfer ran, who received it, and the amount
// (fungible) or token ID (non-fungible) released.
type Result struct {
	Kind            wire.PayloadKind
	Receiver        crypto.Address
	AmountOrTokenID string
}

// AssetLedger is the capability the engine releases withdrawn assets
// through. Implementations must make each release succeed or fail
// atomically; a failing release aborts Execute and leaves the ledger
// unchanged.
type AssetLedger interface {
	NativeBalance() *big.Int
	ReleaseNative(to crypto.Address, amount *big.Int) error

	FungibleBalance(token crypto.Address) *big.Int
	ReleaseFungible(token, to crypto.Address, amount *big.Int) error

	OwnerOf(collection crypto.Address, tokenID TokenID) (crypto.Address, error)
	ReleaseNonFungible(collection, to crypto.Address, tokenID TokenID) error
}

// HostHooks is the capability the engine uses for mutual exclusion,
// reentrancy protection, and event emission around Execute.
type HostHooks interface {
	MutexGuard() (unlock func())
	ReentrancyGuard() (release func(), err error)
	EmitEvent(kind string, fields map[string]interface{})
}

// Event kinds emitted via HostHooks.EmitEvent.
const (
	EventTransferFungibleToken    = "TransferFungibleToken"
	EventTransferNonFungibleToken = "TransferNonFungibleToken"
	EventUpdateLightClient        = "UpdateLightClient"
)
