package withdrawal

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bridgewatch/lightclient/crypto"
	"github.com/bridgewatch/lightclient/errs"
	"github.com/bridgewatch/lightclient/lightclient"
	"github.com/bridgewatch/lightclient/merkletree"
	"github.com/bridgewatch/lightclient/wire"
)

// fakeLedger is a minimal AssetLedger recording what it was asked to
// release, for test assertions.
type fakeLedger struct {
	releasedNativeTo     crypto.Address
	releasedNativeAmount *big.Int

	releasedFungibleToken  crypto.Address
	releasedFungibleTo     crypto.Address
	releasedFungibleAmount *big.Int

	releasedCollection crypto.Address
	releasedNFTTo      crypto.Address
	releasedTokenID    TokenID

	fail error
}

func (l *fakeLedger) NativeBalance() *big.Int                                { return big.NewInt(0) }
func (l *fakeLedger) FungibleBalance(crypto.Address) *big.Int                { return big.NewInt(0) }
func (l *fakeLedger) OwnerOf(crypto.Address, TokenID) (crypto.Address, error) { return crypto.Address{}, nil }

func (l *fakeLedger) ReleaseNative(to crypto.Address, amount *big.Int) error {
	if l.fail != nil {
		return l.fail
	}
	l.releasedNativeTo, l.releasedNativeAmount = to, amount
	return nil
}

func (l *fakeLedger) ReleaseFungible(token, to crypto.Address, amount *big.Int) error {
	if l.fail != nil {
		return l.fail
	}
	l.releasedFungibleToken, l.releasedFungibleTo, l.releasedFungibleAmount = token, to, amount
	return nil
}

func (l *fakeLedger) ReleaseNonFungible(collection, to crypto.Address, tokenID TokenID) error {
	if l.fail != nil {
		return l.fail
	}
	l.releasedCollection, l.releasedNFTTo, l.releasedTokenID = collection, to, tokenID
	return nil
}

// fakeHooks records emitted events for test assertions, without any of the
// mutex/reentrancy machinery memledger.Hooks provides.
type fakeHooks struct {
	events []Event
}

type Event struct {
	Kind   string
	Fields map[string]interface{}
}

func (h *fakeHooks) MutexGuard() (unlock func())     { return func() {} }
func (h *fakeHooks) ReentrancyGuard() (func(), error) { return func() {}, nil }
func (h *fakeHooks) EmitEvent(kind string, fields map[string]interface{}) {
	h.events = append(h.events, Event{Kind: kind, Fields: fields})
}

// buildTransaction assembles a minimal transaction whose byte layout
// satisfies the dispatcher's offset-73 tag and tail-68 envelope
// requirements. The transaction carries only the payload's hash envelope,
// not the payload bytes; the whole blob serves as the Merkle leaf pre-image.
func buildTransaction(tag uint64, payload []byte) []byte {
	tx := make([]byte, 73+8)
	binary.LittleEndian.PutUint64(tx[73:81], tag)

	payloadHash := crypto.Keccak256(payload)
	envelope := BuildExecutionHashEnvelope(payloadHash)
	return append(tx, envelope...)
}

func TestExecuteFungibleNative(t *testing.T) {
	var receiver [20]byte
	receiver[0] = 0xAB
	payload := wire.EncodeExecutionPayload(wire.ExecutionPayload{
		Kind:            wire.KindFungible,
		Chain:           "bridgewatch-1",
		Amount:          bigToLE16(big.NewInt(500)),
		ReceiverAddress: receiver,
	})

	tx := buildTransaction(wire.TagFungible, payload)

	leaves := [][]byte{tx}
	root, proof := merkletree.BuildProof(leaves, 0)
	state := lightclient.NewState(10, genesisHeaderWithCommitRoot(10, root), root)

	ledger := &fakeLedger{}
	d := &Dispatcher{ChainName: "bridgewatch-1", Ledger: ledger}

	result, err := d.Execute(tx, payload, 10, proof, state)
	require.NoError(t, err)
	require.Equal(t, crypto.Address(receiver), ledger.releasedNativeTo)
	require.Equal(t, big.NewInt(500), ledger.releasedNativeAmount)
	require.Equal(t, wire.KindFungible, result.Kind)
	require.Equal(t, crypto.Address(receiver), result.Receiver)
	require.Equal(t, "500", result.AmountOrTokenID)
}

func TestExecuteEmitsTransferFungibleTokenEvent(t *testing.T) {
	var receiver [20]byte
	receiver[0] = 0xAB
	payload := wire.EncodeExecutionPayload(wire.ExecutionPayload{
		Kind:            wire.KindFungible,
		Chain:           "bridgewatch-1",
		Amount:          bigToLE16(big.NewInt(500)),
		ReceiverAddress: receiver,
	})

	tx := buildTransaction(wire.TagFungible, payload)

	leaves := [][]byte{tx}
	root, proof := merkletree.BuildProof(leaves, 0)
	state := lightclient.NewState(10, genesisHeaderWithCommitRoot(10, root), root)

	hooks := &fakeHooks{}
	d := &Dispatcher{ChainName: "bridgewatch-1", Ledger: &fakeLedger{}, Hooks: hooks}

	_, err := d.Execute(tx, payload, 10, proof, state)
	require.NoError(t, err)
	require.Len(t, hooks.events, 1)
	require.Equal(t, EventTransferFungibleToken, hooks.events[0].Kind)
}

func TestExecuteFungibleToken(t *testing.T) {
	var receiver, token [20]byte
	receiver[0] = 0xAB
	token[0] = 0xCD
	payload := wire.EncodeExecutionPayload(wire.ExecutionPayload{
		Kind:            wire.KindFungible,
		Chain:           "bridgewatch-1",
		Amount:          bigToLE16(big.NewInt(42)),
		TokenAddress:    token,
		ReceiverAddress: receiver,
	})

	tx := buildTransaction(wire.TagFungible, payload)

	leaves := [][]byte{tx}
	root, proof := merkletree.BuildProof(leaves, 0)
	state := lightclient.NewState(10, genesisHeaderWithCommitRoot(10, root), root)

	ledger := &fakeLedger{}
	d := &Dispatcher{ChainName: "bridgewatch-1", Ledger: ledger}

	result, err := d.Execute(tx, payload, 10, proof, state)
	require.NoError(t, err)
	require.Equal(t, crypto.Address(token), ledger.releasedFungibleToken)
	require.Equal(t, crypto.Address(receiver), ledger.releasedFungibleTo)
	require.Equal(t, big.NewInt(42), ledger.releasedFungibleAmount)
	require.Equal(t, "42", result.AmountOrTokenID)
}

func TestExecuteNonFungible(t *testing.T) {
	var receiver, collection [20]byte
	var tokenID [16]byte
	receiver[0] = 0xAB
	collection[0] = 0xEF
	tokenID[0] = 7

	payload := wire.EncodeExecutionPayload(wire.ExecutionPayload{
		Kind:              wire.KindNonFungible,
		Chain:             "bridgewatch-1",
		TokenID:           tokenID,
		CollectionAddress: collection,
		ReceiverAddress:   receiver,
	})

	tx := buildTransaction(wire.TagNonFungible, payload)

	leaves := [][]byte{tx}
	root, proof := merkletree.BuildProof(leaves, 0)
	state := lightclient.NewState(10, genesisHeaderWithCommitRoot(10, root), root)

	ledger := &fakeLedger{}
	d := &Dispatcher{ChainName: "bridgewatch-1", Ledger: ledger}

	result, err := d.Execute(tx, payload, 10, proof, state)
	require.NoError(t, err)
	require.Equal(t, crypto.Address(collection), ledger.releasedCollection)
	require.Equal(t, crypto.Address(receiver), ledger.releasedNFTTo)
	require.Equal(t, TokenID(tokenID), ledger.releasedTokenID)
	require.Equal(t, wire.KindNonFungible, result.Kind)
	require.Equal(t, fmt.Sprintf("%x", tokenID), result.AmountOrTokenID)
}

func TestExecuteRejectsExecutionHashMismatch(t *testing.T) {
	payload := wire.EncodeExecutionPayload(wire.ExecutionPayload{Kind: wire.KindFungible, Chain: "bridgewatch-1"})
	tx := buildTransaction(wire.TagFungible, payload)
	// Corrupt the payload after the envelope was computed over the original.
	tamperedPayload := append([]byte{}, payload...)
	tamperedPayload[0] ^= 0xFF

	leaves := [][]byte{tx}
	root, proof := merkletree.BuildProof(leaves, 0)
	state := lightclient.NewState(10, genesisHeaderWithCommitRoot(10, root), root)

	d := &Dispatcher{ChainName: "bridgewatch-1", Ledger: &fakeLedger{}}
	_, err := d.Execute(tx, tamperedPayload, 10, proof, state)
	require.Error(t, err)
	require.IsType(t, errs.ExecutionHashMismatch{}, err)
}

func TestExecuteRejectsUnknownPayloadKind(t *testing.T) {
	payload := wire.EncodeExecutionPayload(wire.ExecutionPayload{Kind: wire.KindFungible, Chain: "bridgewatch-1"})
	tx := buildTransaction(99, payload)

	leaves := [][]byte{tx}
	root, proof := merkletree.BuildProof(leaves, 0)
	state := lightclient.NewState(10, genesisHeaderWithCommitRoot(10, root), root)

	d := &Dispatcher{ChainName: "bridgewatch-1", Ledger: &fakeLedger{}}
	_, err := d.Execute(tx, payload, 10, proof, state)
	require.Error(t, err)
	require.IsType(t, errs.UnknownPayloadKind{}, err)
}

func TestExecuteRejectsWrongChain(t *testing.T) {
	payload := wire.EncodeExecutionPayload(wire.ExecutionPayload{Kind: wire.KindFungible, Chain: "some-other-chain"})
	tx := buildTransaction(wire.TagFungible, payload)

	leaves := [][]byte{tx}
	root, proof := merkletree.BuildProof(leaves, 0)
	state := lightclient.NewState(10, genesisHeaderWithCommitRoot(10, root), root)

	d := &Dispatcher{ChainName: "bridgewatch-1", Ledger: &fakeLedger{}}
	_, err := d.Execute(tx, payload, 10, proof, state)
	require.Error(t, err)
	require.IsType(t, errs.WrongChain{}, err)
}

func TestExecuteRejectsLedgerFailureAtomically(t *testing.T) {
	payload := wire.EncodeExecutionPayload(wire.ExecutionPayload{
		Kind:   wire.KindFungible,
		Chain:  "bridgewatch-1",
		Amount: bigToLE16(big.NewInt(1)),
	})
	tx := buildTransaction(wire.TagFungible, payload)

	leaves := [][]byte{tx}
	root, proof := merkletree.BuildProof(leaves, 0)
	state := lightclient.NewState(10, genesisHeaderWithCommitRoot(10, root), root)

	ledger := &fakeLedger{fail: errs.InsufficientBalance{}}
	d := &Dispatcher{ChainName: "bridgewatch-1", Ledger: ledger}
	_, err := d.Execute(tx, payload, 10, proof, state)
	require.Error(t, err)
	require.IsType(t, errs.InsufficientBalance{}, err)
}

func bigToLE16(v *big.Int) [16]byte {
	be := v.Bytes()
	var out [16]byte
	for i, b := range be {
		out[len(be)-1-i] = b
	}
	return out
}

// genesisHeaderWithCommitRoot builds a minimal encoded header at height so
// lightclient.NewState can be constructed directly around a known commit
// root, without exercising Advance.
func genesisHeaderWithCommitRoot(height uint64, commitRoot [32]byte) []byte {
	h := wire.Header{BlockHeight: height, CommitMerkleRoot: commitRoot}
	copy(h.Version[:], "v0.0.1")
	return wire.EncodeHeader(h)
}
