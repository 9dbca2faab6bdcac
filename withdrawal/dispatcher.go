package withdrawal

import (
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/bridgewatch/lightclient/crypto"
	"github.com/bridgewatch/lightclient/errs"
	"github.com/bridgewatch/lightclient/lightclient"
	"github.com/bridgewatch/lightclient/merkletree"
	"github.com/bridgewatch/lightclient/wire"
)

// offset at which the enclosing transaction carries the payload-kind tag,
// and the width of the execution-hash envelope at the transaction's tail.
const (
	payloadKindTagOffset = 73
	execHashEnvelopeLen  = 68
	execHashHexLen       = 64
)

var envelopePrefix = []byte("0x")
var envelopeSuffix = []byte("\r\n")

// Dispatcher executes finalized withdrawal transactions against an
// AssetLedger, after verifying their execution-hash envelope and Merkle
// commitment. ChainName is the chain this engine's configured instance
// accepts withdrawals for; payloads naming any other chain are rejected.
// Hooks is optional; when set, a successful release emits the matching
// TransferFungibleToken/TransferNonFungibleToken event.
type Dispatcher struct {
	ChainName string
	Ledger    AssetLedger
	Hooks     HostHooks
}

// Execute implements the withdrawal dispatch algorithm: verify the
// execution-hash envelope, decode the payload by its kind tag, check
// sequence and chain, verify the transaction's Merkle commitment, then
// release the asset. On success it returns a Result summarizing what was
// released, for the caller's own logging.
func (d *Dispatcher) Execute(transactionBytes, executionPayloadBytes []byte, blockHeight uint64, merkleProofBytes []byte, state *lightclient.State) (Result, error) {
	if err := verifyExecutionHashEnvelope(transactionBytes, executionPayloadBytes); err != nil {
		return Result{}, err
	}

	tag, err := payloadKindTag(transactionBytes)
	if err != nil {
		return Result{}, err
	}

	payload, err := wire.DecodeExecutionPayload(executionPayloadBytes, tag)
	if err != nil {
		return Result{}, err
	}

	if !isZeroSequence(payload.ContractSequence) {
		return Result{}, errs.WrongSequence{Got: sequenceAsUint64(payload.ContractSequence)}
	}
	if payload.Chain != d.ChainName {
		return Result{}, errs.WrongChain{Want: d.ChainName, Got: payload.Chain}
	}

	if err := merkletree.VerifyCommitment(transactionBytes, state.CommitRoots(), merkleProofBytes, blockHeight, state.HeightOffset()); err != nil {
		return Result{}, err
	}

	return d.release(payload)
}

func (d *Dispatcher) release(payload wire.ExecutionPayload) (Result, error) {
	receiver := crypto.Address(payload.ReceiverAddress)

	switch payload.Kind {
	case wire.KindFungible:
		token := crypto.Address(payload.TokenAddress)
		amount := bigFromLE(payload.Amount)
		if isZeroAddress(token) {
			if err := d.Ledger.ReleaseNative(receiver, amount); err != nil {
				return Result{}, err
			}
		} else if err := d.Ledger.ReleaseFungible(token, receiver, amount); err != nil {
			return Result{}, err
		}
		d.emit(EventTransferFungibleToken, map[string]interface{}{
			"token":    token,
			"receiver": receiver,
			"amount":   amount,
		})
		return Result{Kind: wire.KindFungible, Receiver: receiver, AmountOrTokenID: amount.String()}, nil
	case wire.KindNonFungible:
		collection := crypto.Address(payload.CollectionAddress)
		tokenID := TokenID(payload.TokenID)
		if err := d.Ledger.ReleaseNonFungible(collection, receiver, tokenID); err != nil {
			return Result{}, err
		}
		d.emit(EventTransferNonFungibleToken, map[string]interface{}{
			"collection": collection,
			"receiver":   receiver,
			"tokenId":    tokenID,
		})
		return Result{Kind: wire.KindNonFungible, Receiver: receiver, AmountOrTokenID: fmt.Sprintf("%x", tokenID)}, nil
	default:
		return Result{}, errs.UnknownPayloadKind{}
	}
}

func (d *Dispatcher) emit(kind string, fields map[string]interface{}) {
	if d.Hooks == nil {
		return
	}
	d.Hooks.EmitEvent(kind, fields)
}

// verifyExecutionHashEnvelope parses the 68-byte envelope at the tail of
// transactionBytes and checks its 64 hex chars decode to
// keccak256(executionPayloadBytes).
func verifyExecutionHashEnvelope(transactionBytes, executionPayloadBytes []byte) error {
	if len(transactionBytes) < execHashEnvelopeLen {
		return errs.Truncated{Field: "transaction.executionHashEnvelope", Need: execHashEnvelopeLen, Remain: len(transactionBytes)}
	}
	envelope := transactionBytes[len(transactionBytes)-execHashEnvelopeLen:]
	hexPart := envelope[len(envelopePrefix) : len(envelopePrefix)+execHashHexLen]

	want := crypto.Keccak256(executionPayloadBytes)
	var got [32]byte
	if _, err := hex.Decode(got[:], hexPart); err != nil {
		return errs.ExecutionHashMismatch{}
	}
	if got != want {
		return errs.ExecutionHashMismatch{}
	}
	return nil
}

// payloadKindTag reads the 8-byte little-endian tag carried at offset 73
// of the transaction.
func payloadKindTag(transactionBytes []byte) (uint64, error) {
	if len(transactionBytes) < payloadKindTagOffset+8 {
		return 0, errs.Truncated{Field: "transaction.payloadKindTag", Need: payloadKindTagOffset + 8, Remain: len(transactionBytes)}
	}
	b := transactionBytes[payloadKindTagOffset : payloadKindTagOffset+8]
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v, nil
}

func isZeroSequence(seq [16]byte) bool {
	for _, b := range seq {
		if b != 0 {
			return false
		}
	}
	return true
}

func sequenceAsUint64(seq [16]byte) uint64 {
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(seq[i])
	}
	return v
}

func isZeroAddress(a crypto.Address) bool {
	for _, b := range a {
		if b != 0 {
			return false
		}
	}
	return true
}

func bigFromLE(b [16]byte) *big.Int {
	be := make([]byte, 16)
	for i := 0; i < 16; i++ {
		be[i] = b[15-i]
	}
	return new(big.Int).SetBytes(be)
}

// BuildExecutionHashEnvelope is a test-only helper producing the 68-byte
// tail envelope Execute expects, from the keccak256 of an execution
// payload.
func BuildExecutionHashEnvelope(payloadHash [32]byte) []byte {
	out := make([]byte, 0, execHashEnvelopeLen)
	out = append(out, envelopePrefix...)
	out = append(out, []byte(hex.EncodeToString(payloadHash[:]))...)
	out = append(out, envelopeSuffix...)
	return out
}
