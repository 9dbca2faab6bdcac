// Package errs collects the typed error values the light client and
// withdrawal engine can return. Each kind gets its own struct so callers can
// use errors.As instead of matching on strings.
package errs

import "fmt"

// Codec errors, raised while decoding a header, finalization proof or
// execution payload from its fixed binary layout.

// Truncated means the decoder ran past the end of the input before it
// finished reading a field.
type Truncated struct {
	Field  string
	Need   int
	Remain int
}

func (e Truncated) Error() string {
	return fmt.Sprintf("codec: truncated input decoding %s: need %d bytes, %d remain", e.Field, e.Need, e.Remain)
}

// LengthMismatch means a declared length field is inconsistent with the
// bytes actually remaining in the input.
type LengthMismatch struct {
	Field string
	Want  int
	Got   int
}

func (e LengthMismatch) Error() string {
	return fmt.Sprintf("codec: length mismatch decoding %s: want %d, got %d", e.Field, e.Want, e.Got)
}

// Header-chain errors, raised by HeaderValidator.Advance.

// HeightGap means the candidate header's height is not exactly one greater
// than the currently accepted header's height.
type HeightGap struct {
	Have uint64
	Want uint64
}

func (e HeightGap) Error() string {
	return fmt.Sprintf("header: height gap: have %d, want %d", e.Have, e.Want)
}

// BrokenChain means the candidate header's previousHash does not match the
// keccak256 of the currently accepted header's raw bytes.
type BrokenChain struct{}

func (e BrokenChain) Error() string { return "header: previousHash does not match keccak256(lastHeader)" }

// NonMonotoneTime means the candidate header's timestamp precedes the
// currently accepted header's timestamp.
type NonMonotoneTime struct {
	Prev int64
	Next int64
}

func (e NonMonotoneTime) Error() string {
	return fmt.Sprintf("header: non-monotone time: prev %d, next %d", e.Prev, e.Next)
}

// UnknownAuthor means the candidate header's author does not appear in the
// previous header's validator set.
type UnknownAuthor struct{}

func (e UnknownAuthor) Error() string { return "header: author not found in previous validator set" }

// InsufficientQuorum means the finalization proof's validator-credited
// voting power does not exceed two thirds of the total.
type InsufficientQuorum struct {
	Voted uint64
	Total uint64
}

func (e InsufficientQuorum) Error() string {
	return fmt.Sprintf("header: insufficient quorum: voted %d of %d", e.Voted, e.Total)
}

// Merkle errors, raised by the commit Merkle verifier.

// HeightOutOfRange means the requested block height has no corresponding
// commit root in the light client's state.
type HeightOutOfRange struct {
	Height     uint64
	Offset     uint64
	NumHeaders int
}

func (e HeightOutOfRange) Error() string {
	return fmt.Sprintf("merkle: height %d out of range [%d, %d)", e.Height, e.Offset, e.Offset+uint64(e.NumHeaders))
}

// BadDirection means a proof step's direction tag is neither 0 (left
// sibling) nor 1 (right sibling).
type BadDirection struct {
	Got uint32
}

func (e BadDirection) Error() string {
	return fmt.Sprintf("merkle: bad direction tag %d", e.Got)
}

// RootMismatch means the recomputed root does not equal the stored commit
// root at the given height.
type RootMismatch struct{}

func (e RootMismatch) Error() string { return "merkle: recomputed root does not match stored commit root" }

// Withdrawal-execution errors, raised by the withdrawal dispatcher.

// ExecutionHashMismatch means the keccak256 of the supplied execution
// payload does not match the hash envelope carried in the transaction.
type ExecutionHashMismatch struct{}

func (e ExecutionHashMismatch) Error() string {
	return "exec: execution payload hash does not match transaction envelope"
}

// UnknownPayloadKind means the transaction's payload-kind tag is neither 25
// (fungible) nor 26 (non-fungible).
type UnknownPayloadKind struct {
	Tag uint64
}

func (e UnknownPayloadKind) Error() string {
	return fmt.Sprintf("exec: unknown payload kind tag %d", e.Tag)
}

// WrongChain means the execution payload names a chain other than the one
// this engine is configured for.
type WrongChain struct {
	Want string
	Got  string
}

func (e WrongChain) Error() string {
	return fmt.Sprintf("exec: wrong chain: want %q, got %q", e.Want, e.Got)
}

// WrongSequence means the execution payload's contract sequence is not
// zero, i.e. it targets a future fan-out instance this engine does not
// implement.
type WrongSequence struct {
	Got uint64
}

func (e WrongSequence) Error() string {
	return fmt.Sprintf("exec: wrong contract sequence: got %d, want 0", e.Got)
}

// InsufficientBalance is surfaced from AssetLedger when a release cannot be
// satisfied.
type InsufficientBalance struct {
	Reason error
}

func (e InsufficientBalance) Error() string {
	return fmt.Sprintf("asset: insufficient balance: %v", e.Reason)
}

func (e InsufficientBalance) Unwrap() error { return e.Reason }

// Ambient-stack errors introduced by this expansion.

// InvalidConfig means a required configuration field is missing or
// malformed at load time.
type InvalidConfig struct {
	Field  string
	Reason error
}

func (e InvalidConfig) Error() string {
	return fmt.Sprintf("config: invalid %s: %v", e.Field, e.Reason)
}

func (e InvalidConfig) Unwrap() error { return e.Reason }

// CorruptStore means persisted light-client state fails to decode, or
// violates one of the light client's invariants once loaded.
type CorruptStore struct {
	Reason error
}

func (e CorruptStore) Error() string {
	return fmt.Sprintf("store: corrupt light client state: %v", e.Reason)
}

func (e CorruptStore) Unwrap() error { return e.Reason }

// RelayUnreachable means the relay client could not reach, or got a
// malformed response from, the upstream full node.
type RelayUnreachable struct {
	Endpoint string
	Reason   error
}

func (e RelayUnreachable) Error() string {
	return fmt.Sprintf("relay: %s unreachable: %v", e.Endpoint, e.Reason)
}

func (e RelayUnreachable) Unwrap() error { return e.Reason }

// StoreEmpty means a caller asked to restore an Engine from a Store that
// has never had SaveState called on it, i.e. Store.Height() == -1.
type StoreEmpty struct{}

func (e StoreEmpty) Error() string { return "store: no persisted light client state yet" }
