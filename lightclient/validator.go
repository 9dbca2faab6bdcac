package lightclient

import (
	"bytes"

	"github.com/bridgewatch/lightclient/crypto"
	"github.com/bridgewatch/lightclient/errs"
	"github.com/bridgewatch/lightclient/wire"
)

// Advance checks that newHeaderBytes is a valid successor to the header
// currently held in state, that proofBytes proves the previous header's
// validator set reached quorum on it, and on success appends the new
// header's commit root and replaces the last accepted header. State is
// left unchanged on any failure.
func Advance(state *State, newHeaderBytes, proofBytes []byte) error {
	prev, err := wire.DecodeHeader(state.LastHeader())
	if err != nil {
		return err
	}
	next, err := wire.DecodeHeader(newHeaderBytes)
	if err != nil {
		return err
	}

	if next.BlockHeight != prev.BlockHeight+1 {
		return errs.HeightGap{Have: next.BlockHeight, Want: prev.BlockHeight + 1}
	}

	lastHeaderHash := crypto.Keccak256(state.LastHeader())
	if next.PreviousHash != lastHeaderHash {
		return errs.BrokenChain{}
	}

	if next.Timestamp < prev.Timestamp {
		return errs.NonMonotoneTime{Prev: prev.Timestamp, Next: next.Timestamp}
	}

	if !authorKnown(next.Author, prev.Validators) {
		return errs.UnknownAuthor{}
	}

	proof, err := wire.DecodeFinalizationProof(proofBytes)
	if err != nil {
		return err
	}
	if err := verifyFinalizationQuorum(prev, next.PreviousHash, proof); err != nil {
		return err
	}

	state.advance(newHeaderBytes, next.CommitMerkleRoot)
	return nil
}

// authorKnown scans prev's validator set in declaration order for a
// public key matching author's keccak256, returning on the first match.
func authorKnown(author [64]byte, validators []wire.Validator) bool {
	authorHash := crypto.Keccak256(author[:])
	for _, v := range validators {
		if crypto.Keccak256(v.PublicKey[:]) == authorHash {
			return true
		}
	}
	return false
}

// verifyFinalizationQuorum pairs proof signatures positionally with
// header's validators: the j-th signature is credited to the j-th
// validator. This is an intentional simplification of the upstream
// protocol, not an identity-based lookup, and out-of-order proofs are not
// accepted as a result.
func verifyFinalizationQuorum(header wire.Header, digest [32]byte, proof wire.FinalizationProof) error {
	var total uint64
	for _, v := range header.Validators {
		total += v.VotingPower
	}

	var voted uint64
	n := len(proof.Signatures)
	if n > len(header.Validators) {
		n = len(header.Validators)
	}
	for j := 0; j < n; j++ {
		val := header.Validators[j]
		sig := proof.Signatures[j]
		if addressesEqual(crypto.PubkeyToAddress(sig.Signer), crypto.Recover(digest, sig.Signature)) {
			voted += val.VotingPower
		}
	}

	if voted*3 <= total*2 {
		return errs.InsufficientQuorum{Voted: voted, Total: total}
	}
	return nil
}

func addressesEqual(a, b crypto.Address) bool {
	return bytes.Equal(a[:], b[:])
}
