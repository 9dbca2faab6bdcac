// Package crypto implements the hashing and secp256k1 recovery primitives
// the light client and withdrawal dispatcher verify signatures with.
package crypto

import (
	"github.com/btcsuite/btcd/btcec"
	"golang.org/x/crypto/sha3"
)

// Address is the low 20 bytes of keccak256(publicKey).
type Address [20]byte

// ZeroAddress is returned by Recover when a signature fails to recover to
// any valid public key; callers treat it as "this signer did not
// contribute".
var ZeroAddress Address

// Keccak256 hashes bytes with Keccak-256 (not NIST SHA3-256).
func Keccak256(b []byte) [32]byte {
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write(b)
	var out [32]byte
	copy(out[:], hasher.Sum(nil))
	return out
}

// PubkeyToAddress derives the 20-byte address carried by a 64-byte
// uncompressed public key (X‖Y, no leading format tag).
func PubkeyToAddress(pubkey [64]byte) Address {
	h := Keccak256(pubkey[:])
	var addr Address
	copy(addr[:], h[12:])
	return addr
}

// Recover performs standard secp256k1 ECDSA recovery of the signer's
// address from a 32-byte digest and a 65-byte r‖s‖v signature, v ∈
// {27,28}. Any malformed or invalid signature resolves to ZeroAddress
// rather than an error, matching the upstream verifier's treatment of a
// bad signature as a non-contributing signer.
func Recover(digest [32]byte, sig [65]byte) Address {
	v := sig[64]
	if v != 27 && v != 28 {
		return ZeroAddress
	}

	// btcec's compact signature format is recoveryID ‖ r ‖ s; our wire
	// format is r ‖ s ‖ v, so reassemble it.
	compact := make([]byte, 65)
	compact[0] = v
	copy(compact[1:33], sig[0:32])
	copy(compact[33:65], sig[32:64])

	pub, _, err := btcec.RecoverCompact(btcec.S256(), compact, digest[:])
	if err != nil {
		return ZeroAddress
	}

	pk := pub.SerializeUncompressed() // 0x04 ‖ X ‖ Y, 65 bytes
	if len(pk) != 65 {
		return ZeroAddress
	}
	var full [64]byte
	copy(full[:], pk[1:])
	return PubkeyToAddress(full)
}

// Sign is a test-only helper: it builds a TypedSignature-shaped r‖s‖v
// signature over digest with privateKey, so tests and the CLI sandbox can
// construct valid finalization proofs without an external signer. It is
// never called from the verification path.
func Sign(digest [32]byte, privateKey [32]byte) (sig [65]byte, pubkey [64]byte, err error) {
	priv, pub := btcec.PrivKeyFromBytes(btcec.S256(), privateKey[:])

	sigBytes, err := priv.Sign(digest[:])
	if err != nil {
		return sig, pubkey, err
	}

	r := sigBytes.R.Bytes()
	s := sigBytes.S.Bytes()
	copy(sig[32-len(r):32], r)
	copy(sig[64-len(s):64], s)

	recID, err := recoveryID(digest, sig, pub)
	if err != nil {
		return sig, pubkey, err
	}
	sig[64] = 27 + recID

	pk := pub.SerializeUncompressed()
	copy(pubkey[:], pk[1:])
	return sig, pubkey, nil
}

// recoveryID brute-forces which of the two candidate recovery IDs makes
// Recover reproduce pub's address, since btcec's non-cgo Sign does not
// return one directly.
func recoveryID(digest [32]byte, sig [65]byte, pub *btcec.PublicKey) (byte, error) {
	want := pub.SerializeUncompressed()
	var wantAddr Address
	{
		var full [64]byte
		copy(full[:], want[1:])
		wantAddr = PubkeyToAddress(full)
	}

	for _, v := range []byte{27, 28} {
		trial := sig
		trial[64] = v
		if Recover(digest, trial) == wantAddr {
			return v - 27, nil
		}
	}
	return 0, errRecoveryIDNotFound
}

type recoveryIDError struct{}

func (recoveryIDError) Error() string { return "crypto: could not determine recovery id" }

var errRecoveryIDNotFound error = recoveryIDError{}
