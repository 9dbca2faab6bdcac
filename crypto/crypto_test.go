package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeccak256KnownVector(t *testing.T) {
	// keccak256("") = c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470
	h := Keccak256(nil)
	require.Equal(t, "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470", hexString(h[:]))
}

func TestRecoverRoundTrip(t *testing.T) {
	var priv [32]byte
	priv[31] = 1 // any non-zero scalar is a valid private key

	digest := Keccak256([]byte("advance header digest"))

	sig, pubkey, err := Sign(digest, priv)
	require.NoError(t, err)

	want := PubkeyToAddress(pubkey)
	got := Recover(digest, sig)
	require.Equal(t, want, got)
}

func TestRecoverInvalidSignatureIsZeroAddress(t *testing.T) {
	var digest [32]byte
	var sig [65]byte
	sig[64] = 27 // well-formed v, but r=s=0 is not a valid signature
	require.Equal(t, ZeroAddress, Recover(digest, sig))
}

func TestRecoverBadVIsZeroAddress(t *testing.T) {
	var digest [32]byte
	var sig [65]byte
	sig[64] = 99
	require.Equal(t, ZeroAddress, Recover(digest, sig))
}

func TestPubkeyToAddressIsLow20BytesOfKeccak(t *testing.T) {
	var pk [64]byte
	pk[0] = 1
	h := Keccak256(pk[:])
	addr := PubkeyToAddress(pk)
	require.Equal(t, h[12:], addr[:])
}

func hexString(b []byte) string {
	const hextable = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, v := range b {
		out[i*2] = hextable[v>>4]
		out[i*2+1] = hextable[v&0x0f]
	}
	return string(out)
}
