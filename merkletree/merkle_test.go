package merkletree

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bridgewatch/lightclient/errs"
)

func TestBuildProofThenVerifyCommitment(t *testing.T) {
	leaves := [][]byte{
		[]byte("transaction-0"),
		[]byte("transaction-1"),
		[]byte("transaction-2"),
		[]byte("transaction-3"),
		[]byte("transaction-4"),
	}

	for index, leaf := range leaves {
		root, proof := BuildProof(leaves, index)
		err := VerifyCommitment(leaf, [][32]byte{root}, proof, 10, 10)
		require.NoError(t, err, "leaf %d should verify", index)
	}
}

func TestVerifyCommitmentHeightOutOfRange(t *testing.T) {
	root, proof := BuildProof([][]byte{[]byte("tx")}, 0)
	err := VerifyCommitment([]byte("tx"), [][32]byte{root}, proof, 5, 10)
	require.Error(t, err)
	require.IsType(t, errs.HeightOutOfRange{}, err)
}

func TestVerifyCommitmentRootMismatch(t *testing.T) {
	_, proof := BuildProof([][]byte{[]byte("tx-a"), []byte("tx-b")}, 0)
	var wrongRoot [32]byte
	wrongRoot[0] = 1
	err := VerifyCommitment([]byte("tx-a"), [][32]byte{wrongRoot}, proof, 10, 10)
	require.Error(t, err)
	require.IsType(t, errs.RootMismatch{}, err)
}

func TestVerifyCommitmentBadDirection(t *testing.T) {
	proof := make([]byte, 8+36)
	proof[0] = 1 // pathLen = 1
	proof[8] = 7 // direction tag 7, not 0 or 1
	err := VerifyCommitment([]byte("tx"), [][32]byte{{}}, proof, 10, 10)
	require.Error(t, err)
	require.IsType(t, errs.BadDirection{}, err)
}

func TestVerifyCommitmentSingleLeafTree(t *testing.T) {
	leaves := [][]byte{[]byte("only-transaction")}
	root, proof := BuildProof(leaves, 0)
	err := VerifyCommitment(leaves[0], [][32]byte{root}, proof, 0, 0)
	require.NoError(t, err)
}
