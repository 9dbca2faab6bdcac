// Package merkletree verifies that a transaction is committed under one of
// the light client's accepted commit roots, given a directional sibling
// path.
package merkletree

import (
	"encoding/binary"

	"github.com/bridgewatch/lightclient/crypto"
	"github.com/bridgewatch/lightclient/errs"
)

// direction discriminates which side of the accumulator a proof step's
// sibling sits on.
const (
	dirSiblingLeft  uint32 = 0
	dirSiblingRight uint32 = 1
)

// VerifyCommitment proves that transactionBytes is committed under
// commitRoots[blockHeight-heightOffset] by folding the directional sibling
// path in proofBytes over keccak256(transactionBytes).
func VerifyCommitment(transactionBytes []byte, commitRoots [][32]byte, proofBytes []byte, blockHeight, heightOffset uint64) error {
	if blockHeight < heightOffset || blockHeight-heightOffset >= uint64(len(commitRoots)) {
		return errs.HeightOutOfRange{Height: blockHeight, Offset: heightOffset, NumHeaders: len(commitRoots)}
	}
	root := commitRoots[blockHeight-heightOffset]

	acc := crypto.Keccak256(transactionBytes)

	if len(proofBytes) < 8 {
		return errs.Truncated{Field: "merkleProof.pathLength", Need: 8, Remain: len(proofBytes)}
	}
	pathLen := binary.LittleEndian.Uint64(proofBytes[:8])
	pos := 8

	for i := uint64(0); i < pathLen; i++ {
		if len(proofBytes)-pos < 36 {
			return errs.Truncated{Field: "merkleProof.step", Need: 36, Remain: len(proofBytes) - pos}
		}
		dir := binary.LittleEndian.Uint32(proofBytes[pos : pos+4])
		var sibling [32]byte
		copy(sibling[:], proofBytes[pos+4:pos+36])
		pos += 36

		switch dir {
		case dirSiblingLeft:
			acc = hashPair(sibling, acc)
		case dirSiblingRight:
			acc = hashPair(acc, sibling)
		default:
			return errs.BadDirection{Got: dir}
		}
	}

	if acc != root {
		return errs.RootMismatch{}
	}
	return nil
}

func hashPair(left, right [32]byte) [32]byte {
	buf := make([]byte, 64)
	copy(buf[:32], left[:])
	copy(buf[32:], right[:])
	return crypto.Keccak256(buf)
}

// BuildProof is a test-only helper: it computes the binary Merkle root
// over leaves and the directional sibling path for leaves[index], in the
// wire format VerifyCommitment consumes.
func BuildProof(leaves [][]byte, index int) (root [32]byte, proof []byte) {
	if len(leaves) == 0 {
		return [32]byte{}, encodeProof(nil)
	}

	level := make([][32]byte, len(leaves))
	for i, leaf := range leaves {
		level[i] = crypto.Keccak256(leaf)
	}

	var steps []step
	idx := index
	for len(level) > 1 {
		next := make([][32]byte, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				// odd one out carries forward unchanged
				next = append(next, level[i])
				if idx == i {
					idx = len(next) - 1
				}
				continue
			}
			left, right := level[i], level[i+1]
			combined := hashPair(left, right)
			next = append(next, combined)

			if idx == i {
				steps = append(steps, step{dir: dirSiblingRight, sibling: right})
				idx = len(next) - 1
			} else if idx == i+1 {
				steps = append(steps, step{dir: dirSiblingLeft, sibling: left})
				idx = len(next) - 1
			}
		}
		level = next
	}

	return level[0], encodeProof(steps)
}

type step struct {
	dir     uint32
	sibling [32]byte
}

func encodeProof(steps []step) []byte {
	buf := make([]byte, 8, 8+len(steps)*36)
	binary.LittleEndian.PutUint64(buf[:8], uint64(len(steps)))
	for _, s := range steps {
		var tmp [36]byte
		binary.LittleEndian.PutUint32(tmp[:4], s.dir)
		copy(tmp[4:], s.sibling[:])
		buf = append(buf, tmp[:]...)
	}
	return buf
}
