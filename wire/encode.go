package wire

import "encoding/binary"

// encoder is the forward-direction counterpart of decoder: it appends
// fixed and length-prefixed fields to a growing byte slice.
type encoder struct {
	buf []byte
}

func (e *encoder) putByte(b byte) {
	e.buf = append(e.buf, b)
}

func (e *encoder) putFixed(b []byte) {
	e.buf = append(e.buf, b...)
}

func (e *encoder) putU64(v uint64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	e.buf = append(e.buf, tmp[:]...)
}

func (e *encoder) putI64(v int64) {
	e.putU64(uint64(v))
}

func (e *encoder) putU32(v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	e.buf = append(e.buf, tmp[:]...)
}

func (e *encoder) putVarBytes(b []byte) {
	e.putU64(uint64(len(b)))
	e.buf = append(e.buf, b...)
}

func putTypedSignature(e *encoder, ts TypedSignature) {
	e.putFixed(ts.Signature[:])
	e.putByte(0x04)
	e.putFixed(ts.Signer[:])
}

// EncodeHeader produces the exact byte layout DecodeHeader consumes, so
// Decode(Encode(h)) reproduces h field for field.
func EncodeHeader(h Header) []byte {
	e := &encoder{}
	e.putByte(0x04)
	e.putFixed(h.Author[:])

	e.putU64(uint64(len(h.PrevBlockFinalizationProof)))
	for _, ts := range h.PrevBlockFinalizationProof {
		putTypedSignature(e, ts)
	}

	e.putFixed(h.PreviousHash[:])
	e.putU64(h.BlockHeight)
	e.putI64(h.Timestamp)
	e.putFixed(h.CommitMerkleRoot[:])
	e.putFixed(h.RepositoryMerkleRoot[:])

	e.putU64(uint64(len(h.Validators)))
	for _, v := range h.Validators {
		e.putByte(0x04)
		e.putFixed(v.PublicKey[:])
		e.putU64(v.VotingPower)
	}

	e.putU64(5)
	e.putFixed(h.Version[:])

	return e.buf
}

// EncodeFinalizationProof produces `count:8 ∥ (signature:65 ∥ prefix:1 ∥
// signer:64)*`.
func EncodeFinalizationProof(p FinalizationProof) []byte {
	e := &encoder{}
	e.putU64(uint64(len(p.Signatures)))
	for _, ts := range p.Signatures {
		putTypedSignature(e, ts)
	}
	return e.buf
}

// EncodeExecutionPayload produces `chainLen:8 ∥ chain:var ∥
// contractSequence:16 ∥ enumTag:4 ∥ address:20 ∥ amountOrTokenId:16 ∥
// address:20` for either payload kind.
func EncodeExecutionPayload(p ExecutionPayload) []byte {
	e := &encoder{}
	e.putVarBytes([]byte(p.Chain))
	e.putFixed(p.ContractSequence[:])

	switch p.Kind {
	case KindFungible:
		e.putU32(uint32(KindFungible))
		e.putFixed(p.TokenAddress[:])
		e.putFixed(p.Amount[:])
	case KindNonFungible:
		e.putU32(uint32(KindNonFungible))
		e.putFixed(p.CollectionAddress[:])
		e.putFixed(p.TokenID[:])
	}
	e.putFixed(p.ReceiverAddress[:])

	return e.buf
}
