package wire

import (
	"encoding/binary"

	"github.com/bridgewatch/lightclient/errs"
)

// decoder walks a byte slice left to right, consuming fixed and
// length-prefixed fields and tracking position for error reporting.
type decoder struct {
	buf []byte
	pos int
}

func newDecoder(buf []byte) *decoder {
	return &decoder{buf: buf}
}

func (d *decoder) remain() int {
	return len(d.buf) - d.pos
}

// Wire sizes of the two variable-length element types DecodeHeader reads a
// count-then-elements array of, used to bound the count against remaining
// input before ever allocating a slice of that count.
const (
	typedSignatureWireSize = 130 // signature:65 ∥ signerPrefix:1 ∥ signer:64
	validatorWireSize      = 73  // prefix:1 ∥ publicKey:64 ∥ votingPower:8
)

func (d *decoder) take(field string, n int) ([]byte, error) {
	if d.remain() < n {
		return nil, errs.Truncated{Field: field, Need: n, Remain: d.remain()}
	}
	b := d.buf[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

func (d *decoder) byte(field string) (byte, error) {
	b, err := d.take(field, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (d *decoder) u64(field string) (uint64, error) {
	b, err := d.take(field, 8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (d *decoder) i64(field string) (int64, error) {
	u, err := d.u64(field)
	if err != nil {
		return 0, err
	}
	return int64(u), nil
}

func (d *decoder) fixed(field string, n int) ([]byte, error) {
	return d.take(field, n)
}

// varBytes reads an 8-byte little-endian length followed by that many
// bytes, failing with LengthMismatch if the declared length overruns the
// remaining input.
func (d *decoder) varBytes(field string) ([]byte, error) {
	n, err := d.u64(field + ".length")
	if err != nil {
		return nil, err
	}
	if uint64(d.remain()) < n {
		return nil, errs.LengthMismatch{Field: field, Want: int(n), Got: d.remain()}
	}
	return d.take(field, int(n))
}

func array64(b []byte) (out [64]byte) {
	copy(out[:], b)
	return out
}

func array65(b []byte) (out [65]byte) {
	copy(out[:], b)
	return out
}

func array32(b []byte) (out [32]byte) {
	copy(out[:], b)
	return out
}

func array20(b []byte) (out [20]byte) {
	copy(out[:], b)
	return out
}

func array16(b []byte) (out [16]byte) {
	copy(out[:], b)
	return out
}

func array5(b []byte) (out [5]byte) {
	copy(out[:], b)
	return out
}

// DecodeHeader decodes a full consensus header from its fixed binary
// layout: author prefix ∥ author ∥ finalization proof ∥ previousHash ∥
// blockHeight ∥ timestamp ∥ commitMerkleRoot ∥ repositoryMerkleRoot ∥
// validators ∥ version.
func DecodeHeader(b []byte) (Header, error) {
	d := newDecoder(b)
	var h Header

	if _, err := d.byte("header.authorPrefix"); err != nil {
		return Header{}, err
	}
	author, err := d.fixed("header.author", 64)
	if err != nil {
		return Header{}, err
	}
	h.Author = array64(author)

	proofLen, err := d.u64("header.proofLength")
	if err != nil {
		return Header{}, err
	}
	if proofLen > uint64(d.remain())/typedSignatureWireSize {
		return Header{}, errs.LengthMismatch{Field: "header.proof", Want: int(proofLen) * typedSignatureWireSize, Got: d.remain()}
	}
	h.PrevBlockFinalizationProof = make([]TypedSignature, proofLen)
	for i := uint64(0); i < proofLen; i++ {
		ts, err := decodeTypedSignature(d, "header.proof")
		if err != nil {
			return Header{}, err
		}
		h.PrevBlockFinalizationProof[i] = ts
	}

	prevHash, err := d.fixed("header.previousHash", 32)
	if err != nil {
		return Header{}, err
	}
	h.PreviousHash = array32(prevHash)

	h.BlockHeight, err = d.u64("header.blockHeight")
	if err != nil {
		return Header{}, err
	}
	h.Timestamp, err = d.i64("header.timestamp")
	if err != nil {
		return Header{}, err
	}

	commitRoot, err := d.fixed("header.commitMerkleRoot", 32)
	if err != nil {
		return Header{}, err
	}
	h.CommitMerkleRoot = array32(commitRoot)

	repoRoot, err := d.fixed("header.repositoryMerkleRoot", 32)
	if err != nil {
		return Header{}, err
	}
	h.RepositoryMerkleRoot = array32(repoRoot)

	valLen, err := d.u64("header.validatorsLength")
	if err != nil {
		return Header{}, err
	}
	if valLen > uint64(d.remain())/validatorWireSize {
		return Header{}, errs.LengthMismatch{Field: "header.validators", Want: int(valLen) * validatorWireSize, Got: d.remain()}
	}
	h.Validators = make([]Validator, valLen)
	for i := uint64(0); i < valLen; i++ {
		if _, err := d.byte("header.validator.prefix"); err != nil {
			return Header{}, err
		}
		pk, err := d.fixed("header.validator.publicKey", 64)
		if err != nil {
			return Header{}, err
		}
		power, err := d.u64("header.validator.votingPower")
		if err != nil {
			return Header{}, err
		}
		h.Validators[i] = Validator{PublicKey: array64(pk), VotingPower: power}
	}

	versionLen, err := d.u64("header.versionLength")
	if err != nil {
		return Header{}, err
	}
	if versionLen != 5 {
		return Header{}, errs.LengthMismatch{Field: "header.version", Want: 5, Got: int(versionLen)}
	}
	version, err := d.fixed("header.version", 5)
	if err != nil {
		return Header{}, err
	}
	h.Version = array5(version)

	return h, nil
}

func decodeTypedSignature(d *decoder, field string) (TypedSignature, error) {
	sig, err := d.fixed(field+".signature", 65)
	if err != nil {
		return TypedSignature{}, err
	}
	if _, err := d.byte(field + ".signerPrefix"); err != nil {
		return TypedSignature{}, err
	}
	signer, err := d.fixed(field+".signer", 64)
	if err != nil {
		return TypedSignature{}, err
	}
	return TypedSignature{Signature: array65(sig), Signer: array64(signer)}, nil
}

// DecodeFinalizationProof decodes `count:8 ∥ (signature:65 ∥ prefix:1 ∥
// signer:64)*` and rejects any input whose remaining bytes are not exactly
// count·130.
func DecodeFinalizationProof(b []byte) (FinalizationProof, error) {
	d := newDecoder(b)
	count, err := d.u64("proof.count")
	if err != nil {
		return FinalizationProof{}, err
	}
	want := int(count) * 130
	if d.remain() != want {
		return FinalizationProof{}, errs.LengthMismatch{Field: "proof", Want: want, Got: d.remain()}
	}
	sigs := make([]TypedSignature, count)
	for i := uint64(0); i < count; i++ {
		ts, err := decodeTypedSignature(d, "proof.signature")
		if err != nil {
			return FinalizationProof{}, err
		}
		sigs[i] = ts
	}
	return FinalizationProof{Signatures: sigs}, nil
}

// DecodeExecutionPayload decodes a payload according to the tag supplied by
// the caller (obtained from the enclosing transaction's header length
// field), since the wire bytes themselves carry no kind discriminator.
func DecodeExecutionPayload(b []byte, tag uint64) (ExecutionPayload, error) {
	var kind PayloadKind
	switch tag {
	case TagFungible:
		kind = KindFungible
	case TagNonFungible:
		kind = KindNonFungible
	default:
		return ExecutionPayload{}, errs.UnknownPayloadKind{Tag: tag}
	}

	d := newDecoder(b)
	chain, err := d.varBytes("payload.chain")
	if err != nil {
		return ExecutionPayload{}, err
	}
	seq, err := d.fixed("payload.contractSequence", 16)
	if err != nil {
		return ExecutionPayload{}, err
	}
	if _, err := d.fixed("payload.enumTag", 4); err != nil {
		return ExecutionPayload{}, err
	}
	addr, err := d.fixed("payload.address", 20)
	if err != nil {
		return ExecutionPayload{}, err
	}
	amountOrTokenID, err := d.fixed("payload.amountOrTokenId", 16)
	if err != nil {
		return ExecutionPayload{}, err
	}
	receiver, err := d.fixed("payload.receiverAddress", 20)
	if err != nil {
		return ExecutionPayload{}, err
	}

	p := ExecutionPayload{
		Kind:             kind,
		Chain:            string(chain),
		ContractSequence: array16(seq),
		ReceiverAddress:  array20(receiver),
	}
	switch kind {
	case KindFungible:
		p.TokenAddress = array20(addr)
		p.Amount = array16(amountOrTokenID)
	case KindNonFungible:
		p.CollectionAddress = array20(addr)
		p.TokenID = array16(amountOrTokenID)
	}
	return p, nil
}
