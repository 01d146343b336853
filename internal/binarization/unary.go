package binarization

import (
	"github.com/pkg/errors"

	"github.com/mrjoshuak/go-mpegg/internal/bio"
)

// Binary is fixed-width binary coding of CLength bits. All bits are coded
// in bypass mode.
type Binary struct {
	CLength uint
}

// NewBinary returns a binary scheme of cLength bits (1-64).
func NewBinary(cLength uint) (Binary, error) {
	if cLength == 0 || cLength > 64 {
		return Binary{}, errors.Wrapf(ErrInvalidParameter, "BI cLength %d", cLength)
	}
	return Binary{CLength: cLength}, nil
}

// ID returns IDBinary.
func (Binary) ID() ID { return IDBinary }

// Encode writes the CLength bits of v, most significant first. The
// context index is unused.
func (b Binary) Encode(w BinWriter, _ int, v int64) error {
	u, err := toUint64(v)
	if err != nil {
		return err
	}
	if b.CLength < 64 && u>>b.CLength != 0 {
		return errors.Wrapf(ErrValueOutOfRange, "BI value %d exceeds %d bits", u, b.CLength)
	}
	for i := b.CLength; i > 0; i-- {
		if err := w.EncodeBypass(int((u >> (i - 1)) & 1)); err != nil {
			return err
		}
	}
	return nil
}

// Decode reads CLength bypass bits.
func (b Binary) Decode(r BinReader, _ int) (int64, error) {
	var u uint64
	for i := uint(0); i < b.CLength; i++ {
		bin, err := r.DecodeBypass()
		if err != nil {
			return 0, err
		}
		u = (u << 1) | uint64(bin)
	}
	return toInt64(u)
}

// NumContexts is 0: every bin is bypass coded.
func (Binary) NumContexts(uint64) int        { return 0 }
func (Binary) WriteParams(*bio.Writer) error { return nil }
func (Binary) SizeInBits() int               { return 0 }

// TruncatedUnary codes v as v ones followed by a zero, the zero being
// dropped when v equals CMax.
type TruncatedUnary struct {
	CMax uint64
}

// NewTruncatedUnary returns a TU scheme with an 8-bit cMax.
func NewTruncatedUnary(cMax uint64) (TruncatedUnary, error) {
	if cMax>>cMaxBits != 0 {
		return TruncatedUnary{}, errors.Wrapf(ErrInvalidParameter, "TU cMax %d", cMax)
	}
	return TruncatedUnary{CMax: cMax}, nil
}

// ID returns IDTruncatedUnary.
func (TruncatedUnary) ID() ID { return IDTruncatedUnary }

// Encode codes v on contexts ctx to ctx+v. Values above CMax are
// rejected with ErrValueOutOfRange.
func (b TruncatedUnary) Encode(w BinWriter, ctx int, v int64) error {
	u, err := toUint64(v)
	if err != nil {
		return err
	}
	return encodeTU(w, ctx, u, b.CMax)
}

// Decode stops at the first zero bin or after CMax ones.
func (b TruncatedUnary) Decode(r BinReader, ctx int) (int64, error) {
	u, err := decodeTU(r, ctx, b.CMax)
	return int64(u), err
}

// NumContexts returns alphabetSize-1. The count follows the reference
// decoder configuration and is independent of CMax.
func (TruncatedUnary) NumContexts(alphabetSize uint64) int {
	if alphabetSize == 0 {
		return 0
	}
	return int(alphabetSize - 1)
}

// WriteParams writes the 8-bit cMax.
func (b TruncatedUnary) WriteParams(w *bio.Writer) error {
	return w.WriteBits(b.CMax, cMaxBits)
}

func (TruncatedUnary) SizeInBits() int { return cMaxBits }
