package binarization

import (
	"github.com/pkg/errors"

	"github.com/mrjoshuak/go-mpegg/internal/bio"
)

// SplitUnitTU splits a SymbolSize-bit value into SplitUnitSize-bit
// groups, least significant first, and codes each group with TU. The
// contexts of a group follow those of the group before it.
type SplitUnitTU struct {
	SplitUnitSize uint
	SymbolSize    uint
}

// NewSplitUnitTU returns a SUTU scheme. splitUnitSize is a 4-bit field
// (1-15); symbolSize is 1-64.
func NewSplitUnitTU(splitUnitSize, symbolSize uint) (SplitUnitTU, error) {
	if splitUnitSize == 0 || splitUnitSize>>splitUnitBits != 0 {
		return SplitUnitTU{}, errors.Wrapf(ErrInvalidParameter, "SUTU splitUnitSize %d", splitUnitSize)
	}
	if symbolSize == 0 || symbolSize > 64 {
		return SplitUnitTU{}, errors.Wrapf(ErrInvalidParameter, "SUTU symbol size %d", symbolSize)
	}
	return SplitUnitTU{SplitUnitSize: splitUnitSize, SymbolSize: symbolSize}, nil
}

func (SplitUnitTU) ID() ID { return IDSplitUnitTU }

// Encode rejects values wider than SymbolSize bits.
func (b SplitUnitTU) Encode(w BinWriter, ctx int, v int64) error {
	u, err := toUint64(v)
	if err != nil {
		return err
	}
	return encodeSUTU(w, ctx, u, b.SplitUnitSize, b.SymbolSize)
}

func (b SplitUnitTU) Decode(r BinReader, ctx int) (int64, error) {
	u, err := decodeSUTU(r, ctx, b.SplitUnitSize, b.SymbolSize)
	if err != nil {
		return 0, err
	}
	return toInt64(u)
}

// NumContexts is the sum of the group cMax values; it depends on the
// symbol size only.
func (b SplitUnitTU) NumContexts(uint64) int {
	return sutuContexts(b.SplitUnitSize, b.SymbolSize)
}

func (b SplitUnitTU) WriteParams(w *bio.Writer) error {
	return w.WriteBits(uint64(b.SplitUnitSize), splitUnitBits)
}

func (SplitUnitTU) SizeInBits() int { return splitUnitBits }

// SignedSplitUnitTU codes |v| with SUTU followed by a bypass sign bit for
// non-zero values.
type SignedSplitUnitTU struct {
	SplitUnitTU
}

func (SignedSplitUnitTU) ID() ID { return IDSignedSplitUnitTU }

// Encode writes no sign bit for zero.
func (b SignedSplitUnitTU) Encode(w BinWriter, ctx int, v int64) error {
	mag, _ := magnitude(v)
	if err := encodeSUTU(w, ctx, mag, b.SplitUnitSize, b.SymbolSize); err != nil {
		return err
	}
	return encodeSign(w, v)
}

func (b SignedSplitUnitTU) Decode(r BinReader, ctx int) (int64, error) {
	mag, err := decodeSUTU(r, ctx, b.SplitUnitSize, b.SymbolSize)
	if err != nil {
		return 0, err
	}
	return decodeSigned(r, mag)
}

// DoubleTU codes min(v, CMax) with TU and, when the unary run saturates,
// the remainder v-CMax with SUTU on the contexts following the TU stage.
// A CMax of 0 skips the TU stage.
type DoubleTU struct {
	CMax          uint64
	SplitUnitSize uint
	SymbolSize    uint
}

// NewDoubleTU returns a DTU scheme with an 8-bit cMax.
func NewDoubleTU(cMax uint64, splitUnitSize, symbolSize uint) (DoubleTU, error) {
	if cMax>>cMaxBits != 0 {
		return DoubleTU{}, errors.Wrapf(ErrInvalidParameter, "DTU cMax %d", cMax)
	}
	if _, err := NewSplitUnitTU(splitUnitSize, symbolSize); err != nil {
		return DoubleTU{}, err
	}
	return DoubleTU{CMax: cMax, SplitUnitSize: splitUnitSize, SymbolSize: symbolSize}, nil
}

func (DoubleTU) ID() ID { return IDDoubleTU }

// Encode codes v up to CMax plus the largest SymbolSize-bit value.
// With CMax 0 the value goes straight to the SUTU stage at ctx.
func (b DoubleTU) Encode(w BinWriter, ctx int, v int64) error {
	u, err := toUint64(v)
	if err != nil {
		return err
	}
	return b.encode(w, ctx, u)
}

func (b DoubleTU) encode(w BinWriter, ctx int, u uint64) error {
	if err := encodeTU(w, ctx, min(u, b.CMax), b.CMax); err != nil {
		return err
	}
	if u < b.CMax {
		return nil
	}
	return encodeSUTU(w, ctx+int(b.CMax), u-b.CMax, b.SplitUnitSize, b.SymbolSize)
}

// Decode reads the SUTU stage only once the TU stage saturates, which
// a CMax of 0 does without reading a bin.
func (b DoubleTU) Decode(r BinReader, ctx int) (int64, error) {
	u, err := b.decode(r, ctx)
	if err != nil {
		return 0, err
	}
	return toInt64(u)
}

func (b DoubleTU) decode(r BinReader, ctx int) (uint64, error) {
	u, err := decodeTU(r, ctx, b.CMax)
	if err != nil || u < b.CMax {
		return u, err
	}
	rest, err := decodeSUTU(r, ctx+int(b.CMax), b.SplitUnitSize, b.SymbolSize)
	if err != nil {
		return 0, err
	}
	return b.CMax + rest, nil
}

// NumContexts is CMax plus the SUTU contexts of SymbolSize bits.
func (b DoubleTU) NumContexts(uint64) int {
	return int(b.CMax) + sutuContexts(b.SplitUnitSize, b.SymbolSize)
}

// WriteParams writes cMax followed by the split unit size.
func (b DoubleTU) WriteParams(w *bio.Writer) error {
	if err := w.WriteBits(b.CMax, cMaxBits); err != nil {
		return err
	}
	return w.WriteBits(uint64(b.SplitUnitSize), splitUnitBits)
}

func (DoubleTU) SizeInBits() int { return cMaxBits + splitUnitBits }

// SignedDoubleTU codes |v| with DTU followed by a bypass sign bit for
// non-zero values.
type SignedDoubleTU struct {
	DoubleTU
}

func (SignedDoubleTU) ID() ID { return IDSignedDoubleTU }

func (b SignedDoubleTU) Encode(w BinWriter, ctx int, v int64) error {
	mag, _ := magnitude(v)
	if err := b.encode(w, ctx, mag); err != nil {
		return err
	}
	return encodeSign(w, v)
}

func (b SignedDoubleTU) Decode(r BinReader, ctx int) (int64, error) {
	mag, err := b.decode(r, ctx)
	if err != nil {
		return 0, err
	}
	return decodeSigned(r, mag)
}
