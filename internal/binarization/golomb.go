package binarization

import (
	"math"

	"github.com/pkg/errors"

	"github.com/mrjoshuak/go-mpegg/internal/bio"
)

// ExpGolomb is order-0 Exp-Golomb coding with a context-coded prefix and
// a bypass suffix.
type ExpGolomb struct{}

// ID returns IDExpGolomb.
func (ExpGolomb) ID() ID { return IDExpGolomb }

// Encode codes the prefix bit i on context ctx+i.
func (ExpGolomb) Encode(w BinWriter, ctx int, v int64) error {
	u, err := toUint64(v)
	if err != nil {
		return err
	}
	return encodeEG(w, ctx, u)
}

// Decode fails with ErrMalformed on a prefix of more than 63 zeros.
func (ExpGolomb) Decode(r BinReader, ctx int) (int64, error) {
	u, err := decodeEG(r, ctx)
	if err != nil {
		return 0, err
	}
	return toInt64(u)
}

// NumContexts is the prefix length of the largest value, plus one.
func (ExpGolomb) NumContexts(alphabetSize uint64) int { return egContexts(alphabetSize) }
func (ExpGolomb) WriteParams(*bio.Writer) error       { return nil }
func (ExpGolomb) SizeInBits() int                     { return 0 }

// SignedExpGolomb maps v to -2v when v <= 0, to 2v-1 otherwise, and codes
// the result with ExpGolomb.
type SignedExpGolomb struct{}

func (SignedExpGolomb) ID() ID { return IDSignedExpGolomb }

// Encode rejects math.MinInt64, whose mapping overflows 64 bits.
func (SignedExpGolomb) Encode(w BinWriter, ctx int, v int64) error {
	if v == math.MinInt64 {
		return errors.Wrapf(ErrValueOutOfRange, "SEG value %d", v)
	}
	var u uint64
	if v <= 0 {
		u = uint64(-v) * 2
	} else {
		u = uint64(v)*2 - 1
	}
	return encodeEG(w, ctx, u)
}

func (SignedExpGolomb) Decode(r BinReader, ctx int) (int64, error) {
	u, err := decodeEG(r, ctx)
	if err != nil {
		return 0, err
	}
	if u&1 == 0 {
		return -int64(u / 2), nil
	}
	return int64(u/2 + 1), nil
}

func (SignedExpGolomb) NumContexts(alphabetSize uint64) int { return egContexts(alphabetSize) }
func (SignedExpGolomb) WriteParams(*bio.Writer) error       { return nil }
func (SignedExpGolomb) SizeInBits() int                     { return 0 }

// TruncatedExpGolomb codes values below CMax with TU and continues with
// ExpGolomb of v-CMax once the unary run saturates.
type TruncatedExpGolomb struct {
	CMax uint64
}

// NewTruncatedExpGolomb returns a TEG scheme with an 8-bit cMax.
func NewTruncatedExpGolomb(cMax uint64) (TruncatedExpGolomb, error) {
	if cMax>>cMaxBits != 0 {
		return TruncatedExpGolomb{}, errors.Wrapf(ErrInvalidParameter, "TEG cMax %d", cMax)
	}
	return TruncatedExpGolomb{CMax: cMax}, nil
}

// ID returns IDTruncatedExpGolomb.
func (TruncatedExpGolomb) ID() ID { return IDTruncatedExpGolomb }

func (b TruncatedExpGolomb) Encode(w BinWriter, ctx int, v int64) error {
	u, err := toUint64(v)
	if err != nil {
		return err
	}
	return b.encode(w, ctx, u)
}

func (b TruncatedExpGolomb) encode(w BinWriter, ctx int, u uint64) error {
	if err := encodeTU(w, ctx, min(u, b.CMax), b.CMax); err != nil {
		return err
	}
	if u >= b.CMax {
		return encodeEG(w, ctx+int(b.CMax), u-b.CMax)
	}
	return nil
}

// Decode reads the ExpGolomb tail only after CMax ones.
func (b TruncatedExpGolomb) Decode(r BinReader, ctx int) (int64, error) {
	u, err := b.decode(r, ctx)
	if err != nil {
		return 0, err
	}
	return toInt64(u)
}

func (b TruncatedExpGolomb) decode(r BinReader, ctx int) (uint64, error) {
	u, err := decodeTU(r, ctx, b.CMax)
	if err != nil || u < b.CMax {
		return u, err
	}
	rest, err := decodeEG(r, ctx+int(b.CMax))
	if err != nil {
		return 0, err
	}
	if rest > math.MaxUint64-b.CMax {
		return 0, errors.Wrap(ErrMalformed, "TEG value overflows 64 bits")
	}
	return b.CMax + rest, nil
}

// NumContexts holds the CMax unary contexts followed by those of the
// ExpGolomb tail.
func (b TruncatedExpGolomb) NumContexts(alphabetSize uint64) int {
	return int(b.CMax) + egContexts(alphabetSize)
}

func (b TruncatedExpGolomb) WriteParams(w *bio.Writer) error {
	return w.WriteBits(b.CMax, cMaxBits)
}

func (TruncatedExpGolomb) SizeInBits() int { return cMaxBits }

// SignedTruncatedExpGolomb codes |v| with TEG followed by a bypass sign
// bit for non-zero values.
type SignedTruncatedExpGolomb struct {
	TruncatedExpGolomb
}

func (SignedTruncatedExpGolomb) ID() ID { return IDSignedTruncatedExpGolomb }

// Encode writes no sign bit for zero, which costs a single context-coded
// bin whatever CMax is.
func (b SignedTruncatedExpGolomb) Encode(w BinWriter, ctx int, v int64) error {
	mag, _ := magnitude(v)
	if err := b.encode(w, ctx, mag); err != nil {
		return err
	}
	return encodeSign(w, v)
}

// Decode reads the sign bit only after a non-zero magnitude.
func (b SignedTruncatedExpGolomb) Decode(r BinReader, ctx int) (int64, error) {
	mag, err := b.decode(r, ctx)
	if err != nil {
		return 0, err
	}
	return decodeSigned(r, mag)
}
