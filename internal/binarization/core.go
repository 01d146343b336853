package binarization

import (
	"math"
	"math/bits"

	"github.com/pkg/errors"
)

// encodeTU writes v ones, then a terminating zero unless v == cMax.
// Position i uses context ctx+i.
func encodeTU(w BinWriter, ctx int, v, cMax uint64) error {
	if v > cMax {
		return errors.Wrapf(ErrValueOutOfRange, "TU value %d exceeds cMax %d", v, cMax)
	}
	for i := uint64(0); i < v; i++ {
		if err := w.EncodeBin(ctx+int(i), 1); err != nil {
			return err
		}
	}
	if v < cMax {
		return w.EncodeBin(ctx+int(v), 0)
	}
	return nil
}

func decodeTU(r BinReader, ctx int, cMax uint64) (uint64, error) {
	var v uint64
	for v < cMax {
		bin, err := r.DecodeBin(ctx + int(v))
		if err != nil {
			return 0, err
		}
		if bin == 0 {
			break
		}
		v++
	}
	return v, nil
}

// encodeEG writes the order-0 Exp-Golomb code of u: n zeros and a one as
// context-coded prefix, then n bypass suffix bits of u+1.
func encodeEG(w BinWriter, ctx int, u uint64) error {
	if u == math.MaxUint64 {
		return errors.Wrap(ErrValueOutOfRange, "EG value overflows 64 bits")
	}
	val := u + 1
	n := bits.Len64(val) - 1
	for i := 0; i < n; i++ {
		if err := w.EncodeBin(ctx+i, 0); err != nil {
			return err
		}
	}
	if err := w.EncodeBin(ctx+n, 1); err != nil {
		return err
	}
	for i := n; i > 0; i-- {
		if err := w.EncodeBypass(int((val >> (i - 1)) & 1)); err != nil {
			return err
		}
	}
	return nil
}

func decodeEG(r BinReader, ctx int) (uint64, error) {
	n := 0
	for {
		bin, err := r.DecodeBin(ctx + n)
		if err != nil {
			return 0, err
		}
		if bin == 1 {
			break
		}
		n++
		if n > 63 {
			return 0, errors.Wrap(ErrMalformed, "EG prefix longer than 63 zeros")
		}
	}
	val := uint64(1)
	for i := 0; i < n; i++ {
		bin, err := r.DecodeBypass()
		if err != nil {
			return 0, err
		}
		val = (val << 1) | uint64(bin)
	}
	return val - 1, nil
}

// egContexts is the prefix length of the largest value of an alphabet.
func egContexts(alphabetSize uint64) int {
	if alphabetSize == 0 {
		return 0
	}
	return bits.Len64(alphabetSize)
}

// splitGroups calls fn for each group of a split-unit code, low bits first.
func splitGroups(size, unit uint, fn func(shift uint, cMax uint64) error) error {
	for shift := uint(0); shift < size; shift += unit {
		width := unit
		if size-shift < unit {
			width = size - shift
		}
		if err := fn(shift, 1<<width-1); err != nil {
			return err
		}
	}
	return nil
}

func encodeSUTU(w BinWriter, ctx int, u uint64, unit, size uint) error {
	if size < 64 && u>>size != 0 {
		return errors.Wrapf(ErrValueOutOfRange, "SUTU value %d exceeds %d bits", u, size)
	}
	return splitGroups(size, unit, func(shift uint, cMax uint64) error {
		if err := encodeTU(w, ctx, (u>>shift)&cMax, cMax); err != nil {
			return err
		}
		ctx += int(cMax)
		return nil
	})
}

func decodeSUTU(r BinReader, ctx int, unit, size uint) (uint64, error) {
	var u uint64
	err := splitGroups(size, unit, func(shift uint, cMax uint64) error {
		g, err := decodeTU(r, ctx, cMax)
		if err != nil {
			return err
		}
		u |= g << shift
		ctx += int(cMax)
		return nil
	})
	return u, err
}

func sutuContexts(unit, size uint) int {
	n := 0
	_ = splitGroups(size, unit, func(_ uint, cMax uint64) error {
		n += int(cMax)
		return nil
	})
	return n
}

// magnitude splits v into |v| and its sign.
func magnitude(v int64) (uint64, bool) {
	if v < 0 {
		return uint64(-v), true
	}
	return uint64(v), false
}

// encodeSign writes the bypass sign bit of a non-zero value.
func encodeSign(w BinWriter, v int64) error {
	if v == 0 {
		return nil
	}
	if v < 0 {
		return w.EncodeBypass(1)
	}
	return w.EncodeBypass(0)
}

// decodeSigned reads the sign bit of a non-zero magnitude.
func decodeSigned(r BinReader, mag uint64) (int64, error) {
	if mag == 0 {
		return 0, nil
	}
	neg, err := r.DecodeBypass()
	if err != nil {
		return 0, err
	}
	if neg == 1 {
		if mag > 1<<63 {
			return 0, errors.Wrapf(ErrMalformed, "magnitude %d overflows int64", mag)
		}
		return -int64(mag), nil
	}
	return toInt64(mag)
}

func toInt64(u uint64) (int64, error) {
	if u > math.MaxInt64 {
		return 0, errors.Wrapf(ErrMalformed, "value %d overflows int64", u)
	}
	return int64(u), nil
}

func toUint64(v int64) (uint64, error) {
	if v < 0 {
		return 0, errors.Wrapf(ErrValueOutOfRange, "negative value %d", v)
	}
	return uint64(v), nil
}
