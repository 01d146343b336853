// Package binarization maps integer symbols to and from sequences of
// context-tagged binary decisions.
//
// Every scheme writes through a BinWriter and reads through a BinReader
// so it can be driven by the arithmetic coder or by a plain test
// recorder. The caller passes the first context index of the scheme; a
// scheme never uses more than NumContexts consecutive indices from it.
package binarization

import (
	"github.com/pkg/errors"

	"github.com/mrjoshuak/go-mpegg/internal/bio"
)

var (
	// ErrInvalidID is returned for an unknown BINARIZATION_ID.
	ErrInvalidID = errors.New("invalid binarization id")

	// ErrInvalidParameter is returned for out-of-range scheme parameters.
	ErrInvalidParameter = errors.New("invalid binarization parameter")

	// ErrValueOutOfRange is returned when a value lies outside the
	// domain of a scheme.
	ErrValueOutOfRange = errors.New("value out of binarization range")

	// ErrMalformed is returned when decoded bins cannot form a value.
	ErrMalformed = errors.New("malformed binarized value")
)

// BinWriter accepts binary decisions.
type BinWriter interface {
	EncodeBin(ctx int, bin int) error
	EncodeBypass(bin int) error
}

// BinReader produces binary decisions.
type BinReader interface {
	DecodeBin(ctx int) (int, error)
	DecodeBypass() (int, error)
}

// ID is the 5-bit BINARIZATION_ID of the decoder configuration.
type ID uint8

// Binarization identifiers.
const (
	IDBinary ID = iota
	IDTruncatedUnary
	IDExpGolomb
	IDSignedExpGolomb
	IDTruncatedExpGolomb
	IDSignedTruncatedExpGolomb
	IDSplitUnitTU
	IDSignedSplitUnitTU
	IDDoubleTU
	IDSignedDoubleTU

	numIDs
)

// IDBits is the width of the BINARIZATION_ID field.
const IDBits = 5

// String returns the short name of the scheme.
func (id ID) String() string {
	switch id {
	case IDBinary:
		return "BI"
	case IDTruncatedUnary:
		return "TU"
	case IDExpGolomb:
		return "EG"
	case IDSignedExpGolomb:
		return "SEG"
	case IDTruncatedExpGolomb:
		return "TEG"
	case IDSignedTruncatedExpGolomb:
		return "STEG"
	case IDSplitUnitTU:
		return "SUTU"
	case IDSignedSplitUnitTU:
		return "SSUTU"
	case IDDoubleTU:
		return "DTU"
	case IDSignedDoubleTU:
		return "SDTU"
	default:
		return "Unknown"
	}
}

// Signed reports whether the scheme codes signed values.
func (id ID) Signed() bool {
	switch id {
	case IDSignedExpGolomb, IDSignedTruncatedExpGolomb, IDSignedSplitUnitTU, IDSignedDoubleTU:
		return true
	}
	return false
}

// ParseID maps a scheme name to its ID.
func ParseID(name string) (ID, error) {
	for id := ID(0); id < numIDs; id++ {
		if id.String() == name {
			return id, nil
		}
	}
	return 0, errors.Wrapf(ErrInvalidID, "name %q", name)
}

// Binarization is one parametrized binarization scheme.
type Binarization interface {
	// ID returns the scheme identifier.
	ID() ID
	// Encode writes v using contexts starting at ctx.
	Encode(w BinWriter, ctx int, v int64) error
	// Decode reads a value using contexts starting at ctx.
	Decode(r BinReader, ctx int) (int64, error)
	// NumContexts returns the number of contexts consumed for an
	// alphabet of the given size.
	NumContexts(alphabetSize uint64) int
	// WriteParams writes the parameter block that follows the ID.
	WriteParams(w *bio.Writer) error
	// SizeInBits returns the size of the parameter block.
	SizeInBits() int
}

// Params holds the parameters of every scheme. Each scheme reads only
// the fields it needs.
type Params struct {
	// CMax is the truncation bound of TU, TEG/STEG and DTU/SDTU.
	CMax uint64
	// SplitUnitSize is the group width of SUTU/SSUTU and DTU/SDTU.
	SplitUnitSize uint
	// SymbolSize is the coded (sub-)symbol width in bits. It is the
	// cLength of BI and the outputSymSize of the split-unit schemes.
	SymbolSize uint
}

// New constructs the scheme identified by id.
func New(id ID, p Params) (Binarization, error) {
	switch id {
	case IDBinary:
		return NewBinary(p.SymbolSize)
	case IDTruncatedUnary:
		return NewTruncatedUnary(p.CMax)
	case IDExpGolomb:
		return ExpGolomb{}, nil
	case IDSignedExpGolomb:
		return SignedExpGolomb{}, nil
	case IDTruncatedExpGolomb:
		return NewTruncatedExpGolomb(p.CMax)
	case IDSignedTruncatedExpGolomb:
		teg, err := NewTruncatedExpGolomb(p.CMax)
		if err != nil {
			return nil, err
		}
		return SignedTruncatedExpGolomb{teg}, nil
	case IDSplitUnitTU:
		return NewSplitUnitTU(p.SplitUnitSize, p.SymbolSize)
	case IDSignedSplitUnitTU:
		sutu, err := NewSplitUnitTU(p.SplitUnitSize, p.SymbolSize)
		if err != nil {
			return nil, err
		}
		return SignedSplitUnitTU{sutu}, nil
	case IDDoubleTU:
		return NewDoubleTU(p.CMax, p.SplitUnitSize, p.SymbolSize)
	case IDSignedDoubleTU:
		dtu, err := NewDoubleTU(p.CMax, p.SplitUnitSize, p.SymbolSize)
		if err != nil {
			return nil, err
		}
		return SignedDoubleTU{dtu}, nil
	default:
		return nil, errors.Wrapf(ErrInvalidID, "id %d", id)
	}
}

// Write writes the BINARIZATION_ID of b followed by its parameters.
func Write(w *bio.Writer, b Binarization) error {
	if err := w.WriteBits(uint64(b.ID()), IDBits); err != nil {
		return err
	}
	return b.WriteParams(w)
}

// Read reads a BINARIZATION_ID and its parameters. symbolSize is the coded
// (sub-)symbol width from the enclosing configuration.
func Read(r *bio.Reader, symbolSize uint) (Binarization, error) {
	id, err := ReadID(r)
	if err != nil {
		return nil, err
	}
	return ReadParams(r, id, symbolSize)
}

// ReadID reads a BINARIZATION_ID.
func ReadID(r *bio.Reader) (ID, error) {
	raw, err := r.ReadBits(IDBits)
	if err != nil {
		return 0, errors.Wrap(err, "reading binarization id")
	}
	return ID(raw), nil
}

// ReadParams reads the parameter block of scheme id and constructs it.
func ReadParams(r *bio.Reader, id ID, symbolSize uint) (Binarization, error) {
	var err error
	p := Params{SymbolSize: symbolSize}
	switch id {
	case IDTruncatedUnary, IDTruncatedExpGolomb, IDSignedTruncatedExpGolomb:
		if p.CMax, err = r.ReadBits(cMaxBits); err != nil {
			return nil, errors.Wrapf(err, "reading %s cMax", id)
		}
	case IDSplitUnitTU, IDSignedSplitUnitTU:
		v, err := r.ReadBits(splitUnitBits)
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s splitUnitSize", id)
		}
		p.SplitUnitSize = uint(v)
	case IDDoubleTU, IDSignedDoubleTU:
		if p.CMax, err = r.ReadBits(cMaxBits); err != nil {
			return nil, errors.Wrapf(err, "reading %s cMax", id)
		}
		v, err := r.ReadBits(splitUnitBits)
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s splitUnitSize", id)
		}
		p.SplitUnitSize = uint(v)
	}
	return New(id, p)
}

// SymbolSize returns the coded symbol width a scheme was built for, or 0
// for schemes whose parameters do not depend on it.
func SymbolSize(b Binarization) uint {
	switch b := b.(type) {
	case Binary:
		return b.CLength
	case SplitUnitTU:
		return b.SymbolSize
	case SignedSplitUnitTU:
		return b.SymbolSize
	case DoubleTU:
		return b.SymbolSize
	case SignedDoubleTU:
		return b.SymbolSize
	}
	return 0
}

const (
	cMaxBits      = 8
	splitUnitBits = 4
)
