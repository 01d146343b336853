package transform

import (
	"github.com/pkg/errors"

	"github.com/mrjoshuak/go-mpegg/internal/binarization"
	"github.com/mrjoshuak/go-mpegg/internal/cabac"
	"github.com/mrjoshuak/go-mpegg/internal/payload"
	"github.com/mrjoshuak/go-mpegg/internal/suffix"
)

// BWTEncoder buffers byte symbols and codes their Burrows-Wheeler
// transform as a single NO_TRANSFORM stream.
//
// The transform sorts the rotations of the block followed by an implicit
// terminator smaller than every byte. The terminator is not coded: its
// row is dropped from the output and reported by FirstCharIndex.
type BWTEncoder struct {
	enc   *cabac.Encoder
	buf   []byte
	first int
}

// NewBWTEncoder creates an encoder whose output is coded with cfg.
func NewBWTEncoder(cfg *cabac.Config) (*BWTEncoder, error) {
	enc, err := cabac.NewEncoder(cfg)
	if err != nil {
		return nil, err
	}
	return &BWTEncoder{enc: enc}, nil
}

// Write appends one byte symbol.
func (e *BWTEncoder) Write(v int64) error {
	if v < 0 || v > 0xFF {
		return errors.Wrapf(binarization.ErrValueOutOfRange, "BWT symbol %d is not a byte", v)
	}
	e.buf = append(e.buf, byte(v))
	return nil
}

// Close transforms the buffered block and returns the coded stream.
func (e *BWTEncoder) Close() ([]payload.Payload, error) {
	var out []byte
	out, e.first = BWT(e.buf)
	for _, b := range out {
		if err := e.enc.Encode(int64(b)); err != nil {
			return nil, err
		}
	}
	return closeAll(e.enc)
}

// FirstCharIndex returns the row of the dropped terminator. It is valid
// after Close.
func (e *BWTEncoder) FirstCharIndex() int {
	return e.first
}

// BWT returns the Burrows-Wheeler transform of b with the terminator row
// removed, and that row's index.
func BWT(b []byte) ([]byte, int) {
	n := len(b)
	if n == 0 {
		return nil, 0
	}
	s := make([]int, n+1)
	for i, c := range b {
		s[i] = int(c) + 1
	}
	sa := suffix.Array(s, 256)

	out := make([]byte, 0, n)
	first := 0
	for row, p := range sa {
		if p == 0 {
			first = row
			continue
		}
		out = append(out, b[p-1])
	}
	return out, first
}
