package entropy

import (
	"github.com/pkg/errors"

	"github.com/mrjoshuak/go-mpegg/internal/bio"
)

// MDecoder implements the CABAC arithmetic decoder.
type MDecoder struct {
	r *bio.Reader

	// Interval size (9 bits)
	rng uint32
	// Offset of the code value inside the interval
	offset uint32
}

// NewMDecoder creates a decoder reading from r. It consumes the first
// 9 bits of the stream.
func NewMDecoder(r *bio.Reader) (*MDecoder, error) {
	d := &MDecoder{r: r, rng: initialRange}
	v, err := r.ReadBits(9)
	if err != nil {
		return nil, errors.Wrap(err, "initialising arithmetic decoder")
	}
	d.offset = uint32(v)
	return d, nil
}

// DecodeDecision decodes a bin against context ctx of table t.
func (d *MDecoder) DecodeDecision(t *Table, ctx int) (int, error) {
	c := t.at(ctx)
	lps := uint32(rangeTabLPS[c.State][(d.rng>>6)&3])
	d.rng -= lps

	var bin int
	if d.offset >= d.rng {
		bin = int(1 - c.MPS)
		d.offset -= d.rng
		d.rng = lps
		t.updateLPS(c)
	} else {
		bin = int(c.MPS)
		t.updateMPS(c)
	}
	return bin, d.renorm()
}

// DecodeBypass decodes a bin coded with fixed equal probability.
func (d *MDecoder) DecodeBypass() (int, error) {
	bit, err := d.r.ReadBit()
	if err != nil {
		return 0, err
	}
	d.offset = (d.offset << 1) | uint32(bit)
	if d.offset >= d.rng {
		d.offset -= d.rng
		return 1, nil
	}
	return 0, nil
}

// DecodeBypassBits decodes n bypass bins into an integer, most significant
// first.
func (d *MDecoder) DecodeBypassBits(n uint) (uint64, error) {
	var v uint64
	for i := uint(0); i < n; i++ {
		bin, err := d.DecodeBypass()
		if err != nil {
			return 0, err
		}
		v = (v << 1) | uint64(bin)
	}
	return v, nil
}

// DecodeTerminate decodes the terminating bin. After a 1 the stream is
// finished and the reader is aligned to the next byte.
func (d *MDecoder) DecodeTerminate() (int, error) {
	d.rng -= 2
	if d.offset >= d.rng {
		d.r.Align()
		return 1, nil
	}
	return 0, d.renorm()
}

// renorm performs decoder interval renormalization.
func (d *MDecoder) renorm() error {
	for d.rng < 256 {
		bit, err := d.r.ReadBit()
		if err != nil {
			return err
		}
		d.rng <<= 1
		d.offset = (d.offset << 1) | uint32(bit)
	}
	return nil
}
