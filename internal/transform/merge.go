package transform

import (
	"github.com/pkg/errors"

	"github.com/mrjoshuak/go-mpegg/internal/binarization"
	"github.com/mrjoshuak/go-mpegg/internal/cabac"
	"github.com/mrjoshuak/go-mpegg/internal/payload"
)

// mergeEncoder splits each symbol into bit fields, the first stream
// taking the most significant bits.
type mergeEncoder struct {
	encs   []*cabac.Encoder
	sizes  []uint
	shifts []uint
	total  uint
}

func newMergeEncoder(c *Config, encs []*cabac.Encoder) *mergeEncoder {
	e := &mergeEncoder{encs: encs, shifts: c.MergeShifts()}
	for _, s := range c.Streams {
		e.sizes = append(e.sizes, s.OutputSymbolSize)
		e.total += s.OutputSymbolSize
	}
	return e
}

func (e *mergeEncoder) Write(v int64) error {
	if v < 0 || uint64(v)>>e.total != 0 {
		return errors.Wrapf(binarization.ErrValueOutOfRange, "merged symbol %d does not fit %d bits", v, e.total)
	}
	for i, enc := range e.encs {
		part := (uint64(v) >> e.shifts[i]) & (1<<e.sizes[i] - 1)
		if err := enc.Encode(int64(part)); err != nil {
			return errors.Wrapf(err, "merge stream %d", i)
		}
	}
	return nil
}

func (e *mergeEncoder) Close() ([]payload.Payload, error) {
	return closeAll(e.encs...)
}

type mergeDecoder struct {
	decs  []*cabac.Decoder
	sizes []uint
}

func newMergeDecoder(c *Config, decs []*cabac.Decoder) *mergeDecoder {
	d := &mergeDecoder{decs: decs}
	for _, s := range c.Streams {
		d.sizes = append(d.sizes, s.OutputSymbolSize)
	}
	return d
}

func (d *mergeDecoder) Read() (int64, error) {
	var v uint64
	for i, dec := range d.decs {
		var part int64
		var err error
		if i == 0 {
			part, err = dec.Decode()
		} else {
			part, err = nextOf(dec, "merge")
		}
		if err != nil {
			return 0, err
		}
		v = v<<d.sizes[i] | uint64(part)
	}
	return int64(v), nil
}

func (d *mergeDecoder) HasNext() bool { return d.decs[0].HasNext() }
