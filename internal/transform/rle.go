package transform

import (
	"github.com/pkg/errors"

	"github.com/mrjoshuak/go-mpegg/internal/cabac"
	"github.com/mrjoshuak/go-mpegg/internal/payload"
)

// rleEncoder codes each run as its value and a sequence of lengths: guard
// for every full chunk of guard symbols beyond the first, then the
// remaining run length minus one.
type rleEncoder struct {
	lengths *cabac.Encoder
	values  *cabac.Encoder
	guard   int64
	cur     int64
	run     int64
}

func (e *rleEncoder) Write(v int64) error {
	if e.run > 0 && v == e.cur {
		e.run++
		return nil
	}
	if err := e.flush(); err != nil {
		return err
	}
	e.cur = v
	e.run = 1
	return nil
}

func (e *rleEncoder) flush() error {
	if e.run == 0 {
		return nil
	}
	if err := e.values.Encode(e.cur); err != nil {
		return err
	}
	remaining := e.run
	for remaining > e.guard {
		if err := e.lengths.Encode(e.guard); err != nil {
			return err
		}
		remaining -= e.guard
	}
	e.run = 0
	return e.lengths.Encode(remaining - 1)
}

// Close flushes the pending run. No terminator symbol is coded.
func (e *rleEncoder) Close() ([]payload.Payload, error) {
	if err := e.flush(); err != nil {
		return nil, err
	}
	return closeAll(e.lengths, e.values)
}

type rleDecoder struct {
	lengths *cabac.Decoder
	values  *cabac.Decoder
	guard   int64
	cur     int64
	left    int64
}

func (d *rleDecoder) Read() (int64, error) {
	if d.left == 0 {
		v, err := d.values.Decode()
		if err != nil {
			return 0, err
		}
		run, err := d.readRun()
		if err != nil {
			return 0, err
		}
		d.cur = v
		d.left = run
	}
	d.left--
	return d.cur, nil
}

func (d *rleDecoder) readRun() (int64, error) {
	var run int64
	for {
		l, err := nextOf(d.lengths, "RLE lengths")
		if err != nil {
			return 0, err
		}
		switch {
		case l < 0 || l > d.guard:
			return 0, errors.Wrapf(ErrCorrupt, "RLE length %d with guard %d", l, d.guard)
		case l == d.guard:
			run += d.guard
		default:
			return run + l + 1, nil
		}
	}
}

func (d *rleDecoder) HasNext() bool { return d.left > 0 || d.values.HasNext() }
