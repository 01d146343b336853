package transform

import (
	"github.com/mrjoshuak/go-mpegg/internal/cabac"
	"github.com/mrjoshuak/go-mpegg/internal/payload"
)

// equalityEncoder writes a flag per symbol: 1 repeats the previous symbol,
// 0 is followed by the new symbol in the values stream. A value above the
// previous one is lowered by one since it cannot equal it.
type equalityEncoder struct {
	flags  *cabac.Encoder
	values *cabac.Encoder
	prev   int64
}

func (e *equalityEncoder) Write(v int64) error {
	if v == e.prev {
		return e.flags.Encode(1)
	}
	if err := e.flags.Encode(0); err != nil {
		return err
	}
	s := v
	if v > e.prev {
		s = v - 1
	}
	if err := e.values.Encode(s); err != nil {
		return err
	}
	e.prev = v
	return nil
}

func (e *equalityEncoder) Close() ([]payload.Payload, error) {
	return closeAll(e.flags, e.values)
}

type equalityDecoder struct {
	flags  *cabac.Decoder
	values *cabac.Decoder
	prev   int64
}

func (d *equalityDecoder) Read() (int64, error) {
	flag, err := d.flags.Decode()
	if err != nil {
		return 0, err
	}
	if flag == 1 {
		return d.prev, nil
	}
	s, err := nextOf(d.values, "equality values")
	if err != nil {
		return 0, err
	}
	if s >= d.prev {
		s++
	}
	d.prev = s
	return s, nil
}

func (d *equalityDecoder) HasNext() bool { return d.flags.HasNext() }
