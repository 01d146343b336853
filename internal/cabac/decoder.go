package cabac

import (
	"bytes"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/mrjoshuak/go-mpegg/internal/binarization"
	"github.com/mrjoshuak/go-mpegg/internal/bio"
	"github.com/mrjoshuak/go-mpegg/internal/entropy"
	"github.com/mrjoshuak/go-mpegg/internal/logging"
)

// Decoder reads the symbols of one syntax-element stream.
type Decoder struct {
	cfg       Config
	r         *bio.Reader
	dec       *entropy.MDecoder
	table     *entropy.Table
	hist      *history
	lut       *LUT
	remaining uint64
	err       error
	log       logrus.FieldLogger
}

// NewDecoder creates a decoder for a stream produced by an Encoder
// configured with cfg.
func NewDecoder(cfg *Config, data []byte) (*Decoder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := bio.NewReader(bytes.NewReader(data))
	n, err := r.ReadBits(8 * symbolCountBytes)
	if err != nil {
		return nil, errors.Wrap(err, "reading symbol count")
	}
	d := &Decoder{cfg: *cfg, r: r, remaining: n, hist: newHistory(cfg), log: logging.With("cabac")}
	if n == 0 {
		return d, nil
	}
	if d.dec, err = entropy.NewMDecoder(r); err != nil {
		return nil, err
	}
	d.table = newTable(cfg)
	if cfg.Transform == SubsymLUT {
		if d.lut, err = readLUT(entropy.ContextReader{Dec: d.dec, Bypass: true}, cfg); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// HasNext reports whether symbols remain.
func (d *Decoder) HasNext() bool {
	return d.remaining > 0 && d.err == nil
}

// Remaining returns the number of symbols not yet decoded.
func (d *Decoder) Remaining() uint64 {
	return d.remaining
}

// Decode returns the next symbol, or ErrEndOfStream once the declared
// count has been delivered. A decoding failure is permanent.
func (d *Decoder) Decode() (int64, error) {
	if d.err != nil {
		return 0, d.err
	}
	if d.remaining == 0 {
		return 0, ErrEndOfStream
	}
	v, err := d.decodeSymbol()
	if err != nil {
		d.err = err
		return 0, err
	}
	d.remaining--
	if d.remaining == 0 {
		bin, err := d.dec.DecodeTerminate()
		if err == nil && bin != 1 {
			err = errors.Wrap(ErrCorrupt, "missing terminating bin")
		}
		if err != nil {
			d.err = err
			return 0, err
		}
		d.log.WithField("bits", d.r.BitsRead()).Debug("Syntax-element stream decoded")
	}
	return v, nil
}

func (d *Decoder) decodeSymbol() (int64, error) {
	r := entropy.ContextReader{Dec: d.dec, Table: d.table, Bypass: d.cfg.Bypass}
	if d.cfg.signed() {
		s, err := d.decodeSubsym(r, 0)
		if err == nil && !d.cfg.inRange(s) {
			err = errors.Wrapf(ErrCorrupt, "symbol decoded to %d", s)
		}
		return s, err
	}
	var u uint64
	mask := d.cfg.subsymMask()
	for lane := 0; lane < d.cfg.NumSubsyms(); lane++ {
		s, err := d.decodeSubsym(r, lane)
		if err != nil {
			return 0, err
		}
		if s < 0 || uint64(s) > mask {
			return 0, errors.Wrapf(ErrCorrupt, "sub-symbol %d decoded to %d", lane, s)
		}
		u = u<<d.cfg.CodingSubsymSize | uint64(s)
	}
	return int64(u), nil
}

func (d *Decoder) decodeSubsym(r entropy.ContextReader, lane int) (int64, error) {
	p := d.hist.lane(lane)
	prev0, prev1 := uint64(p[0]), uint64(p[1])
	b := d.cfg.Binarization
	var cell *lutCell
	if d.cfg.Transform == SubsymLUT {
		if cell = d.lut.cells[d.lut.geom.cell(lane, prev0, prev1)]; cell == nil {
			return 0, errors.Wrapf(ErrCorrupt, "sub-symbol %d refers to an empty LUT cell", lane)
		}
		b = d.cfg.lutBinarization(len(cell.values))
	}
	coded, err := b.Decode(r, d.cfg.ContextIndex(lane, prev0, prev1))
	if errors.Is(err, entropy.ErrContextRange) || errors.Is(err, binarization.ErrMalformed) {
		return 0, errors.Wrapf(ErrCorrupt, "decoding sub-symbol %d: %v", lane, err)
	}
	if err != nil {
		return 0, errors.Wrapf(err, "decoding sub-symbol %d", lane)
	}
	s := coded
	switch d.cfg.Transform {
	case SubsymDiff:
		s = coded + p[0]
	case SubsymLUT:
		if coded < 0 || coded >= int64(len(cell.values)) {
			return 0, errors.Wrapf(ErrCorrupt, "LUT rank %d of %d", coded, len(cell.values))
		}
		s = int64(cell.values[coded])
	}
	d.hist.push(lane, s)
	return s, nil
}

// DecodeSymbols decodes every symbol of a stream.
func DecodeSymbols(cfg *Config, data []byte) ([]int64, error) {
	d, err := NewDecoder(cfg, data)
	if err != nil {
		return nil, err
	}
	out := make([]int64, 0, min(d.Remaining(), 1<<16))
	for d.HasNext() {
		v, err := d.Decode()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
