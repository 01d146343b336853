package cabac

import (
	"bytes"
	"math"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/mrjoshuak/go-mpegg/internal/binarization"
	"github.com/mrjoshuak/go-mpegg/internal/bio"
	"github.com/mrjoshuak/go-mpegg/internal/entropy"
	"github.com/mrjoshuak/go-mpegg/internal/logging"
)

var errClosed = errors.New("cabac: encoder closed")

// Encoder codes the symbols of one syntax-element stream.
//
// The stream starts with a 4-byte big-endian symbol count. A non-empty
// stream continues with the arithmetic-coded bins, the embedded LUT
// tables first when the configuration uses LUT_TRANSFORM, closed by a
// terminating bin.
type Encoder struct {
	cfg   Config
	buf   bytes.Buffer
	w     *bio.Writer
	enc   *entropy.MEncoder
	table *entropy.Table
	hist  *history
	lut   *LUT

	// Symbols of a LUT stream wait for Close.
	pending []int64
	count   uint64
	err     error
	closed  bool
	log     logrus.FieldLogger
}

// NewEncoder creates an encoder for cfg.
func NewEncoder(cfg *Config) (*Encoder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Encoder{
		cfg:  *cfg,
		hist: newHistory(cfg),
		log:  logging.With("cabac"),
	}
	e.w = bio.NewWriter(&e.buf)
	e.enc = entropy.NewMEncoder(e.w)
	e.table = newTable(cfg)
	return e, nil
}

func newTable(cfg *Config) *entropy.Table {
	if cfg.Bypass {
		return entropy.NewTable(0, false, nil)
	}
	return entropy.NewTable(cfg.NumContexts(), cfg.Adaptive, cfg.InitValues)
}

// Encode appends one symbol. Values outside the symbol range are
// rejected without affecting the stream; a coding failure is permanent.
func (e *Encoder) Encode(v int64) error {
	if e.closed {
		return errClosed
	}
	if e.err != nil {
		return e.err
	}
	if err := e.check(v); err != nil {
		return err
	}
	if e.count == math.MaxUint32 {
		return errors.Errorf("cabac: stream holds the maximum of %d symbols", e.count)
	}
	e.count++
	if e.cfg.Transform == SubsymLUT {
		e.pending = append(e.pending, v)
		return nil
	}
	if err := e.encodeSymbol(v); err != nil {
		e.err = err
		return err
	}
	return nil
}

// Count returns the number of symbols accepted so far.
func (e *Encoder) Count() uint64 {
	return e.count
}

func (e *Encoder) check(v int64) error {
	if !e.cfg.inRange(v) {
		return errors.Wrapf(binarization.ErrValueOutOfRange, "symbol %d does not fit %d bits", v, e.cfg.OutputSymbolSize)
	}
	return nil
}

// inRange reports whether v is a symbol of c. Signed binarizations take
// any value whose magnitude fits the output size, except under diff
// coding where symbols stay unsigned.
func (c *Config) inRange(v int64) bool {
	if c.signed() && c.Transform != SubsymDiff && v < 0 {
		if v == math.MinInt64 {
			return false
		}
		v = -v
	}
	return v >= 0 && uint64(v)>>c.OutputSymbolSize == 0
}

// split calls fn for each sub-symbol of v, most significant first.
func (c *Config) split(v int64, fn func(lane int, s int64) error) error {
	if c.signed() {
		return fn(0, v)
	}
	n := c.NumSubsyms()
	for lane := 0; lane < n; lane++ {
		shift := uint(n-1-lane) * c.CodingSubsymSize
		if err := fn(lane, int64((uint64(v)>>shift)&c.subsymMask())); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) encodeSymbol(v int64) error {
	w := entropy.ContextWriter{Enc: e.enc, Table: e.table, Bypass: e.cfg.Bypass}
	return e.cfg.split(v, func(lane int, s int64) error {
		p := e.hist.lane(lane)
		prev0, prev1 := uint64(p[0]), uint64(p[1])
		b := e.cfg.Binarization
		coded := s
		switch e.cfg.Transform {
		case SubsymDiff:
			coded = s - p[0]
		case SubsymLUT:
			cell := e.lut.geom.cell(lane, prev0, prev1)
			coded = int64(e.lut.rank(cell, uint64(s)))
			b = e.cfg.lutBinarization(len(e.lut.cells[cell].values))
		}
		if err := b.Encode(w, e.cfg.ContextIndex(lane, prev0, prev1), coded); err != nil {
			return errors.Wrapf(err, "coding sub-symbol %d of symbol %d", lane, v)
		}
		e.hist.push(lane, s)
		return nil
	})
}

// encodeLUTStream counts the buffered symbols, writes the frozen tables
// and replays the symbols against them from a fresh state.
func (e *Encoder) encodeLUTStream() error {
	builder := NewLUTBuilder(&e.cfg)
	e.hist.reset()
	for _, v := range e.pending {
		_ = e.cfg.split(v, func(lane int, s int64) error {
			p := e.hist.lane(lane)
			builder.Count(lane, uint64(p[0]), uint64(p[1]), uint64(s))
			e.hist.push(lane, s)
			return nil
		})
	}
	e.lut = builder.Freeze()
	e.log.WithFields(logrus.Fields{
		"cells":   e.lut.Cells(),
		"entries": e.lut.Entries(),
	}).Debug("LUT frozen")

	if err := e.lut.write(entropy.ContextWriter{Enc: e.enc, Bypass: true}); err != nil {
		return err
	}
	e.hist.reset()
	e.table.Reset()
	for _, v := range e.pending {
		if err := e.encodeSymbol(v); err != nil {
			return err
		}
	}
	return nil
}

// Close terminates the stream and returns its bytes.
func (e *Encoder) Close() ([]byte, error) {
	if e.closed {
		return nil, errClosed
	}
	e.closed = true
	if e.err != nil {
		return nil, e.err
	}
	if e.count > 0 {
		if e.cfg.Transform == SubsymLUT {
			if err := e.encodeLUTStream(); err != nil {
				return nil, err
			}
		}
		if err := e.enc.Terminate(1); err != nil {
			return nil, err
		}
		if !e.enc.Terminated() || !e.w.Aligned() {
			return nil, errors.New("cabac: stream not byte-aligned after the terminating bin")
		}
	}

	var out bytes.Buffer
	out.Grow(symbolCountBytes + e.buf.Len())
	w := bio.NewWriter(&out)
	if err := w.WriteBits(e.count, 8*symbolCountBytes); err != nil {
		return nil, err
	}
	out.Write(e.buf.Bytes())

	e.log.WithFields(logrus.Fields{
		"symbols": e.count,
		"bins":    e.enc.Bins(),
		"bits":    e.w.BitsWritten(),
		"bytes":   out.Len(),
	}).Debug("Syntax-element stream closed")
	return out.Bytes(), nil
}

// EncodeSymbols codes symbols as one stream.
func EncodeSymbols(cfg *Config, symbols []int64) ([]byte, error) {
	e, err := NewEncoder(cfg)
	if err != nil {
		return nil, err
	}
	for _, v := range symbols {
		if err := e.Encode(v); err != nil {
			return nil, err
		}
	}
	return e.Close()
}
