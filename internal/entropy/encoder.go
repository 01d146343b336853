package entropy

import (
	"github.com/mrjoshuak/go-mpegg/internal/bio"
)

// MEncoder implements the CABAC arithmetic encoder.
type MEncoder struct {
	w *bio.Writer

	// Low end of the interval (10 bits significant)
	low uint32
	// Interval size (9 bits)
	rng uint32
	// Bits whose value waits on a carry decision
	outstanding int
	// The first PutBit of a stream is suppressed
	firstBit bool

	bins       uint64
	terminated bool
}

// NewMEncoder creates an encoder writing to w.
func NewMEncoder(w *bio.Writer) *MEncoder {
	e := &MEncoder{w: w}
	e.Reset()
	return e
}

// Reset resets the encoder registers. Context tables are owned by the
// caller and reset separately.
func (e *MEncoder) Reset() {
	e.low = 0
	e.rng = initialRange
	e.outstanding = 0
	e.firstBit = true
	e.bins = 0
	e.terminated = false
}

// EncodeDecision encodes bin against context ctx of table t.
func (e *MEncoder) EncodeDecision(t *Table, ctx int, bin int) error {
	c := t.at(ctx)
	lps := uint32(rangeTabLPS[c.State][(e.rng>>6)&3])
	e.rng -= lps
	e.bins++

	if uint8(bin&1) != c.MPS {
		e.low += e.rng
		e.rng = lps
		t.updateLPS(c)
	} else {
		t.updateMPS(c)
	}
	return e.renorm()
}

// EncodeBypass encodes bin with fixed equal probability.
func (e *MEncoder) EncodeBypass(bin int) error {
	e.bins++
	e.low <<= 1
	if bin&1 != 0 {
		e.low += e.rng
	}
	switch {
	case e.low >= 1024:
		e.low -= 1024
		return e.putBit(1)
	case e.low < 512:
		return e.putBit(0)
	default:
		e.low -= 512
		e.outstanding++
		return nil
	}
}

// EncodeBypassBits encodes the n low bits of val in bypass mode, most
// significant first.
func (e *MEncoder) EncodeBypassBits(val uint64, n uint) error {
	for i := n; i > 0; i-- {
		if err := e.EncodeBypass(int((val >> (i - 1)) & 1)); err != nil {
			return err
		}
	}
	return nil
}

// Terminate encodes the terminating bin. bin=1 ends the stream: pending
// bits are flushed, stop bits written and the writer byte-aligned.
func (e *MEncoder) Terminate(bin int) error {
	e.rng -= 2
	e.bins++
	if bin&1 == 0 {
		return e.renorm()
	}
	e.low += e.rng
	return e.flush()
}

// Bins returns the number of bins coded since the last reset.
func (e *MEncoder) Bins() uint64 {
	return e.bins
}

// Terminated reports whether Terminate(1) has been called.
func (e *MEncoder) Terminated() bool {
	return e.terminated
}

// renorm performs encoder interval renormalization.
func (e *MEncoder) renorm() error {
	for e.rng < 256 {
		switch {
		case e.low < 256:
			if err := e.putBit(0); err != nil {
				return err
			}
		case e.low >= 512:
			e.low -= 512
			if err := e.putBit(1); err != nil {
				return err
			}
		default:
			e.low -= 256
			e.outstanding++
		}
		e.rng <<= 1
		e.low <<= 1
	}
	return nil
}

// putBit writes b followed by the outstanding bits, which take 1-b.
func (e *MEncoder) putBit(b int) error {
	if e.firstBit {
		e.firstBit = false
	} else if err := e.w.WriteBit(b); err != nil {
		return err
	}
	for ; e.outstanding > 0; e.outstanding-- {
		if err := e.w.WriteBit(1 - b); err != nil {
			return err
		}
	}
	return nil
}

// flush finalizes the interval after a terminating bin of 1.
func (e *MEncoder) flush() error {
	e.rng = 2
	if err := e.renorm(); err != nil {
		return err
	}
	if err := e.putBit(int((e.low >> 9) & 1)); err != nil {
		return err
	}
	if err := e.w.WriteBits(uint64(((e.low>>7)&3)|1), 2); err != nil {
		return err
	}
	e.terminated = true
	return e.w.Flush()
}
