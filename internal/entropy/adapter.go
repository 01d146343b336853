package entropy

import "github.com/pkg/errors"

// ErrContextRange is returned when a bin addresses a context outside the
// bound table.
var ErrContextRange = errors.New("entropy: context index outside table")

func checkContext(t *Table, ctx int) error {
	if ctx < 0 || ctx >= t.Len() {
		return errors.Wrapf(ErrContextRange, "context %d of %d", ctx, t.Len())
	}
	return nil
}

// ContextWriter binds an encoder to one context table. It satisfies the
// bin writer interface used by the binarizations.
type ContextWriter struct {
	Enc   *MEncoder
	Table *Table
	// Bypass codes every bin in bypass mode regardless of its context.
	Bypass bool
}

// EncodeBin encodes bin against context ctx.
func (w ContextWriter) EncodeBin(ctx int, bin int) error {
	if w.Bypass {
		return w.Enc.EncodeBypass(bin)
	}
	if err := checkContext(w.Table, ctx); err != nil {
		return err
	}
	return w.Enc.EncodeDecision(w.Table, ctx, bin)
}

// EncodeBypass encodes bin in bypass mode.
func (w ContextWriter) EncodeBypass(bin int) error {
	return w.Enc.EncodeBypass(bin)
}

// ContextReader binds a decoder to one context table. A context outside
// the table is reported as ErrContextRange.
type ContextReader struct {
	Dec    *MDecoder
	Table  *Table
	Bypass bool
}

// DecodeBin decodes a bin against context ctx.
func (r ContextReader) DecodeBin(ctx int) (int, error) {
	if r.Bypass {
		return r.Dec.DecodeBypass()
	}
	if err := checkContext(r.Table, ctx); err != nil {
		return 0, err
	}
	return r.Dec.DecodeDecision(r.Table, ctx)
}

// DecodeBypass decodes a bin in bypass mode.
func (r ContextReader) DecodeBypass() (int, error) {
	return r.Dec.DecodeBypass()
}
