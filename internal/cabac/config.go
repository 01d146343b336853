// Package cabac implements the syntax-element coder of a descriptor
// subsequence: a symbol is split into sub-symbols, each sub-symbol is
// optionally remapped (diff coding or LUT ranking), assigned a context
// from its lane and previous values, binarized and arithmetic coded.
package cabac

import (
	"github.com/pkg/errors"

	"github.com/mrjoshuak/go-mpegg/internal/binarization"
	"github.com/mrjoshuak/go-mpegg/internal/bio"
	"github.com/mrjoshuak/go-mpegg/internal/entropy"
)

var (
	// ErrInvalidConfig is returned for an inconsistent codec configuration.
	ErrInvalidConfig = errors.New("invalid codec configuration")

	// ErrEndOfStream is returned once every declared symbol has been read.
	ErrEndOfStream = errors.New("end of stream")

	// ErrCorrupt is returned when coded data decodes to an impossible value.
	ErrCorrupt = errors.New("corrupt syntax-element stream")
)

// SubsymTransform is the transform_ID_subsym applied to each sub-symbol.
type SubsymTransform uint8

const (
	// SubsymNone binarizes the sub-symbol as is.
	SubsymNone SubsymTransform = iota
	// SubsymLUT binarizes the frequency rank of the sub-symbol.
	SubsymLUT
	// SubsymDiff binarizes the difference to the previous sub-symbol. It
	// needs a signed binarization and coding order 1 or 2.
	SubsymDiff
)

// String returns the string representation of the transform.
func (t SubsymTransform) String() string {
	switch t {
	case SubsymNone:
		return "NONE"
	case SubsymLUT:
		return "LUT_TRANSFORM"
	case SubsymDiff:
		return "DIFF_CODING"
	default:
		return "Unknown"
	}
}

// ParseSubsymTransform maps a transform name to its value.
func ParseSubsymTransform(name string) (SubsymTransform, error) {
	for t := SubsymNone; t <= SubsymDiff; t++ {
		if t.String() == name {
			return t, nil
		}
	}
	return 0, errors.Wrapf(ErrInvalidConfig, "unknown sub-symbol transform %q", name)
}

// Field widths of the configuration block.
const (
	transformBits    = 3
	symbolSizeBits   = 6
	codingOrderBits  = 2
	numContextsBits  = 16
	initValueBits    = 7
	maxOutputSize    = 1<<symbolSizeBits - 1
	maxNumContexts   = 1<<numContextsBits - 1
	maxModelledSize  = 8
	maxCodingOrder   = 2
	symbolCountBytes = 4
)

// Config is the codec configuration of one transformed sub-stream.
type Config struct {
	// Transform is applied to every sub-symbol before binarization.
	Transform SubsymTransform

	// OutputSymbolSize is the symbol width in bits (1-63).
	OutputSymbolSize uint

	// CodingSubsymSize is the sub-symbol width in bits. It must divide
	// OutputSymbolSize.
	CodingSubsymSize uint

	// CodingOrder is the number of previous sub-symbols (0-2) feeding
	// context selection and the sub-symbol transform.
	CodingOrder uint

	// ShareSubsymLUT makes every lane use the LUT of lane 0.
	ShareSubsymLUT bool

	// ShareSubsymPrv makes every lane use the previous values of lane 0.
	ShareSubsymPrv bool

	// Binarization codes each (transformed) sub-symbol.
	Binarization binarization.Binarization

	// Bypass codes every bin with equal probability; no contexts are used.
	Bypass bool

	// Adaptive selects adaptive probability estimation.
	Adaptive bool

	// InitValues holds one 7-bit initialisation value per context. Nil
	// selects the default value for every context.
	InitValues []uint8

	// ShareSubsymCtx makes every lane code against the contexts of lane 0.
	ShareSubsymCtx bool
}

// NumSubsyms returns the number of sub-symbols per symbol.
func (c *Config) NumSubsyms() int {
	return int(c.OutputSymbolSize / c.CodingSubsymSize)
}

// alphabet returns the number of distinct sub-symbol values.
func (c *Config) alphabet() uint64 {
	return 1 << c.CodingSubsymSize
}

func (c *Config) subsymMask() uint64 {
	return c.alphabet() - 1
}

// contextModelling reports whether previous values select contexts.
func (c *Config) contextModelling() bool {
	return c.CodingOrder > 0 && c.Transform != SubsymDiff
}

func (c *Config) signed() bool {
	return c.Binarization.ID().Signed()
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.Transform > SubsymDiff {
		return errors.Wrapf(ErrInvalidConfig, "sub-symbol transform %d", c.Transform)
	}
	if c.OutputSymbolSize == 0 || c.OutputSymbolSize > maxOutputSize {
		return errors.Wrapf(ErrInvalidConfig, "output symbol size %d", c.OutputSymbolSize)
	}
	if c.CodingSubsymSize == 0 || c.CodingSubsymSize > c.OutputSymbolSize ||
		c.OutputSymbolSize%c.CodingSubsymSize != 0 {
		return errors.Wrapf(ErrInvalidConfig, "coding sub-symbol size %d for output size %d",
			c.CodingSubsymSize, c.OutputSymbolSize)
	}
	if c.CodingOrder > maxCodingOrder {
		return errors.Wrapf(ErrInvalidConfig, "coding order %d", c.CodingOrder)
	}
	if c.Binarization == nil {
		return errors.Wrap(ErrInvalidConfig, "missing binarization")
	}
	if n := binarization.SymbolSize(c.Binarization); n != 0 && n != c.CodingSubsymSize {
		return errors.Wrapf(ErrInvalidConfig, "%s built for %d-bit symbols, sub-symbols are %d bits",
			c.Binarization.ID(), n, c.CodingSubsymSize)
	}
	if c.signed() {
		if c.NumSubsyms() != 1 {
			return errors.Wrapf(ErrInvalidConfig, "%s needs a single sub-symbol", c.Binarization.ID())
		}
		if c.Transform == SubsymLUT {
			return errors.Wrapf(ErrInvalidConfig, "%s cannot code LUT ranks", c.Binarization.ID())
		}
	}
	if c.Transform == SubsymDiff && c.CodingOrder == 0 {
		return errors.Wrap(ErrInvalidConfig, "diff coding needs coding order 1 or 2")
	}
	if c.Transform == SubsymDiff && !c.signed() {
		return errors.Wrapf(ErrInvalidConfig, "diff coding with unsigned %s", c.Binarization.ID())
	}
	// TU sizes its contexts by the alphabet, so a larger cMax would code
	// the largest sub-symbol past the table.
	if tu, ok := c.Binarization.(binarization.TruncatedUnary); ok && tu.CMax > c.subsymMask() {
		return errors.Wrapf(ErrInvalidConfig, "TU cMax %d above the largest %d-bit sub-symbol",
			tu.CMax, c.CodingSubsymSize)
	}
	if (c.Transform == SubsymLUT || c.contextModelling()) && c.CodingSubsymSize > maxModelledSize {
		return errors.Wrapf(ErrInvalidConfig, "%d-bit sub-symbols too wide for %s with order %d",
			c.CodingSubsymSize, c.Transform, c.CodingOrder)
	}
	if c.Bypass {
		return nil
	}
	n := c.NumContexts()
	if n > maxNumContexts {
		return errors.Wrapf(ErrInvalidConfig, "%d contexts, at most %d allowed", n, maxNumContexts)
	}
	if c.InitValues != nil {
		if len(c.InitValues) != n {
			return errors.Wrapf(ErrInvalidConfig, "%d init values for %d contexts", len(c.InitValues), n)
		}
		for i, v := range c.InitValues {
			if v > entropy.MaxInitValue {
				return errors.Wrapf(ErrInvalidConfig, "context %d init value %d", i, v)
			}
		}
	}
	return nil
}

// WriteConfig writes the configuration block of c.
func WriteConfig(w *bio.Writer, c *Config) error {
	if err := c.Validate(); err != nil {
		return err
	}
	multi := c.NumSubsyms() > 1
	fields := []struct {
		v uint64
		n uint
	}{
		{uint64(c.Transform), transformBits},
		{uint64(c.OutputSymbolSize), symbolSizeBits},
		{uint64(c.CodingSubsymSize), symbolSizeBits},
		{uint64(c.CodingOrder), codingOrderBits},
	}
	for _, f := range fields {
		if err := w.WriteBits(f.v, f.n); err != nil {
			return err
		}
	}
	if c.Transform == SubsymLUT && multi {
		if err := w.WriteFlag(c.ShareSubsymLUT); err != nil {
			return err
		}
	}
	if c.CodingOrder > 0 && multi {
		if err := w.WriteFlag(c.ShareSubsymPrv); err != nil {
			return err
		}
	}
	if err := w.WriteBits(uint64(c.Binarization.ID()), binarization.IDBits); err != nil {
		return err
	}
	if err := w.WriteFlag(c.Bypass); err != nil {
		return err
	}
	if err := c.Binarization.WriteParams(w); err != nil {
		return err
	}
	if c.Bypass {
		return nil
	}
	if err := w.WriteFlag(c.Adaptive); err != nil {
		return err
	}
	n := c.NumContexts()
	if err := w.WriteBits(uint64(n), numContextsBits); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		v := uint8(entropy.DefaultInitValue)
		if c.InitValues != nil {
			v = c.InitValues[i]
		}
		if err := w.WriteBits(uint64(v), initValueBits); err != nil {
			return err
		}
	}
	if multi {
		return w.WriteFlag(c.ShareSubsymCtx)
	}
	return nil
}

// ReadConfig reads a configuration block. InitValues is always populated
// for a context-coded configuration.
func ReadConfig(r *bio.Reader) (*Config, error) {
	c := &Config{}
	var vals [4]uint64
	widths := [4]uint{transformBits, symbolSizeBits, symbolSizeBits, codingOrderBits}
	for i, n := range widths {
		v, err := r.ReadBits(n)
		if err != nil {
			return nil, errors.Wrap(err, "reading codec configuration")
		}
		vals[i] = v
	}
	c.Transform = SubsymTransform(vals[0])
	c.OutputSymbolSize = uint(vals[1])
	c.CodingSubsymSize = uint(vals[2])
	c.CodingOrder = uint(vals[3])
	if c.Transform > SubsymDiff || c.CodingSubsymSize == 0 || c.OutputSymbolSize%c.CodingSubsymSize != 0 {
		return nil, errors.Wrapf(ErrInvalidConfig, "transform %d, output size %d, sub-symbol size %d",
			c.Transform, c.OutputSymbolSize, c.CodingSubsymSize)
	}
	multi := c.NumSubsyms() > 1

	var err error
	if c.Transform == SubsymLUT && multi {
		if c.ShareSubsymLUT, err = r.ReadFlag(); err != nil {
			return nil, errors.Wrap(err, "reading share_subsym_lut_flag")
		}
	}
	if c.CodingOrder > 0 && multi {
		if c.ShareSubsymPrv, err = r.ReadFlag(); err != nil {
			return nil, errors.Wrap(err, "reading share_subsym_prv_flag")
		}
	}
	id, err := binarization.ReadID(r)
	if err != nil {
		return nil, err
	}
	if c.Bypass, err = r.ReadFlag(); err != nil {
		return nil, errors.Wrap(err, "reading bypass_flag")
	}
	if c.Binarization, err = binarization.ReadParams(r, id, c.CodingSubsymSize); err != nil {
		return nil, errors.Wrap(err, "reading binarization")
	}
	if !c.Bypass {
		if err := readContextParams(r, c, multi); err != nil {
			return nil, err
		}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func readContextParams(r *bio.Reader, c *Config, multi bool) error {
	var err error
	if c.Adaptive, err = r.ReadFlag(); err != nil {
		return errors.Wrap(err, "reading adaptive_mode_flag")
	}
	n, err := r.ReadBits(numContextsBits)
	if err != nil {
		return errors.Wrap(err, "reading num_contexts")
	}
	c.InitValues = make([]uint8, n)
	for i := range c.InitValues {
		v, err := r.ReadBits(initValueBits)
		if err != nil {
			return errors.Wrapf(err, "reading init value of context %d", i)
		}
		c.InitValues[i] = uint8(v)
	}
	if multi {
		if c.ShareSubsymCtx, err = r.ReadFlag(); err != nil {
			return errors.Wrap(err, "reading share_subsym_ctx_flag")
		}
	}
	return nil
}
