// Package transform implements the descriptor subsequence transforms that
// map a logical symbol stream onto one or more syntax-element streams.
package transform

import (
	"github.com/pkg/errors"

	"github.com/mrjoshuak/go-mpegg/internal/bio"
	"github.com/mrjoshuak/go-mpegg/internal/cabac"
	"github.com/mrjoshuak/go-mpegg/internal/payload"
)

var (
	// ErrInvalidTransform is returned for an unknown transform or
	// inconsistent transform parameters.
	ErrInvalidTransform = errors.New("invalid subsequence transform")

	// ErrCorrupt is returned when transformed streams disagree with each
	// other or decode to impossible values.
	ErrCorrupt = errors.New("corrupt transformed subsequence")
)

// ID is the transform_ID_subseq of a descriptor subsequence.
type ID uint8

const (
	// NoTransform codes symbols directly.
	NoTransform ID = iota
	// EqualityCoding flags repeats of the previous symbol.
	EqualityCoding
	// MatchCoding replaces repeated patterns with back references.
	MatchCoding
	// RLECoding codes runs as a value and a length.
	RLECoding
	// MergeCoding splits wide symbols into bit fields.
	MergeCoding

	numIDs
)

// String returns the string representation of the transform.
func (id ID) String() string {
	switch id {
	case NoTransform:
		return "NO_TRANSFORM"
	case EqualityCoding:
		return "EQUALITY_CODING"
	case MatchCoding:
		return "MATCH_CODING"
	case RLECoding:
		return "RLE_CODING"
	case MergeCoding:
		return "MERGE_CODING"
	default:
		return "Unknown"
	}
}

// ParseID maps a transform name to its ID.
func ParseID(name string) (ID, error) {
	for id := ID(0); id < numIDs; id++ {
		if id.String() == name {
			return id, nil
		}
	}
	return 0, errors.Wrapf(ErrInvalidTransform, "name %q", name)
}

// DefaultMinPatternLength is the shortest match the match encoder emits
// unless configured otherwise.
const DefaultMinPatternLength = 4

// Field widths of the transform parameters.
const (
	idBits         = 8
	bufferSizeBits = 16
	guardBits      = 8
	mergeCountBits = 4
	mergeShiftBits = 5
	maxMergeCount  = 1<<mergeCountBits - 1
	maxMergeShift  = 1<<mergeShiftBits - 1
	maxMergedBits  = 63
)

// Config describes how a descriptor subsequence is transformed and how
// each resulting stream is coded.
type Config struct {
	ID ID

	// MatchBufferSize is the window of match coding (match_coding_buffer_size).
	MatchBufferSize uint16

	// MinPatternLength is the shortest match the encoder emits. Zero
	// selects DefaultMinPatternLength. It is not part of the bitstream.
	MinPatternLength int

	// RLEGuard is the longest length symbol of run-length coding
	// (rle_coding_guard).
	RLEGuard uint8

	// Streams holds the codec configuration of every transformed stream
	// in wire order.
	Streams []*cabac.Config
}

// NumStreams returns the number of streams the transform produces.
func (c *Config) NumStreams() int {
	switch c.ID {
	case NoTransform:
		return 1
	case EqualityCoding, RLECoding:
		return 2
	case MatchCoding:
		return 3
	case MergeCoding:
		return len(c.Streams)
	}
	return 0
}

func (c *Config) minPatternLength() int {
	if c.MinPatternLength == 0 {
		return DefaultMinPatternLength
	}
	return c.MinPatternLength
}

// MergeShifts returns the shift of each merge-coded stream: the total
// output size of the streams after it.
func (c *Config) MergeShifts() []uint {
	shifts := make([]uint, len(c.Streams))
	var shift uint
	for i := len(c.Streams) - 1; i >= 0; i-- {
		shifts[i] = shift
		shift += c.Streams[i].OutputSymbolSize
	}
	return shifts
}

// Validate checks the transform parameters and every stream configuration.
func (c *Config) Validate() error {
	if c.ID >= numIDs {
		return errors.Wrapf(ErrInvalidTransform, "transform id %d", c.ID)
	}
	if c.ID == MergeCoding && (len(c.Streams) == 0 || len(c.Streams) > maxMergeCount) {
		return errors.Wrapf(ErrInvalidTransform, "%d merge-coded streams", len(c.Streams))
	}
	if len(c.Streams) != c.NumStreams() {
		return errors.Wrapf(ErrInvalidTransform, "%s needs %d streams, have %d",
			c.ID, c.NumStreams(), len(c.Streams))
	}
	for i, s := range c.Streams {
		if s == nil {
			return errors.Wrapf(ErrInvalidTransform, "stream %d has no configuration", i)
		}
		if err := s.Validate(); err != nil {
			return errors.Wrapf(err, "stream %d", i)
		}
	}
	switch c.ID {
	case MatchCoding:
		if c.MatchBufferSize == 0 {
			return errors.Wrap(ErrInvalidTransform, "match coding buffer size 0")
		}
		if c.MinPatternLength < 0 {
			return errors.Wrapf(ErrInvalidTransform, "min pattern length %d", c.MinPatternLength)
		}
	case RLECoding:
		if c.RLEGuard == 0 {
			return errors.Wrap(ErrInvalidTransform, "RLE guard 0")
		}
	case MergeCoding:
		var total uint
		for i, s := range c.Streams {
			if s.Binarization.ID().Signed() {
				return errors.Wrapf(ErrInvalidTransform, "merge-coded stream %d is signed", i)
			}
			total += s.OutputSymbolSize
		}
		if total > maxMergedBits {
			return errors.Wrapf(ErrInvalidTransform, "merged symbols of %d bits", total)
		}
		for i, shift := range c.MergeShifts() {
			if shift > maxMergeShift {
				return errors.Wrapf(ErrInvalidTransform, "merge shift %d of stream %d", shift, i)
			}
		}
	}
	return nil
}

// WriteConfig writes the transform parameters followed by the codec
// configuration of every stream.
func WriteConfig(w *bio.Writer, c *Config) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := w.WriteBits(uint64(c.ID), idBits); err != nil {
		return err
	}
	var err error
	switch c.ID {
	case MatchCoding:
		err = w.WriteBits(uint64(c.MatchBufferSize), bufferSizeBits)
	case RLECoding:
		err = w.WriteBits(uint64(c.RLEGuard), guardBits)
	case MergeCoding:
		err = w.WriteBits(uint64(len(c.Streams)), mergeCountBits)
		for _, shift := range c.MergeShifts() {
			if err != nil {
				break
			}
			err = w.WriteBits(uint64(shift), mergeShiftBits)
		}
	}
	if err != nil {
		return err
	}
	for i, s := range c.Streams {
		if err := cabac.WriteConfig(w, s); err != nil {
			return errors.Wrapf(err, "writing stream %d configuration", i)
		}
	}
	return nil
}

// ReadConfig reads a configuration written by WriteConfig.
func ReadConfig(r *bio.Reader) (*Config, error) {
	raw, err := r.ReadBits(idBits)
	if err != nil {
		return nil, errors.Wrap(err, "reading transform id")
	}
	c := &Config{ID: ID(raw)}
	if c.ID >= numIDs {
		return nil, errors.Wrapf(ErrInvalidTransform, "transform id %d", c.ID)
	}
	n := c.NumStreams()
	var shifts []uint
	switch c.ID {
	case MatchCoding:
		v, err := r.ReadBits(bufferSizeBits)
		if err != nil {
			return nil, errors.Wrap(err, "reading match_coding_buffer_size")
		}
		c.MatchBufferSize = uint16(v)
	case RLECoding:
		v, err := r.ReadBits(guardBits)
		if err != nil {
			return nil, errors.Wrap(err, "reading rle_coding_guard")
		}
		c.RLEGuard = uint8(v)
	case MergeCoding:
		v, err := r.ReadBits(mergeCountBits)
		if err != nil {
			return nil, errors.Wrap(err, "reading merge_coding_subseq_count")
		}
		n = int(v)
		for i := 0; i < n; i++ {
			shift, err := r.ReadBits(mergeShiftBits)
			if err != nil {
				return nil, errors.Wrapf(err, "reading merge_coding_shift_size %d", i)
			}
			shifts = append(shifts, uint(shift))
		}
	}
	for i := 0; i < n; i++ {
		s, err := cabac.ReadConfig(r)
		if err != nil {
			return nil, errors.Wrapf(err, "reading stream %d configuration", i)
		}
		c.Streams = append(c.Streams, s)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	for i, shift := range c.MergeShifts() {
		if c.ID == MergeCoding && shifts[i] != shift {
			return nil, errors.Wrapf(ErrInvalidTransform, "merge shift %d of stream %d, stream sizes give %d",
				shifts[i], i, shift)
		}
	}
	return c, nil
}

// Encoder transforms a logical symbol stream.
type Encoder interface {
	// Write appends one symbol.
	Write(v int64) error
	// Close flushes buffered symbols and returns the coded streams in
	// wire order.
	Close() ([]payload.Payload, error)
}

// Decoder reproduces a logical symbol stream.
type Decoder interface {
	// Read returns the next symbol, or cabac.ErrEndOfStream at the end.
	Read() (int64, error)
	// HasNext reports whether symbols remain.
	HasNext() bool
}

// NewEncoder creates the encoder of c.
func NewEncoder(c *Config) (Encoder, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	encs := make([]*cabac.Encoder, len(c.Streams))
	for i, s := range c.Streams {
		e, err := cabac.NewEncoder(s)
		if err != nil {
			return nil, err
		}
		encs[i] = e
	}
	switch c.ID {
	case EqualityCoding:
		return &equalityEncoder{flags: encs[0], values: encs[1]}, nil
	case MatchCoding:
		return newMatchEncoder(encs[0], encs[1], encs[2], int(c.MatchBufferSize), c.minPatternLength()), nil
	case RLECoding:
		return &rleEncoder{lengths: encs[0], values: encs[1], guard: int64(c.RLEGuard)}, nil
	case MergeCoding:
		return newMergeEncoder(c, encs), nil
	default:
		return &plainEncoder{enc: encs[0]}, nil
	}
}

// NewDecoder creates the decoder of c over the coded streams.
func NewDecoder(c *Config, streams []payload.Payload) (Decoder, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if len(streams) != len(c.Streams) {
		return nil, errors.Wrapf(ErrInvalidTransform, "%s needs %d streams, have %d",
			c.ID, len(c.Streams), len(streams))
	}
	decs := make([]*cabac.Decoder, len(c.Streams))
	for i, s := range c.Streams {
		d, err := cabac.NewDecoder(s, streams[i])
		if err != nil {
			return nil, errors.Wrapf(err, "stream %d", i)
		}
		decs[i] = d
	}
	switch c.ID {
	case EqualityCoding:
		return &equalityDecoder{flags: decs[0], values: decs[1]}, nil
	case MatchCoding:
		return newMatchDecoder(decs[0], decs[1], decs[2], int(c.MatchBufferSize)), nil
	case RLECoding:
		return &rleDecoder{lengths: decs[0], values: decs[1], guard: int64(c.RLEGuard)}, nil
	case MergeCoding:
		return newMergeDecoder(c, decs), nil
	default:
		return &plainDecoder{dec: decs[0]}, nil
	}
}

// closeAll closes encoders in order.
func closeAll(encs ...*cabac.Encoder) ([]payload.Payload, error) {
	out := make([]payload.Payload, len(encs))
	for i, e := range encs {
		data, err := e.Close()
		if err != nil {
			return nil, errors.Wrapf(err, "closing stream %d", i)
		}
		out[i] = data
	}
	return out, nil
}

// nextOf reads a symbol that must exist because another stream refers
// to it.
func nextOf(d *cabac.Decoder, what string) (int64, error) {
	v, err := d.Decode()
	if errors.Is(err, cabac.ErrEndOfStream) {
		return 0, errors.Wrapf(ErrCorrupt, "%s stream ended early", what)
	}
	return v, err
}

// plainEncoder is NO_TRANSFORM.
type plainEncoder struct {
	enc *cabac.Encoder
}

func (e *plainEncoder) Write(v int64) error { return e.enc.Encode(v) }

func (e *plainEncoder) Close() ([]payload.Payload, error) { return closeAll(e.enc) }

type plainDecoder struct {
	dec *cabac.Decoder
}

func (d *plainDecoder) Read() (int64, error) { return d.dec.Decode() }

func (d *plainDecoder) HasNext() bool { return d.dec.HasNext() }
