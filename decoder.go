package mpegg

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/mrjoshuak/go-mpegg/internal/logging"
	"github.com/mrjoshuak/go-mpegg/internal/payload"
	"github.com/mrjoshuak/go-mpegg/internal/transform"
)

// Decoder reads the symbols of one descriptor subsequence.
type Decoder struct {
	dec transform.Decoder
}

// NewDecoder creates a decoder over a framed subsequence block.
func NewDecoder(cfg *SubsequenceConfig, block []byte) (*Decoder, error) {
	if cfg == nil {
		return nil, errors.Wrap(ErrInvalidTransform, "nil subsequence configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	streams, err := payload.Unpack(block, cfg.NumStreams())
	if err != nil {
		return nil, err
	}
	return NewStreamDecoder(cfg, streams)
}

// NewStreamDecoder creates a decoder over already separated streams.
func NewStreamDecoder(cfg *SubsequenceConfig, streams []Payload) (*Decoder, error) {
	if cfg == nil {
		return nil, errors.Wrap(ErrInvalidTransform, "nil subsequence configuration")
	}
	dec, err := transform.NewDecoder(cfg.inner(), streams)
	if err != nil {
		return nil, err
	}
	return &Decoder{dec: dec}, nil
}

// HasNext reports whether symbols remain.
func (d *Decoder) HasNext() bool {
	return d.dec.HasNext()
}

// Read returns the next symbol, or ErrEndOfStream after the last one.
func (d *Decoder) Read() (int64, error) {
	return d.dec.Read()
}

// Decode decodes every symbol of a framed subsequence block.
func Decode(cfg *SubsequenceConfig, block []byte) ([]int64, error) {
	d, err := NewDecoder(cfg, block)
	if err != nil {
		return nil, err
	}
	symbols := []int64{}
	for d.HasNext() {
		v, err := d.Read()
		if err != nil {
			return nil, errors.Wrapf(err, "symbol %d", len(symbols))
		}
		symbols = append(symbols, v)
	}
	logging.With("mpegg").WithFields(logrus.Fields{
		"transform": cfg.ID,
		"symbols":   len(symbols),
		"bytes":     len(block),
	}).Debug("Subsequence decoded")
	return symbols, nil
}
