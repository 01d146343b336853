package mpegg

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/mrjoshuak/go-mpegg/internal/logging"
	"github.com/mrjoshuak/go-mpegg/internal/payload"
	"github.com/mrjoshuak/go-mpegg/internal/transform"
)

// Encoder codes the symbols of one descriptor subsequence.
type Encoder struct {
	cfg    *SubsequenceConfig
	enc    transform.Encoder
	count  int
	closed bool
}

// NewEncoder creates an encoder for cfg.
func NewEncoder(cfg *SubsequenceConfig) (*Encoder, error) {
	if cfg == nil {
		return nil, errors.Wrap(ErrInvalidTransform, "nil subsequence configuration")
	}
	enc, err := transform.NewEncoder(cfg.inner())
	if err != nil {
		return nil, err
	}
	return &Encoder{cfg: cfg, enc: enc}, nil
}

// Write appends one symbol.
func (e *Encoder) Write(v int64) error {
	if e.closed {
		return errors.New("mpegg: write to closed encoder")
	}
	if err := e.enc.Write(v); err != nil {
		return errors.Wrapf(err, "symbol %d", e.count)
	}
	e.count++
	return nil
}

// Streams closes the encoder and returns its physical streams in wire
// order.
func (e *Encoder) Streams() ([]Payload, error) {
	if e.closed {
		return nil, errors.New("mpegg: encoder already closed")
	}
	e.closed = true
	return e.enc.Close()
}

// Close closes the encoder and returns the framed subsequence block.
func (e *Encoder) Close() ([]byte, error) {
	streams, err := e.Streams()
	if err != nil {
		return nil, err
	}
	block, err := payload.Pack(streams)
	if err != nil {
		return nil, err
	}
	logging.With("mpegg").WithFields(logrus.Fields{
		"transform": e.cfg.ID,
		"symbols":   e.count,
		"streams":   len(streams),
		"bytes":     len(block),
	}).Debug("Subsequence encoded")
	return block, nil
}

// Encode codes symbols into a framed subsequence block.
func Encode(cfg *SubsequenceConfig, symbols []int64) ([]byte, error) {
	e, err := NewEncoder(cfg)
	if err != nil {
		return nil, err
	}
	for _, v := range symbols {
		if err := e.Write(v); err != nil {
			return nil, err
		}
	}
	return e.Close()
}
