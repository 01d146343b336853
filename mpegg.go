// Package mpegg provides a pure Go implementation of the MPEG-G (ISO/IEC
// 23092-2) entropy coding layer for genomic descriptor subsequences.
//
// A descriptor subsequence is a stream of integer symbols. It is mapped by
// a subsequence transform onto one or more syntax-element streams, each
// coded with context-adaptive binary arithmetic coding.
//
// Basic usage:
//
//	cfg, err := mpegg.ParseConfig(data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	pos := cfg.Subsequences["pos"]
//	block, err := mpegg.Encode(pos, symbols)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	symbols, err = mpegg.Decode(pos, block)
package mpegg

import (
	"github.com/sirupsen/logrus"

	"github.com/mrjoshuak/go-mpegg/internal/binarization"
	"github.com/mrjoshuak/go-mpegg/internal/bio"
	"github.com/mrjoshuak/go-mpegg/internal/cabac"
	"github.com/mrjoshuak/go-mpegg/internal/logging"
	"github.com/mrjoshuak/go-mpegg/internal/payload"
	"github.com/mrjoshuak/go-mpegg/internal/transform"
)

// CodecConfig is the codec configuration of one syntax-element stream.
type CodecConfig = cabac.Config

// Binarization is a binarization scheme of a codec configuration.
type Binarization = binarization.Binarization

// BinarizationParams holds the parameters used to construct a scheme.
type BinarizationParams = binarization.Params

// BinarizationID is the BINARIZATION_ID of a scheme.
type BinarizationID = binarization.ID

// Binarization identifiers.
const (
	BI    = binarization.IDBinary
	TU    = binarization.IDTruncatedUnary
	EG    = binarization.IDExpGolomb
	SEG   = binarization.IDSignedExpGolomb
	TEG   = binarization.IDTruncatedExpGolomb
	STEG  = binarization.IDSignedTruncatedExpGolomb
	SUTU  = binarization.IDSplitUnitTU
	SSUTU = binarization.IDSignedSplitUnitTU
	DTU   = binarization.IDDoubleTU
	SDTU  = binarization.IDSignedDoubleTU
)

// NewBinarization constructs the scheme identified by id.
func NewBinarization(id BinarizationID, p BinarizationParams) (Binarization, error) {
	return binarization.New(id, p)
}

// SubsymTransform is the sub-symbol transform of a codec configuration.
type SubsymTransform = cabac.SubsymTransform

// Sub-symbol transforms.
const (
	SubsymNone = cabac.SubsymNone
	SubsymLUT  = cabac.SubsymLUT
	SubsymDiff = cabac.SubsymDiff
)

// TransformID is the transform_ID_subseq of a descriptor subsequence.
type TransformID = transform.ID

// Subsequence transforms.
const (
	NoTransform    = transform.NoTransform
	EqualityCoding = transform.EqualityCoding
	MatchCoding    = transform.MatchCoding
	RLECoding      = transform.RLECoding
	MergeCoding    = transform.MergeCoding
)

// Payload is one physical sub-stream.
type Payload = payload.Payload

var (
	// ErrEndOfData is returned when a bit reader runs out of input.
	ErrEndOfData = bio.ErrEndOfData

	// ErrEndOfStream is returned when a stream has delivered all its
	// symbols.
	ErrEndOfStream = cabac.ErrEndOfStream

	// ErrInvalidConfig is returned for an inconsistent codec configuration.
	ErrInvalidConfig = cabac.ErrInvalidConfig

	// ErrInvalidTransform is returned for an inconsistent subsequence
	// transform.
	ErrInvalidTransform = transform.ErrInvalidTransform

	// ErrInvalidBinarization is returned for an unknown binarization.
	ErrInvalidBinarization = binarization.ErrInvalidID

	// ErrValueOutOfRange is returned for a symbol the configuration
	// cannot code.
	ErrValueOutOfRange = binarization.ErrValueOutOfRange

	// ErrCorrupt is returned when coded data decodes to impossible values.
	ErrCorrupt = cabac.ErrCorrupt

	// ErrCorruptTransform is returned when transformed streams disagree
	// with each other.
	ErrCorruptTransform = transform.ErrCorrupt
)

// SetLogger replaces the logger used by every package of the module. A nil
// logger discards all output.
func SetLogger(l logrus.FieldLogger) {
	logging.SetLogger(l)
}
