package mpegg

import (
	"github.com/mrjoshuak/go-mpegg/internal/transform"
)

// DefaultTokentypeGuard is the guard byte of tokentype run-length coding.
const DefaultTokentypeGuard = transform.DefaultTokentypeGuard

// EncodeTokentype run-length codes a tokentype byte field.
func EncodeTokentype(data []byte, guard byte) ([]byte, error) {
	return transform.EncodeTokentype(data, guard)
}

// DecodeTokentype reverses EncodeTokentype.
func DecodeTokentype(data []byte, guard byte) ([]byte, error) {
	return transform.DecodeTokentype(data, guard)
}

// BWTEncoder codes the Burrows-Wheeler transform of a byte block.
type BWTEncoder = transform.BWTEncoder

// NewBWTEncoder creates a BWT encoder whose output stream is coded with
// cfg.
func NewBWTEncoder(cfg *CodecConfig) (*BWTEncoder, error) {
	return transform.NewBWTEncoder(cfg)
}

// BWT returns the Burrows-Wheeler transform of data without its
// terminator row, and the index of that row.
func BWT(data []byte) ([]byte, int) {
	return transform.BWT(data)
}
