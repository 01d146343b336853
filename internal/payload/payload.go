// Package payload implements the framing of physical sub-streams inside a
// descriptor subsequence block.
//
// A block holding n sub-streams is laid out as:
// - a 4-byte big-endian length followed by the stream bytes, for the first n-1 streams
// - the bytes of the last stream, running to the end of the block
package payload

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

// lengthSize is the size of a sub-stream length prefix.
const lengthSize = 4

// maxStreamSize bounds a single framed sub-stream.
const maxStreamSize = 1<<32 - 1

// ErrTruncated is returned when a block ends inside a framed sub-stream.
var ErrTruncated = errors.New("payload truncated")

// Payload is a finite byte buffer holding one physical sub-stream.
type Payload []byte

// Len returns the payload size in bytes.
func (p Payload) Len() int {
	return len(p)
}

// Reader returns a reader positioned at the start of the payload.
func (p Payload) Reader() *bytes.Reader {
	return bytes.NewReader(p)
}

// Writer frames sub-streams into a block.
type Writer struct {
	w       io.Writer
	written int64
}

// NewWriter creates a new payload writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteStreams writes streams as one block. Every stream except the last is
// length-prefixed.
func (w *Writer) WriteStreams(streams []Payload) error {
	for i, s := range streams {
		if i < len(streams)-1 {
			if uint64(len(s)) > maxStreamSize {
				return errors.Errorf("sub-stream %d too large: %d bytes", i, len(s))
			}
			var header [lengthSize]byte
			binary.BigEndian.PutUint32(header[:], uint32(len(s)))
			if _, err := w.w.Write(header[:]); err != nil {
				return errors.Wrapf(err, "writing sub-stream %d length", i)
			}
			w.written += lengthSize
		}
		if _, err := w.w.Write(s); err != nil {
			return errors.Wrapf(err, "writing sub-stream %d", i)
		}
		w.written += int64(len(s))
	}
	return nil
}

// Written returns the number of bytes written so far.
func (w *Writer) Written() int64 {
	return w.written
}

// Reader splits a block into its sub-streams.
type Reader struct {
	data   []byte
	offset int
}

// NewReader creates a new payload reader over a complete block.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// ReadStreams reads n sub-streams; the last one takes the rest of the block.
func (r *Reader) ReadStreams(n int) ([]Payload, error) {
	if n <= 0 {
		return nil, errors.Errorf("invalid sub-stream count: %d", n)
	}
	streams := make([]Payload, 0, n)
	for i := 0; i < n-1; i++ {
		if len(r.data)-r.offset < lengthSize {
			return nil, errors.Wrapf(ErrTruncated, "reading sub-stream %d length", i)
		}
		length := int(binary.BigEndian.Uint32(r.data[r.offset:]))
		r.offset += lengthSize
		if len(r.data)-r.offset < length {
			return nil, errors.Wrapf(ErrTruncated, "sub-stream %d: need %d bytes, have %d",
				i, length, len(r.data)-r.offset)
		}
		streams = append(streams, Payload(r.data[r.offset:r.offset+length]))
		r.offset += length
	}
	streams = append(streams, Payload(r.data[r.offset:]))
	r.offset = len(r.data)
	return streams, nil
}

// Offset returns the current block offset.
func (r *Reader) Offset() int {
	return r.offset
}

// Pack frames streams into a new block.
func Pack(streams []Payload) ([]byte, error) {
	var buf bytes.Buffer
	if err := NewWriter(&buf).WriteStreams(streams); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unpack splits a block holding n sub-streams.
func Unpack(data []byte, n int) ([]Payload, error) {
	return NewReader(data).ReadStreams(n)
}
