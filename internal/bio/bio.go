// Package bio provides bit-level I/O for MPEG-G descriptor streams.
package bio

import (
	"io"

	"github.com/pkg/errors"
)

// ErrEndOfData is returned when a reader runs out of input.
var ErrEndOfData = errors.New("end of data")

// Reader provides big-endian bit-level reading from a byte stream.
type Reader struct {
	r    io.Reader
	buf  byte  // Current byte buffer
	cnt  uint8 // Number of valid bits in buf (0-8)
	read uint64
}

// NewReader creates a new bit reader.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// ReadBit reads a single bit (0 or 1).
func (r *Reader) ReadBit() (int, error) {
	if r.cnt == 0 {
		var b [1]byte
		if _, err := io.ReadFull(r.r, b[:]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return 0, errors.WithStack(ErrEndOfData)
			}
			return 0, errors.WithStack(err)
		}
		r.buf = b[0]
		r.cnt = 8
	}
	r.cnt--
	r.read++
	return int((r.buf >> r.cnt) & 1), nil
}

// ReadBits reads n bits (0-64), most significant first.
func (r *Reader) ReadBits(n uint) (uint64, error) {
	if n > 64 {
		return 0, errors.Errorf("bio: cannot read %d bits", n)
	}
	var result uint64
	for i := uint(0); i < n; i++ {
		bit, err := r.ReadBit()
		if err != nil {
			return 0, err
		}
		result = (result << 1) | uint64(bit)
	}
	return result, nil
}

// ReadFlag reads one bit as a boolean.
func (r *Reader) ReadFlag() (bool, error) {
	bit, err := r.ReadBit()
	return bit == 1, err
}

// Align discards any remaining bits in the current byte.
func (r *Reader) Align() {
	r.read += uint64(r.cnt)
	r.cnt = 0
}

// BitsRead returns the number of bits consumed so far, alignment included.
func (r *Reader) BitsRead() uint64 {
	return r.read
}

// Writer provides big-endian bit-level writing to a byte stream.
type Writer struct {
	w       io.Writer
	buf     byte  // Current byte buffer
	cnt     uint8 // Number of valid bits in buf (0-7)
	written uint64
}

// NewWriter creates a new bit writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteBit writes a single bit.
func (w *Writer) WriteBit(bit int) error {
	w.buf = (w.buf << 1) | byte(bit&1)
	w.cnt++
	w.written++
	if w.cnt == 8 {
		if err := w.flushByte(); err != nil {
			return err
		}
	}
	return nil
}

// WriteBits writes n bits (0-64) from the lowest n bits of val.
func (w *Writer) WriteBits(val uint64, n uint) error {
	if n > 64 {
		return errors.Errorf("bio: cannot write %d bits", n)
	}
	for i := n; i > 0; i-- {
		bit := int((val >> (i - 1)) & 1)
		if err := w.WriteBit(bit); err != nil {
			return err
		}
	}
	return nil
}

// WriteFlag writes a boolean as one bit.
func (w *Writer) WriteFlag(flag bool) error {
	if flag {
		return w.WriteBit(1)
	}
	return w.WriteBit(0)
}

// flushByte writes the current byte buffer.
func (w *Writer) flushByte() error {
	b := [1]byte{w.buf}
	_, err := w.w.Write(b[:])
	w.buf = 0
	w.cnt = 0
	return errors.WithStack(err)
}

// Flush writes any remaining bits, padding with zeros to a byte boundary.
func (w *Writer) Flush() error {
	if w.cnt > 0 {
		w.written += uint64(8 - w.cnt)
		w.buf <<= (8 - w.cnt)
		return w.flushByte()
	}
	return nil
}

// BitsWritten returns the number of bits written so far, padding included.
func (w *Writer) BitsWritten() uint64 {
	return w.written
}

// Aligned reports whether the writer sits on a byte boundary.
func (w *Writer) Aligned() bool {
	return w.cnt == 0
}

// VariableLengthReader reads U7 variable-length encoded values.
type VariableLengthReader struct {
	r io.ByteReader
}

// NewVariableLengthReader creates a new variable-length reader.
func NewVariableLengthReader(r io.ByteReader) *VariableLengthReader {
	return &VariableLengthReader{r: r}
}

// Read reads a variable-length encoded value.
// Values are encoded with continuation bit (bit 7) set for all bytes
// except the last, most significant group first.
func (v *VariableLengthReader) Read() (uint64, error) {
	var result uint64
	for i := 0; ; i++ {
		if i == 10 {
			return 0, errors.New("bio: U7 value overflows 64 bits")
		}
		b, err := v.r.ReadByte()
		if err != nil {
			if err == io.EOF {
				return 0, errors.WithStack(ErrEndOfData)
			}
			return 0, errors.WithStack(err)
		}
		result = (result << 7) | uint64(b&0x7F)
		if b&0x80 == 0 {
			break
		}
	}
	return result, nil
}

// VariableLengthWriter writes U7 variable-length encoded values.
type VariableLengthWriter struct {
	w io.Writer
}

// NewVariableLengthWriter creates a new variable-length writer.
func NewVariableLengthWriter(w io.Writer) *VariableLengthWriter {
	return &VariableLengthWriter{w: w}
}

// Write writes a value using variable-length encoding.
func (v *VariableLengthWriter) Write(val uint64) error {
	var bytes [10]byte
	n := 0
	for {
		bytes[9-n] = byte(val & 0x7F)
		if n > 0 {
			bytes[9-n] |= 0x80 // Set continuation bit
		}
		val >>= 7
		n++
		if val == 0 {
			break
		}
	}
	_, err := v.w.Write(bytes[10-n:])
	return errors.WithStack(err)
}
