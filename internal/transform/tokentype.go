package transform

import (
	"bytes"
	"io"

	"github.com/pkg/errors"

	"github.com/mrjoshuak/go-mpegg/internal/bio"
)

// DefaultTokentypeGuard is the guard byte of tokentype run-length coding.
const DefaultTokentypeGuard = 0xFF

// minTokentypeRun is the shortest run worth the guard-prefixed form.
const minTokentypeRun = 3

// maxTokentypeRun bounds a single run. Longer runs are written as
// several guarded runs.
const maxTokentypeRun = 1 << 20

// EncodeTokentype run-length codes a byte field. A run of at least three
// bytes, or of the guard byte itself, is written as the guard, a U7 run
// length and the value; shorter runs are written literally.
func EncodeTokentype(data []byte, guard byte) ([]byte, error) {
	var buf bytes.Buffer
	vw := bio.NewVariableLengthWriter(&buf)
	for i := 0; i < len(data); {
		v := data[i]
		run := 1
		for i+run < len(data) && data[i+run] == v {
			run++
		}
		i += run
		for ; run > maxTokentypeRun; run -= maxTokentypeRun {
			buf.WriteByte(guard)
			if err := vw.Write(maxTokentypeRun); err != nil {
				return nil, err
			}
			buf.WriteByte(v)
		}
		if run < minTokentypeRun && v != guard {
			for ; run > 0; run-- {
				buf.WriteByte(v)
			}
			continue
		}
		buf.WriteByte(guard)
		if err := vw.Write(uint64(run)); err != nil {
			return nil, err
		}
		buf.WriteByte(v)
	}
	return buf.Bytes(), nil
}

// DecodeTokentype reverses EncodeTokentype.
func DecodeTokentype(data []byte, guard byte) ([]byte, error) {
	r := bytes.NewReader(data)
	vr := bio.NewVariableLengthReader(r)
	out := make([]byte, 0, len(data))
	for {
		b, err := r.ReadByte()
		if err == io.EOF {
			return out, nil
		}
		if b != guard {
			out = append(out, b)
			continue
		}
		run, err := vr.Read()
		if err != nil {
			return nil, errors.Wrap(err, "reading tokentype run length")
		}
		if run == 0 || run > maxTokentypeRun {
			return nil, errors.Wrapf(ErrCorrupt, "tokentype run of %d", run)
		}
		v, err := r.ReadByte()
		if err != nil {
			return nil, errors.Wrap(bio.ErrEndOfData, "reading tokentype run value")
		}
		out = append(out, bytes.Repeat([]byte{v}, int(run))...)
	}
}
