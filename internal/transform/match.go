package transform

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/mrjoshuak/go-mpegg/internal/cabac"
	"github.com/mrjoshuak/go-mpegg/internal/logging"
	"github.com/mrjoshuak/go-mpegg/internal/payload"
	"github.com/mrjoshuak/go-mpegg/internal/suffix"
)

// maxMatchCandidates bounds the suffix array walk of one match search.
const maxMatchCandidates = 256

// matchEncoder is an LZ77-style coder. Each token writes a length: 0 for
// a literal taken from the raw stream, otherwise a match whose distance
// back into the last bufSize symbols goes to the pointer stream.
//
// Symbols are buffered in a work array holding up to bufSize symbols of
// history followed by up to bufSize new symbols. When the new half fills,
// it is parsed against the whole array and its tail becomes the history
// of the next block.
type matchEncoder struct {
	pointers *cabac.Encoder
	lengths  *cabac.Encoder
	raw      *cabac.Encoder
	bufSize  int
	minLen   int

	work []int64
	hist int

	literals int
	matches  int
	log      logrus.FieldLogger
}

func newMatchEncoder(pointers, lengths, raw *cabac.Encoder, bufSize, minLen int) *matchEncoder {
	return &matchEncoder{
		pointers: pointers,
		lengths:  lengths,
		raw:      raw,
		bufSize:  bufSize,
		minLen:   minLen,
		work:     make([]int64, 0, 2*bufSize),
		log:      logging.With("match"),
	}
}

func (e *matchEncoder) Write(v int64) error {
	e.work = append(e.work, v)
	if len(e.work)-e.hist == e.bufSize {
		return e.flush()
	}
	return nil
}

func (e *matchEncoder) flush() error {
	if len(e.work) == e.hist {
		return nil
	}
	s, upper := suffix.Compact(e.work)
	sa := suffix.Array(s, upper)
	lcp := suffix.LCP(s, sa)
	rank := make([]int, len(sa))
	for i, p := range sa {
		rank[p] = i
	}

	literals, matches := 0, 0
	for i := e.hist; i < len(e.work); {
		dist, length := e.longestMatch(sa, lcp, rank, i)
		if length >= e.minLen {
			if err := e.lengths.Encode(int64(length)); err != nil {
				return err
			}
			if err := e.pointers.Encode(int64(dist)); err != nil {
				return err
			}
			i += length
			matches++
			continue
		}
		if err := e.lengths.Encode(0); err != nil {
			return err
		}
		if err := e.raw.Encode(e.work[i]); err != nil {
			return err
		}
		i++
		literals++
	}
	e.literals += literals
	e.matches += matches
	e.log.WithFields(logrus.Fields{
		"symbols":  len(e.work) - e.hist,
		"literals": literals,
		"matches":  matches,
	}).Debug("Match block flushed")

	if keep := min(len(e.work), e.bufSize); keep < len(e.work) {
		copy(e.work, e.work[len(e.work)-keep:])
		e.work = e.work[:keep]
	}
	e.hist = len(e.work)
	return nil
}

// longestMatch finds the longest earlier occurrence of the suffix at i
// starting at most bufSize symbols back. LCP values only shrink while
// walking away from the suffix's rank, so the first usable neighbour in
// each direction is the best one there.
func (e *matchEncoder) longestMatch(sa, lcp, rank []int, i int) (dist, length int) {
	usable := func(j int) bool { return j < i && i-j <= e.bufSize }
	r := rank[i]

	m := len(sa)
	for k, steps := r-1, 0; k >= 0 && steps < maxMatchCandidates; k, steps = k-1, steps+1 {
		m = min(m, lcp[k])
		if m < e.minLen {
			break
		}
		if j := sa[k]; usable(j) {
			dist, length = i-j, m
			break
		}
	}

	m = len(sa)
	for k, steps := r, 0; k < len(lcp) && steps < maxMatchCandidates; k, steps = k+1, steps+1 {
		m = min(m, lcp[k])
		if m < e.minLen || m <= length {
			break
		}
		if j := sa[k+1]; usable(j) {
			dist, length = i-j, m
			break
		}
	}
	return dist, length
}

func (e *matchEncoder) Close() ([]payload.Payload, error) {
	if err := e.flush(); err != nil {
		return nil, err
	}
	return closeAll(e.pointers, e.lengths, e.raw)
}

// matchDecoder keeps the last bufSize symbols in a circular buffer.
type matchDecoder struct {
	pointers *cabac.Decoder
	lengths  *cabac.Decoder
	raw      *cabac.Decoder
	buf      []int64
	pos      int
	written  int
	copyLeft int64
	dist     int
}

func newMatchDecoder(pointers, lengths, raw *cabac.Decoder, bufSize int) *matchDecoder {
	return &matchDecoder{
		pointers: pointers,
		lengths:  lengths,
		raw:      raw,
		buf:      make([]int64, bufSize),
	}
}

func (d *matchDecoder) put(v int64) int64 {
	d.buf[d.pos] = v
	d.pos = (d.pos + 1) % len(d.buf)
	d.written++
	return v
}

func (d *matchDecoder) Read() (int64, error) {
	if d.copyLeft == 0 {
		l, err := d.lengths.Decode()
		if err != nil {
			return 0, err
		}
		if l == 0 {
			v, err := nextOf(d.raw, "match raw values")
			if err != nil {
				return 0, err
			}
			return d.put(v), nil
		}
		p, err := nextOf(d.pointers, "match pointers")
		if err != nil {
			return 0, err
		}
		if l < 0 || p < 1 || p > int64(len(d.buf)) || p > int64(d.written) {
			return 0, errors.Wrapf(ErrCorrupt, "match of length %d at distance %d after %d symbols", l, p, d.written)
		}
		d.copyLeft = l
		d.dist = int(p)
	}
	d.copyLeft--
	src := (d.pos - d.dist + len(d.buf)) % len(d.buf)
	return d.put(d.buf[src]), nil
}

func (d *matchDecoder) HasNext() bool { return d.copyLeft > 0 || d.lengths.HasNext() }
