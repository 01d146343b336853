package cabac

import (
	"fmt"

	"github.com/pkg/errors"
	"golang.org/x/exp/slices"

	"github.com/mrjoshuak/go-mpegg/internal/binarization"
)

// lutSplitUnit is the split unit of the SUTU code carrying LUT tables.
const lutSplitUnit = 2

// lutGeometry addresses the cells [lane][prevHi][prevLo] of a LUT.
type lutGeometry struct {
	lanes      int
	hi         int
	lo         int
	subsymSize uint
	order      uint
	shared     bool
}

func newLUTGeometry(c *Config) lutGeometry {
	g := lutGeometry{
		lanes:      c.NumSubsyms(),
		hi:         1,
		lo:         1,
		subsymSize: c.CodingSubsymSize,
		order:      c.CodingOrder,
		shared:     c.ShareSubsymLUT,
	}
	if g.shared {
		g.lanes = 1
	}
	if g.order >= 1 {
		g.lo = int(c.alphabet())
	}
	if g.order == 2 {
		g.hi = int(c.alphabet())
	}
	return g
}

func (g lutGeometry) numCells() int {
	return g.lanes * g.hi * g.lo
}

func (g lutGeometry) alphabet() uint64 {
	return 1 << g.subsymSize
}

func (g lutGeometry) cell(lane int, prev0, prev1 uint64) int {
	if g.shared {
		lane = 0
	}
	mask := g.alphabet() - 1
	var hi, lo uint64
	if g.order >= 1 {
		lo = prev0 & mask
	}
	if g.order == 2 {
		hi = prev1 & mask
	}
	return (lane*g.hi+int(hi))*g.lo + int(lo)
}

// LUTBuilder counts sub-symbol frequencies per cell. It is the counting
// state of a LUT; Freeze produces the immutable table.
type LUTBuilder struct {
	geom   lutGeometry
	counts map[int][]uint64
}

// NewLUTBuilder returns an empty builder for the cells of c.
func NewLUTBuilder(c *Config) *LUTBuilder {
	return &LUTBuilder{
		geom:   newLUTGeometry(c),
		counts: make(map[int][]uint64),
	}
}

// Count records one occurrence of sub-symbol s in lane after prev0, prev1.
func (b *LUTBuilder) Count(lane int, prev0, prev1, s uint64) {
	cell := b.geom.cell(lane, prev0, prev1)
	counts := b.counts[cell]
	if counts == nil {
		counts = make([]uint64, b.geom.alphabet())
		b.counts[cell] = counts
	}
	counts[s]++
}

// Freeze returns the table ranking every cell by descending frequency,
// ties by ascending value.
func (b *LUTBuilder) Freeze() *LUT {
	l := &LUT{geom: b.geom, cells: make(map[int]*lutCell, len(b.counts))}
	for idx, counts := range b.counts {
		var values []uint64
		for v, n := range counts {
			if n > 0 {
				values = append(values, uint64(v))
			}
		}
		slices.SortFunc(values, func(x, y uint64) int {
			switch {
			case counts[x] > counts[y]:
				return -1
			case counts[x] < counts[y]:
				return 1
			case x < y:
				return -1
			case x > y:
				return 1
			}
			return 0
		})
		l.cells[idx] = newLUTCell(values)
	}
	return l
}

// LUT is a frozen frequency-rank table.
type LUT struct {
	geom  lutGeometry
	cells map[int]*lutCell
}

type lutCell struct {
	values []uint64
	rank   map[uint64]int
}

func newLUTCell(values []uint64) *lutCell {
	c := &lutCell{values: values, rank: make(map[uint64]int, len(values))}
	for i, v := range values {
		c.rank[v] = i
	}
	return c
}

// Values returns the ranked values of the cell addressed by lane and the
// previous values. The slice must not be modified.
func (l *LUT) Values(lane int, prev0, prev1 uint64) []uint64 {
	if c := l.cells[l.geom.cell(lane, prev0, prev1)]; c != nil {
		return c.values
	}
	return nil
}

// Cells returns the number of populated cells.
func (l *LUT) Cells() int {
	return len(l.cells)
}

// Entries returns the total number of ranked values.
func (l *LUT) Entries() int {
	n := 0
	for _, c := range l.cells {
		n += len(c.values)
	}
	return n
}

// rank returns the rank of s in cell. A missing entry means the table was
// built from other symbols than the ones being coded.
func (l *LUT) rank(cell int, s uint64) int {
	c := l.cells[cell]
	if c == nil {
		panic(fmt.Sprintf("cabac: LUT cell %d never built", cell))
	}
	r, ok := c.rank[s]
	if !ok {
		panic(fmt.Sprintf("cabac: value %d missing from LUT cell %d", s, cell))
	}
	return r
}

func (l *LUT) sizeBinarizations() (count, value binarization.SplitUnitTU) {
	count = binarization.SplitUnitTU{SplitUnitSize: lutSplitUnit, SymbolSize: l.geom.subsymSize + 1}
	value = binarization.SplitUnitTU{SplitUnitSize: lutSplitUnit, SymbolSize: l.geom.subsymSize}
	return count, value
}

// write serializes every cell in index order to w, which should code in
// bypass mode.
func (l *LUT) write(w binarization.BinWriter) error {
	countBin, valueBin := l.sizeBinarizations()
	for idx := 0; idx < l.geom.numCells(); idx++ {
		var values []uint64
		if c := l.cells[idx]; c != nil {
			values = c.values
		}
		if err := countBin.Encode(w, 0, int64(len(values))); err != nil {
			return errors.Wrapf(err, "writing LUT cell %d size", idx)
		}
		for _, v := range values {
			if err := valueBin.Encode(w, 0, int64(v)); err != nil {
				return errors.Wrapf(err, "writing LUT cell %d", idx)
			}
		}
	}
	return nil
}

// readLUT reads the tables written by write.
func readLUT(r binarization.BinReader, c *Config) (*LUT, error) {
	l := &LUT{geom: newLUTGeometry(c), cells: make(map[int]*lutCell)}
	countBin, valueBin := l.sizeBinarizations()
	alphabet := l.geom.alphabet()
	for idx := 0; idx < l.geom.numCells(); idx++ {
		n, err := countBin.Decode(r, 0)
		if err != nil {
			return nil, errors.Wrapf(err, "reading LUT cell %d size", idx)
		}
		if uint64(n) > alphabet {
			return nil, errors.Wrapf(ErrCorrupt, "LUT cell %d holds %d values of a %d-symbol alphabet", idx, n, alphabet)
		}
		if n == 0 {
			continue
		}
		values := make([]uint64, n)
		for i := range values {
			v, err := valueBin.Decode(r, 0)
			if err != nil {
				return nil, errors.Wrapf(err, "reading LUT cell %d", idx)
			}
			values[i] = uint64(v)
		}
		l.cells[idx] = newLUTCell(values)
	}
	return l, nil
}

// lutBinarization returns the binarization of the ranks of a cell holding
// n values. TU is capped at the largest rank, bounded by the per-lane
// context count; the configured cMax does not apply to ranks.
func (c *Config) lutBinarization(n int) binarization.Binarization {
	if _, ok := c.Binarization.(binarization.TruncatedUnary); ok {
		return binarization.TruncatedUnary{CMax: uint64(min(c.NumCtxSubsym(), n-1))}
	}
	return c.Binarization
}
