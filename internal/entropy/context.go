package entropy

import "fmt"

// Context is the adaptive probability state of one context.
type Context struct {
	State uint8 // Probability state index (0-63)
	MPS   uint8 // Most probable symbol (0 or 1)
}

// ContextFromInitValue derives a context from its 7-bit initialisation
// value. Values up to 63 select MPS 0 with state 63-v, larger values
// select MPS 1 with state v-64.
func ContextFromInitValue(v uint8) Context {
	if v <= 63 {
		return Context{State: 63 - v, MPS: 0}
	}
	if v > MaxInitValue {
		v = MaxInitValue
	}
	return Context{State: v - 64, MPS: 1}
}

// Table is the context table owned by one syntax-element coder.
type Table struct {
	contexts []Context
	init     []uint8
	adaptive bool
}

// NewTable creates a table of n contexts. initValues may be nil, in which
// case every context starts from DefaultInitValue; otherwise it must hold
// exactly n values. A non-adaptive table never updates its states.
func NewTable(n int, adaptive bool, initValues []uint8) *Table {
	if initValues != nil && len(initValues) != n {
		panic(fmt.Sprintf("entropy: %d init values for %d contexts", len(initValues), n))
	}
	t := &Table{
		contexts: make([]Context, n),
		adaptive: adaptive,
	}
	if initValues != nil {
		t.init = append([]uint8(nil), initValues...)
	}
	t.Reset()
	return t
}

// Reset returns every context to its initial state.
func (t *Table) Reset() {
	for i := range t.contexts {
		v := uint8(DefaultInitValue)
		if t.init != nil {
			v = t.init[i]
		}
		t.contexts[i] = ContextFromInitValue(v)
	}
}

// Len returns the number of contexts.
func (t *Table) Len() int {
	return len(t.contexts)
}

// Adaptive reports whether coding updates context states.
func (t *Table) Adaptive() bool {
	return t.adaptive
}

// At returns a copy of context i.
func (t *Table) At(i int) Context {
	return *t.at(i)
}

func (t *Table) at(i int) *Context {
	if i < 0 || i >= len(t.contexts) {
		panic(fmt.Sprintf("entropy: context index %d outside table of %d", i, len(t.contexts)))
	}
	return &t.contexts[i]
}

// updateLPS moves c after an LPS.
func (t *Table) updateLPS(c *Context) {
	if !t.adaptive {
		return
	}
	if c.State == 0 {
		c.MPS = 1 - c.MPS
	}
	c.State = transIdxLPS[c.State]
}

// updateMPS moves c after an MPS.
func (t *Table) updateMPS(c *Context) {
	if !t.adaptive {
		return
	}
	c.State = transIdxMPS[c.State]
}
