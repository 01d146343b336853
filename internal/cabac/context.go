package cabac

// NumCtxSubsym returns the number of contexts one sub-symbol binarization
// consumes.
func (c *Config) NumCtxSubsym() int {
	if c.Bypass {
		return 0
	}
	return c.Binarization.NumContexts(c.alphabet())
}

// contextsPerLane returns the contexts of one lane across every previous
// value combination.
func (c *Config) contextsPerLane() int {
	n := c.NumCtxSubsym()
	if c.contextModelling() {
		for i := uint(0); i < c.CodingOrder; i++ {
			n *= int(c.alphabet())
		}
	}
	return n
}

// NumContexts returns the size of the context table.
func (c *Config) NumContexts() int {
	n := c.contextsPerLane()
	if !c.ShareSubsymCtx {
		n *= c.NumSubsyms()
	}
	return n
}

// ContextIndex returns the first context used by the binarization of
// sub-symbol lane, given the lane's two most recent values.
func (c *Config) ContextIndex(lane int, prev0, prev1 uint64) int {
	ctx := 0
	if !c.ShareSubsymCtx {
		ctx = lane * c.contextsPerLane()
	}
	if !c.contextModelling() {
		return ctx
	}
	numCtx := c.NumCtxSubsym()
	mask := c.subsymMask()
	switch c.CodingOrder {
	case 1:
		ctx += int(prev0&mask) * numCtx
	case 2:
		ctx += int((prev1&mask)*c.alphabet()+(prev0&mask)) * numCtx
	}
	return ctx
}

// history is the previous-value memory of every lane.
type history struct {
	lanes  [][2]int64
	shared bool
}

func newHistory(c *Config) *history {
	return &history{
		lanes:  make([][2]int64, c.NumSubsyms()),
		shared: c.ShareSubsymPrv,
	}
}

func (h *history) lane(i int) *[2]int64 {
	if h.shared {
		i = 0
	}
	return &h.lanes[i]
}

// push records s as the most recent value of lane i.
func (h *history) push(i int, s int64) {
	p := h.lane(i)
	p[1] = p[0]
	p[0] = s
}

func (h *history) reset() {
	for i := range h.lanes {
		h.lanes[i] = [2]int64{}
	}
}
