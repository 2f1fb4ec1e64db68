package hx71x

import "errors"

// --- Mocks ---

// fakeChip simulates an HX71x on a clock and a data pin. Each conversion
// first shows the trigger pulse (data high), then goes ready (data low) and
// shifts the next queued sample out MSB first, one bit per rising clock edge.
// The last queued sample repeats.
type fakeChip struct {
	samples []int32
	next    int

	phase     int // 0 waiting for trigger, 1 trigger shown, 2 shifting
	current   int32
	fresh     bool
	clockHigh bool

	// frames holds the number of clock pulses seen in each conversion.
	frames    []int
	dataReads int

	noTrigger bool // data never goes high
	stuckHigh bool // data never goes low after the trigger
	noEdge    bool // Watch never fires

	watching   bool
	unwatched  int
	clockLevel []Level
}

func newFakeChip(samples ...int32) *fakeChip {
	return &fakeChip{samples: samples}
}

func (c *fakeChip) load() {
	c.current = 0
	if len(c.samples) > 0 {
		i := c.next
		if i >= len(c.samples) {
			i = len(c.samples) - 1
		}
		c.current = c.samples[i]
		c.next++
	}
	c.frames = append(c.frames, 0)
	c.phase = 2
	c.fresh = false
}

// bit returns the data line level after the given 1-based pulse.
func (c *fakeChip) bit(pulse int) Level {
	if pulse > DataBits {
		return High
	}
	v := uint32(c.current) & dataMask
	return Level(v>>(DataBits-pulse)&1 == 1)
}

func (c *fakeChip) rise() {
	if c.phase != 2 {
		return
	}
	c.frames[len(c.frames)-1]++
	c.fresh = true
}

func (c *fakeChip) lastFrame() int {
	if len(c.frames) == 0 {
		return 0
	}
	return c.frames[len(c.frames)-1]
}

func (c *fakeChip) clock() *fakeClockPin { return &fakeClockPin{chip: c} }
func (c *fakeChip) data() *fakeDataPin   { return &fakeDataPin{chip: c} }

type fakeClockPin struct {
	chip    *fakeChip
	failOn  int // fail the n-th Out call (1-based), 0 never
	outs    int
	errFail error
}

func (p *fakeClockPin) Out(l Level) error {
	p.outs++
	if p.failOn != 0 && p.outs == p.failOn {
		return p.errFail
	}
	c := p.chip
	c.clockLevel = append(c.clockLevel, l)
	if l == High && !c.clockHigh {
		c.rise()
	}
	c.clockHigh = bool(l)
	return nil
}

func (p *fakeClockPin) In(Pull) error            { return nil }
func (p *fakeClockPin) Read() Level              { return Level(p.chip.clockHigh) }
func (p *fakeClockPin) Watch(Edge, func()) error { return errors.New("not supported") }
func (p *fakeClockPin) Unwatch() error           { return nil }

type fakeDataPin struct {
	chip *fakeChip
	pull Pull
}

func (p *fakeDataPin) Out(Level) error { return errors.New("data pin is an input") }

func (p *fakeDataPin) In(pull Pull) error {
	p.pull = pull
	return nil
}

func (p *fakeDataPin) Read() Level {
	c := p.chip
	c.dataReads++
	switch {
	case c.noTrigger:
		return Low
	case c.stuckHigh:
		return High
	}
	switch c.phase {
	case 0:
		c.phase = 1
		return High
	case 1:
		c.load()
		return Low
	default:
		if c.fresh {
			c.fresh = false
			return c.bit(c.lastFrame())
		}
		// a new conversion wait has started
		c.phase = 1
		return High
	}
}

func (p *fakeDataPin) Watch(edge Edge, handler func()) error {
	c := p.chip
	c.watching = true
	if edge == FallingEdge && !c.noEdge {
		c.load()
		handler()
	}
	return nil
}

func (p *fakeDataPin) Unwatch() error {
	p.chip.watching = false
	p.chip.unwatched++
	return nil
}

// fakeSPI answers transfers with the current sample of a fakeChip, spreading
// each data nibble over the even bit positions and setting every odd bit.
type fakeSPI struct {
	chip *fakeChip
	tx   [][]byte
	err  error
}

func spreadNibble(n uint32) byte {
	var b byte
	for i := 0; i < 4; i++ {
		if n>>i&1 == 1 {
			b |= 1 << (2 * i)
		}
	}
	return b
}

// risingEdges counts 0→1 transitions in w sent MSB first from an idle low line.
func risingEdges(w []byte) int {
	n := 0
	prev := 0
	for _, b := range w {
		for i := 7; i >= 0; i-- {
			bit := int(b>>i) & 1
			if bit == 1 && prev == 0 {
				n++
			}
			prev = bit
		}
	}
	return n
}

func (s *fakeSPI) Tx(w, r []byte) error {
	s.tx = append(s.tx, append([]byte(nil), w...))
	if s.err != nil {
		return s.err
	}
	c := s.chip
	c.frames[len(c.frames)-1] += risingEdges(w)
	v := uint32(c.current) & dataMask
	for i := range r {
		r[i] = 0xaa
		if i < DataBits/4 {
			r[i] |= spreadNibble(v >> (DataBits - 4 - 4*i) & 0xf)
		} else {
			r[i] |= 0x55
		}
	}
	return nil
}

// fakeStateMachine runs a software model of the acquisition program: a
// non-zero pulse count yields the next sample encoded for that count.
type fakeStateMachine struct {
	samples []int32
	next    int

	puts     []uint32
	pending  []uint32
	restarts int
	active   bool
	parked   bool
	out      []uint32

	silent   bool // never delivers a word
	sentinel bool // delivers a word of all ones
}

func (m *fakeStateMachine) Restart() {
	m.restarts++
	m.out = nil
	m.pending = nil
	m.parked = false
}

func (m *fakeStateMachine) Put(v uint32) {
	m.puts = append(m.puts, v)
	m.pending = append(m.pending, v)
}

func (m *fakeStateMachine) SetActive(active bool) {
	m.active = active
	if !active || len(m.pending) == 0 {
		return
	}
	count := m.pending[0]
	m.pending = m.pending[1:]
	if count == powerDownCount {
		m.parked = true
		return
	}
	if m.silent {
		return
	}
	mode := Mode(int(count) - DataBits)
	if m.sentinel {
		m.out = append(m.out, 0xffffffff)
		return
	}
	var v int32
	if len(m.samples) > 0 {
		i := m.next
		if i >= len(m.samples) {
			i = len(m.samples) - 1
		}
		v = m.samples[i]
		m.next++
	}
	m.out = append(m.out, Encode(v, mode))
}

func (m *fakeStateMachine) RxAvailable() bool {
	return len(m.out) > 0
}

func (m *fakeStateMachine) Get() uint32 {
	v := m.out[0]
	m.out = m.out[1:]
	return v
}

// fakeTransport returns queued samples; the last one repeats.
type fakeTransport struct {
	samples []int32
	next    int
	err     error

	mode       Mode
	setModes   []Mode
	temp       float64
	tempRaw    []bool
	calibrated [][2]float64
	powerDowns int
	powerUps   int
}

func (f *fakeTransport) Read() (int32, error) {
	if f.err != nil {
		return 0, f.err
	}
	if len(f.samples) == 0 {
		return 0, nil
	}
	i := f.next
	if i >= len(f.samples) {
		i = len(f.samples) - 1
	}
	f.next++
	return f.samples[i], nil
}

func (f *fakeTransport) SetMode(m Mode) error {
	f.mode = normalizeMode(m)
	f.setModes = append(f.setModes, m)
	return nil
}

func (f *fakeTransport) Mode() Mode { return f.mode }

func (f *fakeTransport) Temperature(raw bool) (float64, error) {
	f.tempRaw = append(f.tempRaw, raw)
	return f.temp, nil
}

func (f *fakeTransport) Calibrate(refTemp, gain float64) error {
	f.calibrated = append(f.calibrated, [2]float64{refTemp, gain})
	return nil
}

func (f *fakeTransport) PowerDown() error {
	f.powerDowns++
	return nil
}

func (f *fakeTransport) PowerUp() error {
	f.powerUps++
	return nil
}

var (
	_ Pin          = (*fakeClockPin)(nil)
	_ Pin          = (*fakeDataPin)(nil)
	_ SPI          = (*fakeSPI)(nil)
	_ StateMachine = (*fakeStateMachine)(nil)
	_ Transport    = (*fakeTransport)(nil)
)

