//go:build tinygo

package hx71x

import (
	"machine"

	"tinygo.org/x/drivers"
)

// tinygoPin wraps a machine.Pin to satisfy the Pin interface.
type tinygoPin struct {
	pin    machine.Pin
	change machine.PinChange
}

func (p *tinygoPin) Out(l Level) error {
	p.pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	p.pin.Set(bool(l))
	return nil
}

func (p *tinygoPin) In(pull Pull) error {
	var mPull machine.PinMode
	switch pull {
	case PullUp:
		mPull = machine.PinInputPullup
	case PullDown:
		mPull = machine.PinInputPulldown
	default:
		mPull = machine.PinInput
	}
	p.pin.Configure(machine.PinConfig{Mode: mPull})
	return nil
}

func (p *tinygoPin) Read() Level {
	return Level(p.pin.Get())
}

func (p *tinygoPin) Watch(edge Edge, handler func()) error {
	switch edge {
	case RisingEdge:
		p.change = machine.PinRising
	case FallingEdge:
		p.change = machine.PinFalling
	case BothEdges:
		p.change = machine.PinToggle
	default:
		return nil
	}

	// The handler runs in interrupt context and must not block
	return p.pin.SetInterrupt(p.change, func(machine.Pin) {
		handler()
	})
}

func (p *tinygoPin) Unwatch() error {
	// A nil callback removes the pin change interrupt
	return p.pin.SetInterrupt(p.change, nil)
}

// outPin is a tinygoPin that keeps its output mode configured, so toggling
// the clock inside the masked section is a plain register write.
type outPin struct {
	tinygoPin
}

func newOutPin(pin machine.Pin) *outPin {
	pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	return &outPin{tinygoPin{pin: pin}}
}

func (p *outPin) Out(l Level) error {
	p.pin.Set(bool(l))
	return nil
}

// NewTinyGo creates a new HX71x driver on a microcontroller, with the clock
// bit-banged on clockPin.
func NewTinyGo(clockPin, dataPin machine.Pin, c BitbangConfig) (*Device, error) {
	b, err := NewBitbang(newOutPin(clockPin), &tinygoPin{pin: dataPin}, c)
	if err != nil {
		return nil, err
	}
	return NewWithTransport(b, c.Mode)
}

// NewTinyGoSPI creates a new HX71x driver clocked by the MOSI line of bus.
// dataPin is a second GPIO wired to the same line as MISO. Any tinygo.org/x/drivers SPI
// bus can be used, including machine.SPI0 and machine.SPI1.
func NewTinyGoSPI(bus drivers.SPI, dataPin machine.Pin, c SPIConfig) (*Device, error) {
	s, err := NewSPIFramed(&tinygoPin{pin: dataPin}, bus, c)
	if err != nil {
		return nil, err
	}
	return NewWithTransport(s, c.Mode)
}
