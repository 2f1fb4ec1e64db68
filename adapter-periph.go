//go:build !tinygo

package hx71x

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// edgePollTimeout bounds each WaitForEdge call so Unwatch can stop the
// watcher goroutine.
const edgePollTimeout = 10 * time.Millisecond

// realPin wraps a gpio.PinIO to satisfy the Pin interface.
type realPin struct {
	gpio.PinIO
	pull      gpio.Pull
	stopWatch chan struct{}
}

func (p *realPin) Out(l Level) error {
	if l == High {
		return p.PinIO.Out(gpio.High)
	}
	return p.PinIO.Out(gpio.Low)
}

func (p *realPin) In(pull Pull) error {
	switch pull {
	case PullFloat:
		p.pull = gpio.Float
	case PullDown:
		p.pull = gpio.PullDown
	case PullUp:
		p.pull = gpio.PullUp
	default:
		p.pull = gpio.PullNoChange
	}
	return p.PinIO.In(p.pull, gpio.NoEdge)
}

func (p *realPin) Read() Level {
	if p.PinIO.Read() == gpio.High {
		return High
	}
	return Low
}

func (p *realPin) Watch(edge Edge, handler func()) error {
	var pEdge gpio.Edge
	switch edge {
	case RisingEdge:
		pEdge = gpio.RisingEdge
	case FallingEdge:
		pEdge = gpio.FallingEdge
	case BothEdges:
		pEdge = gpio.BothEdges
	default:
		pEdge = gpio.NoEdge
	}

	// Ensure we are in input mode with the correct edge detection
	if err := p.PinIO.In(p.pull, pEdge); err != nil {
		return err
	}

	stop := make(chan struct{})
	p.stopWatch = stop

	go func() {
		for {
			fired := p.PinIO.WaitForEdge(edgePollTimeout)
			select {
			case <-stop:
				return
			default:
			}
			if fired {
				handler()
			}
		}
	}()
	return nil
}

func (p *realPin) Unwatch() error {
	if p.stopWatch != nil {
		close(p.stopWatch)
		p.stopWatch = nil
	}
	// Disable edge detection
	return p.PinIO.In(p.pull, gpio.NoEdge)
}

func openPin(n int) (*realPin, error) {
	name := fmt.Sprintf("GPIO%d", n)
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("failed to open pin %s", name)
	}
	return &realPin{PinIO: p, pull: gpio.PullNoChange}, nil
}

// New creates and initializes a new HX71x driver for Linux systems.
// It applies configuration defaults, opens the GPIO pins (and the SPI port for
// TransportSPI) using periph.io, applies the mode and calibration, and reads a
// first sample to seed the filter.
// It returns the initialized driver or an error if hardware initialization fails.
func New(c Config) (*Device, error) {
	c.applyDefaults()
	if err := c.validate(); err != nil {
		return nil, err
	}

	// periph.io host is required for both SPI and GPIO
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph.io host: %w", err)
	}

	data, err := openPin(c.DataPin)
	if err != nil {
		return nil, err
	}

	var (
		t    Transport
		port spi.PortCloser
	)
	switch c.Transport {
	case TransportSPI:
		port, err = spireg.Open(c.SpiBusPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open SPI port: %w", err)
		}
		// Mode 0: MOSI idles low, which keeps the chip powered up
		conn, err := port.Connect(physic.Frequency(c.SpiClockHz)*physic.Hertz, spi.Mode0, 8)
		if err != nil {
			port.Close()
			return nil, fmt.Errorf("failed to create SPI connection: %w", err)
		}
		if err := data.In(PullFloat); err != nil {
			port.Close()
			return nil, fmt.Errorf("failed to configure data pin: %w", err)
		}
		t, err = NewSPIFramed(data, conn, SPIConfig{Mode: c.Mode, TriggerPolls: c.TriggerPolls})
		if err != nil {
			port.Close()
			return nil, err
		}
	default:
		clock, err := openPin(c.ClockPin)
		if err != nil {
			return nil, err
		}
		t, err = NewBitbang(clock, data, BitbangConfig{
			Mode:         c.Mode,
			UseIRQ:       c.UseIRQ,
			TriggerPolls: c.TriggerPolls,
		})
		if err != nil {
			return nil, err
		}
	}

	dev, err := NewWithTransport(t, c.Mode)
	if err != nil {
		if port != nil {
			port.Close()
		}
		return nil, err
	}
	dev.scale = c.Scale
	dev.offset = c.Offset
	dev.filter.setK(c.TimeConstant)

	// Store the port closer so we can close it later
	if port != nil {
		dev.port = port
	}
	return dev, nil
}
