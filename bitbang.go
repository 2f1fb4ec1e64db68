package hx71x

import (
	"errors"
	"fmt"
	"time"
)

const (
	// Polled wait for the data line to clear after the trigger pulse.
	bitbangClearTries    = 5000
	bitbangClearInterval = 100 * time.Microsecond

	// Edge-interrupt wait for the conversion-ready falling edge.
	irqWaitTries    = 1000
	irqWaitInterval = time.Millisecond
)

// BitbangConfig holds the options of the bit-banged transport.
type BitbangConfig struct {
	// Mode is the initial mode. It is applied to the chip by the first
	// SetMode call. Defaults to ModeA128.
	Mode Mode
	// UseIRQ waits for the falling edge of the data line with Pin.Watch
	// instead of polling the line.
	UseIRQ bool
	// TriggerPolls is the number of data line polls spent looking for the
	// trigger pulse. If zero it is calibrated from the speed of the data pin
	// so that the wait lasts about three seconds.
	TriggerPolls int
}

// Bitbang drives the clock line from software. Each clock pulse and the data
// sample that follows it run with interrupts disabled so that the clock high
// time stays below the 60µs after which the chip powers down.
//
// Hosted Go cannot disable interrupts or preemption. On Linux the pulse train
// only runs on a locked OS thread, and a preempted pulse may still exceed the
// limit; the chip then powers down and the sample is corrupt. Use the
// Sequencer or SPIFramed transport where that matters.
type Bitbang struct {
	clock  Pin
	data   Pin
	mode   Mode
	useIRQ bool
	ready  readyWait
	thermo thermometer
	irq    chan struct{}
	sleep  func(time.Duration)
}

var _ Transport = (*Bitbang)(nil)

// NewBitbang creates a bit-banged transport on the given clock and data pins.
// The clock pin is driven low, which also powers the chip up.
func NewBitbang(clock, data Pin, c BitbangConfig) (*Bitbang, error) {
	if clock == nil || data == nil {
		return nil, errors.New("clock and data pins must be configured")
	}
	if err := clock.Out(Low); err != nil {
		return nil, fmt.Errorf("failed to drive clock pin: %w", err)
	}
	if err := data.In(PullFloat); err != nil {
		return nil, fmt.Errorf("failed to configure data pin: %w", err)
	}

	polls := c.TriggerPolls
	if polls <= 0 {
		polls = calibratePolls(data, calibrationWindow)
	}

	b := &Bitbang{
		clock:  clock,
		data:   data,
		mode:   normalizeMode(c.Mode),
		useIRQ: c.UseIRQ,
		thermo: newThermometer(),
		irq:    make(chan struct{}, 1),
		sleep:  time.Sleep,
	}
	b.ready = readyWait{
		data:          data,
		triggerPolls:  polls,
		clearTries:    bitbangClearTries,
		clearInterval: bitbangClearInterval,
		sleep:         func(d time.Duration) { b.sleep(d) },
	}
	return b, nil
}

func (b *Bitbang) Mode() Mode {
	return b.mode
}

func (b *Bitbang) SetMode(m Mode) error {
	b.mode = normalizeMode(m)
	_, err := b.Read()
	return err
}

// Read waits for the chip to finish a conversion and shifts the sample in.
func (b *Bitbang) Read() (int32, error) {
	var err error
	if b.useIRQ {
		err = b.waitEdge()
	} else {
		err = b.ready.wait()
	}
	if err != nil {
		return 0, err
	}

	release := pinThread()
	defer release()

	var raw uint32
	for i := 0; i < b.mode.Pulses(); i++ {
		l, err := b.pulse()
		if err != nil {
			return 0, fmt.Errorf("%w: clock pulse %d: %w", ErrPkg, i, err)
		}
		raw = raw<<1 | l.bit()
	}
	return Decode(raw, b.mode), nil
}

// pulse emits one clock pulse and samples the data line with interrupts
// disabled.
func (b *Bitbang) pulse() (Level, error) {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	if err := b.clock.Out(High); err != nil {
		return Low, err
	}
	if err := b.clock.Out(Low); err != nil {
		return Low, err
	}
	return b.data.Read(), nil
}

func (b *Bitbang) waitEdge() error {
	// drop an edge left over from a previous wait
	select {
	case <-b.irq:
	default:
	}
	err := b.data.Watch(FallingEdge, func() {
		select {
		case b.irq <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return fmt.Errorf("failed to watch data pin: %w", err)
	}
	defer b.data.Unwatch()

	for i := 0; i < irqWaitTries; i++ {
		select {
		case <-b.irq:
			return nil
		default:
		}
		b.sleep(irqWaitInterval)
	}
	globalLogger.Warn("HX71x data line never signalled ready")
	return fmt.Errorf("%w: %w", ErrPkg, ErrSensorTimeout)
}

func (b *Bitbang) Temperature(raw bool) (float64, error) {
	return b.thermo.temperature(&b.mode, b.Read, raw)
}

func (b *Bitbang) Calibrate(refTemp, gain float64) error {
	return b.thermo.calibrate(&b.mode, b.Read, refTemp, gain)
}

// PowerDown holds the clock line high, which puts the chip to sleep after 60µs.
func (b *Bitbang) PowerDown() error {
	if err := b.clock.Out(Low); err != nil {
		return err
	}
	return b.clock.Out(High)
}

// PowerUp releases the clock line. The chip resets to ModeA128 on wake up;
// call SetMode to reapply another mode.
func (b *Bitbang) PowerUp() error {
	return b.clock.Out(Low)
}
