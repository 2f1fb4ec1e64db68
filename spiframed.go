package hx71x

import (
	"errors"
	"fmt"
	"time"
)

const (
	spiFrameLen = 7

	// Polled wait for the data line to clear after the trigger pulse.
	spiClearTries    = 1000
	spiClearInterval = time.Millisecond

	// Received bits sampled while the clock (MOSI) is high.
	spiSampleMask = 0x55
)

// spiClockFrames are the MOSI patterns wired to the clock line. Every 0xAA
// byte carries four clock pulses; the last byte adds the 1 to 3 mode pulses.
var spiClockFrames = [...][spiFrameLen]byte{
	ModeA128: {0xaa, 0xaa, 0xaa, 0xaa, 0xaa, 0xaa, 0x80},
	ModeB32:  {0xaa, 0xaa, 0xaa, 0xaa, 0xaa, 0xaa, 0xa0},
	ModeA64:  {0xaa, 0xaa, 0xaa, 0xaa, 0xaa, 0xaa, 0xa8},
}

// nibbleTable maps a received byte masked with spiSampleMask to the four data
// bits it carries: bits 6, 4, 2 and 0 become bits 3 to 0.
var nibbleTable = [spiSampleMask + 1]byte{
	0x00: 0x0, 0x01: 0x1, 0x04: 0x2, 0x05: 0x3,
	0x10: 0x4, 0x11: 0x5, 0x14: 0x6, 0x15: 0x7,
	0x40: 0x8, 0x41: 0x9, 0x44: 0xa, 0x45: 0xb,
	0x50: 0xc, 0x51: 0xd, 0x54: 0xe, 0x55: 0xf,
}

// SPIConfig holds the options of the SPI-framed transport.
type SPIConfig struct {
	// Mode is the initial mode. Defaults to ModeA128.
	Mode Mode
	// TriggerPolls is the number of data line polls spent looking for the
	// trigger pulse. If zero it is calibrated like BitbangConfig.TriggerPolls.
	TriggerPolls int
}

// SPIFramed generates the clock with the MOSI line of an SPI bus and samples
// the data line on MISO, so the whole pulse train is one transfer. The data
// line must also be readable as a GPIO to detect the trigger pulse.
type SPIFramed struct {
	data   Pin
	bus    SPI
	mode   Mode
	ready  readyWait
	thermo thermometer
	rx     [spiFrameLen]byte
	sleep  func(time.Duration)
}

var _ Transport = (*SPIFramed)(nil)

// NewSPIFramed creates an SPI-framed transport.
func NewSPIFramed(data Pin, bus SPI, c SPIConfig) (*SPIFramed, error) {
	if data == nil || bus == nil {
		return nil, errors.New("data pin and SPI bus must be configured")
	}
	polls := c.TriggerPolls
	if polls <= 0 {
		polls = calibratePolls(data, calibrationWindow)
	}

	s := &SPIFramed{
		data:   data,
		bus:    bus,
		mode:   normalizeMode(c.Mode),
		thermo: newThermometer(),
		sleep:  time.Sleep,
	}
	s.ready = readyWait{
		data:          data,
		triggerPolls:  polls,
		clearTries:    spiClearTries,
		clearInterval: spiClearInterval,
		sleep:         func(d time.Duration) { s.sleep(d) },
	}
	return s, nil
}

func (s *SPIFramed) Mode() Mode {
	return s.mode
}

func (s *SPIFramed) SetMode(m Mode) error {
	s.mode = normalizeMode(m)
	_, err := s.Read()
	return err
}

func (s *SPIFramed) Read() (int32, error) {
	if err := s.ready.wait(); err != nil {
		return 0, err
	}
	frame := spiClockFrames[s.mode]
	if err := s.bus.Tx(frame[:], s.rx[:]); err != nil {
		return 0, fmt.Errorf("%w: SPI transfer: %w", ErrPkg, err)
	}
	return decodeFrame(s.rx[:]), nil
}

// decodeFrame assembles the 24 data bits from the first six received bytes.
// The mode pulses in the last byte carry no data.
func decodeFrame(rx []byte) int32 {
	var v uint32
	for _, b := range rx[:DataBits/4] {
		v = v<<4 | uint32(nibbleTable[b&spiSampleMask])
	}
	return SignExtend24(v)
}

// Temperature reads the temperature channel. Raw samples are full 24-bit
// values on the same scale as the other transports, not divided by 512, so
// one calibration serves every transport.
func (s *SPIFramed) Temperature(raw bool) (float64, error) {
	return s.thermo.temperature(&s.mode, s.Read, raw)
}

func (s *SPIFramed) Calibrate(refTemp, gain float64) error {
	return s.thermo.calibrate(&s.mode, s.Read, refTemp, gain)
}

// PowerDown is not supported: MOSI idles low between transfers, so the clock
// line cannot be held high.
func (s *SPIFramed) PowerDown() error {
	globalLogger.Debug("HX71x power down not supported on SPI transport")
	return nil
}

func (s *SPIFramed) PowerUp() error {
	return nil
}
