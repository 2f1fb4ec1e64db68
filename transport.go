package hx71x

import "fmt"

// Mode selects gain and input channel. It is encoded on the wire as the number
// of clock pulses sent after the 24 data bits, and takes effect on the pulse
// train following the one that set it.
type Mode uint8

const (
	// ModeA128 selects channel A with gain 128.
	ModeA128 Mode = 1
	// ModeB32 selects channel B with gain 32. On the HX712 and on boards used
	// for temperature readout this is the temperature channel.
	ModeB32 Mode = 2
	// ModeA64 selects channel A with gain 64.
	ModeA64 Mode = 3

	// ModeTemperature is the mode used by the temperature read sequence.
	ModeTemperature = ModeB32
)

// DataBits is the width of a conversion result.
const DataBits = 24

// normalizeMode returns m if it is a valid mode and ModeA128 otherwise.
func normalizeMode(m Mode) Mode {
	switch m {
	case ModeA128, ModeB32, ModeA64:
		return m
	default:
		return ModeA128
	}
}

// Pulses returns the number of clock pulses needed to read one sample in mode m.
func (m Mode) Pulses() int {
	return DataBits + int(normalizeMode(m))
}

func (m Mode) String() string {
	switch m {
	case ModeA128:
		return "A/128"
	case ModeB32:
		return "B/32"
	case ModeA64:
		return "A/64"
	default:
		return fmt.Sprintf("invalid(%d)", uint8(m))
	}
}

// Transport acquires raw samples from the chip. Bitbang, Sequencer and
// SPIFramed implement it with identical semantics: Read returns a sign-extended
// sample or one of ErrNoTriggerPulse, ErrSensorTimeout, ErrSensorNotResponding.
//
// A Transport owns its pins exclusively and is not safe for concurrent use.
type Transport interface {
	// Read acquires one sample in the current mode.
	Read() (int32, error)
	// SetMode selects the mode for the next conversion. Invalid modes fall
	// back to ModeA128. A read is performed so the chip applies the mode.
	SetMode(m Mode) error
	// Mode returns the current mode.
	Mode() Mode
	// Temperature runs the temperature read sequence. With raw set the sample
	// is returned unconverted.
	Temperature(raw bool) (float64, error)
	// Calibrate sets the temperature reference and gain and takes the current
	// raw temperature as the offset.
	Calibrate(refTemp, gain float64) error
	PowerDown() error
	PowerUp() error
}
