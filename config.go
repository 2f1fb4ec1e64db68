//go:build !tinygo

package hx71x

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	TransportBitbang = "bitbang"
	TransportSPI     = "spi"
)

// Config holds the configuration for the Linux/periph.io driver.
// It can be decoded from TOML with LoadConfig.
type Config struct {
	// Transport selects how the clock line is driven: TransportBitbang or
	// TransportSPI. Defaults to TransportBitbang if not provided.
	Transport string `toml:"transport"`
	// Mode selects gain and channel. Defaults to ModeA128 if not provided.
	Mode Mode `toml:"mode"`
	// ClockPin is the GPIO pin number (BCM numbering) of the clock line (PD_SCK).
	// Unused with TransportSPI, where MOSI drives the clock.
	// Defaults to 5 if not provided.
	ClockPin int `toml:"clock_pin"`
	// DataPin is the GPIO pin number (BCM numbering) of the data line (DOUT).
	// With TransportSPI it must be wired to MISO as well.
	// Defaults to 6 if not provided.
	DataPin int `toml:"data_pin"`
	// UseIRQ waits for the data ready edge with an interrupt instead of
	// polling. Only used with TransportBitbang.
	UseIRQ bool `toml:"use_irq"`
	// TriggerPolls overrides the calibrated trigger polling budget.
	TriggerPolls int `toml:"trigger_polls"`
	// SpiBusPath is the path to the SPI bus (e.g., "/dev/spidev0.0").
	// Defaults to "/dev/spidev0.0" if not provided.
	SpiBusPath string `toml:"spi_bus"`
	// SpiClockHz is the SPI clock frequency in Hz. Every two SPI bits make
	// one HX71x clock pulse. Defaults to 1000000 (1MHz) if not provided.
	SpiClockHz int `toml:"spi_clock_hz"`

	// Scale is the number of counts per unit. Defaults to 1 if not provided.
	Scale float64 `toml:"scale"`
	// Offset is the tare offset in counts.
	Offset float64 `toml:"offset"`
	// TimeConstant is the low-pass coefficient, in (0, 1).
	// Defaults to DefaultTimeConstant if not provided.
	TimeConstant float64 `toml:"time_constant"`
}

func (c *Config) applyDefaults() {
	if c.Transport == "" {
		c.Transport = TransportBitbang
	}
	c.Mode = normalizeMode(c.Mode)
	if c.ClockPin == 0 {
		c.ClockPin = 5
	}
	if c.DataPin == 0 {
		c.DataPin = 6
	}
	if c.SpiBusPath == "" {
		c.SpiBusPath = "/dev/spidev0.0"
	}
	if c.SpiClockHz == 0 {
		c.SpiClockHz = 1000000
	}
	if c.Scale == 0 {
		c.Scale = 1
	}
	if c.TimeConstant == 0 {
		c.TimeConstant = DefaultTimeConstant
	}
}

func (c Config) validate() error {
	switch c.Transport {
	case TransportBitbang, TransportSPI:
	default:
		return fmt.Errorf("unknown transport %q", c.Transport)
	}
	if c.Transport == TransportBitbang && c.ClockPin == c.DataPin {
		return fmt.Errorf("clock and data must be different pins")
	}
	return nil
}

// LoadConfig decodes a TOML file into a Config with defaults applied.
// Unknown keys are rejected.
func LoadConfig(path string) (Config, error) {
	var c Config
	meta, err := toml.DecodeFile(path, &c)
	if err != nil {
		return Config{}, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return Config{}, fmt.Errorf("unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	c.applyDefaults()
	if err := c.validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return c, nil
}
