package hx71x

import (
	"fmt"
	"io"
	"sync"
)

// DefaultTareSamples is the number of samples Tare averages.
const DefaultTareSamples = 15

// Device is a load cell amplifier behind one Transport. It adds low-pass
// filtering, tare and scale calibration, and averaging on top of the raw
// samples.
//
// All methods are concurrent safe; they are serialized on one lock per
// device, which makes a shared sensor usable from several goroutines.
type Device struct {
	mu     sync.Mutex
	t      Transport
	port   io.Closer
	filter lowpass
	offset float64
	scale  float64
	// closedMode is the mode in effect when the device was closed.
	closedMode Mode
}

// NewWithTransport creates a Device on the given transport. It applies mode to
// the chip and seeds the low-pass filter with a first sample, so the filter
// starts without a transient from zero.
func NewWithTransport(t Transport, mode Mode) (*Device, error) {
	if t == nil {
		return nil, fmt.Errorf("transport not configured")
	}

	globalLogger.Info("Initializing HX71x...")

	if err := t.SetMode(mode); err != nil {
		return nil, fmt.Errorf("failed to set mode: %w", err)
	}
	first, err := t.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read first sample: %w", err)
	}

	dev := &Device{
		t:      t,
		filter: lowpass{k: DefaultTimeConstant},
		scale:  1,
	}
	dev.filter.reset(float64(first))

	globalLogger.Info("HX71x initialized. Ready to read.")
	return dev, nil
}

func (d *Device) String() string {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.t == nil {
		return "HX71x(closed)"
	}
	return fmt.Sprintf("HX71x(Mode=%s, Offset=%g, Scale=%g, TimeConstant=%g)",
		d.t.Mode(),
		d.offset,
		d.scale,
		d.filter.k,
	)
}

// Close powers the chip down and releases the bus opened by New.
// This method is concurrent safe.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.t == nil {
		return nil
	}
	if err := d.t.PowerDown(); err != nil {
		globalLogger.Warn("Failed to power down HX71x")
	}
	d.closedMode = d.t.Mode()
	d.t = nil
	globalLogger.Info("HX71x powered down.")

	if d.port != nil {
		if err := d.port.Close(); err != nil {
			return fmt.Errorf("failed to close port: %w", err)
		}
		d.port = nil
		globalLogger.Info("HX71x port closed.")
	}
	return nil
}

func (d *Device) transport() (Transport, error) {
	if d.t == nil {
		return nil, fmt.Errorf("%w: %w", ErrPkg, ErrClosed)
	}
	return d.t, nil
}

// Read returns one raw sample, bypassing the filter.
func (d *Device) Read() (int32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, err := d.transport()
	if err != nil {
		return 0, err
	}
	return t.Read()
}

// ReadLowpass reads a sample, feeds it through the low-pass filter and
// returns the filtered value.
func (d *Device) ReadLowpass() (float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.readLowpass()
}

func (d *Device) readLowpass() (float64, error) {
	t, err := d.transport()
	if err != nil {
		return 0, err
	}
	v, err := t.Read()
	if err != nil {
		return 0, err
	}
	return d.filter.update(float64(v)), nil
}

// ReadAverage returns the mean of times raw samples. The filter is bypassed.
// A non-positive times reads one sample.
func (d *Device) ReadAverage(times int) (float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.readAverage(times)
}

func (d *Device) readAverage(times int) (float64, error) {
	t, err := d.transport()
	if err != nil {
		return 0, err
	}
	if times < 1 {
		times = 1
	}
	var sum int64
	for i := 0; i < times; i++ {
		v, err := t.Read()
		if err != nil {
			return 0, err
		}
		sum += int64(v)
	}
	return float64(sum) / float64(times), nil
}

// GetValue returns the filtered sample minus the tare offset.
func (d *Device) GetValue() (float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.getValue()
}

func (d *Device) getValue() (float64, error) {
	v, err := d.readLowpass()
	if err != nil {
		return 0, err
	}
	return v - d.offset, nil
}

// GetUnits returns GetValue divided by the scale.
func (d *Device) GetUnits() (float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	v, err := d.getValue()
	if err != nil {
		return 0, err
	}
	return v / d.scale, nil
}

// Tare sets the offset to the average of times raw samples. Use
// DefaultTareSamples unless there is a reason not to.
func (d *Device) Tare(times int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	avg, err := d.readAverage(times)
	if err != nil {
		return err
	}
	d.offset = avg
	return nil
}

// SetScale sets the counts per unit used by GetUnits. It is not validated; a
// zero scale makes GetUnits return an infinite value.
func (d *Device) SetScale(scale float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.scale = scale
}

func (d *Device) Scale() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.scale
}

func (d *Device) SetOffset(offset float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.offset = offset
}

func (d *Device) Offset() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.offset
}

// TimeConstant returns the low-pass filter coefficient.
func (d *Device) TimeConstant() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.filter.k
}

// SetTimeConstant sets the low-pass filter coefficient. Values outside the
// open interval (0, 1) are ignored. It returns the coefficient in effect.
func (d *Device) SetTimeConstant(k float64) float64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.filter.setK(k) {
		globalLogger.Debug("HX71x time constant out of range, ignored")
	}
	return d.filter.k
}

// Temperature reads the temperature channel, in degrees or as a raw sample.
func (d *Device) Temperature(raw bool) (float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, err := d.transport()
	if err != nil {
		return 0, err
	}
	return t.Temperature(raw)
}

// Calibrate sets the temperature at the current raw temperature reading and
// the counts per degree. DefaultTempGain suits most chips.
func (d *Device) Calibrate(refTemp, gain float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, err := d.transport()
	if err != nil {
		return err
	}
	return t.Calibrate(refTemp, gain)
}

// PowerDown puts the chip to sleep.
func (d *Device) PowerDown() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, err := d.transport()
	if err != nil {
		return err
	}
	return t.PowerDown()
}

// PowerUp wakes the chip up.
func (d *Device) PowerUp() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, err := d.transport()
	if err != nil {
		return err
	}
	return t.PowerUp()
}

// SetMode selects gain and channel. Invalid modes fall back to ModeA128.
func (d *Device) SetMode(m Mode) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, err := d.transport()
	if err != nil {
		return err
	}
	return t.SetMode(m)
}

// Mode returns the selected mode. After Close it returns the mode that was in
// effect when the device was closed.
func (d *Device) Mode() Mode {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.t == nil {
		return d.closedMode
	}
	return d.t.Mode()
}
