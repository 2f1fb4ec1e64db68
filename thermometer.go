package hx71x

// DefaultTempGain is the temperature gain in counts per degree used until
// Calibrate is called.
const DefaultTempGain = 20.4

// thermometer holds the linear temperature calibration shared by all
// transports.
type thermometer struct {
	ref    float64
	gain   float64
	offset float64
}

func newThermometer() thermometer {
	return thermometer{gain: DefaultTempGain}
}

// sample switches to the temperature mode, reads, and switches back. The chip
// applies a mode on the pulse train after the one that selected it, so the
// first read only selects the temperature mode and its value is stale, and the
// last read only restores the previous mode.
func (th *thermometer) sample(mode *Mode, read func() (int32, error)) (int32, error) {
	saved := *mode
	*mode = ModeTemperature
	if _, err := read(); err != nil {
		*mode = saved
		return 0, err
	}
	temp, err := read()
	*mode = saved
	if err != nil {
		return 0, err
	}
	if _, err := read(); err != nil {
		return 0, err
	}
	return temp, nil
}

func (th *thermometer) temperature(mode *Mode, read func() (int32, error), raw bool) (float64, error) {
	temp, err := th.sample(mode, read)
	if err != nil {
		return 0, err
	}
	if raw {
		return float64(temp), nil
	}
	return th.convert(temp), nil
}

func (th *thermometer) convert(temp int32) float64 {
	return (float64(temp)-th.offset)/th.gain + th.ref
}

func (th *thermometer) calibrate(mode *Mode, read func() (int32, error), refTemp, gain float64) error {
	th.ref = refTemp
	th.gain = gain
	temp, err := th.sample(mode, read)
	if err != nil {
		return err
	}
	th.offset = float64(temp)
	return nil
}
