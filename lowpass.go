package hx71x

// DefaultTimeConstant is the low-pass coefficient used until
// SetTimeConstant is called.
const DefaultTimeConstant = 0.25

// lowpass is an exponential moving average.
type lowpass struct {
	filtered float64
	k        float64
}

func (f *lowpass) reset(v float64) {
	f.filtered = v
}

func (f *lowpass) update(v float64) float64 {
	f.filtered += f.k * (v - f.filtered)
	return f.filtered
}

// setK applies k if it lies strictly between 0 and 1 and reports whether it
// did. NaN is rejected.
func (f *lowpass) setK(k float64) bool {
	if !(k > 0 && k < 1) {
		return false
	}
	f.k = k
	return true
}
