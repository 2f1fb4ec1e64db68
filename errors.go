package hx71x

import "errors"

var (
	ErrPkg = errors.New("hx71x")

	// ErrNoTriggerPulse means the chip never signalled a finished conversion
	// within the calibrated polling budget.
	ErrNoTriggerPulse = errors.New("no trigger pulse found")
	// ErrSensorTimeout means the trigger was seen but the transfer did not
	// complete in time.
	ErrSensorTimeout = errors.New("sensor timeout")
	// ErrSensorNotResponding means the transport returned the invalid sentinel
	// word instead of a sample.
	ErrSensorNotResponding = errors.New("sensor does not respond")
	ErrClosed              = errors.New("device closed")
)

