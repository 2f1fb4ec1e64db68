package hx71x

import (
	"fmt"
	"math"
	"time"
)

const (
	// calibrationWindow is the wall-clock span the trigger polling budget is
	// sized for.
	calibrationWindow = 3 * time.Second

	calibrationReads = 3

	// timerResolution is the coarsest clock tick of the supported targets
	// (the RP2 timer counts microseconds).
	timerResolution = time.Microsecond
)

var now = time.Now

// calibratePolls measures how long three data line reads take and returns how
// many single-read polls fit into window, so the trigger wait lasts roughly
// the same time on fast and slow hosts. The result fits an int on 32-bit
// targets.
func calibratePolls(data Pin, window time.Duration) int {
	start := now()
	for i := 0; i < calibrationReads; i++ {
		data.Read()
	}
	spent := now().Sub(start)
	if spent < timerResolution {
		spent = timerResolution
	}
	polls := int64(window) / int64(spent) * calibrationReads
	if r := int64(window) % int64(spent); r > 0 {
		polls += r * calibrationReads / int64(spent)
	}
	switch {
	case polls > math.MaxInt32:
		return math.MaxInt32
	case polls < 1:
		return 1
	}
	return int(polls)
}

// readyWait is the two stage conversion-ready wait used by the polled
// transports: the data line first goes high (trigger pulse) and the result is
// ready once it falls back low.
type readyWait struct {
	data          Pin
	triggerPolls  int
	clearTries    int
	clearInterval time.Duration
	sleep         func(time.Duration)
}

func (w *readyWait) wait() error {
	triggered := false
	for i := 0; i < w.triggerPolls; i++ {
		if w.data.Read() == High {
			triggered = true
			break
		}
	}
	if !triggered {
		return fmt.Errorf("%w: %w", ErrPkg, ErrNoTriggerPulse)
	}
	for i := 0; i < w.clearTries; i++ {
		if w.data.Read() == Low {
			return nil
		}
		w.sleep(w.clearInterval)
	}
	return fmt.Errorf("%w: %w", ErrPkg, ErrSensorTimeout)
}
