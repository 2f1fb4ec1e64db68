package hx71x

import (
	"errors"
	"fmt"
	"time"
)

const (
	// DefaultSequencerTimeout bounds the wait for a sample from the sequencer.
	DefaultSequencerTimeout = time.Second

	sequencerPollInterval = time.Millisecond

	// notRespondingWord is matched against the result word after the mode
	// bits are shifted out. Only a word of all ones read in ModeA128 can
	// match it.
	notRespondingWord = 0x7fffffff

	// powerDownCount is the pulse count that sends the program to its park
	// state with the clock held high.
	powerDownCount = 0
)

// StateMachine is a hardware pulse sequencer running the HX71x acquisition
// program. The program waits for a pulse count in its input queue. A count of
// zero parks the clock line high. Any other count waits for the
// conversion-ready pulse on the data line, emits that many clock pulses,
// shifts the data bits in MSB first and pushes the result word.
type StateMachine interface {
	// Restart returns the program to its start state.
	Restart()
	// Put pushes a word into the input queue.
	Put(v uint32)
	// SetActive starts or stops the program.
	SetActive(active bool)
	// RxAvailable reports whether the output queue holds a word.
	RxAvailable() bool
	// Get pops a word from the output queue.
	Get() uint32
}

// SequencerConfig holds the options of the sequencer transport.
type SequencerConfig struct {
	// Mode is the initial mode. Defaults to ModeA128.
	Mode Mode
	// Timeout bounds the wait for a sample.
	// Defaults to DefaultSequencerTimeout.
	Timeout time.Duration
}

// Sequencer offloads the pulse train to a StateMachine, so pulse timing does
// not depend on the host scheduler.
//
// The program is fed the full pulse count (24 + mode) and powers down through
// an explicit park state. An older revision of the program was fed 23 + mode
// and had no park state; it is not supported.
type Sequencer struct {
	sm      StateMachine
	mode    Mode
	timeout time.Duration
	thermo  thermometer
	sleep   func(time.Duration)
}

var _ Transport = (*Sequencer)(nil)

// NewSequencer creates a transport on a state machine already loaded with the
// HX71x program.
func NewSequencer(sm StateMachine, c SequencerConfig) (*Sequencer, error) {
	if sm == nil {
		return nil, errors.New("state machine not configured")
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultSequencerTimeout
	}
	return &Sequencer{
		sm:      sm,
		mode:    normalizeMode(c.Mode),
		timeout: c.Timeout,
		thermo:  newThermometer(),
		sleep:   time.Sleep,
	}, nil
}

func (s *Sequencer) Mode() Mode {
	return s.mode
}

func (s *Sequencer) SetMode(m Mode) error {
	s.mode = normalizeMode(m)
	_, err := s.Read()
	return err
}

// Read feeds the pulse count to the state machine and waits for the result.
func (s *Sequencer) Read() (int32, error) {
	s.sm.Restart()
	s.sm.Put(uint32(s.mode.Pulses()))
	s.sm.SetActive(true)

	start := time.Now()
	for !s.sm.RxAvailable() {
		if time.Since(start) >= s.timeout {
			s.sm.SetActive(false)
			return 0, fmt.Errorf("%w: %w", ErrPkg, ErrSensorTimeout)
		}
		s.sleep(sequencerPollInterval)
	}

	word := s.sm.Get() >> uint(s.mode)
	s.sm.SetActive(false)
	if word == notRespondingWord {
		return 0, fmt.Errorf("%w: %w", ErrPkg, ErrSensorNotResponding)
	}
	return SignExtend24(word), nil
}

func (s *Sequencer) Temperature(raw bool) (float64, error) {
	return s.thermo.temperature(&s.mode, s.Read, raw)
}

func (s *Sequencer) Calibrate(refTemp, gain float64) error {
	return s.thermo.calibrate(&s.mode, s.Read, refTemp, gain)
}

// PowerDown runs the program's park state, which holds the clock high.
func (s *Sequencer) PowerDown() error {
	s.sm.Restart()
	s.sm.Put(powerDownCount)
	s.sm.SetActive(true)
	s.sleep(time.Millisecond)
	s.sm.SetActive(false)
	return nil
}

// PowerUp runs the program's start state, which drives the clock low.
func (s *Sequencer) PowerUp() error {
	s.sm.Restart()
	s.sm.SetActive(true)
	s.sm.SetActive(false)
	return nil
}
