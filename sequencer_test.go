package hx71x

import (
	"errors"
	"math"
	"testing"
	"time"
)

func newTestSequencer(t *testing.T, sm *fakeStateMachine, c SequencerConfig) *Sequencer {
	t.Helper()
	s, err := NewSequencer(sm, c)
	if err != nil {
		t.Fatalf("NewSequencer failed: %v", err)
	}
	s.sleep = func(time.Duration) {}
	return s
}

func TestSequencerDefaults(t *testing.T) {
	s, err := NewSequencer(&fakeStateMachine{}, SequencerConfig{Mode: 9})
	if err != nil {
		t.Fatalf("NewSequencer failed: %v", err)
	}
	if s.timeout != DefaultSequencerTimeout {
		t.Errorf("expected default timeout %v, got %v", DefaultSequencerTimeout, s.timeout)
	}
	if s.Mode() != ModeA128 {
		t.Errorf("expected mode %s, got %s", ModeA128, s.Mode())
	}
	if _, err := NewSequencer(nil, SequencerConfig{}); err == nil {
		t.Error("expected error without state machine")
	}
}

func TestSequencerRead(t *testing.T) {
	samples := []int32{0, 1, -1, 8388607, -8388608, 654321, -654321}
	for _, mode := range []Mode{ModeA128, ModeB32, ModeA64} {
		sm := &fakeStateMachine{samples: samples}
		s := newTestSequencer(t, sm, SequencerConfig{Mode: mode})

		for i, want := range samples {
			got, err := s.Read()
			if err != nil {
				t.Fatalf("mode %s: Read failed: %v", mode, err)
			}
			if got != want {
				t.Errorf("mode %s: expected %d, got %d", mode, want, got)
			}
			if sm.puts[i] != uint32(24+mode) {
				t.Errorf("mode %s: expected pulse count %d, got %d", mode, 24+mode, sm.puts[i])
			}
		}
		if sm.restarts != len(samples) {
			t.Errorf("expected a restart per read, got %d", sm.restarts)
		}
		if sm.active {
			t.Error("expected state machine stopped after read")
		}
	}
}

func TestSequencerTimeout(t *testing.T) {
	sm := &fakeStateMachine{silent: true}
	s, err := NewSequencer(sm, SequencerConfig{Timeout: 20 * time.Millisecond})
	if err != nil {
		t.Fatalf("NewSequencer failed: %v", err)
	}

	start := time.Now()
	_, err = s.Read()
	if !errors.Is(err, ErrSensorTimeout) {
		t.Fatalf("expected ErrSensorTimeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond || elapsed > 2*time.Second {
		t.Errorf("unexpected wait of %v", elapsed)
	}
	if sm.active {
		t.Error("expected state machine stopped after timeout")
	}
}

func TestSequencerNotResponding(t *testing.T) {
	sm := &fakeStateMachine{sentinel: true}
	s := newTestSequencer(t, sm, SequencerConfig{Mode: ModeA128})

	_, err := s.Read()
	if !errors.Is(err, ErrSensorNotResponding) {
		t.Fatalf("expected ErrSensorNotResponding, got %v", err)
	}
	if sm.active {
		t.Error("expected state machine stopped")
	}

	// shifting out more mode bits leaves an ordinary sample
	for _, mode := range []Mode{ModeB32, ModeA64} {
		s.mode = mode
		got, err := s.Read()
		if err != nil {
			t.Fatalf("mode %s: Read failed: %v", mode, err)
		}
		if got != -1 {
			t.Errorf("mode %s: expected -1, got %d", mode, got)
		}
	}
}

// The sentinel is matched after the mode bits are discarded, so the raw
// word 0x7fffffff is an ordinary sample in mode A128.
func TestSequencerSentinelAfterShift(t *testing.T) {
	sm := &fakeStateMachine{}
	s := newTestSequencer(t, sm, SequencerConfig{Mode: ModeA128})
	s.sm = &wordStateMachine{fakeStateMachine: sm, word: notRespondingWord}

	got, err := s.Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if want := SignExtend24(notRespondingWord >> 1); got != want {
		t.Errorf("expected %d, got %d", want, got)
	}
}

// wordStateMachine delivers a fixed word for every conversion.
type wordStateMachine struct {
	*fakeStateMachine
	word uint32
}

func (m *wordStateMachine) Get() uint32 {
	m.fakeStateMachine.Get()
	return m.word
}

func TestSequencerTemperature(t *testing.T) {
	sm := &fakeStateMachine{samples: []int32{5, 2000, 7}}
	s := newTestSequencer(t, sm, SequencerConfig{Mode: ModeA128})
	s.thermo = thermometer{ref: 25.0, gain: 20.4, offset: 100}

	got, err := s.Temperature(false)
	if err != nil {
		t.Fatalf("Temperature failed: %v", err)
	}
	if math.Abs(got-118.137) > 0.001 {
		t.Errorf("expected about 118.14, got %f", got)
	}
	want := []uint32{26, 26, 25}
	for i, n := range want {
		if sm.puts[i] != n {
			t.Errorf("read %d: expected pulse count %d, got %d", i, n, sm.puts[i])
		}
	}
}

func TestSequencerPower(t *testing.T) {
	sm := &fakeStateMachine{}
	s := newTestSequencer(t, sm, SequencerConfig{})

	if err := s.PowerDown(); err != nil {
		t.Fatalf("PowerDown failed: %v", err)
	}
	if len(sm.puts) != 1 || sm.puts[0] != 0 {
		t.Errorf("expected a zero pulse count, got %v", sm.puts)
	}
	if !sm.parked || sm.active {
		t.Errorf("expected program parked and stopped, parked=%v active=%v", sm.parked, sm.active)
	}

	if err := s.PowerUp(); err != nil {
		t.Fatalf("PowerUp failed: %v", err)
	}
	if sm.parked || sm.active {
		t.Errorf("expected program back at start and stopped, parked=%v active=%v", sm.parked, sm.active)
	}
}
