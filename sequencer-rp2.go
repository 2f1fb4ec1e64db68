//go:build rp2040 || rp2350

package hx71x

// PIO backend for the Sequencer transport using tinygo-org/pio.
//
// Program flow:
//  1. Pull the pulse count into X. Zero jumps to the park loop.
//  2. Wait for the data line to go high (trigger) and low again (ready).
//  3. X times: clock high for two cycles, clock low while shifting in the
//     data pin.
//  4. Push the result and start over.
//
// The clock pin is driven by side-set only, so it stays low in every
// instruction except the active edge and the park loop.

import (
	"errors"
	"machine"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"
)

const (
	hx71xPIOOrigin = 0 // Load at offset 0 for correct jump addresses

	pioLabelBitLoop   = 7
	pioLabelPowerDown = 12

	// sequencerFrequency gives a 2µs clock high time.
	sequencerFrequency = 1_000_000
)

// buildHX71xProgram creates the acquisition program using AssemblerV0.
func buildHX71xProgram() []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 1}
	return []uint16{
		asm.Pull(false, true).Side(0).Encode(),                         // 0: start: pull block
		asm.Mov(rp2pio.MovDestX, rp2pio.MovSrcOSR).Side(0).Encode(),    // 1: mov x, osr
		asm.Jmp(pioLabelPowerDown, rp2pio.JmpXZero).Side(0).Encode(),   // 2: jmp !x power_down
		asm.Set(rp2pio.SetDestPindirs, 0).Side(0).Encode(),             // 3: set pindirs, 0
		asm.WaitPin(true, 0).Side(0).Encode(),                          // 4: wait 1 pin 0
		asm.WaitPin(false, 0).Side(0).Encode(),                         // 5: wait 0 pin 0
		asm.Jmp(pioLabelBitLoop, rp2pio.JmpXNZeroDec).Side(0).Encode(), // 6: jmp x-- bitloop
		asm.Nop().Side(1).Delay(1).Encode(),                            // 7: bitloop: nop side 1 [1]
		asm.In(rp2pio.InSrcPins, 1).Side(0).Encode(),                   // 8: in pins, 1
		asm.Jmp(pioLabelBitLoop, rp2pio.JmpXNZeroDec).Side(0).Encode(), // 9: jmp x-- bitloop
		asm.Push(false, true).Side(0).Encode(),                         // 10: push block
		asm.Jmp(0, rp2pio.JmpAlways).Side(0).Encode(),                  // 11: jmp start
		asm.Jmp(pioLabelPowerDown, rp2pio.JmpAlways).Side(1).Encode(),  // 12: power_down: jmp power_down side 1
	}
}

// PIOStateMachine runs the HX71x program on an RP2 PIO state machine.
type PIOStateMachine struct {
	pio    *rp2pio.PIO
	sm     rp2pio.StateMachine
	clock  machine.Pin
	data   machine.Pin
	offset uint8
}

var _ StateMachine = (*PIOStateMachine)(nil)

// NewPIOStateMachine claims state machine smNum of PIO block pioNum (0 or 1),
// loads the HX71x program and attaches it to the clock and data pins.
func NewPIOStateMachine(pioNum, smNum uint8, clock, data machine.Pin) (*PIOStateMachine, error) {
	var pioHW *rp2pio.PIO
	if pioNum == 0 {
		pioHW = rp2pio.PIO0
	} else {
		pioHW = rp2pio.PIO1
	}
	sm := pioHW.StateMachine(smNum)
	if !sm.TryClaim() {
		return nil, errors.New("PIO state machine already in use")
	}

	program := buildHX71xProgram()
	offset, err := pioHW.AddProgram(program, hx71xPIOOrigin)
	if err != nil {
		return nil, err
	}

	clock.Configure(machine.PinConfig{Mode: pioHW.PinMode()})
	data.Configure(machine.PinConfig{Mode: pioHW.PinMode()})

	cfg := rp2pio.DefaultStateMachineConfig()
	cfg.SetSidesetParams(1, false, false)
	cfg.SetSidesetPins(clock)
	cfg.SetInPins(data, 1)
	cfg.SetSetPins(data, 1)
	cfg.SetJmpPin(data)
	// shift left, no autopush: the word holds the bits MSB first
	cfg.SetInShift(false, false, 32)
	cfg.SetWrap(offset+uint8(len(program))-1, offset)
	cfg.SetClkDivIntFrac(uint16(machine.CPUFrequency()/sequencerFrequency), 0)

	sm.Init(offset, cfg)
	sm.SetPindirsConsecutive(clock, 1, true)
	sm.SetPindirsConsecutive(data, 1, false)
	sm.SetPinsConsecutive(clock, 1, false)

	return &PIOStateMachine{
		pio:    pioHW,
		sm:     sm,
		clock:  clock,
		data:   data,
		offset: offset,
	}, nil
}

// Restart drops queued words and jumps back to the start of the program.
func (p *PIOStateMachine) Restart() {
	p.sm.SetEnabled(false)
	p.sm.ClearFIFOs()
	p.sm.Restart()
	asm := rp2pio.AssemblerV0{SidesetBits: 1}
	p.sm.Exec(asm.Jmp(p.offset, rp2pio.JmpAlways).Side(0).Encode())
}

func (p *PIOStateMachine) Put(v uint32) {
	for p.sm.IsTxFIFOFull() {
		// Busy wait, the FIFO is drained by Restart
	}
	p.sm.TxPut(v)
}

func (p *PIOStateMachine) SetActive(active bool) {
	p.sm.SetEnabled(active)
}

func (p *PIOStateMachine) RxAvailable() bool {
	return !p.sm.IsRxFIFOEmpty()
}

func (p *PIOStateMachine) Get() uint32 {
	return p.sm.RxGet()
}

// NewTinyGoPIO creates a new HX71x driver whose pulse train is generated by
// PIO state machine smNum of PIO block pioNum.
func NewTinyGoPIO(pioNum, smNum uint8, clockPin, dataPin machine.Pin, c SequencerConfig) (*Device, error) {
	sm, err := NewPIOStateMachine(pioNum, smNum, clockPin, dataPin)
	if err != nil {
		return nil, err
	}
	s, err := NewSequencer(sm, c)
	if err != nil {
		return nil, err
	}
	return NewWithTransport(s, c.Mode)
}
