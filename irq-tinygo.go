//go:build tinygo

package hx71x

import "runtime/interrupt"

type irqState = interrupt.State

// disableInterrupts disables interrupts and returns the previous state
func disableInterrupts() irqState {
	return interrupt.Disable()
}

// restoreInterrupts restores the interrupt state
func restoreInterrupts(state irqState) {
	interrupt.Restore(state)
}

// pinThread is a no-op: TinyGo runs goroutines on a single thread.
func pinThread() (release func()) {
	return unpinThread
}

func unpinThread() {}
