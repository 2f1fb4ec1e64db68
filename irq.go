//go:build !tinygo

package hx71x

import (
	"runtime"
	"sync/atomic"
)

// irqState is a placeholder for the interrupt state on hosted Go, where the
// scheduler cannot be masked.
type irqState uintptr

// irqDepth counts masked sections that have not been restored yet.
var irqDepth atomic.Int32

// pinnedThreads counts pulse trains running on a locked OS thread.
var pinnedThreads atomic.Int32

func disableInterrupts() irqState {
	irqDepth.Add(1)
	return 0
}

func restoreInterrupts(state irqState) {
	irqDepth.Add(-1)
}

// pinThread locks the calling goroutine to its OS thread until the returned
// func is called, so the pulse train is not migrated between threads halfway.
// The kernel and the Go scheduler can still preempt it.
func pinThread() (release func()) {
	runtime.LockOSThread()
	pinnedThreads.Add(1)
	return unpinThread
}

func unpinThread() {
	pinnedThreads.Add(-1)
	runtime.UnlockOSThread()
}
