// Package dma implements the autonomous memory-to-memory copy engine: a
// three-state machine (Idle/Wait/Active) that steals data-memory cycles
// from the pipeline whenever the data SRAM port is otherwise free.
package dma

import "sp6sim/memory"

// State is one of the three DMA engine states.
type State uint8

const (
	Idle State = iota
	Wait
	Active
)

// String names the state, for tracing.
func (s State) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case Wait:
		return "WAIT"
	case Active:
		return "ACTIVE"
	default:
		return "?"
	}
}

// Engine is the DMA copy engine. It owns source/destination/remaining
// registers and a busy flag, and arbitrates with the pipeline for the
// data-memory port: the pipeline always wins, so Engine.Step only
// advances when told the port is free this cycle.
type Engine struct {
	state       State
	source      uint16
	destination uint16
	remaining   uint32 // 17-bit register, up to 2^17-1 words
	busy        bool

	// active is true from the cycle a retiring CPY arms a copy (Activate)
	// until the copy fully drains. It is distinct from busy (which is set
	// at the first port grant and stays set until the last word, including
	// Idle retry cycles) because a copy can be pending (Idle, active, not
	// yet granted the port) before it ever becomes busy.
	active bool
}

// NewEngine returns an idle, inactive DMA engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Active reports whether a copy has been started and has not yet fully
// drained. This is the dma_active flag the pipeline consults.
func (e *Engine) Active() bool {
	return e.active
}

// State returns the engine's current state, mainly for tracing/tests.
func (e *Engine) State() State {
	return e.state
}

// Busy reports whether a transfer is in flight: set when the engine is
// first granted the data-memory port and held, through WAIT, ACTIVE and
// any Idle retry cycles, until the last word is copied.
func (e *Engine) Busy() bool {
	return e.busy
}

// Remaining returns the number of words left to copy, for the POL opcode.
func (e *Engine) Remaining() uint32 {
	return e.remaining
}

// Start records a CPY instruction's parameters. This has effect only if
// the engine is not already busy with a prior copy; a length of 0 is a
// no-op. Start alone does not begin the copy: the CPY that captured the
// registers is still speculative in exec0 and may yet be flushed, so the
// copy only arms once Activate is called at the CPY's retirement.
func (e *Engine) Start(source, destination uint16, length int32) {
	if e.busy {
		return
	}
	if length == 0 {
		// Drop any capture left by a flushed CPY so Activate has nothing
		// to arm; a pending, already-armed copy is left alone.
		if !e.active {
			e.remaining = 0
		}
		return
	}
	e.source = source
	e.destination = destination
	e.remaining = uint32(length) & 0x1FFFF // remaining is a 17-bit register
}

// Activate arms the engine once a CPY retires from exec1. A CPY whose
// register capture was suppressed (busy engine, zero length) leaves
// nothing to arm.
func (e *Engine) Activate() {
	if e.remaining > 0 {
		e.active = true
	}
}

// Step advances the engine by one cycle. portFree reports whether the
// pipeline will not be using the data-memory port next cycle (no LD/ST
// resident in dec1, exec0, or exec1). sramd is the data SRAM whose port
// the engine shares with the pipeline.
func (e *Engine) Step(portFree bool, sramd *memory.SRAM) {
	switch e.state {
	case Idle:
		if e.active && portFree {
			e.busy = true
			e.state = Wait
		}

	case Wait:
		sramd.Read(e.source)
		e.state = Active

	case Active:
		word := sramd.DataOut()
		sramd.SetDataIn(word)
		sramd.Write(e.destination)

		e.remaining--
		e.source++
		e.destination++

		if e.remaining == 0 {
			e.busy = false
			e.active = false
			e.state = Idle
			return
		}

		if portFree {
			e.state = Wait
		} else {
			// Retry from Idle next cycle once the pipeline releases the
			// port. The engine stays busy: the transfer is still in
			// flight, so a new CPY must not capture over its registers.
			e.state = Idle
		}
	}
}
