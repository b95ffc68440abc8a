// Package pipeline implements the six-stage SP pipeline: fetch0, fetch1,
// dec0, dec1, exec0, exec1. Every stage's latched fields are held in a
// State value; Processor keeps two States (old and new) and swaps them
// atomically at the end of each cycle, so that every
// stage function reads only the old snapshot and writes only the new one.
package pipeline

import "sp6sim/isa"

// Fetch0Latch holds what fetch0 owns: the PC it will issue a fetch for
// this cycle.
type Fetch0Latch struct {
	Active bool
	PC     uint16
}

// Fetch1Latch holds the PC forwarded by fetch0, waiting to sample srami's
// dataout.
type Fetch1Latch struct {
	Active bool
	PC     uint16
}

// Dec0Latch holds a fetched-but-undecoded instruction word.
type Dec0Latch struct {
	Active bool
	PC     uint16
	Inst   uint32
}

// Decoded holds the fields common to dec1, exec0 and exec1: a fully
// decoded instruction, still attached to its PC and raw word for tracing.
type Decoded struct {
	Active bool
	PC     uint16
	Inst   uint32
	Opcode isa.Opcode
	Dst    uint8
	Src0   uint8
	Src1   uint8
	Imm    int32
}

// Dec1Latch is the decoded instruction with operands not yet prepared.
type Dec1Latch struct {
	Decoded
}

// Exec0Latch adds the prepared ALU operands (post bypass-ladder
// resolution in dec1, possibly refreshed again defensively in exec0).
type Exec0Latch struct {
	Decoded
	ALU0 int32
	ALU1 int32
}

// Exec1Latch adds the ALU result computed in exec0.
type Exec1Latch struct {
	Exec0Latch
	ALUOut int32
}

// State is the full set of pipeline latches for one cycle.
type State struct {
	Fetch0 Fetch0Latch
	Fetch1 Fetch1Latch
	Dec0   Dec0Latch
	Dec1   Dec1Latch
	Exec0  Exec0Latch
	Exec1  Exec1Latch
}

// Producer is the slice of an Exec1Latch a bypass consumer needs: enough
// to decide whether, and what, to forward. It decouples the resolver in
// hazard.go from the full pipeline State.
type Producer struct {
	Active bool
	Opcode isa.Opcode
	Dst    uint8
	ALUOut int32
	PC     uint16
	Taken  bool // true if this is a branch that resolved taken (r7 link source)
}

func producerFromExec1(e Exec1Latch) Producer {
	return Producer{
		Active: e.Active,
		Opcode: e.Opcode,
		Dst:    e.Dst,
		ALUOut: e.ALUOut,
		PC:     e.PC,
		Taken:  isa.IsBranch(e.Opcode) && e.ALUOut == 1,
	}
}
