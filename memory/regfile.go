// Package memory provides the architectural state the pipeline reads and
// writes each cycle: the 8-entry general register file and the two
// single-port SRAMs (instruction and data).
package memory

// RegFile holds the 8 general-purpose registers of the SP. r0 is hardwired
// to zero and r1 is hardwired to the sign-extended immediate of whichever
// instruction is currently consuming it; neither is backing storage and
// neither is writable. Only r2..r7 are real state.
type RegFile struct {
	r [8]int32
}

// Read returns the value of register idx as seen by the instruction whose
// immediate is imm (needed because r1 aliases the live immediate rather
// than stored state).
func (f *RegFile) Read(idx uint8, imm int32) int32 {
	switch idx {
	case 0:
		return 0
	case 1:
		return imm
	default:
		return f.r[idx]
	}
}

// Committed returns the committed value of register idx, i.e. what a
// trace dump or a bypass from the register file (rather than r1's
// per-instruction immediate alias) should see. r1 reads as 0 here since
// it carries no committed state.
func (f *RegFile) Committed(idx uint8) int32 {
	if idx == 0 || idx == 1 {
		return 0
	}
	return f.r[idx]
}

// Write stores value into register idx. Writes to r0 and r1 are silently
// suppressed.
func (f *RegFile) Write(idx uint8, value int32) {
	if idx == 0 || idx == 1 {
		return
	}
	f.r[idx] = value
}

// Snapshot returns r2..r7 in order, for trace emission.
func (f *RegFile) Snapshot() [6]int32 {
	var s [6]int32
	copy(s[:], f.r[2:8])
	return s
}
