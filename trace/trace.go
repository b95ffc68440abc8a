// Package trace renders the per-cycle and per-instruction diagnostic
// output of the simulator: a cycle-by-cycle latch dump, a per-retirement
// instruction log with an opcode-specific EXEC summary, and the final
// SRAM dumps written at halt.
package trace

import (
	"fmt"
	"io"

	"sp6sim/isa"
	"sp6sim/memory"
	"sp6sim/pipeline"
)

// CycleWriter emits one block per cycle: the cycle counter, r2..r7, and
// every pipeline latch field, each as an 8-hex-digit word, with a blank
// line between cycles.
type CycleWriter struct {
	w io.Writer
}

// NewCycleWriter wraps w as a CycleWriter.
func NewCycleWriter(w io.Writer) *CycleWriter {
	return &CycleWriter{w: w}
}

func boolWord(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// Emit writes one cycle's block.
func (c *CycleWriter) Emit(s pipeline.CycleSnapshot) error {
	lines := []struct {
		label string
		value uint32
	}{
		{"cycle_counter", uint32(s.Cycle)},
		{"r2", uint32(s.Regs[0])},
		{"r3", uint32(s.Regs[1])},
		{"r4", uint32(s.Regs[2])},
		{"r5", uint32(s.Regs[3])},
		{"r6", uint32(s.Regs[4])},
		{"r7", uint32(s.Regs[5])},

		{"fetch0_active", boolWord(s.Fetch0.Active)},
		{"fetch0_pc", uint32(s.Fetch0.PC)},

		{"fetch1_active", boolWord(s.Fetch1.Active)},
		{"fetch1_pc", uint32(s.Fetch1.PC)},

		{"dec0_active", boolWord(s.Dec0.Active)},
		{"dec0_pc", uint32(s.Dec0.PC)},
		{"dec0_inst", s.Dec0.Inst},

		{"dec1_active", boolWord(s.Dec1.Active)},
		{"dec1_pc", uint32(s.Dec1.PC)},
		{"dec1_inst", s.Dec1.Inst},
		{"dec1_opcode", uint32(s.Dec1.Opcode)},
		{"dec1_src0", uint32(s.Dec1.Src0)},
		{"dec1_src1", uint32(s.Dec1.Src1)},
		{"dec1_dst", uint32(s.Dec1.Dst)},
		{"dec1_immediate", uint32(s.Dec1.Imm)},

		{"exec0_active", boolWord(s.Exec0.Active)},
		{"exec0_pc", uint32(s.Exec0.PC)},
		{"exec0_inst", s.Exec0.Inst},
		{"exec0_opcode", uint32(s.Exec0.Opcode)},
		{"exec0_src0", uint32(s.Exec0.Src0)},
		{"exec0_src1", uint32(s.Exec0.Src1)},
		{"exec0_dst", uint32(s.Exec0.Dst)},
		{"exec0_immediate", uint32(s.Exec0.Imm)},
		{"exec0_alu0", uint32(s.Exec0.ALU0)},
		{"exec0_alu1", uint32(s.Exec0.ALU1)},

		{"exec1_active", boolWord(s.Exec1.Active)},
		{"exec1_pc", uint32(s.Exec1.PC)},
		{"exec1_inst", s.Exec1.Inst},
		{"exec1_opcode", uint32(s.Exec1.Opcode)},
		{"exec1_src0", uint32(s.Exec1.Src0)},
		{"exec1_src1", uint32(s.Exec1.Src1)},
		{"exec1_dst", uint32(s.Exec1.Dst)},
		{"exec1_immediate", uint32(s.Exec1.Imm)},
		{"exec1_alu0", uint32(s.Exec1.ALU0)},
		{"exec1_alu1", uint32(s.Exec1.ALU1)},
		{"exec1_aluout", uint32(s.Exec1.ALUOut)},
	}

	if _, err := fmt.Fprintf(c.w, "cycle %d\n", s.Cycle); err != nil {
		return err
	}
	for _, l := range lines {
		if _, err := fmt.Fprintf(c.w, "%s %08x\n", l.label, l.value); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintln(c.w)
	return err
}

// InstWriter emits the per-retired-instruction log: one multi-line block
// per retirement, and a final summary line once the simulation halts. It
// numbers retirements itself, starting at 0, counting frozen replays the
// same as first-time retirements.
type InstWriter struct {
	w     io.Writer
	count uint64
}

// NewInstWriter wraps w as an InstWriter.
func NewInstWriter(w io.Writer) *InstWriter {
	return &InstWriter{w: w}
}

// Count reports how many retirement blocks have been written.
func (i *InstWriter) Count() uint64 {
	return i.count
}

// Emit writes one retirement's block. A Replay retirement (re-emitted
// while the pipeline is frozen draining a DMA copy) is written just like
// its original and bumps the instruction index the same way.
func (i *InstWriter) Emit(rt pipeline.Retirement) error {
	if !rt.Valid {
		return nil
	}
	d := rt.Decoded
	idx := i.count
	i.count++

	if _, err := fmt.Fprintf(i.w,
		"--- instruction %d (%04x) @ PC %d (%04x) -----------------------------------------------------------\n",
		idx, idx, d.PC, d.PC); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(i.w,
		"pc = %04d, inst = %08x, opcode = %d (%s), dst = %d, src0 = %d, src1 = %d, immediate = %08x\n",
		d.PC, d.Inst, d.Opcode, d.Opcode.Name(), d.Dst, d.Src0, d.Src1, uint32(d.Inst&0xFFFF)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(i.w, "r[0] = 00000000 r[1] = %08x r[2] = %08x r[3] = %08x \n",
		uint32(d.Imm), uint32(rt.Regs[0]), uint32(rt.Regs[1])); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(i.w, "r[4] = %08x r[5] = %08x r[6] = %08x r[7] = %08x \n\n",
		uint32(rt.Regs[2]), uint32(rt.Regs[3]), uint32(rt.Regs[4]), uint32(rt.Regs[5])); err != nil {
		return err
	}

	return i.emitExecSummary(d, rt)
}

func (i *InstWriter) emitExecSummary(d pipeline.Decoded, rt pipeline.Retirement) error {
	w := i.w
	switch d.Opcode {
	case isa.ADD, isa.SUB, isa.LSF, isa.RSF, isa.AND, isa.OR, isa.XOR, isa.LHI:
		_, err := fmt.Fprintf(w, ">>>> EXEC: R[%d] = %d %s %d <<<<\n\n",
			d.Dst, rt.ALU0, d.Opcode.Name(), rt.ALU1)
		return err
	case isa.LD:
		_, err := fmt.Fprintf(w, ">>>> EXEC: R[%d] = MEM[%d] = %08x <<<<\n\n",
			d.Dst, rt.ALU1, rt.LoadData)
		return err
	case isa.ST:
		_, err := fmt.Fprintf(w, ">>>> EXEC: MEM[%d] = R[%d] = %08x <<<<\n\n",
			rt.ALU1, d.Src0, uint32(rt.ALU0))
		return err
	case isa.JLT, isa.JLE, isa.JEQ, isa.JNE, isa.JIN:
		_, err := fmt.Fprintf(w, ">>>> EXEC: %s %d, %d, %d <<<<\n\n",
			d.Opcode.Name(), rt.ALU0, rt.ALU1, rt.NextPC)
		return err
	case isa.CPY:
		_, err := fmt.Fprintf(w, ">>>> EXEC: CPY - Source address: %d, Destination address: %d, length: %d <<<<\n\n",
			rt.ALU0, rt.ALUOut, rt.ALU1)
		return err
	case isa.POL:
		_, err := fmt.Fprintf(w, ">>>> EXEC: POL - Remaining copy: %d <<<<\n\n", rt.ALUOut)
		return err
	case isa.HLT:
		_, err := fmt.Fprintf(w, ">>>> EXEC: HALT at PC %04x <<<<\n", d.PC)
		return err
	default:
		// Undefined opcodes retire with no EXEC summary beyond the block
		// header; they have no architectural effect.
		return nil
	}
}

// Finish writes the terminal summary line once the simulation halts.
func (i *InstWriter) Finish(haltPC uint16) error {
	_, err := fmt.Fprintf(i.w, "sim finished at pc %d, %d instructions\n", haltPC, i.count)
	return err
}

// DumpSRAM writes s's full contents, one 8-hex-digit word per line, for
// the srami_out.txt / sramd_out.txt dumps emitted at halt.
func DumpSRAM(w io.Writer, s *memory.SRAM) error {
	for _, word := range s.Dump() {
		if _, err := fmt.Fprintf(w, "%08x\n", word); err != nil {
			return err
		}
	}
	return nil
}
