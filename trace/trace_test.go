package trace_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"sp6sim/isa"
	"sp6sim/memory"
	"sp6sim/pipeline"
	"sp6sim/trace"
)

var _ = Describe("CycleWriter", func() {
	It("writes the cycle counter, registers, and every latch field", func() {
		var buf bytes.Buffer
		w := trace.NewCycleWriter(&buf)

		snap := pipeline.CycleSnapshot{
			Cycle: 7,
			Regs:  [6]int32{1, 2, 3, 4, 5, 6},
			Dec1: pipeline.Dec1Latch{Decoded: pipeline.Decoded{
				Active: true, PC: 0x40, Inst: 0x00450040, Opcode: isa.ADD,
				Src0: 1, Src1: 5, Dst: 2, Imm: 0x40,
			}},
			Exec1: pipeline.Exec1Latch{
				Exec0Latch: pipeline.Exec0Latch{ALU0: 3, ALU1: 4},
				ALUOut:     7,
			},
		}
		Expect(w.Emit(snap)).To(Succeed())

		out := buf.String()
		Expect(out).To(ContainSubstring("cycle 7\n"))
		Expect(out).To(ContainSubstring("cycle_counter 00000007"))
		Expect(out).To(ContainSubstring("r2 00000001"))
		Expect(out).To(ContainSubstring("r7 00000006"))
		Expect(out).To(ContainSubstring("dec1_active 00000001"))
		Expect(out).To(ContainSubstring("dec1_pc 00000040"))
		Expect(out).To(ContainSubstring("dec1_inst 00450040"))
		Expect(out).To(ContainSubstring("dec1_src1 00000005"))
		Expect(out).To(ContainSubstring("exec1_alu1 00000004"))
		Expect(out).To(ContainSubstring("exec1_aluout 00000007"))
		Expect(out).To(HaveSuffix("\n\n"), "cycles are separated by a blank line")
	})

	It("renders a negative immediate as its full 32-bit pattern", func() {
		var buf bytes.Buffer
		w := trace.NewCycleWriter(&buf)

		snap := pipeline.CycleSnapshot{
			Dec1: pipeline.Dec1Latch{Decoded: pipeline.Decoded{Active: true, Imm: -1}},
		}
		Expect(w.Emit(snap)).To(Succeed())
		Expect(buf.String()).To(ContainSubstring("dec1_immediate ffffffff"))
	})
})

var _ = Describe("InstWriter", func() {
	It("skips an invalid retirement without consuming an index", func() {
		var buf bytes.Buffer
		w := trace.NewInstWriter(&buf)
		Expect(w.Emit(pipeline.Retirement{})).To(Succeed())
		Expect(buf.String()).To(BeEmpty())
		Expect(w.Count()).To(Equal(uint64(0)))
	})

	It("renders an ADD retirement's block with header, registers, and EXEC summary", func() {
		var buf bytes.Buffer
		w := trace.NewInstWriter(&buf)

		rt := pipeline.Retirement{
			Valid: true,
			Decoded: pipeline.Decoded{
				Active: true, PC: 2, Inst: 0x00b10004,
				Opcode: isa.ADD, Dst: 2, Src0: 6, Src1: 1, Imm: 4,
			},
			ALU0:   3,
			ALU1:   4,
			ALUOut: 7,
			Regs:   [6]int32{10, 11, 12, 13, 14, 15},
		}
		Expect(w.Emit(rt)).To(Succeed())

		out := buf.String()
		Expect(out).To(ContainSubstring("--- instruction 0 (0000) @ PC 2 (0002)"))
		Expect(out).To(ContainSubstring("pc = 0002, inst = 00b10004, opcode = 0 (ADD), dst = 2, src0 = 6, src1 = 1, immediate = 00000004"))
		Expect(out).To(ContainSubstring("r[0] = 00000000 r[1] = 00000004 r[2] = 0000000a r[3] = 0000000b"))
		Expect(out).To(ContainSubstring("r[4] = 0000000c r[5] = 0000000d r[6] = 0000000e r[7] = 0000000f"))
		Expect(out).To(ContainSubstring(">>>> EXEC: R[2] = 3 ADD 4 <<<<"))
		Expect(w.Count()).To(Equal(uint64(1)))
	})

	It("renders LD and ST summaries with addresses and memory values", func() {
		var buf bytes.Buffer
		w := trace.NewInstWriter(&buf)

		ld := pipeline.Retirement{
			Valid:    true,
			Decoded:  pipeline.Decoded{Active: true, Opcode: isa.LD, Dst: 3},
			ALU1:     0x40,
			LoadData: 0xAA,
		}
		st := pipeline.Retirement{
			Valid:   true,
			Decoded: pipeline.Decoded{Active: true, Opcode: isa.ST, Src0: 2},
			ALU0:    0xAA,
			ALU1:    0x40,
		}
		Expect(w.Emit(ld)).To(Succeed())
		Expect(w.Emit(st)).To(Succeed())

		out := buf.String()
		Expect(out).To(ContainSubstring(">>>> EXEC: R[3] = MEM[64] = 000000aa <<<<"))
		Expect(out).To(ContainSubstring(">>>> EXEC: MEM[64] = R[2] = 000000aa <<<<"))
	})

	It("renders a branch summary with its operands and resolved target", func() {
		var buf bytes.Buffer
		w := trace.NewInstWriter(&buf)

		rt := pipeline.Retirement{
			Valid:   true,
			Decoded: pipeline.Decoded{Active: true, Opcode: isa.JEQ, Imm: 5},
			ALU0:    9,
			ALU1:    9,
			ALUOut:  1,
			Taken:   true,
			NextPC:  5,
		}
		Expect(w.Emit(rt)).To(Succeed())
		Expect(buf.String()).To(ContainSubstring(">>>> EXEC: JEQ 9, 9, 5 <<<<"))
	})

	It("renders CPY, POL and HLT summaries", func() {
		var buf bytes.Buffer
		w := trace.NewInstWriter(&buf)

		cpy := pipeline.Retirement{
			Valid:   true,
			Decoded: pipeline.Decoded{Active: true, Opcode: isa.CPY},
			ALU0:    0x100,
			ALU1:    8,
			ALUOut:  0x200,
		}
		pol := pipeline.Retirement{
			Valid:   true,
			Decoded: pipeline.Decoded{Active: true, Opcode: isa.POL, Dst: 2},
			ALUOut:  3,
		}
		hlt := pipeline.Retirement{
			Valid:   true,
			Decoded: pipeline.Decoded{Active: true, Opcode: isa.HLT, PC: 0x20},
		}
		Expect(w.Emit(cpy)).To(Succeed())
		Expect(w.Emit(pol)).To(Succeed())
		Expect(w.Emit(hlt)).To(Succeed())

		out := buf.String()
		Expect(out).To(ContainSubstring(">>>> EXEC: CPY - Source address: 256, Destination address: 512, length: 8 <<<<"))
		Expect(out).To(ContainSubstring(">>>> EXEC: POL - Remaining copy: 3 <<<<"))
		Expect(out).To(ContainSubstring(">>>> EXEC: HALT at PC 0020 <<<<"))
	})

	It("emits no EXEC summary for an undefined opcode", func() {
		var buf bytes.Buffer
		w := trace.NewInstWriter(&buf)

		rt := pipeline.Retirement{
			Valid:   true,
			Decoded: pipeline.Decoded{Active: true, Opcode: isa.Opcode(11)},
		}
		Expect(w.Emit(rt)).To(Succeed())

		out := buf.String()
		Expect(out).To(ContainSubstring("(U)"))
		Expect(out).NotTo(ContainSubstring(">>>> EXEC"))
	})

	It("writes the final summary line from its own running count", func() {
		var buf bytes.Buffer
		w := trace.NewInstWriter(&buf)
		Expect(w.Emit(pipeline.Retirement{
			Valid:   true,
			Decoded: pipeline.Decoded{Active: true, Opcode: isa.HLT, PC: 0x20},
		})).To(Succeed())
		Expect(w.Finish(0x20)).To(Succeed())
		Expect(buf.String()).To(ContainSubstring("sim finished at pc 32, 1 instructions"))
	})
})

var _ = Describe("DumpSRAM", func() {
	It("writes every word as an 8-hex-digit line", func() {
		s := memory.NewSRAM()
		s.Inject(0, 0xDEADBEEF)

		var buf bytes.Buffer
		Expect(trace.DumpSRAM(&buf, s)).To(Succeed())

		lines := bytes.Split(bytes.TrimRight(buf.Bytes(), "\n"), []byte("\n"))
		Expect(lines).To(HaveLen(memory.WordCount))
		Expect(string(lines[0])).To(Equal("deadbeef"))
	})
})
