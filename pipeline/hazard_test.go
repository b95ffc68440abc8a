package pipeline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"sp6sim/isa"
	"sp6sim/memory"
	"sp6sim/pipeline"
)

var _ = Describe("ResolveOperand", func() {
	var regs *memory.RegFile

	BeforeEach(func() {
		regs = &memory.RegFile{}
		regs.Write(3, 99)
	})

	It("resolves src 0 to the constant zero regardless of producer or regfile", func() {
		v := pipeline.ResolveOperand(0, 0x55, regs, pipeline.Producer{Active: true, Dst: 0, ALUOut: 7}, 0)
		Expect(v).To(Equal(int32(0)))
	})

	It("resolves src 1 to the consuming instruction's own immediate", func() {
		v := pipeline.ResolveOperand(1, 0x55, regs, pipeline.Producer{}, 0)
		Expect(v).To(Equal(int32(0x55)))
	})

	It("falls back to the committed register file when there is no forwardable producer", func() {
		v := pipeline.ResolveOperand(3, 0, regs, pipeline.Producer{}, 0)
		Expect(v).To(Equal(int32(99)))
	})

	It("forwards an ALU producer's result ahead of the stale register file value", func() {
		producer := pipeline.Producer{Active: true, Opcode: isa.ADD, Dst: 3, ALUOut: 1234}
		v := pipeline.ResolveOperand(3, 0, regs, producer, 0)
		Expect(v).To(Equal(int32(1234)))
	})

	It("forwards an LD producer's sampled load data, not its (unused) aluout", func() {
		producer := pipeline.Producer{Active: true, Opcode: isa.LD, Dst: 3, ALUOut: 0xDEAD}
		v := pipeline.ResolveOperand(3, 0, regs, producer, 0xBEEF)
		Expect(v).To(Equal(int32(0xBEEF)))
	})

	It("forwards a taken branch's own pc onto r7, the link register", func() {
		producer := pipeline.Producer{Active: true, Opcode: isa.JEQ, Taken: true, PC: 0x40}
		v := pipeline.ResolveOperand(7, 0, regs, producer, 0)
		Expect(v).To(Equal(int32(0x40)))
	})

	It("does not forward onto r7 from a not-taken branch", func() {
		regs.Write(7, 77)
		producer := pipeline.Producer{Active: true, Opcode: isa.JEQ, Taken: false, PC: 0x40}
		v := pipeline.ResolveOperand(7, 0, regs, producer, 0)
		Expect(v).To(Equal(int32(77)))
	})

	It("ignores a producer targeting a different register", func() {
		producer := pipeline.Producer{Active: true, Opcode: isa.ADD, Dst: 4, ALUOut: 1234}
		v := pipeline.ResolveOperand(3, 0, regs, producer, 0)
		Expect(v).To(Equal(int32(99)))
	})

	It("ignores an inactive producer", func() {
		producer := pipeline.Producer{Active: false, Opcode: isa.ADD, Dst: 3, ALUOut: 1234}
		v := pipeline.ResolveOperand(3, 0, regs, producer, 0)
		Expect(v).To(Equal(int32(99)))
	})

	It("forwards a CPY producer's aluout, since CPY is in the forwardable set", func() {
		// exec1 never writes a CPY's result to a register; exec0 sets a
		// CPY's aluout to its resolved destination operand, i.e. the value
		// of r[dst] itself, so forwarding it hands the consumer the same
		// value the register holds. Confirm the ladder itself is mechanical.
		producer := pipeline.Producer{Active: true, Opcode: isa.CPY, Dst: 3, ALUOut: 42}
		v := pipeline.ResolveOperand(3, 0, regs, producer, 0)
		Expect(v).To(Equal(int32(42)))
	})
})
