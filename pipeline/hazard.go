package pipeline

import (
	"sp6sim/isa"
	"sp6sim/memory"
)

// aluForwardable is the set of opcodes whose exec1 ALUOut is forwarded by
// the first rung of the bypass ladder. All of them except CPY also write
// that ALUOut back; a CPY's ALUOut is its resolved destination operand.
func aluForwardable(op isa.Opcode) bool {
	switch op {
	case isa.ADD, isa.SUB, isa.LSF, isa.RSF, isa.AND, isa.OR, isa.XOR, isa.LHI, isa.POL, isa.CPY:
		return true
	default:
		return false
	}
}

// ResolveOperand implements the bypass ladder shared by dec1's operand
// preparation and the defensive pass in exec0. src is the 3-bit source-register
// field of the consuming instruction; imm is that instruction's own
// sign-extended immediate (used when src selects the r1/immediate alias).
// producer is the exec1 instance being examined for a forward; loadData
// is the current cycle's sramd dataout, used when producer is an LD.
func ResolveOperand(src uint8, imm int32, regs *memory.RegFile, producer Producer, loadData uint32) int32 {
	switch src {
	case 0:
		return 0
	case 1:
		return imm
	}

	if producer.Active {
		switch {
		case aluForwardable(producer.Opcode) && producer.Dst == src:
			return producer.ALUOut
		case producer.Opcode == isa.LD && producer.Dst == src:
			return int32(loadData)
		case producer.Taken && src == 7:
			return int32(producer.PC) // r7 receives the branch's own PC, the link value
		}
	}

	return regs.Committed(src)
}
