package pipeline

import (
	"sp6sim/isa"
)

// doFetch0 issues the instruction-memory read for this cycle's fetch0 PC,
// advances fetch0's own PC, and forwards into fetch1. Downstream
// inactivity propagates automatically since nxt starts zero-valued.
func (p *Processor) doFetch0() {
	if !p.cur.Fetch0.Active {
		return
	}
	pc := p.cur.Fetch0.PC
	p.Srami.Read(pc)
	p.nxt.Fetch0 = Fetch0Latch{Active: true, PC: pc + 1}
	p.nxt.Fetch1 = Fetch1Latch{Active: true, PC: pc}
}

// doFetch1 samples srami's one-cycle-latency dataout into dec0.
func (p *Processor) doFetch1() {
	if !p.cur.Fetch1.Active {
		return
	}
	p.nxt.Dec0 = Dec0Latch{
		Active: true,
		PC:     p.cur.Fetch1.PC,
		Inst:   p.Srami.DataOut(),
	}
}

// doDec0 decodes the fetched word, consults the branch predictor, checks
// for a load-after-store hazard, and forwards into dec1.
func (p *Processor) doDec0() {
	if !p.cur.Dec0.Active {
		return
	}

	inst := isa.Decode(p.cur.Dec0.Inst)
	decoded := Decoded{
		Active: true,
		PC:     p.cur.Dec0.PC,
		Inst:   p.cur.Dec0.Inst,
		Opcode: inst.Opcode,
		Dst:    inst.Dst,
		Src0:   inst.Src0,
		Src1:   inst.Src1,
		Imm:    inst.Imm,
	}

	if isa.IsConditionalBranch(inst.Opcode) && p.BHT.Predict(p.cur.Dec0.PC) {
		// Predict taken: refetch from this branch's own PC; the target is
		// not known until resolve, so redirect speculatively and rely on
		// flush-on-mispredict (exec1) to correct it. The instruction
		// already in flight behind this branch (in fetch1/dec0's next
		// occupancy) is on the wrong speculative path and is squashed.
		p.nxt.Fetch0 = Fetch0Latch{Active: true, PC: p.cur.Dec0.PC}
		p.nxt.Fetch1.Active = false
		p.nxt.Dec0.Active = false
		p.nxt.Dec1 = Dec1Latch{Decoded: decoded}
		return
	}

	if inst.Opcode == isa.LD && p.cur.Dec1.Active && p.cur.Dec1.Opcode == isa.ST {
		// Load-after-store stall: insert a one-cycle bubble. Hold dec0
		// and fetch1 in place and freeze fetch0; the LD re-issues from
		// dec0 next cycle once the ST has cleared dec1. fetch0 already
		// issued its read this cycle, so the held fetch1 would sample
		// the wrong word; re-issue the read at fetch1's own pc so its
		// re-latched slot stays consistent with srami's dataout.
		p.nxt.Fetch0 = p.cur.Fetch0
		p.nxt.Fetch1 = p.cur.Fetch1
		p.nxt.Dec0 = p.cur.Dec0
		p.nxt.Dec1.Active = false
		if p.cur.Fetch1.Active {
			p.Srami.Read(p.cur.Fetch1.PC)
		}
		return
	}

	p.nxt.Dec1 = Dec1Latch{Decoded: decoded}
}

// doDec1 prepares exec0's ALU operands, resolving each source through the
// bypass ladder against the instruction currently retiring in exec1.
func (p *Processor) doDec1() {
	if !p.cur.Dec1.Active {
		return
	}

	d := p.cur.Dec1.Decoded
	var alu0, alu1 int32

	if d.Opcode == isa.LHI {
		alu0 = p.Regs.Committed(d.Dst)
		alu1 = d.Imm
	} else {
		producer := producerFromExec1(p.cur.Exec1)
		loadData := p.Sramd.DataOut()
		alu0 = ResolveOperand(d.Src0, d.Imm, p.Regs, producer, loadData)
		alu1 = ResolveOperand(d.Src1, d.Imm, p.Regs, producer, loadData)
	}

	p.nxt.Exec0 = Exec0Latch{Decoded: d, ALU0: alu0, ALU1: alu1}
}

// doExec0 re-runs the bypass ladder defensively against the now-current
// exec1, fires the ALU, issues loads, and captures a starting CPY's
// registers into the DMA engine.
func (p *Processor) doExec0() {
	if !p.cur.Exec0.Active {
		return
	}

	d := p.cur.Exec0.Decoded
	alu0, alu1 := p.cur.Exec0.ALU0, p.cur.Exec0.ALU1

	producer := producerFromExec1(p.cur.Exec1)
	loadData := p.Sramd.DataOut()

	if d.Opcode != isa.LHI {
		alu0 = ResolveOperand(d.Src0, d.Imm, p.Regs, producer, loadData)
		alu1 = ResolveOperand(d.Src1, d.Imm, p.Regs, producer, loadData)
	}

	var aluout int32
	switch d.Opcode {
	case isa.ADD:
		aluout = alu0 + alu1
	case isa.SUB:
		aluout = alu0 - alu1
	case isa.AND:
		aluout = alu0 & alu1
	case isa.OR:
		aluout = alu0 | alu1
	case isa.XOR:
		aluout = alu0 ^ alu1
	case isa.LSF:
		aluout = int32(uint32(alu0) << uint(uint32(alu1)&0x1F))
	case isa.RSF:
		aluout = int32(uint32(alu0) >> uint(uint32(alu1)&0x1F))
	case isa.LHI:
		aluout = (alu1 << 16) | (alu0 & 0xFFFF)
	case isa.LD:
		p.Sramd.Read(uint16(alu1))
	case isa.JLT:
		aluout = boolToInt(alu0 < alu1)
	case isa.JLE:
		aluout = boolToInt(alu0 <= alu1)
	case isa.JEQ:
		aluout = boolToInt(alu0 == alu1)
	case isa.JNE:
		aluout = boolToInt(alu0 != alu1)
	case isa.JIN:
		aluout = 1
	case isa.POL:
		aluout = int32(p.DMA.Remaining())
	case isa.CPY:
		destVal := ResolveOperand(d.Dst, d.Imm, p.Regs, producer, loadData)
		alreadyCopying := p.cur.Exec1.Active && p.cur.Exec1.Opcode == isa.CPY
		if !p.DMA.Busy() && !alreadyCopying {
			p.DMA.Start(uint16(alu0), uint16(destVal), alu1)
		}
		// CPY writes no register; aluout carries the destination address
		// purely for the instruction trace's source/dest/length summary.
		aluout = destVal
	case isa.ST, isa.HLT:
		// No ALU result; ST issues its write in exec1, HLT is handled there.
	}

	p.nxt.Exec1 = Exec1Latch{
		Exec0Latch: Exec0Latch{Decoded: d, ALU0: alu0, ALU1: alu1},
		ALUOut:     aluout,
	}
}

func boolToInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
