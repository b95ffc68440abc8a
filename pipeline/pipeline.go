package pipeline

import (
	"sp6sim/dma"
	"sp6sim/isa"
	"sp6sim/memory"
	"sp6sim/predictor"
)

// Retirement describes the instruction that finished exec1 on a given
// cycle, for consumption by a trace sink. Valid is false on cycles where
// exec1 held no instruction.
type Retirement struct {
	Valid    bool
	Decoded  Decoded
	ALU0     int32
	ALU1     int32
	ALUOut   int32
	Taken    bool
	NextPC   uint16
	Flushed  bool
	LoadData uint32
	Regs     [6]int32 // r2..r7 as the instruction saw them, before its own writeback
	Replay   bool     // re-emitted while the pipeline is frozen draining the DMA
}

// CycleSnapshot is everything a cycle trace needs: the cycle counter, the
// committed register file, and every latch as it stands at the end of the
// cycle.
type CycleSnapshot struct {
	Cycle  uint64
	Regs   [6]int32
	Fetch0 Fetch0Latch
	Fetch1 Fetch1Latch
	Dec0   Dec0Latch
	Dec1   Dec1Latch
	Exec0  Exec0Latch
	Exec1  Exec1Latch
}

// Processor ties the pipeline latches together with architectural state:
// the register file, both SRAMs, the branch predictor and the DMA engine.
// It keeps exactly two State values, cur and nxt, and swaps them at the
// end of every Step.
type Processor struct {
	cur State
	nxt State

	Regs  *memory.RegFile
	BHT   *predictor.BHT
	Srami *memory.SRAM
	Sramd *memory.SRAM
	DMA   *dma.Engine

	Cycle     uint64
	InstCount uint64

	halted bool
	haltPC uint16

	// frozen is set when HLT retires with the DMA still draining: the
	// pipeline stops advancing, but the HLT retirement in frozenRt keeps
	// being re-reported each cycle so the instruction trace stays in step
	// with the kernel clock until the DMA goes idle.
	frozen   bool
	frozenRt Retirement
}

// NewProcessor builds a processor with fetch0 active at PC 0 and every
// other stage idle, ready for its first Step.
func NewProcessor(srami, sramd *memory.SRAM) *Processor {
	p := &Processor{
		Regs:  &memory.RegFile{},
		BHT:   &predictor.BHT{},
		Srami: srami,
		Sramd: sramd,
		DMA:   dma.NewEngine(),
	}
	p.cur.Fetch0 = Fetch0Latch{Active: true, PC: 0}
	return p
}

// Halted reports whether the simulation has fully drained: HLT retired
// and, if it started one, its DMA copy has finished.
func (p *Processor) Halted() bool { return p.halted }

// HaltPC is the PC of the HLT instruction, valid once Halted reports true.
func (p *Processor) HaltPC() uint16 { return p.haltPC }

// Step advances the processor by one cycle, returning the retirement (if
// any) that exec1 produced this cycle.
func (p *Processor) Step() Retirement {
	if p.frozen {
		p.Cycle++
		p.InstCount++
		p.DMA.Step(p.dataPortFree(), p.Sramd)
		p.Srami.Tick()
		p.Sramd.Tick()
		if !p.DMA.Active() {
			p.frozen = false
			p.halted = true
		}
		rt := p.frozenRt
		rt.Replay = true
		return rt
	}

	p.nxt = State{}

	p.doFetch0()
	p.doFetch1()
	p.doDec0()
	p.doDec1()
	p.doExec0()
	rt := p.doExec1()

	portFree := p.dataPortFree()
	p.DMA.Step(portFree, p.Sramd)

	p.Srami.Tick()
	p.Sramd.Tick()

	p.cur = p.nxt
	p.Cycle++

	if rt.Valid {
		p.InstCount++
	}

	if p.halted && p.DMA.Active() {
		p.halted = false
		p.frozen = true
		p.frozenRt = rt
	}

	return rt
}

// dataPortFree reports whether the shared data-memory port is free for
// the DMA engine to use: the pipeline always wins, so the port is busy
// whenever dec1, exec0 or exec1 (the stages that can issue LD/ST) will
// hold an LD or ST next cycle.
func (p *Processor) dataPortFree() bool {
	holds := func(active bool, op isa.Opcode) bool {
		return active && (op == isa.LD || op == isa.ST)
	}
	if p.frozen {
		return true
	}
	if holds(p.nxt.Dec1.Active, p.nxt.Dec1.Opcode) {
		return false
	}
	if holds(p.nxt.Exec0.Active, p.nxt.Exec0.Opcode) {
		return false
	}
	if holds(p.nxt.Exec1.Active, p.nxt.Exec1.Opcode) {
		return false
	}
	return true
}

// doExec1 retires cur.Exec1: writeback, branch resolution (with BHT
// update and flush-on-mispredict), store issue, and HLT.
func (p *Processor) doExec1() Retirement {
	if !p.cur.Exec1.Active {
		return Retirement{}
	}

	e := p.cur.Exec1
	d := e.Decoded
	rt := Retirement{
		Valid:   true,
		Decoded: d,
		ALU0:    e.ALU0,
		ALU1:    e.ALU1,
		ALUOut:  e.ALUOut,
		Regs:    p.Regs.Snapshot(),
	}

	switch {
	case aluForwardable(d.Opcode) && d.Opcode != isa.CPY:
		p.Regs.Write(d.Dst, e.ALUOut)
	case d.Opcode == isa.LD:
		rt.LoadData = p.Sramd.DataOut()
		p.Regs.Write(d.Dst, int32(rt.LoadData))
	case d.Opcode == isa.ST:
		p.Sramd.SetDataIn(uint32(e.ALU0))
		p.Sramd.Write(uint16(e.ALU1))
	case isa.IsBranch(d.Opcode):
		taken := e.ALUOut == 1
		var nextPC uint16
		if d.Opcode == isa.JIN {
			nextPC = uint16(e.ALU0)
		} else if taken {
			nextPC = uint16(d.Imm)
		} else {
			nextPC = d.PC + 1
		}
		p.BHT.Update(d.PC, taken)
		if taken {
			p.Regs.Write(7, int32(d.PC))
		}
		rt.Taken = taken
		rt.NextPC = nextPC
		p.resolveBranch(nextPC, &rt)
	case d.Opcode == isa.CPY:
		// The copy itself was captured in exec0; arming waits for the
		// retirement so a flushed wrong-path CPY never starts one.
		p.DMA.Activate()
	case d.Opcode == isa.HLT:
		p.halted = true
		p.haltPC = d.PC
	}

	return rt
}

// resolveBranch compares every currently-active upstream stage's
// speculated PC against the resolved target and flushes the pipeline on
// a mismatch. The comparison runs on the old snapshot: the question is
// whether anything already in flight is fetching the resolved path.
func (p *Processor) resolveBranch(nextPC uint16, rt *Retirement) {
	mismatch := func(active bool, pc uint16) bool { return active && pc != nextPC }

	if mismatch(p.cur.Fetch0.Active, p.cur.Fetch0.PC) ||
		mismatch(p.cur.Fetch1.Active, p.cur.Fetch1.PC) ||
		mismatch(p.cur.Dec0.Active, p.cur.Dec0.PC) ||
		mismatch(p.cur.Dec1.Active, p.cur.Dec1.PC) {
		rt.Flushed = true
		p.nxt.Fetch0 = Fetch0Latch{Active: true, PC: nextPC}
		p.nxt.Fetch1.Active = false
		p.nxt.Dec0.Active = false
		p.nxt.Dec1.Active = false
		p.nxt.Exec0.Active = false
		p.nxt.Exec1.Active = false
	}
}

// Snapshot reports the end-of-cycle state for a cycle trace.
func (p *Processor) Snapshot() CycleSnapshot {
	return CycleSnapshot{
		Cycle:  p.Cycle,
		Regs:   p.Regs.Snapshot(),
		Fetch0: p.cur.Fetch0,
		Fetch1: p.cur.Fetch1,
		Dec0:   p.cur.Dec0,
		Dec1:   p.cur.Dec1,
		Exec0:  p.cur.Exec0,
		Exec1:  p.cur.Exec1,
	}
}

// Stats is a point-in-time summary of simulation progress.
type Stats struct {
	Cycle      uint64
	InstCount  uint64
	Halted     bool
	HaltPC     uint16
	DMAState   dma.State
	DMAActive  bool
	BHTCounter [predictor.NumEntries]predictor.Counter
}

// Stats reports the processor's current counters, useful for a periodic
// progress log or a final summary line.
func (p *Processor) Stats() Stats {
	s := Stats{
		Cycle:     p.Cycle,
		InstCount: p.InstCount,
		Halted:    p.halted,
		HaltPC:    p.haltPC,
		DMAState:  p.DMA.State(),
		DMAActive: p.DMA.Active(),
	}
	for i := 0; i < predictor.NumEntries; i++ {
		s.BHTCounter[i] = p.BHT.State(uint16(i))
	}
	return s
}

// Run steps the processor until it halts or maxCycles is reached (0 means
// unbounded). emit, if non-nil, is called with every cycle's snapshot and
// retirement, in that order, before the next Step.
func (p *Processor) Run(maxCycles uint64, emit func(CycleSnapshot, Retirement)) {
	for maxCycles == 0 || p.Cycle < maxCycles {
		rt := p.Step()
		if emit != nil {
			emit(p.Snapshot(), rt)
		}
		if p.halted {
			return
		}
	}
}
