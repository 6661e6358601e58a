package machine

import (
	"github.com/LeoLuxo/cerisemu/pkg/capability"
	"github.com/LeoLuxo/cerisemu/pkg/memory"
	"github.com/LeoLuxo/cerisemu/pkg/permission"
)

// verifyCapability returns the capability carried by w iff w is a
// Capability word whose signature verifies against m's key. This is
// the sole definition of "valid capability" used throughout exec.go,
// per spec.md §4.4.
func (m *Machine) verifyCapability(w capability.Word) (capability.Capability, bool) {
	if w.Kind != capability.KindCapability {
		return capability.Capability{}, false
	}
	cap, err := capability.Verify(m.Keys, w.Cap)
	if err != nil {
		return capability.Capability{}, false
	}
	return cap, true
}

// verifyCapReg reads register r and verifies it as a capability.
func (m *Machine) verifyCapReg(r Register) (capability.Capability, bool) {
	return m.verifyCapability(m.GetReg(r))
}

// getWord resolves a register-or-word operand (spec.md §4.4 getWord).
func (m *Machine) getWord(rw RegOrWord) capability.Word {
	if rw.IsRegister {
		return m.GetReg(rw.Reg)
	}
	return rw.Imm
}

func asInt(w capability.Word) (int64, bool) {
	if w.Kind != capability.KindInteger {
		return 0, false
	}
	return w.Int, true
}

func inBounds(cap capability.Capability) bool {
	return cap.Base <= cap.Addr && cap.Addr < cap.End
}

// updPC advances PC by one address and resigns it, per spec.md §4.4.
// If PC is no longer a valid capability, the machine fails.
func (m *Machine) updPC() {
	cap, ok := m.verifyCapReg(PC)
	if !ok {
		m.status = Failed
		return
	}
	cap.Addr = cap.Addr + 1
	signed, err := capability.Sign(m.Keys, cap)
	if err != nil {
		m.status = Failed
		return
	}
	m.SetReg(PC, capability.CapWord(signed))
}

// updatePcPerm implements spec.md §4.4's PC permission update: an E
// capability loaded into PC is resigned as RX; anything else (a
// non-E capability, or a non-capability value) is stored verbatim.
func (m *Machine) updatePcPerm(w capability.Word) capability.Word {
	cap, ok := m.verifyCapability(w)
	if !ok || cap.Perm != permission.E {
		return w
	}
	cap.Perm = permission.RX
	signed, err := capability.Sign(m.Keys, cap)
	if err != nil {
		return w
	}
	return capability.CapWord(signed)
}

// fail transitions the machine to Failed. Every precondition violation
// in the table of spec.md §4.4 goes through this single path.
func (m *Machine) fail() { m.status = Failed }

// execSingle performs one fetch/decode/execute step (spec.md §4.4
// ExecSingle). It never returns an error: every runtime condition is
// represented purely as a Status transition, per spec.md §7.
func (m *Machine) execSingle() {
	cap, ok := m.verifyCapReg(PC)
	if !ok {
		m.fail()
		return
	}
	if !inBounds(cap) || !permission.AllowsExec(cap.Perm) {
		m.fail()
		return
	}
	row := m.Mem.Get(cap.Addr)
	if row.Instr == nil {
		m.fail()
		return
	}
	instr, ok := row.Instr.(Instr)
	if !ok {
		// An Instruction value that isn't our own Instr type reaching the
		// evaluator is an internal invariant violation, not a program
		// error; spec.md §7 allows this to abort.
		panic("machine: unrecognised Instruction implementation in memory row")
	}
	m.logStep("%d: %s", cap.Addr, instr.Mnemonic())
	m.execInstr(instr)
}

// execInstr dispatches a single decoded instruction, per the semantics
// table in spec.md §4.4.
func (m *Machine) execInstr(i Instr) {
	switch i.Op {
	case OpFail:
		m.fail()

	case OpHalt:
		m.status = Halted

	case OpMov:
		m.SetReg(i.Dst, m.getWord(i.A1))
		m.updPC()

	case OpLoad:
		cap, ok := m.verifyCapReg(i.Src)
		if !ok || !inBounds(cap) || !permission.AllowsRead(cap.Perm) {
			m.fail()
			return
		}
		row := m.Mem.Get(cap.Addr)
		if row.Instr != nil {
			m.fail()
			return
		}
		m.SetReg(i.Dst, row.Word)
		m.updPC()

	case OpStore:
		cap, ok := m.verifyCapReg(i.Dst)
		if !ok || !inBounds(cap) || !permission.AllowsWrite(cap.Perm) {
			m.fail()
			return
		}
		m.Mem.Set(cap.Addr, memory.WordRow(m.getWord(i.A1)))
		m.updPC()

	case OpJmp:
		m.SetReg(PC, m.updatePcPerm(m.GetReg(i.Dst)))
		// state stays Running; no +1, per spec.md §4.4.

	case OpJnz:
		if asZeroOrNonZero(m.GetReg(i.Src)) {
			m.SetReg(PC, m.updatePcPerm(m.GetReg(i.Dst)))
		} else {
			m.updPC()
		}

	case OpRestrict:
		cap, ok := m.verifyCapReg(i.Dst)
		if !ok || !permission.FlowsTo(i.Perm, cap.Perm) {
			m.fail()
			return
		}
		cap.Perm = i.Perm
		m.resignInto(i.Dst, cap)

	case OpSubseg:
		cap, ok := m.verifyCapReg(i.Dst)
		if !ok {
			m.fail()
			return
		}
		z1, ok1 := asInt(m.getWord(i.A1))
		z2, ok2 := asInt(m.getWord(i.A2))
		if !ok1 || !ok2 || cap.Perm == permission.E {
			m.fail()
			return
		}
		if !(int64(cap.Base) <= z1 && z1 < int64(m.Mem.Len())) {
			m.fail()
			return
		}
		if !(0 <= z2 && z2 <= int64(cap.End)) || z1 > z2 {
			m.fail()
			return
		}
		cap.Base, cap.End = int(z1), int(z2)
		m.resignInto(i.Dst, cap)

	case OpLea:
		cap, ok := m.verifyCapReg(i.Dst)
		if !ok || cap.Perm == permission.E {
			m.fail()
			return
		}
		z, ok := asInt(m.getWord(i.A1))
		if !ok {
			m.fail()
			return
		}
		// Address wraparound preserved per DESIGN.md decision 3: plain
		// signed arithmetic, no overflow check.
		cap.Addr = cap.Addr + int(z)
		m.resignInto(i.Dst, cap)

	case OpAdd:
		z1, ok1 := asInt(m.getWord(i.A1))
		z2, ok2 := asInt(m.getWord(i.A2))
		if !ok1 || !ok2 {
			m.fail()
			return
		}
		m.SetReg(i.Dst, capability.Integer(z1+z2))
		m.updPC()

	case OpSub:
		z1, ok1 := asInt(m.getWord(i.A1))
		z2, ok2 := asInt(m.getWord(i.A2))
		if !ok1 || !ok2 {
			m.fail()
			return
		}
		m.SetReg(i.Dst, capability.Integer(z1-z2))
		m.updPC()

	case OpLt:
		z1, ok1 := asInt(m.getWord(i.A1))
		z2, ok2 := asInt(m.getWord(i.A2))
		if !ok1 || !ok2 {
			m.fail()
			return
		}
		result := int64(0)
		if z1 < z2 {
			result = 1
		}
		m.SetReg(i.Dst, capability.Integer(result))
		m.updPC()

	case OpGetp:
		cap, ok := m.verifyCapReg(i.Src)
		if !ok {
			m.fail()
			return
		}
		m.SetReg(i.Dst, capability.PermWord(cap.Perm))
		m.updPC()

	case OpGetb:
		cap, ok := m.verifyCapReg(i.Src)
		if !ok {
			m.fail()
			return
		}
		m.SetReg(i.Dst, capability.Integer(int64(cap.Base)))
		m.updPC()

	case OpGete:
		cap, ok := m.verifyCapReg(i.Src)
		if !ok {
			m.fail()
			return
		}
		m.SetReg(i.Dst, capability.Integer(int64(cap.End)))
		m.updPC()

	case OpGeta:
		cap, ok := m.verifyCapReg(i.Src)
		if !ok {
			m.fail()
			return
		}
		m.SetReg(i.Dst, capability.Integer(int64(cap.Addr)))
		m.updPC()

	case OpIsptr:
		result := int64(0)
		if m.GetReg(i.Src).IsCapability() {
			result = 1
		}
		m.SetReg(i.Dst, capability.Integer(result))
		m.updPC()

	default:
		panic("machine: unknown opcode")
	}
}

// resignInto signs cap and stores it back into register r, failing the
// machine if signing itself errors (it practically never does).
func (m *Machine) resignInto(r Register, cap capability.Capability) {
	signed, err := capability.Sign(m.Keys, cap)
	if err != nil {
		m.fail()
		return
	}
	m.SetReg(r, capability.CapWord(signed))
	m.updPC()
}

func asZeroOrNonZero(w capability.Word) bool {
	return !(w.Kind == capability.KindInteger && w.Int == 0)
}

// Run boots the machine and drives ExecSingle until a terminal,
// non-recoverable state is reached, implementing the interrupt/
// recovery protocol of spec.md §4.4.
func Run(m *Machine) error {
	if err := m.Boot(); err != nil {
		return err
	}
	for {
		wasInterrupted := m.status == Interrupted
		priorKind := m.interruptKind

		m.execSingle()

		switch m.status {
		case Running:
			continue

		case Interrupted:
			// execSingle never sets this itself; the status stays
			// Interrupted while the handler executes ordinary instructions.
			continue

		case Halted, Failed:
			kind := Halt
			if m.status == Failed {
				kind = Fail
			}
			if wasInterrupted {
				// The handler itself hit a terminal state: not recoverable
				// again. Report the ORIGINAL kind, per spec.md §4.4.
				if priorKind == Halt {
					m.status = Halted
				} else {
					m.status = Failed
				}
				return nil
			}
			if m.tryInterrupt(kind) {
				continue
			}
			return nil
		}
	}
}

// tryInterrupt looks up kind's handler address. If the table has no
// entry for kind, or memory at the handler address is not a Word, the
// condition is not recoverable (DESIGN.md decision 6: no implicit
// fallback to address 0). Otherwise it loads the handler address into
// PC and marks the machine Interrupted(kind).
func (m *Machine) tryInterrupt(kind Interrupt) bool {
	addr, ok := m.InterruptTable[kind]
	if !ok {
		return false
	}
	if addr < 0 || addr >= m.Mem.Len() {
		return false
	}
	row := m.Mem.Get(addr)
	if row.Instr != nil {
		return false
	}
	m.SetReg(PC, m.updatePcPerm(row.Word))
	m.status = Interrupted
	m.interruptKind = kind
	m.logStep("interrupted: %s -> handler at %d", kind, addr)
	return true
}
