package machine

import (
	"fmt"

	"github.com/LeoLuxo/cerisemu/pkg/capability"
	"github.com/LeoLuxo/cerisemu/pkg/permission"
)

// Register names a machine register: PC or one of 256 general-purpose
// registers R(0)..R(255). PC is represented by the reserved value -1.
type Register int

// PC is the reserved register holding the program counter capability.
const PC Register = -1

// R constructs a general-purpose register reference.
func R(n int) Register { return Register(n) }

// String implements fmt.Stringer.
func (r Register) String() string {
	if r == PC {
		return "PC"
	}
	return fmt.Sprintf("R%d", int(r))
}

// RegOrWord is a register-or-word operand (ρ in spec.md §4.4): either a
// register to be read at execution time, or an immediate Word baked
// into the instruction stream by the code generator.
type RegOrWord struct {
	IsRegister bool
	Reg        Register
	Imm        capability.Word
}

// RW constructs a register operand.
func RW(r Register) RegOrWord { return RegOrWord{IsRegister: true, Reg: r} }

// ImmWord constructs an immediate-word operand.
func ImmWord(w capability.Word) RegOrWord { return RegOrWord{Imm: w} }

// String implements fmt.Stringer.
func (rw RegOrWord) String() string {
	if rw.IsRegister {
		return rw.Reg.String()
	}
	return rw.Imm.String()
}

// Op names one of the 18 instruction opcodes of spec.md §4.4.
type Op int

const (
	OpFail Op = iota
	OpHalt
	OpMov
	OpLoad
	OpStore
	OpJmp
	OpJnz
	OpRestrict
	OpSubseg
	OpLea
	OpAdd
	OpSub
	OpLt
	OpGetp
	OpGetb
	OpGete
	OpGeta
	OpIsptr
)

var mnemonics = map[Op]string{
	OpFail: "fail", OpHalt: "halt", OpMov: "mov", OpLoad: "load",
	OpStore: "store", OpJmp: "jmp", OpJnz: "jnz", OpRestrict: "restrict",
	OpSubseg: "subseg", OpLea: "lea", OpAdd: "add", OpSub: "sub", OpLt: "lt",
	OpGetp: "getp", OpGetb: "getb", OpGete: "gete", OpGeta: "geta", OpIsptr: "isptr",
}

// Instr is a single decoded instruction row. Which fields are
// meaningful depends on Op; see the dispatch table in exec.go for the
// exact shape each opcode expects.
type Instr struct {
	Op   Op
	Dst  Register      // r / r1 in spec.md's table
	Src  Register      // r2, where the opcode takes a second register
	A1   RegOrWord      // ρ / ρ1
	A2   RegOrWord      // ρ2
	Perm permission.Permission // restrict's permission literal
}

// Mnemonic implements memory.Instruction.
func (i Instr) Mnemonic() string {
	switch i.Op {
	case OpFail, OpHalt:
		return mnemonics[i.Op]
	case OpMov:
		return fmt.Sprintf("mov %s %s", i.Dst, i.A1)
	case OpLoad:
		return fmt.Sprintf("load %s %s", i.Dst, i.Src)
	case OpStore:
		return fmt.Sprintf("store %s %s", i.Dst, i.A1)
	case OpJmp:
		return fmt.Sprintf("jmp %s", i.Dst)
	case OpJnz:
		return fmt.Sprintf("jnz %s %s", i.Dst, i.Src)
	case OpRestrict:
		return fmt.Sprintf("restrict %s %s", i.Dst, i.Perm)
	case OpSubseg:
		return fmt.Sprintf("subseg %s %s %s", i.Dst, i.A1, i.A2)
	case OpLea:
		return fmt.Sprintf("lea %s %s", i.Dst, i.A1)
	case OpAdd:
		return fmt.Sprintf("add %s %s %s", i.Dst, i.A1, i.A2)
	case OpSub:
		return fmt.Sprintf("sub %s %s %s", i.Dst, i.A1, i.A2)
	case OpLt:
		return fmt.Sprintf("lt %s %s %s", i.Dst, i.A1, i.A2)
	case OpGetp:
		return fmt.Sprintf("getp %s %s", i.Dst, i.Src)
	case OpGetb:
		return fmt.Sprintf("getb %s %s", i.Dst, i.Src)
	case OpGete:
		return fmt.Sprintf("gete %s %s", i.Dst, i.Src)
	case OpGeta:
		return fmt.Sprintf("geta %s %s", i.Dst, i.Src)
	case OpIsptr:
		return fmt.Sprintf("isptr %s %s", i.Dst, i.Src)
	default:
		return "?"
	}
}
