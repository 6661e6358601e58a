// Package memory implements Row, a single memory cell that is either a
// data Word or an Instruction, and Memory, the machine's fixed-size
// address space.
package memory

import (
	"fmt"
	"strings"

	"github.com/LeoLuxo/cerisemu/pkg/capability"
)

// DefaultSize is the default memory length in rows, matching spec.md §4.3.
const DefaultSize = 256

// Row is a single memory cell: either a Word or an Instruction. The zero
// value is Word(Integer(0)), the stated default in spec.md §3.
type Row struct {
	Word  capability.Word
	Instr Instruction // nil when this row holds a Word
}

// Instruction is implemented by pkg/machine's Instr type, which covers
// all 18 opcodes. It lives here, not in pkg/machine, purely to break the
// import cycle between Row and Instruction; pkg/machine owns the
// concrete type.
type Instruction interface {
	// Mnemonic returns the instruction's assembly text, the mnemonic
	// followed by its operands (e.g. "mov R0 42"), used by disassembly
	// and backtrace formatting.
	Mnemonic() string
}

// IsDefault reports whether r is the zero Row, used by String to
// collapse runs of untouched memory.
func (r Row) IsDefault() bool {
	return r.Instr == nil && r.Word.Kind == capability.KindInteger && r.Word.Int == 0
}

// WordRow constructs a Row holding a data word.
func WordRow(w capability.Word) Row { return Row{Word: w} }

// InstrRow constructs a Row holding an instruction.
func InstrRow(i Instruction) Row { return Row{Instr: i} }

// String implements fmt.Stringer.
func (r Row) String() string {
	if r.Instr != nil {
		return r.Instr.Mnemonic()
	}
	return r.Word.String()
}

// Memory is the machine's flat, fixed-length address space.
type Memory struct {
	rows []Row
}

// New allocates a Memory of the given size, all rows defaulted.
func New(size int) *Memory {
	return &Memory{rows: make([]Row, size)}
}

// Len returns the memory's row count.
func (m *Memory) Len() int { return len(m.rows) }

// Get returns the row at addr. Out-of-bounds indexing is a programming
// error per spec.md §4.3; callers (the instruction evaluator) must
// bounds-check before calling.
func (m *Memory) Get(addr int) Row {
	return m.rows[addr]
}

// Set writes row at addr.
func (m *Memory) Set(addr int, row Row) {
	m.rows[addr] = row
}

// LoadProgram copies rows into memory starting at base, as used by
// configuration loading to place compiled programs at their configured
// offsets.
func (m *Memory) LoadProgram(rows []Row, base int) error {
	if base < 0 || base+len(rows) > len(m.rows) {
		return fmt.Errorf("memory: program of %d rows at base %d does not fit in %d-row memory", len(rows), base, len(m.rows))
	}
	copy(m.rows[base:base+len(rows)], rows)
	return nil
}

// String renders the memory, collapsing consecutive default rows into a
// single "..." the way the reference's Display impl does (spec.md §9,
// ported from original_source/src/emulator/memory.rs).
func (m *Memory) String() string {
	var b strings.Builder
	inRun := false
	for addr, row := range m.rows {
		if row.IsDefault() {
			if !inRun {
				b.WriteString("...\n")
				inRun = true
			}
			continue
		}
		inRun = false
		fmt.Fprintf(&b, "%4d: %s\n", addr, row.String())
	}
	return b.String()
}
