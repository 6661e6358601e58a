package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/LeoLuxo/cerisemu/pkg/capability"
	"github.com/LeoLuxo/cerisemu/pkg/machine"
	"github.com/LeoLuxo/cerisemu/pkg/memory"
)

func writeTempConfig(t *testing.T, yaml string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "machine.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadMinimalConfig(t *testing.T) {
	path := writeTempConfig(t, `
size: 16
programs:
  0:
    source: "halt"
registers: {}
interrupt_table: {}
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Size != 16 {
		t.Fatalf("Size = %d, want 16", cfg.Size)
	}
	if len(cfg.Programs) != 1 {
		t.Fatalf("got %d programs, want 1", len(cfg.Programs))
	}
}

func TestBuildMachinePlacesProgramAndRegisters(t *testing.T) {
	path := writeTempConfig(t, `
size: 8
programs:
  0:
    source: "halt"
registers:
  R0:
    integer: 42
  R1:
    char: "a"
interrupt_table: {}
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	m, err := cfg.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	row := m.Mem.Get(0)
	if row.Instr == nil || row.Instr.Mnemonic() != "halt" {
		t.Fatalf("program not placed at base 0, got %+v", row)
	}
	if got := m.GetReg(machine.R(0)); got.Int != 42 {
		t.Fatalf("R0 = %+v, want Integer(42)", got)
	}
	if got := m.GetReg(machine.R(1)); got.Char != 'a' {
		t.Fatalf("R1 = %+v, want Char('a')", got)
	}
}

func TestBuildMachineInstallsInterruptTable(t *testing.T) {
	path := writeTempConfig(t, `
size: 8
programs: {}
registers: {}
interrupt_table:
  halt: 4
  fail: 5
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	m, err := cfg.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if m.InterruptTable[machine.Halt] != 4 || m.InterruptTable[machine.Fail] != 5 {
		t.Fatalf("got %+v", m.InterruptTable)
	}
}

func TestBuildMachineSignsCapabilityRegister(t *testing.T) {
	path := writeTempConfig(t, `
size: 8
programs: {}
registers:
  R0:
    capability: {perm: RW, base: 0, end: 8, addr: 0}
interrupt_table: {}
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	m, err := cfg.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	w := m.GetReg(machine.R(0))
	if !w.IsCapability() {
		t.Fatalf("R0 should hold a capability, got %+v", w)
	}
}

func TestProgramConfigRejectsMultipleVariants(t *testing.T) {
	path := writeTempConfig(t, `
size: 8
programs:
  0:
    source: "halt"
    source_file: "x.asm"
registers: {}
interrupt_table: {}
`)
	if _, err := Load(path); err == nil {
		t.Error("a program entry with two variants set should be rejected")
	}
}

func TestCompiledProgramRoundTripsThroughGob(t *testing.T) {
	rows := []memory.Row{memory.WordRow(capability.Integer(7))}
	var buf bytes.Buffer
	if err := EncodeProgram(&buf, rows); err != nil {
		t.Fatalf("EncodeProgram: %v", err)
	}
	got, err := DecodeProgram(&buf)
	if err != nil {
		t.Fatalf("DecodeProgram: %v", err)
	}
	if len(got) != 1 || got[0].Word.Int != 7 {
		t.Fatalf("got %+v", got)
	}
}
