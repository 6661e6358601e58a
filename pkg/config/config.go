// Package config loads a machine configuration from YAML, per spec.md
// §6, and builds a ready-to-run pkg/machine.Machine from it.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/LeoLuxo/cerisemu/pkg/machine"
	"github.com/LeoLuxo/cerisemu/pkg/memory"
)

// MachineConfig mirrors the textual, self-describing machine
// configuration of spec.md §6.
type MachineConfig struct {
	Size           int                         `yaml:"size"`
	Programs       map[int]ProgramConfig       `yaml:"programs"`
	Registers      map[string]ParsingWord      `yaml:"registers"`
	InterruptTable map[string]int              `yaml:"interrupt_table"`
}

// Load reads and parses a machine configuration file.
func Load(path string) (*MachineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	var cfg MachineConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return &cfg, nil
}

func registerNamed(name string) (machine.Register, error) {
	if name == "PC" || name == "pc" {
		return machine.PC, nil
	}
	var n int
	if _, err := fmt.Sscanf(name, "R%d", &n); err == nil {
		return machine.R(n), nil
	}
	if _, err := fmt.Sscanf(name, "r%d", &n); err == nil {
		return machine.R(n), nil
	}
	return 0, fmt.Errorf("config: %q is not a valid register name (expected PC or R<n>)", name)
}

func interruptNamed(name string) (machine.Interrupt, error) {
	switch name {
	case "halt", "Halt", "HALT":
		return machine.Halt, nil
	case "fail", "Fail", "FAIL":
		return machine.Fail, nil
	default:
		return 0, fmt.Errorf("config: %q is not a valid interrupt name (expected halt or fail)", name)
	}
}

// Build constructs a Machine from cfg: allocates memory, loads every
// configured program at its base address, seeds registers (signing any
// capability literal), and installs the interrupt table. The machine is
// returned un-booted; the caller (or machine.Run) boots it.
func (cfg *MachineConfig) Build() (*machine.Machine, error) {
	size := cfg.Size
	if size <= 0 {
		size = memory.DefaultSize
	}
	m, err := machine.New(size)
	if err != nil {
		return nil, err
	}

	for base, prog := range cfg.Programs {
		rows, err := prog.Rows()
		if err != nil {
			return nil, fmt.Errorf("config: loading program at %d: %w", base, err)
		}
		if err := m.Mem.LoadProgram(rows, base); err != nil {
			return nil, fmt.Errorf("config: placing program at %d: %w", base, err)
		}
	}

	for name, pw := range cfg.Registers {
		reg, err := registerNamed(name)
		if err != nil {
			return nil, err
		}
		w, err := pw.Resolve(m)
		if err != nil {
			return nil, fmt.Errorf("config: register %s: %w", name, err)
		}
		m.SetReg(reg, w)
	}

	for name, addr := range cfg.InterruptTable {
		kind, err := interruptNamed(name)
		if err != nil {
			return nil, err
		}
		m.InterruptTable[kind] = addr
	}

	return m, nil
}
