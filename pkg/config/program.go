package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/LeoLuxo/cerisemu/pkg/asm"
	"github.com/LeoLuxo/cerisemu/pkg/capability"
	"github.com/LeoLuxo/cerisemu/pkg/memory"
	"github.com/LeoLuxo/cerisemu/pkg/permission"
)

type programConfigKind int

const (
	progSourceFile programConfigKind = iota
	progSource
	progCompiledFile
	progCompiledInline
	progCompiledProgram
)

// ProgramConfig is one entry of a machine configuration's programs map,
// per spec.md §6. The five variants match spec.md's ProgramConfig
// exactly; CompiledRon (the original's inline RON notation for an
// already-compiled program) is renamed CompiledInline here since the
// configuration format moved from RON to YAML — see DESIGN.md.
type ProgramConfig struct {
	kind    programConfigKind
	path    string       // SourceFile, CompiledFile
	source  string       // Source
	rows    []memory.Row // CompiledInline, CompiledProgram
}

type programConfigYAML struct {
	SourceFile       *string      `yaml:"source_file"`
	Source           *string      `yaml:"source"`
	CompiledFile     *string      `yaml:"compiled_file"`
	CompiledInline   *[]inlineRow `yaml:"compiled_inline"`
	CompiledProgram  *[]inlineRow `yaml:"compiled_program"`
}

// UnmarshalYAML decodes exactly one of the five ProgramConfig variants.
func (pc *ProgramConfig) UnmarshalYAML(node *yaml.Node) error {
	var raw programConfigYAML
	if err := node.Decode(&raw); err != nil {
		return err
	}
	set := 0
	if raw.SourceFile != nil {
		set++
		pc.kind, pc.path = progSourceFile, *raw.SourceFile
	}
	if raw.Source != nil {
		set++
		pc.kind, pc.source = progSource, *raw.Source
	}
	if raw.CompiledFile != nil {
		set++
		pc.kind, pc.path = progCompiledFile, *raw.CompiledFile
	}
	if raw.CompiledInline != nil {
		set++
		rows, err := inlineRowsToMemory(*raw.CompiledInline)
		if err != nil {
			return err
		}
		pc.kind, pc.rows = progCompiledInline, rows
	}
	if raw.CompiledProgram != nil {
		set++
		rows, err := inlineRowsToMemory(*raw.CompiledProgram)
		if err != nil {
			return err
		}
		pc.kind, pc.rows = progCompiledProgram, rows
	}
	if set != 1 {
		return fmt.Errorf("config: a program entry must set exactly one of source_file/source/compiled_file/compiled_inline/compiled_program, got %d", set)
	}
	return nil
}

// Rows resolves pc to its final sequence of memory rows: compiling
// source (from text or file), decoding a gob-serialised compiled file,
// or returning an already-materialised inline/program row list.
func (pc *ProgramConfig) Rows() ([]memory.Row, error) {
	switch pc.kind {
	case progSourceFile:
		data, err := os.ReadFile(pc.path)
		if err != nil {
			return nil, fmt.Errorf("config: reading source file %s: %w", pc.path, err)
		}
		return asm.Compile(string(data))
	case progSource:
		return asm.Compile(pc.source)
	case progCompiledFile:
		f, err := os.Open(pc.path)
		if err != nil {
			return nil, fmt.Errorf("config: opening compiled file %s: %w", pc.path, err)
		}
		defer f.Close()
		return DecodeProgram(f)
	case progCompiledInline, progCompiledProgram:
		return pc.rows, nil
	default:
		return nil, fmt.Errorf("config: unset ProgramConfig")
	}
}

// inlineRow is one entry of a CompiledInline/CompiledProgram row list:
// a data word (int, char, capability) or a single assembled
// instruction, with no labels, gotos, or expressions — this notation
// describes an already-compiled program, per spec.md §6.
type inlineRow struct {
	Int        *int64  `yaml:"int"`
	Char       *string `yaml:"char"`
	Capability *struct {
		Perm string `yaml:"perm"`
		Base int    `yaml:"base"`
		End  int    `yaml:"end"`
		Addr int    `yaml:"addr"`
	} `yaml:"capability"`
	Instr *string `yaml:"instr"`
}

func inlineRowsToMemory(rows []inlineRow) ([]memory.Row, error) {
	out := make([]memory.Row, len(rows))
	for i, r := range rows {
		row, err := inlineRowToMemory(r)
		if err != nil {
			return nil, fmt.Errorf("config: row %d: %w", i, err)
		}
		out[i] = row
	}
	return out, nil
}

func inlineRowToMemory(r inlineRow) (memory.Row, error) {
	set := 0
	var row memory.Row
	if r.Int != nil {
		set++
		row = memory.WordRow(capability.Integer(*r.Int))
	}
	if r.Char != nil {
		set++
		runes := []rune(*r.Char)
		if len(runes) != 1 {
			return memory.Row{}, fmt.Errorf("char entry must be exactly one character, got %q", *r.Char)
		}
		row = memory.WordRow(capability.CharWord(runes[0]))
	}
	if r.Capability != nil {
		set++
		p, ok := permission.Parse(r.Capability.Perm)
		if !ok {
			return memory.Row{}, fmt.Errorf("%q is not a valid permission", r.Capability.Perm)
		}
		cap := capability.Capability{Perm: p, Base: r.Capability.Base, End: r.Capability.End, Addr: r.Capability.Addr}
		row = memory.WordRow(capability.CapWord(capability.Unsigned(cap)))
	}
	if r.Instr != nil {
		set++
		instr, err := asm.CompileInstruction(*r.Instr)
		if err != nil {
			return memory.Row{}, err
		}
		row = memory.InstrRow(instr)
	}
	if set != 1 {
		return memory.Row{}, fmt.Errorf("a row entry must set exactly one of int/char/capability/instr, got %d", set)
	}
	return row, nil
}
