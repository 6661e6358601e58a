package asm

import (
	"fmt"

	"github.com/LeoLuxo/cerisemu/pkg/capability"
	"github.com/LeoLuxo/cerisemu/pkg/machine"
	"github.com/LeoLuxo/cerisemu/pkg/memory"
)

// Generate lowers a fully processed Ast 1:1 into machine memory rows,
// per spec.md §4.9. No RowLabel/RowGoto/RowString row, nor any
// unresolved AstWordExpr, may remain at this point; if one does, that
// is a programming bug in the processor pipeline, not a user error, so
// it is reported as a plain Go error rather than a CompileError.
func Generate(ast *Ast) ([]memory.Row, error) {
	rows := make([]memory.Row, 0, len(ast.Rows))
	for _, row := range ast.Rows {
		switch row.Kind {
		case RowWord:
			w, err := generateWord(row.Word)
			if err != nil {
				return nil, err
			}
			rows = append(rows, memory.WordRow(w))
		case RowInstruction:
			instr, err := generateInstruction(row.Instr)
			if err != nil {
				return nil, err
			}
			rows = append(rows, memory.InstrRow(instr))
		default:
			return nil, fmt.Errorf("asm: unprocessed %v row reached the code generator", row.Kind)
		}
	}
	return rows, nil
}

func generateWord(w AstWord) (capability.Word, error) {
	switch w.Kind {
	case AstWordInt:
		return capability.Integer(w.Int), nil
	case AstWordChar:
		return capability.CharWord(w.Char), nil
	case AstWordCapability:
		return capability.CapWord(capability.Unsigned(w.Cap)), nil
	case AstWordExpr:
		return capability.Word{}, fmt.Errorf("asm: unresolved expression reached the code generator")
	default:
		return capability.Word{}, fmt.Errorf("asm: unknown AstWord kind reached the code generator")
	}
}

func generateRegOrWord(rw AstRegOrWord) (machine.RegOrWord, error) {
	if rw.IsRegister {
		return machine.RW(rw.Reg), nil
	}
	w, err := generateWord(rw.Word)
	if err != nil {
		return machine.RegOrWord{}, err
	}
	return machine.ImmWord(w), nil
}

func generateInstruction(instr AstInstruction) (machine.Instr, error) {
	a1, err := generateRegOrWord(instr.A1)
	if err != nil {
		return machine.Instr{}, err
	}
	a2, err := generateRegOrWord(instr.A2)
	if err != nil {
		return machine.Instr{}, err
	}
	return machine.Instr{
		Op: instr.Op, Dst: instr.Dst, Src: instr.Src,
		A1: a1, A2: a2, Perm: instr.Perm,
	}, nil
}

// CompileInstruction compiles a single instruction with no labels,
// gotos, or expressions — used by pkg/config to parse an inline
// compiled-program row notation.
func CompileInstruction(src string) (machine.Instr, error) {
	toks, err := Lex(src)
	if err != nil {
		return machine.Instr{}, err
	}
	if len(toks) == 0 || toks[0].Kind != TokMnemonic {
		return machine.Instr{}, fmt.Errorf("asm: expected a single instruction, got %q", src)
	}
	instr, _, err := parseInstruction(toks, 0)
	if err != nil {
		return machine.Instr{}, err
	}
	return generateInstruction(instr)
}

// Compile runs the full pipeline from source text to machine memory
// rows: lex, parse, process, generate.
func Compile(src string) ([]memory.Row, error) {
	toks, err := Lex(src)
	if err != nil {
		return nil, err
	}
	ast, err := ParseProgram(toks)
	if err != nil {
		return nil, err
	}
	ast, err = Process(ast)
	if err != nil {
		return nil, err
	}
	return Generate(ast)
}
