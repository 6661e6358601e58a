package asm

import (
	"testing"

	"github.com/LeoLuxo/cerisemu/pkg/capability"
	"github.com/LeoLuxo/cerisemu/pkg/machine"
)

func TestGenerateWordInt(t *testing.T) {
	ast := &Ast{Rows: []AstRow{{Kind: RowWord, Word: AstWord{Kind: AstWordInt, Int: 5}}}}
	rows, err := Generate(ast)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if rows[0].Word.Kind != capability.KindInteger || rows[0].Word.Int != 5 {
		t.Fatalf("got %+v", rows[0])
	}
}

func TestGenerateWordChar(t *testing.T) {
	ast := &Ast{Rows: []AstRow{{Kind: RowWord, Word: AstWord{Kind: AstWordChar, Char: 'z'}}}}
	rows, err := Generate(ast)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if rows[0].Word.Kind != capability.KindChar || rows[0].Word.Char != 'z' {
		t.Fatalf("got %+v", rows[0])
	}
}

func TestGenerateInstructionRow(t *testing.T) {
	ast := &Ast{Rows: []AstRow{{Kind: RowInstruction, Instr: AstInstruction{Op: machine.OpHalt}}}}
	rows, err := Generate(ast)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if rows[0].Instr == nil || rows[0].Instr.Mnemonic() != "halt" {
		t.Fatalf("got %+v", rows[0])
	}
}

func TestGenerateRejectsUnresolvedExpr(t *testing.T) {
	ast := &Ast{Rows: []AstRow{{Kind: RowWord, Word: AstWord{Kind: AstWordExpr, Expr: &AstExpr{Kind: ExprInt, Int: 1}}}}}
	if _, err := Generate(ast); err == nil {
		t.Error("Generate should reject an unresolved expression word")
	}
}

func TestGenerateRejectsUnprocessedLabelRow(t *testing.T) {
	ast := &Ast{Rows: []AstRow{{Kind: RowLabel, Label: "x"}}}
	if _, err := Generate(ast); err == nil {
		t.Error("Generate should reject a row the processor should have removed")
	}
}

func TestCompileSimpleHaltProgram(t *testing.T) {
	rows, err := Compile("halt")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(rows) != 1 || rows[0].Instr == nil || rows[0].Instr.Mnemonic() != "halt" {
		t.Fatalf("got %+v", rows)
	}
}

func TestCompileMovImmediate(t *testing.T) {
	rows, err := Compile("mov r0 42")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(rows) != 1 || rows[0].Instr == nil || rows[0].Instr.Mnemonic() != "mov R0 42" {
		t.Fatalf("got %+v", rows)
	}
}

// Scenario S6: a goto desugars to a direct lea regardless of how many
// empty rows separate it from its target label.
func TestCompileGotoScenario(t *testing.T) {
	rows, err := Compile("goto target\nempty\nempty\ntarget: halt")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	m, err := machine.New(len(rows))
	if err != nil {
		t.Fatalf("machine.New: %v", err)
	}
	if err := m.Mem.LoadProgram(rows, 0); err != nil {
		t.Fatalf("LoadProgram: %v", err)
	}
	if err := machine.Run(m); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if m.Status() != machine.Halted {
		t.Fatalf("status = %v, want Halted", m.Status())
	}
}

func TestCompileStringLiteralExpandsToCharRows(t *testing.T) {
	rows, err := Compile(`"hi"`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(rows) != 2 || rows[0].Word.Char != 'h' || rows[1].Word.Char != 'i' {
		t.Fatalf("got %+v", rows)
	}
}

func TestCompileUndefinedLabelIsError(t *testing.T) {
	if _, err := Compile("goto nowhere"); err == nil {
		t.Error("Compile should reject a goto to an undefined label")
	}
}

func TestCompileUnterminatedStringIsError(t *testing.T) {
	if _, err := Compile(`"abc`); err == nil {
		t.Error("Compile should reject an unterminated string literal")
	}
}
