package asm

import (
	"github.com/LeoLuxo/cerisemu/pkg/capability"
	"github.com/LeoLuxo/cerisemu/pkg/machine"
	"github.com/LeoLuxo/cerisemu/pkg/permission"
)

// AstExprKind tags an expression AST node.
type AstExprKind int

const (
	ExprInt AstExprKind = iota
	ExprLabel
	ExprUnary
	ExprBinary
)

// BinOp is a binary arithmetic operator.
type BinOp int

const (
	BinAdd BinOp = iota
	BinSub
	BinMul
	BinDiv
)

// UnaryOp is a unary sign operator.
type UnaryOp int

const (
	UnaryNeg UnaryOp = iota
	UnaryPos
)

// AstExpr is a node in a bracketed compile-time arithmetic expression,
// produced by the shunting-yard parser in expr.go (spec.md §4.6) and
// resolved to an Integer by the expression-evaluation pass (spec.md
// §4.8 step 4).
type AstExpr struct {
	Kind  AstExprKind
	Int   int64
	Label string
	UOp   UnaryOp
	Uexpr *AstExpr
	BOp   BinOp
	Left  *AstExpr
	Right *AstExpr
	Start int
	End   int
}

// AstWordKind tags an AstWord variant.
type AstWordKind int

const (
	AstWordInt AstWordKind = iota
	AstWordChar
	AstWordExpr
	AstWordCapability
)

// AstWord is a data-row value before expression evaluation has run.
// AstWordCapability is lowered by Generate to an unsigned capability
// word; the program parser never produces it from source text, since the
// grammar in spec.md §4.7 has no capability-literal syntax, and
// pkg/config builds its capability rows without going through AstWord.
type AstWord struct {
	Kind AstWordKind
	Int  int64
	Char rune
	Expr *AstExpr
	Cap  capability.Capability
}

// AstRegOrWord is a register-or-word operand before expression
// evaluation has run.
type AstRegOrWord struct {
	IsRegister bool
	Reg        machine.Register
	Word       AstWord
}

// AstInstruction is a parsed instruction row, still carrying unresolved
// operands (registers are already resolved; register-or-word operands
// may still hold an AstWordExpr awaiting evaluation).
type AstInstruction struct {
	Op   machine.Op
	Dst  machine.Register
	Src  machine.Register
	A1   AstRegOrWord
	A2   AstRegOrWord
	Perm permission.Permission
}

// AstRowKind tags an AstRow variant.
type AstRowKind int

const (
	RowLabel AstRowKind = iota
	RowGoto
	RowString
	RowWord
	RowInstruction
)

// AstRow is one parsed row, carrying a source span (rune offsets, as
// produced by Lex) for diagnostics. Processed away to nothing (RowLabel, RowGoto,
// RowString) or lowered 1:1 (RowWord, RowInstruction) by code
// generation; see spec.md §4.8-4.9.
type AstRow struct {
	Kind       AstRowKind
	Label      string // RowLabel
	GotoTarget string // RowGoto
	Str        string // RowString
	Word       AstWord
	Instr      AstInstruction
	Start      int
	End        int
}

// Ast is the transient, ordered sequence of rows produced by the
// program parser and mutated in place by the processor pipeline.
type Ast struct {
	Rows []AstRow
}
