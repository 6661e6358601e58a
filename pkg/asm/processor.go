package asm

import (
	"fmt"

	"github.com/LeoLuxo/cerisemu/pkg/machine"
)

// Process runs the ordered pipeline of spec.md §4.8: string expansion,
// goto desugaring, label extraction, then expression evaluation. Each
// stage is a total function over the Ast (or an error); the observable
// order matters because later stages assume earlier ones already ran
// (spec.md §9).
func Process(ast *Ast) (*Ast, error) {
	ast, err := expandStrings(ast)
	if err != nil {
		return nil, err
	}
	ast, err = desugarGotos(ast)
	if err != nil {
		return nil, err
	}
	ast, labels, err := extractLabels(ast)
	if err != nil {
		return nil, err
	}
	ast, err = evaluateExpressions(ast, labels)
	if err != nil {
		return nil, err
	}
	return ast, nil
}

// expandStrings turns each RowString row into |s| consecutive RowWord
// Char rows, per spec.md §4.8 step 1. Per DESIGN.md decision 5, every
// expanded row keeps the original string row's span rather than a
// synthetic per-character span.
func expandStrings(ast *Ast) (*Ast, error) {
	out := &Ast{}
	for _, row := range ast.Rows {
		if row.Kind != RowString {
			out.Rows = append(out.Rows, row)
			continue
		}
		for _, c := range row.Str {
			out.Rows = append(out.Rows, AstRow{
				Kind:  RowWord,
				Word:  AstWord{Kind: AstWordChar, Char: c},
				Start: row.Start,
				End:   row.End,
			})
		}
	}
	return out, nil
}

// desugarGotos replaces each RowGoto with an anonymous label ":gotoN:"
// and a relative "lea PC" to the target, per spec.md §4.8 step 2. The
// counter N is local to each call and starts at 1, so repeated compiles
// within one process are deterministic.
func desugarGotos(ast *Ast) (*Ast, error) {
	out := &Ast{}
	n := 0
	for _, row := range ast.Rows {
		if row.Kind != RowGoto {
			out.Rows = append(out.Rows, row)
			continue
		}
		n++
		label := fmt.Sprintf(":goto%d:", n)
		// The anonymous label marks the address of the lea that replaces
		// the goto; (L - label) - 1 cancels the +1 that updPC applies
		// after the lea executes, per spec.md §4.8 step 2.
		expr := &AstExpr{
			Kind: ExprBinary, BOp: BinSub,
			Left: &AstExpr{
				Kind: ExprBinary, BOp: BinSub,
				Left:  &AstExpr{Kind: ExprLabel, Label: row.GotoTarget, Start: row.Start, End: row.End},
				Right: &AstExpr{Kind: ExprLabel, Label: label, Start: row.Start, End: row.End},
				Start: row.Start, End: row.End,
			},
			Right: &AstExpr{Kind: ExprInt, Int: 1, Start: row.Start, End: row.End},
			Start: row.Start, End: row.End,
		}
		out.Rows = append(out.Rows,
			AstRow{Kind: RowLabel, Label: label, Start: row.Start, End: row.End},
			AstRow{
				Kind: RowInstruction,
				Instr: AstInstruction{
					Op:  machine.OpLea,
					Dst: machine.PC,
					A1:  AstRegOrWord{Word: AstWord{Kind: AstWordExpr, Expr: expr}},
				},
				Start: row.Start, End: row.End,
			},
		)
	}
	return out, nil
}

// extractLabels removes each RowLabel row, mapping its name to the
// address index of the row now sitting in its place, per spec.md §4.8
// step 3. Duplicate label names are a compile error.
func extractLabels(ast *Ast) (*Ast, map[string]int, error) {
	out := &Ast{}
	labels := make(map[string]int)
	for _, row := range ast.Rows {
		if row.Kind != RowLabel {
			out.Rows = append(out.Rows, row)
			continue
		}
		if _, dup := labels[row.Label]; dup {
			return nil, nil, processErr("labels", "duplicate label '"+row.Label+"'", row.Start, row.End)
		}
		labels[row.Label] = len(out.Rows)
	}
	return out, labels, nil
}

// evaluateExpressions resolves every AstWordExpr row and every
// instruction operand's AstWordExpr to an Integer, per spec.md §4.8
// step 4.
func evaluateExpressions(ast *Ast, labels map[string]int) (*Ast, error) {
	out := &Ast{Rows: make([]AstRow, len(ast.Rows))}
	for idx, row := range ast.Rows {
		switch row.Kind {
		case RowWord:
			w, err := evaluateWord(row.Word, labels)
			if err != nil {
				return nil, err
			}
			row.Word = w
		case RowInstruction:
			instr, err := evaluateInstruction(row.Instr, labels)
			if err != nil {
				return nil, err
			}
			row.Instr = instr
		}
		out.Rows[idx] = row
	}
	return out, nil
}

func evaluateWord(w AstWord, labels map[string]int) (AstWord, error) {
	if w.Kind != AstWordExpr {
		return w, nil
	}
	v, err := w.Expr.Evaluate(labels)
	if err != nil {
		return AstWord{}, err
	}
	return AstWord{Kind: AstWordInt, Int: v}, nil
}

func evaluateRegOrWord(rw AstRegOrWord, labels map[string]int) (AstRegOrWord, error) {
	if rw.IsRegister {
		return rw, nil
	}
	w, err := evaluateWord(rw.Word, labels)
	if err != nil {
		return AstRegOrWord{}, err
	}
	return AstRegOrWord{Word: w}, nil
}

func evaluateInstruction(instr AstInstruction, labels map[string]int) (AstInstruction, error) {
	a1, err := evaluateRegOrWord(instr.A1, labels)
	if err != nil {
		return AstInstruction{}, err
	}
	a2, err := evaluateRegOrWord(instr.A2, labels)
	if err != nil {
		return AstInstruction{}, err
	}
	instr.A1, instr.A2 = a1, a2
	return instr, nil
}
