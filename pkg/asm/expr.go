package asm

// expr.go implements the two-state Double-E shunting-yard method of
// spec.md §4.6: state *unary* expects an operand or a unary sign;
// state *binary* expects a binary operator or a closing bracket.

type exprOpKind int

const (
	opOpenParen exprOpKind = iota
	opUnary
	opBinary
)

type exprOp struct {
	kind exprOpKind
	uop  UnaryOp
	bop  BinOp
	prec int
}

const unaryPrec = 3

func binaryPrec(k TokenKind) int {
	switch k {
	case TokStar, TokSlash:
		return 2
	case TokPlus, TokMinus:
		return 1
	default:
		return 0
	}
}

// parseExpression parses tokens starting at i (the token right after
// the opening '[') up to and including the matching ']', returning the
// resulting expression tree and the index of the token following ']'.
func parseExpression(toks []Token, i int) (*AstExpr, int, error) {
	var operands []*AstExpr
	var ops []exprOp
	unary := true

	reduce := func() error {
		top := ops[len(ops)-1]
		ops = ops[:len(ops)-1]
		if top.kind == opUnary {
			if len(operands) < 1 {
				return parseErr("expression", "unary operator missing operand", toks[i].Start, toks[i].End)
			}
			operand := operands[len(operands)-1]
			operands = operands[:len(operands)-1]
			operands = append(operands, &AstExpr{Kind: ExprUnary, UOp: top.uop, Uexpr: operand, Start: operand.Start, End: operand.End})
			return nil
		}
		if len(operands) < 2 {
			return parseErr("expression", "binary operator missing operand", toks[i].Start, toks[i].End)
		}
		right := operands[len(operands)-1]
		left := operands[len(operands)-2]
		operands = operands[:len(operands)-2]
		operands = append(operands, &AstExpr{Kind: ExprBinary, BOp: top.bop, Left: left, Right: right, Start: left.Start, End: right.End})
		return nil
	}

	start := toks[i].Start

	for {
		if i >= len(toks) {
			return nil, 0, parseErr("expression", "reached end of input before closing ']'", start, start)
		}
		t := toks[i]
		if t.Kind == TokEOF {
			return nil, 0, parseErr("expression", "reached end of input before closing ']'", t.Start, t.End)
		}

		if unary {
			switch t.Kind {
			case TokMinus:
				ops = append(ops, exprOp{kind: opUnary, uop: UnaryNeg, prec: unaryPrec})
				i++
			case TokPlus:
				ops = append(ops, exprOp{kind: opUnary, uop: UnaryPos, prec: unaryPrec})
				i++
			case TokInt:
				operands = append(operands, &AstExpr{Kind: ExprInt, Int: t.Int, Start: t.Start, End: t.End})
				i++
				unary = false
			case TokIdent:
				operands = append(operands, &AstExpr{Kind: ExprLabel, Label: t.Text, Start: t.Start, End: t.End})
				i++
				unary = false
			case TokLParen:
				ops = append(ops, exprOp{kind: opOpenParen})
				i++
			default:
				return nil, 0, parseErr("expression", "expected an operand or unary operator", t.Start, t.End)
			}
			continue
		}

		switch t.Kind {
		case TokPlus, TokMinus, TokStar, TokSlash:
			prec := binaryPrec(t.Kind)
			for len(ops) > 0 && ops[len(ops)-1].kind != opOpenParen && ops[len(ops)-1].prec >= prec {
				if err := reduce(); err != nil {
					return nil, 0, err
				}
			}
			bop := map[TokenKind]BinOp{TokPlus: BinAdd, TokMinus: BinSub, TokStar: BinMul, TokSlash: BinDiv}[t.Kind]
			ops = append(ops, exprOp{kind: opBinary, bop: bop, prec: prec})
			i++
			unary = true

		case TokRParen:
			for len(ops) > 0 && ops[len(ops)-1].kind != opOpenParen {
				if err := reduce(); err != nil {
					return nil, 0, err
				}
			}
			if len(ops) == 0 {
				return nil, 0, parseErr("expression", "unmatched ')'", t.Start, t.End)
			}
			ops = ops[:len(ops)-1] // discard the open-paren sentinel
			i++

		case TokRBracket:
			for len(ops) > 0 {
				if ops[len(ops)-1].kind == opOpenParen {
					return nil, 0, parseErr("expression", "unmatched '('", t.Start, t.End)
				}
				if err := reduce(); err != nil {
					return nil, 0, err
				}
			}
			if len(operands) != 1 {
				return nil, 0, parseErr("expression", "malformed expression", t.Start, t.End)
			}
			return operands[0], i + 1, nil

		default:
			return nil, 0, parseErr("expression", "expected a binary operator or closing bracket", t.Start, t.End)
		}
	}
}

// Evaluate resolves e to a signed 64-bit integer, resolving label
// references through labels. Division is integer truncation, per
// spec.md §4.8 step 4.
func (e *AstExpr) Evaluate(labels map[string]int) (int64, error) {
	switch e.Kind {
	case ExprInt:
		return e.Int, nil
	case ExprLabel:
		addr, ok := labels[e.Label]
		if !ok {
			return 0, processErr("expression", "undefined label '"+e.Label+"'", e.Start, e.End)
		}
		return int64(addr), nil
	case ExprUnary:
		v, err := e.Uexpr.Evaluate(labels)
		if err != nil {
			return 0, err
		}
		if e.UOp == UnaryNeg {
			return -v, nil
		}
		return v, nil
	case ExprBinary:
		l, err := e.Left.Evaluate(labels)
		if err != nil {
			return 0, err
		}
		r, err := e.Right.Evaluate(labels)
		if err != nil {
			return 0, err
		}
		switch e.BOp {
		case BinAdd:
			return l + r, nil
		case BinSub:
			return l - r, nil
		case BinMul:
			return l * r, nil
		case BinDiv:
			if r == 0 {
				return 0, processErr("expression", "division by zero", e.Start, e.End)
			}
			return l / r, nil
		}
	}
	return 0, processErr("expression", "malformed expression node", e.Start, e.End)
}
