package asm

import (
	"github.com/LeoLuxo/cerisemu/pkg/machine"
	"github.com/LeoLuxo/cerisemu/pkg/permission"
)

// mnemonicOps maps a lowercase mnemonic to its opcode.
var mnemonicOps = map[string]machine.Op{
	"fail": machine.OpFail, "halt": machine.OpHalt, "mov": machine.OpMov,
	"load": machine.OpLoad, "store": machine.OpStore, "jmp": machine.OpJmp,
	"jnz": machine.OpJnz, "restrict": machine.OpRestrict, "subseg": machine.OpSubseg,
	"lea": machine.OpLea, "add": machine.OpAdd, "sub": machine.OpSub, "lt": machine.OpLt,
	"getp": machine.OpGetp, "getb": machine.OpGetb, "gete": machine.OpGete,
	"geta": machine.OpGeta, "isptr": machine.OpIsptr,
}

// ParseProgram reads a sequence of rows separated by newlines or
// commas, per spec.md §4.7.
func ParseProgram(toks []Token) (*Ast, error) {
	ast := &Ast{}
	i := 0
	for toks[i].Kind != TokEOF {
		if toks[i].Kind == TokLineBreak || toks[i].Kind == TokComma {
			i++
			continue
		}
		row, next, err := parseRow(toks, i)
		if err != nil {
			return nil, err
		}
		ast.Rows = append(ast.Rows, row)
		i = next
	}
	return ast, nil
}

func parseRow(toks []Token, i int) (AstRow, int, error) {
	t := toks[i]
	switch t.Kind {
	case TokIdent:
		if toks[i+1].Kind == TokColon {
			return AstRow{Kind: RowLabel, Label: t.Text, Start: t.Start, End: toks[i+1].End}, i + 2, nil
		}
		return AstRow{}, 0, parseErr("row", "a bare identifier is only valid as a label declaration 'ident:'", t.Start, t.End)

	case TokGoto:
		name := toks[i+1]
		if name.Kind != TokIdent {
			return AstRow{}, 0, parseErr("row", "expected an identifier after 'goto'", name.Start, name.End)
		}
		return AstRow{Kind: RowGoto, GotoTarget: name.Text, Start: t.Start, End: name.End}, i + 2, nil

	case TokEmpty:
		return AstRow{Kind: RowWord, Word: AstWord{Kind: AstWordInt, Int: 0}, Start: t.Start, End: t.End}, i + 1, nil

	case TokInt:
		return AstRow{Kind: RowWord, Word: AstWord{Kind: AstWordInt, Int: t.Int}, Start: t.Start, End: t.End}, i + 1, nil

	case TokChar:
		return AstRow{Kind: RowWord, Word: AstWord{Kind: AstWordChar, Char: t.Char}, Start: t.Start, End: t.End}, i + 1, nil

	case TokString:
		return AstRow{Kind: RowString, Str: t.Str, Start: t.Start, End: t.End}, i + 1, nil

	case TokLBracket:
		expr, next, err := parseExpression(toks, i+1)
		if err != nil {
			return AstRow{}, 0, err
		}
		return AstRow{Kind: RowWord, Word: AstWord{Kind: AstWordExpr, Expr: expr}, Start: t.Start, End: toks[next-1].End}, next, nil

	case TokMnemonic:
		instr, next, err := parseInstruction(toks, i)
		if err != nil {
			return AstRow{}, 0, err
		}
		return AstRow{Kind: RowInstruction, Instr: instr, Start: t.Start, End: toks[next-1].End}, next, nil

	default:
		return AstRow{}, 0, parseErr("row", "unexpected token starting a row", t.Start, t.End)
	}
}

func parseRegister(toks []Token, i int) (machine.Register, int, error) {
	t := toks[i]
	switch t.Kind {
	case TokPC:
		return machine.PC, i + 1, nil
	case TokRegister:
		return machine.R(t.Reg), i + 1, nil
	default:
		return 0, 0, parseErr("operand", "expected a register", t.Start, t.End)
	}
}

func parseRegOrWord(toks []Token, i int) (AstRegOrWord, int, error) {
	t := toks[i]
	switch t.Kind {
	case TokPC, TokRegister:
		reg, next, err := parseRegister(toks, i)
		if err != nil {
			return AstRegOrWord{}, 0, err
		}
		return AstRegOrWord{IsRegister: true, Reg: reg}, next, nil
	case TokInt:
		return AstRegOrWord{Word: AstWord{Kind: AstWordInt, Int: t.Int}}, i + 1, nil
	case TokChar:
		return AstRegOrWord{Word: AstWord{Kind: AstWordChar, Char: t.Char}}, i + 1, nil
	case TokLBracket:
		expr, next, err := parseExpression(toks, i+1)
		if err != nil {
			return AstRegOrWord{}, 0, err
		}
		return AstRegOrWord{Word: AstWord{Kind: AstWordExpr, Expr: expr}}, next, nil
	default:
		return AstRegOrWord{}, 0, parseErr("operand", "expected a register, integer, character, or bracketed expression", t.Start, t.End)
	}
}

func parsePermission(toks []Token, i int) (permission.Permission, int, error) {
	t := toks[i]
	if t.Kind != TokPermission {
		return permission.O, 0, parseErr("operand", "expected a permission (O, E, RO, RX, RW, RWX)", t.Start, t.End)
	}
	return t.Perm, i + 1, nil
}

func parseInstruction(toks []Token, i int) (AstInstruction, int, error) {
	t := toks[i]
	op, ok := mnemonicOps[t.Text]
	if !ok {
		return AstInstruction{}, 0, parseErr("instruction", "unknown mnemonic '"+t.Text+"'", t.Start, t.End)
	}
	i++

	switch op {
	case machine.OpFail, machine.OpHalt:
		return AstInstruction{Op: op}, i, nil

	case machine.OpMov, machine.OpStore, machine.OpLea:
		dst, i, err := parseRegister(toks, i)
		if err != nil {
			return AstInstruction{}, 0, err
		}
		a1, i, err := parseRegOrWord(toks, i)
		if err != nil {
			return AstInstruction{}, 0, err
		}
		return AstInstruction{Op: op, Dst: dst, A1: a1}, i, nil

	case machine.OpLoad, machine.OpJnz, machine.OpGetp, machine.OpGetb, machine.OpGete, machine.OpGeta, machine.OpIsptr:
		dst, i, err := parseRegister(toks, i)
		if err != nil {
			return AstInstruction{}, 0, err
		}
		src, i, err := parseRegister(toks, i)
		if err != nil {
			return AstInstruction{}, 0, err
		}
		return AstInstruction{Op: op, Dst: dst, Src: src}, i, nil

	case machine.OpJmp:
		dst, i, err := parseRegister(toks, i)
		if err != nil {
			return AstInstruction{}, 0, err
		}
		return AstInstruction{Op: op, Dst: dst}, i, nil

	case machine.OpRestrict:
		dst, i, err := parseRegister(toks, i)
		if err != nil {
			return AstInstruction{}, 0, err
		}
		perm, i, err := parsePermission(toks, i)
		if err != nil {
			return AstInstruction{}, 0, err
		}
		return AstInstruction{Op: op, Dst: dst, Perm: perm}, i, nil

	case machine.OpSubseg, machine.OpAdd, machine.OpSub, machine.OpLt:
		dst, i, err := parseRegister(toks, i)
		if err != nil {
			return AstInstruction{}, 0, err
		}
		a1, i, err := parseRegOrWord(toks, i)
		if err != nil {
			return AstInstruction{}, 0, err
		}
		a2, i, err := parseRegOrWord(toks, i)
		if err != nil {
			return AstInstruction{}, 0, err
		}
		return AstInstruction{Op: op, Dst: dst, A1: a1, A2: a2}, i, nil

	default:
		return AstInstruction{}, 0, parseErr("instruction", "unsupported opcode", t.Start, t.End)
	}
}
