package asm

import "testing"

func TestLexBasicPunctuation(t *testing.T) {
	toks, err := Lex(", : + - * / ( ) [ ]")
	if err != nil {
		t.Fatalf("Lex: %v", err)
	}
	want := []TokenKind{TokComma, TokColon, TokPlus, TokMinus, TokStar, TokSlash, TokLParen, TokRParen, TokLBracket, TokRBracket, TokEOF}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(toks), len(want))
	}
	for i, k := range want {
		if toks[i].Kind != k {
			t.Errorf("token %d: kind = %v, want %v", i, toks[i].Kind, k)
		}
	}
}

func TestLexIntegersAllBases(t *testing.T) {
	cases := map[string]int64{
		"42":     42,
		"0":      0,
		"0x2A":   42,
		"0o52":   42,
		"0b101010": 42,
		"1_000":  1000,
	}
	for src, want := range cases {
		toks, err := Lex(src)
		if err != nil {
			t.Fatalf("Lex(%q): %v", src, err)
		}
		if toks[0].Kind != TokInt || toks[0].Int != want {
			t.Errorf("Lex(%q) = %+v, want Int=%d", src, toks[0], want)
		}
	}
}

func TestLexCharLiteral(t *testing.T) {
	toks, err := Lex(`'a' '\n'`)
	if err != nil {
		t.Fatalf("Lex: %v", err)
	}
	if toks[0].Kind != TokChar || toks[0].Char != 'a' {
		t.Errorf("first char literal = %+v", toks[0])
	}
	if toks[1].Kind != TokChar || toks[1].Char != '\n' {
		t.Errorf("second char literal = %+v, want resolved newline", toks[1])
	}
}

func TestLexStringLiteralResolvesEscapes(t *testing.T) {
	toks, err := Lex(`"a\nb"`)
	if err != nil {
		t.Fatalf("Lex: %v", err)
	}
	if toks[0].Kind != TokString || toks[0].Str != "a\nb" {
		t.Errorf("string literal = %+v, want resolved escape", toks[0])
	}
}

func TestLexRegisterAndPC(t *testing.T) {
	toks, err := Lex("r3 R10 PC pc")
	if err != nil {
		t.Fatalf("Lex: %v", err)
	}
	if toks[0].Kind != TokRegister || toks[0].Reg != 3 {
		t.Errorf("r3 = %+v", toks[0])
	}
	if toks[1].Kind != TokRegister || toks[1].Reg != 10 {
		t.Errorf("R10 = %+v", toks[1])
	}
	if toks[2].Kind != TokPC || toks[3].Kind != TokPC {
		t.Errorf("PC/pc should both lex as TokPC, got %+v %+v", toks[2], toks[3])
	}
}

func TestLexPermissionsCaseSensitivity(t *testing.T) {
	toks, err := Lex("O E RO rx RW rwx")
	if err != nil {
		t.Fatalf("Lex: %v", err)
	}
	for i, tok := range toks[:6] {
		if tok.Kind != TokPermission {
			t.Errorf("token %d should be a permission, got %+v", i, tok)
		}
	}
	// Lowercase 'o'/'e' are NOT the permission keywords (case-sensitive).
	toks2, err := Lex("o e")
	if err != nil {
		t.Fatalf("Lex: %v", err)
	}
	if toks2[0].Kind == TokPermission || toks2[1].Kind == TokPermission {
		t.Error("lowercase o/e should not lex as permission tokens")
	}
}

func TestLexMnemonicsCaseInsensitive(t *testing.T) {
	toks, err := Lex("HALT Halt halt")
	if err != nil {
		t.Fatalf("Lex: %v", err)
	}
	for _, tok := range toks[:3] {
		if tok.Kind != TokMnemonic || tok.Text != "halt" {
			t.Errorf("expected normalised halt mnemonic, got %+v", tok)
		}
	}
}

func TestLexLineComment(t *testing.T) {
	toks, err := Lex("halt ; this is a comment\nhalt")
	if err != nil {
		t.Fatalf("Lex: %v", err)
	}
	var kinds []TokenKind
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}
	want := []TokenKind{TokMnemonic, TokLineBreak, TokMnemonic, TokEOF}
	if len(kinds) != len(want) {
		t.Fatalf("got %v, want %v", kinds, want)
	}
}

func TestLexRejectsUnrecognisedCharacter(t *testing.T) {
	if _, err := Lex("halt @ halt"); err == nil {
		t.Error("Lex should reject an unrecognised character")
	}
}
