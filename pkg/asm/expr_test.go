package asm

import "testing"

func parseExprFromSource(t *testing.T, src string) *AstExpr {
	t.Helper()
	toks, err := Lex(src)
	if err != nil {
		t.Fatalf("Lex(%q): %v", src, err)
	}
	// toks[0] is TokLBracket for an "[...]" expression row.
	expr, _, err := parseExpression(toks, 1)
	if err != nil {
		t.Fatalf("parseExpression(%q): %v", src, err)
	}
	return expr
}

func evalExprSource(t *testing.T, src string, labels map[string]int) int64 {
	t.Helper()
	expr := parseExprFromSource(t, src)
	v, err := expr.Evaluate(labels)
	if err != nil {
		t.Fatalf("Evaluate(%q): %v", src, err)
	}
	return v
}

func TestExprPrecedenceMulOverAdd(t *testing.T) {
	if v := evalExprSource(t, "[2 + 3 * 4]", nil); v != 14 {
		t.Errorf("2 + 3 * 4 = %d, want 14", v)
	}
}

func TestExprParensOverridePrecedence(t *testing.T) {
	if v := evalExprSource(t, "[(2 + 3) * 4]", nil); v != 20 {
		t.Errorf("(2 + 3) * 4 = %d, want 20", v)
	}
}

func TestExprUnaryMinus(t *testing.T) {
	if v := evalExprSource(t, "[-5 + 2]", nil); v != -3 {
		t.Errorf("-5 + 2 = %d, want -3", v)
	}
}

func TestExprUnaryPlus(t *testing.T) {
	if v := evalExprSource(t, "[+5 - 2]", nil); v != 3 {
		t.Errorf("+5 - 2 = %d, want 3", v)
	}
}

func TestExprLeftAssociativeSubtraction(t *testing.T) {
	if v := evalExprSource(t, "[10 - 3 - 2]", nil); v != 5 {
		t.Errorf("10 - 3 - 2 = %d, want 5", v)
	}
}

func TestExprIntegerDivisionTruncates(t *testing.T) {
	if v := evalExprSource(t, "[7 / 2]", nil); v != 3 {
		t.Errorf("7 / 2 = %d, want 3", v)
	}
}

func TestExprDivisionByZeroIsProcessError(t *testing.T) {
	expr := parseExprFromSource(t, "[1 / 0]")
	if _, err := expr.Evaluate(nil); err == nil {
		t.Error("division by zero should produce an error")
	}
}

func TestExprLabelReferenceResolves(t *testing.T) {
	labels := map[string]int{"loop": 7}
	if v := evalExprSource(t, "[loop + 1]", labels); v != 8 {
		t.Errorf("loop + 1 = %d, want 8", v)
	}
}

func TestExprUndefinedLabelIsProcessError(t *testing.T) {
	expr := parseExprFromSource(t, "[nowhere]")
	if _, err := expr.Evaluate(map[string]int{}); err == nil {
		t.Error("undefined label should produce an error")
	}
}

func TestExprUnmatchedParenIsParseError(t *testing.T) {
	toks, err := Lex("[(1 + 2]")
	if err != nil {
		t.Fatalf("Lex: %v", err)
	}
	if _, _, err := parseExpression(toks, 1); err == nil {
		t.Error("unmatched '(' should be a parse error")
	}
}
