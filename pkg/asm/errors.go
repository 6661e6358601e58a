package asm

import "fmt"

// ErrorKind classifies a compile-time error, per spec.md §7.
type ErrorKind int

const (
	LexError ErrorKind = iota
	ParseError
	ProcessError
)

// String implements fmt.Stringer.
func (k ErrorKind) String() string {
	switch k {
	case LexError:
		return "lex error"
	case ParseError:
		return "parse error"
	case ProcessError:
		return "processing error"
	default:
		return "error"
	}
}

// CompileError is a single compile-time diagnostic: a context string, a
// message, and a span over the original source. Start and End count
// runes (Unicode code points), not bytes; for non-ASCII source they
// differ from byte offsets.
// Compilation aborts on the first one raised.
type CompileError struct {
	Kind    ErrorKind
	Context string
	Message string
	Start   int
	End     int
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	return fmt.Sprintf("%s at %d:%d in %s: %s", e.Kind, e.Start, e.End, e.Context, e.Message)
}

func lexErr(ctx, msg string, start, end int) *CompileError {
	return &CompileError{Kind: LexError, Context: ctx, Message: msg, Start: start, End: end}
}

func parseErr(ctx, msg string, start, end int) *CompileError {
	return &CompileError{Kind: ParseError, Context: ctx, Message: msg, Start: start, End: end}
}

func processErr(ctx, msg string, start, end int) *CompileError {
	return &CompileError{Kind: ProcessError, Context: ctx, Message: msg, Start: start, End: end}
}
