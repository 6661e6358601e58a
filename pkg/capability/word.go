package capability

import (
	"fmt"

	"github.com/LeoLuxo/cerisemu/pkg/permission"
)

// Kind tags the variant carried by a Word.
type Kind int

const (
	// KindInteger holds a 64-bit signed integer.
	KindInteger Kind = iota
	// KindChar holds a single Unicode scalar.
	KindChar
	// KindCapability holds a sealed capability.
	KindCapability
	// KindPermission holds a bare permission value, as produced by getp.
	KindPermission
)

// Word is a single memory cell's data value. The zero value is
// Integer(0), matching spec.md §3's stated default.
type Word struct {
	Kind  Kind
	Int   int64
	Char  rune
	Cap   Signed
	Perm  permission.Permission
}

// Integer constructs an integer Word.
func Integer(i int64) Word { return Word{Kind: KindInteger, Int: i} }

// CharWord constructs a character Word.
func CharWord(c rune) Word { return Word{Kind: KindChar, Char: c} }

// CapWord constructs a capability Word from an already-signed capability.
func CapWord(s Signed) Word { return Word{Kind: KindCapability, Cap: s} }

// PermWord constructs a bare-permission Word.
func PermWord(p permission.Permission) Word { return Word{Kind: KindPermission, Perm: p} }

// IsCapability reports whether w carries a Capability variant,
// regardless of whether its signature verifies. Used by isptr.
func (w Word) IsCapability() bool { return w.Kind == KindCapability }

// String implements fmt.Stringer.
func (w Word) String() string {
	switch w.Kind {
	case KindInteger:
		return fmt.Sprintf("%d", w.Int)
	case KindChar:
		return fmt.Sprintf("%q", w.Char)
	case KindCapability:
		signed := "unsigned"
		if w.Cap.Sig != nil {
			signed = "signed"
		}
		return fmt.Sprintf("Cap%s%s", w.Cap.Cap, mark(signed))
	case KindPermission:
		return w.Perm.String()
	default:
		return "?"
	}
}

func mark(signed string) string {
	if signed == "signed" {
		return ""
	}
	return "[unsigned]"
}
