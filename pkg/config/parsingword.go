package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/LeoLuxo/cerisemu/pkg/capability"
	"github.com/LeoLuxo/cerisemu/pkg/machine"
	"github.com/LeoLuxo/cerisemu/pkg/permission"
)

// ParsingWord is a configuration-sourced word literal, per spec.md §6.
// A capability literal is always unsigned as written and gets signed
// against the target machine's key pair when Resolve runs.
type ParsingWord struct {
	hasInt        bool
	int_          int64
	hasChar       bool
	char_         rune
	hasPermission bool
	perm_         permission.Permission
	hasCapability bool
	cap_          capability.Capability
}

type parsingWordYAML struct {
	Integer    *int64  `yaml:"integer"`
	Char       *string `yaml:"char"`
	Permission *string `yaml:"permission"`
	Capability *struct {
		Perm string `yaml:"perm"`
		Base int    `yaml:"base"`
		End  int    `yaml:"end"`
		Addr int    `yaml:"addr"`
	} `yaml:"capability"`
}

// UnmarshalYAML decodes exactly one of the four ParsingWord variants
// from a single-key mapping.
func (pw *ParsingWord) UnmarshalYAML(node *yaml.Node) error {
	var raw parsingWordYAML
	if err := node.Decode(&raw); err != nil {
		return err
	}
	set := 0
	if raw.Integer != nil {
		set++
		pw.hasInt, pw.int_ = true, *raw.Integer
	}
	if raw.Char != nil {
		set++
		runes := []rune(*raw.Char)
		if len(runes) != 1 {
			return fmt.Errorf("config: char literal must be exactly one character, got %q", *raw.Char)
		}
		pw.hasChar, pw.char_ = true, runes[0]
	}
	if raw.Permission != nil {
		p, ok := permission.Parse(*raw.Permission)
		if !ok {
			return fmt.Errorf("config: %q is not a valid permission", *raw.Permission)
		}
		set++
		pw.hasPermission, pw.perm_ = true, p
	}
	if raw.Capability != nil {
		p, ok := permission.Parse(raw.Capability.Perm)
		if !ok {
			return fmt.Errorf("config: %q is not a valid permission", raw.Capability.Perm)
		}
		set++
		pw.hasCapability = true
		pw.cap_ = capability.Capability{Perm: p, Base: raw.Capability.Base, End: raw.Capability.End, Addr: raw.Capability.Addr}
	}
	if set != 1 {
		return fmt.Errorf("config: a word literal must set exactly one of integer/char/permission/capability, got %d", set)
	}
	return nil
}

// Resolve turns pw into a machine Word, signing a capability literal
// (if present) against m's key pair.
func (pw ParsingWord) Resolve(m *machine.Machine) (capability.Word, error) {
	switch {
	case pw.hasInt:
		return capability.Integer(pw.int_), nil
	case pw.hasChar:
		return capability.CharWord(pw.char_), nil
	case pw.hasPermission:
		return capability.PermWord(pw.perm_), nil
	case pw.hasCapability:
		signed, err := capability.Sign(m.Keys, pw.cap_)
		if err != nil {
			return capability.Word{}, err
		}
		return capability.CapWord(signed), nil
	default:
		return capability.Word{}, fmt.Errorf("config: empty ParsingWord")
	}
}
