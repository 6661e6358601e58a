package config

import (
	"encoding/gob"
	"fmt"
	"io"

	"github.com/LeoLuxo/cerisemu/pkg/machine"
	"github.com/LeoLuxo/cerisemu/pkg/memory"
)

func init() {
	gob.Register(machine.Instr{})
}

// EncodeProgram writes rows to w in the compiled-program wire format
// (spec.md §6): gob-encoded, with any capability cell unsigned — the
// asm package's code generator never emits a signed capability, so no
// stripping is needed here.
func EncodeProgram(w io.Writer, rows []memory.Row) error {
	if err := gob.NewEncoder(w).Encode(rows); err != nil {
		return fmt.Errorf("config: encoding compiled program: %w", err)
	}
	return nil
}

// DecodeProgram reads a compiled program previously written by
// EncodeProgram. Capability cells come back as stored, unsigned; neither
// this function nor Memory.LoadProgram signs them, so such a cell does
// not verify as a capability once placed in a machine.
func DecodeProgram(r io.Reader) ([]memory.Row, error) {
	var rows []memory.Row
	if err := gob.NewDecoder(r).Decode(&rows); err != nil {
		return nil, fmt.Errorf("config: decoding compiled program: %w", err)
	}
	return rows, nil
}
