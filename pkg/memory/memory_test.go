package memory

import (
	"strings"
	"testing"

	"github.com/LeoLuxo/cerisemu/pkg/capability"
)

func TestNewIsAllDefault(t *testing.T) {
	m := New(DefaultSize)
	if m.Len() != DefaultSize {
		t.Fatalf("Len() = %d, want %d", m.Len(), DefaultSize)
	}
	if !m.Get(0).IsDefault() {
		t.Error("fresh memory row 0 should be default")
	}
}

func TestSetGet(t *testing.T) {
	m := New(8)
	m.Set(3, WordRow(capability.Integer(42)))
	got := m.Get(3)
	if got.IsDefault() {
		t.Error("row 3 should no longer be default")
	}
	if got.Word.Kind != capability.KindInteger || got.Word.Int != 42 {
		t.Errorf("Get(3) = %+v, want Integer(42)", got.Word)
	}
}

func TestLoadProgram(t *testing.T) {
	m := New(8)
	rows := []Row{WordRow(capability.Integer(1)), WordRow(capability.Integer(2))}
	if err := m.LoadProgram(rows, 4); err != nil {
		t.Fatalf("LoadProgram: %v", err)
	}
	r4, r5 := m.Get(4).Word, m.Get(5).Word
	if r4.Kind != capability.KindInteger || r4.Int != 1 || r5.Kind != capability.KindInteger || r5.Int != 2 {
		t.Error("program rows not loaded at the expected offsets")
	}
}

func TestLoadProgramOutOfBounds(t *testing.T) {
	m := New(4)
	rows := []Row{WordRow(capability.Integer(1)), WordRow(capability.Integer(2))}
	if err := m.LoadProgram(rows, 3); err == nil {
		t.Error("LoadProgram should reject a program that overruns memory")
	}
}

func TestStringCollapsesDefaults(t *testing.T) {
	m := New(16)
	m.Set(5, WordRow(capability.Integer(7)))
	s := m.String()
	if strings.Count(s, "...") == 0 {
		t.Error("String() should collapse runs of default rows into ...")
	}
	if !strings.Contains(s, "7") {
		t.Error("String() should still show the non-default row")
	}
}
