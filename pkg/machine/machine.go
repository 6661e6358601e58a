// Package machine implements the capability-machine evaluator: the
// fetch/decode/execute loop, the 18 instructions, the interrupt/
// recovery protocol, and the machine's owned state (registers, memory,
// signing keys, backtrace).
package machine

import (
	"fmt"
	"strings"

	"github.com/LeoLuxo/cerisemu/pkg/capability"
	"github.com/LeoLuxo/cerisemu/pkg/memory"
	"github.com/LeoLuxo/cerisemu/pkg/permission"
)

// Status is the evaluator's execution state, spec.md §4.4.
type Status int

const (
	Running Status = iota
	Halted
	Failed
	Interrupted
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case Running:
		return "Running"
	case Halted:
		return "Halted"
	case Failed:
		return "Failed"
	case Interrupted:
		return "Interrupted"
	default:
		return "?"
	}
}

// Interrupt names a recoverable terminal condition.
type Interrupt int

const (
	Halt Interrupt = iota
	Fail
)

// String implements fmt.Stringer.
func (k Interrupt) String() string {
	if k == Halt {
		return "Halt"
	}
	return "Fail"
}

// signingKeyBits matches the reference's deliberate cost/speed
// trade-off (spec.md §4.2): correctness does not depend on the bit
// size, only on the signature verifying only for machine-produced
// capabilities.
const signingKeyBits = 1024

// Machine owns all mutable evaluator state: registers, memory, the
// interrupt table, the signing/verifying key pair, and the backtrace.
// Nothing about a Machine is shared across goroutines; spec.md §5
// requires the evaluator be strictly single-threaded.
type Machine struct {
	Mem            *memory.Memory
	regs           map[Register]capability.Word
	Keys           *capability.KeyPair
	InterruptTable map[Interrupt]int
	status         Status
	interruptKind  Interrupt
	backtrace      []string
}

// New constructs a Machine with the given memory size. The key pair is
// generated once, here, per spec.md §3 ("generated once at machine
// construction and is not serialised").
func New(memSize int) (*Machine, error) {
	kp, err := capability.NewKeyPair(signingKeyBits)
	if err != nil {
		return nil, fmt.Errorf("machine: %w", err)
	}
	return &Machine{
		Mem:            memory.New(memSize),
		regs:           make(map[Register]capability.Word),
		Keys:           kp,
		InterruptTable: make(map[Interrupt]int),
		status:         Running,
	}, nil
}

// Boot writes the master capability (RWX, 0, mem_size, 0) into PC,
// freshly signed, per spec.md §4.4. Must be called once before the
// first ExecSingle.
func (m *Machine) Boot() error {
	cap := capability.Capability{Perm: permission.RWX, Base: 0, End: m.Mem.Len(), Addr: 0}
	signed, err := capability.Sign(m.Keys, cap)
	if err != nil {
		return fmt.Errorf("machine: signing master capability: %w", err)
	}
	m.SetReg(PC, capability.CapWord(signed))
	m.status = Running
	return nil
}

// GetReg reads a register. Reading an absent register returns
// Integer(0), per spec.md §3.
func (m *Machine) GetReg(r Register) capability.Word {
	if w, ok := m.regs[r]; ok {
		return w
	}
	return capability.Integer(0)
}

// SetReg writes a register.
func (m *Machine) SetReg(r Register, w capability.Word) {
	m.regs[r] = w
}

// Status returns the evaluator's current execution state.
func (m *Machine) Status() Status { return m.status }

// InterruptKind returns the kind associated with an Interrupted status;
// meaningless otherwise.
func (m *Machine) InterruptKind() Interrupt { return m.interruptKind }

// logStep appends a grouped backtrace entry. The backtrace is
// append-only within a step group, per spec.md §5.
func (m *Machine) logStep(format string, args ...interface{}) {
	m.backtrace = append(m.backtrace, fmt.Sprintf(format, args...))
}

// Backtrace returns the ordered sequence of logged step groups,
// supplemented from original_source/src/emulator/machine.rs's
// print_backtrace (see SPEC_FULL.md §3); consumed by the CLI's
// --backtrace flag.
func (m *Machine) Backtrace() []string {
	out := make([]string, len(m.backtrace))
	copy(out, m.backtrace)
	return out
}

// StatusReport renders a column-aligned dump of PC, registers, and
// status, the Go analogue of print_status in the original.
func (m *Machine) StatusReport() string {
	var b strings.Builder
	fmt.Fprintf(&b, "status: %s\n", m.status)
	fmt.Fprintf(&b, "PC:     %s\n", m.GetReg(PC))
	for r, w := range m.regs {
		if r == PC {
			continue
		}
		fmt.Fprintf(&b, "%-6s %s\n", r, w)
	}
	return b.String()
}
