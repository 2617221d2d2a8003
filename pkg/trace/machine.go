package trace

import (
	"errors"
	"fmt"
)

// Phase represents the generation phase of one in-flight assistant message
type Phase int

const (
	PhaseCreated Phase = iota
	PhaseAgentSelecting
	PhaseToolRunning
	PhaseToolDone
	PhaseError
	PhaseFinalized
)

// String returns the string representation of the phase
func (p Phase) String() string {
	switch p {
	case PhaseCreated:
		return "created"
	case PhaseAgentSelecting:
		return "agent_selecting"
	case PhaseToolRunning:
		return "tool_running"
	case PhaseToolDone:
		return "tool_done"
	case PhaseError:
		return "error"
	case PhaseFinalized:
		return "finalized"
	default:
		return "unknown"
	}
}

var (
	// ErrFinalized is returned for any transition attempted after Finalize.
	ErrFinalized = errors.New("message already finalized")
	// ErrInvalidTransition is returned when an event is not legal in the
	// current phase. Callers log and drop, the session stays intact.
	ErrInvalidTransition = errors.New("invalid phase transition")
)

// Advance returns the phase reached by applying a step of the given kind.
// The agent_select / tool_start / tool_end cycle may repeat, and a new cycle
// may begin after a tool error.
func (p Phase) Advance(kind StepKind) (Phase, error) {
	if p == PhaseFinalized {
		return p, ErrFinalized
	}

	switch kind {
	case KindAgentSelect:
		// Legal from anywhere but mid-tool
		if p == PhaseToolRunning {
			return p, fmt.Errorf("%w: agent_select while tool running", ErrInvalidTransition)
		}
		return PhaseAgentSelecting, nil
	case KindToolStart:
		return PhaseToolRunning, nil
	case KindToolEnd:
		if p != PhaseToolRunning {
			return p, fmt.Errorf("%w: tool_end without tool_start", ErrInvalidTransition)
		}
		return PhaseToolDone, nil
	default:
		return p, fmt.Errorf("%w: unknown step kind %q", ErrInvalidTransition, kind)
	}
}

// Machine tracks the phase of a single in-flight assistant message
type Machine struct {
	phase Phase
}

// NewMachine creates a machine in the Created phase
func NewMachine() *Machine {
	return &Machine{phase: PhaseCreated}
}

// Phase returns the current phase
func (m *Machine) Phase() Phase {
	return m.phase
}

// Apply advances the machine with a step of the given kind
func (m *Machine) Apply(kind StepKind) error {
	next, err := m.phase.Advance(kind)
	if err != nil {
		return err
	}
	m.phase = next
	return nil
}

// Fail marks the current tool call as errored. The message itself stays
// live: a later agent_select or tool_start starts a fresh cycle.
func (m *Machine) Fail() error {
	if m.phase == PhaseFinalized {
		return ErrFinalized
	}
	m.phase = PhaseError
	return nil
}

// Finalize ends the message. Terminal: every patch afterwards is rejected.
func (m *Machine) Finalize() error {
	if m.phase == PhaseFinalized {
		return ErrFinalized
	}
	m.phase = PhaseFinalized
	return nil
}

// Finalized reports whether the machine reached its terminal phase
func (m *Machine) Finalized() bool {
	return m.phase == PhaseFinalized
}
