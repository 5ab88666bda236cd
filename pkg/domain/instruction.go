package domain

import (
	"fmt"
	"strings"
)

// InstructionKind tags the opcode a branch emits.
type InstructionKind int

const (
	// EnterBranch switches the plan to a fresh instance of the named branch.
	EnterBranch InstructionKind = iota + 1
	// InvokeAction runs the named action.
	InvokeAction
	// AskSlot asks the user for the named slot.
	AskSlot
	// QuitPlan abandons the plan, returning its finish action.
	QuitPlan
	// PlanComplete marks the plan as successfully finished.
	PlanComplete
)

// Textual prefixes used by declarative branches and persisted queues.
const (
	prefixBranch   = "BRANCH_"
	prefixAction   = "ACTION_"
	prefixSlot     = "SLOT_"
	opQuitPlan     = "QUIT_PLAN"
	opPlanComplete = "PLAN_COMPLETE"
)

// Instruction is a single step produced by a branch.
// Name is set for EnterBranch, InvokeAction and AskSlot.
type Instruction struct {
	Kind InstructionKind
	Name string
}

// Enter returns an EnterBranch instruction.
func Enter(branch string) Instruction { return Instruction{Kind: EnterBranch, Name: branch} }

// Invoke returns an InvokeAction instruction.
func Invoke(action string) Instruction { return Instruction{Kind: InvokeAction, Name: action} }

// Ask returns an AskSlot instruction.
func Ask(slot string) Instruction { return Instruction{Kind: AskSlot, Name: slot} }

// Quit returns a QuitPlan instruction.
func Quit() Instruction { return Instruction{Kind: QuitPlan} }

// Complete returns a PlanComplete instruction.
func Complete() Instruction { return Instruction{Kind: PlanComplete} }

// String renders the instruction in its textual opcode form (e.g. "SLOT_city").
func (i Instruction) String() string {
	switch i.Kind {
	case EnterBranch:
		return prefixBranch + i.Name
	case InvokeAction:
		return prefixAction + i.Name
	case AskSlot:
		return prefixSlot + i.Name
	case QuitPlan:
		return opQuitPlan
	case PlanComplete:
		return opPlanComplete
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(i.Kind))
	}
}

// ParseInstruction parses the textual opcode form.
func ParseInstruction(s string) (Instruction, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == opQuitPlan:
		return Quit(), nil
	case s == opPlanComplete:
		return Complete(), nil
	case strings.HasPrefix(s, prefixBranch) && len(s) > len(prefixBranch):
		return Enter(s[len(prefixBranch):]), nil
	case strings.HasPrefix(s, prefixAction) && len(s) > len(prefixAction):
		return Invoke(s[len(prefixAction):]), nil
	case strings.HasPrefix(s, prefixSlot) && len(s) > len(prefixSlot):
		return Ask(s[len(prefixSlot):]), nil
	}
	return Instruction{}, fmt.Errorf("%w: unrecognized instruction %q", ErrInvalidDefinition, s)
}

// MarshalText implements encoding.TextMarshaler so queues persist as opcode strings.
func (i Instruction) MarshalText() ([]byte, error) {
	if i.Kind < EnterBranch || i.Kind > PlanComplete {
		return nil, fmt.Errorf("cannot marshal instruction kind %d", int(i.Kind))
	}
	return []byte(i.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *Instruction) UnmarshalText(text []byte) error {
	parsed, err := ParseInstruction(string(text))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}
