package graph

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/aretw0/plotline/pkg/domain"
)

// Overlay contains conversation state to highlight on the graph.
type Overlay struct {
	Visited []string // Branch names (tree plans) or filled slots (forms)
	Current string
}

// OverlayFrom derives an overlay from a stored conversation, or nil if
// the conversation is not running plan.
func OverlayFrom(snap *domain.ConversationSnapshot, plan string) *Overlay {
	if snap == nil || snap.ActivePlan == nil || snap.ActivePlan.Name != plan {
		return nil
	}
	o := &Overlay{Current: snap.ActivePlan.CurrentBranch}
	if snap.ActivePlan.Kind == domain.KindSimpleForm {
		o.Current = snap.ActivePlan.LastQuestion
		for _, slot := range slices.Sorted(maps.Keys(snap.Slots)) {
			if snap.Slots[slot] != nil {
				o.Visited = append(o.Visited, slot)
			}
		}
	}
	return o
}

// GenerateMermaid produces a Mermaid flowchart for a plan definition.
// Tree plans draw their branch graph using the declarative branches given;
// branches implemented in code appear as opaque nodes. Forms draw their
// slots in question order followed by the rules that add slots.
// Semantic shapes:
// - Start/End: ((Circle))
// - Action: [[Subroutine]]
// - Slot question: [/Parallelogram/]
// - Branch: [Rectangle]
func GenerateMermaid(def domain.PlanDefinition, branches []domain.BranchDefinition, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	switch {
	case def.Tree != nil:
		writeTree(&sb, def.Tree.Normalize(), branches)
	case def.Form != nil:
		writeForm(&sb, def.Form.Normalize())
	}

	if overlay != nil {
		writeOverlay(&sb, def.Kind, overlay)
	}
	return sb.String()
}

func writeTree(sb *strings.Builder, def domain.TreePlanDefinition, branches []domain.BranchDefinition) {
	byName := make(map[string]domain.BranchDefinition, len(branches))
	for _, b := range branches {
		byName[b.Name] = b
	}

	fmt.Fprintf(sb, "    start((\"%s\"))\n", def.Name)
	finish := actionID(def.FinishAction)
	fmt.Fprintf(sb, "    %s((\"%s\"))\n", finish, def.FinishAction)
	if def.StartCheckpoint != "" {
		fmt.Fprintf(sb, "    start --> %s\n", branchID(def.StartCheckpoint))
	}

	seen := map[string]bool{}
	for _, name := range def.Branches {
		if seen[name] {
			continue
		}
		seen[name] = true
		b, declared := byName[name]
		if !declared {
			fmt.Fprintf(sb, "    %s[\"%s (code)\"]\n", branchID(name), name)
			continue
		}
		fmt.Fprintf(sb, "    %s[\"%s\"]\n", branchID(name), name)
		for _, step := range b.Steps {
			for _, op := range step.Do {
				inst, err := domain.ParseInstruction(op)
				if err != nil {
					continue
				}
				writeEdge(sb, branchID(name), step.When, instructionTarget(sb, inst, finish))
			}
		}
	}

	writeInterceptors(sb, def.ExitDict, "exit")
	writeInterceptors(sb, def.ChitchatDict, "chitchat")
}

// instructionTarget returns the node an instruction leads to, declaring it if needed.
func instructionTarget(sb *strings.Builder, inst domain.Instruction, finish string) string {
	switch inst.Kind {
	case domain.EnterBranch:
		return branchID(inst.Name)
	case domain.InvokeAction:
		id := actionID(inst.Name)
		fmt.Fprintf(sb, "    %s[[\"%s\"]]\n", id, inst.Name)
		return id
	case domain.AskSlot:
		id := slotID(inst.Name)
		fmt.Fprintf(sb, "    %s[/\"%s\"/]\n", id, inst.Name)
		return id
	case domain.PlanComplete:
		sb.WriteString("    done((\"complete\"))\n")
		return "done"
	}
	return finish
}

func writeEdge(sb *strings.Builder, from, when, to string) {
	if when == "" {
		fmt.Fprintf(sb, "    %s --> %s\n", from, to)
		return
	}
	fmt.Fprintf(sb, "    %s -- \"%s\" --> %s\n", from, strings.ReplaceAll(when, "\"", "'"), to)
}

func writeForm(sb *strings.Builder, def domain.SimpleFormDefinition) {
	fmt.Fprintf(sb, "    start((\"%s\"))\n", def.Name)
	prev := "start"
	for _, slot := range slices.Sorted(maps.Keys(def.RequiredSlots)) {
		id := slotID(slot)
		label := slot
		if t := def.RequiredSlots[slot]; t != "" {
			label = fmt.Sprintf("%s: %s", slot, t)
		}
		fmt.Fprintf(sb, "    %s[/\"%s\"/]\n", id, label)
		fmt.Fprintf(sb, "    %s --> %s\n", prev, id)
		prev = id
	}
	finish := actionID(def.FinishAction)
	fmt.Fprintf(sb, "    %s((\"%s\"))\n", finish, def.FinishAction)
	fmt.Fprintf(sb, "    %s --> %s\n", prev, finish)

	for _, slot := range slices.Sorted(maps.Keys(def.Rules)) {
		values := def.Rules[slot]
		for _, value := range slices.Sorted(maps.Keys(values)) {
			eff := values[value]
			for _, need := range eff.Need {
				fmt.Fprintf(sb, "    %s[/\"%s\"/]\n", slotID(need), need)
				fmt.Fprintf(sb, "    %s -. \"= %s\" .-> %s\n", slotID(slot), value, slotID(need))
			}
		}
	}

	writeInterceptors(sb, def.ExitDict, "exit")
	writeInterceptors(sb, def.ChitchatDict, "chitchat")
}

// writeInterceptors draws intents that preempt the plan from any point.
func writeInterceptors(sb *strings.Builder, dict map[string]string, kind string) {
	for _, intent := range slices.Sorted(maps.Keys(dict)) {
		id := actionID(dict[intent])
		fmt.Fprintf(sb, "    %s[[\"%s\"]]\n", id, dict[intent])
		fmt.Fprintf(sb, "    start -. \"%s: %s\" .-> %s\n", kind, intent, id)
	}
}

func writeOverlay(sb *strings.Builder, kind domain.PlanKind, overlay *Overlay) {
	id := branchID
	if kind == domain.KindSimpleForm {
		id = slotID
	}

	sb.WriteString("\n    %% Overlay Styles\n")
	// Force black text (color:#000) for high contrast regardless of theme
	sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
	sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

	seen := make(map[string]bool)
	for _, name := range overlay.Visited {
		if safe := id(name); !seen[safe] {
			seen[safe] = true
			fmt.Fprintf(sb, "    class %s visited;\n", safe)
		}
	}
	if overlay.Current != "" {
		fmt.Fprintf(sb, "    class %s current;\n", id(overlay.Current))
	}
}

func branchID(name string) string { return "b_" + sanitizeMermaidID(name) }
func actionID(name string) string { return "a_" + sanitizeMermaidID(name) }
func slotID(name string) string   { return "s_" + sanitizeMermaidID(name) }

func sanitizeMermaidID(id string) string {
	return strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", ":", "_", " ", "_").Replace(id)
}
