package tui

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/aretw0/plotline/pkg/domain"
	"github.com/muesli/termenv"
)

// PlanMarkdown describes a plan as markdown for the describe command.
func PlanMarkdown(info domain.PlanInfo) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", info.Name)
	fmt.Fprintf(&sb, "*%s*\n\n", info.Kind)
	if info.Description != "" {
		fmt.Fprintf(&sb, "%s\n\n", info.Description)
	}

	switch def := info.Definition; {
	case def.Form != nil:
		sb.WriteString("## Slots\n\n| Slot | Type |\n|---|---|\n")
		for _, slot := range slices.Sorted(maps.Keys(def.Form.RequiredSlots)) {
			t := def.Form.RequiredSlots[slot]
			if t == "" {
				t = "any"
			}
			fmt.Fprintf(&sb, "| %s | %s |\n", slot, t)
		}
		sb.WriteString("\n")
		if len(def.Form.OptionalSlots) > 0 {
			fmt.Fprintf(&sb, "Optional: %s\n\n", strings.Join(def.Form.OptionalSlots, ", "))
		}
		fmt.Fprintf(&sb, "Finishes with `%s`.\n\n", def.Form.FinishAction)
		writeDict(&sb, "Exit intents", def.Form.ExitDict)
		writeDict(&sb, "Chitchat intents", def.Form.ChitchatDict)
	case def.Tree != nil:
		sb.WriteString("## Branches\n\n")
		for _, b := range def.Tree.Branches {
			marker := ""
			if b == def.Tree.StartCheckpoint {
				marker = " (start)"
			}
			fmt.Fprintf(&sb, "- %s%s\n", b, marker)
		}
		sb.WriteString("\n")
		fmt.Fprintf(&sb, "Finishes with `%s`.\n\n", def.Tree.FinishAction)
		writeDict(&sb, "Exit intents", def.Tree.ExitDict)
		writeDict(&sb, "Chitchat intents", def.Tree.ChitchatDict)
	}

	if len(info.Actions) > 0 {
		sb.WriteString("## Actions\n\n")
		for _, a := range info.Actions {
			fmt.Fprintf(&sb, "- `%s`\n", a)
		}
	}
	return sb.String()
}

func writeDict(sb *strings.Builder, title string, dict map[string]string) {
	if len(dict) == 0 {
		return
	}
	fmt.Fprintf(sb, "## %s\n\n", title)
	for _, intent := range slices.Sorted(maps.Keys(dict)) {
		fmt.Fprintf(sb, "- `%s` → `%s`\n", intent, dict[intent])
	}
	sb.WriteString("\n")
}

// FormatActions renders the actions of a turn, one per line.
// Lifecycle actions are dimmed and ask actions highlighted.
func FormatActions(p termenv.Profile, actions []domain.ExecutedAction) string {
	var sb strings.Builder
	for _, a := range actions {
		name := termenv.String(a.Action)
		switch {
		case a.Action == domain.ActionActivatePlan, a.Action == domain.ActionDeactivatePlan:
			name = name.Faint()
		case domain.IsAskAction(a.Action):
			name = name.Foreground(p.Color("#c084fc")).Bold()
		default:
			name = name.Foreground(p.Color("#818cf8"))
		}
		fmt.Fprintf(&sb, "  • %s", name)
		if a.Reason != "" {
			fmt.Fprintf(&sb, " %s", termenv.String("("+a.Reason+")").Faint())
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
