package plan

import (
	"fmt"
	"maps"
	"slices"

	"github.com/aretw0/plotline/pkg/domain"
)

// Rules maps (slot, value) pairs to the slots they make required or optional.
// The zero value has no rules.
type Rules struct {
	raw domain.RuleSet
}

// CompileRules copies raw so later edits to it do not affect the compiled rules.
func CompileRules(raw domain.RuleSet) Rules {
	compiled := make(domain.RuleSet, len(raw))
	for slot, byValue := range raw {
		values := make(map[string]domain.RuleEffect, len(byValue))
		for value, effect := range byValue {
			values[value] = domain.RuleEffect{
				Need: slices.Clone(effect.Need),
				Lose: slices.Clone(effect.Lose),
			}
		}
		compiled[slot] = values
	}
	return Rules{raw: compiled}
}

// Requirements returns base plus every slot needed by a matching rule, minus every
// slot lost by a matching rule, sorted.
// Slot values match rule keys by their fmt.Sprint form; nil values never match.
func (r Rules) Requirements(base []string, values map[string]any) []string {
	required := make(map[string]struct{}, len(base))
	for _, slot := range base {
		required[slot] = struct{}{}
	}

	var lost []string
	for slot, value := range values {
		if value == nil {
			continue
		}
		effect, ok := r.raw[slot][fmt.Sprint(value)]
		if !ok {
			continue
		}
		for _, need := range effect.Need {
			required[need] = struct{}{}
		}
		lost = append(lost, effect.Lose...)
	}
	for _, slot := range lost {
		delete(required, slot)
	}

	return slices.Sorted(maps.Keys(required))
}

// RuleSet returns a copy of the declarative rule table.
func (r Rules) RuleSet() domain.RuleSet {
	return CompileRules(r.raw).raw
}

// Len returns the number of (slot, value) rules.
func (r Rules) Len() int {
	n := 0
	for _, byValue := range r.raw {
		n += len(byValue)
	}
	return n
}
