package dsl

import "github.com/aretw0/plotline/pkg/domain"

// FormBuilder provides a fluent API for configuring a SimpleForm.
type FormBuilder struct {
	def     domain.SimpleFormDefinition
	builder *Builder
}

// Require adds a required slot of the given slot type ("text", "int", ...).
func (f *FormBuilder) Require(slot, slotType string) *FormBuilder {
	if f.def.RequiredSlots == nil {
		f.def.RequiredSlots = make(map[string]string)
	}
	f.def.RequiredSlots[slot] = slotType
	return f
}

// Optional declares slots that rules may later make required.
func (f *FormBuilder) Optional(slots ...string) *FormBuilder {
	f.def.OptionalSlots = append(f.def.OptionalSlots, slots...)
	return f
}

// Need makes slots required once slot holds value.
func (f *FormBuilder) Need(slot, value string, slots ...string) *FormBuilder {
	effect := f.rule(slot, value)
	effect.Need = append(effect.Need, slots...)
	f.def.Rules[slot][value] = effect
	return f
}

// Lose makes slots optional once slot holds value.
func (f *FormBuilder) Lose(slot, value string, slots ...string) *FormBuilder {
	effect := f.rule(slot, value)
	effect.Lose = append(effect.Lose, slots...)
	f.def.Rules[slot][value] = effect
	return f
}

func (f *FormBuilder) rule(slot, value string) domain.RuleEffect {
	if f.def.Rules == nil {
		f.def.Rules = make(domain.RuleSet)
	}
	if f.def.Rules[slot] == nil {
		f.def.Rules[slot] = make(map[string]domain.RuleEffect)
	}
	return f.def.Rules[slot][value]
}

// Finish sets the action run when every required slot is filled.
func (f *FormBuilder) Finish(action string) *FormBuilder {
	f.def.FinishAction = action
	return f
}

// Exit maps an intent to the action that abandons the form.
func (f *FormBuilder) Exit(intent, action string) *FormBuilder {
	f.def.ExitDict = put(f.def.ExitDict, intent, action)
	return f
}

// Chitchat maps an intent to a side response that keeps the form active.
func (f *FormBuilder) Chitchat(intent, action string) *FormBuilder {
	f.def.ChitchatDict = put(f.def.ChitchatDict, intent, action)
	return f
}

// Details registers intents that ask for an explanation of the pending slot.
func (f *FormBuilder) Details(subject string, intents ...string) *FormBuilder {
	f.def.Subject = subject
	f.def.DetailsIntent = append(f.def.DetailsIntent, intents...)
	return f
}

// Describe attaches a human readable description to the plan.
func (f *FormBuilder) Describe(text string) *FormBuilder {
	f.builder.descriptions[f.def.Name] = text
	return f
}

// Build returns the underlying definition.
// This is primarily used by the Builder, but exposed for advanced usage.
func (f *FormBuilder) Build() domain.PlanDefinition {
	return domain.FormDefinition(f.def.Normalize())
}

// TreeBuilder provides a fluent API for configuring a TreePlan.
type TreeBuilder struct {
	def     domain.TreePlanDefinition
	builder *Builder
}

// Branches lists the branches the plan may enter.
func (t *TreeBuilder) Branches(names ...string) *TreeBuilder {
	t.def.Branches = append(t.def.Branches, names...)
	return t
}

// Start sets the branch entered on activation. It is added to the branch list if missing.
func (t *TreeBuilder) Start(branch string) *TreeBuilder {
	t.def.StartCheckpoint = branch
	for _, b := range t.def.Branches {
		if b == branch {
			return t
		}
	}
	t.def.Branches = append(t.def.Branches, branch)
	return t
}

// Finish sets the action run when the plan completes or quits.
func (t *TreeBuilder) Finish(action string) *TreeBuilder {
	t.def.FinishAction = action
	return t
}

// Exit maps an intent to the action that abandons the plan.
func (t *TreeBuilder) Exit(intent, action string) *TreeBuilder {
	t.def.ExitDict = put(t.def.ExitDict, intent, action)
	return t
}

// Chitchat maps an intent to a side response that keeps the plan active.
func (t *TreeBuilder) Chitchat(intent, action string) *TreeBuilder {
	t.def.ChitchatDict = put(t.def.ChitchatDict, intent, action)
	return t
}

// Describe attaches a human readable description to the plan.
func (t *TreeBuilder) Describe(text string) *TreeBuilder {
	t.builder.descriptions[t.def.Name] = text
	return t
}

// Build returns the underlying definition.
func (t *TreeBuilder) Build() domain.PlanDefinition {
	return domain.TreeDefinition(t.def.Normalize())
}

// BranchBuilder provides a fluent API for configuring a declarative branch.
type BranchBuilder struct {
	def domain.BranchDefinition
}

// Do adds an unconditional step.
func (b *BranchBuilder) Do(ops ...domain.Instruction) *BranchBuilder {
	return b.When("", ops...)
}

// When adds a step guarded by a condition over the conversation slots.
func (b *BranchBuilder) When(condition string, ops ...domain.Instruction) *BranchBuilder {
	step := domain.BranchStep{When: condition, Do: make([]string, len(ops))}
	for i, op := range ops {
		step.Do[i] = op.String()
	}
	b.def.Steps = append(b.def.Steps, step)
	return b
}

// Build returns the underlying definition.
func (b *BranchBuilder) Build() domain.BranchDefinition {
	return b.def
}

func put(m map[string]string, k, v string) map[string]string {
	if m == nil {
		m = make(map[string]string)
	}
	m[k] = v
	return m
}
