package domain

// BranchStep is one guarded stage of a declarative branch.
// When is a boolean expression over the conversation; empty means "always".
// Do lists instructions in their textual opcode form.
type BranchStep struct {
	When string   `json:"when,omitempty" yaml:"when,omitempty" mapstructure:"when"`
	Do   []string `json:"do" yaml:"do" mapstructure:"do"`
}

// BranchDefinition describes a branch authored as data instead of code.
type BranchDefinition struct {
	Name  string       `json:"name" yaml:"name" mapstructure:"name"`
	Steps []BranchStep `json:"steps" yaml:"steps" mapstructure:"steps"`
}

// Validate checks that every step parses.
func (d BranchDefinition) Validate() error {
	if d.Name == "" {
		return &DefinitionError{Field: "name", Reason: "required"}
	}
	if len(d.Steps) == 0 {
		return &DefinitionError{Name: d.Name, Field: "steps", Reason: "at least one step is required"}
	}
	for _, step := range d.Steps {
		for _, op := range step.Do {
			if _, err := ParseInstruction(op); err != nil {
				return &DefinitionError{Name: d.Name, Field: "steps.do", Reason: err.Error()}
			}
		}
	}
	return nil
}

// Instructions returns every instruction the branch can emit, in declaration order.
func (d BranchDefinition) Instructions() []Instruction {
	var out []Instruction
	for _, step := range d.Steps {
		for _, op := range step.Do {
			if inst, err := ParseInstruction(op); err == nil {
				out = append(out, inst)
			}
		}
	}
	return out
}

// Bundle is everything a definition source provides: plans, declarative branches,
// extra action names and optional prose descriptions keyed by plan name.
type Bundle struct {
	Plans        []PlanDefinition   `json:"plans" yaml:"plans"`
	Branches     []BranchDefinition `json:"branches,omitempty" yaml:"branches,omitempty"`
	Actions      []string           `json:"actions,omitempty" yaml:"actions,omitempty"`
	Descriptions map[string]string  `json:"descriptions,omitempty" yaml:"descriptions,omitempty"`
}

// Merge appends other into b. Later descriptions win.
func (b *Bundle) Merge(other *Bundle) {
	if other == nil {
		return
	}
	b.Plans = append(b.Plans, other.Plans...)
	b.Branches = append(b.Branches, other.Branches...)
	b.Actions = append(b.Actions, other.Actions...)
	if len(other.Descriptions) > 0 && b.Descriptions == nil {
		b.Descriptions = make(map[string]string, len(other.Descriptions))
	}
	for k, v := range other.Descriptions {
		b.Descriptions[k] = v
	}
}
