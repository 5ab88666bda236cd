package domain

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"sort"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// PlanKind discriminates the plan variants in serialized definitions.
type PlanKind string

const (
	KindTreePlan   PlanKind = "TreePlan"
	KindSimpleForm PlanKind = "SimpleForm"
)

// RuleEffect lists the slots a (slot, value) pair makes required ("need") or optional ("lose").
type RuleEffect struct {
	Need []string `json:"need,omitempty" yaml:"need,omitempty" mapstructure:"need"`
	Lose []string `json:"lose,omitempty" yaml:"lose,omitempty" mapstructure:"lose"`
}

// RuleSet is the declarative rule table: slot -> value -> effect.
type RuleSet map[string]map[string]RuleEffect

// TreePlanDefinition is the declarative form of a branch-graph plan.
type TreePlanDefinition struct {
	Name            string            `json:"name" yaml:"name" mapstructure:"name"`
	Branches        []string          `json:"branches" yaml:"branches" mapstructure:"branches"`
	StartCheckpoint string            `json:"start_checkpoint" yaml:"start_checkpoint" mapstructure:"start_checkpoint"`
	FinishAction    string            `json:"finish_action" yaml:"finish_action" mapstructure:"finish_action"`
	ExitDict        map[string]string `json:"exit_dict" yaml:"exit_dict" mapstructure:"exit_dict"`
	ChitchatDict    map[string]string `json:"chitchat_dict" yaml:"chitchat_dict" mapstructure:"chitchat_dict"`
}

// SimpleFormDefinition is the declarative form of a slot-filling plan.
// RequiredSlots maps slot names to their declared slot type.
type SimpleFormDefinition struct {
	Name          string            `json:"name" yaml:"name" mapstructure:"name"`
	RequiredSlots map[string]string `json:"required_slots" yaml:"required_slots" mapstructure:"required_slots"`
	OptionalSlots []string          `json:"optional_slots" yaml:"optional_slots" mapstructure:"optional_slots"`
	FinishAction  string            `json:"finish_action" yaml:"finish_action" mapstructure:"finish_action"`
	ExitDict      map[string]string `json:"exit_dict" yaml:"exit_dict" mapstructure:"exit_dict"`
	ChitchatDict  map[string]string `json:"chitchat_dict" yaml:"chitchat_dict" mapstructure:"chitchat_dict"`
	DetailsIntent []string          `json:"details_intent" yaml:"details_intent" mapstructure:"details_intent"`
	Rules         RuleSet           `json:"rules" yaml:"rules" mapstructure:"rules"`
	Subject       string            `json:"subject" yaml:"subject" mapstructure:"subject"`
}

// PlanDefinition is a tagged union over the plan variants.
// Exactly one of Tree or Form is set, matching Kind.
type PlanDefinition struct {
	Kind PlanKind
	Tree *TreePlanDefinition
	Form *SimpleFormDefinition
}

// TreeDefinition wraps a TreePlanDefinition.
func TreeDefinition(def TreePlanDefinition) PlanDefinition {
	return PlanDefinition{Kind: KindTreePlan, Tree: &def}
}

// FormDefinition wraps a SimpleFormDefinition.
func FormDefinition(def SimpleFormDefinition) PlanDefinition {
	return PlanDefinition{Kind: KindSimpleForm, Form: &def}
}

// Name returns the plan name regardless of variant.
func (d PlanDefinition) Name() string {
	switch {
	case d.Tree != nil:
		return d.Tree.Name
	case d.Form != nil:
		return d.Form.Name
	}
	return ""
}

// Normalize replaces nil collections with empty ones so equal definitions compare equal.
func (d TreePlanDefinition) Normalize() TreePlanDefinition {
	if d.Branches == nil {
		d.Branches = []string{}
	}
	if d.ExitDict == nil {
		d.ExitDict = map[string]string{}
	}
	if d.ChitchatDict == nil {
		d.ChitchatDict = map[string]string{}
	}
	return d
}

// Normalize replaces nil collections with empty ones so equal definitions compare equal.
func (d SimpleFormDefinition) Normalize() SimpleFormDefinition {
	if d.RequiredSlots == nil {
		d.RequiredSlots = map[string]string{}
	}
	if d.OptionalSlots == nil {
		d.OptionalSlots = []string{}
	}
	if d.ExitDict == nil {
		d.ExitDict = map[string]string{}
	}
	if d.ChitchatDict == nil {
		d.ChitchatDict = map[string]string{}
	}
	if d.DetailsIntent == nil {
		d.DetailsIntent = []string{}
	}
	if d.Rules == nil {
		d.Rules = RuleSet{}
	}
	return d
}

// Validate checks the structural constraints of a tree plan definition.
func (d TreePlanDefinition) Validate() error {
	if d.Name == "" {
		return &DefinitionError{Field: "name", Reason: "required"}
	}
	if d.FinishAction == "" {
		return &DefinitionError{Name: d.Name, Field: "finish_action", Reason: "required"}
	}
	if len(d.Branches) == 0 {
		return &DefinitionError{Name: d.Name, Field: "branches", Reason: "at least one branch is required"}
	}
	if !slices.Contains(d.Branches, d.StartCheckpoint) {
		return &DefinitionError{Name: d.Name, Field: "start_checkpoint", Reason: fmt.Sprintf("%q is not one of the plan branches", d.StartCheckpoint)}
	}
	return validateInterceptors(d.Name, d.ExitDict, d.ChitchatDict)
}

// Validate checks the structural constraints of a form definition.
func (d SimpleFormDefinition) Validate() error {
	if d.Name == "" {
		return &DefinitionError{Field: "name", Reason: "required"}
	}
	if d.FinishAction == "" {
		return &DefinitionError{Name: d.Name, Field: "finish_action", Reason: "required"}
	}
	if len(d.RequiredSlots) == 0 {
		return &DefinitionError{Name: d.Name, Field: "required_slots", Reason: "at least one slot is required"}
	}
	for _, intent := range d.DetailsIntent {
		if _, ok := d.ExitDict[intent]; ok {
			return &DefinitionError{Name: d.Name, Field: "details_intent", Reason: fmt.Sprintf("intent %q is also an exit intent", intent)}
		}
	}
	return validateInterceptors(d.Name, d.ExitDict, d.ChitchatDict)
}

func validateInterceptors(name string, exit, chitchat map[string]string) error {
	for intent := range exit {
		if _, ok := chitchat[intent]; ok {
			return &DefinitionError{Name: name, Field: "chitchat_dict", Reason: fmt.Sprintf("intent %q is also an exit intent", intent)}
		}
	}
	return nil
}

// Validate dispatches to the variant validator.
func (d PlanDefinition) Validate() error {
	switch d.Kind {
	case KindTreePlan:
		if d.Tree == nil {
			return &DefinitionError{Field: "type", Reason: "TreePlan definition is empty"}
		}
		return d.Tree.Validate()
	case KindSimpleForm:
		if d.Form == nil {
			return &DefinitionError{Field: "type", Reason: "SimpleForm definition is empty"}
		}
		return d.Form.Validate()
	}
	return &DefinitionError{Name: d.Name(), Field: "type", Reason: fmt.Sprintf("unsupported plan type %q", d.Kind)}
}

// AsMap renders the definition as its declarative field set, including the "type" discriminator.
func (d PlanDefinition) AsMap() map[string]any {
	switch {
	case d.Tree != nil:
		t := d.Tree.Normalize()
		return map[string]any{
			"type":             string(KindTreePlan),
			"name":             t.Name,
			"branches":         t.Branches,
			"start_checkpoint": t.StartCheckpoint,
			"finish_action":    t.FinishAction,
			"exit_dict":        t.ExitDict,
			"chitchat_dict":    t.ChitchatDict,
		}
	case d.Form != nil:
		f := d.Form.Normalize()
		return map[string]any{
			"type":           string(KindSimpleForm),
			"name":           f.Name,
			"required_slots": f.RequiredSlots,
			"optional_slots": f.OptionalSlots,
			"finish_action":  f.FinishAction,
			"exit_dict":      f.ExitDict,
			"chitchat_dict":  f.ChitchatDict,
			"details_intent": f.DetailsIntent,
			"rules":          f.Rules,
			"subject":        f.Subject,
		}
	}
	return map[string]any{}
}

// DecodeDefinition builds a PlanDefinition from a raw map (as produced by YAML/JSON decoding).
// The "type" key selects the variant; "branches_list" is accepted as an alias of "branches".
func DecodeDefinition(raw map[string]any) (PlanDefinition, error) {
	raw = NormalizeKeys(raw)

	kind, _ := raw["type"].(string)
	switch PlanKind(kind) {
	case KindTreePlan:
		if _, ok := raw["branches"]; !ok {
			if legacy, ok := raw["branches_list"]; ok {
				raw["branches"] = legacy
			}
		}
		var def TreePlanDefinition
		if err := decodeInto(raw, &def); err != nil {
			return PlanDefinition{}, err
		}
		def = def.Normalize()
		return PlanDefinition{Kind: KindTreePlan, Tree: &def}, nil
	case KindSimpleForm:
		var def SimpleFormDefinition
		if err := decodeInto(raw, &def); err != nil {
			return PlanDefinition{}, err
		}
		def = def.Normalize()
		return PlanDefinition{Kind: KindSimpleForm, Form: &def}, nil
	}

	name, _ := raw["name"].(string)
	return PlanDefinition{}, &DefinitionError{Name: name, Field: "type", Reason: fmt.Sprintf("unsupported plan type %q", kind)}
}

func decodeInto(raw map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "mapstructure",
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		name, _ := raw["name"].(string)
		return &DefinitionError{Name: name, Field: "*", Reason: err.Error()}
	}
	return nil
}

// NormalizeKeys converts nested map[any]any values into map[string]any using the
// canonical string form of each key, so YAML keys such as `true` or `3` survive decoding.
func NormalizeKeys(raw map[string]any) map[string]any {
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return NormalizeKeys(val)
	case map[any]any:
		m := make(map[string]any, len(val))
		for k, inner := range val {
			m[fmt.Sprint(k)] = normalizeValue(inner)
		}
		return m
	case []any:
		s := make([]any, len(val))
		for i, inner := range val {
			s[i] = normalizeValue(inner)
		}
		return s
	}
	return v
}

// MarshalJSON emits the declarative field set.
func (d PlanDefinition) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.AsMap())
}

// UnmarshalJSON decodes the declarative field set.
func (d *PlanDefinition) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := DecodeDefinition(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalYAML emits the declarative field set.
func (d PlanDefinition) MarshalYAML() (any, error) {
	return d.AsMap(), nil
}

// UnmarshalYAML decodes the declarative field set.
func (d *PlanDefinition) UnmarshalYAML(node *yaml.Node) error {
	var raw map[string]any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := DecodeDefinition(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Actions lists every action name the definition can emit directly, sorted.
// Ask and explanation actions of forms are included; tree plan branch actions are not,
// since those depend on the branches themselves.
func (d PlanDefinition) Actions() []string {
	set := map[string]struct{}{}
	add := func(names ...string) {
		for _, n := range names {
			if n != "" {
				set[n] = struct{}{}
			}
		}
	}
	switch {
	case d.Tree != nil:
		add(d.Tree.FinishAction)
		add(slices.Collect(maps.Values(d.Tree.ExitDict))...)
		add(slices.Collect(maps.Values(d.Tree.ChitchatDict))...)
	case d.Form != nil:
		add(d.Form.FinishAction)
		add(slices.Collect(maps.Values(d.Form.ExitDict))...)
		add(slices.Collect(maps.Values(d.Form.ChitchatDict))...)
		slots := make(map[string]struct{})
		for s := range d.Form.RequiredSlots {
			slots[s] = struct{}{}
		}
		for _, values := range d.Form.Rules {
			for _, eff := range values {
				for _, s := range eff.Need {
					slots[s] = struct{}{}
				}
			}
		}
		for s := range slots {
			add(AskAction(s))
			if len(d.Form.DetailsIntent) > 0 {
				add(ExplainAction(s, d.Form.Subject))
			}
		}
	}
	out := make([]string, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
