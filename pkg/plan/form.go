package plan

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/aretw0/plotline/pkg/domain"
	"github.com/aretw0/plotline/pkg/ports"
	"github.com/aretw0/plotline/pkg/slots"
)

var _ Plan = (*SimpleForm)(nil)

// SimpleForm asks for slots until every currently required slot is filled.
type SimpleForm struct {
	def     domain.SimpleFormDefinition
	base    []string
	schema  slots.Schema
	rules   Rules
	details map[string]struct{}
	guards  interceptors
	cfg     config

	lastQuestion string
}

// NewSimpleForm validates def and parses its slot types.
func NewSimpleForm(def domain.SimpleFormDefinition, opts ...Option) (*SimpleForm, error) {
	def = def.Normalize()
	if err := def.Validate(); err != nil {
		return nil, err
	}

	def.RequiredSlots = maps.Clone(def.RequiredSlots)
	def.OptionalSlots = slices.Clone(def.OptionalSlots)
	def.DetailsIntent = slices.Clone(def.DetailsIntent)

	schema, err := slots.ParseTypeMap(def.RequiredSlots)
	if err != nil {
		return nil, &domain.DefinitionError{Name: def.Name, Field: "required_slots", Reason: err.Error()}
	}

	details := make(map[string]struct{}, len(def.DetailsIntent))
	for _, intent := range def.DetailsIntent {
		details[intent] = struct{}{}
	}

	return &SimpleForm{
		def:     def,
		base:    slices.Sorted(maps.Keys(def.RequiredSlots)),
		schema:  schema,
		rules:   CompileRules(def.Rules),
		details: details,
		guards:  newInterceptors(def.ExitDict, def.ChitchatDict),
		cfg:     newConfig(opts),
	}, nil
}

func (f *SimpleForm) Name() string          { return f.def.Name }
func (f *SimpleForm) Kind() domain.PlanKind { return domain.KindSimpleForm }

// Decide runs the guards, then asks for a missing slot or returns the finish action.
func (f *SimpleForm) Decide(ctx context.Context, t ports.Tracker, actions ports.ActionIndex) (Decision, error) {
	if err := ctx.Err(); err != nil {
		return Decision{}, err
	}
	if action, reason, ok := f.guards.check(t); ok {
		return resolve(f.def.Name, actions, action, reason)
	}

	_, clarifying := f.details[domain.NormalizeIntent(t.LatestIntent())]
	if clarifying && f.lastQuestion != "" && !domain.IsExplainAction(t.LatestActionName()) {
		return resolve(f.def.Name, actions, domain.ExplainAction(f.lastQuestion, f.def.Subject), ReasonDetails)
	}

	if f.lastQuestion != "" && filled(t, f.lastQuestion) {
		f.lastQuestion = ""
	}

	todo := f.StillToAsk(t)
	if len(todo) == 0 {
		if err := f.TypeErrors(t); err != nil {
			f.cfg.logger.Warn("form completed with mistyped slots", "plan", f.def.Name, "err", err)
		}
		return resolve(f.def.Name, actions, f.def.FinishAction, ReasonFinish)
	}

	if clarifying && slices.Contains(todo, f.lastQuestion) {
		return resolve(f.def.Name, actions, domain.AskAction(f.lastQuestion), ReasonReask)
	}

	f.lastQuestion = todo[f.cfg.chooser.Intn(len(todo))]
	return resolve(f.def.Name, actions, domain.AskAction(f.lastQuestion), ReasonAsk)
}

// CurrentRequired recomputes the required slots from the current slot values.
func (f *SimpleForm) CurrentRequired(t ports.Tracker) []string {
	return f.rules.Requirements(f.base, t.SlotValues())
}

// StillToAsk returns the currently required slots without a value, sorted.
func (f *SimpleForm) StillToAsk(t ports.Tracker) []string {
	var todo []string
	for _, slot := range f.CurrentRequired(t) {
		if !filled(t, slot) {
			todo = append(todo, slot)
		}
	}
	return todo
}

// CheckComplete reports whether every currently required slot is filled.
func (f *SimpleForm) CheckComplete(t ports.Tracker) bool {
	return len(f.StillToAsk(t)) == 0
}

// TypeErrors checks filled required slots against their declared types.
// The returned error is a *slots.AggregateError, or nil.
func (f *SimpleForm) TypeErrors(t ports.Tracker) error {
	return slots.Validate(f.schema, t.SlotValues())
}

// RequiredSlots returns the declared required slots, sorted.
func (f *SimpleForm) RequiredSlots() []string { return slices.Clone(f.base) }

// LastQuestion returns the slot most recently asked for, or "".
func (f *SimpleForm) LastQuestion() string { return f.lastQuestion }

// Definition returns the declarative form of the plan.
func (f *SimpleForm) Definition() domain.PlanDefinition {
	def := f.def
	def.RequiredSlots = maps.Clone(f.def.RequiredSlots)
	def.OptionalSlots = slices.Clone(f.def.OptionalSlots)
	def.ExitDict = f.guards.exitDict()
	def.ChitchatDict = f.guards.chitchatDict()
	def.DetailsIntent = slices.Clone(f.def.DetailsIntent)
	def.Rules = f.rules.RuleSet()
	return domain.FormDefinition(def)
}

func (f *SimpleForm) Snapshot() domain.PlanSnapshot {
	return domain.PlanSnapshot{
		Name:         f.def.Name,
		Kind:         domain.KindSimpleForm,
		LastQuestion: f.lastQuestion,
	}
}

func (f *SimpleForm) Restore(snap domain.PlanSnapshot) error {
	if snap.Kind != "" && snap.Kind != domain.KindSimpleForm {
		return fmt.Errorf("plan %q: cannot restore %s snapshot", f.def.Name, snap.Kind)
	}
	f.lastQuestion = snap.LastQuestion
	return nil
}

func filled(t ports.Tracker, slot string) bool {
	value, ok := t.SlotValue(slot)
	return ok && value != nil
}
