package plan_test

import (
	"slices"

	"github.com/aretw0/plotline/pkg/domain"
	"github.com/aretw0/plotline/pkg/plan"
)

// conversation is a minimal plan.Session for tests.
type conversation struct {
	slots  map[string]any
	intent string
	latest string
	active plan.Plan
}

func newConversation() *conversation {
	return &conversation{slots: map[string]any{}, latest: domain.ActionListen}
}

func (c *conversation) SlotValue(name string) (any, bool) {
	v, ok := c.slots[name]
	return v, ok
}

func (c *conversation) SlotValues() map[string]any { return c.slots }
func (c *conversation) LatestIntent() string       { return c.intent }
func (c *conversation) LatestActionName() string   { return c.latest }
func (c *conversation) SetSlot(name string, v any) { c.slots[name] = v }
func (c *conversation) ActivatePlan(p plan.Plan)   { c.active = p }
func (c *conversation) DeactivatePlan()            { c.active = nil }
func (c *conversation) ActivePlan() plan.Plan      { return c.active }

func (c *conversation) say(intent string) *conversation {
	c.intent = intent
	c.latest = domain.ActionListen
	return c
}

// actionList resolves names by position.
type actionList []string

func (a actionList) ActionIndex(name string) (int, error) {
	idx := slices.Index(a, name)
	if idx < 0 {
		return -1, &domain.UnknownActionError{Name: name}
	}
	return idx, nil
}

var actions = actionList{
	domain.ActionListen,
	domain.ActionActivatePlan,
	domain.ActionDeactivatePlan,
	"utter_goodbye",
	"utter_greet",
	"utter_joke",
	"utter_done",
	"greet",
	"other",
	"confirm",
	"finish_booking",
	"utter_ask_city",
	"utter_ask_date",
	"utter_ask_size",
	"utter_ask_topping",
	"utter_ask_crust",
	"utter_explain_city_hotel",
	"utter_explain_size_pizza",
}
