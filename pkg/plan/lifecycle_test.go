package plan_test

import (
	"context"
	"testing"

	"github.com/aretw0/plotline/pkg/domain"
	"github.com/aretw0/plotline/pkg/plan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCatalog(t *testing.T) *plan.Catalog {
	t.Helper()
	reg := plan.NewBranchRegistry()
	reg.Register("start", plan.Sequence([]domain.Instruction{domain.Complete(), domain.Invoke("utter_done")}))

	c := plan.NewCatalog(reg)
	require.NoError(t, c.Add(domain.TreeDefinition(treeDef("start"))))
	require.NoError(t, c.Add(domain.FormDefinition(hotelForm())))
	return c
}

func TestActivateAction(t *testing.T) {
	catalog := newCatalog(t)
	activate := plan.NewActivateAction(catalog, nil)
	assert.Equal(t, domain.ActionActivatePlan, activate.Name())

	t.Run("From Requested Slot", func(t *testing.T) {
		conv := newConversation()
		conv.slots[domain.SlotRequestedPlan] = "hotel"

		events, err := activate.Run(context.Background(), conv)
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, string(domain.EventPlanActivated), events[0].Name())
		assert.Equal(t, plan.SlotSet{Slot: domain.SlotActivePlan, Value: true}, events[1])

		plan.Apply(conv, events...)
		require.NotNil(t, conv.ActivePlan())
		assert.Equal(t, "hotel", conv.ActivePlan().Name())
		assert.Equal(t, true, conv.slots[domain.SlotActivePlan])
	})

	t.Run("Unknown Plan Installs Nothing", func(t *testing.T) {
		conv := newConversation()
		events, err := activate.RunFor(context.Background(), conv, "spaceship")
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, plan.SlotSet{Slot: domain.SlotActivePlan, Value: false}, events[0])

		plan.Apply(conv, events...)
		assert.Nil(t, conv.ActivePlan())
	})

	t.Run("Fresh Instance Per Activation", func(t *testing.T) {
		a, err := activate.RunFor(context.Background(), newConversation(), "hotel")
		require.NoError(t, err)
		b, err := activate.RunFor(context.Background(), newConversation(), "hotel")
		require.NoError(t, err)

		pa := a[0].(plan.PlanActivated).Plan
		pb := b[0].(plan.PlanActivated).Plan
		assert.NotSame(t, pa, pb)
	})
}

func TestCompleteAction(t *testing.T) {
	catalog := newCatalog(t)
	complete := plan.NewCompleteAction(nil)
	assert.Equal(t, domain.ActionDeactivatePlan, complete.Name())

	t.Run("Completed Tree", func(t *testing.T) {
		conv := newConversation()
		p, err := catalog.Instantiate("booking")
		require.NoError(t, err)
		conv.ActivatePlan(p)

		d, err := p.Decide(context.Background(), conv, actions)
		require.NoError(t, err)
		require.Equal(t, "utter_done", d.Action)

		events, err := complete.Run(context.Background(), conv)
		require.NoError(t, err)
		plan.Apply(conv, events...)

		assert.Nil(t, conv.ActivePlan())
		assert.Equal(t, false, conv.slots[domain.SlotActivePlan])
		assert.Equal(t, true, conv.slots[domain.SlotPlanComplete])
	})

	t.Run("Abandoned Form", func(t *testing.T) {
		conv := newConversation()
		p, err := catalog.Instantiate("hotel")
		require.NoError(t, err)
		conv.ActivatePlan(p)

		events, err := complete.Run(context.Background(), conv)
		require.NoError(t, err)
		require.Len(t, events, 3)
		assert.Equal(t, string(domain.EventPlanDeactivated), events[0].Name())

		plan.Apply(conv, events...)
		assert.Equal(t, false, conv.slots[domain.SlotPlanComplete])
	})

	t.Run("No Active Plan", func(t *testing.T) {
		conv := newConversation()
		events, err := complete.Run(context.Background(), conv)
		require.NoError(t, err)
		plan.Apply(conv, events...)
		assert.Equal(t, false, conv.slots[domain.SlotPlanComplete])
	})
}
