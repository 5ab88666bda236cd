package script_test

import (
	"context"
	"testing"

	"github.com/aretw0/plotline/pkg/domain"
	"github.com/aretw0/plotline/pkg/plan"
	"github.com/aretw0/plotline/pkg/registry"
	"github.com/aretw0/plotline/pkg/script"
	"github.com/aretw0/plotline/pkg/tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var branches = []domain.BranchDefinition{
	{
		Name: "welcome",
		Steps: []domain.BranchStep{
			{When: "step == 0", Do: []string{"ACTION_utter_greet", "BRANCH_collect"}},
		},
	},
	{
		Name: "collect",
		Steps: []domain.BranchStep{
			{When: "slots.city == nil", Do: []string{"SLOT_city"}},
			{When: `slots.city == "Atlantis"`, Do: []string{"ACTION_utter_no_such_city", "QUIT_PLAN"}},
			{When: "step < 3", Do: []string{"PLAN_COMPLETE", "ACTION_utter_confirm"}},
		},
	},
}

func setup(t *testing.T) (*plan.TreePlan, *registry.Registry) {
	t.Helper()
	reg := plan.NewBranchRegistry()
	require.NoError(t, script.Register(reg, branches))

	p, err := plan.NewTreePlan(domain.TreePlanDefinition{
		Name:            "trip",
		Branches:        []string{"welcome", "collect"},
		StartCheckpoint: "welcome",
		FinishAction:    "utter_bye",
	}, reg)
	require.NoError(t, err)

	return p, registry.NewRegistry(append(script.Actions(branches), "utter_bye")...)
}

func TestScriptedBranches(t *testing.T) {
	p, actions := setup(t)
	conv := tracker.New("s1")
	ctx := context.Background()

	d, err := p.Decide(ctx, conv, actions)
	require.NoError(t, err)
	assert.Equal(t, "utter_greet", d.Action)
	conv.RecordAction(d.Action)

	d, err = p.Decide(ctx, conv, actions)
	require.NoError(t, err)
	assert.Equal(t, "utter_ask_city", d.Action)
	assert.Equal(t, "collect", p.CurrentBranch())

	conv.SetIntent("inform")
	conv.SetSlot("city", "Rome")
	d, err = p.Decide(ctx, conv, actions)
	require.NoError(t, err)
	assert.Equal(t, "utter_confirm", d.Action)
	assert.True(t, p.CheckComplete(conv))
}

func TestScriptedBranches_Quit(t *testing.T) {
	p, actions := setup(t)
	conv := tracker.New("s1")
	ctx := context.Background()

	_, err := p.Decide(ctx, conv, actions)
	require.NoError(t, err)
	_, err = p.Decide(ctx, conv, actions)
	require.NoError(t, err)

	conv.SetSlot("city", "Atlantis")
	d, err := p.Decide(ctx, conv, actions)
	require.NoError(t, err)
	assert.Equal(t, "utter_no_such_city", d.Action)

	d, err = p.Decide(ctx, conv, actions)
	require.NoError(t, err)
	assert.Equal(t, "utter_bye", d.Action)
	assert.False(t, p.CheckComplete(conv))
}

func TestActions(t *testing.T) {
	assert.Equal(t, []string{
		"utter_ask_city", "utter_confirm", "utter_greet", "utter_no_such_city",
	}, script.Actions(branches))
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name string
		def  domain.BranchDefinition
	}{
		{"Bad Expression", domain.BranchDefinition{Name: "b", Steps: []domain.BranchStep{{When: "step ==", Do: []string{"QUIT_PLAN"}}}}},
		{"Not Boolean", domain.BranchDefinition{Name: "b", Steps: []domain.BranchStep{{When: "step + 1", Do: []string{"QUIT_PLAN"}}}}},
		{"Unknown Variable", domain.BranchDefinition{Name: "b", Steps: []domain.BranchStep{{When: "weather == 1", Do: []string{"QUIT_PLAN"}}}}},
		{"Bad Opcode", domain.BranchDefinition{Name: "b", Steps: []domain.BranchStep{{Do: []string{"JUMP_somewhere"}}}}},
		{"No Steps", domain.BranchDefinition{Name: "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := script.Compile(tt.def)
			assert.ErrorIs(t, err, domain.ErrInvalidDefinition)
		})
	}
}

func TestBranch_NoMatchingStepProducesNothing(t *testing.T) {
	factory, err := script.Compile(domain.BranchDefinition{
		Name:  "only_first",
		Steps: []domain.BranchStep{{When: "step == 0", Do: []string{"ACTION_utter_greet"}}},
	})
	require.NoError(t, err)

	b := factory()
	conv := tracker.New("s1")
	assert.Equal(t, []domain.Instruction{domain.Invoke("utter_greet")}, b.Produce(conv))
	assert.Empty(t, b.Produce(conv))
	assert.Equal(t, 2, b.(plan.Stepper).Step())
}
