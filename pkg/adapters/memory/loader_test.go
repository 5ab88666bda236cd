package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/plotline/pkg/adapters/memory"
	"github.com/aretw0/plotline/pkg/domain"
	"github.com/aretw0/plotline/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLoader_Contract(t *testing.T) {
	loader, err := memory.NewFromMaps(
		map[string]any{
			"type":             "TreePlan",
			"name":             "onboarding",
			"branches_list":    []any{"start"},
			"start_checkpoint": "start",
			"finish_action":    "utter_bye",
		},
		map[string]any{
			"type":           "SimpleForm",
			"name":           "hotel",
			"required_slots": map[any]any{"city": "text"},
			"finish_action":  "utter_booked",
		},
	)
	require.NoError(t, err)

	tests.DefinitionLoaderContractTest(t, loader, []string{"onboarding", "hotel"})
}

func TestMemoryLoader_Bundle(t *testing.T) {
	loader := memory.NewLoader(domain.FormDefinition(domain.SimpleFormDefinition{Name: "hotel"})).
		WithBranches(domain.BranchDefinition{Name: "start"}).
		WithActions("utter_extra")

	bundle, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, bundle.Plans, 1)
	assert.Len(t, bundle.Branches, 1)
	assert.Equal(t, []string{"utter_extra"}, bundle.Actions)

	bundle.Actions[0] = "mutated"
	again, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "utter_extra", again.Actions[0])
}

func TestNewFromMaps_UnknownType(t *testing.T) {
	_, err := memory.NewFromMaps(map[string]any{"type": "Flowchart", "name": "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidDefinition)
}
