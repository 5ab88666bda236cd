package registry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/plotline/pkg/domain"
	"github.com/aretw0/plotline/pkg/plan"
	"github.com/aretw0/plotline/pkg/registry"
	"github.com/aretw0/plotline/pkg/tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_BuiltinsFirst(t *testing.T) {
	r := registry.NewRegistry("utter_greet", domain.ActionListen, "utter_greet")

	assert.Equal(t, []string{
		domain.ActionListen, domain.ActionActivatePlan, domain.ActionDeactivatePlan, "utter_greet",
	}, r.Names())

	idx, err := r.ActionIndex("utter_greet")
	require.NoError(t, err)
	assert.Equal(t, 3, idx)
}

func TestRegistry_UnknownAction(t *testing.T) {
	r := registry.NewRegistry()

	_, err := r.ActionIndex("utter_nope")
	require.ErrorIs(t, err, domain.ErrUnknownAction)
	var unknown *domain.UnknownActionError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "utter_nope", unknown.Name)

	_, err = r.Execute(context.Background(), "utter_nope", tracker.New("s"))
	assert.ErrorIs(t, err, domain.ErrUnknownAction)
}

func TestRegistry_Execute(t *testing.T) {
	r := registry.NewRegistry("utter_greet")
	r.Register("action_lookup_city", func(ctx context.Context, s plan.Session) ([]plan.Event, error) {
		return []plan.Event{plan.SlotSet{Slot: "city", Value: "Lisbon"}}, nil
	})

	conv := tracker.New("s")
	events, err := r.Execute(context.Background(), "utter_greet", conv)
	require.NoError(t, err)
	assert.Empty(t, events)

	events, err = r.Execute(context.Background(), "action_lookup_city", conv)
	require.NoError(t, err)
	conv.Apply(events...)
	v, _ := conv.SlotValue("city")
	assert.Equal(t, "Lisbon", v)
	assert.Equal(t, 5, r.Len())
}

func TestFromCatalog(t *testing.T) {
	c := plan.NewCatalog(nil)
	require.NoError(t, c.Add(domain.FormDefinition(domain.SimpleFormDefinition{
		Name:          "hotel",
		RequiredSlots: map[string]string{"city": "text"},
		FinishAction:  "utter_booked",
		ExitDict:      map[string]string{"stop": "utter_stopped"},
		DetailsIntent: []string{"why"},
		Subject:       "hotel",
	})))

	r := registry.FromCatalog(c, "utter_extra")
	for _, name := range []string{"utter_booked", "utter_stopped", "utter_ask_city", "utter_explain_city_hotel", "utter_extra"} {
		_, err := r.ActionIndex(name)
		assert.NoError(t, err, name)
	}
}
