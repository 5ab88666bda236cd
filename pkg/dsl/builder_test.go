package dsl_test

import (
	"context"
	"testing"

	"github.com/aretw0/plotline"
	"github.com/aretw0/plotline/pkg/domain"
	"github.com/aretw0/plotline/pkg/dsl"
	"github.com/aretw0/plotline/pkg/plan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_Form(t *testing.T) {
	b := dsl.New()
	b.Form("hotel").
		Require("city", "text").
		Require("nights", "int").
		Optional("pet").
		Need("pet_friendly", "yes", "pet").
		Lose("nights", "0", "pet").
		Finish("utter_booked").
		Exit("stop", "utter_stopped").
		Chitchat("joke", "utter_joke").
		Details("hotel", "why").
		Describe("Books a hotel room.")

	bundle, err := b.Bundle()
	require.NoError(t, err)
	require.Len(t, bundle.Plans, 1)

	form := bundle.Plans[0].Form
	require.NotNil(t, form)
	assert.Equal(t, map[string]string{"city": "text", "nights": "int"}, form.RequiredSlots)
	assert.Equal(t, []string{"pet"}, form.OptionalSlots)
	assert.Equal(t, domain.RuleEffect{Need: []string{"pet"}}, form.Rules["pet_friendly"]["yes"])
	assert.Equal(t, domain.RuleEffect{Lose: []string{"pet"}}, form.Rules["nights"]["0"])
	assert.Equal(t, "utter_stopped", form.ExitDict["stop"])
	assert.Equal(t, "utter_joke", form.ChitchatDict["joke"])
	assert.Equal(t, []string{"why"}, form.DetailsIntent)
	assert.Equal(t, "hotel", form.Subject)
	assert.Equal(t, "Books a hotel room.", bundle.Descriptions["hotel"])
}

func TestBuilder_TreeAndBranches(t *testing.T) {
	b := dsl.New()
	b.Tree("onboarding").Start("greet").Finish("utter_bye")
	b.Branch("greet").
		When("slots.name == nil", domain.Ask("name")).
		Do(domain.Invoke("utter_welcome"), domain.Complete())

	bundle, err := b.Bundle()
	require.NoError(t, err)

	tree := bundle.Plans[0].Tree
	require.NotNil(t, tree)
	assert.Equal(t, []string{"greet"}, tree.Branches)
	assert.Equal(t, "greet", tree.StartCheckpoint)

	require.Len(t, bundle.Branches, 1)
	assert.Equal(t, []domain.BranchStep{
		{When: "slots.name == nil", Do: []string{"SLOT_name"}},
		{Do: []string{"ACTION_utter_welcome", "PLAN_COMPLETE"}},
	}, bundle.Branches[0].Steps)
}

func TestBuilder_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		build func(b *dsl.Builder)
	}{
		{"Form Without Slots", func(b *dsl.Builder) { b.Form("empty").Finish("x") }},
		{"Tree Without Finish", func(b *dsl.Builder) { b.Tree("t").Start("a") }},
		{"Empty Branch", func(b *dsl.Builder) { b.Branch("a") }},
		{"Form And Tree", func(b *dsl.Builder) {
			b.Form("dup").Require("a", "text").Finish("x")
			b.Tree("dup").Start("a").Finish("x")
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := dsl.New()
			tt.build(b)
			_, err := b.Build()
			assert.ErrorIs(t, err, domain.ErrInvalidDefinition)
		})
	}
}

func TestBuilder_RunsOnEngine(t *testing.T) {
	b := dsl.New()
	b.Form("hotel").Require("city", "text").Finish("utter_booked")
	loader, err := b.Build()
	require.NoError(t, err)

	eng, err := plotline.New(
		plotline.WithLoader(loader),
		plotline.WithChooser(plan.ChooserFunc(func(int) int { return 0 })),
	)
	require.NoError(t, err)

	ctx := context.Background()
	res, err := eng.Turn(ctx, "s1", domain.TurnInput{Intent: "book", Plan: "hotel"})
	require.NoError(t, err)
	require.Len(t, res.Actions, 2)
	assert.Equal(t, "utter_ask_city", res.Actions[1].Action)

	res, err = eng.Turn(ctx, "s1", domain.TurnInput{Intent: "inform", Slots: map[string]any{"city": "Porto"}})
	require.NoError(t, err)
	assert.Equal(t, "utter_booked", res.Actions[0].Action)
}
