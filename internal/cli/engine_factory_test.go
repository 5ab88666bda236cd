package cli

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/plotline/internal/logging"
	"github.com/aretw0/plotline/internal/testutils"
	"github.com/aretw0/plotline/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const factoryBundle = `
plans:
  - type: SimpleForm
    name: hotel
    required_slots:
      city: text
    finish_action: action_book
`

func TestCreateEngine_File(t *testing.T) {
	dir := t.TempDir()
	testutils.WriteFiles(t, dir, map[string]string{"plans.yaml": factoryBundle})

	eng, cleanup, err := CreateEngine(context.Background(), Options{File: filepath.Join(dir, "plans.yaml")}, logging.NewNop())
	require.NoError(t, err)
	defer cleanup()
	assert.Equal(t, []string{"hotel"}, eng.Plans())
}

func TestCreateEngine_ConventionalActions(t *testing.T) {
	dir := t.TempDir()
	testutils.WriteFiles(t, dir, map[string]string{
		"plans.yaml": factoryBundle,
		"actions.yaml": `
actions:
  - name: action_book
    command: sh
    args: ["-c", "echo '{\"booking_ref\": \"ABC\"}'"]
`,
	})

	eng, cleanup, err := CreateEngine(context.Background(), Options{File: filepath.Join(dir, "plans.yaml")}, logging.NewNop())
	require.NoError(t, err)
	defer cleanup()

	ctx := context.Background()
	_, err = eng.Turn(ctx, "s", domain.TurnInput{Intent: "book", Plan: "hotel"})
	require.NoError(t, err)
	res, err := eng.Turn(ctx, "s", domain.TurnInput{Intent: "inform", Slots: map[string]any{"city": "Rome"}})
	require.NoError(t, err)
	assert.Equal(t, "ABC", res.State.Slots["booking_ref"])
}

func TestCreateEngine_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	dir := t.TempDir()
	testutils.WriteFiles(t, dir, map[string]string{"plans.yaml": factoryBundle})

	opts := Options{File: filepath.Join(dir, "plans.yaml"), RedisURL: "redis://" + mr.Addr()}
	eng, cleanup, err := CreateEngine(context.Background(), opts, logging.NewNop())
	require.NoError(t, err)
	defer cleanup()

	_, err = eng.Turn(context.Background(), "r1", domain.TurnInput{Intent: "book", Plan: "hotel"})
	require.NoError(t, err)
	assert.True(t, mr.Exists("plotline:session:r1"))

	_, _, err = CreateEngine(context.Background(), Options{File: opts.File, RedisURL: "::bad"}, logging.NewNop())
	assert.Error(t, err)
}

func TestCreateEngine_ProtectedStore(t *testing.T) {
	mr := miniredis.RunT(t)
	dir := t.TempDir()
	testutils.WriteFiles(t, dir, map[string]string{"plans.yaml": factoryBundle})

	opts := Options{
		File:          filepath.Join(dir, "plans.yaml"),
		RedisURL:      "redis://" + mr.Addr(),
		EncryptionKey: strings.Repeat("ab", 32),
		MaskSlots:     []string{"^city$"},
	}
	eng, cleanup, err := CreateEngine(context.Background(), opts, logging.NewNop())
	require.NoError(t, err)
	defer cleanup()

	ctx := context.Background()
	_, err = eng.Turn(ctx, "e1", domain.TurnInput{Intent: "book", Plan: "hotel"})
	require.NoError(t, err)
	res, err := eng.Turn(ctx, "e1", domain.TurnInput{Intent: "inform", Slots: map[string]any{"city": "Rome"}})
	require.NoError(t, err)
	assert.Equal(t, "Rome", res.State.Slots["city"])

	raw, err := mr.Get("plotline:session:e1")
	require.NoError(t, err)
	assert.NotContains(t, raw, "Rome")
	assert.NotContains(t, raw, "hotel")

	stored, err := eng.Session(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "***", stored.Slots["city"])
}

func TestCreateEngine_Errors(t *testing.T) {
	_, _, err := CreateEngine(context.Background(), Options{File: filepath.Join(t.TempDir(), "missing.yaml")}, logging.NewNop())
	assert.Error(t, err)

	dir := t.TempDir()
	testutils.WriteFiles(t, dir, map[string]string{"plans.yaml": factoryBundle})
	file := filepath.Join(dir, "plans.yaml")

	_, _, err = CreateEngine(context.Background(), Options{File: file, EncryptionKey: "short"}, logging.NewNop())
	assert.ErrorContains(t, err, "invalid encryption key")

	_, _, err = CreateEngine(context.Background(), Options{File: file, MaskSlots: []string{"("}}, logging.NewNop())
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	l, err := NewLogger(true, "")
	require.NoError(t, err)
	assert.True(t, l.Enabled(context.Background(), -4))

	l, err = NewLogger(false, "")
	require.NoError(t, err)
	assert.False(t, l.Enabled(context.Background(), 0))

	_, err = NewLogger(false, "shout")
	assert.Error(t, err)
}
