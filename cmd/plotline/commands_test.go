package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/aretw0/plotline"
	"github.com/aretw0/plotline/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bundle = `
plans:
  - type: TreePlan
    name: onboarding
    branches: [greet]
    start_checkpoint: greet
    finish_action: utter_bye
branches:
  - name: greet
    steps:
      - when: slots.name == nil
        do: [SLOT_name]
      - do: [ACTION_utter_welcome, PLAN_COMPLETE]
descriptions:
  onboarding: Welcomes new users.
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeBundle(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	testutils.WriteFiles(t, dir, map[string]string{"plans.yaml": bundle})
	return filepath.Join(dir, "plans.yaml")
}

func TestCommands(t *testing.T) {
	file := writeBundle(t)

	t.Run("version", func(t *testing.T) {
		out, err := run(t, "version")
		require.NoError(t, err)
		assert.Equal(t, "plotline version "+plotline.Version+"\n", out)
	})

	t.Run("validate", func(t *testing.T) {
		out, err := run(t, "validate", "--file", file)
		require.NoError(t, err)
		assert.Contains(t, out, "onboarding")
		assert.Contains(t, out, "Definitions are valid!")
	})

	t.Run("describe list", func(t *testing.T) {
		out, err := run(t, "describe", "--file", file)
		require.NoError(t, err)
		assert.Equal(t, "onboarding\tTreePlan\tWelcomes new users.\n", out)
	})

	t.Run("describe mermaid", func(t *testing.T) {
		out, err := run(t, "describe", "onboarding", "--file", file, "--mermaid")
		require.NoError(t, err)
		assert.Contains(t, out, "graph TD")
		assert.Contains(t, out, "b_greet -- \"slots.name == nil\" --> s_name")
	})

	t.Run("describe unknown", func(t *testing.T) {
		_, err := run(t, "describe", "castle", "--file", file, "--mermaid=false")
		assert.Error(t, err)
	})

	t.Run("validate broken", func(t *testing.T) {
		dir := t.TempDir()
		testutils.WriteFiles(t, dir, map[string]string{"bad.yaml": "plans:\n  - type: TreePlan\n    name: x\n    branches: [nowhere]\n    start_checkpoint: nowhere\n    finish_action: bye\n"})
		_, err := run(t, "validate", "--file", filepath.Join(dir, "bad.yaml"))
		assert.ErrorContains(t, err, "validation failed")
	})
}
