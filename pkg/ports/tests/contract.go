package tests

import (
	"context"
	"testing"

	"github.com/aretw0/plotline/pkg/ports"
)

// DefinitionLoaderContractTest is a reusable test suite that verifies if an adapter complies with ports.DefinitionLoader.
// wantPlans lists the plan names the adapter was seeded with.
func DefinitionLoaderContractTest(t *testing.T, loader ports.DefinitionLoader, wantPlans []string) {
	t.Helper()

	bundle, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error loading definitions: %v", err)
	}

	t.Run("Plans", func(t *testing.T) {
		if len(bundle.Plans) != len(wantPlans) {
			t.Errorf("expected %d plans, got %d", len(wantPlans), len(bundle.Plans))
		}

		lookup := make(map[string]bool)
		for _, def := range bundle.Plans {
			lookup[def.Name()] = true
		}

		for _, name := range wantPlans {
			if !lookup[name] {
				t.Errorf("plan %s missing from bundle", name)
			}
		}
	})

	t.Run("Decoded", func(t *testing.T) {
		for _, def := range bundle.Plans {
			if def.Tree == nil && def.Form == nil {
				t.Errorf("plan %q was not decoded into a variant", def.Name())
			}
		}
	})

	t.Run("Cancelled Context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := loader.Load(ctx); err == nil {
			t.Error("expected error for cancelled context, got nil")
		}
	})
}
