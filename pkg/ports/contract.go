package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/plotline/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStateStoreContract runs a suite of tests to verify that a StateStore implementation
// adheres to the defined interface contract.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		snap := domain.NewConversationSnapshot(sessionID)
		snap.Slots["city"] = "Berlin"
		snap.Slots["guests"] = 4
		snap.LatestIntent = "inform"
		snap.Events = []string{domain.ActionActivatePlan}
		snap.ActivePlan = &domain.PlanSnapshot{
			Name:          "booking",
			Kind:          domain.KindTreePlan,
			CurrentBranch: "collect",
			BranchStep:    2,
			Queue:         []domain.Instruction{domain.Ask("date"), domain.Complete()},
			LastQuestion:  "city",
		}

		err := store.Save(ctx, sessionID, snap)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, sessionID, loaded.SessionID)
		assert.Equal(t, "Berlin", loaded.Slots["city"])
		// JSON backed stores turn ints into float64, so only check presence.
		assert.NotNil(t, loaded.Slots["guests"])
		assert.Equal(t, "inform", loaded.LatestIntent)
		assert.Equal(t, domain.ActionListen, loaded.LatestAction)
		require.NotNil(t, loaded.ActivePlan)
		assert.Equal(t, "collect", loaded.ActivePlan.CurrentBranch)
		assert.Equal(t, 2, loaded.ActivePlan.BranchStep)
		assert.Equal(t, snap.ActivePlan.Queue, loaded.ActivePlan.Queue)
	})

	t.Run("Load Returns Copy", func(t *testing.T) {
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		loaded.Slots["city"] = "Paris"

		again, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "Berlin", again.Slots["city"])
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sessionID, domain.NewConversationSnapshot(sessionID))
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, domain.NewConversationSnapshot(id1))
		_ = store.Save(ctx, id2, domain.NewConversationSnapshot(id2))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
