package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/plotline/pkg/adapters/memory"
	"github.com/aretw0/plotline/pkg/domain"
	"github.com/aretw0/plotline/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPIIMiddleware(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()
	mw, err := middleware.NewPIIMiddleware([]string{`^(email|phone)$`, `password`})
	require.NoError(t, err)
	store := mw(underlying)

	snap := domain.NewConversationSnapshot("s1")
	snap.Slots["email"] = "ada@example.com"
	snap.Slots["phone"] = nil
	snap.Slots["city"] = "Lisbon"
	snap.Slots["account"] = map[string]any{"password": "hunter2", "user": "ada"}

	require.NoError(t, store.Save(ctx, "s1", snap))

	// The caller's snapshot is untouched.
	assert.Equal(t, "ada@example.com", snap.Slots["email"])
	assert.Equal(t, "hunter2", snap.Slots["account"].(map[string]any)["password"])

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, middleware.Mask, loaded.Slots["email"])
	assert.Nil(t, loaded.Slots["phone"])
	assert.Equal(t, "Lisbon", loaded.Slots["city"])
	assert.Equal(t, map[string]any{"password": middleware.Mask, "user": "ada"}, loaded.Slots["account"])
}

func TestPIIMiddleware_InvalidPattern(t *testing.T) {
	_, err := middleware.NewPIIMiddleware([]string{"("})
	assert.Error(t, err)
}

func TestChain(t *testing.T) {
	ctx := context.Background()
	underlying := memory.NewStore()

	pii, err := middleware.NewPIIMiddleware([]string{"email"})
	require.NoError(t, err)
	enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: make([]byte, 32)})
	require.NoError(t, err)

	store := middleware.Chain(underlying, pii, enc)
	snap := domain.NewConversationSnapshot("s1")
	snap.Slots["email"] = "ada@example.com"
	require.NoError(t, store.Save(ctx, "s1", snap))

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, middleware.Mask, loaded.Slots["email"])

	raw, err := underlying.Load(ctx, "s1")
	require.NoError(t, err)
	assert.NotContains(t, raw.Slots, "email")
}
