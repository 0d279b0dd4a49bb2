package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/concierge/pkg/adapters/memory"
	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	ports.RunSessionStoreContract(t, memory.NewStore())
}

func TestMemoryStore_Isolation(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	s := domain.NewSession("iso")
	s.Variables["k"] = "v"
	require.NoError(t, store.Save(ctx, "iso", s))

	s.Variables["k"] = "mutated"
	loaded, err := store.Load(ctx, "iso")
	require.NoError(t, err)
	assert.Equal(t, "v", loaded.Variables["k"])

	loaded.Variables["k"] = "again"
	reloaded, err := store.Load(ctx, "iso")
	require.NoError(t, err)
	assert.Equal(t, "v", reloaded.Variables["k"])
}
