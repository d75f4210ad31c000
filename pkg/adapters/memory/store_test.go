package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/skphelp/pkg/adapters/memory"
	"github.com/aretw0/skphelp/pkg/domain"
	"github.com/aretw0/skphelp/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	ports.RunStateStoreContract(t, memory.NewStore())
	ports.RunStateStoreContract(t, memory.NewStore(memory.WithTTL(time.Hour)))
}

func TestMemoryStore_TTL(t *testing.T) {
	store := memory.NewStore(memory.WithTTL(50 * time.Millisecond))
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "short", domain.NewState("short", "root")))

	_, err := store.Load(ctx, "short")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		_, err := store.Load(ctx, "short")
		return errors.Is(err, domain.ErrSessionNotFound)
	}, 2*time.Second, 20*time.Millisecond)

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
