package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryStore_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	ms := NewMemoryStore()

	ms.Set(ctx, "graph:v1", "payload", time.Minute)
	got, ok := ms.Get(ctx, "graph:v1")
	assert.True(t, ok)
	assert.Equal(t, "payload", got)

	ms.Delete(ctx, "graph:v1")
	_, ok = ms.Get(ctx, "graph:v1")
	assert.False(t, ok)
}

func TestMemoryStore_ExpiredEntriesMiss(t *testing.T) {
	ctx := context.Background()
	ms := NewMemoryStore()

	ms.Set(ctx, "key", "value", -time.Second)
	_, ok := ms.Get(ctx, "key")
	assert.False(t, ok)
}
