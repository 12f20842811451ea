package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryClientSetGet(t *testing.T) {
	c := NewMemoryClient(10)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestMemoryClientMiss(t *testing.T) {
	c := NewMemoryClient(10)

	_, err := c.Get(context.Background(), "no-existe")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryClientExpiry(t *testing.T) {
	c := NewMemoryClient(10)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 10*time.Millisecond))
	time.Sleep(20 * time.Millisecond)

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryClientDelete(t *testing.T) {
	c := NewMemoryClient(10)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	require.NoError(t, c.Delete(ctx, "k"))

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryClientEvictsWhenFull(t *testing.T) {
	c := NewMemoryClient(2)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), 2*time.Minute))
	require.NoError(t, c.Set(ctx, "c", []byte("3"), 3*time.Minute))

	// "a" expires first, so it was the eviction victim.
	_, err := c.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrCacheMiss)

	_, err = c.Get(ctx, "c")
	assert.NoError(t, err)
}

func TestMemoryClientCloseStopsCleanup(t *testing.T) {
	c := NewMemoryClient(10)

	require.NoError(t, c.Close())

	select {
	case <-c.done:
	default:
		t.Fatal("done channel still open after Close")
	}

	// Idempotent, and the cache stays usable after shutdown.
	require.NoError(t, c.Close())
	require.NoError(t, c.Set(context.Background(), "k", []byte("v"), time.Minute))
}

func TestAnswerKeyNormalizesQuestion(t *testing.T) {
	a := AnswerKey("biblioteca", "¿Cuántos  libros ha escrito Isabel Allende?")
	b := AnswerKey("biblioteca", "¿cuántos libros   ha escrito isabel allende?")
	assert.Equal(t, a, b)

	c := AnswerKey("compras", "¿cuántos libros ha escrito isabel allende?")
	assert.NotEqual(t, a, c)
}
