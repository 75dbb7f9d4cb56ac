package cache_test

import (
	"testing"
	"time"

	"github.com/boddenberg/bpo-leadgen-bfa/internal/infra/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_SetAndGet(t *testing.T) {
	c := cache.New[float64](5 * time.Minute)
	defer c.Close()

	c.Set("PHP:USD", 0.0178)
	val, ok := c.Get("PHP:USD")
	require.True(t, ok)
	assert.Equal(t, 0.0178, val)
	assert.Equal(t, 1, c.Len())
}

func TestCache_GetMiss(t *testing.T) {
	c := cache.New[float64](5 * time.Minute)
	defer c.Close()

	_, ok := c.Get("PHP:JPY")
	assert.False(t, ok)
}

func TestCache_Expiration(t *testing.T) {
	c := cache.New[string](50 * time.Millisecond)
	defer c.Close()

	c.Set("key1", "value1")
	time.Sleep(100 * time.Millisecond)

	_, ok := c.Get("key1")
	assert.False(t, ok, "expected cache entry to be expired")
	_, ok = c.Age("key1")
	assert.False(t, ok)
}

func TestCache_Age(t *testing.T) {
	c := cache.New[string](time.Minute)
	defer c.Close()

	c.Set("k", "v")
	age, ok := c.Age("k")
	require.True(t, ok)
	assert.Less(t, age, time.Second)
}

func TestCache_Delete(t *testing.T) {
	c := cache.New[string](5 * time.Minute)
	defer c.Close()

	c.Set("key1", "value1")
	c.Delete("key1")

	_, ok := c.Get("key1")
	assert.False(t, ok)
}

func TestCache_CloseTwice(t *testing.T) {
	c := cache.New[string](time.Minute)
	c.Close()
	c.Close()

	c.Set("still", "usable")
	_, ok := c.Get("still")
	assert.True(t, ok)
}
