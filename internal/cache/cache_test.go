package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheSetGet(t *testing.T) {
	c := NewCache[int](time.Minute, time.Hour)
	defer c.Close()

	c.Set("a", 1)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = c.Get("missing")
	assert.False(t, ok)

	c.Delete("a")
	assert.Equal(t, 0, c.Len())
}

func TestCacheExpiry(t *testing.T) {
	c := NewCache[string](10*time.Millisecond, time.Hour)
	defer c.Close()

	var evicted []string
	c.OnEvict(func(key string, _ string) { evicted = append(evicted, key) })

	c.Set("game", "engine")
	time.Sleep(25 * time.Millisecond)

	_, ok := c.Get("game")
	assert.False(t, ok)

	c.cleanup()
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, []string{"game"}, evicted)
}

func TestCacheGetOrCreate(t *testing.T) {
	c := NewCache[int](time.Minute, time.Hour)
	defer c.Close()

	calls := 0
	create := func() (int, error) {
		calls++
		return 7, nil
	}
	v, err := c.GetOrCreate("k", create)
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	v, err = c.GetOrCreate("k", create)
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.Equal(t, 1, calls)

	_, err = c.GetOrCreate("bad", func() (int, error) { return 0, errors.New("boom") })
	assert.Error(t, err)
	assert.Equal(t, 1, c.Len())
}

func TestCacheCloseIsIdempotent(t *testing.T) {
	c := NewCache[int](0, time.Millisecond)
	c.Close()
	c.Close()
}

func TestCacheGetOrCreateBuildsOnce(t *testing.T) {
	c := NewCache[*int](time.Minute, time.Hour)
	defer c.Close()

	var calls atomic.Int32
	start := make(chan struct{})
	results := make([]*int, 16)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			v, err := c.GetOrCreate("game", func() (*int, error) {
				calls.Add(1)
				time.Sleep(time.Millisecond)
				return new(int), nil
			})
			assert.NoError(t, err)
			results[i] = v
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, v := range results {
		assert.Same(t, results[0], v)
	}
}
