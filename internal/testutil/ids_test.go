package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixedIDGenerator_Sequence(t *testing.T) {
	gen := NewFixedIDGenerator("env")

	assert.Equal(t, "env-1", gen.Generate())
	assert.Equal(t, "env-2", gen.Generate())
	assert.Equal(t, 2, gen.Count())
}

func TestFixedIDGenerator_EmptyPrefixDefault(t *testing.T) {
	gen := NewFixedIDGenerator("")
	assert.Equal(t, "test-env-1", gen.Generate())
}

func TestFixedIDList_ThenFallback(t *testing.T) {
	gen := NewFixedIDList("alpha", "beta")

	assert.Equal(t, "alpha", gen.Generate())
	assert.Equal(t, "beta", gen.Generate())
	assert.Equal(t, "test-env-3", gen.Generate())
}

func TestFixedIDGenerator_ThreadSafe(t *testing.T) {
	gen := NewFixedIDGenerator("env")
	const goroutines = 10
	const perGoroutine = 100

	var wg sync.WaitGroup
	ids := make(chan string, goroutines*perGoroutine)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				ids <- gen.Generate()
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		assert.False(t, seen[id], "id %s generated twice", id)
		seen[id] = true
	}
	assert.Len(t, seen, goroutines*perGoroutine)
}
