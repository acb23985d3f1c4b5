package testutil

import (
	"fmt"
	"sync"
)

// FixedIDGenerator hands out environment IDs from a predictable sequence so
// logs, journal rows and golden files are byte-identical across runs.
//
// With a single prefix and no explicit IDs it produces "<prefix>-1",
// "<prefix>-2", ... Implements construct.IDGenerator.
//
// Thread-safety: safe for concurrent use via internal mutex.
type FixedIDGenerator struct {
	mu     sync.Mutex
	prefix string
	ids    []string
	n      int
}

// NewFixedIDGenerator creates a generator producing "<prefix>-<n>".
// An empty prefix defaults to "test-env".
func NewFixedIDGenerator(prefix string) *FixedIDGenerator {
	if prefix == "" {
		prefix = "test-env"
	}
	return &FixedIDGenerator{prefix: prefix}
}

// NewFixedIDList creates a generator that returns ids in order and then
// falls back to "test-env-<n>".
func NewFixedIDList(ids ...string) *FixedIDGenerator {
	return &FixedIDGenerator{prefix: "test-env", ids: ids}
}

// Generate returns the next ID.
func (g *FixedIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.n++
	if g.n <= len(g.ids) {
		return g.ids[g.n-1]
	}
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}

// Count returns how many IDs have been handed out.
func (g *FixedIDGenerator) Count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.n
}
