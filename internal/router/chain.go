package router

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
)

var (
	// ErrDuplicateRouter is returned by Add when the name is already registered.
	ErrDuplicateRouter = errors.New("router already registered")

	// ErrUnknownRouter is returned when a name has no registered router.
	ErrUnknownRouter = errors.New("router not registered")

	// ErrNotActive is returned by Deactivate for a router with no outstanding activation.
	ErrNotActive = errors.New("router not active")
)

type entry struct {
	name   string
	router Router
	active bool
	depth  int
}

// Chain is the ordered registry of routers for one environment.
type Chain struct {
	entries  map[string]*entry
	order    []*entry // registration order
	stack    []*entry // active routers, innermost last
	fallback io.Writer
	logger   *slog.Logger
}

// ChainOption configures a Chain.
type ChainOption func(*Chain)

// WithFallback sets the writer that receives output no active router accepts.
func WithFallback(w io.Writer) ChainOption {
	return func(c *Chain) {
		c.fallback = w
	}
}

// WithLogger sets the logger used for activation diagnostics.
func WithLogger(l *slog.Logger) ChainOption {
	return func(c *Chain) {
		c.logger = l
	}
}

// NewChain creates an empty chain.
func NewChain(opts ...ChainOption) *Chain {
	c := &Chain{
		entries: make(map[string]*entry),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Add registers a router under name. The router starts inactive.
func (c *Chain) Add(name string, r Router) error {
	if r == nil {
		return fmt.Errorf("add router %q: nil router", name)
	}
	if _, ok := c.entries[name]; ok {
		return fmt.Errorf("add router %q: %w", name, ErrDuplicateRouter)
	}
	e := &entry{name: name, router: r}
	c.entries[name] = e
	c.order = append(c.order, e)
	return nil
}

// Remove unregisters a router, deactivating it first if needed.
func (c *Chain) Remove(name string) error {
	e, ok := c.entries[name]
	if !ok {
		return fmt.Errorf("remove router %q: %w", name, ErrUnknownRouter)
	}
	c.pop(e)
	delete(c.entries, name)
	for i, o := range c.order {
		if o == e {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

// Activate pushes the named router onto the active stack.
// Activating an already active router only bumps its activation count.
func (c *Chain) Activate(name string) error {
	e, ok := c.entries[name]
	if !ok {
		return fmt.Errorf("activate router %q: %w", name, ErrUnknownRouter)
	}
	e.depth++
	if !e.active {
		e.active = true
		c.stack = append(c.stack, e)
	}
	c.logger.Debug("router activated", "router", name, "depth", e.depth)
	return nil
}

// Deactivate reverses one Activate. The router leaves the active stack on the
// first Deactivate even if it was activated more than once: nested activation
// of one name is not reentrant-safe. Until the remaining activations are
// unwound, ActivationCount stays above zero while IsActive reports false and
// the router receives no output. Balanced Activate/Deactivate pairs on
// distinct names never reach this state.
func (c *Chain) Deactivate(name string) error {
	e, ok := c.entries[name]
	if !ok {
		return fmt.Errorf("deactivate router %q: %w", name, ErrUnknownRouter)
	}
	if e.depth == 0 {
		return fmt.Errorf("deactivate router %q: %w", name, ErrNotActive)
	}
	e.depth--
	c.pop(e)
	c.logger.Debug("router deactivated", "router", name, "depth", e.depth)
	return nil
}

func (c *Chain) pop(e *entry) {
	if !e.active {
		return
	}
	e.active = false
	for i := len(c.stack) - 1; i >= 0; i-- {
		if c.stack[i] == e {
			c.stack = append(c.stack[:i], c.stack[i+1:]...)
			return
		}
	}
}

// IsActive reports whether the named router is on the active stack.
func (c *Chain) IsActive(name string) bool {
	e, ok := c.entries[name]
	return ok && e.active
}

// ActivationCount returns the number of outstanding activations of a router.
func (c *Chain) ActivationCount(name string) int {
	if e, ok := c.entries[name]; ok {
		return e.depth
	}
	return 0
}

// Names returns registered router names in registration order.
func (c *Chain) Names() []string {
	names := make([]string, len(c.order))
	for i, e := range c.order {
		names[i] = e.name
	}
	return names
}

// Active returns active router names, innermost first.
func (c *Chain) Active() []string {
	names := make([]string, 0, len(c.stack))
	for i := len(c.stack) - 1; i >= 0; i-- {
		names = append(names, c.stack[i].name)
	}
	return names
}

// Print routes s to the innermost active router accepting logicalName.
// Returns false when no router took it; the fallback writer, if any, still
// receives the output in that case.
func (c *Chain) Print(logicalName, s string) bool {
	for i := len(c.stack) - 1; i >= 0; i-- {
		e := c.stack[i]
		if e.router.Query(logicalName) {
			e.router.Print(logicalName, s)
			return true
		}
	}
	if c.fallback != nil {
		_, _ = io.WriteString(c.fallback, s)
	}
	return false
}

// Printf formats according to format and prints the result to logicalName.
func (c *Chain) Printf(logicalName, format string, args ...any) bool {
	return c.Print(logicalName, fmt.Sprintf(format, args...))
}

// Writer returns an io.Writer that prints to logicalName through the chain.
func (c *Chain) Writer(logicalName string) io.Writer {
	return &chainWriter{chain: c, name: logicalName}
}

type chainWriter struct {
	chain *Chain
	name  string
}

func (w *chainWriter) Write(p []byte) (int, error) {
	w.chain.Print(w.name, string(p))
	return len(p), nil
}
