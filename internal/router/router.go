package router

import (
	"io"
	"strings"
)

// Standard logical names.
const (
	Stdout   = "stdout"
	WDisplay = "wdisplay"
	WError   = "werror"
	WWarning = "wwarning"
	WTrace   = "wtrace"
	WDialog  = "wdialog"
)

// Router is a named output sink.
type Router interface {
	// Query reports whether the router handles the logical name.
	Query(logicalName string) bool

	// Print delivers s, addressed to logicalName.
	Print(logicalName, s string)
}

// Capture buffers everything addressed to a fixed set of logical names.
// With discard set, output is accepted and dropped; this is how the trace
// router keeps diagnostics out of sight during a clear.
type Capture struct {
	names   map[string]bool
	discard bool
	buf     strings.Builder
	count   int
}

// NewCapture creates a capture router for the given logical names.
func NewCapture(discard bool, names ...string) *Capture {
	c := &Capture{
		names:   make(map[string]bool, len(names)),
		discard: discard,
	}
	for _, n := range names {
		c.names[n] = true
	}
	return c
}

// Query implements Router.
func (c *Capture) Query(logicalName string) bool {
	return c.names[logicalName]
}

// Print implements Router.
func (c *Capture) Print(_ string, s string) {
	c.count++
	if c.discard {
		return
	}
	c.buf.WriteString(s)
}

// String returns the captured output. Always empty for a discarding capture.
func (c *Capture) String() string {
	return c.buf.String()
}

// Count returns how many prints the router has consumed, including discarded ones.
func (c *Capture) Count() int {
	return c.count
}

// Reset drops captured output and the print counter.
func (c *Capture) Reset() {
	c.buf.Reset()
	c.count = 0
}

// WriterRouter forwards output for a set of logical names to an io.Writer.
type WriterRouter struct {
	w     io.Writer
	names map[string]bool
}

// NewWriter creates a router that writes the given logical names to w.
// With no names it accepts everything.
func NewWriter(w io.Writer, names ...string) *WriterRouter {
	r := &WriterRouter{w: w}
	if len(names) > 0 {
		r.names = make(map[string]bool, len(names))
		for _, n := range names {
			r.names[n] = true
		}
	}
	return r
}

// Query implements Router.
func (r *WriterRouter) Query(logicalName string) bool {
	if r.names == nil {
		return true
	}
	return r.names[logicalName]
}

// Print implements Router. Write errors are dropped; a sink has nobody to report to.
func (r *WriterRouter) Print(_ string, s string) {
	_, _ = io.WriteString(r.w, s)
}
