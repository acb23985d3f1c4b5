package construct

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/envrt/internal/objsys"
	"github.com/roach88/envrt/internal/router"
)

// Router names registered by New.
const (
	// TraceRouter captures wtrace output while a clear is checking readiness.
	TraceRouter = "clear-trace"

	// DisplayRouter writes the standard logical names to the configured output.
	DisplayRouter = "display"

	// HierarchyTeardown clears the class hierarchy.
	HierarchyTeardown = "objsys"
)

// Environment is an isolated engine instance: a class hierarchy, a router
// chain, and the registries driving the clear protocol.
//
// Thread-safety model: none. All calls on one Environment, including router
// activation and hierarchy mutation, must be serialized by the caller.
type Environment struct {
	id        string
	hierarchy *objsys.Hierarchy
	routers   *router.Chain
	trace     *router.Capture // nil when tracing is disabled

	teardowns   []TeardownEntry // registration order
	readyChecks []readyEntry    // registration order

	clearReadyInProgress bool
	clearInProgress      bool

	clock    Sequencer
	logger   *slog.Logger
	recorder Recorder
	idGen    IDGenerator
	output   io.Writer

	noTrace             bool
	noHierarchyTeardown bool
}

// EnvironmentOption configures an Environment.
type EnvironmentOption func(*Environment)

// WithLogger sets the logger for the environment and the components it creates.
func WithLogger(l *slog.Logger) EnvironmentOption {
	return func(e *Environment) {
		e.logger = l
	}
}

// WithOutput routes the standard logical names (stdout, wdisplay, werror,
// wwarning, wdialog) to w through an active DisplayRouter.
func WithOutput(w io.Writer) EnvironmentOption {
	return func(e *Environment) {
		e.output = w
	}
}

// WithRecorder attaches a lifecycle event recorder.
func WithRecorder(r Recorder) EnvironmentOption {
	return func(e *Environment) {
		e.recorder = r
	}
}

// WithIDGenerator sets the generator used for the environment ID.
func WithIDGenerator(g IDGenerator) EnvironmentOption {
	return func(e *Environment) {
		e.idGen = g
	}
}

// WithClock sets the lifecycle event clock.
func WithClock(c Sequencer) EnvironmentOption {
	return func(e *Environment) {
		e.clock = c
	}
}

// WithoutTrace builds the environment without a trace router; Reset then
// skips the activate/deactivate pair.
func WithoutTrace() EnvironmentOption {
	return func(e *Environment) {
		e.noTrace = true
	}
}

// WithoutHierarchyTeardown leaves the teardown registry empty instead of
// registering the hierarchy teardown.
func WithoutHierarchyTeardown() EnvironmentOption {
	return func(e *Environment) {
		e.noHierarchyTeardown = true
	}
}

// New creates an environment.
func New(opts ...EnvironmentOption) (*Environment, error) {
	e := &Environment{
		logger: slog.Default(),
		idGen:  UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.clock == nil {
		e.clock = NewClock()
	}

	e.id = e.idGen.Generate()
	e.logger = e.logger.With("env", e.id)
	e.hierarchy = objsys.NewHierarchy(objsys.WithLogger(e.logger))
	e.routers = router.NewChain(router.WithLogger(e.logger))

	if e.output != nil {
		display := router.NewWriter(e.output,
			router.Stdout, router.WDisplay, router.WError, router.WWarning, router.WDialog)
		if err := e.routers.Add(DisplayRouter, display); err != nil {
			return nil, fmt.Errorf("new environment: %w", err)
		}
		if err := e.routers.Activate(DisplayRouter); err != nil {
			return nil, fmt.Errorf("new environment: %w", err)
		}
	}

	if !e.noTrace {
		e.trace = router.NewCapture(true, router.WTrace)
		if err := e.routers.Add(TraceRouter, e.trace); err != nil {
			return nil, fmt.Errorf("new environment: %w", err)
		}
	}

	if !e.noHierarchyTeardown {
		err := e.RegisterTeardown(HierarchyTeardown, EnvironmentAware(func(env *Environment) {
			env.hierarchy.Clear()
		}))
		if err != nil {
			return nil, fmt.Errorf("new environment: %w", err)
		}
	}

	e.logger.Info("environment created",
		"trace", e.trace != nil,
		"teardowns", len(e.teardowns),
	)
	return e, nil
}

// ID returns the environment identifier.
func (e *Environment) ID() string {
	return e.id
}

// Hierarchy returns the class hierarchy.
func (e *Environment) Hierarchy() *objsys.Hierarchy {
	return e.hierarchy
}

// Routers returns the router chain.
func (e *Environment) Routers() *router.Chain {
	return e.routers
}

// Logger returns the environment's logger.
func (e *Environment) Logger() *slog.Logger {
	return e.logger
}

// Clock returns the lifecycle event clock.
func (e *Environment) Clock() Sequencer {
	return e.clock
}

// TraceCount returns how many wtrace prints the trace router swallowed.
func (e *Environment) TraceCount() int {
	if e.trace == nil {
		return 0
	}
	return e.trace.Count()
}

// ClearInProgress reports whether teardowns are currently running.
func (e *Environment) ClearInProgress() bool {
	return e.clearInProgress
}

// ClearReadyInProgress reports whether readiness checks are currently running.
func (e *Environment) ClearReadyInProgress() bool {
	return e.clearReadyInProgress
}
