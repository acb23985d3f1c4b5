package construct

import (
	"fmt"

	"github.com/roach88/envrt/internal/router"
)

const clearBusyMessage = "[CONSTRCT1] Some constructs are still in use. Clear cannot continue.\n"

// Reset runs the clear protocol. It returns a ClearError with code
// ErrCodeReentrantClear when a clear is already running on this environment
// and ErrCodeClearBusy when a readiness check fails; in both cases no
// teardown ran and no flag is left set.
func (e *Environment) Reset() error {
	if e.clearReadyInProgress || e.clearInProgress {
		phase := "teardown"
		if e.clearReadyInProgress {
			phase = "readiness"
		}
		err := NewReentrantClearError(e.id, phase)
		e.logger.Error("clear rejected", "reason", "reentrant", "phase", phase)
		e.record(EventClear, OutcomeReentrant, phase)
		return err
	}

	e.clearReadyInProgress = true
	traced := e.activateTrace()

	if !e.ClearReady() {
		e.routers.Print(router.WError, clearBusyMessage)
		e.deactivateTrace(traced)
		e.clearReadyInProgress = false

		e.logger.Warn("clear refused", "reason", "constructs in use")
		e.record(EventClear, OutcomeBusy, "")
		return NewClearBusyError(e.id)
	}
	e.clearReadyInProgress = false

	e.clearInProgress = true
	e.logger.Info("clear starting", "teardowns", len(e.teardowns))

	// Registration is refused while clearInProgress is set, so ranging over
	// the slice header taken here is stable.
	failed := 0
	for _, entry := range e.teardowns {
		if !e.runTeardown(entry) {
			failed++
		}
	}

	e.deactivateTrace(traced)
	e.clearInProgress = false

	e.logger.Info("clear complete", "teardowns", len(e.teardowns), "failed", failed)
	e.record(EventClear, OutcomeOK, fmt.Sprintf("teardowns=%d failed=%d", len(e.teardowns), failed))
	return nil
}

// ClearReady runs every readiness check in registration order and reports
// whether all of them passed. Every check runs even after one fails, so each
// gets to print its diagnostics. A panicking check counts as not ready.
func (e *Environment) ClearReady() bool {
	ready := true
	for _, entry := range e.readyChecks {
		if !e.runReadyCheck(entry) {
			e.logger.Debug("ready check failed", "check", entry.name)
			ready = false
		}
	}
	return ready
}

func (e *Environment) runReadyCheck(entry readyEntry) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("ready check panicked", "check", entry.name, "panic", r)
			ok = false
		}
	}()
	return entry.check(e)
}

// runTeardown invokes one teardown, containing any panic so the rest of the
// sequence still runs.
func (e *Environment) runTeardown(entry TeardownEntry) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("teardown panicked",
				"teardown", entry.Name,
				"panic", r,
			)
			e.record(EventTeardown, OutcomePanicked, entry.Name)
			ok = false
		}
	}()
	e.logger.Debug("running teardown",
		"teardown", entry.Name,
		"environment_aware", entry.Teardown.IsEnvironmentAware(),
	)
	entry.Teardown.call(e)
	return true
}

func (e *Environment) activateTrace() bool {
	if e.trace == nil {
		return false
	}
	if err := e.routers.Activate(TraceRouter); err != nil {
		e.logger.Warn("trace router not activated", "error", err)
		return false
	}
	return true
}

func (e *Environment) deactivateTrace(activated bool) {
	if !activated {
		return
	}
	if err := e.routers.Deactivate(TraceRouter); err != nil {
		e.logger.Warn("trace router not deactivated", "error", err)
	}
}
