package construct

import "fmt"

// Teardown is a clear callback in one of two calling conventions: it either
// receives the environment being cleared or takes no arguments at all.
// Build one with EnvironmentAware or Legacy.
type Teardown struct {
	envAware func(*Environment)
	legacy   func()
}

// EnvironmentAware wraps a callback that needs the environment.
func EnvironmentAware(fn func(*Environment)) Teardown {
	return Teardown{envAware: fn}
}

// Legacy wraps a callback that works on global state and takes no arguments.
func Legacy(fn func()) Teardown {
	return Teardown{legacy: fn}
}

// IsEnvironmentAware reports which calling convention the teardown uses.
func (t Teardown) IsEnvironmentAware() bool {
	return t.envAware != nil
}

func (t Teardown) valid() bool {
	return t.envAware != nil || t.legacy != nil
}

func (t Teardown) call(env *Environment) {
	if t.envAware != nil {
		t.envAware(env)
		return
	}
	t.legacy()
}

// TeardownEntry is one registered teardown.
type TeardownEntry struct {
	Name     string
	Teardown Teardown
}

// ReadyCheck reports whether the subsystem that registered it can be cleared.
// Checks may print diagnostics through the environment's routers.
type ReadyCheck func(*Environment) bool

type readyEntry struct {
	name  string
	check ReadyCheck
}

// RegisterTeardown appends a teardown to the registry. Registration is meant
// for initialization time and is refused while a clear is running.
func (e *Environment) RegisterTeardown(name string, t Teardown) error {
	if err := e.checkRegistration(name); err != nil {
		return fmt.Errorf("register teardown %q: %w", name, err)
	}
	if !t.valid() {
		return fmt.Errorf("register teardown %q: %w", name, ErrNilCallback)
	}
	for _, entry := range e.teardowns {
		if entry.Name == name {
			return fmt.Errorf("register teardown %q: %w", name, ErrDuplicateTeardown)
		}
	}
	e.teardowns = append(e.teardowns, TeardownEntry{Name: name, Teardown: t})
	e.logger.Debug("teardown registered",
		"name", name,
		"environment_aware", t.IsEnvironmentAware(),
		"position", len(e.teardowns),
	)
	return nil
}

// UnregisterTeardown removes a teardown by name. Returns false if it was not
// registered or a clear is running.
func (e *Environment) UnregisterTeardown(name string) bool {
	if e.clearInProgress || e.clearReadyInProgress {
		return false
	}
	for i, entry := range e.teardowns {
		if entry.Name == name {
			e.teardowns = append(e.teardowns[:i], e.teardowns[i+1:]...)
			return true
		}
	}
	return false
}

// Teardowns returns registered teardown names in registration order.
func (e *Environment) Teardowns() []string {
	names := make([]string, len(e.teardowns))
	for i, entry := range e.teardowns {
		names[i] = entry.Name
	}
	return names
}

// RegisterReadyCheck appends a readiness check consulted by ClearReady.
func (e *Environment) RegisterReadyCheck(name string, check ReadyCheck) error {
	if err := e.checkRegistration(name); err != nil {
		return fmt.Errorf("register ready check %q: %w", name, err)
	}
	if check == nil {
		return fmt.Errorf("register ready check %q: %w", name, ErrNilCallback)
	}
	for _, entry := range e.readyChecks {
		if entry.name == name {
			return fmt.Errorf("register ready check %q: %w", name, ErrDuplicateReadyCheck)
		}
	}
	e.readyChecks = append(e.readyChecks, readyEntry{name: name, check: check})
	return nil
}

func (e *Environment) checkRegistration(name string) error {
	if name == "" {
		return ErrEmptyName
	}
	if e.clearInProgress || e.clearReadyInProgress {
		return ErrRegistrationDuringClear
	}
	return nil
}
