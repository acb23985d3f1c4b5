package harness

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/roach88/envrt/internal/construct"
	"github.com/roach88/envrt/internal/fixture"
	"github.com/roach88/envrt/internal/journal"
	"github.com/roach88/envrt/internal/objsys"
	"github.com/roach88/envrt/internal/testutil"
)

// busyCheck is the ready check the harness registers so set_busy can block clears.
const busyCheck = "harness-busy"

// Harness runs one scenario against one environment.
type Harness struct {
	env     *construct.Environment
	journal *journal.Journal
	clock   *testutil.DeterministicClock
	logger  *slog.Logger
	output  bytes.Buffer
	result  *Result
	busy    bool
}

// Option configures Run.
type Option func(*runConfig)

type runConfig struct {
	logger  *slog.Logger
	journal *journal.Journal
}

// WithLogger sets the logger for the harness and its environment.
// Defaults to discarding all logs.
func WithLogger(l *slog.Logger) Option {
	return func(c *runConfig) {
		c.logger = l
	}
}

// WithJournal records clear outcomes to j instead of a fresh in-memory journal.
// The caller keeps ownership of j.
func WithJournal(j *journal.Journal) Option {
	return func(c *runConfig) {
		c.journal = j
	}
}

// Run executes a scenario and returns the result.
//
// Each run gets a fresh environment with a fixed ID, a deterministic clock
// and, unless WithJournal is given, an in-memory journal, so traces are
// identical across runs.
//
// Step and assertion failures are reported in Result; the error return is
// reserved for scenarios that cannot be set up.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	cfg := &runConfig{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	ctx := context.Background()

	j := cfg.journal
	if j == nil {
		var err error
		j, err = journal.Open(":memory:")
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory journal: %w", err)
		}
		defer j.Close()
	}

	envID := scenario.EnvID
	if envID == "" {
		envID = testutil.NewFixedIDGenerator("").Generate()
	}

	// Continue numbering after earlier runs recorded under the same ID, or
	// the journal drops this run's events as duplicates.
	lastSeq, err := j.LastSeq(ctx, envID)
	if err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}

	h := &Harness{
		journal: j,
		clock:   testutil.NewDeterministicClock(),
		logger:  cfg.logger,
		result:  NewResult(),
	}

	env, err := construct.New(
		construct.WithLogger(cfg.logger),
		construct.WithIDGenerator(testutil.NewFixedIDList(envID)),
		construct.WithClock(testutil.NewDeterministicClockAt(lastSeq)),
		construct.WithRecorder(journal.NewRecorder(ctx, j)),
		construct.WithOutput(&h.output),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create environment: %w", err)
	}
	h.env = env

	if err := env.RegisterReadyCheck(busyCheck, func(*construct.Environment) bool {
		return !h.busy
	}); err != nil {
		return nil, fmt.Errorf("failed to register busy check: %w", err)
	}

	if scenario.Fixture != "" {
		f, err := fixture.Load(scenario.Fixture)
		if err != nil {
			return nil, fmt.Errorf("failed to load fixture: %w", err)
		}
		if _, err := f.Apply(env.Hierarchy()); err != nil {
			return nil, fmt.Errorf("failed to apply fixture: %w", err)
		}
	}

	for i, step := range scenario.Steps {
		h.executeStep(i, step)
	}

	actx := &AssertionContext{
		Env:     env,
		Journal: j,
		FromSeq: lastSeq,
		Ctx:     ctx,
	}
	for _, msg := range EvaluateAssertions(h.result, scenario.Assertions, actx) {
		h.result.AddError(msg)
	}

	h.result.Output = h.output.String()
	h.logger.Info("scenario complete",
		"scenario", scenario.Name,
		"pass", h.result.Pass,
		"events", len(h.result.Trace),
	)
	return h.result, nil
}

func (h *Harness) executeStep(i int, step Step) {
	hier := h.env.Hierarchy()
	ev := TraceEvent{Op: step.Op}
	var err error

	switch step.Op {
	case OpDefineClass:
		ev.Class = step.Class
		_, err = hier.DefineClassNamed(step.Class, step.Superclasses...)

	case OpMakeInstance:
		ev.Name = step.Instance
		ev.Class = step.Class
		class, _ := hier.LookupClass(step.Class)
		_, err = hier.MakeInstance(class, step.Instance)

	case OpDeleteInstance:
		ev.Name = step.Instance
		id, _ := hier.LookupInstance(step.Instance)
		err = hier.DeleteInstance(id)

	case OpReclaim:
		hier.Reclaim()

	case OpIterate:
		ev.Class = step.Class
		ev.Instances, err = h.iterate(step)
		if err == nil && step.Instances != nil {
			if diff := cmp.Diff(step.Instances, ev.Instances, cmpopts.EquateEmpty()); diff != "" {
				h.result.AddError(fmt.Sprintf("steps[%d] iterate %s: expected %v, got %v\n%s",
					i, step.Class, step.Instances, ev.Instances, diff))
			}
		}

	case OpRegisterTeardown:
		ev.Name = step.Name
		err = h.env.RegisterTeardown(step.Name, h.teardown(step))

	case OpSetBusy:
		h.busy = step.Busy
		if h.busy {
			ev.Outcome = "busy"
		} else {
			ev.Outcome = "ready"
		}
		h.trace(ev)
		return

	case OpClear:
		err = h.env.Reset()
	}

	ev.Outcome = classify(err)
	want := step.Expect
	if want == "" {
		want = OutcomeOK
	}
	if ev.Outcome != want {
		h.result.AddError(fmt.Sprintf("steps[%d] %s: expected %s, got %s (%v)", i, step.Op, want, ev.Outcome, err))
	}
	h.trace(ev)
}

// iterate walks a class and its subclasses with a cursor, deleting
// step.DeleteDuring after the first yield.
func (h *Harness) iterate(step Step) ([]string, error) {
	hier := h.env.Hierarchy()
	cur, err := hier.StartNamed(step.Class)
	if err != nil {
		return nil, err
	}

	names := []string{}
	for {
		id, next, ok := hier.Advance(cur)
		if !ok {
			break
		}
		inst, _ := hier.Instance(id)
		names = append(names, inst.Name)

		if len(names) == 1 {
			for _, victim := range step.DeleteDuring {
				vid, found := hier.LookupInstance(victim)
				if !found {
					continue
				}
				if err := hier.DeleteInstance(vid); err != nil {
					return names, err
				}
			}
		}
		cur = next
	}
	return names, nil
}

// teardown builds the callback for a register_teardown step. Every call adds
// a "teardown" event to the trace.
func (h *Harness) teardown(step Step) construct.Teardown {
	run := func(env *construct.Environment) {
		ev := TraceEvent{Op: "teardown", Name: step.Name, Outcome: OutcomeOK}
		if step.Panic {
			ev.Outcome = "panic"
			h.trace(ev)
			panic(fmt.Sprintf("teardown %s", step.Name))
		}
		if step.Nested && env != nil {
			ev.Outcome = classify(env.Reset())
		}
		h.trace(ev)
	}

	if step.EnvAware {
		return construct.EnvironmentAware(run)
	}
	env := h.env
	return construct.Legacy(func() { run(env) })
}

func (h *Harness) trace(ev TraceEvent) {
	ev.Seq = h.clock.Next()
	h.result.AddTrace(ev)
}

// classify maps an error to an outcome kind.
func classify(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case construct.IsClearBusy(err):
		return OutcomeClearBusy
	case construct.IsReentrantClear(err):
		return OutcomeReentrantClear
	case objsys.IsInvalidClassHandle(err):
		return OutcomeInvalidClass
	case objsys.IsInvalidInstanceHandle(err):
		return OutcomeInvalidInstance
	case objsys.IsDuplicate(err):
		return OutcomeDuplicate
	default:
		return OutcomeError
	}
}
