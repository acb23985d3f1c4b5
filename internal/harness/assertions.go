package harness

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/roach88/envrt/internal/construct"
	"github.com/roach88/envrt/internal/journal"
	"github.com/roach88/envrt/internal/objsys"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Diff     string       // cmp.Diff output (-want +got), if any
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if e.Diff != "" {
		fmt.Fprintf(&buf, "  Diff (-want +got):\n%s", e.Diff)
	}

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, ev := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s\n", ev.Seq, ev.Label(), ev.Outcome)
		}
	}
	return buf.String()
}

// AssertionContext gives assertions access to the final environment state.
type AssertionContext struct {
	Env     *construct.Environment
	Journal *journal.Journal
	FromSeq int64 // journal rows at or below this belong to earlier runs
	Ctx     context.Context
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluateAssertion(result, a, actx); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluateAssertion(result *Result, a Assertion, actx *AssertionContext) error {
	switch a.Type {
	case AssertTraceContains:
		return assertTraceContains(result.Trace, a)
	case AssertTraceOrder:
		return assertTraceOrder(result.Trace, a)
	case AssertTraceCount:
		return assertTraceCount(result.Trace, a)
	case AssertInstances:
		return assertInstances(a, actx)
	case AssertJournalCount:
		return assertJournalCount(a, actx)
	case AssertRoutersBalanced:
		return assertRoutersBalanced(actx)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertTraceContains checks that some event carries the label.
func assertTraceContains(trace []TraceEvent, a Assertion) error {
	for _, ev := range trace {
		if ev.Label() == a.Label {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("event %s", a.Label),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that the first occurrences of the labels appear in
// the given order. Other events may sit in between.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	positions := make(map[string]int)
	for i, ev := range trace {
		label := ev.Label()
		if positions[label] == 0 && slices.Contains(a.Labels, label) {
			positions[label] = i + 1
		}
	}

	for _, label := range a.Labels {
		if positions[label] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all events present: %v", a.Labels),
				Actual:   fmt.Sprintf("missing event: %s", label),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(a.Labels); i++ {
		prev, curr := a.Labels[i-1], a.Labels[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("events in order: %v", a.Labels),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}
	return nil
}

// assertTraceCount checks the label appears exactly Count times.
func assertTraceCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, ev := range trace {
		if ev.Label() == a.Label {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", a.Count, a.Label),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertInstances iterates the class in the final hierarchy and compares the
// instance names, order included.
func assertInstances(a Assertion, actx *AssertionContext) error {
	hier := actx.Env.Hierarchy()
	class, ok := hier.LookupClass(a.Class)
	if !ok {
		return &AssertionError{
			Type:     AssertInstances,
			Expected: fmt.Sprintf("class %s with instances %v", a.Class, a.Instances),
			Actual:   "class not defined",
		}
	}

	names := []string{}
	err := hier.Each(class, func(inst objsys.Instance) bool {
		names = append(names, inst.Name)
		return true
	})
	if err != nil {
		return err
	}

	if diff := cmp.Diff(a.Instances, names, cmpopts.EquateEmpty()); diff != "" {
		return &AssertionError{
			Type:     AssertInstances,
			Expected: fmt.Sprintf("%s instances %v", a.Class, a.Instances),
			Actual:   fmt.Sprintf("%v", names),
			Diff:     diff,
		}
	}
	return nil
}

// assertJournalCount counts this run's journal rows for the environment with
// the outcome.
func assertJournalCount(a Assertion, actx *AssertionContext) error {
	events, err := actx.Journal.List(actx.Ctx, actx.Env.ID())
	if err != nil {
		return err
	}
	count := 0
	for _, ev := range events {
		if ev.Seq > actx.FromSeq && string(ev.Outcome) == a.Outcome {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertJournalCount,
			Expected: fmt.Sprintf("%d journal events with outcome %s", a.Count, a.Outcome),
			Actual:   fmt.Sprintf("%d events", count),
		}
	}
	return nil
}

// assertRoutersBalanced checks no clear left the trace router active.
func assertRoutersBalanced(actx *AssertionContext) error {
	if n := actx.Env.Routers().ActivationCount(construct.TraceRouter); n != 0 {
		return &AssertionError{
			Type:     AssertRoutersBalanced,
			Expected: "trace router inactive",
			Actual:   fmt.Sprintf("activation count %d", n),
		}
	}
	return nil
}
