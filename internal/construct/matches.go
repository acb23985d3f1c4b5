package construct

import "io"

// Verbosity selects how much detail a match report contains.
type Verbosity int

const (
	Verbose Verbosity = iota
	Succinct
	Terse
)

// String returns the verbosity name.
func (v Verbosity) String() string {
	switch v {
	case Verbose:
		return "verbose"
	case Succinct:
		return "succinct"
	case Terse:
		return "terse"
	default:
		return "unknown"
	}
}

// Matcher is the pattern-matching engine as seen by this package. It writes
// a human-readable match report for rule to w.
type Matcher interface {
	Matches(env *Environment, rule string, verbosity Verbosity, w io.Writer) error
}

// MatcherFunc adapts a function to Matcher.
type MatcherFunc func(env *Environment, rule string, verbosity Verbosity, w io.Writer) error

// Matches implements Matcher.
func (f MatcherFunc) Matches(env *Environment, rule string, verbosity Verbosity, w io.Writer) error {
	return f(env, rule, verbosity, w)
}

// MatchToChannel runs the verbose match report for rule and sends it to the
// named output channel instead of returning it. The matcher's result is not
// interpreted: once the call returns, MatchToChannel reports success. It only
// returns false when there is no matcher to call.
func (e *Environment) MatchToChannel(m Matcher, rule, channel string) bool {
	if m == nil {
		e.logger.Warn("match report skipped: no matcher", "rule", rule, "channel", channel)
		return false
	}
	if err := m.Matches(e, rule, Verbose, e.routers.Writer(channel)); err != nil {
		e.logger.Debug("matcher returned error", "rule", rule, "error", err)
	}
	return true
}
