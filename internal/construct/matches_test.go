package construct

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/envrt/internal/router"
)

func TestMatchToChannel_WritesToChannel(t *testing.T) {
	env := newTestEnv(t)
	capture := router.NewCapture(false, "matches")
	require.NoError(t, env.Routers().Add("matches", capture))
	require.NoError(t, env.Routers().Activate("matches"))

	var gotVerbosity Verbosity = -1
	m := MatcherFunc(func(e *Environment, rule string, v Verbosity, w io.Writer) error {
		gotVerbosity = v
		_, err := fmt.Fprintf(w, "Matches for %s: 2\n", rule)
		return err
	})

	ok := env.MatchToChannel(m, "r1", "matches")

	assert.True(t, ok)
	assert.Equal(t, Verbose, gotVerbosity)
	assert.Equal(t, "Matches for r1: 2\n", capture.String())
}

func TestMatchToChannel_IgnoresMatcherResult(t *testing.T) {
	env := newTestEnv(t)
	m := MatcherFunc(func(*Environment, string, Verbosity, io.Writer) error {
		return errors.New("no such rule")
	})

	assert.True(t, env.MatchToChannel(m, "missing", "nowhere"))
}

func TestMatchToChannel_NilMatcher(t *testing.T) {
	env := newTestEnv(t)

	assert.False(t, env.MatchToChannel(nil, "r1", router.Stdout))
}

func TestVerbosity_String(t *testing.T) {
	assert.Equal(t, "verbose", Verbose.String())
	assert.Equal(t, "succinct", Succinct.String())
	assert.Equal(t, "terse", Terse.String())
	assert.Equal(t, "unknown", Verbosity(9).String())
}
