package cli

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/envrt/internal/construct"
	"github.com/roach88/envrt/internal/fixture"
	"github.com/roach88/envrt/internal/journal"
)

// busyCheck is the ready check installed by --busy.
const busyCheck = "cli-busy"

// ClearOptions holds flags for the clear command.
type ClearOptions struct {
	*RootOptions
	Database string
	EnvID    string
	Busy     bool
}

// ClearResult holds the clear command output.
type ClearResult struct {
	EnvID           string   `json:"env_id"`
	Outcome         string   `json:"outcome"`
	Teardowns       []string `json:"teardowns"`
	ClassesBefore   int      `json:"classes_before"`
	InstancesBefore int      `json:"instances_before"`
	ClassesAfter    int      `json:"classes_after"`
	InstancesAfter  int      `json:"instances_after"`
	Output          string   `json:"output,omitempty"`
}

// NewClearCommand creates the clear command.
func NewClearCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ClearOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "clear <fixture-dir>",
		Short: "Run the clear protocol against a loaded fixture",
		Long: `Create an environment, load a CUE fixture into its class hierarchy
and clear it.

With --busy a ready check refuses the clear: nothing is torn down and the
command exits with status 1. With --journal the outcome is appended to a
SQLite journal that can be read back with "envrt journal".

Examples:
  envrt clear ./fixtures/zoo
  envrt clear ./fixtures/zoo --busy
  envrt clear ./fixtures/zoo --journal ./envrt.db --env-id dev-1`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClear(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "journal", "", "path to SQLite journal")
	cmd.Flags().StringVar(&opts.EnvID, "env-id", "", "environment ID (default: generated UUIDv7)")
	cmd.Flags().BoolVar(&opts.Busy, "busy", false, "install a ready check that refuses the clear")

	return cmd
}

// staticID hands out one fixed environment ID.
type staticID string

func (s staticID) Generate() string { return string(s) }

func runClear(opts *ClearOptions, dir string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	if opts.Database == "" {
		opts.Database = opts.Config.Journal
	}
	if opts.EnvID == "" {
		opts.EnvID = opts.Config.EnvID
	}

	var output bytes.Buffer
	envOpts := []construct.EnvironmentOption{
		construct.WithLogger(logger),
		construct.WithOutput(&output),
	}
	if opts.Config.NoTrace {
		envOpts = append(envOpts, construct.WithoutTrace())
	}
	if opts.EnvID != "" {
		envOpts = append(envOpts, construct.WithIDGenerator(staticID(opts.EnvID)))
	}

	if opts.Database != "" {
		j, err := journal.Open(opts.Database)
		if err != nil {
			_ = formatter.Error(ErrCodeJournal, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to open journal", err)
		}
		defer j.Close()
		if opts.EnvID != "" {
			// A reused ID continues after its recorded events.
			last, err := j.LastSeq(ctx, opts.EnvID)
			if err != nil {
				_ = formatter.Error(ErrCodeJournal, err.Error(), nil)
				return WrapExitError(ExitCommandError, "failed to read journal", err)
			}
			envOpts = append(envOpts, construct.WithClock(construct.NewClockAt(last)))
		}
		envOpts = append(envOpts, construct.WithRecorder(journal.NewRecorder(ctx, j)))
		formatter.VerboseLog("Recording to journal: %s", opts.Database)
	}

	env, err := construct.New(envOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create environment", err)
	}
	formatter.EnvID = env.ID()

	f, err := fixture.Load(dir)
	if err != nil {
		return outputFixtureError(formatter, err)
	}
	if _, err := f.Apply(env.Hierarchy()); err != nil {
		return outputFixtureError(formatter, err)
	}

	if opts.Busy {
		if err := env.RegisterReadyCheck(busyCheck, func(*construct.Environment) bool {
			return false
		}); err != nil {
			return WrapExitError(ExitCommandError, "failed to register ready check", err)
		}
	}

	h := env.Hierarchy()
	result := ClearResult{
		EnvID:           env.ID(),
		Outcome:         string(construct.OutcomeOK),
		Teardowns:       env.Teardowns(),
		ClassesBefore:   h.ClassCount(),
		InstancesBefore: h.LiveInstanceCount(),
	}

	clearErr := env.Reset()
	switch {
	case clearErr == nil:
	case construct.IsClearBusy(clearErr):
		result.Outcome = string(construct.OutcomeBusy)
	case construct.IsReentrantClear(clearErr):
		result.Outcome = string(construct.OutcomeReentrant)
	default:
		return WrapExitError(ExitCommandError, "clear failed", clearErr)
	}

	result.ClassesAfter = h.ClassCount()
	result.InstancesAfter = h.LiveInstanceCount()
	result.Output = output.String()

	if formatter.Format == "json" {
		return outputClearJSON(formatter, result, clearErr)
	}
	return outputClearText(formatter, result, clearErr)
}

func outputClearJSON(formatter *OutputFormatter, result ClearResult, clearErr error) error {
	if clearErr == nil {
		return formatter.Success(result)
	}

	code := ErrCodeClearBusy
	if construct.IsReentrantClear(clearErr) {
		code = ErrCodeReentrantClear
	}
	_ = formatter.Error(code, clearErr.Error(), result)
	return NewExitError(ExitFailure, clearErr.Error())
}

func outputClearText(formatter *OutputFormatter, result ClearResult, clearErr error) error {
	w := formatter.Writer
	if result.Output != "" {
		fmt.Fprint(w, result.Output)
	}

	if clearErr != nil {
		formatter.Mark(false, "Clear refused (%s)", result.Outcome)
		fmt.Fprintf(w, "  Environment: %s\n", result.EnvID)
		fmt.Fprintf(w, "  Hierarchy untouched: %d class(es), %d instance(s)\n", result.ClassesAfter, result.InstancesAfter)
		return NewExitError(ExitFailure, clearErr.Error())
	}

	formatter.Mark(true, "Environment cleared")
	fmt.Fprintf(w, "  Environment: %s\n", result.EnvID)
	fmt.Fprintf(w, "  Teardowns:   %d\n", len(result.Teardowns))
	fmt.Fprintf(w, "  Removed:     %d class(es), %d instance(s)\n", result.ClassesBefore, result.InstancesBefore)
	return nil
}
