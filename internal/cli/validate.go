package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/envrt/internal/fixture"
	"github.com/roach88/envrt/internal/objsys"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid     bool `json:"valid"`
	Files     int  `json:"files"`
	Classes   int  `json:"classes"`
	Instances int  `json:"instances"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <fixture-dir>",
		Short: "Validate a CUE fixture",
		Long: `Load a CUE fixture and apply it to an empty class hierarchy.

Reports syntax errors, malformed class and instance declarations,
unknown superclasses and superclass cycles without touching any journal.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)
	logger := newLogger(opts, cmd.ErrOrStderr())

	_, res, f, err := loadFixture(dir, logger)
	if err != nil {
		return outputFixtureError(formatter, err)
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", f.FileCount, dir)

	result := ValidationResult{
		Valid:     true,
		Files:     f.FileCount,
		Classes:   len(res.Classes),
		Instances: len(res.Instances),
	}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	formatter.Mark(true, "Fixture valid: %d class(es), %d instance(s)", result.Classes, result.Instances)
	return nil
}

// loadFixture loads dir and applies it to a fresh hierarchy.
func loadFixture(dir string, logger *slog.Logger) (*objsys.Hierarchy, *fixture.Result, *fixture.Fixture, error) {
	f, err := fixture.Load(dir)
	if err != nil {
		return nil, nil, nil, err
	}

	h := objsys.NewHierarchy(objsys.WithLogger(logger))
	res, err := f.Apply(h)
	if err != nil {
		return nil, nil, nil, err
	}
	return h, res, f, nil
}

// outputFixtureError reports a fixture failure. Errors reaching the files
// themselves (missing directory, no CUE files) are command errors; anything
// wrong with their content is a validation failure.
func outputFixtureError(formatter *OutputFormatter, err error) error {
	code := fixture.Code(err)
	message := err.Error()

	var fe *fixture.Error
	var details any
	if errors.As(err, &fe) {
		message = fe.Message
		if fe.Pos.IsValid() {
			details = map[string]any{"file": fe.Pos.Filename(), "line": fe.Pos.Line()}
		}
	}

	if formatter.Format == "json" {
		_ = formatter.Error(code, message, details)
	} else {
		formatter.Mark(false, "Validation failed")
		fmt.Fprintln(formatter.Writer)
		if fe != nil && fe.Pos.IsValid() {
			fmt.Fprintf(formatter.Writer, "%s line %d\n", fe.Pos.Filename(), fe.Pos.Line())
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n", code, message)
	}

	switch code {
	case fixture.ErrCodeNotFound, fixture.ErrCodeScanError, fixture.ErrCodeNoFiles:
		return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
	default:
		return NewExitError(ExitFailure, fmt.Sprintf("%s: %s", code, message))
	}
}
