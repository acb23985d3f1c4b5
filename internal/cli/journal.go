package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/envrt/internal/construct"
	"github.com/roach88/envrt/internal/journal"
)

// JournalOptions holds flags for the journal command.
type JournalOptions struct {
	*RootOptions
	EnvID   string // optional - one environment only
	Outcome string // optional - filter to one outcome
}

// JournalEvent is one journal row.
type JournalEvent struct {
	EnvID   string `json:"env_id"`
	Seq     int64  `json:"seq"`
	Kind    string `json:"kind"`
	Outcome string `json:"outcome"`
	Detail  string `json:"detail,omitempty"`
}

// EnvironmentSummary counts the journal rows of one environment.
type EnvironmentSummary struct {
	EnvID    string `json:"env_id"`
	Clears   int    `json:"clears"`
	Refused  int    `json:"refused"`
	Panicked int    `json:"panicked"`
	LastSeq  int64  `json:"last_seq"`
	Events   int    `json:"events"`
}

// JournalResult holds the journal command output.
type JournalResult struct {
	Environments []EnvironmentSummary `json:"environments"`
	Events       []JournalEvent       `json:"events"`
}

// NewJournalCommand creates the journal command.
func NewJournalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &JournalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "journal <db>",
		Short: "Show recorded clear outcomes",
		Long: `Read the lifecycle journal written by "envrt clear --journal" and
"envrt scenario --journal".

Events are listed per environment in sequence order, followed by a
summary of completed, refused and panicked operations.

Examples:
  envrt journal ./envrt.db
  envrt journal ./envrt.db --env dev-1
  envrt journal ./envrt.db --outcome busy --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJournal(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.EnvID, "env", "", "show one environment only")
	cmd.Flags().StringVar(&opts.Outcome, "outcome", "", "filter to one outcome (ok|busy|reentrant|panicked)")

	return cmd
}

func runJournal(opts *JournalOptions, path string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := newFormatter(opts.RootOptions, cmd)

	// Open creates missing files, which would hide a mistyped path.
	if _, err := os.Stat(path); os.IsNotExist(err) {
		_ = formatter.Error(ErrCodeJournal, fmt.Sprintf("journal not found: %s", path), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("journal not found: %s", path))
	}

	j, err := journal.Open(path)
	if err != nil {
		_ = formatter.Error(ErrCodeJournal, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer j.Close()

	var events []construct.Event
	if opts.EnvID != "" {
		events, err = j.List(ctx, opts.EnvID)
	} else {
		events, err = j.ListAll(ctx)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal", err)
	}

	result := buildJournalResult(events, construct.Outcome(opts.Outcome))
	formatter.VerboseLog("Read %d event(s) from %s", len(events), path)

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	return outputJournalText(formatter, result)
}

// buildJournalResult summarizes events per environment, in the order the
// environments first appear. The summary always covers every event; the
// outcome filter only narrows the event list.
func buildJournalResult(events []construct.Event, outcome construct.Outcome) JournalResult {
	result := JournalResult{
		Environments: []EnvironmentSummary{},
		Events:       []JournalEvent{},
	}
	index := make(map[string]int)

	for _, ev := range events {
		i, ok := index[ev.EnvironmentID]
		if !ok {
			i = len(result.Environments)
			index[ev.EnvironmentID] = i
			result.Environments = append(result.Environments, EnvironmentSummary{EnvID: ev.EnvironmentID})
		}
		sum := &result.Environments[i]
		sum.Events++
		sum.LastSeq = max(sum.LastSeq, ev.Seq)
		switch {
		case ev.Kind == construct.EventClear && ev.Outcome == construct.OutcomeOK:
			sum.Clears++
		case ev.Kind == construct.EventClear:
			sum.Refused++
		case ev.Outcome == construct.OutcomePanicked:
			sum.Panicked++
		}

		if outcome != "" && ev.Outcome != outcome {
			continue
		}
		result.Events = append(result.Events, JournalEvent{
			EnvID:   ev.EnvironmentID,
			Seq:     ev.Seq,
			Kind:    string(ev.Kind),
			Outcome: string(ev.Outcome),
			Detail:  ev.Detail,
		})
	}
	return result
}

func outputJournalText(formatter *OutputFormatter, result JournalResult) error {
	w := formatter.Writer

	if len(result.Environments) == 0 {
		fmt.Fprintln(w, "No events recorded.")
		return nil
	}

	fmt.Fprintln(w, "=== Events ===")
	if len(result.Events) == 0 {
		fmt.Fprintln(w, "  (no matching events)")
	}
	current := ""
	for _, ev := range result.Events {
		if ev.EnvID != current {
			current = ev.EnvID
			fmt.Fprintf(w, "%s\n", current)
		}
		ok := ev.Outcome == string(construct.OutcomeOK)
		line := fmt.Sprintf("  [%d] %s %s %s", ev.Seq, marker(ok), ev.Kind, ev.Outcome)
		if ev.Detail != "" {
			line += " (" + ev.Detail + ")"
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Summary ===")
	for _, sum := range result.Environments {
		fmt.Fprintf(w, "%s: %d clear(s), %d refused, %d panicked teardown(s), last seq %d\n",
			sum.EnvID, sum.Clears, sum.Refused, sum.Panicked, sum.LastSeq)
	}
	return nil
}
