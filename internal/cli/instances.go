package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/envrt/internal/objsys"
)

// InstancesOptions holds flags for the instances command.
type InstancesOptions struct {
	*RootOptions
	Class  string
	Delete []string // instances to delete before iterating
}

// InstanceEntry is one instance yielded by the hierarchy cursor.
type InstanceEntry struct {
	Name  string `json:"name"`
	Class string `json:"class"`
}

// InstancesResult holds the instances command output.
type InstancesResult struct {
	Class     string          `json:"class"`
	Instances []InstanceEntry `json:"instances"`
	Deleted   []string        `json:"deleted,omitempty"`
}

// NewInstancesCommand creates the instances command.
func NewInstancesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InstancesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "instances <fixture-dir>",
		Short: "List the instances of a class and its subclasses",
		Long: `Load a CUE fixture and walk a class with the hierarchy cursor.

Instances of the class itself come first, then the instances of each
subclass in depth-first order. Deleted instances are never listed.

Examples:
  envrt instances ./fixtures/zoo --class animal
  envrt instances ./fixtures/zoo --class animal --delete rex
  envrt instances ./fixtures/zoo --class USER --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstances(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Class, "class", "", "class to iterate (required)")
	_ = cmd.MarkFlagRequired("class")
	cmd.Flags().StringSliceVar(&opts.Delete, "delete", nil, "instances to delete before iterating")

	return cmd
}

func runInstances(opts *InstancesOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	h, _, _, err := loadFixture(dir, logger)
	if err != nil {
		return outputFixtureError(formatter, err)
	}

	for _, name := range opts.Delete {
		id, ok := h.LookupInstance(name)
		if !ok {
			_ = formatter.Error(ErrCodeUnknownInstance, fmt.Sprintf("instance not found: %s", name), nil)
			return NewExitError(ExitCommandError, fmt.Sprintf("instance not found: %s", name))
		}
		if err := h.DeleteInstance(id); err != nil {
			return WrapExitError(ExitCommandError, "failed to delete instance", err)
		}
		formatter.VerboseLog("Deleted instance: %s", name)
	}

	cur, err := h.StartNamed(opts.Class)
	if err != nil {
		_ = formatter.Error(ErrCodeUnknownClass, fmt.Sprintf("class not found: %s", opts.Class), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("class not found: %s", opts.Class))
	}

	result := InstancesResult{
		Class:     opts.Class,
		Instances: []InstanceEntry{},
		Deleted:   opts.Delete,
	}
	for {
		id, next, ok := h.Advance(cur)
		if !ok {
			break
		}
		cur = next
		result.Instances = append(result.Instances, describeInstance(h, id))
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	if len(result.Instances) == 0 {
		fmt.Fprintf(w, "No instances of %s\n", opts.Class)
		return nil
	}
	for _, inst := range result.Instances {
		fmt.Fprintf(w, "%-20s %s\n", inst.Name, inst.Class)
	}
	fmt.Fprintf(w, "\n%d instance(s)\n", len(result.Instances))
	return nil
}

func describeInstance(h *objsys.Hierarchy, id objsys.InstanceID) InstanceEntry {
	inst, ok := h.Instance(id)
	if !ok {
		return InstanceEntry{Name: fmt.Sprintf("#%d", id)}
	}
	entry := InstanceEntry{Name: inst.Name}
	if c, ok := h.Class(inst.Class); ok {
		entry.Class = c.Name
	}
	return entry
}
