package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gitm/javango/internal/query"
	"github.com/gitm/javango/internal/record"
)

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <model> [field=value ...]",
		Short: "Retrieve records of a model",
		Long: `Retrieve the records of a model, optionally filtered.

Each field=value argument adds an equality term; a record must match
every term. When a field is given more than once the last value wins.
Fields the model does not declare are rejected before the database is
queried.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(rootOpts, cmd, args[0], args[1:])
		},
	}

	return cmd
}

func runGet(opts *RootOptions, cmd *cobra.Command, name string, terms []string) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	filter, err := parseFilterArgs(terms)
	if err != nil {
		return outputError(formatter, ExitCommandError, ErrCodeBadArgument, err.Error(), nil)
	}

	e, err := newEnv(opts, cmd.ErrOrStderr())
	if err != nil {
		return outputSetupError(formatter, err)
	}
	defer e.Close()

	m, err := e.openModel(name)
	if err != nil {
		return outputSetupError(formatter, err)
	}

	formatter.VerboseLog("Retrieving %s with %d filter term(s)", name, filter.Len())

	set, err := m.GetWithFilter(cmd.Context(), filter)
	if err != nil {
		return outputOperationError(formatter, err)
	}
	return formatter.Records(set)
}

// parseFilterArgs turns field=value arguments into a filter. Values are
// compared as text.
func parseFilterArgs(args []string) (*query.Filter, error) {
	filter := query.NewFilter()
	for _, arg := range args {
		field, value, ok := strings.Cut(arg, "=")
		if !ok || field == "" {
			return nil, fmt.Errorf("filter argument %q is not field=value", arg)
		}
		filter.Add(field, record.String(value))
	}
	return filter, nil
}
