package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/gitm/javango/internal/record"
)

// CreateResult is the JSON payload of a successful create.
type CreateResult struct {
	Model   string `json:"model"`
	Message string `json:"message"`
}

func (r CreateResult) String() string {
	return r.Message
}

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <model> [json|-]",
		Short: "Create one record from a JSON object",
		Long: `Create one record from a JSON object.

The object is read from the second argument, or from stdin when the
argument is "-" or missing. Its keys are the column names.`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			input := "-"
			if len(args) == 2 {
				input = args[1]
			}
			return runCreate(rootOpts, cmd, args[0], input)
		},
	}

	return cmd
}

func runCreate(opts *RootOptions, cmd *cobra.Command, name, input string) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	text := input
	if input == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return outputError(formatter, ExitCommandError, ErrCodeReadFailed, "failed to read stdin: "+err.Error(), nil)
		}
		text = string(data)
	}

	r, err := record.Decode(text)
	if err != nil {
		return outputOperationError(formatter, err)
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

	if err := m.CreateNew(cmd.Context(), r); err != nil {
		return outputOperationError(formatter, err)
	}
	return formatter.Success(CreateResult{Model: name, Message: "Item created."})
}
