package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// ModelInfo describes one loaded model declaration.
type ModelInfo struct {
	Name         string   `json:"name"`
	Fields       []string `json:"fields"`
	StrictCreate bool     `json:"strict_create,omitempty"`
	Unique       []string `json:"unique,omitempty"`
}

type modelList []ModelInfo

func (l modelList) String() string {
	var b strings.Builder
	for i, m := range l {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s: %s", m.Name, strings.Join(m.Fields, ", "))
		if m.StrictCreate {
			b.WriteString(" (strict create)")
		}
	}
	return b.String()
}

// NewModelsCommand creates the models command.
func NewModelsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "models",
		Short:         "List the declared models",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModels(rootOpts, cmd)
		},
	}

	return cmd
}

func runModels(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	e, err := newEnv(opts, cmd.ErrOrStderr())
	if err != nil {
		return outputSetupError(formatter, err)
	}
	defer e.Close()

	list := make(modelList, 0, len(e.specs))
	for _, s := range e.specs {
		list = append(list, ModelInfo{
			Name:         s.Definition.Name,
			Fields:       s.Definition.Fields,
			StrictCreate: s.StrictCreate,
			Unique:       s.Unique,
		})
	}
	return formatter.Success(list)
}
