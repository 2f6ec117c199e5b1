package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gitm/javango/internal/sqlsource"
)

// MigrateResult reports the schema version after a migration run.
type MigrateResult struct {
	Version uint `json:"version"`
}

func (r MigrateResult) String() string {
	return fmt.Sprintf("Database at version %d", r.Version)
}

type migrateOptions struct {
	path string
}

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &migrateOptions{}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Long: `Apply every pending up migration to the configured database.

Migrations are read from --path, or from database.migrationspath in the
config. Running against an up-to-date database is not an error.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(rootOpts, opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.path, "path", "p", "", "migrations directory")

	return cmd
}

func runMigrate(rootOpts *RootOptions, opts *migrateOptions, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	e, err := newEnv(rootOpts, cmd.ErrOrStderr())
	if err != nil {
		return outputSetupError(formatter, err)
	}
	defer e.Close()

	cfg := e.cfg.Database
	if opts.path != "" {
		cfg.MigrationsPath = opts.path
	}

	formatter.VerboseLog("Applying migrations from %s", cfg.MigrationsPath)

	version, err := sqlsource.Migrate(cfg)
	if err != nil {
		return outputError(formatter, ExitCommandError, ErrCodeMigrateFailed, err.Error(), nil)
	}

	e.log.WithField("version", version).Info("migrations applied")
	return formatter.Success(MigrateResult{Version: version})
}
