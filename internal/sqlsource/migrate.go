package sqlsource

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// ErrNoMigrations is returned by Migrate when cfg has no migrations path.
var ErrNoMigrations = errors.New("no migrations path configured")

// Migrate applies all pending up migrations from cfg.MigrationsPath and
// returns the resulting schema version. Running it against an up-to-date
// database is not an error.
func Migrate(cfg Config) (uint, error) {
	if cfg.MigrationsPath == "" {
		return 0, ErrNoMigrations
	}
	if err := cfg.Validate(); err != nil {
		return 0, fmt.Errorf("invalid database config: %w", err)
	}
	dialect, err := DialectFor(cfg.Driver)
	if err != nil {
		return 0, err
	}

	dir, err := filepath.Abs(cfg.MigrationsPath)
	if err != nil {
		return 0, fmt.Errorf("resolve migrations path: %w", err)
	}

	m, err := migrate.New("file://"+filepath.ToSlash(dir), dialect.MigrateURL(cfg))
	if err != nil {
		return 0, fmt.Errorf("failed to create migration instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("failed to run migrations: %w", err)
	}

	version, _, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return 0, fmt.Errorf("read migration version: %w", err)
	}
	return version, nil
}
