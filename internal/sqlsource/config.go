package sqlsource

import (
	"errors"
	"fmt"
	"time"
)

// Supported database/sql driver names.
const (
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

// Config holds the connection parameters for a SqlDataSource.
// It is passed in explicitly; the backend never reads the environment.
type Config struct {
	Driver         string            `mapstructure:"driver"`
	Host           string            `mapstructure:"host"`
	Port           int               `mapstructure:"port"`
	User           string            `mapstructure:"user"`
	Password       string            `mapstructure:"password"`
	Name           string            `mapstructure:"name"`
	Path           string            `mapstructure:"path"`
	Params         map[string]string `mapstructure:"params"`
	Timeout        time.Duration     `mapstructure:"timeout"`
	MigrationsPath string            `mapstructure:"migrationspath"`
}

// Validate checks that the fields required by the configured driver are set.
func (c Config) Validate() error {
	switch c.Driver {
	case DriverSQLite:
		if c.Path == "" {
			return errors.New("sqlite3 requires a database path")
		}
	case DriverMySQL, DriverPostgres:
		if c.Host == "" {
			return fmt.Errorf("%s requires a host", c.Driver)
		}
		if c.Name == "" {
			return fmt.Errorf("%s requires a database name", c.Driver)
		}
	case "":
		return errors.New("no database driver configured")
	default:
		return fmt.Errorf("unsupported database driver %q", c.Driver)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("negative timeout %s", c.Timeout)
	}
	return nil
}
