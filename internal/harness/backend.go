package harness

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/gitm/javango/internal/datasource"
	"github.com/gitm/javango/internal/datasource/memory"
	"github.com/gitm/javango/internal/schema"
	"github.com/gitm/javango/internal/sqlsource"
)

// Backend supplies the data sources of one scenario run.
type Backend interface {
	// Open returns a new data source for spec's model.
	Open(spec schema.Spec) (datasource.DataSource, error)

	// Close releases everything Open returned.
	Close() error
}

// BackendFactory creates a fresh, empty Backend for each run.
type BackendFactory struct {
	Name string
	New  func() (Backend, error)
}

// Memory returns a factory of in-memory backends. Unique fields declared
// by a model are enforced.
func Memory() BackendFactory {
	return BackendFactory{
		Name: "memory",
		New: func() (Backend, error) {
			return memoryBackend{}, nil
		},
	}
}

type memoryBackend struct{}

func (memoryBackend) Open(spec schema.Spec) (datasource.DataSource, error) {
	var opts []memory.Option
	if len(spec.Unique) > 0 {
		opts = append(opts, memory.WithUnique(spec.Definition.Name, spec.Unique...))
	}
	return memory.New(opts...), nil
}

func (memoryBackend) Close() error { return nil }

// SQLite returns a factory that creates a new database file under dir for
// each run and applies the migrations in migrationsPath to it.
func SQLite(dir, migrationsPath string) BackendFactory {
	return BackendFactory{
		Name: "sqlite",
		New: func() (Backend, error) {
			cfg := sqlsource.Config{
				Driver:         sqlsource.DriverSQLite,
				Path:           filepath.Join(dir, uuid.Must(uuid.NewV7()).String()+".db"),
				MigrationsPath: migrationsPath,
			}
			if _, err := sqlsource.Migrate(cfg); err != nil {
				return nil, fmt.Errorf("prepare sqlite backend: %w", err)
			}
			return &sqliteBackend{cfg: cfg, log: discardLogger()}, nil
		},
	}
}

type sqliteBackend struct {
	cfg     sqlsource.Config
	log     logrus.FieldLogger
	sources []*sqlsource.SqlDataSource
}

func (b *sqliteBackend) Open(schema.Spec) (datasource.DataSource, error) {
	ds, err := sqlsource.Open(b.cfg, sqlsource.WithLogger(b.log))
	if err != nil {
		return nil, err
	}
	b.sources = append(b.sources, ds)
	return ds, nil
}

func (b *sqliteBackend) Close() error {
	var errs []error
	for _, ds := range b.sources {
		errs = append(errs, ds.Close())
	}
	b.sources = nil
	return errors.Join(errs...)
}
