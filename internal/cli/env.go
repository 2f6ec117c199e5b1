package cli

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/uber-go/tally/v4"

	"github.com/gitm/javango/internal/books"
	"github.com/gitm/javango/internal/config"
	"github.com/gitm/javango/internal/logging"
	"github.com/gitm/javango/internal/model"
	"github.com/gitm/javango/internal/schema"
	"github.com/gitm/javango/internal/sqlsource"
)

// env is the per-invocation state shared by the commands: configuration,
// logger, model declarations and the data sources opened so far.
type env struct {
	cfg   config.Config
	log   *logrus.Logger
	specs []schema.Spec

	scope       tally.Scope
	scopeCloser io.Closer
	sources     []*sqlsource.SqlDataSource
}

// newEnv loads configuration and model declarations. It does not touch
// the database; openModel does.
func newEnv(opts *RootOptions, logOut io.Writer) (*env, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.ModelsPath != "" {
		cfg.Models = opts.ModelsPath
	}
	if opts.Verbose {
		cfg.Log.Level = "debug"
	}

	log, err := logging.New(cfg.Log, logOut)
	if err != nil {
		return nil, fmt.Errorf("failed to configure logging: %w", err)
	}

	specs, err := loadSpecs(cfg.Models)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errModels, err)
	}

	scope, closer := tally.NewRootScope(tally.ScopeOptions{
		Prefix:   "javango",
		Reporter: newLogReporter(log),
	}, 0)

	return &env{
		cfg:         cfg,
		log:         log,
		specs:       specs,
		scope:       scope,
		scopeCloser: closer,
	}, nil
}

// loadSpecs loads the declarations at path, or the built-in Books model
// when path is empty.
func loadSpecs(path string) ([]schema.Spec, error) {
	if path == "" {
		return []schema.Spec{{
			Definition: books.Definition,
			Unique:     []string{"isbn"},
		}}, nil
	}
	return schema.Load(path)
}

func (e *env) spec(name string) (schema.Spec, error) {
	known := make([]string, 0, len(e.specs))
	for _, s := range e.specs {
		if s.Definition.Name == name {
			return s, nil
		}
		known = append(known, s.Definition.Name)
	}
	sort.Strings(known)
	return schema.Spec{}, &unknownModelError{Name: name, Known: known}
}

// openModel builds the named model over a data source of its own.
func (e *env) openModel(name string) (*model.Model, error) {
	spec, err := e.spec(name)
	if err != nil {
		return nil, err
	}

	ds, err := sqlsource.Open(e.cfg.Database,
		sqlsource.WithLogger(e.log),
		sqlsource.WithMetricsScope(e.scope.Tagged(map[string]string{"model": name})),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errConnect, err)
	}
	e.sources = append(e.sources, ds)

	opts := append(spec.Options(), model.WithLogger(e.log))
	return model.New(spec.Definition, ds, opts...)
}

// Close closes every data source and flushes metrics.
func (e *env) Close() error {
	var errs []error
	for _, ds := range e.sources {
		errs = append(errs, ds.Close())
	}
	e.sources = nil
	if e.scopeCloser != nil {
		errs = append(errs, e.scopeCloser.Close())
	}
	return errors.Join(errs...)
}
