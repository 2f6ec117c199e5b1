package sqlsource

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/uber-go/tally/v4"

	"github.com/gitm/javango/internal/datasource"
	"github.com/gitm/javango/internal/query"
	"github.com/gitm/javango/internal/record"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	_ "github.com/mattn/go-sqlite3"     // registers the "sqlite3" driver
)

// SqlDataSource is a DataSource backed by a relational database.
//
// Every Create and Retrieve acquires its own connection and releases it
// before returning. The handle keeps no idle connections, so nothing is
// reused across calls.
type SqlDataSource struct {
	db      *sqlx.DB
	dialect Dialect
	timeout time.Duration
	log     logrus.FieldLogger
	metrics Metrics
}

var _ datasource.DataSource = (*SqlDataSource)(nil)

// Option configures a SqlDataSource.
type Option func(*SqlDataSource)

// WithLogger sets the logger. Defaults to the logrus standard logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *SqlDataSource) {
		s.log = log
	}
}

// WithMetricsScope roots the data source's metrics at scope.
func WithMetricsScope(scope tally.Scope) Option {
	return func(s *SqlDataSource) {
		s.metrics = NewMetrics(scope)
	}
}

// Open validates cfg and connects to the configured database.
func Open(cfg Config, opts ...Option) (*SqlDataSource, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid database config: %w", err)
	}
	dialect, err := DialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(dialect.Driver(), dialect.DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxIdleConns(0)

	ctx := context.Background()
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &SqlDataSource{
		db:      db,
		dialect: dialect,
		timeout: cfg.Timeout,
		log:     logrus.StandardLogger(),
		metrics: NewMetrics(tally.NoopScope),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the database handle.
func (s *SqlDataSource) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Dialect returns the dialect statements are built with.
func (s *SqlDataSource) Dialect() Dialect {
	return s.dialect
}

// Create inserts r into its collection with a single INSERT statement.
func (s *SqlDataSource) Create(ctx context.Context, r *record.Record) error {
	if err := datasource.CheckCreatable(r); err != nil {
		return err
	}
	collection := r.CollectionName()
	log := s.opLogger("create", collection)

	stmt, err := s.dialect.BuildInsert(r)
	if err != nil {
		s.metrics.RecordCreateFail.Inc(1)
		return &datasource.CreateError{Collection: collection, Err: err}
	}

	start := time.Now()
	err = s.withConn(ctx, func(ctx context.Context, conn *sqlx.Conn) error {
		_, err := conn.ExecContext(ctx, stmt.SQL, stmt.Args...)
		return err
	})
	elapsed := time.Since(start)
	s.metrics.CreateLatency.Record(elapsed)

	if err != nil {
		s.metrics.RecordCreateFail.Inc(1)
		log.WithError(err).WithField("duration", elapsed).Warn("insert failed")
		return datasource.NewCreateError(collection, err)
	}

	s.metrics.RecordCreate.Inc(1)
	log.WithFields(logrus.Fields{
		"fields":   r.Len(),
		"duration": elapsed,
	}).Debug("record created")
	return nil
}

// Retrieve runs q and converts the result rows. Zero matching rows yield
// an empty RecordSet; any backend failure yields a *datasource.RetrievalError.
func (s *SqlDataSource) Retrieve(ctx context.Context, q query.Query) (*record.RecordSet, error) {
	if err := datasource.CheckRetrievable(q); err != nil {
		return nil, err
	}
	collection := q.Collection()
	log := s.opLogger("retrieve", collection)

	stmt, err := s.dialect.BuildSelect(q)
	if err != nil {
		s.metrics.RecordRetrieveFail.Inc(1)
		return nil, datasource.NewRetrievalError(collection, err)
	}

	var set *record.RecordSet
	start := time.Now()
	err = s.withConn(ctx, func(ctx context.Context, conn *sqlx.Conn) error {
		rows, err := conn.QueryContext(ctx, stmt.SQL, stmt.Args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		set, err = ConvertRows(rows)
		return err
	})
	elapsed := time.Since(start)
	s.metrics.RetrieveLatency.Record(elapsed)

	if err != nil {
		s.metrics.RecordRetrieveFail.Inc(1)
		log.WithError(err).WithField("duration", elapsed).Warn("select failed")
		return nil, datasource.NewRetrievalError(collection, err)
	}

	if set.Len() == 0 {
		s.metrics.RecordRetrieveEmpty.Inc(1)
	} else {
		s.metrics.RecordRetrieve.Inc(1)
	}
	s.metrics.RecordsReturned.Inc(int64(set.Len()))
	log.WithFields(logrus.Fields{
		"filtered": q.HasFilter(),
		"rows":     set.Len(),
		"duration": elapsed,
	}).Debug("records retrieved")
	return set, nil
}

// Update is reserved.
func (s *SqlDataSource) Update(context.Context) error {
	return datasource.ErrUnsupported
}

// Delete is reserved.
func (s *SqlDataSource) Delete(context.Context) error {
	return datasource.ErrUnsupported
}

// withConn runs fn on a dedicated connection that is closed on every
// return path. The configured timeout, if any, bounds the whole call.
func (s *SqlDataSource) withConn(ctx context.Context, fn func(context.Context, *sqlx.Conn) error) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	conn, err := s.db.Connx(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	return fn(ctx, conn)
}

func (s *SqlDataSource) opLogger(op, collection string) logrus.FieldLogger {
	return s.log.WithFields(logrus.Fields{
		"op":         op,
		"op_id":      uuid.Must(uuid.NewV7()).String(),
		"collection": collection,
		"driver":     s.dialect.Driver(),
	})
}
