package sqlsource

import (
	"fmt"
	"net"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// Dialect captures the per-backend differences in statement text and
// connection strings.
type Dialect struct {
	driver string
	quote  byte
}

var dialects = map[string]Dialect{
	DriverMySQL:    {driver: DriverMySQL, quote: '`'},
	DriverSQLite:   {driver: DriverSQLite, quote: '"'},
	DriverPostgres: {driver: DriverPostgres, quote: '"'},
}

// DialectFor returns the dialect of a driver name.
func DialectFor(driver string) (Dialect, error) {
	d, ok := dialects[driver]
	if !ok {
		return Dialect{}, fmt.Errorf("unsupported database driver %q", driver)
	}
	return d, nil
}

// Driver returns the database/sql driver name.
func (d Dialect) Driver() string {
	return d.driver
}

// QuoteIdent quotes a validated identifier.
func (d Dialect) QuoteIdent(name string) string {
	q := string(d.quote)
	return q + name + q
}

// Rebind converts "?" placeholders to the dialect's bind style.
func (d Dialect) Rebind(stmt string) string {
	return sqlx.Rebind(sqlx.BindType(d.driver), stmt)
}

// sqlite pragmas applied to every connection through the DSN.
var sqlitePragmas = map[string]string{
	"_journal_mode": "WAL",
	"_synchronous":  "NORMAL",
	"_busy_timeout": "5000",
	"_foreign_keys": "on",
}

// DSN builds the driver connection string for cfg.
func (d Dialect) DSN(cfg Config) string {
	switch d.driver {
	case DriverMySQL:
		return mysqlConfig(cfg).FormatDSN()
	case DriverPostgres:
		return postgresURL(cfg).String()
	default:
		params := make(map[string]string, len(sqlitePragmas)+len(cfg.Params))
		for k, v := range sqlitePragmas {
			params[k] = v
		}
		for k, v := range cfg.Params {
			params[k] = v
		}
		return cfg.Path + "?" + encodeParams(params)
	}
}

// MigrateURL returns the database URL golang-migrate expects for cfg.
func (d Dialect) MigrateURL(cfg Config) string {
	switch d.driver {
	case DriverMySQL:
		mc := mysqlConfig(cfg)
		mc.MultiStatements = true
		return "mysql://" + mc.FormatDSN()
	case DriverPostgres:
		u := postgresURL(cfg)
		u.Scheme = "postgres"
		return u.String()
	default:
		return "sqlite3://" + cfg.Path + "?_busy_timeout=5000"
	}
}

func mysqlConfig(cfg Config) *mysql.Config {
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = hostPort(cfg, 3306)
	mc.DBName = cfg.Name
	mc.ParseTime = true
	if len(cfg.Params) > 0 {
		mc.Params = make(map[string]string, len(cfg.Params))
		for k, v := range cfg.Params {
			mc.Params[k] = v
		}
	}
	return mc
}

func postgresURL(cfg Config) *url.URL {
	q := url.Values{}
	q.Set("sslmode", "disable")
	for k, v := range cfg.Params {
		q.Set(k, v)
	}
	u := &url.URL{
		Scheme:   "postgres",
		Host:     hostPort(cfg, 5432),
		Path:     "/" + cfg.Name,
		RawQuery: q.Encode(),
	}
	if cfg.User != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	}
	return u
}

func hostPort(cfg Config, defaultPort int) string {
	port := cfg.Port
	if port == 0 {
		port = defaultPort
	}
	return net.JoinHostPort(cfg.Host, strconv.Itoa(port))
}

// encodeParams renders params sorted by key without escaping, which is
// what the sqlite3 driver parses.
func encodeParams(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + params[k]
	}
	return strings.Join(parts, "&")
}
