// Package sqlsource implements a DataSource over database/sql.
//
// Three drivers are supported: mysql (go-sql-driver/mysql), sqlite3
// (mattn/go-sqlite3) and pgx (jackc/pgx stdlib). Statements are built per
// dialect with bound parameters only; identifiers are validated and
// quoted, never taken from filter values.
//
// # Connection discipline
//
// Each Create or Retrieve acquires one connection, runs exactly one
// statement on it and closes it before returning. The pool keeps no idle
// connections.
//
// # Result conversion
//
// ConvertRows maps each column by its reported database type name:
//
//	array types                   -> record.Array
//	integer types                 -> record.Int
//	BOOL, BOOLEAN                 -> record.Bool
//	BLOB, BYTEA                   -> record.Bytes
//	DOUBLE, FLOAT, REAL           -> record.Float
//	DATE                          -> record.Date
//	TIMESTAMP, DATETIME           -> record.Timestamp
//	character types               -> record.String
//	anything else                 -> driver value, via record.FromNative
//
// SQL NULL is record.Null for every column type.
package sqlsource
