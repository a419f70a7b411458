// Package sqlsource serves region queries from a SQL database through
// database/sql. The pure-Go sqlite driver and the pgx Postgres driver are
// registered; the "driver" param picks one.
package sqlsource

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "modernc.org/sqlite"             // pure go sqlite driver

	"github.com/statgen/locuszoom-sub005/adapter"
	"github.com/statgen/locuszoom-sub005/chain"
	"github.com/statgen/locuszoom-sub005/errors"
)

// Type is the adapter type name used in configuration.
const Type = "sql"

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

// Source runs a parameterized query per region. The query receives the
// chromosome, start and end as its three arguments (? placeholders for
// sqlite, $1..$3 for Postgres).
type Source struct {
	*adapter.Base

	db     *sql.DB
	driver string
	query  string
}

// New creates a SQL source. spec.URL is the data source name.
func New(id string, spec adapter.Spec, deps adapter.Dependencies) (adapter.Source, error) {
	if err := spec.RequireURL(Type); err != nil {
		return nil, err
	}
	driver := spec.Params.String("driver", DriverSQLite)
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, errors.WrapInvalid(fmt.Errorf("%w: unsupported driver %q", errors.ErrInvalidConfig, driver), Type, "New", "validate driver")
	}
	query := spec.Params.String("query", "")
	if query == "" {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, Type, "New", "query param is required")
	}

	db, err := sql.Open(driver, spec.URL)
	if err != nil {
		return nil, errors.WrapFatal(err, Type, "New", fmt.Sprintf("open %s database", driver))
	}
	if n := spec.Params.Int("max_open_conns", 0); n > 0 {
		db.SetMaxOpenConns(n)
	}

	s := &Source{db: db, driver: driver, query: query}
	base, err := adapter.NewBase(s, id, spec, deps)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s.Base = base
	return s, nil
}

// NewWithDB creates a SQL source over an open handle, which the source then owns.
func NewWithDB(id string, db *sql.DB, query string, spec adapter.Spec, deps adapter.Dependencies) (*Source, error) {
	if db == nil || query == "" {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, Type, "NewWithDB", "db and query are required")
	}
	s := &Source{db: db, driver: spec.Params.String("driver", DriverSQLite), query: query}
	base, err := adapter.NewBase(s, id, spec, deps)
	if err != nil {
		return nil, err
	}
	s.Base = base
	return s, nil
}

// Registration describes the adapter for an adapter.Registry.
func Registration() *adapter.Registration {
	return &adapter.Registration{
		Name:        Type,
		Protocol:    "sql",
		Description: "Rows from a SQL query over (chromosome, start, end)",
		Factory:     New,
	}
}

// CacheKey identifies the region; the query itself is fixed per source.
func (s *Source) CacheKey(state chain.State, _ *chain.Chain, _ []string) (string, bool) {
	return fmt.Sprintf("%s_%d_%d", state.Chr, state.Start, state.End), true
}

// Fetch runs the query and returns one record per result row.
func (s *Source) Fetch(ctx context.Context, state chain.State, _ *chain.Chain, _ []string) (any, error) {
	rows, err := s.db.QueryContext(ctx, s.query, state.Chr, state.Start, state.End)
	if err != nil {
		return nil, errors.WrapTransient(err, Type, "Fetch", "run query")
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, errors.WrapTransient(err, Type, "Fetch", "read columns")
	}

	records := []chain.Record{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errors.WrapInvalid(err, Type, "Fetch", "scan row")
		}

		rec := make(chain.Record, len(cols))
		for i, col := range cols {
			rec[col] = normalizeValue(values[i])
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapTransient(err, Type, "Fetch", "iterate rows")
	}
	return records, nil
}

// normalizeValue maps driver values onto the JSON-like types adapters expect.
func normalizeValue(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case int64:
		return float64(x)
	case int32:
		return float64(x)
	default:
		return v
	}
}

// Close releases the response cache and the database handle.
func (s *Source) Close() error {
	return stderrors.Join(s.Base.Close(), s.db.Close())
}
