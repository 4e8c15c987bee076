package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DB wraps a sql.DB with the dialect helpers the stores need.
type DB struct {
	*sql.DB
	driver string
	dsn    string
}

// Open connects to the database and runs migrations. For sqlite the dsn is a
// file path; for postgres it is a connection string understood by pgx.
func Open(driver, dsn string) (*DB, error) {
	switch driver {
	case "", DriverSQLite:
		return openSQLite(dsn)
	case DriverPostgres:
		return openPostgres(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

func openSQLite(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	d := &DB{DB: sqlDB, driver: DriverSQLite, dsn: path}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return d, nil
}

func openPostgres(dsn string) (*DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	d := &DB{DB: sqlDB, driver: DriverPostgres, dsn: dsn}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return d, nil
}

// OpenMemory creates an in-memory SQLite database (useful for testing).
func OpenMemory() (*DB, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}
	// Every pooled connection would get its own empty :memory: database.
	sqlDB.SetMaxOpenConns(1)

	d := &DB{DB: sqlDB, driver: DriverSQLite, dsn: ":memory:"}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return d, nil
}

// Driver reports which dialect this connection speaks.
func (d *DB) Driver() string { return d.driver }

// Rebind rewrites '?' placeholders into the driver's native form. Queries in
// this module never contain literal question marks.
func (d *DB) Rebind(query string) string {
	if d.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// BoolInt converts a bool for storage in an INTEGER column.
func BoolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

// migrate runs all schema migrations.
func (d *DB) migrate() error {
	stmts := schemaSQLite
	if d.driver == DriverPostgres {
		stmts = schemaPostgres
	}
	for _, stmt := range splitStatements(stmts) {
		if _, err := d.Exec(stmt); err != nil {
			return fmt.Errorf("%w (statement: %.60s)", err, stmt)
		}
	}
	return nil
}

func splitStatements(schema string) []string {
	var out []string
	for _, s := range strings.Split(schema, ";") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
