package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	_ "github.com/mattn/go-sqlite3"    // registers "sqlite3"
	_ "modernc.org/sqlite"             // registers "sqlite"
)

// SQLStore keeps every collection as one row holding the JSON array.
//
// Table:
//
//	collections(name, data)  PRIMARY KEY (name)
//
// The same schema serves SQLite (cgo or pure Go driver) and Postgres; only
// the placeholder style and row locking differ.
type SQLStore struct {
	mu      sync.Mutex
	db      *sql.DB
	dialect dialect
}

type dialect struct {
	driver    string
	numbered  bool   // $1, $2 instead of ?
	forUpdate string // row lock suffix for the read inside Update
}

var (
	sqliteDialect     = dialect{driver: "sqlite3"}
	pureSqliteDialect = dialect{driver: "sqlite"}
	postgresDialect   = dialect{driver: "pgx", numbered: true, forUpdate: " FOR UPDATE"}
)

// NewSqliteStore opens a SQLite database through the cgo driver.
func NewSqliteStore(dbPath string) (*SQLStore, error) {
	return openSqlite(sqliteDialect, dbPath)
}

// NewPureSqliteStore opens a SQLite database through the pure Go driver,
// for builds without cgo.
func NewPureSqliteStore(dbPath string) (*SQLStore, error) {
	return openSqlite(pureSqliteDialect, dbPath)
}

func openSqlite(d dialect, dbPath string) (*SQLStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open(d.driver, dbPath)
	if err != nil {
		return nil, err
	}
	// One writer at a time; SQLite would otherwise report SQLITE_BUSY under
	// concurrent transactions.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}
	return newSQLStore(context.Background(), db, d)
}

// NewPostgresStore connects to Postgres using a pgx DSN.
func NewPostgresStore(ctx context.Context, dsn string) (*SQLStore, error) {
	if dsn == "" {
		return nil, errors.New("postgres backend requires a database URL")
	}
	db, err := sql.Open(postgresDialect.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return newSQLStore(ctx, db, postgresDialect)
}

func newSQLStore(ctx context.Context, db *sql.DB, d dialect) (*SQLStore, error) {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS collections (
		name TEXT PRIMARY KEY,
		data TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create collections table: %w", err)
	}
	return &SQLStore{db: db, dialect: d}, nil
}

// bind rewrites ? placeholders for drivers that want numbered ones.
func (s *SQLStore) bind(query string) string {
	if !s.dialect.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *SQLStore) load(ctx context.Context, q querier, collection, suffix string) ([]Record, error) {
	var raw string
	err := q.QueryRowContext(ctx, s.bind("SELECT data FROM collections WHERE name = ?"+suffix), collection).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return []Record{}, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeCollection(collection, []byte(raw))
}

func (s *SQLStore) save(ctx context.Context, q querier, collection string, records []Record) error {
	b, err := encodeCollection(records)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, s.bind(
		`INSERT INTO collections (name, data) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET data = excluded.data`),
		collection, string(b),
	)
	return err
}

func (s *SQLStore) Read(ctx context.Context, collection string) ([]Record, error) {
	return s.load(ctx, s.db, collection, "")
}

func (s *SQLStore) Write(ctx context.Context, collection string, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, s.db, collection, records)
}

func (s *SQLStore) Update(ctx context.Context, collection string, fn UpdateFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	records, err := s.load(ctx, tx, collection, s.dialect.forUpdate)
	if err != nil {
		return err
	}
	updated, err := fn(records)
	if err != nil {
		return err
	}
	if err := s.save(ctx, tx, collection, updated); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
