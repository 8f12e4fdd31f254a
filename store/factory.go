package store

import (
	"context"
	"fmt"
	"path/filepath"
)

// Backends lists the names accepted by New.
var Backends = []string{"json", "sqlite", "sqlite-purego", "postgres", "memory"}

// New creates a Store based on the backend name.
//
// Supported backends:
//
//	"json"          - one JSON file per collection in dataDir (default)
//	"sqlite"        - SQLite database at dataDir/cafe.db (cgo driver)
//	"sqlite-purego" - same layout through the pure Go driver
//	"postgres"      - Postgres at databaseURL
//	"memory"        - in-memory (ephemeral, for testing)
func New(ctx context.Context, backend, dataDir, databaseURL string) (Store, error) {
	switch backend {
	case "json", "":
		return NewJsonFileStore(dataDir)
	case "sqlite":
		return NewSqliteStore(filepath.Join(dataDir, "cafe.db"))
	case "sqlite-purego":
		return NewPureSqliteStore(filepath.Join(dataDir, "cafe.db"))
	case "postgres":
		return NewPostgresStore(ctx, databaseURL)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: %q (supported: %v)", ErrUnknownBackend, backend, Backends)
	}
}
