package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

const (
	lockTimeout    = 3 * time.Second
	lockRetryDelay = 50 * time.Millisecond
)

// JsonFileStore stores each collection as a separate JSON file on disk.
//
// Layout:
//
//	data_dir/
//	  productos.json        # "productos" collection
//	  productos.json.lock   # cross-process write lock
//	  usuarios.json
//	  pedidos.json
//
// Writes go to a temporary file that is renamed over the collection file, so
// a crash never leaves a truncated collection behind.
type JsonFileStore struct {
	mu  sync.RWMutex
	dir string
}

func NewJsonFileStore(dir string) (*JsonFileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &JsonFileStore{dir: dir}, nil
}

// Dir returns the data directory.
func (s *JsonFileStore) Dir() string {
	return s.dir
}

func (s *JsonFileStore) collectionPath(collection string) string {
	return filepath.Join(s.dir, collection+".json")
}

func (s *JsonFileStore) loadFile(collection string) ([]Record, error) {
	data, err := os.ReadFile(s.collectionPath(collection))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Record{}, nil
		}
		return nil, err
	}
	return decodeCollection(collection, data)
}

func (s *JsonFileStore) saveFile(collection string, records []Record) error {
	b, err := encodeCollection(records)
	if err != nil {
		return err
	}
	path := s.collectionPath(collection)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", filepath.Base(tmp), err)
	}
	return nil
}

// lockCollection takes the cross-process lock guarding a collection file.
func (s *JsonFileStore) lockCollection(ctx context.Context, collection string) (func(), error) {
	ctx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	fl := flock.New(s.collectionPath(collection) + ".lock")
	locked, err := fl.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", collection, err)
	}
	if !locked {
		return nil, fmt.Errorf("lock %s: not acquired", collection)
	}
	return func() { _ = fl.Unlock() }, nil
}

func (s *JsonFileStore) Read(_ context.Context, collection string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadFile(collection)
}

func (s *JsonFileStore) Write(ctx context.Context, collection string, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	unlock, err := s.lockCollection(ctx, collection)
	if err != nil {
		return err
	}
	defer unlock()
	return s.saveFile(collection, records)
}

func (s *JsonFileStore) Update(ctx context.Context, collection string, fn UpdateFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	unlock, err := s.lockCollection(ctx, collection)
	if err != nil {
		return err
	}
	defer unlock()

	records, err := s.loadFile(collection)
	if err != nil {
		return err
	}
	updated, err := fn(records)
	if err != nil {
		return err
	}
	return s.saveFile(collection, updated)
}

func (s *JsonFileStore) Close() error {
	return nil
}
