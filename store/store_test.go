package store_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stevemurr/cafe-server/store"
)

// runStoreTests runs a common test suite against any Store implementation.
func runStoreTests(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("Read missing collection", func(t *testing.T) {
		records, err := s.Read(ctx, "productos")
		require.NoError(t, err)
		assert.NotNil(t, records)
		assert.Empty(t, records)
	})

	t.Run("Write and Read round trip", func(t *testing.T) {
		want := []store.Record{
			{"id": float64(3), "name": "Tiramisú", "price": float64(12500)},
			{"id": float64(1), "name": "Café Americano", "tags": []any{"bebidas", "caliente"}},
			{"id": float64(2), "name": "Cappuccino", "extra": map[string]any{"available": true}},
		}
		require.NoError(t, s.Write(ctx, "productos", want))
		got, err := s.Read(ctx, "productos")
		require.NoError(t, err)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Write overwrites", func(t *testing.T) {
		require.NoError(t, s.Write(ctx, "productos", []store.Record{{"id": float64(9)}}))
		got, err := s.Read(ctx, "productos")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, float64(9), got[0]["id"])
	})

	t.Run("Write empty collection", func(t *testing.T) {
		require.NoError(t, s.Write(ctx, "pedidos", nil))
		got, err := s.Read(ctx, "pedidos")
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("Collections are independent", func(t *testing.T) {
		require.NoError(t, s.Write(ctx, "usuarios", []store.Record{{"id": float64(1), "email": "a@b.co"}}))
		products, err := s.Read(ctx, "productos")
		require.NoError(t, err)
		assert.Len(t, products, 1)
		users, err := s.Read(ctx, "usuarios")
		require.NoError(t, err)
		assert.Equal(t, "a@b.co", users[0]["email"])
	})

	t.Run("Update applies fn", func(t *testing.T) {
		err := s.Update(ctx, "usuarios", func(records []store.Record) ([]store.Record, error) {
			return append(records, store.Record{"id": float64(2)}), nil
		})
		require.NoError(t, err)
		got, err := s.Read(ctx, "usuarios")
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("Update error aborts write", func(t *testing.T) {
		boom := errors.New("boom")
		err := s.Update(ctx, "usuarios", func(records []store.Record) ([]store.Record, error) {
			return nil, boom
		})
		require.ErrorIs(t, err, boom)
		got, err := s.Read(ctx, "usuarios")
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("Read returns copies", func(t *testing.T) {
		got, err := s.Read(ctx, "usuarios")
		require.NoError(t, err)
		got[0]["email"] = "mutated"
		again, err := s.Read(ctx, "usuarios")
		require.NoError(t, err)
		assert.Equal(t, "a@b.co", again[0]["email"])
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreTests(t, store.NewMemoryStore())
}

func TestJsonFileStore(t *testing.T) {
	s, err := store.NewJsonFileStore(t.TempDir())
	require.NoError(t, err)
	runStoreTests(t, s)
}

func TestSqliteStore(t *testing.T) {
	s, err := store.NewSqliteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer s.Close()
	runStoreTests(t, s)
}

func TestPureSqliteStore(t *testing.T) {
	s, err := store.NewPureSqliteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer s.Close()
	runStoreTests(t, s)
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("CAFE_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("CAFE_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	s, err := store.NewPostgresStore(ctx, dsn)
	require.NoError(t, err)
	defer s.Close()
	for _, c := range []string{"productos", "usuarios", "pedidos"} {
		require.NoError(t, s.Write(ctx, c, nil))
	}
	runStoreTests(t, s)
}

func TestJsonFileStoreLayout(t *testing.T) {
	dir := t.TempDir()
	s, err := store.NewJsonFileStore(dir)
	require.NoError(t, err)

	err = s.Write(context.Background(), "productos", []store.Record{{"id": float64(1), "name": "Café"}})
	require.NoError(t, err)

	b, err := os.ReadFile(filepath.Join(dir, "productos.json"))
	require.NoError(t, err)
	assert.Equal(t, "[\n  {\n    \"id\": 1,\n    \"name\": \"Café\"\n  }\n]", string(b))

	_, err = os.Stat(filepath.Join(dir, "productos.json.tmp"))
	assert.True(t, os.IsNotExist(err), "temp file should be renamed away")
}

func TestJsonFileStoreParseError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "productos.json"), []byte("[{\"id\": 1,"), 0o644))
	s, err := store.NewJsonFileStore(dir)
	require.NoError(t, err)

	_, err = s.Read(context.Background(), "productos")
	require.ErrorIs(t, err, store.ErrParse)

	err = s.Update(context.Background(), "productos", func(r []store.Record) ([]store.Record, error) {
		t.Fatal("fn must not run on unparseable data")
		return r, nil
	})
	require.ErrorIs(t, err, store.ErrParse)
}

func TestJsonFileStoreEmptyFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pedidos.json"), nil, 0o644))
	s, err := store.NewJsonFileStore(dir)
	require.NoError(t, err)

	got, err := s.Read(context.Background(), "pedidos")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestNewUnknownBackend(t *testing.T) {
	_, err := store.New(context.Background(), "redis", t.TempDir(), "")
	require.ErrorIs(t, err, store.ErrUnknownBackend)
}

func TestNewBackends(t *testing.T) {
	for _, backend := range []string{"", "json", "sqlite", "sqlite-purego", "memory"} {
		t.Run(backend, func(t *testing.T) {
			s, err := store.New(context.Background(), backend, t.TempDir(), "")
			require.NoError(t, err)
			assert.NoError(t, s.Close())
		})
	}
}

type recordingObserver struct {
	ops  []string
	errs int
}

func (r *recordingObserver) ObserveStore(backend, op string, err error, _ time.Duration) {
	r.ops = append(r.ops, backend+":"+op)
	if err != nil {
		r.errs++
	}
}

func TestWithObserver(t *testing.T) {
	obs := &recordingObserver{}
	s := store.WithObserver(store.NewMemoryStore(), "memory", obs)
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, "productos", nil))
	_, err := s.Read(ctx, "productos")
	require.NoError(t, err)
	_ = s.Update(ctx, "productos", func([]store.Record) ([]store.Record, error) {
		return nil, errors.New("nope")
	})

	assert.Equal(t, []string{"memory:write", "memory:read", "memory:update"}, obs.ops)
	assert.Equal(t, 1, obs.errs)

	plain := store.NewMemoryStore()
	assert.Same(t, plain, store.WithObserver(plain, "memory", nil).(*store.MemoryStore))
}
