// Package collection implements the generic CRUD resource bound to each
// entity: list, get, create, update and delete over a whole-collection store.
package collection

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/stevemurr/cafe-server/store"
)

var (
	// ErrNotFound is returned when no record carries the requested id.
	ErrNotFound = errors.New("record not found")

	// ErrIDConflict is returned when an update payload carries an id other
	// than the one being updated.
	ErrIDConflict = errors.New("payload id does not match record id")

	// ErrIDsExhausted is returned when the next id would no longer survive a
	// round trip through a JSON number.
	ErrIDsExhausted = errors.New("collection id space exhausted")

	// ErrDuplicate is returned by CreateUnique when another record already
	// holds the same value in the unique field.
	ErrDuplicate = errors.New("duplicate record")
)

// Collection is the CRUD resource for one entity. Mutations run one at a
// time: each holds the collection mutex and the store's exclusive lock
// across its whole read-modify-write, so concurrent creates never allocate
// the same id and no update is lost.
type Collection struct {
	name  string
	store store.Store
	mu    sync.Mutex
}

// New returns the resource for the named collection.
func New(name string, s store.Store) *Collection {
	return &Collection{name: name, store: s}
}

// Name returns the collection name.
func (c *Collection) Name() string {
	return c.name
}

// List returns the records that match f, in stored order. The zero Filter
// returns the whole collection.
func (c *Collection) List(ctx context.Context, f Filter) ([]store.Record, error) {
	records, err := c.store.Read(ctx, c.name)
	if err != nil {
		return nil, err
	}
	if f.IsZero() {
		return records, nil
	}
	matched := make([]store.Record, 0, len(records))
	for _, r := range records {
		if f.Match(r) {
			matched = append(matched, r)
		}
	}
	return matched, nil
}

// Get returns the record with the given id.
func (c *Collection) Get(ctx context.Context, id string) (store.Record, error) {
	records, err := c.store.Read(ctx, c.name)
	if err != nil {
		return nil, err
	}
	i := indexOf(records, id)
	if i < 0 {
		return nil, ErrNotFound
	}
	return records[i], nil
}

// Create appends payload as a new record under a freshly allocated id. Any
// id in payload is ignored.
func (c *Collection) Create(ctx context.Context, payload store.Record) (store.Record, error) {
	return c.create(ctx, payload, "")
}

// CreateUnique is Create, except that it fails with ErrDuplicate when a
// record already holds payload's value for field. The check and the append
// run under the same lock.
func (c *Collection) CreateUnique(ctx context.Context, payload store.Record, field string) (store.Record, error) {
	return c.create(ctx, payload, field)
}

func (c *Collection) create(ctx context.Context, payload store.Record, unique string) (store.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var created store.Record
	err := c.store.Update(ctx, c.name, func(records []store.Record) ([]store.Record, error) {
		if unique != "" {
			want := idString(payload[unique])
			for _, r := range records {
				if idString(r[unique]) == want {
					return nil, fmt.Errorf("%w: %s %q", ErrDuplicate, unique, want)
				}
			}
		}
		next := NextID(records)
		if next > maxSafeID {
			return nil, fmt.Errorf("%s: %w", c.name, ErrIDsExhausted)
		}
		created = make(store.Record, len(payload)+1)
		for k, v := range payload {
			created[k] = v
		}
		// Decoded JSON numbers are float64; keep ids in the same form.
		created["id"] = float64(next)
		return append(records, created), nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Update shallow-merges payload onto the record with the given id; payload
// fields win. A payload id equal to the record id is accepted, any other id
// fails with ErrIDConflict and leaves the collection unchanged.
func (c *Collection) Update(ctx context.Context, id string, payload store.Record) (store.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var updated store.Record
	err := c.store.Update(ctx, c.name, func(records []store.Record) ([]store.Record, error) {
		i := indexOf(records, id)
		if i < 0 {
			return nil, ErrNotFound
		}
		if v, ok := payload["id"]; ok && idString(v) != id {
			return nil, ErrIDConflict
		}
		merged := make(store.Record, len(records[i])+len(payload))
		for k, v := range records[i] {
			merged[k] = v
		}
		for k, v := range payload {
			if k == "id" {
				continue
			}
			merged[k] = v
		}
		records[i] = merged
		updated = merged
		return records, nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the record with the given id and returns it. The remaining
// records keep their order.
func (c *Collection) Delete(ctx context.Context, id string) (store.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var removed store.Record
	err := c.store.Update(ctx, c.name, func(records []store.Record) ([]store.Record, error) {
		i := indexOf(records, id)
		if i < 0 {
			return nil, ErrNotFound
		}
		removed = records[i]
		return slices.Delete(records, i, i+1), nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}
