// Package store defines the collection store interface and its backends.
//
// A collection is an ordered list of schema-free records persisted as one
// unit: every read loads the whole collection and every write replaces it.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Record is a single JSON object inside a collection.
type Record map[string]any

var (
	// ErrParse is returned when persisted collection data is not a JSON array
	// of objects.
	ErrParse = errors.New("malformed collection data")

	// ErrUnknownBackend is returned by New for an unsupported backend name.
	ErrUnknownBackend = errors.New("unknown store backend")
)

// UpdateFunc receives the current contents of a collection and returns the
// contents to persist. Returning an error aborts the update without writing.
type UpdateFunc func(records []Record) ([]Record, error)

// Store is the interface that all backing stores must implement.
type Store interface {
	// Read returns every record of a collection in stored order. A collection
	// that was never written reads as an empty slice.
	Read(ctx context.Context, collection string) ([]Record, error)

	// Write replaces the whole collection.
	Write(ctx context.Context, collection string, records []Record) error

	// Update runs a read-modify-write cycle on a collection while holding
	// the backend's exclusive lock for that collection.
	Update(ctx context.Context, collection string, fn UpdateFunc) error

	// Close releases any resources held by the backend.
	Close() error
}

// decodeCollection parses a persisted JSON array. Empty input is an empty
// collection.
func decodeCollection(collection string, data []byte) ([]Record, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []Record{}, nil
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", collection, ErrParse, err)
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

// encodeCollection renders a collection as a pretty-printed JSON array.
func encodeCollection(records []Record) ([]byte, error) {
	if records == nil {
		records = []Record{}
	}
	return json.MarshalIndent(records, "", "  ")
}
