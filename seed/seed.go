// Package seed loads fixture records into an empty collection.
package seed

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/stevemurr/cafe-server/collection"
	"github.com/stevemurr/cafe-server/store"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Catalog returns the built-in demo products.
func Catalog() ([]store.Record, error) {
	return Parse(catalogYAML)
}

// Load reads fixtures from a YAML or JSON file (JSON is valid YAML).
func Load(path string) ([]store.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a YAML list of objects. Values are normalized through JSON
// so numbers come back as float64, as they would from a collection file.
func Parse(data []byte) ([]store.Record, error) {
	var raw []map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("normalize fixtures: %w", err)
	}
	var records []store.Record
	if err := json.Unmarshal(b, &records); err != nil {
		return nil, fmt.Errorf("normalize fixtures: %w", err)
	}
	return records, nil
}

// Apply creates each fixture in c when c is empty, allocating ids the same
// way the API does. It returns how many records were created; a collection
// that already holds data is left untouched unless force is set.
func Apply(ctx context.Context, c *collection.Collection, fixtures []store.Record, force bool) (int, error) {
	existing, err := c.List(ctx, collection.Filter{})
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 && !force {
		return 0, nil
	}
	for i, f := range fixtures {
		if _, err := c.Create(ctx, f); err != nil {
			return i, fmt.Errorf("create fixture %d: %w", i, err)
		}
	}
	return len(fixtures), nil
}
