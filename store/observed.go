package store

import (
	"context"
	"time"
)

// Observer receives the outcome of every store operation.
type Observer interface {
	ObserveStore(backend, op string, err error, elapsed time.Duration)
}

// Observed wraps a Store and reports each call to an Observer.
type Observed struct {
	Store
	backend string
	obs     Observer
}

// WithObserver decorates s so that obs sees every operation. A nil obs
// returns s unchanged.
func WithObserver(s Store, backend string, obs Observer) Store {
	if obs == nil {
		return s
	}
	return &Observed{Store: s, backend: backend, obs: obs}
}

func (o *Observed) Read(ctx context.Context, collection string) ([]Record, error) {
	start := time.Now()
	records, err := o.Store.Read(ctx, collection)
	o.obs.ObserveStore(o.backend, "read", err, time.Since(start))
	return records, err
}

func (o *Observed) Write(ctx context.Context, collection string, records []Record) error {
	start := time.Now()
	err := o.Store.Write(ctx, collection, records)
	o.obs.ObserveStore(o.backend, "write", err, time.Since(start))
	return err
}

func (o *Observed) Update(ctx context.Context, collection string, fn UpdateFunc) error {
	start := time.Now()
	err := o.Store.Update(ctx, collection, fn)
	o.obs.ObserveStore(o.backend, "update", err, time.Since(start))
	return err
}
