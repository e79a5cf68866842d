package docrel

import (
	"context"
	"errors"
	"iter"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Dataset gives access to one named table of a backend. It never creates
// or drops the table.
type Dataset struct {
	backend Backend
	name    string
	retry   RetryPolicy
}

// RetryPolicy bounds retries of store calls that fail with
// ErrStoreUnavailable. MaxAttempts <= 1 disables retrying.
type RetryPolicy struct {
	MaxAttempts     int           `yaml:"max_attempts"`
	InitialInterval time.Duration `yaml:"initial_interval"`
}

type DatasetOption func(ds *Dataset)

func WithRetry(policy RetryPolicy) DatasetOption {
	return func(ds *Dataset) {
		ds.retry = policy
	}
}

func NewDataset(backend Backend, name string, opts ...DatasetOption) *Dataset {
	ds := &Dataset{backend: backend, name: name}
	for _, opt := range opts {
		opt(ds)
	}
	return ds
}

func (ds *Dataset) Name() string {
	return ds.name
}

// Exists reports whether the table is currently present. A missing table
// is not an error.
func (ds *Dataset) Exists(ctx context.Context) (bool, error) {
	var found bool
	err := ds.call(ctx, func() error {
		var err error
		found, err = ds.backend.TableExists(ctx, ds.name)
		return err
	})
	return found, err
}

// All yields every record in store-native order. The store is queried
// when iteration starts, and again on every new iteration.
func (ds *Dataset) All(ctx context.Context) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		var records []Record
		err := ds.call(ctx, func() error {
			var err error
			records, err = ds.backend.Scan(ctx, ds.name)
			return err
		})
		if err != nil {
			yield(nil, err)
			return
		}
		for _, rec := range records {
			if !yield(rec, nil) {
				return
			}
		}
	}
}

// Relation returns the unfiltered relation over this dataset.
func (ds *Dataset) Relation() Relation {
	return Relation{name: ds.name, ds: ds, q: Query{Table: ds.name}}
}

func (ds *Dataset) run(ctx context.Context, q Query) ([]Record, error) {
	var records []Record
	err := ds.call(ctx, func() error {
		var err error
		records, err = ds.backend.Run(ctx, q)
		return err
	})
	return records, err
}

func (ds *Dataset) call(ctx context.Context, f func() error) error {
	if ds.retry.MaxAttempts <= 1 {
		return f()
	}
	eb := backoff.NewExponentialBackOff()
	if ds.retry.InitialInterval > 0 {
		eb.InitialInterval = ds.retry.InitialInterval
	}
	eb.MaxElapsedTime = 0
	b := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(ds.retry.MaxAttempts-1)), ctx)
	err := backoff.Retry(func() error {
		err := f()
		if err != nil && (!errors.Is(err, ErrStoreUnavailable) || ctx.Err() != nil) {
			return backoff.Permanent(err)
		}
		return err
	}, b)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return unavailableErrf("retry", ds.name, err)
	}
	return err
}
