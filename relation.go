package docrel

import (
	"context"
	"iter"
	"slices"
)

// Relation is an immutable query over a dataset. Every chaining method
// returns a new Relation and leaves the receiver untouched, so relations
// can be shared and materialized concurrently.
type Relation struct {
	name string
	ds   *Dataset
	q    Query
}

// Name returns the name the relation was registered under.
func (r Relation) Name() string {
	return r.name
}

// Dataset returns the accessor the relation reads from.
func (r Relation) Dataset() *Dataset {
	return r.ds
}

// Query returns a copy of the composed query description.
func (r Relation) Query() Query {
	return r.q.Clone()
}

// Filter adds an equality predicate; multiple filters are ANDed together.
// Filtering on a field no record has matches nothing.
func (r Relation) Filter(field string, value any) Relation {
	return r.Where(Eq(field, value))
}

// Where adds already-built predicates, ANDed with any existing ones.
func (r Relation) Where(preds ...Predicate) Relation {
	q := r.q.Clone()
	for _, p := range preds {
		p.Value = normalizeValue(p.Value)
		q.Filters = append(q.Filters, p)
	}
	r.q = q
	return r
}

// Project keeps only the given fields in materialized rows. A later call
// replaces the field list of an earlier one; no fields means all fields.
func (r Relation) Project(fields ...string) Relation {
	q := r.q.Clone()
	q.Fields = nil
	if len(fields) > 0 {
		q.Fields = slices.Clone(fields)
	}
	r.q = q
	return r
}

// Pluck is an alias for Project.
func (r Relation) Pluck(fields ...string) Relation {
	return r.Project(fields...)
}

// OrderBy sorts ascending by a single field, replacing any earlier sort key.
// Sorting happens before projection, so the field need not be projected.
func (r Relation) OrderBy(field string) Relation {
	q := r.q.Clone()
	q.OrderBy = field
	r.q = q
	return r
}

// With applies scopes in order.
func (r Relation) With(scopes ...func(Relation) Relation) Relation {
	for _, s := range scopes {
		r = s(r)
	}
	return r
}

// Materialize runs the query against the current store state. Results are
// never cached.
func (r Relation) Materialize(ctx context.Context) ([]Record, error) {
	if r.ds == nil {
		panic("docrel: relation has no dataset")
	}
	return r.ds.run(ctx, r.q)
}

// All materializes the whole result when iteration starts and then yields
// it row by row. Each new iteration queries the store again.
func (r Relation) All(ctx context.Context) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		records, err := r.Materialize(ctx)
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

// First returns the first row of the result, reporting false when the
// result is empty.
func (r Relation) First(ctx context.Context) (Record, bool, error) {
	records, err := r.Materialize(ctx)
	if err != nil || len(records) == 0 {
		return nil, false, err
	}
	return records[0], true, nil
}

// Count materializes the relation and returns the number of rows.
func (r Relation) Count(ctx context.Context) (int, error) {
	records, err := r.Materialize(ctx)
	return len(records), err
}

// Equal reports whether both relations describe the same query over the
// same dataset.
func (r Relation) Equal(other Relation) bool {
	return r.name == other.name && r.ds == other.ds &&
		r.q.Table == other.q.Table && r.q.OrderBy == other.q.OrderBy &&
		slices.Equal(r.q.Fields, other.q.Fields) &&
		slices.EqualFunc(r.q.Filters, other.q.Filters, func(a, b Predicate) bool {
			return a.Field == b.Field && valuesEqual(a.Value, b.Value)
		})
}

func (r Relation) String() string {
	return r.q.String()
}
