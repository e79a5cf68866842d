package docrel

import (
	"fmt"
	"math"
	"reflect"
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Predicate is an equality condition on a single field.
type Predicate struct {
	Field string `msgpack:"f"`
	Value any    `msgpack:"v"`
}

func Eq(field string, value any) Predicate {
	return Predicate{Field: field, Value: normalizeValue(value)}
}

func (p Predicate) Matches(rec Record) bool {
	v, ok := rec[p.Field]
	return ok && valuesEqual(v, p.Value)
}

func (p Predicate) String() string {
	return fmt.Sprintf("%s=%s", p.Field, loggableVal(p.Value))
}

// Query is a composed, store-independent description of what to read
// from a table. The zero OrderBy means store-native order; nil Fields
// or empty Fields means all fields.
type Query struct {
	Table   string      `msgpack:"t"`
	Filters []Predicate `msgpack:"w"`
	Fields  []string    `msgpack:"p"`
	OrderBy string      `msgpack:"o"`
}

func (q Query) Clone() Query {
	q.Filters = slices.Clone(q.Filters)
	q.Fields = slices.Clone(q.Fields)
	return q
}

func (q Query) IsProjected() bool {
	return len(q.Fields) > 0
}

func (q Query) Matches(rec Record) bool {
	for _, p := range q.Filters {
		if !p.Matches(rec) {
			return false
		}
	}
	return true
}

// Apply runs the logical pipeline over already-loaded records: filters,
// then a stable ascending sort, then projection. Ties keep input order.
func (q Query) Apply(records []Record) []Record {
	var out []Record
	for _, rec := range records {
		if q.Matches(rec) {
			out = append(out, rec)
		}
	}
	return q.finish(out)
}

// finish sorts and projects records that already passed the filters.
func (q Query) finish(out []Record) []Record {
	if q.OrderBy != "" {
		key := q.OrderBy
		slices.SortStableFunc(out, func(a, b Record) int {
			return compareValues(a[key], b[key])
		})
	}
	if q.IsProjected() {
		for i, rec := range out {
			out[i] = rec.project(q.Fields)
		}
	}
	return out
}

// Fingerprint hashes the canonical encoding of the query. Queries that
// select the same rows the same way (numerically equal filter values, nil
// or empty Fields) produce equal fingerprints.
func (q Query) Fingerprint() uint64 {
	c := q.canonical()
	return xxhash.Sum64(encodeValue(nil, reflect.ValueOf(&c)))
}

func (q Query) canonical() Query {
	c := q.Clone()
	if len(c.Fields) == 0 {
		c.Fields = nil
	}
	for i := range c.Filters {
		c.Filters[i].Value = canonicalNumber(c.Filters[i].Value)
	}
	return c
}

// canonicalNumber turns integral floats into the integer that compares
// equal to them.
func canonicalNumber(v any) any {
	f, ok := v.(float64)
	if !ok || f != math.Trunc(f) {
		return v
	}
	switch {
	case f >= -twoTo63 && f < twoTo63:
		return int64(f)
	case f >= 0 && f < twoTo64:
		return uint64(f)
	default:
		return v
	}
}

func (q Query) String() string {
	var buf strings.Builder
	buf.WriteString(q.Table)
	if len(q.Filters) > 0 {
		buf.WriteString(".filter(")
		for i, p := range q.Filters {
			if i > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(p.String())
		}
		buf.WriteByte(')')
	}
	if q.OrderBy != "" {
		buf.WriteString(".order_by(")
		buf.WriteString(q.OrderBy)
		buf.WriteByte(')')
	}
	if q.IsProjected() {
		buf.WriteString(".pluck(")
		buf.WriteString(strings.Join(q.Fields, ", "))
		buf.WriteByte(')')
	}
	return buf.String()
}
