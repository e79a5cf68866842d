package docrel

import (
	"bytes"
	"cmp"
	"encoding/json"
	"maps"
	"math"
	"reflect"
	"slices"
	"strconv"
	"time"
)

// Record is a single schema-less document. Field values are scalars
// (nil, bool, int64, uint64, float64, string, []byte, time.Time) or nested
// maps and slices of those.
type Record map[string]any

func (r Record) Get(field string) (any, bool) {
	v, ok := r[field]
	return v, ok
}

func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	return maps.Clone(r)
}

// Fields returns the record's field names in sorted order.
func (r Record) Fields() []string {
	return slices.Sorted(maps.Keys(r))
}

func (r Record) project(fields []string) Record {
	out := make(Record, len(fields))
	for _, f := range fields {
		if v, ok := r[f]; ok {
			out[f] = v
		}
	}
	return out
}

// normalizeRecord converts caller-supplied values into the canonical forms
// produced by decoding, so that freshly inserted and freshly loaded records
// compare the same way.
func normalizeRecord(r Record) Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch v := v.(type) {
	case nil, bool, string, int64, float64, []byte, time.Time:
		return v
	case int:
		return int64(v)
	case int8:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case uint:
		return normalizeUint(uint64(v))
	case uint8:
		return int64(v)
	case uint16:
		return int64(v)
	case uint32:
		return int64(v)
	case uint64:
		return normalizeUint(v)
	case float32:
		return float64(v)
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
		if u, err := strconv.ParseUint(string(v), 10, 64); err == nil {
			return u
		}
		if f, err := v.Float64(); err == nil {
			return f
		}
		return string(v)
	case map[string]any:
		return map[string]any(normalizeRecord(v))
	case Record:
		return map[string]any(normalizeRecord(v))
	case []any:
		out := make([]any, len(v))
		for i, el := range v {
			out[i] = normalizeValue(el)
		}
		return out
	default:
		return v
	}
}

func normalizeUint(u uint64) any {
	if u <= math.MaxInt64 {
		return int64(u)
	}
	return u
}

// Type ranks define the store's default collation across value types.
const (
	rankNull = iota
	rankBool
	rankNumber
	rankString
	rankTime
	rankOther
)

func valueRank(v any) int {
	switch v.(type) {
	case nil:
		return rankNull
	case bool:
		return rankBool
	case int64, uint64, float64:
		return rankNumber
	case string:
		return rankString
	case time.Time:
		return rankTime
	default:
		return rankOther
	}
}

// compareValues orders two normalized values: null < bool < number <
// string < time < everything else.
func compareValues(a, b any) int {
	ra, rb := valueRank(a), valueRank(b)
	if ra != rb {
		return cmp.Compare(ra, rb)
	}
	switch ra {
	case rankNull:
		return 0
	case rankBool:
		ab, bb := a.(bool), b.(bool)
		switch {
		case ab == bb:
			return 0
		case !ab:
			return -1
		default:
			return 1
		}
	case rankNumber:
		return compareNumbers(a, b)
	case rankString:
		return cmp.Compare(a.(string), b.(string))
	case rankTime:
		return a.(time.Time).Compare(b.(time.Time))
	default:
		ea := encodeValue(nil, reflect.ValueOf(&a))
		eb := encodeValue(nil, reflect.ValueOf(&b))
		return bytes.Compare(ea, eb)
	}
}

const (
	twoTo63 = float64(1 << 63)
	twoTo64 = 2 * twoTo63
)

// compareNumbers compares int64, uint64 and float64 values exactly, without
// rounding large integers through float64.
func compareNumbers(a, b any) int {
	switch a := a.(type) {
	case int64:
		switch b := b.(type) {
		case int64:
			return cmp.Compare(a, b)
		case uint64:
			if a < 0 {
				return -1
			}
			return cmp.Compare(uint64(a), b)
		case float64:
			return compareIntFloat(a, b)
		}
	case uint64:
		switch b := b.(type) {
		case int64:
			return -compareNumbers(b, a)
		case uint64:
			return cmp.Compare(a, b)
		case float64:
			return compareUintFloat(a, b)
		}
	case float64:
		switch b := b.(type) {
		case int64:
			return -compareIntFloat(b, a)
		case uint64:
			return -compareUintFloat(b, a)
		case float64:
			return cmp.Compare(a, b)
		}
	}
	panic("not a number")
}

func compareIntFloat(a int64, b float64) int {
	switch {
	case math.IsNaN(b):
		return 1
	case b >= twoTo63:
		return -1
	case b < -twoTo63:
		return 1
	}
	bi := int64(b)
	if c := cmp.Compare(a, bi); c != 0 {
		return c
	}
	return cmp.Compare(0, b-float64(bi))
}

func compareUintFloat(a uint64, b float64) int {
	switch {
	case math.IsNaN(b):
		return 1
	case b >= twoTo64:
		return -1
	case b < 0:
		return 1
	}
	bu := uint64(b)
	if c := cmp.Compare(a, bu); c != 0 {
		return c
	}
	return cmp.Compare(0, b-float64(bu))
}

func valuesEqual(a, b any) bool {
	ra, rb := valueRank(a), valueRank(b)
	if ra != rb {
		return false
	}
	if ra == rankOther {
		if ab, ok := a.([]byte); ok {
			bb, ok := b.([]byte)
			return ok && bytes.Equal(ab, bb)
		}
		return reflect.DeepEqual(a, b)
	}
	return compareValues(a, b) == 0
}
