package docrel

import (
	"encoding/json"
	"math"
	"testing"
	"time"
)

func TestCompareValues(t *testing.T) {
	t0 := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	ordered := []any{
		nil,
		false,
		true,
		int64(-3),
		float64(-2.5),
		int64(0),
		uint64(1),
		float64(1.5),
		int64(math.MaxInt64),
		uint64(math.MaxUint64),
		"",
		"Jane",
		"Joe",
		"John",
		"jane",
		t0,
		t0.Add(time.Second),
		[]byte{1},
	}
	for i, a := range ordered {
		for j, b := range ordered {
			got := compareValues(a, b)
			var want int
			switch {
			case i < j:
				want = -1
			case i > j:
				want = 1
			}
			if got != want {
				t.Errorf("** compareValues(%v, %v) = %d, wanted %d", a, b, got, want)
			}
		}
	}
}

func TestCompareNumbersExact(t *testing.T) {
	tests := []struct {
		a, b any
		want int
	}{
		{int64(1<<53 + 1), float64(1 << 53), 1},
		{float64(1 << 53), int64(1<<53 + 1), -1},
		{int64(math.MaxInt64), float64(1 << 63), -1},
		{int64(math.MinInt64), float64(-(1 << 63)), 0},
		{int64(-1), -1.5, 1},
		{int64(-2), -1.5, -1},
		{int64(2), 2.0, 0},
		{uint64(math.MaxUint64), float64(1 << 64), -1},
		{uint64(1<<63 + 1), float64(1 << 63), 1},
		{uint64(3), 2.5, 1},
		{uint64(0), -0.5, 1},
		{int64(0), math.NaN(), 1},
	}
	for _, tt := range tests {
		if got := compareNumbers(tt.a, tt.b); got != tt.want {
			t.Errorf("** compareNumbers(%v, %v) = %d, wanted %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestValuesEqual(t *testing.T) {
	tests := []struct {
		a, b any
		want bool
	}{
		{int64(1), float64(1), true},
		{int64(1<<53 + 1), float64(1 << 53), false},
		{int64(1), uint64(1), true},
		{int64(-1), uint64(math.MaxUint64), false},
		{"1", int64(1), false},
		{nil, nil, true},
		{nil, false, false},
		{[]byte("ab"), []byte("ab"), true},
		{[]byte("ab"), "ab", false},
		{[]any{int64(1)}, []any{int64(1)}, true},
		{map[string]any{"a": int64(1)}, map[string]any{"a": int64(2)}, false},
	}
	for _, tt := range tests {
		if got := valuesEqual(tt.a, tt.b); got != tt.want {
			t.Errorf("** valuesEqual(%v, %v) = %v, wanted %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestNormalizeValue(t *testing.T) {
	tests := []struct {
		in, want any
	}{
		{1, int64(1)},
		{int32(-7), int64(-7)},
		{uint8(200), int64(200)},
		{uint(5), int64(5)},
		{uint64(math.MaxUint64), uint64(math.MaxUint64)},
		{float32(0.5), float64(0.5)},
		{json.Number("42"), int64(42)},
		{json.Number("18446744073709551615"), uint64(math.MaxUint64)},
		{json.Number("4.25"), float64(4.25)},
		{Record{"n": 1}, map[string]any{"n": int64(1)}},
		{[]any{1, "x"}, []any{int64(1), "x"}},
		{"s", "s"},
	}
	for _, tt := range tests {
		deepEqual(t, normalizeValue(tt.in), tt.want)
	}
}

func TestRecordHelpers(t *testing.T) {
	rec := Record{"name": "Jane", "id": int64(3)}
	deepEqual(t, rec.Fields(), []string{"id", "name"})

	v, ok := rec.Get("name")
	if !ok || v != "Jane" {
		t.Fatalf("Get(name) = %v, %v, wanted Jane, true", v, ok)
	}
	if _, ok := rec.Get("street"); ok {
		t.Fatalf("Get(street) found a value, wanted none")
	}

	c := rec.Clone()
	c["name"] = "John"
	deepEqual(t, rec["name"], any("Jane"))

	deepEqual(t, rec.project([]string{"name", "street"}), Record{"name": "Jane"})
	deepEqual(t, rec.project(nil), Record{})
}
