package docrel

import (
	"math"
	"testing"
)

func TestQueryApply(t *testing.T) {
	records := make([]Record, len(testUsers))
	for i, rec := range testUsers {
		records[i] = normalizeRecord(rec)
	}

	tests := []struct {
		name string
		q    Query
		want []Record
	}{
		{"all", Query{}, records},
		{"filter", Query{Filters: []Predicate{Eq("street", "Main Street")}}, []Record{records[0], records[2]}},
		{"filter and", Query{Filters: []Predicate{Eq("street", "Main Street"), Eq("id", 3)}}, []Record{records[2]}},
		{"filter float matches int", Query{Filters: []Predicate{Eq("id", 2.0)}}, []Record{records[1]}},
		{"filter missing field", Query{Filters: []Predicate{Eq("zip", "12345")}}, nil},
		{"order", Query{OrderBy: "name"}, []Record{records[2], records[1], records[0]}},
		{"order by id", Query{OrderBy: "id"}, records},
		{"project", Query{Fields: []string{"name"}}, []Record{{"name": "John"}, {"name": "Joe"}, {"name": "Jane"}}},
		{"project empty means all fields", Query{Fields: []string{}}, records},
		{"order on dropped field", Query{OrderBy: "name", Fields: []string{"id"}}, []Record{{"id": int64(3)}, {"id": int64(2)}, {"id": int64(1)}}},
		{
			"names on street",
			Query{Filters: []Predicate{Eq("street", "Main Street")}, OrderBy: "name", Fields: []string{"name"}},
			[]Record{{"name": "Jane"}, {"name": "John"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := make([]Record, len(records))
			copy(in, records)
			deepEqual(t, tt.q.Apply(in), tt.want)
		})
	}
}

func TestQueryStableOrder(t *testing.T) {
	in := []Record{
		{"k": int64(2), "n": "a"},
		{"k": int64(1), "n": "b"},
		{"k": int64(2), "n": "c"},
		{"n": "d"},
		{"k": int64(1), "n": "e"},
	}
	got := Query{OrderBy: "k"}.Apply(in)
	deepEqual(t, names2(got), []string{"d", "b", "e", "a", "c"})
}

func names2(records []Record) []string {
	var result []string
	for _, rec := range records {
		result = append(result, rec["n"].(string))
	}
	return result
}

func TestQueryFingerprint(t *testing.T) {
	a := Query{Table: "users", Filters: []Predicate{Eq("street", "Main Street")}, OrderBy: "name", Fields: []string{"name"}}
	b := Query{Table: "users", Filters: []Predicate{Eq("street", "Main Street")}, OrderBy: "name", Fields: []string{"name"}}
	if a.Fingerprint() != b.Fingerprint() {
		t.Fatalf("equal queries have different fingerprints")
	}

	same := []Query{
		{Table: "users", Filters: []Predicate{Eq("id", 1)}},
		{Table: "users", Filters: []Predicate{Eq("id", 1.0)}},
		{Table: "users", Filters: []Predicate{Eq("id", uint64(1))}},
		{Table: "users", Filters: []Predicate{Eq("id", 1)}, Fields: []string{}},
	}
	for _, q := range same[1:] {
		if q.Fingerprint() != same[0].Fingerprint() {
			t.Errorf("** %v and %v have different fingerprints", q, same[0])
		}
	}
	if (Query{Table: "users", Filters: []Predicate{Eq("id", 1.5)}}).Fingerprint() == same[0].Fingerprint() {
		t.Errorf("** id=1.5 has the same fingerprint as id=1")
	}
	deepEqual(t, canonicalNumber(float64(1<<63)), any(uint64(1<<63)))
	deepEqual(t, canonicalNumber(-2.0), any(int64(-2)))
	deepEqual(t, canonicalNumber(math.Inf(1)), any(math.Inf(1)))

	variants := []Query{
		{Table: "users"},
		{Table: "users", OrderBy: "name"},
		{Table: "users", Filters: []Predicate{Eq("street", "2nd Street")}, OrderBy: "name", Fields: []string{"name"}},
		{Table: "people", Filters: []Predicate{Eq("street", "Main Street")}, OrderBy: "name", Fields: []string{"name"}},
	}
	seen := map[uint64]int{a.Fingerprint(): -1}
	for i, q := range variants {
		fp := q.Fingerprint()
		if j, dup := seen[fp]; dup {
			t.Errorf("** variant %d (%v) has the same fingerprint as %d", i, q, j)
		}
		seen[fp] = i
	}
}

func TestQueryString(t *testing.T) {
	q := Query{Table: "users", Filters: []Predicate{Eq("street", "Main Street"), Eq("id", 3)}, OrderBy: "name", Fields: []string{"name", "id"}}
	deepEqual(t, q.String(), `users.filter(street="Main Street", id=3).order_by(name).pluck(name, id)`)
	deepEqual(t, Query{Table: "users"}.String(), "users")
}
