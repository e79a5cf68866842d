package docrel

import (
	"context"
	"os"
	"reflect"
	"testing"
)

type User struct {
	ID     *int64  `msgpack:"id"`
	Name   *string `msgpack:"name"`
	Street *string `msgpack:"street"`
}

func (u *User) String() string {
	return "User{" + deref(u.ID) + ", " + deref(u.Name) + ", " + deref(u.Street) + "}"
}

func deref[T any](p *T) string {
	if p == nil {
		return "<nil>"
	}
	return loggableVal(*p)
}

var testUsers = []Record{
	{"id": 1, "name": "John", "street": "Main Street"},
	{"id": 2, "name": "Joe", "street": "2nd Street"},
	{"id": 3, "name": "Jane", "street": "Main Street"},
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func ensure(err error) {
	if err != nil {
		panic(err)
	}
}

// setup opens a Bolt store in a temp file.
func setup(t testing.TB) *Store {
	t.Helper()

	dbFile := must(os.CreateTemp("", "docrel_test_*.db"))
	t.Logf("DB: %s", dbFile.Name())
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	store := must(Open(dbFile.Name(), Options{
		IsTesting: true,
		Verbose:   true,
	}))
	t.Cleanup(store.Close)
	return store
}

// setupUsers returns a store with the users table filled.
func setupUsers(t testing.TB) *Store {
	t.Helper()
	store := setup(t)
	ensure(store.Insert(context.Background(), "users", testUsers...))
	return store
}

func deepEqual[T any](t testing.TB, a, e T) {
	if !reflect.DeepEqual(a, e) {
		t.Helper()
		t.Errorf("** got %v, wanted %v", a, e)
	}
}

func isempty[T any, S ~[]T](t testing.TB, a S) {
	if len(a) > 0 {
		t.Helper()
		t.Errorf("** got %v, wanted empty slice", a)
	}
}

func isnil[T any, P ~*T](t testing.TB, a P) {
	if a != nil {
		t.Helper()
		t.Errorf("** got &%v, wanted nil", *a)
	}
}

func isnonnil[T any](t testing.TB, a *T) {
	if a == nil {
		t.Helper()
		t.Errorf("** got nil %T, wanted non-nil", a)
	}
}

func names(records []Record) []string {
	var result []string
	for _, rec := range records {
		s, _ := rec["name"].(string)
		result = append(result, s)
	}
	return result
}
