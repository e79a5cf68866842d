package docrel

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"testing"
	"time"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	backends := map[string]func(t testing.TB) *Store{
		"bolt": setup,
		"mem": func(t testing.TB) *Store {
			store := must(Open(InMemory, Options{IsTesting: true}))
			t.Cleanup(store.Close)
			return store
		},
	}
	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			store := open(t)

			deepEqual(t, must(store.TableExists(ctx, "users")), false)
			isempty(t, must(store.Scan(ctx, "users")))

			ensure(store.CreateTable(ctx, "users"))
			deepEqual(t, must(store.TableExists(ctx, "users")), true)
			isempty(t, must(store.Scan(ctx, "users")))

			ensure(store.Insert(ctx, "users", testUsers...))
			deepEqual(t, names(must(store.Scan(ctx, "users"))), []string{"John", "Joe", "Jane"})

			ensure(store.Insert(ctx, "posts", Record{"title": "hello"}))
			deepEqual(t, must(store.Tables(ctx)), []string{"posts", "users"})
			var rows []string
			for _, ts := range must(store.TableStats(ctx)) {
				rows = append(rows, fmt.Sprintf("%s=%d", ts.Name, ts.Rows))
			}
			deepEqual(t, rows, []string{"posts=1", "users=3"})

			ensure(store.DropTable(ctx, "users"))
			deepEqual(t, must(store.TableExists(ctx, "users")), false)
			isempty(t, must(store.Scan(ctx, "users")))
			ensure(store.DropTable(ctx, "users"))
			deepEqual(t, must(store.TableExists(ctx, "posts")), true)
		})
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := setup(t)

	const n = 1000
	var records []Record
	for i := range n {
		records = append(records, Record{
			"id":    i,
			"name":  fmt.Sprintf("user%04d", i),
			"score": float32(i) / 2,
			"tags":  []any{"a", i},
		})
	}
	ensure(store.Insert(ctx, "users", records...))

	loaded := must(store.Scan(ctx, "users"))
	if len(loaded) != n {
		t.Fatalf("len(loaded) = %d, wanted %d", len(loaded), n)
	}
	seen := make(map[int64]bool)
	for _, rec := range loaded {
		id := rec["id"].(int64)
		if seen[id] {
			t.Fatalf("duplicate id %d", id)
		}
		seen[id] = true
		deepEqual(t, rec, normalizeRecord(records[id]))
	}
}

func TestStoreValueTypes(t *testing.T) {
	ctx := context.Background()
	store := setup(t)
	tm := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	ensure(store.Insert(ctx, "things", Record{
		"i8":    int8(-5),
		"u16":   uint16(500),
		"big":   uint64(1 << 63),
		"f":     1.5,
		"b":     true,
		"s":     "str",
		"bin":   []byte{1, 2, 3},
		"t":     tm,
		"null":  nil,
		"inner": map[string]any{"x": 1},
	}))
	rec := must(store.Scan(ctx, "things"))[0]
	deepEqual(t, rec["i8"], any(int64(-5)))
	deepEqual(t, rec["u16"], any(int64(500)))
	deepEqual(t, rec["big"], any(uint64(1<<63)))
	deepEqual(t, rec["f"], any(1.5))
	deepEqual(t, rec["b"], any(true))
	deepEqual(t, rec["s"], any("str"))
	deepEqual(t, rec["bin"], any([]byte{1, 2, 3}))
	deepEqual(t, rec["inner"], any(map[string]any{"x": int64(1)}))
	if v, ok := rec["null"]; !ok || v != nil {
		t.Errorf("** null = %v, %v, wanted nil, true", v, ok)
	}
	if got, ok := rec["t"].(time.Time); !ok || !got.Equal(tm) {
		t.Errorf("** t = %v, wanted %v", rec["t"], tm)
	}
}

func TestStoreUnavailable(t *testing.T) {
	t.Run("closed", func(t *testing.T) {
		store := must(Open(InMemory, Options{}))
		store.Close()
		_, err := store.TableExists(context.Background(), "users")
		if !errors.Is(err, ErrStoreUnavailable) {
			t.Fatalf("err = %v, wanted ErrStoreUnavailable", err)
		}
		var sue *StoreUnavailableError
		if !errors.As(err, &sue) || sue.Op != "exists" || sue.Table != "users" {
			t.Fatalf("err = %#v, wanted *StoreUnavailableError for exists users", err)
		}
	})

	t.Run("canceled", func(t *testing.T) {
		store := setupUsers(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := store.Run(ctx, Query{Table: "users"})
		if !errors.Is(err, ErrStoreUnavailable) || !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v, wanted ErrStoreUnavailable wrapping context.Canceled", err)
		}
	})

	t.Run("deadline", func(t *testing.T) {
		store := setupUsers(t)
		ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
		defer cancel()
		_, err := store.Scan(ctx, "users")
		if !errors.Is(err, ErrStoreUnavailable) || !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("err = %v, wanted ErrStoreUnavailable wrapping context.DeadlineExceeded", err)
		}
	})

	t.Run("lock timeout", func(t *testing.T) {
		store := setup(t)
		path := store.Bolt().Path()
		_, err := Open(path, Options{IsTesting: true, LockTimeout: 50 * time.Millisecond})
		if !errors.Is(err, ErrStoreUnavailable) {
			t.Fatalf("err = %v, wanted ErrStoreUnavailable", err)
		}
	})
}

func TestStoreInsertIsAtomic(t *testing.T) {
	ctx := context.Background()
	store := setupUsers(t)
	err := store.Insert(ctx, "users", Record{"name": "ok"}, Record{"bad": make(chan int)})
	if err == nil {
		t.Fatalf("Insert with unencodable value succeeded")
	}
	deepEqual(t, names(must(store.Scan(ctx, "users"))), []string{"John", "Joe", "Jane"})
}

func TestStoreReopen(t *testing.T) {
	ctx := context.Background()
	dbFile := must(os.CreateTemp("", "docrel_reopen_*.db"))
	dbFile.Close()
	defer os.Remove(dbFile.Name())

	store := must(Open(dbFile.Name(), Options{IsTesting: true}))
	ensure(store.Insert(ctx, "users", testUsers...))
	store.Close()

	store = must(Open(dbFile.Name(), Options{IsTesting: true}))
	defer store.Close()
	ensure(store.Insert(ctx, "users", Record{"id": 4, "name": "Jim"}))
	got := names(must(store.Scan(ctx, "users")))
	if !slices.Equal(got, []string{"John", "Joe", "Jane", "Jim"}) {
		t.Fatalf("names = %v, wanted insertion order preserved across reopen", got)
	}
}
