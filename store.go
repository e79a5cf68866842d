package docrel

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"runtime/debug"
	"sync/atomic"
	"time"

	"go.etcd.io/bbolt"
)

// InMemory can be passed to Open instead of a file path to get a transient
// store that lives only as long as the process.
const InMemory = ":memory:"

// How many records a cursor walks between context checks.
const ctxCheckInterval = 256

// Backend is the set of store capabilities that datasets and relations
// depend on. *Store implements it.
type Backend interface {
	TableExists(ctx context.Context, table string) (bool, error)
	Scan(ctx context.Context, table string) ([]Record, error)
	Run(ctx context.Context, q Query) ([]Record, error)
}

// Store is a document store: a set of named tables holding schema-less
// records, persisted in a Bolt file (or in memory).
type Store struct {
	st      storage
	bdb     *bbolt.DB
	logger  *slog.Logger
	verbose bool
	timeout time.Duration

	ReadCount  atomic.Uint64
	WriteCount atomic.Uint64
}

type Options struct {
	Logger    *slog.Logger
	Verbose   bool
	IsTesting bool
	MmapSize  int

	// Timeout bounds every store round-trip. Zero means no limit beyond
	// the caller's context.
	Timeout time.Duration

	// LockTimeout bounds waiting for the file lock on Open.
	LockTimeout time.Duration
}

func Open(path string, opt Options) (*Store, error) {
	logger := opt.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		logger:  logger,
		verbose: opt.Verbose,
		timeout: opt.Timeout,
	}
	if path == InMemory {
		s.st = newMemStorage()
		return s, nil
	}

	bopt := new(bbolt.Options)
	*bopt = *bbolt.DefaultOptions
	bopt.Timeout = 10 * time.Second
	if opt.LockTimeout != 0 {
		bopt.Timeout = opt.LockTimeout
	}
	if opt.IsTesting {
		bopt.NoSync = true
		bopt.NoFreelistSync = true
		bopt.InitialMmapSize = 1024 * 1024 * 5
	} else {
		bopt.InitialMmapSize = 1024 * 1024 * 1024
		bopt.FreelistType = bbolt.FreelistMapType
	}
	if opt.MmapSize != 0 {
		bopt.InitialMmapSize = opt.MmapSize
	}

	bdb, err := bbolt.Open(path, 0666, bopt)
	if err != nil {
		if errors.Is(err, bbolt.ErrTimeout) {
			return nil, unavailableErrf("open", "", err)
		}
		return nil, fmt.Errorf("docrel: %w", err)
	}
	s.bdb = bdb
	s.st = newBoltStorage(bdb)
	return s, nil
}

// Bolt returns the underlying Bolt database, or nil for in-memory stores.
func (s *Store) Bolt() *bbolt.DB {
	return s.bdb
}

func (s *Store) Logger() *slog.Logger {
	return s.logger
}

func (s *Store) Close() {
	err := s.st.Close()
	if err != nil {
		panic(fmt.Errorf("docrel: closing: %w", err))
	}
}

type panicked struct {
	reason any
	stack  string
}

func (p panicked) Error() string {
	return fmt.Sprintf("panic: %v\n\n%s", p.reason, p.stack)
}

func safelyCall(fn func(storageTx) error, tx storageTx) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = panicked{p, string(debug.Stack())}
		}
	}()
	return fn(tx)
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(ctx, s.timeout)
	}
	return ctx, func() {}
}

// tx runs f inside a storage transaction, committing writable ones when f
// succeeds. Context expiry and closed storage become StoreUnavailableError.
func (s *Store) tx(ctx context.Context, writable bool, op, table string, f func(tx storageTx) error) error {
	if err := ctx.Err(); err != nil {
		return unavailableErrf(op, table, err)
	}
	stx, err := s.st.BeginTx(writable)
	if err != nil {
		return unavailableErrf(op, table, err)
	}
	err = safelyCall(f, stx)
	if err == nil && writable {
		err = stx.Commit()
		if errors.Is(err, errStorageClosed) {
			err = unavailableErrf(op, table, err)
		}
	}
	if rerr := stx.Rollback(); err == nil && rerr != nil {
		err = rerr
	}
	if writable {
		s.WriteCount.Add(1)
	} else {
		s.ReadCount.Add(1)
	}
	return err
}

func (s *Store) TableExists(ctx context.Context, table string) (bool, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	var found bool
	err := s.tx(ctx, false, "exists", table, func(tx storageTx) error {
		found = (tx.Bucket(table) != nil)
		return nil
	})
	return found, err
}

// Tables lists all tables in name order.
func (s *Store) Tables(ctx context.Context) ([]string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	var names []string
	err := s.tx(ctx, false, "tables", "", func(tx storageTx) error {
		names = tx.BucketNames()
		return nil
	})
	return names, err
}

func (s *Store) CreateTable(ctx context.Context, table string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.tx(ctx, true, "create", table, func(tx storageTx) error {
		_, err := tx.CreateBucket(table)
		if err != nil {
			return tableErrf(table, nil, err, "create")
		}
		return nil
	})
}

// DropTable removes a table with all its records. Dropping a missing table
// does nothing.
func (s *Store) DropTable(ctx context.Context, table string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.tx(ctx, true, "drop", table, func(tx storageTx) error {
		err := tx.DeleteBucket(table)
		if err != nil && err != ErrBucketNotFound {
			return tableErrf(table, nil, err, "drop")
		}
		return nil
	})
}

// Insert appends records to a table, creating the table if needed. All
// records are written in a single transaction.
func (s *Store) Insert(ctx context.Context, table string, records ...Record) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.tx(ctx, true, "insert", table, func(tx storageTx) error {
		buck, err := tx.CreateBucket(table)
		if err != nil {
			return tableErrf(table, nil, err, "create")
		}
		for _, rec := range records {
			seq, err := buck.NextSequence()
			if err != nil {
				return tableErrf(table, nil, err, "next sequence")
			}
			key := binary.BigEndian.AppendUint64(nil, seq)
			m := map[string]any(normalizeRecord(rec))
			value := encodeValue(nil, reflect.ValueOf(&m))
			err = buck.Put(key, value)
			if err != nil {
				return tableErrf(table, key, err, "put")
			}
		}
		return nil
	})
}

// Scan returns every record of the table in store-native (insertion) order.
// A missing table yields no records.
func (s *Store) Scan(ctx context.Context, table string) ([]Record, error) {
	return s.Run(ctx, Query{Table: table})
}

// Run executes q inside one read transaction. Filters are evaluated while
// walking the table; sorting and projection happen on the matches.
func (s *Store) Run(ctx context.Context, q Query) ([]Record, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	start := time.Now()
	var out []Record
	var scanned int
	err := s.tx(ctx, false, "run", q.Table, func(tx storageTx) error {
		buck := tx.Bucket(q.Table)
		if buck == nil {
			return nil
		}
		c := buck.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			scanned++
			if scanned%ctxCheckInterval == 0 {
				if err := ctx.Err(); err != nil {
					return unavailableErrf("run", q.Table, err)
				}
			}
			rec, err := decodeRecord(v)
			if err != nil {
				return tableErrf(q.Table, k, err, "decode")
			}
			if q.Matches(rec) {
				out = append(out, rec)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out = q.finish(out)
	if s.verbose {
		s.logger.LogAttrs(ctx, slog.LevelDebug, "docrel: query",
			slog.String("table", q.Table),
			slog.String("query", q.String()),
			slog.Int("scanned", scanned),
			slog.Int("rows", len(out)),
			slog.Duration("elapsed", time.Since(start)))
	}
	return out, nil
}

func decodeRecord(buf []byte) (Record, error) {
	var m map[string]any
	err := decodeValue(buf, reflect.ValueOf(&m))
	if err != nil {
		return nil, err
	}
	if m == nil {
		m = make(map[string]any)
	}
	return Record(m), nil
}
