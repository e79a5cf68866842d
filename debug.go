package docrel

import (
	"context"
	"encoding/binary"
	"fmt"
	"strings"
)

type DumpFlags uint64

const (
	DumpTableHeaders = DumpFlags(1 << iota)
	DumpRows
	DumpStats

	DumpAll = DumpFlags(0xFFFFFFFFFFFFFFFF)
)

var (
	dumpSep1 = strings.Repeat("=", 80)
	dumpSep2 = strings.Repeat("-", 60)
)

func (f DumpFlags) Contains(v DumpFlags) bool {
	return (f & v) == v
}

// Dump renders the given tables (all tables if none are named) as text,
// one line per row. Rows that fail to decode are reported inline.
func (s *Store) Dump(ctx context.Context, f DumpFlags, tables ...string) (string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	var buf strings.Builder
	err := s.tx(ctx, false, "dump", "", func(tx storageTx) error {
		if len(tables) == 0 {
			tables = tx.BucketNames()
		}
		for _, name := range tables {
			b := tx.Bucket(name)
			if b == nil {
				continue
			}
			if err := dumpTable(ctx, &buf, f, name, b); err != nil {
				return err
			}
		}
		return nil
	})
	return buf.String(), err
}

func dumpTable(ctx context.Context, w *strings.Builder, f DumpFlags, name string, b storageBucket) error {
	ts := tableStatsOf(name, b)
	if f.Contains(DumpTableHeaders) {
		fmt.Fprintln(w, dumpSep1)
		fmt.Fprintf(w, "%s (%d rows)\n", name, ts.Rows)
	}
	if f.Contains(DumpStats) {
		fmt.Fprintf(w, "%s.stats: data_size = %d, data_alloc = %d\n", name, ts.DataSize, ts.DataAlloc)
	}
	if !f.Contains(DumpRows) {
		return nil
	}
	if f.Contains(DumpStats) {
		fmt.Fprintln(w, dumpSep2)
	}
	c := b.Cursor()
	var pos int
	for k, v := c.First(); k != nil; k, v = c.Next() {
		pos++
		if pos%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return unavailableErrf("dump", name, err)
			}
		}
		rec, err := decodeRecord(v)
		if err != nil {
			fmt.Fprintf(w, "%s.%d = (#%s) ** ERROR: %v\n", name, pos, rawKeyString(k), err)
			continue
		}
		fmt.Fprintf(w, "%s.%d = (#%s) %s\n", name, pos, rawKeyString(k), loggableVal(rec))
	}
	return nil
}

func rawKeyString(k []byte) string {
	if len(k) == 8 {
		return fmt.Sprint(binary.BigEndian.Uint64(k))
	}
	return fmt.Sprintf("%x", k)
}
