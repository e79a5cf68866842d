package docrel

import (
	"context"
	"encoding/json"
)

type TableStats struct {
	Name string
	Rows int

	DataSize  int
	DataAlloc int
}

// TableStats reports row counts and space usage for every table, in name order.
func (s *Store) TableStats(ctx context.Context) ([]TableStats, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	var result []TableStats
	err := s.tx(ctx, false, "stats", "", func(tx storageTx) error {
		for _, name := range tx.BucketNames() {
			result = append(result, tableStatsOf(name, tx.Bucket(name)))
		}
		return nil
	})
	return result, err
}

func tableStatsOf(name string, b storageBucket) TableStats {
	bs := b.Stats()
	return TableStats{
		Name:      name,
		Rows:      bs.Keys,
		DataSize:  bs.DataSize,
		DataAlloc: bs.DataAlloc,
	}
}

func loggableVal(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return "<unloggable>"
	}
	return string(raw)
}
