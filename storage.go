package docrel

import "errors"

// ErrBucketNotFound is returned by storageTx.DeleteBucket when the bucket doesn't exist.
var ErrBucketNotFound = errors.New("bucket not found")

var errStorageClosed = errors.New("storage closed")

// storage represents a key-value storage backend (Bolt, in-memory, etc.).
// Every table lives in its own root bucket.
type storage interface {
	// BeginTx starts a new transaction.
	BeginTx(writable bool) (storageTx, error)
	// Close closes the storage.
	Close() error
}

// storageTx represents a storage transaction.
type storageTx interface {
	// Bucket returns a root bucket, or nil if it doesn't exist.
	Bucket(name string) storageBucket

	// CreateBucket creates a root bucket if it doesn't exist.
	CreateBucket(name string) (storageBucket, error)

	// DeleteBucket deletes a root bucket and everything in it.
	DeleteBucket(name string) error

	// BucketNames lists root buckets in key order.
	BucketNames() []string

	// Commit commits the transaction.
	Commit() error

	// Rollback aborts the transaction. It should be safe to call multiple times.
	Rollback() error
}

// storageBucket represents a bucket (sorted key-value collection).
type storageBucket interface {
	// Put stores a key-value pair.
	Put(key, value []byte) error

	// NextSequence returns an autoincrementing integer for the bucket.
	NextSequence() (uint64, error)

	// Cursor returns a cursor for iteration.
	Cursor() storageCursor

	// Stats returns key count and space usage of the bucket.
	Stats() bucketStats
}

type bucketStats struct {
	Keys      int
	DataSize  int
	DataAlloc int
}

// storageCursor iterates over a sorted bucket.
type storageCursor interface {
	// First moves to the first key-value pair.
	First() (key, value []byte)

	// Next moves to the next key-value pair.
	Next() (key, value []byte)
}
