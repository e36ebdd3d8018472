// Copyright (c) 2022 The Autonomy Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package kv defines the interfaces of the durable key-value storage the
// registry persists into.
package kv

// Range describes a key range [From, To).
// A nil From means the lowest key, a nil To means past the highest key.
type Range struct {
	From []byte
	To   []byte
}

// Getter wraps methods for getting kvs.
type Getter interface {
	// Get value for given key.
	// An error returned if key not found. It can be checked via IsNotFound.
	Get(key []byte) (value []byte, err error)
	Has(key []byte) (bool, error)
	IsNotFound(err error) bool

	NewIterator(r Range) Iterator
}

// Putter wraps methods for putting kvs.
type Putter interface {
	Put(key, value []byte) error
	Delete(key []byte) error

	NewBatch() Batch
}

// GetPutter wraps methods for getting/putting kvs.
type GetPutter interface {
	Getter
	Putter
}

// GetPutCloser with close method.
type GetPutCloser interface {
	GetPutter
	Close() error
}

// Batch defines batch of putting ops.
type Batch interface {
	Putter

	Len() int
	Write() error
}

// Iterator iterates kvs within a range, in both directions.
// It starts before the first entry; move it with First/Last/Next/Prev/Seek.
type Iterator interface {
	First() bool
	Last() bool
	Next() bool
	Prev() bool
	// Seek moves the iterator to the first key >= the given key,
	// returning false if no such key exists.
	Seek(key []byte) bool

	Key() []byte
	Value() []byte

	Release()
	Error() error
}
