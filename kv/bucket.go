// Copyright (c) 2022 The Autonomy Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

import "bytes"

// Bucket provides a logical key space within a kv store, by key prefixing.
type Bucket string

// ProvisionKey returns the full store key for a key within the bucket.
func (b Bucket) ProvisionKey(key []byte) []byte {
	return append([]byte(b), key...)
}

// NewStore creates a bucket-scoped store from the source store.
// Keys observed through the returned store have the bucket prefix stripped.
func (b Bucket) NewStore(src GetPutter) GetPutter {
	return &bucketStore{b, src}
}

// NewGetter creates a bucket-scoped getter from the source getter.
func (b Bucket) NewGetter(src Getter) Getter {
	return &bucketStore{b, struct {
		Getter
		Putter
	}{Getter: src}}
}

type bucketStore struct {
	bkt Bucket
	src GetPutter
}

func (s *bucketStore) Get(key []byte) ([]byte, error) {
	return s.src.Get(s.bkt.ProvisionKey(key))
}

func (s *bucketStore) Has(key []byte) (bool, error) {
	return s.src.Has(s.bkt.ProvisionKey(key))
}

func (s *bucketStore) IsNotFound(err error) bool {
	return s.src.IsNotFound(err)
}

func (s *bucketStore) Put(key, value []byte) error {
	return s.src.Put(s.bkt.ProvisionKey(key), value)
}

func (s *bucketStore) Delete(key []byte) error {
	return s.src.Delete(s.bkt.ProvisionKey(key))
}

func (s *bucketStore) NewBatch() Batch {
	return &bucketBatch{s.bkt, s.src.NewBatch()}
}

func (s *bucketStore) NewIterator(r Range) Iterator {
	return &bucketIterator{s.bkt, s.src.NewIterator(s.bkt.MakeRange(r))}
}

// MakeRange converts a bucket-relative range into a store range.
func (b Bucket) MakeRange(r Range) Range {
	from := b.ProvisionKey(r.From)
	var to []byte
	if r.To != nil {
		to = b.ProvisionKey(r.To)
	} else {
		// the smallest key greater than every key prefixed with the bucket
		to = bytes.Clone([]byte(b))
		for i := len(to) - 1; i >= 0; i-- {
			if to[i] != 0xff {
				to[i]++
				to = to[:i+1]
				break
			}
			if i == 0 {
				to = nil
			}
		}
	}
	return Range{From: from, To: to}
}

type bucketBatch struct {
	bkt   Bucket
	batch Batch
}

func (b *bucketBatch) Put(key, value []byte) error {
	return b.batch.Put(b.bkt.ProvisionKey(key), value)
}

func (b *bucketBatch) Delete(key []byte) error {
	return b.batch.Delete(b.bkt.ProvisionKey(key))
}

func (b *bucketBatch) NewBatch() Batch {
	return &bucketBatch{b.bkt, b.batch.NewBatch()}
}

func (b *bucketBatch) Len() int { return b.batch.Len() }

func (b *bucketBatch) Write() error { return b.batch.Write() }

type bucketIterator struct {
	bkt Bucket
	it  Iterator
}

func (i *bucketIterator) First() bool { return i.it.First() }
func (i *bucketIterator) Last() bool  { return i.it.Last() }
func (i *bucketIterator) Next() bool  { return i.it.Next() }
func (i *bucketIterator) Prev() bool  { return i.it.Prev() }

func (i *bucketIterator) Seek(key []byte) bool {
	return i.it.Seek(i.bkt.ProvisionKey(key))
}

func (i *bucketIterator) Key() []byte {
	return i.it.Key()[len(i.bkt):]
}

func (i *bucketIterator) Value() []byte { return i.it.Value() }
func (i *bucketIterator) Release()      { i.it.Release() }
func (i *bucketIterator) Error() error  { return i.it.Error() }
