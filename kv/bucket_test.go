// Copyright (c) 2022 The Autonomy Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autonomy-network/autonomy-registry/kv"
	"github.com/autonomy-network/autonomy-registry/lvldb"
)

func openMem(t *testing.T) *lvldb.LevelDB {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestBucketProvisionKey(t *testing.T) {
	b := kv.Bucket("b/")
	assert.Equal(t, []byte("b/k"), b.ProvisionKey([]byte("k")))
	assert.Equal(t, []byte("b/"), b.ProvisionKey(nil))
}

func TestBucketStore(t *testing.T) {
	db := openMem(t)
	store := kv.Bucket("a/").NewStore(db)

	require.NoError(t, store.Put([]byte("k"), []byte("v")))

	// the source sees the prefixed key
	v, err := db.Get([]byte("a/k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)

	// the bucket view sees the bare key
	v, err = store.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)

	has, err := store.Has([]byte("k"))
	require.NoError(t, err)
	assert.True(t, has)

	_, err = store.Get([]byte("missing"))
	assert.True(t, store.IsNotFound(err))

	require.NoError(t, store.Delete([]byte("k")))
	has, err = store.Has([]byte("k"))
	require.NoError(t, err)
	assert.False(t, has)
}

func TestBucketIsolation(t *testing.T) {
	db := openMem(t)
	a := kv.Bucket("a/").NewStore(db)
	b := kv.Bucket("b/").NewStore(db)

	require.NoError(t, a.Put([]byte("k"), []byte("va")))
	require.NoError(t, b.Put([]byte("k"), []byte("vb")))

	v, err := a.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("va"), v)

	it := a.NewIterator(kv.Range{})
	defer it.Release()
	var keys []string
	for ok := it.First(); ok; ok = it.Next() {
		keys = append(keys, string(it.Key()))
	}
	require.NoError(t, it.Error())
	assert.Equal(t, []string{"k"}, keys)
}

func TestBucketMakeRange(t *testing.T) {
	b := kv.Bucket("b/")

	r := b.MakeRange(kv.Range{})
	assert.Equal(t, []byte("b/"), r.From)
	// '/'+1 == '0'
	assert.Equal(t, []byte("b0"), r.To)

	r = b.MakeRange(kv.Range{From: []byte("x"), To: []byte("y")})
	assert.Equal(t, []byte("b/x"), r.From)
	assert.Equal(t, []byte("b/y"), r.To)

	// a prefix of 0xff bytes has no upper bound
	r = kv.Bucket("\xff\xff").MakeRange(kv.Range{})
	assert.Nil(t, r.To)
}

func TestBucketIteratorBothDirections(t *testing.T) {
	db := openMem(t)
	store := kv.Bucket("p/").NewStore(db)
	for _, k := range []string{"a", "b", "c"} {
		require.NoError(t, store.Put([]byte(k), []byte(k)))
	}
	// neighbor entries outside the bucket
	require.NoError(t, db.Put([]byte("o"), []byte("x")))
	require.NoError(t, db.Put([]byte("q"), []byte("x")))

	it := store.NewIterator(kv.Range{})
	defer it.Release()

	var forward []string
	for ok := it.First(); ok; ok = it.Next() {
		forward = append(forward, string(it.Key()))
	}
	assert.Equal(t, []string{"a", "b", "c"}, forward)

	var backward []string
	for ok := it.Last(); ok; ok = it.Prev() {
		backward = append(backward, string(it.Key()))
	}
	assert.Equal(t, []string{"c", "b", "a"}, backward)

	require.True(t, it.Seek([]byte("b")))
	assert.Equal(t, "b", string(it.Key()))
}
