// Copyright (c) 2022 The Autonomy Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autonomy-network/autonomy-registry/kv"
	"github.com/autonomy-network/autonomy-registry/lvldb"
	"github.com/autonomy-network/autonomy-registry/state"
)

func newTestState(t *testing.T) (*state.State, *lvldb.LevelDB) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return state.New(db), db
}

func TestStateGetSet(t *testing.T) {
	st, _ := newTestState(t)

	v, err := st.Get([]byte("missing"))
	require.NoError(t, err)
	assert.Empty(t, v)

	st.Set([]byte("k"), []byte("v"))
	v, err = st.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)
}

func TestStateCheckpointRevert(t *testing.T) {
	st, _ := newTestState(t)
	st.Set([]byte("k"), []byte("v"))

	checkpoint := st.NewCheckpoint()
	st.Set([]byte("k"), []byte("v2"))
	st.Set([]byte("other"), []byte("x"))

	st.RevertTo(checkpoint)

	v, err := st.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)
	v, err = st.Get([]byte("other"))
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestStateCommit(t *testing.T) {
	st, db := newTestState(t)

	st.Set([]byte("a"), []byte("1"))
	st.Set([]byte("b"), []byte("2"))
	require.NoError(t, st.Commit())

	v, err := db.Get([]byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), v)

	// empty value deletes on commit
	st.Set([]byte("a"), nil)
	require.NoError(t, st.Commit())
	_, err = db.Get([]byte("a"))
	assert.True(t, db.IsNotFound(err))

	// committed values are readable through a fresh state
	fresh := state.New(db)
	v, err = fresh.Get([]byte("b"))
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), v)
}

func TestStateIteratorSeesCommittedOnly(t *testing.T) {
	st, _ := newTestState(t)

	st.Set([]byte("p/a"), []byte("1"))
	require.NoError(t, st.Commit())
	st.Set([]byte("p/b"), []byte("2"))

	it := st.NewIterator(kv.Range{From: []byte("p/")})
	defer it.Release()

	var keys []string
	for ok := it.First(); ok; ok = it.Next() {
		keys = append(keys, string(it.Key()))
	}
	require.NoError(t, it.Error())
	assert.Equal(t, []string{"p/a"}, keys)
}

type countCodec struct {
	n uint64
}

func (c *countCodec) Encode() ([]byte, error) {
	if c.n == 0 {
		return nil, nil
	}
	return []byte{byte(c.n)}, nil
}

func (c *countCodec) Decode(data []byte) error {
	if len(data) == 0 {
		c.n = 0
		return nil
	}
	c.n = uint64(data[0])
	return nil
}

func TestStateStorageCodec(t *testing.T) {
	st, db := newTestState(t)

	// absent key decodes to the zero value
	var decoded countCodec
	require.NoError(t, st.DecodeStorage([]byte("count"), &decoded))
	assert.Equal(t, uint64(0), decoded.n)

	require.NoError(t, st.EncodeStorage([]byte("count"), &countCodec{7}))
	require.NoError(t, st.Commit())

	require.NoError(t, st.DecodeStorage([]byte("count"), &decoded))
	assert.Equal(t, uint64(7), decoded.n)

	// zero-length encoding removes the entry
	require.NoError(t, st.EncodeStorage([]byte("count"), &countCodec{0}))
	require.NoError(t, st.Commit())
	_, err := db.Get([]byte("count"))
	assert.True(t, db.IsNotFound(err))
}
