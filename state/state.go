// Copyright (c) 2022 The Autonomy Network developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package state provides a journaled view over a kv store.
//
// All writes are buffered in a stacked map until Commit, and can be unwound
// to any checkpoint. A handler call is made all-or-nothing by taking a
// checkpoint at entry, reverting to it on error, and committing on success.
package state

import (
	"fmt"

	"github.com/autonomy-network/autonomy-registry/kv"
	"github.com/autonomy-network/autonomy-registry/stackedmap"
)

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

// Unwrap returns the underlying storage error.
func (e *Error) Unwrap() error { return e.cause }

type storageKey string

// StorageEncoder the interface of types which can be encoded into storage values.
type StorageEncoder interface {
	Encode() ([]byte, error)
}

// StorageDecoder the interface of types which can be restored from storage values.
type StorageDecoder interface {
	Decode([]byte) error
}

// State a journaled view over a kv store.
// A zero-length value means the key is absent; committing it deletes the key.
type State struct {
	store  kv.GetPutter
	getter stackedmap.MapGetter
	sm     *stackedmap.StackedMap
}

// New creates a state over the given store.
func New(store kv.GetPutter) *State {
	s := &State{store: store}
	s.getter = func(key any) (any, bool, error) {
		raw, err := store.Get([]byte(key.(storageKey)))
		if err != nil {
			if store.IsNotFound(err) {
				return []byte(nil), true, nil
			}
			return nil, false, &Error{err}
		}
		return raw, true, nil
	}
	s.sm = stackedmap.New(s.getter)
	// the base layer holds writes until commit
	s.sm.Push()
	return s
}

// Get returns the raw value for the given key, nil when absent.
func (s *State) Get(key []byte) ([]byte, error) {
	v, _, err := s.sm.Get(storageKey(key))
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Set buffers the raw value for the given key.
// An empty value marks the key for deletion.
func (s *State) Set(key, value []byte) {
	s.sm.Put(storageKey(key), value)
}

// DecodeStorage decodes the stored value of the given key into the decoder.
// The decoder sees a zero-length input when the key is absent.
func (s *State) DecodeStorage(key []byte, dec StorageDecoder) error {
	raw, err := s.Get(key)
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

// EncodeStorage encodes the encoder and buffers it under the given key.
// A zero-length encoding marks the key for deletion.
func (s *State) EncodeStorage(key []byte, enc StorageEncoder) error {
	raw, err := enc.Encode()
	if err != nil {
		return err
	}
	s.Set(key, raw)
	return nil
}

// NewCheckpoint makes a checkpoint of the current state.
// It returns the checkpoint to be passed to RevertTo.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo reverts the state to the given checkpoint.
func (s *State) RevertTo(checkpoint int) {
	s.sm.PopTo(checkpoint)
}

// Commit writes all buffered changes into the store in one batch,
// then resets the journal.
func (s *State) Commit() error {
	batch := s.store.NewBatch()
	var jerr error
	s.sm.Journal(func(key, value any) bool {
		k := []byte(key.(storageKey))
		v := value.([]byte)
		if len(v) == 0 {
			jerr = batch.Delete(k)
		} else {
			jerr = batch.Put(k, v)
		}
		return jerr == nil
	})
	if jerr != nil {
		return &Error{jerr}
	}
	if err := batch.Write(); err != nil {
		return &Error{err}
	}
	// drop the journal, further reads fall through to the store
	s.sm = stackedmap.New(s.getter)
	s.sm.Push()
	return nil
}

// NewIterator iterates the committed store within the given range.
// Buffered, uncommitted writes are not observed.
func (s *State) NewIterator(r kv.Range) kv.Iterator {
	return s.store.NewIterator(r)
}
