/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package store

import (
	"errors"
	"fmt"
	"sort"

	"github.com/hyperledger/aries-framework-go/spi/storage"
	pkgerrors "github.com/pkg/errors"

	"github.com/hyperledger/aries-did-registry/pkg/registry/scale"
)

// ErrTxClosed is returned when a committed or discarded transaction is used.
var ErrTxClosed = errors.New("transaction closed")

// write is a buffered put, or a delete when value is nil.
type write struct {
	value []byte
	tags  []storage.Tag
}

// Tx is a transaction over a Store. Reads observe the transaction's own writes.
type Tx struct {
	store  *Store
	writes map[string]map[string]*write
	closed bool
}

// Get returns the value of key in namespace ns, or ErrNotFound.
func (t *Tx) Get(ns, key string) ([]byte, error) {
	if t.closed {
		return nil, ErrTxClosed
	}

	if w, ok := t.writes[ns][key]; ok {
		if w.value == nil {
			return nil, ErrNotFound
		}

		return w.value, nil
	}

	return t.store.get(ns, key)
}

// Has reports whether key holds a value.
func (t *Tx) Has(ns, key string) (bool, error) {
	_, err := t.Get(ns, key)

	switch {
	case errors.Is(err, ErrNotFound):
		return false, nil
	case err != nil:
		return false, err
	}

	return true, nil
}

// Put buffers a write of value under key. Tags index the entry for Query.
func (t *Tx) Put(ns, key string, value []byte, tags ...storage.Tag) {
	if value == nil {
		value = []byte{}
	}

	t.set(ns, key, &write{value: value, tags: tags})
}

// Delete buffers the removal of key.
func (t *Tx) Delete(ns, key string) {
	t.set(ns, key, &write{})
}

func (t *Tx) set(ns, key string, w *write) {
	if t.closed {
		return
	}

	if t.writes[ns] == nil {
		t.writes[ns] = make(map[string]*write)
	}

	t.writes[ns][key] = w
}

// Query returns the entries of ns tagged with tag, sorted by key.
func (t *Tx) Query(ns string, tag storage.Tag) ([]Entry, error) {
	if t.closed {
		return nil, ErrTxClosed
	}

	results, err := t.store.query(ns, tag)
	if err != nil {
		return nil, err
	}

	for key, w := range t.writes[ns] {
		switch {
		case w.value == nil:
			delete(results, key)
		case hasTag(w.tags, tag):
			results[key] = w.value
		default:
			delete(results, key)
		}
	}

	return sortedEntries(results), nil
}

// DeleteTagged buffers the removal of every entry of ns tagged with tag and returns how many were removed.
func (t *Tx) DeleteTagged(ns string, tag storage.Tag) (int, error) {
	entries, err := t.Query(ns, tag)
	if err != nil {
		return 0, err
	}

	for _, e := range entries {
		t.Delete(ns, e.Key)
	}

	return len(entries), nil
}

func hasTag(tags []storage.Tag, tag storage.Tag) bool {
	for _, t := range tags {
		if t.Name == tag.Name && (tag.Value == "" || t.Value == tag.Value) {
			return true
		}
	}

	return false
}

// Commit writes the buffered operations through one Batch per namespace and releases the Store.
// When a namespace fails, the namespaces written before it are restored to their previous state.
func (t *Tx) Commit() error {
	if t.closed {
		return ErrTxClosed
	}

	defer t.release()

	namespaces := make([]string, 0, len(t.writes))
	for ns, writes := range t.writes {
		if len(writes) > 0 {
			namespaces = append(namespaces, ns)
		}
	}

	sort.Strings(namespaces)

	undos := make([]*undo, 0, len(namespaces))

	for _, ns := range namespaces {
		u, err := t.commitNamespace(ns)
		if err != nil {
			t.forgetWrites()

			return restore(undos, err)
		}

		undos = append(undos, u)
	}

	for ns, writes := range t.writes {
		for k, w := range writes {
			t.store.remember(ns, k, w.value, w.value != nil)
		}
	}

	return nil
}

// undo holds the previous state of the keys a namespace commit overwrote.
type undo struct {
	ns    string
	store storage.Store
	ops   []storage.Operation
}

func (t *Tx) commitNamespace(ns string) (*undo, error) {
	writes := t.writes[ns]

	st, err := t.store.namespace(ns)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(writes))
	for k := range writes {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	u := &undo{ns: ns, store: st, ops: make([]storage.Operation, 0, len(keys))}
	ops := make([]storage.Operation, 0, len(keys))

	for _, k := range keys {
		prev, err := preimage(st, k)
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "read %s from %s before commit", k, ns)
		}

		u.ops = append(u.ops, prev)
		ops = append(ops, storage.Operation{Key: k, Value: writes[k].value, Tags: writes[k].tags})
	}

	if err := st.Batch(ops); err != nil {
		return nil, pkgerrors.Wrapf(err, "commit %d operations to %s", len(ops), ns)
	}

	return u, nil
}

// preimage returns the operation that puts key back as it is now. Absent keys are restored by a delete.
func preimage(st storage.Store, key string) (storage.Operation, error) {
	value, err := st.Get(key)

	switch {
	case errors.Is(err, storage.ErrDataNotFound):
		return storage.Operation{Key: key}, nil
	case err != nil:
		return storage.Operation{}, err
	}

	tags, err := st.GetTags(key)
	if err != nil {
		return storage.Operation{}, err
	}

	return storage.Operation{Key: key, Value: value, Tags: tags}, nil
}

// restore writes back the namespaces in undos, newest first, and returns cause with any restore failures.
func restore(undos []*undo, cause error) error {
	err := cause

	for i := len(undos) - 1; i >= 0; i-- {
		u := undos[i]

		if restoreErr := u.store.Batch(u.ops); restoreErr != nil {
			logger.Errorf("restore %d keys of %s after failed commit: %s", len(u.ops), u.ns, restoreErr)

			err = fmt.Errorf("%w; restore %s: %v", err, u.ns, restoreErr)
		}
	}

	return err
}

func (t *Tx) forgetWrites() {
	for ns, writes := range t.writes {
		for k := range writes {
			t.store.forget(ns, k)
		}
	}
}

// Discard drops the buffered operations and releases the Store.
func (t *Tx) Discard() {
	if t.closed {
		return
	}

	t.release()
}

func (t *Tx) release() {
	t.closed = true
	t.writes = nil
	t.store.mu.Unlock()
}

func (s *Store) forget(ns, key string) {
	if s.cache != nil {
		s.cache.Remove(cacheKey(ns, key))
	}
}

// Load decodes the value of key into v. It returns false when key holds no value.
func (t *Tx) Load(ns, key string, v scale.Decodable) (bool, error) {
	raw, err := t.Get(ns, key)

	switch {
	case errors.Is(err, ErrNotFound):
		return false, nil
	case err != nil:
		return false, err
	}

	if err := scale.Decode(raw, v); err != nil {
		return false, fmt.Errorf("decode %s/%s: %w", ns, key, err)
	}

	return true, nil
}

// Save encodes v and buffers it under key.
func (t *Tx) Save(ns, key string, v scale.Encodable, tags ...storage.Tag) {
	t.Put(ns, key, scale.Encode(v), tags...)
}

// Savepoint is a mark of the buffered writes of a transaction.
type Savepoint struct {
	writes map[string]map[string]*write
}

// Savepoint marks the current writes so that later ones can be dropped with Rollback.
func (t *Tx) Savepoint() Savepoint {
	snapshot := make(map[string]map[string]*write, len(t.writes))

	for ns, writes := range t.writes {
		copied := make(map[string]*write, len(writes))

		for key, w := range writes {
			copied[key] = w
		}

		snapshot[ns] = copied
	}

	return Savepoint{writes: snapshot}
}

// Rollback drops every write buffered since sp was taken.
func (t *Tx) Rollback(sp Savepoint) {
	if t.closed {
		return
	}

	t.writes = sp.writes
}
