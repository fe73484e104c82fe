/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package store

import (
	"errors"
	"testing"

	"github.com/hyperledger/aries-framework-go/component/storageutil/mem"
	mockstorage "github.com/hyperledger/aries-framework-go/component/storageutil/mock/storage"
	"github.com/hyperledger/aries-framework-go/spi/storage"
	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-did-registry/pkg/registry/errkind"
	"github.com/hyperledger/aries-did-registry/pkg/registry/types"
)

func newStore(t *testing.T, opts ...Opt) *Store {
	t.Helper()

	s, err := New(mem.NewProvider(), opts...)
	require.NoError(t, err)

	return s
}

func TestCounterKey(t *testing.T) {
	key := CounterKey("owner", 42)
	require.Equal(t, "owner/0000000042", key)

	id, err := ParseCounter(key)
	require.NoError(t, err)
	require.Equal(t, types.IncID(42), id)

	_, err = ParseCounter("owner/x")
	require.True(t, errors.Is(err, errkind.MalformedInput))

	require.Less(t, CounterKey("a", 9), CounterKey("a", 10))
}

func TestNew(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		s := newStore(t)
		require.Len(t, s.stores, len(Namespaces))
	})

	t.Run("open store failure", func(t *testing.T) {
		provider := mockstorage.NewMockStoreProvider()
		provider.FailNamespace = Revocations

		_, err := New(provider)
		require.Error(t, err)
		require.Contains(t, err.Error(), Revocations)
	})
}

func TestTx(t *testing.T) {
	for _, cacheSize := range []int{0, 16} {
		s := newStore(t, WithCacheSize(cacheSize))

		t.Run("reads observe own writes", func(t *testing.T) {
			tx := s.Begin()
			defer tx.Discard()

			tx.Put(Blobs, "a", []byte("1"))

			v, err := tx.Get(Blobs, "a")
			require.NoError(t, err)
			require.Equal(t, []byte("1"), v)

			tx.Delete(Blobs, "a")

			_, err = tx.Get(Blobs, "a")
			require.True(t, errors.Is(err, ErrNotFound))
		})

		t.Run("discard drops writes", func(t *testing.T) {
			tx := s.Begin()
			tx.Put(Blobs, "b", []byte("2"))
			tx.Discard()

			tx = s.Begin()
			defer tx.Discard()

			ok, err := tx.Has(Blobs, "b")
			require.NoError(t, err)
			require.False(t, ok)
		})

		t.Run("commit persists writes and deletes", func(t *testing.T) {
			tx := s.Begin()
			tx.Put(Blobs, "c", []byte("3"))
			tx.Put(Anchors, "d", nil)
			require.NoError(t, tx.Commit())

			tx = s.Begin()
			ok, err := tx.Has(Anchors, "d")
			require.NoError(t, err)
			require.True(t, ok)

			tx.Delete(Blobs, "c")
			require.NoError(t, tx.Commit())

			tx = s.Begin()
			defer tx.Discard()

			ok, err = tx.Has(Blobs, "c")
			require.NoError(t, err)
			require.False(t, ok)
		})

		t.Run("closed transaction", func(t *testing.T) {
			tx := s.Begin()
			require.NoError(t, tx.Commit())

			_, err := tx.Get(Blobs, "a")
			require.True(t, errors.Is(err, ErrTxClosed))
			require.True(t, errors.Is(tx.Commit(), ErrTxClosed))

			_, err = tx.Query(Blobs, storage.Tag{Name: "x"})
			require.True(t, errors.Is(err, ErrTxClosed))

			tx.Discard()
		})
	}
}

func TestTxQuery(t *testing.T) {
	s := newStore(t)
	owner := storage.Tag{Name: "owner", Value: "aa"}
	other := storage.Tag{Name: "owner", Value: "bb"}

	tx := s.Begin()
	tx.Put(DidKeys, Key("aa", "00000001"), []byte("k1"), owner)
	tx.Put(DidKeys, Key("aa", "00000002"), []byte("k2"), owner)
	tx.Put(DidKeys, Key("bb", "00000001"), []byte("k3"), other)
	require.NoError(t, tx.Commit())

	tx = s.Begin()
	defer tx.Discard()

	tx.Put(DidKeys, Key("aa", "00000003"), []byte("k4"), owner)
	tx.Delete(DidKeys, Key("aa", "00000001"))

	entries, err := tx.Query(DidKeys, owner)
	require.NoError(t, err)
	require.Equal(t, []Entry{
		{Key: Key("aa", "00000002"), Value: []byte("k2")},
		{Key: Key("aa", "00000003"), Value: []byte("k4")},
	}, entries)

	entries, err = tx.Query(DidKeys, storage.Tag{Name: "owner"})
	require.NoError(t, err)
	require.Len(t, entries, 3)

	n, err := tx.DeleteTagged(DidKeys, owner)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	entries, err = tx.Query(DidKeys, owner)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestLoadSave(t *testing.T) {
	s := newStore(t)

	tx := s.Begin()
	defer tx.Discard()

	did := types.Did{1}
	tx.Save(Dids, did.String(), did)

	var out types.Did
	ok, err := tx.Load(Dids, did.String(), &out)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, did, out)

	ok, err = tx.Load(Dids, "missing", &out)
	require.NoError(t, err)
	require.False(t, ok)

	tx.Put(Dids, "short", []byte{1})
	_, err = tx.Load(Dids, "short", &out)
	require.Error(t, err)
}

func TestStorageFailures(t *testing.T) {
	t.Run("get", func(t *testing.T) {
		provider := mockstorage.NewMockStoreProvider()
		provider.Store.ErrGet = errors.New("get error")

		s, err := New(provider)
		require.NoError(t, err)

		tx := s.Begin()
		defer tx.Discard()

		_, err = tx.Get(Blobs, "a")
		require.Contains(t, err.Error(), "get error")

		_, err = tx.Has(Blobs, "a")
		require.Error(t, err)
	})

	t.Run("query", func(t *testing.T) {
		provider := mockstorage.NewMockStoreProvider()
		provider.Store.ErrQuery = errors.New("query error")

		s, err := New(provider)
		require.NoError(t, err)

		tx := s.Begin()
		defer tx.Discard()

		_, err = tx.Query(Blobs, storage.Tag{Name: "x"})
		require.Contains(t, err.Error(), "query error")
	})

	t.Run("batch", func(t *testing.T) {
		provider := mockstorage.NewMockStoreProvider()
		provider.Store.ErrBatch = errors.New("batch error")

		s, err := New(provider)
		require.NoError(t, err)

		tx := s.Begin()
		tx.Put(Blobs, "a", []byte("1"))
		require.Contains(t, tx.Commit().Error(), "batch error")

		provider.Store.ErrBatch = nil

		tx = s.Begin()
		defer tx.Discard()

		ok, err := tx.Has(Blobs, "a")
		require.NoError(t, err)
		require.False(t, ok)
	})
}

func TestCommitAtomicity(t *testing.T) {
	t.Run("failed namespace restores earlier namespaces", func(t *testing.T) {
		provider := &failingBatchProvider{Provider: mem.NewProvider(), failing: Events}

		s, err := New(provider)
		require.NoError(t, err)

		tx := s.Begin()
		tx.Put(Dids, "kept", []byte("old"), storage.Tag{Name: "owner", Value: "a"})
		require.NoError(t, tx.Commit())

		tx = s.Begin()
		tx.Put(Dids, "kept", []byte("new"), storage.Tag{Name: "owner", Value: "b"})
		tx.Put(Dids, "added", []byte("1"))
		tx.Put(Events, "event", []byte("2"))

		err = tx.Commit()
		require.Error(t, err)
		require.Contains(t, err.Error(), "disk full")

		tx = s.Begin()
		defer tx.Discard()

		has, err := tx.Has(Dids, "added")
		require.NoError(t, err)
		require.False(t, has)

		v, err := tx.Get(Dids, "kept")
		require.NoError(t, err)
		require.Equal(t, []byte("old"), v)

		entries, err := tx.Query(Dids, storage.Tag{Name: "owner", Value: "a"})
		require.NoError(t, err)
		require.Len(t, entries, 1)

		has, err = tx.Has(Events, "event")
		require.NoError(t, err)
		require.False(t, has)
	})

	t.Run("restore failure is reported", func(t *testing.T) {
		provider := &failingBatchProvider{Provider: mem.NewProvider(), failing: Events}

		s, err := New(provider)
		require.NoError(t, err)

		provider.stores[Dids].failAfter = 1

		tx := s.Begin()
		tx.Put(Dids, "a", []byte("1"))
		tx.Put(Events, "b", []byte("2"))

		err = tx.Commit()
		require.Error(t, err)
		require.Contains(t, err.Error(), "disk full")
		require.Contains(t, err.Error(), "restore "+Dids)
	})
}

// failingBatchProvider wraps every store so that Batch can be made to fail. The store named failing
// rejects every Batch call.
type failingBatchProvider struct {
	storage.Provider
	failing string
	stores  map[string]*failingBatchStore
}

func (p *failingBatchProvider) OpenStore(name string) (storage.Store, error) {
	st, err := p.Provider.OpenStore(name)
	if err != nil {
		return nil, err
	}

	fs := &failingBatchStore{Store: st, failAfter: -1}
	if name == p.failing {
		fs.failAfter = 0
	}

	if p.stores == nil {
		p.stores = make(map[string]*failingBatchStore)
	}

	p.stores[name] = fs

	return fs, nil
}

// failingBatchStore fails every Batch call once failAfter calls have succeeded. A negative failAfter
// never fails.
type failingBatchStore struct {
	storage.Store
	failAfter int
	calls     int
}

func (s *failingBatchStore) Batch(ops []storage.Operation) error {
	if s.failAfter >= 0 && s.calls >= s.failAfter {
		return errors.New("disk full")
	}

	s.calls++

	return s.Store.Batch(ops)
}

func TestSavepoint(t *testing.T) {
	s := newStore(t)

	tx := s.Begin()
	tx.Put(Blobs, "kept", []byte("1"))

	sp := tx.Savepoint()
	tx.Put(Blobs, "dropped", []byte("2"))
	tx.Put(Blobs, "kept", []byte("3"))
	tx.Delete(Blobs, "kept")
	tx.Rollback(sp)

	v, err := tx.Get(Blobs, "kept")
	require.NoError(t, err)
	require.Equal(t, []byte("1"), v)

	_, err = tx.Get(Blobs, "dropped")
	require.True(t, errors.Is(err, ErrNotFound))
	require.NoError(t, tx.Commit())

	tx = s.Begin()
	defer tx.Discard()

	has, err := tx.Has(Blobs, "dropped")
	require.NoError(t, err)
	require.False(t, has)
}
