/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package store is the transactional key-value state of the registry. Writes made through a Tx are
// buffered in an overlay and reach the underlying aries storage provider only on Commit.
package store

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/bluele/gcache"
	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/hyperledger/aries-framework-go/spi/storage"
	pkgerrors "github.com/pkg/errors"

	"github.com/hyperledger/aries-did-registry/pkg/registry/errkind"
	"github.com/hyperledger/aries-did-registry/pkg/registry/types"
)

var logger = log.New("aries-registry/store")

// Namespaces of the registry state.
const (
	Dids                     = "Dids"
	DidKeys                  = "DidKeys"
	DidControllers           = "DidControllers"
	DidServiceEndpoints      = "DidServiceEndpoints"
	DidMethodKeys            = "DidMethodKeys"
	RevocationRegistries     = "RevocationRegistries"
	Revocations              = "Revocations"
	Blobs                    = "Blobs"
	Anchors                  = "Anchors"
	Attestations             = "Attestations"
	StatusListCredentials    = "StatusListCredentials"
	SignatureParams          = "SignatureParams"
	OffchainPublicKeys       = "OffchainPublicKeys"
	ParamsCounter            = "ParamsCounter"
	AccumulatorParams        = "AccumulatorParams"
	AccumulatorKeys          = "AccumulatorKeys"
	Accumulators             = "Accumulators"
	AccumulatorOwnerCounters = "AccumulatorOwnerCounters"
	TrustRegistries          = "TrustRegistries"
	TrustRegistrySchemas     = "TrustRegistrySchemas"
	TrustRegistryIssuers     = "TrustRegistryIssuers"
	Master                   = "Master"
	Events                   = "Events"
)

// Namespaces lists every namespace opened by New.
var Namespaces = []string{
	Dids, DidKeys, DidControllers, DidServiceEndpoints, DidMethodKeys,
	RevocationRegistries, Revocations, Blobs, Anchors, Attestations, StatusListCredentials,
	SignatureParams, OffchainPublicKeys, ParamsCounter,
	AccumulatorParams, AccumulatorKeys, Accumulators, AccumulatorOwnerCounters,
	TrustRegistries, TrustRegistrySchemas, TrustRegistryIssuers,
	Master, Events,
}

// ErrNotFound is returned by Get when a key holds no value.
var ErrNotFound = storage.ErrDataNotFound

const (
	defaultCacheSize = 4096
	keySeparator     = "/"
)

// Key joins key parts with the key separator.
func Key(parts ...string) string {
	return strings.Join(parts, keySeparator)
}

// CounterKey joins owner and a zero padded counter so that the keys of one owner sort by counter.
func CounterKey(owner string, id types.IncID) string {
	return Key(owner, fmt.Sprintf("%010d", uint32(id)))
}

// ParseCounter returns the counter part of a key built by CounterKey.
func ParseCounter(key string) (types.IncID, error) {
	id, err := strconv.ParseUint(key[strings.LastIndex(key, keySeparator)+1:], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: counter key %q", errkind.MalformedInput, key)
	}

	return types.IncID(id), nil
}

// Entry is a key and value returned by a query.
type Entry struct {
	Key   string
	Value []byte
}

type opts struct {
	cacheSize int
}

// Opt configures a Store.
type Opt func(*opts)

// WithCacheSize sets the number of committed values kept in the read cache. Zero disables the cache.
func WithCacheSize(size int) Opt {
	return func(o *opts) {
		o.cacheSize = size
	}
}

// Store holds one aries storage store per namespace.
type Store struct {
	mu     sync.Mutex
	stores map[string]storage.Store
	cache  gcache.Cache
}

type cached struct {
	value []byte
	found bool
}

// New opens every namespace in provider.
func New(provider storage.Provider, options ...Opt) (*Store, error) {
	o := &opts{cacheSize: defaultCacheSize}

	for _, opt := range options {
		opt(o)
	}

	s := &Store{stores: make(map[string]storage.Store, len(Namespaces))}

	if o.cacheSize > 0 {
		s.cache = gcache.New(o.cacheSize).LRU().Build()
	}

	for _, ns := range Namespaces {
		st, err := provider.OpenStore(ns)
		if err != nil {
			return nil, fmt.Errorf("open store %s: %w", ns, err)
		}

		s.stores[ns] = st
	}

	return s, nil
}

// Begin starts a transaction. Transactions on the same Store are serialized: Begin blocks until the
// previous transaction is committed or discarded.
func (s *Store) Begin() *Tx {
	s.mu.Lock()

	return &Tx{store: s, writes: make(map[string]map[string]*write)}
}

func (s *Store) namespace(ns string) (storage.Store, error) {
	st, ok := s.stores[ns]
	if !ok {
		return nil, fmt.Errorf("unknown namespace %s", ns)
	}

	return st, nil
}

func cacheKey(ns, key string) string {
	return ns + "\x00" + key
}

func (s *Store) get(ns, key string) ([]byte, error) {
	if s.cache != nil {
		if v, err := s.cache.Get(cacheKey(ns, key)); err == nil {
			c := v.(cached) //nolint:errcheck,forcetypeassert

			if !c.found {
				return nil, ErrNotFound
			}

			return c.value, nil
		}
	}

	st, err := s.namespace(ns)
	if err != nil {
		return nil, err
	}

	value, err := st.Get(key)

	switch {
	case errors.Is(err, storage.ErrDataNotFound):
		s.remember(ns, key, nil, false)

		return nil, ErrNotFound
	case err != nil:
		return nil, pkgerrors.Wrapf(err, "get %s from %s", key, ns)
	}

	s.remember(ns, key, value, true)

	return value, nil
}

func (s *Store) remember(ns, key string, value []byte, found bool) {
	if s.cache == nil {
		return
	}

	if err := s.cache.Set(cacheKey(ns, key), cached{value: value, found: found}); err != nil {
		logger.Warnf("cache %s/%s: %s", ns, key, err)
	}
}

func (s *Store) query(ns string, tag storage.Tag) (map[string][]byte, error) {
	st, err := s.namespace(ns)
	if err != nil {
		return nil, err
	}

	expression := tag.Name
	if tag.Value != "" {
		expression += ":" + tag.Value
	}

	iter, err := st.Query(expression)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "query %s in %s", expression, ns)
	}

	defer storage.Close(iter, logger)

	results := make(map[string][]byte)

	for {
		ok, err := iter.Next()
		if err != nil {
			return nil, pkgerrors.Wrap(err, "iterate query results")
		}

		if !ok {
			return results, nil
		}

		key, err := iter.Key()
		if err != nil {
			return nil, pkgerrors.Wrap(err, "read query key")
		}

		value, err := iter.Value()
		if err != nil {
			return nil, pkgerrors.Wrap(err, "read query value")
		}

		results[key] = value
	}
}

func sortedEntries(m map[string][]byte) []Entry {
	entries := make([]Entry, 0, len(m))

	for k, v := range m {
		entries = append(entries, Entry{Key: k, Value: v})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })

	return entries
}
