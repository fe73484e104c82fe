/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package registry wires every registry module over one store and runtime.
package registry

import (
	"fmt"

	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/hyperledger/aries-framework-go/spi/storage"

	"github.com/hyperledger/aries-did-registry/pkg/registry/accumulator"
	"github.com/hyperledger/aries-did-registry/pkg/registry/agreement"
	"github.com/hyperledger/aries-did-registry/pkg/registry/attest"
	"github.com/hyperledger/aries-did-registry/pkg/registry/blob"
	"github.com/hyperledger/aries-did-registry/pkg/registry/did"
	"github.com/hyperledger/aries-did-registry/pkg/registry/event"
	"github.com/hyperledger/aries-did-registry/pkg/registry/master"
	"github.com/hyperledger/aries-did-registry/pkg/registry/offchain"
	"github.com/hyperledger/aries-did-registry/pkg/registry/revoke"
	"github.com/hyperledger/aries-did-registry/pkg/registry/runtime"
	"github.com/hyperledger/aries-did-registry/pkg/registry/statuslist"
	"github.com/hyperledger/aries-did-registry/pkg/registry/store"
	"github.com/hyperledger/aries-did-registry/pkg/registry/trustregistry"
	"github.com/hyperledger/aries-did-registry/pkg/registry/types"
)

var logger = log.New("aries-registry")

type options struct {
	clock       runtime.Clock
	runtimeOpts []runtime.Opt
	storeOpts   []store.Opt
	genesis     *types.Membership
}

// Opt configures a Registry.
type Opt func(*options)

// WithClock sets the source of block numbers. The default is a manual clock at block zero.
func WithClock(c runtime.Clock) Opt {
	return func(o *options) {
		o.clock = c
	}
}

// WithLimits replaces the default size caps.
func WithLimits(limits types.Limits) Opt {
	return func(o *options) {
		o.runtimeOpts = append(o.runtimeOpts, runtime.WithLimits(limits))
	}
}

// WithNotifier adds a notifier of committed events.
func WithNotifier(n event.Notifier) Opt {
	return func(o *options) {
		o.runtimeOpts = append(o.runtimeOpts, runtime.WithNotifier(n))
	}
}

// WithCacheSize sets the size of the committed state read cache.
func WithCacheSize(size int) Opt {
	return func(o *options) {
		o.storeOpts = append(o.storeOpts, store.WithCacheSize(size))
	}
}

// WithGenesisMembership seeds the master membership when none is stored yet.
func WithGenesisMembership(m types.Membership) Opt {
	return func(o *options) {
		o.genesis = &m
	}
}

// Registry is the registry state machine.
type Registry struct {
	runtime *runtime.Runtime

	DIDs          *did.Module
	Revoke        *revoke.Module
	StatusList    *statuslist.Module
	Offchain      *offchain.Module
	Accumulator   *accumulator.Module
	Blob          *blob.Module
	Attest        *attest.Module
	TrustRegistry *trustregistry.Module
	Master        *master.Module
}

// New opens the registry state in provider.
func New(provider storage.Provider, opts ...Opt) (*Registry, error) {
	o := &options{}

	for _, opt := range opts {
		opt(o)
	}

	if o.clock == nil {
		o.clock = runtime.NewManualClock(0)
	}

	s, err := store.New(provider, o.storeOpts...)
	if err != nil {
		return nil, err
	}

	dids := did.New()

	r := &Registry{
		runtime:       runtime.New(s, o.clock, o.runtimeOpts...),
		DIDs:          dids,
		Revoke:        revoke.New(dids),
		StatusList:    statuslist.New(dids),
		Offchain:      offchain.New(dids),
		Accumulator:   accumulator.New(dids),
		Blob:          blob.New(dids),
		Attest:        attest.New(dids),
		TrustRegistry: trustregistry.New(dids),
	}
	r.Master = master.New(dids, r)

	if o.genesis != nil {
		if err := r.seed(*o.genesis); err != nil {
			return nil, err
		}
	}

	return r, nil
}

func (r *Registry) seed(membership types.Membership) error {
	_, err := r.runtime.Execute(runtime.Root(), func(ctx *runtime.Context) error {
		exists, err := r.Master.Seeded(ctx.Tx())
		if err != nil || exists {
			return err
		}

		return r.Master.Genesis(ctx, membership)
	})
	if err != nil {
		return fmt.Errorf("seed master membership: %w", err)
	}

	return nil
}

// Execute runs fn as one atomic call submitted by origin.
func (r *Registry) Execute(origin runtime.Origin, fn func(ctx *runtime.Context) error) ([]event.Event, error) {
	return r.runtime.Execute(origin, fn)
}

// Query runs fn over a read-only view of the state.
func (r *Registry) Query(fn func(ctx *runtime.Context) error) error {
	return r.runtime.Query(fn)
}

// BlockNumber returns the current block.
func (r *Registry) BlockNumber() types.BlockNumber {
	return r.runtime.BlockNumber()
}

// Limits returns the configured size caps.
func (r *Registry) Limits() types.Limits {
	return r.runtime.Limits()
}

// Events returns the events indexed by topic in submission order.
func (r *Registry) Events(topic string) ([]event.Event, error) {
	var evs []event.Event

	err := r.Query(func(ctx *runtime.Context) error {
		var err error

		evs, err = event.ByTopic(ctx.Tx(), topic)

		return err
	})

	return evs, err
}

// Dispatch decodes call and runs it. The context must be root.
func (r *Registry) Dispatch(ctx *runtime.Context, call []byte) error {
	c, err := DecodeRootCall(call, ctx.Limits())
	if err != nil {
		return err
	}

	logger.Debugf("dispatching root call %d", c.RootTag())

	switch c := c.(type) {
	case *SetMembers:
		return r.Master.SetMembers(ctx, c.Membership)
	case *Agree:
		return agreement.Agree(ctx, &c.Agreement)
	default:
		return fmt.Errorf("unhandled root call %T", c)
	}
}
