/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package runtime executes registry calls as atomic state transitions: every call runs in one
// store transaction that is committed, together with the events it deposited, only when the call
// succeeds.
package runtime

import (
	"fmt"
	"sync"

	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/hyperledger/aries-did-registry/pkg/registry/errkind"
	"github.com/hyperledger/aries-did-registry/pkg/registry/event"
	"github.com/hyperledger/aries-did-registry/pkg/registry/store"
	"github.com/hyperledger/aries-did-registry/pkg/registry/types"
)

var logger = log.New("aries-registry/runtime")

// Clock reports the current block number.
type Clock interface {
	BlockNumber() types.BlockNumber
}

// ManualClock is a Clock advanced explicitly.
type ManualClock struct {
	mu    sync.RWMutex
	block types.BlockNumber
}

// NewManualClock returns a clock at block.
func NewManualClock(block types.BlockNumber) *ManualClock {
	return &ManualClock{block: block}
}

// BlockNumber returns the current block.
func (c *ManualClock) BlockNumber() types.BlockNumber {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.block
}

// Advance moves the clock n blocks forward and returns the new block.
func (c *ManualClock) Advance(n types.BlockNumber) types.BlockNumber {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.block += n

	return c.block
}

// Origin is the submitter of a call: a signed account or root.
type Origin struct {
	Account types.AccountID
	Root    bool
}

// Signed returns the origin of a call submitted by account.
func Signed(account types.AccountID) Origin {
	return Origin{Account: account}
}

// Root returns the root origin.
func Root() Origin {
	return Origin{Root: true}
}

// Context is the state of one call.
type Context struct {
	tx     *store.Tx
	block  types.BlockNumber
	origin Origin
	limits *types.Limits
	events *[]event.Event
}

// NewContext returns a context over tx. It is meant for callers that manage the transaction themselves.
func NewContext(tx *store.Tx, block types.BlockNumber, origin Origin, limits *types.Limits) *Context {
	return &Context{tx: tx, block: block, origin: origin, limits: limits, events: &[]event.Event{}}
}

// Tx returns the transaction of the call.
func (c *Context) Tx() *store.Tx { return c.tx }

// Block returns the block the call executes in.
func (c *Context) Block() types.BlockNumber { return c.block }

// Origin returns the submitter of the call.
func (c *Context) Origin() Origin { return c.origin }

// Limits returns the configured size caps.
func (c *Context) Limits() *types.Limits { return c.limits }

// EnsureSigned returns the submitting account. Root calls fail with BadOrigin.
func (c *Context) EnsureSigned() (types.AccountID, error) {
	if c.origin.Root || c.origin.Account == "" {
		return "", fmt.Errorf("%w: signed origin required", errkind.BadOrigin)
	}

	return c.origin.Account, nil
}

// EnsureRoot fails with BadOrigin unless the call runs as root.
func (c *Context) EnsureRoot() error {
	if !c.origin.Root {
		return fmt.Errorf("%w: root origin required", errkind.BadOrigin)
	}

	return nil
}

// AsRoot returns a context sharing the transaction and events of c that runs as root.
func (c *Context) AsRoot() *Context {
	root := *c
	root.origin = Root()

	return &root
}

// Deposit records an event to be persisted when the call succeeds.
func (c *Context) Deposit(ev event.Event) {
	*c.events = append(*c.events, ev)
}

// Events returns the events deposited so far.
func (c *Context) Events() []event.Event {
	return *c.events
}

// Transactional runs fn and drops its writes and events when it fails. The error of fn is returned.
func (c *Context) Transactional(fn func(ctx *Context) error) error {
	sp := c.tx.Savepoint()
	n := len(*c.events)

	if err := fn(c); err != nil {
		c.tx.Rollback(sp)
		*c.events = (*c.events)[:n]

		return err
	}

	return nil
}

type opts struct {
	limits    types.Limits
	notifiers []event.Notifier
}

// Opt configures a Runtime.
type Opt func(*opts)

// WithLimits replaces the default size caps.
func WithLimits(limits types.Limits) Opt {
	return func(o *opts) {
		o.limits = limits
	}
}

// WithNotifier adds a notifier of committed events.
func WithNotifier(n event.Notifier) Opt {
	return func(o *opts) {
		o.notifiers = append(o.notifiers, n)
	}
}

// Runtime runs calls against a Store.
type Runtime struct {
	store     *store.Store
	clock     Clock
	limits    types.Limits
	notifiers []event.Notifier
}

// New returns a Runtime over s using clock for block numbers.
func New(s *store.Store, clock Clock, options ...Opt) *Runtime {
	o := &opts{limits: types.DefaultLimits()}

	for _, opt := range options {
		opt(o)
	}

	return &Runtime{store: s, clock: clock, limits: o.limits, notifiers: o.notifiers}
}

// Limits returns the configured size caps.
func (r *Runtime) Limits() types.Limits { return r.limits }

// BlockNumber returns the current block.
func (r *Runtime) BlockNumber() types.BlockNumber { return r.clock.BlockNumber() }

// Execute runs fn as one atomic call. When fn fails every write and event of the call is dropped.
// The committed events are returned and published to the notifiers.
func (r *Runtime) Execute(origin Origin, fn func(ctx *Context) error) ([]event.Event, error) {
	block := r.clock.BlockNumber()
	tx := r.store.Begin()
	ctx := NewContext(tx, block, origin, &r.limits)

	if err := fn(ctx); err != nil {
		tx.Discard()
		logger.Debugf("call at block %d failed: %s", block, err)

		return nil, err
	}

	evs, err := event.Append(tx, block, ctx.Events())
	if err != nil {
		tx.Discard()

		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit call: %w", err)
	}

	event.Publish(r.notifiers, evs)

	return evs, nil
}

// Query runs fn over a transaction that is always discarded.
func (r *Runtime) Query(fn func(ctx *Context) error) error {
	tx := r.store.Begin()
	defer tx.Discard()

	return fn(NewContext(tx, r.clock.BlockNumber(), Origin{}, &r.limits))
}
