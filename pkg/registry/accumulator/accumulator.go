/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package accumulator stores accumulator parameters, public keys and accumulators. Every entity
// belongs to the DID or DID method key that signed its creation.
package accumulator

import (
	"fmt"

	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/hyperledger/aries-framework-go/spi/storage"

	"github.com/hyperledger/aries-did-registry/pkg/registry/action"
	"github.com/hyperledger/aries-did-registry/pkg/registry/did"
	"github.com/hyperledger/aries-did-registry/pkg/registry/errkind"
	"github.com/hyperledger/aries-did-registry/pkg/registry/event"
	"github.com/hyperledger/aries-did-registry/pkg/registry/runtime"
	"github.com/hyperledger/aries-did-registry/pkg/registry/scale"
	"github.com/hyperledger/aries-did-registry/pkg/registry/store"
	"github.com/hyperledger/aries-did-registry/pkg/registry/types"
)

// ModuleName is the module of the events deposited by this package.
const ModuleName = "accumulator"

// Events.
const (
	ParamsAdded        = "ParamsAdded"
	ParamsRemoved      = "ParamsRemoved"
	KeyAdded           = "KeyAdded"
	KeyRemoved         = "KeyRemoved"
	AccumulatorAdded   = "AccumulatorAdded"
	AccumulatorUpdated = "AccumulatorUpdated"
	AccumulatorRemoved = "AccumulatorRemoved"
)

const ownerTagName = "owner"

var logger = log.New("aries-registry/accumulator")

// ParamsWithID are parameters with their counter value.
type ParamsWithID struct {
	ID     types.IncID             `json:"id"`
	Params types.AccumulatorParams `json:"params"`
}

// PublicKeyWithID is a public key with its counter value.
type PublicKeyWithID struct {
	ID  types.IncID                `json:"id"`
	Key types.AccumulatorPublicKey `json:"key"`
}

// PublicKeyWithParams is a public key and the parameters it references, if they still exist.
type PublicKeyWithParams struct {
	Key    types.AccumulatorPublicKey `json:"key"`
	Params *types.AccumulatorParams   `json:"params,omitempty"`
}

// WithPublicKeyAndParams is an accumulated value with the key of its owner.
type WithPublicKeyAndParams struct {
	Accumulated types.Bytes          `json:"accumulated"`
	PublicKey   *PublicKeyWithParams `json:"publicKey,omitempty"`
}

// Module is the accumulator store.
type Module struct {
	dids *did.Module
}

// New returns the accumulator store authorizing owners through dids.
func New(dids *did.Module) *Module {
	return &Module{dids: dids}
}

func ownerTag(owner types.DidOrDidMethodKey) storage.Tag {
	return storage.Tag{Name: ownerTagName, Value: owner.StorageKey()}
}

func refKey(ref types.OwnerRef) string {
	return store.CounterKey(ref.Owner.StorageKey(), ref.ID)
}

func depositOwned(ctx *runtime.Context, name string, owner types.DidOrDidMethodKey, id types.IncID) {
	ctx.Deposit(event.New(ModuleName, name, struct {
		Owner types.DidOrDidMethodKey `json:"owner"`
		ID    types.IncID             `json:"id"`
	}{owner, id}, event.OwnerTopic(owner)))
	logger.Debugf("%s %s #%d", name, owner, id)
}

func depositAccumulator(ctx *runtime.Context, name string, id types.AccumulatorID, accumulated types.Bytes) {
	ctx.Deposit(event.New(ModuleName, name, struct {
		ID          types.AccumulatorID `json:"id"`
		Accumulated types.Bytes         `json:"accumulated,omitempty"`
	}{id, accumulated}, event.Topic(id[:])))
	logger.Debugf("%s %s at block %d", name, id, ctx.Block())
}

// Counters returns the parameters and key counters of owner.
func (m *Module) Counters(tx *store.Tx, owner types.DidOrDidMethodKey) (*types.OwnerCounters, error) {
	var c types.OwnerCounters

	if _, err := tx.Load(store.AccumulatorOwnerCounters, owner.StorageKey(), &c); err != nil {
		return nil, err
	}

	return &c, nil
}

// Params returns the parameters ref points to, nil when absent.
func (m *Module) Params(tx *store.Tx, ref types.OwnerRef) (*types.AccumulatorParams, error) {
	var p types.AccumulatorParams

	ok, err := tx.Load(store.AccumulatorParams, refKey(ref), &p)
	if err != nil || !ok {
		return nil, err
	}

	return &p, nil
}

// PublicKey returns the key ref points to, nil when absent.
func (m *Module) PublicKey(tx *store.Tx, ref types.OwnerRef) (*types.AccumulatorPublicKey, error) {
	var k types.AccumulatorPublicKey

	ok, err := tx.Load(store.AccumulatorKeys, refKey(ref), &k)
	if err != nil || !ok {
		return nil, err
	}

	return &k, nil
}

// Accumulator returns accumulator id, nil when absent.
func (m *Module) Accumulator(tx *store.Tx, id types.AccumulatorID) (*types.StoredAccumulator, error) {
	var a types.StoredAccumulator

	ok, err := tx.Load(store.Accumulators, id.String(), &a)
	if err != nil || !ok {
		return nil, err
	}

	return &a, nil
}

// PublicKeyWithParams returns the key ref points to and its parameters, nil when the key is absent.
func (m *Module) PublicKeyWithParams(tx *store.Tx, ref types.OwnerRef) (*PublicKeyWithParams, error) {
	k, err := m.PublicKey(tx, ref)
	if err != nil || k == nil {
		return nil, err
	}

	out := &PublicKeyWithParams{Key: *k}

	if k.ParamsRef != nil {
		if out.Params, err = m.Params(tx, *k.ParamsRef); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// AccumulatorWithPublicKeyAndParams returns the accumulated value of id with its key, nil when absent.
func (m *Module) AccumulatorWithPublicKeyAndParams(tx *store.Tx,
	id types.AccumulatorID) (*WithPublicKeyAndParams, error) {
	a, err := m.Accumulator(tx, id)
	if err != nil || a == nil {
		return nil, err
	}

	pk, err := m.PublicKeyWithParams(tx, a.Accumulator.KeyRef)
	if err != nil {
		return nil, err
	}

	return &WithPublicKeyAndParams{Accumulated: a.Accumulator.Accumulated, PublicKey: pk}, nil
}

// OwnerParams lists the parameters of owner by id.
func (m *Module) OwnerParams(tx *store.Tx, owner types.DidOrDidMethodKey) ([]ParamsWithID, error) {
	entries, err := tx.Query(store.AccumulatorParams, ownerTag(owner))
	if err != nil {
		return nil, err
	}

	out := make([]ParamsWithID, len(entries))

	for i, e := range entries {
		if out[i].ID, err = store.ParseCounter(e.Key); err != nil {
			return nil, err
		}

		if err = scale.Decode(e.Value, &out[i].Params); err != nil {
			return nil, fmt.Errorf("decode accumulator params %s: %w", e.Key, err)
		}
	}

	return out, nil
}

// OwnerPublicKeys lists the public keys of owner by id.
func (m *Module) OwnerPublicKeys(tx *store.Tx, owner types.DidOrDidMethodKey) ([]PublicKeyWithID, error) {
	entries, err := tx.Query(store.AccumulatorKeys, ownerTag(owner))
	if err != nil {
		return nil, err
	}

	out := make([]PublicKeyWithID, len(entries))

	for i, e := range entries {
		if out[i].ID, err = store.ParseCounter(e.Key); err != nil {
			return nil, err
		}

		if err = scale.Decode(e.Value, &out[i].Key); err != nil {
			return nil, fmt.Errorf("decode accumulator key %s: %w", e.Key, err)
		}
	}

	return out, nil
}

// AddParams stores parameters under the signer's next parameters counter value.
func (m *Module) AddParams(ctx *runtime.Context, a *action.AddAccumulatorParams, sig *did.Signature) error {
	if err := a.Params.Validate(ctx.Limits()); err != nil {
		return err
	}

	return did.ExecuteAsOwner(ctx, m.dids, a, sig, m.addParams)
}

func (m *Module) addParams(ctx *runtime.Context, a *action.AddAccumulatorParams, owner types.DidOrDidMethodKey) error {
	tx := ctx.Tx()

	counters, err := m.Counters(tx, owner)
	if err != nil {
		return err
	}

	id, err := counters.ParamsCounter.Inc()
	if err != nil {
		return err
	}

	tx.Save(store.AccumulatorOwnerCounters, owner.StorageKey(), counters)
	tx.Save(store.AccumulatorParams, refKey(types.OwnerRef{Owner: owner, ID: id}), &a.Params, ownerTag(owner))
	depositOwned(ctx, ParamsAdded, owner, id)

	return nil
}

// AddPublicKey stores a public key under the signer's next key counter value. A referenced
// parameters entry must exist.
func (m *Module) AddPublicKey(ctx *runtime.Context, a *action.AddAccumulatorPublicKey, sig *did.Signature) error {
	if err := a.PublicKey.Validate(ctx.Limits()); err != nil {
		return err
	}

	return did.ExecuteAsOwner(ctx, m.dids, a, sig, m.addPublicKey)
}

func (m *Module) addPublicKey(ctx *runtime.Context, a *action.AddAccumulatorPublicKey,
	owner types.DidOrDidMethodKey) error {
	tx := ctx.Tx()

	if ref := a.PublicKey.ParamsRef; ref != nil {
		exists, err := tx.Has(store.AccumulatorParams, refKey(*ref))
		if err != nil {
			return err
		}

		if !exists {
			return fmt.Errorf("%w: %s #%d", errkind.ParamsDontExist, ref.Owner, ref.ID)
		}
	}

	counters, err := m.Counters(tx, owner)
	if err != nil {
		return err
	}

	id, err := counters.KeyCounter.Inc()
	if err != nil {
		return err
	}

	tx.Save(store.AccumulatorOwnerCounters, owner.StorageKey(), counters)
	tx.Save(store.AccumulatorKeys, refKey(types.OwnerRef{Owner: owner, ID: id}), &a.PublicKey, ownerTag(owner))
	depositOwned(ctx, KeyAdded, owner, id)

	return nil
}

// RemoveParams removes parameters of the signer. Keys referencing them are kept.
func (m *Module) RemoveParams(ctx *runtime.Context, a *action.RemoveAccumulatorParams, sig *did.Signature) error {
	return did.ExecuteAsOwner(ctx, m.dids, a, sig,
		func(ctx *runtime.Context, a *action.RemoveAccumulatorParams, owner types.DidOrDidMethodKey) error {
			return m.removeOwned(ctx, store.AccumulatorParams, a.ParamsRef, owner,
				errkind.NotParamsOwner, errkind.ParamsDontExist, ParamsRemoved)
		})
}

// RemovePublicKey removes a public key of the signer. Accumulators referencing it are kept.
func (m *Module) RemovePublicKey(ctx *runtime.Context, a *action.RemoveAccumulatorPublicKey,
	sig *did.Signature) error {
	return did.ExecuteAsOwner(ctx, m.dids, a, sig,
		func(ctx *runtime.Context, a *action.RemoveAccumulatorPublicKey, owner types.DidOrDidMethodKey) error {
			return m.removeOwned(ctx, store.AccumulatorKeys, a.KeyRef, owner,
				errkind.NotPublicKeyOwner, errkind.PublicKeyDoesntExist, KeyRemoved)
		})
}

func (m *Module) removeOwned(ctx *runtime.Context, ns string, ref types.OwnerRef, owner types.DidOrDidMethodKey,
	notOwner, missing errkind.Kind, name string) error {
	if ref.Owner != owner {
		return fmt.Errorf("%w: %s", notOwner, ref.Owner)
	}

	tx := ctx.Tx()

	exists, err := tx.Has(ns, refKey(ref))
	if err != nil {
		return err
	}

	if !exists {
		return fmt.Errorf("%w: %s #%d", missing, ref.Owner, ref.ID)
	}

	tx.Delete(ns, refKey(ref))
	depositOwned(ctx, name, owner, ref.ID)

	return nil
}

// AddAccumulator creates an accumulator owned by the signer. Its key must belong to the signer and
// exist unless the key id is zero.
func (m *Module) AddAccumulator(ctx *runtime.Context, a *action.AddAccumulator, sig *did.Signature) error {
	if err := a.Accumulator.Validate(ctx.Limits()); err != nil {
		return err
	}

	return did.ExecuteAsOwner(ctx, m.dids, a, sig, m.addAccumulator)
}

func (m *Module) addAccumulator(ctx *runtime.Context, a *action.AddAccumulator, owner types.DidOrDidMethodKey) error {
	tx := ctx.Tx()
	ref := a.Accumulator.KeyRef

	if ref.ID != 0 {
		exists, err := tx.Has(store.AccumulatorKeys, refKey(ref))
		if err != nil {
			return err
		}

		if !exists {
			return fmt.Errorf("%w: %s #%d", errkind.PublicKeyDoesntExist, ref.Owner, ref.ID)
		}
	}

	if ref.Owner != owner {
		return fmt.Errorf("%w: key of %s", errkind.NotPublicKeyOwner, ref.Owner)
	}

	exists, err := tx.Has(store.Accumulators, a.ID.String())
	if err != nil {
		return err
	}

	if exists {
		return fmt.Errorf("%w: %s", errkind.AccumulatorAlreadyExists, a.ID)
	}

	tx.Save(store.Accumulators, a.ID.String(), &types.StoredAccumulator{
		CreatedAt:     ctx.Block(),
		LastUpdatedAt: ctx.Block(),
		Accumulator:   a.Accumulator,
	})
	depositAccumulator(ctx, AccumulatorAdded, a.ID, a.Accumulator.Accumulated)

	return nil
}

// UpdateAccumulator replaces the accumulated value. Only the accumulator owner may update it. The
// additions, removals and witness update info are carried by the event history, not stored.
func (m *Module) UpdateAccumulator(ctx *runtime.Context, a *action.UpdateAccumulator, sig *did.Signature) error {
	return did.ExecuteAsOwner(ctx, m.dids, a, sig, m.updateAccumulator)
}

func (m *Module) updateAccumulator(ctx *runtime.Context, a *action.UpdateAccumulator,
	owner types.DidOrDidMethodKey) error {
	tx := ctx.Tx()

	stored, err := m.owned(tx, a.ID, owner)
	if err != nil {
		return err
	}

	stored.Accumulator.Accumulated = a.NewAccumulated

	if err = stored.Accumulator.Validate(ctx.Limits()); err != nil {
		return err
	}

	stored.LastUpdatedAt = ctx.Block()

	tx.Save(store.Accumulators, a.ID.String(), stored)
	depositAccumulator(ctx, AccumulatorUpdated, a.ID, a.NewAccumulated)

	return nil
}

// RemoveAccumulator deletes an accumulator of the signer.
func (m *Module) RemoveAccumulator(ctx *runtime.Context, a *action.RemoveAccumulator, sig *did.Signature) error {
	return did.ExecuteAsOwner(ctx, m.dids, a, sig,
		func(ctx *runtime.Context, a *action.RemoveAccumulator, owner types.DidOrDidMethodKey) error {
			if _, err := m.owned(ctx.Tx(), a.ID, owner); err != nil {
				return err
			}

			ctx.Tx().Delete(store.Accumulators, a.ID.String())
			depositAccumulator(ctx, AccumulatorRemoved, a.ID, nil)

			return nil
		})
}

func (m *Module) owned(tx *store.Tx, id types.AccumulatorID,
	owner types.DidOrDidMethodKey) (*types.StoredAccumulator, error) {
	stored, err := m.Accumulator(tx, id)
	if err != nil {
		return nil, err
	}

	if stored == nil {
		return nil, fmt.Errorf("%w: %s", errkind.AccumulatorDoesntExist, id)
	}

	if stored.Accumulator.KeyRef.Owner != owner {
		return nil, fmt.Errorf("%w: %s", errkind.NotAccumulatorOwner, id)
	}

	return stored, nil
}
