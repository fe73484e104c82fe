/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package offchain stores the parameters and public keys of offchain signature schemes (BBS, BBS+
// and Pointcheval-Sanders). Parameters belong to an owner and are numbered by a per-owner counter.
// Public keys belong to an on-chain DID and share its key counter.
package offchain

import (
	"fmt"
	"sort"

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
const ModuleName = "offchainSignatures"

// Events.
const (
	ParamsAdded   = "ParamsAdded"
	ParamsRemoved = "ParamsRemoved"
	KeyAdded      = "KeyAdded"
	KeyRemoved    = "KeyRemoved"
)

const (
	ownerTagName = "owner"
	didTagName   = "did"
)

var logger = log.New("aries-registry/offchain")

// ParamsWithID are parameters with their counter value.
type ParamsWithID struct {
	ID     types.IncID           `json:"id"`
	Params types.SignatureParams `json:"params"`
}

// PublicKeyWithID is a public key with its id among the DID's keys.
type PublicKeyWithID struct {
	ID  types.IncID             `json:"id"`
	Key types.OffchainPublicKey `json:"key"`
}

// Module is the offchain signature scheme store.
type Module struct {
	dids *did.Module
}

// New returns the store and registers it to drop the public keys of removed DIDs.
func New(dids *did.Module) *Module {
	m := &Module{dids: dids}
	dids.AddOnDidRemoval(m)

	return m
}

func ownerTag(owner types.DidOrDidMethodKey) storage.Tag {
	return storage.Tag{Name: ownerTagName, Value: owner.StorageKey()}
}

func didTag(d types.Did) storage.Tag {
	return storage.Tag{Name: didTagName, Value: d.String()}
}

type ownedIDPayload struct {
	Owner types.DidOrDidMethodKey `json:"owner"`
	ID    types.IncID             `json:"id"`
}

func deposit(ctx *runtime.Context, name string, owner types.DidOrDidMethodKey, id types.IncID) {
	ctx.Deposit(event.New(ModuleName, name, ownedIDPayload{Owner: owner, ID: id}, event.OwnerTopic(owner)))
	logger.Debugf("%s %s #%d", name, owner, id)
}

// ParamsCounter returns the last parameters id used by owner.
func (m *Module) ParamsCounter(tx *store.Tx, owner types.DidOrDidMethodKey) (types.IncID, error) {
	var id types.IncID

	if _, err := tx.Load(store.ParamsCounter, owner.StorageKey(), &id); err != nil {
		return 0, err
	}

	return id, nil
}

// Params returns the parameters ref points to, nil when absent.
func (m *Module) Params(tx *store.Tx, ref types.OwnerRef) (*types.SignatureParams, error) {
	var p types.SignatureParams

	ok, err := tx.Load(store.SignatureParams, store.CounterKey(ref.Owner.StorageKey(), ref.ID), &p)
	if err != nil || !ok {
		return nil, err
	}

	return &p, nil
}

// DidParams lists the parameters of owner by id.
func (m *Module) DidParams(tx *store.Tx, owner types.DidOrDidMethodKey) ([]ParamsWithID, error) {
	entries, err := tx.Query(store.SignatureParams, ownerTag(owner))
	if err != nil {
		return nil, err
	}

	out := make([]ParamsWithID, 0, len(entries))

	for _, e := range entries {
		var p ParamsWithID

		if err := scale.Decode(e.Value, &p.Params); err != nil {
			return nil, fmt.Errorf("decode params %s: %w", e.Key, err)
		}

		if p.ID, err = store.ParseCounter(e.Key); err != nil {
			return nil, err
		}

		out = append(out, p)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

// PublicKey returns key id of d, nil when absent.
func (m *Module) PublicKey(tx *store.Tx, d types.Did, id types.IncID) (*types.OffchainPublicKey, error) {
	var k types.OffchainPublicKey

	ok, err := tx.Load(store.OffchainPublicKeys, store.CounterKey(d.String(), id), &k)
	if err != nil || !ok {
		return nil, err
	}

	return &k, nil
}

// PublicKeyWithParams returns key id of d and the parameters it references. The parameters are nil
// when the key references none or when they were removed.
func (m *Module) PublicKeyWithParams(tx *store.Tx, d types.Did,
	id types.IncID) (*types.OffchainPublicKey, *types.SignatureParams, error) {
	k, err := m.PublicKey(tx, d, id)
	if err != nil || k == nil || k.ParamsRef == nil {
		return k, nil, err
	}

	p, err := m.Params(tx, *k.ParamsRef)
	if err != nil {
		return nil, nil, err
	}

	return k, p, nil
}

// DidPublicKeys lists the public keys of d by id.
func (m *Module) DidPublicKeys(tx *store.Tx, d types.Did) ([]PublicKeyWithID, error) {
	entries, err := tx.Query(store.OffchainPublicKeys, didTag(d))
	if err != nil {
		return nil, err
	}

	out := make([]PublicKeyWithID, 0, len(entries))

	for _, e := range entries {
		var k PublicKeyWithID

		if err := scale.Decode(e.Value, &k.Key); err != nil {
			return nil, fmt.Errorf("decode public key %s: %w", e.Key, err)
		}

		if k.ID, err = store.ParseCounter(e.Key); err != nil {
			return nil, err
		}

		out = append(out, k)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

// AddParams stores parameters under the signer's next counter value.
func (m *Module) AddParams(ctx *runtime.Context, a *action.AddOffchainSignatureParams, sig *did.Signature) error {
	if err := a.Params.Validate(ctx.Limits()); err != nil {
		return err
	}

	return did.ExecuteAsOwner(ctx, m.dids, a, sig, m.addParams)
}

func (m *Module) addParams(ctx *runtime.Context, a *action.AddOffchainSignatureParams,
	owner types.DidOrDidMethodKey) error {
	tx := ctx.Tx()

	counter, err := m.ParamsCounter(tx, owner)
	if err != nil {
		return err
	}

	id, err := counter.Inc()
	if err != nil {
		return err
	}

	tx.Save(store.ParamsCounter, owner.StorageKey(), id)
	tx.Save(store.SignatureParams, store.CounterKey(owner.StorageKey(), id), &a.Params, ownerTag(owner))
	deposit(ctx, ParamsAdded, owner, id)

	return nil
}

// RemoveParams removes parameters of the signer. Keys referencing them are kept.
func (m *Module) RemoveParams(ctx *runtime.Context, a *action.RemoveOffchainSignatureParams, sig *did.Signature) error {
	return did.ExecuteAsOwner(ctx, m.dids, a, sig, m.removeParams)
}

func (m *Module) removeParams(ctx *runtime.Context, a *action.RemoveOffchainSignatureParams,
	owner types.DidOrDidMethodKey) error {
	if a.ParamsRef.Owner != owner {
		return fmt.Errorf("%w: params of %s", errkind.NotOwner, a.ParamsRef.Owner)
	}

	tx := ctx.Tx()
	key := store.CounterKey(owner.StorageKey(), a.ParamsRef.ID)

	exists, err := tx.Has(store.SignatureParams, key)
	if err != nil {
		return err
	}

	if !exists {
		return fmt.Errorf("%w: %s #%d", errkind.ParamsDontExist, owner, a.ParamsRef.ID)
	}

	tx.Delete(store.SignatureParams, key)
	deposit(ctx, ParamsRemoved, owner, a.ParamsRef.ID)

	return nil
}

func (m *Module) checkKey(tx *store.Tx, limits *types.Limits, k *types.OffchainPublicKey) error {
	if err := k.Validate(limits); err != nil {
		return err
	}

	if k.ParamsRef == nil {
		return nil
	}

	p, err := m.Params(tx, *k.ParamsRef)
	if err != nil {
		return err
	}

	if p == nil {
		return fmt.Errorf("%w: %s #%d", errkind.ParamsDontExist, k.ParamsRef.Owner, k.ParamsRef.ID)
	}

	if p.Scheme != k.Scheme {
		return fmt.Errorf("%w: %s key with %s params", errkind.IncorrectParamsScheme, k.Scheme, p.Scheme)
	}

	return nil
}

// AddPublicKey adds a public key to a DID under the DID's next key id. It is signed by a controller.
func (m *Module) AddPublicKey(ctx *runtime.Context, a *action.AddOffchainSignaturePublicKey, sig *did.Signature) error {
	return did.ExecuteAsController(ctx, m.dids, a, sig, m.addPublicKey)
}

func (m *Module) addPublicKey(ctx *runtime.Context, a *action.AddOffchainSignaturePublicKey,
	details **did.OnChainDidDetails) error {
	tx := ctx.Tx()

	if err := m.checkKey(tx, ctx.Limits(), &a.Key); err != nil {
		return err
	}

	id, err := (*details).LastKeyID.Inc()
	if err != nil {
		return err
	}

	tx.Save(store.OffchainPublicKeys, store.CounterKey(a.Did.String(), id), &a.Key, didTag(a.Did))
	deposit(ctx, KeyAdded, types.FromDid(a.Did), id)

	return nil
}

// RemovePublicKey removes a public key of a DID. It is signed by a controller.
func (m *Module) RemovePublicKey(ctx *runtime.Context, a *action.RemoveOffchainSignaturePublicKey,
	sig *did.Signature) error {
	return did.ExecuteAsController(ctx, m.dids, a, sig, m.removePublicKey)
}

func (m *Module) removePublicKey(ctx *runtime.Context, a *action.RemoveOffchainSignaturePublicKey,
	_ **did.OnChainDidDetails) error {
	tx := ctx.Tx()
	key := store.CounterKey(a.KeyRef.Did.String(), a.KeyRef.ID)

	exists, err := tx.Has(store.OffchainPublicKeys, key)
	if err != nil {
		return err
	}

	if !exists {
		return fmt.Errorf("%w: %s #%d", errkind.PublicKeyDoesntExist, a.KeyRef.Did, a.KeyRef.ID)
	}

	if a.KeyRef.Did != a.Did {
		return fmt.Errorf("%w: key of %s", errkind.NotOwner, a.KeyRef.Did)
	}

	tx.Delete(store.OffchainPublicKeys, key)
	deposit(ctx, KeyRemoved, types.FromDid(a.Did), a.KeyRef.ID)

	return nil
}

// OnDidRemoval drops the public keys of a removed DID.
func (m *Module) OnDidRemoval(ctx *runtime.Context, d types.Did) error {
	n, err := ctx.Tx().DeleteTagged(store.OffchainPublicKeys, didTag(d))
	if err != nil {
		return err
	}

	if n > 0 {
		logger.Debugf("removed %d public keys of %s", n, d)
	}

	return nil
}
