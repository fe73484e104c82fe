/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package did

import (
	"fmt"
	"sort"

	"github.com/hyperledger/aries-did-registry/pkg/registry/action"
	"github.com/hyperledger/aries-did-registry/pkg/registry/errkind"
	"github.com/hyperledger/aries-did-registry/pkg/registry/keys"
	"github.com/hyperledger/aries-did-registry/pkg/registry/runtime"
	"github.com/hyperledger/aries-did-registry/pkg/registry/scale"
	"github.com/hyperledger/aries-did-registry/pkg/registry/store"
	"github.com/hyperledger/aries-did-registry/pkg/registry/types"
)

// Events deposited by key changes.
const (
	DidKeysAdded   = "DidKeysAdded"
	DidKeysRemoved = "DidKeysRemoved"
)

// KeyWithID is a DID key together with its id.
type KeyWithID struct {
	ID  types.IncID `json:"id"`
	Key keys.DidKey `json:"key"`
}

// EncodeTo writes the id and the key.
func (k *KeyWithID) EncodeTo(e *scale.Encoder) {
	k.ID.EncodeTo(e)
	k.Key.EncodeTo(e)
}

// DecodeFrom reads the id and the key.
func (k *KeyWithID) DecodeFrom(d *scale.Decoder) {
	k.ID.DecodeFrom(d)
	k.Key.DecodeFrom(d)
}

func keyKey(did types.Did, id types.IncID) string {
	return store.CounterKey(did.String(), id)
}

// Key returns key id of did, nil when absent.
func (m *Module) Key(tx *store.Tx, did types.Did, id types.IncID) (*keys.DidKey, error) {
	var key keys.DidKey

	ok, err := tx.Load(store.DidKeys, keyKey(did, id), &key)
	if err != nil || !ok {
		return nil, err
	}

	return &key, nil
}

// Keys returns every key of did ordered by id.
func (m *Module) Keys(tx *store.Tx, did types.Did) ([]KeyWithID, error) {
	entries, err := tx.Query(store.DidKeys, didTag(did))
	if err != nil {
		return nil, err
	}

	list := make([]KeyWithID, 0, len(entries))

	for _, entry := range entries {
		var k KeyWithID

		if err := scale.Decode(entry.Value, &k); err != nil {
			return nil, fmt.Errorf("decode key %s: %w", entry.Key, err)
		}

		list = append(list, k)
	}

	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })

	return list, nil
}

func (m *Module) putKey(tx *store.Tx, did types.Did, id types.IncID, key keys.DidKey) {
	tx.Save(store.DidKeys, keyKey(did, id), &KeyWithID{ID: id, Key: key}, didTag(did))
}

func checkKeys(unchecked []keys.UncheckedDidKey) ([]keys.DidKey, error) {
	checked := make([]keys.DidKey, len(unchecked))

	for i, k := range unchecked {
		key, err := keys.NewDidKey(k)
		if err != nil {
			return nil, fmt.Errorf("key %d: %w", i, err)
		}

		checked[i] = key
	}

	return checked, nil
}

// AddKeys adds keys to an on-chain DID. Capability invocation keys make the DID self-controlled.
func (m *Module) AddKeys(ctx *runtime.Context, a *action.AddKeys, sig *Signature) error {
	return ExecuteAsController(ctx, m, a, sig, m.addKeys)
}

func (m *Module) addKeys(ctx *runtime.Context, a *action.AddKeys, details **OnChainDidDetails) error {
	d := *details
	tx := ctx.Tx()

	added, err := checkKeys(a.Keys)
	if err != nil {
		return err
	}

	var controlKeys uint32

	for _, key := range added {
		if key.CanControl() {
			controlKeys++
		}
	}

	d.ActiveControllerKeys += controlKeys

	if controlKeys > 0 {
		self, err := m.IsController(tx, a.Did, a.Did)
		if err != nil {
			return err
		}

		if !self {
			m.putController(tx, a.Did, a.Did)
			d.ActiveControllers++
		}
	}

	for _, key := range added {
		id, err := d.LastKeyID.Inc()
		if err != nil {
			return err
		}

		m.putKey(tx, a.Did, id, key)
	}

	deposit(ctx, DidKeysAdded, a.Did, didPayload{a.Did})

	return nil
}

// RemoveKeys removes keys of an on-chain DID. Removing the last capability invocation key drops self-control.
func (m *Module) RemoveKeys(ctx *runtime.Context, a *action.RemoveKeys, sig *Signature) error {
	return ExecuteAsController(ctx, m, a, sig, m.removeKeys)
}

func (m *Module) removeKeys(ctx *runtime.Context, a *action.RemoveKeys, details **OnChainDidDetails) error {
	d := *details
	tx := ctx.Tx()
	ids := action.SortedIncIDs(a.Keys)

	for _, id := range ids {
		key, err := m.Key(tx, a.Did, id)
		if err != nil {
			return err
		}

		if key == nil {
			return fmt.Errorf("%w: key %d of %s", errkind.NoKeyForDid, id, a.Did)
		}

		if key.CanControl() {
			d.ActiveControllerKeys--
		}
	}

	for _, id := range ids {
		tx.Delete(store.DidKeys, keyKey(a.Did, id))
	}

	if d.ActiveControllerKeys == 0 {
		self, err := m.IsController(tx, a.Did, a.Did)
		if err != nil {
			return err
		}

		if self {
			if d.ActiveControllers == 1 {
				return fmt.Errorf("%w: %s would be left without controllers", errkind.NoControllerProvided, a.Did)
			}

			tx.Delete(store.DidControllers, controllerKey(a.Did, a.Did))
			d.ActiveControllers--
		}
	}

	deposit(ctx, DidKeysRemoved, a.Did, didPayload{a.Did})

	return nil
}
