/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package did

import (
	"fmt"

	"github.com/hyperledger/aries-did-registry/pkg/registry/action"
	"github.com/hyperledger/aries-did-registry/pkg/registry/errkind"
	"github.com/hyperledger/aries-did-registry/pkg/registry/runtime"
	"github.com/hyperledger/aries-did-registry/pkg/registry/scale"
	"github.com/hyperledger/aries-did-registry/pkg/registry/store"
	"github.com/hyperledger/aries-did-registry/pkg/registry/types"
)

// Events deposited by controller changes.
const (
	DidControllersAdded   = "DidControllersAdded"
	DidControllersRemoved = "DidControllersRemoved"
)

func controllerKey(controlled, controller types.Did) string {
	return store.Key(controlled.String(), controller.String())
}

func (m *Module) putController(tx *store.Tx, controlled, controller types.Did) {
	tx.Save(store.DidControllers, controllerKey(controlled, controller), controller, didTag(controlled))
}

// Controllers returns the controllers of did in byte order.
func (m *Module) Controllers(tx *store.Tx, did types.Did) ([]types.Did, error) {
	entries, err := tx.Query(store.DidControllers, didTag(did))
	if err != nil {
		return nil, err
	}

	list := make([]types.Did, 0, len(entries))

	for _, entry := range entries {
		var controller types.Did

		if err := scale.Decode(entry.Value, &controller); err != nil {
			return nil, fmt.Errorf("decode controller %s: %w", entry.Key, err)
		}

		list = append(list, controller)
	}

	return types.SortedSet(list), nil
}

// AddControllers adds controllers to an on-chain DID. Already present controllers are an error.
func (m *Module) AddControllers(ctx *runtime.Context, a *action.AddControllers, sig *Signature) error {
	return ExecuteAsController(ctx, m, a, sig, m.addControllers)
}

func (m *Module) addControllers(ctx *runtime.Context, a *action.AddControllers, details **OnChainDidDetails) error {
	tx := ctx.Tx()
	controllers := types.SortedSet(a.Controllers)

	for _, c := range controllers {
		exists, err := m.IsController(tx, a.Did, c)
		if err != nil {
			return err
		}

		if exists {
			return fmt.Errorf("%w: %s", errkind.ControllerIsAlreadyAdded, c)
		}
	}

	for _, c := range controllers {
		m.putController(tx, a.Did, c)
		(*details).ActiveControllers++
	}

	deposit(ctx, DidControllersAdded, a.Did, didPayload{a.Did})

	return nil
}

// RemoveControllers removes controllers of an on-chain DID. Missing controllers are an error and the
// DID keeps at least one controller.
func (m *Module) RemoveControllers(ctx *runtime.Context, a *action.RemoveControllers, sig *Signature) error {
	return ExecuteAsController(ctx, m, a, sig, m.removeControllers)
}

func (m *Module) removeControllers(ctx *runtime.Context, a *action.RemoveControllers,
	details **OnChainDidDetails) error {
	d := *details
	tx := ctx.Tx()
	controllers := types.SortedSet(a.Controllers)

	for _, c := range controllers {
		exists, err := m.IsController(tx, a.Did, c)
		if err != nil {
			return err
		}

		if !exists {
			return fmt.Errorf("%w: %s", errkind.NoControllerForDid, c)
		}
	}

	if uint64(len(controllers)) >= uint64(d.ActiveControllers) {
		return fmt.Errorf("%w: %s would be left without controllers", errkind.NoControllerProvided, a.Did)
	}

	for _, c := range controllers {
		tx.Delete(store.DidControllers, controllerKey(a.Did, c))
		d.ActiveControllers--
	}

	deposit(ctx, DidControllersRemoved, a.Did, didPayload{a.Did})

	return nil
}
