/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package did

import (
	"fmt"

	"github.com/hyperledger/aries-did-registry/pkg/registry/action"
	"github.com/hyperledger/aries-did-registry/pkg/registry/errkind"
	"github.com/hyperledger/aries-did-registry/pkg/registry/keys"
	"github.com/hyperledger/aries-did-registry/pkg/registry/nonce"
	"github.com/hyperledger/aries-did-registry/pkg/registry/runtime"
	"github.com/hyperledger/aries-did-registry/pkg/registry/store"
	"github.com/hyperledger/aries-did-registry/pkg/registry/types"
)

// Events deposited by on-chain DID lifecycle changes.
const (
	OnChainDidAdded   = "OnChainDidAdded"
	OnChainDidRemoved = "OnChainDidRemoved"
)

type didPayload struct {
	Did types.Did `json:"did"`
}

// NewOnchain registers an on-chain DID. The DID controls itself when any key has the capability
// invocation relationship; otherwise controllers must be given.
func (m *Module) NewOnchain(ctx *runtime.Context, did types.Did, unchecked []keys.UncheckedDidKey,
	controllers []types.Did) error {
	if _, err := ctx.EnsureSigned(); err != nil {
		return err
	}

	tx := ctx.Tx()

	exists, err := m.Exists(tx, did)
	if err != nil {
		return err
	}

	if exists {
		return fmt.Errorf("%w: %s", errkind.DidAlreadyExists, did)
	}

	checked, err := checkKeys(unchecked)
	if err != nil {
		return err
	}

	var controlKeys uint32

	for _, key := range checked {
		if key.CanControl() {
			controlKeys++
		}
	}

	if controlKeys > 0 {
		controllers = append(append([]types.Did{}, controllers...), did)
	}

	controllers = types.SortedSet(controllers)
	if len(controllers) == 0 {
		return fmt.Errorf("%w: %s", errkind.NoControllerProvided, did)
	}

	details := OnChainDidDetails{ActiveControllerKeys: controlKeys, ActiveControllers: uint32(len(controllers))}

	for _, key := range checked {
		id, err := details.LastKeyID.Inc()
		if err != nil {
			return err
		}

		m.putKey(tx, did, id, key)
	}

	for _, c := range controllers {
		m.putController(tx, did, c)
	}

	m.saveOnChain(tx, did, nonce.New(ctx.Block(), details))

	deposit(ctx, OnChainDidAdded, did, didPayload{did})

	return nil
}

// RemoveOnchainDid removes an on-chain DID with its keys, controllers and service endpoints, and
// notifies dependent modules.
func (m *Module) RemoveOnchainDid(ctx *runtime.Context, a *action.DidRemoval, sig *Signature) error {
	return ExecuteAsController(ctx, m, a, sig, m.removeOnchainDid)
}

func (m *Module) removeOnchainDid(ctx *runtime.Context, a *action.DidRemoval, details **OnChainDidDetails) error {
	tx := ctx.Tx()

	for _, ns := range []string{store.DidKeys, store.DidControllers, store.DidServiceEndpoints} {
		if _, err := tx.DeleteTagged(ns, didTag(a.Did)); err != nil {
			return err
		}
	}

	for _, h := range m.removalHooks {
		if err := h.OnDidRemoval(ctx, a.Did); err != nil {
			return fmt.Errorf("did removal hook: %w", err)
		}
	}

	*details = nil

	deposit(ctx, OnChainDidRemoved, a.Did, didPayload{a.Did})

	return nil
}
