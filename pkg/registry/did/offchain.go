/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package did

import (
	"fmt"

	"github.com/hyperledger/aries-did-registry/pkg/registry/errkind"
	"github.com/hyperledger/aries-did-registry/pkg/registry/runtime"
	"github.com/hyperledger/aries-did-registry/pkg/registry/store"
	"github.com/hyperledger/aries-did-registry/pkg/registry/types"
)

// Events deposited by off-chain DID changes.
const (
	OffChainDidAdded   = "OffChainDidAdded"
	OffChainDidUpdated = "OffChainDidUpdated"
	OffChainDidRemoved = "OffChainDidRemoved"
)

type offChainPayload struct {
	Did    types.Did               `json:"did"`
	DocRef types.OffChainDidDocRef `json:"docRef"`
}

// NewOffchain registers an off-chain DID owned by the calling account.
func (m *Module) NewOffchain(ctx *runtime.Context, did types.Did, ref types.OffChainDidDocRef) error {
	caller, err := ctx.EnsureSigned()
	if err != nil {
		return err
	}

	if err = ref.Validate(ctx.Limits()); err != nil {
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

	tx.Save(store.Dids, did.String(), &StoredDidDetails{OffChain: &OffChainDidDetails{AccountID: caller, DocRef: ref}})

	deposit(ctx, OffChainDidAdded, did, offChainPayload{did, ref})

	return nil
}

// SetOffchainDidDocRef replaces the document reference of an off-chain DID owned by the caller.
func (m *Module) SetOffchainDidDocRef(ctx *runtime.Context, did types.Did, ref types.OffChainDidDocRef) error {
	caller, err := m.ownedOffChain(ctx, did)
	if err != nil {
		return err
	}

	if err = ref.Validate(ctx.Limits()); err != nil {
		return err
	}

	ctx.Tx().Save(store.Dids, did.String(),
		&StoredDidDetails{OffChain: &OffChainDidDetails{AccountID: caller, DocRef: ref}})

	deposit(ctx, OffChainDidUpdated, did, offChainPayload{did, ref})

	return nil
}

// RemoveOffchainDid deletes an off-chain DID owned by the caller.
func (m *Module) RemoveOffchainDid(ctx *runtime.Context, did types.Did) error {
	if _, err := m.ownedOffChain(ctx, did); err != nil {
		return err
	}

	ctx.Tx().Delete(store.Dids, did.String())

	deposit(ctx, OffChainDidRemoved, did, didPayload{did})

	return nil
}

func (m *Module) ownedOffChain(ctx *runtime.Context, did types.Did) (types.AccountID, error) {
	caller, err := ctx.EnsureSigned()
	if err != nil {
		return "", err
	}

	details, err := m.OffChainDid(ctx.Tx(), did)
	if err != nil {
		return "", err
	}

	if details.AccountID != caller {
		return "", fmt.Errorf("%w: %s", errkind.DidNotOwnedByAccount, did)
	}

	return caller, nil
}
