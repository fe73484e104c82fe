/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package blob stores immutable blobs owned by the DID or DID method key that added them.
package blob

import (
	"fmt"

	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/hyperledger/aries-did-registry/pkg/registry/action"
	"github.com/hyperledger/aries-did-registry/pkg/registry/did"
	"github.com/hyperledger/aries-did-registry/pkg/registry/errkind"
	"github.com/hyperledger/aries-did-registry/pkg/registry/runtime"
	"github.com/hyperledger/aries-did-registry/pkg/registry/store"
	"github.com/hyperledger/aries-did-registry/pkg/registry/types"
)

var logger = log.New("aries-registry/blob")

// Module is the blob store.
type Module struct {
	dids *did.Module
}

// New returns the blob store authorizing owners through dids.
func New(dids *did.Module) *Module {
	return &Module{dids: dids}
}

// Blob returns the blob stored under id, nil when absent.
func (m *Module) Blob(tx *store.Tx, id types.BlobID) (*types.StoredBlob, error) {
	var b types.StoredBlob

	found, err := tx.Load(store.Blobs, id.String(), &b)
	if err != nil || !found {
		return nil, err
	}

	return &b, nil
}

// Add stores a new blob. Blobs can neither be replaced nor removed.
func (m *Module) Add(ctx *runtime.Context, a *action.AddBlob, sig *did.Signature) error {
	if err := types.CheckSize("blob", len(a.Blob.Blob), ctx.Limits().MaxBlobSize); err != nil {
		return err
	}

	return did.ExecuteAsOwner(ctx, m.dids, a, sig,
		func(ctx *runtime.Context, a *action.AddBlob, owner types.DidOrDidMethodKey) error {
			tx := ctx.Tx()

			exists, err := tx.Has(store.Blobs, a.Blob.ID.String())
			if err != nil {
				return err
			}

			if exists {
				return fmt.Errorf("%w: %s", errkind.BlobAlreadyExists, a.Blob.ID)
			}

			tx.Save(store.Blobs, a.Blob.ID.String(), &types.StoredBlob{Owner: owner, Blob: a.Blob.Blob})
			logger.Debugf("blob %s added by %s", a.Blob.ID, owner)

			return nil
		})
}
