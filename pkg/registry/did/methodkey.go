/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package did

import (
	"fmt"

	"github.com/hyperledger/aries-did-registry/pkg/registry/errkind"
	"github.com/hyperledger/aries-did-registry/pkg/registry/event"
	"github.com/hyperledger/aries-did-registry/pkg/registry/nonce"
	"github.com/hyperledger/aries-did-registry/pkg/registry/runtime"
	"github.com/hyperledger/aries-did-registry/pkg/registry/store"
	"github.com/hyperledger/aries-did-registry/pkg/registry/types"
)

// DidMethodKeyAdded is deposited when a DID method key is registered.
const DidMethodKeyAdded = "DidMethodKeyAdded"

// NewDidMethodKey registers key so that it can sign actions. Its nonce starts at the current block.
func (m *Module) NewDidMethodKey(ctx *runtime.Context, key types.DidMethodKey) error {
	if _, err := ctx.EnsureSigned(); err != nil {
		return err
	}

	if key.IsZero() {
		return fmt.Errorf("%w: empty did:key", errkind.MalformedInput)
	}

	tx := ctx.Tx()

	exists, err := tx.Has(store.DidMethodKeys, key.String())
	if err != nil {
		return err
	}

	if exists {
		return fmt.Errorf("%w: %s", errkind.DidMethodKeyExists, key)
	}

	tx.Save(store.DidMethodKeys, key.String(), nonce.New(ctx.Block(), nonce.Unit{}))

	ctx.Deposit(event.New(ModuleName, DidMethodKeyAdded, struct {
		DidMethodKey types.DidMethodKey `json:"didMethodKey"`
	}{key}, event.Topic(key.Key())))
	logger.Debugf("%s %s at block %d", DidMethodKeyAdded, key, ctx.Block())

	return nil
}
