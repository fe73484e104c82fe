/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package anchor records the block at which the Blake2b-256 hash of some data was first published.
package anchor

import (
	"fmt"

	"github.com/hyperledger/aries-framework-go/component/log"
	"golang.org/x/crypto/blake2b"

	"github.com/hyperledger/aries-did-registry/pkg/registry/errkind"
	"github.com/hyperledger/aries-did-registry/pkg/registry/event"
	"github.com/hyperledger/aries-did-registry/pkg/registry/runtime"
	"github.com/hyperledger/aries-did-registry/pkg/registry/store"
	"github.com/hyperledger/aries-did-registry/pkg/registry/types"
)

// ModuleName is the module of the events deposited by this package.
const ModuleName = "anchor"

// AnchorDeployed is deposited when a new anchor is recorded.
const AnchorDeployed = "AnchorDeployed"

var logger = log.New("aries-registry/anchor")

// Deployed is the payload of AnchorDeployed.
type Deployed struct {
	Hash    types.Bytes32     `json:"hash"`
	Account types.AccountID   `json:"account"`
	Block   types.BlockNumber `json:"block"`
}

// Hash returns the anchor hash of data.
func Hash(data []byte) types.Bytes32 {
	return blake2b.Sum256(data)
}

// Block returns the block at which hash was anchored, nil when it never was.
func Block(tx *store.Tx, hash types.Bytes32) (*types.BlockNumber, error) {
	var b types.BlockNumber

	found, err := tx.Load(store.Anchors, hash.String(), &b)
	if err != nil || !found {
		return nil, err
	}

	return &b, nil
}

// Deploy anchors the hash of data at the current block. Anchors are immutable.
func Deploy(ctx *runtime.Context, data []byte) (types.Bytes32, error) {
	account, err := ctx.EnsureSigned()
	if err != nil {
		return types.Bytes32{}, err
	}

	hash := Hash(data)
	tx := ctx.Tx()

	exists, err := tx.Has(store.Anchors, hash.String())
	if err != nil {
		return types.Bytes32{}, err
	}

	if exists {
		return types.Bytes32{}, fmt.Errorf("%w: %s", errkind.AnchorExists, hash)
	}

	tx.Save(store.Anchors, hash.String(), ctx.Block())

	ctx.Deposit(event.New(ModuleName, AnchorDeployed,
		Deployed{Hash: hash, Account: account, Block: ctx.Block()}, event.Topic(hash[:])))
	logger.Debugf("anchor %s deployed at block %d", hash, ctx.Block())

	return hash, nil
}
