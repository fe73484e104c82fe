/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package statuslist stores status-list credentials guarded by a policy.
package statuslist

import (
	"fmt"

	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/hyperledger/aries-did-registry/pkg/registry/action"
	"github.com/hyperledger/aries-did-registry/pkg/registry/did"
	"github.com/hyperledger/aries-did-registry/pkg/registry/errkind"
	"github.com/hyperledger/aries-did-registry/pkg/registry/event"
	"github.com/hyperledger/aries-did-registry/pkg/registry/policy"
	"github.com/hyperledger/aries-did-registry/pkg/registry/runtime"
	"github.com/hyperledger/aries-did-registry/pkg/registry/scale"
	"github.com/hyperledger/aries-did-registry/pkg/registry/store"
	"github.com/hyperledger/aries-did-registry/pkg/registry/types"
)

// ModuleName is the module of the events deposited by this package.
const ModuleName = "statusList"

// Events.
const (
	StatusListCredentialCreated = "StatusListCredentialCreated"
	StatusListCredentialUpdated = "StatusListCredentialUpdated"
	StatusListCredentialRemoved = "StatusListCredentialRemoved"
)

var logger = log.New("aries-registry/statuslist")

// CredentialWithPolicy is a stored credential and the policy allowed to change it.
type CredentialWithPolicy struct {
	Credential types.StatusListCredential `json:"statusListCredential"`
	Policy     policy.Policy              `json:"policy"`
}

// EncodeTo writes the credential then the policy.
func (c *CredentialWithPolicy) EncodeTo(e *scale.Encoder) {
	c.Credential.EncodeTo(e)
	c.Policy.EncodeTo(e)
}

// DecodeFrom reads the credential then the policy.
func (c *CredentialWithPolicy) DecodeFrom(d *scale.Decoder) {
	c.Credential.DecodeFrom(d)
	c.Policy.DecodeFrom(d)
}

// Module is the status-list credential module.
type Module struct {
	dids *did.Module
}

// New returns the status-list module authorizing signers through dids.
func New(dids *did.Module) *Module {
	return &Module{dids: dids}
}

func deposit(ctx *runtime.Context, name string, id types.StatusListCredentialID) {
	ctx.Deposit(event.New(ModuleName, name, struct {
		ID types.StatusListCredentialID `json:"id"`
	}{id}, event.Topic(id[:])))
	logger.Debugf("%s %s at block %d", name, id, ctx.Block())
}

// Credential returns credential id, nil when absent.
func (m *Module) Credential(tx *store.Tx, id types.StatusListCredentialID) (*CredentialWithPolicy, error) {
	var c CredentialWithPolicy

	ok, err := tx.Load(store.StatusListCredentials, id.String(), &c)
	if err != nil || !ok {
		return nil, err
	}

	return &c, nil
}

// Create stores a new credential. Any signed account may create one.
func (m *Module) Create(ctx *runtime.Context, id types.StatusListCredentialID, c CredentialWithPolicy) error {
	if _, err := ctx.EnsureSigned(); err != nil {
		return err
	}

	if err := c.Credential.Validate(ctx.Limits()); err != nil {
		return err
	}

	if err := c.Policy.Validate(ctx.Limits()); err != nil {
		return err
	}

	tx := ctx.Tx()

	exists, err := tx.Has(store.StatusListCredentials, id.String())
	if err != nil {
		return err
	}

	if exists {
		return fmt.Errorf("%w: %s", errkind.StatusListCredentialAlreadyExists, id)
	}

	tx.Save(store.StatusListCredentials, id.String(), &c)
	deposit(ctx, StatusListCredentialCreated, id)

	return nil
}

func (m *Module) authorize(ctx *runtime.Context, id types.StatusListCredentialID, a action.Action,
	proof policy.Proof) (*CredentialWithPolicy, error) {
	c, err := m.Credential(ctx.Tx(), id)
	if err != nil {
		return nil, err
	}

	if c == nil {
		return nil, fmt.Errorf("%w: %s", errkind.StatusListCredentialDoesntExist, id)
	}

	if _, err := policy.Authorize(ctx, m.dids, &c.Policy, a, proof); err != nil {
		return nil, err
	}

	return c, nil
}

// Update replaces the credential, keeping its policy.
func (m *Module) Update(ctx *runtime.Context, a *action.UpdateStatusListCredential, proof policy.Proof) error {
	if err := a.Credential.Validate(ctx.Limits()); err != nil {
		return err
	}

	c, err := m.authorize(ctx, a.ID, a, proof)
	if err != nil {
		return err
	}

	c.Credential = a.Credential
	ctx.Tx().Save(store.StatusListCredentials, a.ID.String(), c)
	deposit(ctx, StatusListCredentialUpdated, a.ID)

	return nil
}

// Remove deletes the credential.
func (m *Module) Remove(ctx *runtime.Context, a *action.RemoveStatusListCredential, proof policy.Proof) error {
	if _, err := m.authorize(ctx, a.ID, a, proof); err != nil {
		return err
	}

	ctx.Tx().Delete(store.StatusListCredentials, a.ID.String())
	deposit(ctx, StatusListCredentialRemoved, a.ID)

	return nil
}
