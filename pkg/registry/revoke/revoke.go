/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package revoke keeps revocation registries: sets of revoked credential ids guarded by a policy.
package revoke

import (
	"fmt"

	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/hyperledger/aries-framework-go/spi/storage"

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
const ModuleName = "revoke"

// Events.
const (
	RegistryAdded   = "RegistryAdded"
	RevokedIn       = "RevokedIn"
	UnrevokedIn     = "UnrevokedIn"
	RegistryRemoved = "RegistryRemoved"
)

const registryTagName = "registry"

var logger = log.New("aries-registry/revoke")

// Registry is a revocation registry. Revocations of an add-only registry cannot be undone.
type Registry struct {
	Policy  policy.Policy `json:"policy"`
	AddOnly bool          `json:"addOnly"`
}

// EncodeTo writes the registry.
func (r *Registry) EncodeTo(e *scale.Encoder) {
	r.Policy.EncodeTo(e)
	e.Bool(r.AddOnly)
}

// DecodeFrom reads the registry.
func (r *Registry) DecodeFrom(d *scale.Decoder) {
	r.Policy.DecodeFrom(d)
	r.AddOnly = d.Bool()
}

// Module is the revocation registry module.
type Module struct {
	dids *did.Module
}

// New returns the revocation module authorizing signers through dids.
func New(dids *did.Module) *Module {
	return &Module{dids: dids}
}

func registryTag(id types.RegistryID) storage.Tag {
	return storage.Tag{Name: registryTagName, Value: id.String()}
}

func revocationKey(id types.RegistryID, revokeID types.RevokeID) string {
	return store.Key(id.String(), revokeID.String())
}

func deposit(ctx *runtime.Context, name string, id types.RegistryID) {
	ctx.Deposit(event.New(ModuleName, name, struct {
		RegistryID types.RegistryID `json:"registryId"`
	}{id}, event.Topic(id[:])))
	logger.Debugf("%s %s at block %d", name, id, ctx.Block())
}

// Registry returns registry id, nil when absent.
func (m *Module) Registry(tx *store.Tx, id types.RegistryID) (*Registry, error) {
	var r Registry

	ok, err := tx.Load(store.RevocationRegistries, id.String(), &r)
	if err != nil || !ok {
		return nil, err
	}

	return &r, nil
}

// IsRevoked reports whether revokeID is revoked in registry id.
func (m *Module) IsRevoked(tx *store.Tx, id types.RegistryID, revokeID types.RevokeID) (bool, error) {
	return tx.Has(store.Revocations, revocationKey(id, revokeID))
}

// NewRegistry creates registry id. Any signed account may create a registry.
func (m *Module) NewRegistry(ctx *runtime.Context, id types.RegistryID, r Registry) error {
	if _, err := ctx.EnsureSigned(); err != nil {
		return err
	}

	if err := r.Policy.Validate(ctx.Limits()); err != nil {
		return err
	}

	tx := ctx.Tx()

	exists, err := tx.Has(store.RevocationRegistries, id.String())
	if err != nil {
		return err
	}

	if exists {
		return fmt.Errorf("%w: %s", errkind.RegistryExists, id)
	}

	tx.Save(store.RevocationRegistries, id.String(), &r)
	deposit(ctx, RegistryAdded, id)

	return nil
}

func (m *Module) authorize(ctx *runtime.Context, id types.RegistryID, a action.Action,
	proof policy.Proof) (*Registry, error) {
	r, err := m.Registry(ctx.Tx(), id)
	if err != nil {
		return nil, err
	}

	if r == nil {
		return nil, fmt.Errorf("%w: %s", errkind.RegistryDoesntExist, id)
	}

	if _, err := policy.Authorize(ctx, m.dids, &r.Policy, a, proof); err != nil {
		return nil, err
	}

	return r, nil
}

// Revoke adds ids to the registry. Revoking an already revoked id is a no-op for that id.
func (m *Module) Revoke(ctx *runtime.Context, a *action.Revoke, proof policy.Proof) error {
	if _, err := m.authorize(ctx, a.RegistryID, a, proof); err != nil {
		return err
	}

	tx := ctx.Tx()

	for _, id := range types.SortedSet(a.RevokeIDs) {
		tx.Put(store.Revocations, revocationKey(a.RegistryID, id), nil, registryTag(a.RegistryID))
	}

	deposit(ctx, RevokedIn, a.RegistryID)

	return nil
}

// UnRevoke removes ids from a registry that is not add-only.
func (m *Module) UnRevoke(ctx *runtime.Context, a *action.UnRevoke, proof policy.Proof) error {
	r, err := m.authorize(ctx, a.RegistryID, a, proof)
	if err != nil {
		return err
	}

	if r.AddOnly {
		return fmt.Errorf("%w: %s", errkind.AddOnly, a.RegistryID)
	}

	tx := ctx.Tx()

	for _, id := range types.SortedSet(a.RevokeIDs) {
		tx.Delete(store.Revocations, revocationKey(a.RegistryID, id))
	}

	deposit(ctx, UnrevokedIn, a.RegistryID)

	return nil
}

// RemoveRegistry deletes a registry that is not add-only together with its revocations.
func (m *Module) RemoveRegistry(ctx *runtime.Context, a *action.RemoveRegistry, proof policy.Proof) error {
	r, err := m.authorize(ctx, a.RegistryID, a, proof)
	if err != nil {
		return err
	}

	if r.AddOnly {
		return fmt.Errorf("%w: %s", errkind.AddOnly, a.RegistryID)
	}

	tx := ctx.Tx()

	removed, err := tx.DeleteTagged(store.Revocations, registryTag(a.RegistryID))
	if err != nil {
		return err
	}

	tx.Delete(store.RevocationRegistries, a.RegistryID.String())

	logger.Debugf("registry %s removed with %d revocations", a.RegistryID, removed)
	deposit(ctx, RegistryRemoved, a.RegistryID)

	return nil
}
