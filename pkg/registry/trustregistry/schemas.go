/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package trustregistry

import (
	"bytes"
	"fmt"

	"github.com/hyperledger/aries-framework-go/spi/storage"

	"github.com/hyperledger/aries-did-registry/pkg/registry/action"
	"github.com/hyperledger/aries-did-registry/pkg/registry/did"
	"github.com/hyperledger/aries-did-registry/pkg/registry/errkind"
	"github.com/hyperledger/aries-did-registry/pkg/registry/runtime"
	"github.com/hyperledger/aries-did-registry/pkg/registry/scale"
	"github.com/hyperledger/aries-did-registry/pkg/registry/store"
	"github.com/hyperledger/aries-did-registry/pkg/registry/types"
)

// SetSchemasMetadata applies schema metadata changes to a registry. The convener may change anything,
// an issuer may re-price or remove itself and a verifier may remove itself.
func (m *Module) SetSchemasMetadata(ctx *runtime.Context, a *action.SetSchemasMetadata, sig *did.Signature) error {
	return did.ExecuteAsOwner(ctx, m.dids, a, sig, m.setSchemasMetadata)
}

func (m *Module) setSchemasMetadata(ctx *runtime.Context, a *action.SetSchemasMetadata,
	actor types.DidOrDidMethodKey) error {
	tx := ctx.Tx()

	info, err := m.existing(tx, a.RegistryID)
	if err != nil {
		return err
	}

	u := updater{
		Module:   m,
		ctx:      ctx,
		registry: a.RegistryID,
		actor:    actor,
		convener: info.Convener == actor,
	}

	changes, err := u.expand(&a.Schemas)
	if err != nil {
		return err
	}

	for i := range changes {
		if err := u.apply(&changes[i]); err != nil {
			return err
		}
	}

	schemas, err := m.RegistrySchemas(tx, a.RegistryID)
	if err != nil {
		return err
	}

	if max := ctx.Limits().MaxSchemasPerRegistry; uint64(len(schemas)) > uint64(max) {
		return fmt.Errorf("%w: %d schemas, limit %d", errkind.TooBig, len(schemas), max)
	}

	return nil
}

type updater struct {
	*Module
	ctx      *runtime.Context
	registry types.TrustRegistryID
	actor    types.DidOrDidMethodKey
	convener bool
}

func (u *updater) requireConvener(what string, schema types.SchemaID) error {
	if !u.convener {
		return fmt.Errorf("%w: %s of %s needs the convener", errkind.InvalidActor, what, schema)
	}

	return nil
}

func (u *updater) requireSelfOrConvener(party types.DidOrDidMethodKey) error {
	if !u.convener && party != u.actor {
		return fmt.Errorf("%w: %s can not change %s", errkind.InvalidActor, u.actor, party)
	}

	return nil
}

// expand turns a replacement into set changes of the listed schemas and removals of all others.
func (u *updater) expand(update *types.SchemasUpdate) ([]types.SchemaChange, error) {
	seen := make(map[types.SchemaID]struct{}, len(update.Changes))

	for _, c := range update.Changes {
		if _, ok := seen[c.Schema]; ok {
			return nil, fmt.Errorf("%w: schema %s changed twice", errkind.MalformedInput, c.Schema)
		}

		seen[c.Schema] = struct{}{}
	}

	if !update.Replace {
		return update.Changes, nil
	}

	if !u.convener {
		return nil, fmt.Errorf("%w: %s replaces schemas of %s", errkind.NotTheConvener, u.actor, u.registry)
	}

	changes := make([]types.SchemaChange, 0, len(update.Changes))

	for _, c := range update.Changes {
		changes = append(changes, types.SchemaChange{Schema: c.Schema, Kind: types.ChangeSet, Metadata: c.Metadata})
	}

	stored, err := u.RegistrySchemas(u.ctx.Tx(), u.registry)
	if err != nil {
		return nil, err
	}

	for _, s := range stored {
		if _, ok := seen[s.Schema]; !ok {
			changes = append(changes, types.SchemaChange{Schema: s.Schema, Kind: types.ChangeRemove})
		}
	}

	return changes, nil
}

func (u *updater) apply(c *types.SchemaChange) error {
	tx := u.ctx.Tx()

	current, err := u.SchemaMetadata(tx, u.registry, c.Schema)
	if err != nil {
		return err
	}

	var next *types.SchemaMetadata

	switch c.Kind {
	case types.ChangeAdd, types.ChangeSet:
		if err = u.requireConvener(c.Kind.String(), c.Schema); err != nil {
			return err
		}

		if c.Kind == types.ChangeAdd && current != nil {
			return fmt.Errorf("%w: %s", errkind.SchemaMetadataAlreadyExists, c.Schema)
		}

		next = &types.SchemaMetadata{}
		if c.Metadata != nil {
			canonical := c.Metadata.Canonical()
			next = &canonical
		}
	case types.ChangeRemove:
		if err = u.requireConvener(c.Kind.String(), c.Schema); err != nil {
			return err
		}

		if current == nil {
			return fmt.Errorf("%w: %s", errkind.SchemaMetadataDoesntExist, c.Schema)
		}
	case types.ChangeModify:
		if current == nil {
			return fmt.Errorf("%w: %s", errkind.SchemaMetadataDoesntExist, c.Schema)
		}

		if c.Update == nil {
			return fmt.Errorf("%w: modify %s without an update", errkind.MalformedInput, c.Schema)
		}

		if next, err = u.modify(current, c.Update); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: %s change of a schema", errkind.MalformedInput, c.Kind)
	}

	return u.save(c.Schema, current, next)
}

func (u *updater) modify(current *types.SchemaMetadata, update *types.SchemaMetadataUpdate) (*types.SchemaMetadata,
	error) {
	issuers, verifiers := current.IssuerPrices(), current.VerifierSet()

	for _, c := range update.Issuers {
		_, exists := issuers[c.Issuer]

		switch {
		case c.Kind == types.ChangeAdd && !u.convener:
			return nil, fmt.Errorf("%w: %s adds issuer %s", errkind.InvalidActor, u.actor, c.Issuer)
		case c.Kind == types.ChangeAdd && exists:
			return nil, fmt.Errorf("%w: issuer %s", errkind.AlreadyExists, c.Issuer)
		case c.Kind == types.ChangeAdd:
			issuers[c.Issuer] = c.Prices
		case c.Kind != types.ChangeSet && c.Kind != types.ChangeRemove:
			return nil, fmt.Errorf("%w: %s change of an issuer", errkind.MalformedInput, c.Kind)
		case !exists:
			return nil, fmt.Errorf("%w: issuer %s", errkind.DoesntExist, c.Issuer)
		default:
			if err := u.requireSelfOrConvener(c.Issuer); err != nil {
				return nil, err
			}

			if c.Kind == types.ChangeSet {
				issuers[c.Issuer] = c.Prices
			} else {
				delete(issuers, c.Issuer)
			}
		}
	}

	for _, c := range update.Verifiers {
		_, exists := verifiers[c.Party]

		switch {
		case c.Kind == types.ChangeAdd && !u.convener:
			return nil, fmt.Errorf("%w: %s adds verifier %s", errkind.InvalidActor, u.actor, c.Party)
		case c.Kind == types.ChangeAdd && exists:
			return nil, fmt.Errorf("%w: verifier %s", errkind.AlreadyExists, c.Party)
		case c.Kind == types.ChangeAdd:
			verifiers[c.Party] = struct{}{}
		case c.Kind != types.ChangeRemove:
			return nil, fmt.Errorf("%w: %s change of a verifier", errkind.MalformedInput, c.Kind)
		case !exists:
			return nil, fmt.Errorf("%w: verifier %s", errkind.DoesntExist, c.Party)
		default:
			if err := u.requireSelfOrConvener(c.Party); err != nil {
				return nil, err
			}

			delete(verifiers, c.Party)
		}
	}

	next := types.NewSchemaMetadata(issuers, verifiers)

	return &next, nil
}

// save saves next as the metadata of schema, deleting it when next is nil.
func (u *updater) save(schema types.SchemaID, current, next *types.SchemaMetadata) error {
	tx := u.ctx.Tx()
	key := schemaKey(u.registry, schema)

	if next == nil {
		tx.Delete(store.TrustRegistrySchemas, key)
		depositSchema(u.ctx, SchemaMetadataRemoved, u.registry, schema)

		return nil
	}

	if err := next.Validate(u.ctx.Limits()); err != nil {
		return err
	}

	if current != nil && bytes.Equal(scale.Encode(current), scale.Encode(next)) {
		return nil
	}

	tags := []storage.Tag{
		{Name: registryTag, Value: u.registry.String()},
		{Name: schemaTag, Value: schema.String()},
	}

	for _, i := range next.Issuers {
		tags = append(tags, partyTag(issuerTag, i.Issuer))
	}

	for _, v := range next.Verifiers {
		tags = append(tags, partyTag(verifierTag, v))
	}

	tx.Save(store.TrustRegistrySchemas, key, &Schema{Registry: u.registry, Schema: schema, Metadata: *next}, tags...)

	name := SchemaMetadataUpdated
	if current == nil {
		name = SchemaMetadataAdded
	}

	depositSchema(u.ctx, name, u.registry, schema)

	return nil
}
