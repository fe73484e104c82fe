/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package trustregistry keeps trust registries: a convener publishes, per credential schema, which
// issuers may issue at which verification prices and which verifiers accept the credentials.
// Issuers may delegate to other issuers, and the convener may suspend issuers.
package trustregistry

import (
	"fmt"
	"strings"

	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/hyperledger/aries-framework-go/spi/storage"

	"github.com/hyperledger/aries-did-registry/pkg/registry/action"
	"github.com/hyperledger/aries-did-registry/pkg/registry/did"
	"github.com/hyperledger/aries-did-registry/pkg/registry/errkind"
	"github.com/hyperledger/aries-did-registry/pkg/registry/event"
	"github.com/hyperledger/aries-did-registry/pkg/registry/runtime"
	"github.com/hyperledger/aries-did-registry/pkg/registry/scale"
	"github.com/hyperledger/aries-did-registry/pkg/registry/store"
	"github.com/hyperledger/aries-did-registry/pkg/registry/types"
)

// ModuleName is the module of the events deposited by this package.
const ModuleName = "trustregistry"

// Events.
const (
	TrustRegistryInitialized = "TrustRegistryInitialized"
	SchemaMetadataAdded      = "SchemaMetadataAdded"
	SchemaMetadataUpdated    = "SchemaMetadataUpdated"
	SchemaMetadataRemoved    = "SchemaMetadataRemoved"
	DelegatedIssuersUpdated  = "DelegatedIssuersUpdated"
	IssuerSuspended          = "IssuerSuspended"
	IssuerUnsuspended        = "IssuerUnsuspended"
)

// storage tags.
const (
	convenerTag  = "convener"
	registryTag  = "registry"
	schemaTag    = "schema"
	issuerTag    = "issuer"
	verifierTag  = "verifier"
	delegatedTag = "delegated"
)

var logger = log.New("aries-registry/trustregistry")

// Schema is the metadata of a schema in one trust registry.
type Schema struct {
	Registry types.TrustRegistryID `json:"registryId"`
	Schema   types.SchemaID        `json:"schemaId"`
	Metadata types.SchemaMetadata  `json:"metadata"`
}

// EncodeTo writes the registry, the schema and the metadata.
func (s *Schema) EncodeTo(e *scale.Encoder) {
	s.Registry.EncodeTo(e)
	s.Schema.EncodeTo(e)
	s.Metadata.EncodeTo(e)
}

// DecodeFrom reads a stored schema.
func (s *Schema) DecodeFrom(d *scale.Decoder) {
	s.Registry.DecodeFrom(d)
	s.Schema.DecodeFrom(d)
	s.Metadata.DecodeFrom(d)
}

// Issuer is the configuration of an issuer in one trust registry.
type Issuer struct {
	Registry      types.TrustRegistryID     `json:"registryId"`
	Issuer        types.DidOrDidMethodKey   `json:"issuer"`
	Configuration types.IssuerConfiguration `json:"configuration"`
}

// EncodeTo writes the registry, the issuer and its configuration.
func (i *Issuer) EncodeTo(e *scale.Encoder) {
	i.Registry.EncodeTo(e)
	i.Issuer.EncodeTo(e)
	i.Configuration.EncodeTo(e)
}

// DecodeFrom reads a stored issuer configuration.
func (i *Issuer) DecodeFrom(d *scale.Decoder) {
	i.Registry.DecodeFrom(d)
	i.Issuer.DecodeFrom(d)
	i.Configuration.DecodeFrom(d)
}

// Module is the trust registry store.
type Module struct {
	dids *did.Module
}

// New returns the trust registry store authorizing conveners, issuers and verifiers through dids.
func New(dids *did.Module) *Module {
	return &Module{dids: dids}
}

func registryKey(id types.TrustRegistryID) string {
	return id.String()
}

func schemaKey(registry types.TrustRegistryID, schema types.SchemaID) string {
	return store.Key(registry.String(), schema.String())
}

func issuerKey(registry types.TrustRegistryID, issuer types.DidOrDidMethodKey) string {
	return store.Key(registry.String(), issuer.StorageKey())
}

func partyTag(name string, party types.DidOrDidMethodKey) storage.Tag {
	return storage.Tag{Name: name, Value: party.StorageKey()}
}

func depositRegistry(ctx *runtime.Context, name string, id types.TrustRegistryID) {
	ctx.Deposit(event.New(ModuleName, name, struct {
		RegistryID types.TrustRegistryID `json:"registryId"`
	}{id}, event.Topic(id[:])))
	logger.Debugf("%s %s", name, id)
}

func depositSchema(ctx *runtime.Context, name string, id types.TrustRegistryID, schema types.SchemaID) {
	ctx.Deposit(event.New(ModuleName, name, struct {
		RegistryID types.TrustRegistryID `json:"registryId"`
		SchemaID   types.SchemaID        `json:"schemaId"`
	}{id, schema}, event.Topic(id[:]), event.Topic(schema[:])))
	logger.Debugf("%s %s in %s", name, schema, id)
}

func depositIssuer(ctx *runtime.Context, name string, id types.TrustRegistryID, issuer types.DidOrDidMethodKey) {
	ctx.Deposit(event.New(ModuleName, name, struct {
		RegistryID types.TrustRegistryID   `json:"registryId"`
		Issuer     types.DidOrDidMethodKey `json:"issuer"`
	}{id, issuer}, event.Topic(id[:]), event.OwnerTopic(issuer)))
	logger.Debugf("%s %s in %s", name, issuer, id)
}

// Info returns the trust registry id, nil when absent.
func (m *Module) Info(tx *store.Tx, id types.TrustRegistryID) (*types.TrustRegistryInfo, error) {
	var info types.TrustRegistryInfo

	ok, err := tx.Load(store.TrustRegistries, registryKey(id), &info)
	if err != nil || !ok {
		return nil, err
	}

	return &info, nil
}

func (m *Module) existing(tx *store.Tx, id types.TrustRegistryID) (*types.TrustRegistryInfo, error) {
	info, err := m.Info(tx, id)
	if err != nil {
		return nil, err
	}

	if info == nil {
		return nil, fmt.Errorf("%w: %s", errkind.TrustRegistryDoesntExist, id)
	}

	return info, nil
}

// ConvenerRegistries returns the ids of the trust registries convened by convener.
func (m *Module) ConvenerRegistries(tx *store.Tx, convener types.DidOrDidMethodKey) ([]types.TrustRegistryID, error) {
	entries, err := tx.Query(store.TrustRegistries, partyTag(convenerTag, convener))
	if err != nil {
		return nil, err
	}

	ids := make([]types.TrustRegistryID, 0, len(entries))

	for _, e := range entries {
		raw, err := types.DecodeHex(e.Key)
		if err != nil || len(raw) != len(types.TrustRegistryID{}) {
			return nil, fmt.Errorf("%w: trust registry key %q", errkind.MalformedInput, e.Key)
		}

		ids = append(ids, types.TrustRegistryID(raw))
	}

	return ids, nil
}

// SchemaMetadata returns the metadata of schema in registry, nil when absent.
func (m *Module) SchemaMetadata(tx *store.Tx, registry types.TrustRegistryID,
	schema types.SchemaID) (*types.SchemaMetadata, error) {
	var s Schema

	ok, err := tx.Load(store.TrustRegistrySchemas, schemaKey(registry, schema), &s)
	if err != nil || !ok {
		return nil, err
	}

	return &s.Metadata, nil
}

func (m *Module) schemas(tx *store.Tx, tag storage.Tag) ([]Schema, error) {
	entries, err := tx.Query(store.TrustRegistrySchemas, tag)
	if err != nil {
		return nil, err
	}

	out := make([]Schema, len(entries))

	for i, e := range entries {
		if err := scale.Decode(e.Value, &out[i]); err != nil {
			return nil, fmt.Errorf("%w: schema %s: %s", errkind.MalformedInput, e.Key, err)
		}
	}

	return out, nil
}

// RegistrySchemas returns the schemas of registry ordered by schema id.
func (m *Module) RegistrySchemas(tx *store.Tx, registry types.TrustRegistryID) ([]Schema, error) {
	return m.schemas(tx, storage.Tag{Name: registryTag, Value: registry.String()})
}

// SchemaRegistries returns the metadata of schema in every trust registry that lists it.
func (m *Module) SchemaRegistries(tx *store.Tx, schema types.SchemaID) ([]Schema, error) {
	return m.schemas(tx, storage.Tag{Name: schemaTag, Value: schema.String()})
}

func (m *Module) partySchemas(tx *store.Tx, name string, party types.DidOrDidMethodKey) ([]Schema, error) {
	return m.schemas(tx, partyTag(name, party))
}

func registriesOf(schemas []Schema) []types.TrustRegistryID {
	ids := make([]types.TrustRegistryID, 0, len(schemas))

	for _, s := range schemas {
		if len(ids) == 0 || ids[len(ids)-1] != s.Registry {
			ids = append(ids, s.Registry)
		}
	}

	return ids
}

func schemasIn(schemas []Schema, registry types.TrustRegistryID) []types.SchemaID {
	var ids []types.SchemaID

	for _, s := range schemas {
		if s.Registry == registry {
			ids = append(ids, s.Schema)
		}
	}

	return ids
}

// IssuerRegistries returns the trust registries in which issuer issues a schema.
func (m *Module) IssuerRegistries(tx *store.Tx, issuer types.DidOrDidMethodKey) ([]types.TrustRegistryID, error) {
	schemas, err := m.partySchemas(tx, issuerTag, issuer)
	if err != nil {
		return nil, err
	}

	return registriesOf(schemas), nil
}

// VerifierRegistries returns the trust registries in which verifier verifies a schema.
func (m *Module) VerifierRegistries(tx *store.Tx, verifier types.DidOrDidMethodKey) ([]types.TrustRegistryID, error) {
	schemas, err := m.partySchemas(tx, verifierTag, verifier)
	if err != nil {
		return nil, err
	}

	return registriesOf(schemas), nil
}

// IssuerSchemas returns the schemas issuer issues in registry.
func (m *Module) IssuerSchemas(tx *store.Tx, registry types.TrustRegistryID,
	issuer types.DidOrDidMethodKey) ([]types.SchemaID, error) {
	schemas, err := m.partySchemas(tx, issuerTag, issuer)
	if err != nil {
		return nil, err
	}

	return schemasIn(schemas, registry), nil
}

// VerifierSchemas returns the schemas verifier verifies in registry.
func (m *Module) VerifierSchemas(tx *store.Tx, registry types.TrustRegistryID,
	verifier types.DidOrDidMethodKey) ([]types.SchemaID, error) {
	schemas, err := m.partySchemas(tx, verifierTag, verifier)
	if err != nil {
		return nil, err
	}

	return schemasIn(schemas, registry), nil
}

// IssuerConfiguration returns the configuration of issuer in registry. Issuers never configured are
// neither suspended nor delegating.
func (m *Module) IssuerConfiguration(tx *store.Tx, registry types.TrustRegistryID,
	issuer types.DidOrDidMethodKey) (*types.IssuerConfiguration, error) {
	var i Issuer

	if _, err := tx.Load(store.TrustRegistryIssuers, issuerKey(registry, issuer), &i); err != nil {
		return nil, err
	}

	return &i.Configuration, nil
}

func (m *Module) saveIssuer(tx *store.Tx, registry types.TrustRegistryID, issuer types.DidOrDidMethodKey,
	c *types.IssuerConfiguration) {
	tags := []storage.Tag{{Name: registryTag, Value: registry.String()}}

	for _, d := range c.Delegated {
		tags = append(tags, partyTag(delegatedTag, d))
	}

	tx.Save(store.TrustRegistryIssuers, issuerKey(registry, issuer),
		&Issuer{Registry: registry, Issuer: issuer, Configuration: *c}, tags...)
}

// DelegatedIssuerSchemas returns the schemas delegated issues in registry on behalf of the issuers
// delegating to it.
func (m *Module) DelegatedIssuerSchemas(tx *store.Tx, registry types.TrustRegistryID,
	delegated types.DidOrDidMethodKey) ([]types.SchemaID, error) {
	entries, err := tx.Query(store.TrustRegistryIssuers, partyTag(delegatedTag, delegated))
	if err != nil {
		return nil, err
	}

	prefix := registry.String() + "/"
	seen := make(map[types.SchemaID]struct{})

	var ids []types.SchemaID

	for _, e := range entries {
		if !strings.HasPrefix(e.Key, prefix) {
			continue
		}

		var i Issuer

		if err := scale.Decode(e.Value, &i); err != nil {
			return nil, fmt.Errorf("%w: issuer %s: %s", errkind.MalformedInput, e.Key, err)
		}

		schemas, err := m.IssuerSchemas(tx, registry, i.Issuer)
		if err != nil {
			return nil, err
		}

		for _, s := range schemas {
			if _, ok := seen[s]; !ok {
				seen[s] = struct{}{}
				ids = append(ids, s)
			}
		}
	}

	return types.SortedSet(ids), nil
}

// InitOrUpdate creates a trust registry convened by the signer, or updates the name and governance
// framework of a registry the signer convenes.
func (m *Module) InitOrUpdate(ctx *runtime.Context, a *action.InitOrUpdateTrustRegistry, sig *did.Signature) error {
	limits := ctx.Limits()

	if err := types.CheckSize("trust registry name", len(a.Name), limits.MaxTrustRegistryNameSize); err != nil {
		return err
	}

	if err := types.CheckSize("governance framework", len(a.GovFramework),
		limits.MaxTrustRegistryGovFrameworkSize); err != nil {
		return err
	}

	return did.ExecuteAsOwner(ctx, m.dids, a, sig, m.initOrUpdate)
}

func (m *Module) initOrUpdate(ctx *runtime.Context, a *action.InitOrUpdateTrustRegistry,
	convener types.DidOrDidMethodKey) error {
	tx := ctx.Tx()

	info, err := m.Info(tx, a.RegistryID)
	if err != nil {
		return err
	}

	if info != nil && info.Convener != convener {
		return fmt.Errorf("%w: %s convenes %s", errkind.NotTheConvener, info.Convener, a.RegistryID)
	}

	if info == nil {
		registries, err := m.ConvenerRegistries(tx, convener)
		if err != nil {
			return err
		}

		if uint64(len(registries)) >= uint64(ctx.Limits().MaxConvenerRegistries) {
			return fmt.Errorf("%w: %s convenes %d", errkind.TooManyRegistries, convener, len(registries))
		}
	}

	tx.Save(store.TrustRegistries, registryKey(a.RegistryID), &types.TrustRegistryInfo{
		Convener:     convener,
		Name:         a.Name,
		GovFramework: a.GovFramework,
	}, partyTag(convenerTag, convener))

	depositRegistry(ctx, TrustRegistryInitialized, a.RegistryID)

	return nil
}

// UpdateDelegatedIssuers changes the issuers the signing issuer delegates to. The signer must issue a
// schema in the registry and can not delegate to itself.
func (m *Module) UpdateDelegatedIssuers(ctx *runtime.Context, a *action.UpdateDelegatedIssuers,
	sig *did.Signature) error {
	return did.ExecuteAsOwner(ctx, m.dids, a, sig, m.updateDelegatedIssuers)
}

func (m *Module) updateDelegatedIssuers(ctx *runtime.Context, a *action.UpdateDelegatedIssuers,
	issuer types.DidOrDidMethodKey) error {
	tx := ctx.Tx()

	if _, err := m.existing(tx, a.RegistryID); err != nil {
		return err
	}

	if err := m.ensureIssuer(tx, a.RegistryID, issuer); err != nil {
		return err
	}

	config, err := m.IssuerConfiguration(tx, a.RegistryID, issuer)
	if err != nil {
		return err
	}

	delegated, err := applyDelegation(config.Delegated, &a.Delegated, issuer)
	if err != nil {
		return err
	}

	if uint64(len(delegated)) > uint64(ctx.Limits().MaxDelegatedIssuers) {
		return fmt.Errorf("%w: %d delegated issuers, limit %d", errkind.TooBig, len(delegated),
			ctx.Limits().MaxDelegatedIssuers)
	}

	config.Delegated = delegated
	m.saveIssuer(tx, a.RegistryID, issuer, config)

	depositIssuer(ctx, DelegatedIssuersUpdated, a.RegistryID, issuer)

	return nil
}

func applyDelegation(current []types.DidOrDidMethodKey, u *types.DelegatedIssuersUpdate,
	issuer types.DidOrDidMethodKey) ([]types.DidOrDidMethodKey, error) {
	set := make(map[types.DidOrDidMethodKey]struct{}, len(current))

	if !u.Replace {
		for _, d := range current {
			set[d] = struct{}{}
		}
	}

	for _, c := range u.Changes {
		if c.Party == issuer {
			return nil, fmt.Errorf("%w: %s can not delegate to itself", errkind.InvalidActor, issuer)
		}

		_, exists := set[c.Party]

		switch {
		case c.Kind == types.ChangeAdd && exists:
			return nil, fmt.Errorf("%w: %s is already delegated", errkind.AlreadyExists, c.Party)
		case c.Kind == types.ChangeAdd:
			set[c.Party] = struct{}{}
		case c.Kind == types.ChangeRemove && !u.Replace && exists:
			delete(set, c.Party)
		case c.Kind == types.ChangeRemove && !u.Replace:
			return nil, fmt.Errorf("%w: %s is not delegated", errkind.DoesntExist, c.Party)
		default:
			return nil, fmt.Errorf("%w: %s change of a delegated issuer", errkind.MalformedInput, c.Kind)
		}
	}

	out := make([]types.DidOrDidMethodKey, 0, len(set))
	for d := range set {
		out = append(out, d)
	}

	return types.SortedParties(out), nil
}

func (m *Module) ensureIssuer(tx *store.Tx, registry types.TrustRegistryID, issuer types.DidOrDidMethodKey) error {
	schemas, err := m.IssuerSchemas(tx, registry, issuer)
	if err != nil {
		return err
	}

	if len(schemas) == 0 {
		return fmt.Errorf("%w: %s in %s", errkind.NoSuchIssuer, issuer, registry)
	}

	return nil
}

// SuspendIssuers suspends issuers of a registry convened by the signer.
func (m *Module) SuspendIssuers(ctx *runtime.Context, a *action.SuspendIssuers, sig *did.Signature) error {
	return did.ExecuteAsOwner(ctx, m.dids, a, sig,
		func(ctx *runtime.Context, a *action.SuspendIssuers, convener types.DidOrDidMethodKey) error {
			return m.setSuspended(ctx, a.RegistryID, a.Issuers, convener, true)
		})
}

// UnsuspendIssuers lifts the suspension of issuers of a registry convened by the signer.
func (m *Module) UnsuspendIssuers(ctx *runtime.Context, a *action.UnsuspendIssuers, sig *did.Signature) error {
	return did.ExecuteAsOwner(ctx, m.dids, a, sig,
		func(ctx *runtime.Context, a *action.UnsuspendIssuers, convener types.DidOrDidMethodKey) error {
			return m.setSuspended(ctx, a.RegistryID, a.Issuers, convener, false)
		})
}

func (m *Module) setSuspended(ctx *runtime.Context, registry types.TrustRegistryID,
	issuers []types.DidOrDidMethodKey, convener types.DidOrDidMethodKey, suspended bool) error {
	tx := ctx.Tx()

	info, err := m.existing(tx, registry)
	if err != nil {
		return err
	}

	if info.Convener != convener {
		return fmt.Errorf("%w: %s convenes %s", errkind.NotTheConvener, info.Convener, registry)
	}

	issuers = types.SortedParties(issuers)
	configs := make([]*types.IssuerConfiguration, len(issuers))

	for i, issuer := range issuers {
		if err := m.ensureIssuer(tx, registry, issuer); err != nil {
			return err
		}

		configs[i], err = m.IssuerConfiguration(tx, registry, issuer)
		if err != nil {
			return err
		}

		switch {
		case suspended && configs[i].Suspended:
			return fmt.Errorf("%w: %s", errkind.AlreadySuspended, issuer)
		case !suspended && !configs[i].Suspended:
			return fmt.Errorf("%w: %s", errkind.NotSuspended, issuer)
		}
	}

	name := IssuerUnsuspended
	if suspended {
		name = IssuerSuspended
	}

	for i, issuer := range issuers {
		configs[i].Suspended = suspended
		m.saveIssuer(tx, registry, issuer, configs[i])

		depositIssuer(ctx, name, registry, issuer)
	}

	return nil
}
