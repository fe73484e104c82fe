/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package types

import (
	"fmt"
	"sort"

	"github.com/hyperledger/aries-did-registry/pkg/registry/errkind"
	"github.com/hyperledger/aries-did-registry/pkg/registry/scale"
)

// TrustRegistryInfo describes a trust registry. The convener owns it.
type TrustRegistryInfo struct {
	Convener     DidOrDidMethodKey `json:"convener"`
	Name         string            `json:"name"`
	GovFramework Bytes             `json:"govFramework"`
}

// EncodeTo writes the info.
func (i *TrustRegistryInfo) EncodeTo(e *scale.Encoder) {
	i.Convener.EncodeTo(e)
	e.String(i.Name)
	i.GovFramework.EncodeTo(e)
}

// DecodeFrom reads the info.
func (i *TrustRegistryInfo) DecodeFrom(d *scale.Decoder) {
	i.Convener.DecodeFrom(d)
	i.Name = string(d.Bounded(BoundTrustRegistryName))
	i.GovFramework = d.Bounded(BoundTrustRegistryGovFramework)
}

// VerificationPrices are the prices of verifying a credential, in the lowest denomination of each
// currency symbol.
type VerificationPrices map[string]uint64

func (p VerificationPrices) currencies() []string {
	out := make([]string, 0, len(p))

	for c := range p {
		out = append(out, c)
	}

	sort.Strings(out)

	return out
}

// Validate checks the number of currencies and the size of their symbols.
func (p VerificationPrices) Validate(limits *Limits) error {
	if uint64(len(p)) > uint64(limits.MaxIssuerPriceCurrencies) {
		return fmt.Errorf("%w: %d currencies, limit %d", errkind.TooBig, len(p), limits.MaxIssuerPriceCurrencies)
	}

	for c := range p {
		if err := CheckSize("currency "+c, len(c), limits.MaxIssuerPriceCurrencySymbolSize); err != nil {
			return err
		}
	}

	return nil
}

// EncodeTo writes the prices sorted by currency, each amount compact.
func (p VerificationPrices) EncodeTo(e *scale.Encoder) {
	currencies := p.currencies()

	e.Len(len(currencies))

	for _, c := range currencies {
		e.String(c)
		e.Compact(p[c])
	}
}

// DecodeFrom reads prices.
func (p *VerificationPrices) DecodeFrom(d *scale.Decoder) {
	n := d.BoundedLen(BoundPriceCurrencies)
	prices := make(VerificationPrices, n)

	for i := 0; i < n && d.Err() == nil; i++ {
		c := string(d.Bounded(BoundPriceCurrencySymbol))
		prices[c] = d.Compact()
	}

	*p = prices
}

// Equal reports whether both hold the same prices.
func (p VerificationPrices) Equal(other VerificationPrices) bool {
	if len(p) != len(other) {
		return false
	}

	for c, v := range p {
		if w, ok := other[c]; !ok || w != v {
			return false
		}
	}

	return true
}

// SchemaIssuer is an issuer of a schema with its verification prices.
type SchemaIssuer struct {
	Issuer DidOrDidMethodKey  `json:"issuer"`
	Prices VerificationPrices `json:"prices"`
}

// SchemaMetadata lists who issues and who verifies credentials of a schema in a trust registry.
type SchemaMetadata struct {
	Issuers   []SchemaIssuer      `json:"issuers"`
	Verifiers []DidOrDidMethodKey `json:"verifiers"`
}

// NewSchemaMetadata builds metadata from issuer prices and verifiers in canonical order.
func NewSchemaMetadata(issuers map[DidOrDidMethodKey]VerificationPrices,
	verifiers map[DidOrDidMethodKey]struct{}) SchemaMetadata {
	m := SchemaMetadata{
		Issuers:   make([]SchemaIssuer, 0, len(issuers)),
		Verifiers: make([]DidOrDidMethodKey, 0, len(verifiers)),
	}

	for issuer, prices := range issuers {
		m.Issuers = append(m.Issuers, SchemaIssuer{Issuer: issuer, Prices: prices})
	}

	for verifier := range verifiers {
		m.Verifiers = append(m.Verifiers, verifier)
	}

	sort.Slice(m.Issuers, func(i, j int) bool { return m.Issuers[i].Issuer.Compare(m.Issuers[j].Issuer) < 0 })
	sortParties(m.Verifiers)

	return m
}

// IssuerPrices returns the issuers as a map.
func (m *SchemaMetadata) IssuerPrices() map[DidOrDidMethodKey]VerificationPrices {
	out := make(map[DidOrDidMethodKey]VerificationPrices, len(m.Issuers))

	for _, i := range m.Issuers {
		out[i.Issuer] = i.Prices
	}

	return out
}

// VerifierSet returns the verifiers as a set.
func (m *SchemaMetadata) VerifierSet() map[DidOrDidMethodKey]struct{} {
	out := make(map[DidOrDidMethodKey]struct{}, len(m.Verifiers))

	for _, v := range m.Verifiers {
		out[v] = struct{}{}
	}

	return out
}

// Canonical returns the metadata deduplicated and sorted. The last prices of a repeated issuer win.
func (m *SchemaMetadata) Canonical() SchemaMetadata {
	return NewSchemaMetadata(m.IssuerPrices(), m.VerifierSet())
}

// Validate checks the metadata against the issuer, verifier and price limits.
func (m *SchemaMetadata) Validate(limits *Limits) error {
	if uint64(len(m.Issuers)) > uint64(limits.MaxIssuersPerSchema) {
		return fmt.Errorf("%w: %d issuers, limit %d", errkind.TooBig, len(m.Issuers), limits.MaxIssuersPerSchema)
	}

	if uint64(len(m.Verifiers)) > uint64(limits.MaxVerifiersPerSchema) {
		return fmt.Errorf("%w: %d verifiers, limit %d", errkind.TooBig, len(m.Verifiers),
			limits.MaxVerifiersPerSchema)
	}

	for _, i := range m.Issuers {
		if err := i.Prices.Validate(limits); err != nil {
			return err
		}
	}

	return nil
}

// EncodeTo writes the issuers with their prices followed by the verifiers.
func (m *SchemaMetadata) EncodeTo(e *scale.Encoder) {
	c := m.Canonical()

	e.Len(len(c.Issuers))

	for _, i := range c.Issuers {
		i.Issuer.EncodeTo(e)
		i.Prices.EncodeTo(e)
	}

	EncodeParties(e, c.Verifiers)
}

// DecodeFrom reads metadata.
func (m *SchemaMetadata) DecodeFrom(d *scale.Decoder) {
	n := d.BoundedLen(BoundSchemaIssuers)
	m.Issuers = make([]SchemaIssuer, 0, n)

	for i := 0; i < n && d.Err() == nil; i++ {
		var issuer SchemaIssuer

		issuer.Issuer.DecodeFrom(d)
		issuer.Prices.DecodeFrom(d)
		m.Issuers = append(m.Issuers, issuer)
	}

	m.Verifiers = DecodeParties(d, BoundSchemaVerifiers)
}

// IssuerConfiguration is the state of an issuer in one trust registry.
type IssuerConfiguration struct {
	Suspended bool                `json:"suspended"`
	Delegated []DidOrDidMethodKey `json:"delegated"`
}

// EncodeTo writes the configuration.
func (c *IssuerConfiguration) EncodeTo(e *scale.Encoder) {
	e.Bool(c.Suspended)
	EncodeParties(e, c.Delegated)
}

// DecodeFrom reads a configuration.
func (c *IssuerConfiguration) DecodeFrom(d *scale.Decoder) {
	c.Suspended = d.Bool()
	c.Delegated = DecodeParties(d, BoundDelegatedIssuers)
}

// ChangeKind is the kind of a keyed change.
type ChangeKind uint8

// Change kinds.
const (
	// ChangeAdd inserts an absent entry.
	ChangeAdd ChangeKind = iota
	// ChangeSet replaces an entry, inserting it when absent.
	ChangeSet
	// ChangeRemove deletes an existing entry.
	ChangeRemove
	// ChangeModify applies an update to an existing entry.
	ChangeModify
)

var changeKindNames = enumNames[ChangeKind]{
	ChangeAdd:    "add",
	ChangeSet:    "set",
	ChangeRemove: "remove",
	ChangeModify: "modify",
}

func (k ChangeKind) String() string {
	name, err := changeKindNames.text(k)
	if err != nil {
		return fmt.Sprintf("ChangeKind(%d)", uint8(k))
	}

	return string(name)
}

// MarshalText renders the change kind.
func (k ChangeKind) MarshalText() ([]byte, error) { return changeKindNames.text(k) }

// UnmarshalText parses the change kind.
func (k *ChangeKind) UnmarshalText(text []byte) error { return changeKindNames.parse(text, k) }

// IssuerChange adds, re-prices or removes an issuer of a schema. Prices are ignored on removal.
type IssuerChange struct {
	Issuer DidOrDidMethodKey  `json:"issuer"`
	Kind   ChangeKind         `json:"kind"`
	Prices VerificationPrices `json:"prices,omitempty"`
}

// PartyChange adds or removes a verifier of a schema or a delegated issuer.
type PartyChange struct {
	Party DidOrDidMethodKey `json:"party"`
	Kind  ChangeKind        `json:"kind"`
}

// EncodeTo writes the party and the change kind.
func (c *PartyChange) EncodeTo(e *scale.Encoder) {
	c.Party.EncodeTo(e)
	e.U8(uint8(c.Kind))
}

// DecodeFrom reads a party change.
func (c *PartyChange) DecodeFrom(d *scale.Decoder) {
	c.Party.DecodeFrom(d)
	c.Kind = changeKindNames.decode(d)
}

// SchemaMetadataUpdate modifies the issuers and verifiers of existing schema metadata.
type SchemaMetadataUpdate struct {
	Issuers   []IssuerChange `json:"issuers,omitempty"`
	Verifiers []PartyChange  `json:"verifiers,omitempty"`
}

// EncodeTo writes the issuer changes followed by the verifier changes.
func (u *SchemaMetadataUpdate) EncodeTo(e *scale.Encoder) {
	e.Len(len(u.Issuers))

	for _, c := range u.Issuers {
		c.Issuer.EncodeTo(e)
		e.U8(uint8(c.Kind))

		if c.Kind != ChangeRemove {
			c.Prices.EncodeTo(e)
		}
	}

	e.Len(len(u.Verifiers))

	for i := range u.Verifiers {
		u.Verifiers[i].EncodeTo(e)
	}
}

// DecodeFrom reads an update.
func (u *SchemaMetadataUpdate) DecodeFrom(d *scale.Decoder) {
	n := d.BoundedLen(BoundSchemaIssuers)
	u.Issuers = make([]IssuerChange, 0, n)

	for i := 0; i < n && d.Err() == nil; i++ {
		var c IssuerChange

		c.Issuer.DecodeFrom(d)
		c.Kind = changeKindNames.decode(d)

		if c.Kind != ChangeRemove {
			c.Prices.DecodeFrom(d)
		}

		u.Issuers = append(u.Issuers, c)
	}

	n = d.BoundedLen(BoundSchemaVerifiers)
	u.Verifiers = make([]PartyChange, 0, n)

	for i := 0; i < n && d.Err() == nil; i++ {
		var c PartyChange

		c.DecodeFrom(d)
		u.Verifiers = append(u.Verifiers, c)
	}
}

// SchemaChange changes the metadata of one schema. Metadata is the new value of add and set changes,
// Update the modification of modify changes.
type SchemaChange struct {
	Schema   SchemaID              `json:"schema"`
	Kind     ChangeKind            `json:"kind"`
	Metadata *SchemaMetadata       `json:"metadata,omitempty"`
	Update   *SchemaMetadataUpdate `json:"update,omitempty"`
}

func (c *SchemaChange) encodeBody(e *scale.Encoder) {
	switch c.Kind {
	case ChangeAdd, ChangeSet:
		if c.Metadata == nil {
			(&SchemaMetadata{}).EncodeTo(e)
		} else {
			c.Metadata.EncodeTo(e)
		}
	case ChangeModify:
		if c.Update == nil {
			(&SchemaMetadataUpdate{}).EncodeTo(e)
		} else {
			c.Update.EncodeTo(e)
		}
	case ChangeRemove:
	}
}

// EncodeTo writes the schema, the change kind and its body.
func (c *SchemaChange) EncodeTo(e *scale.Encoder) {
	c.Schema.EncodeTo(e)
	e.U8(uint8(c.Kind))
	c.encodeBody(e)
}

// DecodeFrom reads a schema change.
func (c *SchemaChange) DecodeFrom(d *scale.Decoder) {
	c.Schema.DecodeFrom(d)
	c.Kind = changeKindNames.decode(d)
	c.Metadata, c.Update = nil, nil

	switch c.Kind {
	case ChangeAdd, ChangeSet:
		c.Metadata = &SchemaMetadata{}
		c.Metadata.DecodeFrom(d)
	case ChangeModify:
		c.Update = &SchemaMetadataUpdate{}
		c.Update.DecodeFrom(d)
	case ChangeRemove:
	}
}

// SchemasUpdate changes the schemas of a trust registry. When Replace is set every change is a set
// change and the schemas it does not name are removed.
type SchemasUpdate struct {
	Replace bool           `json:"replace,omitempty"`
	Changes []SchemaChange `json:"changes"`
}

// EncodeTo writes the variant (0 replace, 1 modify) and the changes. Replacements carry only the
// schema and its metadata.
func (u *SchemasUpdate) EncodeTo(e *scale.Encoder) {
	if u.Replace {
		e.U8(0)
		e.Len(len(u.Changes))

		for i := range u.Changes {
			u.Changes[i].Schema.EncodeTo(e)
			u.Changes[i].encodeBody(e)
		}

		return
	}

	e.U8(1)
	e.Len(len(u.Changes))

	for i := range u.Changes {
		u.Changes[i].EncodeTo(e)
	}
}

// DecodeFrom reads a schemas update.
func (u *SchemasUpdate) DecodeFrom(d *scale.Decoder) {
	switch d.U8() {
	case 0:
		u.Replace = true
	case 1:
		u.Replace = false
	default:
		d.Fail(fmt.Errorf("%w: schemas update tag", errkind.MalformedInput))
		return
	}

	n := d.BoundedLen(BoundSchemaChanges)
	u.Changes = make([]SchemaChange, 0, n)

	for i := 0; i < n && d.Err() == nil; i++ {
		var c SchemaChange

		if u.Replace {
			c.Schema.DecodeFrom(d)
			c.Kind = ChangeSet
			c.Metadata = &SchemaMetadata{}
			c.Metadata.DecodeFrom(d)
		} else {
			c.DecodeFrom(d)
		}

		u.Changes = append(u.Changes, c)
	}
}

// DelegatedIssuersUpdate changes the issuers an issuer delegates to. When Replace is set the
// delegated set becomes the parties of the changes, which must all be add changes.
type DelegatedIssuersUpdate struct {
	Replace bool          `json:"replace,omitempty"`
	Changes []PartyChange `json:"changes"`
}

// EncodeTo writes the variant (0 replace, 1 modify) and the changes. Replacements carry only parties.
func (u *DelegatedIssuersUpdate) EncodeTo(e *scale.Encoder) {
	if u.Replace {
		e.U8(0)

		parties := make([]DidOrDidMethodKey, 0, len(u.Changes))
		for _, c := range u.Changes {
			parties = append(parties, c.Party)
		}

		EncodeParties(e, parties)

		return
	}

	e.U8(1)
	e.Len(len(u.Changes))

	for i := range u.Changes {
		u.Changes[i].EncodeTo(e)
	}
}

// DecodeFrom reads a delegated issuers update.
func (u *DelegatedIssuersUpdate) DecodeFrom(d *scale.Decoder) {
	switch d.U8() {
	case 0:
		u.Replace = true
		parties := DecodeParties(d, BoundDelegatedIssuers)

		u.Changes = make([]PartyChange, 0, len(parties))
		for _, p := range parties {
			u.Changes = append(u.Changes, PartyChange{Party: p, Kind: ChangeAdd})
		}
	case 1:
		u.Replace = false
		n := d.BoundedLen(BoundDelegatedIssuers)

		u.Changes = make([]PartyChange, 0, n)
		for i := 0; i < n && d.Err() == nil; i++ {
			var c PartyChange

			c.DecodeFrom(d)
			u.Changes = append(u.Changes, c)
		}
	default:
		d.Fail(fmt.Errorf("%w: delegated issuers update tag", errkind.MalformedInput))
	}
}

func sortParties(parties []DidOrDidMethodKey) {
	sort.Slice(parties, func(i, j int) bool { return parties[i].Compare(parties[j]) < 0 })
}

// SortedParties returns a sorted copy of parties without duplicates.
func SortedParties(parties []DidOrDidMethodKey) []DidOrDidMethodKey {
	seen := make(map[DidOrDidMethodKey]struct{}, len(parties))
	out := make([]DidOrDidMethodKey, 0, len(parties))

	for _, p := range parties {
		if _, ok := seen[p]; ok {
			continue
		}

		seen[p] = struct{}{}
		out = append(out, p)
	}

	sortParties(out)

	return out
}

// EncodeParties writes parties as a sorted, deduplicated, length-prefixed set.
func EncodeParties(e *scale.Encoder, parties []DidOrDidMethodKey) {
	set := SortedParties(parties)

	e.Len(len(set))

	for _, p := range set {
		p.EncodeTo(e)
	}
}

// DecodeParties reads a set of parties limited by bound.
func DecodeParties(d *scale.Decoder, bound scale.Bound) []DidOrDidMethodKey {
	n := d.BoundedLen(bound)
	out := make([]DidOrDidMethodKey, 0, n)

	for i := 0; i < n && d.Err() == nil; i++ {
		var p DidOrDidMethodKey

		p.DecodeFrom(d)
		out = append(out, p)
	}

	return out
}
