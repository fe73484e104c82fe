/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package action

import (
	"github.com/hyperledger/aries-did-registry/pkg/registry/scale"
	"github.com/hyperledger/aries-did-registry/pkg/registry/types"
)

// InitOrUpdateTrustRegistry creates a trust registry convened by the signer, or renames one it convenes.
type InitOrUpdateTrustRegistry struct {
	RegistryID   types.TrustRegistryID `json:"registryId"`
	Name         string                `json:"name"`
	GovFramework types.Bytes           `json:"govFramework"`
	Nonce        types.BlockNumber     `json:"nonce"`
}

func (a *InitOrUpdateTrustRegistry) Tag() Tag { return TagInitOrUpdateTrustRegistry }
func (a *InitOrUpdateTrustRegistry) Len() uint32 { return 1 }
func (a *InitOrUpdateTrustRegistry) ActionNonce() types.BlockNumber { return a.Nonce }

// EncodeTo writes the action.
func (a *InitOrUpdateTrustRegistry) EncodeTo(e *scale.Encoder) {
	a.RegistryID.EncodeTo(e)
	e.String(a.Name)
	a.GovFramework.EncodeTo(e)
	a.Nonce.EncodeTo(e)
}

// DecodeFrom reads the action.
func (a *InitOrUpdateTrustRegistry) DecodeFrom(d *scale.Decoder) {
	a.RegistryID.DecodeFrom(d)
	a.Name = string(d.Bounded(types.BoundTrustRegistryName))
	a.GovFramework = d.Bounded(types.BoundTrustRegistryGovFramework)
	a.Nonce.DecodeFrom(d)
}

// SetSchemasMetadata changes the schema metadata of a trust registry.
type SetSchemasMetadata struct {
	RegistryID types.TrustRegistryID `json:"registryId"`
	Schemas    types.SchemasUpdate   `json:"schemas"`
	Nonce      types.BlockNumber     `json:"nonce"`
}

func (a *SetSchemasMetadata) Tag() Tag { return TagSetSchemasMetadata }
func (a *SetSchemasMetadata) ActionNonce() types.BlockNumber { return a.Nonce }

// Len is the number of schema changes. A replacement always counts, it may remove every schema.
func (a *SetSchemasMetadata) Len() uint32 {
	if a.Schemas.Replace && len(a.Schemas.Changes) == 0 {
		return 1
	}

	return uint32(len(a.Schemas.Changes))
}

// EncodeTo writes the action.
func (a *SetSchemasMetadata) EncodeTo(e *scale.Encoder) {
	a.RegistryID.EncodeTo(e)
	a.Schemas.EncodeTo(e)
	a.Nonce.EncodeTo(e)
}

// DecodeFrom reads the action.
func (a *SetSchemasMetadata) DecodeFrom(d *scale.Decoder) {
	a.RegistryID.DecodeFrom(d)
	a.Schemas.DecodeFrom(d)
	a.Nonce.DecodeFrom(d)
}

// UpdateDelegatedIssuers changes the issuers the signing issuer delegates to in a trust registry.
type UpdateDelegatedIssuers struct {
	RegistryID types.TrustRegistryID        `json:"registryId"`
	Delegated  types.DelegatedIssuersUpdate `json:"delegated"`
	Nonce      types.BlockNumber            `json:"nonce"`
}

func (a *UpdateDelegatedIssuers) Tag() Tag { return TagUpdateDelegatedIssuers }
func (a *UpdateDelegatedIssuers) ActionNonce() types.BlockNumber { return a.Nonce }

// Len is the number of delegated issuer changes. A replacement always counts, it may clear the set.
func (a *UpdateDelegatedIssuers) Len() uint32 {
	if a.Delegated.Replace && len(a.Delegated.Changes) == 0 {
		return 1
	}

	return uint32(len(a.Delegated.Changes))
}

// EncodeTo writes the action.
func (a *UpdateDelegatedIssuers) EncodeTo(e *scale.Encoder) {
	a.RegistryID.EncodeTo(e)
	a.Delegated.EncodeTo(e)
	a.Nonce.EncodeTo(e)
}

// DecodeFrom reads the action.
func (a *UpdateDelegatedIssuers) DecodeFrom(d *scale.Decoder) {
	a.RegistryID.DecodeFrom(d)
	a.Delegated.DecodeFrom(d)
	a.Nonce.DecodeFrom(d)
}

// SuspendIssuers suspends issuers of a trust registry. Only its convener signs it.
type SuspendIssuers struct {
	RegistryID types.TrustRegistryID     `json:"registryId"`
	Issuers    []types.DidOrDidMethodKey `json:"issuers"`
	Nonce      types.BlockNumber         `json:"nonce"`
}

func (a *SuspendIssuers) Tag() Tag { return TagSuspendIssuers }
func (a *SuspendIssuers) Len() uint32 { return uint32(len(types.SortedParties(a.Issuers))) }
func (a *SuspendIssuers) ActionNonce() types.BlockNumber { return a.Nonce }

// EncodeTo writes the action.
func (a *SuspendIssuers) EncodeTo(e *scale.Encoder) {
	a.RegistryID.EncodeTo(e)
	types.EncodeParties(e, a.Issuers)
	a.Nonce.EncodeTo(e)
}

// DecodeFrom reads the action.
func (a *SuspendIssuers) DecodeFrom(d *scale.Decoder) {
	a.RegistryID.DecodeFrom(d)
	a.Issuers = types.DecodeParties(d, types.BoundSchemaIssuers)
	a.Nonce.DecodeFrom(d)
}

// UnsuspendIssuers lifts the suspension of issuers of a trust registry. Only its convener signs it.
type UnsuspendIssuers struct {
	RegistryID types.TrustRegistryID     `json:"registryId"`
	Issuers    []types.DidOrDidMethodKey `json:"issuers"`
	Nonce      types.BlockNumber         `json:"nonce"`
}

func (a *UnsuspendIssuers) Tag() Tag { return TagUnsuspendIssuers }
func (a *UnsuspendIssuers) Len() uint32 { return uint32(len(types.SortedParties(a.Issuers))) }
func (a *UnsuspendIssuers) ActionNonce() types.BlockNumber { return a.Nonce }

// EncodeTo writes the action.
func (a *UnsuspendIssuers) EncodeTo(e *scale.Encoder) {
	a.RegistryID.EncodeTo(e)
	types.EncodeParties(e, a.Issuers)
	a.Nonce.EncodeTo(e)
}

// DecodeFrom reads the action.
func (a *UnsuspendIssuers) DecodeFrom(d *scale.Decoder) {
	a.RegistryID.DecodeFrom(d)
	a.Issuers = types.DecodeParties(d, types.BoundSchemaIssuers)
	a.Nonce.DecodeFrom(d)
}
