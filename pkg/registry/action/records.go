/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package action

import (
	"github.com/hyperledger/aries-did-registry/pkg/registry/scale"
	"github.com/hyperledger/aries-did-registry/pkg/registry/types"
)

// Revoke adds credential ids to a revocation registry. It is signed with a nonce prefix.
type Revoke struct {
	RegistryID types.RegistryID `json:"registryId"`
	RevokeIDs  []types.RevokeID `json:"revokeIds"`
}

func (a *Revoke) Tag() Tag { return TagRevoke }
func (a *Revoke) Len() uint32 { return uint32(len(types.SortedSet(a.RevokeIDs))) }
func (a *Revoke) Target() types.RegistryID { return a.RegistryID }

// EncodeTo writes the action.
func (a *Revoke) EncodeTo(e *scale.Encoder) {
	a.RegistryID.EncodeTo(e)
	types.EncodeSet(e, a.RevokeIDs)
}

// DecodeFrom reads the action.
func (a *Revoke) DecodeFrom(d *scale.Decoder) {
	a.RegistryID.DecodeFrom(d)
	a.RevokeIDs = types.DecodeSet[types.RevokeID](d)
}

// UnRevoke removes credential ids from a revocation registry. It is signed with a nonce prefix.
type UnRevoke struct {
	RegistryID types.RegistryID `json:"registryId"`
	RevokeIDs  []types.RevokeID `json:"revokeIds"`
}

func (a *UnRevoke) Tag() Tag { return TagUnRevoke }
func (a *UnRevoke) Len() uint32 { return uint32(len(types.SortedSet(a.RevokeIDs))) }
func (a *UnRevoke) Target() types.RegistryID { return a.RegistryID }

// EncodeTo writes the action.
func (a *UnRevoke) EncodeTo(e *scale.Encoder) {
	a.RegistryID.EncodeTo(e)
	types.EncodeSet(e, a.RevokeIDs)
}

// DecodeFrom reads the action.
func (a *UnRevoke) DecodeFrom(d *scale.Decoder) {
	a.RegistryID.DecodeFrom(d)
	a.RevokeIDs = types.DecodeSet[types.RevokeID](d)
}

// RemoveRegistry removes a revocation registry. It is signed with a nonce prefix.
type RemoveRegistry struct {
	RegistryID types.RegistryID `json:"registryId"`
}

func (a *RemoveRegistry) Tag() Tag { return TagRemoveRegistry }
func (a *RemoveRegistry) Len() uint32 { return 1 }
func (a *RemoveRegistry) Target() types.RegistryID { return a.RegistryID }

// EncodeTo writes the action.
func (a *RemoveRegistry) EncodeTo(e *scale.Encoder) { a.RegistryID.EncodeTo(e) }

// DecodeFrom reads the action.
func (a *RemoveRegistry) DecodeFrom(d *scale.Decoder) { a.RegistryID.DecodeFrom(d) }

// UpdateStatusListCredential replaces a status-list credential. It is signed with a nonce prefix.
type UpdateStatusListCredential struct {
	ID         types.StatusListCredentialID `json:"id"`
	Credential types.StatusListCredential   `json:"credential"`
}

func (a *UpdateStatusListCredential) Tag() Tag { return TagUpdateStatusListCredential }
func (a *UpdateStatusListCredential) Len() uint32 { return uint32(len(a.Credential.Bytes)) }
func (a *UpdateStatusListCredential) Target() types.StatusListCredentialID { return a.ID }

// EncodeTo writes the action.
func (a *UpdateStatusListCredential) EncodeTo(e *scale.Encoder) {
	a.ID.EncodeTo(e)
	a.Credential.EncodeTo(e)
}

// DecodeFrom reads the action.
func (a *UpdateStatusListCredential) DecodeFrom(d *scale.Decoder) {
	a.ID.DecodeFrom(d)
	a.Credential.DecodeFrom(d)
}

// RemoveStatusListCredential removes a status-list credential. It is signed with a nonce prefix.
type RemoveStatusListCredential struct {
	ID types.StatusListCredentialID `json:"id"`
}

func (a *RemoveStatusListCredential) Tag() Tag { return TagRemoveStatusListCredential }
func (a *RemoveStatusListCredential) Len() uint32 { return 1 }
func (a *RemoveStatusListCredential) Target() types.StatusListCredentialID { return a.ID }

// EncodeTo writes the action.
func (a *RemoveStatusListCredential) EncodeTo(e *scale.Encoder) { a.ID.EncodeTo(e) }

// DecodeFrom reads the action.
func (a *RemoveStatusListCredential) DecodeFrom(d *scale.Decoder) { a.ID.DecodeFrom(d) }

// MasterVote is a master member's vote for a proposal in a round. It is signed with a nonce prefix.
type MasterVote struct {
	Proposal types.Bytes `json:"proposal"`
	Round    uint64      `json:"round"`
}

func (a *MasterVote) Tag() Tag { return TagMasterVote }
func (a *MasterVote) Len() uint32 { return 1 }

// EncodeTo writes the action.
func (a *MasterVote) EncodeTo(e *scale.Encoder) {
	a.Proposal.EncodeTo(e)
	e.U64(a.Round)
}

// DecodeFrom reads the action.
func (a *MasterVote) DecodeFrom(d *scale.Decoder) {
	a.Proposal.DecodeFrom(d)
	a.Round = d.U64()
}

// AddBlob stores an immutable blob.
type AddBlob struct {
	Blob  types.Blob        `json:"blob"`
	Nonce types.BlockNumber `json:"nonce"`
}

func (a *AddBlob) Tag() Tag { return TagAddBlob }
func (a *AddBlob) Len() uint32 { return uint32(len(a.Blob.Blob)) }
func (a *AddBlob) ActionNonce() types.BlockNumber { return a.Nonce }
func (a *AddBlob) Target() types.BlobID { return a.Blob.ID }

// EncodeTo writes the action.
func (a *AddBlob) EncodeTo(e *scale.Encoder) {
	a.Blob.EncodeTo(e)
	a.Nonce.EncodeTo(e)
}

// DecodeFrom reads the action.
func (a *AddBlob) DecodeFrom(d *scale.Decoder) {
	a.Blob.DecodeFrom(d)
	a.Nonce.DecodeFrom(d)
}

// SetAttestationClaim publishes an attestation of the signer.
type SetAttestationClaim struct {
	Attest types.Attestation `json:"attest"`
	Nonce  types.BlockNumber `json:"nonce"`
}

func (a *SetAttestationClaim) Tag() Tag { return TagSetAttestationClaim }
func (a *SetAttestationClaim) Len() uint32 { return 1 }
func (a *SetAttestationClaim) ActionNonce() types.BlockNumber { return a.Nonce }

// EncodeTo writes the action.
func (a *SetAttestationClaim) EncodeTo(e *scale.Encoder) {
	a.Attest.EncodeTo(e)
	a.Nonce.EncodeTo(e)
}

// DecodeFrom reads the action.
func (a *SetAttestationClaim) DecodeFrom(d *scale.Decoder) {
	a.Attest.DecodeFrom(d)
	a.Nonce.DecodeFrom(d)
}
