/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package types

import (
	"fmt"

	"github.com/hyperledger/aries-did-registry/pkg/registry/errkind"
	"github.com/hyperledger/aries-did-registry/pkg/registry/scale"
)

// StatusListType is the kind of a status-list credential.
type StatusListType uint8

// Status-list credential kinds.
const (
	RevocationList2020 StatusListType = iota
	StatusList2021
)

var statusListNames = enumNames[StatusListType]{
	RevocationList2020: "RevocationList2020Credential",
	StatusList2021:     "StatusList2021Credential",
}

// MarshalText renders the credential kind.
func (t StatusListType) MarshalText() ([]byte, error) { return statusListNames.text(t) }

// UnmarshalText parses the credential kind.
func (t *StatusListType) UnmarshalText(text []byte) error { return statusListNames.parse(text, t) }

// StatusListCredential is an opaque status-list credential.
type StatusListCredential struct {
	Type  StatusListType `json:"type"`
	Bytes Bytes          `json:"bytes"`
}

// Validate checks that the credential size is within [min, max].
func (c *StatusListCredential) Validate(limits *Limits) error {
	size := uint64(len(c.Bytes))

	if size < uint64(limits.MinStatusListCredentialSize) {
		return fmt.Errorf("%w: %d bytes, minimum %d", errkind.StatusListCredentialTooSmall,
			size, limits.MinStatusListCredentialSize)
	}

	if size > uint64(limits.MaxStatusListCredentialSize) {
		return fmt.Errorf("%w: %d bytes, maximum %d", errkind.StatusListCredentialTooBig,
			size, limits.MaxStatusListCredentialSize)
	}

	return nil
}

// EncodeTo writes the tagged credential.
func (c *StatusListCredential) EncodeTo(e *scale.Encoder) {
	e.U8(uint8(c.Type))
	c.Bytes.EncodeTo(e)
}

// DecodeFrom reads a tagged credential.
func (c *StatusListCredential) DecodeFrom(d *scale.Decoder) {
	c.Type = statusListNames.decode(d)
	c.Bytes = d.Bounded(BoundStatusListCredential)
}

// Blob is an immutable byte record.
type Blob struct {
	ID   BlobID `json:"id"`
	Blob Bytes  `json:"blob"`
}

// EncodeTo writes the blob.
func (b *Blob) EncodeTo(e *scale.Encoder) {
	b.ID.EncodeTo(e)
	b.Blob.EncodeTo(e)
}

// DecodeFrom reads the blob.
func (b *Blob) DecodeFrom(d *scale.Decoder) {
	b.ID.DecodeFrom(d)
	b.Blob = d.Bounded(BoundBlob)
}

// StoredBlob is a blob together with its owner.
type StoredBlob struct {
	Owner DidOrDidMethodKey `json:"owner"`
	Blob  Bytes             `json:"blob"`
}

// EncodeTo writes the stored blob.
func (b *StoredBlob) EncodeTo(e *scale.Encoder) {
	b.Owner.EncodeTo(e)
	b.Blob.EncodeTo(e)
}

// DecodeFrom reads the stored blob.
func (b *StoredBlob) DecodeFrom(d *scale.Decoder) {
	b.Owner.DecodeFrom(d)
	b.Blob = d.Bounded(BoundBlob)
}

// Attestation is a claim published by a DID. A missing IRI is an empty claim graph.
type Attestation struct {
	Priority uint64 `json:"priority"`
	Iri      *Bytes `json:"iri,omitempty"`
}

// EncodeTo writes the attestation.
func (a *Attestation) EncodeTo(e *scale.Encoder) {
	e.Compact(a.Priority)
	EncodeOptBytes(e, a.Iri)
}

// DecodeFrom reads the attestation.
func (a *Attestation) DecodeFrom(d *scale.Decoder) {
	a.Priority = d.Compact()
	a.Iri = DecodeOptBounded(d, BoundIri)
}

// Membership is the set of master members and the number of votes a proposal needs.
type Membership struct {
	Members         []Did  `json:"members"`
	VoteRequirement uint64 `json:"voteRequirement"`
}

// EncodeTo writes the member set and the vote requirement.
func (m *Membership) EncodeTo(e *scale.Encoder) {
	EncodeSet(e, m.Members)
	e.U64(m.VoteRequirement)
}

// DecodeFrom reads the membership.
func (m *Membership) DecodeFrom(d *scale.Decoder) {
	m.Members = DecodeBoundedSet[Did](d, BoundMasterMembers)
	m.VoteRequirement = d.U64()
}

// IsMember reports whether did is a member.
func (m *Membership) IsMember(did Did) bool {
	for _, member := range m.Members {
		if member == did {
			return true
		}
	}

	return false
}
