/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package keys

import (
	"github.com/hyperledger/aries-did-registry/pkg/registry/errkind"
	"github.com/hyperledger/aries-did-registry/pkg/registry/scale"
)

// VerificationRelationship is a bit set of the purposes a DID key serves.
type VerificationRelationship uint16

// Verification relationships.
const (
	None                 VerificationRelationship = 0
	Authentication       VerificationRelationship = 0b0001
	Assertion            VerificationRelationship = 0b0010
	CapabilityInvocation VerificationRelationship = 0b0100
	KeyAgreement         VerificationRelationship = 0b1000
	AllForSigning                                 = Authentication | Assertion | CapabilityInvocation
)

// Has reports whether every bit of rel is set.
func (v VerificationRelationship) Has(rel VerificationRelationship) bool {
	return v&rel == rel
}

// UncheckedDidKey is a DID key as submitted, before its relationships are validated.
type UncheckedDidKey struct {
	PublicKey PublicKey                `json:"publicKey"`
	VerRels   VerificationRelationship `json:"verRels"`
}

// EncodeTo writes the key and its relationships.
func (k UncheckedDidKey) EncodeTo(e *scale.Encoder) {
	k.PublicKey.EncodeTo(e)
	e.U16(uint16(k.VerRels))
}

// DecodeFrom reads the key and its relationships.
func (k *UncheckedDidKey) DecodeFrom(d *scale.Decoder) {
	k.PublicKey.DecodeFrom(d)
	k.VerRels = VerificationRelationship(d.U16())
}

// DidKey is a validated DID key.
type DidKey struct {
	PublicKey PublicKey                `json:"publicKey"`
	VerRels   VerificationRelationship `json:"verRels"`
}

// NewDidKey validates an UncheckedDidKey. Empty relationships default to AllForSigning for signing
// keys and KeyAgreement for key agreement keys.
func NewDidKey(k UncheckedDidKey) (DidKey, error) {
	if err := k.PublicKey.Validate(); err != nil {
		return DidKey{}, err
	}

	rels := k.VerRels
	canSign := k.PublicKey.CanSign()

	if rels == None {
		if canSign {
			rels = AllForSigning
		} else {
			rels = KeyAgreement
		}
	}

	switch {
	case canSign && rels.Has(KeyAgreement):
		return DidKey{}, errkind.SigningKeyCantBeUsedForKeyAgreement
	case !canSign && rels != KeyAgreement:
		return DidKey{}, errkind.KeyAgreementCantBeUsedForSigning
	}

	return DidKey{PublicKey: k.PublicKey, VerRels: rels}, nil
}

// CanSign reports whether the key produces signatures.
func (k DidKey) CanSign() bool {
	return k.PublicKey.CanSign()
}

// CanAuthenticate reports whether the key has the authentication relationship.
func (k DidKey) CanAuthenticate() bool {
	return k.CanSign() && k.VerRels.Has(Authentication)
}

// CanControl reports whether the key has the capability invocation relationship.
func (k DidKey) CanControl() bool {
	return k.CanSign() && k.VerRels.Has(CapabilityInvocation)
}

// CanAuthenticateOrControl reports whether the key can authenticate or invoke capabilities.
func (k DidKey) CanAuthenticateOrControl() bool {
	return k.CanAuthenticate() || k.CanControl()
}

// EncodeTo writes the key and its relationships.
func (k DidKey) EncodeTo(e *scale.Encoder) {
	k.PublicKey.EncodeTo(e)
	e.U16(uint16(k.VerRels))
}

// DecodeFrom reads the key and its relationships.
func (k *DidKey) DecodeFrom(d *scale.Decoder) {
	k.PublicKey.DecodeFrom(d)
	k.VerRels = VerificationRelationship(d.U16())
}
