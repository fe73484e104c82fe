/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package did

import (
	"errors"
	"fmt"

	"github.com/hyperledger/aries-did-registry/pkg/registry/errkind"
	"github.com/hyperledger/aries-did-registry/pkg/registry/keys"
	"github.com/hyperledger/aries-did-registry/pkg/registry/nonce"
	"github.com/hyperledger/aries-did-registry/pkg/registry/scale"
	"github.com/hyperledger/aries-did-registry/pkg/registry/store"
	"github.com/hyperledger/aries-did-registry/pkg/registry/types"
)

// Signature is a signature by a DID key, identified by the DID and key id, or by a DID method key.
// KeyID is ignored for DID method key signers.
type Signature struct {
	Signer types.DidOrDidMethodKey `json:"signer"`
	KeyID  types.IncID             `json:"keyId,omitempty"`
	Sig    keys.SigValue           `json:"sig"`
}

// NewDidSignature returns a signature by key keyID of did.
func NewDidSignature(did types.Did, keyID types.IncID, sig keys.SigValue) Signature {
	return Signature{Signer: types.FromDid(did), KeyID: keyID, Sig: sig}
}

// NewDidMethodKeySignature returns a signature by a DID method key.
func NewDidMethodKeySignature(key types.DidMethodKey, sig keys.SigValue) Signature {
	return Signature{Signer: types.FromDidMethodKey(key), Sig: sig}
}

// EncodeTo writes the signer variant, the key id for DID signers, and the signature.
func (s *Signature) EncodeTo(e *scale.Encoder) {
	s.Signer.EncodeTo(e)

	if _, ok := s.Signer.AsDid(); ok {
		s.KeyID.EncodeTo(e)
	}

	s.Sig.EncodeTo(e)
}

// DecodeFrom reads a signature.
func (s *Signature) DecodeFrom(d *scale.Decoder) {
	s.Signer.DecodeFrom(d)

	if _, ok := s.Signer.AsDid(); ok {
		s.KeyID.DecodeFrom(d)
	}

	s.Sig.DecodeFrom(d)
}

// SignatureWithNonce is a signature of a multi-signer proof together with the signer's nonce.
type SignatureWithNonce struct {
	Sig   Signature         `json:"sig"`
	Nonce types.BlockNumber `json:"nonce"`
}

// EncodeTo writes the signature followed by the nonce.
func (s *SignatureWithNonce) EncodeTo(e *scale.Encoder) {
	s.Sig.EncodeTo(e)
	s.Nonce.EncodeTo(e)
}

// DecodeFrom reads a signature with its nonce.
func (s *SignatureWithNonce) DecodeFrom(d *scale.Decoder) {
	s.Sig.DecodeFrom(d)
	s.Nonce.DecodeFrom(d)
}

// KeyRequirement is the verification relationship a DID key must have to authorize an action.
type KeyRequirement uint8

// Key requirements.
const (
	// RequireAuthOrControl accepts authentication or capability invocation keys.
	RequireAuthOrControl KeyRequirement = iota
	// RequireControl accepts capability invocation keys.
	RequireControl
)

// ControlKey returns key keyID of did when it has the capability invocation relationship.
func (m *Module) ControlKey(tx *store.Tx, did types.Did, keyID types.IncID) (*keys.DidKey, error) {
	return m.keyWith(tx, did, keyID, RequireControl)
}

// AuthOrControlKey returns key keyID of did when it can authenticate or invoke capabilities.
func (m *Module) AuthOrControlKey(tx *store.Tx, did types.Did, keyID types.IncID) (*keys.DidKey, error) {
	return m.keyWith(tx, did, keyID, RequireAuthOrControl)
}

func (m *Module) keyWith(tx *store.Tx, did types.Did, keyID types.IncID, req KeyRequirement) (*keys.DidKey, error) {
	key, err := m.Key(tx, did, keyID)
	if err != nil {
		return nil, err
	}

	if key == nil {
		return nil, fmt.Errorf("%w: key %d of %s", errkind.NoKeyForDid, keyID, did)
	}

	ok := key.CanControl()
	if req == RequireAuthOrControl {
		ok = key.CanAuthenticateOrControl()
	}

	if !ok {
		return nil, fmt.Errorf("%w: key %d of %s", errkind.InsufficientVerificationRelationship, keyID, did)
	}

	return key, nil
}

// SignerKey resolves the public key behind sig. DID keys must meet req; DID method keys always do.
func (m *Module) SignerKey(tx *store.Tx, sig *Signature, req KeyRequirement) (keys.PublicKey, error) {
	if did, ok := sig.Signer.AsDid(); ok {
		key, err := m.keyWith(tx, did, sig.KeyID, req)
		if err != nil {
			return keys.PublicKey{}, err
		}

		return key.PublicKey, nil
	}

	dmk, _ := sig.Signer.AsDidMethodKey()

	return keys.FromDidMethodKey(dmk), nil
}

func verify(sig *Signature, pk keys.PublicKey, message []byte) error {
	valid, err := sig.Sig.Verify(message, pk)
	if err != nil {
		return err
	}

	if !valid {
		return fmt.Errorf("%w: signed by %s", errkind.InvalidSignature, sig.Signer)
	}

	return nil
}

// VerifySignature checks that sig is a valid signature over message by a key meeting req.
func (m *Module) VerifySignature(tx *store.Tx, sig *Signature, req KeyRequirement, message []byte) error {
	pk, err := m.SignerKey(tx, sig, req)
	if err != nil {
		return err
	}

	return verify(sig, pk, message)
}

// AdvanceNonce moves the nonce of signer to n. Signers are on-chain DIDs or DID method keys.
func (m *Module) AdvanceNonce(tx *store.Tx, signer types.DidOrDidMethodKey, n types.BlockNumber) error {
	if did, ok := signer.AsDid(); ok {
		details, err := m.OnChainDid(tx, did)
		if err != nil {
			return err
		}

		if _, err := details.TryUpdate(n); err != nil {
			return err
		}

		m.saveOnChain(tx, did, details)

		return nil
	}

	key, _ := signer.AsDidMethodKey()

	stored, err := m.DidMethodKey(tx, key)
	if err != nil {
		return err
	}

	if stored == nil {
		return fmt.Errorf("%w: %s", errkind.NoKeyForDid, key)
	}

	if _, err := stored.TryUpdate(n); err != nil {
		return err
	}

	tx.Save(store.DidMethodKeys, key.String(), stored)

	return nil
}

// CheckNonce fails with IncorrectNonce unless n is the successor of signer's nonce. Nothing is written.
func (m *Module) CheckNonce(tx *store.Tx, signer types.DidOrDidMethodKey, n types.BlockNumber) error {
	current, err := m.Nonce(tx, signer)
	if err != nil {
		return err
	}

	if !nonce.New(current, nonce.Unit{}).IsNextNonce(n) {
		return fmt.Errorf("%w: expected %d, got %d", errkind.IncorrectNonce, uint64(current)+1, n)
	}

	return nil
}

// Nonce returns the current nonce of signer.
func (m *Module) Nonce(tx *store.Tx, signer types.DidOrDidMethodKey) (types.BlockNumber, error) {
	if did, ok := signer.AsDid(); ok {
		details, err := m.OnChainDid(tx, did)
		if err != nil {
			return 0, err
		}

		return details.Nonce, nil
	}

	key, _ := signer.AsDidMethodKey()

	stored, err := m.DidMethodKey(tx, key)
	if err != nil {
		return 0, err
	}

	if stored == nil {
		return 0, fmt.Errorf("%w: %s", errkind.NoKeyForDid, key)
	}

	return stored.Nonce, nil
}

// DidMethodKey returns the nonce record of key, nil when the key was never registered.
func (m *Module) DidMethodKey(tx *store.Tx, key types.DidMethodKey) (*nonce.WithNonce[nonce.Unit], error) {
	var stored nonce.WithNonce[nonce.Unit]

	ok, err := tx.Load(store.DidMethodKeys, key.String(), &stored)
	if err != nil || !ok {
		return nil, err
	}

	return &stored, nil
}

// IsSignatureError reports whether err is a failure to resolve or verify a signature.
func IsSignatureError(err error) bool {
	for _, kind := range []errkind.Kind{
		errkind.NoKeyForDid, errkind.InvalidSignature, errkind.IncompatibleKey,
		errkind.InsufficientVerificationRelationship,
	} {
		if errors.Is(err, kind) {
			return true
		}
	}

	return false
}
