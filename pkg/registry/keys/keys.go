/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package keys implements the public keys, signatures and verification relationships of DID keys.
package keys

import (
	"fmt"

	"github.com/hyperledger/aries-did-registry/pkg/registry/errkind"
	"github.com/hyperledger/aries-did-registry/pkg/registry/scale"
	"github.com/hyperledger/aries-did-registry/pkg/registry/types"
)

// KeyType is the scheme of a public key or signature. The tag values are part of the binary encoding.
type KeyType uint8

// Key types.
const (
	Sr25519 KeyType = iota
	Ed25519
	Secp256k1
	X25519
)

var keyTypeNames = map[KeyType]string{
	Sr25519:   "Sr25519",
	Ed25519:   "Ed25519",
	Secp256k1: "Secp256k1",
	X25519:    "X25519",
}

func (t KeyType) String() string {
	if name, ok := keyTypeNames[t]; ok {
		return name
	}

	return fmt.Sprintf("KeyType(%d)", uint8(t))
}

// MarshalText renders the key type name.
func (t KeyType) MarshalText() ([]byte, error) {
	if _, ok := keyTypeNames[t]; !ok {
		return nil, fmt.Errorf("%w: key type %d", errkind.MalformedInput, t)
	}

	return []byte(t.String()), nil
}

// UnmarshalText parses a key type name.
func (t *KeyType) UnmarshalText(text []byte) error {
	for k, name := range keyTypeNames {
		if name == string(text) {
			*t = k
			return nil
		}
	}

	return fmt.Errorf("%w: key type %q", errkind.MalformedInput, text)
}

func (t KeyType) publicKeySize() int {
	if t == Secp256k1 {
		return 33
	}

	return 32
}

// PublicKey is a tagged public key: Sr25519, Ed25519 and X25519 keys are 32 bytes, Secp256k1 keys
// are 33 bytes in compressed form.
type PublicKey struct {
	Type  KeyType     `json:"type"`
	Bytes types.Bytes `json:"bytes"`
}

// NewSr25519 wraps an Sr25519 public key.
func NewSr25519(pk types.Bytes32) PublicKey {
	return PublicKey{Type: Sr25519, Bytes: pk[:]}
}

// NewEd25519 wraps an Ed25519 public key.
func NewEd25519(pk types.Bytes32) PublicKey {
	return PublicKey{Type: Ed25519, Bytes: pk[:]}
}

// NewSecp256k1 wraps a compressed Secp256k1 public key.
func NewSecp256k1(pk types.Bytes33) PublicKey {
	return PublicKey{Type: Secp256k1, Bytes: pk[:]}
}

// NewX25519 wraps an X25519 key agreement key.
func NewX25519(pk types.Bytes32) PublicKey {
	return PublicKey{Type: X25519, Bytes: pk[:]}
}

// FromDidMethodKey returns the public key a did:key identifier carries.
func FromDidMethodKey(k types.DidMethodKey) PublicKey {
	if k.Type() == types.DidMethodKeySecp256k1 {
		return PublicKey{Type: Secp256k1, Bytes: k.Key()}
	}

	return PublicKey{Type: Ed25519, Bytes: k.Key()}
}

// CanSign reports whether the key type produces signatures.
func (k PublicKey) CanSign() bool {
	return k.Type != X25519
}

// Validate checks the key type and size.
func (k PublicKey) Validate() error {
	if _, ok := keyTypeNames[k.Type]; !ok {
		return fmt.Errorf("%w: key type %d", errkind.InvalidPublicKey, k.Type)
	}

	if len(k.Bytes) != k.Type.publicKeySize() {
		return fmt.Errorf("%w: %s key must be %d bytes, got %d", errkind.InvalidPublicKey,
			k.Type, k.Type.publicKeySize(), len(k.Bytes))
	}

	return nil
}

// Equal reports whether both keys have the same type and bytes.
func (k PublicKey) Equal(other PublicKey) bool {
	return k.Type == other.Type && string(k.Bytes) == string(other.Bytes)
}

// EncodeTo writes the type tag followed by the raw key.
func (k PublicKey) EncodeTo(e *scale.Encoder) {
	e.U8(uint8(k.Type))
	e.Fixed(k.Bytes)
}

// DecodeFrom reads a tagged key.
func (k *PublicKey) DecodeFrom(d *scale.Decoder) {
	k.Type = KeyType(d.U8())
	if d.Err() != nil {
		return
	}

	if _, ok := keyTypeNames[k.Type]; !ok {
		d.Fail(fmt.Errorf("%w: key tag %d", errkind.MalformedInput, k.Type))
		return
	}

	k.Bytes = d.Fixed(k.Type.publicKeySize())
}
