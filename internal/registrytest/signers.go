/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package registrytest provides key pairs and signers for registry tests.
package registrytest

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"testing"

	"github.com/ChainSafe/go-schnorrkel"
	"github.com/btcsuite/btcd/btcec"
	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-did-registry/pkg/registry/keys"
	"github.com/hyperledger/aries-did-registry/pkg/registry/types"
)

// Signer produces signatures verifiable with its public key.
type Signer interface {
	PublicKey() keys.PublicKey
	Sign(msg []byte) keys.SigValue
}

// Ed25519Signer signs with an Ed25519 key.
type Ed25519Signer struct {
	pub  ed25519.PublicKey
	priv ed25519.PrivateKey
}

// NewEd25519 generates an Ed25519 signer.
func NewEd25519(t testing.TB) *Ed25519Signer {
	t.Helper()

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	return &Ed25519Signer{pub: pub, priv: priv}
}

// PublicKey returns the Ed25519 public key.
func (s *Ed25519Signer) PublicKey() keys.PublicKey {
	var pk types.Bytes32

	copy(pk[:], s.pub)

	return keys.NewEd25519(pk)
}

// DidMethodKey returns the did:key identifier of the signer.
func (s *Ed25519Signer) DidMethodKey() types.DidMethodKey {
	var pk types.Bytes32

	copy(pk[:], s.pub)

	return types.NewEd25519DidMethodKey(pk)
}

// Sign signs msg.
func (s *Ed25519Signer) Sign(msg []byte) keys.SigValue {
	return keys.SigValue{Type: keys.Ed25519, Bytes: ed25519.Sign(s.priv, msg)}
}

// Sr25519Signer signs with a schnorrkel key in the substrate signing context.
type Sr25519Signer struct {
	pub  *schnorrkel.PublicKey
	priv *schnorrkel.SecretKey
}

// NewSr25519 generates an Sr25519 signer.
func NewSr25519(t testing.TB) *Sr25519Signer {
	t.Helper()

	priv, pub, err := schnorrkel.GenerateKeypair()
	require.NoError(t, err)

	return &Sr25519Signer{pub: pub, priv: priv}
}

// PublicKey returns the Sr25519 public key.
func (s *Sr25519Signer) PublicKey() keys.PublicKey {
	return keys.NewSr25519(s.pub.Encode())
}

// Sign signs msg.
func (s *Sr25519Signer) Sign(msg []byte) keys.SigValue {
	sig, err := s.priv.Sign(schnorrkel.NewSigningContext([]byte(keys.SigningContext), msg))
	if err != nil {
		panic(err)
	}

	raw := sig.Encode()

	return keys.SigValue{Type: keys.Sr25519, Bytes: raw[:]}
}

// Secp256k1Signer signs sha256 digests with a Secp256k1 key.
type Secp256k1Signer struct {
	priv *btcec.PrivateKey
}

// NewSecp256k1 generates a Secp256k1 signer.
func NewSecp256k1(t testing.TB) *Secp256k1Signer {
	t.Helper()

	priv, err := btcec.NewPrivateKey(btcec.S256())
	require.NoError(t, err)

	return &Secp256k1Signer{priv: priv}
}

// PublicKey returns the compressed Secp256k1 public key.
func (s *Secp256k1Signer) PublicKey() keys.PublicKey {
	var pk types.Bytes33

	copy(pk[:], s.priv.PubKey().SerializeCompressed())

	return keys.NewSecp256k1(pk)
}

// DidMethodKey returns the did:key identifier of the signer.
func (s *Secp256k1Signer) DidMethodKey() types.DidMethodKey {
	var pk types.Bytes33

	copy(pk[:], s.priv.PubKey().SerializeCompressed())

	return types.NewSecp256k1DidMethodKey(pk)
}

// Sign signs the sha256 digest of msg and returns r, s and a zero recovery id.
func (s *Secp256k1Signer) Sign(msg []byte) keys.SigValue {
	hashed := sha256.Sum256(msg)

	sig, err := s.priv.Sign(hashed[:])
	if err != nil {
		panic(err)
	}

	out := make([]byte, 65)
	sig.R.FillBytes(out[:32])
	sig.S.FillBytes(out[32:64])

	return keys.SigValue{Type: keys.Secp256k1, Bytes: out}
}

// Did returns a DID whose bytes are all b.
func Did(b byte) types.Did {
	var did types.Did

	for i := range did {
		did[i] = b
	}

	return did
}

// ID32 returns a 32 byte identifier whose bytes are all b.
func ID32[T ~[32]byte](b byte) T {
	var id [32]byte

	for i := range id {
		id[i] = b
	}

	return T(id)
}
