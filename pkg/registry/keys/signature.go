/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package keys

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/sha256"
	"fmt"
	"math/big"

	"github.com/ChainSafe/go-schnorrkel"
	"github.com/btcsuite/btcd/btcec"

	"github.com/hyperledger/aries-did-registry/pkg/registry/errkind"
	"github.com/hyperledger/aries-did-registry/pkg/registry/scale"
	"github.com/hyperledger/aries-did-registry/pkg/registry/types"
)

// SigningContext is the schnorrkel signing context of Sr25519 signatures.
const SigningContext = "substrate"

const (
	sr25519SigSize   = 64
	ed25519SigSize   = 64
	secp256k1SigSize = 65
	secp256k1RSSize  = 32
)

// SigValue is a tagged signature. Sr25519 and Ed25519 signatures are 64 bytes, Secp256k1 signatures
// are 65 bytes (r, s and the recovery id).
type SigValue struct {
	Type  KeyType     `json:"type"`
	Bytes types.Bytes `json:"bytes"`
}

func sigSize(t KeyType) (int, bool) {
	switch t {
	case Sr25519:
		return sr25519SigSize, true
	case Ed25519:
		return ed25519SigSize, true
	case Secp256k1:
		return secp256k1SigSize, true
	default:
		return 0, false
	}
}

// Validate checks the signature type and size.
func (s SigValue) Validate() error {
	size, ok := sigSize(s.Type)
	if !ok {
		return fmt.Errorf("%w: %s cannot sign", errkind.MalformedInput, s.Type)
	}

	if len(s.Bytes) != size {
		return fmt.Errorf("%w: %s signature must be %d bytes, got %d", errkind.MalformedInput,
			s.Type, size, len(s.Bytes))
	}

	return nil
}

// Verify checks the signature over message with pk. It returns IncompatibleKey when the signature
// scheme differs from the key scheme, and false when the signature does not verify.
func (s SigValue) Verify(message []byte, pk PublicKey) (bool, error) {
	if s.Type != pk.Type || !pk.CanSign() {
		return false, fmt.Errorf("%w: %s signature with %s key", errkind.IncompatibleKey, s.Type, pk.Type)
	}

	if s.Validate() != nil || pk.Validate() != nil {
		return false, nil
	}

	switch s.Type {
	case Ed25519:
		return ed25519.Verify(ed25519.PublicKey(pk.Bytes), message, s.Bytes), nil
	case Sr25519:
		return verifySr25519(message, s.Bytes, pk.Bytes)
	default:
		return verifySecp256k1(message, s.Bytes, pk.Bytes), nil
	}
}

func verifySr25519(message, sig, pk []byte) (bool, error) {
	var (
		rawKey [32]byte
		rawSig [64]byte
	)

	copy(rawKey[:], pk)
	copy(rawSig[:], sig)

	key := &schnorrkel.PublicKey{}
	if err := key.Decode(rawKey); err != nil {
		return false, nil //nolint:nilerr
	}

	signature := &schnorrkel.Signature{}
	if err := signature.Decode(rawSig); err != nil {
		return false, nil //nolint:nilerr
	}

	ok, err := key.Verify(signature, schnorrkel.NewSigningContext([]byte(SigningContext), message))
	if err != nil {
		return false, nil //nolint:nilerr
	}

	return ok, nil
}

func verifySecp256k1(message, sig, pk []byte) bool {
	pubKey, err := btcec.ParsePubKey(pk, btcec.S256())
	if err != nil {
		return false
	}

	hashed := sha256.Sum256(message)

	r := new(big.Int).SetBytes(sig[:secp256k1RSSize])
	sv := new(big.Int).SetBytes(sig[secp256k1RSSize : 2*secp256k1RSSize])

	return ecdsa.Verify(pubKey.ToECDSA(), hashed[:], r, sv)
}

// EncodeTo writes the type tag followed by the raw signature.
func (s SigValue) EncodeTo(e *scale.Encoder) {
	e.U8(uint8(s.Type))
	e.Fixed(s.Bytes)
}

// DecodeFrom reads a tagged signature.
func (s *SigValue) DecodeFrom(d *scale.Decoder) {
	s.Type = KeyType(d.U8())
	if d.Err() != nil {
		return
	}

	size, ok := sigSize(s.Type)
	if !ok {
		d.Fail(fmt.Errorf("%w: signature tag %d", errkind.MalformedInput, s.Type))
		return
	}

	s.Bytes = d.Fixed(size)
}
