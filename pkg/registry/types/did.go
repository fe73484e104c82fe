/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package types

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/multiformats/go-multibase"

	"github.com/hyperledger/aries-did-registry/pkg/registry/errkind"
	"github.com/hyperledger/aries-did-registry/pkg/registry/scale"
)

// DidByteSize is the size of a DID in bytes.
const DidByteSize = 32

const didKeyPrefix = "did:key:"

// multicodec varint prefixes of the supported did:key public keys.
var (
	ed25519Codec   = []byte{0xed, 0x01}
	secp256k1Codec = []byte{0xe7, 0x01}
)

// Did is a 32 byte decentralized identifier.
type Did [DidByteSize]byte

// ParseDid parses a DID from hex, with or without a 0x prefix.
func ParseDid(s string) (Did, error) {
	var did Did

	b, err := DecodeHex(s)
	if err != nil {
		return did, err
	}

	if len(b) != DidByteSize {
		return did, fmt.Errorf("did must be %d bytes, got %d", DidByteSize, len(b))
	}

	copy(did[:], b)

	return did, nil
}

// String renders the DID as lower-case hex.
func (d Did) String() string {
	return hex.EncodeToString(d[:])
}

// EncodeTo writes the raw DID bytes.
func (d Did) EncodeTo(e *scale.Encoder) { e.Fixed(d[:]) }

// DecodeFrom reads the raw DID bytes.
func (d *Did) DecodeFrom(dec *scale.Decoder) { dec.FixedInto(d[:]) }

// MarshalText renders the DID as hex so it can be used as a JSON object key.
func (d Did) MarshalText() ([]byte, error) {
	return []byte(EncodeHex(d[:])), nil
}

// UnmarshalText parses a hex DID.
func (d *Did) UnmarshalText(text []byte) error {
	parsed, err := ParseDid(string(text))
	if err != nil {
		return err
	}

	*d = parsed

	return nil
}

// Compare orders DIDs by their bytes.
func (d Did) Compare(other Did) int {
	return bytes.Compare(d[:], other[:])
}

// DidMethodKeyType is the key type of a did:key identifier.
type DidMethodKeyType uint8

// Supported did:key key types.
const (
	DidMethodKeyEd25519 DidMethodKeyType = iota
	DidMethodKeySecp256k1
)

func (t DidMethodKeyType) size() int {
	if t == DidMethodKeySecp256k1 {
		return 33
	}

	return 32
}

func (t DidMethodKeyType) String() string {
	switch t {
	case DidMethodKeyEd25519:
		return "Ed25519"
	case DidMethodKeySecp256k1:
		return "Secp256k1"
	default:
		return "Unknown"
	}
}

// MarshalText renders the key type name.
func (t DidMethodKeyType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText parses a key type name.
func (t *DidMethodKeyType) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Ed25519":
		*t = DidMethodKeyEd25519
	case "Secp256k1":
		*t = DidMethodKeySecp256k1
	default:
		return fmt.Errorf("%w: unknown did:key type %q", errkind.MalformedInput, text)
	}

	return nil
}

// DidMethodKey is a did:key identifier: a public key acting as its own subject.
// It is comparable and can be used as a map key.
type DidMethodKey struct {
	typ DidMethodKeyType
	key string
}

// NewEd25519DidMethodKey wraps a 32 byte Ed25519 public key.
func NewEd25519DidMethodKey(pk Bytes32) DidMethodKey {
	return DidMethodKey{typ: DidMethodKeyEd25519, key: string(pk[:])}
}

// NewSecp256k1DidMethodKey wraps a compressed 33 byte Secp256k1 public key.
func NewSecp256k1DidMethodKey(pk Bytes33) DidMethodKey {
	return DidMethodKey{typ: DidMethodKeySecp256k1, key: string(pk[:])}
}

// NewDidMethodKey wraps a public key of the given type, checking its size.
func NewDidMethodKey(typ DidMethodKeyType, key []byte) (DidMethodKey, error) {
	if typ != DidMethodKeyEd25519 && typ != DidMethodKeySecp256k1 {
		return DidMethodKey{}, fmt.Errorf("%w: unknown did:key type %d", errkind.MalformedInput, typ)
	}

	if len(key) != typ.size() {
		return DidMethodKey{}, fmt.Errorf("%w: %s did:key must be %d bytes", errkind.MalformedInput, typ, typ.size())
	}

	return DidMethodKey{typ: typ, key: string(key)}, nil
}

// ParseDidMethodKey parses the did:key:z... text form.
func ParseDidMethodKey(s string) (DidMethodKey, error) {
	if !strings.HasPrefix(s, didKeyPrefix) {
		return DidMethodKey{}, fmt.Errorf("%w: missing %s prefix", errkind.MalformedInput, didKeyPrefix)
	}

	_, raw, err := multibase.Decode(strings.TrimPrefix(s, didKeyPrefix))
	if err != nil {
		return DidMethodKey{}, fmt.Errorf("%w: %s", errkind.MalformedInput, err)
	}

	switch {
	case bytes.HasPrefix(raw, ed25519Codec):
		return NewDidMethodKey(DidMethodKeyEd25519, raw[len(ed25519Codec):])
	case bytes.HasPrefix(raw, secp256k1Codec):
		return NewDidMethodKey(DidMethodKeySecp256k1, raw[len(secp256k1Codec):])
	default:
		return DidMethodKey{}, fmt.Errorf("%w: unsupported did:key codec", errkind.MalformedInput)
	}
}

// Type returns the key type.
func (k DidMethodKey) Type() DidMethodKeyType { return k.typ }

// Key returns the raw public key bytes.
func (k DidMethodKey) Key() []byte { return []byte(k.key) }

// IsZero reports whether k is the zero value.
func (k DidMethodKey) IsZero() bool { return k.key == "" }

// String renders k in its did:key:z... form.
func (k DidMethodKey) String() string {
	codec := ed25519Codec
	if k.typ == DidMethodKeySecp256k1 {
		codec = secp256k1Codec
	}

	enc, err := multibase.Encode(multibase.Base58BTC, append(append([]byte{}, codec...), k.key...))
	if err != nil {
		return didKeyPrefix
	}

	return didKeyPrefix + enc
}

// EncodeTo writes the key type tag followed by the raw key.
func (k DidMethodKey) EncodeTo(e *scale.Encoder) {
	e.U8(uint8(k.typ))
	e.Fixed([]byte(k.key))
}

// DecodeFrom reads a tagged did:key.
func (k *DidMethodKey) DecodeFrom(d *scale.Decoder) {
	typ := DidMethodKeyType(d.U8())
	if d.Err() != nil {
		return
	}

	if typ != DidMethodKeyEd25519 && typ != DidMethodKeySecp256k1 {
		d.Fail(fmt.Errorf("%w: did:key tag %d", errkind.MalformedInput, typ))
		return
	}

	k.typ = typ
	k.key = string(d.Fixed(typ.size()))
}

// MarshalText renders the did:key text form.
func (k DidMethodKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses the did:key text form.
func (k *DidMethodKey) UnmarshalText(text []byte) error {
	parsed, err := ParseDidMethodKey(string(text))
	if err != nil {
		return err
	}

	*k = parsed

	return nil
}

// DidOrDidMethodKey is either a Did or a DidMethodKey. It is comparable and can be used as a map key.
type DidOrDidMethodKey struct {
	did   Did
	key   DidMethodKey
	isKey bool
}

// FromDid wraps a Did.
func FromDid(did Did) DidOrDidMethodKey {
	return DidOrDidMethodKey{did: did}
}

// FromDidMethodKey wraps a DidMethodKey.
func FromDidMethodKey(key DidMethodKey) DidOrDidMethodKey {
	return DidOrDidMethodKey{key: key, isKey: true}
}

// AsDid returns the wrapped Did.
func (d DidOrDidMethodKey) AsDid() (Did, bool) {
	return d.did, !d.isKey
}

// AsDidMethodKey returns the wrapped DidMethodKey.
func (d DidOrDidMethodKey) AsDidMethodKey() (DidMethodKey, bool) {
	return d.key, d.isKey
}

// String renders the wrapped identifier.
func (d DidOrDidMethodKey) String() string {
	if d.isKey {
		return d.key.String()
	}

	return d.did.String()
}

// StorageKey renders the tagged binary encoding as hex. Unlike String it never contains a colon, so it
// can be used as a storage tag value.
func (d DidOrDidMethodKey) StorageKey() string {
	return hex.EncodeToString(scale.Encode(d))
}

// Compare orders identifiers by their binary encoding.
func (d DidOrDidMethodKey) Compare(other DidOrDidMethodKey) int {
	return bytes.Compare(scale.Encode(d), scale.Encode(other))
}

// EncodeTo writes the variant tag (0 Did, 1 DidMethodKey) and the identifier.
func (d DidOrDidMethodKey) EncodeTo(e *scale.Encoder) {
	if d.isKey {
		e.U8(1)
		d.key.EncodeTo(e)

		return
	}

	e.U8(0)
	d.did.EncodeTo(e)
}

// DecodeFrom reads a tagged identifier.
func (d *DidOrDidMethodKey) DecodeFrom(dec *scale.Decoder) {
	switch dec.U8() {
	case 0:
		*d = DidOrDidMethodKey{}
		d.did.DecodeFrom(dec)
	case 1:
		*d = DidOrDidMethodKey{isKey: true}
		d.key.DecodeFrom(dec)
	default:
		dec.Fail(fmt.Errorf("%w: did-or-did-method-key tag", errkind.MalformedInput))
	}
}

type didOrDidMethodKeyJSON struct {
	Did          *Did          `json:"did,omitempty"`
	DidMethodKey *DidMethodKey `json:"didMethodKey,omitempty"`
}

// MarshalJSON renders {"did":"0x.."} or {"didMethodKey":"did:key:z.."}.
func (d DidOrDidMethodKey) MarshalJSON() ([]byte, error) {
	if d.isKey {
		return json.Marshal(didOrDidMethodKeyJSON{DidMethodKey: &d.key})
	}

	return json.Marshal(didOrDidMethodKeyJSON{Did: &d.did})
}

// UnmarshalJSON parses either JSON form.
func (d *DidOrDidMethodKey) UnmarshalJSON(data []byte) error {
	var raw didOrDidMethodKeyJSON

	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch {
	case raw.Did != nil && raw.DidMethodKey == nil:
		*d = FromDid(*raw.Did)
	case raw.DidMethodKey != nil && raw.Did == nil:
		*d = FromDidMethodKey(*raw.DidMethodKey)
	default:
		return errors.New("exactly one of did or didMethodKey must be set")
	}

	return nil
}
