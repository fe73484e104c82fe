/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package types

import (
	"bytes"
	"sort"

	"github.com/hyperledger/aries-did-registry/pkg/registry/scale"
)

// RegistryID identifies a revocation registry.
type RegistryID [32]byte

// RevokeID identifies a revoked credential.
type RevokeID [32]byte

// BlobID identifies a blob.
type BlobID [32]byte

// AccumulatorID identifies an accumulator.
type AccumulatorID [32]byte

// StatusListCredentialID identifies a status-list credential.
type StatusListCredentialID [32]byte

// TrustRegistryID identifies a trust registry.
type TrustRegistryID [32]byte

// SchemaID identifies a credential schema within trust registries.
type SchemaID [32]byte

func (id RegistryID) String() string { return EncodeHex(id[:]) }
func (id RegistryID) EncodeTo(e *scale.Encoder) { e.Fixed(id[:]) }
func (id *RegistryID) DecodeFrom(d *scale.Decoder) { d.FixedInto(id[:]) }
func (id RegistryID) MarshalJSON() ([]byte, error) { return marshalHex(id[:]) }
func (id *RegistryID) UnmarshalJSON(data []byte) error { return unmarshalHex(data, id[:]) }
func (id RevokeID) String() string { return EncodeHex(id[:]) }
func (id RevokeID) EncodeTo(e *scale.Encoder) { e.Fixed(id[:]) }
func (id *RevokeID) DecodeFrom(d *scale.Decoder) { d.FixedInto(id[:]) }
func (id RevokeID) MarshalJSON() ([]byte, error) { return marshalHex(id[:]) }
func (id *RevokeID) UnmarshalJSON(data []byte) error { return unmarshalHex(data, id[:]) }
func (id BlobID) String() string { return EncodeHex(id[:]) }
func (id BlobID) EncodeTo(e *scale.Encoder) { e.Fixed(id[:]) }
func (id *BlobID) DecodeFrom(d *scale.Decoder) { d.FixedInto(id[:]) }
func (id BlobID) MarshalJSON() ([]byte, error) { return marshalHex(id[:]) }
func (id *BlobID) UnmarshalJSON(data []byte) error { return unmarshalHex(data, id[:]) }
func (id AccumulatorID) String() string { return EncodeHex(id[:]) }
func (id AccumulatorID) EncodeTo(e *scale.Encoder) { e.Fixed(id[:]) }
func (id *AccumulatorID) DecodeFrom(d *scale.Decoder) { d.FixedInto(id[:]) }
func (id AccumulatorID) MarshalJSON() ([]byte, error) { return marshalHex(id[:]) }
func (id *AccumulatorID) UnmarshalJSON(data []byte) error { return unmarshalHex(data, id[:]) }
func (id StatusListCredentialID) String() string { return EncodeHex(id[:]) }
func (id StatusListCredentialID) EncodeTo(e *scale.Encoder) { e.Fixed(id[:]) }
func (id *StatusListCredentialID) DecodeFrom(d *scale.Decoder) { d.FixedInto(id[:]) }
func (id StatusListCredentialID) MarshalJSON() ([]byte, error) { return marshalHex(id[:]) }
func (id *StatusListCredentialID) UnmarshalJSON(data []byte) error { return unmarshalHex(data, id[:]) }
func (id TrustRegistryID) String() string { return EncodeHex(id[:]) }
func (id TrustRegistryID) EncodeTo(e *scale.Encoder) { e.Fixed(id[:]) }
func (id *TrustRegistryID) DecodeFrom(d *scale.Decoder) { d.FixedInto(id[:]) }
func (id TrustRegistryID) MarshalJSON() ([]byte, error) { return marshalHex(id[:]) }
func (id *TrustRegistryID) UnmarshalJSON(data []byte) error { return unmarshalHex(data, id[:]) }
func (id SchemaID) String() string { return EncodeHex(id[:]) }
func (id SchemaID) EncodeTo(e *scale.Encoder) { e.Fixed(id[:]) }
func (id *SchemaID) DecodeFrom(d *scale.Decoder) { d.FixedInto(id[:]) }
func (id SchemaID) MarshalJSON() ([]byte, error) { return marshalHex(id[:]) }
func (id *SchemaID) UnmarshalJSON(data []byte) error { return unmarshalHex(data, id[:]) }

// ID32 is any 32 byte identifier.
type ID32 interface {
	~[32]byte
	scale.Encodable
}

// SortedSet returns a sorted copy of ids without duplicates.
func SortedSet[T ~[32]byte](ids []T) []T {
	out := make([]T, 0, len(ids))
	seen := make(map[T]struct{}, len(ids))

	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}

		seen[id] = struct{}{}
		out = append(out, id)
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := [32]byte(out[i]), [32]byte(out[j])

		return bytes.Compare(a[:], b[:]) < 0
	})

	return out
}

// EncodeSet writes ids as a sorted, deduplicated, length-prefixed set.
func EncodeSet[T ID32](e *scale.Encoder, ids []T) {
	set := SortedSet(ids)

	e.Len(len(set))

	for _, id := range set {
		id.EncodeTo(e)
	}
}

// DecodeBoundedSet is DecodeSet with the set size limited by bound.
func DecodeBoundedSet[T ~[32]byte](d *scale.Decoder, bound scale.Bound) []T {
	return decodeSet[T](d, d.BoundedLen(bound))
}

// DecodeSet reads a length-prefixed set of 32 byte identifiers.
func DecodeSet[T ~[32]byte](d *scale.Decoder) []T {
	return decodeSet[T](d, d.Len())
}

func decodeSet[T ~[32]byte](d *scale.Decoder, n int) []T {
	out := make([]T, n)

	for i := range out {
		var raw [32]byte

		d.FixedInto(raw[:])
		out[i] = T(raw)
	}

	return out
}
