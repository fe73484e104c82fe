/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package types

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hyperledger/aries-did-registry/pkg/registry/scale"
)

const hexPrefix = "0x"

// EncodeHex renders b as 0x-prefixed lower-case hex.
func EncodeHex(b []byte) string {
	return hexPrefix + hex.EncodeToString(b)
}

// DecodeHex parses hex with an optional 0x prefix.
func DecodeHex(s string) ([]byte, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(s, hexPrefix))
	if err != nil {
		return nil, fmt.Errorf("invalid hex: %w", err)
	}

	return b, nil
}

func marshalHex(b []byte) ([]byte, error) {
	return json.Marshal(EncodeHex(b))
}

func unmarshalHex(data []byte, dst []byte) error {
	var s string

	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	b, err := DecodeHex(s)
	if err != nil {
		return err
	}

	if len(b) != len(dst) {
		return fmt.Errorf("expected %d bytes, got %d", len(dst), len(b))
	}

	copy(dst, b)

	return nil
}

// Bytes32 is a 32 byte value.
type Bytes32 [32]byte

// Bytes33 is a 33 byte value.
type Bytes33 [33]byte

// Bytes64 is a 64 byte value.
type Bytes64 [64]byte

// Bytes65 is a 65 byte value.
type Bytes65 [65]byte

func (b Bytes32) String() string { return EncodeHex(b[:]) }
func (b Bytes32) EncodeTo(e *scale.Encoder) { e.Fixed(b[:]) }
func (b *Bytes32) DecodeFrom(d *scale.Decoder) { d.FixedInto(b[:]) }
func (b Bytes32) MarshalJSON() ([]byte, error) { return marshalHex(b[:]) }
func (b *Bytes32) UnmarshalJSON(data []byte) error { return unmarshalHex(data, b[:]) }

func (b Bytes33) String() string { return EncodeHex(b[:]) }
func (b Bytes33) EncodeTo(e *scale.Encoder) { e.Fixed(b[:]) }
func (b *Bytes33) DecodeFrom(d *scale.Decoder) { d.FixedInto(b[:]) }
func (b Bytes33) MarshalJSON() ([]byte, error) { return marshalHex(b[:]) }
func (b *Bytes33) UnmarshalJSON(data []byte) error { return unmarshalHex(data, b[:]) }

func (b Bytes64) String() string { return EncodeHex(b[:]) }
func (b Bytes64) EncodeTo(e *scale.Encoder) { e.Fixed(b[:]) }
func (b *Bytes64) DecodeFrom(d *scale.Decoder) { d.FixedInto(b[:]) }
func (b Bytes64) MarshalJSON() ([]byte, error) { return marshalHex(b[:]) }
func (b *Bytes64) UnmarshalJSON(data []byte) error { return unmarshalHex(data, b[:]) }

func (b Bytes65) String() string { return EncodeHex(b[:]) }
func (b Bytes65) EncodeTo(e *scale.Encoder) { e.Fixed(b[:]) }
func (b *Bytes65) DecodeFrom(d *scale.Decoder) { d.FixedInto(b[:]) }
func (b Bytes65) MarshalJSON() ([]byte, error) { return marshalHex(b[:]) }
func (b *Bytes65) UnmarshalJSON(data []byte) error { return unmarshalHex(data, b[:]) }

// Bytes is a variable-length byte sequence, length-prefixed in the binary encoding and
// rendered as hex in JSON.
type Bytes []byte

func (b Bytes) String() string { return EncodeHex(b) }

// EncodeTo writes b with its length prefix.
func (b Bytes) EncodeTo(e *scale.Encoder) { e.Vec(b) }

// DecodeFrom reads a length-prefixed byte sequence.
func (b *Bytes) DecodeFrom(d *scale.Decoder) { *b = d.Vec() }

// MarshalJSON renders b as hex.
func (b Bytes) MarshalJSON() ([]byte, error) { return marshalHex(b) }

// UnmarshalJSON parses hex.
func (b *Bytes) UnmarshalJSON(data []byte) error {
	var s string

	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	raw, err := DecodeHex(s)
	if err != nil {
		return err
	}

	*b = raw

	return nil
}

// Len returns the number of bytes.
func (b Bytes) Len() int {
	return len(b)
}

// EncodeOptBytes writes an optional byte sequence.
func EncodeOptBytes(e *scale.Encoder, b *Bytes) {
	e.Option(b != nil)

	if b != nil {
		b.EncodeTo(e)
	}
}

// DecodeOptBytes reads an optional byte sequence.
func DecodeOptBytes(d *scale.Decoder) *Bytes {
	if !d.Option() {
		return nil
	}

	b := Bytes(d.Vec())

	return &b
}

// DecodeOptBounded reads an optional byte sequence limited by bound.
func DecodeOptBounded(d *scale.Decoder, bound scale.Bound) *Bytes {
	if !d.Option() {
		return nil
	}

	b := Bytes(d.Bounded(bound))

	return &b
}
