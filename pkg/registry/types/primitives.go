/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package types

import (
	"math"

	"github.com/hyperledger/aries-did-registry/pkg/registry/errkind"
	"github.com/hyperledger/aries-did-registry/pkg/registry/scale"
)

// BlockNumber is the height of a block. Nonces share its type.
type BlockNumber uint32

// EncodeTo writes the block number.
func (b BlockNumber) EncodeTo(e *scale.Encoder) { e.U32(uint32(b)) }

// DecodeFrom reads the block number.
func (b *BlockNumber) DecodeFrom(d *scale.Decoder) { *b = BlockNumber(d.U32()) }

// IncID is a monotonic counter. The zero value is the counter before its first use.
type IncID uint32

// Inc advances the counter and returns the new value.
func (id *IncID) Inc() (IncID, error) {
	if *id == math.MaxUint32 {
		return 0, errkind.IncIDOverflow
	}

	*id++

	return *id, nil
}

// EncodeTo writes the counter.
func (id IncID) EncodeTo(e *scale.Encoder) { e.U32(uint32(id)) }

// DecodeFrom reads the counter.
func (id *IncID) DecodeFrom(d *scale.Decoder) { *id = IncID(d.U32()) }

// AccountID identifies the account submitting a call.
type AccountID string

// EncodeTo writes the account id.
func (a AccountID) EncodeTo(e *scale.Encoder) { e.String(string(a)) }

// DecodeFrom reads the account id.
func (a *AccountID) DecodeFrom(d *scale.Decoder) { *a = AccountID(d.String()) }

// CurveType is the curve used by offchain signature schemes and accumulators.
type CurveType uint8

// Supported curves.
const (
	Bls12381 CurveType = iota
)

func (c CurveType) String() string {
	if c == Bls12381 {
		return "Bls12381"
	}

	return "Unknown"
}

// MarshalText renders the curve name.
func (c CurveType) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText parses the curve name.
func (c *CurveType) UnmarshalText(text []byte) error {
	if string(text) != Bls12381.String() {
		return errkind.MalformedInput
	}

	*c = Bls12381

	return nil
}

// EncodeTo writes the curve tag.
func (c CurveType) EncodeTo(e *scale.Encoder) { e.U8(uint8(c)) }

// DecodeFrom reads the curve tag.
func (c *CurveType) DecodeFrom(d *scale.Decoder) {
	v := CurveType(d.U8())
	if v != Bls12381 {
		d.Fail(errkind.MalformedInput)
	}

	*c = v
}
