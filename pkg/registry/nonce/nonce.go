/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package nonce couples data with a replay-protection counter that only accepts its successor.
package nonce

import (
	"fmt"

	"github.com/hyperledger/aries-did-registry/pkg/registry/errkind"
	"github.com/hyperledger/aries-did-registry/pkg/registry/scale"
	"github.com/hyperledger/aries-did-registry/pkg/registry/types"
)

// Unit is the empty payload of entities that carry only a nonce, such as DID method keys.
type Unit struct{}

// EncodeTo writes nothing.
func (Unit) EncodeTo(*scale.Encoder) {}

// DecodeFrom reads nothing.
func (*Unit) DecodeFrom(*scale.Decoder) {}

// WithNonce attaches a nonce to Data. D must implement the scale codec (EncodeTo on D or *D and
// DecodeFrom on *D) for WithNonce to be encoded.
type WithNonce[D any] struct {
	Nonce types.BlockNumber `json:"nonce"`
	Data  D                 `json:"data"`
}

// New wraps data with the current block number as its nonce.
func New[D any](block types.BlockNumber, data D) *WithNonce[D] {
	return &WithNonce[D]{Nonce: block, Data: data}
}

// IsNextNonce reports whether n is the successor of the stored nonce.
func (w *WithNonce[D]) IsNextNonce(n types.BlockNumber) bool {
	return w.Nonce != ^types.BlockNumber(0) && n == w.Nonce+1
}

// TryUpdate advances the nonce to n and returns the data for mutation. It fails with IncorrectNonce
// unless n is the successor of the stored nonce.
func (w *WithNonce[D]) TryUpdate(n types.BlockNumber) (*D, error) {
	if !w.IsNextNonce(n) {
		return nil, fmt.Errorf("%w: expected %d, got %d", errkind.IncorrectNonce, uint64(w.Nonce)+1, n)
	}

	w.Nonce = n

	return &w.Data, nil
}

// UpdateOptWith advances the nonce of entity to n and runs f over its data. f removes the entity by
// setting the data pointer to nil. It returns found=false without calling f when entity is nil, and
// the entity to write back otherwise (nil when f removed it). The nonce is left untouched when f fails.
func UpdateOptWith[D any](entity *WithNonce[D], n types.BlockNumber,
	f func(data **D) error) (updated *WithNonce[D], found bool, err error) {
	return updateOpt(entity, n, true, f)
}

// UpdateOptWithoutIncreasingNonce checks that n is the successor of the stored nonce and runs f over
// the data of entity, leaving the stored nonce unchanged.
func UpdateOptWithoutIncreasingNonce[D any](entity *WithNonce[D], n types.BlockNumber,
	f func(data **D) error) (updated *WithNonce[D], found bool, err error) {
	return updateOpt(entity, n, false, f)
}

func updateOpt[D any](entity *WithNonce[D], n types.BlockNumber, increase bool,
	f func(data **D) error) (*WithNonce[D], bool, error) {
	if entity == nil {
		return nil, false, nil
	}

	if !entity.IsNextNonce(n) {
		return nil, true, fmt.Errorf("%w: expected %d, got %d", errkind.IncorrectNonce, uint64(entity.Nonce)+1, n)
	}

	data := entity.Data
	ptr := &data

	if err := f(&ptr); err != nil {
		return nil, true, err
	}

	if ptr == nil {
		return nil, true, nil
	}

	next := entity.Nonce
	if increase {
		next = n
	}

	return &WithNonce[D]{Nonce: next, Data: *ptr}, true, nil
}

// EncodeTo writes the nonce followed by the data.
func (w WithNonce[D]) EncodeTo(e *scale.Encoder) {
	w.Nonce.EncodeTo(e)
	any(&w.Data).(scale.Encodable).EncodeTo(e) //nolint:forcetypeassert
}

// DecodeFrom reads the nonce followed by the data.
func (w *WithNonce[D]) DecodeFrom(d *scale.Decoder) {
	w.Nonce.DecodeFrom(d)
	any(&w.Data).(scale.Decodable).DecodeFrom(d) //nolint:forcetypeassert
}
