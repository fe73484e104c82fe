/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package action

import (
	"github.com/hyperledger/aries-did-registry/pkg/registry/scale"
	"github.com/hyperledger/aries-did-registry/pkg/registry/types"
)

// AddAccumulatorParams adds accumulator parameters owned by the signer.
type AddAccumulatorParams struct {
	Params types.AccumulatorParams `json:"params"`
	Nonce  types.BlockNumber       `json:"nonce"`
}

func (a *AddAccumulatorParams) Tag() Tag { return TagAddAccumulatorParams }
func (a *AddAccumulatorParams) Len() uint32 { return 1 }
func (a *AddAccumulatorParams) ActionNonce() types.BlockNumber { return a.Nonce }

// EncodeTo writes the action.
func (a *AddAccumulatorParams) EncodeTo(e *scale.Encoder) {
	a.Params.EncodeTo(e)
	a.Nonce.EncodeTo(e)
}

// DecodeFrom reads the action.
func (a *AddAccumulatorParams) DecodeFrom(d *scale.Decoder) {
	a.Params.DecodeFrom(d)
	a.Nonce.DecodeFrom(d)
}

// AddAccumulatorPublicKey adds an accumulator public key owned by the signer.
type AddAccumulatorPublicKey struct {
	PublicKey types.AccumulatorPublicKey `json:"publicKey"`
	Nonce     types.BlockNumber          `json:"nonce"`
}

func (a *AddAccumulatorPublicKey) Tag() Tag { return TagAddAccumulatorPublicKey }
func (a *AddAccumulatorPublicKey) Len() uint32 { return 1 }
func (a *AddAccumulatorPublicKey) ActionNonce() types.BlockNumber { return a.Nonce }

// EncodeTo writes the action.
func (a *AddAccumulatorPublicKey) EncodeTo(e *scale.Encoder) {
	a.PublicKey.EncodeTo(e)
	a.Nonce.EncodeTo(e)
}

// DecodeFrom reads the action.
func (a *AddAccumulatorPublicKey) DecodeFrom(d *scale.Decoder) {
	a.PublicKey.DecodeFrom(d)
	a.Nonce.DecodeFrom(d)
}

// RemoveAccumulatorParams removes accumulator parameters.
type RemoveAccumulatorParams struct {
	ParamsRef types.OwnerRef    `json:"paramsRef"`
	Nonce     types.BlockNumber `json:"nonce"`
}

func (a *RemoveAccumulatorParams) Tag() Tag { return TagRemoveAccumulatorParams }
func (a *RemoveAccumulatorParams) Len() uint32 { return 1 }
func (a *RemoveAccumulatorParams) ActionNonce() types.BlockNumber { return a.Nonce }

// EncodeTo writes the action.
func (a *RemoveAccumulatorParams) EncodeTo(e *scale.Encoder) {
	a.ParamsRef.EncodeTo(e)
	a.Nonce.EncodeTo(e)
}

// DecodeFrom reads the action.
func (a *RemoveAccumulatorParams) DecodeFrom(d *scale.Decoder) {
	a.ParamsRef.DecodeFrom(d)
	a.Nonce.DecodeFrom(d)
}

// RemoveAccumulatorPublicKey removes an accumulator public key.
type RemoveAccumulatorPublicKey struct {
	KeyRef types.OwnerRef    `json:"keyRef"`
	Nonce  types.BlockNumber `json:"nonce"`
}

func (a *RemoveAccumulatorPublicKey) Tag() Tag { return TagRemoveAccumulatorPublicKey }
func (a *RemoveAccumulatorPublicKey) Len() uint32 { return 1 }
func (a *RemoveAccumulatorPublicKey) ActionNonce() types.BlockNumber { return a.Nonce }

// EncodeTo writes the action.
func (a *RemoveAccumulatorPublicKey) EncodeTo(e *scale.Encoder) {
	a.KeyRef.EncodeTo(e)
	a.Nonce.EncodeTo(e)
}

// DecodeFrom reads the action.
func (a *RemoveAccumulatorPublicKey) DecodeFrom(d *scale.Decoder) {
	a.KeyRef.DecodeFrom(d)
	a.Nonce.DecodeFrom(d)
}

// AddAccumulator creates an accumulator owned by the signer.
type AddAccumulator struct {
	ID          types.AccumulatorID `json:"id"`
	Accumulator types.Accumulator   `json:"accumulator"`
	Nonce       types.BlockNumber   `json:"nonce"`
}

func (a *AddAccumulator) Tag() Tag { return TagAddAccumulator }
func (a *AddAccumulator) Len() uint32 { return 1 }
func (a *AddAccumulator) ActionNonce() types.BlockNumber { return a.Nonce }
func (a *AddAccumulator) Target() types.AccumulatorID { return a.ID }

// EncodeTo writes the action.
func (a *AddAccumulator) EncodeTo(e *scale.Encoder) {
	a.ID.EncodeTo(e)
	a.Accumulator.EncodeTo(e)
	a.Nonce.EncodeTo(e)
}

// DecodeFrom reads the action.
func (a *AddAccumulator) DecodeFrom(d *scale.Decoder) {
	a.ID.DecodeFrom(d)
	a.Accumulator.DecodeFrom(d)
	a.Nonce.DecodeFrom(d)
}

// UpdateAccumulator replaces the accumulated value. Additions, removals and witness update
// information are signed but not stored.
type UpdateAccumulator struct {
	ID                types.AccumulatorID `json:"id"`
	NewAccumulated    types.Bytes         `json:"newAccumulated"`
	Additions         []types.Bytes       `json:"additions,omitempty"`
	Removals          []types.Bytes       `json:"removals,omitempty"`
	WitnessUpdateInfo *types.Bytes        `json:"witnessUpdateInfo,omitempty"`
	Nonce             types.BlockNumber   `json:"nonce"`
}

func (a *UpdateAccumulator) Tag() Tag { return TagUpdateAccumulator }
func (a *UpdateAccumulator) Len() uint32 { return 1 }
func (a *UpdateAccumulator) ActionNonce() types.BlockNumber { return a.Nonce }
func (a *UpdateAccumulator) Target() types.AccumulatorID { return a.ID }

// EncodeTo writes the action. Nil additions or removals are encoded as absent.
func (a *UpdateAccumulator) EncodeTo(e *scale.Encoder) {
	a.ID.EncodeTo(e)
	a.NewAccumulated.EncodeTo(e)
	encodeOptBytesList(e, a.Additions)
	encodeOptBytesList(e, a.Removals)
	types.EncodeOptBytes(e, a.WitnessUpdateInfo)
	a.Nonce.EncodeTo(e)
}

// DecodeFrom reads the action.
func (a *UpdateAccumulator) DecodeFrom(d *scale.Decoder) {
	a.ID.DecodeFrom(d)
	a.NewAccumulated = d.Bounded(types.BoundAccumulatorAccumulated)
	a.Additions = decodeOptBytesList(d)
	a.Removals = decodeOptBytesList(d)
	a.WitnessUpdateInfo = types.DecodeOptBytes(d)
	a.Nonce.DecodeFrom(d)
}

func encodeOptBytesList(e *scale.Encoder, list []types.Bytes) {
	e.Option(list != nil)

	if list == nil {
		return
	}

	e.Len(len(list))

	for _, b := range list {
		b.EncodeTo(e)
	}
}

func decodeOptBytesList(d *scale.Decoder) []types.Bytes {
	if !d.Option() {
		return nil
	}

	list := make([]types.Bytes, d.Len())

	for i := range list {
		list[i].DecodeFrom(d)
	}

	return list
}

// RemoveAccumulator removes an accumulator.
type RemoveAccumulator struct {
	ID    types.AccumulatorID `json:"id"`
	Nonce types.BlockNumber   `json:"nonce"`
}

func (a *RemoveAccumulator) Tag() Tag { return TagRemoveAccumulator }
func (a *RemoveAccumulator) Len() uint32 { return 1 }
func (a *RemoveAccumulator) ActionNonce() types.BlockNumber { return a.Nonce }
func (a *RemoveAccumulator) Target() types.AccumulatorID { return a.ID }

// EncodeTo writes the action.
func (a *RemoveAccumulator) EncodeTo(e *scale.Encoder) {
	a.ID.EncodeTo(e)
	a.Nonce.EncodeTo(e)
}

// DecodeFrom reads the action.
func (a *RemoveAccumulator) DecodeFrom(d *scale.Decoder) {
	a.ID.DecodeFrom(d)
	a.Nonce.DecodeFrom(d)
}
