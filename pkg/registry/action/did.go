/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package action

import (
	"sort"

	"github.com/hyperledger/aries-did-registry/pkg/registry/keys"
	"github.com/hyperledger/aries-did-registry/pkg/registry/scale"
	"github.com/hyperledger/aries-did-registry/pkg/registry/types"
)

// AddKeys adds keys to an on-chain DID.
type AddKeys struct {
	Did   types.Did              `json:"did"`
	Keys  []keys.UncheckedDidKey `json:"keys"`
	Nonce types.BlockNumber      `json:"nonce"`
}

func (a *AddKeys) Tag() Tag { return TagAddKeys }
func (a *AddKeys) Len() uint32 { return uint32(len(a.Keys)) }
func (a *AddKeys) ActionNonce() types.BlockNumber { return a.Nonce }
func (a *AddKeys) Target() types.Did { return a.Did }

// EncodeTo writes the action.
func (a *AddKeys) EncodeTo(e *scale.Encoder) {
	a.Did.EncodeTo(e)
	e.Len(len(a.Keys))

	for i := range a.Keys {
		a.Keys[i].EncodeTo(e)
	}

	a.Nonce.EncodeTo(e)
}

// DecodeFrom reads the action.
func (a *AddKeys) DecodeFrom(d *scale.Decoder) {
	a.Did.DecodeFrom(d)
	a.Keys = make([]keys.UncheckedDidKey, d.Len())

	for i := range a.Keys {
		a.Keys[i].DecodeFrom(d)
	}

	a.Nonce.DecodeFrom(d)
}

// RemoveKeys removes keys from an on-chain DID.
type RemoveKeys struct {
	Did   types.Did         `json:"did"`
	Keys  []types.IncID     `json:"keys"`
	Nonce types.BlockNumber `json:"nonce"`
}

func (a *RemoveKeys) Tag() Tag { return TagRemoveKeys }
func (a *RemoveKeys) Len() uint32 { return uint32(len(SortedIncIDs(a.Keys))) }
func (a *RemoveKeys) ActionNonce() types.BlockNumber { return a.Nonce }
func (a *RemoveKeys) Target() types.Did { return a.Did }

// EncodeTo writes the action. Key ids are encoded as a sorted set.
func (a *RemoveKeys) EncodeTo(e *scale.Encoder) {
	a.Did.EncodeTo(e)

	ids := SortedIncIDs(a.Keys)
	e.Len(len(ids))

	for _, id := range ids {
		id.EncodeTo(e)
	}

	a.Nonce.EncodeTo(e)
}

// DecodeFrom reads the action.
func (a *RemoveKeys) DecodeFrom(d *scale.Decoder) {
	a.Did.DecodeFrom(d)
	a.Keys = make([]types.IncID, d.Len())

	for i := range a.Keys {
		a.Keys[i].DecodeFrom(d)
	}

	a.Nonce.DecodeFrom(d)
}

// SortedIncIDs returns a sorted copy of ids without duplicates.
func SortedIncIDs(ids []types.IncID) []types.IncID {
	out := make([]types.IncID, 0, len(ids))
	seen := make(map[types.IncID]struct{}, len(ids))

	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}

// AddControllers adds controllers to an on-chain DID.
type AddControllers struct {
	Did         types.Did         `json:"did"`
	Controllers []types.Did       `json:"controllers"`
	Nonce       types.BlockNumber `json:"nonce"`
}

func (a *AddControllers) Tag() Tag { return TagAddControllers }
func (a *AddControllers) Len() uint32 { return uint32(len(types.SortedSet(a.Controllers))) }
func (a *AddControllers) ActionNonce() types.BlockNumber { return a.Nonce }
func (a *AddControllers) Target() types.Did { return a.Did }

// EncodeTo writes the action.
func (a *AddControllers) EncodeTo(e *scale.Encoder) {
	a.Did.EncodeTo(e)
	types.EncodeSet(e, a.Controllers)
	a.Nonce.EncodeTo(e)
}

// DecodeFrom reads the action.
func (a *AddControllers) DecodeFrom(d *scale.Decoder) {
	a.Did.DecodeFrom(d)
	a.Controllers = types.DecodeSet[types.Did](d)
	a.Nonce.DecodeFrom(d)
}

// RemoveControllers removes controllers from an on-chain DID.
type RemoveControllers struct {
	Did         types.Did         `json:"did"`
	Controllers []types.Did       `json:"controllers"`
	Nonce       types.BlockNumber `json:"nonce"`
}

func (a *RemoveControllers) Tag() Tag { return TagRemoveControllers }
func (a *RemoveControllers) Len() uint32 { return uint32(len(types.SortedSet(a.Controllers))) }
func (a *RemoveControllers) ActionNonce() types.BlockNumber { return a.Nonce }
func (a *RemoveControllers) Target() types.Did { return a.Did }

// EncodeTo writes the action.
func (a *RemoveControllers) EncodeTo(e *scale.Encoder) {
	a.Did.EncodeTo(e)
	types.EncodeSet(e, a.Controllers)
	a.Nonce.EncodeTo(e)
}

// DecodeFrom reads the action.
func (a *RemoveControllers) DecodeFrom(d *scale.Decoder) {
	a.Did.DecodeFrom(d)
	a.Controllers = types.DecodeSet[types.Did](d)
	a.Nonce.DecodeFrom(d)
}

// AddServiceEndpoint adds a service endpoint to an on-chain DID.
type AddServiceEndpoint struct {
	Did      types.Did             `json:"did"`
	ID       types.Bytes           `json:"id"`
	Endpoint types.ServiceEndpoint `json:"endpoint"`
	Nonce    types.BlockNumber     `json:"nonce"`
}

func (a *AddServiceEndpoint) Tag() Tag { return TagAddServiceEndpoint }
func (a *AddServiceEndpoint) Len() uint32 { return 1 }
func (a *AddServiceEndpoint) ActionNonce() types.BlockNumber { return a.Nonce }
func (a *AddServiceEndpoint) Target() types.Did { return a.Did }

// EncodeTo writes the action.
func (a *AddServiceEndpoint) EncodeTo(e *scale.Encoder) {
	a.Did.EncodeTo(e)
	a.ID.EncodeTo(e)
	a.Endpoint.EncodeTo(e)
	a.Nonce.EncodeTo(e)
}

// DecodeFrom reads the action.
func (a *AddServiceEndpoint) DecodeFrom(d *scale.Decoder) {
	a.Did.DecodeFrom(d)
	a.ID = d.Bounded(types.BoundServiceEndpointID)
	a.Endpoint.DecodeFrom(d)
	a.Nonce.DecodeFrom(d)
}

// RemoveServiceEndpoint removes a service endpoint from an on-chain DID.
type RemoveServiceEndpoint struct {
	Did   types.Did         `json:"did"`
	ID    types.Bytes       `json:"id"`
	Nonce types.BlockNumber `json:"nonce"`
}

func (a *RemoveServiceEndpoint) Tag() Tag { return TagRemoveServiceEndpoint }
func (a *RemoveServiceEndpoint) Len() uint32 { return 1 }
func (a *RemoveServiceEndpoint) ActionNonce() types.BlockNumber { return a.Nonce }
func (a *RemoveServiceEndpoint) Target() types.Did { return a.Did }

// EncodeTo writes the action.
func (a *RemoveServiceEndpoint) EncodeTo(e *scale.Encoder) {
	a.Did.EncodeTo(e)
	a.ID.EncodeTo(e)
	a.Nonce.EncodeTo(e)
}

// DecodeFrom reads the action.
func (a *RemoveServiceEndpoint) DecodeFrom(d *scale.Decoder) {
	a.Did.DecodeFrom(d)
	a.ID = d.Bounded(types.BoundServiceEndpointID)
	a.Nonce.DecodeFrom(d)
}

// DidRemoval removes an on-chain DID.
type DidRemoval struct {
	Did   types.Did         `json:"did"`
	Nonce types.BlockNumber `json:"nonce"`
}

func (a *DidRemoval) Tag() Tag { return TagDidRemoval }
func (a *DidRemoval) Len() uint32 { return 1 }
func (a *DidRemoval) ActionNonce() types.BlockNumber { return a.Nonce }
func (a *DidRemoval) Target() types.Did { return a.Did }

// EncodeTo writes the action.
func (a *DidRemoval) EncodeTo(e *scale.Encoder) {
	a.Did.EncodeTo(e)
	a.Nonce.EncodeTo(e)
}

// DecodeFrom reads the action.
func (a *DidRemoval) DecodeFrom(d *scale.Decoder) {
	a.Did.DecodeFrom(d)
	a.Nonce.DecodeFrom(d)
}
