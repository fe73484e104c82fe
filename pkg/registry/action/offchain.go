/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package action

import (
	"github.com/hyperledger/aries-did-registry/pkg/registry/scale"
	"github.com/hyperledger/aries-did-registry/pkg/registry/types"
)

// AddOffchainSignatureParams adds signature scheme parameters owned by the signer.
type AddOffchainSignatureParams struct {
	Params types.SignatureParams `json:"params"`
	Nonce  types.BlockNumber     `json:"nonce"`
}

func (a *AddOffchainSignatureParams) Tag() Tag { return TagAddOffchainSignatureParams }
func (a *AddOffchainSignatureParams) Len() uint32 { return 1 }
func (a *AddOffchainSignatureParams) ActionNonce() types.BlockNumber { return a.Nonce }

// EncodeTo writes the action.
func (a *AddOffchainSignatureParams) EncodeTo(e *scale.Encoder) {
	a.Params.EncodeTo(e)
	a.Nonce.EncodeTo(e)
}

// DecodeFrom reads the action.
func (a *AddOffchainSignatureParams) DecodeFrom(d *scale.Decoder) {
	a.Params.DecodeFrom(d)
	a.Nonce.DecodeFrom(d)
}

// AddOffchainSignaturePublicKey adds a signature scheme public key to a DID. It is signed by a controller.
type AddOffchainSignaturePublicKey struct {
	Key   types.OffchainPublicKey `json:"key"`
	Did   types.Did               `json:"did"`
	Nonce types.BlockNumber       `json:"nonce"`
}

func (a *AddOffchainSignaturePublicKey) Tag() Tag { return TagAddOffchainSignaturePublicKey }
func (a *AddOffchainSignaturePublicKey) Len() uint32 { return 1 }
func (a *AddOffchainSignaturePublicKey) ActionNonce() types.BlockNumber { return a.Nonce }
func (a *AddOffchainSignaturePublicKey) Target() types.Did { return a.Did }

// EncodeTo writes the action.
func (a *AddOffchainSignaturePublicKey) EncodeTo(e *scale.Encoder) {
	a.Key.EncodeTo(e)
	a.Did.EncodeTo(e)
	a.Nonce.EncodeTo(e)
}

// DecodeFrom reads the action.
func (a *AddOffchainSignaturePublicKey) DecodeFrom(d *scale.Decoder) {
	a.Key.DecodeFrom(d)
	a.Did.DecodeFrom(d)
	a.Nonce.DecodeFrom(d)
}

// RemoveOffchainSignatureParams removes signature scheme parameters.
type RemoveOffchainSignatureParams struct {
	ParamsRef types.OwnerRef    `json:"paramsRef"`
	Nonce     types.BlockNumber `json:"nonce"`
}

func (a *RemoveOffchainSignatureParams) Tag() Tag { return TagRemoveOffchainSignatureParams }
func (a *RemoveOffchainSignatureParams) Len() uint32 { return 1 }
func (a *RemoveOffchainSignatureParams) ActionNonce() types.BlockNumber { return a.Nonce }

// EncodeTo writes the action.
func (a *RemoveOffchainSignatureParams) EncodeTo(e *scale.Encoder) {
	a.ParamsRef.EncodeTo(e)
	a.Nonce.EncodeTo(e)
}

// DecodeFrom reads the action.
func (a *RemoveOffchainSignatureParams) DecodeFrom(d *scale.Decoder) {
	a.ParamsRef.DecodeFrom(d)
	a.Nonce.DecodeFrom(d)
}

// RemoveOffchainSignaturePublicKey removes a signature scheme public key of a DID. It is signed by a controller.
type RemoveOffchainSignaturePublicKey struct {
	KeyRef types.DidKeyRef   `json:"keyRef"`
	Did    types.Did         `json:"did"`
	Nonce  types.BlockNumber `json:"nonce"`
}

func (a *RemoveOffchainSignaturePublicKey) Tag() Tag { return TagRemoveOffchainSignaturePublicKey }
func (a *RemoveOffchainSignaturePublicKey) Len() uint32 { return 1 }
func (a *RemoveOffchainSignaturePublicKey) ActionNonce() types.BlockNumber { return a.Nonce }
func (a *RemoveOffchainSignaturePublicKey) Target() types.Did { return a.Did }

// EncodeTo writes the action.
func (a *RemoveOffchainSignaturePublicKey) EncodeTo(e *scale.Encoder) {
	a.KeyRef.EncodeTo(e)
	a.Did.EncodeTo(e)
	a.Nonce.EncodeTo(e)
}

// DecodeFrom reads the action.
func (a *RemoveOffchainSignaturePublicKey) DecodeFrom(d *scale.Decoder) {
	a.KeyRef.DecodeFrom(d)
	a.Did.DecodeFrom(d)
	a.Nonce.DecodeFrom(d)
}
