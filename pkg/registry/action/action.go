/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package action defines the signable registry actions and their canonical state-change encoding.
package action

import (
	"fmt"

	"github.com/hyperledger/aries-did-registry/pkg/registry/errkind"
	"github.com/hyperledger/aries-did-registry/pkg/registry/scale"
	"github.com/hyperledger/aries-did-registry/pkg/registry/types"
)

// Tag is the state-change variant of an action. The order is part of the signed encoding and is
// only ever appended to.
type Tag uint8

// State-change variants.
const (
	TagAddKeys Tag = iota
	TagAddControllers
	TagRemoveKeys
	TagRemoveControllers
	TagAddServiceEndpoint
	TagRemoveServiceEndpoint
	TagDidRemoval
	TagRevoke
	TagUnRevoke
	TagRemoveRegistry
	TagAddBlob
	TagMasterVote
	TagSetAttestationClaim
	TagAddOffchainSignatureParams
	TagAddOffchainSignaturePublicKey
	TagRemoveOffchainSignatureParams
	TagRemoveOffchainSignaturePublicKey
	TagAddAccumulatorParams
	TagAddAccumulatorPublicKey
	TagRemoveAccumulatorParams
	TagRemoveAccumulatorPublicKey
	TagAddAccumulator
	TagUpdateAccumulator
	TagRemoveAccumulator
	TagUpdateStatusListCredential
	TagRemoveStatusListCredential
	TagInitOrUpdateTrustRegistry
	TagSetSchemasMetadata
	TagUpdateDelegatedIssuers
	TagSuspendIssuers
	TagUnsuspendIssuers
)

var tagNames = []string{
	"AddKeys",
	"AddControllers",
	"RemoveKeys",
	"RemoveControllers",
	"AddServiceEndpoint",
	"RemoveServiceEndpoint",
	"DidRemoval",
	"Revoke",
	"UnRevoke",
	"RemoveRegistry",
	"AddBlob",
	"MasterVote",
	"SetAttestationClaim",
	"AddOffchainSignatureParams",
	"AddOffchainSignaturePublicKey",
	"RemoveOffchainSignatureParams",
	"RemoveOffchainSignaturePublicKey",
	"AddAccumulatorParams",
	"AddAccumulatorPublicKey",
	"RemoveAccumulatorParams",
	"RemoveAccumulatorPublicKey",
	"AddAccumulator",
	"UpdateAccumulator",
	"RemoveAccumulator",
	"UpdateStatusListCredential",
	"RemoveStatusListCredential",
	"InitOrUpdateTrustRegistry",
	"SetSchemasMetadata",
	"UpdateDelegatedIssuers",
	"SuspendIssuers",
	"UnsuspendIssuers",
}

func (t Tag) String() string {
	if int(t) < len(tagNames) {
		return tagNames[t]
	}

	return fmt.Sprintf("Tag(%d)", uint8(t))
}

// ParseTag returns the tag named name.
func ParseTag(name string) (Tag, error) {
	for i, n := range tagNames {
		if n == name {
			return Tag(i), nil
		}
	}

	return 0, fmt.Errorf("%w: %q", errkind.UnknownAction, name)
}

// Action is an operation that can be signed.
type Action interface {
	scale.Encodable
	// Tag is the state-change variant of the action.
	Tag() Tag
	// Len is the number of items the action touches. Zero length actions are rejected.
	Len() uint32
}

// ActionWithNonce is an action that carries the signer's nonce as its last field.
type ActionWithNonce interface {
	Action
	ActionNonce() types.BlockNumber
}

// Encode returns the canonical state change of a: the variant tag followed by the action.
func Encode(a Action) []byte {
	e := scale.NewEncoder()
	e.U8(uint8(a.Tag()))
	a.EncodeTo(e)

	return e.Bytes()
}

// EncodeWithNonce returns the canonical state change of a raw action signed together with nonce.
func EncodeWithNonce(a Action, nonce types.BlockNumber) []byte {
	e := scale.NewEncoder()
	e.U8(uint8(a.Tag()))
	nonce.EncodeTo(e)
	a.EncodeTo(e)

	return e.Bytes()
}

// WithNonce is a raw action together with the nonce its signer signed it with.
type WithNonce struct {
	Nonce  types.BlockNumber `json:"nonce"`
	Action Action            `json:"action"`
}

// Tag returns the raw action's tag.
func (w *WithNonce) Tag() Tag { return w.Action.Tag() }

// Len returns the raw action's length.
func (w *WithNonce) Len() uint32 { return w.Action.Len() }

// ActionNonce returns the signed nonce.
func (w *WithNonce) ActionNonce() types.BlockNumber { return w.Nonce }

// EncodeTo writes the nonce followed by the raw action.
func (w *WithNonce) EncodeTo(e *scale.Encoder) {
	w.Nonce.EncodeTo(e)
	w.Action.EncodeTo(e)
}

type variant struct {
	raw bool
	new func() decodableAction
}

type decodableAction interface {
	Action
	scale.Decodable
}

var variants = map[Tag]variant{
	TagAddKeys:                          {new: func() decodableAction { return &AddKeys{} }},
	TagAddControllers:                   {new: func() decodableAction { return &AddControllers{} }},
	TagRemoveKeys:                       {new: func() decodableAction { return &RemoveKeys{} }},
	TagRemoveControllers:                {new: func() decodableAction { return &RemoveControllers{} }},
	TagAddServiceEndpoint:               {new: func() decodableAction { return &AddServiceEndpoint{} }},
	TagRemoveServiceEndpoint:            {new: func() decodableAction { return &RemoveServiceEndpoint{} }},
	TagDidRemoval:                       {new: func() decodableAction { return &DidRemoval{} }},
	TagRevoke:                           {raw: true, new: func() decodableAction { return &Revoke{} }},
	TagUnRevoke:                         {raw: true, new: func() decodableAction { return &UnRevoke{} }},
	TagRemoveRegistry:                   {raw: true, new: func() decodableAction { return &RemoveRegistry{} }},
	TagAddBlob:                          {new: func() decodableAction { return &AddBlob{} }},
	TagMasterVote:                       {raw: true, new: func() decodableAction { return &MasterVote{} }},
	TagSetAttestationClaim:              {new: func() decodableAction { return &SetAttestationClaim{} }},
	TagAddOffchainSignatureParams:       {new: func() decodableAction { return &AddOffchainSignatureParams{} }},
	TagAddOffchainSignaturePublicKey:    {new: func() decodableAction { return &AddOffchainSignaturePublicKey{} }},
	TagRemoveOffchainSignatureParams:    {new: func() decodableAction { return &RemoveOffchainSignatureParams{} }},
	TagRemoveOffchainSignaturePublicKey: {new: func() decodableAction { return &RemoveOffchainSignaturePublicKey{} }},
	TagAddAccumulatorParams:             {new: func() decodableAction { return &AddAccumulatorParams{} }},
	TagAddAccumulatorPublicKey:          {new: func() decodableAction { return &AddAccumulatorPublicKey{} }},
	TagRemoveAccumulatorParams:          {new: func() decodableAction { return &RemoveAccumulatorParams{} }},
	TagRemoveAccumulatorPublicKey:       {new: func() decodableAction { return &RemoveAccumulatorPublicKey{} }},
	TagAddAccumulator:                   {new: func() decodableAction { return &AddAccumulator{} }},
	TagUpdateAccumulator:                {new: func() decodableAction { return &UpdateAccumulator{} }},
	TagRemoveAccumulator:                {new: func() decodableAction { return &RemoveAccumulator{} }},
	TagUpdateStatusListCredential:       {raw: true, new: func() decodableAction { return &UpdateStatusListCredential{} }},
	TagRemoveStatusListCredential:       {raw: true, new: func() decodableAction { return &RemoveStatusListCredential{} }},
	TagInitOrUpdateTrustRegistry:        {new: func() decodableAction { return &InitOrUpdateTrustRegistry{} }},
	TagSetSchemasMetadata:               {new: func() decodableAction { return &SetSchemasMetadata{} }},
	TagUpdateDelegatedIssuers:           {new: func() decodableAction { return &UpdateDelegatedIssuers{} }},
	TagSuspendIssuers:                   {new: func() decodableAction { return &SuspendIssuers{} }},
	TagUnsuspendIssuers:                 {new: func() decodableAction { return &UnsuspendIssuers{} }},
}

// New returns an empty action of variant tag, ready to be decoded into. Raw variants are returned
// without their nonce wrapper.
func New(tag Tag) (Action, error) {
	v, ok := variants[tag]
	if !ok {
		return nil, fmt.Errorf("%w: tag %d", errkind.UnknownAction, tag)
	}

	return v.new(), nil
}

// IsRaw reports whether actions of variant tag are signed with a nonce prefix instead of carrying one.
func IsRaw(tag Tag) bool {
	return variants[tag].raw
}

// Decode parses a canonical state change. Sequences longer than their cap in limits fail to decode;
// nil limits caps nothing. Raw variants are returned as *WithNonce.
func Decode(b []byte, limits *types.Limits) (ActionWithNonce, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: %s", errkind.MalformedInput, scale.ErrUnexpectedEOF)
	}

	tag := Tag(b[0])

	v, ok := variants[tag]
	if !ok {
		return nil, fmt.Errorf("%w: tag %d", errkind.UnknownAction, tag)
	}

	a := v.new()

	var out interface {
		ActionWithNonce
		scale.Decodable
	}

	if v.raw {
		out = &rawDecoder{WithNonce: WithNonce{Action: a}, inner: a}
	} else {
		withNonce, ok := a.(interface {
			ActionWithNonce
			scale.Decodable
		})
		if !ok {
			return nil, fmt.Errorf("%w: %s carries no nonce", errkind.UnknownAction, tag)
		}

		out = withNonce
	}

	if err := scale.DecodeBounded(b[1:], out, limits); err != nil {
		return nil, fmt.Errorf("%w: %s: %s", errkind.MalformedInput, tag, err)
	}

	if r, ok := out.(*rawDecoder); ok {
		return &r.WithNonce, nil
	}

	return out, nil
}

type rawDecoder struct {
	WithNonce
	inner scale.Decodable
}

func (r *rawDecoder) DecodeFrom(d *scale.Decoder) {
	r.Nonce.DecodeFrom(d)
	r.inner.DecodeFrom(d)
}
