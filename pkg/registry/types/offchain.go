/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package types

import (
	"github.com/hyperledger/aries-did-registry/pkg/registry/scale"
)

// OwnerRef addresses a record stored under an owner and a per-owner counter.
type OwnerRef struct {
	Owner DidOrDidMethodKey `json:"owner"`
	ID    IncID             `json:"id"`
}

// EncodeTo writes the owner followed by the counter.
func (r *OwnerRef) EncodeTo(e *scale.Encoder) {
	r.Owner.EncodeTo(e)
	r.ID.EncodeTo(e)
}

// DecodeFrom reads the reference.
func (r *OwnerRef) DecodeFrom(d *scale.Decoder) {
	r.Owner.DecodeFrom(d)
	r.ID.DecodeFrom(d)
}

func encodeOptRef(e *scale.Encoder, r *OwnerRef) {
	e.Option(r != nil)

	if r != nil {
		r.EncodeTo(e)
	}
}

func decodeOptRef(d *scale.Decoder) *OwnerRef {
	if !d.Option() {
		return nil
	}

	r := &OwnerRef{}
	r.DecodeFrom(d)

	return r
}

// DidKeyRef addresses a key stored under a DID.
type DidKeyRef struct {
	Did Did   `json:"did"`
	ID  IncID `json:"id"`
}

// EncodeTo writes the DID followed by the key id.
func (r *DidKeyRef) EncodeTo(e *scale.Encoder) {
	r.Did.EncodeTo(e)
	r.ID.EncodeTo(e)
}

// DecodeFrom reads the reference.
func (r *DidKeyRef) DecodeFrom(d *scale.Decoder) {
	r.Did.DecodeFrom(d)
	r.ID.DecodeFrom(d)
}

// SignatureScheme is an offchain signature scheme.
type SignatureScheme uint8

// Offchain signature schemes.
const (
	BBS SignatureScheme = iota
	BBSPlus
	PS
)

var schemeNames = enumNames[SignatureScheme]{BBS: "BBS", BBSPlus: "BBSPlus", PS: "PS"}

func (s SignatureScheme) String() string { return schemeNames[s] }

// MarshalText renders the scheme name.
func (s SignatureScheme) MarshalText() ([]byte, error) { return schemeNames.text(s) }

// UnmarshalText parses the scheme name.
func (s *SignatureScheme) UnmarshalText(text []byte) error { return schemeNames.parse(text, s) }

// SignatureParams are the public parameters of an offchain signature scheme.
type SignatureParams struct {
	Scheme SignatureScheme `json:"scheme"`
	Label  *Bytes          `json:"label,omitempty"`
	Curve  CurveType       `json:"curveType"`
	Bytes  Bytes           `json:"bytes"`
}

// Validate checks the label and parameter sizes.
func (p *SignatureParams) Validate(limits *Limits) error {
	if p.Label != nil {
		if err := CheckSize("params label", len(*p.Label), limits.MaxOffchainParamsLabelSize); err != nil {
			return err
		}
	}

	return CheckSize("params", len(p.Bytes), limits.MaxOffchainParamsBytesSize)
}

// EncodeTo writes the scheme tag and the parameters.
func (p *SignatureParams) EncodeTo(e *scale.Encoder) {
	e.U8(uint8(p.Scheme))
	EncodeOptBytes(e, p.Label)
	p.Curve.EncodeTo(e)
	p.Bytes.EncodeTo(e)
}

// DecodeFrom reads tagged parameters.
func (p *SignatureParams) DecodeFrom(d *scale.Decoder) {
	p.Scheme = schemeNames.decode(d)
	p.Label = DecodeOptBounded(d, BoundOffchainParamsLabel)
	p.Curve.DecodeFrom(d)
	p.Bytes = d.Bounded(BoundOffchainParams)
}

// OffchainPublicKey is a public key of an offchain signature scheme.
type OffchainPublicKey struct {
	Scheme        SignatureScheme `json:"scheme"`
	Curve         CurveType       `json:"curveType"`
	Bytes         Bytes           `json:"bytes"`
	ParamsRef     *OwnerRef       `json:"paramsRef,omitempty"`
	ParticipantID *uint16         `json:"participantId,omitempty"`
}

func (s SignatureScheme) keyBound() scale.Bound {
	switch s {
	case BBSPlus:
		return BoundBBSPlusPublicKey
	case PS:
		return BoundPSPublicKey
	default:
		return BoundBBSPublicKey
	}
}

// Validate checks the key size for its scheme.
func (k *OffchainPublicKey) Validate(limits *Limits) error {
	max := limits.MaxBBSPublicKeySize

	switch k.Scheme {
	case BBSPlus:
		max = limits.MaxBBSPlusPublicKeySize
	case PS:
		max = limits.MaxPSPublicKeySize
	}

	return CheckSize(k.Scheme.String()+" public key", len(k.Bytes), max)
}

// EncodeTo writes the scheme tag and the key.
func (k *OffchainPublicKey) EncodeTo(e *scale.Encoder) {
	e.U8(uint8(k.Scheme))
	k.Curve.EncodeTo(e)
	k.Bytes.EncodeTo(e)
	encodeOptRef(e, k.ParamsRef)
	e.Option(k.ParticipantID != nil)

	if k.ParticipantID != nil {
		e.U16(*k.ParticipantID)
	}
}

// DecodeFrom reads a tagged key.
func (k *OffchainPublicKey) DecodeFrom(d *scale.Decoder) {
	k.Scheme = schemeNames.decode(d)
	k.Curve.DecodeFrom(d)
	k.Bytes = d.Bounded(k.Scheme.keyBound())
	k.ParamsRef = decodeOptRef(d)
	k.ParticipantID = nil

	if d.Option() {
		id := d.U16()
		k.ParticipantID = &id
	}
}
