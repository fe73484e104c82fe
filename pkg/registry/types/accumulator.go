/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package types

import (
	"fmt"

	"github.com/hyperledger/aries-did-registry/pkg/registry/errkind"
	"github.com/hyperledger/aries-did-registry/pkg/registry/scale"
)

// AccumulatorParams are the public parameters of an accumulator scheme.
type AccumulatorParams struct {
	Label *Bytes    `json:"label,omitempty"`
	Curve CurveType `json:"curveType"`
	Bytes Bytes     `json:"bytes"`
}

// Validate checks the label and parameter sizes.
func (p *AccumulatorParams) Validate(limits *Limits) error {
	if p.Label != nil {
		if err := CheckSize("accumulator label", len(*p.Label), limits.MaxAccumulatorLabelSize); err != nil {
			return err
		}
	}

	return CheckSize("accumulator params", len(p.Bytes), limits.MaxAccumulatorParamsSize)
}

// EncodeTo writes the parameters.
func (p *AccumulatorParams) EncodeTo(e *scale.Encoder) {
	EncodeOptBytes(e, p.Label)
	p.Curve.EncodeTo(e)
	p.Bytes.EncodeTo(e)
}

// DecodeFrom reads the parameters.
func (p *AccumulatorParams) DecodeFrom(d *scale.Decoder) {
	p.Label = DecodeOptBounded(d, BoundAccumulatorLabel)
	p.Curve.DecodeFrom(d)
	p.Bytes = d.Bounded(BoundAccumulatorParams)
}

// AccumulatorPublicKey is the public key of an accumulator manager.
type AccumulatorPublicKey struct {
	Curve     CurveType `json:"curveType"`
	Bytes     Bytes     `json:"bytes"`
	ParamsRef *OwnerRef `json:"paramsRef,omitempty"`
}

// Validate checks the key size.
func (k *AccumulatorPublicKey) Validate(limits *Limits) error {
	return CheckSize("accumulator public key", len(k.Bytes), limits.MaxAccumulatorPublicKeySize)
}

// EncodeTo writes the key.
func (k *AccumulatorPublicKey) EncodeTo(e *scale.Encoder) {
	k.Curve.EncodeTo(e)
	k.Bytes.EncodeTo(e)
	encodeOptRef(e, k.ParamsRef)
}

// DecodeFrom reads the key.
func (k *AccumulatorPublicKey) DecodeFrom(d *scale.Decoder) {
	k.Curve.DecodeFrom(d)
	k.Bytes = d.Bounded(BoundAccumulatorPublicKey)
	k.ParamsRef = decodeOptRef(d)
}

// AccumulatorType is the variant of an accumulator.
type AccumulatorType uint8

// Accumulator variants.
const (
	Positive AccumulatorType = iota
	Universal
	KBUniversal
)

var accumulatorNames = enumNames[AccumulatorType]{
	Positive:    "Positive",
	Universal:   "Universal",
	KBUniversal: "KBUniversal",
}

// MarshalText renders the variant name.
func (t AccumulatorType) MarshalText() ([]byte, error) { return accumulatorNames.text(t) }

// UnmarshalText parses the variant name.
func (t *AccumulatorType) UnmarshalText(text []byte) error { return accumulatorNames.parse(text, t) }

// Accumulator is a cryptographic accumulator. MaxSize is only meaningful for Universal accumulators.
type Accumulator struct {
	Type        AccumulatorType `json:"type"`
	Accumulated Bytes           `json:"accumulated"`
	KeyRef      OwnerRef        `json:"keyRef"`
	MaxSize     uint64          `json:"maxSize,omitempty"`
}

// Validate checks the accumulated value size.
func (a *Accumulator) Validate(limits *Limits) error {
	if uint64(len(a.Accumulated)) > uint64(limits.MaxAccumulatorAccumulatedSize) {
		return fmt.Errorf("%w: %d bytes, limit %d", errkind.AccumulatedTooBig,
			len(a.Accumulated), limits.MaxAccumulatorAccumulatedSize)
	}

	return nil
}

// EncodeTo writes the variant tag and the accumulator.
func (a *Accumulator) EncodeTo(e *scale.Encoder) {
	e.U8(uint8(a.Type))
	a.Accumulated.EncodeTo(e)
	a.KeyRef.EncodeTo(e)

	if a.Type == Universal {
		e.U64(a.MaxSize)
	}
}

// DecodeFrom reads a tagged accumulator.
func (a *Accumulator) DecodeFrom(d *scale.Decoder) {
	a.Type = accumulatorNames.decode(d)
	a.Accumulated = d.Bounded(BoundAccumulatorAccumulated)
	a.KeyRef.DecodeFrom(d)
	a.MaxSize = 0

	if a.Type == Universal {
		a.MaxSize = d.U64()
	}
}

// StoredAccumulator is an accumulator with its creation and last update blocks.
type StoredAccumulator struct {
	CreatedAt     BlockNumber `json:"createdAt"`
	LastUpdatedAt BlockNumber `json:"lastUpdatedAt"`
	Accumulator   Accumulator `json:"accumulator"`
}

// EncodeTo writes the stored accumulator.
func (s *StoredAccumulator) EncodeTo(e *scale.Encoder) {
	s.CreatedAt.EncodeTo(e)
	s.LastUpdatedAt.EncodeTo(e)
	s.Accumulator.EncodeTo(e)
}

// DecodeFrom reads the stored accumulator.
func (s *StoredAccumulator) DecodeFrom(d *scale.Decoder) {
	s.CreatedAt.DecodeFrom(d)
	s.LastUpdatedAt.DecodeFrom(d)
	s.Accumulator.DecodeFrom(d)
}

// OwnerCounters are the per-owner counters of parameters and public keys.
type OwnerCounters struct {
	ParamsCounter IncID `json:"paramsCounter"`
	KeyCounter    IncID `json:"keyCounter"`
}

// EncodeTo writes both counters.
func (c *OwnerCounters) EncodeTo(e *scale.Encoder) {
	c.ParamsCounter.EncodeTo(e)
	c.KeyCounter.EncodeTo(e)
}

// DecodeFrom reads both counters.
func (c *OwnerCounters) DecodeFrom(d *scale.Decoder) {
	c.ParamsCounter.DecodeFrom(d)
	c.KeyCounter.DecodeFrom(d)
}
