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

// ServiceEndpointType is a bit set of service types.
type ServiceEndpointType uint16

// Service endpoint types.
const (
	ServiceEndpointNone          ServiceEndpointType = 0
	ServiceEndpointLinkedDomains ServiceEndpointType = 0b0001
)

// ServiceEndpoint is a DID service endpoint.
type ServiceEndpoint struct {
	Types   ServiceEndpointType `json:"types"`
	Origins []Bytes             `json:"origins"`
}

// Validate checks that the endpoint has a type and non-empty origins within limits.
func (s *ServiceEndpoint) Validate(limits *Limits) error {
	if s.Types == ServiceEndpointNone || len(s.Origins) == 0 {
		return errkind.InvalidServiceEndpoint
	}

	if uint64(len(s.Origins)) > uint64(limits.MaxDidServiceEndpointOrigins) {
		return fmt.Errorf("%w: too many origins", errkind.InvalidServiceEndpoint)
	}

	for _, origin := range s.Origins {
		if len(origin) == 0 {
			return fmt.Errorf("%w: empty origin", errkind.InvalidServiceEndpoint)
		}

		if uint64(len(origin)) > uint64(limits.MaxDidServiceEndpointOriginSize) {
			return fmt.Errorf("%w: origin too long", errkind.InvalidServiceEndpoint)
		}
	}

	return nil
}

// EncodeTo writes the endpoint.
func (s *ServiceEndpoint) EncodeTo(e *scale.Encoder) {
	e.U16(uint16(s.Types))
	e.Len(len(s.Origins))

	for _, origin := range s.Origins {
		origin.EncodeTo(e)
	}
}

// DecodeFrom reads the endpoint.
func (s *ServiceEndpoint) DecodeFrom(d *scale.Decoder) {
	s.Types = ServiceEndpointType(d.U16())

	n := d.BoundedLen(BoundServiceEndpointOrigins)
	s.Origins = make([]Bytes, n)

	for i := range s.Origins {
		s.Origins[i] = d.Bounded(BoundServiceEndpointOrigin)
	}
}

// DocRefType is the kind of reference an off-chain DID stores.
type DocRefType uint8

// Off-chain DID document reference kinds.
const (
	DocRefCID DocRefType = iota
	DocRefURL
	DocRefCustom
)

var docRefNames = enumNames[DocRefType]{DocRefCID: "CID", DocRefURL: "URL", DocRefCustom: "Custom"}

// MarshalText renders the reference kind.
func (t DocRefType) MarshalText() ([]byte, error) { return docRefNames.text(t) }

// UnmarshalText parses the reference kind.
func (t *DocRefType) UnmarshalText(text []byte) error { return docRefNames.parse(text, t) }

// OffChainDidDocRef points at a DID document stored off-chain.
type OffChainDidDocRef struct {
	Type  DocRefType `json:"type"`
	Bytes Bytes      `json:"bytes"`
}

// Validate checks the reference size.
func (r *OffChainDidDocRef) Validate(limits *Limits) error {
	if _, ok := docRefNames[r.Type]; !ok {
		return fmt.Errorf("%w: doc ref type %d", errkind.MalformedInput, r.Type)
	}

	return CheckSize("doc ref", len(r.Bytes), limits.MaxDidDocRefSize)
}

// EncodeTo writes the tagged reference.
func (r *OffChainDidDocRef) EncodeTo(e *scale.Encoder) {
	e.U8(uint8(r.Type))
	r.Bytes.EncodeTo(e)
}

// DecodeFrom reads the tagged reference.
func (r *OffChainDidDocRef) DecodeFrom(d *scale.Decoder) {
	r.Type = docRefNames.decode(d)
	r.Bytes = d.Bounded(BoundDidDocRef)
}
