/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package registry

import (
	"fmt"

	"github.com/hyperledger/aries-did-registry/pkg/registry/agreement"
	"github.com/hyperledger/aries-did-registry/pkg/registry/errkind"
	"github.com/hyperledger/aries-did-registry/pkg/registry/scale"
	"github.com/hyperledger/aries-did-registry/pkg/registry/types"
)

// RootCallTag is the variant of a root call.
type RootCallTag uint8

// Root call variants.
const (
	TagSetMembers RootCallTag = iota
	TagAgree
)

// RootCall is a call only root may make, such as a proposal executed by the master members.
type RootCall interface {
	scale.Encodable
	RootTag() RootCallTag
}

// SetMembers replaces the master membership.
type SetMembers struct {
	Membership types.Membership `json:"membership"`
}

// RootTag returns TagSetMembers.
func (c *SetMembers) RootTag() RootCallTag { return TagSetMembers }

// EncodeTo writes the membership.
func (c *SetMembers) EncodeTo(e *scale.Encoder) { c.Membership.EncodeTo(e) }

// DecodeFrom reads the membership.
func (c *SetMembers) DecodeFrom(d *scale.Decoder) { c.Membership.DecodeFrom(d) }

// Agree records an agreement.
type Agree struct {
	Agreement agreement.Agreement `json:"agreement"`
}

// RootTag returns TagAgree.
func (c *Agree) RootTag() RootCallTag { return TagAgree }

// EncodeTo writes the agreement.
func (c *Agree) EncodeTo(e *scale.Encoder) { c.Agreement.EncodeTo(e) }

// DecodeFrom reads the agreement.
func (c *Agree) DecodeFrom(d *scale.Decoder) { c.Agreement.DecodeFrom(d) }

// EncodeRootCall returns the tag of c followed by its encoding. This is the proposal master members vote on.
func EncodeRootCall(c RootCall) []byte {
	e := scale.NewEncoder()
	e.U8(uint8(c.RootTag()))
	c.EncodeTo(e)

	return e.Bytes()
}

// DecodeRootCall parses an encoded root call. Sequences longer than their cap in limits fail to decode.
func DecodeRootCall(b []byte, limits *types.Limits) (RootCall, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: empty root call", errkind.UnknownRootCall)
	}

	var c interface {
		RootCall
		scale.Decodable
	}

	switch RootCallTag(b[0]) {
	case TagSetMembers:
		c = &SetMembers{}
	case TagAgree:
		c = &Agree{}
	default:
		return nil, fmt.Errorf("%w: tag %d", errkind.UnknownRootCall, b[0])
	}

	if err := scale.DecodeBounded(b[1:], c, limits); err != nil {
		return nil, fmt.Errorf("%w: root call: %s", errkind.MalformedInput, err)
	}

	return c, nil
}
