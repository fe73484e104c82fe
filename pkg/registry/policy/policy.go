/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package policy authorizes actions over resources shared by several DIDs. A Policy names the
// DIDs allowed to act and the rule their signatures must satisfy.
package policy

import (
	"fmt"
	"sort"

	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/hyperledger/aries-did-registry/pkg/registry/action"
	"github.com/hyperledger/aries-did-registry/pkg/registry/did"
	"github.com/hyperledger/aries-did-registry/pkg/registry/errkind"
	"github.com/hyperledger/aries-did-registry/pkg/registry/runtime"
	"github.com/hyperledger/aries-did-registry/pkg/registry/scale"
	"github.com/hyperledger/aries-did-registry/pkg/registry/types"
)

var logger = log.New("aries-registry/policy")

// Rule is the variant of a Policy.
type Rule uint8

// OneOf is satisfied by a signature of any one member.
const OneOf Rule = 0

// Policy is a quorum rule over a set of controllers.
type Policy struct {
	Rule        Rule                      `json:"rule"`
	Controllers []types.DidOrDidMethodKey `json:"controllers"`
}

// NewOneOf returns a OneOf policy over controllers.
func NewOneOf(controllers ...types.DidOrDidMethodKey) Policy {
	return Policy{Rule: OneOf, Controllers: controllers}
}

// OneOfDids returns a OneOf policy over DIDs.
func OneOfDids(dids ...types.Did) Policy {
	controllers := make([]types.DidOrDidMethodKey, len(dids))

	for i, d := range dids {
		controllers[i] = types.FromDid(d)
	}

	return NewOneOf(controllers...)
}

func sortedControllers(controllers []types.DidOrDidMethodKey) []types.DidOrDidMethodKey {
	seen := make(map[types.DidOrDidMethodKey]struct{}, len(controllers))
	out := make([]types.DidOrDidMethodKey, 0, len(controllers))

	for _, c := range controllers {
		if _, ok := seen[c]; ok {
			continue
		}

		seen[c] = struct{}{}
		out = append(out, c)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Compare(out[j]) < 0 })

	return out
}

// Members returns the distinct controllers in canonical order.
func (p *Policy) Members() []types.DidOrDidMethodKey {
	return sortedControllers(p.Controllers)
}

// Len is the number of distinct controllers.
func (p *Policy) Len() int {
	return len(p.Members())
}

// Validate checks the rule and the number of controllers.
func (p *Policy) Validate(limits *types.Limits) error {
	if p.Rule != OneOf {
		return fmt.Errorf("%w: policy rule %d", errkind.MalformedInput, p.Rule)
	}

	n := p.Len()
	if n == 0 {
		return errkind.EmptyPolicy
	}

	if uint64(n) > uint64(limits.MaxPolicyControllers) {
		return fmt.Errorf("%w: %d controllers, limit %d", errkind.TooManyControllers, n, limits.MaxPolicyControllers)
	}

	return nil
}

// IsMember reports whether c is one of the controllers.
func (p *Policy) IsMember(c types.DidOrDidMethodKey) bool {
	for _, member := range p.Controllers {
		if member == c {
			return true
		}
	}

	return false
}

// SatisfiedBy reports whether signers meet the rule.
func (p *Policy) SatisfiedBy(signers []types.DidOrDidMethodKey) bool {
	for _, s := range signers {
		if p.IsMember(s) {
			return true
		}
	}

	return false
}

// EncodeTo writes the rule tag and the controller set.
func (p *Policy) EncodeTo(e *scale.Encoder) {
	members := p.Members()

	e.U8(uint8(p.Rule))
	e.Len(len(members))

	for _, m := range members {
		m.EncodeTo(e)
	}
}

// DecodeFrom reads a policy.
func (p *Policy) DecodeFrom(d *scale.Decoder) {
	p.Rule = Rule(d.U8())
	if d.Err() == nil && p.Rule != OneOf {
		d.Fail(fmt.Errorf("%w: policy rule %d", errkind.MalformedInput, p.Rule))

		return
	}

	p.Controllers = make([]types.DidOrDidMethodKey, d.BoundedLen(types.BoundPolicyControllers))

	for i := range p.Controllers {
		p.Controllers[i].DecodeFrom(d)
	}
}

// Proof is the list of signatures authorizing a policy-guarded action.
type Proof []did.SignatureWithNonce

// EncodeTo writes the signatures.
func (p Proof) EncodeTo(e *scale.Encoder) {
	e.Len(len(p))

	for i := range p {
		p[i].EncodeTo(e)
	}
}

// DecodeFrom reads the signatures.
func (p *Proof) DecodeFrom(d *scale.Decoder) {
	*p = make(Proof, d.Len())

	for i := range *p {
		(*p)[i].DecodeFrom(d)
	}
}

// Authorize checks proof for the raw action a under p. Every signer must be a member, appear once
// and sign a together with its own next nonce using a capability invocation key or a DID method
// key. Signer nonces advance on success. It returns the verified signers.
func Authorize(ctx *runtime.Context, m *did.Module, p *Policy, a action.Action,
	proof Proof) ([]types.DidOrDidMethodKey, error) {
	if _, err := ctx.EnsureSigned(); err != nil {
		return nil, err
	}

	if a.Len() == 0 {
		return nil, errkind.EmptyPayload
	}

	if len(proof) == 0 {
		return nil, fmt.Errorf("%w: no signatures", errkind.NotAuthorized)
	}

	if len(proof) > p.Len() {
		return nil, fmt.Errorf("%w: %d signatures for %d controllers", errkind.TooManySignatures, len(proof), p.Len())
	}

	tx := ctx.Tx()
	signers := make([]types.DidOrDidMethodKey, 0, len(proof))
	seen := make(map[types.DidOrDidMethodKey]struct{}, len(proof))

	for i := range proof {
		sig := &proof[i]
		signer := sig.Sig.Signer

		if !p.IsMember(signer) {
			return nil, fmt.Errorf("%w: %s is not a policy controller", errkind.NotAuthorized, signer)
		}

		if _, ok := seen[signer]; ok {
			return nil, fmt.Errorf("%w: %s", errkind.DuplicateSigner, signer)
		}

		seen[signer] = struct{}{}

		if err := m.VerifySignature(tx, &sig.Sig, did.RequireControl, action.EncodeWithNonce(a, sig.Nonce)); err != nil {
			return nil, err
		}

		if err := m.AdvanceNonce(tx, signer, sig.Nonce); err != nil {
			return nil, err
		}

		signers = append(signers, signer)
	}

	if !p.SatisfiedBy(signers) {
		return nil, errkind.NotAuthorized
	}

	logger.Debugf("%s authorized by %d signers", a.Tag(), len(signers))

	return signers, nil
}
