/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package master is the multi-signature root authority. Proposals voted by enough members are
// dispatched as root calls.
package master

import (
	"errors"
	"fmt"

	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/hyperledger/aries-did-registry/pkg/registry/action"
	"github.com/hyperledger/aries-did-registry/pkg/registry/did"
	"github.com/hyperledger/aries-did-registry/pkg/registry/errkind"
	"github.com/hyperledger/aries-did-registry/pkg/registry/event"
	"github.com/hyperledger/aries-did-registry/pkg/registry/runtime"
	"github.com/hyperledger/aries-did-registry/pkg/registry/scale"
	"github.com/hyperledger/aries-did-registry/pkg/registry/store"
	"github.com/hyperledger/aries-did-registry/pkg/registry/types"
)

// ModuleName is the module of the events deposited by this package.
const ModuleName = "master"

// Events.
const (
	Executed          = "Executed"
	ExecutionFailed   = "ExecutionFailed"
	UnderNewOwnership = "UnderNewOwnership"
)

const (
	membershipKey = "membership"
	roundKey      = "round"
)

var logger = log.New("aries-registry/master")

// Dispatcher runs an encoded root call.
type Dispatcher interface {
	Dispatch(ctx *runtime.Context, call []byte) error
}

// Outcome is the payload of Executed and ExecutionFailed.
type Outcome struct {
	Voters   []types.Did `json:"voters"`
	Proposal types.Bytes `json:"proposal"`
	Error    string      `json:"error,omitempty"`
}

type round uint64

func (r round) EncodeTo(e *scale.Encoder) { e.U64(uint64(r)) }

func (r *round) DecodeFrom(d *scale.Decoder) { *r = round(d.U64()) }

// Module is the master authority.
type Module struct {
	dids       *did.Module
	dispatcher Dispatcher
}

// New returns the master authority verifying votes through dids and running proposals with dispatcher.
func New(dids *did.Module, dispatcher Dispatcher) *Module {
	return &Module{dids: dids, dispatcher: dispatcher}
}

// Membership returns the current members. Without members a single vote is required.
func (m *Module) Membership(tx *store.Tx) (*types.Membership, error) {
	membership := types.Membership{VoteRequirement: 1}

	if _, err := tx.Load(store.Master, membershipKey, &membership); err != nil {
		return nil, err
	}

	return &membership, nil
}

// Seeded reports whether a membership was ever stored.
func (m *Module) Seeded(tx *store.Tx) (bool, error) {
	return tx.Has(store.Master, membershipKey)
}

// Round returns the number of the current voting round.
func (m *Module) Round(tx *store.Tx) (uint64, error) {
	var r round

	if _, err := tx.Load(store.Master, roundKey, &r); err != nil {
		return 0, err
	}

	return uint64(r), nil
}

func checkMembership(limits *types.Limits, membership *types.Membership) error {
	if membership.VoteRequirement == 0 {
		return errkind.ZeroVoteRequirement
	}

	if n := uint64(len(membership.Members)); n > uint64(limits.MaxMasterMembers) {
		return fmt.Errorf("%w: %d members, limit %d", errkind.TooBig, n, limits.MaxMasterMembers)
	}

	if membership.VoteRequirement > uint64(len(membership.Members)) {
		return fmt.Errorf("%w: %d votes of %d members", errkind.VoteRequirementTooHigh,
			membership.VoteRequirement, len(membership.Members))
	}

	return nil
}

// Genesis stores the initial membership without touching the round.
func (m *Module) Genesis(ctx *runtime.Context, membership types.Membership) error {
	membership.Members = types.SortedSet(membership.Members)

	if err := checkMembership(ctx.Limits(), &membership); err != nil {
		return err
	}

	ctx.Tx().Save(store.Master, membershipKey, &membership)

	return nil
}

// SetMembers replaces the membership and starts a new round. It is a root call.
func (m *Module) SetMembers(ctx *runtime.Context, membership types.Membership) error {
	if err := ctx.EnsureRoot(); err != nil {
		return err
	}

	membership.Members = types.SortedSet(membership.Members)

	if err := checkMembership(ctx.Limits(), &membership); err != nil {
		return err
	}

	tx := ctx.Tx()

	if err := m.nextRound(tx); err != nil {
		return err
	}

	tx.Save(store.Master, membershipKey, &membership)
	ctx.Deposit(event.New(ModuleName, UnderNewOwnership, &membership))
	logger.Infof("master membership replaced: %d members, %d votes required",
		len(membership.Members), membership.VoteRequirement)

	return nil
}

func (m *Module) nextRound(tx *store.Tx) error {
	r, err := m.Round(tx)
	if err != nil {
		return err
	}

	tx.Save(store.Master, roundKey, round(r+1))

	return nil
}

// Vote returns the action a member signs to vote for proposal in round.
func Vote(proposal []byte, r uint64) *action.MasterVote {
	return &action.MasterVote{Proposal: proposal, Round: r}
}

// Execute dispatches proposal as root when proof carries votes of enough distinct members for the
// current round. Every voter signs the vote together with its next nonce. A failing proposal leaves
// no state behind but still consumes the round and the voters' nonces.
func (m *Module) Execute(ctx *runtime.Context, proposal []byte, proof []did.SignatureWithNonce) error {
	if _, err := ctx.EnsureSigned(); err != nil {
		return err
	}

	tx := ctx.Tx()

	r, err := m.Round(tx)
	if err != nil {
		return err
	}

	vote := Vote(proposal, r)
	voters := make(map[types.Did]types.BlockNumber, len(proof))
	order := make([]types.Did, 0, len(proof))

	for i := range proof {
		sig := &proof[i]

		voter, ok := sig.Sig.Signer.AsDid()
		if !ok {
			return fmt.Errorf("%w: %s", errkind.NotMember, sig.Sig.Signer)
		}

		if err := m.dids.CheckNonce(tx, sig.Sig.Signer, sig.Nonce); err != nil {
			return err
		}

		err := m.dids.VerifySignature(tx, &sig.Sig, did.RequireAuthOrControl,
			action.EncodeWithNonce(vote, sig.Nonce))
		if errors.Is(err, errkind.InvalidSignature) {
			return fmt.Errorf("%w: vote of %s", errkind.BadSig, voter)
		}

		if err != nil {
			return err
		}

		if _, seen := voters[voter]; !seen {
			voters[voter] = sig.Nonce
			order = append(order, voter)
		}
	}

	membership, err := m.Membership(tx)
	if err != nil {
		return err
	}

	if uint64(len(voters)) < membership.VoteRequirement {
		return fmt.Errorf("%w: %d of %d", errkind.InsufficientVotes, len(voters), membership.VoteRequirement)
	}

	for _, voter := range order {
		if !membership.IsMember(voter) {
			return fmt.Errorf("%w: %s", errkind.NotMember, voter)
		}
	}

	// nonces advance once per voter, only after every vote is verified
	for _, voter := range order {
		if err := m.dids.AdvanceNonce(tx, types.FromDid(voter), voters[voter]); err != nil {
			return err
		}
	}

	dispatchErr := ctx.AsRoot().Transactional(func(root *runtime.Context) error {
		return m.dispatcher.Dispatch(root, proposal)
	})

	if err := m.nextRound(tx); err != nil {
		return err
	}

	outcome := Outcome{Voters: types.SortedSet(order), Proposal: proposal}

	if dispatchErr != nil {
		outcome.Error = dispatchErr.Error()
		ctx.Deposit(event.New(ModuleName, ExecutionFailed, &outcome))
		logger.Warnf("master proposal of round %d failed: %s", r, dispatchErr)

		return nil
	}

	ctx.Deposit(event.New(ModuleName, Executed, &outcome))
	logger.Debugf("master proposal of round %d executed by %d voters", r, len(order))

	return nil
}
