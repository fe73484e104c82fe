/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package master_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-did-registry/internal/registrytest"
	"github.com/hyperledger/aries-did-registry/pkg/registry/did"
	"github.com/hyperledger/aries-did-registry/pkg/registry/errkind"
	"github.com/hyperledger/aries-did-registry/pkg/registry/master"
	"github.com/hyperledger/aries-did-registry/pkg/registry/runtime"
	"github.com/hyperledger/aries-did-registry/pkg/registry/store"
	"github.com/hyperledger/aries-did-registry/pkg/registry/types"
)

type recordingDispatcher struct {
	calls [][]byte
	err   error
}

func (d *recordingDispatcher) Dispatch(ctx *runtime.Context, call []byte) error {
	if err := ctx.EnsureRoot(); err != nil {
		return err
	}

	d.calls = append(d.calls, call)
	ctx.Tx().Put(store.Blobs, string(call), []byte{1})

	return d.err
}

type fixture struct {
	r       *runtime.Runtime
	dids    *did.Module
	m       *master.Module
	d       *recordingDispatcher
	members []types.Did
	signers []*registrytest.Ed25519Signer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	r, _ := registrytest.NewRuntime(t)
	dids := did.New()
	d := &recordingDispatcher{}
	f := &fixture{r: r, dids: dids, m: master.New(dids, d), d: d}

	for i := byte(1); i <= 4; i++ {
		member, signer := registrytest.Did(i), registrytest.NewEd25519(t)
		registrytest.NewDid(t, r, dids, member, signer)

		f.members = append(f.members, member)
		f.signers = append(f.signers, signer)
	}

	require.NoError(t, registrytest.Exec(r, func(ctx *runtime.Context) error {
		return f.m.Genesis(ctx, types.Membership{Members: f.members[:3], VoteRequirement: 2})
	}))

	return f
}

func (f *fixture) round(t *testing.T) uint64 {
	t.Helper()

	var r uint64

	require.NoError(t, f.r.Query(func(ctx *runtime.Context) error {
		var err error

		r, err = f.m.Round(ctx.Tx())

		return err
	}))

	return r
}

func (f *fixture) vote(t *testing.T, i int, proposal []byte) did.SignatureWithNonce {
	t.Helper()

	n := registrytest.Nonce(t, f.r, f.dids, types.FromDid(f.members[i])) + 1

	return registrytest.ProofSig(f.signers[i], f.members[i], 1, master.Vote(proposal, f.round(t)), n)
}

func (f *fixture) execute(proposal []byte, proof ...did.SignatureWithNonce) ([]recordedEvent, error) {
	evs, err := f.r.Execute(runtime.Signed(registrytest.Account), func(ctx *runtime.Context) error {
		return f.m.Execute(ctx, proposal, proof)
	})

	names := make([]recordedEvent, len(evs))
	for i, ev := range evs {
		names[i] = recordedEvent{name: ev.Name, data: ev.Data}
	}

	return names, err
}

type recordedEvent struct {
	name string
	data json.RawMessage
}

func TestExecute(t *testing.T) {
	proposal := []byte("proposal")

	t.Run("enough votes", func(t *testing.T) {
		f := newFixture(t)
		proof := []did.SignatureWithNonce{f.vote(t, 0, proposal), f.vote(t, 2, proposal)}

		evs, err := f.execute(proposal, proof...)
		require.NoError(t, err)
		require.Equal(t, [][]byte{proposal}, f.d.calls)
		require.Equal(t, uint64(1), f.round(t))

		require.Len(t, evs, 1)
		require.Equal(t, master.Executed, evs[0].name)

		var outcome master.Outcome
		require.NoError(t, json.Unmarshal(evs[0].data, &outcome))
		require.Equal(t, []types.Did{f.members[0], f.members[2]}, outcome.Voters)

		// votes of the previous round are not accepted again
		_, err = f.execute(proposal, proof...)
		require.True(t, errors.Is(err, errkind.IncorrectNonce))
	})

	t.Run("insufficient votes", func(t *testing.T) {
		f := newFixture(t)
		proof := f.vote(t, 0, proposal)

		_, err := f.execute(proposal, proof)
		require.True(t, errors.Is(err, errkind.InsufficientVotes))
		require.Empty(t, f.d.calls)
		require.Equal(t, registrytest.StartBlock, registrytest.Nonce(t, f.r, f.dids, types.FromDid(f.members[0])))
	})

	t.Run("not a member", func(t *testing.T) {
		f := newFixture(t)
		proof := []did.SignatureWithNonce{f.vote(t, 0, proposal), f.vote(t, 3, proposal)}

		_, err := f.execute(proposal, proof...)
		require.True(t, errors.Is(err, errkind.NotMember))
	})

	t.Run("vote for another proposal", func(t *testing.T) {
		f := newFixture(t)
		proof := []did.SignatureWithNonce{f.vote(t, 0, proposal), f.vote(t, 1, []byte("other"))}

		_, err := f.execute(proposal, proof...)
		require.True(t, errors.Is(err, errkind.BadSig))
	})

	t.Run("rejected vote advances no nonce", func(t *testing.T) {
		f := newFixture(t)
		proof := []did.SignatureWithNonce{f.vote(t, 0, proposal), f.vote(t, 1, []byte("other"))}

		require.NoError(t, registrytest.Exec(f.r, func(ctx *runtime.Context) error {
			err := f.m.Execute(ctx, proposal, proof)
			require.True(t, errors.Is(err, errkind.BadSig))

			n, err := f.dids.Nonce(ctx.Tx(), types.FromDid(f.members[0]))
			require.NoError(t, err)
			require.Equal(t, registrytest.StartBlock, n)

			return nil
		}))
	})

	t.Run("repeated voter counts once", func(t *testing.T) {
		f := newFixture(t)
		first := f.vote(t, 0, proposal)

		_, err := f.execute(proposal, first, first)
		require.True(t, errors.Is(err, errkind.InsufficientVotes))

		evs, err := f.execute(proposal, first, first, f.vote(t, 2, proposal))
		require.NoError(t, err)
		require.Len(t, evs, 1)

		var outcome master.Outcome
		require.NoError(t, json.Unmarshal(evs[0].data, &outcome))
		require.Equal(t, []types.Did{f.members[0], f.members[2]}, outcome.Voters)
		require.Equal(t, registrytest.StartBlock+1, registrytest.Nonce(t, f.r, f.dids, types.FromDid(f.members[0])))
	})

	t.Run("failed proposal is rolled back", func(t *testing.T) {
		f := newFixture(t)
		f.d.err = errkind.EmptyAgreement
		proof := []did.SignatureWithNonce{f.vote(t, 0, proposal), f.vote(t, 1, proposal)}

		evs, err := f.execute(proposal, proof...)
		require.NoError(t, err)
		require.Len(t, evs, 1)
		require.Equal(t, master.ExecutionFailed, evs[0].name)
		require.Equal(t, uint64(1), f.round(t))

		require.NoError(t, f.r.Query(func(ctx *runtime.Context) error {
			has, err := ctx.Tx().Has(store.Blobs, string(proposal))
			require.False(t, has)

			return err
		}))
	})

	t.Run("root origin", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.r.Execute(runtime.Root(), func(ctx *runtime.Context) error {
			return f.m.Execute(ctx, proposal, nil)
		})
		require.True(t, errors.Is(err, errkind.BadOrigin))
	})
}

func TestSetMembers(t *testing.T) {
	f := newFixture(t)

	set := func(origin runtime.Origin, membership types.Membership) error {
		_, err := f.r.Execute(origin, func(ctx *runtime.Context) error { return f.m.SetMembers(ctx, membership) })

		return err
	}

	t.Run("root only", func(t *testing.T) {
		err := set(runtime.Signed(registrytest.Account), types.Membership{Members: f.members, VoteRequirement: 1})
		require.True(t, errors.Is(err, errkind.BadOrigin))
	})

	t.Run("zero vote requirement", func(t *testing.T) {
		require.True(t, errors.Is(set(runtime.Root(), types.Membership{Members: f.members}), errkind.ZeroVoteRequirement))
	})

	t.Run("vote requirement too high", func(t *testing.T) {
		err := set(runtime.Root(), types.Membership{Members: f.members[:1], VoteRequirement: 2})
		require.True(t, errors.Is(err, errkind.VoteRequirementTooHigh))
	})

	t.Run("replaced", func(t *testing.T) {
		require.NoError(t, set(runtime.Root(), types.Membership{Members: f.members[3:], VoteRequirement: 1}))
		require.Equal(t, uint64(1), f.round(t))

		require.NoError(t, f.r.Query(func(ctx *runtime.Context) error {
			membership, err := f.m.Membership(ctx.Tx())
			require.Equal(t, []types.Did{f.members[3]}, membership.Members)

			return err
		}))
	})
}
