/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package registry_test

import (
	"errors"
	"testing"

	"github.com/hyperledger/aries-framework-go/component/storageutil/mem"
	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-did-registry/internal/registrytest"
	"github.com/hyperledger/aries-did-registry/pkg/registry"
	"github.com/hyperledger/aries-did-registry/pkg/registry/agreement"
	"github.com/hyperledger/aries-did-registry/pkg/registry/did"
	"github.com/hyperledger/aries-did-registry/pkg/registry/errkind"
	"github.com/hyperledger/aries-did-registry/pkg/registry/event"
	"github.com/hyperledger/aries-did-registry/pkg/registry/keys"
	"github.com/hyperledger/aries-did-registry/pkg/registry/master"
	"github.com/hyperledger/aries-did-registry/pkg/registry/runtime"
	"github.com/hyperledger/aries-did-registry/pkg/registry/types"
)

func TestRootCallCodec(t *testing.T) {
	url := "https://example.com"
	limits := types.DefaultLimits()

	for _, c := range []registry.RootCall{
		&registry.SetMembers{Membership: types.Membership{Members: []types.Did{registrytest.Did(1)}, VoteRequirement: 1}},
		&registry.Agree{Agreement: agreement.Agreement{On: "terms", URL: &url}},
	} {
		got, err := registry.DecodeRootCall(registry.EncodeRootCall(c), &limits)
		require.NoError(t, err)
		require.Equal(t, c, got)
	}

	_, err := registry.DecodeRootCall([]byte{9}, &limits)
	require.True(t, errors.Is(err, errkind.UnknownRootCall))

	_, err = registry.DecodeRootCall(nil, &limits)
	require.True(t, errors.Is(err, errkind.UnknownRootCall))

	_, err = registry.DecodeRootCall([]byte{byte(registry.TagAgree), 1}, &limits)
	require.True(t, errors.Is(err, errkind.MalformedInput))

	limits.MaxMasterMembers = 1
	tooMany := &registry.SetMembers{Membership: types.Membership{
		Members: []types.Did{registrytest.Did(1), registrytest.Did(2)}, VoteRequirement: 1,
	}}

	_, err = registry.DecodeRootCall(registry.EncodeRootCall(tooMany), &limits)
	require.True(t, errors.Is(err, errkind.MalformedInput))

	got, err := registry.DecodeRootCall(registry.EncodeRootCall(tooMany), nil)
	require.NoError(t, err)
	require.Equal(t, tooMany, got)
}

func TestRegistry(t *testing.T) {
	clock := runtime.NewManualClock(registrytest.StartBlock)
	alice, aliceKey := registrytest.Did(1), registrytest.NewEd25519(t)

	r, err := registry.New(mem.NewProvider(),
		registry.WithClock(clock),
		registry.WithCacheSize(16),
		registry.WithLimits(types.DefaultLimits()),
		registry.WithGenesisMembership(types.Membership{Members: []types.Did{alice}, VoteRequirement: 1}))
	require.NoError(t, err)
	require.Equal(t, registrytest.StartBlock, r.BlockNumber())
	require.Equal(t, types.DefaultLimits(), r.Limits())

	_, err = r.Execute(runtime.Signed(registrytest.Account), func(ctx *runtime.Context) error {
		return r.DIDs.NewOnchain(ctx, alice, []keys.UncheckedDidKey{{PublicKey: aliceKey.PublicKey()}}, nil)
	})
	require.NoError(t, err)

	t.Run("master proposal", func(t *testing.T) {
		proposal := registry.EncodeRootCall(&registry.Agree{Agreement: agreement.Agreement{On: "terms"}})
		proof := []did.SignatureWithNonce{
			registrytest.ProofSig(aliceKey, alice, 1, master.Vote(proposal, 0), registrytest.StartBlock+1),
		}

		evs, err := r.Execute(runtime.Signed(registrytest.Account), func(ctx *runtime.Context) error {
			return r.Master.Execute(ctx, proposal, proof)
		})
		require.NoError(t, err)
		require.Len(t, evs, 2)
		require.Equal(t, agreement.Agreed, evs[0].Name)
		require.Equal(t, master.Executed, evs[1].Name)
	})

	t.Run("failed proposal", func(t *testing.T) {
		proposal := registry.EncodeRootCall(&registry.Agree{})
		proof := []did.SignatureWithNonce{
			registrytest.ProofSig(aliceKey, alice, 1, master.Vote(proposal, 1), registrytest.StartBlock+2),
		}

		evs, err := r.Execute(runtime.Signed(registrytest.Account), func(ctx *runtime.Context) error {
			return r.Master.Execute(ctx, proposal, proof)
		})
		require.NoError(t, err)
		require.Len(t, evs, 1)
		require.Equal(t, master.ExecutionFailed, evs[0].Name)
	})

	t.Run("events by topic", func(t *testing.T) {
		evs, err := r.Events(event.Topic(alice[:]))
		require.NoError(t, err)
		require.NotEmpty(t, evs)
	})

	t.Run("genesis membership", func(t *testing.T) {
		require.NoError(t, r.Query(func(ctx *runtime.Context) error {
			seeded, err := r.Master.Seeded(ctx.Tx())
			require.True(t, seeded)

			return err
		}))
	})
}
