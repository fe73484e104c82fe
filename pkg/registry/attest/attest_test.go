/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package attest_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-did-registry/internal/registrytest"
	"github.com/hyperledger/aries-did-registry/pkg/registry/action"
	"github.com/hyperledger/aries-did-registry/pkg/registry/attest"
	"github.com/hyperledger/aries-did-registry/pkg/registry/did"
	"github.com/hyperledger/aries-did-registry/pkg/registry/errkind"
	"github.com/hyperledger/aries-did-registry/pkg/registry/runtime"
	"github.com/hyperledger/aries-did-registry/pkg/registry/types"
)

func TestSetClaim(t *testing.T) {
	r, _ := registrytest.NewRuntime(t)
	dids := did.New()
	m := attest.New(dids)

	alice, aliceKey := registrytest.Did(1), registrytest.NewEd25519(t)
	registrytest.NewDid(t, r, dids, alice, aliceKey)

	set := func(t *testing.T, priority uint64, iri *types.Bytes) error {
		t.Helper()

		a := &action.SetAttestationClaim{
			Attest: types.Attestation{Priority: priority, Iri: iri},
			Nonce:  registrytest.Nonce(t, r, dids, types.FromDid(alice)) + 1,
		}
		sig := registrytest.DidSig(aliceKey, alice, 1, a)

		return registrytest.Exec(r, func(ctx *runtime.Context) error { return m.SetClaim(ctx, a, sig) })
	}

	get := func(t *testing.T) *types.Attestation {
		t.Helper()

		var a *types.Attestation

		require.NoError(t, r.Query(func(ctx *runtime.Context) error {
			var err error

			a, err = m.Attestation(ctx.Tx(), alice)

			return err
		}))

		return a
	}

	t.Run("none yet", func(t *testing.T) {
		require.Nil(t, get(t))
		require.True(t, errors.Is(set(t, 0, nil), errkind.PriorityTooLow))
	})

	t.Run("priority must increase", func(t *testing.T) {
		iri := types.Bytes("ipfs://x")

		require.NoError(t, set(t, 5, &iri))
		require.Equal(t, &types.Attestation{Priority: 5, Iri: &iri}, get(t))

		require.True(t, errors.Is(set(t, 5, &iri), errkind.PriorityTooLow))

		require.NoError(t, set(t, 6, nil))
		require.Equal(t, &types.Attestation{Priority: 6}, get(t))
	})

	t.Run("iri too big", func(t *testing.T) {
		iri := make(types.Bytes, 1025)

		require.True(t, errors.Is(set(t, 7, &iri), errkind.TooBig))
	})

	t.Run("did details", func(t *testing.T) {
		var details *did.AggregatedDetails

		require.NoError(t, r.Query(func(ctx *runtime.Context) error {
			var err error

			details, err = dids.Details(ctx.Tx(), alice, did.DetailsAttestation)

			return err
		}))
		require.Equal(t, uint64(6), details.Attestation.Priority)
	})

	t.Run("DID method key signer", func(t *testing.T) {
		methodKey := registrytest.NewEd25519(t)
		a := &action.SetAttestationClaim{Attest: types.Attestation{Priority: 1}, Nonce: 11}
		sig := registrytest.DidMethodKeySig(methodKey, a)

		err := registrytest.Exec(r, func(ctx *runtime.Context) error { return m.SetClaim(ctx, a, sig) })
		require.True(t, errors.Is(err, errkind.InvalidSigner))
	})
}
