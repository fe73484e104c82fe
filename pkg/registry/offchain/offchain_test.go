/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package offchain_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-did-registry/internal/registrytest"
	"github.com/hyperledger/aries-did-registry/pkg/registry/action"
	"github.com/hyperledger/aries-did-registry/pkg/registry/did"
	"github.com/hyperledger/aries-did-registry/pkg/registry/errkind"
	"github.com/hyperledger/aries-did-registry/pkg/registry/offchain"
	"github.com/hyperledger/aries-did-registry/pkg/registry/runtime"
	"github.com/hyperledger/aries-did-registry/pkg/registry/types"
)

func params(scheme types.SignatureScheme) types.SignatureParams {
	label := types.Bytes("label")

	return types.SignatureParams{Scheme: scheme, Label: &label, Curve: types.Bls12381, Bytes: types.Bytes{1, 2, 3}}
}

func TestParams(t *testing.T) {
	r, _ := registrytest.NewRuntime(t)
	dids := did.New()
	m := offchain.New(dids)

	alice, aliceKey := registrytest.Did(1), registrytest.NewEd25519(t)
	bob, bobKey := registrytest.Did(2), registrytest.NewEd25519(t)
	registrytest.NewDid(t, r, dids, alice, aliceKey)
	registrytest.NewDid(t, r, dids, bob, bobKey)

	methodKey := registrytest.NewEd25519(t)
	dmk := types.FromDidMethodKey(methodKey.DidMethodKey())
	require.NoError(t, registrytest.Exec(r, func(ctx *runtime.Context) error {
		return dids.NewDidMethodKey(ctx, methodKey.DidMethodKey())
	}))

	next := func(signer types.DidOrDidMethodKey) types.BlockNumber {
		return registrytest.Nonce(t, r, dids, signer) + 1
	}

	add := func(s registrytest.Signer, d types.Did, p types.SignatureParams) error {
		a := &action.AddOffchainSignatureParams{Params: p, Nonce: next(types.FromDid(d))}
		sig := registrytest.DidSig(s, d, 1, a)

		return registrytest.Exec(r, func(ctx *runtime.Context) error { return m.AddParams(ctx, a, sig) })
	}

	list := func(owner types.DidOrDidMethodKey) []offchain.ParamsWithID {
		var out []offchain.ParamsWithID

		require.NoError(t, r.Query(func(ctx *runtime.Context) error {
			var err error

			out, err = m.DidParams(ctx.Tx(), owner)

			return err
		}))

		return out
	}

	t.Run("add increments the owner counter", func(t *testing.T) {
		require.NoError(t, add(aliceKey, alice, params(types.BBS)))
		require.NoError(t, add(aliceKey, alice, params(types.PS)))
		require.NoError(t, add(bobKey, bob, params(types.BBSPlus)))

		got := list(types.FromDid(alice))
		require.Len(t, got, 2)
		require.Equal(t, types.IncID(1), got[0].ID)
		require.Equal(t, types.BBS, got[0].Params.Scheme)
		require.Equal(t, types.IncID(2), got[1].ID)
		require.Equal(t, types.PS, got[1].Params.Scheme)

		require.Len(t, list(types.FromDid(bob)), 1)
	})

	t.Run("did method key owner", func(t *testing.T) {
		a := &action.AddOffchainSignatureParams{Params: params(types.BBS), Nonce: next(dmk)}
		sig := registrytest.DidMethodKeySig(methodKey, a)

		require.NoError(t, registrytest.Exec(r, func(ctx *runtime.Context) error { return m.AddParams(ctx, a, sig) }))

		got := list(dmk)
		require.Len(t, got, 1)
		require.Equal(t, types.IncID(1), got[0].ID)
	})

	t.Run("label too big", func(t *testing.T) {
		p := params(types.BBS)
		label := types.Bytes(bytes.Repeat([]byte{1}, 129))
		p.Label = &label

		require.True(t, errors.Is(add(aliceKey, alice, p), errkind.TooBig))
	})

	t.Run("remove requires owner", func(t *testing.T) {
		a := &action.RemoveOffchainSignatureParams{
			ParamsRef: types.OwnerRef{Owner: types.FromDid(alice), ID: 1},
			Nonce:     next(types.FromDid(bob)),
		}
		sig := registrytest.DidSig(bobKey, bob, 1, a)

		err := registrytest.Exec(r, func(ctx *runtime.Context) error { return m.RemoveParams(ctx, a, sig) })
		require.True(t, errors.Is(err, errkind.NotOwner))
	})

	t.Run("remove", func(t *testing.T) {
		a := &action.RemoveOffchainSignatureParams{
			ParamsRef: types.OwnerRef{Owner: types.FromDid(alice), ID: 1},
			Nonce:     next(types.FromDid(alice)),
		}
		sig := registrytest.DidSig(aliceKey, alice, 1, a)

		require.NoError(t, registrytest.Exec(r, func(ctx *runtime.Context) error { return m.RemoveParams(ctx, a, sig) }))
		require.Len(t, list(types.FromDid(alice)), 1)

		again := &action.RemoveOffchainSignatureParams{ParamsRef: a.ParamsRef, Nonce: next(types.FromDid(alice))}
		sig = registrytest.DidSig(aliceKey, alice, 1, again)

		err := registrytest.Exec(r, func(ctx *runtime.Context) error { return m.RemoveParams(ctx, again, sig) })
		require.True(t, errors.Is(err, errkind.ParamsDontExist))
	})

	t.Run("counter is not reused", func(t *testing.T) {
		require.NoError(t, add(aliceKey, alice, params(types.BBS)))

		got := list(types.FromDid(alice))
		require.Equal(t, types.IncID(3), got[len(got)-1].ID)
	})
}

func TestPublicKeys(t *testing.T) {
	r, _ := registrytest.NewRuntime(t)
	dids := did.New()
	m := offchain.New(dids)

	alice, aliceKey := registrytest.Did(1), registrytest.NewEd25519(t)
	bob, bobKey := registrytest.Did(2), registrytest.NewEd25519(t)
	registrytest.NewDid(t, r, dids, alice, aliceKey)
	registrytest.NewDid(t, r, dids, bob, bobKey)

	next := func(d types.Did) types.BlockNumber {
		return registrytest.Nonce(t, r, dids, types.FromDid(d)) + 1
	}

	paramsAction := &action.AddOffchainSignatureParams{Params: params(types.BBSPlus), Nonce: next(alice)}
	paramsSig := registrytest.DidSig(aliceKey, alice, 1, paramsAction)
	require.NoError(t, registrytest.Exec(r, func(ctx *runtime.Context) error {
		return m.AddParams(ctx, paramsAction, paramsSig)
	}))

	ref := &types.OwnerRef{Owner: types.FromDid(alice), ID: 1}

	addKey := func(s registrytest.Signer, signer, target types.Did, k types.OffchainPublicKey) error {
		a := &action.AddOffchainSignaturePublicKey{Key: k, Did: target, Nonce: next(signer)}
		sig := registrytest.DidSig(s, signer, 1, a)

		return registrytest.Exec(r, func(ctx *runtime.Context) error { return m.AddPublicKey(ctx, a, sig) })
	}

	keyWithParams := func(d types.Did, id types.IncID) (*types.OffchainPublicKey, *types.SignatureParams) {
		var (
			k *types.OffchainPublicKey
			p *types.SignatureParams
		)

		require.NoError(t, r.Query(func(ctx *runtime.Context) error {
			var err error

			k, p, err = m.PublicKeyWithParams(ctx.Tx(), d, id)

			return err
		}))

		return k, p
	}

	t.Run("add with params shares the DID key counter", func(t *testing.T) {
		k := types.OffchainPublicKey{Scheme: types.BBSPlus, Curve: types.Bls12381, Bytes: types.Bytes{9}, ParamsRef: ref}
		require.NoError(t, addKey(aliceKey, alice, alice, k))

		got, p := keyWithParams(alice, 2)
		require.NotNil(t, got)
		require.Equal(t, types.BBSPlus, got.Scheme)
		require.NotNil(t, p)
		require.Equal(t, types.BBSPlus, p.Scheme)

		var lastKeyID types.IncID

		require.NoError(t, r.Query(func(ctx *runtime.Context) error {
			details, err := dids.OnChainDid(ctx.Tx(), alice)
			if err != nil {
				return err
			}

			lastKeyID = details.Data.LastKeyID

			return nil
		}))
		require.Equal(t, types.IncID(2), lastKeyID)
	})

	t.Run("scheme mismatch", func(t *testing.T) {
		k := types.OffchainPublicKey{Scheme: types.PS, Curve: types.Bls12381, Bytes: types.Bytes{9}, ParamsRef: ref}
		require.True(t, errors.Is(addKey(aliceKey, alice, alice, k), errkind.IncorrectParamsScheme))
	})

	t.Run("missing params", func(t *testing.T) {
		k := types.OffchainPublicKey{
			Scheme: types.BBSPlus, Curve: types.Bls12381, Bytes: types.Bytes{9},
			ParamsRef: &types.OwnerRef{Owner: types.FromDid(alice), ID: 9},
		}
		require.True(t, errors.Is(addKey(aliceKey, alice, alice, k), errkind.ParamsDontExist))
	})

	t.Run("key too big", func(t *testing.T) {
		k := types.OffchainPublicKey{Scheme: types.BBS, Curve: types.Bls12381, Bytes: bytes.Repeat([]byte{1}, 257)}
		require.True(t, errors.Is(addKey(aliceKey, alice, alice, k), errkind.TooBig))
	})

	t.Run("only a controller may add", func(t *testing.T) {
		k := types.OffchainPublicKey{Scheme: types.BBS, Curve: types.Bls12381, Bytes: types.Bytes{9}}
		require.True(t, errors.Is(addKey(bobKey, bob, alice, k), errkind.OnlyControllerCanUpdate))
	})

	t.Run("dangling params reference", func(t *testing.T) {
		a := &action.RemoveOffchainSignatureParams{ParamsRef: *ref, Nonce: next(alice)}
		sig := registrytest.DidSig(aliceKey, alice, 1, a)
		require.NoError(t, registrytest.Exec(r, func(ctx *runtime.Context) error { return m.RemoveParams(ctx, a, sig) }))

		got, p := keyWithParams(alice, 2)
		require.NotNil(t, got)
		require.Nil(t, p)
	})

	t.Run("remove", func(t *testing.T) {
		remove := func(s registrytest.Signer, signer types.Did, keyRef types.DidKeyRef, target types.Did) error {
			a := &action.RemoveOffchainSignaturePublicKey{KeyRef: keyRef, Did: target, Nonce: next(signer)}
			sig := registrytest.DidSig(s, signer, 1, a)

			return registrytest.Exec(r, func(ctx *runtime.Context) error { return m.RemovePublicKey(ctx, a, sig) })
		}

		require.NoError(t, addKey(bobKey, bob, bob, types.OffchainPublicKey{
			Scheme: types.BBS, Curve: types.Bls12381, Bytes: types.Bytes{7},
		}))

		require.True(t, errors.Is(remove(aliceKey, alice, types.DidKeyRef{Did: alice, ID: 5}, alice),
			errkind.PublicKeyDoesntExist))
		require.True(t, errors.Is(remove(aliceKey, alice, types.DidKeyRef{Did: bob, ID: 2}, alice),
			errkind.NotOwner))
		require.NoError(t, remove(aliceKey, alice, types.DidKeyRef{Did: alice, ID: 2}, alice))

		got, _ := keyWithParams(alice, 2)
		require.Nil(t, got)
	})

	t.Run("did removal drops keys", func(t *testing.T) {
		a := &action.DidRemoval{Did: bob, Nonce: next(bob)}
		sig := registrytest.DidSig(bobKey, bob, 1, a)
		require.NoError(t, registrytest.Exec(r, func(ctx *runtime.Context) error {
			return dids.RemoveOnchainDid(ctx, a, sig)
		}))

		var keys []offchain.PublicKeyWithID

		require.NoError(t, r.Query(func(ctx *runtime.Context) error {
			var err error

			keys, err = m.DidPublicKeys(ctx.Tx(), bob)

			return err
		}))
		require.Empty(t, keys)
	})
}
