/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package accumulator_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-did-registry/internal/registrytest"
	"github.com/hyperledger/aries-did-registry/pkg/registry/accumulator"
	"github.com/hyperledger/aries-did-registry/pkg/registry/action"
	"github.com/hyperledger/aries-did-registry/pkg/registry/did"
	"github.com/hyperledger/aries-did-registry/pkg/registry/errkind"
	"github.com/hyperledger/aries-did-registry/pkg/registry/runtime"
	"github.com/hyperledger/aries-did-registry/pkg/registry/types"
)

type fixture struct {
	r     *runtime.Runtime
	clock *runtime.ManualClock
	dids  *did.Module
	m     *accumulator.Module
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	r, clock := registrytest.NewRuntime(t)
	dids := did.New()

	return &fixture{r: r, clock: clock, dids: dids, m: accumulator.New(dids)}
}

func (f *fixture) next(t *testing.T, signer types.Did) types.BlockNumber {
	t.Helper()

	return registrytest.Nonce(t, f.r, f.dids, types.FromDid(signer)) + 1
}

func (f *fixture) exec(fn func(ctx *runtime.Context) error) error {
	return registrytest.Exec(f.r, fn)
}

func (f *fixture) counters(t *testing.T, owner types.Did) *types.OwnerCounters {
	t.Helper()

	var c *types.OwnerCounters

	require.NoError(t, f.r.Query(func(ctx *runtime.Context) error {
		var err error

		c, err = f.m.Counters(ctx.Tx(), types.FromDid(owner))

		return err
	}))

	return c
}

func (f *fixture) stored(t *testing.T, id types.AccumulatorID) *types.StoredAccumulator {
	t.Helper()

	var a *types.StoredAccumulator

	require.NoError(t, f.r.Query(func(ctx *runtime.Context) error {
		var err error

		a, err = f.m.Accumulator(ctx.Tx(), id)

		return err
	}))

	return a
}

func TestAccumulatorLifecycle(t *testing.T) {
	f := newFixture(t)

	alice, aliceKey := registrytest.Did(1), registrytest.NewEd25519(t)
	bob, bobKey := registrytest.Did(2), registrytest.NewEd25519(t)
	registrytest.NewDid(t, f.r, f.dids, alice, aliceKey)
	registrytest.NewDid(t, f.r, f.dids, bob, bobKey)

	owner := types.FromDid(alice)
	id := registrytest.ID32[types.AccumulatorID](3)

	t.Run("params", func(t *testing.T) {
		a := &action.AddAccumulatorParams{
			Params: types.AccumulatorParams{Curve: types.Bls12381, Bytes: types.Bytes{1, 2}},
			Nonce:  f.next(t, alice),
		}
		sig := registrytest.DidSig(aliceKey, alice, 1, a)

		require.NoError(t, f.exec(func(ctx *runtime.Context) error { return f.m.AddParams(ctx, a, sig) }))
		require.Equal(t, types.IncID(1), f.counters(t, alice).ParamsCounter)
	})

	t.Run("public key with missing params", func(t *testing.T) {
		a := &action.AddAccumulatorPublicKey{
			PublicKey: types.AccumulatorPublicKey{
				Curve: types.Bls12381, Bytes: types.Bytes{3},
				ParamsRef: &types.OwnerRef{Owner: owner, ID: 7},
			},
			Nonce: f.next(t, alice),
		}
		sig := registrytest.DidSig(aliceKey, alice, 1, a)

		err := f.exec(func(ctx *runtime.Context) error { return f.m.AddPublicKey(ctx, a, sig) })
		require.True(t, errors.Is(err, errkind.ParamsDontExist))
		require.Equal(t, types.IncID(0), f.counters(t, alice).KeyCounter)
	})

	t.Run("public key", func(t *testing.T) {
		a := &action.AddAccumulatorPublicKey{
			PublicKey: types.AccumulatorPublicKey{
				Curve: types.Bls12381, Bytes: types.Bytes{3},
				ParamsRef: &types.OwnerRef{Owner: owner, ID: 1},
			},
			Nonce: f.next(t, alice),
		}
		sig := registrytest.DidSig(aliceKey, alice, 1, a)

		require.NoError(t, f.exec(func(ctx *runtime.Context) error { return f.m.AddPublicKey(ctx, a, sig) }))

		c := f.counters(t, alice)
		require.Equal(t, types.IncID(1), c.ParamsCounter)
		require.Equal(t, types.IncID(1), c.KeyCounter)
	})

	t.Run("add accumulator", func(t *testing.T) {
		a := &action.AddAccumulator{
			ID: id,
			Accumulator: types.Accumulator{
				Type: types.Universal, Accumulated: types.Bytes{5}, KeyRef: types.OwnerRef{Owner: owner, ID: 1}, MaxSize: 100,
			},
			Nonce: f.next(t, alice),
		}
		sig := registrytest.DidSig(aliceKey, alice, 1, a)

		require.NoError(t, f.exec(func(ctx *runtime.Context) error { return f.m.AddAccumulator(ctx, a, sig) }))

		got := f.stored(t, id)
		require.NotNil(t, got)
		require.Equal(t, registrytest.StartBlock, got.CreatedAt)
		require.Equal(t, got.CreatedAt, got.LastUpdatedAt)
		require.Equal(t, uint64(100), got.Accumulator.MaxSize)

		again := &action.AddAccumulator{ID: id, Accumulator: a.Accumulator, Nonce: f.next(t, alice)}
		sig = registrytest.DidSig(aliceKey, alice, 1, again)

		err := f.exec(func(ctx *runtime.Context) error { return f.m.AddAccumulator(ctx, again, sig) })
		require.True(t, errors.Is(err, errkind.AccumulatorAlreadyExists))
	})

	t.Run("key of another owner", func(t *testing.T) {
		a := &action.AddAccumulator{
			ID: registrytest.ID32[types.AccumulatorID](4),
			Accumulator: types.Accumulator{
				Type: types.Positive, Accumulated: types.Bytes{5}, KeyRef: types.OwnerRef{Owner: owner, ID: 1},
			},
			Nonce: f.next(t, bob),
		}
		sig := registrytest.DidSig(bobKey, bob, 1, a)

		err := f.exec(func(ctx *runtime.Context) error { return f.m.AddAccumulator(ctx, a, sig) })
		require.True(t, errors.Is(err, errkind.NotPublicKeyOwner))
	})

	t.Run("keyless accumulator", func(t *testing.T) {
		a := &action.AddAccumulator{
			ID: registrytest.ID32[types.AccumulatorID](5),
			Accumulator: types.Accumulator{
				Type: types.KBUniversal, Accumulated: types.Bytes{5}, KeyRef: types.OwnerRef{Owner: types.FromDid(bob)},
			},
			Nonce: f.next(t, bob),
		}
		sig := registrytest.DidSig(bobKey, bob, 1, a)

		require.NoError(t, f.exec(func(ctx *runtime.Context) error { return f.m.AddAccumulator(ctx, a, sig) }))

		var got *accumulator.WithPublicKeyAndParams

		require.NoError(t, f.r.Query(func(ctx *runtime.Context) error {
			var err error

			got, err = f.m.AccumulatorWithPublicKeyAndParams(ctx.Tx(), a.ID)

			return err
		}))
		require.Equal(t, types.Bytes{5}, got.Accumulated)
		require.Nil(t, got.PublicKey)
	})

	t.Run("accumulated too big", func(t *testing.T) {
		a := &action.AddAccumulator{
			ID: registrytest.ID32[types.AccumulatorID](6),
			Accumulator: types.Accumulator{
				Type: types.Positive, Accumulated: bytes.Repeat([]byte{1}, 129), KeyRef: types.OwnerRef{Owner: owner, ID: 1},
			},
			Nonce: f.next(t, alice),
		}
		sig := registrytest.DidSig(aliceKey, alice, 1, a)

		err := f.exec(func(ctx *runtime.Context) error { return f.m.AddAccumulator(ctx, a, sig) })
		require.True(t, errors.Is(err, errkind.AccumulatedTooBig))
	})

	t.Run("update by another DID", func(t *testing.T) {
		a := &action.UpdateAccumulator{ID: id, NewAccumulated: types.Bytes{6}, Nonce: f.next(t, bob)}
		sig := registrytest.DidSig(bobKey, bob, 1, a)

		err := f.exec(func(ctx *runtime.Context) error { return f.m.UpdateAccumulator(ctx, a, sig) })
		require.True(t, errors.Is(err, errkind.NotAccumulatorOwner))
	})

	t.Run("update by owner", func(t *testing.T) {
		block := f.clock.Advance(5)

		a := &action.UpdateAccumulator{
			ID: id, NewAccumulated: types.Bytes{6},
			Additions: []types.Bytes{{1}}, Removals: []types.Bytes{{2}},
			Nonce: f.next(t, alice),
		}
		sig := registrytest.DidSig(aliceKey, alice, 1, a)

		require.NoError(t, f.exec(func(ctx *runtime.Context) error { return f.m.UpdateAccumulator(ctx, a, sig) }))

		got := f.stored(t, id)
		require.Equal(t, types.Bytes{6}, got.Accumulator.Accumulated)
		require.Equal(t, block, got.LastUpdatedAt)
		require.Equal(t, registrytest.StartBlock, got.CreatedAt)
	})

	t.Run("update missing", func(t *testing.T) {
		a := &action.UpdateAccumulator{
			ID: registrytest.ID32[types.AccumulatorID](9), NewAccumulated: types.Bytes{6}, Nonce: f.next(t, alice),
		}
		sig := registrytest.DidSig(aliceKey, alice, 1, a)

		err := f.exec(func(ctx *runtime.Context) error { return f.m.UpdateAccumulator(ctx, a, sig) })
		require.True(t, errors.Is(err, errkind.AccumulatorDoesntExist))
	})

	t.Run("remove params of another owner", func(t *testing.T) {
		a := &action.RemoveAccumulatorParams{ParamsRef: types.OwnerRef{Owner: owner, ID: 1}, Nonce: f.next(t, bob)}
		sig := registrytest.DidSig(bobKey, bob, 1, a)

		err := f.exec(func(ctx *runtime.Context) error { return f.m.RemoveParams(ctx, a, sig) })
		require.True(t, errors.Is(err, errkind.NotParamsOwner))
	})

	t.Run("remove params keeps key", func(t *testing.T) {
		a := &action.RemoveAccumulatorParams{ParamsRef: types.OwnerRef{Owner: owner, ID: 1}, Nonce: f.next(t, alice)}
		sig := registrytest.DidSig(aliceKey, alice, 1, a)

		require.NoError(t, f.exec(func(ctx *runtime.Context) error { return f.m.RemoveParams(ctx, a, sig) }))

		var pk *accumulator.PublicKeyWithParams

		require.NoError(t, f.r.Query(func(ctx *runtime.Context) error {
			var err error

			pk, err = f.m.PublicKeyWithParams(ctx.Tx(), types.OwnerRef{Owner: owner, ID: 1})

			return err
		}))
		require.NotNil(t, pk)
		require.Nil(t, pk.Params)
	})

	t.Run("remove public key", func(t *testing.T) {
		a := &action.RemoveAccumulatorPublicKey{KeyRef: types.OwnerRef{Owner: owner, ID: 1}, Nonce: f.next(t, alice)}
		sig := registrytest.DidSig(aliceKey, alice, 1, a)

		require.NoError(t, f.exec(func(ctx *runtime.Context) error { return f.m.RemovePublicKey(ctx, a, sig) }))

		again := &action.RemoveAccumulatorPublicKey{KeyRef: a.KeyRef, Nonce: f.next(t, alice)}
		sig = registrytest.DidSig(aliceKey, alice, 1, again)

		err := f.exec(func(ctx *runtime.Context) error { return f.m.RemovePublicKey(ctx, again, sig) })
		require.True(t, errors.Is(err, errkind.PublicKeyDoesntExist))
	})

	t.Run("remove accumulator", func(t *testing.T) {
		byBob := &action.RemoveAccumulator{ID: id, Nonce: f.next(t, bob)}
		sig := registrytest.DidSig(bobKey, bob, 1, byBob)

		err := f.exec(func(ctx *runtime.Context) error { return f.m.RemoveAccumulator(ctx, byBob, sig) })
		require.True(t, errors.Is(err, errkind.NotAccumulatorOwner))

		a := &action.RemoveAccumulator{ID: id, Nonce: f.next(t, alice)}
		sig = registrytest.DidSig(aliceKey, alice, 1, a)

		require.NoError(t, f.exec(func(ctx *runtime.Context) error { return f.m.RemoveAccumulator(ctx, a, sig) }))
		require.Nil(t, f.stored(t, id))
	})
}
