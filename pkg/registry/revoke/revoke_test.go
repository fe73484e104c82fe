/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package revoke_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-did-registry/internal/registrytest"
	"github.com/hyperledger/aries-did-registry/pkg/registry/action"
	"github.com/hyperledger/aries-did-registry/pkg/registry/did"
	"github.com/hyperledger/aries-did-registry/pkg/registry/errkind"
	"github.com/hyperledger/aries-did-registry/pkg/registry/event"
	"github.com/hyperledger/aries-did-registry/pkg/registry/policy"
	"github.com/hyperledger/aries-did-registry/pkg/registry/revoke"
	"github.com/hyperledger/aries-did-registry/pkg/registry/runtime"
	"github.com/hyperledger/aries-did-registry/pkg/registry/types"
)

type fixture struct {
	r      *runtime.Runtime
	dids   *did.Module
	m      *revoke.Module
	ids    []types.Did
	keys   []*registrytest.Ed25519Signer
	policy policy.Policy
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	r, _ := registrytest.NewRuntime(t)
	dids := did.New()
	f := &fixture{r: r, dids: dids, m: revoke.New(dids)}

	for i := byte(1); i <= 3; i++ {
		d, s := registrytest.Did(i), registrytest.NewEd25519(t)
		registrytest.NewDid(t, r, dids, d, s)

		f.ids = append(f.ids, d)
		f.keys = append(f.keys, s)
	}

	f.policy = policy.OneOfDids(f.ids...)

	return f
}

func (f *fixture) proof(t *testing.T, i int, a action.Action) policy.Proof {
	t.Helper()

	n := registrytest.Nonce(t, f.r, f.dids, types.FromDid(f.ids[i])) + 1

	return policy.Proof{registrytest.ProofSig(f.keys[i], f.ids[i], 1, a, n)}
}

func (f *fixture) exec(fn func(ctx *runtime.Context) error) ([]event.Event, error) {
	return f.r.Execute(runtime.Signed(registrytest.Account), fn)
}

func (f *fixture) newRegistry(t *testing.T, id types.RegistryID, addOnly bool) {
	t.Helper()

	_, err := f.exec(func(ctx *runtime.Context) error {
		return f.m.NewRegistry(ctx, id, revoke.Registry{Policy: f.policy, AddOnly: addOnly})
	})
	require.NoError(t, err)
}

func (f *fixture) revoked(t *testing.T, reg types.RegistryID, id types.RevokeID) bool {
	t.Helper()

	var ok bool

	require.NoError(t, f.r.Query(func(ctx *runtime.Context) error {
		var err error

		ok, err = f.m.IsRevoked(ctx.Tx(), reg, id)

		return err
	}))

	return ok
}

func (f *fixture) registry(t *testing.T, id types.RegistryID) *revoke.Registry {
	t.Helper()

	var reg *revoke.Registry

	require.NoError(t, f.r.Query(func(ctx *runtime.Context) error {
		var err error

		reg, err = f.m.Registry(ctx.Tx(), id)

		return err
	}))

	return reg
}

func TestNewRegistry(t *testing.T) {
	f := newFixture(t)
	id := registrytest.ID32[types.RegistryID](2)

	t.Run("create", func(t *testing.T) {
		evs, err := f.exec(func(ctx *runtime.Context) error {
			return f.m.NewRegistry(ctx, id, revoke.Registry{Policy: f.policy})
		})
		require.NoError(t, err)
		require.Len(t, evs, 1)
		require.Equal(t, revoke.RegistryAdded, evs[0].Name)
		require.Equal(t, []string{event.Topic(id[:])}, evs[0].Topics)

		reg := f.registry(t, id)
		require.NotNil(t, reg)
		require.False(t, reg.AddOnly)
		require.Equal(t, f.policy.Members(), reg.Policy.Controllers)
	})

	t.Run("exists", func(t *testing.T) {
		_, err := f.exec(func(ctx *runtime.Context) error {
			return f.m.NewRegistry(ctx, id, revoke.Registry{Policy: f.policy})
		})
		require.True(t, errors.Is(err, errkind.RegistryExists))
	})

	t.Run("empty policy", func(t *testing.T) {
		_, err := f.exec(func(ctx *runtime.Context) error {
			return f.m.NewRegistry(ctx, registrytest.ID32[types.RegistryID](3), revoke.Registry{Policy: policy.OneOfDids()})
		})
		require.True(t, errors.Is(err, errkind.EmptyPolicy))
	})

	t.Run("root origin", func(t *testing.T) {
		_, err := f.r.Execute(runtime.Root(), func(ctx *runtime.Context) error {
			return f.m.NewRegistry(ctx, registrytest.ID32[types.RegistryID](4), revoke.Registry{Policy: f.policy})
		})
		require.True(t, errors.Is(err, errkind.BadOrigin))
	})

	t.Run("absent", func(t *testing.T) {
		require.Nil(t, f.registry(t, registrytest.ID32[types.RegistryID](9)))
	})
}

func TestRevokeUnrevoke(t *testing.T) {
	f := newFixture(t)
	reg := registrytest.ID32[types.RegistryID](2)
	id10, id11 := registrytest.ID32[types.RevokeID](0x10), registrytest.ID32[types.RevokeID](0x11)

	f.newRegistry(t, reg, false)

	t.Run("revoke signed by one member", func(t *testing.T) {
		a := &action.Revoke{RegistryID: reg, RevokeIDs: []types.RevokeID{id11, id10, id10}}
		proof := f.proof(t, 0, a)

		evs, err := f.exec(func(ctx *runtime.Context) error {
			return f.m.Revoke(ctx, a, proof)
		})
		require.NoError(t, err)
		require.Len(t, evs, 1)
		require.Equal(t, revoke.RevokedIn, evs[0].Name)

		require.True(t, f.revoked(t, reg, id10))
		require.True(t, f.revoked(t, reg, id11))
	})

	t.Run("revoke again is accepted", func(t *testing.T) {
		a := &action.Revoke{RegistryID: reg, RevokeIDs: []types.RevokeID{id10}}
		proof := f.proof(t, 2, a)

		_, err := f.exec(func(ctx *runtime.Context) error {
			return f.m.Revoke(ctx, a, proof)
		})
		require.NoError(t, err)
	})

	t.Run("unrevoke signed by another member", func(t *testing.T) {
		a := &action.UnRevoke{RegistryID: reg, RevokeIDs: []types.RevokeID{id10}}
		proof := f.proof(t, 1, a)

		evs, err := f.exec(func(ctx *runtime.Context) error {
			return f.m.UnRevoke(ctx, a, proof)
		})
		require.NoError(t, err)
		require.Equal(t, revoke.UnrevokedIn, evs[0].Name)

		require.False(t, f.revoked(t, reg, id10))
		require.True(t, f.revoked(t, reg, id11))
	})

	t.Run("empty payload", func(t *testing.T) {
		a := &action.Revoke{RegistryID: reg}
		proof := f.proof(t, 0, a)

		_, err := f.exec(func(ctx *runtime.Context) error {
			return f.m.Revoke(ctx, a, proof)
		})
		require.True(t, errors.Is(err, errkind.EmptyPayload))
	})

	t.Run("unknown registry", func(t *testing.T) {
		a := &action.Revoke{RegistryID: registrytest.ID32[types.RegistryID](9), RevokeIDs: []types.RevokeID{id10}}
		proof := f.proof(t, 0, a)

		_, err := f.exec(func(ctx *runtime.Context) error {
			return f.m.Revoke(ctx, a, proof)
		})
		require.True(t, errors.Is(err, errkind.RegistryDoesntExist))
	})

	t.Run("signer outside policy", func(t *testing.T) {
		outsider, key := registrytest.Did(7), registrytest.NewEd25519(t)
		registrytest.NewDid(t, f.r, f.dids, outsider, key)

		a := &action.Revoke{RegistryID: reg, RevokeIDs: []types.RevokeID{id10}}
		n := registrytest.Nonce(t, f.r, f.dids, types.FromDid(outsider)) + 1

		_, err := f.exec(func(ctx *runtime.Context) error {
			return f.m.Revoke(ctx, a, policy.Proof{registrytest.ProofSig(key, outsider, 1, a, n)})
		})
		require.True(t, errors.Is(err, errkind.NotAuthorized))
		require.False(t, f.revoked(t, reg, id10))
	})

	t.Run("replayed proof", func(t *testing.T) {
		a := &action.Revoke{RegistryID: reg, RevokeIDs: []types.RevokeID{id10}}
		proof := f.proof(t, 0, a)

		_, err := f.exec(func(ctx *runtime.Context) error { return f.m.Revoke(ctx, a, proof) })
		require.NoError(t, err)

		_, err = f.exec(func(ctx *runtime.Context) error { return f.m.Revoke(ctx, a, proof) })
		require.True(t, errors.Is(err, errkind.IncorrectNonce))
	})
}

func TestRemoveRegistry(t *testing.T) {
	f := newFixture(t)
	reg := registrytest.ID32[types.RegistryID](2)
	id := registrytest.ID32[types.RevokeID](0x10)

	f.newRegistry(t, reg, false)

	revokeAction := &action.Revoke{RegistryID: reg, RevokeIDs: []types.RevokeID{id}}
	proof := f.proof(t, 0, revokeAction)

	_, err := f.exec(func(ctx *runtime.Context) error {
		return f.m.Revoke(ctx, revokeAction, proof)
	})
	require.NoError(t, err)

	a := &action.RemoveRegistry{RegistryID: reg}
	removeProof := f.proof(t, 0, a)

	evs, err := f.exec(func(ctx *runtime.Context) error {
		return f.m.RemoveRegistry(ctx, a, removeProof)
	})
	require.NoError(t, err)
	require.Equal(t, revoke.RegistryRemoved, evs[0].Name)
	require.Nil(t, f.registry(t, reg))
	require.False(t, f.revoked(t, reg, id))

	t.Run("recreated registry starts empty", func(t *testing.T) {
		f.newRegistry(t, reg, false)
		require.False(t, f.revoked(t, reg, id))
	})
}

func TestAddOnly(t *testing.T) {
	f := newFixture(t)
	reg := registrytest.ID32[types.RegistryID](2)
	id := registrytest.ID32[types.RevokeID](0x10)

	f.newRegistry(t, reg, true)

	revokeAction := &action.Revoke{RegistryID: reg, RevokeIDs: []types.RevokeID{id}}
	proof := f.proof(t, 0, revokeAction)

	_, err := f.exec(func(ctx *runtime.Context) error {
		return f.m.Revoke(ctx, revokeAction, proof)
	})
	require.NoError(t, err)

	t.Run("unrevoke", func(t *testing.T) {
		a := &action.UnRevoke{RegistryID: reg, RevokeIDs: []types.RevokeID{id}}
		nonce := registrytest.Nonce(t, f.r, f.dids, types.FromDid(f.ids[0]))
		proof := f.proof(t, 0, a)

		_, err := f.exec(func(ctx *runtime.Context) error {
			return f.m.UnRevoke(ctx, a, proof)
		})
		require.True(t, errors.Is(err, errkind.AddOnly))
		require.True(t, f.revoked(t, reg, id))
		require.Equal(t, nonce, registrytest.Nonce(t, f.r, f.dids, types.FromDid(f.ids[0])))
	})

	t.Run("remove registry", func(t *testing.T) {
		a := &action.RemoveRegistry{RegistryID: reg}
		proof := f.proof(t, 0, a)

		_, err := f.exec(func(ctx *runtime.Context) error {
			return f.m.RemoveRegistry(ctx, a, proof)
		})
		require.True(t, errors.Is(err, errkind.AddOnly))
		require.NotNil(t, f.registry(t, reg))
	})
}
