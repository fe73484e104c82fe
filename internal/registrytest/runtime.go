/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package registrytest

import (
	"testing"

	"github.com/hyperledger/aries-framework-go/component/storageutil/mem"
	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-did-registry/pkg/registry/action"
	"github.com/hyperledger/aries-did-registry/pkg/registry/did"
	"github.com/hyperledger/aries-did-registry/pkg/registry/keys"
	"github.com/hyperledger/aries-did-registry/pkg/registry/runtime"
	"github.com/hyperledger/aries-did-registry/pkg/registry/store"
	"github.com/hyperledger/aries-did-registry/pkg/registry/types"
)

// Account is the origin account used by tests.
const Account types.AccountID = "5Alice"

// StartBlock is the block a new test runtime starts at.
const StartBlock types.BlockNumber = 10

// NewRuntime returns a runtime over in-memory storage starting at StartBlock.
func NewRuntime(t testing.TB, opts ...runtime.Opt) (*runtime.Runtime, *runtime.ManualClock) {
	t.Helper()

	s, err := store.New(mem.NewProvider())
	require.NoError(t, err)

	clock := runtime.NewManualClock(StartBlock)

	return runtime.New(s, clock, opts...), clock
}

// Exec runs fn as Account.
func Exec(r *runtime.Runtime, fn func(ctx *runtime.Context) error) error {
	_, err := r.Execute(runtime.Signed(Account), fn)

	return err
}

// DidSig signs the canonical encoding of a with key keyID of d.
func DidSig(s Signer, d types.Did, keyID types.IncID, a action.Action) *did.Signature {
	sig := did.NewDidSignature(d, keyID, s.Sign(action.Encode(a)))

	return &sig
}

// MethodKeySigner is a signer usable as a DID method key.
type MethodKeySigner interface {
	Signer
	DidMethodKey() types.DidMethodKey
}

// DidMethodKeySig signs the canonical encoding of a with a DID method key.
func DidMethodKeySig(s MethodKeySigner, a action.Action) *did.Signature {
	sig := did.NewDidMethodKeySignature(s.DidMethodKey(), s.Sign(action.Encode(a)))

	return &sig
}

// NewDid registers d on-chain with s as its only key, holding every signing relationship.
func NewDid(t testing.TB, r *runtime.Runtime, m *did.Module, d types.Did, s Signer) {
	t.Helper()

	require.NoError(t, Exec(r, func(ctx *runtime.Context) error {
		return m.NewOnchain(ctx, d, []keys.UncheckedDidKey{{PublicKey: s.PublicKey()}}, nil)
	}))
}

// Nonce returns the current nonce of signer.
func Nonce(t testing.TB, r *runtime.Runtime, m *did.Module, signer types.DidOrDidMethodKey) types.BlockNumber {
	t.Helper()

	var n types.BlockNumber

	require.NoError(t, r.Query(func(ctx *runtime.Context) error {
		var err error

		n, err = m.Nonce(ctx.Tx(), signer)

		return err
	}))

	return n
}

// ProofSig signs the raw action a together with nonce using key keyID of d.
func ProofSig(s Signer, d types.Did, keyID types.IncID, a action.Action, n types.BlockNumber) did.SignatureWithNonce {
	return did.SignatureWithNonce{
		Sig:   did.NewDidSignature(d, keyID, s.Sign(action.EncodeWithNonce(a, n))),
		Nonce: n,
	}
}

// MethodKeyProofSig signs the raw action a together with nonce using a DID method key.
func MethodKeyProofSig(s MethodKeySigner, a action.Action, n types.BlockNumber) did.SignatureWithNonce {
	return did.SignatureWithNonce{
		Sig:   did.NewDidMethodKeySignature(s.DidMethodKey(), s.Sign(action.EncodeWithNonce(a, n))),
		Nonce: n,
	}
}
