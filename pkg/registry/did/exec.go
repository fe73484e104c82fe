/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package did

import (
	"fmt"

	"github.com/hyperledger/aries-did-registry/pkg/registry/action"
	"github.com/hyperledger/aries-did-registry/pkg/registry/errkind"
	"github.com/hyperledger/aries-did-registry/pkg/registry/nonce"
	"github.com/hyperledger/aries-did-registry/pkg/registry/runtime"
	"github.com/hyperledger/aries-did-registry/pkg/registry/store"
	"github.com/hyperledger/aries-did-registry/pkg/registry/types"
)

// ControllerAction is a signed action modifying an on-chain DID.
type ControllerAction interface {
	action.ActionWithNonce
	Target() types.Did
}

// ControllerFunc applies a controller action to the details of its target. Setting *details to nil
// removes the DID record.
type ControllerFunc[A ControllerAction] func(ctx *runtime.Context, a A, details **OnChainDidDetails) error

// OwnerFunc applies an owner-signed action on behalf of its verified signer.
type OwnerFunc[A action.ActionWithNonce] func(ctx *runtime.Context, a A, owner types.DidOrDidMethodKey) error

// DidFunc applies an action signed by an on-chain DID.
type DidFunc[A action.ActionWithNonce] func(ctx *runtime.Context, a A, signer types.Did) error

// ExecuteAsController authorizes a by a controller of its target and runs f over the target's details.
// When the target signs for itself its nonce advances together with f's changes. Otherwise the signer's
// nonce advances and the target's nonce is kept.
func ExecuteAsController[A ControllerAction](ctx *runtime.Context, m *Module, a A, sig *Signature,
	f ControllerFunc[A]) error {
	if _, err := ctx.EnsureSigned(); err != nil {
		return err
	}

	if a.Len() == 0 {
		return errkind.EmptyPayload
	}

	tx := ctx.Tx()

	controller, ok := sig.Signer.AsDid()
	if !ok {
		return fmt.Errorf("%w: controllers sign with a DID key", errkind.InvalidSigner)
	}

	pk, err := m.SignerKey(tx, sig, RequireControl)
	if err != nil {
		return err
	}

	target := a.Target()

	isController, err := m.IsController(tx, target, controller)
	if err != nil {
		return err
	}

	if !isController {
		return fmt.Errorf("%w: %s is not a controller of %s", errkind.OnlyControllerCanUpdate, controller, target)
	}

	if err = verify(sig, pk, action.Encode(a)); err != nil {
		return err
	}

	if controller == target {
		details, err := m.OnChainDid(tx, target)
		if err != nil {
			return err
		}

		updated, _, err := nonce.UpdateOptWith(details, a.ActionNonce(), func(data **OnChainDidDetails) error {
			return f(ctx, a, data)
		})
		if err != nil {
			return err
		}

		if updated == nil {
			tx.Delete(store.Dids, target.String())
		} else {
			m.saveOnChain(tx, target, updated)
		}

		return nil
	}

	if err = m.AdvanceNonce(tx, sig.Signer, a.ActionNonce()); err != nil {
		return err
	}

	details, err := m.OnChainDid(tx, target)
	if err != nil {
		return err
	}

	data := details.Data
	ptr := &data

	if err = f(ctx, a, &ptr); err != nil {
		return err
	}

	if ptr == nil {
		tx.Delete(store.Dids, target.String())
	} else {
		m.saveOnChain(tx, target, nonce.New(details.Nonce, *ptr))
	}

	return nil
}

// ExecuteAsOwner authorizes a by a DID key able to authenticate or control, or by a DID method key,
// advances the signer's nonce and runs f on behalf of the signer.
func ExecuteAsOwner[A action.ActionWithNonce](ctx *runtime.Context, m *Module, a A, sig *Signature,
	f OwnerFunc[A]) error {
	if err := m.authorizeSigner(ctx, a, sig); err != nil {
		return err
	}

	return f(ctx, a, sig.Signer)
}

// ExecuteAsDid is ExecuteAsOwner restricted to on-chain DID signers.
func ExecuteAsDid[A action.ActionWithNonce](ctx *runtime.Context, m *Module, a A, sig *Signature,
	f DidFunc[A]) error {
	signer, ok := sig.Signer.AsDid()
	if !ok {
		return fmt.Errorf("%w: expected a DID signer", errkind.InvalidSigner)
	}

	if err := m.authorizeSigner(ctx, a, sig); err != nil {
		return err
	}

	return f(ctx, a, signer)
}

func (m *Module) authorizeSigner(ctx *runtime.Context, a action.ActionWithNonce, sig *Signature) error {
	if _, err := ctx.EnsureSigned(); err != nil {
		return err
	}

	if a.Len() == 0 {
		return errkind.EmptyPayload
	}

	tx := ctx.Tx()

	if err := m.VerifySignature(tx, sig, RequireAuthOrControl, action.Encode(a)); err != nil {
		return err
	}

	return m.AdvanceNonce(tx, sig.Signer, a.ActionNonce())
}

// IsController reports whether controller may update controlled.
func (m *Module) IsController(tx *store.Tx, controlled, controller types.Did) (bool, error) {
	return tx.Has(store.DidControllers, controllerKey(controlled, controller))
}
