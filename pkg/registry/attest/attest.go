/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package attest publishes attestation claims of on-chain DIDs. Each attester holds one attestation
// which can only be replaced by one of higher priority.
package attest

import (
	"fmt"

	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/hyperledger/aries-did-registry/pkg/registry/action"
	"github.com/hyperledger/aries-did-registry/pkg/registry/did"
	"github.com/hyperledger/aries-did-registry/pkg/registry/errkind"
	"github.com/hyperledger/aries-did-registry/pkg/registry/event"
	"github.com/hyperledger/aries-did-registry/pkg/registry/runtime"
	"github.com/hyperledger/aries-did-registry/pkg/registry/store"
	"github.com/hyperledger/aries-did-registry/pkg/registry/types"
)

// ModuleName is the module of the events deposited by this package.
const ModuleName = "attest"

// AttestationSet is deposited when an attester replaces its attestation.
const AttestationSet = "AttestationSet"

var logger = log.New("aries-registry/attest")

// Module is the attestation store.
type Module struct {
	dids *did.Module
}

// New returns the attestation store authorizing attesters through dids. The store also serves the
// attestation part of DID details.
func New(dids *did.Module) *Module {
	m := &Module{dids: dids}
	dids.SetAttestationReader(m.Attestation)

	return m
}

// Attestation returns the attestation of attester, nil when it never attested.
func (m *Module) Attestation(tx *store.Tx, attester types.Did) (*types.Attestation, error) {
	var a types.Attestation

	found, err := tx.Load(store.Attestations, attester.String(), &a)
	if err != nil || !found {
		return nil, err
	}

	return &a, nil
}

// SetClaim replaces the attestation of the signing DID.
func (m *Module) SetClaim(ctx *runtime.Context, a *action.SetAttestationClaim, sig *did.Signature) error {
	if a.Attest.Iri != nil {
		if err := types.CheckSize("iri", len(*a.Attest.Iri), ctx.Limits().MaxIriSize); err != nil {
			return err
		}
	}

	return did.ExecuteAsDid(ctx, m.dids, a, sig, m.setClaim)
}

func (m *Module) setClaim(ctx *runtime.Context, a *action.SetAttestationClaim, attester types.Did) error {
	tx := ctx.Tx()

	current, err := m.Attestation(tx, attester)
	if err != nil {
		return err
	}

	var priority uint64
	if current != nil {
		priority = current.Priority
	}

	if a.Attest.Priority <= priority {
		return fmt.Errorf("%w: %d, current %d", errkind.PriorityTooLow, a.Attest.Priority, priority)
	}

	tx.Save(store.Attestations, attester.String(), &a.Attest)

	ctx.Deposit(event.New(ModuleName, AttestationSet, struct {
		Attester types.Did `json:"attester"`
	}{attester}, event.Topic(attester[:])))
	logger.Debugf("attestation of %s set with priority %d", attester, a.Attest.Priority)

	return nil
}
