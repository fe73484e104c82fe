/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package did

import (
	"github.com/hyperledger/aries-did-registry/pkg/registry/store"
	"github.com/hyperledger/aries-did-registry/pkg/registry/types"
)

// DetailsParams selects the parts of an aggregated details response.
type DetailsParams uint8

// Details selectors. Basic details are always returned.
const (
	DetailsBasic            DetailsParams = 0
	DetailsKeys             DetailsParams = 0b0001
	DetailsControllers      DetailsParams = 0b0010
	DetailsServiceEndpoints DetailsParams = 0b0100
	DetailsAttestation      DetailsParams = 0b1000
	DetailsFull             DetailsParams = 0b1111
)

// Has reports whether any bit of part is selected.
func (p DetailsParams) Has(part DetailsParams) bool {
	return p&part != 0
}

// AggregatedDetails is a DID with the requested parts of its state.
type AggregatedDetails struct {
	Did              types.Did               `json:"did"`
	Details          StoredDidDetails        `json:"details"`
	Keys             []KeyWithID             `json:"keys,omitempty"`
	Controllers      []types.Did             `json:"controllers,omitempty"`
	ServiceEndpoints []ServiceEndpointWithID `json:"serviceEndpoints,omitempty"`
	Attestation      *types.Attestation      `json:"attestation,omitempty"`
}

// Details assembles the parts of did selected by params. It returns nil when did does not exist.
func (m *Module) Details(tx *store.Tx, did types.Did, params DetailsParams) (*AggregatedDetails, error) {
	details, err := m.Did(tx, did)
	if err != nil || details == nil {
		return nil, err
	}

	out := &AggregatedDetails{Did: did, Details: *details}

	if params.Has(DetailsKeys) {
		if out.Keys, err = m.Keys(tx, did); err != nil {
			return nil, err
		}
	}

	if params.Has(DetailsControllers) {
		if out.Controllers, err = m.Controllers(tx, did); err != nil {
			return nil, err
		}
	}

	if params.Has(DetailsServiceEndpoints) {
		if out.ServiceEndpoints, err = m.ServiceEndpoints(tx, did); err != nil {
			return nil, err
		}
	}

	if params.Has(DetailsAttestation) && m.attestations != nil {
		if out.Attestation, err = m.attestations(tx, did); err != nil {
			return nil, err
		}
	}

	return out, nil
}
