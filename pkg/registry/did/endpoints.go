/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package did

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/hyperledger/aries-did-registry/pkg/registry/action"
	"github.com/hyperledger/aries-did-registry/pkg/registry/errkind"
	"github.com/hyperledger/aries-did-registry/pkg/registry/runtime"
	"github.com/hyperledger/aries-did-registry/pkg/registry/scale"
	"github.com/hyperledger/aries-did-registry/pkg/registry/store"
	"github.com/hyperledger/aries-did-registry/pkg/registry/types"
)

// Events deposited by service endpoint changes.
const (
	DidServiceEndpointAdded   = "DidServiceEndpointAdded"
	DidServiceEndpointRemoved = "DidServiceEndpointRemoved"
)

// ServiceEndpointWithID is a service endpoint together with its id.
type ServiceEndpointWithID struct {
	ID       types.Bytes           `json:"id"`
	Endpoint types.ServiceEndpoint `json:"endpoint"`
}

// EncodeTo writes the id and the endpoint.
func (s *ServiceEndpointWithID) EncodeTo(e *scale.Encoder) {
	s.ID.EncodeTo(e)
	s.Endpoint.EncodeTo(e)
}

// DecodeFrom reads the id and the endpoint.
func (s *ServiceEndpointWithID) DecodeFrom(d *scale.Decoder) {
	s.ID.DecodeFrom(d)
	s.Endpoint.DecodeFrom(d)
}

func endpointKey(did types.Did, id types.Bytes) string {
	return store.Key(did.String(), id.String())
}

// ServiceEndpoint returns endpoint id of did, nil when absent.
func (m *Module) ServiceEndpoint(tx *store.Tx, did types.Did, id types.Bytes) (*types.ServiceEndpoint, error) {
	var entry ServiceEndpointWithID

	ok, err := tx.Load(store.DidServiceEndpoints, endpointKey(did, id), &entry)
	if err != nil || !ok {
		return nil, err
	}

	return &entry.Endpoint, nil
}

// ServiceEndpoints returns the endpoints of did ordered by id.
func (m *Module) ServiceEndpoints(tx *store.Tx, did types.Did) ([]ServiceEndpointWithID, error) {
	entries, err := tx.Query(store.DidServiceEndpoints, didTag(did))
	if err != nil {
		return nil, err
	}

	list := make([]ServiceEndpointWithID, 0, len(entries))

	for _, entry := range entries {
		var s ServiceEndpointWithID

		if err := scale.Decode(entry.Value, &s); err != nil {
			return nil, fmt.Errorf("decode service endpoint %s: %w", entry.Key, err)
		}

		list = append(list, s)
	}

	sort.Slice(list, func(i, j int) bool { return bytes.Compare(list[i].ID, list[j].ID) < 0 })

	return list, nil
}

func checkEndpointID(id types.Bytes, limits *types.Limits) error {
	if len(id) == 0 {
		return fmt.Errorf("%w: empty id", errkind.InvalidServiceEndpoint)
	}

	if uint64(len(id)) > uint64(limits.MaxDidServiceEndpointIDSize) {
		return fmt.Errorf("%w: id too long", errkind.InvalidServiceEndpoint)
	}

	return nil
}

// AddServiceEndpoint adds a service endpoint under an id not yet used by the DID.
func (m *Module) AddServiceEndpoint(ctx *runtime.Context, a *action.AddServiceEndpoint, sig *Signature) error {
	return ExecuteAsController(ctx, m, a, sig, m.addServiceEndpoint)
}

func (m *Module) addServiceEndpoint(ctx *runtime.Context, a *action.AddServiceEndpoint, _ **OnChainDidDetails) error {
	if err := checkEndpointID(a.ID, ctx.Limits()); err != nil {
		return err
	}

	if err := a.Endpoint.Validate(ctx.Limits()); err != nil {
		return err
	}

	tx := ctx.Tx()

	existing, err := m.ServiceEndpoint(tx, a.Did, a.ID)
	if err != nil {
		return err
	}

	if existing != nil {
		return fmt.Errorf("%w: %s", errkind.ServiceEndpointAlreadyExists, a.ID)
	}

	tx.Save(store.DidServiceEndpoints, endpointKey(a.Did, a.ID),
		&ServiceEndpointWithID{ID: a.ID, Endpoint: a.Endpoint}, didTag(a.Did))

	deposit(ctx, DidServiceEndpointAdded, a.Did, struct {
		Did types.Did   `json:"did"`
		ID  types.Bytes `json:"id"`
	}{a.Did, a.ID})

	return nil
}

// RemoveServiceEndpoint removes the service endpoint id.
func (m *Module) RemoveServiceEndpoint(ctx *runtime.Context, a *action.RemoveServiceEndpoint, sig *Signature) error {
	return ExecuteAsController(ctx, m, a, sig, m.removeServiceEndpoint)
}

func (m *Module) removeServiceEndpoint(ctx *runtime.Context, a *action.RemoveServiceEndpoint,
	_ **OnChainDidDetails) error {
	if err := checkEndpointID(a.ID, ctx.Limits()); err != nil {
		return err
	}

	tx := ctx.Tx()

	existing, err := m.ServiceEndpoint(tx, a.Did, a.ID)
	if err != nil {
		return err
	}

	if existing == nil {
		return fmt.Errorf("%w: %s", errkind.ServiceEndpointDoesNotExist, a.ID)
	}

	tx.Delete(store.DidServiceEndpoints, endpointKey(a.Did, a.ID))

	deposit(ctx, DidServiceEndpointRemoved, a.Did, struct {
		Did types.Did   `json:"did"`
		ID  types.Bytes `json:"id"`
	}{a.Did, a.ID})

	return nil
}
