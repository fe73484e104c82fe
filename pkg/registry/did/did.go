/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package did is the DID registry: on-chain DIDs with keys, controllers and service endpoints,
// off-chain DIDs owned by an account, DID method keys, and the executors that authorize signed
// actions on behalf of every other registry module.
package did

import (
	"fmt"

	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/hyperledger/aries-framework-go/spi/storage"

	"github.com/hyperledger/aries-did-registry/pkg/registry/errkind"
	"github.com/hyperledger/aries-did-registry/pkg/registry/event"
	"github.com/hyperledger/aries-did-registry/pkg/registry/nonce"
	"github.com/hyperledger/aries-did-registry/pkg/registry/runtime"
	"github.com/hyperledger/aries-did-registry/pkg/registry/scale"
	"github.com/hyperledger/aries-did-registry/pkg/registry/store"
	"github.com/hyperledger/aries-did-registry/pkg/registry/types"
)

// ModuleName is the module of the events deposited by this package.
const ModuleName = "did"

const didTagName = "did"

var logger = log.New("aries-registry/did")

// OnChainDidDetails is the bookkeeping of an on-chain DID.
type OnChainDidDetails struct {
	LastKeyID            types.IncID `json:"lastKeyId"`
	ActiveControllerKeys uint32      `json:"activeControllerKeys"`
	ActiveControllers    uint32      `json:"activeControllers"`
}

// EncodeTo writes the details.
func (d *OnChainDidDetails) EncodeTo(e *scale.Encoder) {
	d.LastKeyID.EncodeTo(e)
	e.U32(d.ActiveControllerKeys)
	e.U32(d.ActiveControllers)
}

// DecodeFrom reads the details.
func (d *OnChainDidDetails) DecodeFrom(dec *scale.Decoder) {
	d.LastKeyID.DecodeFrom(dec)
	d.ActiveControllerKeys = dec.U32()
	d.ActiveControllers = dec.U32()
}

// StoredOnChainDidDetails are on-chain DID details with the DID's nonce.
type StoredOnChainDidDetails = nonce.WithNonce[OnChainDidDetails]

// OffChainDidDetails is an off-chain DID: its owner account and document reference.
type OffChainDidDetails struct {
	AccountID types.AccountID         `json:"accountId"`
	DocRef    types.OffChainDidDocRef `json:"docRef"`
}

// EncodeTo writes the details.
func (d *OffChainDidDetails) EncodeTo(e *scale.Encoder) {
	d.AccountID.EncodeTo(e)
	d.DocRef.EncodeTo(e)
}

// DecodeFrom reads the details.
func (d *OffChainDidDetails) DecodeFrom(dec *scale.Decoder) {
	d.AccountID.DecodeFrom(dec)
	d.DocRef.DecodeFrom(dec)
}

// StoredDidDetails is the record of a DID. Exactly one of OnChain and OffChain is set.
type StoredDidDetails struct {
	OffChain *OffChainDidDetails      `json:"offChain,omitempty"`
	OnChain  *StoredOnChainDidDetails `json:"onChain,omitempty"`
}

// EncodeTo writes the variant tag (0 off-chain, 1 on-chain) and the details.
func (d *StoredDidDetails) EncodeTo(e *scale.Encoder) {
	if d.OnChain != nil {
		e.U8(1)
		d.OnChain.EncodeTo(e)

		return
	}

	e.U8(0)
	d.OffChain.EncodeTo(e)
}

// DecodeFrom reads the details.
func (d *StoredDidDetails) DecodeFrom(dec *scale.Decoder) {
	switch dec.U8() {
	case 0:
		d.OffChain = &OffChainDidDetails{}
		d.OffChain.DecodeFrom(dec)
	case 1:
		d.OnChain = &StoredOnChainDidDetails{}
		d.OnChain.DecodeFrom(dec)
	default:
		dec.Fail(fmt.Errorf("%w: did details tag", errkind.MalformedInput))
	}
}

// OnDidRemoval is notified when an on-chain DID is removed so that dependent modules can drop the
// data the DID owns.
type OnDidRemoval interface {
	OnDidRemoval(ctx *runtime.Context, did types.Did) error
}

// AttestationReader returns the attestation of a DID, nil when it has none.
type AttestationReader func(tx *store.Tx, did types.Did) (*types.Attestation, error)

// Module is the DID registry.
type Module struct {
	removalHooks []OnDidRemoval
	attestations AttestationReader
}

// New returns the DID registry.
func New() *Module {
	return &Module{}
}

// AddOnDidRemoval registers a hook run inside the removal of every on-chain DID.
func (m *Module) AddOnDidRemoval(h OnDidRemoval) {
	m.removalHooks = append(m.removalHooks, h)
}

// SetAttestationReader sets the source of the attestation part of DID details.
func (m *Module) SetAttestationReader(r AttestationReader) {
	m.attestations = r
}

func didTag(did types.Did) storage.Tag {
	return storage.Tag{Name: didTagName, Value: did.String()}
}

// Did returns the record of did, nil when it does not exist.
func (m *Module) Did(tx *store.Tx, did types.Did) (*StoredDidDetails, error) {
	var details StoredDidDetails

	ok, err := tx.Load(store.Dids, did.String(), &details)
	if err != nil || !ok {
		return nil, err
	}

	return &details, nil
}

// Exists reports whether did is registered on or off chain.
func (m *Module) Exists(tx *store.Tx, did types.Did) (bool, error) {
	return tx.Has(store.Dids, did.String())
}

// OnChainDid returns the details of an on-chain DID. It fails with DidDoesNotExist or ExpectedOnChainDid.
func (m *Module) OnChainDid(tx *store.Tx, did types.Did) (*StoredOnChainDidDetails, error) {
	details, err := m.Did(tx, did)
	if err != nil {
		return nil, err
	}

	if details == nil {
		return nil, fmt.Errorf("%w: %s", errkind.DidDoesNotExist, did)
	}

	if details.OnChain == nil {
		return nil, fmt.Errorf("%w: %s", errkind.ExpectedOnChainDid, did)
	}

	return details.OnChain, nil
}

// OffChainDid returns the details of an off-chain DID. It fails with DidDoesNotExist or ExpectedOffChainDid.
func (m *Module) OffChainDid(tx *store.Tx, did types.Did) (*OffChainDidDetails, error) {
	details, err := m.Did(tx, did)
	if err != nil {
		return nil, err
	}

	if details == nil {
		return nil, fmt.Errorf("%w: %s", errkind.DidDoesNotExist, did)
	}

	if details.OffChain == nil {
		return nil, fmt.Errorf("%w: %s", errkind.ExpectedOffChainDid, did)
	}

	return details.OffChain, nil
}

func (m *Module) saveOnChain(tx *store.Tx, did types.Did, details *StoredOnChainDidDetails) {
	tx.Save(store.Dids, did.String(), &StoredDidDetails{OnChain: details})
}

func deposit(ctx *runtime.Context, name string, did types.Did, data interface{}) {
	ctx.Deposit(event.New(ModuleName, name, data, event.Topic(did[:])))
	logger.Debugf("%s %s at block %d", name, did, ctx.Block())
}
