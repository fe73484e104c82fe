/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package registry

import (
	"encoding/json"

	"github.com/hyperledger/aries-did-registry/pkg/registry"
	"github.com/hyperledger/aries-did-registry/pkg/registry/accumulator"
	"github.com/hyperledger/aries-did-registry/pkg/registry/agreement"
	"github.com/hyperledger/aries-did-registry/pkg/registry/did"
	"github.com/hyperledger/aries-did-registry/pkg/registry/event"
	"github.com/hyperledger/aries-did-registry/pkg/registry/keys"
	"github.com/hyperledger/aries-did-registry/pkg/registry/offchain"
	"github.com/hyperledger/aries-did-registry/pkg/registry/policy"
	"github.com/hyperledger/aries-did-registry/pkg/registry/revoke"
	"github.com/hyperledger/aries-did-registry/pkg/registry/statuslist"
	"github.com/hyperledger/aries-did-registry/pkg/registry/trustregistry"
	"github.com/hyperledger/aries-did-registry/pkg/registry/types"
)

// SignedRequest is an action signed by a single DID or DID method key, submitted by Account.
type SignedRequest[A any] struct {
	Account   types.AccountID `json:"account"`
	Action    *A              `json:"action"`
	Signature *did.Signature  `json:"signature"`
}

// ProofRequest is an action authorized by the policy of its target, submitted by Account.
type ProofRequest[A any] struct {
	Account types.AccountID `json:"account"`
	Action  *A              `json:"action"`
	Proof   policy.Proof    `json:"proof"`
}

// NewOnchainDIDRequest registers an on-chain DID.
type NewOnchainDIDRequest struct {
	Account     types.AccountID        `json:"account"`
	Did         types.Did              `json:"did"`
	Keys        []keys.UncheckedDidKey `json:"keys"`
	Controllers []types.Did            `json:"controllers,omitempty"`
}

// OffchainDIDRequest registers or updates an off-chain DID.
type OffchainDIDRequest struct {
	Account types.AccountID         `json:"account"`
	Did     types.Did               `json:"did"`
	DocRef  types.OffChainDidDocRef `json:"docRef"`
}

// RemoveOffchainDIDRequest removes an off-chain DID.
type RemoveOffchainDIDRequest struct {
	Account types.AccountID `json:"account"`
	Did     types.Did       `json:"did"`
}

// NewDIDMethodKeyRequest registers a DID method key.
type NewDIDMethodKeyRequest struct {
	Account      types.AccountID    `json:"account"`
	DidMethodKey types.DidMethodKey `json:"didMethodKey"`
}

// NewRegistryRequest creates a revocation registry.
type NewRegistryRequest struct {
	Account  types.AccountID  `json:"account"`
	ID       types.RegistryID `json:"id"`
	Registry revoke.Registry  `json:"registry"`
}

// CreateStatusListRequest creates a status list credential.
type CreateStatusListRequest struct {
	Account    types.AccountID                 `json:"account"`
	ID         types.StatusListCredentialID    `json:"id"`
	Credential statuslist.CredentialWithPolicy `json:"credential"`
}

// DeployAnchorRequest anchors data.
type DeployAnchorRequest struct {
	Account types.AccountID `json:"account"`
	Data    types.Bytes     `json:"data"`
}

// ExecuteProposalRequest runs a master proposal with the votes of the members.
type ExecuteProposalRequest struct {
	Account  types.AccountID          `json:"account"`
	Proposal types.Bytes              `json:"proposal"`
	Proof    []did.SignatureWithNonce `json:"proof"`
}

// EventsResponse lists the events of a committed call.
type EventsResponse struct {
	Events []event.Event `json:"events"`
}

// AnchorResponse is the hash of anchored data and the events of the call.
type AnchorResponse struct {
	Hash   types.Bytes32 `json:"hash"`
	Events []event.Event `json:"events"`
}

// PayloadRequest names an action by its state change variant. Nonce is required for actions signed
// with a nonce prefix.
type PayloadRequest struct {
	Action string             `json:"action"`
	Body   json.RawMessage    `json:"body"`
	Nonce  *types.BlockNumber `json:"nonce,omitempty"`
}

// PayloadResponse holds the bytes a signer signs.
type PayloadResponse struct {
	Payload types.Bytes `json:"payload"`
}

// ProposalRequest builds a master proposal. Exactly one call is set.
type ProposalRequest struct {
	SetMembers *types.Membership    `json:"setMembers,omitempty"`
	Agree      *agreement.Agreement `json:"agree,omitempty"`
}

// ProposalResponse holds an encoded master proposal and the round members vote in.
type ProposalResponse struct {
	Proposal types.Bytes `json:"proposal"`
	Round    uint64      `json:"round"`
}

// Query arguments, decoded from a generic options map.

// DIDQuery selects the details of a DID.
type DIDQuery struct {
	Did    types.Did         `json:"did"`
	Params did.DetailsParams `json:"params"`
}

// OwnerQuery selects the resources of a DID or DID method key, optionally one by id.
type OwnerQuery struct {
	Owner string      `json:"owner"`
	ID    types.IncID `json:"id"`
}

// RegistryQuery selects a revocation registry, and optionally one revocation in it.
type RegistryQuery struct {
	ID       types.RegistryID `json:"id"`
	RevokeID *types.RevokeID  `json:"revokeId"`
}

// StatusListQuery selects a status list credential.
type StatusListQuery struct {
	ID types.StatusListCredentialID `json:"id"`
}

// AccumulatorQuery selects an accumulator.
type AccumulatorQuery struct {
	ID types.AccumulatorID `json:"id"`
}

// BlobQuery selects a blob.
type BlobQuery struct {
	ID types.BlobID `json:"id"`
}

// TrustRegistryQuery selects a trust registry.
type TrustRegistryQuery struct {
	ID types.TrustRegistryID `json:"id"`
}

// SchemaQuery selects the metadata of a schema, in one trust registry when registryId is set.
type SchemaQuery struct {
	Schema   types.SchemaID         `json:"schemaId"`
	Registry *types.TrustRegistryID `json:"registryId"`
}

// PartyQuery selects the trust registries in which a DID or DID method key acts in a role: convener,
// issuer or verifier.
type PartyQuery struct {
	Party string `json:"party"`
	Role  string `json:"role"`
}

// IssuerQuery selects an issuer of a trust registry.
type IssuerQuery struct {
	Registry types.TrustRegistryID `json:"registryId"`
	Issuer   string                `json:"issuer"`
}

// AnchorQuery selects an anchor.
type AnchorQuery struct {
	Hash types.Bytes32 `json:"hash"`
}

// EventsQuery selects the events indexed by a topic.
type EventsQuery struct {
	Topic string `json:"topic"`
}

// NonceResponse is the current nonce of a signer.
type NonceResponse struct {
	Nonce types.BlockNumber `json:"nonce"`
}

// RevokedResponse tells whether a credential id is revoked.
type RevokedResponse struct {
	Revoked bool `json:"revoked"`
}

// OffchainPublicKeyResponse is an offchain public key with the parameters it references.
type OffchainPublicKeyResponse struct {
	Key    types.OffchainPublicKey `json:"key"`
	Params *types.SignatureParams  `json:"params,omitempty"`
}

// OffchainParamsResponse lists offchain params.
type OffchainParamsResponse struct {
	Params []offchain.ParamsWithID `json:"params"`
}

// OffchainPublicKeysResponse lists offchain public keys.
type OffchainPublicKeysResponse struct {
	Keys []offchain.PublicKeyWithID `json:"keys"`
}

// AccumulatorParamsResponse lists accumulator params.
type AccumulatorParamsResponse struct {
	Params []accumulator.ParamsWithID `json:"params"`
}

// AccumulatorPublicKeysResponse lists accumulator public keys.
type AccumulatorPublicKeysResponse struct {
	Keys []accumulator.PublicKeyWithID `json:"keys"`
}

// AccumulatorResponse is a stored accumulator with its key and params.
type AccumulatorResponse struct {
	Accumulator types.StoredAccumulator            `json:"accumulator"`
	Details     *accumulator.WithPublicKeyAndParams `json:"details,omitempty"`
}

// TrustRegistryResponse is a trust registry with its schemas.
type TrustRegistryResponse struct {
	Info    types.TrustRegistryInfo `json:"info"`
	Schemas []trustregistry.Schema  `json:"schemas"`
}

// SchemasResponse lists schema metadata.
type SchemasResponse struct {
	Schemas []trustregistry.Schema `json:"schemas"`
}

// TrustRegistriesResponse lists trust registry ids.
type TrustRegistriesResponse struct {
	Registries []types.TrustRegistryID `json:"registries"`
}

// IssuerConfigurationResponse is the state of an issuer in a trust registry with the schemas it issues
// itself and on behalf of the issuers delegating to it.
type IssuerConfigurationResponse struct {
	Configuration    types.IssuerConfiguration `json:"configuration"`
	Schemas          []types.SchemaID          `json:"schemas"`
	DelegatedSchemas []types.SchemaID          `json:"delegatedSchemas"`
}

// AnchorBlockResponse is the block an anchor was deployed at.
type AnchorBlockResponse struct {
	Block types.BlockNumber `json:"block"`
}

// BlockResponse is the current block.
type BlockResponse struct {
	Block types.BlockNumber `json:"block"`
}

// MembershipResponse is the master membership and round.
type MembershipResponse struct {
	Membership types.Membership `json:"membership"`
	Round      uint64           `json:"round"`
}

// rootCall builds the root call of a proposal request.
func (p *ProposalRequest) rootCall() registry.RootCall {
	switch {
	case p.SetMembers != nil && p.Agree == nil:
		return &registry.SetMembers{Membership: *p.SetMembers}
	case p.Agree != nil && p.SetMembers == nil:
		return &registry.Agree{Agreement: *p.Agree}
	default:
		return nil
	}
}
