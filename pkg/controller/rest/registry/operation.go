/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package registry serves the registry commands as REST operations. Calls are POSTed with the command
// request as body. Queries are GETs whose path variables and query parameters form the options map.
package registry

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/hyperledger/aries-did-registry/pkg/controller/command"
	cmdregistry "github.com/hyperledger/aries-did-registry/pkg/controller/command/registry"
	"github.com/hyperledger/aries-did-registry/pkg/controller/internal/cmdutil"
	"github.com/hyperledger/aries-did-registry/pkg/controller/rest"
	"github.com/hyperledger/aries-did-registry/pkg/registry"
)

// constants for registry operations.
const (
	// RegistryOperationID is the prefix of every registry path.
	RegistryOperationID = "/registry"

	didPath         = RegistryOperationID + "/did"
	revocationPath  = RegistryOperationID + "/revocation"
	statusListPath  = RegistryOperationID + "/statuslist"
	offchainPath    = RegistryOperationID + "/offchain"
	accumulatorPath = RegistryOperationID + "/accumulator"
	trustPath       = RegistryOperationID + "/trustregistry"
	masterPath      = RegistryOperationID + "/master"

	NewOnchainDIDPath         = didPath + "/onchain"
	RemoveOnchainDIDPath      = didPath + "/onchain/remove"
	NewOffchainDIDPath        = didPath + "/offchain"
	SetOffchainDIDDocRefPath  = didPath + "/offchain/docref"
	RemoveOffchainDIDPath     = didPath + "/offchain/remove"
	NewDIDMethodKeyPath       = didPath + "/methodkey"
	AddKeysPath               = didPath + "/keys/add"
	RemoveKeysPath            = didPath + "/keys/remove"
	AddControllersPath        = didPath + "/controllers/add"
	RemoveControllersPath     = didPath + "/controllers/remove"
	AddServiceEndpointPath    = didPath + "/endpoints/add"
	RemoveServiceEndpointPath = didPath + "/endpoints/remove"
	GetDIDPath                = didPath + "/{did}"
	GetNoncePath              = RegistryOperationID + "/nonce/{owner}"

	NewRegistryPath      = revocationPath
	RevokePath           = revocationPath + "/revoke"
	UnRevokePath         = revocationPath + "/unrevoke"
	RemoveRegistryPath   = revocationPath + "/remove"
	GetRegistryPath      = revocationPath + "/{id}"
	IsRevokedPath        = revocationPath + "/{id}/{revokeId}"
	CreateStatusListPath = statusListPath
	UpdateStatusListPath = statusListPath + "/update"
	RemoveStatusListPath = statusListPath + "/remove"
	GetStatusListPath    = statusListPath + "/{id}"

	AddOffchainParamsPath          = offchainPath + "/params"
	RemoveOffchainParamsPath       = offchainPath + "/params/remove"
	GetOffchainParamsPath          = offchainPath + "/params/{owner}"
	AddOffchainPublicKeyPath       = offchainPath + "/keys"
	RemoveOffchainPublicKeyPath    = offchainPath + "/keys/remove"
	GetOffchainPublicKeysPath      = offchainPath + "/keys/{owner}"
	AddAccumulatorParamsPath       = accumulatorPath + "/params"
	RemoveAccumulatorParamsPath    = accumulatorPath + "/params/remove"
	GetAccumulatorParamsPath       = accumulatorPath + "/params/{owner}"
	AddAccumulatorPublicKeyPath    = accumulatorPath + "/keys"
	RemoveAccumulatorPublicKeyPath = accumulatorPath + "/keys/remove"
	GetAccumulatorPublicKeysPath   = accumulatorPath + "/keys/{owner}"
	AddAccumulatorPath             = accumulatorPath
	UpdateAccumulatorPath          = accumulatorPath + "/update"
	RemoveAccumulatorPath          = accumulatorPath + "/remove"
	GetAccumulatorPath             = accumulatorPath + "/{id}"

	InitOrUpdateTrustRegistryPath = trustPath
	SetSchemasMetadataPath        = trustPath + "/schemas"
	UpdateDelegatedIssuersPath    = trustPath + "/delegated"
	SuspendIssuersPath            = trustPath + "/suspend"
	UnsuspendIssuersPath          = trustPath + "/unsuspend"
	GetTrustRegistryPath          = trustPath + "/{id}"
	GetIssuerConfigurationPath    = trustPath + "/{registryId}/issuer/{issuer}"
	GetSchemaMetadataPath         = trustPath + "/schema/{schemaId}"
	GetTrustRegistriesPath        = trustPath + "/party/{party}"

	AddBlobPath             = RegistryOperationID + "/blob"
	GetBlobPath             = RegistryOperationID + "/blob/{id}"
	SetAttestationClaimPath = RegistryOperationID + "/attestation"
	GetAttestationPath      = RegistryOperationID + "/attestation/{did}"
	DeployAnchorPath        = RegistryOperationID + "/anchor"
	GetAnchorPath           = RegistryOperationID + "/anchor/{hash}"
	ExecuteProposalPath     = masterPath + "/execute"
	EncodeProposalPath      = masterPath + "/proposal"
	GetMembershipPath       = masterPath + "/membership"
	PayloadPath             = RegistryOperationID + "/payload"
	GetEventsPath           = RegistryOperationID + "/events/{topic}"
	GetBlockPath            = RegistryOperationID + "/block"
)

// Operation contains the registry operations provided by controller REST API.
type Operation struct {
	handlers []rest.Handler
	command  *cmdregistry.Command
}

// New returns new registry operations rest client instance.
func New(r *registry.Registry) *Operation {
	o := &Operation{command: cmdregistry.New(r)}
	o.registerHandler()

	return o
}

// GetRESTHandlers get all controller API handler available for this service.
func (o *Operation) GetRESTHandlers() []rest.Handler {
	return o.handlers
}

// registerHandler register handlers to be exposed from this protocol service as REST API endpoints.
func (o *Operation) registerHandler() {
	o.handlers = []rest.Handler{
		cmdutil.NewHTTPHandler(NewOnchainDIDPath, http.MethodPost, o.call(o.command.NewOnchainDID)),
		cmdutil.NewHTTPHandler(RemoveOnchainDIDPath, http.MethodPost, o.call(o.command.RemoveOnchainDID)),
		cmdutil.NewHTTPHandler(NewOffchainDIDPath, http.MethodPost, o.call(o.command.NewOffchainDID)),
		cmdutil.NewHTTPHandler(SetOffchainDIDDocRefPath, http.MethodPost, o.call(o.command.SetOffchainDIDDocRef)),
		cmdutil.NewHTTPHandler(RemoveOffchainDIDPath, http.MethodPost, o.call(o.command.RemoveOffchainDID)),
		cmdutil.NewHTTPHandler(NewDIDMethodKeyPath, http.MethodPost, o.call(o.command.NewDIDMethodKey)),
		cmdutil.NewHTTPHandler(AddKeysPath, http.MethodPost, o.call(o.command.AddKeys)),
		cmdutil.NewHTTPHandler(RemoveKeysPath, http.MethodPost, o.call(o.command.RemoveKeys)),
		cmdutil.NewHTTPHandler(AddControllersPath, http.MethodPost, o.call(o.command.AddControllers)),
		cmdutil.NewHTTPHandler(RemoveControllersPath, http.MethodPost, o.call(o.command.RemoveControllers)),
		cmdutil.NewHTTPHandler(AddServiceEndpointPath, http.MethodPost, o.call(o.command.AddServiceEndpoint)),
		cmdutil.NewHTTPHandler(RemoveServiceEndpointPath, http.MethodPost, o.call(o.command.RemoveServiceEndpoint)),
		cmdutil.NewHTTPHandler(GetDIDPath, http.MethodGet, o.query(o.command.GetDID)),
		cmdutil.NewHTTPHandler(GetNoncePath, http.MethodGet, o.query(o.command.GetNonce)),
		cmdutil.NewHTTPHandler(NewRegistryPath, http.MethodPost, o.call(o.command.NewRegistry)),
		cmdutil.NewHTTPHandler(RevokePath, http.MethodPost, o.call(o.command.Revoke)),
		cmdutil.NewHTTPHandler(UnRevokePath, http.MethodPost, o.call(o.command.UnRevoke)),
		cmdutil.NewHTTPHandler(RemoveRegistryPath, http.MethodPost, o.call(o.command.RemoveRegistry)),
		cmdutil.NewHTTPHandler(GetRegistryPath, http.MethodGet, o.query(o.command.GetRegistry)),
		cmdutil.NewHTTPHandler(IsRevokedPath, http.MethodGet, o.query(o.command.IsRevoked)),
		cmdutil.NewHTTPHandler(CreateStatusListPath, http.MethodPost, o.call(o.command.CreateStatusList)),
		cmdutil.NewHTTPHandler(UpdateStatusListPath, http.MethodPost, o.call(o.command.UpdateStatusList)),
		cmdutil.NewHTTPHandler(RemoveStatusListPath, http.MethodPost, o.call(o.command.RemoveStatusList)),
		cmdutil.NewHTTPHandler(GetStatusListPath, http.MethodGet, o.query(o.command.GetStatusList)),
		cmdutil.NewHTTPHandler(AddOffchainParamsPath, http.MethodPost, o.call(o.command.AddOffchainParams)),
		cmdutil.NewHTTPHandler(RemoveOffchainParamsPath, http.MethodPost, o.call(o.command.RemoveOffchainParams)),
		cmdutil.NewHTTPHandler(GetOffchainParamsPath, http.MethodGet, o.query(o.command.GetOffchainParams)),
		cmdutil.NewHTTPHandler(AddOffchainPublicKeyPath, http.MethodPost, o.call(o.command.AddOffchainPublicKey)),
		cmdutil.NewHTTPHandler(RemoveOffchainPublicKeyPath, http.MethodPost, o.call(o.command.RemoveOffchainPublicKey)),
		cmdutil.NewHTTPHandler(GetOffchainPublicKeysPath, http.MethodGet, o.query(o.command.GetOffchainPublicKeys)),
		cmdutil.NewHTTPHandler(AddAccumulatorParamsPath, http.MethodPost, o.call(o.command.AddAccumulatorParams)),
		cmdutil.NewHTTPHandler(RemoveAccumulatorParamsPath, http.MethodPost, o.call(o.command.RemoveAccumulatorParams)),
		cmdutil.NewHTTPHandler(GetAccumulatorParamsPath, http.MethodGet, o.query(o.command.GetAccumulatorParams)),
		cmdutil.NewHTTPHandler(AddAccumulatorPublicKeyPath, http.MethodPost, o.call(o.command.AddAccumulatorPublicKey)),
		cmdutil.NewHTTPHandler(RemoveAccumulatorPublicKeyPath, http.MethodPost, o.call(o.command.RemoveAccumulatorPublicKey)),
		cmdutil.NewHTTPHandler(GetAccumulatorPublicKeysPath, http.MethodGet, o.query(o.command.GetAccumulatorPublicKeys)),
		cmdutil.NewHTTPHandler(AddAccumulatorPath, http.MethodPost, o.call(o.command.AddAccumulator)),
		cmdutil.NewHTTPHandler(UpdateAccumulatorPath, http.MethodPost, o.call(o.command.UpdateAccumulator)),
		cmdutil.NewHTTPHandler(RemoveAccumulatorPath, http.MethodPost, o.call(o.command.RemoveAccumulator)),
		cmdutil.NewHTTPHandler(GetAccumulatorPath, http.MethodGet, o.query(o.command.GetAccumulator)),
		cmdutil.NewHTTPHandler(InitOrUpdateTrustRegistryPath, http.MethodPost,
			o.call(o.command.InitOrUpdateTrustRegistry)),
		cmdutil.NewHTTPHandler(SetSchemasMetadataPath, http.MethodPost, o.call(o.command.SetSchemasMetadata)),
		cmdutil.NewHTTPHandler(UpdateDelegatedIssuersPath, http.MethodPost, o.call(o.command.UpdateDelegatedIssuers)),
		cmdutil.NewHTTPHandler(SuspendIssuersPath, http.MethodPost, o.call(o.command.SuspendIssuers)),
		cmdutil.NewHTTPHandler(UnsuspendIssuersPath, http.MethodPost, o.call(o.command.UnsuspendIssuers)),
		cmdutil.NewHTTPHandler(GetTrustRegistryPath, http.MethodGet, o.query(o.command.GetTrustRegistry)),
		cmdutil.NewHTTPHandler(GetIssuerConfigurationPath, http.MethodGet, o.query(o.command.GetIssuerConfiguration)),
		cmdutil.NewHTTPHandler(GetSchemaMetadataPath, http.MethodGet, o.query(o.command.GetSchemaMetadata)),
		cmdutil.NewHTTPHandler(GetTrustRegistriesPath, http.MethodGet, o.query(o.command.GetTrustRegistries)),
		cmdutil.NewHTTPHandler(AddBlobPath, http.MethodPost, o.call(o.command.AddBlob)),
		cmdutil.NewHTTPHandler(GetBlobPath, http.MethodGet, o.query(o.command.GetBlob)),
		cmdutil.NewHTTPHandler(SetAttestationClaimPath, http.MethodPost, o.call(o.command.SetAttestationClaim)),
		cmdutil.NewHTTPHandler(GetAttestationPath, http.MethodGet, o.query(o.command.GetAttestation)),
		cmdutil.NewHTTPHandler(DeployAnchorPath, http.MethodPost, o.call(o.command.DeployAnchor)),
		cmdutil.NewHTTPHandler(GetAnchorPath, http.MethodGet, o.query(o.command.GetAnchor)),
		cmdutil.NewHTTPHandler(ExecuteProposalPath, http.MethodPost, o.call(o.command.ExecuteProposal)),
		cmdutil.NewHTTPHandler(EncodeProposalPath, http.MethodPost, o.call(o.command.EncodeProposal)),
		cmdutil.NewHTTPHandler(GetMembershipPath, http.MethodGet, o.query(o.command.GetMembership)),
		cmdutil.NewHTTPHandler(PayloadPath, http.MethodPost, o.call(o.command.Payload)),
		cmdutil.NewHTTPHandler(GetEventsPath, http.MethodGet, o.query(o.command.GetEvents)),
		cmdutil.NewHTTPHandler(GetBlockPath, http.MethodGet, o.query(o.command.GetBlock)),
	}
}

// call runs exec with the request body.
func (o *Operation) call(exec command.Exec) http.HandlerFunc {
	return func(rw http.ResponseWriter, req *http.Request) {
		rest.Execute(exec, rw, req.Body)
	}
}

// query runs exec with the path variables and query parameters of the request. Path variables win
// over query parameters of the same name.
func (o *Operation) query(exec command.Exec) http.HandlerFunc {
	return func(rw http.ResponseWriter, req *http.Request) {
		opts := make(map[string]string)

		for k, v := range req.URL.Query() {
			if len(v) > 0 {
				opts[k] = v[0]
			}
		}

		for k, v := range mux.Vars(req) {
			opts[k] = v
		}

		body, err := json.Marshal(opts)
		if err != nil {
			rest.SendHTTPStatusError(rw, http.StatusBadRequest, cmdregistry.InvalidRequestErrorCode, err)
			return
		}

		rest.Execute(exec, rw, bytes.NewReader(body))
	}
}
