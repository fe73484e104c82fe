/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/hyperledger/aries-did-registry/pkg/controller/command"
	"github.com/hyperledger/aries-did-registry/pkg/controller/internal/cmdutil"
	"github.com/hyperledger/aries-did-registry/pkg/internal/logutil"
	"github.com/hyperledger/aries-did-registry/pkg/registry"
	"github.com/hyperledger/aries-did-registry/pkg/registry/action"
	"github.com/hyperledger/aries-did-registry/pkg/registry/anchor"
	"github.com/hyperledger/aries-did-registry/pkg/registry/did"
	"github.com/hyperledger/aries-did-registry/pkg/registry/errkind"
	"github.com/hyperledger/aries-did-registry/pkg/registry/policy"
	"github.com/hyperledger/aries-did-registry/pkg/registry/runtime"
	"github.com/hyperledger/aries-did-registry/pkg/registry/types"
)

var (
	logger = log.New("aries-registry/command/registry")
	cmdLog = logutil.New(logger, CommandName)
)

// Error codes.
const (
	// InvalidRequestErrorCode is typically a code for invalid requests.
	InvalidRequestErrorCode = command.Code(iota + command.Registry)

	// CallRejectedErrorCode is for calls the registry rejected.
	CallRejectedErrorCode

	// QueryErrorCode is for failed queries.
	QueryErrorCode

	// NotFoundErrorCode is for queries of absent entities.
	NotFoundErrorCode

	// PayloadErrorCode is for actions that can not be encoded.
	PayloadErrorCode
)

// constants for the registry controller's methods.
const (
	// command name.
	CommandName = "registry"

	// did methods.
	NewOnchainDIDCommandMethod         = "NewOnchainDID"
	NewOffchainDIDCommandMethod        = "NewOffchainDID"
	SetOffchainDIDDocRefCommandMethod  = "SetOffchainDIDDocRef"
	RemoveOffchainDIDCommandMethod     = "RemoveOffchainDID"
	NewDIDMethodKeyCommandMethod       = "NewDIDMethodKey"
	AddKeysCommandMethod               = "AddKeys"
	RemoveKeysCommandMethod            = "RemoveKeys"
	AddControllersCommandMethod        = "AddControllers"
	RemoveControllersCommandMethod     = "RemoveControllers"
	AddServiceEndpointCommandMethod    = "AddServiceEndpoint"
	RemoveServiceEndpointCommandMethod = "RemoveServiceEndpoint"
	RemoveOnchainDIDCommandMethod      = "RemoveOnchainDID"

	// revocation and status list methods.
	NewRegistryCommandMethod      = "NewRegistry"
	RevokeCommandMethod           = "Revoke"
	UnRevokeCommandMethod         = "UnRevoke"
	RemoveRegistryCommandMethod   = "RemoveRegistry"
	CreateStatusListCommandMethod = "CreateStatusList"
	UpdateStatusListCommandMethod = "UpdateStatusList"
	RemoveStatusListCommandMethod = "RemoveStatusList"

	// offchain signature and accumulator methods.
	AddOffchainParamsCommandMethod           = "AddOffchainParams"
	RemoveOffchainParamsCommandMethod        = "RemoveOffchainParams"
	AddOffchainPublicKeyCommandMethod        = "AddOffchainPublicKey"
	RemoveOffchainPublicKeyCommandMethod     = "RemoveOffchainPublicKey"
	AddAccumulatorParamsCommandMethod        = "AddAccumulatorParams"
	RemoveAccumulatorParamsCommandMethod     = "RemoveAccumulatorParams"
	AddAccumulatorPublicKeyCommandMethod     = "AddAccumulatorPublicKey"
	RemoveAccumulatorPublicKeyCommandMethod  = "RemoveAccumulatorPublicKey"
	AddAccumulatorCommandMethod              = "AddAccumulator"
	UpdateAccumulatorCommandMethod           = "UpdateAccumulator"
	RemoveAccumulatorCommandMethod           = "RemoveAccumulator"

	// trust registry methods.
	InitOrUpdateTrustRegistryCommandMethod = "InitOrUpdateTrustRegistry"
	SetSchemasMetadataCommandMethod        = "SetSchemasMetadata"
	UpdateDelegatedIssuersCommandMethod    = "UpdateDelegatedIssuers"
	SuspendIssuersCommandMethod            = "SuspendIssuers"
	UnsuspendIssuersCommandMethod          = "UnsuspendIssuers"

	// auxiliary records and master methods.
	AddBlobCommandMethod             = "AddBlob"
	SetAttestationClaimCommandMethod = "SetAttestationClaim"
	DeployAnchorCommandMethod        = "DeployAnchor"
	ExecuteProposalCommandMethod     = "ExecuteProposal"
	EncodeProposalCommandMethod      = "EncodeProposal"
	PayloadCommandMethod             = "Payload"

	// error messages.
	errEmptyAccount   = "account is mandatory"
	errEmptyAction    = "action is mandatory"
	errEmptySignature = "signature is mandatory"
	errEmptyNonce     = "nonce is mandatory for actions signed with a nonce prefix"
	errEmptyProposal  = "exactly one of setMembers or agree is mandatory"

	// log constants.
	accountKey = "account"
)

// Command contains command operations provided by registry controller.
type Command struct {
	registry *registry.Registry
}

// New returns new registry controller command instance.
func New(r *registry.Registry) *Command {
	return &Command{registry: r}
}

// GetHandlers returns list of all commands supported by this controller command.
func (o *Command) GetHandlers() []command.Handler {
	return []command.Handler{
		cmdutil.NewCommandHandler(CommandName, NewOnchainDIDCommandMethod, o.NewOnchainDID),
		cmdutil.NewCommandHandler(CommandName, NewOffchainDIDCommandMethod, o.NewOffchainDID),
		cmdutil.NewCommandHandler(CommandName, SetOffchainDIDDocRefCommandMethod, o.SetOffchainDIDDocRef),
		cmdutil.NewCommandHandler(CommandName, RemoveOffchainDIDCommandMethod, o.RemoveOffchainDID),
		cmdutil.NewCommandHandler(CommandName, NewDIDMethodKeyCommandMethod, o.NewDIDMethodKey),
		cmdutil.NewCommandHandler(CommandName, AddKeysCommandMethod, o.AddKeys),
		cmdutil.NewCommandHandler(CommandName, RemoveKeysCommandMethod, o.RemoveKeys),
		cmdutil.NewCommandHandler(CommandName, AddControllersCommandMethod, o.AddControllers),
		cmdutil.NewCommandHandler(CommandName, RemoveControllersCommandMethod, o.RemoveControllers),
		cmdutil.NewCommandHandler(CommandName, AddServiceEndpointCommandMethod, o.AddServiceEndpoint),
		cmdutil.NewCommandHandler(CommandName, RemoveServiceEndpointCommandMethod, o.RemoveServiceEndpoint),
		cmdutil.NewCommandHandler(CommandName, RemoveOnchainDIDCommandMethod, o.RemoveOnchainDID),
		cmdutil.NewCommandHandler(CommandName, NewRegistryCommandMethod, o.NewRegistry),
		cmdutil.NewCommandHandler(CommandName, RevokeCommandMethod, o.Revoke),
		cmdutil.NewCommandHandler(CommandName, UnRevokeCommandMethod, o.UnRevoke),
		cmdutil.NewCommandHandler(CommandName, RemoveRegistryCommandMethod, o.RemoveRegistry),
		cmdutil.NewCommandHandler(CommandName, CreateStatusListCommandMethod, o.CreateStatusList),
		cmdutil.NewCommandHandler(CommandName, UpdateStatusListCommandMethod, o.UpdateStatusList),
		cmdutil.NewCommandHandler(CommandName, RemoveStatusListCommandMethod, o.RemoveStatusList),
		cmdutil.NewCommandHandler(CommandName, AddOffchainParamsCommandMethod, o.AddOffchainParams),
		cmdutil.NewCommandHandler(CommandName, RemoveOffchainParamsCommandMethod, o.RemoveOffchainParams),
		cmdutil.NewCommandHandler(CommandName, AddOffchainPublicKeyCommandMethod, o.AddOffchainPublicKey),
		cmdutil.NewCommandHandler(CommandName, RemoveOffchainPublicKeyCommandMethod, o.RemoveOffchainPublicKey),
		cmdutil.NewCommandHandler(CommandName, AddAccumulatorParamsCommandMethod, o.AddAccumulatorParams),
		cmdutil.NewCommandHandler(CommandName, RemoveAccumulatorParamsCommandMethod, o.RemoveAccumulatorParams),
		cmdutil.NewCommandHandler(CommandName, AddAccumulatorPublicKeyCommandMethod, o.AddAccumulatorPublicKey),
		cmdutil.NewCommandHandler(CommandName, RemoveAccumulatorPublicKeyCommandMethod, o.RemoveAccumulatorPublicKey),
		cmdutil.NewCommandHandler(CommandName, AddAccumulatorCommandMethod, o.AddAccumulator),
		cmdutil.NewCommandHandler(CommandName, UpdateAccumulatorCommandMethod, o.UpdateAccumulator),
		cmdutil.NewCommandHandler(CommandName, RemoveAccumulatorCommandMethod, o.RemoveAccumulator),
		cmdutil.NewCommandHandler(CommandName, InitOrUpdateTrustRegistryCommandMethod, o.InitOrUpdateTrustRegistry),
		cmdutil.NewCommandHandler(CommandName, SetSchemasMetadataCommandMethod, o.SetSchemasMetadata),
		cmdutil.NewCommandHandler(CommandName, UpdateDelegatedIssuersCommandMethod, o.UpdateDelegatedIssuers),
		cmdutil.NewCommandHandler(CommandName, SuspendIssuersCommandMethod, o.SuspendIssuers),
		cmdutil.NewCommandHandler(CommandName, UnsuspendIssuersCommandMethod, o.UnsuspendIssuers),
		cmdutil.NewCommandHandler(CommandName, AddBlobCommandMethod, o.AddBlob),
		cmdutil.NewCommandHandler(CommandName, SetAttestationClaimCommandMethod, o.SetAttestationClaim),
		cmdutil.NewCommandHandler(CommandName, DeployAnchorCommandMethod, o.DeployAnchor),
		cmdutil.NewCommandHandler(CommandName, ExecuteProposalCommandMethod, o.ExecuteProposal),
		cmdutil.NewCommandHandler(CommandName, EncodeProposalCommandMethod, o.EncodeProposal),
		cmdutil.NewCommandHandler(CommandName, PayloadCommandMethod, o.Payload),
		cmdutil.NewCommandHandler(CommandName, GetDIDCommandMethod, o.GetDID),
		cmdutil.NewCommandHandler(CommandName, GetNonceCommandMethod, o.GetNonce),
		cmdutil.NewCommandHandler(CommandName, GetRegistryCommandMethod, o.GetRegistry),
		cmdutil.NewCommandHandler(CommandName, IsRevokedCommandMethod, o.IsRevoked),
		cmdutil.NewCommandHandler(CommandName, GetStatusListCommandMethod, o.GetStatusList),
		cmdutil.NewCommandHandler(CommandName, GetOffchainParamsCommandMethod, o.GetOffchainParams),
		cmdutil.NewCommandHandler(CommandName, GetOffchainPublicKeysCommandMethod, o.GetOffchainPublicKeys),
		cmdutil.NewCommandHandler(CommandName, GetAccumulatorParamsCommandMethod, o.GetAccumulatorParams),
		cmdutil.NewCommandHandler(CommandName, GetAccumulatorPublicKeysCommandMethod, o.GetAccumulatorPublicKeys),
		cmdutil.NewCommandHandler(CommandName, GetAccumulatorCommandMethod, o.GetAccumulator),
		cmdutil.NewCommandHandler(CommandName, GetBlobCommandMethod, o.GetBlob),
		cmdutil.NewCommandHandler(CommandName, GetAttestationCommandMethod, o.GetAttestation),
		cmdutil.NewCommandHandler(CommandName, GetTrustRegistryCommandMethod, o.GetTrustRegistry),
		cmdutil.NewCommandHandler(CommandName, GetSchemaMetadataCommandMethod, o.GetSchemaMetadata),
		cmdutil.NewCommandHandler(CommandName, GetTrustRegistriesCommandMethod, o.GetTrustRegistries),
		cmdutil.NewCommandHandler(CommandName, GetIssuerConfigurationCommandMethod, o.GetIssuerConfiguration),
		cmdutil.NewCommandHandler(CommandName, GetAnchorCommandMethod, o.GetAnchor),
		cmdutil.NewCommandHandler(CommandName, GetMembershipCommandMethod, o.GetMembership),
		cmdutil.NewCommandHandler(CommandName, GetEventsCommandMethod, o.GetEvents),
		cmdutil.NewCommandHandler(CommandName, GetBlockCommandMethod, o.GetBlock),
	}
}

// NewOnchainDID registers an on-chain DID with its keys and controllers.
func (o *Command) NewOnchainDID(rw io.Writer, req io.Reader) command.Error {
	var request NewOnchainDIDRequest

	if err := decode(NewOnchainDIDCommandMethod, req, &request); err != nil {
		return err
	}

	return o.submit(NewOnchainDIDCommandMethod, rw, request.Account, func(ctx *runtime.Context) error {
		return o.registry.DIDs.NewOnchain(ctx, request.Did, request.Keys, request.Controllers)
	})
}

// NewOffchainDID registers an off-chain DID owned by the submitting account.
func (o *Command) NewOffchainDID(rw io.Writer, req io.Reader) command.Error {
	var request OffchainDIDRequest

	if err := decode(NewOffchainDIDCommandMethod, req, &request); err != nil {
		return err
	}

	return o.submit(NewOffchainDIDCommandMethod, rw, request.Account, func(ctx *runtime.Context) error {
		return o.registry.DIDs.NewOffchain(ctx, request.Did, request.DocRef)
	})
}

// SetOffchainDIDDocRef replaces the document reference of an off-chain DID.
func (o *Command) SetOffchainDIDDocRef(rw io.Writer, req io.Reader) command.Error {
	var request OffchainDIDRequest

	if err := decode(SetOffchainDIDDocRefCommandMethod, req, &request); err != nil {
		return err
	}

	return o.submit(SetOffchainDIDDocRefCommandMethod, rw, request.Account, func(ctx *runtime.Context) error {
		return o.registry.DIDs.SetOffchainDidDocRef(ctx, request.Did, request.DocRef)
	})
}

// RemoveOffchainDID removes an off-chain DID.
func (o *Command) RemoveOffchainDID(rw io.Writer, req io.Reader) command.Error {
	var request RemoveOffchainDIDRequest

	if err := decode(RemoveOffchainDIDCommandMethod, req, &request); err != nil {
		return err
	}

	return o.submit(RemoveOffchainDIDCommandMethod, rw, request.Account, func(ctx *runtime.Context) error {
		return o.registry.DIDs.RemoveOffchainDid(ctx, request.Did)
	})
}

// NewDIDMethodKey registers a DID method key so it can sign.
func (o *Command) NewDIDMethodKey(rw io.Writer, req io.Reader) command.Error {
	var request NewDIDMethodKeyRequest

	if err := decode(NewDIDMethodKeyCommandMethod, req, &request); err != nil {
		return err
	}

	return o.submit(NewDIDMethodKeyCommandMethod, rw, request.Account, func(ctx *runtime.Context) error {
		return o.registry.DIDs.NewDidMethodKey(ctx, request.DidMethodKey)
	})
}

// AddKeys adds keys to an on-chain DID.
func (o *Command) AddKeys(rw io.Writer, req io.Reader) command.Error {
	return signed(o, AddKeysCommandMethod, rw, req, o.registry.DIDs.AddKeys)
}

// RemoveKeys removes keys of an on-chain DID.
func (o *Command) RemoveKeys(rw io.Writer, req io.Reader) command.Error {
	return signed(o, RemoveKeysCommandMethod, rw, req, o.registry.DIDs.RemoveKeys)
}

// AddControllers adds controllers to an on-chain DID.
func (o *Command) AddControllers(rw io.Writer, req io.Reader) command.Error {
	return signed(o, AddControllersCommandMethod, rw, req, o.registry.DIDs.AddControllers)
}

// RemoveControllers removes controllers of an on-chain DID.
func (o *Command) RemoveControllers(rw io.Writer, req io.Reader) command.Error {
	return signed(o, RemoveControllersCommandMethod, rw, req, o.registry.DIDs.RemoveControllers)
}

// AddServiceEndpoint adds a service endpoint to an on-chain DID.
func (o *Command) AddServiceEndpoint(rw io.Writer, req io.Reader) command.Error {
	return signed(o, AddServiceEndpointCommandMethod, rw, req, o.registry.DIDs.AddServiceEndpoint)
}

// RemoveServiceEndpoint removes a service endpoint of an on-chain DID.
func (o *Command) RemoveServiceEndpoint(rw io.Writer, req io.Reader) command.Error {
	return signed(o, RemoveServiceEndpointCommandMethod, rw, req, o.registry.DIDs.RemoveServiceEndpoint)
}

// RemoveOnchainDID removes an on-chain DID and everything it owns.
func (o *Command) RemoveOnchainDID(rw io.Writer, req io.Reader) command.Error {
	return signed(o, RemoveOnchainDIDCommandMethod, rw, req, o.registry.DIDs.RemoveOnchainDid)
}

// NewRegistry creates a revocation registry.
func (o *Command) NewRegistry(rw io.Writer, req io.Reader) command.Error {
	var request NewRegistryRequest

	if err := decode(NewRegistryCommandMethod, req, &request); err != nil {
		return err
	}

	return o.submit(NewRegistryCommandMethod, rw, request.Account, func(ctx *runtime.Context) error {
		return o.registry.Revoke.NewRegistry(ctx, request.ID, request.Registry)
	})
}

// Revoke revokes credential ids in a registry.
func (o *Command) Revoke(rw io.Writer, req io.Reader) command.Error {
	return proven(o, RevokeCommandMethod, rw, req, o.registry.Revoke.Revoke)
}

// UnRevoke undoes revocations in a registry.
func (o *Command) UnRevoke(rw io.Writer, req io.Reader) command.Error {
	return proven(o, UnRevokeCommandMethod, rw, req, o.registry.Revoke.UnRevoke)
}

// RemoveRegistry removes a revocation registry.
func (o *Command) RemoveRegistry(rw io.Writer, req io.Reader) command.Error {
	return proven(o, RemoveRegistryCommandMethod, rw, req, o.registry.Revoke.RemoveRegistry)
}

// CreateStatusList creates a status list credential.
func (o *Command) CreateStatusList(rw io.Writer, req io.Reader) command.Error {
	var request CreateStatusListRequest

	if err := decode(CreateStatusListCommandMethod, req, &request); err != nil {
		return err
	}

	return o.submit(CreateStatusListCommandMethod, rw, request.Account, func(ctx *runtime.Context) error {
		return o.registry.StatusList.Create(ctx, request.ID, request.Credential)
	})
}

// UpdateStatusList replaces a status list credential.
func (o *Command) UpdateStatusList(rw io.Writer, req io.Reader) command.Error {
	return proven(o, UpdateStatusListCommandMethod, rw, req, o.registry.StatusList.Update)
}

// RemoveStatusList removes a status list credential.
func (o *Command) RemoveStatusList(rw io.Writer, req io.Reader) command.Error {
	return proven(o, RemoveStatusListCommandMethod, rw, req, o.registry.StatusList.Remove)
}

// AddOffchainParams stores offchain signature params.
func (o *Command) AddOffchainParams(rw io.Writer, req io.Reader) command.Error {
	return signed(o, AddOffchainParamsCommandMethod, rw, req, o.registry.Offchain.AddParams)
}

// RemoveOffchainParams removes offchain signature params.
func (o *Command) RemoveOffchainParams(rw io.Writer, req io.Reader) command.Error {
	return signed(o, RemoveOffchainParamsCommandMethod, rw, req, o.registry.Offchain.RemoveParams)
}

// AddOffchainPublicKey adds an offchain signature public key to a DID.
func (o *Command) AddOffchainPublicKey(rw io.Writer, req io.Reader) command.Error {
	return signed(o, AddOffchainPublicKeyCommandMethod, rw, req, o.registry.Offchain.AddPublicKey)
}

// RemoveOffchainPublicKey removes an offchain signature public key.
func (o *Command) RemoveOffchainPublicKey(rw io.Writer, req io.Reader) command.Error {
	return signed(o, RemoveOffchainPublicKeyCommandMethod, rw, req, o.registry.Offchain.RemovePublicKey)
}

// AddAccumulatorParams stores accumulator params.
func (o *Command) AddAccumulatorParams(rw io.Writer, req io.Reader) command.Error {
	return signed(o, AddAccumulatorParamsCommandMethod, rw, req, o.registry.Accumulator.AddParams)
}

// RemoveAccumulatorParams removes accumulator params.
func (o *Command) RemoveAccumulatorParams(rw io.Writer, req io.Reader) command.Error {
	return signed(o, RemoveAccumulatorParamsCommandMethod, rw, req, o.registry.Accumulator.RemoveParams)
}

// AddAccumulatorPublicKey stores an accumulator public key.
func (o *Command) AddAccumulatorPublicKey(rw io.Writer, req io.Reader) command.Error {
	return signed(o, AddAccumulatorPublicKeyCommandMethod, rw, req, o.registry.Accumulator.AddPublicKey)
}

// RemoveAccumulatorPublicKey removes an accumulator public key.
func (o *Command) RemoveAccumulatorPublicKey(rw io.Writer, req io.Reader) command.Error {
	return signed(o, RemoveAccumulatorPublicKeyCommandMethod, rw, req, o.registry.Accumulator.RemovePublicKey)
}

// AddAccumulator creates an accumulator.
func (o *Command) AddAccumulator(rw io.Writer, req io.Reader) command.Error {
	return signed(o, AddAccumulatorCommandMethod, rw, req, o.registry.Accumulator.AddAccumulator)
}

// UpdateAccumulator replaces the accumulated value of an accumulator.
func (o *Command) UpdateAccumulator(rw io.Writer, req io.Reader) command.Error {
	return signed(o, UpdateAccumulatorCommandMethod, rw, req, o.registry.Accumulator.UpdateAccumulator)
}

// RemoveAccumulator removes an accumulator.
func (o *Command) RemoveAccumulator(rw io.Writer, req io.Reader) command.Error {
	return signed(o, RemoveAccumulatorCommandMethod, rw, req, o.registry.Accumulator.RemoveAccumulator)
}

// InitOrUpdateTrustRegistry creates or renames a trust registry.
func (o *Command) InitOrUpdateTrustRegistry(rw io.Writer, req io.Reader) command.Error {
	return signed(o, InitOrUpdateTrustRegistryCommandMethod, rw, req, o.registry.TrustRegistry.InitOrUpdate)
}

// SetSchemasMetadata changes the schema metadata of a trust registry.
func (o *Command) SetSchemasMetadata(rw io.Writer, req io.Reader) command.Error {
	return signed(o, SetSchemasMetadataCommandMethod, rw, req, o.registry.TrustRegistry.SetSchemasMetadata)
}

// UpdateDelegatedIssuers changes the issuers an issuer delegates to.
func (o *Command) UpdateDelegatedIssuers(rw io.Writer, req io.Reader) command.Error {
	return signed(o, UpdateDelegatedIssuersCommandMethod, rw, req, o.registry.TrustRegistry.UpdateDelegatedIssuers)
}

// SuspendIssuers suspends issuers of a trust registry.
func (o *Command) SuspendIssuers(rw io.Writer, req io.Reader) command.Error {
	return signed(o, SuspendIssuersCommandMethod, rw, req, o.registry.TrustRegistry.SuspendIssuers)
}

// UnsuspendIssuers lifts the suspension of issuers of a trust registry.
func (o *Command) UnsuspendIssuers(rw io.Writer, req io.Reader) command.Error {
	return signed(o, UnsuspendIssuersCommandMethod, rw, req, o.registry.TrustRegistry.UnsuspendIssuers)
}

// AddBlob stores a blob.
func (o *Command) AddBlob(rw io.Writer, req io.Reader) command.Error {
	return signed(o, AddBlobCommandMethod, rw, req, o.registry.Blob.Add)
}

// SetAttestationClaim publishes the attestation of a DID.
func (o *Command) SetAttestationClaim(rw io.Writer, req io.Reader) command.Error {
	return signed(o, SetAttestationClaimCommandMethod, rw, req, o.registry.Attest.SetClaim)
}

// DeployAnchor anchors data and returns its hash.
func (o *Command) DeployAnchor(rw io.Writer, req io.Reader) command.Error {
	var request DeployAnchorRequest

	if err := decode(DeployAnchorCommandMethod, req, &request); err != nil {
		return err
	}

	if request.Account == "" {
		cmdLog.Debug(DeployAnchorCommandMethod, errEmptyAccount)
		return command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf(errEmptyAccount))
	}

	var hash types.Bytes32

	events, err := o.registry.Execute(runtime.Signed(request.Account), func(ctx *runtime.Context) error {
		var err error

		hash, err = anchor.Deploy(ctx, request.Data)

		return err
	})
	if err != nil {
		return fail(DeployAnchorCommandMethod, CallRejectedErrorCode, err)
	}

	writeResponse(rw, &AnchorResponse{Hash: hash, Events: events})

	cmdLog.Debug(DeployAnchorCommandMethod, "success",
		logutil.KV(accountKey, string(request.Account)))

	return nil
}

// ExecuteProposal runs a master proposal with the votes of the members.
func (o *Command) ExecuteProposal(rw io.Writer, req io.Reader) command.Error {
	var request ExecuteProposalRequest

	if err := decode(ExecuteProposalCommandMethod, req, &request); err != nil {
		return err
	}

	return o.submit(ExecuteProposalCommandMethod, rw, request.Account, func(ctx *runtime.Context) error {
		return o.registry.Master.Execute(ctx, request.Proposal, request.Proof)
	})
}

// EncodeProposal encodes a root call as a master proposal and returns the round to vote in.
func (o *Command) EncodeProposal(rw io.Writer, req io.Reader) command.Error {
	var request ProposalRequest

	if err := decode(EncodeProposalCommandMethod, req, &request); err != nil {
		return err
	}

	call := request.rootCall()
	if call == nil {
		cmdLog.Debug(EncodeProposalCommandMethod, errEmptyProposal)
		return command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf(errEmptyProposal))
	}

	var round uint64

	err := o.registry.Query(func(ctx *runtime.Context) error {
		var err error

		round, err = o.registry.Master.Round(ctx.Tx())

		return err
	})
	if err != nil {
		return fail(EncodeProposalCommandMethod, QueryErrorCode, err)
	}

	writeResponse(rw, &ProposalResponse{
		Proposal: registry.EncodeRootCall(call),
		Round:    round,
	})

	cmdLog.Debug(EncodeProposalCommandMethod, "success")

	return nil
}

// Payload returns the bytes a signer signs for an action.
func (o *Command) Payload(rw io.Writer, req io.Reader) command.Error {
	var request PayloadRequest

	if err := decode(PayloadCommandMethod, req, &request); err != nil {
		return err
	}

	payload, err := payloadOf(&request)
	if err != nil {
		cmdLog.Info(PayloadCommandMethod, err.Error())
		return command.NewValidationError(PayloadErrorCode, err)
	}

	writeResponse(rw, &PayloadResponse{Payload: payload})

	cmdLog.Debug(PayloadCommandMethod, "success",
		logutil.KV("action", request.Action))

	return nil
}

func payloadOf(request *PayloadRequest) ([]byte, error) {
	tag, err := action.ParseTag(request.Action)
	if err != nil {
		return nil, err
	}

	a, err := action.New(tag)
	if err != nil {
		return nil, err
	}

	if err = json.Unmarshal(request.Body, a); err != nil {
		return nil, fmt.Errorf("%w: %s body: %s", errkind.MalformedInput, tag, err)
	}

	if !action.IsRaw(tag) {
		return action.Encode(a), nil
	}

	if request.Nonce == nil {
		return nil, errors.New(errEmptyNonce)
	}

	return action.EncodeWithNonce(a, *request.Nonce), nil
}

func signed[A any](o *Command, method string, rw io.Writer, req io.Reader,
	exec func(*runtime.Context, *A, *did.Signature) error) command.Error {
	var request SignedRequest[A]

	if err := decode(method, req, &request); err != nil {
		return err
	}

	if request.Action == nil {
		cmdLog.Debug(method, errEmptyAction)
		return command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf(errEmptyAction))
	}

	if request.Signature == nil {
		cmdLog.Debug(method, errEmptySignature)
		return command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf(errEmptySignature))
	}

	return o.submit(method, rw, request.Account, func(ctx *runtime.Context) error {
		return exec(ctx, request.Action, request.Signature)
	})
}

func proven[A any](o *Command, method string, rw io.Writer, req io.Reader,
	exec func(*runtime.Context, *A, policy.Proof) error) command.Error {
	var request ProofRequest[A]

	if err := decode(method, req, &request); err != nil {
		return err
	}

	if request.Action == nil {
		cmdLog.Debug(method, errEmptyAction)
		return command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf(errEmptyAction))
	}

	return o.submit(method, rw, request.Account, func(ctx *runtime.Context) error {
		return exec(ctx, request.Action, request.Proof)
	})
}

// submit runs fn as a call of account and writes the events it emitted.
func (o *Command) submit(method string, rw io.Writer, account types.AccountID,
	fn func(ctx *runtime.Context) error) command.Error {
	if account == "" {
		cmdLog.Debug(method, errEmptyAccount)
		return command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf(errEmptyAccount))
	}

	events, err := o.registry.Execute(runtime.Signed(account), fn)
	if err != nil {
		return fail(method, CallRejectedErrorCode, err)
	}

	writeResponse(rw, &EventsResponse{Events: events})

	cmdLog.Debug(method, "success",
		logutil.KV(accountKey, string(account)))

	return nil
}

// writeResponse encodes v to rw, logging encoding failures.
func writeResponse(rw io.Writer, v interface{}) {
	if err := json.NewEncoder(rw).Encode(v); err != nil {
		logger.Errorf("Unable to send response, %s", err)
	}
}

func decode(method string, req io.Reader, v interface{}) command.Error {
	if err := json.NewDecoder(req).Decode(v); err != nil {
		cmdLog.Info(method, err.Error())
		return command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf("request decode : %w", err))
	}

	return nil
}

// fail reports registry failures as validation errors and anything else as execute errors.
func fail(method string, code command.Code, err error) command.Error {
	cmdLog.Error(method, err.Error())

	if _, ok := errkind.Of(err); ok {
		return command.NewValidationError(code, err)
	}

	return command.NewExecuteError(code, err)
}

// parseOwner parses a did:key:z... DID method key or a hex DID.
func parseOwner(s string) (types.DidOrDidMethodKey, error) {
	if strings.HasPrefix(s, "did:key:") {
		key, err := types.ParseDidMethodKey(s)
		if err != nil {
			return types.DidOrDidMethodKey{}, err
		}

		return types.FromDidMethodKey(key), nil
	}

	d, err := types.ParseDid(s)
	if err != nil {
		return types.DidOrDidMethodKey{}, fmt.Errorf("%w: owner: %s", errkind.MalformedInput, err)
	}

	return types.FromDid(d), nil
}
