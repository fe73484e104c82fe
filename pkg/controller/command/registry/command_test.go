/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package registry

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hyperledger/aries-framework-go/component/storageutil/mem"
	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-did-registry/pkg/controller/command"
	"github.com/hyperledger/aries-did-registry/internal/registrytest"
	"github.com/hyperledger/aries-did-registry/pkg/registry"
	"github.com/hyperledger/aries-did-registry/pkg/registry/action"
	"github.com/hyperledger/aries-did-registry/pkg/registry/agreement"
	"github.com/hyperledger/aries-did-registry/pkg/registry/anchor"
	"github.com/hyperledger/aries-did-registry/pkg/registry/did"
	"github.com/hyperledger/aries-did-registry/pkg/registry/keys"
	"github.com/hyperledger/aries-did-registry/pkg/registry/policy"
	"github.com/hyperledger/aries-did-registry/pkg/registry/revoke"
	"github.com/hyperledger/aries-did-registry/pkg/registry/runtime"
	"github.com/hyperledger/aries-did-registry/pkg/registry/trustregistry"
	"github.com/hyperledger/aries-did-registry/pkg/registry/types"
)

func newCommand(t *testing.T) *Command {
	t.Helper()

	r, err := registry.New(mem.NewProvider(),
		registry.WithClock(runtime.NewManualClock(registrytest.StartBlock)))
	require.NoError(t, err)

	return New(r)
}

func call(t *testing.T, exec command.Exec, request interface{}) (*bytes.Buffer, command.Error) {
	t.Helper()

	var body []byte

	switch r := request.(type) {
	case string:
		body = []byte(r)
	case nil:
	default:
		var err error

		body, err = json.Marshal(r)
		require.NoError(t, err)
	}

	var b bytes.Buffer

	return &b, exec(&b, bytes.NewReader(body))
}

func requireCode(t *testing.T, err command.Error, code command.Code, typ command.Type, contains string) {
	t.Helper()

	require.Error(t, err)
	require.Equal(t, code, err.Code())
	require.Equal(t, typ, err.Type())
	require.Contains(t, err.Error(), contains)
}

func TestNew(t *testing.T) {
	cmd := newCommand(t)

	handlers := cmd.GetHandlers()
	require.Len(t, handlers, 61)

	for _, h := range handlers {
		require.Equal(t, CommandName, h.Name())
		require.NotNil(t, h.Handle())
	}
}

func TestDIDCommands(t *testing.T) {
	cmd := newCommand(t)
	signer := registrytest.NewEd25519(t)
	alice := registrytest.Did(1)

	t.Run("new onchain DID", func(t *testing.T) {
		b, err := call(t, cmd.NewOnchainDID, &NewOnchainDIDRequest{
			Account: registrytest.Account,
			Did:     alice,
			Keys:    []keys.UncheckedDidKey{{PublicKey: signer.PublicKey()}},
		})
		require.NoError(t, err)

		var resp EventsResponse
		require.NoError(t, json.Unmarshal(b.Bytes(), &resp))
		require.Len(t, resp.Events, 1)
		require.Equal(t, did.OnChainDidAdded, resp.Events[0].Name)
	})

	t.Run("duplicate DID is rejected", func(t *testing.T) {
		_, err := call(t, cmd.NewOnchainDID, &NewOnchainDIDRequest{
			Account: registrytest.Account,
			Did:     alice,
			Keys:    []keys.UncheckedDidKey{{PublicKey: signer.PublicKey()}},
		})
		requireCode(t, err, CallRejectedErrorCode, command.ValidationError, "DidAlreadyExists")
	})

	t.Run("missing account", func(t *testing.T) {
		_, err := call(t, cmd.NewOnchainDID, &NewOnchainDIDRequest{Did: registrytest.Did(2)})
		requireCode(t, err, InvalidRequestErrorCode, command.ValidationError, errEmptyAccount)
	})

	t.Run("malformed request", func(t *testing.T) {
		_, err := call(t, cmd.NewOnchainDID, "{")
		requireCode(t, err, InvalidRequestErrorCode, command.ValidationError, "request decode")
	})

	t.Run("nonce of the new DID", func(t *testing.T) {
		b, err := call(t, cmd.GetNonce, map[string]interface{}{"owner": alice.String()})
		require.NoError(t, err)

		var resp NonceResponse
		require.NoError(t, json.Unmarshal(b.Bytes(), &resp))
		require.Equal(t, registrytest.StartBlock, resp.Nonce)
	})

	t.Run("add keys signed over the payload", func(t *testing.T) {
		second := registrytest.NewEd25519(t)
		a := &action.AddKeys{
			Did:   alice,
			Keys:  []keys.UncheckedDidKey{{PublicKey: second.PublicKey()}},
			Nonce: registrytest.StartBlock + 1,
		}

		body, e := json.Marshal(a)
		require.NoError(t, e)

		b, err := call(t, cmd.Payload, &PayloadRequest{Action: "AddKeys", Body: body})
		require.NoError(t, err)

		var payload PayloadResponse
		require.NoError(t, json.Unmarshal(b.Bytes(), &payload))
		require.Equal(t, action.Encode(a), []byte(payload.Payload))

		sig := did.NewDidSignature(alice, 1, signer.Sign(payload.Payload))

		_, err = call(t, cmd.AddKeys, &SignedRequest[action.AddKeys]{
			Account:   registrytest.Account,
			Action:    a,
			Signature: &sig,
		})
		require.NoError(t, err)

		_, err = call(t, cmd.AddKeys, &SignedRequest[action.AddKeys]{
			Account:   registrytest.Account,
			Action:    a,
			Signature: &sig,
		})
		requireCode(t, err, CallRejectedErrorCode, command.ValidationError, "IncorrectNonce")
	})

	t.Run("signed action without signature", func(t *testing.T) {
		_, err := call(t, cmd.AddKeys, &SignedRequest[action.AddKeys]{
			Account: registrytest.Account,
			Action:  &action.AddKeys{Did: alice},
		})
		requireCode(t, err, InvalidRequestErrorCode, command.ValidationError, errEmptySignature)

		_, err = call(t, cmd.RemoveKeys, &SignedRequest[action.RemoveKeys]{Account: registrytest.Account})
		requireCode(t, err, InvalidRequestErrorCode, command.ValidationError, errEmptyAction)
	})

	t.Run("details with options given as strings", func(t *testing.T) {
		b, err := call(t, cmd.GetDID, map[string]interface{}{
			"did":    types.EncodeHex(alice[:]),
			"params": "15",
		})
		require.NoError(t, err)

		var details did.AggregatedDetails
		require.NoError(t, json.Unmarshal(b.Bytes(), &details))
		require.Equal(t, alice, details.Did)
		require.Len(t, details.Keys, 2)
	})

	t.Run("details of an absent DID", func(t *testing.T) {
		_, err := call(t, cmd.GetDID, map[string]interface{}{"did": registrytest.Did(9).String()})
		requireCode(t, err, NotFoundErrorCode, command.ValidationError, "EntityDoesntExist")
	})

	t.Run("unknown query option type", func(t *testing.T) {
		_, err := call(t, cmd.GetDID, map[string]interface{}{"did": "zz"})
		requireCode(t, err, InvalidRequestErrorCode, command.ValidationError, "request decode")
	})
}

func TestRevocationCommands(t *testing.T) {
	cmd := newCommand(t)
	signer := registrytest.NewEd25519(t)
	alice := registrytest.Did(1)
	reg := registrytest.ID32[types.RegistryID](7)
	revokeID := registrytest.ID32[types.RevokeID](3)

	_, err := call(t, cmd.NewOnchainDID, &NewOnchainDIDRequest{
		Account: registrytest.Account,
		Did:     alice,
		Keys:    []keys.UncheckedDidKey{{PublicKey: signer.PublicKey()}},
	})
	require.NoError(t, err)

	t.Run("new registry", func(t *testing.T) {
		b, err := call(t, cmd.NewRegistry, &NewRegistryRequest{
			Account:  registrytest.Account,
			ID:       reg,
			Registry: revoke.Registry{Policy: policy.OneOfDids(alice)},
		})
		require.NoError(t, err)
		require.Contains(t, b.String(), revoke.RegistryAdded)
	})

	t.Run("revoke with a proof", func(t *testing.T) {
		a := &action.Revoke{RegistryID: reg, RevokeIDs: []types.RevokeID{revokeID}}

		_, err := call(t, cmd.Revoke, &ProofRequest[action.Revoke]{
			Account: registrytest.Account,
			Action:  a,
			Proof:   policy.Proof{registrytest.ProofSig(signer, alice, 1, a, registrytest.StartBlock+1)},
		})
		require.NoError(t, err)

		b, err := call(t, cmd.IsRevoked, map[string]interface{}{
			"id":       types.EncodeHex(reg[:]),
			"revokeId": types.EncodeHex(revokeID[:]),
		})
		require.NoError(t, err)

		var resp RevokedResponse
		require.NoError(t, json.Unmarshal(b.Bytes(), &resp))
		require.True(t, resp.Revoked)
	})

	t.Run("revocation status needs a revoke id", func(t *testing.T) {
		_, err := call(t, cmd.IsRevoked, map[string]interface{}{"id": types.EncodeHex(reg[:])})
		requireCode(t, err, QueryErrorCode, command.ValidationError, errEmptyRevokeID)
	})

	t.Run("registry query", func(t *testing.T) {
		b, err := call(t, cmd.GetRegistry, map[string]interface{}{"id": types.EncodeHex(reg[:])})
		require.NoError(t, err)

		var r revoke.Registry
		require.NoError(t, json.Unmarshal(b.Bytes(), &r))
		require.Equal(t, policy.OneOfDids(alice), r.Policy)
	})

	t.Run("events by registry", func(t *testing.T) {
		b, err := call(t, cmd.GetEvents, map[string]interface{}{"topic": types.EncodeHex(reg[:])})
		require.NoError(t, err)

		var resp EventsResponse
		require.NoError(t, json.Unmarshal(b.Bytes(), &resp))
		require.Len(t, resp.Events, 2)
		require.Equal(t, revoke.RegistryAdded, resp.Events[0].Name)
		require.Equal(t, revoke.RevokedIn, resp.Events[1].Name)
	})
}

func TestTrustRegistryCommands(t *testing.T) {
	cmd := newCommand(t)
	signer := registrytest.NewEd25519(t)
	alice := registrytest.Did(1)
	reg := registrytest.ID32[types.TrustRegistryID](4)
	schema := registrytest.ID32[types.SchemaID](5)

	_, err := call(t, cmd.NewOnchainDID, &NewOnchainDIDRequest{
		Account: registrytest.Account,
		Did:     alice,
		Keys:    []keys.UncheckedDidKey{{PublicKey: signer.PublicKey()}},
	})
	require.NoError(t, err)

	t.Run("init", func(t *testing.T) {
		a := &action.InitOrUpdateTrustRegistry{RegistryID: reg, Name: "gov", Nonce: registrytest.StartBlock + 1}

		b, err := call(t, cmd.InitOrUpdateTrustRegistry, &SignedRequest[action.InitOrUpdateTrustRegistry]{
			Account:   registrytest.Account,
			Action:    a,
			Signature: registrytest.DidSig(signer, alice, 1, a),
		})
		require.NoError(t, err)
		require.Contains(t, b.String(), trustregistry.TrustRegistryInitialized)
	})

	t.Run("add schema", func(t *testing.T) {
		m := types.NewSchemaMetadata(
			map[types.DidOrDidMethodKey]types.VerificationPrices{types.FromDid(alice): {"USD": 5}}, nil)
		a := &action.SetSchemasMetadata{
			RegistryID: reg,
			Schemas: types.SchemasUpdate{Changes: []types.SchemaChange{
				{Schema: schema, Kind: types.ChangeAdd, Metadata: &m},
			}},
			Nonce: registrytest.StartBlock + 2,
		}

		b, err := call(t, cmd.SetSchemasMetadata, &SignedRequest[action.SetSchemasMetadata]{
			Account:   registrytest.Account,
			Action:    a,
			Signature: registrytest.DidSig(signer, alice, 1, a),
		})
		require.NoError(t, err)
		require.Contains(t, b.String(), trustregistry.SchemaMetadataAdded)
	})

	t.Run("registry query", func(t *testing.T) {
		b, err := call(t, cmd.GetTrustRegistry, map[string]interface{}{"id": reg.String()})
		require.NoError(t, err)

		var resp TrustRegistryResponse
		require.NoError(t, json.Unmarshal(b.Bytes(), &resp))
		require.Equal(t, "gov", resp.Info.Name)
		require.Equal(t, types.FromDid(alice), resp.Info.Convener)
		require.Len(t, resp.Schemas, 1)
		require.Equal(t, uint64(5), resp.Schemas[0].Metadata.Issuers[0].Prices["USD"])

		_, err = call(t, cmd.GetTrustRegistry, map[string]interface{}{"id": reg.String()[:len(reg.String())-2] + "ff"})
		requireCode(t, err, NotFoundErrorCode, command.ValidationError, "EntityDoesntExist")
	})

	t.Run("schema query", func(t *testing.T) {
		b, err := call(t, cmd.GetSchemaMetadata, map[string]interface{}{"schemaId": schema.String()})
		require.NoError(t, err)

		var resp SchemasResponse
		require.NoError(t, json.Unmarshal(b.Bytes(), &resp))
		require.Len(t, resp.Schemas, 1)
		require.Equal(t, reg, resp.Schemas[0].Registry)

		_, err = call(t, cmd.GetSchemaMetadata, map[string]interface{}{
			"schemaId":   schema.String(),
			"registryId": registrytest.ID32[types.TrustRegistryID](9).String(),
		})
		requireCode(t, err, NotFoundErrorCode, command.ValidationError, "EntityDoesntExist")
	})

	t.Run("registries by role", func(t *testing.T) {
		for _, role := range []string{roleConvener, roleIssuer} {
			b, err := call(t, cmd.GetTrustRegistries, map[string]interface{}{"party": alice.String(), "role": role})
			require.NoError(t, err)

			var resp TrustRegistriesResponse
			require.NoError(t, json.Unmarshal(b.Bytes(), &resp))
			require.Equal(t, []types.TrustRegistryID{reg}, resp.Registries)
		}

		_, err := call(t, cmd.GetTrustRegistries, map[string]interface{}{"party": alice.String(), "role": "auditor"})
		requireCode(t, err, QueryErrorCode, command.ValidationError, "auditor")
	})

	t.Run("issuer configuration", func(t *testing.T) {
		b, err := call(t, cmd.GetIssuerConfiguration, map[string]interface{}{
			"registryId": reg.String(),
			"issuer":     alice.String(),
		})
		require.NoError(t, err)

		var resp IssuerConfigurationResponse
		require.NoError(t, json.Unmarshal(b.Bytes(), &resp))
		require.False(t, resp.Configuration.Suspended)
		require.Equal(t, []types.SchemaID{schema}, resp.Schemas)
		require.Empty(t, resp.DelegatedSchemas)
	})

	t.Run("suspend", func(t *testing.T) {
		a := &action.SuspendIssuers{
			RegistryID: reg,
			Issuers:    []types.DidOrDidMethodKey{types.FromDid(alice)},
			Nonce:      registrytest.StartBlock + 3,
		}

		b, err := call(t, cmd.SuspendIssuers, &SignedRequest[action.SuspendIssuers]{
			Account:   registrytest.Account,
			Action:    a,
			Signature: registrytest.DidSig(signer, alice, 1, a),
		})
		require.NoError(t, err)
		require.Contains(t, b.String(), trustregistry.IssuerSuspended)

		_, err = call(t, cmd.SuspendIssuers, &SignedRequest[action.SuspendIssuers]{
			Account:   registrytest.Account,
			Action:    a,
			Signature: registrytest.DidSig(signer, alice, 1, a),
		})
		requireCode(t, err, CallRejectedErrorCode, command.ValidationError, "IncorrectNonce")
	})
}

func TestPayload(t *testing.T) {
	cmd := newCommand(t)
	a := &action.RemoveRegistry{RegistryID: registrytest.ID32[types.RegistryID](1)}

	body, e := json.Marshal(a)
	require.NoError(t, e)

	t.Run("raw action with nonce", func(t *testing.T) {
		n := types.BlockNumber(5)

		b, err := call(t, cmd.Payload, &PayloadRequest{Action: "RemoveRegistry", Body: body, Nonce: &n})
		require.NoError(t, err)

		var resp PayloadResponse
		require.NoError(t, json.Unmarshal(b.Bytes(), &resp))
		require.Equal(t, action.EncodeWithNonce(a, n), []byte(resp.Payload))
	})

	t.Run("raw action without nonce", func(t *testing.T) {
		_, err := call(t, cmd.Payload, &PayloadRequest{Action: "RemoveRegistry", Body: body})
		requireCode(t, err, PayloadErrorCode, command.ValidationError, errEmptyNonce)
	})

	t.Run("unknown action", func(t *testing.T) {
		_, err := call(t, cmd.Payload, &PayloadRequest{Action: "Mint", Body: body})
		requireCode(t, err, PayloadErrorCode, command.ValidationError, "UnknownAction")
	})

	t.Run("malformed body", func(t *testing.T) {
		_, err := call(t, cmd.Payload, &PayloadRequest{Action: "AddBlob", Body: json.RawMessage(`[]`)})
		requireCode(t, err, PayloadErrorCode, command.ValidationError, "MalformedInput")
	})
}

func TestProposals(t *testing.T) {
	cmd := newCommand(t)

	t.Run("encode agreement", func(t *testing.T) {
		agree := &agreement.Agreement{On: "terms"}

		b, err := call(t, cmd.EncodeProposal, &ProposalRequest{Agree: agree})
		require.NoError(t, err)

		var resp ProposalResponse
		require.NoError(t, json.Unmarshal(b.Bytes(), &resp))
		require.Equal(t, registry.EncodeRootCall(&registry.Agree{Agreement: *agree}), []byte(resp.Proposal))
		require.Zero(t, resp.Round)
	})

	t.Run("exactly one call", func(t *testing.T) {
		_, err := call(t, cmd.EncodeProposal, &ProposalRequest{})
		requireCode(t, err, InvalidRequestErrorCode, command.ValidationError, errEmptyProposal)

		_, err = call(t, cmd.EncodeProposal, &ProposalRequest{
			Agree:      &agreement.Agreement{On: "terms"},
			SetMembers: &types.Membership{VoteRequirement: 1},
		})
		requireCode(t, err, InvalidRequestErrorCode, command.ValidationError, errEmptyProposal)
	})

	t.Run("execute without votes", func(t *testing.T) {
		_, err := call(t, cmd.ExecuteProposal, &ExecuteProposalRequest{
			Account:  registrytest.Account,
			Proposal: registry.EncodeRootCall(&registry.Agree{Agreement: agreement.Agreement{On: "terms"}}),
		})
		requireCode(t, err, CallRejectedErrorCode, command.ValidationError, "InsufficientVotes")
	})

	t.Run("default membership", func(t *testing.T) {
		b, err := call(t, cmd.GetMembership, nil)
		require.NoError(t, err)

		var resp MembershipResponse
		require.NoError(t, json.Unmarshal(b.Bytes(), &resp))
		require.Equal(t, uint64(1), resp.Membership.VoteRequirement)
		require.Empty(t, resp.Membership.Members)
	})
}

func TestAnchorAndBlock(t *testing.T) {
	cmd := newCommand(t)
	data := types.Bytes("anchored")

	t.Run("deploy", func(t *testing.T) {
		b, err := call(t, cmd.DeployAnchor, &DeployAnchorRequest{Account: registrytest.Account, Data: data})
		require.NoError(t, err)

		var resp AnchorResponse
		require.NoError(t, json.Unmarshal(b.Bytes(), &resp))
		require.Equal(t, anchor.Hash(data), resp.Hash)
		require.Len(t, resp.Events, 1)
	})

	t.Run("deploy twice", func(t *testing.T) {
		_, err := call(t, cmd.DeployAnchor, &DeployAnchorRequest{Account: registrytest.Account, Data: data})
		requireCode(t, err, CallRejectedErrorCode, command.ValidationError, "AnchorExists")
	})

	t.Run("deploy needs an account", func(t *testing.T) {
		_, err := call(t, cmd.DeployAnchor, &DeployAnchorRequest{Data: data})
		requireCode(t, err, InvalidRequestErrorCode, command.ValidationError, errEmptyAccount)
	})

	t.Run("anchor block", func(t *testing.T) {
		hash := anchor.Hash(data)

		b, err := call(t, cmd.GetAnchor, map[string]interface{}{"hash": types.EncodeHex(hash[:])})
		require.NoError(t, err)

		var resp AnchorBlockResponse
		require.NoError(t, json.Unmarshal(b.Bytes(), &resp))
		require.Equal(t, registrytest.StartBlock, resp.Block)
	})

	t.Run("absent blob", func(t *testing.T) {
		id := registrytest.ID32[types.BlobID](4)

		_, err := call(t, cmd.GetBlob, map[string]interface{}{"id": types.EncodeHex(id[:])})
		requireCode(t, err, NotFoundErrorCode, command.ValidationError, "EntityDoesntExist")
	})

	t.Run("current block", func(t *testing.T) {
		b, err := call(t, cmd.GetBlock, nil)
		require.NoError(t, err)
		require.Equal(t, `{"block":10}`, strings.TrimSpace(b.String()))
	})
}
