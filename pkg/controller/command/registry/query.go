/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package registry

import (
	"encoding"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/hyperledger/aries-did-registry/pkg/controller/command"
	"github.com/hyperledger/aries-did-registry/pkg/registry/anchor"
	"github.com/hyperledger/aries-did-registry/pkg/registry/errkind"
	"github.com/hyperledger/aries-did-registry/pkg/registry/event"
	"github.com/hyperledger/aries-did-registry/pkg/registry/runtime"
	"github.com/hyperledger/aries-did-registry/pkg/registry/store"
	"github.com/hyperledger/aries-did-registry/pkg/registry/trustregistry"
	"github.com/hyperledger/aries-did-registry/pkg/registry/types"
)

// query methods.
const (
	GetDIDCommandMethod                   = "GetDID"
	GetNonceCommandMethod                 = "GetNonce"
	GetRegistryCommandMethod              = "GetRegistry"
	IsRevokedCommandMethod                = "IsRevoked"
	GetStatusListCommandMethod            = "GetStatusList"
	GetOffchainParamsCommandMethod        = "GetOffchainParams"
	GetOffchainPublicKeysCommandMethod    = "GetOffchainPublicKeys"
	GetAccumulatorParamsCommandMethod     = "GetAccumulatorParams"
	GetAccumulatorPublicKeysCommandMethod = "GetAccumulatorPublicKeys"
	GetAccumulatorCommandMethod           = "GetAccumulator"
	GetBlobCommandMethod                  = "GetBlob"
	GetAttestationCommandMethod           = "GetAttestation"
	GetTrustRegistryCommandMethod         = "GetTrustRegistry"
	GetSchemaMetadataCommandMethod        = "GetSchemaMetadata"
	GetTrustRegistriesCommandMethod       = "GetTrustRegistries"
	GetIssuerConfigurationCommandMethod   = "GetIssuerConfiguration"
	GetAnchorCommandMethod                = "GetAnchor"
	GetMembershipCommandMethod            = "GetMembership"
	GetEventsCommandMethod                = "GetEvents"
	GetBlockCommandMethod                 = "GetBlock"

	errEmptyRevokeID = "revokeId is mandatory"
	errEmptyTopic    = "topic is mandatory"

	// trust registry roles.
	roleConvener = "convener"
	roleIssuer   = "issuer"
	roleVerifier = "verifier"
)

var errNotFound = errors.New("not found")

// GetDID returns the aggregated details of a DID.
func (o *Command) GetDID(rw io.Writer, req io.Reader) command.Error {
	return query(o, GetDIDCommandMethod, rw, req, func(tx *store.Tx, q *DIDQuery) (interface{}, error) {
		details, err := o.registry.DIDs.Details(tx, q.Did, q.Params)
		if err != nil || details == nil {
			return nil, orNotFound(err)
		}

		return details, nil
	})
}

// GetNonce returns the current nonce of a DID or DID method key.
func (o *Command) GetNonce(rw io.Writer, req io.Reader) command.Error {
	return query(o, GetNonceCommandMethod, rw, req, func(tx *store.Tx, q *OwnerQuery) (interface{}, error) {
		signer, err := parseOwner(q.Owner)
		if err != nil {
			return nil, err
		}

		n, err := o.registry.DIDs.Nonce(tx, signer)
		if err != nil {
			return nil, err
		}

		return &NonceResponse{Nonce: n}, nil
	})
}

// GetRegistry returns a revocation registry.
func (o *Command) GetRegistry(rw io.Writer, req io.Reader) command.Error {
	return query(o, GetRegistryCommandMethod, rw, req, func(tx *store.Tx, q *RegistryQuery) (interface{}, error) {
		r, err := o.registry.Revoke.Registry(tx, q.ID)
		if err != nil || r == nil {
			return nil, orNotFound(err)
		}

		return r, nil
	})
}

// IsRevoked tells whether a credential id is revoked in a registry.
func (o *Command) IsRevoked(rw io.Writer, req io.Reader) command.Error {
	return query(o, IsRevokedCommandMethod, rw, req, func(tx *store.Tx, q *RegistryQuery) (interface{}, error) {
		if q.RevokeID == nil {
			return nil, fmt.Errorf("%w: %s", errkind.MalformedInput, errEmptyRevokeID)
		}

		revoked, err := o.registry.Revoke.IsRevoked(tx, q.ID, *q.RevokeID)
		if err != nil {
			return nil, err
		}

		return &RevokedResponse{Revoked: revoked}, nil
	})
}

// GetStatusList returns a status list credential and its policy.
func (o *Command) GetStatusList(rw io.Writer, req io.Reader) command.Error {
	return query(o, GetStatusListCommandMethod, rw, req, func(tx *store.Tx, q *StatusListQuery) (interface{}, error) {
		c, err := o.registry.StatusList.Credential(tx, q.ID)
		if err != nil || c == nil {
			return nil, orNotFound(err)
		}

		return c, nil
	})
}

// GetOffchainParams returns the offchain params of an owner, or one of them when an id is given.
func (o *Command) GetOffchainParams(rw io.Writer, req io.Reader) command.Error {
	return query(o, GetOffchainParamsCommandMethod, rw, req, func(tx *store.Tx, q *OwnerQuery) (interface{}, error) {
		owner, err := parseOwner(q.Owner)
		if err != nil {
			return nil, err
		}

		if q.ID == 0 {
			params, err := o.registry.Offchain.DidParams(tx, owner)
			if err != nil {
				return nil, err
			}

			return &OffchainParamsResponse{Params: params}, nil
		}

		p, err := o.registry.Offchain.Params(tx, types.OwnerRef{Owner: owner, ID: q.ID})
		if err != nil || p == nil {
			return nil, orNotFound(err)
		}

		return p, nil
	})
}

// GetOffchainPublicKeys returns the offchain public keys of a DID, or one with its params when an id is given.
func (o *Command) GetOffchainPublicKeys(rw io.Writer, req io.Reader) command.Error {
	return query(o, GetOffchainPublicKeysCommandMethod, rw, req,
		func(tx *store.Tx, q *OwnerQuery) (interface{}, error) {
			owner, err := parseOwner(q.Owner)
			if err != nil {
				return nil, err
			}

			d, ok := owner.AsDid()
			if !ok {
				return nil, fmt.Errorf("%w: offchain public keys belong to DIDs", errkind.MalformedInput)
			}

			if q.ID == 0 {
				pks, err := o.registry.Offchain.DidPublicKeys(tx, d)
				if err != nil {
					return nil, err
				}

				return &OffchainPublicKeysResponse{Keys: pks}, nil
			}

			k, p, err := o.registry.Offchain.PublicKeyWithParams(tx, d, q.ID)
			if err != nil || k == nil {
				return nil, orNotFound(err)
			}

			return &OffchainPublicKeyResponse{Key: *k, Params: p}, nil
		})
}

// GetAccumulatorParams returns the accumulator params of an owner, or one of them when an id is given.
func (o *Command) GetAccumulatorParams(rw io.Writer, req io.Reader) command.Error {
	return query(o, GetAccumulatorParamsCommandMethod, rw, req,
		func(tx *store.Tx, q *OwnerQuery) (interface{}, error) {
			owner, err := parseOwner(q.Owner)
			if err != nil {
				return nil, err
			}

			if q.ID == 0 {
				params, err := o.registry.Accumulator.OwnerParams(tx, owner)
				if err != nil {
					return nil, err
				}

				return &AccumulatorParamsResponse{Params: params}, nil
			}

			p, err := o.registry.Accumulator.Params(tx, types.OwnerRef{Owner: owner, ID: q.ID})
			if err != nil || p == nil {
				return nil, orNotFound(err)
			}

			return p, nil
		})
}

// GetAccumulatorPublicKeys returns the accumulator keys of an owner, or one with its params when an id is given.
func (o *Command) GetAccumulatorPublicKeys(rw io.Writer, req io.Reader) command.Error {
	return query(o, GetAccumulatorPublicKeysCommandMethod, rw, req,
		func(tx *store.Tx, q *OwnerQuery) (interface{}, error) {
			owner, err := parseOwner(q.Owner)
			if err != nil {
				return nil, err
			}

			if q.ID == 0 {
				pks, err := o.registry.Accumulator.OwnerPublicKeys(tx, owner)
				if err != nil {
					return nil, err
				}

				return &AccumulatorPublicKeysResponse{Keys: pks}, nil
			}

			pk, err := o.registry.Accumulator.PublicKeyWithParams(tx, types.OwnerRef{Owner: owner, ID: q.ID})
			if err != nil || pk == nil {
				return nil, orNotFound(err)
			}

			return pk, nil
		})
}

// GetAccumulator returns an accumulator with its public key and params.
func (o *Command) GetAccumulator(rw io.Writer, req io.Reader) command.Error {
	return query(o, GetAccumulatorCommandMethod, rw, req, func(tx *store.Tx, q *AccumulatorQuery) (interface{}, error) {
		a, err := o.registry.Accumulator.Accumulator(tx, q.ID)
		if err != nil || a == nil {
			return nil, orNotFound(err)
		}

		details, err := o.registry.Accumulator.AccumulatorWithPublicKeyAndParams(tx, q.ID)
		if err != nil {
			return nil, err
		}

		return &AccumulatorResponse{Accumulator: *a, Details: details}, nil
	})
}

// GetBlob returns a blob and its owner.
func (o *Command) GetBlob(rw io.Writer, req io.Reader) command.Error {
	return query(o, GetBlobCommandMethod, rw, req, func(tx *store.Tx, q *BlobQuery) (interface{}, error) {
		b, err := o.registry.Blob.Blob(tx, q.ID)
		if err != nil || b == nil {
			return nil, orNotFound(err)
		}

		return b, nil
	})
}

// GetAttestation returns the attestation of a DID.
func (o *Command) GetAttestation(rw io.Writer, req io.Reader) command.Error {
	return query(o, GetAttestationCommandMethod, rw, req, func(tx *store.Tx, q *DIDQuery) (interface{}, error) {
		a, err := o.registry.Attest.Attestation(tx, q.Did)
		if err != nil || a == nil {
			return nil, orNotFound(err)
		}

		return a, nil
	})
}

// GetTrustRegistry returns a trust registry with its schemas.
func (o *Command) GetTrustRegistry(rw io.Writer, req io.Reader) command.Error {
	return query(o, GetTrustRegistryCommandMethod, rw, req,
		func(tx *store.Tx, q *TrustRegistryQuery) (interface{}, error) {
			info, err := o.registry.TrustRegistry.Info(tx, q.ID)
			if err != nil || info == nil {
				return nil, orNotFound(err)
			}

			schemas, err := o.registry.TrustRegistry.RegistrySchemas(tx, q.ID)
			if err != nil {
				return nil, err
			}

			return &TrustRegistryResponse{Info: *info, Schemas: schemas}, nil
		})
}

// GetSchemaMetadata returns the metadata of a schema in one or every trust registry.
func (o *Command) GetSchemaMetadata(rw io.Writer, req io.Reader) command.Error {
	return query(o, GetSchemaMetadataCommandMethod, rw, req, func(tx *store.Tx, q *SchemaQuery) (interface{}, error) {
		if q.Registry == nil {
			schemas, err := o.registry.TrustRegistry.SchemaRegistries(tx, q.Schema)
			if err != nil {
				return nil, err
			}

			return &SchemasResponse{Schemas: schemas}, nil
		}

		m, err := o.registry.TrustRegistry.SchemaMetadata(tx, *q.Registry, q.Schema)
		if err != nil || m == nil {
			return nil, orNotFound(err)
		}

		s := trustregistry.Schema{Registry: *q.Registry, Schema: q.Schema, Metadata: *m}

		return &SchemasResponse{Schemas: []trustregistry.Schema{s}}, nil
	})
}

// GetTrustRegistries returns the trust registries a DID or DID method key convenes, issues in or
// verifies in.
func (o *Command) GetTrustRegistries(rw io.Writer, req io.Reader) command.Error {
	return query(o, GetTrustRegistriesCommandMethod, rw, req, func(tx *store.Tx, q *PartyQuery) (interface{}, error) {
		party, err := parseOwner(q.Party)
		if err != nil {
			return nil, err
		}

		var ids []types.TrustRegistryID

		switch q.Role {
		case roleConvener:
			ids, err = o.registry.TrustRegistry.ConvenerRegistries(tx, party)
		case roleIssuer:
			ids, err = o.registry.TrustRegistry.IssuerRegistries(tx, party)
		case roleVerifier:
			ids, err = o.registry.TrustRegistry.VerifierRegistries(tx, party)
		default:
			return nil, fmt.Errorf("%w: role %q", errkind.MalformedInput, q.Role)
		}

		if err != nil {
			return nil, err
		}

		return &TrustRegistriesResponse{Registries: ids}, nil
	})
}

// GetIssuerConfiguration returns the state of an issuer in a trust registry.
func (o *Command) GetIssuerConfiguration(rw io.Writer, req io.Reader) command.Error {
	return query(o, GetIssuerConfigurationCommandMethod, rw, req,
		func(tx *store.Tx, q *IssuerQuery) (interface{}, error) {
			issuer, err := parseOwner(q.Issuer)
			if err != nil {
				return nil, err
			}

			c, err := o.registry.TrustRegistry.IssuerConfiguration(tx, q.Registry, issuer)
			if err != nil {
				return nil, err
			}

			schemas, err := o.registry.TrustRegistry.IssuerSchemas(tx, q.Registry, issuer)
			if err != nil {
				return nil, err
			}

			delegated, err := o.registry.TrustRegistry.DelegatedIssuerSchemas(tx, q.Registry, issuer)
			if err != nil {
				return nil, err
			}

			return &IssuerConfigurationResponse{Configuration: *c, Schemas: schemas, DelegatedSchemas: delegated}, nil
		})
}

// GetAnchor returns the block an anchor was deployed at.
func (o *Command) GetAnchor(rw io.Writer, req io.Reader) command.Error {
	return query(o, GetAnchorCommandMethod, rw, req, func(tx *store.Tx, q *AnchorQuery) (interface{}, error) {
		b, err := anchor.Block(tx, q.Hash)
		if err != nil || b == nil {
			return nil, orNotFound(err)
		}

		return &AnchorBlockResponse{Block: *b}, nil
	})
}

// GetMembership returns the master membership and the current round.
func (o *Command) GetMembership(rw io.Writer, req io.Reader) command.Error {
	return query(o, GetMembershipCommandMethod, rw, req, func(tx *store.Tx, _ *struct{}) (interface{}, error) {
		m, err := o.registry.Master.Membership(tx)
		if err != nil {
			return nil, err
		}

		round, err := o.registry.Master.Round(tx)
		if err != nil {
			return nil, err
		}

		return &MembershipResponse{Membership: *m, Round: round}, nil
	})
}

// GetEvents returns the events indexed by a topic in submission order.
func (o *Command) GetEvents(rw io.Writer, req io.Reader) command.Error {
	return query(o, GetEventsCommandMethod, rw, req, func(tx *store.Tx, q *EventsQuery) (interface{}, error) {
		topic := strings.ToLower(strings.TrimPrefix(q.Topic, "0x"))
		if topic == "" {
			return nil, fmt.Errorf("%w: %s", errkind.MalformedInput, errEmptyTopic)
		}

		evs, err := event.ByTopic(tx, topic)
		if err != nil {
			return nil, err
		}

		return &EventsResponse{Events: evs}, nil
	})
}

// GetBlock returns the current block.
func (o *Command) GetBlock(rw io.Writer, _ io.Reader) command.Error {
	writeResponse(rw, &BlockResponse{Block: o.registry.BlockNumber()})

	return nil
}

// query decodes the options map of req into Q and writes the result of fn over a read-only view.
func query[Q any](o *Command, method string, rw io.Writer, req io.Reader,
	fn func(tx *store.Tx, q *Q) (interface{}, error)) command.Error {
	var q Q

	if err := decodeOptions(req, &q); err != nil {
		cmdLog.Info(method, err.Error())
		return command.NewValidationError(InvalidRequestErrorCode, fmt.Errorf("request decode : %w", err))
	}

	var result interface{}

	err := o.registry.Query(func(ctx *runtime.Context) error {
		var err error

		result, err = fn(ctx.Tx(), &q)

		return err
	})

	switch {
	case errors.Is(err, errNotFound):
		cmdLog.Debug(method, err.Error())
		return command.NewValidationError(NotFoundErrorCode, fmt.Errorf("%w: %s", errkind.EntityDoesntExist, err))
	case err != nil:
		return fail(method, QueryErrorCode, err)
	}

	writeResponse(rw, result)

	cmdLog.Debug(method, "success")

	return nil
}

func orNotFound(err error) error {
	if err != nil {
		return err
	}

	return errNotFound
}

// decodeOptions reads a JSON object of options and maps it onto v. String options are parsed by the
// text or JSON unmarshaler of the target field, so hex identifiers and numbers from URLs both decode.
// An empty body decodes to no options.
func decodeOptions(req io.Reader, v interface{}) error {
	var opts map[string]interface{}

	if req != nil {
		if err := json.NewDecoder(req).Decode(&opts); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       unmarshalerHook,
		WeaklyTypedInput: true,
		TagName:          "json",
		Result:           v,
	})
	if err != nil {
		return err
	}

	return dec.Decode(opts)
}

func unmarshalerHook(from, to reflect.Type, data interface{}) (interface{}, error) {
	s, ok := data.(string)
	if !ok || from.Kind() != reflect.String {
		return data, nil
	}

	target := reflect.New(to).Interface()

	switch u := target.(type) {
	case encoding.TextUnmarshaler:
		if err := u.UnmarshalText([]byte(s)); err != nil {
			return nil, err
		}
	case json.Unmarshaler:
		raw, err := json.Marshal(s)
		if err != nil {
			return nil, err
		}

		if err := u.UnmarshalJSON(raw); err != nil {
			return nil, err
		}
	default:
		return data, nil
	}

	return reflect.ValueOf(target).Elem().Interface(), nil
}
