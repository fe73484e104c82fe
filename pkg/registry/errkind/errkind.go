/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package errkind defines the stable error tags reported by registry operations.
//
// A Kind is comparable, so callers match failures with errors.Is:
//
//	if errors.Is(err, errkind.IncorrectNonce) { ... }
//
// Modules wrap a Kind with context using fmt.Errorf("%w: ...", kind) so the tag survives.
package errkind

import (
	"errors"
)

// Kind is a stable, named failure of a registry operation.
type Kind string

func (k Kind) Error() string {
	return string(k)
}

// Of returns the Kind carried by err, if any.
func Of(err error) (Kind, bool) {
	var k Kind

	if errors.As(err, &k) {
		return k, true
	}

	return "", false
}

// Signature and key resolution.
const (
	NoKeyForDid                          Kind = "NoKeyForDid"
	InvalidSignature                     Kind = "InvalidSignature"
	IncompatibleKey                      Kind = "IncompatibleKey"
	InsufficientVerificationRelationship Kind = "InsufficientVerificationRelationship"
	InvalidSigner                        Kind = "InvalidSigner"
	KeyAgreementCantBeUsedForSigning     Kind = "KeyAgreementCantBeUsedForSigning"
	SigningKeyCantBeUsedForKeyAgreement  Kind = "SigningKeyCantBeUsedForKeyAgreement"
	InvalidPublicKey                     Kind = "InvalidPublicKey"
)

// Nonces, counters and authorization.
const (
	IncorrectNonce     Kind = "IncorrectNonce"
	IncIDOverflow      Kind = "IncIDOverflow"
	NotAuthorized      Kind = "NotAuthorized"
	BadOrigin          Kind = "BadOrigin"
	EmptyPayload       Kind = "EmptyPayload"
	EntityDoesntExist  Kind = "EntityDoesntExist"
	TooManySignatures  Kind = "TooManySignatures"
	DuplicateSigner    Kind = "DuplicateSigner"
	EmptyPolicy        Kind = "EmptyPolicy"
	TooManyControllers Kind = "TooManyControllers"
	TooBig             Kind = "TooBig"
	UnknownRootCall    Kind = "UnknownRootCall"
	UnknownAction      Kind = "UnknownAction"
	MalformedInput     Kind = "MalformedInput"
)

// DIDs.
const (
	DidAlreadyExists             Kind = "DidAlreadyExists"
	DidDoesNotExist              Kind = "DidDoesNotExist"
	ExpectedOnChainDid           Kind = "ExpectedOnChainDid"
	ExpectedOffChainDid          Kind = "ExpectedOffChainDid"
	DidNotOwnedByAccount         Kind = "DidNotOwnedByAccount"
	DidMethodKeyExists           Kind = "DidMethodKeyExists"
	OnlyControllerCanUpdate      Kind = "OnlyControllerCanUpdate"
	ControllerIsAlreadyAdded     Kind = "ControllerIsAlreadyAdded"
	NoControllerForDid           Kind = "NoControllerForDid"
	NoControllerProvided         Kind = "NoControllerProvided"
	InvalidServiceEndpoint       Kind = "InvalidServiceEndpoint"
	ServiceEndpointAlreadyExists Kind = "ServiceEndpointAlreadyExists"
	ServiceEndpointDoesNotExist  Kind = "ServiceEndpointDoesNotExist"
)

// Revocation registries and status-list credentials.
const (
	RegistryExists                    Kind = "RegistryExists"
	RegistryDoesntExist               Kind = "RegistryDoesntExist"
	AddOnly                           Kind = "AddOnly"
	StatusListCredentialAlreadyExists Kind = "StatusListCredentialAlreadyExists"
	StatusListCredentialDoesntExist   Kind = "StatusListCredentialDoesntExist"
	StatusListCredentialTooSmall      Kind = "StatusListCredentialTooSmall"
	StatusListCredentialTooBig        Kind = "StatusListCredentialTooBig"
)

// Offchain signatures and accumulators.
const (
	ParamsDontExist          Kind = "ParamsDontExist"
	PublicKeyDoesntExist     Kind = "PublicKeyDoesntExist"
	IncorrectParamsScheme    Kind = "IncorrectParamsScheme"
	NotOwner                 Kind = "NotOwner"
	NotParamsOwner           Kind = "NotParamsOwner"
	NotPublicKeyOwner        Kind = "NotPublicKeyOwner"
	NotAccumulatorOwner      Kind = "NotAccumulatorOwner"
	AccumulatorAlreadyExists Kind = "AccumulatorAlreadyExists"
	AccumulatorDoesntExist   Kind = "AccumulatorDoesntExist"
	AccumulatedTooBig        Kind = "AccumulatedTooBig"
)

// Blobs, attestations and anchors.
const (
	BlobAlreadyExists Kind = "BlobAlreadyExists"
	PriorityTooLow    Kind = "PriorityTooLow"
	AnchorExists      Kind = "AnchorExists"
)

// Master and agreements.
const (
	NotMember              Kind = "NotMember"
	InsufficientVotes      Kind = "InsufficientVotes"
	BadSig                 Kind = "BadSig"
	ZeroVoteRequirement    Kind = "ZeroVoteRequirement"
	VoteRequirementTooHigh Kind = "VoteRequirementTooHigh"
	EmptyAgreement         Kind = "EmptyAgreement"
	EmptyUrl               Kind = "EmptyUrl" //nolint:revive,stylecheck
)

// Trust registries.
const (
	TrustRegistryDoesntExist    Kind = "TrustRegistryDoesntExist"
	TooManyRegistries           Kind = "TooManyRegistries"
	NotTheConvener              Kind = "NotTheConvener"
	NoSuchIssuer                Kind = "NoSuchIssuer"
	SchemaMetadataAlreadyExists Kind = "SchemaMetadataAlreadyExists"
	SchemaMetadataDoesntExist   Kind = "SchemaMetadataDoesntExist"
	AlreadySuspended            Kind = "AlreadySuspended"
	NotSuspended                Kind = "NotSuspended"
	AlreadyExists               Kind = "AlreadyExists"
	DoesntExist                 Kind = "DoesntExist"
	InvalidActor                Kind = "InvalidActor"
)
