/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package types

import (
	"fmt"

	"github.com/hyperledger/aries-did-registry/pkg/registry/errkind"
	"github.com/hyperledger/aries-did-registry/pkg/registry/scale"
)

// Limits caps the sizes of stored and submitted values.
type Limits struct {
	MaxPolicyControllers uint32 `json:"maxPolicyControllers"`

	MaxDidDocRefSize                uint32 `json:"maxDidDocRefSize"`
	MaxDidServiceEndpointIDSize     uint32 `json:"maxDidServiceEndpointIdSize"`
	MaxDidServiceEndpointOriginSize uint32 `json:"maxDidServiceEndpointOriginSize"`
	MaxDidServiceEndpointOrigins    uint32 `json:"maxDidServiceEndpointOrigins"`

	MinStatusListCredentialSize uint32 `json:"minStatusListCredentialSize"`
	MaxStatusListCredentialSize uint32 `json:"maxStatusListCredentialSize"`

	MaxPSPublicKeySize         uint32 `json:"maxPSPublicKeySize"`
	MaxBBSPublicKeySize        uint32 `json:"maxBBSPublicKeySize"`
	MaxBBSPlusPublicKeySize    uint32 `json:"maxBBSPlusPublicKeySize"`
	MaxOffchainParamsLabelSize uint32 `json:"maxOffchainParamsLabelSize"`
	MaxOffchainParamsBytesSize uint32 `json:"maxOffchainParamsBytesSize"`

	MaxAccumulatorLabelSize       uint32 `json:"maxAccumulatorLabelSize"`
	MaxAccumulatorParamsSize      uint32 `json:"maxAccumulatorParamsSize"`
	MaxAccumulatorPublicKeySize   uint32 `json:"maxAccumulatorPublicKeySize"`
	MaxAccumulatorAccumulatedSize uint32 `json:"maxAccumulatorAccumulatedSize"`

	MaxBlobSize      uint32 `json:"maxBlobSize"`
	MaxIriSize       uint32 `json:"maxIriSize"`
	MaxMasterMembers uint32 `json:"maxMasterMembers"`

	MaxTrustRegistryNameSize         uint32 `json:"maxTrustRegistryNameSize"`
	MaxTrustRegistryGovFrameworkSize uint32 `json:"maxTrustRegistryGovFrameworkSize"`
	MaxConvenerRegistries            uint32 `json:"maxConvenerRegistries"`
	MaxSchemasPerRegistry            uint32 `json:"maxSchemasPerRegistry"`
	MaxIssuersPerSchema              uint32 `json:"maxIssuersPerSchema"`
	MaxVerifiersPerSchema            uint32 `json:"maxVerifiersPerSchema"`
	MaxIssuerPriceCurrencies         uint32 `json:"maxIssuerPriceCurrencies"`
	MaxIssuerPriceCurrencySymbolSize uint32 `json:"maxIssuerPriceCurrencySymbolSize"`
	MaxDelegatedIssuers              uint32 `json:"maxDelegatedIssuers"`
}

// DefaultLimits returns the production limits.
func DefaultLimits() Limits {
	return Limits{
		MaxPolicyControllers:            15,
		MaxDidDocRefSize:                1024,
		MaxDidServiceEndpointIDSize:     1024,
		MaxDidServiceEndpointOriginSize: 1025,
		MaxDidServiceEndpointOrigins:    64,
		MinStatusListCredentialSize:     500,
		MaxStatusListCredentialSize:     40_000,
		MaxPSPublicKeySize:              65_536,
		MaxBBSPublicKeySize:             256,
		MaxBBSPlusPublicKeySize:         256,
		MaxOffchainParamsLabelSize:      128,
		MaxOffchainParamsBytesSize:      65_536,
		MaxAccumulatorLabelSize:         128,
		MaxAccumulatorParamsSize:        512,
		MaxAccumulatorPublicKeySize:     256,
		MaxAccumulatorAccumulatedSize:   128,
		MaxBlobSize:                     8192,
		MaxIriSize:                      1024,
		MaxMasterMembers:                25,

		MaxTrustRegistryNameSize:         50,
		MaxTrustRegistryGovFrameworkSize: 1000,
		MaxConvenerRegistries:            1000,
		MaxSchemasPerRegistry:            1000,
		MaxIssuersPerSchema:              100,
		MaxVerifiersPerSchema:            2000,
		MaxIssuerPriceCurrencies:         25,
		MaxIssuerPriceCurrencySymbolSize: 10,
		MaxDelegatedIssuers:              10,
	}
}

// Bounds of decoded sequences. Limits resolves each to its configured cap.
const (
	BoundPolicyControllers scale.Bound = iota + 1
	BoundDidDocRef
	BoundServiceEndpointID
	BoundServiceEndpointOrigin
	BoundServiceEndpointOrigins
	BoundStatusListCredential
	BoundPSPublicKey
	BoundBBSPublicKey
	BoundBBSPlusPublicKey
	BoundOffchainParamsLabel
	BoundOffchainParams
	BoundAccumulatorLabel
	BoundAccumulatorParams
	BoundAccumulatorPublicKey
	BoundAccumulatorAccumulated
	BoundBlob
	BoundIri
	BoundMasterMembers
	BoundTrustRegistryName
	BoundTrustRegistryGovFramework
	BoundSchemaChanges
	BoundSchemaIssuers
	BoundSchemaVerifiers
	BoundPriceCurrencies
	BoundPriceCurrencySymbol
	BoundDelegatedIssuers
)

// Bound returns the cap of a decoded sequence. A nil Limits caps nothing.
func (l *Limits) Bound(b scale.Bound) (uint32, bool) {
	if l == nil {
		return 0, false
	}

	caps := map[scale.Bound]uint32{
		BoundPolicyControllers:      l.MaxPolicyControllers,
		BoundDidDocRef:              l.MaxDidDocRefSize,
		BoundServiceEndpointID:      l.MaxDidServiceEndpointIDSize,
		BoundServiceEndpointOrigin:  l.MaxDidServiceEndpointOriginSize,
		BoundServiceEndpointOrigins: l.MaxDidServiceEndpointOrigins,
		BoundStatusListCredential:   l.MaxStatusListCredentialSize,
		BoundPSPublicKey:            l.MaxPSPublicKeySize,
		BoundBBSPublicKey:           l.MaxBBSPublicKeySize,
		BoundBBSPlusPublicKey:       l.MaxBBSPlusPublicKeySize,
		BoundOffchainParamsLabel:    l.MaxOffchainParamsLabelSize,
		BoundOffchainParams:         l.MaxOffchainParamsBytesSize,
		BoundAccumulatorLabel:       l.MaxAccumulatorLabelSize,
		BoundAccumulatorParams:      l.MaxAccumulatorParamsSize,
		BoundAccumulatorPublicKey:   l.MaxAccumulatorPublicKeySize,
		BoundAccumulatorAccumulated: l.MaxAccumulatorAccumulatedSize,
		BoundBlob:                   l.MaxBlobSize,
		BoundIri:                    l.MaxIriSize,
		BoundMasterMembers:          l.MaxMasterMembers,

		BoundTrustRegistryName:         l.MaxTrustRegistryNameSize,
		BoundTrustRegistryGovFramework: l.MaxTrustRegistryGovFrameworkSize,
		BoundSchemaChanges:             l.MaxSchemasPerRegistry,
		BoundSchemaIssuers:             l.MaxIssuersPerSchema,
		BoundSchemaVerifiers:           l.MaxVerifiersPerSchema,
		BoundPriceCurrencies:           l.MaxIssuerPriceCurrencies,
		BoundPriceCurrencySymbol:       l.MaxIssuerPriceCurrencySymbolSize,
		BoundDelegatedIssuers:          l.MaxDelegatedIssuers,
	}

	max, ok := caps[b]

	return max, ok
}

// CheckSize fails with TooBig when a value named what is longer than max.
func CheckSize(what string, size int, max uint32) error {
	if uint64(size) > uint64(max) {
		return fmt.Errorf("%w: %s is %d bytes, limit %d", errkind.TooBig, what, size, max)
	}

	return nil
}
