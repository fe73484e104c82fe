/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package types

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hyperledger/aries-did-registry/pkg/registry/errkind"
	"github.com/hyperledger/aries-did-registry/pkg/registry/scale"
)

func TestDid(t *testing.T) {
	var did Did
	for i := range did {
		did[i] = 0x01
	}

	t.Run("text round trip", func(t *testing.T) {
		require.Equal(t, strings.Repeat("01", 32), did.String())

		text, err := did.MarshalText()
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(string(text), "0x"))

		parsed, err := ParseDid(string(text))
		require.NoError(t, err)
		require.Equal(t, did, parsed)

		parsed, err = ParseDid(did.String())
		require.NoError(t, err)
		require.Equal(t, did, parsed)
	})

	t.Run("wrong size", func(t *testing.T) {
		_, err := ParseDid("0x0102")
		require.Error(t, err)
		require.Contains(t, err.Error(), "did must be 32 bytes")
	})

	t.Run("json map key", func(t *testing.T) {
		raw, err := json.Marshal(map[Did]int{did: 1})
		require.NoError(t, err)

		var out map[Did]int
		require.NoError(t, json.Unmarshal(raw, &out))
		require.Equal(t, 1, out[did])
	})
}

func TestDidMethodKey(t *testing.T) {
	var pk Bytes32
	pk[0] = 0xaa

	key := NewEd25519DidMethodKey(pk)

	t.Run("did:key text form", func(t *testing.T) {
		s := key.String()
		require.True(t, strings.HasPrefix(s, "did:key:z"))

		parsed, err := ParseDidMethodKey(s)
		require.NoError(t, err)
		require.Equal(t, key, parsed)
	})

	t.Run("binary round trip", func(t *testing.T) {
		var pk33 Bytes33
		pk33[0] = 0x02

		secp := NewSecp256k1DidMethodKey(pk33)
		raw := scale.Encode(secp)
		require.Len(t, raw, 34)
		require.Equal(t, uint8(1), raw[0])

		var out DidMethodKey
		require.NoError(t, scale.Decode(raw, &out))
		require.Equal(t, secp, out)
	})

	t.Run("invalid size", func(t *testing.T) {
		_, err := NewDidMethodKey(DidMethodKeyEd25519, []byte{1, 2})
		require.True(t, errors.Is(err, errkind.MalformedInput))
	})

	t.Run("invalid prefix", func(t *testing.T) {
		_, err := ParseDidMethodKey("did:example:123")
		require.True(t, errors.Is(err, errkind.MalformedInput))
	})
}

func TestDidOrDidMethodKey(t *testing.T) {
	var did Did
	did[31] = 7

	var pk Bytes32
	pk[0] = 9

	fromDid := FromDid(did)
	fromKey := FromDidMethodKey(NewEd25519DidMethodKey(pk))

	t.Run("accessors", func(t *testing.T) {
		d, ok := fromDid.AsDid()
		require.True(t, ok)
		require.Equal(t, did, d)

		_, ok = fromDid.AsDidMethodKey()
		require.False(t, ok)

		_, ok = fromKey.AsDid()
		require.False(t, ok)
	})

	t.Run("comparable", func(t *testing.T) {
		set := map[DidOrDidMethodKey]struct{}{fromDid: {}, fromKey: {}}
		require.Len(t, set, 2)
		require.Contains(t, set, FromDid(did))
		require.Negative(t, fromDid.Compare(fromKey))
	})

	t.Run("binary round trip", func(t *testing.T) {
		for _, v := range []DidOrDidMethodKey{fromDid, fromKey} {
			var out DidOrDidMethodKey
			require.NoError(t, scale.Decode(scale.Encode(v), &out))
			require.Equal(t, v, out)
		}
	})

	t.Run("json round trip", func(t *testing.T) {
		for _, v := range []DidOrDidMethodKey{fromDid, fromKey} {
			raw, err := json.Marshal(v)
			require.NoError(t, err)

			var out DidOrDidMethodKey
			require.NoError(t, json.Unmarshal(raw, &out))
			require.Equal(t, v, out)
		}

		var out DidOrDidMethodKey
		require.Error(t, json.Unmarshal([]byte(`{}`), &out))
	})

	t.Run("bad tag", func(t *testing.T) {
		var out DidOrDidMethodKey
		require.True(t, errors.Is(scale.Decode([]byte{5}, &out), errkind.MalformedInput))
	})
}

func TestIncID(t *testing.T) {
	var id IncID

	next, err := id.Inc()
	require.NoError(t, err)
	require.Equal(t, IncID(1), next)
	require.Equal(t, IncID(1), id)

	id = math.MaxUint32
	_, err = id.Inc()
	require.True(t, errors.Is(err, errkind.IncIDOverflow))
	require.Equal(t, IncID(math.MaxUint32), id)
}

func TestBytesJSON(t *testing.T) {
	b := Bytes{0xde, 0xad}

	raw, err := json.Marshal(b)
	require.NoError(t, err)
	require.Equal(t, `"0xdead"`, string(raw))

	var out Bytes
	require.NoError(t, json.Unmarshal(raw, &out))
	require.Equal(t, b, out)

	var id RegistryID
	require.Error(t, json.Unmarshal(raw, &id))
}

func TestSortedSet(t *testing.T) {
	a := RevokeID{1}
	b := RevokeID{2}

	require.Equal(t, []RevokeID{a, b}, SortedSet([]RevokeID{b, a, b}))

	e := scale.NewEncoder()
	EncodeSet(e, []RevokeID{b, a, a})

	d := scale.NewDecoder(e.Bytes())
	require.Equal(t, []RevokeID{a, b}, DecodeSet[RevokeID](d))
	require.NoError(t, d.Err())
}

func TestServiceEndpoint(t *testing.T) {
	limits := DefaultLimits()

	t.Run("valid", func(t *testing.T) {
		ep := &ServiceEndpoint{Types: ServiceEndpointLinkedDomains, Origins: []Bytes{Bytes("https://example.com")}}
		require.NoError(t, ep.Validate(&limits))

		var out ServiceEndpoint
		require.NoError(t, scale.Decode(scale.Encode(ep), &out))
		require.Equal(t, *ep, out)
	})

	t.Run("invalid", func(t *testing.T) {
		for _, ep := range []*ServiceEndpoint{
			{Types: ServiceEndpointNone, Origins: []Bytes{Bytes("a")}},
			{Types: ServiceEndpointLinkedDomains},
			{Types: ServiceEndpointLinkedDomains, Origins: []Bytes{{}}},
			{Types: ServiceEndpointLinkedDomains, Origins: []Bytes{make(Bytes, 1026)}},
		} {
			require.True(t, errors.Is(ep.Validate(&limits), errkind.InvalidServiceEndpoint))
		}
	})
}

func TestStatusListCredential(t *testing.T) {
	limits := DefaultLimits()

	c := &StatusListCredential{Type: StatusList2021, Bytes: make(Bytes, 500)}
	require.NoError(t, c.Validate(&limits))

	c.Bytes = make(Bytes, 499)
	require.True(t, errors.Is(c.Validate(&limits), errkind.StatusListCredentialTooSmall))

	c.Bytes = make(Bytes, 40_001)
	require.True(t, errors.Is(c.Validate(&limits), errkind.StatusListCredentialTooBig))

	raw, err := json.Marshal(c.Type)
	require.NoError(t, err)
	require.Equal(t, `"StatusList2021Credential"`, string(raw))
}

func TestAccumulatorEncoding(t *testing.T) {
	var did Did
	did[0] = 3

	universal := &Accumulator{
		Type:        Universal,
		Accumulated: Bytes{1, 2, 3},
		KeyRef:      OwnerRef{Owner: FromDid(did), ID: 1},
		MaxSize:     100,
	}

	var out Accumulator
	require.NoError(t, scale.Decode(scale.Encode(universal), &out))
	require.Equal(t, *universal, out)

	positive := *universal
	positive.Type = Positive
	positive.MaxSize = 0
	require.Len(t, scale.Encode(&positive), len(scale.Encode(universal))-8)
}

func TestOffchainEncoding(t *testing.T) {
	var did Did
	did[0] = 4

	participant := uint16(3)
	label := Bytes("label")

	params := &SignatureParams{Scheme: BBSPlus, Label: &label, Curve: Bls12381, Bytes: Bytes{1}}

	var outParams SignatureParams
	require.NoError(t, scale.Decode(scale.Encode(params), &outParams))
	require.Equal(t, *params, outParams)

	key := &OffchainPublicKey{
		Scheme:        PS,
		Bytes:         Bytes{9},
		ParamsRef:     &OwnerRef{Owner: FromDid(did), ID: 2},
		ParticipantID: &participant,
	}

	var outKey OffchainPublicKey
	require.NoError(t, scale.Decode(scale.Encode(key), &outKey))
	require.Equal(t, *key, outKey)

	limits := DefaultLimits()
	key.Scheme = BBS
	key.Bytes = make(Bytes, 257)
	require.True(t, errors.Is(key.Validate(&limits), errkind.TooBig))
}

func TestLimitsBound(t *testing.T) {
	limits := DefaultLimits()

	max, ok := limits.Bound(BoundBlob)
	require.True(t, ok)
	require.Equal(t, limits.MaxBlobSize, max)

	_, ok = limits.Bound(scale.Bound(200))
	require.False(t, ok)

	var none *Limits

	_, ok = none.Bound(BoundBlob)
	require.False(t, ok)

	t.Run("decoding checks the cap of each field", func(t *testing.T) {
		limits.MaxBBSPlusPublicKeySize = 1
		key := &OffchainPublicKey{Scheme: BBSPlus, Bytes: Bytes{1, 2}}

		require.ErrorIs(t, scale.DecodeBounded(scale.Encode(key), &OffchainPublicKey{}, &limits),
			scale.ErrBoundExceeded)

		key.Scheme = BBS
		require.NoError(t, scale.DecodeBounded(scale.Encode(key), &OffchainPublicKey{}, &limits))

		limits.MaxIriSize = 2
		iri := Bytes("iri")
		raw := scale.Encode(&Attestation{Priority: 1, Iri: &iri})

		require.ErrorIs(t, scale.DecodeBounded(raw, &Attestation{}, &limits), scale.ErrBoundExceeded)
	})
}

func TestSchemaMetadata(t *testing.T) {
	a, b := FromDid(Did{1}), FromDid(Did{2})
	limits := DefaultLimits()

	t.Run("canonical encoding", func(t *testing.T) {
		m := SchemaMetadata{
			Issuers: []SchemaIssuer{
				{Issuer: b, Prices: VerificationPrices{"USD": 1}},
				{Issuer: a, Prices: VerificationPrices{"EUR": 2, "USD": 3}},
			},
			Verifiers: []DidOrDidMethodKey{b, a, b},
		}

		c := m.Canonical()
		require.Equal(t, a, c.Issuers[0].Issuer)
		require.Equal(t, []DidOrDidMethodKey{a, b}, c.Verifiers)
		require.Equal(t, scale.Encode(&m), scale.Encode(&c))

		var decoded SchemaMetadata

		require.NoError(t, scale.Decode(scale.Encode(&m), &decoded))
		require.Equal(t, c, decoded)
	})

	t.Run("prices are sorted and compact", func(t *testing.T) {
		e := scale.NewEncoder()
		VerificationPrices{"USD": 1, "EUR": 2}.EncodeTo(e)

		require.Equal(t, []byte{8, 12, 'E', 'U', 'R', 8, 12, 'U', 'S', 'D', 4}, e.Bytes())
	})

	t.Run("limits", func(t *testing.T) {
		small := limits
		small.MaxIssuersPerSchema = 1
		small.MaxIssuerPriceCurrencySymbolSize = 3

		two := NewSchemaMetadata(map[DidOrDidMethodKey]VerificationPrices{a: nil, b: nil}, nil)
		require.True(t, errors.Is(two.Validate(&small), errkind.TooBig))
		require.NoError(t, two.Validate(&limits))

		long := NewSchemaMetadata(map[DidOrDidMethodKey]VerificationPrices{a: {"DOLLAR": 1}}, nil)
		require.True(t, errors.Is(long.Validate(&small), errkind.TooBig))

		small.MaxIssuerPriceCurrencySymbolSize = 10
		small.MaxIssuerPriceCurrencies = 1
		require.True(t, errors.Is(VerificationPrices{"A": 1, "B": 2}.Validate(&small), errkind.TooBig))
	})

	t.Run("change kinds by name", func(t *testing.T) {
		var c PartyChange

		raw := `{"party":{"did":"0x01` + strings.Repeat("00", 31) + `"},"kind":"remove"}`

		require.NoError(t, json.Unmarshal([]byte(raw), &c))
		require.Equal(t, PartyChange{Party: a, Kind: ChangeRemove}, c)
		require.Equal(t, "modify", ChangeModify.String())
		require.Error(t, json.Unmarshal([]byte(`{"kind":"drop"}`), &c))
	})
}
