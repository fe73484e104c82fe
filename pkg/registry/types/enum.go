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

// enumNames maps the tags of a binary enum to their JSON names.
type enumNames[T ~uint8] map[T]string

func (n enumNames[T]) text(v T) ([]byte, error) {
	name, ok := n[v]
	if !ok {
		return nil, fmt.Errorf("%w: unknown tag %d", errkind.MalformedInput, v)
	}

	return []byte(name), nil
}

func (n enumNames[T]) parse(text []byte, v *T) error {
	for tag, name := range n {
		if name == string(text) {
			*v = tag
			return nil
		}
	}

	return fmt.Errorf("%w: unknown name %q", errkind.MalformedInput, text)
}

func (n enumNames[T]) decode(d *scale.Decoder) T {
	v := T(d.U8())
	if _, ok := n[v]; !ok && d.Err() == nil {
		d.Fail(fmt.Errorf("%w: unknown tag %d", errkind.MalformedInput, v))
	}

	return v
}
