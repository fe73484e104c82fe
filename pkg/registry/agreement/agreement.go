/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package agreement records root agreements, such as accepted terms or governance decisions.
package agreement

import (
	"github.com/hyperledger/aries-did-registry/pkg/registry/errkind"
	"github.com/hyperledger/aries-did-registry/pkg/registry/event"
	"github.com/hyperledger/aries-did-registry/pkg/registry/runtime"
	"github.com/hyperledger/aries-did-registry/pkg/registry/scale"
)

// ModuleName is the module of the events deposited by this package.
const ModuleName = "agreement"

// Agreed is deposited for every agreement.
const Agreed = "Agreed"

// Agreement is the text agreed on and an optional URL of its full form.
type Agreement struct {
	On  string  `json:"on"`
	URL *string `json:"url,omitempty"`
}

// EncodeTo writes the agreement.
func (a *Agreement) EncodeTo(e *scale.Encoder) {
	e.String(a.On)
	e.Option(a.URL != nil)

	if a.URL != nil {
		e.String(*a.URL)
	}
}

// DecodeFrom reads an agreement.
func (a *Agreement) DecodeFrom(d *scale.Decoder) {
	a.On = d.String()
	a.URL = nil

	if d.Option() {
		url := d.String()
		a.URL = &url
	}
}

// Agree records a as agreed by root. Only the event is kept.
func Agree(ctx *runtime.Context, a *Agreement) error {
	if err := ctx.EnsureRoot(); err != nil {
		return err
	}

	if a.On == "" {
		return errkind.EmptyAgreement
	}

	if a.URL != nil && *a.URL == "" {
		return errkind.EmptyUrl
	}

	ctx.Deposit(event.New(ModuleName, Agreed, a))

	return nil
}
