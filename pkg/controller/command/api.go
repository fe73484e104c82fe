/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package command exposes registry operations as transport independent controller commands. A command
// reads a JSON request and writes a JSON response.
package command

import "io"

// Exec runs one command method.
type Exec func(rw io.Writer, req io.Reader) Error

// Handler names an Exec so that transports can route to it.
type Handler interface {
	Name() string
	Method() string
	Handle() Exec
}
