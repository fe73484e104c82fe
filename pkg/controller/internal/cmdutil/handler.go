/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package cmdutil

import (
	"net/http"

	"github.com/hyperledger/aries-did-registry/pkg/controller/command"
)

// handler binds a handle func to a route and a method. For REST the route is a path and the method
// an HTTP method; for commands the route is the command name.
type handler[F any] struct {
	route  string
	method string
	handle F
}

// Method returns the method the handler serves.
func (h *handler[F]) Method() string {
	return h.method
}

// Handle returns the handle func.
func (h *handler[F]) Handle() F {
	return h.handle
}

// HTTPHandler serves one REST path.
type HTTPHandler struct {
	handler[http.HandlerFunc]
}

// NewHTTPHandler returns a handler of method requests on path.
func NewHTTPHandler(path, method string, handle http.HandlerFunc) *HTTPHandler {
	return &HTTPHandler{handler[http.HandlerFunc]{route: path, method: method, handle: handle}}
}

// Path returns http request path.
func (h *HTTPHandler) Path() string {
	return h.route
}

// CommandHandler runs one method of a controller command.
type CommandHandler struct {
	handler[command.Exec]
}

// NewCommandHandler returns a handler of method of the command called name.
func NewCommandHandler(name, method string, exec command.Exec) *CommandHandler {
	return &CommandHandler{handler[command.Exec]{route: name, method: method, handle: exec}}
}

// Name of the command.
func (c *CommandHandler) Name() string {
	return c.route
}
