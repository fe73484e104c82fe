/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package registry is a DID and credential-status registry state machine with an aries style controller.
//
// Packages for end developer usage
//
// pkg/registry: The registry facade. It opens every module over one aries storage provider and runs
// signed calls and queries against the committed state.
//
// pkg/controller/command/registry: Provides the registry operations as JSON commands.
//
// pkg/controller/rest/registry: Provides the registry operations over REST.
//
// cmd/registry-rest: Serves the REST API with a block clock, webhooks and a websocket event stream.
//
// Basic workflow
//
//      1) Create a registry with registry.New, passing a storage provider.
//      2) Sign an action payload with a key of the acting DID.
//      3) Submit the signed action through registry.Execute or the REST API.
//      4) Read the resulting state through registry.Query or the query endpoints.
package registry
