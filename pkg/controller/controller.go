/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package controller

import (
	"fmt"

	"github.com/hyperledger/aries-framework-go/spi/storage"

	"github.com/hyperledger/aries-did-registry/pkg/controller/command"
	cmdregistry "github.com/hyperledger/aries-did-registry/pkg/controller/command/registry"
	"github.com/hyperledger/aries-did-registry/pkg/controller/rest"
	restregistry "github.com/hyperledger/aries-did-registry/pkg/controller/rest/registry"
	"github.com/hyperledger/aries-did-registry/pkg/controller/webnotifier"
	"github.com/hyperledger/aries-did-registry/pkg/registry"
	"github.com/hyperledger/aries-did-registry/pkg/registry/event"
)

type allOpts struct {
	webhookURLs  []string
	notifiers    []event.Notifier
	registryOpts []registry.Opt
}

const wsPath = "/ws"

// Opt represents a controller option.
type Opt func(opts *allOpts)

// WithWebhookURLs is an option for setting up a webhook dispatcher which will notify clients of events
func WithWebhookURLs(webhookURLs ...string) Opt {
	return func(opts *allOpts) {
		opts.webhookURLs = webhookURLs
	}
}

// WithNotifier is an option for adding a notifier which will receive every committed event.
func WithNotifier(notifier event.Notifier) Opt {
	return func(opts *allOpts) {
		opts.notifiers = append(opts.notifiers, notifier)
	}
}

// WithRegistryOptions passes options through to the registry.
func WithRegistryOptions(registryOpts ...registry.Opt) Opt {
	return func(opts *allOpts) {
		opts.registryOpts = append(opts.registryOpts, registryOpts...)
	}
}

// Controller exposes a registry over the command and REST APIs.
type Controller struct {
	registry *registry.Registry
	notifier *webnotifier.WebNotifier
}

// New opens the registry in provider with the web notifier attached.
func New(provider storage.Provider, opts ...Opt) (*Controller, error) {
	o := &allOpts{}

	for _, opt := range opts {
		opt(o)
	}

	notifier := webnotifier.New(wsPath, o.webhookURLs)

	registryOpts := append([]registry.Opt{registry.WithNotifier(notifier)}, o.registryOpts...)
	for _, n := range o.notifiers {
		registryOpts = append(registryOpts, registry.WithNotifier(n))
	}

	r, err := registry.New(provider, registryOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open registry : %w", err)
	}

	return &Controller{registry: r, notifier: notifier}, nil
}

// Registry returns the underlying registry.
func (c *Controller) Registry() *registry.Registry {
	return c.registry
}

// GetRESTHandlers returns all REST handlers provided by controller.
func (c *Controller) GetRESTHandlers() []rest.Handler {
	var allHandlers []rest.Handler

	allHandlers = append(allHandlers, restregistry.New(c.registry).GetRESTHandlers()...)
	allHandlers = append(allHandlers, c.notifier.GetRESTHandlers()...)

	return allHandlers
}

// GetCommandHandlers returns all command handlers provided by controller.
func (c *Controller) GetCommandHandlers() []command.Handler {
	return cmdregistry.New(c.registry).GetHandlers()
}
