/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package webnotifier pushes committed registry events to webhook subscribers and websocket clients.
package webnotifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hyperledger/aries-framework-go/component/log"

	"github.com/hyperledger/aries-did-registry/pkg/controller/rest"
	"github.com/hyperledger/aries-did-registry/pkg/registry/event"
)

var logger = log.New("aries-registry/webnotifier")

const notificationSendTimeout = 10 * time.Second

var (
	errEmptyTopic   = errors.New("cannot notify with an empty topic")
	errEmptyMessage = errors.New("cannot notify with an empty message")
)

// WebNotifier dispatches events to every webhook URL and websocket client.
type WebNotifier struct {
	notifiers []event.Notifier
	handlers  []rest.Handler
}

// New returns a notifier posting to webhookURLs and serving websocket clients on wsPath.
func New(wsPath string, webhookURLs []string) *WebNotifier {
	ws := NewWSNotifier(wsPath)

	return &WebNotifier{
		notifiers: []event.Notifier{NewHTTPNotifier(webhookURLs), ws},
		handlers:  ws.GetRESTHandlers(),
	}
}

// Notify sends message to every subscriber. Every notifier is tried and the errors are combined.
func (n *WebNotifier) Notify(topic string, message []byte) error {
	var allErrs error

	for _, notifier := range n.notifiers {
		allErrs = appendError(allErrs, notifier.Notify(topic, message))
	}

	return allErrs
}

// GetRESTHandlers returns the websocket handler.
func (n *WebNotifier) GetRESTHandlers() []rest.Handler {
	return n.handlers
}

// TopicMessage is the envelope of a notification. Topic is the module that deposited the event
// and Message is the event itself.
type TopicMessage struct {
	ID      string          `json:"id"`
	Topic   string          `json:"topic"`
	Message json.RawMessage `json:"message"`
}

// PrepareTopicMessage wraps message in a topic envelope with a fresh id.
func PrepareTopicMessage(topic string, message []byte) ([]byte, error) {
	if topic == "" {
		return nil, errEmptyTopic
	}

	if len(message) == 0 {
		return nil, errEmptyMessage
	}

	b, err := json.Marshal(TopicMessage{ID: uuid.New().String(), Topic: topic, Message: message})
	if err != nil {
		return nil, fmt.Errorf("failed to create topic message : %w", err)
	}

	return b, nil
}

func appendError(errs, err error) error {
	if err == nil {
		return errs
	}

	if errs == nil {
		return err
	}

	return fmt.Errorf("%v; %w", errs, err)
}
