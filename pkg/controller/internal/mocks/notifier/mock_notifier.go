/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package notifier

import "sync"

// Message is a notification received by the mock.
type Message struct {
	Topic   string
	Message []byte
}

// NewMockNotifier returns mock event notifier implementation.
func NewMockNotifier() *Notifier {
	return &Notifier{}
}

// Notifier is mock implementation of event notifier. It records every notification.
type Notifier struct {
	NotifyFunc func(topic string, message []byte) error

	mu       sync.Mutex
	received []Message
}

// Notify records the notification and calls NotifyFunc when set.
func (n *Notifier) Notify(topic string, message []byte) error {
	n.mu.Lock()
	n.received = append(n.received, Message{Topic: topic, Message: message})
	n.mu.Unlock()

	if n.NotifyFunc != nil {
		return n.NotifyFunc(topic, message)
	}

	return nil
}

// Received returns the notifications seen so far.
func (n *Notifier) Received() []Message {
	n.mu.Lock()
	defer n.mu.Unlock()

	return append([]Message(nil), n.received...)
}
