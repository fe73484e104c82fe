/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package webnotifier

import (
	"context"
	"net/http"
	"sync"

	"nhooyr.io/websocket"

	"github.com/hyperledger/aries-did-registry/pkg/controller/internal/cmdutil"
	"github.com/hyperledger/aries-did-registry/pkg/controller/rest"
)

// topicParam selects the modules a websocket client receives events of. It may be repeated.
// A client that names no topic receives every event.
const topicParam = "topic"

type subscriber struct {
	topics map[string]bool
}

func (s *subscriber) wants(topic string) bool {
	return len(s.topics) == 0 || s.topics[topic]
}

// WSNotifier pushes registry events to the connected websocket clients.
type WSNotifier struct {
	mu          sync.RWMutex
	subscribers map[*websocket.Conn]*subscriber
	handlers    []rest.Handler
}

// NewWSNotifier returns a notifier accepting websocket clients on path.
func NewWSNotifier(path string) *WSNotifier {
	n := &WSNotifier{subscribers: make(map[*websocket.Conn]*subscriber)}
	n.handlers = []rest.Handler{cmdutil.NewHTTPHandler(path, http.MethodGet, n.handleWS)}

	return n
}

// Notify sends the event to every client subscribed to topic.
func (n *WSNotifier) Notify(topic string, message []byte) error {
	topicMsg, err := PrepareTopicMessage(topic, message)
	if err != nil {
		return err
	}

	var allErrs error

	for _, conn := range n.subscribed(topic) {
		ctx, cancel := context.WithTimeout(context.Background(), notificationSendTimeout)
		allErrs = appendError(allErrs, conn.Write(ctx, websocket.MessageText, topicMsg))
		cancel()
	}

	return allErrs
}

func (n *WSNotifier) subscribed(topic string) []*websocket.Conn {
	n.mu.RLock()
	defer n.mu.RUnlock()

	var conns []*websocket.Conn

	for conn, s := range n.subscribers {
		if s.wants(topic) {
			conns = append(conns, conn)
		}
	}

	return conns
}

func (n *WSNotifier) count() int {
	n.mu.RLock()
	defer n.mu.RUnlock()

	return len(n.subscribers)
}

func (n *WSNotifier) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		logger.Infof("failed to upgrade the websocket notification connection : %v", err)

		return
	}

	s := &subscriber{topics: make(map[string]bool)}
	for _, topic := range r.URL.Query()[topicParam] {
		s.topics[topic] = true
	}

	n.mu.Lock()
	n.subscribers[conn] = s
	n.mu.Unlock()

	logger.Debugf("websocket notification client connected, topics %v", r.URL.Query()[topicParam])

	// clients only listen; CloseRead fails the connection on any data message
	<-conn.CloseRead(context.Background()).Done()

	n.mu.Lock()
	delete(n.subscribers, conn)
	n.mu.Unlock()

	logger.Debugf("websocket notification client dropped")
}

// GetRESTHandlers returns all REST handlers provided by notifier.
func (n *WSNotifier) GetRESTHandlers() []rest.Handler {
	return n.handlers
}
