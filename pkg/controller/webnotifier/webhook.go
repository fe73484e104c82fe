/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package webnotifier

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
)

const topicHeader = "X-Registry-Topic"

// HTTPNotifier posts registry events to webhook subscribers.
type HTTPNotifier struct {
	urls   []string
	client *http.Client
}

// NewHTTPNotifier returns a notifier posting to every URL in webhookURLs.
func NewHTTPNotifier(webhookURLs []string) *HTTPNotifier {
	return &HTTPNotifier{
		urls:   webhookURLs,
		client: &http.Client{Timeout: notificationSendTimeout},
	}
}

// Notify posts the event to every webhook URL. topic is the module of the event and is also sent in
// the X-Registry-Topic header so that subscribers can route without parsing the body.
func (n *HTTPNotifier) Notify(topic string, message []byte) error {
	topicMsg, err := PrepareTopicMessage(topic, message)
	if err != nil {
		return err
	}

	var allErrs error

	for _, webhookURL := range n.urls {
		allErrs = appendError(allErrs, n.post(webhookURL, topic, topicMsg))
	}

	return allErrs
}

func (n *HTTPNotifier) post(destination, topic string, message []byte) error {
	req, err := http.NewRequest(http.MethodPost, destination, bytes.NewReader(message))
	if err != nil {
		return fmt.Errorf("webhook %s: %w", destination, err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(topicHeader, topic)

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook %s: %w", destination, err)
	}

	defer func() {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, resp.Body) //nolint:errcheck

		if e := resp.Body.Close(); e != nil {
			logger.Warnf("webhook %s: close response body: %s", destination, e)
		}
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("webhook %s: received %s", destination, resp.Status)
	}

	logger.Debugf("%s event sent to %s", topic, destination)

	return nil
}
