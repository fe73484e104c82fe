/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package event records the events deposited by registry modules. Events are persisted in the
// Events namespace with the transaction that produced them and indexed by topic.
package event

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/hyperledger/aries-framework-go/spi/storage"

	"github.com/hyperledger/aries-did-registry/pkg/registry/store"
	"github.com/hyperledger/aries-did-registry/pkg/registry/types"
)

var logger = log.New("aries-registry/event")

const (
	counterKey    = "counter"
	moduleTagName = "module"
	topicTagName  = "topic"
)

// Event is a typed record of a state change.
type Event struct {
	ID     string            `json:"id"`
	Seq    uint64            `json:"seq"`
	Block  types.BlockNumber `json:"block"`
	Module string            `json:"module"`
	Name   string            `json:"name"`
	Topics []string          `json:"topics,omitempty"`
	Data   json.RawMessage   `json:"data,omitempty"`
}

// Topic renders an identifier as an event topic.
func Topic(id []byte) string {
	return hex.EncodeToString(id)
}

// OwnerTopic is the topic of events about a DID or a DID method key: the DID bytes or the raw key.
func OwnerTopic(owner types.DidOrDidMethodKey) string {
	if d, ok := owner.AsDid(); ok {
		return Topic(d[:])
	}

	key, _ := owner.AsDidMethodKey()

	return Topic(key.Key())
}

// New builds an event of module named name. data is rendered as JSON.
func New(module, name string, data interface{}, topics ...string) Event {
	ev := Event{Module: module, Name: name, Topics: topics}

	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			logger.Errorf("marshal %s.%s event data: %s", module, name, err)
		} else {
			ev.Data = raw
		}
	}

	return ev
}

//go:generate mockgen -destination ../../internal/gomocks/registry/event/mocks.gen.go -package event . Notifier

// Notifier delivers committed events. message is the JSON form of the event and topic its module.
type Notifier interface {
	Notify(topic string, message []byte) error
}

// Append assigns ids and sequence numbers to evs and writes them to tx.
func Append(tx *store.Tx, block types.BlockNumber, evs []Event) ([]Event, error) {
	if len(evs) == 0 {
		return nil, nil
	}

	var counter uint64

	raw, err := tx.Get(store.Events, counterKey)

	switch {
	case err == nil:
		if err := json.Unmarshal(raw, &counter); err != nil {
			return nil, fmt.Errorf("decode event counter: %w", err)
		}
	case !errors.Is(err, store.ErrNotFound):
		return nil, err
	}

	out := make([]Event, len(evs))

	for i, ev := range evs {
		counter++

		ev.ID = uuid.New().String()
		ev.Seq = counter
		ev.Block = block

		value, err := json.Marshal(ev)
		if err != nil {
			return nil, fmt.Errorf("marshal event: %w", err)
		}

		tags := []storage.Tag{{Name: moduleTagName, Value: ev.Module}}
		for _, topic := range ev.Topics {
			tags = append(tags, storage.Tag{Name: topicTagName + topic})
		}

		tx.Put(store.Events, seqKey(ev.Seq), value, tags...)

		out[i] = ev
	}

	counterValue, err := json.Marshal(counter)
	if err != nil {
		return nil, err
	}

	tx.Put(store.Events, counterKey, counterValue)

	return out, nil
}

func seqKey(seq uint64) string {
	return fmt.Sprintf("e%016x", seq)
}

// ByTopic returns the events indexed by topic in submission order.
func ByTopic(tx *store.Tx, topic string) ([]Event, error) {
	return query(tx, storage.Tag{Name: topicTagName + topic})
}

// ByModule returns the events of module in submission order.
func ByModule(tx *store.Tx, module string) ([]Event, error) {
	return query(tx, storage.Tag{Name: moduleTagName, Value: module})
}

func query(tx *store.Tx, tag storage.Tag) ([]Event, error) {
	entries, err := tx.Query(store.Events, tag)
	if err != nil {
		return nil, err
	}

	evs := make([]Event, 0, len(entries))

	for _, e := range entries {
		var ev Event

		if err := json.Unmarshal(e.Value, &ev); err != nil {
			return nil, fmt.Errorf("decode event %s: %w", e.Key, err)
		}

		evs = append(evs, ev)
	}

	return evs, nil
}

// Publish sends evs to every notifier. Delivery failures are logged.
func Publish(notifiers []Notifier, evs []Event) {
	for _, ev := range evs {
		msg, err := json.Marshal(ev)
		if err != nil {
			logger.Errorf("marshal event %s: %s", ev.ID, err)
			continue
		}

		for _, n := range notifiers {
			if err := n.Notify(ev.Module, msg); err != nil {
				logger.Warnf("notify %s event %s: %s", ev.Module, ev.Name, err)
			}
		}
	}
}
