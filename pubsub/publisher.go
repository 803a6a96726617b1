/*
Copyright (c) The seisbus Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package pubsub implements the Publisher and Subscriber endpoints (§4.5):
// the two-frame message contract (message type, serialized packet) layered
// on top of the transport package's broadcast Topic.
package pubsub

import (
	"fmt"
	"time"

	"github.com/uofuseismo/seisbus/packet"
	"github.com/uofuseismo/seisbus/transport"
)

// PublisherConfig configures a Publisher (§4.5).
type PublisherConfig struct {
	Endpoint transport.Endpoint
	// HighWaterMark must be non-negative. It is validated but not applied:
	// each subscriber's mailbox size is fixed by the Topic, which the
	// Registry creates with its own default high water mark.
	HighWaterMark int
	// SendTimeout is stored but not read by Send: the underlying
	// Topic.Publish never blocks, and a subscriber whose mailbox is full
	// misses the message (§4.4 the bus never stalls for one slow consumer).
	SendTimeout time.Duration
}

// Publisher sends Packets as atomic two-frame messages onto its endpoint.
type Publisher struct {
	cfg   PublisherConfig
	topic *transport.Topic
}

// NewPublisher creates a Publisher bound to cfg.Endpoint within registry.
func NewPublisher(registry *transport.Registry, cfg PublisherConfig) (*Publisher, error) {
	if err := cfg.Endpoint.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if cfg.HighWaterMark < 0 {
		return nil, fmt.Errorf("%w: highWaterMark must be non-negative", ErrInvalidConfig)
	}
	return &Publisher{cfg: cfg, topic: registry.Topic(cfg.Endpoint)}, nil
}

// Send emits p as a two-frame message: frame 0 is packet.MessageType, frame
// 1 is p.Serialize(). Both frames are sent as a single atomic publish.
func (pub *Publisher) Send(p *packet.Packet) error {
	payload, err := p.Serialize()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	msg := transport.Message{[]byte(packet.MessageType), payload}
	if err := pub.topic.Publish(msg); err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	return nil
}

// Close releases resources held by the publisher's topic binding. The topic
// itself, being shared by endpoint address, is left open for other
// publishers/subscribers.
func (pub *Publisher) Close() error { return nil }
