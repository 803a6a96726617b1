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

package pubsub

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/uofuseismo/seisbus/packet"
	"github.com/uofuseismo/seisbus/transport"
)

// PacketCallback receives ownership of each successfully decoded packet.
type PacketCallback func(*packet.Packet)

// SubscriberConfig configures a Subscriber (§4.5).
type SubscriberConfig struct {
	Endpoint       transport.Endpoint
	HighWaterMark  int
	ReceiveTimeout time.Duration
	Callback       PacketCallback
	// LogInterval is the cadence at which malformed-message counts are
	// logged; zero disables periodic logging.
	LogInterval time.Duration
}

// Subscriber reads two-frame messages from its endpoint and invokes a
// callback with each successfully decoded Packet.
type Subscriber struct {
	cfg   SubscriberConfig
	topic *transport.Topic

	malformed atomic.Uint64

	mu      sync.Mutex
	running bool
	cancel  func()
	doneCh  chan struct{}
	wg      sync.WaitGroup
}

// NewSubscriber creates a Subscriber bound to cfg.Endpoint within registry.
func NewSubscriber(registry *transport.Registry, cfg SubscriberConfig) (*Subscriber, error) {
	if err := cfg.Endpoint.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if cfg.HighWaterMark < 0 {
		return nil, fmt.Errorf("%w: highWaterMark must be non-negative", ErrInvalidConfig)
	}
	if cfg.Callback == nil {
		return nil, fmt.Errorf("%w: callback is required", ErrInvalidConfig)
	}
	return &Subscriber{cfg: cfg, topic: registry.Topic(cfg.Endpoint)}, nil
}

// MalformedCount reports the number of messages skipped for failing the
// two-frame/type-tag/decode contract since construction.
func (s *Subscriber) MalformedCount() uint64 { return s.malformed.Load() }

// Start spawns the background reader thread. Calling Start twice is a no-op.
func (s *Subscriber) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	ch, cancel := s.topic.Subscribe()
	s.cancel = cancel
	s.doneCh = make(chan struct{})
	s.wg.Add(1)
	go s.readLoop(ch, s.doneCh)
}

// Stop signals the reader thread and joins it.
func (s *Subscriber) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.doneCh)
	cancel := s.cancel
	s.mu.Unlock()

	s.wg.Wait()
	cancel()
}

func (s *Subscriber) readLoop(ch <-chan transport.Message, done chan struct{}) {
	defer s.wg.Done()

	ctx, cancelCtx := context.WithCancel(context.Background())
	defer cancelCtx()
	go func() {
		<-done
		cancelCtx()
	}()

	var lastLog time.Time
	for {
		msg, err := transport.Recv(ctx, ch, s.cfg.ReceiveTimeout)
		if err != nil {
			if errors.Is(err, transport.ErrClosed) {
				return
			}
			select {
			case <-done:
				return
			default:
			}
			continue
		}
		s.handle(msg)

		if s.cfg.LogInterval > 0 {
			if now := time.Now(); now.Sub(lastLog) >= s.cfg.LogInterval {
				lastLog = now
				log.WithField("malformed", s.malformed.Load()).Info("subscriber status")
			}
		}
	}
}

func (s *Subscriber) handle(msg transport.Message) {
	if len(msg) != 2 {
		s.malformed.Add(1)
		return
	}
	if string(msg[0]) != packet.MessageType {
		s.malformed.Add(1)
		return
	}
	p, err := packet.Deserialize(msg[1])
	if err != nil {
		s.malformed.Add(1)
		return
	}
	s.cfg.Callback(p)
}
