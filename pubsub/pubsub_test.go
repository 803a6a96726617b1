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
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uofuseismo/seisbus/packet"
	"github.com/uofuseismo/seisbus/transport"
)

func makePacket(t *testing.T) *packet.Packet {
	t.Helper()
	p := packet.New()
	require.NoError(t, p.SetNetwork("UU"))
	require.NoError(t, p.SetStation("FORK"))
	require.NoError(t, p.SetChannel("HHZ"))
	require.NoError(t, p.SetLocation("01"))
	require.NoError(t, p.SetSamplingRate(100))
	p.SetStartTime(1_700_000_000_000_000)
	p.SetSamplesInt32([]int32{1, 2, 3})
	return p
}

func TestPublishSubscribeRoundTrip(t *testing.T) {
	reg := transport.NewRegistry(16, 8)
	endpoint := transport.Endpoint("inproc://ps1")

	var mu sync.Mutex
	var received []*packet.Packet
	sub, err := NewSubscriber(reg, SubscriberConfig{
		Endpoint:       endpoint,
		HighWaterMark:  16,
		ReceiveTimeout: 50 * time.Millisecond,
		Callback: func(p *packet.Packet) {
			mu.Lock()
			received = append(received, p)
			mu.Unlock()
		},
	})
	require.NoError(t, err)
	sub.Start()
	defer sub.Stop()

	time.Sleep(10 * time.Millisecond) // ensure subscriber is registered before publish

	pub, err := NewPublisher(reg, PublisherConfig{Endpoint: endpoint, HighWaterMark: 16})
	require.NoError(t, err)
	require.NoError(t, pub.Send(makePacket(t)))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 1
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	assert.Equal(t, "UU.FORK.HHZ.01", received[0].Name())
	mu.Unlock()
	assert.Equal(t, uint64(0), sub.MalformedCount())
}

func TestSubscriberCountsMalformedMessages(t *testing.T) {
	reg := transport.NewRegistry(16, 8)
	endpoint := transport.Endpoint("inproc://ps2")
	topic := reg.Topic(endpoint)

	sub, err := NewSubscriber(reg, SubscriberConfig{
		Endpoint:       endpoint,
		HighWaterMark:  16,
		ReceiveTimeout: 20 * time.Millisecond,
		Callback:       func(*packet.Packet) {},
	})
	require.NoError(t, err)
	sub.Start()
	defer sub.Stop()
	time.Sleep(10 * time.Millisecond)

	require.NoError(t, topic.Publish(transport.Message{[]byte("wrong-type"), []byte("x")}))
	require.NoError(t, topic.Publish(transport.Message{[]byte("one-frame-only")}))

	require.Eventually(t, func() bool {
		return sub.MalformedCount() == 2
	}, time.Second, 5*time.Millisecond)
}

func TestNewPublisherRejectsInvalidEndpoint(t *testing.T) {
	reg := transport.NewRegistry(16, 8)
	_, err := NewPublisher(reg, PublisherConfig{Endpoint: "bogus://x"})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNewSubscriberRequiresCallback(t *testing.T) {
	reg := transport.NewRegistry(16, 8)
	_, err := NewSubscriber(reg, SubscriberConfig{Endpoint: "inproc://ps3"})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
