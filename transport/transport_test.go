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

package transport

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEndpointValidation(t *testing.T) {
	valid := []Endpoint{"tcp://127.0.0.1:5555", "udp://239.0.0.1:6000", "inproc://control"}
	for _, e := range valid {
		assert.NoError(t, e.Validate())
	}
	invalid := []Endpoint{"", "ipc://foo", "http://example.com"}
	for _, e := range invalid {
		assert.ErrorIs(t, e.Validate(), ErrInvalidEndpoint)
	}
}

func TestTopicFanOut(t *testing.T) {
	topic := NewTopic(4)
	ch1, cancel1 := topic.Subscribe()
	ch2, cancel2 := topic.Subscribe()
	defer cancel1()
	defer cancel2()

	require.NoError(t, topic.Publish(Message{[]byte("type"), []byte("payload")}))

	ctx := context.Background()
	m1, err := Recv(ctx, ch1, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(m1[1]))

	m2, err := Recv(ctx, ch2, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(m2[1]))
}

func TestTopicDropsOnFullMailboxRatherThanBlocking(t *testing.T) {
	topic := NewTopic(1)
	ch, cancel := topic.Subscribe()
	defer cancel()

	require.NoError(t, topic.Publish(Message{[]byte("a")}))
	require.NoError(t, topic.Publish(Message{[]byte("b")}))

	ctx := context.Background()
	msg, err := Recv(ctx, ch, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "a", string(msg[0]))

	_, err = Recv(ctx, ch, 10*time.Millisecond)
	assert.ErrorIs(t, err, ErrReceiveTimeout)
}

func TestTopicCloseUnblocksSubscribers(t *testing.T) {
	topic := NewTopic(1)
	ch, _ := topic.Subscribe()
	require.NoError(t, topic.Close())

	_, err := Recv(context.Background(), ch, time.Second)
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, topic.Publish(Message{[]byte("x")}), ErrClosed)
}

func TestRendezvousRequestReply(t *testing.T) {
	rv := NewRendezvous(1)
	done := make(chan struct{})
	go func() {
		err := rv.Serve(time.Second, done, func(frames Message) Message {
			return Message{[]byte("200"), frames[0]}
		})
		assert.NoError(t, err)
	}()

	reply, err := rv.Call(Message{[]byte("hello")}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "200", string(reply[0]))
	assert.Equal(t, "hello", string(reply[1]))
}

func TestRendezvousReceiveTimeoutWhenNoServer(t *testing.T) {
	rv := NewRendezvous(1)
	_, err := rv.Call(Message{[]byte("hello")}, 20*time.Millisecond)
	assert.ErrorIs(t, err, ErrReceiveTimeout)
}

func TestRegistrySharesTopicByEndpoint(t *testing.T) {
	reg := NewRegistry(8, 8)
	a := reg.Topic("inproc://bus")
	b := reg.Topic("inproc://bus")
	assert.Same(t, a, b)

	other := reg.Topic("inproc://other")
	assert.NotSame(t, a, other)
}
