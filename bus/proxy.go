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

// Package bus implements the broadcast proxy (§4.4): an aggregating
// frontend (XSUB-like) fanning in from many publishers, and a filtering
// backend (XPUB-like) fanning out to many subscribers, multiplexed against
// an in-process control channel supporting pause/resume/terminate.
package bus

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/uofuseismo/seisbus/auth"
	"github.com/uofuseismo/seisbus/queue"
	"github.com/uofuseismo/seisbus/transport"
)

// State is the proxy's run state (§4.4).
type State int32

const (
	NotRunning State = iota
	Running
	Paused
)

func (s State) String() string {
	switch s {
	case Running:
		return "Running"
	case Paused:
		return "Paused"
	default:
		return "NotRunning"
	}
}

// pendingCapacity bounds how many messages the proxy buffers while paused;
// once the buffer is full, newly arriving messages are discarded.
const pendingCapacity = 4096

// Proxy is the owning value for the bus's two data endpoints and its
// private control pair (§4.4, §9 "collapse into a single owning value").
type Proxy struct {
	frontendEndpoint transport.Endpoint
	backendEndpoint  transport.Endpoint
	controlEndpoint  transport.Endpoint

	frontend *transport.Topic
	backend  *transport.Topic
	control  chan string

	authentication *auth.Service

	state atomic.Int32

	mu     sync.Mutex
	doneCh chan struct{}
	wg     sync.WaitGroup
}

// NewProxy creates a proxy whose frontend and backend are bound to the
// given endpoints within registry. The control endpoint is generated as a
// process-unique inproc address, per §4.4.
func NewProxy(registry *transport.Registry, frontendEndpoint, backendEndpoint transport.Endpoint, hwm int) (*Proxy, error) {
	if err := frontendEndpoint.Validate(); err != nil {
		return nil, fmt.Errorf("%w: frontend: %v", ErrInvalidConfig, err)
	}
	if err := backendEndpoint.Validate(); err != nil {
		return nil, fmt.Errorf("%w: backend: %v", ErrInvalidConfig, err)
	}

	p := &Proxy{
		frontendEndpoint: frontendEndpoint,
		backendEndpoint:  backendEndpoint,
	}
	p.controlEndpoint = transport.Endpoint(fmt.Sprintf("inproc://%d_%p_xpubsub_proxy_control", time.Now().UnixNano(), p))
	p.frontend = registry.Topic(frontendEndpoint)
	p.backend = registry.Topic(backendEndpoint)
	p.control = make(chan string, 8)
	return p, nil
}

// ControlEndpoint reports the generated process-unique control address.
func (p *Proxy) ControlEndpoint() transport.Endpoint { return p.controlEndpoint }

// SetAuthentication attaches a handshake service to the proxy's two data
// endpoints; Start begins it before accepting traffic, Stop ends it before
// joining the proxy thread (§4.4, §4.6).
func (p *Proxy) SetAuthentication(service *auth.Service) {
	p.authentication = service
}

// State reports the proxy's current run state.
func (p *Proxy) State() State {
	return State(p.state.Load())
}

// Start transitions NotRunning -> Running and spawns the multiplex loop.
func (p *Proxy) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if State(p.state.Load()) != NotRunning {
		return ErrAlreadyRunning
	}
	if p.authentication != nil {
		p.authentication.Start()
	}

	p.doneCh = make(chan struct{})
	frontendCh, cancel := p.frontend.Subscribe()
	p.state.Store(int32(Running))
	p.wg.Add(1)
	go p.loop(p.doneCh, frontendCh, cancel)
	return nil
}

// Pause transitions Running -> Paused: the forwarding loop keeps draining
// the frontend but stops republishing to the backend, buffering up to
// pendingCapacity messages instead.
func (p *Proxy) Pause() error {
	return p.sendCommand("PAUSE", Running)
}

// Resume transitions Paused -> Running, flushing anything buffered while
// paused.
func (p *Proxy) Resume() error {
	return p.sendCommand("RESUME", Paused)
}

func (p *Proxy) sendCommand(cmd string, requiredState State) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if State(p.state.Load()) != requiredState {
		return ErrNotRunning
	}
	p.control <- cmd
	return nil
}

// Stop transitions to NotRunning: the handshake service (if any) is stopped
// first, then the proxy thread is signalled and joined (§4.4).
func (p *Proxy) Stop() {
	p.mu.Lock()
	if State(p.state.Load()) == NotRunning {
		p.mu.Unlock()
		return
	}
	if p.authentication != nil {
		p.authentication.Stop()
	}
	done := p.doneCh
	p.mu.Unlock()

	close(done)
	p.wg.Wait()
	p.state.Store(int32(NotRunning))
}

func (p *Proxy) loop(done chan struct{}, frontendCh <-chan transport.Message, cancel func()) {
	defer p.wg.Done()
	defer cancel()

	pending := queue.New[transport.Message](pendingCapacity)
	paused := false

	flush := func() {
		for {
			msg, ok := pending.TryDequeue()
			if !ok {
				return
			}
			if err := p.backend.Publish(msg); err != nil {
				log.WithError(err).Warn("bus: failed publishing buffered message to backend")
			}
		}
	}

	for {
		select {
		case <-done:
			return
		case cmd := <-p.control:
			switch cmd {
			case "PAUSE":
				paused = true
				p.state.Store(int32(Paused))
			case "RESUME":
				paused = false
				p.state.Store(int32(Running))
				flush()
			case "TERMINATE":
				return
			}
		case msg, ok := <-frontendCh:
			if !ok {
				return
			}
			if paused {
				if !pending.TryEnqueue(msg) {
					log.Warn("bus: pause buffer full, discarding message")
				}
				continue
			}
			if err := p.backend.Publish(msg); err != nil {
				log.WithError(err).Warn("bus: failed publishing to backend")
			}
		}
	}
}
