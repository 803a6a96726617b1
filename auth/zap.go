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

// Package auth implements the ZAP-style authentication handshake service
// (spec §4.6): a single process-wide rendezvous that every bound or
// connected data socket consults before admitting a peer.
package auth

import (
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/uofuseismo/seisbus/transport"
)

// WellKnownEndpoint is the rendezvous address every handshake client and
// the Service itself use, matching the source lineage's
// "inproc://zeromq.zap.01" (§4.6).
const WellKnownEndpoint transport.Endpoint = "inproc://zeromq.zap.01"

// Request is a decoded ZAP v1.0 handshake request.
type Request struct {
	Version  string
	Sequence string
	Domain   string
	Address  string
	Identity string
	Mechanism
	Frames [][]byte // mechanism-specific frames beyond the common preamble
}

// parseRequest decodes the common ZAP v1.0 preamble: version, sequence,
// domain, client-address, identity, mechanism, then mechanism-specific
// frames (§4.6).
func parseRequest(frames transport.Message) (*Request, error) {
	if len(frames) < 6 {
		return nil, fmt.Errorf("%w: expected at least 6 ZAP frames, got %d", ErrBadRequest, len(frames))
	}
	return &Request{
		Version:   string(frames[0]),
		Sequence:  string(frames[1]),
		Domain:    string(frames[2]),
		Address:   string(frames[3]),
		Identity:  string(frames[4]),
		Mechanism: Mechanism(frames[5]),
		Frames:    frames[6:],
	}, nil
}

// reply builds the wire reply: version + sequence echoed, then
// (statusCode, statusText, identity, "") per §4.6.
func reply(req *Request, code StatusCode, text, identity string) transport.Message {
	return transport.Message{
		[]byte(req.Version),
		[]byte(req.Sequence),
		[]byte(fmt.Sprintf("%d", code)),
		[]byte(text),
		[]byte(identity),
		[]byte(""),
	}
}

// Service is the process-wide handshake listener (§4.6): a request/response
// rendezvous plus a background thread dispatching on mechanism.
type Service struct {
	rendezvous    *transport.Rendezvous
	authenticator Authenticator

	mu      sync.Mutex
	running bool
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewService creates a handshake service bound to endpoint (normally
// WellKnownEndpoint) in registry, enforcing policy via authenticator.
func NewService(registry *transport.Registry, endpoint transport.Endpoint, authenticator Authenticator) *Service {
	return &Service{
		rendezvous:    registry.Rendezvous(endpoint),
		authenticator: authenticator,
	}
}

// Start spawns the listener thread. Calling Start twice is a no-op.
func (s *Service) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.done = make(chan struct{})
	s.wg.Add(1)
	go s.loop(s.done)
}

// Stop signals the listener thread to exit and joins it.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	done := s.done
	s.mu.Unlock()

	close(done)
	s.wg.Wait()
}

func (s *Service) loop(done chan struct{}) {
	defer s.wg.Done()
	for {
		err := s.rendezvous.Serve(250*time.Millisecond, done, s.handle)
		switch {
		case err == nil:
			continue
		case errors.Is(err, transport.ErrReceiveTimeout):
			select {
			case <-done:
				return
			default:
				continue
			}
		default:
			return
		}
	}
}

func (s *Service) handle(frames transport.Message) transport.Message {
	req, err := parseRequest(frames)
	if err != nil {
		code, text := classify(err)
		return transport.Message{[]byte("1.0"), []byte(""), []byte(fmt.Sprintf("%d", code)), []byte(text), []byte(""), []byte("")}
	}

	code, text, identity := s.evaluate(req)
	if code != StatusOK {
		log.WithFields(log.Fields{"address": req.Address, "mechanism": string(req.Mechanism)}).
			Warnf("handshake denied: %d %s", code, text)
	}
	return reply(req, code, text, identity)
}

func (s *Service) evaluate(req *Request) (StatusCode, string, string) {
	if blacklisted, err := s.authenticator.BlackListed(req.Address); err != nil {
		code, text := classify(err)
		return code, text, ""
	} else if blacklisted {
		return StatusForbidden, StatusForbidden.defaultText(), ""
	}

	if whitelisted, err := s.authenticator.WhiteListed(req.Address); err != nil {
		code, text := classify(err)
		return code, text, ""
	} else if whitelisted {
		return StatusOK, StatusOK.defaultText(), req.Identity
	}

	switch req.Mechanism {
	case MechanismNull:
		return StatusOK, StatusOK.defaultText(), req.Identity
	case MechanismPlain:
		if len(req.Frames) < 2 {
			code, text := classify(fmt.Errorf("%w: PLAIN requires user and password frames", ErrBadRequest))
			return code, text, ""
		}
		cred := UserNameAndPassword{UserName: string(req.Frames[0]), Password: string(req.Frames[1])}
		if err := s.authenticator.Authenticate(cred); err != nil {
			code, text := classify(err)
			return code, text, ""
		}
		return StatusOK, StatusOK.defaultText(), req.Identity
	case MechanismCurve:
		if len(req.Frames) < 1 || len(req.Frames[0]) != 32 {
			code, text := classify(fmt.Errorf("%w: CURVE requires a 32-byte public key frame", ErrBadRequest))
			return code, text, ""
		}
		var pub [32]byte
		copy(pub[:], req.Frames[0])
		if err := s.authenticator.Authenticate(KeyPair{PublicKey: pub}); err != nil {
			code, text := classify(err)
			return code, text, ""
		}
		return StatusOK, StatusOK.defaultText(), req.Identity
	default:
		code, text := classify(fmt.Errorf("%w: unrecognized mechanism %q", ErrInternalServerError, req.Mechanism))
		return code, text, ""
	}
}

// Call performs a handshake request against endpoint's rendezvous, used by
// data sockets that attach authentication before bind/connect (§4.4, §4.6).
func Call(registry *transport.Registry, endpoint transport.Endpoint, req *Request, timeout time.Duration) (transport.Message, error) {
	rv := registry.Rendezvous(endpoint)
	frames := transport.Message{
		[]byte(req.Version), []byte(req.Sequence), []byte(req.Domain),
		[]byte(req.Address), []byte(req.Identity), []byte(req.Mechanism),
	}
	frames = append(frames, req.Frames...)
	return rv.Call(frames, timeout)
}
