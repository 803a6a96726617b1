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

package auth

import (
	"fmt"
	"sync"
)

// Stonehouse validates CURVE public keys against a set of known peers,
// decorated with free-form metadata (§3: "keys may be decorated with a
// free-form metadata string").
type Stonehouse struct {
	mu    sync.RWMutex
	peers map[[32]byte]string
}

// NewStonehouse creates a CURVE policy with no known peers.
func NewStonehouse() *Stonehouse {
	return &Stonehouse{peers: make(map[[32]byte]string)}
}

// AddPeer registers publicKey as known, annotated with metadata (e.g. a
// human-readable station or operator name).
func (s *Stonehouse) AddPeer(publicKey [32]byte, metadata string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.peers[publicKey] = metadata
}

func (s *Stonehouse) WhiteListed(string) (bool, error) { return false, nil }
func (s *Stonehouse) BlackListed(string) (bool, error) { return false, nil }

func (s *Stonehouse) Authenticate(cred Credential) error {
	kp, ok := cred.(KeyPair)
	if !ok {
		return fmt.Errorf("%w: stonehouse requires a CURVE key pair", ErrBadRequest)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, known := s.peers[kp.PublicKey]; !known {
		return fmt.Errorf("%w: unrecognized public key", ErrUnauthorized)
	}
	return nil
}
