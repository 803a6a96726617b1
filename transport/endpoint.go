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

// Package transport is the process-wide stand-in for the wire transport
// library spec.md §1 calls out as an external collaborator, "referenced only
// through the interface" this package defines. It supplies:
//
//   - Endpoint parsing/validation (§6: tcp://, udp://, inproc:// only).
//   - Topic, a bounded fan-in/fan-out broadcast hub -- the building block
//     the bus (§4.4) and Publisher/Subscriber endpoints (§4.5) are built on.
//   - Rendezvous, a synchronous request/response hub -- the building block
//     the ZAP-style authentication service (§4.6) is built on.
//
// Every endpoint string rendezvouses through a single process-wide registry,
// the same way distinct sockets bound/connected to the same address would
// find each other through a real transport's address space.
package transport

import (
	"fmt"
	"strings"
)

// Endpoint is a transport address of the form "tcp://host:port",
// "udp://host:port", or "inproc://name" (§6).
type Endpoint string

var validSchemes = []string{"tcp://", "udp://", "inproc://"}

// Validate reports ErrInvalidEndpoint if e does not start with one of the
// recognized schemes.
func (e Endpoint) Validate() error {
	s := string(e)
	for _, scheme := range validSchemes {
		if strings.HasPrefix(s, scheme) {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrInvalidEndpoint, s)
}

func (e Endpoint) String() string { return string(e) }
