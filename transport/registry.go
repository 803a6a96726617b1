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

import "sync"

// Registry is a process-wide address space: distinct callers that look up
// the same Endpoint share the same underlying Topic/Rendezvous, the
// way two ends of a real socket rendezvous via a shared address.
//
// A package-level DefaultRegistry is used throughout seisbus; tests that
// need isolation from each other construct their own Registry.
type Registry struct {
	mu          sync.Mutex
	topics      map[Endpoint]*Topic
	rendezvous  map[Endpoint]*Rendezvous
	defaultHWM  int
	defaultDept int
}

// NewRegistry creates an empty registry. defaultHWM and defaultQueueDepth
// seed Topic/Rendezvous construction for endpoints first seen via Topic/
// Rendezvous below.
func NewRegistry(defaultHWM, defaultQueueDepth int) *Registry {
	return &Registry{
		topics:      make(map[Endpoint]*Topic),
		rendezvous:  make(map[Endpoint]*Rendezvous),
		defaultHWM:  defaultHWM,
		defaultDept: defaultQueueDepth,
	}
}

// DefaultRegistry is the process-wide registry used when components are not
// explicitly wired to an isolated one.
var DefaultRegistry = NewRegistry(1024, 64)

// Topic returns the broadcast hub bound to endpoint, creating it on first
// use.
func (r *Registry) Topic(endpoint Endpoint) *Topic {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.topics[endpoint]; ok {
		return t
	}
	t := NewTopic(r.defaultHWM)
	r.topics[endpoint] = t
	return t
}

// Rendezvous returns the request/response endpoint bound to endpoint,
// creating it on first use.
func (r *Registry) Rendezvous(endpoint Endpoint) *Rendezvous {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rv, ok := r.rendezvous[endpoint]; ok {
		return rv
	}
	rv := NewRendezvous(r.defaultDept)
	r.rendezvous[endpoint] = rv
	return rv
}

// Forget removes an endpoint's bindings without closing them, so a later
// lookup of that endpoint creates a fresh Topic/Rendezvous.
func (r *Registry) Forget(endpoint Endpoint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.topics, endpoint)
	delete(r.rendezvous, endpoint)
}
