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

// Package anomaly implements the three per-channel admissibility predicates
// that gate a Packet before it is republished by the sanitizer (§4.2): a
// future-timed detector, an expired detector, and a duplicate/timing-slip
// detector backed by a per-channel sliding window.
package anomaly

import "github.com/uofuseismo/seisbus/packet"

// Detector is the common contract every anomaly predicate satisfies: decide
// whether a packet may pass, logging rejected channel names at a configured
// cadence as a side effect. Implementations are safe for concurrent Allow
// calls from multiple goroutines (§4.2).
type Detector interface {
	Allow(p *packet.Packet) (bool, error)
}

// RejectClass distinguishes *why* a detector rejected a packet, for
// detectors whose rejection reasons are more specific than a bool. The
// duplicate detector separates exact duplicates and expired back-fills
// from genuine timing slips (§4.2.3's "tri-state exact/slip/back-fill
// classification isolates GPS-slip symptoms from legitimate reordering").
type RejectClass int

const (
	// RejectNone means the packet was admitted.
	RejectNone RejectClass = iota
	// RejectDuplicate covers an exact duplicate or a back-fill that
	// arrived too late for the retained window.
	RejectDuplicate
	// RejectSlip covers an overlap with a retained entry: a symptom of
	// clock error rather than a legitimate retransmission or reorder.
	RejectSlip
)

// Classifier is implemented by detectors whose Allow-false carries more
// detail than a bool. Callers that track separate counters per rejection
// reason should type-assert for it rather than relying on Allow alone.
type Classifier interface {
	AllowWithClass(p *packet.Packet) (bool, RejectClass, error)
}
