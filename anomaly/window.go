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

package anomaly

import (
	"sort"

	"github.com/uofuseismo/seisbus/packet"
)

// classification is the tri-state outcome of admitting a header into a
// window, distinguishing a normal policy rejection from a slip (used only
// for logging/metrics distinctions by callers that care).
type classification int

const (
	classAdmitted classification = iota
	classExactDuplicate
	classExpiredBackfill
	classSlip
)

// window is the per-channel fixed-capacity ring of header digests used by
// the duplicate detector (§3, §4.2.3). Kept as a startTime-sorted slice with
// capacity trimming rather than a literal ring buffer, per DESIGN NOTES
// ("ordered container keyed by startTime with capacity trimming ... Either
// satisfies the invariants").
type window struct {
	capacity int
	table    []ToleranceRule
	entries  []packet.Header
}

func newWindow(capacity int, table []ToleranceRule) *window {
	return &window{capacity: capacity, table: table}
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func overlaps(a, b packet.Header) bool {
	return a.StartTime <= b.EndTime && b.StartTime <= a.EndTime
}

// admit runs the §4.2.3 classification algorithm for a single incoming
// header against this window, mutating the window on admission.
func (w *window) admit(h packet.Header) (classification, error) {
	if len(w.entries) == 0 {
		w.entries = append(w.entries, h)
		return classAdmitted, nil
	}

	// Step 3: exact duplicate. Entries sharing name+nSamples with h are
	// duplicate *candidates* -- the same logical burst, possibly resent
	// with a slightly different reported clock. A candidate that fails
	// the tolerance check is not a retransmission worth flagging as a
	// slip (step 6 below); it is excluded from that check rather than
	// re-examined as if it were an unrelated, differently-shaped packet.
	candidate := make(map[int]bool, len(w.entries))
	for i, e := range w.entries {
		if e.Name != h.Name || e.NSamples != h.NSamples {
			continue
		}
		candidate[i] = true
		if e.RoundedRate != h.RoundedRate {
			return classExactDuplicate, ErrInconsistentRate
		}
		tolerance, err := toleranceForRate(w.table, h.RoundedRate)
		if err != nil {
			return classExactDuplicate, err
		}
		if abs64(h.StartTime-e.StartTime) < tolerance.Microseconds() {
			return classExactDuplicate, nil
		}
	}

	front := w.entries[0]
	back := w.entries[len(w.entries)-1]

	// Step 4: forward arrival.
	if h.StartTime > back.EndTime {
		w.entries = append(w.entries, h)
		w.trimToCapacity()
		return classAdmitted, nil
	}

	// Step 5: far back-fill.
	if h.EndTime < front.StartTime {
		if len(w.entries) >= w.capacity {
			return classExpiredBackfill, nil
		}
		w.entries = append([]packet.Header{h}, w.entries...)
		return classAdmitted, nil
	}

	// Step 6: overlap with any retained, non-candidate entry is a timing slip.
	for i, e := range w.entries {
		if candidate[i] {
			continue
		}
		if overlaps(h, e) {
			return classSlip, nil
		}
	}

	// Step 7: valid out-of-order back-fill within retention.
	w.entries = append(w.entries, h)
	sort.Slice(w.entries, func(i, j int) bool { return w.entries[i].StartTime < w.entries[j].StartTime })
	w.trimToCapacity()
	return classAdmitted, nil
}

// trimToCapacity drops the oldest (smallest startTime) entries until the
// window is back within capacity, preserving the startTime-nondecreasing
// invariant (§3).
func (w *window) trimToCapacity() {
	if len(w.entries) > w.capacity {
		excess := len(w.entries) - w.capacity
		w.entries = w.entries[excess:]
	}
}

func (w *window) size() int {
	return len(w.entries)
}
