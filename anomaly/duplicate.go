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
	"math"
	"sync"
	"time"

	"github.com/uofuseismo/seisbus/packet"
)

// minimumEstimatedCapacity is the floor in the §3 capacity-estimation
// formula: max(10, ceil(1.5*D/dur)) + 1.
const minimumEstimatedCapacity = 10

// DuplicateConfig configures the duplicate/timing-slip detector (§4.2.3).
type DuplicateConfig struct {
	// Capacity, if positive, fixes the per-channel window size (K).
	Capacity int
	// RetentionDuration (D) estimates per-channel capacity on first packet
	// when Capacity is not positive.
	RetentionDuration time.Duration
	// LogInterval is the rejected-channel log cadence, shared with the
	// other detectors' L_f.
	LogInterval time.Duration
	// ToleranceTable overrides DefaultToleranceTable when non-nil.
	ToleranceTable []ToleranceRule
}

// DuplicateDetector rejects exact duplicates, timing slips (overlaps), and
// back-fills that arrive once a channel's window is already full, admitting
// forward arrivals and valid out-of-order back-fills (§4.2.3).
type DuplicateDetector struct {
	cfg     DuplicateConfig
	table   []ToleranceRule
	mu      sync.Mutex
	windows map[string]*window
	rejects *rejectLogger
}

// NewDuplicateDetector returns a DuplicateDetector.
func NewDuplicateDetector(cfg DuplicateConfig) *DuplicateDetector {
	table := cfg.ToleranceTable
	if table == nil {
		table = DefaultToleranceTable
	}
	return &DuplicateDetector{
		cfg:     cfg,
		table:   table,
		windows: make(map[string]*window),
		rejects: newRejectLogger("duplicate", cfg.LogInterval),
	}
}

// WindowSize returns the current entry count of the named channel's window,
// or 0 if no window has been created yet. Exposed for tests that assert the
// §3/§8 "window size <= K" invariant.
func (d *DuplicateDetector) WindowSize(name string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	w, ok := d.windows[name]
	if !ok {
		return 0
	}
	return w.size()
}

func (d *DuplicateDetector) capacityFor(h packet.Header) int {
	if d.cfg.Capacity > 0 {
		return d.cfg.Capacity
	}
	durSeconds := float64(h.EndTime-h.StartTime) / 1e6
	if durSeconds <= 0 {
		return minimumEstimatedCapacity + 1
	}
	estimated := math.Ceil(1.5 * d.cfg.RetentionDuration.Seconds() / durSeconds)
	if estimated < minimumEstimatedCapacity {
		estimated = minimumEstimatedCapacity
	}
	return int(estimated) + 1
}

// Allow implements Detector, discarding the exact/slip/back-fill
// classification detail; callers that need it should use AllowWithClass.
func (d *DuplicateDetector) Allow(p *packet.Packet) (bool, error) {
	allow, _, err := d.AllowWithClass(p)
	return allow, err
}

// AllowWithClass implements Classifier: it behaves like Allow but also
// reports which of the §4.2.3 non-admitted classes produced a false,
// letting the sanitizer pipeline count GPS slips separately from exact
// duplicates and expired back-fills.
func (d *DuplicateDetector) AllowWithClass(p *packet.Packet) (bool, RejectClass, error) {
	h := packet.HeaderOf(p)

	d.mu.Lock()
	w, ok := d.windows[h.Name]
	if !ok {
		w = newWindow(d.capacityFor(h), d.table)
		d.windows[h.Name] = w
	}
	class, err := w.admit(h)
	d.mu.Unlock()

	if err != nil {
		return false, rejectClassOf(class), err
	}
	if class != classAdmitted {
		d.rejects.record(h.Name)
		return false, rejectClassOf(class), nil
	}
	return true, RejectNone, nil
}

// rejectClassOf maps the window's internal classification onto the
// exported RejectClass the pipeline counts against.
func rejectClassOf(c classification) RejectClass {
	switch c {
	case classSlip:
		return RejectSlip
	case classExactDuplicate, classExpiredBackfill:
		return RejectDuplicate
	default:
		return RejectNone
	}
}
