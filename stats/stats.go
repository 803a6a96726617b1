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

// Package stats collects and reports sanitizer throughput counters (§7:
// "an aggregated per-interval log line summarizing counts of received/
// checked/sent packets and distinct channel names with observed
// anomalies"). Counter shape follows the teacher's atomic-counter-plus-
// snapshot idiom (ptp/ptp4u/stats), generalized from a map-of-message-type
// to the fixed small set of sanitizer counters this domain needs.
package stats

import (
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
)

// Snapshot is a point-in-time, non-mutating copy of the counters.
type Snapshot struct {
	Received          int64
	Sent              int64
	RejectedFuture    int64
	RejectedExpired   int64
	RejectedDuplicate int64
	RejectedSlip      int64
	Malformed         int64
	QueueDiscards     int64
	SendFailed        int64
}

// Counters is a thread-safe set of throughput counters for one sanitizer
// pipeline (§4.8). All Inc methods are safe for concurrent use.
type Counters struct {
	received          atomic.Int64
	sent              atomic.Int64
	rejectedFuture    atomic.Int64
	rejectedExpired   atomic.Int64
	rejectedDuplicate atomic.Int64
	rejectedSlip      atomic.Int64
	malformed         atomic.Int64
	queueDiscards     atomic.Int64
	sendFailed        atomic.Int64

	mu        sync.Mutex
	anomalous map[string]struct{}
}

// New returns a zeroed Counters.
func New() *Counters {
	return &Counters{anomalous: make(map[string]struct{})}
}

func (c *Counters) IncReceived()          { c.received.Add(1) }
func (c *Counters) IncSent()              { c.sent.Add(1) }
func (c *Counters) IncRejectedFuture()    { c.rejectedFuture.Add(1) }
func (c *Counters) IncRejectedExpired()   { c.rejectedExpired.Add(1) }
func (c *Counters) IncRejectedDuplicate() { c.rejectedDuplicate.Add(1) }
func (c *Counters) IncRejectedSlip()      { c.rejectedSlip.Add(1) }
func (c *Counters) IncMalformed()         { c.malformed.Add(1) }

// IncSendFailed records a publish attempt that errored on the wire (§7
// "SendFailed": "recovered locally -- logged and counted against periodic
// throughput reports").
func (c *Counters) IncSendFailed() { c.sendFailed.Add(1) }

func (c *Counters) AddQueueDiscards(n int) {
	if n > 0 {
		c.queueDiscards.Add(int64(n))
	}
}

// NoteAnomalousChannel records name as having had at least one anomaly
// since the last Reset, for the distinct-channel-count in the aggregated
// log line.
func (c *Counters) NoteAnomalousChannel(name string) {
	c.mu.Lock()
	c.anomalous[name] = struct{}{}
	c.mu.Unlock()
}

// Snapshot copies every counter atomically with respect to each other
// counter's own update, matching the teacher's Snapshot/Reset split.
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		Received:          c.received.Load(),
		Sent:              c.sent.Load(),
		RejectedFuture:    c.rejectedFuture.Load(),
		RejectedExpired:   c.rejectedExpired.Load(),
		RejectedDuplicate: c.rejectedDuplicate.Load(),
		RejectedSlip:      c.rejectedSlip.Load(),
		Malformed:         c.malformed.Load(),
		QueueDiscards:     c.queueDiscards.Load(),
		SendFailed:        c.sendFailed.Load(),
	}
}

// AnomalousChannelCount reports the number of distinct channel names with
// at least one anomaly since the last Reset.
func (c *Counters) AnomalousChannelCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.anomalous)
}

// Reset atomically zeros every counter and clears the anomalous-channel set.
func (c *Counters) Reset() {
	c.received.Store(0)
	c.sent.Store(0)
	c.rejectedFuture.Store(0)
	c.rejectedExpired.Store(0)
	c.rejectedDuplicate.Store(0)
	c.rejectedSlip.Store(0)
	c.malformed.Store(0)
	c.queueDiscards.Store(0)
	c.sendFailed.Store(0)
	c.mu.Lock()
	c.anomalous = make(map[string]struct{})
	c.mu.Unlock()
}

// LogAndReset emits the aggregated per-interval log line (§7) and resets.
func (c *Counters) LogAndReset() {
	snap := c.Snapshot()
	log.WithFields(log.Fields{
		"received":          snap.Received,
		"sent":              snap.Sent,
		"rejectedFuture":    snap.RejectedFuture,
		"rejectedExpired":   snap.RejectedExpired,
		"rejectedDuplicate": snap.RejectedDuplicate,
		"rejectedSlip":      snap.RejectedSlip,
		"malformed":         snap.Malformed,
		"queueDiscards":     snap.QueueDiscards,
		"sendFailed":        snap.SendFailed,
		"anomalousChannels": c.AnomalousChannelCount(),
	}).Info("throughput report")
	c.Reset()
}

// StartPeriodicLogging calls LogAndReset every interval until done is
// closed, matching the General section's logPublishingPerformanceInterval
// (§6). A non-positive interval disables periodic logging entirely.
func (c *Counters) StartPeriodicLogging(interval time.Duration, done <-chan struct{}) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				c.LogAndReset()
			}
		}
	}()
}
