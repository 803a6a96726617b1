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
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// rejectLogger accumulates the distinct channel names a detector has
// rejected since the last flush and logs them as one line per configured
// interval (§4.2.1/§4.2.2 "L_f"), rather than one line per rejected packet.
type rejectLogger struct {
	mu        sync.Mutex
	label     string
	interval  time.Duration
	lastFlush time.Time
	names     map[string]struct{}
	now       func() time.Time
}

func newRejectLogger(label string, interval time.Duration) *rejectLogger {
	return &rejectLogger{
		label:    label,
		interval: interval,
		names:    make(map[string]struct{}),
		now:      time.Now,
	}
}

// record notes that name was rejected, flushing the accumulated set to the
// log if the configured interval has elapsed.
func (r *rejectLogger) record(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.names[name] = struct{}{}

	now := r.now()
	if r.lastFlush.IsZero() {
		r.lastFlush = now
	}
	if r.interval > 0 && now.Sub(r.lastFlush) >= r.interval {
		r.flushLocked(now)
	}
}

func (r *rejectLogger) flushLocked(now time.Time) {
	if len(r.names) > 0 {
		names := make([]string, 0, len(r.names))
		for n := range r.names {
			names = append(names, n)
		}
		sort.Strings(names)
		log.Warnf("%s detector: rejected packets on %d channel(s) since last report: %v", r.label, len(names), names)
		r.names = make(map[string]struct{})
	}
	r.lastFlush = now
}
