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
	"time"

	"github.com/uofuseismo/seisbus/packet"
)

// ExpiredDetector rejects packets that arrived too long after they were
// recorded (§4.2.2).
type ExpiredDetector struct {
	maxLatency time.Duration
	rejects    *rejectLogger
	now        func() time.Time
}

// NewExpiredDetector returns an ExpiredDetector. maxLatency must be positive
// for the detector to be useful, but this is not enforced here; enforce it
// at config-validation time (InvalidConfig, §7).
func NewExpiredDetector(maxLatency time.Duration, logInterval time.Duration) *ExpiredDetector {
	return &ExpiredDetector{
		maxLatency: maxLatency,
		rejects:    newRejectLogger("expired", logInterval),
		now:        time.Now,
	}
}

// Allow rejects iff packet.startTime < now - maxLatency.
func (d *ExpiredDetector) Allow(p *packet.Packet) (bool, error) {
	limit := d.now().UnixMicro() - d.maxLatency.Microseconds()
	if p.StartTime() < limit {
		d.rejects.record(p.Name())
		return false, nil
	}
	return true, nil
}
