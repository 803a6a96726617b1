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

// FutureDetector rejects packets whose end time lies further in the future
// than a configured tolerance (§4.2.1).
type FutureDetector struct {
	maxFuture time.Duration
	rejects   *rejectLogger
	now       func() time.Time
}

// NewFutureDetector returns a FutureDetector. maxFuture may be zero (no
// slack at all); logInterval governs the rejected-channel log cadence.
func NewFutureDetector(maxFuture time.Duration, logInterval time.Duration) *FutureDetector {
	return &FutureDetector{
		maxFuture: maxFuture,
		rejects:   newRejectLogger("future", logInterval),
		now:       time.Now,
	}
}

// Allow rejects iff packet.endTime > now + maxFuture. Packets without a
// computable end time (no samples set, or rate unset) are passed through:
// futureness cannot be evaluated against data that was never admitted.
func (d *FutureDetector) Allow(p *packet.Packet) (bool, error) {
	endTime, ok := p.EndTime()
	if !ok {
		return true, nil
	}

	limit := d.now().UnixMicro() + d.maxFuture.Microseconds()
	if endTime > limit {
		d.rejects.record(p.Name())
		return false, nil
	}
	return true, nil
}
