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

package packet

import "math"

// Header is the lightweight digest of a Packet used by the duplicate
// detector (§3, §4.2.3): identity name, timing, and rounded rate, without the
// sample payload.
type Header struct {
	Name         string
	StartTime    int64
	EndTime      int64
	RoundedRate  int64
	NSamples     int
}

// HeaderOf extracts the Header digest of p. p must have rate > 0 and
// nSamples > 0 for EndTime to be meaningful; callers that only need ordering
// information (StartTime) may call this regardless.
func HeaderOf(p *Packet) Header {
	endTime, _ := p.EndTime()
	return Header{
		Name:        p.Name(),
		StartTime:   p.StartTime(),
		EndTime:     endTime,
		RoundedRate: int64(math.Round(p.SamplingRate())),
		NSamples:    p.NSamples(),
	}
}
