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

package seedlink

import (
	"fmt"

	"github.com/uofuseismo/seisbus/packet"
)

// toPacket converts a decoded miniSEED record into a canonical Packet.
func (r *record) toPacket() (*packet.Packet, error) {
	p := packet.New()
	if err := p.SetNetwork(r.network); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if err := p.SetStation(r.station); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if err := p.SetChannel(r.channel); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if err := p.SetLocation(r.location); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if err := p.SetSamplingRate(r.samplingRate); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	p.SetStartTime(r.startTime)

	switch {
	case r.int32Samples != nil:
		p.SetSamplesInt32(r.int32Samples)
	case r.f32Samples != nil:
		p.SetSamplesFloat32(r.f32Samples)
	case r.f64Samples != nil:
		p.SetSamplesFloat64(r.f64Samples)
	default:
		return nil, fmt.Errorf("%w: record carries no samples", ErrMalformedRecord)
	}
	return p, nil
}
