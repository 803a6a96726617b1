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

// Package packet implements the canonical per-channel data packet that every
// stage of the broadcast fabric consumes: the SEEDLink acquisition client
// produces it, the bus carries it opaquely, the sanitizer filters it, and any
// downstream subscriber decodes it.
package packet

import (
	"fmt"
	"math"
	"strings"
)

// DataType tags which of the four sample vectors a Packet carries.
type DataType int

// Recognized data types. DataTypeUnknown means no samples have been set.
const (
	DataTypeUnknown DataType = iota
	DataTypeInt32
	DataTypeInt64
	DataTypeFloat32
	DataTypeFloat64
)

func (d DataType) String() string {
	switch d {
	case DataTypeInt32:
		return "integer32"
	case DataTypeInt64:
		return "integer64"
	case DataTypeFloat32:
		return "float"
	case DataTypeFloat64:
		return "double"
	default:
		return "unknown"
	}
}

func dataTypeFromWire(tag string) (DataType, error) {
	switch tag {
	case "integer32":
		return DataTypeInt32, nil
	case "integer64":
		return DataTypeInt64, nil
	case "float":
		return DataTypeFloat32, nil
	case "double":
		return DataTypeFloat64, nil
	default:
		return DataTypeUnknown, fmt.Errorf("%w: unrecognized dataType %q", ErrMalformedMessage, tag)
	}
}

// defaultLocationCode is substituted whenever a location token is absent.
const defaultLocationCode = "--"

// Packet is the canonical, self-describing data packet. Identity is the
// 4-tuple (network, station, channel, location); exactly one of the four
// sample vectors is populated, matching dataType.
type Packet struct {
	network      string
	station      string
	channel      string
	location     string
	samplingRate float64
	startTime    int64
	dataType     DataType
	nSamples     int
	i32          []int32
	i64          []int64
	f32          []float32
	f64          []float64
}

// New returns an empty Packet with the location defaulted to "--".
func New() *Packet {
	return &Packet{location: defaultLocationCode}
}

func isUpperASCIIToken(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !((r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
			return false
		}
	}
	return true
}

// SetNetwork sets the two-character network code, e.g. "UU".
func (p *Packet) SetNetwork(network string) error {
	if len(network) != 2 || !isUpperASCIIToken(network) {
		return fmt.Errorf("%w: network must be a 2-character uppercase ASCII token, got %q", ErrInvalidConfig, network)
	}
	p.network = network
	return nil
}

// Network returns the network code.
func (p *Packet) Network() string { return p.network }

// SetStation sets the station code.
func (p *Packet) SetStation(station string) error {
	if !isUpperASCIIToken(station) {
		return fmt.Errorf("%w: station must be an uppercase ASCII token, got %q", ErrInvalidConfig, station)
	}
	p.station = station
	return nil
}

// Station returns the station code.
func (p *Packet) Station() string { return p.station }

// SetChannel sets the channel code, e.g. "HHZ".
func (p *Packet) SetChannel(channel string) error {
	if !isUpperASCIIToken(channel) {
		return fmt.Errorf("%w: channel must be an uppercase ASCII token, got %q", ErrInvalidConfig, channel)
	}
	p.channel = channel
	return nil
}

// Channel returns the channel code.
func (p *Packet) Channel() string { return p.channel }

// SetLocation sets the location code. An empty or whitespace-only location is
// normalized to "--".
func (p *Packet) SetLocation(location string) error {
	if strings.TrimSpace(location) == "" {
		p.location = defaultLocationCode
		return nil
	}
	if !isUpperASCIIToken(location) {
		return fmt.Errorf("%w: location must be an uppercase ASCII token, got %q", ErrInvalidConfig, location)
	}
	p.location = location
	return nil
}

// Location returns the location code, "--" when absent.
func (p *Packet) Location() string { return p.location }

// Name returns the channel name network.station.channel[.location], omitting
// the location segment when it is the "--" default.
func (p *Packet) Name() string {
	if p.location == "" || p.location == defaultLocationCode {
		return fmt.Sprintf("%s.%s.%s", p.network, p.station, p.channel)
	}
	return fmt.Sprintf("%s.%s.%s.%s", p.network, p.station, p.channel, p.location)
}

// SetSamplingRate sets the nominal sampling rate in Hz; must be positive.
func (p *Packet) SetSamplingRate(rate float64) error {
	if !(rate > 0) {
		return fmt.Errorf("%w: sampling rate must be positive, got %v", ErrInvalidConfig, rate)
	}
	p.samplingRate = rate
	return nil
}

// SamplingRate returns the nominal sampling rate in Hz.
func (p *Packet) SamplingRate() float64 { return p.samplingRate }

// SetStartTime sets the start time, in microseconds since the Unix epoch.
func (p *Packet) SetStartTime(t int64) { p.startTime = t }

// StartTime returns the start time, in microseconds since the Unix epoch.
func (p *Packet) StartTime() int64 { return p.startTime }

// EndTime returns startTime + round((n-1)/rate * 1e6) microseconds, and
// whether it could be computed (rate > 0 and n > 0).
func (p *Packet) EndTime() (int64, bool) {
	if !(p.samplingRate > 0) || p.nSamples <= 0 {
		return 0, false
	}
	durationUs := math.Round(float64(p.nSamples-1) / p.samplingRate * 1e6)
	return p.startTime + int64(durationUs), true
}

// DataType returns the tag of the currently-set sample vector.
func (p *Packet) DataType() DataType { return p.dataType }

// NSamples returns the number of samples currently set.
func (p *Packet) NSamples() int { return p.nSamples }

// ClearSamples drops whichever sample vector is set and resets the data type
// to DataTypeUnknown, per the invariant that a mutation clearing samples
// resets the type tag.
func (p *Packet) ClearSamples() {
	p.dataType = DataTypeUnknown
	p.nSamples = 0
	p.i32 = nil
	p.i64 = nil
	p.f32 = nil
	p.f64 = nil
}

// SetSamplesInt32 installs nSamples int32 samples, replacing any existing
// sample vector and updating the derived data type and end time.
func (p *Packet) SetSamplesInt32(samples []int32) {
	p.ClearSamples()
	if len(samples) == 0 {
		return
	}
	p.i32 = append([]int32(nil), samples...)
	p.dataType = DataTypeInt32
	p.nSamples = len(samples)
}

// SetSamplesInt64 installs nSamples int64 samples.
func (p *Packet) SetSamplesInt64(samples []int64) {
	p.ClearSamples()
	if len(samples) == 0 {
		return
	}
	p.i64 = append([]int64(nil), samples...)
	p.dataType = DataTypeInt64
	p.nSamples = len(samples)
}

// SetSamplesFloat32 installs nSamples float32 samples.
func (p *Packet) SetSamplesFloat32(samples []float32) {
	p.ClearSamples()
	if len(samples) == 0 {
		return
	}
	p.f32 = append([]float32(nil), samples...)
	p.dataType = DataTypeFloat32
	p.nSamples = len(samples)
}

// SetSamplesFloat64 installs nSamples float64 samples.
func (p *Packet) SetSamplesFloat64(samples []float64) {
	p.ClearSamples()
	if len(samples) == 0 {
		return
	}
	p.f64 = append([]float64(nil), samples...)
	p.dataType = DataTypeFloat64
	p.nSamples = len(samples)
}

// SamplesInt32 returns the int32 sample vector, nil unless DataType() is DataTypeInt32.
func (p *Packet) SamplesInt32() []int32 { return p.i32 }

// SamplesInt64 returns the int64 sample vector, nil unless DataType() is DataTypeInt64.
func (p *Packet) SamplesInt64() []int64 { return p.i64 }

// SamplesFloat32 returns the float32 sample vector, nil unless DataType() is DataTypeFloat32.
func (p *Packet) SamplesFloat32() []float32 { return p.f32 }

// SamplesFloat64 returns the float64 sample vector, nil unless DataType() is DataTypeFloat64.
func (p *Packet) SamplesFloat64() []float64 { return p.f64 }

// Equal reports whether p and o carry the same identity, timing, and samples.
// Used by the round-trip property test (deserialize(serialize(p)) == p).
func (p *Packet) Equal(o *Packet) bool {
	if o == nil {
		return false
	}
	if p.network != o.network || p.station != o.station || p.channel != o.channel || p.location != o.location {
		return false
	}
	if p.samplingRate != o.samplingRate || p.startTime != o.startTime {
		return false
	}
	if p.dataType != o.dataType || p.nSamples != o.nSamples {
		return false
	}
	switch p.dataType {
	case DataTypeInt32:
		return int32SliceEqual(p.i32, o.i32)
	case DataTypeInt64:
		return int64SliceEqual(p.i64, o.i64)
	case DataTypeFloat32:
		return float32SliceEqual(p.f32, o.f32)
	case DataTypeFloat64:
		return float64SliceEqual(p.f64, o.f64)
	default:
		return true
	}
}

func int32SliceEqual(a, b []int32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func int64SliceEqual(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func float32SliceEqual(a, b []float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func float64SliceEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
