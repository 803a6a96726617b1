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

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// MessageType is the literal frame-0 / wire "messageType" value every Packet
// carries, used both on the transport (§4.5) and inside the CBOR map (§4.1).
const MessageType = "US8::MessageFormats::Broadcasts::DataPacket"

// MessageVersion is the wire "messageVersion" value.
const MessageVersion = "1.0.0"

var encMode = func() cbor.EncMode {
	m, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return m
}()

// wireMessage mirrors the scalar keys of the §4.1 tagged map. Data is kept as
// raw CBOR so it can be decoded into the right Go slice type once dataType is
// known.
type wireMessage struct {
	MessageType    string          `cbor:"messageType"`
	MessageVersion string          `cbor:"messageVersion"`
	Network        string          `cbor:"network"`
	Station        string          `cbor:"station"`
	Channel        string          `cbor:"channel"`
	LocationCode   string          `cbor:"locationCode"`
	StartTime      int64           `cbor:"startTime"`
	SamplingRate   float64         `cbor:"samplingRate"`
	EndTime        *int64          `cbor:"endTime"`
	DataType       string          `cbor:"dataType"`
	Data           cbor.RawMessage `cbor:"data"`
}

// Serialize emits the compact tagged map described in §4.1/§6: a CBOR map
// with keys messageType, messageVersion, network, station, channel,
// locationCode, startTime, samplingRate, endTime (iff rate and samples are
// set), dataType, and data.
func (p *Packet) Serialize() ([]byte, error) {
	if p.network == "" || p.station == "" || p.channel == "" {
		return nil, fmt.Errorf("%w: identity tokens must be set before serializing", ErrInvalidConfig)
	}

	m := map[string]interface{}{
		"messageType":    MessageType,
		"messageVersion": MessageVersion,
		"network":        p.network,
		"station":        p.station,
		"channel":        p.channel,
		"locationCode":   p.location,
		"startTime":      p.startTime,
	}

	if p.samplingRate > 0 {
		m["samplingRate"] = p.samplingRate
	}
	if endTime, ok := p.EndTime(); ok {
		m["endTime"] = endTime
	}
	if p.dataType != DataTypeUnknown {
		m["dataType"] = p.dataType.String()
		switch p.dataType {
		case DataTypeInt32:
			m["data"] = p.i32
		case DataTypeInt64:
			m["data"] = p.i64
		case DataTypeFloat32:
			m["data"] = p.f32
		case DataTypeFloat64:
			m["data"] = p.f64
		}
	}

	return encMode.Marshal(m)
}

// Deserialize restores a Packet from the bytes produced by Serialize,
// validating messageType and reestablishing every invariant. It returns
// ErrMalformedMessage wrapped with context on a missing required field, wrong
// type tag, or a dataType/data mismatch.
func Deserialize(data []byte) (*Packet, error) {
	var w wireMessage
	if err := cbor.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if w.MessageType != MessageType {
		return nil, fmt.Errorf("%w: unexpected messageType %q", ErrMalformedMessage, w.MessageType)
	}

	p := New()
	if err := p.SetNetwork(w.Network); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if err := p.SetStation(w.Station); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if err := p.SetChannel(w.Channel); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if err := p.SetLocation(w.LocationCode); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	p.SetStartTime(w.StartTime)
	if w.SamplingRate > 0 {
		if err := p.SetSamplingRate(w.SamplingRate); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
		}
	}

	if len(w.Data) > 0 {
		dt, err := dataTypeFromWire(w.DataType)
		if err != nil {
			return nil, err
		}
		switch dt {
		case DataTypeInt32:
			var v []int32
			if err := cbor.Unmarshal(w.Data, &v); err != nil {
				return nil, fmt.Errorf("%w: data/dataType mismatch: %v", ErrMalformedMessage, err)
			}
			p.SetSamplesInt32(v)
		case DataTypeInt64:
			var v []int64
			if err := cbor.Unmarshal(w.Data, &v); err != nil {
				return nil, fmt.Errorf("%w: data/dataType mismatch: %v", ErrMalformedMessage, err)
			}
			p.SetSamplesInt64(v)
		case DataTypeFloat32:
			var v []float32
			if err := cbor.Unmarshal(w.Data, &v); err != nil {
				return nil, fmt.Errorf("%w: data/dataType mismatch: %v", ErrMalformedMessage, err)
			}
			p.SetSamplesFloat32(v)
		case DataTypeFloat64:
			var v []float64
			if err := cbor.Unmarshal(w.Data, &v); err != nil {
				return nil, fmt.Errorf("%w: data/dataType mismatch: %v", ErrMalformedMessage, err)
			}
			p.SetSamplesFloat64(v)
		}
	}

	return p, nil
}
