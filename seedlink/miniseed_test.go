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
	"encoding/binary"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildFixedHeader constructs a 48-byte miniSEED v2 fixed header for
// network/station/channel/location UU.FORK.HHZ.01, a given start time,
// sample count, and sampling rate factor/multiplier, followed by a
// blockette 1000 and beginningOfData offset so the payload encoding can be
// controlled by the caller.
func buildFixedHeader(start time.Time, nSamples int, factor, multiplier int16, encoding byte, dataOffset int) []byte {
	h := make([]byte, 64)
	copy(h[0:6], "000001")
	h[6] = 'D'
	copy(h[8:13], "FORK ")
	copy(h[13:15], "01")
	copy(h[15:18], "HHZ")
	copy(h[18:20], "UU")

	year, _ := start.ISOWeek()
	_ = year
	binary.BigEndian.PutUint16(h[20:22], uint16(start.Year()))
	binary.BigEndian.PutUint16(h[22:24], uint16(start.YearDay()))
	h[24] = byte(start.Hour())
	h[25] = byte(start.Minute())
	h[26] = byte(start.Second())
	binary.BigEndian.PutUint16(h[28:30], uint16((start.Nanosecond()/100000)))

	binary.BigEndian.PutUint16(h[30:32], uint16(nSamples))
	binary.BigEndian.PutUint16(h[32:34], uint16(factor))
	binary.BigEndian.PutUint16(h[34:36], uint16(multiplier))

	h[39] = 1 // numBlockettes
	binary.BigEndian.PutUint16(h[44:46], uint16(dataOffset))
	binary.BigEndian.PutUint16(h[46:48], 48) // firstBlockette offset

	binary.BigEndian.PutUint16(h[48:50], 1000)
	h[52] = encoding

	return h
}

func TestParseRecordInt32Payload(t *testing.T) {
	start := time.Date(2024, time.March, 1, 12, 30, 0, 0, time.UTC)
	header := buildFixedHeader(start, 3, 100, 1, byte(encodingInt32), 64)
	payload := make([]byte, 12)
	binary.BigEndian.PutUint32(payload[0:4], 10)
	binary.BigEndian.PutUint32(payload[4:8], 20)
	binary.BigEndian.PutUint32(payload[8:12], 30)

	rec, err := parseRecordV2(append(header, payload...))
	require.NoError(t, err)
	assert.Equal(t, "UU", rec.network)
	assert.Equal(t, "FORK", rec.station)
	assert.Equal(t, "HHZ", rec.channel)
	assert.Equal(t, "01", rec.location)
	assert.Equal(t, 100.0, rec.samplingRate)
	assert.Equal(t, []int32{10, 20, 30}, rec.int32Samples)
	assert.Equal(t, start.UnixMicro(), rec.startTime)
}

func TestParseRecordRejectsShortRecord(t *testing.T) {
	_, err := parseRecordV2(make([]byte, 10))
	assert.ErrorIs(t, err, ErrMalformedRecord)
}

func TestParseRecordRejectsUnhandledEncoding(t *testing.T) {
	start := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	header := buildFixedHeader(start, 1, 100, 1, 0 /* ASCII */, 64)
	_, err := parseRecordV2(append(header, make([]byte, 4)...))
	assert.ErrorIs(t, err, ErrUnhandledSampleType)
}

// buildV3Record constructs a miniSEED v3 record (40-byte little-endian
// fixed header, FDSN source identifier, no extra headers, int32 payload)
// for network/station/location/channel UU.FORK.01.HHZ.
func buildV3Record(start time.Time, samples []int32, samplingRate float64) []byte {
	id := "FDSN:UU_FORK_01_HHZ"
	payload := make([]byte, len(samples)*4)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(payload[i*4:], uint32(s))
	}

	h := make([]byte, v3FixedHeaderSize)
	h[0], h[1], h[2] = 'M', 'S', 3
	binary.LittleEndian.PutUint32(h[4:8], 0) // nanosecond remainder
	binary.LittleEndian.PutUint16(h[8:10], uint16(start.Year()))
	binary.LittleEndian.PutUint16(h[10:12], uint16(start.YearDay()))
	h[12] = byte(start.Hour())
	h[13] = byte(start.Minute())
	h[14] = byte(start.Second())
	h[15] = byte(encodingInt32)
	binary.LittleEndian.PutUint64(h[16:24], math.Float64bits(samplingRate))
	binary.LittleEndian.PutUint32(h[24:28], uint32(len(samples)))
	h[33] = byte(len(id))
	binary.LittleEndian.PutUint16(h[34:36], 0)
	binary.LittleEndian.PutUint32(h[36:40], uint32(len(payload)))

	out := append(h, []byte(id)...)
	out = append(out, payload...)
	return out
}

func TestParseRecordsDecodesAV3Record(t *testing.T) {
	start := time.Date(2024, time.March, 1, 12, 30, 0, 0, time.UTC)
	buf := buildV3Record(start, []int32{1, 2, 3}, 100)

	recs, err := parseRecords(buf)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	rec := recs[0]
	assert.Equal(t, "UU", rec.network)
	assert.Equal(t, "FORK", rec.station)
	assert.Equal(t, "01", rec.location)
	assert.Equal(t, "HHZ", rec.channel)
	assert.Equal(t, 100.0, rec.samplingRate)
	assert.Equal(t, []int32{1, 2, 3}, rec.int32Samples)
	assert.Equal(t, start.UnixMicro(), rec.startTime)
}

func TestParseRecordsDecodesMultipleV3RecordsInOneSlot(t *testing.T) {
	start := time.Date(2024, time.March, 1, 12, 30, 0, 0, time.UTC)
	first := buildV3Record(start, []int32{1, 2}, 100)
	second := buildV3Record(start.Add(time.Second), []int32{3, 4, 5}, 100)
	slot := make([]byte, 512)
	copy(slot, first)
	copy(slot[len(first):], second)

	recs, err := parseRecords(slot)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, []int32{1, 2}, recs[0].int32Samples)
	assert.Equal(t, []int32{3, 4, 5}, recs[1].int32Samples)
}

func TestParseRecordsStillDecodesAV2Record(t *testing.T) {
	start := time.Date(2024, time.March, 1, 12, 30, 0, 0, time.UTC)
	header := buildFixedHeader(start, 2, 100, 1, byte(encodingInt32), 64)
	payload := make([]byte, 8)
	binary.BigEndian.PutUint32(payload[0:4], 10)
	binary.BigEndian.PutUint32(payload[4:8], 20)

	recs, err := parseRecords(append(header, payload...))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, []int32{10, 20}, recs[0].int32Samples)
}

func TestSplitSourceIdentifier(t *testing.T) {
	network, station, location, channel, err := splitSourceIdentifier("FDSN:UU_FORK_01_HHZ")
	require.NoError(t, err)
	assert.Equal(t, "UU", network)
	assert.Equal(t, "FORK", station)
	assert.Equal(t, "01", location)
	assert.Equal(t, "HHZ", channel)

	network, station, location, channel, err = splitSourceIdentifier("FDSN:IU_ANMO__B_H_Z")
	require.NoError(t, err)
	assert.Equal(t, "IU", network)
	assert.Equal(t, "ANMO", station)
	assert.Equal(t, "--", location)
	assert.Equal(t, "BHZ", channel)

	_, _, _, _, err = splitSourceIdentifier("FDSN:TOO_SHORT")
	assert.ErrorIs(t, err, ErrMalformedRecord)
}

func TestSampleRateFromV3(t *testing.T) {
	rate, err := sampleRateFromV3(100)
	require.NoError(t, err)
	assert.Equal(t, 100.0, rate)

	rate, err = sampleRateFromV3(-0.01)
	require.NoError(t, err)
	assert.Equal(t, 100.0, rate)

	_, err = sampleRateFromV3(0)
	assert.ErrorIs(t, err, ErrMalformedRecord)
}

func TestSampleRateFromFactors(t *testing.T) {
	rate, err := sampleRateFromFactors(100, 1)
	require.NoError(t, err)
	assert.Equal(t, 100.0, rate)

	rate, err = sampleRateFromFactors(1, -100)
	require.NoError(t, err)
	assert.Equal(t, 0.01, rate)

	rate, err = sampleRateFromFactors(-100, 1)
	require.NoError(t, err)
	assert.Equal(t, 0.01, rate)

	_, err = sampleRateFromFactors(0, 1)
	assert.ErrorIs(t, err, ErrMalformedRecord)
}
