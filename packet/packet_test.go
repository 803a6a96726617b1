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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makePacket(t *testing.T) *Packet {
	t.Helper()
	p := New()
	require.NoError(t, p.SetNetwork("UU"))
	require.NoError(t, p.SetStation("FORK"))
	require.NoError(t, p.SetChannel("HHZ"))
	require.NoError(t, p.SetLocation("01"))
	require.NoError(t, p.SetSamplingRate(100))
	p.SetStartTime(1_700_000_000_000_000)
	return p
}

func TestSetNetworkValidation(t *testing.T) {
	p := New()
	assert.Error(t, p.SetNetwork("u"))
	assert.Error(t, p.SetNetwork("uu"))
	assert.Error(t, p.SetNetwork("UUU"))
	assert.NoError(t, p.SetNetwork("UU"))
}

func TestLocationDefault(t *testing.T) {
	p := New()
	assert.Equal(t, "--", p.Location())
	require.NoError(t, p.SetLocation(""))
	assert.Equal(t, "--", p.Location())
}

func TestNameOmitsDefaultLocation(t *testing.T) {
	p := makePacket(t)
	assert.Equal(t, "UU.FORK.HHZ.01", p.Name())

	require.NoError(t, p.SetLocation(""))
	assert.Equal(t, "UU.FORK.HHZ", p.Name())
}

func TestEndTimeUndefinedWithoutSamples(t *testing.T) {
	p := makePacket(t)
	_, ok := p.EndTime()
	assert.False(t, ok)
}

func TestSetSamplesUpdatesEndTimeAndDataType(t *testing.T) {
	p := makePacket(t)
	samples := make([]int32, 200)
	p.SetSamplesInt32(samples)

	assert.Equal(t, DataTypeInt32, p.DataType())
	assert.Equal(t, 200, p.NSamples())

	endTime, ok := p.EndTime()
	require.True(t, ok)
	// 199 samples / 100 Hz = 1.99s = 1,990,000 microseconds
	assert.Equal(t, p.StartTime()+1_990_000, endTime)
}

func TestClearSamplesResetsDataType(t *testing.T) {
	p := makePacket(t)
	p.SetSamplesFloat64([]float64{1, 2, 3})
	assert.Equal(t, DataTypeFloat64, p.DataType())

	p.ClearSamples()
	assert.Equal(t, DataTypeUnknown, p.DataType())
	assert.Equal(t, 0, p.NSamples())
	_, ok := p.EndTime()
	assert.False(t, ok)
}

func TestSettingNewSamplesReplacesOldVector(t *testing.T) {
	p := makePacket(t)
	p.SetSamplesInt32([]int32{1, 2, 3})
	p.SetSamplesFloat32([]float32{1, 2})

	assert.Equal(t, DataTypeFloat32, p.DataType())
	assert.Nil(t, p.SamplesInt32())
	assert.Equal(t, []float32{1, 2}, p.SamplesFloat32())
}
