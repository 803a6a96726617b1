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
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/uofuseismo/seisbus/packet"
)

func newTestPacket(t *testing.T, startTimeUs int64, nSamples int, rateHz float64) *packet.Packet {
	t.Helper()
	p := packet.New()
	require.NoError(t, p.SetNetwork("UU"))
	require.NoError(t, p.SetStation("FORK"))
	require.NoError(t, p.SetChannel("HHZ"))
	require.NoError(t, p.SetLocation("01"))
	require.NoError(t, p.SetSamplingRate(rateHz))
	p.SetStartTime(startTimeUs)
	p.SetSamplesInt32(make([]int32, nSamples))
	return p
}

func microsAt(t time.Time) int64 { return t.UnixMicro() }
