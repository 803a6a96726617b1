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

package stats

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersSnapshotAndReset(t *testing.T) {
	c := New()
	c.IncReceived()
	c.IncReceived()
	c.IncSent()
	c.IncRejectedSlip()
	c.NoteAnomalousChannel("UU.FORK.HHZ.01")
	c.NoteAnomalousChannel("UU.FORK.HHZ.01")
	c.NoteAnomalousChannel("UU.OTHER.HHZ.01")

	snap := c.Snapshot()
	assert.Equal(t, int64(2), snap.Received)
	assert.Equal(t, int64(1), snap.Sent)
	assert.Equal(t, int64(1), snap.RejectedSlip)
	assert.Equal(t, 2, c.AnomalousChannelCount())

	c.Reset()
	assert.Equal(t, int64(0), c.Snapshot().Received)
	assert.Equal(t, 0, c.AnomalousChannelCount())
}

func TestPrometheusExporterServesMetrics(t *testing.T) {
	c := New()
	c.IncReceived()
	c.IncSent()

	port := 19191
	exporter := NewPrometheusExporter(c, fmt.Sprintf("127.0.0.1:%d", port))
	errCh := exporter.Start()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		require.NoError(t, exporter.Stop(ctx))
		<-errCh
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/metrics", port))
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return resp.StatusCode == http.StatusOK && assert.ObjectsAreEqual(true, containsMetric(string(body), "seisbus_packets_received_total"))
	}, 2*time.Second, 20*time.Millisecond)
}

func containsMetric(body, name string) bool {
	for _, line := range splitLines(body) {
		if len(line) >= len(name) && line[:len(name)] == name {
			return true
		}
	}
	return false
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	return lines
}
