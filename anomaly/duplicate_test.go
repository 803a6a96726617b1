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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Scenario 1: duplicate at 100 Hz (§8 end-to-end scenario 1).
func TestDuplicateAt100Hz(t *testing.T) {
	d := NewDuplicateDetector(DuplicateConfig{Capacity: 10, LogInterval: time.Minute})

	const start = 1_700_000_000_000_000
	first := newTestPacket(t, start, 200, 100)
	allowed, err := d.Allow(first)
	require.NoError(t, err)
	assert.True(t, allowed)

	withinTolerance := newTestPacket(t, start+10_000, 200, 100)
	allowed, err = d.Allow(withinTolerance)
	require.NoError(t, err)
	assert.False(t, allowed, "10000us delta is within the 15000us tolerance at 100Hz")

	outsideTolerance := newTestPacket(t, start+16_000, 200, 100)
	allowed, err = d.Allow(outsideTolerance)
	require.NoError(t, err)
	assert.True(t, allowed, "16000us delta exceeds the 15000us tolerance at 100Hz")
}

// Scenario 2: timing slip (§8 end-to-end scenario 2).
func TestTimingSlip(t *testing.T) {
	d := NewDuplicateDetector(DuplicateConfig{Capacity: 10, LogInterval: time.Minute})

	const tStart = 1_700_000_000_000_000
	// A covers [T, T+2s) at 100 Hz: 201 samples.
	a := newTestPacket(t, tStart, 201, 100)
	allowed, err := d.Allow(a)
	require.NoError(t, err)
	assert.True(t, allowed)

	// B covers [T+1s, T+2.99s): a different burst (200, not 201, samples)
	// that overlaps A's retained range -> rejected as a timing slip, not
	// evaluated as a duplicate candidate of A (their sample counts differ).
	b := newTestPacket(t, tStart+1_000_000, 200, 100)
	allowed, err = d.Allow(b)
	require.NoError(t, err)
	assert.False(t, allowed)
}

// Scenario 3: back-fill (§8 end-to-end scenario 3).
func TestBackfillOrdersWindow(t *testing.T) {
	d := NewDuplicateDetector(DuplicateConfig{Capacity: 10, LogInterval: time.Minute})

	const tStart = 1_700_000_000_000_000
	// A covers [T+10s, T+12s) arrives first.
	a := newTestPacket(t, tStart+10_000_000, 200, 100)
	allowed, err := d.Allow(a)
	require.NoError(t, err)
	assert.True(t, allowed)

	// B covers [T, T+2s): admitted as a valid far back-fill.
	b := newTestPacket(t, tStart, 200, 100)
	allowed, err = d.Allow(b)
	require.NoError(t, err)
	assert.True(t, allowed)

	assert.Equal(t, 2, d.WindowSize(b.Name()))
}

func TestInconsistentRateError(t *testing.T) {
	d := NewDuplicateDetector(DuplicateConfig{Capacity: 10, LogInterval: time.Minute})

	const start = 1_700_000_000_000_000
	a := newTestPacket(t, start, 200, 100)
	_, err := d.Allow(a)
	require.NoError(t, err)

	b := newTestPacket(t, start+1_000, 200, 50)
	_, err = d.Allow(b)
	assert.ErrorIs(t, err, ErrInconsistentRate)
}

func TestUnclassifiedRateError(t *testing.T) {
	d := NewDuplicateDetector(DuplicateConfig{Capacity: 10, LogInterval: time.Minute})

	const start = 1_700_000_000_000_000
	a := newTestPacket(t, start, 200, 2000)
	_, err := d.Allow(a)
	require.NoError(t, err)

	b := newTestPacket(t, start+100, 200, 2000)
	_, err = d.Allow(b)
	assert.ErrorIs(t, err, ErrUnclassifiedRate)
}

// §8 invariant: per-channel window size is <= K at all observation points,
// and entries remain startTime-nondecreasing.
func TestWindowSizeBoundedAndOrdered(t *testing.T) {
	const capacity = 5
	d := NewDuplicateDetector(DuplicateConfig{Capacity: capacity, LogInterval: time.Minute})

	const start = 1_700_000_000_000_000
	for i := 0; i < 50; i++ {
		p := newTestPacket(t, start+int64(i)*2_000_000, 200, 100)
		_, err := d.Allow(p)
		require.NoError(t, err)
		assert.LessOrEqual(t, d.WindowSize(p.Name()), capacity)

		d.mu.Lock()
		entries := d.windows[p.Name()].entries
		for j := 1; j < len(entries); j++ {
			assert.LessOrEqual(t, entries[j-1].StartTime, entries[j].StartTime)
		}
		d.mu.Unlock()
	}
}

func TestFarBackfillRejectedWhenWindowFull(t *testing.T) {
	const capacity = 2
	d := NewDuplicateDetector(DuplicateConfig{Capacity: capacity, LogInterval: time.Minute})

	const start = 1_700_000_000_000_000
	// Two forward arrivals far enough apart to never overlap and to fill the window.
	p1 := newTestPacket(t, start+100_000_000, 200, 100)
	p2 := newTestPacket(t, start+200_000_000, 200, 100)
	_, err := d.Allow(p1)
	require.NoError(t, err)
	_, err = d.Allow(p2)
	require.NoError(t, err)

	// Window is now full (capacity 2); a far back-fill before the front entry
	// must be rejected rather than evicting anything.
	farBack := newTestPacket(t, start, 200, 100)
	allowed, err := d.Allow(farBack)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, capacity, d.WindowSize(farBack.Name()))
}
