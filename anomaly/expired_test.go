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

func TestExpiredDetectorBoundary(t *testing.T) {
	fixedNow := time.Unix(1_700_000_000, 0)
	d := NewExpiredDetector(10*time.Second, time.Minute)
	d.now = func() time.Time { return fixedNow }

	tooOld := newTestPacket(t, microsAt(fixedNow)-11_000_000, 1, 100)
	allowed, err := d.Allow(tooOld)
	require.NoError(t, err)
	assert.False(t, allowed)

	stillFresh := newTestPacket(t, microsAt(fixedNow)-9_000_000, 1, 100)
	allowed, err = d.Allow(stillFresh)
	require.NoError(t, err)
	assert.True(t, allowed)
}
