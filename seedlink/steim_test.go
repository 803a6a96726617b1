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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildSteim1Frame constructs one 64-byte Steim1 frame whose first word is
// the nibble map, words 1/2 carry the frame's first/last absolute values
// (only meaningful in frame 0), and the remaining words are 4x 8-bit
// differences (nibble 1) for the given deltas.
func buildSteim1Frame(firstValue, lastValue int32, deltas []int8) []byte {
	frame := make([]byte, 64)
	var nibbleMap uint32
	// Words 1 and 2 are nibble 0 (unused) in this minimal single-frame
	// fixture; word 3 onward packs 4 one-byte deltas each (nibble 1).
	wordsOfDeltas := (len(deltas) + 3) / 4
	for w := 0; w < wordsOfDeltas; w++ {
		nibbleMap |= uint32(1) << uint(2*(15-(3+w)))
	}
	binary.BigEndian.PutUint32(frame[0:4], nibbleMap)
	binary.BigEndian.PutUint32(frame[4:8], uint32(firstValue))
	binary.BigEndian.PutUint32(frame[8:12], uint32(lastValue))

	for w := 0; w < wordsOfDeltas; w++ {
		var word uint32
		for i := 0; i < 4; i++ {
			idx := w*4 + i
			var b int8
			if idx < len(deltas) {
				b = deltas[idx]
			}
			word |= uint32(uint8(b)) << uint(24-8*i)
		}
		binary.BigEndian.PutUint32(frame[(3+w)*4:(3+w)*4+4], word)
	}
	return frame
}

func TestDecodeSteim1SingleFrame(t *testing.T) {
	// Samples: 10, 12, 9, 15. The leading difference is the conventional
	// reverse-integration placeholder and is discarded by the decoder;
	// the applied differences are +2, -3, +6.
	frame := buildSteim1Frame(10, 15, []int8{0, 2, -3, 6})
	samples, err := decodeSteim1(frame, 4)
	require.NoError(t, err)
	assert.Equal(t, []int32{10, 12, 9, 15}, samples)
}

func TestDecodeSteim1RejectsNonFrameAlignedPayload(t *testing.T) {
	_, err := decodeSteim1(make([]byte, 10), 1)
	assert.ErrorIs(t, err, ErrMalformedRecord)
}

func TestDecodeSteim1RejectsTooFewDifferences(t *testing.T) {
	frame := buildSteim1Frame(10, 10, nil)
	_, err := decodeSteim1(frame, 5)
	assert.ErrorIs(t, err, ErrMalformedRecord)
}

func TestSext32(t *testing.T) {
	assert.Equal(t, int32(-1), sext32(0xf, 4))
	assert.Equal(t, int32(7), sext32(0x7, 4))
	assert.Equal(t, int32(-512), sext32(0x200, 10))
}
