/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements.  See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License.  You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */


package kll

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// float64 sketches serialized by the Spark datasketches integration, k 200
var sparkSketches = []string{
	"BQEPCMgACAADAAAAAAAAAMgAAQDFAAAAAAAAAAAACEAAAAAAAAAUQAAAAAAAABRAAAAAAAAAEEAAAAAAAAAIQA==",
	"BQEPCMgACAADAAAAAAAAAMgAAQDFAAAAAAAAAAAAFEAAAAAAAAAkQAAAAAAAABRAAAAAAAAAJEAAAAAAAAAiQA==",
	"BQEPCMgACAADAAAAAAAAAMgAAQDFAAAAAAAAAAAAAAAAAAAAAAA+QAAAAAAAABBAAAAAAAAAPkAAAAAAAAAAAA==",
	"BQEPCMgACAACAAAAAAAAAMgAAQDGAAAAAAAAAAAA8D8AAAAAAAAAQAAAAAAAAABAAAAAAAAA8D8=",
}

func decodeBase64(t *testing.T, s string) []byte {
	t.Helper()
	b, err := base64.StdEncoding.DecodeString(s)
	require.NoError(t, err)
	return b
}

func TestDecodeSparkSketches(t *testing.T) {
	merged := newSketchOf[float64](t, DefaultK)
	for _, s := range sparkSketches {
		sk, err := NewSketchFromSlice[float64](decodeBase64(t, s))
		require.NoError(t, err)
		assert.Equal(t, DefaultK, sk.GetK())
		merged.Merge(sk)
	}
	assert.Equal(t, uint64(11), merged.GetN())
	q, err := merged.GetQuantile(0.5, true)
	require.NoError(t, err)
	assert.Equal(t, 4.0, q)
	minItem, _ := merged.GetMinItem()
	maxItem, _ := merged.GetMaxItem()
	assert.Equal(t, 0.0, minItem)
	assert.Equal(t, 30.0, maxItem)

	// float64 images do not decode as float32
	_, err = NewSketchFromSlice[float32](decodeBase64(t, sparkSketches[0]))
	assert.Error(t, err)
}

func TestEmptyAndSingleImages(t *testing.T) {
	empty, err := newSketchOf[float32](t, DefaultK).ToSlice()
	require.NoError(t, err)
	assert.Equal(t, []byte{2, 1, 15, 1, 200, 0, 8, 0}, empty)

	empty, err = newSketchOf[float64](t, DefaultK).ToSlice()
	require.NoError(t, err)
	assert.Equal(t, []byte{2, 1, 15, 1 | 8, 200, 0, 8, 0}, empty)
	decoded, err := NewSketchFromSlice[float64](empty)
	require.NoError(t, err)
	assert.True(t, decoded.IsEmpty())

	single := newSketchOf(t, DefaultK, float32(2.5))
	bytes, err := single.ToSlice()
	require.NoError(t, err)
	assert.Len(t, bytes, 12)
	assert.Equal(t, single.GetSerializedSizeBytes(), len(bytes))
	assert.Equal(t, byte(_SERIAL_VERSION_SINGLE), bytes[_SER_VER_BYTE_ADR])
	assert.Equal(t, byte(_SINGLE_ITEM_BIT_MASK), bytes[_FLAGS_BYTE_ADR])

	decodedSingle, err := NewSketchFromSlice[float32](bytes)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), decodedSingle.GetN())
	q, err := decodedSingle.GetQuantile(0.5, true)
	require.NoError(t, err)
	assert.Equal(t, float32(2.5), q)
}

func testRoundTrip[T float32 | float64](t *testing.T, n int) {
	s := newSketchOf[T](t, DefaultK)
	for i := 0; i < n; i++ {
		s.Update(T(i))
	}
	bytes, err := s.ToSlice()
	require.NoError(t, err)
	assert.Equal(t, s.GetSerializedSizeBytes(), len(bytes))

	decoded, err := NewSketchFromSlice[T](bytes)
	require.NoError(t, err)
	assert.Equal(t, s.GetN(), decoded.GetN())
	assert.Equal(t, s.GetK(), decoded.GetK())
	assert.Equal(t, s.GetMinK(), decoded.GetMinK())
	assert.Equal(t, s.GetNumRetained(), decoded.GetNumRetained())
	if n > 0 {
		ranks := []float64{0, 0.1, 0.5, 0.9, 1}
		want, err := s.GetQuantiles(ranks, true)
		require.NoError(t, err)
		got, err := decoded.GetQuantiles(ranks, true)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		wantMax, _ := s.GetMaxItem()
		gotMax, _ := decoded.GetMaxItem()
		assert.Equal(t, wantMax, gotMax)
	}

	again, err := decoded.ToSlice()
	require.NoError(t, err)
	assert.Equal(t, bytes, again)
}

func TestSerializationRoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, 10, 1000, 100_000} {
		t.Run(fmt.Sprintf("float32/n=%d", n), func(t *testing.T) { testRoundTrip[float32](t, n) })
		t.Run(fmt.Sprintf("float64/n=%d", n), func(t *testing.T) { testRoundTrip[float64](t, n) })
	}
}

func TestDecodedSketchKeepsUpdating(t *testing.T) {
	s := newSketchOf[float64](t, DefaultK)
	for i := 0; i < 5000; i++ {
		s.Update(float64(i))
	}
	bytes, err := s.ToSlice()
	require.NoError(t, err)
	decoded, err := NewSketchFromSlice[float64](bytes)
	require.NoError(t, err)
	for i := 5000; i < 10000; i++ {
		decoded.Update(float64(i))
	}
	assert.Equal(t, uint64(10000), decoded.GetN())
	q, err := decoded.GetQuantile(0.5, true)
	require.NoError(t, err)
	assert.InDelta(t, 5000, q, 10000*decoded.GetNormalizedRankError(false))
}

// updatableImage lays out every level boundary and the whole items array.
func updatableImage[T float32 | float64](s *Sketch[T]) []byte {
	size := itemBytes[T]()
	out := make([]byte, _DATA_START_ADR+len(s.levels)*4+(2+len(s.items))*size)
	out[_PREAMBLE_INTS_BYTE_ADR] = _PREAMBLE_INTS_FULL
	out[_SER_VER_BYTE_ADR] = _SERIAL_VERSION_UPDATABLE
	out[_FAMILY_BYTE_ADR] = 15
	binary.LittleEndian.PutUint16(out[_K_SHORT_ADR:], s.k)
	out[_M_BYTE_ADR] = s.m
	binary.LittleEndian.PutUint64(out[_N_LONG_ADR:], s.n)
	binary.LittleEndian.PutUint16(out[_MIN_K_SHORT_ADR:], s.minK)
	out[_NUM_LEVELS_BYTE_ADR] = byte(s.numLevels())
	offset := _DATA_START_ADR
	for _, lvl := range s.levels {
		binary.LittleEndian.PutUint32(out[offset:], lvl)
		offset += 4
	}
	putItem(out[offset:], s.minItem)
	putItem(out[offset+size:], s.maxItem)
	offset += 2 * size
	for _, item := range s.items {
		putItem(out[offset:], item)
		offset += size
	}
	return out
}

func TestDecodeUpdatableImage(t *testing.T) {
	s := newSketchOf[float32](t, DefaultK)
	for i := 0; i < 3000; i++ {
		s.Update(float32(i))
	}
	image := updatableImage(s)
	decoded, err := NewSketchFromSlice[float32](image)
	require.NoError(t, err)
	assert.Equal(t, s.GetN(), decoded.GetN())
	assert.Equal(t, s.GetNumRetained(), decoded.GetNumRetained())
	want, _ := s.GetQuantile(0.5, true)
	got, _ := decoded.GetQuantile(0.5, true)
	assert.Equal(t, want, got)

	_, err = NewSketchFromSlice[float32](image[:len(image)-4])
	assert.Error(t, err)
}

func TestDecodeMalformed(t *testing.T) {
	s := newSketchOf[float64](t, DefaultK)
	for i := 0; i < 1000; i++ {
		s.Update(float64(i))
	}
	valid, err := s.ToSlice()
	require.NoError(t, err)

	corrupt := func(adr int, value byte) []byte {
		b := append([]byte(nil), valid...)
		b[adr] = value
		return b
	}
	cases := map[string][]byte{
		"not a sketch": decodeBase64(t, "Tm90IGEgc2tldGNoISAtIFdpdGggbG92ZSwgU3BlbmNlciBMdXR6"),
		"too short":    valid[:6],
		"truncated":    valid[:len(valid)-8],
		"no levels":    valid[:_DATA_START_ADR+2],
		"family":       corrupt(_FAMILY_BYTE_ADR, 7),
		"k":            corrupt(_K_SHORT_ADR, 4),
		"m":            corrupt(_M_BYTE_ADR, 3),
		"preamble":     corrupt(_PREAMBLE_INTS_BYTE_ADR, 3),
		"version":      corrupt(_SER_VER_BYTE_ADR, 9),
		"empty flag":   corrupt(_FLAGS_BYTE_ADR, _EMPTY_BIT_MASK|_DOUBLES_SKETCH_BIT_MASK),
		"num levels":   corrupt(_NUM_LEVELS_BYTE_ADR, 0),
		"levels":       corrupt(_DATA_START_ADR+3, 0xff),
	}
	for name, bytes := range cases {
		_, err := NewSketchFromSlice[float64](bytes)
		assert.Error(t, err, name)
	}
}
