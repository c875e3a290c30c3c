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

package theta

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUpdateSketch(t *testing.T) {
	t.Run("No Options And Empty", func(t *testing.T) {
		sketch, err := NewUpdateSketch()
		require.NoError(t, err)

		assert.True(t, sketch.IsEmpty())
		assert.False(t, sketch.IsEstimationMode())
		assert.Equal(t, 1.0, sketch.Theta())
		assert.Equal(t, 0.0, sketch.Estimate())
		assert.Equal(t, DefaultLgK, sketch.LgK())
		lb, err := sketch.LowerBound(1)
		assert.NoError(t, err)
		assert.Equal(t, 0.0, lb)
		ub, err := sketch.UpperBound(1)
		assert.NoError(t, err)
		assert.Equal(t, 0.0, ub)
		assert.True(t, sketch.IsOrdered())
	})

	t.Run("Invalid LgK", func(t *testing.T) {
		_, err := NewUpdateSketch(WithUpdateSketchLgK(MinLgK - 1))
		assert.Error(t, err)
		_, err = NewUpdateSketch(WithUpdateSketchLgK(MaxLgK + 1))
		assert.Error(t, err)
	})

	t.Run("Seed Hash", func(t *testing.T) {
		sketch, err := NewUpdateSketch()
		require.NoError(t, err)
		assert.Equal(t, uint16(0x93cc), sketch.SeedHash())
	})
}

func TestUpdateSketchExactMode(t *testing.T) {
	sketch, err := NewUpdateSketch()
	require.NoError(t, err)

	for _, v := range []int64{10, 5, 15, 10, 9} {
		sketch.UpdateInt64(v)
	}
	assert.False(t, sketch.IsEmpty())
	assert.False(t, sketch.IsEstimationMode())
	assert.Equal(t, uint32(4), sketch.NumRetained())
	assert.Equal(t, 4.0, sketch.Estimate())
	lb, err := sketch.LowerBound(2)
	require.NoError(t, err)
	assert.Equal(t, 4.0, lb)
}

func TestUpdateSketchValueKinds(t *testing.T) {
	sketch, err := NewUpdateSketch()
	require.NoError(t, err)

	sketch.UpdateFloat64(0.0)
	sketch.UpdateFloat64(math.Copysign(0, -1))
	sketch.UpdateFloat64(math.NaN())
	sketch.UpdateFloat64(math.Float64frombits(0x7ff8000000000001))
	assert.Equal(t, uint32(2), sketch.NumRetained())

	sketch.UpdateString("")
	sketch.UpdateBytes(nil)
	assert.Equal(t, uint32(2), sketch.NumRetained())

	sketch.UpdateString("a")
	sketch.UpdateBytes([]byte("a"))
	assert.Equal(t, uint32(3), sketch.NumRetained())
}

func TestUpdateSketchEstimationMode(t *testing.T) {
	sketch, err := NewUpdateSketch(WithUpdateSketchLgK(12))
	require.NoError(t, err)

	const n = 100000
	for i := 0; i < n; i++ {
		sketch.UpdateInt64(int64(i))
	}
	assert.True(t, sketch.IsEstimationMode())
	assert.Less(t, sketch.Theta(), 1.0)
	assert.GreaterOrEqual(t, sketch.NumRetained(), uint32(4096))
	assert.InEpsilon(t, float64(n), sketch.Estimate(), 0.05)

	lb, err := sketch.LowerBound(2)
	require.NoError(t, err)
	ub, err := sketch.UpperBound(2)
	require.NoError(t, err)
	assert.Less(t, lb, sketch.Estimate())
	assert.Greater(t, ub, sketch.Estimate())

	for h := range sketch.All() {
		assert.Less(t, h, sketch.Theta64())
	}

	sketch.Trim()
	assert.Equal(t, uint32(4096), sketch.NumRetained())
	assert.InEpsilon(t, float64(n), sketch.Estimate(), 0.05)

	sketch.Reset()
	assert.True(t, sketch.IsEmpty())
	assert.Equal(t, MaxTheta, sketch.Theta64())
	assert.Zero(t, sketch.NumRetained())
}

func TestUpdateSketchResizeFactors(t *testing.T) {
	for _, rf := range []ResizeFactor{ResizeX1, ResizeX2, ResizeX4, ResizeX8} {
		sketch, err := NewUpdateSketch(WithUpdateSketchLgK(8), WithUpdateSketchResizeFactor(rf))
		require.NoError(t, err)
		for i := 0; i < 20; i++ {
			sketch.UpdateInt64(int64(i))
		}
		assert.Equal(t, 20.0, sketch.Estimate(), "resize factor %d", rf)
		for i := 20; i < 5000; i++ {
			sketch.UpdateInt64(int64(i))
		}
		assert.InEpsilon(t, 5000.0, sketch.Estimate(), 0.3, "resize factor %d", rf)
	}
}

func TestUpdateSketchCompact(t *testing.T) {
	sketch, err := NewUpdateSketch()
	require.NoError(t, err)
	for i := 0; i < 100; i++ {
		sketch.UpdateInt64(int64(i))
	}

	ordered := sketch.Compact(true)
	assert.True(t, ordered.IsOrdered())
	assert.Equal(t, sketch.NumRetained(), ordered.NumRetained())
	assert.Equal(t, sketch.Estimate(), ordered.Estimate())

	var prev uint64
	for h := range ordered.All() {
		assert.Greater(t, h, prev)
		prev = h
	}

	unordered := sketch.Compact(false)
	assert.Equal(t, sketch.NumRetained(), unordered.NumRetained())
}

func TestLgKFromNominalEntries(t *testing.T) {
	lgK, err := LgKFromNominalEntries(4096)
	require.NoError(t, err)
	assert.Equal(t, uint8(12), lgK)

	lgK, err = LgKFromNominalEntries(16)
	require.NoError(t, err)
	assert.Equal(t, uint8(4), lgK)

	for _, k := range []int{0, -16, 1000, 8, 1 << 27} {
		_, err := LgKFromNominalEntries(k)
		assert.Error(t, err, "k=%d", k)
	}
}
