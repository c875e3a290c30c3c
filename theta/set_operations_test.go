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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnion(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		union, err := NewUnion()
		require.NoError(t, err)
		result := union.Result(true)
		assert.True(t, result.IsEmpty())
		assert.Equal(t, 0.0, result.Estimate())

		require.NoError(t, union.Update(newSketchOf(t)))
		assert.True(t, union.Result(true).IsEmpty())
	})

	t.Run("Exact Overlap", func(t *testing.T) {
		union, err := NewUnion()
		require.NoError(t, err)
		require.NoError(t, union.Update(newSketchOf(t, 1, 2, 2, 3, 4, 5, 5)))
		require.NoError(t, union.Update(newSketchOf(t, 3, 4, 4, 5, 6, 7, 8).Compact(true)))
		assert.Equal(t, 8.0, union.Result(true).Estimate())
	})

	t.Run("Three Sketches", func(t *testing.T) {
		union, err := NewUnion()
		require.NoError(t, err)
		for _, s := range []*UpdateSketch{
			newSketchOf(t, 1, 2, 2, 3, 4, 5, 5),
			newSketchOf(t, 4, 4, 5, 6, 7, 8, 8),
			newSketchOf(t, 9, 10, 10, 10, 11, 12),
		} {
			require.NoError(t, union.Update(s))
		}
		assert.Equal(t, 12.0, union.Result(false).Estimate())
	})

	t.Run("Spark Sketches", func(t *testing.T) {
		union, err := NewUnion()
		require.NoError(t, err)
		for _, s := range sparkSketches {
			sketch, err := Decode(mustDecodeBase64(t, s), DefaultSeed)
			require.NoError(t, err)
			require.NoError(t, union.Update(sketch))
		}
		assert.Equal(t, 12.0, union.Result(true).Estimate())
	})

	t.Run("Estimation Mode", func(t *testing.T) {
		union, err := NewUnion(WithUnionLgK(10))
		require.NoError(t, err)
		for part := 0; part < 4; part++ {
			sketch, err := NewUpdateSketch(WithUpdateSketchLgK(12))
			require.NoError(t, err)
			for i := 0; i < 10000; i++ {
				sketch.UpdateInt64(int64(part*5000 + i))
			}
			require.NoError(t, union.Update(sketch.Compact(true)))
		}
		result := union.Result(true)
		assert.True(t, result.IsEstimationMode())
		assert.LessOrEqual(t, result.NumRetained(), uint32(1024))
		assert.InEpsilon(t, 25000.0, result.Estimate(), 0.1)

		union.Reset()
		assert.True(t, union.Result(true).IsEmpty())
	})

	t.Run("Seed Mismatch", func(t *testing.T) {
		union, err := NewUnion()
		require.NoError(t, err)
		other, err := NewUpdateSketch(WithUpdateSketchSeed(123))
		require.NoError(t, err)
		other.UpdateInt64(1)
		assert.Error(t, union.Update(other))
	})
}

func TestIntersection(t *testing.T) {
	t.Run("Before Update", func(t *testing.T) {
		intersection, err := NewIntersection()
		require.NoError(t, err)
		assert.False(t, intersection.HasResult())
		_, err = intersection.Result(true)
		assert.Error(t, err)
	})

	t.Run("Exact Overlap", func(t *testing.T) {
		intersection, err := NewIntersection()
		require.NoError(t, err)
		require.NoError(t, intersection.Update(newSketchOf(t, 1, 2, 2, 3, 4, 5, 5)))
		require.NoError(t, intersection.Update(newSketchOf(t, 3, 4, 4, 5, 6, 7, 8).Compact(true)))
		assert.True(t, intersection.HasResult())
		result, err := intersection.Result(true)
		require.NoError(t, err)
		assert.Equal(t, 3.0, result.Estimate())
	})

	t.Run("Disjoint", func(t *testing.T) {
		intersection, err := NewIntersection()
		require.NoError(t, err)
		require.NoError(t, intersection.Update(newSketchOf(t, 1, 2)))
		require.NoError(t, intersection.Update(newSketchOf(t, 3, 4)))
		result, err := intersection.Result(false)
		require.NoError(t, err)
		assert.Equal(t, 0.0, result.Estimate())
		assert.True(t, result.IsEmpty())

		// stays empty
		require.NoError(t, intersection.Update(newSketchOf(t, 1, 2)))
		result, err = intersection.Result(false)
		require.NoError(t, err)
		assert.Zero(t, result.NumRetained())
	})

	t.Run("Empty Input", func(t *testing.T) {
		intersection, err := NewIntersection()
		require.NoError(t, err)
		require.NoError(t, intersection.Update(newSketchOf(t, 1, 2)))
		require.NoError(t, intersection.Update(newSketchOf(t)))
		result, err := intersection.Result(true)
		require.NoError(t, err)
		assert.True(t, result.IsEmpty())
	})

	t.Run("Estimation Mode", func(t *testing.T) {
		a, err := NewUpdateSketch(WithUpdateSketchLgK(10))
		require.NoError(t, err)
		b, err := NewUpdateSketch(WithUpdateSketchLgK(10))
		require.NoError(t, err)
		for i := 0; i < 20000; i++ {
			a.UpdateInt64(int64(i))
			b.UpdateInt64(int64(i + 10000))
		}
		intersection, err := NewIntersection()
		require.NoError(t, err)
		require.NoError(t, intersection.Update(a))
		require.NoError(t, intersection.Update(b.Compact(true)))
		result, err := intersection.Result(true)
		require.NoError(t, err)
		assert.True(t, result.IsEstimationMode())
		assert.InEpsilon(t, 10000.0, result.Estimate(), 0.2)
	})
}
