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

package thetaagg

import (
	"encoding/binary"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Roblox/data-tools/aggregation"
	"github.com/Roblox/data-tools/theta"
)

func newAggregator(t *testing.T, opts ...aggregation.Option) *Aggregator {
	t.Helper()
	a, err := NewAggregator(aggregation.DefaultConfig().Family(aggregation.FamilyTheta), opts...)
	require.NoError(t, err)
	return a
}

func newFunctions(t *testing.T) *Functions {
	t.Helper()
	f, err := NewFunctions(aggregation.FamilyConfig{})
	require.NoError(t, err)
	return f
}

func sketchOfRange(t *testing.T, a *Aggregator, from, to int64) []byte {
	t.Helper()
	state := a.Factory().CreateSingle()
	for v := from; v < to; v++ {
		require.NoError(t, a.InputLong(state, v))
	}
	out, err := a.Output(state)
	require.NoError(t, err)
	return out
}

func TestSmallValues(t *testing.T) {
	a, f := newAggregator(t), newFunctions(t)
	state := a.Factory().CreateSingle()
	for _, v := range []int64{10, 5, 15, 10, 9} {
		require.NoError(t, a.InputLong(state, v))
	}
	require.NoError(t, a.InputDouble(state, 10))
	require.NoError(t, a.InputReal(state, int64(math.Float32bits(10))))
	require.NoError(t, a.InputString(state, "ten"))
	require.NoError(t, a.InputString(state, ""))

	out, err := a.Output(state)
	require.NoError(t, err)
	estimate, err := f.Estimate(out)
	require.NoError(t, err)
	// the double 10 hashes apart from the long 10
	assert.Equal(t, int64(6), estimate)

	for nsd := 1; nsd <= 3; nsd++ {
		lb, err := f.LowerBound(out, nsd)
		require.NoError(t, err)
		ub, err := f.UpperBound(out, nsd)
		require.NoError(t, err)
		assert.Equal(t, estimate, lb)
		assert.Equal(t, estimate, ub)
	}
	_, err = f.UpperBound(out, 0)
	assert.Error(t, err)
}

func TestOutputIsBareCompactSketch(t *testing.T) {
	a := newAggregator(t)
	out, err := a.Output(a.Factory().CreateSingle())
	require.NoError(t, err)
	sk, err := theta.Decode(out, theta.DefaultSeed)
	require.NoError(t, err)
	assert.True(t, sk.IsEmpty())

	out = sketchOfRange(t, a, 0, 100)
	sk, err = theta.Decode(out, theta.DefaultSeed)
	require.NoError(t, err)
	assert.Equal(t, uint32(100), sk.NumRetained())
}

func TestFoldPending(t *testing.T) {
	p, err := codec{}.New(DefaultK)
	require.NoError(t, err)
	for v := int64(0); v < 50; v++ {
		p.UpdateInt64(v)
	}
	assert.False(t, p.update.IsEmpty())
	assert.Equal(t, int64(50), p.Estimate())
	assert.True(t, p.update.IsEmpty())

	// values arriving after a read land in the union on the next read
	for v := int64(25); v < 75; v++ {
		p.UpdateInt64(v)
	}
	assert.Equal(t, int64(75), p.Estimate())
	bytes, err := p.Serialize()
	require.NoError(t, err)
	assert.Equal(t, int64(len(bytes)), p.EstimatedSizeBytes())
}

func TestStateCarriesK(t *testing.T) {
	a := newAggregator(t)
	state := a.Factory().CreateSingle()
	for v := int64(0); v < 5000; v++ {
		require.NoError(t, a.InputLongWithParam(state, v, 1024))
	}
	bytes, err := a.Serializer().Serialize(state)
	require.NoError(t, err)
	assert.Equal(t, uint32(1024), binary.LittleEndian.Uint32(bytes))
	sk, err := theta.Decode(bytes[4:], theta.DefaultSeed)
	require.NoError(t, err)
	assert.True(t, sk.IsEstimationMode())

	restored := a.Factory().CreateSingle()
	require.NoError(t, a.Serializer().Deserialize(bytes, restored))
	got, ok := restored.Get()
	require.True(t, ok)
	want, _ := state.Get()
	assert.Equal(t, 1024, got.Param())
	assert.Equal(t, want.Estimate(), got.Estimate())
	assert.InEpsilon(t, 5000, float64(got.Estimate()), 0.1)
}

func TestInputSketchAdoptsK(t *testing.T) {
	a := newAggregator(t)
	bytes := sketchOfRange(t, a, 0, 10)

	state := a.Factory().CreateSingle()
	require.NoError(t, a.InputSketchWithParam(state, bytes, 64))
	require.NoError(t, a.InputSketch(state, bytes))
	p, _ := state.Get()
	assert.Equal(t, 64, p.Param())
	assert.Equal(t, int64(10), p.Estimate())

	err := a.InputSketchWithParam(state, bytes, 100)
	assert.True(t, errors.Is(err, aggregation.ErrInvalidConfiguration))
}

func TestSetOperations(t *testing.T) {
	a, f := newAggregator(t), newFunctions(t)
	left, right := sketchOfRange(t, a, 0, 1000), sketchOfRange(t, a, 500, 1500)

	union, err := f.Union(left, right)
	require.NoError(t, err)
	estimate, err := f.Estimate(union)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), estimate)

	intersection, err := f.Intersection(left, right)
	require.NoError(t, err)
	estimate, err = f.Estimate(intersection)
	require.NoError(t, err)
	assert.Equal(t, int64(500), estimate)

	// set operation results are bare compact sketches
	_, err = theta.Decode(intersection, theta.DefaultSeed)
	require.NoError(t, err)

	disjoint, err := f.Intersection(left, sketchOfRange(t, a, 5000, 5010))
	require.NoError(t, err)
	estimate, err = f.Estimate(disjoint)
	require.NoError(t, err)
	assert.Zero(t, estimate)
}

func TestSetOperationsWithK(t *testing.T) {
	a, f := newAggregator(t), newFunctions(t)
	left, right := sketchOfRange(t, a, 0, 3000), sketchOfRange(t, a, 1000, 4000)

	union, err := f.UnionWithK(left, right, 256)
	require.NoError(t, err)
	sk, err := theta.Decode(union, theta.DefaultSeed)
	require.NoError(t, err)
	assert.LessOrEqual(t, sk.NumRetained(), uint32(256))
	estimate, err := f.EstimateWithK(union, 256)
	require.NoError(t, err)
	assert.InEpsilon(t, 4000, float64(estimate), 0.25)

	intersection, err := f.IntersectionWithK(left, right, 1024)
	require.NoError(t, err)
	estimate, err = f.Estimate(intersection)
	require.NoError(t, err)
	assert.InEpsilon(t, 2000, float64(estimate), 0.25)

	lb, err := f.LowerBoundWithK(left, 2, 256)
	require.NoError(t, err)
	ub, err := f.UpperBoundWithK(left, 2, 256)
	require.NoError(t, err)
	assert.Less(t, lb, ub)

	_, err = f.UnionWithK(left, right, 1000)
	assert.True(t, errors.Is(err, aggregation.ErrInvalidConfiguration))
}

func TestMergeCommutes(t *testing.T) {
	a := newAggregator(t)
	parts := [][]byte{sketchOfRange(t, a, 0, 3000), sketchOfRange(t, a, 2000, 6000), sketchOfRange(t, a, 5000, 5001)}
	combine := func(order ...int) int64 {
		state := a.Factory().CreateSingle()
		for _, i := range order {
			require.NoError(t, a.InputSketch(state, parts[i]))
		}
		out, err := a.Output(state)
		require.NoError(t, err)
		sk, err := theta.Decode(out, theta.DefaultSeed)
		require.NoError(t, err)
		return int64(sk.Estimate())
	}
	want := combine(0, 1, 2)
	assert.InEpsilon(t, 6000, float64(want), 0.1)
	for _, order := range [][]int{{2, 1, 0}, {1, 2, 0}} {
		assert.InEpsilon(t, float64(want), float64(combine(order...)), 0.01)
	}
}

func TestGroupedStates(t *testing.T) {
	a, f := newAggregator(t), newFunctions(t)
	bytes := sketchOfRange(t, a, 0, 700)
	want, err := f.Estimate(bytes)
	require.NoError(t, err)

	grouped := a.Factory().CreateGrouped()
	grouped.EnsureCapacity(3)
	for id := 0; id < 3; id++ {
		require.NoError(t, a.InputSketch(grouped.Group(id), bytes))
	}
	for id := 0; id < 3; id++ {
		p, ok := grouped.Get(id)
		require.True(t, ok)
		assert.Equal(t, want, p.Estimate())
	}
}

func TestScratchStateIsNotShared(t *testing.T) {
	a := newAggregator(t)
	source := a.Factory().CreateSingle()
	for v := int64(1); v <= 3; v++ {
		require.NoError(t, a.InputLong(source, v))
	}
	bytes, err := a.Serializer().Serialize(source)
	require.NoError(t, err)

	// rows are deserialized into one scratch state and combined into their groups
	scratch := a.Factory().CreateSingle()
	grouped := a.Factory().CreateGrouped()
	grouped.EnsureCapacity(2)
	require.NoError(t, a.Serializer().Deserialize(bytes, scratch))
	require.NoError(t, a.Combine(grouped.Group(0), scratch))
	junk := []byte{0, 16, 0, 0, 1, 3, 0xee, 0, 0, 0, 0, 0}
	require.NoError(t, a.Serializer().Deserialize(junk, scratch))
	require.NoError(t, a.Combine(grouped.Group(1), scratch))

	for v := int64(100); v < 200; v++ {
		require.NoError(t, a.InputLong(grouped.Group(0), v))
	}
	first, _ := grouped.Get(0)
	second, _ := grouped.Get(1)
	kept, _ := scratch.Get()
	assert.NotSame(t, first, second)
	assert.NotSame(t, kept, second)
	assert.Equal(t, int64(103), first.Estimate())
	assert.Equal(t, int64(3), second.Estimate())
	assert.Equal(t, int64(3), kept.Estimate())
}

func TestCombineReassociates(t *testing.T) {
	a := newAggregator(t)
	parts := [][]byte{sketchOfRange(t, a, 0, 1500), sketchOfRange(t, a, 1000, 2500), sketchOfRange(t, a, 2400, 3000)}
	part := func(i int) State {
		s := a.Factory().CreateSingle()
		require.NoError(t, a.InputSketch(s, parts[i]))
		return s
	}
	combine := func(x, y State) State {
		s := a.Factory().CreateSingle()
		require.NoError(t, a.Combine(s, x))
		require.NoError(t, a.Combine(s, y))
		return s
	}

	left, _ := combine(combine(part(0), part(1)), part(2)).Get()
	right, _ := combine(part(0), combine(part(1), part(2))).Get()
	assert.Equal(t, int64(3000), left.Estimate())
	assert.Equal(t, left.Estimate(), right.Estimate())
	assert.Equal(t, left.Param(), right.Param())
}

func TestMalformedStateIsSkipped(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	registry := prometheus.NewRegistry()
	a := newAggregator(t, aggregation.WithLogger(zap.New(core)), aggregation.WithMetrics(aggregation.NewMetrics(registry)))
	f := newFunctions(t)

	state := a.Factory().CreateSingle()
	require.NoError(t, a.InputLong(state, 1))
	junk := []byte{0, 16, 0, 0, 1, 3, 0xee, 0, 0, 0, 0, 0}
	require.NoError(t, a.Serializer().Deserialize(junk, state))
	p, _ := state.Get()
	assert.Equal(t, int64(1), p.Estimate())
	require.Equal(t, 1, logs.FilterMessage("skipping malformed sketch state").Len())
	assert.Equal(t, "theta", logs.All()[len(logs.All())-1].LoggerName)

	// a K outside the accepted range in the header is corruption too
	bad := append([]byte{100, 0, 0, 0}, sketchOfRange(t, a, 0, 3)...)
	require.NoError(t, a.Serializer().Deserialize(bad, state))
	require.NoError(t, testutil.GatherAndCompare(registry, strings.NewReader(`
# HELP sketch_decode_errors_total Number of sketches that failed to decode.
# TYPE sketch_decode_errors_total counter
sketch_decode_errors_total{family="theta",outcome="skipped"} 2
`), "sketch_decode_errors_total"))

	// query inputs are never skipped
	assert.True(t, errors.Is(a.InputSketch(state, junk), aggregation.ErrMalformedSketch))
	_, err := f.Estimate(junk)
	assert.True(t, errors.Is(err, aggregation.ErrMalformedSketch))

	failing, err := NewAggregator(aggregation.FamilyConfig{OnMalformedState: aggregation.FailOnMalformed})
	require.NoError(t, err)
	assert.True(t, errors.Is(failing.Serializer().Deserialize(junk, state), aggregation.ErrMalformedSketch))
}
