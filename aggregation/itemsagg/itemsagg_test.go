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


package itemsagg

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/Roblox/data-tools/aggregation"
)

func longs(t *testing.T) (*Aggregator[int64], *Functions[int64]) {
	t.Helper()
	a, err := NewLongAggregator(aggregation.FamilyConfig{})
	require.NoError(t, err)
	f, err := NewLongFunctions(aggregation.FamilyConfig{})
	require.NoError(t, err)
	return a, f
}

func doubles(t *testing.T) (*DoubleAggregator, *DoubleFunctions) {
	t.Helper()
	a, err := NewDoubleAggregator(aggregation.FamilyConfig{})
	require.NoError(t, err)
	f, err := NewDoubleFunctions(aggregation.FamilyConfig{})
	require.NoError(t, err)
	return a, f
}

func strs(t *testing.T) (*Aggregator[string], *Functions[string]) {
	t.Helper()
	a, err := NewStringAggregator(aggregation.FamilyConfig{})
	require.NoError(t, err)
	f, err := NewStringFunctions(aggregation.FamilyConfig{})
	require.NoError(t, err)
	return a, f
}

func sketchOf[C comparable](t *testing.T, a *Aggregator[C], mapSize int, items ...C) []byte {
	t.Helper()
	state := a.Factory().CreateSingle()
	for _, item := range items {
		require.NoError(t, a.InputWithParam(state, item, mapSize))
	}
	out, err := a.Output(state)
	require.NoError(t, err)
	return out
}

func TestDoubleSmallValues(t *testing.T) {
	a, f := doubles(t)
	out := sketchOf(t, a.Aggregator, DefaultMapSize, 0.1, 0.2, 0.2, 0.2, 0.3, 0.4)

	estimate, err := f.Estimate(out, 0.2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), estimate)

	estimates, err := f.EstimateArray(out, []float64{0.1, 0.2, 0.5})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3, 0}, estimates)
	// nothing was purged, so the bounds are exact
	ubs, err := f.UpperBoundArray(out, []float64{0.1, 0.2, 0.5})
	require.NoError(t, err)
	assert.Equal(t, estimates, ubs)
	lbs, err := f.LowerBoundArray(out, []float64{0.1, 0.2, 0.5})
	require.NoError(t, err)
	assert.Equal(t, estimates, lbs)
}

func TestRealItems(t *testing.T) {
	a, f := doubles(t)
	half := int64(math.Float32bits(0.5))
	state := a.Factory().CreateSingle()
	require.NoError(t, a.InputReal(state, half))
	require.NoError(t, a.InputRealWithParam(state, half, 16))
	require.NoError(t, a.Input(state, 0.5))
	p, _ := state.Get()
	assert.Equal(t, DefaultMapSize, p.Param())
	out, err := a.Output(state)
	require.NoError(t, err)

	estimate, err := f.EstimateReal(out, half)
	require.NoError(t, err)
	assert.Equal(t, int64(3), estimate)
	estimates, err := f.EstimateRealArray(out, []int64{half, int64(math.Float32bits(0.25))})
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 0}, estimates)

	ub, err := f.UpperBoundReal(out, half)
	require.NoError(t, err)
	lb, err := f.LowerBoundReal(out, half)
	require.NoError(t, err)
	assert.Equal(t, [2]int64{3, 3}, [2]int64{lb, ub})
	ubs, err := f.UpperBoundRealArray(out, []int64{half})
	require.NoError(t, err)
	lbs, err := f.LowerBoundRealArray(out, []int64{half})
	require.NoError(t, err)
	assert.Equal(t, ubs, lbs)
}

func TestStringFrequentItems(t *testing.T) {
	a, f := strs(t)
	out := sketchOf(t, a, DefaultMapSize, strings.Fields("a b a a c b")...)

	estimate, err := f.Estimate(out, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(3), estimate)

	for _, falsePositives := range []bool{true, false} {
		items, err := f.FrequentItems(out, falsePositives)
		require.NoError(t, err)
		if diff := cmp.Diff([]string{"a", "b", "c"}, items); diff != "" {
			t.Errorf("frequent items mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestFrequentItemsAfterPurge(t *testing.T) {
	a, f := longs(t)
	state := a.Factory().CreateSingle()
	for i := 0; i < 1000; i++ {
		require.NoError(t, a.InputWithParam(state, 0, 8))
	}
	for v := int64(1); v <= 200; v++ {
		require.NoError(t, a.Input(state, v))
	}
	p, _ := state.Get()
	assert.Equal(t, 8, p.Param())
	out, err := a.Output(state)
	require.NoError(t, err)

	lb, err := f.LowerBound(out, 0)
	require.NoError(t, err)
	ub, err := f.UpperBound(out, 0)
	require.NoError(t, err)
	assert.LessOrEqual(t, lb, int64(1000))
	assert.GreaterOrEqual(t, ub, int64(1000))
	assert.Less(t, lb, ub)

	sure, err := f.FrequentItems(out, false)
	require.NoError(t, err)
	maybe, err := f.FrequentItems(out, true)
	require.NoError(t, err)
	require.NotEmpty(t, sure)
	assert.Equal(t, int64(0), sure[0])
	assert.Equal(t, int64(0), maybe[0])
	assert.Subset(t, maybe, sure)
}

func TestInvalidMapSize(t *testing.T) {
	_, err := NewStringAggregator(aggregation.FamilyConfig{DefaultParam: 3})
	assert.True(t, errors.Is(err, aggregation.ErrInvalidConfiguration))

	a, _ := longs(t)
	err = a.InputWithParam(a.Factory().CreateSingle(), 1, 100)
	assert.True(t, errors.Is(err, aggregation.ErrInvalidConfiguration))
}

func TestMergeAcrossMapSizes(t *testing.T) {
	a, f := longs(t)
	large := sketchOf[int64](t, a, 64, 1, 1, 2)

	state := a.Factory().CreateSingle()
	require.NoError(t, a.InputWithParam(state, 1, 16))
	require.NoError(t, a.InputSketch(state, large))
	p, _ := state.Get()
	assert.Equal(t, 16, p.Param())
	out, err := a.Output(state)
	require.NoError(t, err)
	estimates, err := f.EstimateArray(out, []int64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 1}, estimates)

	empty := a.Factory().CreateSingle()
	require.NoError(t, a.InputSketch(empty, large))
	p, _ = empty.Get()
	assert.Equal(t, 64, p.Param())
}

func TestMergeCommutes(t *testing.T) {
	a, _ := strs(t)
	parts := [][]byte{
		sketchOf(t, a, DefaultMapSize, "x", "y", "y"),
		sketchOf(t, a, DefaultMapSize, "y", "z"),
		sketchOf(t, a, DefaultMapSize, "x"),
	}
	var first []string
	for _, order := range [][]int{{0, 1, 2}, {2, 1, 0}, {1, 2, 0}} {
		state := a.Factory().CreateSingle()
		for _, i := range order {
			other := a.Factory().CreateSingle()
			require.NoError(t, a.Serializer().Deserialize(parts[i], other))
			require.NoError(t, a.Combine(state, other))
		}
		p, ok := state.Get()
		require.True(t, ok)
		for item, want := range map[string]int64{"x": 2, "y": 3, "z": 1} {
			got, _ := p.Estimate(item)
			assert.Equal(t, want, got, item)
		}
		items := p.FrequentItems(true)
		if first == nil {
			first = items
			continue
		}
		if diff := cmp.Diff(first, items); diff != "" {
			t.Errorf("order %v changed the frequent items (-want +got):\n%s", order, diff)
		}
	}
}

func TestCombineReassociates(t *testing.T) {
	a, _ := strs(t)
	parts := [][]byte{
		sketchOf(t, a, DefaultMapSize, "x", "y", "y"),
		sketchOf(t, a, DefaultMapSize, "y", "z"),
		sketchOf(t, a, DefaultMapSize, "x"),
	}
	part := func(i int) State[string] {
		s := a.Factory().CreateSingle()
		require.NoError(t, a.Serializer().Deserialize(parts[i], s))
		return s
	}
	combine := func(x, y State[string]) State[string] {
		s := a.Factory().CreateSingle()
		require.NoError(t, a.Combine(s, x))
		require.NoError(t, a.Combine(s, y))
		return s
	}

	left, _ := combine(combine(part(0), part(1)), part(2)).Get()
	right, _ := combine(part(0), combine(part(1), part(2))).Get()
	for item, want := range map[string]int64{"x": 2, "y": 3, "z": 1} {
		l, _ := left.Estimate(item)
		r, _ := right.Estimate(item)
		assert.Equal(t, want, l, item)
		assert.Equal(t, want, r, item)
	}
	if diff := cmp.Diff(left.FrequentItems(true), right.FrequentItems(true)); diff != "" {
		t.Errorf("grouping changed the frequent items (-left +right):\n%s", diff)
	}
}

func TestSerializerRoundTrip(t *testing.T) {
	a, _ := doubles(t)
	state := a.Factory().CreateSingle()
	for i := 0; i < 500; i++ {
		require.NoError(t, a.Input(state, float64(i%7)))
	}
	bytes, err := a.Serializer().Serialize(state)
	require.NoError(t, err)
	restored := a.Factory().CreateSingle()
	require.NoError(t, a.Serializer().Deserialize(bytes, restored))
	want, _ := state.Get()
	got, ok := restored.Get()
	require.True(t, ok)
	for v := 0.0; v < 7; v++ {
		w, _ := want.Estimate(v)
		g, _ := got.Estimate(v)
		assert.Equal(t, w, g)
	}
	assert.Equal(t, want.EstimatedSizeBytes(), int64(len(bytes)))
}

func TestGroupedStates(t *testing.T) {
	a, f := longs(t)
	bytes := sketchOf[int64](t, a, DefaultMapSize, 4, 4, 9)
	grouped := a.Factory().CreateGrouped()
	grouped.EnsureCapacity(3)
	for id := 0; id < 3; id++ {
		require.NoError(t, a.InputSketch(grouped.Group(id), bytes))
	}
	for id := 0; id < 3; id++ {
		out, err := a.Output(grouped.Group(id))
		require.NoError(t, err)
		estimate, err := f.Estimate(out, 4)
		require.NoError(t, err)
		assert.Equal(t, int64(2), estimate)
	}
}

func TestMalformedBytes(t *testing.T) {
	a, f := strs(t)
	state := a.Factory().CreateSingle()
	require.NoError(t, a.Input(state, "kept"))

	junk := []byte("not a sketch at all")
	assert.True(t, errors.Is(a.InputSketch(state, junk), aggregation.ErrMalformedSketch))
	assert.True(t, errors.Is(a.Serializer().Deserialize(junk, state), aggregation.ErrMalformedSketch))
	_, err := f.FrequentItems(junk, true)
	assert.True(t, errors.Is(err, aggregation.ErrMalformedSketch))

	p, _ := state.Get()
	assert.Equal(t, []string{"kept"}, p.FrequentItems(false))
}

func TestParallelPartialStates(t *testing.T) {
	a, f := longs(t)
	const workers, perWorker = 4, 1000
	partials := make([][]byte, workers)
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			state := a.Factory().CreateSingle()
			for i := 0; i < perWorker; i++ {
				if err := a.Input(state, 7); err != nil {
					return err
				}
				if err := a.Input(state, int64(100+w)); err != nil {
					return err
				}
			}
			bytes, err := a.Serializer().Serialize(state)
			partials[w] = bytes
			return err
		})
	}
	require.NoError(t, g.Wait())

	final := a.Factory().CreateSingle()
	for _, bytes := range partials {
		require.NoError(t, a.InputSketch(final, bytes))
	}
	out, err := a.Output(final)
	require.NoError(t, err)
	estimates, err := f.EstimateArray(out, []int64{7, 100, 103})
	require.NoError(t, err)
	assert.Equal(t, []int64{workers * perWorker, perWorker, perWorker}, estimates)
}
