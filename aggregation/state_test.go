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

package aggregation

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSetSketch(t *testing.T, param int, values ...int64) *setSketch {
	t.Helper()
	s, err := setCodec{}.New(param)
	require.NoError(t, err)
	for _, v := range values {
		s.update(v)
	}
	return s
}

func TestSingleState(t *testing.T) {
	factory := NewStateFactory[*setSketch]("set", nil)
	state := factory.CreateSingle()
	_, ok := state.Get()
	assert.False(t, ok)
	assert.Equal(t, factory.SingleOverhead(), state.EstimatedSize())

	sk := newSetSketch(t, 8, 1, 2, 3)
	state.Set(sk)
	got, ok := state.Get()
	require.True(t, ok)
	assert.Same(t, sk, got)
	assert.Equal(t, factory.SingleOverhead()+32, state.EstimatedSize())

	// single states always report the live size
	sk.update(4)
	assert.Equal(t, factory.SingleOverhead()+40, state.EstimatedSize())
}

func TestGroupedStateCapacity(t *testing.T) {
	factory := NewStateFactory[*setSketch]("set", nil)
	state := factory.CreateGrouped()
	assert.Equal(t, 0, state.Capacity())
	assert.Equal(t, factory.GroupedOverhead(), state.EstimatedSize())

	state.EnsureCapacity(10)
	assert.Equal(t, 10, state.Capacity())
	state.EnsureCapacity(4)
	assert.Equal(t, 10, state.Capacity())
	for id := 0; id < state.Capacity(); id++ {
		_, ok := state.Get(id)
		assert.False(t, ok)
	}
	assert.Equal(t, factory.GroupedOverhead()+10*slotOverhead[*setSketch](), state.EstimatedSize())

	assert.Panics(t, func() { state.Set(10, newSetSketch(t, 8)) })
}

func TestGroupedStateRunningTotal(t *testing.T) {
	state := NewStateFactory[*setSketch]("set", nil).CreateGrouped()
	state.EnsureCapacity(3)
	base := state.EstimatedSize()

	state.Set(0, newSetSketch(t, 8, 1))
	state.Set(2, newSetSketch(t, 8, 1, 2, 3))
	assert.Equal(t, base+16+32, state.EstimatedSize())

	// replacing a slot swaps its size
	state.Set(2, newSetSketch(t, 8))
	assert.Equal(t, base+16+8, state.EstimatedSize())

	// in place updates are accounted at the next Set
	sk, ok := state.Get(0)
	require.True(t, ok)
	sk.update(2)
	sk.update(3)
	assert.Equal(t, base+16+8, state.EstimatedSize())
	state.Set(0, sk)
	assert.Equal(t, base+32+8, state.EstimatedSize())

	state.EnsureCapacity(5)
	assert.Equal(t, base+2*slotOverhead[*setSketch]()+32+8, state.EstimatedSize())
}

func TestGroupView(t *testing.T) {
	state := NewStateFactory[*setSketch]("set", nil).CreateGrouped()
	state.EnsureCapacity(2)
	g0, g1 := state.Group(0), state.Group(1)

	g1.Set(newSetSketch(t, 8, 7))
	_, ok := g0.Get()
	assert.False(t, ok)
	sk, ok := state.Get(1)
	require.True(t, ok)
	assert.Equal(t, 1, sk.estimate())
	assert.Equal(t, state.EstimatedSize(), g0.EstimatedSize())
}

func TestStateFactoryMetrics(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	factory := NewStateFactory[*setSketch]("set", metrics)
	factory.CreateSingle()
	factory.CreateGrouped()
	factory.CreateGrouped()
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.statesCreated.WithLabelValues("set", "single")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.statesCreated.WithLabelValues("set", "grouped")))
}
