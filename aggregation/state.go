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
	"unsafe"
)

// State holds at most one proxy. Implementations are not safe for concurrent use.
type State[S Sketch[S]] interface {
	Get() (S, bool)
	Set(sketch S)
	EstimatedSize() int64
}

// SingleState is the state of an aggregation without GROUP BY.
type SingleState[S Sketch[S]] struct {
	sketch  S
	present bool
}

func (s *SingleState[S]) Get() (S, bool) {
	return s.sketch, s.present
}

func (s *SingleState[S]) Set(sketch S) {
	s.sketch = sketch
	s.present = true
}

func (s *SingleState[S]) EstimatedSize() int64 {
	size := singleOverhead[S]()
	if s.present {
		size += s.sketch.EstimatedSizeBytes()
	}
	return size
}

type slot[S Sketch[S]] struct {
	sketch  S
	size    int64
	present bool
}

// GroupedState is an arena of proxies indexed by group id. The size of every slot is
// taken when the slot is set, so in place updates are accounted at the next Set.
type GroupedState[S Sketch[S]] struct {
	slots []slot[S]
	total int64
}

// EnsureCapacity makes ids below n addressable. It never shrinks the arena.
func (g *GroupedState[S]) EnsureCapacity(n int) {
	if n <= len(g.slots) {
		return
	}
	g.slots = append(g.slots, make([]slot[S], n-len(g.slots))...)
}

func (g *GroupedState[S]) Capacity() int {
	return len(g.slots)
}

func (g *GroupedState[S]) Get(id int) (S, bool) {
	s := g.slots[id]
	return s.sketch, s.present
}

// Set replaces the proxy of group id and moves the running total by the size delta.
func (g *GroupedState[S]) Set(id int, sketch S) {
	s := &g.slots[id]
	size := sketch.EstimatedSizeBytes()
	g.total += size - s.size
	s.sketch = sketch
	s.size = size
	s.present = true
}

func (g *GroupedState[S]) EstimatedSize() int64 {
	return groupedOverhead[S]() + int64(len(g.slots))*slotOverhead[S]() + g.total
}

// Group returns a view of the slot of group id.
func (g *GroupedState[S]) Group(id int) State[S] {
	return groupView[S]{g: g, id: id}
}

type groupView[S Sketch[S]] struct {
	g  *GroupedState[S]
	id int
}

func (v groupView[S]) Get() (S, bool) {
	return v.g.Get(v.id)
}

func (v groupView[S]) Set(sketch S) {
	v.g.Set(v.id, sketch)
}

// EstimatedSize is the size of the whole arena, which is what the engine accounts.
func (v groupView[S]) EstimatedSize() int64 {
	return v.g.EstimatedSize()
}

func singleOverhead[S Sketch[S]]() int64 {
	return int64(unsafe.Sizeof(SingleState[S]{}))
}

func groupedOverhead[S Sketch[S]]() int64 {
	return int64(unsafe.Sizeof(GroupedState[S]{}))
}

func slotOverhead[S Sketch[S]]() int64 {
	return int64(unsafe.Sizeof(slot[S]{}))
}

// StateFactory creates the states of one family.
type StateFactory[S Sketch[S]] struct {
	family  string
	metrics *Metrics
}

func NewStateFactory[S Sketch[S]](family string, metrics *Metrics) StateFactory[S] {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return StateFactory[S]{family: family, metrics: metrics}
}

func (f StateFactory[S]) CreateSingle() *SingleState[S] {
	f.metrics.statesCreated.WithLabelValues(f.family, "single").Inc()
	return &SingleState[S]{}
}

func (f StateFactory[S]) CreateGrouped() *GroupedState[S] {
	f.metrics.statesCreated.WithLabelValues(f.family, "grouped").Inc()
	return &GroupedState[S]{}
}

func (f StateFactory[S]) SingleOverhead() int64 {
	return singleOverhead[S]()
}

func (f StateFactory[S]) GroupedOverhead() int64 {
	return groupedOverhead[S]()
}
