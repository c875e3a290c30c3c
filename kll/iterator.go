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

import "golang.org/x/exp/constraints"

// Iterator walks the retained items level by level. Items on level i weigh 2^i.
type Iterator[T constraints.Float] struct {
	items         []T
	levels        []uint32
	index         uint32
	level         int
	weight        int64
	isInitialized bool
}

func newIterator[T constraints.Float](items []T, levels []uint32) *Iterator[T] {
	return &Iterator[T]{items: items, levels: levels}
}

func (it *Iterator[T]) Next() bool {
	if !it.isInitialized {
		it.level = 0
		it.index = it.levels[0]
		it.weight = 1
		it.isInitialized = true
	} else {
		it.index++
	}
	if it.index < it.levels[it.level+1] {
		return true
	}
	// go to next non-empty level
	numLevels := len(it.levels) - 1
	for {
		it.level++
		if it.level == numLevels {
			return false
		}
		it.weight *= 2
		if it.levels[it.level] != it.levels[it.level+1] {
			break
		}
	}
	it.index = it.levels[it.level]
	return true
}

// GetQuantile returns the item at the current position. Only valid after Next returned true.
func (it *Iterator[T]) GetQuantile() T {
	return it.items[it.index]
}

func (it *Iterator[T]) GetWeight() int64 {
	return it.weight
}
