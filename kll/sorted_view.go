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
	"cmp"
	"slices"

	"golang.org/x/exp/constraints"

	"github.com/Roblox/data-tools/internal"
)

// SortedView holds the retained items in order with their cumulative weights.
type SortedView[T constraints.Float] struct {
	quantiles  []T
	cumWeights []int64
	totalN     uint64
}

type weightedItem[T constraints.Float] struct {
	item   T
	weight int64
}

func newSortedView[T constraints.Float](s *Sketch[T]) *SortedView[T] {
	entries := make([]weightedItem[T], 0, s.GetNumRetained())
	it := s.GetIterator()
	for it.Next() {
		entries = append(entries, weightedItem[T]{it.GetQuantile(), it.GetWeight()})
	}
	slices.SortStableFunc(entries, func(a, b weightedItem[T]) int {
		return cmp.Compare(a.item, b.item)
	})

	sv := &SortedView[T]{
		quantiles:  make([]T, len(entries)),
		cumWeights: make([]int64, len(entries)),
		totalN:     s.n,
	}
	var subtotal int64
	for i, e := range entries {
		subtotal += e.weight
		sv.quantiles[i] = e.item
		sv.cumWeights[i] = subtotal
	}
	return sv
}

// GetRank returns the normalized rank of item.
func (sv *SortedView[T]) GetRank(item T, inclusive bool) float64 {
	crit := internal.InequalityLT
	if inclusive {
		crit = internal.InequalityLE
	}
	index := internal.FindWithInequality(sv.quantiles, item, crit)
	if index == -1 {
		return 0
	}
	return float64(sv.cumWeights[index]) / float64(sv.totalN)
}

// GetQuantile returns the retained item at the given normalized rank.
func (sv *SortedView[T]) GetQuantile(rank float64, inclusive bool) (T, error) {
	if err := checkNormalizedRankBounds(rank); err != nil {
		return 0, err
	}
	naturalRank := getNaturalRank(rank, sv.totalN, inclusive)
	crit := internal.InequalityGT
	if inclusive {
		crit = internal.InequalityGE
	}
	index := internal.FindWithInequality(sv.cumWeights, naturalRank, crit)
	if index == -1 {
		return sv.quantiles[len(sv.quantiles)-1], nil
	}
	return sv.quantiles[index], nil
}

func (sv *SortedView[T]) GetQuantiles() []T {
	return slices.Clone(sv.quantiles)
}

func (sv *SortedView[T]) GetCumulativeWeights() []int64 {
	return slices.Clone(sv.cumWeights)
}

func (sv *SortedView[T]) GetN() uint64 {
	return sv.totalN
}
