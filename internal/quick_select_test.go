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

package internal

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuickSelect(t *testing.T) {
	testCases := []struct {
		name     string
		arr      []int64
		pivot    int
		expected int64
	}{
		{name: "median", arr: []int64{3, 1, 4, 1, 5, 9, 2, 6}, pivot: 4, expected: 4},
		{name: "minimum", arr: []int64{3, 1, 4, 1, 5, 9, 2, 6}, pivot: 0, expected: 1},
		{name: "maximum", arr: []int64{3, 1, 4, 1, 5, 9, 2, 6}, pivot: 7, expected: 9},
		{name: "single", arr: []int64{42}, pivot: 0, expected: 42},
		{name: "pair", arr: []int64{5, 3}, pivot: 1, expected: 5},
		{name: "duplicates", arr: []int64{7, 7, 7, 7}, pivot: 2, expected: 7},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			arr := slices.Clone(tc.arr)
			assert.Equal(t, tc.expected, QuickSelect(arr, 0, len(arr)-1, tc.pivot))
		})
	}
}

func TestQuickSelectMatchesSort(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for n := 1; n < 200; n += 13 {
		arr := make([]uint64, n)
		for i := range arr {
			arr[i] = uint64(rng.Intn(50))
		}
		sorted := slices.Clone(arr)
		slices.Sort(sorted)
		for _, k := range []int{0, n / 2, n - 1} {
			work := slices.Clone(arr)
			assert.Equal(t, sorted[k], QuickSelect(work, 0, n-1, k), "n=%d k=%d", n, k)
		}
	}
}

func TestQuickSelectStrings(t *testing.T) {
	arr := []string{"dog", "cat", "elephant", "ant", "bear"}
	assert.Equal(t, "cat", QuickSelect(arr, 0, 4, 2))
}
