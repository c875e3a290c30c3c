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

import "golang.org/x/exp/constraints"

// QuickSelect returns the value that would sit at index pivot if arr[lo:hi+1] were sorted.
// The range is partially reordered in place.
func QuickSelect[T constraints.Ordered](arr []T, lo int, hi int, pivot int) T {
	for hi > lo {
		j := partition(arr, lo, hi)
		switch {
		case j == pivot:
			return arr[pivot]
		case j > pivot:
			hi = j - 1
		default:
			lo = j + 1
		}
	}
	return arr[pivot]
}

// partition uses arr[lo] as the pivot value and returns its final index.
func partition[T constraints.Ordered](arr []T, lo int, hi int) int {
	v := arr[lo]
	i, j := lo, hi+1
	for {
		for i++; arr[i] < v; i++ {
			if i == hi {
				break
			}
		}
		for j--; v < arr[j]; j-- {
			if j == lo {
				break
			}
		}
		if i >= j {
			break
		}
		arr[i], arr[j] = arr[j], arr[i]
	}
	arr[lo], arr[j] = arr[j], arr[lo]
	return j
}
