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
	"cmp"
	"sort"
)

type Inequality int

const (
	InequalityLT Inequality = iota
	InequalityLE
	InequalityGE
	InequalityGT
)

// FindWithInequality searches the sorted arr for the index that satisfies crit against v:
//
//   - LT, the largest index whose item is < v
//   - LE, the largest index whose item is <= v
//   - GE, the smallest index whose item is >= v
//   - GT, the smallest index whose item is > v
//
// It returns -1 when no item qualifies.
func FindWithInequality[T cmp.Ordered](arr []T, v T, crit Inequality) int {
	n := len(arr)
	switch crit {
	case InequalityLT:
		return sort.Search(n, func(i int) bool { return arr[i] >= v }) - 1
	case InequalityLE:
		return sort.Search(n, func(i int) bool { return arr[i] > v }) - 1
	case InequalityGE:
		i := sort.Search(n, func(i int) bool { return arr[i] >= v })
		if i == n {
			return -1
		}
		return i
	case InequalityGT:
		i := sort.Search(n, func(i int) bool { return arr[i] > v })
		if i == n {
			return -1
		}
		return i
	}
	panic("invalid inequality")
}
