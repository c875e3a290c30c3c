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
	"slices"

	"github.com/Roblox/data-tools/internal"
)

// Union computes the union of Theta sketches.
type Union struct {
	hashtable *hashtable
	theta     uint64
	seedHash  uint16
}

type unionOptions struct {
	seed uint64
	lgK  uint8
	rf   ResizeFactor
}

type UnionOptionFunc func(*unionOptions)

// WithUnionLgK sets log2(k), where k is a nominal number of entries in the union
func WithUnionLgK(lgK uint8) UnionOptionFunc {
	return func(opts *unionOptions) {
		opts.lgK = lgK
	}
}

// WithUnionResizeFactor sets a resize factor for the internal hash table (defaults to 8)
func WithUnionResizeFactor(rf ResizeFactor) UnionOptionFunc {
	return func(opts *unionOptions) {
		opts.rf = rf
	}
}

// WithUnionSeed sets the seed for the hash function. Unions produced with different
// seeds are not compatible and cannot be mixed in set operations.
func WithUnionSeed(seed uint64) UnionOptionFunc {
	return func(opts *unionOptions) {
		opts.seed = seed
	}
}

// NewUnion creates a new union with the given options
func NewUnion(opts ...UnionOptionFunc) (*Union, error) {
	options := &unionOptions{
		lgK:  DefaultLgK,
		rf:   DefaultResizeFactor,
		seed: DefaultSeed,
	}
	for _, opt := range opts {
		opt(options)
	}
	if err := checkLgK(options.lgK); err != nil {
		return nil, err
	}
	seedHash, err := internal.ComputeSeedHash(int64(options.seed))
	if err != nil {
		return nil, err
	}

	lgCurSize := startingSubMultiple(options.lgK+1, minLgArrLongs, uint8(options.rf))
	return &Union{
		hashtable: newHashtable(lgCurSize, options.lgK, options.rf, MaxTheta, options.seed, true),
		theta:     MaxTheta,
		seedHash:  uint16(seedHash),
	}, nil
}

// Update adds a sketch to the union
func (u *Union) Update(sketch Sketch) error {
	if sketch.IsEmpty() {
		return nil
	}
	if err := CheckSeedHashEqual(sketch.SeedHash(), u.seedHash); err != nil {
		return err
	}

	u.hashtable.isEmpty = false
	u.theta = min(u.theta, sketch.Theta64())

	for entry := range sketch.All() {
		if entry < u.theta && entry < u.hashtable.theta {
			u.hashtable.insertHash(entry)
		} else if sketch.IsOrdered() {
			break
		}
	}

	u.theta = min(u.theta, u.hashtable.theta)
	return nil
}

// Result produces a copy of the current state of the Union as a compact sketch
func (u *Union) Result(ordered bool) *CompactSketch {
	if u.hashtable.isEmpty {
		return newCompactSketchFromEntries(true, true, u.seedHash, MaxTheta, nil)
	}

	theta := min(u.theta, u.hashtable.theta)
	entries := make([]uint64, 0, u.hashtable.numEntries)
	for _, entry := range u.hashtable.entries {
		if entry != 0 && entry < theta {
			entries = append(entries, entry)
		}
	}

	nominalNum := 1 << u.hashtable.lgNomSize
	if len(entries) > nominalNum {
		internal.QuickSelect(entries, 0, len(entries)-1, nominalNum)
		theta = entries[nominalNum]
		entries = entries[:nominalNum]
	}
	if ordered {
		slices.Sort(entries)
	}
	return newCompactSketchFromEntries(false, ordered, u.seedHash, theta, entries)
}

// Reset returns the union to its initial empty state.
func (u *Union) Reset() {
	u.hashtable.reset()
	u.theta = MaxTheta
}
