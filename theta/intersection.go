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
	"errors"
	"slices"

	"github.com/Roblox/data-tools/internal"
)

type intersectionOptions struct {
	seed uint64
}

type IntersectionOptionFunc func(*intersectionOptions)

// WithIntersectionSeed sets the seed for the hash function.
func WithIntersectionSeed(seed uint64) IntersectionOptionFunc {
	return func(i *intersectionOptions) {
		i.seed = seed
	}
}

// Intersection computes the intersection of sketches. Until the first Update the
// result is undefined (the universe).
type Intersection struct {
	hashtable *hashtable
	seedHash  uint16
	isValid   bool
}

// NewIntersection creates a new intersection.
func NewIntersection(opts ...IntersectionOptionFunc) (*Intersection, error) {
	options := &intersectionOptions{
		seed: DefaultSeed,
	}
	for _, opt := range opts {
		opt(options)
	}
	seedHash, err := internal.ComputeSeedHash(int64(options.seed))
	if err != nil {
		return nil, err
	}

	return &Intersection{
		hashtable: newHashtable(0, 0, ResizeX1, MaxTheta, options.seed, false),
		seedHash:  uint16(seedHash),
	}, nil
}

// Update intersects the current state with the given sketch.
func (i *Intersection) Update(sketch Sketch) error {
	if i.hashtable.isEmpty {
		return nil
	}
	if !sketch.IsEmpty() {
		if err := CheckSeedHashEqual(sketch.SeedHash(), i.seedHash); err != nil {
			return err
		}
	}

	i.hashtable.isEmpty = sketch.IsEmpty()
	if i.hashtable.isEmpty {
		i.hashtable.theta = MaxTheta
	} else {
		i.hashtable.theta = min(i.hashtable.theta, sketch.Theta64())
	}

	if i.isValid && i.hashtable.numEntries == 0 {
		return nil
	}

	if sketch.NumRetained() == 0 {
		i.isValid = true
		i.hashtable = i.emptyTable()
		return nil
	}

	if !i.isValid {
		i.isValid = true
		lgSize := lgSizeFromCount(sketch.NumRetained())
		i.hashtable = newHashtable(lgSize, lgSize-1, ResizeX1, i.hashtable.theta, i.hashtable.seed, false)
		for entry := range sketch.All() {
			if entry >= i.hashtable.theta {
				continue
			}
			index, found := find(i.hashtable.entries, lgSize, entry)
			if found {
				return errors.New("duplicate key, possibly corrupted input sketch")
			}
			i.hashtable.insert(index, entry)
		}
		return nil
	}

	maxMatches := min(i.hashtable.numEntries, sketch.NumRetained())
	matches := make([]uint64, 0, maxMatches)
	for entry := range sketch.All() {
		if entry < i.hashtable.theta {
			if _, found := find(i.hashtable.entries, i.hashtable.lgCurSize, entry); found {
				if uint32(len(matches)) == maxMatches {
					return errors.New("max matches exceeded, possibly corrupted input sketch")
				}
				matches = append(matches, entry)
			}
		} else if sketch.IsOrdered() {
			break
		}
	}

	if len(matches) == 0 {
		i.hashtable = i.emptyTable()
		if i.hashtable.theta == MaxTheta {
			i.hashtable.isEmpty = true
		}
		return nil
	}

	lgSize := lgSizeFromCount(uint32(len(matches)))
	i.hashtable = newHashtable(lgSize, lgSize-1, ResizeX1, i.hashtable.theta, i.hashtable.seed, false)
	for _, entry := range matches {
		index, _ := find(i.hashtable.entries, lgSize, entry)
		i.hashtable.insert(index, entry)
	}
	return nil
}

func (i *Intersection) emptyTable() *hashtable {
	return newHashtable(0, 0, ResizeX1, i.hashtable.theta, i.hashtable.seed, i.hashtable.isEmpty)
}

// Result produces a copy of the current state of the intersection.
func (i *Intersection) Result(ordered bool) (*CompactSketch, error) {
	if !i.isValid {
		return nil, errors.New("calling Result() before calling Update() is undefined")
	}

	entries := make([]uint64, 0, i.hashtable.numEntries)
	for _, hash := range i.hashtable.entries {
		if hash != 0 {
			entries = append(entries, hash)
		}
	}
	if ordered {
		slices.Sort(entries)
	}
	return newCompactSketchFromEntries(i.hashtable.isEmpty, ordered, i.seedHash, i.hashtable.theta, entries), nil
}

// HasResult returns true if the state of the intersection is defined.
func (i *Intersection) HasResult() bool {
	return i.isValid
}
