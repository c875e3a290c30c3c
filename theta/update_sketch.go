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
	"fmt"
	"iter"

	"github.com/Roblox/data-tools/internal"
)

// UpdateSketch is a Theta sketch built from raw input with the QuickSelect algorithm.
type UpdateSketch struct {
	table *hashtable
}

type updateSketchOptions struct {
	seed uint64
	lgK  uint8
	rf   ResizeFactor
}

type UpdateSketchOptionFunc func(*updateSketchOptions)

// WithUpdateSketchLgK sets log2(k), where k is a nominal number of entries in the sketch
func WithUpdateSketchLgK(lgK uint8) UpdateSketchOptionFunc {
	return func(opts *updateSketchOptions) {
		opts.lgK = lgK
	}
}

// WithUpdateSketchResizeFactor sets a resize factor for the internal hash table (defaults to 8)
func WithUpdateSketchResizeFactor(rf ResizeFactor) UpdateSketchOptionFunc {
	return func(opts *updateSketchOptions) {
		opts.rf = rf
	}
}

// WithUpdateSketchSeed sets the hash seed. Sketches built with different seeds
// cannot be mixed in set operations.
func WithUpdateSketchSeed(seed uint64) UpdateSketchOptionFunc {
	return func(opts *updateSketchOptions) {
		opts.seed = seed
	}
}

func NewUpdateSketch(opts ...UpdateSketchOptionFunc) (*UpdateSketch, error) {
	options := &updateSketchOptions{
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

	lgCurSize := startingSubMultiple(options.lgK+1, minLgArrLongs, uint8(options.rf))
	return &UpdateSketch{
		table: newHashtable(lgCurSize, options.lgK, options.rf, MaxTheta, options.seed, true),
	}, nil
}

func checkLgK(lgK uint8) error {
	if lgK < MinLgK {
		return fmt.Errorf("lg_k must not be less than %d: %d", MinLgK, lgK)
	}
	if lgK > MaxLgK {
		return fmt.Errorf("lg_k must not be greater than %d: %d", MaxLgK, lgK)
	}
	return nil
}

func (s *UpdateSketch) IsEmpty() bool {
	return s.table.isEmpty
}

func (s *UpdateSketch) IsOrdered() bool {
	return s.table.numEntries <= 1
}

func (s *UpdateSketch) Theta64() uint64 {
	if s.IsEmpty() {
		return MaxTheta
	}
	return s.table.theta
}

func (s *UpdateSketch) NumRetained() uint32 {
	return s.table.numEntries
}

func (s *UpdateSketch) SeedHash() uint16 {
	seedHash, _ := internal.ComputeSeedHash(int64(s.table.seed))
	return uint16(seedHash)
}

// Estimate returns estimate of the distinct count of the input stream
func (s *UpdateSketch) Estimate() float64 {
	return estimateOf(s)
}

func (s *UpdateSketch) LowerBound(numStdDevs uint8) (float64, error) {
	return lowerBoundOf(s, numStdDevs)
}

func (s *UpdateSketch) UpperBound(numStdDevs uint8) (float64, error) {
	return upperBoundOf(s, numStdDevs)
}

// Theta returns theta as a fraction from 0 to 1 (effective sampling rate)
func (s *UpdateSketch) Theta() float64 {
	return thetaOf(s)
}

func (s *UpdateSketch) IsEstimationMode() bool {
	return isEstimationMode(s)
}

// LgK returns log2 of the nominal number of entries.
func (s *UpdateSketch) LgK() uint8 {
	return s.table.lgNomSize
}

func (s *UpdateSketch) UpdateInt64(value int64) {
	h1, _ := internal.HashInt64Murmur3(value, s.table.seed)
	if hash, ok := s.table.screen(h1); ok {
		s.table.insertHash(hash)
	}
}

// UpdateFloat64 hashes the canonical bit pattern, so -0.0 and 0.0 count once, as do all NaNs.
func (s *UpdateSketch) UpdateFloat64(value float64) {
	h1, _ := internal.HashFloat64Murmur3(value, s.table.seed)
	if hash, ok := s.table.screen(h1); ok {
		s.table.insertHash(hash)
	}
}

// UpdateString hashes the UTF-8 bytes of value. Empty strings are ignored.
func (s *UpdateSketch) UpdateString(value string) {
	if value == "" {
		return
	}
	s.UpdateBytes([]byte(value))
}

// UpdateBytes ignores empty input.
func (s *UpdateSketch) UpdateBytes(data []byte) {
	if len(data) == 0 {
		return
	}
	h1, _ := internal.HashByteArrMurmur3(data, 0, len(data), s.table.seed)
	if hash, ok := s.table.screen(h1); ok {
		s.table.insertHash(hash)
	}
}

// Trim removes retained entries in excess of the nominal size k (if any)
func (s *UpdateSketch) Trim() {
	s.table.trim()
}

// Reset resets the sketch to the initial empty state
func (s *UpdateSketch) Reset() {
	s.table.reset()
}

func (s *UpdateSketch) All() iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		for _, entry := range s.table.entries {
			if entry != 0 && !yield(entry) {
				return
			}
		}
	}
}

func (s *UpdateSketch) Compact(ordered bool) *CompactSketch {
	return NewCompactSketch(s, ordered)
}
