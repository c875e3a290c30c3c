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
	"bytes"
	"fmt"
	"iter"
	"slices"
	"strings"
)

// CompactSketch is an immutable form of the Theta sketch, the form that can be serialized and deserialized
type CompactSketch struct {
	entries   []uint64
	theta     uint64
	seedHash  uint16
	isEmpty   bool
	isOrdered bool
}

// NewCompactSketch creates a compact sketch from another sketch
func NewCompactSketch(source Sketch, ordered bool) *CompactSketch {
	isEmpty := source.IsEmpty()
	sourceOrdered := source.IsOrdered()

	var entries []uint64
	if !isEmpty {
		entries = make([]uint64, 0, source.NumRetained())
		for entry := range source.All() {
			entries = append(entries, entry)
		}
		if ordered && !sourceOrdered {
			slices.Sort(entries)
		}
	}

	return newCompactSketchFromEntries(isEmpty, sourceOrdered || ordered, source.SeedHash(), source.Theta64(), entries)
}

func newCompactSketchFromEntries(isEmpty, isOrdered bool, seedHash uint16, theta uint64, entries []uint64) *CompactSketch {
	if len(entries) <= 1 {
		isOrdered = true
	}
	// an empty set has nothing to sample
	if isEmpty {
		theta = MaxTheta
	}
	return &CompactSketch{
		isEmpty:   isEmpty,
		isOrdered: isOrdered,
		seedHash:  seedHash,
		theta:     theta,
		entries:   entries,
	}
}

func (s *CompactSketch) IsEmpty() bool {
	return s.isEmpty
}

func (s *CompactSketch) IsOrdered() bool {
	return s.isOrdered
}

func (s *CompactSketch) Theta64() uint64 {
	return s.theta
}

func (s *CompactSketch) NumRetained() uint32 {
	return uint32(len(s.entries))
}

func (s *CompactSketch) SeedHash() uint16 {
	return s.seedHash
}

// Estimate returns estimate of the distinct count of the input stream
func (s *CompactSketch) Estimate() float64 {
	return estimateOf(s)
}

// LowerBound returns the approximate lower error bound given a number of standard deviations.
// This parameter is similar to the number of standard deviations of the normal distribution
// and corresponds to approximately 67%, 95% and 99% confidence intervals.
func (s *CompactSketch) LowerBound(numStdDevs uint8) (float64, error) {
	return lowerBoundOf(s, numStdDevs)
}

// UpperBound returns the approximate upper error bound given a number of standard deviations.
func (s *CompactSketch) UpperBound(numStdDevs uint8) (float64, error) {
	return upperBoundOf(s, numStdDevs)
}

// IsEstimationMode returns true if the sketch is in estimation mode
// (as opposed to exact mode)
func (s *CompactSketch) IsEstimationMode() bool {
	return isEstimationMode(s)
}

// Theta returns theta as a fraction from 0 to 1 (effective sampling rate)
func (s *CompactSketch) Theta() float64 {
	return thetaOf(s)
}

// String returns a human-readable summary of this sketch as a string
// If shouldPrintItems is true, include the list of items retained by the sketch
func (s *CompactSketch) String(shouldPrintItems bool) string {
	lb, _ := s.LowerBound(2)
	ub, _ := s.UpperBound(2)

	var result strings.Builder
	result.WriteString("### Theta sketch summary:\n")
	fmt.Fprintf(&result, "   num retained entries : %d\n", s.NumRetained())
	fmt.Fprintf(&result, "   seed hash            : %d\n", s.seedHash)
	fmt.Fprintf(&result, "   empty?               : %t\n", s.IsEmpty())
	fmt.Fprintf(&result, "   ordered?             : %t\n", s.IsOrdered())
	fmt.Fprintf(&result, "   estimation mode?     : %t\n", s.IsEstimationMode())
	fmt.Fprintf(&result, "   theta (fraction)     : %f\n", s.Theta())
	fmt.Fprintf(&result, "   estimate             : %f\n", s.Estimate())
	fmt.Fprintf(&result, "   lower bound 95%% conf : %f\n", lb)
	fmt.Fprintf(&result, "   upper bound 95%% conf : %f\n", ub)
	result.WriteString("### End sketch summary\n")

	if shouldPrintItems {
		result.WriteString("### Retained entries\n")
		for entry := range s.All() {
			fmt.Fprintf(&result, "%d\n", entry)
		}
		result.WriteString("### End retained entries\n")
	}
	return result.String()
}

// All returns hash values in the sketch.
func (s *CompactSketch) All() iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		for _, entry := range s.entries {
			if !yield(entry) {
				return
			}
		}
	}
}

// MarshalBinary implements encoding.BinaryMarshaler using serial version 3.
func (s *CompactSketch) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(s.SerializedSizeBytes())
	if err := NewEncoder(&buf).Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *CompactSketch) preambleLongs() uint8 {
	if s.IsEstimationMode() {
		return 3
	}
	if s.isEmpty || len(s.entries) == 1 {
		return 1
	}
	return 2
}

// SerializedSizeBytes computes the size in bytes required to serialize the current state of the sketch.
func (s *CompactSketch) SerializedSizeBytes() int {
	return int(s.preambleLongs())*8 + len(s.entries)*8
}
