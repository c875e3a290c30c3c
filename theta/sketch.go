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
	"iter"

	"github.com/Roblox/data-tools/internal/binomialbounds"
)

// Sketch is the read side shared by update and compact sketches, and what the set
// operations consume.
type Sketch interface {
	// IsEmpty returns true if this sketch represents an empty set
	// (not the same as no retained entries!)
	IsEmpty() bool

	// IsOrdered returns true if retained entries are ordered
	IsOrdered() bool

	// Theta64 returns theta as a positive integer between 0 and math.MaxInt64
	Theta64() uint64

	// NumRetained returns the number of retained entries in the sketch
	NumRetained() uint32

	// SeedHash returns hash of the seed that was used to hash the input
	SeedHash() uint16

	// All returns an iterator over hash values in the sketch.
	All() iter.Seq[uint64]
}

// theta returns the effective sampling rate in (0, 1].
func thetaOf(s Sketch) float64 {
	return float64(s.Theta64()) / float64(MaxTheta)
}

func isEstimationMode(s Sketch) bool {
	return s.Theta64() < MaxTheta && !s.IsEmpty()
}

func estimateOf(s Sketch) float64 {
	return float64(s.NumRetained()) / thetaOf(s)
}

// lowerBoundOf and upperBoundOf take 1, 2 or 3 standard deviations, roughly 68%,
// 95% and 99.7% confidence.
func lowerBoundOf(s Sketch, numStdDevs uint8) (float64, error) {
	if !isEstimationMode(s) {
		return float64(s.NumRetained()), nil
	}
	return binomialbounds.LowerBound(uint64(s.NumRetained()), thetaOf(s), uint(numStdDevs))
}

func upperBoundOf(s Sketch, numStdDevs uint8) (float64, error) {
	if !isEstimationMode(s) {
		return float64(s.NumRetained()), nil
	}
	return binomialbounds.UpperBound(uint64(s.NumRetained()), thetaOf(s), uint(numStdDevs))
}
