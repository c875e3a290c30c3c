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

// Package binomialbounds computes approximate confidence bounds on the number of
// distinct items a sampled sketch stands for, given the retained count and theta.
package binomialbounds

import (
	"errors"
	"math"
)

// deltaOfNumStdDevs[i] is the one-sided tail probability of i standard deviations.
var deltaOfNumStdDevs = [4]float64{
	0.5,
	0.1586553191586026479,
	0.0227502618904135701,
	0.0013498126861731796,
}

// LowerBound returns the approximate lower bound on the population that numSamples
// retained entries at sampling rate theta stand for. The result never exceeds the
// point estimate numSamples/theta and never falls below numSamples.
func LowerBound(numSamples uint64, theta float64, numStdDevs uint) (float64, error) {
	if err := checkArgs(theta, numStdDevs); err != nil {
		return 0, err
	}
	n := float64(numSamples)
	est := n / theta
	lb := approxLowerBound(numSamples, theta, numStdDevs)
	return math.Min(est, math.Max(n, lb)), nil
}

// UpperBound returns the approximate upper bound matching LowerBound. It never falls
// below the point estimate.
func UpperBound(numSamples uint64, theta float64, numStdDevs uint) (float64, error) {
	if err := checkArgs(theta, numStdDevs); err != nil {
		return 0, err
	}
	est := float64(numSamples) / theta
	ub := approxUpperBound(numSamples, theta, numStdDevs)
	return math.Max(est, ub), nil
}

func checkArgs(theta float64, numStdDevs uint) error {
	if theta < 0 || theta > 1 {
		return errors.New("theta must be in [0, 1]")
	}
	if numStdDevs < 1 || numStdDevs > 3 {
		return errors.New("numStdDevs must be 1, 2 or 3")
	}
	return nil
}

func approxLowerBound(numSamples uint64, theta float64, numStdDevs uint) float64 {
	n := float64(numSamples)
	switch {
	case theta == 1:
		return n
	case numSamples == 0:
		return 0
	case numSamples == 1:
		delta := deltaOfNumStdDevs[numStdDevs]
		return math.Floor(math.Log(1-delta) / math.Log(1-theta))
	case theta > 1-1e-5 && numSamples <= 120:
		return n
	default:
		return contClassicLowerBound(n, theta, float64(numStdDevs)) - 0.5
	}
}

func approxUpperBound(numSamples uint64, theta float64, numStdDevs uint) float64 {
	n := float64(numSamples)
	switch {
	case theta == 1:
		return n
	case numSamples == 0:
		delta := deltaOfNumStdDevs[numStdDevs]
		return math.Ceil(math.Log(delta) / math.Log(1-theta))
	case theta > 1-1e-5 && numSamples <= 120:
		return n + 1
	default:
		return contClassicUpperBound(n, theta, float64(numStdDevs)) + 0.5
	}
}

// contClassicLowerBound is the continuity-corrected normal approximation to the
// binomial lower bound.
func contClassicLowerBound(n, theta, numStdDevs float64) float64 {
	nHat := (n - 0.5) / theta
	b := numStdDevs * math.Sqrt((1-theta)/theta)
	d := 0.5 * b * math.Sqrt(b*b+4*nHat)
	center := nHat + 0.5*b*b
	return center - d
}

func contClassicUpperBound(n, theta, numStdDevs float64) float64 {
	nHat := (n + 0.5) / theta
	b := numStdDevs * math.Sqrt((1-theta)/theta)
	d := 0.5 * b * math.Sqrt(b*b+4*nHat)
	center := nHat + 0.5*b*b
	return center + d
}
