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

package hll

import (
	"math"
)

// couponSpace is the number of distinct 26-bit coupon addresses.
const couponSpace = float64(1 << keyBits26)

// couponEstimate inverts the expected number of distinct addresses hit after n draws
// from the coupon space, E[c] = M(1 - e^(-n/M)).
func couponEstimate(couponCount int) float64 {
	if couponCount == 0 {
		return 0
	}
	return -couponSpace * math.Log1p(-float64(couponCount)/couponSpace)
}

func couponLowerBound(couponCount int, numStdDev int) float64 {
	est := couponEstimate(couponCount)
	tmp := est / (1.0 + float64(numStdDev)*couponRSE)
	return math.Max(tmp, float64(couponCount))
}

func couponUpperBound(couponCount int, numStdDev int) float64 {
	est := couponEstimate(couponCount)
	tmp := est / (1.0 - float64(numStdDev)*couponRSE)
	return math.Max(tmp, float64(couponCount))
}

func relErr(lgConfigK int, oooFlag bool, numStdDev int) float64 {
	rseFactor := hllHipRSEFactor
	if oooFlag {
		rseFactor = hllNonHipRSEFactor
	}
	return float64(numStdDev) * rseFactor / math.Sqrt(float64(uint64(1)<<lgConfigK))
}

func hllUpperBound(estimate float64, lgConfigK int, oooFlag bool, numStdDev int) float64 {
	return estimate / (1.0 - relErr(lgConfigK, oooFlag, numStdDev))
}

// hllLowerBound never goes below the number of registers that were hit.
func hllLowerBound(estimate float64, lgConfigK int, numZeros int, oooFlag bool, numStdDev int) float64 {
	numNonZeros := float64(int(1)<<lgConfigK - numZeros)
	return math.Max(estimate/(1.0+relErr(lgConfigK, oooFlag, numStdDev)), numNonZeros)
}

// maxRegisterValue is the largest value a coupon can carry, min(nlz, 62) + 1.
const maxRegisterValue = 63

// compositeEstimate is Ertl's improved raw estimator over the register histogram
// (New cardinality estimation algorithms for HyperLogLog sketches, 2017). It needs
// no bias tables and is unbiased across the small and large ranges.
func compositeEstimate(regs []byte) float64 {
	var histogram [maxRegisterValue + 1]int
	for _, v := range regs {
		histogram[v]++
	}
	m := float64(len(regs))
	if histogram[0] == len(regs) {
		return 0
	}

	q := maxRegisterValue - 1
	z := m * tau(1.0-float64(histogram[q+1])/m)
	for k := q; k >= 1; k-- {
		z += float64(histogram[k])
		z *= 0.5
	}
	z += m * sigma(float64(histogram[0])/m)
	return m * m / (2 * math.Ln2 * z)
}

func sigma(x float64) float64 {
	if x == 1 {
		return math.Inf(1)
	}
	y := 1.0
	z := x
	for {
		x *= x
		zPrev := z
		z += x * y
		y += y
		if z == zPrev {
			return z
		}
	}
}

func tau(x float64) float64 {
	if x == 0 || x == 1 {
		return 0
	}
	y := 1.0
	z := 1 - x
	for {
		x = math.Sqrt(x)
		zPrev := z
		y *= 0.5
		z -= math.Pow(1-x, 2) * y
		if z == zPrev {
			return z / 3
		}
	}
}
