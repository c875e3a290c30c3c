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
	"fmt"
	"math"
)

const (
	DefaultLgK     = 12
	lgInitListSize = 3
	lgInitSetSize  = 5
)

const (
	MinLgK          = 4
	MaxLgK          = 21
	empty           = 0
	keyBits26       = 26
	valBits6        = 6
	keyMask26       = (1 << keyBits26) - 1
	valMask6        = (1 << valBits6) - 1
	resizeNumber    = 3
	resizeDenom     = 4
	couponRSEFactor = .409 //at transition point not the asymptote
	couponRSE       = couponRSEFactor / (1 << 13)
	hiNibbleMask    = 0xf0
	loNibbleMask    = 0x0f

	auxToken = 0xf
)

var (
	hllNonHipRSEFactor = math.Sqrt((3.0 * math.Log(2.0)) - 1.0) //1.03896
	hllHipRSEFactor    = math.Sqrt(math.Log(2.0))               //.8325546
)

// TgtHllType is the register width used when the sketch is serialized in HLL mode.
type TgtHllType int

// CurMode is the internal representation a sketch is currently in.
type CurMode int

const (
	CurModeList CurMode = 0
	CurModeSet  CurMode = 1
	CurModeHll  CurMode = 2
)

func (m CurMode) String() string {
	switch m {
	case CurModeList:
		return "LIST"
	case CurModeSet:
		return "SET"
	case CurModeHll:
		return "HLL"
	}
	return fmt.Sprintf("CurMode(%d)", int(m))
}

// Specifies the target type of HLL sketch to be created. It is a target in that the actual
// allocation of the HLL array is deferred until sufficient number of items have been received by
// the warm-up phases.
//
// These three target types are isomorphic representations of the same underlying HLL algorithm.
// Thus, given the same value of lgConfigK and the same input, all three HLL target types
// will produce identical estimates and have identical error distributions.
//
//   - Hll 8 uses an 8-bit byte per HLL bucket, about K bytes.
//
//   - Hll 6 uses a 6-bit field per HLL bucket, about 3/4 * K bytes.
//
//   - Hll 4 uses a 4-bit field per HLL bucket and a small auxiliary table for the rare
//     values that do not fit, about K/2 * 1.03 bytes.
const (
	TgtHllTypeHll4    = TgtHllType(0)
	TgtHllTypeHll6    = TgtHllType(1)
	TgtHllTypeHll8    = TgtHllType(2)
	TgtHllTypeDefault = TgtHllTypeHll6
)

func (t TgtHllType) String() string {
	switch t {
	case TgtHllTypeHll4:
		return "HLL_4"
	case TgtHllTypeHll6:
		return "HLL_6"
	case TgtHllTypeHll8:
		return "HLL_8"
	}
	return fmt.Sprintf("TgtHllType(%d)", int(t))
}

// ParseTgtHllType accepts HLL_4, HLL_6 and HLL_8.
func ParseTgtHllType(name string) (TgtHllType, error) {
	for _, t := range []TgtHllType{TgtHllTypeHll4, TgtHllTypeHll6, TgtHllTypeHll8} {
		if t.String() == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown HLL target type: %q", name)
}

// lgAuxArrInts is the Log2 table sizes for exceptions based on lgK from 0 to 26.
// However, only lgK from 4 to 21 are used.
var lgAuxArrInts = []int{
	0, 2, 2, 2, 2, 2, 2, 3, 3, 3, //0 - 9
	4, 4, 5, 5, 6, 7, 8, 9, 10, 11, //10 - 19
	12, 13, 14, 15, 16, 17, 18, //20 - 26
}

func checkLgK(lgK int) error {
	if lgK >= MinLgK && lgK <= MaxLgK {
		return nil
	}
	return fmt.Errorf("log K must be between %d and %d, inclusive: %d", MinLgK, MaxLgK, lgK)
}

func checkTgtHllType(t TgtHllType) error {
	if t < TgtHllTypeHll4 || t > TgtHllTypeHll8 {
		return fmt.Errorf("unknown TgtHllType: %d", int(t))
	}
	return nil
}

// pair returns a value where the lower 26 bits are the slotNo and the upper 6 bits are the value.
func pair(slotNo int, value int) uint32 {
	return uint32(value<<keyBits26) | uint32(slotNo&keyMask26)
}

func getPairLow26(pair uint32) int {
	return int(pair & keyMask26)
}

func getPairValue(pair uint32) int {
	return int(pair >> keyBits26)
}

func checkNumStdDev(numStdDev int) error {
	if numStdDev < 1 || numStdDev > 3 {
		return fmt.Errorf("NumStdDev may not be less than 1 or greater than 3: %d", numStdDev)
	}
	return nil
}

func hllArrBytes(tgtHllType TgtHllType, lgConfigK int) int {
	switch tgtHllType {
	case TgtHllTypeHll4:
		return 1 << (lgConfigK - 1)
	case TgtHllTypeHll6:
		return (((1 << lgConfigK) * 3) >> 2) + 1
	default:
		return 1 << lgConfigK
	}
}
