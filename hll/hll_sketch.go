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

// Package hll is dedicated to streaming algorithms that enable estimation of the
// cardinality of a stream of items.
//
// HllSketch and Union are the public facing types of this implementation of Phillipe
// Flajolet's HyperLogLog algorithm with the HIP estimator and the warm-up coupon modes
// of the DataSketches library, whose serialized images it reads and writes.
package hll

import (
	"math/bits"
	"slices"
	"unsafe"

	"github.com/Roblox/data-tools/internal"
)

// HllSketch counts distinct items. It starts as a small list of coupons, moves to a
// coupon hash set and finally to an array of registers. Registers are held one byte per
// slot; the target type only decides the serialized width.
type HllSketch struct {
	lgConfigK  int
	tgtHllType TgtHllType
	curMode    CurMode

	// LIST and SET modes
	lgCouponArrInts int
	couponCount     int
	couponIntArr    []uint32

	// HLL mode
	regs     []byte
	hipAccum float64
	kxq0     float64
	kxq1     float64
	oooFlag  bool
}

// NewHllSketch returns an empty sketch with 2^lgConfigK registers.
func NewHllSketch(lgConfigK int, tgtHllType TgtHllType) (*HllSketch, error) {
	if err := checkLgK(lgConfigK); err != nil {
		return nil, err
	}
	if err := checkTgtHllType(tgtHllType); err != nil {
		return nil, err
	}
	h := &HllSketch{lgConfigK: lgConfigK, tgtHllType: tgtHllType}
	h.Reset()
	return h, nil
}

// NewHllSketchWithDefault returns an empty sketch with DefaultLgK and TgtHllTypeDefault.
func NewHllSketchWithDefault() (*HllSketch, error) {
	return NewHllSketch(DefaultLgK, TgtHllTypeDefault)
}

// Reset resets the sketch to empty, but does not change the configured values of lgConfigK and tgtHllType.
func (h *HllSketch) Reset() {
	h.curMode = CurModeList
	h.lgCouponArrInts = lgInitListSize
	h.couponCount = 0
	h.couponIntArr = make([]uint32, 1<<lgInitListSize)
	h.regs = nil
	h.hipAccum = 0
	h.kxq0 = 0
	h.kxq1 = 0
	h.oooFlag = false
}

// Copy returns a deep copy of this sketch.
func (h *HllSketch) Copy() *HllSketch {
	c := *h
	c.couponIntArr = slices.Clone(h.couponIntArr)
	c.regs = slices.Clone(h.regs)
	return &c
}

// CopyAs returns a deep copy that serializes with the given target type.
func (h *HllSketch) CopyAs(tgtHllType TgtHllType) *HllSketch {
	c := h.Copy()
	c.tgtHllType = tgtHllType
	return c
}

func (h *HllSketch) IsEmpty() bool {
	return h.curMode != CurModeHll && h.couponCount == 0
}

func (h *HllSketch) GetLgConfigK() int {
	return h.lgConfigK
}

func (h *HllSketch) GetTgtHllType() TgtHllType {
	return h.tgtHllType
}

func (h *HllSketch) GetCurMode() CurMode {
	return h.curMode
}

// IsOutOfOrder reports whether the sketch went through a union, which disables the
// HIP estimator.
func (h *HllSketch) IsOutOfOrder() bool {
	return h.oooFlag
}

// UpdateUInt64 presents the given unsigned 64-bit integer as a potential unique item.
func (h *HllSketch) UpdateUInt64(datum uint64) {
	h.UpdateInt64(int64(datum))
}

// UpdateInt64 presents the given signed 64-bit integer as a potential unique item.
func (h *HllSketch) UpdateInt64(datum int64) {
	h.couponUpdate(coupon(internal.HashInt64Murmur3(datum, internal.DefaultUpdateSeed)))
}

// UpdateFloat64 presents the given double as a potential unique item. Zero and negative
// zero, as well as all NaNs, are the same item.
func (h *HllSketch) UpdateFloat64(datum float64) {
	h.couponUpdate(coupon(internal.HashFloat64Murmur3(datum, internal.DefaultUpdateSeed)))
}

// UpdateSlice presents the given byte slice as a potential unique item. Empty slices are ignored.
func (h *HllSketch) UpdateSlice(datum []byte) {
	if len(datum) == 0 {
		return
	}
	h.couponUpdate(coupon(internal.HashByteArrMurmur3(datum, 0, len(datum), internal.DefaultUpdateSeed)))
}

// UpdateString presents the UTF-8 bytes of the given string as a potential unique item.
func (h *HllSketch) UpdateString(datum string) {
	// get a slice to the string data (avoiding a copy to heap)
	h.UpdateSlice(unsafe.Slice(unsafe.StringData(datum), len(datum)))
}

func coupon(hashLo uint64, hashHi uint64) uint32 {
	addr26 := hashLo & keyMask26
	lz := uint64(bits.LeadingZeros64(hashHi))
	value := min(lz, 62) + 1
	return uint32((value << keyBits26) | addr26)
}

func (h *HllSketch) couponUpdate(coupon uint32) {
	if getPairValue(coupon) == empty {
		return
	}
	switch h.curMode {
	case CurModeList:
		h.listUpdate(coupon)
	case CurModeSet:
		h.setUpdate(coupon)
	default:
		h.hllUpdate(getPairLow26(coupon)&(1<<h.lgConfigK-1), getPairValue(coupon))
	}
}

// GetEstimate returns the cardinality estimate: HIP while the sketch has only seen
// updates, the composite estimator after a union.
func (h *HllSketch) GetEstimate() float64 {
	if h.curMode != CurModeHll {
		return couponEstimate(h.couponCount)
	}
	if h.oooFlag {
		return h.GetCompositeEstimate()
	}
	return h.hipAccum
}

// GetCompositeEstimate is less accurate than GetEstimate and is what GetEstimate falls back
// to once the sketch went through a union.
func (h *HllSketch) GetCompositeEstimate() float64 {
	if h.curMode != CurModeHll {
		return couponEstimate(h.couponCount)
	}
	return compositeEstimate(h.regs)
}

// GetHipEstimate returns the HIP accumulator, which is only meaningful for sketches
// that are not out of order.
func (h *HllSketch) GetHipEstimate() float64 {
	if h.curMode != CurModeHll {
		return couponEstimate(h.couponCount)
	}
	return h.hipAccum
}

// GetLowerBound gets the approximate lower error bound given the specified number of standard deviations.
//
//   - numStdDev, this must be an integer between 1 and 3, inclusive.
func (h *HllSketch) GetLowerBound(numStdDev int) (float64, error) {
	if err := checkNumStdDev(numStdDev); err != nil {
		return 0, err
	}
	if h.curMode != CurModeHll {
		return couponLowerBound(h.couponCount, numStdDev), nil
	}
	return hllLowerBound(h.GetEstimate(), h.lgConfigK, h.numZeros(), h.oooFlag, numStdDev), nil
}

// GetUpperBound gets the approximate upper error bound given the specified number of standard deviations.
//
//   - numStdDev, this must be an integer between 1 and 3, inclusive.
func (h *HllSketch) GetUpperBound(numStdDev int) (float64, error) {
	if err := checkNumStdDev(numStdDev); err != nil {
		return 0, err
	}
	if h.curMode != CurModeHll {
		return couponUpperBound(h.couponCount, numStdDev), nil
	}
	return hllUpperBound(h.GetEstimate(), h.lgConfigK, h.oooFlag, numStdDev), nil
}

// coupons returns the non-empty coupons in LIST or SET mode.
func (h *HllSketch) coupons() []uint32 {
	out := make([]uint32, 0, h.couponCount)
	for _, c := range h.couponIntArr {
		if c != empty {
			out = append(out, c)
		}
	}
	return out
}
