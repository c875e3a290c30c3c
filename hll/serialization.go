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
)

// ToCompactSlice serializes the sketch to a slice, compacting data structures
// where feasible to eliminate unused storage in the serialized image.
func (h *HllSketch) ToCompactSlice() ([]byte, error) {
	if h.curMode == CurModeHll {
		return h.toHllSlice(), nil
	}
	return h.toCouponSlice(), nil
}

// GetCompactSerializationBytes returns the length of ToCompactSlice.
func (h *HllSketch) GetCompactSerializationBytes() int {
	switch h.curMode {
	case CurModeList:
		return listIntArrStart + h.couponCount*4
	case CurModeSet:
		return hashSetIntArrStart + h.couponCount*4
	}
	n := hllByteArrStart + hllArrBytes(h.tgtHllType, h.lgConfigK)
	if h.tgtHllType == TgtHllTypeHll4 {
		curMin, _ := curMinAndNum(h.regs)
		for _, v := range h.regs {
			if int(v)-curMin >= auxToken {
				n += 4
			}
		}
	}
	return n
}

func (h *HllSketch) toCouponSlice() []byte {
	dataStart := listIntArrStart
	preInts := listPreInts
	if h.curMode == CurModeSet {
		dataStart = hashSetIntArrStart
		preInts = hashSetPreInts
	}

	coupons := h.coupons()
	dst := make([]byte, dataStart+len(coupons)*4)
	insertCommon(dst, preInts, h.lgConfigK, h.curMode, h.tgtHllType)
	dst[lgArrByte] = byte(h.lgCouponArrInts)
	flags := byte(compactFlagMask)
	if h.IsEmpty() {
		flags |= emptyFlagMask
	}
	dst[flagsByte] = flags

	if h.curMode == CurModeList {
		dst[listCountByte] = byte(len(coupons))
	} else {
		insertUint32(dst, hashSetCountInt, uint32(len(coupons)))
	}
	for i, c := range coupons {
		insertUint32(dst, dataStart+i*4, c)
	}
	return dst
}

func (h *HllSketch) toHllSlice() []byte {
	arrBytes := hllArrBytes(h.tgtHllType, h.lgConfigK)
	curMin, numAtCurMin := 0, 0
	if h.tgtHllType == TgtHllTypeHll4 {
		curMin, numAtCurMin = curMinAndNum(h.regs)
	} else {
		numAtCurMin = h.numZeros()
	}

	arr := make([]byte, arrBytes)
	var aux []uint32
	switch h.tgtHllType {
	case TgtHllTypeHll4:
		aux = packHll4(h.regs, curMin, arr)
	case TgtHllTypeHll6:
		packHll6(h.regs, arr)
	default:
		copy(arr, h.regs)
	}

	dst := make([]byte, hllByteArrStart+arrBytes+len(aux)*4)
	insertCommon(dst, hllPreInts, h.lgConfigK, CurModeHll, h.tgtHllType)
	flags := byte(compactFlagMask)
	if h.oooFlag {
		flags |= outOfOrderFlagMask
	}
	dst[flagsByte] = flags
	dst[hllCurMinByte] = byte(curMin)
	if len(aux) > 0 {
		dst[lgArrByte] = byte(lgAuxArrInts[h.lgConfigK])
	}
	insertFloat64(dst, hipAccumDouble, h.hipAccum)
	kxq0, kxq1 := kxq(h.regs)
	insertFloat64(dst, kxq0Double, kxq0)
	insertFloat64(dst, kxq1Double, kxq1)
	insertUint32(dst, curMinCountInt, uint32(numAtCurMin))
	insertUint32(dst, auxCountInt, uint32(len(aux)))
	copy(dst[hllByteArrStart:], arr)
	for i, p := range aux {
		insertUint32(dst, hllByteArrStart+arrBytes+i*4, p)
	}
	return dst
}

// NewHllSketchFromSlice decodes a compact or updatable image of any mode and target type.
func NewHllSketchFromSlice(bytes []byte) (*HllSketch, error) {
	p, err := checkPreamble(bytes)
	if err != nil {
		return nil, err
	}
	h, err := NewHllSketch(p.lgConfigK, p.tgtHllType)
	if err != nil {
		return nil, err
	}
	if p.curMode == CurModeHll {
		return h, h.readHll(bytes, p)
	}
	return h, h.readCoupons(bytes, p)
}

func (h *HllSketch) readCoupons(bytes []byte, p preamble) error {
	dataStart := listIntArrStart
	var couponCount int
	if p.curMode == CurModeList {
		couponCount = int(bytes[listCountByte])
	} else {
		dataStart = hashSetIntArrStart
		couponCount = int(extractUint32(bytes, hashSetCountInt))
	}
	if p.isEmpty() {
		return nil
	}

	// updatable images carry the whole table, empty slots included
	numInts := couponCount
	if !p.isCompact() {
		if p.lgArr > MaxLgK {
			return fmt.Errorf("possible Corruption: coupon table too large: lg %d", p.lgArr)
		}
		numInts = 1 << p.lgArr
	}
	if len(bytes) < dataStart+numInts*4 {
		return fmt.Errorf("possible Corruption: %d coupons need %d bytes, got %d", numInts, dataStart+numInts*4, len(bytes))
	}

	if p.curMode == CurModeSet && h.lgConfigK > 7 {
		h.curMode = CurModeSet
		h.lgCouponArrInts = computeLgArr(couponCount, h.lgConfigK)
		h.couponIntArr = make([]uint32, 1<<h.lgCouponArrInts)
	}
	for i := 0; i < numInts; i++ {
		c := extractUint32(bytes, dataStart+i*4)
		if c == empty {
			continue
		}
		h.couponUpdate(c)
	}
	if h.curMode != CurModeHll && h.couponCount != couponCount {
		return fmt.Errorf("possible Corruption: expected %d coupons, found %d", couponCount, h.couponCount)
	}
	return nil
}

func (h *HllSketch) readHll(bytes []byte, p preamble) error {
	arrBytes := hllArrBytes(p.tgtHllType, h.lgConfigK)
	if len(bytes) < hllByteArrStart+arrBytes {
		return fmt.Errorf("possible Corruption: HLL array needs %d bytes, got %d", hllByteArrStart+arrBytes, len(bytes))
	}
	h.initRegisters()
	arr := bytes[hllByteArrStart : hllByteArrStart+arrBytes]

	switch p.tgtHllType {
	case TgtHllTypeHll4:
		aux, err := readAux(bytes, p, hllByteArrStart+arrBytes, h.lgConfigK)
		if err != nil {
			return err
		}
		if err := unpackHll4(arr, int(bytes[hllCurMinByte]), aux, h.regs); err != nil {
			return err
		}
	case TgtHllTypeHll6:
		unpackHll6(arr, h.regs)
	default:
		copy(h.regs, arr)
	}
	for slotNo, v := range h.regs {
		if v > maxRegisterValue {
			return fmt.Errorf("possible Corruption: register %d holds %d", slotNo, v)
		}
	}

	h.oooFlag = p.isOutOfOrder()
	h.hipAccum = extractFloat64(bytes, hipAccumDouble)
	h.rebuildKxQ()
	return nil
}

// readAux returns the exception values of an HLL_4 image keyed by slot.
func readAux(bytes []byte, p preamble, auxStart int, lgConfigK int) (map[int]int, error) {
	auxCount := int(extractUint32(bytes, auxCountInt))
	if auxCount == 0 {
		return nil, nil
	}
	numInts := auxCount
	if !p.isCompact() {
		if p.lgArr > MaxLgK {
			return nil, fmt.Errorf("possible Corruption: aux table too large: lg %d", p.lgArr)
		}
		numInts = 1 << p.lgArr
	}
	if len(bytes) < auxStart+numInts*4 {
		return nil, fmt.Errorf("possible Corruption: aux table needs %d bytes, got %d", auxStart+numInts*4, len(bytes))
	}

	configKMask := (1 << lgConfigK) - 1
	aux := make(map[int]int, auxCount)
	for i := 0; i < numInts; i++ {
		pr := extractUint32(bytes, auxStart+i*4)
		if pr == empty {
			continue
		}
		aux[getPairLow26(pr)&configKMask] = getPairValue(pr)
	}
	if len(aux) != auxCount {
		return nil, fmt.Errorf("possible Corruption: expected %d aux entries, found %d", auxCount, len(aux))
	}
	return aux, nil
}
