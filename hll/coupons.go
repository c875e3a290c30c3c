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

// listUpdate appends coupon unless it is already present. A full list is promoted to a
// hash set, or straight to HLL for small K.
func (h *HllSketch) listUpdate(coupon uint32) {
	for i, couponAtIdx := range h.couponIntArr {
		if couponAtIdx == empty {
			h.couponIntArr[i] = coupon
			h.couponCount++
			if h.couponCount >= len(h.couponIntArr) {
				if h.lgConfigK < 8 {
					h.promoteToHll()
				} else {
					h.promoteListToSet()
				}
			}
			return
		}
		if couponAtIdx == coupon {
			return //duplicate
		}
	}
}

func (h *HllSketch) setUpdate(coupon uint32) {
	index, found := findCoupon(h.couponIntArr, h.lgCouponArrInts, coupon)
	if found {
		return
	}
	h.couponIntArr[index] = coupon
	h.couponCount++
	h.checkGrowOrPromote()
}

// checkGrowOrPromote doubles the set past 3/4 load, and promotes to HLL once the set
// would reach K/8 ints.
func (h *HllSketch) checkGrowOrPromote() {
	if resizeDenom*h.couponCount <= resizeNumber*(1<<h.lgCouponArrInts) {
		return
	}
	if h.lgCouponArrInts == h.lgConfigK-3 {
		h.promoteToHll()
		return
	}
	h.lgCouponArrInts++
	h.couponIntArr = rehashCoupons(h.couponIntArr, h.lgCouponArrInts)
}

func rehashCoupons(src []uint32, lgArrInts int) []uint32 {
	dst := make([]uint32, 1<<lgArrInts)
	for _, c := range src {
		if c != empty {
			index, _ := findCoupon(dst, lgArrInts, c)
			dst[index] = c
		}
	}
	return dst
}

// findCoupon returns the slot holding coupon, or the empty slot where it belongs.
// The table is never full, the load factor is capped at 3/4.
func findCoupon(array []uint32, lgArrInts int, coupon uint32) (int, bool) {
	arrMask := len(array) - 1
	probe := int(coupon) & arrMask
	for {
		couponAtIdx := array[probe]
		if couponAtIdx == empty {
			return probe, false
		}
		if couponAtIdx == coupon {
			return probe, true
		}
		stride := ((int(coupon) & keyMask26) >> lgArrInts) | 1
		probe = (probe + stride) & arrMask
	}
}

func (h *HllSketch) promoteListToSet() {
	coupons := h.coupons()
	h.curMode = CurModeSet
	h.lgCouponArrInts = lgInitSetSize
	h.couponIntArr = make([]uint32, 1<<lgInitSetSize)
	h.couponCount = 0
	for _, c := range coupons {
		h.setUpdate(c)
	}
}

// promoteToHll moves the coupons into registers. The HIP accumulator starts from the
// coupon estimate at the moment of promotion.
func (h *HllSketch) promoteToHll() {
	est := couponEstimate(h.couponCount)
	coupons := h.coupons()

	h.initRegisters()
	mask := 1<<h.lgConfigK - 1
	for _, c := range coupons {
		h.hllUpdate(getPairLow26(c)&mask, getPairValue(c))
	}
	h.hipAccum = est
	h.couponIntArr = nil
	h.couponCount = 0
	h.lgCouponArrInts = 0
}
