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

// Union merges sketches of any lgConfigK and target type. The internal gadget is an
// HLL_8 sketch of at most lgMaxK that shrinks to the smallest lgConfigK merged in HLL mode.
type Union struct {
	lgMaxK int
	gadget *HllSketch
}

// NewUnion returns an empty union whose result holds at most 2^lgMaxK registers.
func NewUnion(lgMaxK int) (*Union, error) {
	sk, err := NewHllSketch(lgMaxK, TgtHllTypeHll8)
	if err != nil {
		return nil, err
	}
	return &Union{lgMaxK: lgMaxK, gadget: sk}, nil
}

func NewUnionWithDefault() (*Union, error) {
	return NewUnion(DefaultLgK)
}

// NewUnionFromSlice returns a union sized to the serialized sketch and seeded with it.
func NewUnionFromSlice(bytes []byte) (*Union, error) {
	sk, err := NewHllSketchFromSlice(bytes)
	if err != nil {
		return nil, err
	}
	u, err := NewUnion(sk.GetLgConfigK())
	if err != nil {
		return nil, err
	}
	return u, u.Update(sk)
}

func (u *Union) GetLgMaxK() int {
	return u.lgMaxK
}

func (u *Union) IsEmpty() bool {
	return u.gadget.IsEmpty()
}

func (u *Union) GetEstimate() float64 {
	return u.gadget.GetEstimate()
}

func (u *Union) GetCompositeEstimate() float64 {
	return u.gadget.GetCompositeEstimate()
}

func (u *Union) GetLowerBound(numStdDev int) (float64, error) {
	return u.gadget.GetLowerBound(numStdDev)
}

func (u *Union) GetUpperBound(numStdDev int) (float64, error) {
	return u.gadget.GetUpperBound(numStdDev)
}

// Reset empties the union, lgMaxK is kept.
func (u *Union) Reset() {
	u.gadget, _ = NewHllSketch(u.lgMaxK, TgtHllTypeHll8)
}

// GetResult returns a copy of the union state rendered as tgtHllType.
func (u *Union) GetResult(tgtHllType TgtHllType) *HllSketch {
	return u.gadget.CopyAs(tgtHllType)
}

func (u *Union) UpdateInt64(datum int64) {
	u.gadget.UpdateInt64(datum)
}

func (u *Union) UpdateString(datum string) {
	u.gadget.UpdateString(datum)
}

// Update merges source into the union. Sources in LIST or SET mode are replayed coupon by
// coupon, which keeps the HIP estimator valid. Merging registers marks the result out of order.
func (u *Union) Update(source *HllSketch) error {
	if source == nil || source.IsEmpty() {
		return nil
	}
	if source.curMode != CurModeHll {
		for _, c := range source.coupons() {
			u.gadget.couponUpdate(c)
		}
		return nil
	}

	srcLgK := source.lgConfigK
	if u.gadget.IsEmpty() && srcLgK <= u.lgMaxK {
		u.gadget = source.CopyAs(TgtHllTypeHll8)
		return nil
	}

	if u.gadget.curMode != CurModeHll {
		// reverse merge: start from the registers and replay the gadget coupons
		merged, err := NewHllSketch(min(srcLgK, u.lgMaxK), TgtHllTypeHll8)
		if err != nil {
			return err
		}
		merged.initRegisters()
		merged.oooFlag = true
		foldRegisters(merged.regs, source.regs)
		for _, c := range u.gadget.coupons() {
			merged.couponUpdate(c)
		}
		merged.rebuildKxQ()
		u.gadget = merged
		return nil
	}

	if srcLgK < u.gadget.lgConfigK {
		u.gadget.downsample(srcLgK)
	}
	foldRegisters(u.gadget.regs, source.regs)
	u.gadget.oooFlag = true
	u.gadget.rebuildKxQ()
	return nil
}

// downsample folds the registers of an HLL mode sketch into 2^lgConfigK slots.
func (h *HllSketch) downsample(lgConfigK int) {
	regs := make([]byte, 1<<lgConfigK)
	foldRegisters(regs, h.regs)
	h.regs = regs
	h.lgConfigK = lgConfigK
	h.oooFlag = true
	h.rebuildKxQ()
}
