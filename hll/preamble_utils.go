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
	"encoding/binary"
	"fmt"
	"math"

	"github.com/Roblox/data-tools/internal"
)

const (
	preambleIntsByte = 0
	serVerByte       = 1
	familyByte       = 2
	lgKByte          = 3
	lgArrByte        = 4
	flagsByte        = 5
	listCountByte    = 6
	hllCurMinByte    = 6
	// modeByte
	// mode encoding of combined curMode and TgtHllType:
	// Dec  Lo4Bits TgtHllType, curMode
	//   0     0000      HLL_4,    LIST
	//   1     0001      HLL_4,     SET
	//   2     0010      HLL_4,     HLL
	//   4     0100      HLL_6,    LIST
	//   5     0101      HLL_6,     SET
	//   6     0110      HLL_6,     HLL
	//   8     1000      HLL_8,    LIST
	//   9     1001      HLL_8,     SET
	//  10     1010      HLL_8,     HLL
	modeByte = 7 //lo2bits = curMode, next 2 bits = tgtHllType

	listIntArrStart = 8
)

const (
	//Coupon Hash Set
	hashSetCountInt    = 8
	hashSetIntArrStart = 12
)

const (
	// HLL
	hipAccumDouble  = 8
	kxq0Double      = 16
	kxq1Double      = 24
	curMinCountInt  = 32
	auxCountInt     = 36
	hllByteArrStart = 40
)

const (
	//Flag bit masks
	emptyFlagMask      = 4
	compactFlagMask    = 8
	outOfOrderFlagMask = 16
)

const (
	//Mode byte masks
	curModeMask    = 3
	tgtHllTypeMask = 12
)

const (
	serVer         = 1
	listPreInts    = 2
	hashSetPreInts = 3
	hllPreInts     = 10
)

// preamble is the decoded fixed part of a serialized image.
type preamble struct {
	preInts    int
	lgConfigK  int
	lgArr      int
	flags      byte
	curMode    CurMode
	tgtHllType TgtHllType
}

func (p preamble) isEmpty() bool      { return p.flags&emptyFlagMask != 0 }
func (p preamble) isCompact() bool    { return p.flags&compactFlagMask != 0 }
func (p preamble) isOutOfOrder() bool { return p.flags&outOfOrderFlagMask != 0 }

// checkPreamble validates the family, version and mode of a serialized image.
func checkPreamble(byteArr []byte) (preamble, error) {
	if len(byteArr) < 8 {
		return preamble{}, fmt.Errorf("possible Corruption: image too short: %d bytes", len(byteArr))
	}
	p := preamble{
		preInts:    int(byteArr[preambleIntsByte] & 0x3F),
		lgConfigK:  int(byteArr[lgKByte]),
		lgArr:      int(byteArr[lgArrByte]),
		flags:      byteArr[flagsByte],
		curMode:    CurMode(byteArr[modeByte] & curModeMask),
		tgtHllType: TgtHllType((byteArr[modeByte] & tgtHllTypeMask) >> 2),
	}

	if famID := int(byteArr[familyByte]); famID != internal.FamilyEnum.HLL.Id {
		return preamble{}, fmt.Errorf("possible Corruption: Invalid Family: %d", famID)
	}
	if v := byteArr[serVerByte]; v != serVer {
		return preamble{}, fmt.Errorf("possible Corruption: Invalid Serialization Version: %d", v)
	}
	if err := checkLgK(p.lgConfigK); err != nil {
		return preamble{}, err
	}
	if err := checkTgtHllType(p.tgtHllType); err != nil {
		return preamble{}, err
	}

	var want int
	switch p.curMode {
	case CurModeList:
		want = listPreInts
	case CurModeSet:
		want = hashSetPreInts
	case CurModeHll:
		want = hllPreInts
	default:
		return preamble{}, fmt.Errorf("possible Corruption: Invalid CurMode: %d", p.curMode)
	}
	if p.preInts != want {
		return preamble{}, fmt.Errorf("possible Corruption: Invalid Preamble Ints: %d", p.preInts)
	}
	if len(byteArr) < p.preInts*4 {
		return preamble{}, fmt.Errorf("preamble length mismatch: %d, %d", len(byteArr), p.preInts)
	}
	return p, nil
}

func insertCommon(dst []byte, preInts int, lgConfigK int, curMode CurMode, tgtHllType TgtHllType) {
	dst[preambleIntsByte] = byte(preInts)
	dst[serVerByte] = serVer
	dst[familyByte] = byte(internal.FamilyEnum.HLL.Id)
	dst[lgKByte] = byte(lgConfigK)
	dst[modeByte] = byte(curMode) | byte(tgtHllType)<<2
}

func extractUint32(byteArr []byte, offset int) uint32 {
	return binary.LittleEndian.Uint32(byteArr[offset : offset+4])
}

func extractFloat64(byteArr []byte, offset int) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(byteArr[offset : offset+8]))
}

func insertUint32(byteArr []byte, offset int, v uint32) {
	binary.LittleEndian.PutUint32(byteArr[offset:offset+4], v)
}

func insertFloat64(byteArr []byte, offset int, v float64) {
	binary.LittleEndian.PutUint64(byteArr[offset:offset+8], math.Float64bits(v))
}

// computeLgArr returns the smallest table size that holds couponCount coupons without
// triggering a resize, as a compact image does not carry it.
func computeLgArr(couponCount int, lgConfigK int) int {
	lgArr := lgInitSetSize
	for resizeDenom*couponCount > resizeNumber*(1<<lgArr) && lgArr < lgConfigK-3 {
		lgArr++
	}
	return lgArr
}
