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

	"github.com/Roblox/data-tools/internal"
)

func (h *HllSketch) initRegisters() {
	h.curMode = CurModeHll
	h.regs = make([]byte, 1<<h.lgConfigK)
	h.kxq0 = float64(uint64(1) << h.lgConfigK)
	h.kxq1 = 0
	h.hipAccum = 0
}

// hllUpdate raises a register. The HIP accumulator is updated before kxq0 and kxq1.
func (h *HllSketch) hllUpdate(slotNo int, newValue int) {
	oldValue := int(h.regs[slotNo])
	if newValue <= oldValue {
		return
	}
	if !h.oooFlag {
		h.hipAccum += float64(uint64(1)<<h.lgConfigK) / (h.kxq0 + h.kxq1)
	}
	h.incrementalUpdateKxQ(oldValue, newValue)
	h.regs[slotNo] = byte(newValue)
}

func (h *HllSketch) incrementalUpdateKxQ(oldValue int, newValue int) {
	oldInv, _ := internal.InvPow2(oldValue)
	newInv, _ := internal.InvPow2(newValue)
	if oldValue < 32 {
		h.kxq0 -= oldInv
	} else {
		h.kxq1 -= oldInv
	}
	if newValue < 32 {
		h.kxq0 += newInv
	} else {
		h.kxq1 += newInv
	}
}

// rebuildKxQ recomputes both registers from scratch, used after merges and decoding.
func (h *HllSketch) rebuildKxQ() {
	h.kxq0, h.kxq1 = kxq(h.regs)
}

// kxq splits the sum of 2^-v over the registers at v = 32 to keep precision.
func kxq(regs []byte) (float64, float64) {
	var kxq0, kxq1 float64
	for _, v := range regs {
		inv, _ := internal.InvPow2(int(v))
		if v < 32 {
			kxq0 += inv
		} else {
			kxq1 += inv
		}
	}
	return kxq0, kxq1
}

func (h *HllSketch) numZeros() int {
	n := 0
	for _, v := range h.regs {
		if v == 0 {
			n++
		}
	}
	return n
}

// curMinAndNum returns the smallest register value and how many registers hold it.
func curMinAndNum(regs []byte) (int, int) {
	curMin := 64
	numAtCurMin := 0
	for _, v := range regs {
		switch {
		case int(v) < curMin:
			curMin = int(v)
			numAtCurMin = 1
		case int(v) == curMin:
			numAtCurMin++
		}
	}
	return curMin, numAtCurMin
}

// packHll4 writes 4-bit offsets from curMin, low nibble for even slots. Values that do
// not fit are stored as auxToken and returned as aux pairs.
func packHll4(regs []byte, curMin int, dst []byte) []uint32 {
	var aux []uint32
	for slotNo, v := range regs {
		shifted := int(v) - curMin
		if shifted >= auxToken {
			shifted = auxToken
			aux = append(aux, pair(slotNo, int(v)))
		}
		byteNo := slotNo >> 1
		if slotNo&1 == 0 {
			dst[byteNo] = (dst[byteNo] & hiNibbleMask) | (byte(shifted) & loNibbleMask)
		} else {
			dst[byteNo] = (dst[byteNo] & loNibbleMask) | ((byte(shifted) << 4) & hiNibbleMask)
		}
	}
	return aux
}

func unpackHll4(src []byte, curMin int, aux map[int]int, regs []byte) error {
	for slotNo := range regs {
		nib := int(src[slotNo>>1])
		if slotNo&1 != 0 {
			nib >>= 4
		}
		nib &= loNibbleMask
		if nib != auxToken {
			regs[slotNo] = byte(nib + curMin)
			continue
		}
		v, ok := aux[slotNo]
		if !ok {
			return fmt.Errorf("possible Corruption: no aux value for slot %d", slotNo)
		}
		regs[slotNo] = byte(v)
	}
	return nil
}

// packHll6 writes 6-bit registers as a little endian bit stream.
func packHll6(regs []byte, dst []byte) {
	for slotNo, v := range regs {
		startBit := slotNo * 6
		shift := startBit & 7
		byteIdx := startBit >> 3
		twoBytes := binary.LittleEndian.Uint16(dst[byteIdx:])
		twoBytes &^= uint16(valMask6) << shift
		twoBytes |= (uint16(v) & valMask6) << shift
		binary.LittleEndian.PutUint16(dst[byteIdx:], twoBytes)
	}
}

func unpackHll6(src []byte, regs []byte) {
	for slotNo := range regs {
		startBit := slotNo * 6
		shift := startBit & 7
		byteIdx := startBit >> 3
		twoBytes := binary.LittleEndian.Uint16(src[byteIdx:])
		regs[slotNo] = byte((twoBytes >> shift) & valMask6)
	}
}

// foldRegisters merges src registers into dst, where dst has the same or fewer slots.
func foldRegisters(dst []byte, src []byte) {
	mask := len(dst) - 1
	for slotNo, v := range src {
		if v > dst[slotNo&mask] {
			dst[slotNo&mask] = v
		}
	}
}
