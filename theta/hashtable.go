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
	"math"
	"math/bits"

	"github.com/Roblox/data-tools/internal"
)

const (
	resizeThreshold  = 0.5
	rebuildThreshold = 15.0 / 16.0
)

const (
	strideHashBits = 7
	strideMask     = (1 << strideHashBits) - 1
)

// hashtable is an open-addressing table of 63-bit hashes below theta. Zero marks
// an empty slot.
type hashtable struct {
	entries    []uint64
	theta      uint64
	seed       uint64
	numEntries uint32
	lgCurSize  uint8
	lgNomSize  uint8
	rf         ResizeFactor
	isEmpty    bool
}

func newHashtable(lgCurSize, lgNomSize uint8, rf ResizeFactor, theta, seed uint64, isEmpty bool) *hashtable {
	t := &hashtable{
		isEmpty:   isEmpty,
		lgCurSize: lgCurSize,
		lgNomSize: lgNomSize,
		rf:        rf,
		theta:     theta,
		seed:      seed,
	}
	if lgCurSize > 0 {
		t.entries = make([]uint64, 1<<lgCurSize)
	}
	return t
}

// screen turns a raw 128-bit murmur result into a retained hash. It reports false
// when the hash is zero or at or above theta.
func (t *hashtable) screen(h1 uint64) (uint64, bool) {
	t.isEmpty = false
	hash := h1 >> 1
	if hash == 0 || hash >= t.theta {
		return 0, false
	}
	return hash, true
}

// insertHash adds hash unless it is already present.
func (t *hashtable) insertHash(hash uint64) {
	index, found := find(t.entries, t.lgCurSize, hash)
	if found || index < 0 {
		return
	}
	t.insert(index, hash)
}

// find returns the slot holding key, or the empty slot where it belongs. The index is
// -1 when the table is full and key is absent.
func find(entries []uint64, lgSize uint8, key uint64) (int, bool) {
	mask := uint32(1<<lgSize) - 1
	stride := computeStride(key, lgSize)
	index := uint32(key) & mask
	start := index
	for {
		probe := entries[index]
		if probe == 0 {
			return int(index), false
		}
		if probe == key {
			return int(index), true
		}
		index = (index + stride) & mask
		if index == start {
			return -1, false
		}
	}
}

// computeStride is odd, so probing visits every slot of a power-of-two table.
func computeStride(key uint64, lgSize uint8) uint32 {
	return (2 * uint32((key>>lgSize)&strideMask)) + 1
}

func (t *hashtable) insert(index int, entry uint64) {
	t.entries[index] = entry
	t.numEntries++
	if t.numEntries > computeCapacity(t.lgCurSize, t.lgNomSize) {
		if t.lgCurSize <= t.lgNomSize {
			t.resize()
		} else {
			t.rebuild()
		}
	}
}

func computeCapacity(lgCurSize, lgNomSize uint8) uint32 {
	fraction := rebuildThreshold
	if lgCurSize <= lgNomSize {
		fraction = resizeThreshold
	}
	return uint32(math.Floor(fraction * float64(uint32(1)<<lgCurSize)))
}

func (t *hashtable) resize() {
	lgNewSize := min(t.lgCurSize+uint8(t.rf), t.lgNomSize+1)
	if t.rf == ResizeX1 {
		lgNewSize = t.lgNomSize + 1
	}
	newEntries := make([]uint64, 1<<lgNewSize)
	for _, key := range t.entries {
		if key != 0 {
			index, _ := find(newEntries, lgNewSize, key)
			newEntries[index] = key
		}
	}
	t.entries = newEntries
	t.lgCurSize = lgNewSize
}

// rebuild keeps the k smallest hashes and lowers theta to the (k+1)th.
func (t *hashtable) rebuild() {
	nominalSize := 1 << t.lgNomSize
	live := make([]uint64, 0, t.numEntries)
	for _, key := range t.entries {
		if key != 0 {
			live = append(live, key)
		}
	}
	internal.QuickSelect(live, 0, len(live)-1, nominalSize)
	t.theta = live[nominalSize]

	t.entries = make([]uint64, 1<<t.lgCurSize)
	t.numEntries = uint32(nominalSize)
	for _, key := range live[:nominalSize] {
		index, _ := find(t.entries, t.lgCurSize, key)
		t.entries[index] = key
	}
}

// trim reduces the table to nominal size if needed.
func (t *hashtable) trim() {
	if t.numEntries > uint32(1<<t.lgNomSize) {
		t.rebuild()
	}
}

func (t *hashtable) reset() {
	lgStart := startingSubMultiple(t.lgNomSize+1, minLgArrLongs, uint8(t.rf))
	if lgStart != t.lgCurSize || t.entries == nil {
		t.lgCurSize = lgStart
		t.entries = make([]uint64, 1<<lgStart)
	} else {
		clear(t.entries)
	}
	t.numEntries = 0
	t.theta = MaxTheta
	t.isEmpty = true
}

// startingSubMultiple picks the initial table size so that repeated resizes by
// the resize factor land exactly on lgTgt.
func startingSubMultiple(lgTgt, lgMin, lgRf uint8) uint8 {
	if lgTgt <= lgMin {
		return lgMin
	}
	if lgRf == 0 {
		return lgTgt
	}
	return ((lgTgt - lgMin) % lgRf) + lgMin
}

// lgSizeFromCount sizes a table that holds n entries under the rebuild threshold.
func lgSizeFromCount(n uint32) uint8 {
	lg := uint8(bits.Len32(n)) + 1
	if float64(n) > rebuildThreshold*float64(uint32(1)<<lg) {
		lg++
	}
	return max(lg, 1)
}
