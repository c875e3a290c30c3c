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


package kll

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/exp/constraints"

	"github.com/Roblox/data-tools/internal"
)

// GetSerializedSizeBytes returns the length of the compact image ToSlice produces.
func (s *Sketch[T]) GetSerializedSizeBytes() int {
	switch s.n {
	case 0:
		return _DATA_START_ADR_SINGLE_ITEM
	case 1:
		return _DATA_START_ADR_SINGLE_ITEM + itemBytes[T]()
	}
	return _DATA_START_ADR + s.numLevels()*4 + (2+int(s.GetNumRetained()))*itemBytes[T]()
}

// ToSlice returns the compact serialized image of the sketch.
func (s *Sketch[T]) ToSlice() ([]byte, error) {
	out := make([]byte, s.GetSerializedSizeBytes())
	size := itemBytes[T]()

	preInts, serVer := _PREAMBLE_INTS_FULL, _SERIAL_VERSION_EMPTY_FULL
	flags := byte(0)
	switch s.n {
	case 0:
		preInts = _PREAMBLE_INTS_EMPTY_SINGLE
		flags |= _EMPTY_BIT_MASK
	case 1:
		preInts, serVer = _PREAMBLE_INTS_EMPTY_SINGLE, _SERIAL_VERSION_SINGLE
		flags |= _SINGLE_ITEM_BIT_MASK
	}
	if s.isLevelZeroSorted {
		flags |= _LEVEL_ZERO_SORTED_BIT_MASK
	}
	if isDoubles[T]() {
		flags |= _DOUBLES_SKETCH_BIT_MASK
	}

	out[_PREAMBLE_INTS_BYTE_ADR] = byte(preInts)
	out[_SER_VER_BYTE_ADR] = byte(serVer)
	out[_FAMILY_BYTE_ADR] = byte(internal.FamilyEnum.Kll.Id)
	out[_FLAGS_BYTE_ADR] = flags
	binary.LittleEndian.PutUint16(out[_K_SHORT_ADR:], s.k)
	out[_M_BYTE_ADR] = s.m

	switch s.n {
	case 0:
		return out, nil
	case 1:
		putItem(out[_DATA_START_ADR_SINGLE_ITEM:], s.items[s.levels[0]])
		return out, nil
	}

	binary.LittleEndian.PutUint64(out[_N_LONG_ADR:], s.n)
	binary.LittleEndian.PutUint16(out[_MIN_K_SHORT_ADR:], s.minK)
	out[_NUM_LEVELS_BYTE_ADR] = byte(s.numLevels())
	offset := _DATA_START_ADR
	// the top index is implied by k, m and the number of levels
	for _, lvl := range s.levels[:s.numLevels()] {
		binary.LittleEndian.PutUint32(out[offset:], lvl)
		offset += 4
	}
	putItem(out[offset:], s.minItem)
	putItem(out[offset+size:], s.maxItem)
	offset += 2 * size
	for _, item := range s.items[s.levels[0]:s.levels[s.numLevels()]] {
		putItem(out[offset:], item)
		offset += size
	}
	return out, nil
}

// NewSketchFromSlice decodes a compact or updatable image.
func NewSketchFromSlice[T constraints.Float](sl []byte) (*Sketch[T], error) {
	if len(sl) < 8 {
		return nil, fmt.Errorf("image too small: %d", len(sl))
	}
	if familyID := int(sl[_FAMILY_BYTE_ADR]); familyID != internal.FamilyEnum.Kll.Id {
		return nil, fmt.Errorf("source not KLL: %d", familyID)
	}
	flags := sl[_FLAGS_BYTE_ADR]
	if flags&_DOUBLES_SKETCH_BIT_MASK != 0 && !isDoubles[T]() {
		return nil, fmt.Errorf("image holds a float64 sketch")
	}
	k := binary.LittleEndian.Uint16(sl[_K_SHORT_ADR:])
	if err := checkK(k); err != nil {
		return nil, err
	}
	if m := sl[_M_BYTE_ADR]; m != defaultM {
		return nil, fmt.Errorf("unsupported m: %d", m)
	}

	s, err := NewSketch[T](k)
	if err != nil {
		return nil, err
	}
	s.isLevelZeroSorted = flags&_LEVEL_ZERO_SORTED_BIT_MASK != 0
	size := itemBytes[T]()
	empty := flags&_EMPTY_BIT_MASK != 0

	structure := getSketchStructure(int(sl[_PREAMBLE_INTS_BYTE_ADR]), int(sl[_SER_VER_BYTE_ADR]))
	switch structure {
	case _COMPACT_EMPTY:
		if !empty {
			return nil, fmt.Errorf("empty image without the empty flag")
		}
		return s, nil
	case _COMPACT_SINGLE:
		if empty {
			return nil, fmt.Errorf("single item image with the empty flag")
		}
		if len(sl) < _DATA_START_ADR_SINGLE_ITEM+size {
			return nil, fmt.Errorf("image too small for a single item: %d", len(sl))
		}
		s.Update(getItem[T](sl[_DATA_START_ADR_SINGLE_ITEM:]))
		s.isLevelZeroSorted = flags&_LEVEL_ZERO_SORTED_BIT_MASK != 0
		return s, nil
	case _COMPACT_FULL, _UPDATABLE:
		if empty {
			return nil, fmt.Errorf("full image with the empty flag")
		}
	default:
		return nil, fmt.Errorf("invalid preamble ints and serial version combo: %d, %d",
			sl[_PREAMBLE_INTS_BYTE_ADR], sl[_SER_VER_BYTE_ADR])
	}

	if len(sl) < _DATA_START_ADR {
		return nil, fmt.Errorf("image too small for a full sketch: %d", len(sl))
	}
	numLevels := int(sl[_NUM_LEVELS_BYTE_ADR])
	if numLevels < 1 {
		return nil, fmt.Errorf("invalid number of levels: %d", numLevels)
	}
	storedLevels := numLevels
	if structure == _UPDATABLE {
		storedLevels++
	}
	offset := _DATA_START_ADR
	if len(sl) < offset+storedLevels*4+2*size {
		return nil, fmt.Errorf("image too small for %d levels: %d", numLevels, len(sl))
	}
	capacity := computeTotalItemCapacity(k, defaultM, numLevels)
	levels := make([]uint32, numLevels+1)
	for i := 0; i < storedLevels; i++ {
		levels[i] = binary.LittleEndian.Uint32(sl[offset:])
		offset += 4
	}
	if structure == _COMPACT_FULL {
		levels[numLevels] = capacity
	}
	if levels[numLevels] != capacity {
		return nil, fmt.Errorf("levels do not match capacity %d: %v", capacity, levels)
	}
	for i := 0; i < numLevels; i++ {
		if levels[i] > levels[i+1] {
			return nil, fmt.Errorf("levels are not monotonic: %v", levels)
		}
	}

	minItem := getItem[T](sl[offset:])
	maxItem := getItem[T](sl[offset+size:])
	offset += 2 * size

	items := make([]T, capacity)
	first := levels[0]
	if structure == _UPDATABLE {
		first = 0
	}
	if len(sl) < offset+int(capacity-first)*size {
		return nil, fmt.Errorf("image too small for %d items: %d", capacity-levels[0], len(sl))
	}
	for i := first; i < capacity; i++ {
		items[i] = getItem[T](sl[offset:])
		offset += size
	}

	s.n = binary.LittleEndian.Uint64(sl[_N_LONG_ADR:])
	s.minK = binary.LittleEndian.Uint16(sl[_MIN_K_SHORT_ADR:])
	s.levels = levels
	s.items = items
	s.minItem = minItem
	s.maxItem = maxItem
	if s.n == 0 || uint64(s.GetNumRetained()) > s.n {
		return nil, fmt.Errorf("n %d is inconsistent with %d retained items", s.n, s.GetNumRetained())
	}
	return s, nil
}
