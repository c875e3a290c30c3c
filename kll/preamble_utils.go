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
	"math"

	"golang.org/x/exp/constraints"
)

const (
	_PREAMBLE_INTS_BYTE_ADR = 0
	_SER_VER_BYTE_ADR       = 1
	_FAMILY_BYTE_ADR        = 2
	_FLAGS_BYTE_ADR         = 3
	_K_SHORT_ADR            = 4 // to 5
	_M_BYTE_ADR             = 6
	// 7 is reserved for future use

	// SINGLE ITEM ONLY
	_DATA_START_ADR_SINGLE_ITEM = 8

	// MULTI-ITEM
	_N_LONG_ADR          = 8  // to 15
	_MIN_K_SHORT_ADR     = 16 // to 17
	_NUM_LEVELS_BYTE_ADR = 18
	// 19 is reserved for future use
	_DATA_START_ADR = 20

	_SERIAL_VERSION_EMPTY_FULL  = 1 // empty or compact full
	_SERIAL_VERSION_SINGLE      = 2 // single item
	_SERIAL_VERSION_UPDATABLE   = 3 // full levels array and the whole items array
	_PREAMBLE_INTS_EMPTY_SINGLE = 2
	_PREAMBLE_INTS_FULL         = 5

	// Flag bit masks
	_EMPTY_BIT_MASK             = 1
	_LEVEL_ZERO_SORTED_BIT_MASK = 2
	_SINGLE_ITEM_BIT_MASK       = 4
	// set by older writers on float64 sketches only
	_DOUBLES_SKETCH_BIT_MASK = 8
)

type sketchStructure int

const (
	_COMPACT_EMPTY sketchStructure = iota
	_COMPACT_SINGLE
	_COMPACT_FULL
	_UPDATABLE
	_INVALID
)

func getSketchStructure(preInts, serVer int) sketchStructure {
	switch {
	case preInts == _PREAMBLE_INTS_EMPTY_SINGLE && serVer == _SERIAL_VERSION_EMPTY_FULL:
		return _COMPACT_EMPTY
	case preInts == _PREAMBLE_INTS_EMPTY_SINGLE && serVer == _SERIAL_VERSION_SINGLE:
		return _COMPACT_SINGLE
	case preInts == _PREAMBLE_INTS_FULL && serVer == _SERIAL_VERSION_EMPTY_FULL:
		return _COMPACT_FULL
	case preInts == _PREAMBLE_INTS_FULL && serVer == _SERIAL_VERSION_UPDATABLE:
		return _UPDATABLE
	}
	return _INVALID
}

func isDoubles[T constraints.Float]() bool {
	var zero T
	_, ok := any(zero).(float64)
	return ok
}

// itemBytes is 8 for float64 and 4 for float32.
func itemBytes[T constraints.Float]() int {
	if isDoubles[T]() {
		return 8
	}
	return 4
}

func putItem[T constraints.Float](dst []byte, item T) {
	if isDoubles[T]() {
		binary.LittleEndian.PutUint64(dst, math.Float64bits(float64(item)))
		return
	}
	binary.LittleEndian.PutUint32(dst, math.Float32bits(float32(item)))
}

func getItem[T constraints.Float](src []byte) T {
	if isDoubles[T]() {
		return T(math.Float64frombits(binary.LittleEndian.Uint64(src)))
	}
	return T(math.Float32frombits(binary.LittleEndian.Uint32(src)))
}
