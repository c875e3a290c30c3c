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


package frequencies

import "encoding/binary"

// Preamble layout, little endian:
//
//	byte 0     preamble longs, 1 when empty and 4 otherwise
//	byte 1     serial version
//	byte 2     family id
//	byte 3     log2 of the maximum map size
//	byte 4     log2 of the current map size
//	byte 5     flags
//	bytes 8-11 number of active items
//	long 2     stream weight
//	long 3     offset
//
// The counts follow as longs, then the items as written by the serde.
const (
	_PREAMBLE_LONGS_BYTE  = 0
	_SER_VER_BYTE         = 1
	_FAMILY_BYTE          = 2
	_LG_MAX_MAP_SIZE_BYTE = 3
	_LG_CUR_MAP_SIZE_BYTE = 4
	_FLAGS_BYTE           = 5
	_ACTIVE_ITEMS_INT     = 8
	_STREAM_WEIGHT_LONG   = 16
	_OFFSET_LONG          = 24

	// Two writers disagreed on the empty bit, so both are set and either is accepted.
	_EMPTY_FLAG_MASK = 5

	_SER_VER = 1
)

type preamble struct {
	preLongs     int
	serVer       int
	familyID     int
	lgMaxMapSize int
	lgCurMapSize int
	flags        int
	activeItems  int
	streamWeight int64
	offset       int64
}

func (p preamble) isEmpty() bool {
	return p.flags&_EMPTY_FLAG_MASK != 0
}

// readPreamble reads the first long and, when present, the three that follow.
func readPreamble(slc []byte) preamble {
	p := preamble{
		preLongs:     int(slc[_PREAMBLE_LONGS_BYTE] & 0x3F),
		serVer:       int(slc[_SER_VER_BYTE]),
		familyID:     int(slc[_FAMILY_BYTE]),
		lgMaxMapSize: int(slc[_LG_MAX_MAP_SIZE_BYTE]),
		lgCurMapSize: int(slc[_LG_CUR_MAP_SIZE_BYTE]),
		flags:        int(slc[_FLAGS_BYTE]),
	}
	if p.preLongs > 1 && len(slc) >= p.preLongs<<3 {
		p.activeItems = int(binary.LittleEndian.Uint32(slc[_ACTIVE_ITEMS_INT:]))
		p.streamWeight = int64(binary.LittleEndian.Uint64(slc[_STREAM_WEIGHT_LONG:]))
		p.offset = int64(binary.LittleEndian.Uint64(slc[_OFFSET_LONG:]))
	}
	return p
}

func writePreamble(out []byte, p preamble) {
	out[_PREAMBLE_LONGS_BYTE] = byte(p.preLongs)
	out[_SER_VER_BYTE] = byte(p.serVer)
	out[_FAMILY_BYTE] = byte(p.familyID)
	out[_LG_MAX_MAP_SIZE_BYTE] = byte(p.lgMaxMapSize)
	out[_LG_CUR_MAP_SIZE_BYTE] = byte(p.lgCurMapSize)
	out[_FLAGS_BYTE] = byte(p.flags)
	if p.preLongs == 1 {
		return
	}
	binary.LittleEndian.PutUint32(out[_ACTIVE_ITEMS_INT:], uint32(p.activeItems))
	binary.LittleEndian.PutUint64(out[_STREAM_WEIGHT_LONG:], uint64(p.streamWeight))
	binary.LittleEndian.PutUint64(out[_OFFSET_LONG:], uint64(p.offset))
}
