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

package common

import (
	"encoding/binary"
	"unsafe"

	"github.com/twmb/murmur3"
)

type ItemSketchStringHasher struct{}

// ItemSketchStringSerDe writes each item as a 4-byte little-endian length
// followed by its UTF-8 bytes.
type ItemSketchStringSerDe struct{}

func (ItemSketchStringHasher) Hash(item string) uint64 {
	datum := unsafe.Slice(unsafe.StringData(item), len(item))
	return murmur3.SeedSum64(defaultSerdeHashSeed, datum)
}

func (ItemSketchStringSerDe) SizeOf(item string) int {
	return len(item) + 4
}

func (f ItemSketchStringSerDe) SerializeManyToSlice(items []string) []byte {
	total := 0
	for _, item := range items {
		total += f.SizeOf(item)
	}
	out := make([]byte, total)
	offset := 0
	for _, item := range items {
		binary.LittleEndian.PutUint32(out[offset:], uint32(len(item)))
		offset += 4
		offset += copy(out[offset:], item)
	}
	return out
}

func (ItemSketchStringSerDe) DeserializeManyFromSlice(mem []byte, offsetBytes int, numItems int) ([]string, error) {
	if numItems <= 0 {
		return []string{}, nil
	}
	items := make([]string, numItems)
	offset := offsetBytes
	for i := range items {
		if !checkBounds(offset, 4, len(mem)) {
			return nil, errOutOfBounds
		}
		strLen := int(binary.LittleEndian.Uint32(mem[offset:]))
		offset += 4
		if !checkBounds(offset, strLen, len(mem)) {
			return nil, errOutOfBounds
		}
		items[i] = string(mem[offset : offset+strLen])
		offset += strLen
	}
	return items, nil
}
