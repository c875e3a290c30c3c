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

	"github.com/twmb/murmur3"
)

type ItemSketchLongHasher struct{}
type ItemSketchLongSerDe struct{}

func (ItemSketchLongHasher) Hash(item int64) uint64 {
	var scratch [8]byte
	binary.LittleEndian.PutUint64(scratch[:], uint64(item))
	return murmur3.SeedSum64(defaultSerdeHashSeed, scratch[:])
}

func (ItemSketchLongSerDe) SizeOf(int64) int {
	return 8
}

func (ItemSketchLongSerDe) SerializeManyToSlice(items []int64) []byte {
	out := make([]byte, 8*len(items))
	for i, item := range items {
		binary.LittleEndian.PutUint64(out[i*8:], uint64(item))
	}
	return out
}

func (ItemSketchLongSerDe) DeserializeManyFromSlice(mem []byte, offsetBytes int, numItems int) ([]int64, error) {
	if numItems <= 0 {
		return []int64{}, nil
	}
	if !checkBounds(offsetBytes, numItems*8, len(mem)) {
		return nil, errOutOfBounds
	}
	items := make([]int64, numItems)
	for i := range items {
		items[i] = int64(binary.LittleEndian.Uint64(mem[offsetBytes+i*8:]))
	}
	return items, nil
}
