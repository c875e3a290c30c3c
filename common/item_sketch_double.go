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
	"math"

	"github.com/twmb/murmur3"
)

type ItemSketchDoubleHasher struct{}
type ItemSketchDoubleSerDe struct{}

// Hash treats -0 and 0 as the same item, they compare equal.
func (ItemSketchDoubleHasher) Hash(item float64) uint64 {
	if item == 0 {
		item = 0
	}
	var scratch [8]byte
	binary.LittleEndian.PutUint64(scratch[:], math.Float64bits(item))
	return murmur3.SeedSum64(defaultSerdeHashSeed, scratch[:])
}

func (ItemSketchDoubleSerDe) SizeOf(float64) int {
	return 8
}

func (ItemSketchDoubleSerDe) SerializeManyToSlice(items []float64) []byte {
	out := make([]byte, 8*len(items))
	for i, item := range items {
		binary.LittleEndian.PutUint64(out[i*8:], math.Float64bits(item))
	}
	return out
}

func (ItemSketchDoubleSerDe) DeserializeManyFromSlice(mem []byte, offsetBytes int, numItems int) ([]float64, error) {
	if numItems <= 0 {
		return []float64{}, nil
	}
	if !checkBounds(offsetBytes, numItems*8, len(mem)) {
		return nil, errOutOfBounds
	}
	items := make([]float64, numItems)
	for i := range items {
		items[i] = math.Float64frombits(binary.LittleEndian.Uint64(mem[offsetBytes+i*8:]))
	}
	return items, nil
}
