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

package internal

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/twmb/murmur3"
)

// HashInt64Murmur3 hashes a single long the way the JVM sketches hash long[]{v}:
// the value is laid out as 8 little-endian bytes.
func HashInt64Murmur3(v int64, seed uint64) (uint64, uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(v))
	return murmur3.SeedSum128(seed, seed, buf[:])
}

// HashByteArrMurmur3 hashes key[offset:offset+length].
func HashByteArrMurmur3(key []byte, offset int, length int, seed uint64) (uint64, uint64) {
	return murmur3.SeedSum128(seed, seed, key[offset:offset+length])
}

// HashFloat64Murmur3 canonicalizes -0.0 to 0.0 and every NaN to the canonical NaN
// before hashing the bit pattern as a long.
func HashFloat64Murmur3(v float64, seed uint64) (uint64, uint64) {
	var bits uint64
	switch {
	case v == 0:
		bits = 0
	case math.IsNaN(v):
		bits = 0x7ff8000000000000
	default:
		bits = math.Float64bits(v)
	}
	return HashInt64Murmur3(int64(bits), seed)
}

// ComputeSeedHash returns the 16-bit fingerprint of a hash seed that sketches carry
// in their preamble so images built with different seeds are never mixed.
func ComputeSeedHash(seed int64) (int16, error) {
	h1, _ := HashInt64Murmur3(seed, 0)
	seedHash := int16(h1 & 0xFFFF)
	if seedHash == 0 {
		return 0, errors.New("the given seed produced a seed hash of zero, use a different seed")
	}
	return seedHash, nil
}
