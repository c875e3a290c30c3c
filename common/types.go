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

// Package common holds the item hashers and serializers shared by the item sketches.
// The byte layouts match the JVM ArrayOf*SerDe classes so images cross systems.
package common

import "errors"

// defaultSerdeHashSeed seeds the hashes used to place items in hash maps. It never
// reaches a serialized image.
const defaultSerdeHashSeed = uint64(9001)

var errOutOfBounds = errors.New("offset out of bounds")

type ItemSketchHasher[C comparable] interface {
	Hash(item C) uint64
}

type ItemSketchSerde[C comparable] interface {
	// SizeOf returns the number of bytes item occupies once serialized.
	SizeOf(item C) int
	SerializeManyToSlice(items []C) []byte
	DeserializeManyFromSlice(mem []byte, offsetBytes int, numItems int) ([]C, error)
}

func checkBounds(offset, length, capacity int) bool {
	return offset >= 0 && length >= 0 && offset+length <= capacity
}
