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
	"encoding/binary"
	"io"
	"math"

	"github.com/Roblox/data-tools/internal"
)

// Encoder writes compact sketches in the serial version 3 layout read by the
// JVM libraries.
type Encoder struct {
	w io.Writer
}

func NewEncoder(w io.Writer) Encoder {
	return Encoder{w: w}
}

func (enc Encoder) Encode(sketch *CompactSketch) error {
	bytes := make([]byte, sketch.SerializedSizeBytes())
	encodeSketch(sketch, bytes)

	n, err := enc.w.Write(bytes)
	if err != nil {
		return err
	}
	if n != len(bytes) {
		return io.ErrShortWrite
	}
	return nil
}

func encodeSketch(sketch *CompactSketch, bytes []byte) {
	preambleLongs := sketch.preambleLongs()
	bytes[preLongsByte] = preambleLongs
	bytes[serialVersionByte] = serialVersion
	bytes[familyByte] = uint8(internal.FamilyEnum.Compact.Id)

	flags := flagIsCompact | flagIsReadOnly
	if sketch.IsEmpty() {
		flags |= flagIsEmpty
	}
	if sketch.IsOrdered() {
		flags |= flagIsOrdered
	}
	if preambleLongs == 1 && len(sketch.entries) == 1 {
		flags |= flagIsSingleItem
	}
	bytes[flagsByte] = flags
	binary.LittleEndian.PutUint16(bytes[seedHashShort:], sketch.seedHash)

	offset := 8
	if preambleLongs > 1 {
		binary.LittleEndian.PutUint32(bytes[numEntriesInt:], uint32(len(sketch.entries)))
		binary.LittleEndian.PutUint32(bytes[pFloat:], math.Float32bits(1))
		offset = 16
	}
	if preambleLongs > 2 {
		binary.LittleEndian.PutUint64(bytes[thetaLong:], sketch.theta)
		offset = 24
	}

	for _, entry := range sketch.entries {
		binary.LittleEndian.PutUint64(bytes[offset:], entry)
		offset += 8
	}
}
