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
	"fmt"
	"io"

	"github.com/Roblox/data-tools/internal"
)

// Decoder decodes a compact sketch from the given reader.
type Decoder struct {
	seed uint64
}

func NewDecoder(seed uint64) Decoder {
	return Decoder{
		seed: seed,
	}
}

// Decode decodes a compact sketch from the given reader.
func (dec Decoder) Decode(r io.Reader) (*CompactSketch, error) {
	bytes, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Decode(bytes, dec.seed)
}

// Decode reads serial versions 1 to 3 of the compact layout, and serial version 3
// updatable (QuickSelect) images, which are compacted on the way in.
func Decode(bytes []byte, seed uint64) (*CompactSketch, error) {
	if err := validateMemorySize(bytes, 8); err != nil {
		return nil, err
	}

	family := bytes[familyByte]
	version := bytes[serialVersionByte]
	switch {
	case family == uint8(internal.FamilyEnum.QuickSelect.Id) && version == serialVersion:
		return decodeUpdatable(bytes, seed)
	case family != uint8(internal.FamilyEnum.Compact.Id):
		return nil, CheckSketchFamilyEqual(family, uint8(internal.FamilyEnum.Compact.Id))
	}

	switch version {
	case 3:
		return decodeVersion3(bytes, seed)
	case 2:
		return decodeVersion2(bytes, seed)
	case 1:
		return decodeVersion1(bytes, seed)
	default:
		return nil, fmt.Errorf("unsupported serial version: %d", version)
	}
}

func decodeVersion3(bytes []byte, seed uint64) (*CompactSketch, error) {
	seedHash := binary.LittleEndian.Uint16(bytes[seedHashShort:])
	flags := bytes[flagsByte]
	if flags&flagIsEmpty != 0 {
		return newCompactSketchFromEntries(true, true, seedHash, MaxTheta, nil), nil
	}
	if err := checkSeedHash(seedHash, seed); err != nil {
		return nil, err
	}

	preambleLongs := bytes[preLongsByte]
	if preambleLongs == 1 {
		if err := validateMemorySize(bytes, 16); err != nil {
			return nil, err
		}
		entries := []uint64{binary.LittleEndian.Uint64(bytes[8:])}
		return newCompactSketchFromEntries(false, true, seedHash, MaxTheta, entries), nil
	}
	if preambleLongs > 3 {
		return nil, fmt.Errorf("invalid preamble size: %d (expected 1, 2, or 3)", preambleLongs)
	}

	if err := validateMemorySize(bytes, int(preambleLongs)*8); err != nil {
		return nil, err
	}
	numEntries := binary.LittleEndian.Uint32(bytes[numEntriesInt:])
	theta := MaxTheta
	if preambleLongs == 3 {
		theta = binary.LittleEndian.Uint64(bytes[thetaLong:])
	}
	entries, err := readEntries(bytes, int(preambleLongs)*8, numEntries)
	if err != nil {
		return nil, err
	}
	return newCompactSketchFromEntries(false, flags&flagIsOrdered != 0, seedHash, theta, entries), nil
}

func decodeVersion2(bytes []byte, seed uint64) (*CompactSketch, error) {
	preambleLongs := bytes[preLongsByte]
	seedHash := binary.LittleEndian.Uint16(bytes[seedHashShort:])
	if err := checkSeedHash(seedHash, seed); err != nil {
		return nil, err
	}

	switch preambleLongs {
	case 1:
		return newCompactSketchFromEntries(true, true, seedHash, MaxTheta, nil), nil
	case 2, 3:
		if err := validateMemorySize(bytes, int(preambleLongs)*8); err != nil {
			return nil, err
		}
		numEntries := binary.LittleEndian.Uint32(bytes[numEntriesInt:])
		theta := MaxTheta
		if preambleLongs == 3 {
			theta = binary.LittleEndian.Uint64(bytes[thetaLong:])
		}
		if numEntries == 0 && theta == MaxTheta {
			return newCompactSketchFromEntries(true, true, seedHash, theta, nil), nil
		}
		entries, err := readEntries(bytes, int(preambleLongs)*8, numEntries)
		if err != nil {
			return nil, err
		}
		return newCompactSketchFromEntries(false, true, seedHash, theta, entries), nil
	default:
		return nil, fmt.Errorf("invalid preamble size: %d (expected 1, 2, or 3)", preambleLongs)
	}
}

// decodeVersion1 has no seed hash on the wire; the sketch takes the hash of the given seed.
func decodeVersion1(bytes []byte, seed uint64) (*CompactSketch, error) {
	seedHash, err := internal.ComputeSeedHash(int64(seed))
	if err != nil {
		return nil, err
	}
	if err := validateMemorySize(bytes, 24); err != nil {
		return nil, err
	}

	numEntries := binary.LittleEndian.Uint32(bytes[numEntriesInt:])
	theta := binary.LittleEndian.Uint64(bytes[thetaLong:])
	if numEntries == 0 && theta == MaxTheta {
		return newCompactSketchFromEntries(true, true, uint16(seedHash), theta, nil), nil
	}
	entries, err := readEntries(bytes, 24, numEntries)
	if err != nil {
		return nil, err
	}
	return newCompactSketchFromEntries(false, true, uint16(seedHash), theta, entries), nil
}

// decodeUpdatable reads the hash table of a serialized update sketch. Empty slots
// and dirty entries at or above theta are dropped.
func decodeUpdatable(bytes []byte, seed uint64) (*CompactSketch, error) {
	if err := validateMemorySize(bytes, 24); err != nil {
		return nil, err
	}
	if pre := bytes[preLongsByte]; pre != uint8(internal.FamilyEnum.QuickSelect.MinPreLongs) {
		return nil, fmt.Errorf("invalid preamble size: %d (expected 3)", pre)
	}
	seedHash := binary.LittleEndian.Uint16(bytes[seedHashShort:])
	if err := checkSeedHash(seedHash, seed); err != nil {
		return nil, err
	}
	if bytes[flagsByte]&flagIsEmpty != 0 {
		return newCompactSketchFromEntries(true, true, seedHash, MaxTheta, nil), nil
	}

	lgArrLongs := bytes[lgArrLongsByte]
	if lgArrLongs > MaxLgK+1 {
		return nil, fmt.Errorf("invalid hash table size: lg %d", lgArrLongs)
	}
	numEntries := binary.LittleEndian.Uint32(bytes[numEntriesInt:])
	theta := binary.LittleEndian.Uint64(bytes[thetaLong:])
	slots, err := readEntries(bytes, 24, uint32(1)<<lgArrLongs)
	if err != nil {
		return nil, err
	}

	entries := make([]uint64, 0, numEntries)
	for _, hash := range slots {
		if hash != 0 && hash < theta {
			entries = append(entries, hash)
		}
	}
	return newCompactSketchFromEntries(false, false, seedHash, theta, entries), nil
}

func readEntries(bytes []byte, offset int, numEntries uint32) ([]uint64, error) {
	if err := validateMemorySize(bytes, offset+int(numEntries)*8); err != nil {
		return nil, err
	}
	entries := make([]uint64, numEntries)
	for i := range entries {
		entries[i] = binary.LittleEndian.Uint64(bytes[offset+i*8:])
	}
	return entries, nil
}

func checkSeedHash(actual uint16, seed uint64) error {
	expected, err := internal.ComputeSeedHash(int64(seed))
	if err != nil {
		return err
	}
	return CheckSeedHashEqual(actual, uint16(expected))
}

func validateMemorySize(bytes []byte, expectedBytes int) error {
	actualBytes := len(bytes)
	if actualBytes < expectedBytes {
		return fmt.Errorf("at least %d bytes expected, actual %d", expectedBytes, actualBytes)
	}
	return nil
}
