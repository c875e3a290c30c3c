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


// Package frequencies is dedicated to streaming algorithms that enable estimation of the
// frequency of occurrence of items in a weighted multiset stream of items.
// If the frequency distribution of items is sufficiently skewed, these algorithms are very
// useful in identifying the "Heavy Hitters" that occurred most frequently in the stream.
// The accuracy of the estimation of the frequency of an item has well understood error
// bounds that can be returned by the sketch.
//
// These algorithms are sometimes referred to as "TopN" algorithms.
package frequencies

import (
	"cmp"
	"encoding/binary"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/Roblox/data-tools/common"
	"github.com/Roblox/data-tools/internal"
)

const (
	// MinMapSize is the smallest accepted maximum map size, it is raised to 2^_LG_MIN_MAP_SIZE.
	MinMapSize = 4
	// MaxMapSize bounds the memory of a single sketch.
	MaxMapSize = 1 << 26
)

// ItemsSketch tracks the approximate counts of the most frequent items of a stream.
type ItemsSketch[C comparable] struct {
	// log2 of the maximum length of the arrays inside the hash map
	lgMaxMapSize int
	// the number of counters the map holds before it grows or purges
	curMapCap int
	// total of the counts subtracted by purges
	offset int64
	// sum of all frequencies of the stream so far
	streamWeight int64
	// the number of counters sampled to approximate the median during a purge
	sampleSize int
	hashMap    *reversePurgeHashMap[C]
	serde      common.ItemSketchSerde[C]
}

// NewItemsSketch returns an empty sketch whose map starts at 2^lgCurMapSize slots and
// grows up to 2^lgMaxMapSize. The map holds at most 0.75 * 2^lgMaxMapSize counters.
func NewItemsSketch[C comparable](lgMaxMapSize int, lgCurMapSize int, hasher common.ItemSketchHasher[C], serde common.ItemSketchSerde[C]) (*ItemsSketch[C], error) {
	if hasher == nil || serde == nil {
		return nil, errors.New("hasher and serde are required")
	}
	lgMaxMapSize = max(lgMaxMapSize, _LG_MIN_MAP_SIZE)
	lgCurMapSize = max(lgCurMapSize, _LG_MIN_MAP_SIZE)
	if lgCurMapSize > lgMaxMapSize {
		return nil, fmt.Errorf("lgCurMapSize %d exceeds lgMaxMapSize %d", lgCurMapSize, lgMaxMapSize)
	}
	if 1<<lgMaxMapSize > MaxMapSize {
		return nil, fmt.Errorf("lgMaxMapSize too large: %d", lgMaxMapSize)
	}
	hashMap, err := newReversePurgeHashMap[C](1<<lgCurMapSize, hasher)
	if err != nil {
		return nil, err
	}
	maxMapCap := int(float64(uint64(1)<<lgMaxMapSize) * loadFactor)
	return &ItemsSketch[C]{
		lgMaxMapSize: lgMaxMapSize,
		curMapCap:    hashMap.getCapacity(),
		sampleSize:   min(_SAMPLE_SIZE, maxMapCap),
		hashMap:      hashMap,
		serde:        serde,
	}, nil
}

// NewItemsSketchWithMaxMapSize returns an empty sketch. maxMapSize must be a power of 2;
// both the accuracy and the size of the sketch are functions of it.
func NewItemsSketchWithMaxMapSize[C comparable](maxMapSize int, hasher common.ItemSketchHasher[C], serde common.ItemSketchSerde[C]) (*ItemsSketch[C], error) {
	if err := checkMapSize(maxMapSize); err != nil {
		return nil, err
	}
	lgMaxMapSize, err := internal.ExactLog2(maxMapSize)
	if err != nil {
		return nil, err
	}
	return NewItemsSketch[C](lgMaxMapSize, _LG_MIN_MAP_SIZE, hasher, serde)
}

func checkMapSize(maxMapSize int) error {
	if maxMapSize < MinMapSize || maxMapSize > MaxMapSize || !internal.IsPowerOf2(maxMapSize) {
		return fmt.Errorf("maxMapSize must be a power of 2 in [%d, %d]: %d", MinMapSize, MaxMapSize, maxMapSize)
	}
	return nil
}

// NewItemsSketchFromSlice decodes an image written by ToSlice or by the JVM ItemsSketch
// and LongsSketch.
func NewItemsSketchFromSlice[C comparable](slc []byte, hasher common.ItemSketchHasher[C], serde common.ItemSketchSerde[C]) (*ItemsSketch[C], error) {
	if len(slc) < 8 {
		return nil, fmt.Errorf("preamble is too small: %d", len(slc))
	}
	pre := readPreamble(slc)
	maxPreLongs := internal.FamilyEnum.Frequency.MaxPreLongs
	if pre.preLongs != 1 && pre.preLongs != maxPreLongs {
		return nil, fmt.Errorf("possible corruption: preLongs must be 1 or %d: %d", maxPreLongs, pre.preLongs)
	}
	if pre.serVer != _SER_VER {
		return nil, fmt.Errorf("possible corruption: ser ver must be %d: %d", _SER_VER, pre.serVer)
	}
	if actFamID := internal.FamilyEnum.Frequency.Id; pre.familyID != actFamID {
		return nil, fmt.Errorf("possible corruption: familyID must be %d: %d", actFamID, pre.familyID)
	}
	if pre.isEmpty() != (pre.preLongs == 1) {
		return nil, fmt.Errorf("possible corruption: empty flag and preLongs %d disagree", pre.preLongs)
	}
	if pre.isEmpty() {
		return NewItemsSketch[C](pre.lgMaxMapSize, _LG_MIN_MAP_SIZE, hasher, serde)
	}

	preBytes := pre.preLongs << 3
	if len(slc) < preBytes {
		return nil, fmt.Errorf("preamble is too small: %d", len(slc))
	}
	sk, err := NewItemsSketch[C](pre.lgMaxMapSize, pre.lgCurMapSize, hasher, serde)
	if err != nil {
		return nil, err
	}
	if pre.activeItems > sk.GetMaximumMapCapacity() {
		return nil, fmt.Errorf("possible corruption: %d active items exceed the map capacity", pre.activeItems)
	}
	reqBytes := preBytes + pre.activeItems*8
	if len(slc) < reqBytes {
		return nil, fmt.Errorf("possible corruption: insufficient bytes in array: %d, %d", len(slc), reqBytes)
	}
	items, err := serde.DeserializeManyFromSlice(slc, reqBytes, pre.activeItems)
	if err != nil {
		return nil, err
	}
	for j, item := range items {
		count := int64(binary.LittleEndian.Uint64(slc[preBytes+j<<3:]))
		if count <= 0 {
			return nil, fmt.Errorf("possible corruption: count must be positive: %d", count)
		}
		if err := sk.UpdateMany(item, count); err != nil {
			return nil, err
		}
	}
	sk.offset = pre.offset
	sk.streamWeight = pre.streamWeight
	return sk, nil
}

// GetMaxMapSize returns the configured maximum map size, a power of 2.
func (i *ItemsSketch[C]) GetMaxMapSize() int {
	return 1 << i.lgMaxMapSize
}

// GetCurrentMapCapacity returns the number of counters the map currently supports.
func (i *ItemsSketch[C]) GetCurrentMapCapacity() int {
	return i.curMapCap
}

// GetMaximumMapCapacity returns the number of counters the map supports once fully grown.
func (i *ItemsSketch[C]) GetMaximumMapCapacity() int {
	return int(float64(uint64(1)<<i.lgMaxMapSize) * loadFactor)
}

// GetEstimate returns the count plus the offset if the item is tracked, zero otherwise.
func (i *ItemsSketch[C]) GetEstimate(item C) int64 {
	if v := i.hashMap.get(item); v > 0 {
		return v + i.offset
	}
	return 0
}

// GetLowerBound returns the guaranteed lower bound frequency of item, never negative.
func (i *ItemsSketch[C]) GetLowerBound(item C) int64 {
	return i.hashMap.get(item)
}

// GetUpperBound returns the guaranteed upper bound frequency of item.
func (i *ItemsSketch[C]) GetUpperBound(item C) int64 {
	return i.hashMap.get(item) + i.offset
}

// GetMaximumError returns the largest distance between the bounds of any item.
func (i *ItemsSketch[C]) GetMaximumError() int64 {
	return i.offset
}

func (i *ItemsSketch[C]) GetNumActiveItems() int {
	return i.hashMap.numActive
}

// GetStreamLength returns the sum of the frequencies in the stream seen so far.
func (i *ItemsSketch[C]) GetStreamLength() int64 {
	return i.streamWeight
}

func (i *ItemsSketch[C]) IsEmpty() bool {
	return i.GetNumActiveItems() == 0
}

// GetFrequentItems is GetFrequentItemsWithThreshold at the maximum error.
func (i *ItemsSketch[C]) GetFrequentItems(errorType ErrorType) []*Row[C] {
	return i.sortItems(i.GetMaximumError(), errorType)
}

// GetFrequentItemsWithThreshold returns the tracked items whose upper bound (NoFalseNegatives)
// or lower bound (NoFalsePositives) is at least threshold, ordered by estimate, largest first.
// A threshold below the maximum error is raised to it.
func (i *ItemsSketch[C]) GetFrequentItemsWithThreshold(threshold int64, errorType ErrorType) []*Row[C] {
	return i.sortItems(max(threshold, i.GetMaximumError()), errorType)
}

func (i *ItemsSketch[C]) sortItems(threshold int64, errorType ErrorType) []*Row[C] {
	rows := make([]*Row[C], 0)
	iter := i.hashMap.iterator()
	for iter.next() {
		lb := iter.getValue()
		ub := lb + i.offset
		bound := lb
		if errorType == NoFalseNegatives {
			bound = ub
		}
		if bound >= threshold {
			rows = append(rows, &Row[C]{item: iter.getKey(), est: ub, ub: ub, lb: lb})
		}
	}
	slices.SortStableFunc(rows, func(a, b *Row[C]) int {
		return cmp.Compare(b.est, a.est)
	})
	return rows
}

// Update adds item with a count of one.
func (i *ItemsSketch[C]) Update(item C) error {
	return i.UpdateMany(item, 1)
}

// UpdateMany adds item with a positive count. A zero count is a no-op. Items that do not
// equal themselves, such as NaN, can never be looked up and are ignored.
func (i *ItemsSketch[C]) UpdateMany(item C, count int64) error {
	if count == 0 || item != item {
		return nil
	}
	if count < 0 {
		return fmt.Errorf("count may not be negative: %d", count)
	}
	i.streamWeight += count
	if err := i.hashMap.adjustOrPutValue(item, count); err != nil {
		return err
	}
	if i.GetNumActiveItems() <= i.curMapCap {
		return nil
	}
	if i.hashMap.lgLength < i.lgMaxMapSize {
		if err := i.hashMap.resize(2 * len(i.hashMap.keys)); err != nil {
			return err
		}
		i.curMapCap = i.hashMap.getCapacity()
		return nil
	}
	delta, err := i.hashMap.purge(i.sampleSize)
	if err != nil {
		return err
	}
	i.offset += delta
	if i.GetNumActiveItems() > i.GetMaximumMapCapacity() {
		return errors.New("purge did not reduce the number of active items")
	}
	return nil
}

// Merge folds other into this sketch. The sketches may have different map sizes; the
// result keeps this sketch's size and carries the larger error of the two.
func (i *ItemsSketch[C]) Merge(other *ItemsSketch[C]) error {
	if other == nil || other.IsEmpty() {
		return nil
	}
	streamLen := i.streamWeight + other.streamWeight
	iter := other.hashMap.iterator()
	for iter.next() {
		if err := i.UpdateMany(iter.getKey(), iter.getValue()); err != nil {
			return err
		}
	}
	i.offset += other.offset
	i.streamWeight = streamLen
	return nil
}

// GetSerializedSizeBytes returns the length of the image ToSlice produces.
func (i *ItemsSketch[C]) GetSerializedSizeBytes() int {
	if i.IsEmpty() {
		return 8
	}
	size := (internal.FamilyEnum.Frequency.MaxPreLongs + i.GetNumActiveItems()) << 3
	for _, key := range i.hashMap.getActiveKeys() {
		size += i.serde.SizeOf(key)
	}
	return size
}

// ToSlice serializes the sketch in the layout shared with the JVM implementation.
func (i *ItemsSketch[C]) ToSlice() ([]byte, error) {
	pre := preamble{
		preLongs:     1,
		serVer:       _SER_VER,
		familyID:     internal.FamilyEnum.Frequency.Id,
		lgMaxMapSize: i.lgMaxMapSize,
		lgCurMapSize: i.hashMap.lgLength,
	}
	if i.IsEmpty() {
		pre.flags = _EMPTY_FLAG_MASK
		out := make([]byte, 8)
		writePreamble(out, pre)
		return out, nil
	}

	pre.preLongs = internal.FamilyEnum.Frequency.MaxPreLongs
	pre.activeItems = i.GetNumActiveItems()
	pre.streamWeight = i.streamWeight
	pre.offset = i.offset
	itemBytes := i.serde.SerializeManyToSlice(i.hashMap.getActiveKeys())
	preBytes := pre.preLongs << 3
	out := make([]byte, preBytes+pre.activeItems<<3+len(itemBytes))
	writePreamble(out, pre)
	for j, v := range i.hashMap.getActiveValues() {
		binary.LittleEndian.PutUint64(out[preBytes+j<<3:], uint64(v))
	}
	copy(out[preBytes+pre.activeItems<<3:], itemBytes)
	return out, nil
}

// Reset returns the sketch to the empty state, keeping its maximum map size.
func (i *ItemsSketch[C]) Reset() error {
	hashMap, err := newReversePurgeHashMap[C](1<<_LG_MIN_MAP_SIZE, i.hashMap.hasher)
	if err != nil {
		return err
	}
	i.hashMap = hashMap
	i.curMapCap = hashMap.getCapacity()
	i.offset = 0
	i.streamWeight = 0
	return nil
}

func (i *ItemsSketch[C]) String() string {
	var sb strings.Builder
	sb.WriteString("FrequentItemsSketch:\n")
	sb.WriteString("  Stream Length    : " + strconv.FormatInt(i.streamWeight, 10) + "\n")
	sb.WriteString("  Max Error Offset : " + strconv.FormatInt(i.offset, 10) + "\n")
	sb.WriteString(i.hashMap.String())
	return sb.String()
}
