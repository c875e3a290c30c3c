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

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"

	"github.com/Roblox/data-tools/common"
	"github.com/Roblox/data-tools/internal"
)

// reversePurgeHashMap is a linear probing map from items to counts. A purge subtracts
// an approximate median from every count and drops the entries that are no longer positive.
type reversePurgeHashMap[C comparable] struct {
	lgLength      int
	loadThreshold int
	keys          []C
	values        []int64
	// states holds the probe distance of each entry plus one, zero marks an empty slot
	states    []int16
	numActive int
	hasher    common.ItemSketchHasher[C]
}

type hashMapIterator[C comparable] struct {
	keys      []C
	values    []int64
	states    []int16
	numActive int
	stride    int
	mask      int
	i         int
	count     int
}

const (
	loadFactor = float64(0.75)
	driftLimit = 1024
)

var errDriftLimit = errors.New("drift limit reached")

// newReversePurgeHashMap creates arrays of length mapSize, which must be a power of two.
// The map holds up to loadFactor * mapSize entries.
func newReversePurgeHashMap[C comparable](mapSize int, hasher common.ItemSketchHasher[C]) (*reversePurgeHashMap[C], error) {
	lgLength, err := internal.ExactLog2(mapSize)
	if err != nil {
		return nil, fmt.Errorf("mapSize: %w", err)
	}
	return &reversePurgeHashMap[C]{
		lgLength:      lgLength,
		loadThreshold: int(float64(mapSize) * loadFactor),
		keys:          make([]C, mapSize),
		values:        make([]int64, mapSize),
		states:        make([]int16, mapSize),
		hasher:        hasher,
	}, nil
}

// get returns the count of key, zero if it is not tracked.
func (r *reversePurgeHashMap[C]) get(key C) int64 {
	probe := r.hashProbe(key)
	if r.states[probe] > 0 {
		return r.values[probe]
	}
	return 0
}

func (r *reversePurgeHashMap[C]) getCapacity() int {
	return r.loadThreshold
}

// adjustOrPutValue increments the count of key, inserting it with adjustAmount if absent.
func (r *reversePurgeHashMap[C]) adjustOrPutValue(key C, adjustAmount int64) error {
	arrayMask := len(r.keys) - 1
	probe := int(r.hasher.Hash(key)) & arrayMask
	drift := 1
	for r.states[probe] != 0 && r.keys[probe] != key {
		probe = (probe + 1) & arrayMask
		drift++
		if drift >= driftLimit {
			return errDriftLimit
		}
	}
	if r.states[probe] == 0 {
		if r.numActive > r.loadThreshold {
			return fmt.Errorf("map is over its load threshold: %d", r.numActive)
		}
		r.keys[probe] = key
		r.values[probe] = adjustAmount
		r.states[probe] = int16(drift)
		r.numActive++
		return nil
	}
	r.values[probe] += adjustAmount
	return nil
}

func (r *reversePurgeHashMap[C]) resize(newSize int) error {
	oldKeys, oldValues, oldStates := r.keys, r.values, r.states
	r.keys = make([]C, newSize)
	r.values = make([]int64, newSize)
	r.states = make([]int16, newSize)
	r.loadThreshold = int(float64(newSize) * loadFactor)
	r.lgLength = bits.TrailingZeros(uint(newSize))
	r.numActive = 0
	for i := range oldKeys {
		if oldStates[i] > 0 {
			if err := r.adjustOrPutValue(oldKeys[i], oldValues[i]); err != nil {
				return err
			}
		}
	}
	return nil
}

// purge subtracts the median of up to sampleSize counts from every count and returns it.
func (r *reversePurgeHashMap[C]) purge(sampleSize int) (int64, error) {
	limit := min(sampleSize, r.numActive)
	samples := make([]int64, 0, limit)
	for i := 0; len(samples) < limit; i++ {
		if r.states[i] > 0 {
			samples = append(samples, r.values[i])
		}
	}
	val := internal.QuickSelect(samples, 0, limit-1, limit/2)
	r.adjustAllValuesBy(-val)
	if err := r.keepOnlyPositiveCounts(); err != nil {
		return 0, err
	}
	return val, nil
}

func (r *reversePurgeHashMap[C]) adjustAllValuesBy(adjustAmount int64) {
	for i := range r.values {
		r.values[i] += adjustAmount
	}
}

func (r *reversePurgeHashMap[C]) keepOnlyPositiveCounts() error {
	// an empty slot at the back marks the boundary between clusters
	firstProbe := len(r.keys) - 1
	for r.states[firstProbe] > 0 {
		firstProbe--
	}
	// work towards the front, then wrap around to the cluster that was skipped
	for probe := firstProbe - 1; probe >= 0; probe-- {
		if err := r.deleteIfNotPositive(probe); err != nil {
			return err
		}
	}
	for probe := len(r.keys) - 1; probe > firstProbe; probe-- {
		if err := r.deleteIfNotPositive(probe); err != nil {
			return err
		}
	}
	return nil
}

func (r *reversePurgeHashMap[C]) deleteIfNotPositive(probe int) error {
	if r.states[probe] > 0 && r.values[probe] <= 0 {
		r.numActive--
		return r.hashDelete(probe)
	}
	return nil
}

// hashDelete empties deleteProbe and moves later entries of the cluster into the hole.
func (r *reversePurgeHashMap[C]) hashDelete(deleteProbe int) error {
	var zero C
	r.states[deleteProbe] = 0
	r.keys[deleteProbe] = zero
	drift := 1
	arrayMask := len(r.keys) - 1
	probe := (deleteProbe + drift) & arrayMask
	for r.states[probe] != 0 {
		if r.states[probe] > int16(drift) {
			r.keys[deleteProbe] = r.keys[probe]
			r.values[deleteProbe] = r.values[probe]
			r.states[deleteProbe] = r.states[probe] - int16(drift)
			r.states[probe] = 0
			r.keys[probe] = zero
			drift = 0
			deleteProbe = probe
		}
		probe = (probe + 1) & arrayMask
		drift++
		if drift >= driftLimit {
			return errDriftLimit
		}
	}
	return nil
}

func (r *reversePurgeHashMap[C]) getActiveValues() []int64 {
	values := make([]int64, 0, r.numActive)
	for i, state := range r.states {
		if state > 0 {
			values = append(values, r.values[i])
		}
	}
	return values
}

func (r *reversePurgeHashMap[C]) getActiveKeys() []C {
	keys := make([]C, 0, r.numActive)
	for i, state := range r.states {
		if state > 0 {
			keys = append(keys, r.keys[i])
		}
	}
	return keys
}

func (r *reversePurgeHashMap[C]) iterator() *hashMapIterator[C] {
	stride := int(uint64(float64(len(r.keys))*internal.InverseGolden) | 1)
	return &hashMapIterator[C]{
		keys:      r.keys,
		values:    r.values,
		states:    r.states,
		numActive: r.numActive,
		stride:    stride,
		mask:      len(r.keys) - 1,
		i:         -stride,
	}
}

func (r *reversePurgeHashMap[C]) hashProbe(key C) int {
	arrayMask := len(r.keys) - 1
	probe := int(r.hasher.Hash(key)) & arrayMask
	for r.states[probe] > 0 && r.keys[probe] != key {
		probe = (probe + 1) & arrayMask
	}
	return probe
}

func (r *reversePurgeHashMap[C]) String() string {
	var sb strings.Builder
	sb.WriteString("ReversePurgeHashMap:\n")
	fmt.Fprintf(&sb, "  %12s:%11s%20s %s\n", "Index", "States", "Values", "Keys")
	for i, state := range r.states {
		if state <= 0 {
			continue
		}
		fmt.Fprintf(&sb, "  %12d:%11d%20d %v\n", i, state, r.values[i], r.keys[i])
	}
	return sb.String()
}

// next visits the slots with a golden ratio stride so early exits see a spread of entries.
func (it *hashMapIterator[C]) next() bool {
	it.i = (it.i + it.stride) & it.mask
	for it.count < it.numActive {
		if it.states[it.i] > 0 {
			it.count++
			return true
		}
		it.i = (it.i + it.stride) & it.mask
	}
	return false
}

func (it *hashMapIterator[C]) getKey() C {
	return it.keys[it.i]
}

func (it *hashMapIterator[C]) getValue() int64 {
	return it.values[it.i]
}
