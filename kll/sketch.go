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

// Package kll is an implementation of a very compact quantiles sketch with lazy compaction scheme
// and nearly optimal accuracy per retained quantile.
//
// Reference: https://arxiv.org/abs/1603.05346v2" Optimal Quantile Approximation in Streams
//
// The default k of 200 yields a "single-sided" epsilon of about 1.33% and a
// "double-sided" (PMF) epsilon of about 1.65%, with a confidence of 99%.
//
// See "https://datasketches.apache.org/docs/KLL/KLLSketch.html" KLL Sketch
package kll

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"slices"

	"golang.org/x/exp/constraints"
)

const (
	DefaultK = uint16(200)
	defaultM = uint8(8)
	MinK     = uint16(defaultM)
	MaxK     = (1 << 16) - 1
)

var errEmpty = errors.New("operation is undefined for an empty sketch")

var powersOfThree = []uint64{1, 3, 9, 27, 81, 243, 729, 2187, 6561, 19683, 59049, 177147, 531441,
	1594323, 4782969, 14348907, 43046721, 129140163, 387420489, 1162261467,
	3486784401, 10460353203, 31381059609, 94143178827, 282429536481,
	847288609443, 2541865828329, 7625597484987, 22876792454961, 68630377364883,
	205891132094649}

// Sketch is a KLL quantiles sketch of float32 or float64 items.
type Sketch[T constraints.Float] struct {
	// k is the config that controls the accuracy of the sketch and its memory space usage
	k uint16
	// m is the minimum level width
	m    uint8
	minK uint16
	n    uint64
	// levels has one more entry than there are levels; items of level i sit in
	// items[levels[i]:levels[i+1]] and level 0 grows downwards.
	levels            []uint32
	items             []T
	minItem           T
	maxItem           T
	isLevelZeroSorted bool
	sortedView        *SortedView[T]
}

// NewSketch returns an empty sketch. Larger k has smaller error but the sketch is larger and slower.
func NewSketch[T constraints.Float](k uint16) (*Sketch[T], error) {
	if err := checkK(k); err != nil {
		return nil, err
	}
	s := &Sketch[T]{k: k, m: defaultM}
	s.Reset()
	return s, nil
}

func NewSketchWithDefault[T constraints.Float]() (*Sketch[T], error) {
	return NewSketch[T](DefaultK)
}

func checkK(k uint16) error {
	if k < MinK {
		return fmt.Errorf("k must be >= %d and <= %d: %d", MinK, MaxK, k)
	}
	return nil
}

// Reset returns the sketch to the empty state, keeping k.
func (s *Sketch[T]) Reset() {
	s.n = 0
	s.minK = s.k
	s.isLevelZeroSorted = false
	s.levels = []uint32{uint32(s.k), uint32(s.k)}
	s.items = make([]T, s.k)
	s.minItem = 0
	s.maxItem = 0
	s.sortedView = nil
}

func (s *Sketch[T]) IsEmpty() bool {
	return s.n == 0
}

// GetN returns the length of the input stream offered to the sketch.
func (s *Sketch[T]) GetN() uint64 {
	return s.n
}

func (s *Sketch[T]) GetK() uint16 {
	return s.k
}

// GetMinK returns the smallest k of any sketch merged into this one, which drives the error.
func (s *Sketch[T]) GetMinK() uint16 {
	return s.minK
}

// GetNumRetained returns the number of quantiles retained by the sketch.
func (s *Sketch[T]) GetNumRetained() uint32 {
	return s.levels[s.numLevels()] - s.levels[0]
}

func (s *Sketch[T]) IsEstimationMode() bool {
	return s.numLevels() > 1
}

// GetMinItem returns the minimum item of the stream, which may not be retained by the sketch.
func (s *Sketch[T]) GetMinItem() (T, error) {
	if s.IsEmpty() {
		return 0, errEmpty
	}
	return s.minItem, nil
}

// GetMaxItem returns the maximum item of the stream, which may not be retained by the sketch.
func (s *Sketch[T]) GetMaxItem() (T, error) {
	if s.IsEmpty() {
		return 0, errEmpty
	}
	return s.maxItem, nil
}

// Update adds an item to the sketch. NaN is ignored.
func (s *Sketch[T]) Update(item T) {
	if math.IsNaN(float64(item)) {
		return
	}
	s.updateItem(item)
	s.sortedView = nil
}

// Merge folds other into this sketch. Sketches of different k merge; the error of
// the result follows the smaller k.
func (s *Sketch[T]) Merge(other *Sketch[T]) {
	if other == nil || other.IsEmpty() {
		return
	}
	s.mergeSketch(other)
	s.sortedView = nil
}

// GetRank returns the normalized rank of item. If inclusive the item itself counts.
func (s *Sketch[T]) GetRank(item T, inclusive bool) (float64, error) {
	sv, err := s.GetSortedView()
	if err != nil {
		return 0, err
	}
	return sv.GetRank(item, inclusive), nil
}

func (s *Sketch[T]) GetRanks(items []T, inclusive bool) ([]float64, error) {
	sv, err := s.GetSortedView()
	if err != nil {
		return nil, err
	}
	ranks := make([]float64, len(items))
	for i, item := range items {
		ranks[i] = sv.GetRank(item, inclusive)
	}
	return ranks, nil
}

// GetQuantile returns the approximate quantile at the given normalized rank.
// If inclusive the rank includes all quantiles <= the returned one.
func (s *Sketch[T]) GetQuantile(rank float64, inclusive bool) (T, error) {
	sv, err := s.GetSortedView()
	if err != nil {
		return 0, err
	}
	return sv.GetQuantile(rank, inclusive)
}

func (s *Sketch[T]) GetQuantiles(ranks []float64, inclusive bool) ([]T, error) {
	sv, err := s.GetSortedView()
	if err != nil {
		return nil, err
	}
	quantiles := make([]T, len(ranks))
	for i, rank := range ranks {
		if quantiles[i], err = sv.GetQuantile(rank, inclusive); err != nil {
			return nil, err
		}
	}
	return quantiles, nil
}

// GetQuantileLowerBound returns the quantile at rank minus the normalized rank error, with
// a confidence of about 99%.
func (s *Sketch[T]) GetQuantileLowerBound(rank float64, inclusive bool) (T, error) {
	if err := checkNormalizedRankBounds(rank); err != nil {
		return 0, err
	}
	return s.GetQuantile(max(0, rank-s.GetNormalizedRankError(false)), inclusive)
}

// GetQuantileUpperBound returns the quantile at rank plus the normalized rank error.
func (s *Sketch[T]) GetQuantileUpperBound(rank float64, inclusive bool) (T, error) {
	if err := checkNormalizedRankBounds(rank); err != nil {
		return 0, err
	}
	return s.GetQuantile(min(1, rank+s.GetNormalizedRankError(false)), inclusive)
}

func (s *Sketch[T]) GetRankLowerBound(rank float64) float64 {
	return max(0, rank-s.GetNormalizedRankError(false))
}

func (s *Sketch[T]) GetRankUpperBound(rank float64) float64 {
	return min(1, rank+s.GetNormalizedRankError(false))
}

// GetPMF returns the probability masses of the m+1 intervals split by the given
// unique, increasing split points.
func (s *Sketch[T]) GetPMF(splitPoints []T, inclusive bool) ([]float64, error) {
	buckets, err := s.GetCDF(splitPoints, inclusive)
	if err != nil {
		return nil, err
	}
	for i := len(buckets) - 1; i > 0; i-- {
		buckets[i] -= buckets[i-1]
	}
	return buckets, nil
}

// GetCDF returns the cumulative ranks at the given split points followed by 1.0.
func (s *Sketch[T]) GetCDF(splitPoints []T, inclusive bool) ([]float64, error) {
	if err := checkSplitPoints(splitPoints); err != nil {
		return nil, err
	}
	sv, err := s.GetSortedView()
	if err != nil {
		return nil, err
	}
	buckets := make([]float64, len(splitPoints)+1)
	for i, sp := range splitPoints {
		buckets[i] = sv.GetRank(sp, inclusive)
	}
	buckets[len(splitPoints)] = 1.0
	return buckets, nil
}

// GetNormalizedRankError returns the rank error normalized as a fraction between zero and
// one, the "double-sided" PMF error if pmf is true.
func (s *Sketch[T]) GetNormalizedRankError(pmf bool) float64 {
	return getNormalizedRankError(s.minK, pmf)
}

// GetSortedView returns the cached sorted view, building it on first use after an update.
func (s *Sketch[T]) GetSortedView() (*SortedView[T], error) {
	if s.IsEmpty() {
		return nil, errEmpty
	}
	if s.sortedView == nil {
		s.sortedView = newSortedView(s)
	}
	return s.sortedView, nil
}

// GetIterator returns an iterator over the retained items and their weights, unsorted.
func (s *Sketch[T]) GetIterator() *Iterator[T] {
	return newIterator(s.items, s.levels)
}

func (s *Sketch[T]) numLevels() int {
	return len(s.levels) - 1
}

func (s *Sketch[T]) updateItem(item T) {
	if s.IsEmpty() {
		s.minItem = item
		s.maxItem = item
	} else {
		s.minItem = min(s.minItem, item)
		s.maxItem = max(s.maxItem, item)
	}
	if s.levels[0] == 0 {
		s.compressWhileUpdatingSketch()
	}
	s.n++
	s.isLevelZeroSorted = false
	s.levels[0]--
	s.items[s.levels[0]] = item
}

func (s *Sketch[T]) mergeSketch(other *Sketch[T]) {
	myEmpty := s.IsEmpty()
	myMin, myMax := s.minItem, s.maxItem
	finalN := s.n + other.n

	// level zero of the other sketch goes through the regular update path
	for i := other.levels[0]; i < other.levels[1]; i++ {
		s.updateItem(other.items[i])
	}

	if other.numLevels() > 1 {
		myNumLevels := s.numLevels()
		myLevels := s.levels
		myItems := s.items

		tmpSpaceNeeded := s.GetNumRetained() + (other.levels[other.numLevels()] - other.levels[1])
		workbuf := make([]T, tmpSpaceNeeded)
		ub := ubOnNumLevels(finalN)
		worklevels := make([]uint32, ub+2)
		outlevels := make([]uint32, ub+2)

		provisionalNumLevels := max(myNumLevels, other.numLevels())
		populateWorkArrays(workbuf, worklevels, provisionalNumLevels, myLevels, myItems, other.levels, other.items)

		// workbuf is both the input and the output
		newNumLevels, targetItemCount, curItemCount := generalCompress(s.k, s.m, provisionalNumLevels,
			workbuf, worklevels, workbuf, outlevels, s.isLevelZeroSorted)

		newItems := make([]T, targetItemCount)
		freeSpaceAtBottom := targetItemCount - curItemCount
		copy(newItems[freeSpaceAtBottom:], workbuf[outlevels[0]:outlevels[0]+curItemCount])
		theShift := freeSpaceAtBottom - outlevels[0]

		newLevels := make([]uint32, newNumLevels+1)
		for lvl := range newLevels {
			newLevels[lvl] = outlevels[lvl] + theShift
		}
		s.levels = newLevels
		s.items = newItems
	}

	s.n = finalN
	if other.IsEstimationMode() {
		s.minK = min(s.minK, other.minK)
	}
	if myEmpty {
		s.minItem, s.maxItem = other.minItem, other.maxItem
	} else {
		s.minItem = min(myMin, other.minItem)
		s.maxItem = max(myMax, other.maxItem)
	}
}

func (s *Sketch[T]) compressWhileUpdatingSketch() {
	level := findLevelToCompact(s.k, s.m, s.levels)
	if level == s.numLevels()-1 {
		// compacting the top level needs a new empty level above it
		s.addEmptyTopLevelToCompletelyFullSketch()
	}
	rawBeg := s.levels[level]
	rawEnd := s.levels[level+1]
	popAbove := s.levels[level+2] - rawEnd
	rawPop := rawEnd - rawBeg
	oddPop := rawPop%2 == 1
	adjBeg := rawBeg
	adjPop := rawPop
	if oddPop {
		adjBeg++
		adjPop--
	}
	halfAdjPop := adjPop / 2

	items := s.items
	if level == 0 {
		// level zero might not be sorted
		slices.Sort(items[adjBeg : adjBeg+adjPop])
	}
	if popAbove == 0 {
		randomlyHalveUp(items, adjBeg, adjPop)
	} else {
		randomlyHalveDown(items, adjBeg, adjPop)
		mergeSortedArrays(items, adjBeg, halfAdjPop, items, rawEnd, popAbove, items, adjBeg+halfAdjPop)
	}
	s.levels[level+1] -= halfAdjPop

	if oddPop {
		// the leftover item stays alone on this level
		s.levels[level] = s.levels[level+1] - 1
		items[s.levels[level]] = items[rawBeg]
	} else {
		s.levels[level] = s.levels[level+1]
	}

	if level > 0 {
		// shift the lower levels up, starting from the top to not overwrite
		amount := rawBeg - s.levels[0]
		for i := amount; i > 0; i-- {
			items[s.levels[0]+halfAdjPop+i-1] = items[s.levels[0]+i-1]
		}
		for lvl := 0; lvl < level; lvl++ {
			s.levels[lvl] += halfAdjPop
		}
	}
}

func (s *Sketch[T]) addEmptyTopLevelToCompletelyFullSketch() {
	curNumLevels := s.numLevels()
	curTotalCap := s.levels[curNumLevels]
	deltaCap := levelCapacity(s.k, curNumLevels+1, 0, s.m)
	newTotalCap := curTotalCap + deltaCap

	newLevels := make([]uint32, curNumLevels+2)
	for lvl := 0; lvl <= curNumLevels; lvl++ {
		newLevels[lvl] = s.levels[lvl] + deltaCap
	}
	newLevels[curNumLevels+1] = newTotalCap

	newItems := make([]T, newTotalCap)
	copy(newItems[deltaCap:], s.items[:curTotalCap])
	s.levels = newLevels
	s.items = newItems
}

func findLevelToCompact(k uint16, m uint8, levels []uint32) int {
	numLevels := len(levels) - 1
	for level := 0; ; level++ {
		pop := levels[level+1] - levels[level]
		if pop >= levelCapacity(k, numLevels, level, m) {
			return level
		}
	}
}

func computeTotalItemCapacity(k uint16, m uint8, numLevels int) uint32 {
	var total uint32
	for level := 0; level < numLevels; level++ {
		total += levelCapacity(k, numLevels, level, m)
	}
	return total
}

func levelCapacity(k uint16, numLevels int, level int, m uint8) uint32 {
	depth := uint8(numLevels - level - 1)
	return max(uint32(m), intCapAux(k, depth))
}

func intCapAux(k uint16, depth uint8) uint32 {
	if depth <= 30 {
		return intCapAuxAux(k, depth)
	}
	half := depth / 2
	rest := depth - half
	tmp := intCapAuxAux(k, half)
	return intCapAuxAux(uint16(tmp), rest)
}

func intCapAuxAux(k uint16, depth uint8) uint32 {
	twok := uint64(k) << 1                        // pre-multiply by 2 for rounding
	tmp := (twok << depth) / powersOfThree[depth] // 2k * (2/3)^depth
	result := (tmp + 1) >> 1
	if result <= uint64(k) {
		return uint32(result)
	}
	return uint32(k)
}

func randomlyHalveUp[T constraints.Float](buf []T, start uint32, length uint32) {
	halfLength := length / 2
	offset := uint32(rand.Intn(2))
	j := (start + length) - 1 - offset
	for i := (start + length) - 1; i >= (start + halfLength); i-- {
		buf[i] = buf[j]
		j -= 2
	}
}

func randomlyHalveDown[T constraints.Float](buf []T, start uint32, length uint32) {
	halfLength := length / 2
	offset := uint32(rand.Intn(2))
	j := start + offset
	for i := start; i < (start + halfLength); i++ {
		buf[i] = buf[j]
		j += 2
	}
}

func mergeSortedArrays[T constraints.Float](bufA []T, startA uint32, lenA uint32,
	bufB []T, startB uint32, lenB uint32,
	bufC []T, startC uint32) {
	limA := startA + lenA
	limB := startB + lenB
	limC := startC + lenA + lenB

	a := startA
	b := startB
	for c := startC; c < limC; c++ {
		switch {
		case a == limA:
			bufC[c] = bufB[b]
			b++
		case b == limB:
			bufC[c] = bufA[a]
			a++
		case bufA[a] < bufB[b]:
			bufC[c] = bufA[a]
			a++
		default:
			bufC[c] = bufB[b]
			b++
		}
	}
}

func populateWorkArrays[T constraints.Float](workbuf []T, worklevels []uint32, provisionalNumLevels int,
	myLevels []uint32, myItems []T, otherLevels []uint32, otherItems []T) {
	worklevels[0] = 0
	// level zero of the other sketch was already inserted into ours
	selfPopZero := currentLevelSize(0, myLevels)
	copy(workbuf[:selfPopZero], myItems[myLevels[0]:myLevels[1]])
	worklevels[1] = selfPopZero

	for lvl := 1; lvl < provisionalNumLevels; lvl++ {
		selfPop := currentLevelSize(lvl, myLevels)
		otherPop := currentLevelSize(lvl, otherLevels)
		worklevels[lvl+1] = worklevels[lvl] + selfPop + otherPop

		switch {
		case selfPop > 0 && otherPop == 0:
			copy(workbuf[worklevels[lvl]:], myItems[myLevels[lvl]:myLevels[lvl]+selfPop])
		case selfPop == 0 && otherPop > 0:
			copy(workbuf[worklevels[lvl]:], otherItems[otherLevels[lvl]:otherLevels[lvl]+otherPop])
		case selfPop > 0 && otherPop > 0:
			mergeSortedArrays(myItems, myLevels[lvl], selfPop, otherItems, otherLevels[lvl], otherPop,
				workbuf, worklevels[lvl])
		}
	}
}

// generalCompress compacts levels of inBuf until the sketch fits its capacity and
// returns the number of levels, the capacity and the number of items kept.
func generalCompress[T constraints.Float](k uint16, m uint8, numLevelsIn int,
	inBuf []T, inLevels []uint32, outBuf []T, outLevels []uint32, isLevelZeroSorted bool) (int, uint32, uint32) {
	numLevels := numLevelsIn
	currentItemCount := inLevels[numLevels] - inLevels[0]
	targetItemCount := computeTotalItemCapacity(k, m, numLevels)
	outLevels[0] = 0
	for curLevel := 0; curLevel < numLevels; curLevel++ {
		// an empty level above the top one, numLevels only grows if it gets used
		if curLevel == numLevels-1 {
			inLevels[curLevel+2] = inLevels[curLevel+1]
		}

		rawBeg := inLevels[curLevel]
		rawLim := inLevels[curLevel+1]
		rawPop := rawLim - rawBeg

		if currentItemCount < targetItemCount || rawPop < levelCapacity(k, numLevels, curLevel, m) {
			copy(outBuf[outLevels[curLevel]:], inBuf[rawBeg:rawLim])
			outLevels[curLevel+1] = outLevels[curLevel] + rawPop
			continue
		}

		// too full, and this level is too full
		popAbove := inLevels[curLevel+2] - rawLim
		oddPop := rawPop%2 == 1
		adjBeg := rawBeg
		adjPop := rawPop
		if oddPop {
			adjBeg++
			adjPop--
		}
		halfAdjPop := adjPop / 2

		if oddPop {
			outBuf[outLevels[curLevel]] = inBuf[rawBeg]
			outLevels[curLevel+1] = outLevels[curLevel] + 1
		} else {
			outLevels[curLevel+1] = outLevels[curLevel]
		}

		if curLevel == 0 && !isLevelZeroSorted {
			slices.Sort(inBuf[adjBeg : adjBeg+adjPop])
		}
		if popAbove == 0 {
			randomlyHalveUp(inBuf, adjBeg, adjPop)
		} else {
			randomlyHalveDown(inBuf, adjBeg, adjPop)
			mergeSortedArrays(inBuf, adjBeg, halfAdjPop, inBuf, rawLim, popAbove, inBuf, adjBeg+halfAdjPop)
		}

		currentItemCount -= halfAdjPop
		inLevels[curLevel+1] -= halfAdjPop

		// compacting the old top level adds a level, and with it capacity
		if curLevel == numLevels-1 {
			numLevels++
			targetItemCount += levelCapacity(k, numLevels, 0, m)
		}
	}
	return numLevels, targetItemCount, currentItemCount
}
