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

import "github.com/Roblox/data-tools/common"

// NewLongsSketch returns an empty sketch of int64 items.
func NewLongsSketch(maxMapSize int) (*ItemsSketch[int64], error) {
	return NewItemsSketchWithMaxMapSize[int64](maxMapSize, common.ItemSketchLongHasher{}, common.ItemSketchLongSerDe{})
}

func NewLongsSketchFromSlice(slc []byte) (*ItemsSketch[int64], error) {
	return NewItemsSketchFromSlice[int64](slc, common.ItemSketchLongHasher{}, common.ItemSketchLongSerDe{})
}

// NewDoublesSketch returns an empty sketch of float64 items.
func NewDoublesSketch(maxMapSize int) (*ItemsSketch[float64], error) {
	return NewItemsSketchWithMaxMapSize[float64](maxMapSize, common.ItemSketchDoubleHasher{}, common.ItemSketchDoubleSerDe{})
}

func NewDoublesSketchFromSlice(slc []byte) (*ItemsSketch[float64], error) {
	return NewItemsSketchFromSlice[float64](slc, common.ItemSketchDoubleHasher{}, common.ItemSketchDoubleSerDe{})
}

// NewStringsSketch returns an empty sketch of string items.
func NewStringsSketch(maxMapSize int) (*ItemsSketch[string], error) {
	return NewItemsSketchWithMaxMapSize[string](maxMapSize, common.ItemSketchStringHasher{}, common.ItemSketchStringSerDe{})
}

func NewStringsSketchFromSlice(slc []byte) (*ItemsSketch[string], error) {
	return NewItemsSketchFromSlice[string](slc, common.ItemSketchStringHasher{}, common.ItemSketchStringSerDe{})
}
