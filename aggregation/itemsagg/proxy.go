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


// Package itemsagg aggregates items into frequent items sketches and answers frequency
// queries from them. There are three families: long, double and string items.
package itemsagg

import (
	"github.com/Roblox/data-tools/aggregation"
	"github.com/Roblox/data-tools/frequencies"
)

// DefaultMapSize is the maximum map size of proxies created without one.
const DefaultMapSize = 64

// Proxy owns one frequent items sketch. Its parameter is the maximum map size.
type Proxy[C comparable] struct {
	sketch *frequencies.ItemsSketch[C]
}

func (p *Proxy[C]) Param() int {
	return p.sketch.GetMaxMapSize()
}

func (p *Proxy[C]) Update(item C) error {
	return p.sketch.Update(item)
}

// Merge folds other into the receiver, which keeps its map size.
func (p *Proxy[C]) Merge(other *Proxy[C]) (*Proxy[C], error) {
	if err := p.sketch.Merge(other.sketch); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Proxy[C]) Serialize() ([]byte, error) {
	return p.sketch.ToSlice()
}

func (p *Proxy[C]) EstimatedSizeBytes() int64 {
	return int64(p.sketch.GetSerializedSizeBytes())
}

// Estimate is the tracked count plus the offset, or 0 for an untracked item.
func (p *Proxy[C]) Estimate(item C) (int64, error) {
	return p.sketch.GetEstimate(item), nil
}

func (p *Proxy[C]) UpperBound(item C) (int64, error) {
	return p.sketch.GetUpperBound(item), nil
}

func (p *Proxy[C]) LowerBound(item C) (int64, error) {
	return p.sketch.GetLowerBound(item), nil
}

// FrequentItems returns the items by decreasing estimate. With falsePositives every
// item that may be frequent is returned, otherwise only the items that surely are.
func (p *Proxy[C]) FrequentItems(falsePositives bool) []C {
	errorType := frequencies.NoFalsePositives
	if falsePositives {
		errorType = frequencies.NoFalseNegatives
	}
	rows := p.sketch.GetFrequentItems(errorType)
	items := make([]C, len(rows))
	for i, row := range rows {
		items[i] = row.GetItem()
	}
	return items
}

type codec[C comparable] struct {
	newSketch func(maxMapSize int) (*frequencies.ItemsSketch[C], error)
	fromSlice func(slc []byte) (*frequencies.ItemsSketch[C], error)
}

func (c codec[C]) New(mapSize int) (*Proxy[C], error) {
	sketch, err := c.newSketch(mapSize)
	if err != nil {
		return nil, err
	}
	return &Proxy[C]{sketch: sketch}, nil
}

func (c codec[C]) Decode(bytes []byte) (*Proxy[C], error) {
	sketch, err := c.fromSlice(bytes)
	if err != nil {
		return nil, err
	}
	return &Proxy[C]{sketch: sketch}, nil
}

func family[C comparable](name string, c codec[C]) aggregation.Family[*Proxy[C]] {
	return aggregation.Family[*Proxy[C]]{
		Name:         name,
		Codec:        c,
		DefaultParam: DefaultMapSize,
		Policy:       aggregation.FailOnMalformed,
	}
}

var (
	LongFamily = family(aggregation.FamilyItemsLong, codec[int64]{
		newSketch: frequencies.NewLongsSketch,
		fromSlice: frequencies.NewLongsSketchFromSlice,
	})
	DoubleFamily = family(aggregation.FamilyItemsDouble, codec[float64]{
		newSketch: frequencies.NewDoublesSketch,
		fromSlice: frequencies.NewDoublesSketchFromSlice,
	})
	StringFamily = family(aggregation.FamilyItemsString, codec[string]{
		newSketch: frequencies.NewStringsSketch,
		fromSlice: frequencies.NewStringsSketchFromSlice,
	})
)
