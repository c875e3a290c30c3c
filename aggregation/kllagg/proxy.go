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


// Package kllagg aggregates numbers into KLL sketches and answers quantile and rank
// queries from them. The doubles family keeps float64 items and the floats family
// float32 items; both share one proxy and one set of entry points.
package kllagg

import (
	"fmt"

	"golang.org/x/exp/constraints"

	"github.com/Roblox/data-tools/aggregation"
	"github.com/Roblox/data-tools/kll"
)

// DefaultK is the k of proxies created without one.
const DefaultK = int(kll.DefaultK)

// Ranks and quantiles are inclusive everywhere.
const inclusive = true

// Proxy owns one KLL sketch. Its parameter is k.
type Proxy[T constraints.Float] struct {
	sketch *kll.Sketch[T]
}

type (
	DoublesProxy = Proxy[float64]
	FloatsProxy  = Proxy[float32]
)

func (p *Proxy[T]) Param() int {
	return int(p.sketch.GetK())
}

// Update adds v. NaN is ignored.
func (p *Proxy[T]) Update(v T) {
	p.sketch.Update(v)
}

// Merge folds other into the receiver. Sketches of different k merge, and the error of
// the result follows the smaller k.
func (p *Proxy[T]) Merge(other *Proxy[T]) (*Proxy[T], error) {
	p.sketch.Merge(other.sketch)
	return p, nil
}

func (p *Proxy[T]) Serialize() ([]byte, error) {
	return p.sketch.ToSlice()
}

func (p *Proxy[T]) EstimatedSizeBytes() int64 {
	return int64(p.sketch.GetSerializedSizeBytes())
}

func (p *Proxy[T]) Quantile(rank float64) (T, error) {
	return p.sketch.GetQuantile(rank, inclusive)
}

func (p *Proxy[T]) QuantileLowerBound(rank float64) (T, error) {
	return p.sketch.GetQuantileLowerBound(rank, inclusive)
}

func (p *Proxy[T]) QuantileUpperBound(rank float64) (T, error) {
	return p.sketch.GetQuantileUpperBound(rank, inclusive)
}

func (p *Proxy[T]) Rank(v T) (float64, error) {
	return p.sketch.GetRank(v, inclusive)
}

// RankLowerBound is the rank of v less the normalized rank error, clamped at 0.
func (p *Proxy[T]) RankLowerBound(v T) (float64, error) {
	rank, err := p.Rank(v)
	if err != nil {
		return 0, err
	}
	return p.sketch.GetRankLowerBound(rank), nil
}

// RankUpperBound is the rank of v plus the normalized rank error, clamped at 1.
func (p *Proxy[T]) RankUpperBound(v T) (float64, error) {
	rank, err := p.Rank(v)
	if err != nil {
		return 0, err
	}
	return p.sketch.GetRankUpperBound(rank), nil
}

type codec[T constraints.Float] struct{}

func (codec[T]) New(k int) (*Proxy[T], error) {
	if k < int(kll.MinK) || k > kll.MaxK {
		return nil, fmt.Errorf("k must be >= %d and <= %d: %d", kll.MinK, kll.MaxK, k)
	}
	sketch, err := kll.NewSketch[T](uint16(k))
	if err != nil {
		return nil, err
	}
	return &Proxy[T]{sketch: sketch}, nil
}

// Decode refuses float64 images for the floats family. Images without the doubles flag
// decode in either family.
func (codec[T]) Decode(bytes []byte) (*Proxy[T], error) {
	sketch, err := kll.NewSketchFromSlice[T](bytes)
	if err != nil {
		return nil, err
	}
	return &Proxy[T]{sketch: sketch}, nil
}

var DoublesFamily = aggregation.Family[*DoublesProxy]{
	Name:         aggregation.FamilyKllDoubles,
	Codec:        codec[float64]{},
	DefaultParam: DefaultK,
	Policy:       aggregation.FailOnMalformed,
}

var FloatsFamily = aggregation.Family[*FloatsProxy]{
	Name:         aggregation.FamilyKllFloats,
	Codec:        codec[float32]{},
	DefaultParam: DefaultK,
	Policy:       aggregation.FailOnMalformed,
}
