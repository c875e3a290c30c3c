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


package kllagg

import (
	"golang.org/x/exp/constraints"

	"github.com/Roblox/data-tools/aggregation"
)

// Functions are the scalar quantile and rank functions over serialized KLL sketches.
// Values are DOUBLE, or REAL bit patterns for the Real variants, and are converted to
// the item type. Every array variant decodes the sketch once.
type Functions[T constraints.Float] struct {
	agg *aggregation.Aggregator[*Proxy[T]]
}

func NewDoublesFunctions(cfg aggregation.FamilyConfig, opts ...aggregation.Option) (*Functions[float64], error) {
	return newFunctions(DoublesFamily, cfg, opts...)
}

func NewFloatsFunctions(cfg aggregation.FamilyConfig, opts ...aggregation.Option) (*Functions[float32], error) {
	return newFunctions(FloatsFamily, cfg, opts...)
}

func newFunctions[T constraints.Float](family aggregation.Family[*Proxy[T]], cfg aggregation.FamilyConfig, opts ...aggregation.Option) (*Functions[T], error) {
	a, err := aggregation.NewAggregator(family, cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Functions[T]{agg: a}, nil
}

func (f *Functions[T]) Quantile(b []byte, rank float64) (T, error) {
	p, err := f.agg.Decode(b)
	if err != nil {
		return 0, err
	}
	return p.Quantile(rank)
}

func (f *Functions[T]) QuantileArray(b []byte, ranks []float64) ([]T, error) {
	p, err := f.agg.Decode(b)
	if err != nil {
		return nil, err
	}
	return aggregation.MapEach(ranks, p.Quantile)
}

func (f *Functions[T]) QuantileLowerBound(b []byte, rank float64) (T, error) {
	p, err := f.agg.Decode(b)
	if err != nil {
		return 0, err
	}
	return p.QuantileLowerBound(rank)
}

func (f *Functions[T]) QuantileLowerBoundArray(b []byte, ranks []float64) ([]T, error) {
	p, err := f.agg.Decode(b)
	if err != nil {
		return nil, err
	}
	return aggregation.MapEach(ranks, p.QuantileLowerBound)
}

func (f *Functions[T]) QuantileUpperBound(b []byte, rank float64) (T, error) {
	p, err := f.agg.Decode(b)
	if err != nil {
		return 0, err
	}
	return p.QuantileUpperBound(rank)
}

func (f *Functions[T]) QuantileUpperBoundArray(b []byte, ranks []float64) ([]T, error) {
	p, err := f.agg.Decode(b)
	if err != nil {
		return nil, err
	}
	return aggregation.MapEach(ranks, p.QuantileUpperBound)
}

func (f *Functions[T]) Rank(b []byte, v float64) (float64, error) {
	return f.rank(b, v, (*Proxy[T]).Rank)
}

func (f *Functions[T]) RankArray(b []byte, vs []float64) ([]float64, error) {
	return f.rankArray(b, vs, (*Proxy[T]).Rank)
}

func (f *Functions[T]) RankLowerBound(b []byte, v float64) (float64, error) {
	return f.rank(b, v, (*Proxy[T]).RankLowerBound)
}

func (f *Functions[T]) RankLowerBoundArray(b []byte, vs []float64) ([]float64, error) {
	return f.rankArray(b, vs, (*Proxy[T]).RankLowerBound)
}

func (f *Functions[T]) RankUpperBound(b []byte, v float64) (float64, error) {
	return f.rank(b, v, (*Proxy[T]).RankUpperBound)
}

func (f *Functions[T]) RankUpperBoundArray(b []byte, vs []float64) ([]float64, error) {
	return f.rankArray(b, vs, (*Proxy[T]).RankUpperBound)
}

func (f *Functions[T]) rank(b []byte, v float64, fn func(*Proxy[T], T) (float64, error)) (float64, error) {
	p, err := f.agg.Decode(b)
	if err != nil {
		return 0, err
	}
	return fn(p, T(v))
}

func (f *Functions[T]) rankArray(b []byte, vs []float64, fn func(*Proxy[T], T) (float64, error)) ([]float64, error) {
	p, err := f.agg.Decode(b)
	if err != nil {
		return nil, err
	}
	return aggregation.MapEach(vs, func(v float64) (float64, error) {
		return fn(p, T(v))
	})
}

func (f *Functions[T]) RankReal(b []byte, v int64) (float64, error) {
	return f.Rank(b, aggregation.RealToFloat64(v))
}

func (f *Functions[T]) RankRealArray(b []byte, vs []int64) ([]float64, error) {
	return f.RankArray(b, aggregation.RealsToFloat64(vs))
}

func (f *Functions[T]) RankLowerBoundReal(b []byte, v int64) (float64, error) {
	return f.RankLowerBound(b, aggregation.RealToFloat64(v))
}

func (f *Functions[T]) RankLowerBoundRealArray(b []byte, vs []int64) ([]float64, error) {
	return f.RankLowerBoundArray(b, aggregation.RealsToFloat64(vs))
}

func (f *Functions[T]) RankUpperBoundReal(b []byte, v int64) (float64, error) {
	return f.RankUpperBound(b, aggregation.RealToFloat64(v))
}

func (f *Functions[T]) RankUpperBoundRealArray(b []byte, vs []int64) ([]float64, error) {
	return f.RankUpperBoundArray(b, aggregation.RealsToFloat64(vs))
}
