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


package itemsagg

import (
	"github.com/Roblox/data-tools/aggregation"
)

// Functions are the scalar frequency functions over serialized frequent items sketches.
type Functions[C comparable] struct {
	agg *aggregation.Aggregator[*Proxy[C]]
}

// DoubleFunctions adds REAL item lookups to the double family.
type DoubleFunctions struct {
	*Functions[float64]
}

func NewLongFunctions(cfg aggregation.FamilyConfig, opts ...aggregation.Option) (*Functions[int64], error) {
	return newFunctions(LongFamily, cfg, opts...)
}

func NewDoubleFunctions(cfg aggregation.FamilyConfig, opts ...aggregation.Option) (*DoubleFunctions, error) {
	f, err := newFunctions(DoubleFamily, cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &DoubleFunctions{Functions: f}, nil
}

func NewStringFunctions(cfg aggregation.FamilyConfig, opts ...aggregation.Option) (*Functions[string], error) {
	return newFunctions(StringFamily, cfg, opts...)
}

func newFunctions[C comparable](family aggregation.Family[*Proxy[C]], cfg aggregation.FamilyConfig, opts ...aggregation.Option) (*Functions[C], error) {
	a, err := aggregation.NewAggregator(family, cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Functions[C]{agg: a}, nil
}

func (f *Functions[C]) Estimate(b []byte, item C) (int64, error) {
	return f.lookup(b, item, (*Proxy[C]).Estimate)
}

func (f *Functions[C]) EstimateArray(b []byte, items []C) ([]int64, error) {
	return f.lookupArray(b, items, (*Proxy[C]).Estimate)
}

func (f *Functions[C]) UpperBound(b []byte, item C) (int64, error) {
	return f.lookup(b, item, (*Proxy[C]).UpperBound)
}

func (f *Functions[C]) UpperBoundArray(b []byte, items []C) ([]int64, error) {
	return f.lookupArray(b, items, (*Proxy[C]).UpperBound)
}

func (f *Functions[C]) LowerBound(b []byte, item C) (int64, error) {
	return f.lookup(b, item, (*Proxy[C]).LowerBound)
}

func (f *Functions[C]) LowerBoundArray(b []byte, items []C) ([]int64, error) {
	return f.lookupArray(b, items, (*Proxy[C]).LowerBound)
}

// FrequentItems returns the frequent items, most frequent first. falsePositives picks
// the error type, see Proxy.FrequentItems.
func (f *Functions[C]) FrequentItems(b []byte, falsePositives bool) ([]C, error) {
	p, err := f.agg.Decode(b)
	if err != nil {
		return nil, err
	}
	return p.FrequentItems(falsePositives), nil
}

func (f *Functions[C]) lookup(b []byte, item C, fn func(*Proxy[C], C) (int64, error)) (int64, error) {
	p, err := f.agg.Decode(b)
	if err != nil {
		return 0, err
	}
	return fn(p, item)
}

func (f *Functions[C]) lookupArray(b []byte, items []C, fn func(*Proxy[C], C) (int64, error)) ([]int64, error) {
	p, err := f.agg.Decode(b)
	if err != nil {
		return nil, err
	}
	return aggregation.MapEach(items, func(item C) (int64, error) {
		return fn(p, item)
	})
}

func (f *DoubleFunctions) EstimateReal(b []byte, v int64) (int64, error) {
	return f.Estimate(b, aggregation.RealToFloat64(v))
}

func (f *DoubleFunctions) EstimateRealArray(b []byte, vs []int64) ([]int64, error) {
	return f.EstimateArray(b, aggregation.RealsToFloat64(vs))
}

func (f *DoubleFunctions) UpperBoundReal(b []byte, v int64) (int64, error) {
	return f.UpperBound(b, aggregation.RealToFloat64(v))
}

func (f *DoubleFunctions) UpperBoundRealArray(b []byte, vs []int64) ([]int64, error) {
	return f.UpperBoundArray(b, aggregation.RealsToFloat64(vs))
}

func (f *DoubleFunctions) LowerBoundReal(b []byte, v int64) (int64, error) {
	return f.LowerBound(b, aggregation.RealToFloat64(v))
}

func (f *DoubleFunctions) LowerBoundRealArray(b []byte, vs []int64) ([]int64, error) {
	return f.LowerBoundArray(b, aggregation.RealsToFloat64(vs))
}
