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

type State[C comparable] = aggregation.State[*Proxy[C]]

// Aggregator is the frequent items aggregate of one item type. InputWithParam takes
// the map size of a state created by the call.
type Aggregator[C comparable] struct {
	*aggregation.Aggregator[*Proxy[C]]
}

// DoubleAggregator also takes REAL items.
type DoubleAggregator struct {
	*Aggregator[float64]
}

func NewLongAggregator(cfg aggregation.FamilyConfig, opts ...aggregation.Option) (*Aggregator[int64], error) {
	return newAggregator(LongFamily, cfg, opts...)
}

func NewDoubleAggregator(cfg aggregation.FamilyConfig, opts ...aggregation.Option) (*DoubleAggregator, error) {
	a, err := newAggregator(DoubleFamily, cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &DoubleAggregator{Aggregator: a}, nil
}

func NewStringAggregator(cfg aggregation.FamilyConfig, opts ...aggregation.Option) (*Aggregator[string], error) {
	return newAggregator(StringFamily, cfg, opts...)
}

func newAggregator[C comparable](family aggregation.Family[*Proxy[C]], cfg aggregation.FamilyConfig, opts ...aggregation.Option) (*Aggregator[C], error) {
	a, err := aggregation.NewAggregator(family, cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Aggregator[C]{Aggregator: a}, nil
}

func (a *Aggregator[C]) Input(state State[C], item C) error {
	return a.InputWithParam(state, item, a.Param())
}

func (a *Aggregator[C]) InputWithParam(state State[C], item C, mapSize int) error {
	return a.UpdateWithParam(state, mapSize, func(p *Proxy[C]) error {
		return p.Update(item)
	})
}

func (a *DoubleAggregator) InputReal(state State[float64], v int64) error {
	return a.Input(state, aggregation.RealToFloat64(v))
}

func (a *DoubleAggregator) InputRealWithParam(state State[float64], v int64, mapSize int) error {
	return a.InputWithParam(state, aggregation.RealToFloat64(v), mapSize)
}
