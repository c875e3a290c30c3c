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

type State[T constraints.Float] = aggregation.State[*Proxy[T]]

// Aggregator is the quantiles aggregate of one item width. Inputs of any numeric type
// are converted to the item type. The WithParam inputs take the k of a state created
// by the call.
type Aggregator[T constraints.Float] struct {
	*aggregation.Aggregator[*Proxy[T]]
}

func NewDoublesAggregator(cfg aggregation.FamilyConfig, opts ...aggregation.Option) (*Aggregator[float64], error) {
	return newAggregator(DoublesFamily, cfg, opts...)
}

func NewFloatsAggregator(cfg aggregation.FamilyConfig, opts ...aggregation.Option) (*Aggregator[float32], error) {
	return newAggregator(FloatsFamily, cfg, opts...)
}

func newAggregator[T constraints.Float](family aggregation.Family[*Proxy[T]], cfg aggregation.FamilyConfig, opts ...aggregation.Option) (*Aggregator[T], error) {
	a, err := aggregation.NewAggregator(family, cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Aggregator[T]{Aggregator: a}, nil
}

func (a *Aggregator[T]) input(state State[T], v T, k int) error {
	return a.UpdateWithParam(state, k, func(p *Proxy[T]) error {
		p.Update(v)
		return nil
	})
}

func (a *Aggregator[T]) InputDouble(state State[T], v float64) error {
	return a.input(state, T(v), a.Param())
}

func (a *Aggregator[T]) InputDoubleWithParam(state State[T], v float64, k int) error {
	return a.input(state, T(v), k)
}

func (a *Aggregator[T]) InputLong(state State[T], v int64) error {
	return a.input(state, T(v), a.Param())
}

func (a *Aggregator[T]) InputLongWithParam(state State[T], v int64, k int) error {
	return a.input(state, T(v), k)
}

func (a *Aggregator[T]) InputReal(state State[T], v int64) error {
	return a.input(state, T(aggregation.RealToFloat64(v)), a.Param())
}

func (a *Aggregator[T]) InputRealWithParam(state State[T], v int64, k int) error {
	return a.input(state, T(aggregation.RealToFloat64(v)), k)
}
