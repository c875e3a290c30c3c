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

package thetaagg

import (
	"github.com/Roblox/data-tools/aggregation"
)

type State = aggregation.State[*Proxy]

// Aggregator is the theta_sketch aggregate. The WithParam inputs take the K of a
// state created by the call, and InputSketchWithParam decodes with the given K.
type Aggregator struct {
	*aggregation.Aggregator[*Proxy]
}

func NewAggregator(cfg aggregation.FamilyConfig, opts ...aggregation.Option) (*Aggregator, error) {
	a, err := aggregation.NewAggregator(Family, cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Aggregator{Aggregator: a}, nil
}

func (a *Aggregator) InputLong(state State, v int64) error {
	return a.InputLongWithParam(state, v, a.Param())
}

func (a *Aggregator) InputLongWithParam(state State, v int64, k int) error {
	return a.UpdateWithParam(state, k, func(p *Proxy) error {
		p.UpdateInt64(v)
		return nil
	})
}

func (a *Aggregator) InputDouble(state State, v float64) error {
	return a.InputDoubleWithParam(state, v, a.Param())
}

func (a *Aggregator) InputDoubleWithParam(state State, v float64, k int) error {
	return a.UpdateWithParam(state, k, func(p *Proxy) error {
		p.UpdateFloat64(v)
		return nil
	})
}

func (a *Aggregator) InputReal(state State, v int64) error {
	return a.InputDoubleWithParam(state, aggregation.RealToFloat64(v), a.Param())
}

func (a *Aggregator) InputRealWithParam(state State, v int64, k int) error {
	return a.InputDoubleWithParam(state, aggregation.RealToFloat64(v), k)
}

func (a *Aggregator) InputString(state State, v string) error {
	return a.InputStringWithParam(state, v, a.Param())
}

func (a *Aggregator) InputStringWithParam(state State, v string, k int) error {
	return a.UpdateWithParam(state, k, func(p *Proxy) error {
		p.UpdateString(v)
		return nil
	})
}
