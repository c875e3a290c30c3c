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

package hllagg

import (
	"github.com/Roblox/data-tools/aggregation"
)

// Functions are the scalar functions over serialized HLL sketches.
type Functions struct {
	agg *aggregation.Aggregator[*Proxy]
}

func NewFunctions(cfg aggregation.FamilyConfig, opts ...aggregation.Option) (*Functions, error) {
	a, err := aggregation.NewAggregator(Family, cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Functions{agg: a}, nil
}

func (f *Functions) CountDistinct(b []byte) (int64, error) {
	p, err := f.agg.Decode(b)
	if err != nil {
		return 0, err
	}
	return p.Estimate(), nil
}

func (f *Functions) CountDistinctUpperBound(b []byte, numStdDev int) (int64, error) {
	p, err := f.agg.Decode(b)
	if err != nil {
		return 0, err
	}
	return p.UpperBound(numStdDev)
}

func (f *Functions) CountDistinctLowerBound(b []byte, numStdDev int) (int64, error) {
	p, err := f.agg.Decode(b)
	if err != nil {
		return 0, err
	}
	return p.LowerBound(numStdDev)
}
