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
	"github.com/Roblox/data-tools/theta"
)

// Functions are the scalar functions over compact Theta sketches. Operands are read
// into a proxy of nominal entries K, the configured default unless a WithK variant
// names one.
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

func (f *Functions) Estimate(b []byte) (int64, error) {
	return f.EstimateWithK(b, f.agg.Param())
}

func (f *Functions) EstimateWithK(b []byte, k int) (int64, error) {
	p, err := f.agg.DecodeWithParam(b, k)
	if err != nil {
		return 0, err
	}
	return p.Estimate(), nil
}

func (f *Functions) UpperBound(b []byte, numStdDev int) (int64, error) {
	return f.UpperBoundWithK(b, numStdDev, f.agg.Param())
}

func (f *Functions) UpperBoundWithK(b []byte, numStdDev int, k int) (int64, error) {
	p, err := f.agg.DecodeWithParam(b, k)
	if err != nil {
		return 0, err
	}
	return p.UpperBound(numStdDev)
}

func (f *Functions) LowerBound(b []byte, numStdDev int) (int64, error) {
	return f.LowerBoundWithK(b, numStdDev, f.agg.Param())
}

func (f *Functions) LowerBoundWithK(b []byte, numStdDev int, k int) (int64, error) {
	p, err := f.agg.DecodeWithParam(b, k)
	if err != nil {
		return 0, err
	}
	return p.LowerBound(numStdDev)
}

// Union returns the compact union of both sketches.
func (f *Functions) Union(b1, b2 []byte) ([]byte, error) {
	return f.UnionWithK(b1, b2, f.agg.Param())
}

func (f *Functions) UnionWithK(b1, b2 []byte, k int) ([]byte, error) {
	p1, p2, err := f.decodePair(b1, b2, k)
	if err != nil {
		return nil, err
	}
	if p1, err = p1.Merge(p2); err != nil {
		return nil, err
	}
	return p1.Serialize()
}

// Intersection returns the compact intersection of both sketches.
func (f *Functions) Intersection(b1, b2 []byte) ([]byte, error) {
	return f.IntersectionWithK(b1, b2, f.agg.Param())
}

func (f *Functions) IntersectionWithK(b1, b2 []byte, k int) ([]byte, error) {
	p1, p2, err := f.decodePair(b1, b2, k)
	if err != nil {
		return nil, err
	}
	intersection, err := theta.NewIntersection()
	if err != nil {
		return nil, err
	}
	if err := intersection.Update(p1.result()); err != nil {
		return nil, err
	}
	if err := intersection.Update(p2.result()); err != nil {
		return nil, err
	}
	result, err := intersection.Result(true)
	if err != nil {
		return nil, err
	}
	return result.MarshalBinary()
}

func (f *Functions) decodePair(b1, b2 []byte, k int) (*Proxy, *Proxy, error) {
	p1, err := f.agg.DecodeWithParam(b1, k)
	if err != nil {
		return nil, nil, err
	}
	p2, err := f.agg.DecodeWithParam(b2, k)
	if err != nil {
		return nil, nil, err
	}
	return p1, p2, nil
}
