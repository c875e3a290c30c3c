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

// Package thetaagg aggregates values into Theta sketches, estimates distinct counts
// from them and computes their unions and intersections.
//
// Aggregation states carry K in a 4 byte little endian header in front of the compact
// sketch, because a compact sketch does not record the K it was built with. Sketches
// returned to the query, and the operands of the scalar functions, are bare compact
// sketches.
package thetaagg

import (
	"fmt"

	"github.com/Roblox/data-tools/aggregation"
	"github.com/Roblox/data-tools/theta"
)

const DefaultK = 1 << theta.DefaultLgK

// Proxy pairs an update sketch taking raw values with a union taking sketches. The
// update sketch is folded into the union before anything reads the proxy, so the
// union alone describes it afterwards.
type Proxy struct {
	k      int
	update *theta.UpdateSketch
	union  *theta.Union
}

func newProxy(k int) (*Proxy, error) {
	lgK, err := theta.LgKFromNominalEntries(k)
	if err != nil {
		return nil, err
	}
	update, err := theta.NewUpdateSketch(theta.WithUpdateSketchLgK(lgK))
	if err != nil {
		return nil, err
	}
	union, err := theta.NewUnion(theta.WithUnionLgK(lgK))
	if err != nil {
		return nil, err
	}
	return &Proxy{k: k, update: update, union: union}, nil
}

// Param returns the nominal entries K.
func (p *Proxy) Param() int {
	return p.k
}

func (p *Proxy) UpdateInt64(v int64) {
	p.update.UpdateInt64(v)
}

func (p *Proxy) UpdateFloat64(v float64) {
	p.update.UpdateFloat64(v)
}

func (p *Proxy) UpdateString(v string) {
	p.update.UpdateString(v)
}

func (p *Proxy) foldPending() {
	if p.update.IsEmpty() {
		return
	}
	// both sides hash with the default seed, so the update cannot fail
	_ = p.union.Update(p.update)
	p.update.Reset()
}

func (p *Proxy) result() *theta.CompactSketch {
	p.foldPending()
	return p.union.Result(true)
}

func (p *Proxy) Merge(other *Proxy) (*Proxy, error) {
	p.foldPending()
	if err := p.union.Update(other.result()); err != nil {
		return nil, err
	}
	return p, nil
}

// Serialize returns the compact sketch without the K header.
func (p *Proxy) Serialize() ([]byte, error) {
	return p.result().MarshalBinary()
}

func (p *Proxy) EstimatedSizeBytes() int64 {
	return int64(p.result().SerializedSizeBytes())
}

// Estimate is truncated toward zero, as are the bounds.
func (p *Proxy) Estimate() int64 {
	return int64(p.result().Estimate())
}

func (p *Proxy) UpperBound(numStdDev int) (int64, error) {
	if err := checkNumStdDev(numStdDev); err != nil {
		return 0, err
	}
	ub, err := p.result().UpperBound(uint8(numStdDev))
	return int64(ub), err
}

func (p *Proxy) LowerBound(numStdDev int) (int64, error) {
	if err := checkNumStdDev(numStdDev); err != nil {
		return 0, err
	}
	lb, err := p.result().LowerBound(uint8(numStdDev))
	return int64(lb), err
}

func checkNumStdDev(numStdDev int) error {
	if numStdDev < 1 || numStdDev > 3 {
		return fmt.Errorf("numStdDev must be 1, 2 or 3: %d", numStdDev)
	}
	return nil
}

type codec struct{}

func (codec) New(k int) (*Proxy, error) {
	return newProxy(k)
}

func (c codec) Decode(bytes []byte) (*Proxy, error) {
	return c.DecodeWithParam(bytes, DefaultK)
}

// DecodeWithParam returns a proxy of nominal entries k holding the compact sketch.
// The sketch is downsampled when it retains more than k entries.
func (codec) DecodeWithParam(bytes []byte, k int) (*Proxy, error) {
	p, err := newProxy(k)
	if err != nil {
		return nil, &aggregation.InvalidConfigurationError{Family: aggregation.FamilyTheta, Param: k, Reason: err.Error()}
	}
	sk, err := theta.Decode(bytes, theta.DefaultSeed)
	if err != nil {
		return nil, err
	}
	if err := p.union.Update(sk); err != nil {
		return nil, err
	}
	return p, nil
}

var Family = aggregation.Family[*Proxy]{
	Name:         aggregation.FamilyTheta,
	Codec:        codec{},
	DefaultParam: DefaultK,
	ParamHeader:  true,
	Policy:       aggregation.SkipMalformed,
}
