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

// Package hllagg aggregates values into HLL sketches and estimates distinct counts
// from them.
package hllagg

import (
	"github.com/Roblox/data-tools/aggregation"
	"github.com/Roblox/data-tools/hll"
)

// DefaultTgtHllType is the register width of the sketches created here.
const DefaultTgtHllType = hll.TgtHllTypeHll6

// Proxy owns one HLL sketch. Its parameter is lgK.
type Proxy struct {
	sketch *hll.HllSketch
}

func (p *Proxy) Param() int {
	return p.sketch.GetLgConfigK()
}

func (p *Proxy) TgtHllType() hll.TgtHllType {
	return p.sketch.GetTgtHllType()
}

func (p *Proxy) UpdateInt64(v int64) {
	p.sketch.UpdateInt64(v)
}

func (p *Proxy) UpdateFloat64(v float64) {
	p.sketch.UpdateFloat64(v)
}

func (p *Proxy) UpdateString(v string) {
	p.sketch.UpdateString(v)
}

// Merge unions other into the receiver. A larger lgK is downsampled to the receiver's,
// and the result keeps the receiver's target type.
func (p *Proxy) Merge(other *Proxy) (*Proxy, error) {
	u, err := hll.NewUnion(p.Param())
	if err != nil {
		return nil, err
	}
	if err := u.Update(p.sketch); err != nil {
		return nil, err
	}
	if err := u.Update(other.sketch); err != nil {
		return nil, err
	}
	p.sketch = u.GetResult(p.sketch.GetTgtHllType())
	return p, nil
}

func (p *Proxy) Serialize() ([]byte, error) {
	return p.sketch.ToCompactSlice()
}

func (p *Proxy) EstimatedSizeBytes() int64 {
	return int64(p.sketch.GetCompactSerializationBytes())
}

// Estimate is truncated toward zero, as are the bounds.
func (p *Proxy) Estimate() int64 {
	return int64(p.sketch.GetEstimate())
}

func (p *Proxy) UpperBound(numStdDev int) (int64, error) {
	ub, err := p.sketch.GetUpperBound(numStdDev)
	return int64(ub), err
}

func (p *Proxy) LowerBound(numStdDev int) (int64, error) {
	lb, err := p.sketch.GetLowerBound(numStdDev)
	return int64(lb), err
}

type codec struct{}

func (codec) New(lgK int) (*Proxy, error) {
	sk, err := hll.NewHllSketch(lgK, DefaultTgtHllType)
	if err != nil {
		return nil, err
	}
	return &Proxy{sketch: sk}, nil
}

func (codec) Decode(bytes []byte) (*Proxy, error) {
	sk, err := hll.NewHllSketchFromSlice(bytes)
	if err != nil {
		return nil, err
	}
	return &Proxy{sketch: sk}, nil
}

var Family = aggregation.Family[*Proxy]{
	Name:         aggregation.FamilyHll,
	Codec:        codec{},
	DefaultParam: hll.DefaultLgK,
	Policy:       aggregation.FailOnMalformed,
}
