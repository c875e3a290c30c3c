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

package aggregation

import (
	"encoding/binary"
	"errors"
	"fmt"
	"slices"
)

// setSketch is an exact distinct counter used to exercise the framework. Its image is
// the parameter, the count and the sorted values, all little endian.
type setSketch struct {
	param  int
	values map[int64]struct{}
}

func (s *setSketch) Param() int {
	return s.param
}

func (s *setSketch) update(v int64) {
	s.values[v] = struct{}{}
}

func (s *setSketch) estimate() int {
	return len(s.values)
}

func (s *setSketch) Merge(other *setSketch) (*setSketch, error) {
	if other.param < 0 {
		return nil, errors.New("incompatible sketch")
	}
	for v := range other.values {
		s.values[v] = struct{}{}
	}
	return s, nil
}

func (s *setSketch) Serialize() ([]byte, error) {
	values := make([]int64, 0, len(s.values))
	for v := range s.values {
		values = append(values, v)
	}
	slices.Sort(values)
	out := binary.LittleEndian.AppendUint32(nil, uint32(s.param))
	out = binary.LittleEndian.AppendUint32(out, uint32(len(values)))
	for _, v := range values {
		out = binary.LittleEndian.AppendUint64(out, uint64(v))
	}
	return out, nil
}

func (s *setSketch) EstimatedSizeBytes() int64 {
	return int64(8 + 8*len(s.values))
}

type setCodec struct{}

func (setCodec) New(param int) (*setSketch, error) {
	if param < 1 || param > 64 {
		return nil, fmt.Errorf("param must be in [1, 64]: %d", param)
	}
	return &setSketch{param: param, values: map[int64]struct{}{}}, nil
}

func (c setCodec) Decode(bytes []byte) (*setSketch, error) {
	if len(bytes) > 0 && bytes[0] == 0xff {
		panic("corrupt sketch")
	}
	if len(bytes) < 8 {
		return nil, errors.New("too short")
	}
	s, err := c.New(int(binary.LittleEndian.Uint32(bytes)))
	if err != nil {
		return nil, err
	}
	n := int(binary.LittleEndian.Uint32(bytes[4:]))
	if len(bytes) != 8+8*n {
		return nil, fmt.Errorf("expected %d bytes, got %d", 8+8*n, len(bytes))
	}
	for i := 0; i < n; i++ {
		s.update(int64(binary.LittleEndian.Uint64(bytes[8+8*i:])))
	}
	return s, nil
}

// headerCodec stores the parameter outside of the sketch image, the way Theta states do.
type headerCodec struct {
	setCodec
}

func (c headerCodec) DecodeWithParam(bytes []byte, param int) (*setSketch, error) {
	s, err := c.Decode(bytes)
	if err != nil {
		return nil, err
	}
	if _, err := c.New(param); err != nil {
		return nil, &InvalidConfigurationError{Family: "set", Param: param, Reason: err.Error()}
	}
	s.param = param
	return s, nil
}

var setFamily = Family[*setSketch]{
	Name:         "set",
	Codec:        setCodec{},
	DefaultParam: 16,
}

var headerSetFamily = Family[*setSketch]{
	Name:         "set",
	Codec:        headerCodec{},
	DefaultParam: 16,
	ParamHeader:  true,
	Policy:       SkipMalformed,
}
