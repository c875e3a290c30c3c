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
	"fmt"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"
)

const paramHeaderBytes = 4

// StateSerializer moves states between aggregation stages. It holds no per state data.
type StateSerializer[S Sketch[S]] struct {
	agg *Aggregator[S]
}

// Serialize returns nil for an empty state.
func (s StateSerializer[S]) Serialize(state State[S]) ([]byte, error) {
	sketch, ok := state.Get()
	if !ok {
		return nil, nil
	}
	bytes, err := sketch.Serialize()
	if err != nil {
		return nil, err
	}
	if !s.agg.family.ParamHeader {
		return bytes, nil
	}
	out := make([]byte, paramHeaderBytes, paramHeaderBytes+len(bytes))
	binary.LittleEndian.PutUint32(out, uint32(sketch.Param()))
	return append(out, bytes...), nil
}

// Deserialize sets the proxy decoded from data into state. Nil data leaves the state
// untouched, as does malformed data under SkipMalformed.
func (s StateSerializer[S]) Deserialize(data []byte, state State[S]) error {
	if data == nil {
		return nil
	}
	a := s.agg
	sketch, err := s.decode(data)
	if err == nil {
		state.Set(sketch)
		return nil
	}
	if a.policy == SkipMalformed {
		a.logger.Error("skipping malformed sketch state",
			zap.String("family", a.family.Name),
			zap.Int("bytes", len(data)),
			zap.Uint64("fingerprint", xxhash.Sum64(data)),
			zap.Error(err))
		a.metrics.decodeErrors.WithLabelValues(a.family.Name, outcomeSkipped).Inc()
		return nil
	}
	a.metrics.decodeErrors.WithLabelValues(a.family.Name, outcomeFailed).Inc()
	return err
}

func (s StateSerializer[S]) decode(data []byte) (S, error) {
	a := s.agg
	if !a.family.ParamHeader {
		return a.decode(data, a.param)
	}
	if len(data) < paramHeaderBytes {
		var zero S
		return zero, malformed(a.family.Name, fmt.Errorf("state of %d bytes has no parameter header", len(data)))
	}
	param := int(int32(binary.LittleEndian.Uint32(data)))
	sketch, err := a.decode(data[paramHeaderBytes:], param)
	if err != nil {
		// a bad header parameter is corruption of the state, not configuration
		return sketch, malformed(a.family.Name, err)
	}
	return sketch, nil
}
