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

// Package aggregation holds the state machinery shared by every sketch family exposed
// to the query engine: lazily created per group states, merging of partial states,
// memory accounting and the flat byte form exchanged between aggregation stages.
package aggregation

// Sketch is the capability a family proxy offers to the framework. S is the proxy
// type itself, usually a pointer.
type Sketch[S any] interface {
	// Param returns the configuration parameter fixed at creation (K, lgK or map size).
	Param() int
	// Merge folds other into the receiver and returns the merged proxy, which is the
	// receiver or a replacement with the receiver's parameter.
	Merge(other S) (S, error)
	Serialize() ([]byte, error)
	EstimatedSizeBytes() int64
}

// Codec creates and decodes the proxies of one family.
type Codec[S any] interface {
	New(param int) (S, error)
	Decode(bytes []byte) (S, error)
}

// ParamDecoder is implemented by codecs whose serialized sketches do not record the
// parameter the decoded proxy should keep.
type ParamDecoder[S any] interface {
	DecodeWithParam(bytes []byte, param int) (S, error)
}

// Family describes one sketch family.
type Family[S Sketch[S]] struct {
	Name         string
	Codec        Codec[S]
	DefaultParam int
	// ParamHeader prefixes serialized states with the parameter as a 4 byte little
	// endian integer.
	ParamHeader bool
	// Policy applies when a serialized state fails to decode.
	Policy MalformedPolicy
}

// FamilyName returns the key of the family in Config.Families.
func (f Family[S]) FamilyName() string {
	return f.Name
}

// ValidateParam reports whether a proxy can be built with param.
func (f Family[S]) ValidateParam(param int) error {
	if _, err := f.Codec.New(param); err != nil {
		return invalidConfiguration(f.Name, param, err)
	}
	return nil
}

// Family names, also the keys of the families section of the configuration.
const (
	FamilyHll         = "hll"
	FamilyTheta       = "theta"
	FamilyKllDoubles  = "kll_doubles"
	FamilyKllFloats   = "kll_floats"
	FamilyItemsLong   = "items_long"
	FamilyItemsDouble = "items_double"
	FamilyItemsString = "items_string"
)
