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
	"errors"
	"fmt"
)

var (
	ErrMalformedSketch      = errors.New("malformed sketch")
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// MalformedSketchError is returned when bytes cannot be decoded into a proxy.
type MalformedSketchError struct {
	Family string
	Err    error
}

func (e *MalformedSketchError) Error() string {
	return fmt.Sprintf("%s: malformed sketch: %v", e.Family, e.Err)
}

func (e *MalformedSketchError) Unwrap() error {
	return e.Err
}

func (e *MalformedSketchError) Is(target error) bool {
	return target == ErrMalformedSketch
}

// InvalidConfigurationError is returned for a parameter outside the family's range.
type InvalidConfigurationError struct {
	Family string
	Param  int
	Reason string
}

func (e *InvalidConfigurationError) Error() string {
	return fmt.Sprintf("%s: invalid parameter %d: %s", e.Family, e.Param, e.Reason)
}

func (e *InvalidConfigurationError) Is(target error) bool {
	return target == ErrInvalidConfiguration
}

func malformed(family string, err error) error {
	var m *MalformedSketchError
	if errors.As(err, &m) {
		return err
	}
	return &MalformedSketchError{Family: family, Err: err}
}

func invalidConfiguration(family string, param int, err error) error {
	var c *InvalidConfigurationError
	if errors.As(err, &c) {
		return err
	}
	return &InvalidConfigurationError{Family: family, Param: param, Reason: err.Error()}
}
