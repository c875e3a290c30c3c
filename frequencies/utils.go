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


package frequencies

import (
	"fmt"
	"strings"
)

const (
	_LG_MIN_MAP_SIZE = 3
	// The median of this many randomly chosen counters approximates the true median
	// within a constant factor with high probability.
	_SAMPLE_SIZE = 1024
)

// ErrorType selects which side of the error a frequent items query is allowed to make.
type ErrorType int

const (
	// NoFalsePositives returns only the items whose lower bound clears the threshold.
	NoFalsePositives ErrorType = iota + 1
	// NoFalseNegatives returns every item whose upper bound clears the threshold.
	NoFalseNegatives
)

func (e ErrorType) String() string {
	switch e {
	case NoFalsePositives:
		return "NO_FALSE_POSITIVES"
	case NoFalseNegatives:
		return "NO_FALSE_NEGATIVES"
	}
	return fmt.Sprintf("ErrorType(%d)", int(e))
}

func ParseErrorType(s string) (ErrorType, error) {
	switch strings.ToUpper(s) {
	case "NO_FALSE_POSITIVES":
		return NoFalsePositives, nil
	case "NO_FALSE_NEGATIVES":
		return NoFalseNegatives, nil
	}
	return 0, fmt.Errorf("unknown error type: %q", s)
}

// GetEpsilon returns the a priori relative error of a sketch with the given map size,
// 3.5 / maxMapSize.
func GetEpsilon(maxMapSize int) (float64, error) {
	if err := checkMapSize(maxMapSize); err != nil {
		return 0, err
	}
	return 3.5 / float64(maxMapSize), nil
}

// GetAprioriError returns the expected maximum error of an estimate given the map size
// and the total weight of the stream.
func GetAprioriError(maxMapSize int, estimatedTotalStreamWeight int64) (float64, error) {
	epsilon, err := GetEpsilon(maxMapSize)
	if err != nil {
		return 0, err
	}
	return epsilon * float64(estimatedTotalStreamWeight), nil
}
