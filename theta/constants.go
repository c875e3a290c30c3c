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

package theta

import (
	"math"

	"github.com/Roblox/data-tools/internal"
)

// ResizeFactor represents the hash table resize factor
type ResizeFactor uint8

const (
	// ResizeX1 - resize by factor of 1 (no resize)
	ResizeX1 ResizeFactor = iota
	// ResizeX2 - resize by factor of 2
	ResizeX2
	// ResizeX4 - resize by factor of 4
	ResizeX4
	// ResizeX8 - resize by factor of 8
	ResizeX8
)

const DefaultResizeFactor = ResizeX8

// MaxTheta is the signed long max, which keeps hashes compatible with the JVM sketches.
const MaxTheta uint64 = math.MaxInt64

const (
	// MinLgK is the smallest log2 of the nominal entries.
	MinLgK uint8 = 4
	// MaxLgK is the largest log2 of the nominal entries.
	MaxLgK uint8 = 26
	// DefaultLgK gives the JVM default of 4096 nominal entries.
	DefaultLgK uint8 = 12

	minLgArrLongs uint8 = 5
)

// DefaultSeed is the hash seed of every sketch built or decoded by the aggregation states.
const DefaultSeed = internal.DefaultUpdateSeed

// Serialization layout of the compact image, offsets in bytes.
const (
	preLongsByte      = 0
	serialVersionByte = 1
	familyByte        = 2
	lgNomLongsByte    = 3
	lgArrLongsByte    = 4
	flagsByte         = 5
	seedHashShort     = 6
	numEntriesInt     = 8
	pFloat            = 12
	thetaLong         = 16
)

// Serialization flags
const (
	flagIsBigEndian uint8 = 1 << iota
	flagIsReadOnly
	flagIsEmpty
	flagIsCompact
	flagIsOrdered
	flagIsSingleItem
)

const serialVersion = 3
