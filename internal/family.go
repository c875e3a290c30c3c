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

package internal

// Family is the family byte every serialized image carries in its preamble.
type Family struct {
	Id          int
	MinPreLongs int
	MaxPreLongs int
}

type families struct {
	QuickSelect  Family
	Compact      Family
	Union        Family
	Intersection Family
	HLL          Family
	Frequency    Family
	Kll          Family
}

var FamilyEnum = &families{
	QuickSelect: Family{
		Id:          2,
		MinPreLongs: 3,
		MaxPreLongs: 3,
	},
	Compact: Family{
		Id:          3,
		MinPreLongs: 1,
		MaxPreLongs: 3,
	},
	Union: Family{
		Id:          4,
		MinPreLongs: 4,
		MaxPreLongs: 4,
	},
	Intersection: Family{
		Id:          5,
		MinPreLongs: 3,
		MaxPreLongs: 3,
	},
	HLL: Family{
		Id:          7,
		MinPreLongs: 1,
		MaxPreLongs: 1,
	},
	Frequency: Family{
		Id:          10,
		MinPreLongs: 1,
		MaxPreLongs: 4,
	},
	Kll: Family{
		Id:          15,
		MinPreLongs: 1,
		MaxPreLongs: 2,
	},
}
