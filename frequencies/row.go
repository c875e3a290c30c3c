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

import "fmt"

// Row is one frequent item with its estimate and bounds.
type Row[C comparable] struct {
	item C
	est  int64
	ub   int64
	lb   int64
}

func (r *Row[C]) GetItem() C {
	return r.item
}

func (r *Row[C]) GetEstimate() int64 {
	return r.est
}

func (r *Row[C]) GetUpperBound() int64 {
	return r.ub
}

func (r *Row[C]) GetLowerBound() int64 {
	return r.lb
}

func (r *Row[C]) String() string {
	return fmt.Sprintf("  %20d%20d%20d %v", r.est, r.ub, r.lb, r.item)
}
