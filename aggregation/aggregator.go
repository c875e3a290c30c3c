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

	"go.uber.org/zap"
)

type options struct {
	logger  *zap.Logger
	metrics *Metrics
}

type Option func(*options)

// WithLogger sets the logger, which is named after the family. The default discards
// everything.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics shares collectors between families. Without it every aggregator
// registers its own collectors with a private registry.
func WithMetrics(metrics *Metrics) Option {
	return func(o *options) {
		o.metrics = metrics
	}
}

// Aggregator implements the input, combine and output steps of one family. It keeps no
// per group data and may be shared by every state of the family.
type Aggregator[S Sketch[S]] struct {
	family  Family[S]
	param   int
	policy  MalformedPolicy
	logger  *zap.Logger
	metrics *Metrics
}

// NewAggregator returns an aggregator whose proxies default to cfg.DefaultParam, or to
// the family default when cfg leaves it unset.
func NewAggregator[S Sketch[S]](family Family[S], cfg FamilyConfig, opts ...Option) (*Aggregator[S], error) {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.metrics == nil {
		o.metrics = NewMetrics(nil)
	}

	a := &Aggregator[S]{
		family:  family,
		param:   family.DefaultParam,
		policy:  family.Policy,
		logger:  o.logger.Named(family.Name),
		metrics: o.metrics,
	}
	if cfg.DefaultParam != 0 {
		a.param = cfg.DefaultParam
	}
	if cfg.OnMalformedState != 0 {
		a.policy = cfg.OnMalformedState
	}
	if a.policy == 0 {
		a.policy = FailOnMalformed
	}
	if a.policy != FailOnMalformed && a.policy != SkipMalformed {
		return nil, fmt.Errorf("%s: unknown malformed state policy %s", family.Name, a.policy)
	}
	if err := family.ValidateParam(a.param); err != nil {
		return nil, err
	}
	a.logger.Debug("aggregator configured", zap.Int("param", a.param), zap.Stringer("policy", a.policy))
	return a, nil
}

func (a *Aggregator[S]) Family() string {
	return a.family.Name
}

// Param returns the parameter of proxies created without an explicit one.
func (a *Aggregator[S]) Param() int {
	return a.param
}

func (a *Aggregator[S]) Policy() MalformedPolicy {
	return a.policy
}

func (a *Aggregator[S]) Logger() *zap.Logger {
	return a.logger
}

func (a *Aggregator[S]) Factory() StateFactory[S] {
	return NewStateFactory[S](a.family.Name, a.metrics)
}

func (a *Aggregator[S]) Serializer() StateSerializer[S] {
	return StateSerializer[S]{agg: a}
}

// New returns an empty proxy built with param.
func (a *Aggregator[S]) New(param int) (S, error) {
	sketch, err := a.family.Codec.New(param)
	if err != nil {
		return sketch, invalidConfiguration(a.family.Name, param, err)
	}
	return sketch, nil
}

// Decode decodes a sketch handed over by the query, adopting the default parameter
// when the bytes do not carry one.
func (a *Aggregator[S]) Decode(bytes []byte) (S, error) {
	return a.DecodeWithParam(bytes, a.param)
}

func (a *Aggregator[S]) DecodeWithParam(bytes []byte, param int) (S, error) {
	sketch, err := a.decode(bytes, param)
	if err != nil {
		a.metrics.decodeErrors.WithLabelValues(a.family.Name, outcomeFailed).Inc()
	}
	return sketch, err
}

// decode turns engine errors and engine panics into a MalformedSketchError.
func (a *Aggregator[S]) decode(bytes []byte, param int) (sketch S, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero S
			sketch, err = zero, &MalformedSketchError{Family: a.family.Name, Err: fmt.Errorf("decoder panic: %v", r)}
		}
	}()
	if pd, ok := a.family.Codec.(ParamDecoder[S]); ok {
		sketch, err = pd.DecodeWithParam(bytes, param)
	} else {
		sketch, err = a.family.Codec.Decode(bytes)
	}
	if err != nil {
		if errors.Is(err, ErrInvalidConfiguration) {
			return sketch, err
		}
		return sketch, malformed(a.family.Name, err)
	}
	return sketch, nil
}

// Update applies update to the proxy of state, creating it with the default parameter
// first when the state is empty.
func (a *Aggregator[S]) Update(state State[S], update func(S) error) error {
	return a.UpdateWithParam(state, a.param, update)
}

// UpdateWithParam is Update with param used for a proxy created by this call. A state
// that already holds a proxy keeps its parameter.
func (a *Aggregator[S]) UpdateWithParam(state State[S], param int, update func(S) error) error {
	sketch, ok := state.Get()
	if !ok {
		var err error
		if sketch, err = a.New(param); err != nil {
			return err
		}
	}
	if err := update(sketch); err != nil {
		return err
	}
	if !ok {
		state.Set(sketch)
	}
	return nil
}

// InputSketch merges a serialized sketch into state.
func (a *Aggregator[S]) InputSketch(state State[S], bytes []byte) error {
	return a.InputSketchWithParam(state, bytes, a.param)
}

func (a *Aggregator[S]) InputSketchWithParam(state State[S], bytes []byte, param int) error {
	sketch, err := a.DecodeWithParam(bytes, param)
	if err != nil {
		return err
	}
	return a.merge(state, sketch)
}

// Combine merges the proxy of other into state. An empty state gets a proxy of its own
// built with the parameter of other, an empty other leaves state as it is.
func (a *Aggregator[S]) Combine(state, other State[S]) error {
	sketch, ok := other.Get()
	if !ok {
		return nil
	}
	return a.merge(state, sketch)
}

func (a *Aggregator[S]) merge(state State[S], other S) error {
	current, ok := state.Get()
	if !ok {
		// never store other itself: the caller may reuse its state for the next group
		fresh, err := a.New(other.Param())
		if err != nil {
			return err
		}
		adopted, err := fresh.Merge(other)
		if err != nil {
			return fmt.Errorf("%s: merge: %w", a.family.Name, err)
		}
		state.Set(adopted)
		return nil
	}
	merged, err := current.Merge(other)
	if err != nil {
		return fmt.Errorf("%s: merge: %w", a.family.Name, err)
	}
	a.metrics.merges.WithLabelValues(a.family.Name).Inc()
	state.Set(merged)
	return nil
}

// Output returns the serialized proxy of state, or an empty default sketch when the
// state never received input.
func (a *Aggregator[S]) Output(state State[S]) ([]byte, error) {
	sketch, ok := state.Get()
	if !ok {
		var err error
		if sketch, err = a.New(a.param); err != nil {
			return nil, err
		}
	}
	return sketch.Serialize()
}
