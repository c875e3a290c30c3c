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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	require.NoError(t, c.Validate())
	assert.Equal(t, FamilyConfig{DefaultParam: 12, OnMalformedState: FailOnMalformed}, c.Family(FamilyHll))
	assert.Equal(t, FamilyConfig{DefaultParam: 4096, OnMalformedState: SkipMalformed}, c.Family(FamilyTheta))
	assert.Equal(t, 200, c.Family(FamilyKllFloats).DefaultParam)
	assert.Equal(t, 64, c.Family(FamilyItemsString).DefaultParam)

	// callers cannot change the shared defaults
	c.Families[FamilyHll] = FamilyConfig{DefaultParam: 5}
	assert.Equal(t, 12, DefaultConfig().Family(FamilyHll).DefaultParam)
}

func TestParseConfig(t *testing.T) {
	c, err := ParseConfig([]byte(`
families:
  hll:
    default_param: 14
  theta:
    default_param: 1024
    on_malformed_state: FAIL
  items_long:
    on_malformed_state: skip
`))
	require.NoError(t, err)
	assert.Equal(t, FamilyConfig{DefaultParam: 14, OnMalformedState: FailOnMalformed}, c.Family(FamilyHll))
	assert.Equal(t, FamilyConfig{DefaultParam: 1024, OnMalformedState: FailOnMalformed}, c.Family(FamilyTheta))
	assert.Equal(t, FamilyConfig{DefaultParam: 64, OnMalformedState: SkipMalformed}, c.Family(FamilyItemsLong))
	assert.Equal(t, FamilyConfig{DefaultParam: 200, OnMalformedState: FailOnMalformed}, c.Family(FamilyKllDoubles))

	c, err = LoadConfig(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), c)
}

func TestParseConfigErrors(t *testing.T) {
	for name, doc := range map[string]string{
		"unknown policy": "families: {hll: {on_malformed_state: ignore}}",
		"unknown key":    "families: {hll: {lg_k: 12}}",
		"unknown family": "families: {cpc: {default_param: 11}}",
		"negative param": "families: {kll_doubles: {default_param: -1}}",
		"not a mapping":  "families: 3",
	} {
		_, err := ParseConfig([]byte(doc))
		assert.Error(t, err, name)
	}
}

func TestConfigMarshalsPolicies(t *testing.T) {
	out, err := yaml.Marshal(Config{Families: map[string]FamilyConfig{
		FamilyTheta: {DefaultParam: 4096, OnMalformedState: SkipMalformed},
	}})
	require.NoError(t, err)
	assert.Contains(t, string(out), "on_malformed_state: skip")

	c, err := ParseConfig(out)
	require.NoError(t, err)
	assert.Equal(t, SkipMalformed, c.Family(FamilyTheta).OnMalformedState)
}

type rangeValidator struct {
	name     string
	min, max int
}

func (v rangeValidator) FamilyName() string {
	return v.name
}

func (v rangeValidator) ValidateParam(param int) error {
	if param < v.min || param > v.max {
		return &InvalidConfigurationError{Family: v.name, Param: param, Reason: "out of range"}
	}
	return nil
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	c := Config{Families: map[string]FamilyConfig{
		FamilyHll:        {DefaultParam: 30},
		FamilyKllDoubles: {DefaultParam: -2},
		"quantiles":      {DefaultParam: 128},
		FamilyTheta:      {OnMalformedState: MalformedPolicy(7)},
	}}
	err := c.Validate(
		rangeValidator{name: FamilyHll, min: 4, max: 21},
		rangeValidator{name: FamilyTheta, min: 16, max: 1 << 26},
		rangeValidator{name: FamilyKllDoubles, min: 8, max: 65535},
	)
	require.Error(t, err)
	// quantiles, the kll sign, the theta policy and the hll range
	assert.Len(t, multierr.Errors(err), 4)
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))

	require.NoError(t, DefaultConfig().Validate(setFamily.withName(FamilyItemsLong)))
}

func TestFamilyValidatesThroughCodec(t *testing.T) {
	require.NoError(t, setFamily.ValidateParam(64))
	err := setFamily.ValidateParam(65)
	require.Error(t, err)
	var cfgErr *InvalidConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, 65, cfgErr.Param)
}

func (f Family[S]) withName(name string) Family[S] {
	f.Name = name
	return f
}

func TestParseMalformedPolicy(t *testing.T) {
	for _, p := range []MalformedPolicy{FailOnMalformed, SkipMalformed} {
		parsed, err := ParseMalformedPolicy(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, parsed)
	}
	_, err := ParseMalformedPolicy("retry")
	assert.Error(t, err)
}
