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
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// MalformedPolicy decides what deserializing a state does with bytes that fail to decode.
// The zero value defers to the family default.
type MalformedPolicy int

const (
	// FailOnMalformed returns the decode error to the caller.
	FailOnMalformed MalformedPolicy = iota + 1
	// SkipMalformed logs the error and leaves the state as it was.
	SkipMalformed
)

func (p MalformedPolicy) String() string {
	switch p {
	case 0:
		return ""
	case FailOnMalformed:
		return "fail"
	case SkipMalformed:
		return "skip"
	}
	return fmt.Sprintf("MalformedPolicy(%d)", int(p))
}

// ParseMalformedPolicy accepts fail and skip, in any case.
func ParseMalformedPolicy(s string) (MalformedPolicy, error) {
	switch strings.ToLower(s) {
	case "fail":
		return FailOnMalformed, nil
	case "skip":
		return SkipMalformed, nil
	}
	return 0, fmt.Errorf("unknown malformed state policy: %q", s)
}

func (p *MalformedPolicy) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseMalformedPolicy(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

func (p MalformedPolicy) MarshalYAML() (interface{}, error) {
	return p.String(), nil
}

// FamilyConfig configures one family. Zero fields fall back to the family defaults.
type FamilyConfig struct {
	DefaultParam     int             `yaml:"default_param"`
	OnMalformedState MalformedPolicy `yaml:"on_malformed_state,omitempty"`
}

type Config struct {
	Families map[string]FamilyConfig `yaml:"families"`
}

var defaultFamilies = map[string]FamilyConfig{
	FamilyHll:         {DefaultParam: 12, OnMalformedState: FailOnMalformed},
	FamilyTheta:       {DefaultParam: 4096, OnMalformedState: SkipMalformed},
	FamilyKllDoubles:  {DefaultParam: 200, OnMalformedState: FailOnMalformed},
	FamilyKllFloats:   {DefaultParam: 200, OnMalformedState: FailOnMalformed},
	FamilyItemsLong:   {DefaultParam: 64, OnMalformedState: FailOnMalformed},
	FamilyItemsDouble: {DefaultParam: 64, OnMalformedState: FailOnMalformed},
	FamilyItemsString: {DefaultParam: 64, OnMalformedState: FailOnMalformed},
}

func DefaultConfig() Config {
	families := make(map[string]FamilyConfig, len(defaultFamilies))
	for name, fc := range defaultFamilies {
		families[name] = fc
	}
	return Config{Families: families}
}

// LoadConfig reads a YAML configuration. Unknown keys are rejected and an empty
// document yields the defaults.
func LoadConfig(r io.Reader) (Config, error) {
	var c Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		if errors.Is(err, io.EOF) {
			return DefaultConfig(), nil
		}
		return Config{}, fmt.Errorf("parsing sketch configuration: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func ParseConfig(b []byte) (Config, error) {
	return LoadConfig(bytes.NewReader(b))
}

// Family returns the configuration of name with unset fields taken from the defaults.
func (c Config) Family(name string) FamilyConfig {
	fc := c.Families[name]
	def := defaultFamilies[name]
	if fc.DefaultParam == 0 {
		fc.DefaultParam = def.DefaultParam
	}
	if fc.OnMalformedState == 0 {
		fc.OnMalformedState = def.OnMalformedState
	}
	return fc
}

// ParamValidator checks a parameter against the range of one family. Family values
// implement it.
type ParamValidator interface {
	FamilyName() string
	ValidateParam(param int) error
}

// Validate reports every problem of the configuration at once. Parameters are checked
// against the ranges of the given families.
func (c Config) Validate(families ...ParamValidator) error {
	var err error
	names := make([]string, 0, len(c.Families))
	for name := range c.Families {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fc := c.Families[name]
		if _, ok := defaultFamilies[name]; !ok {
			err = multierr.Append(err, fmt.Errorf("unknown sketch family: %q", name))
			continue
		}
		if fc.DefaultParam < 0 {
			err = multierr.Append(err, &InvalidConfigurationError{Family: name, Param: fc.DefaultParam, Reason: "must not be negative"})
		}
		if fc.OnMalformedState < 0 || fc.OnMalformedState > SkipMalformed {
			err = multierr.Append(err, fmt.Errorf("%s: unknown malformed state policy %s", name, fc.OnMalformedState))
		}
	}
	for _, f := range families {
		fc := c.Family(f.FamilyName())
		if fc.DefaultParam < 0 {
			continue
		}
		err = multierr.Append(err, f.ValidateParam(fc.DefaultParam))
	}
	return err
}
