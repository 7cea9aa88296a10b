// Copyright 2026 PingCAP, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"os"
	"sort"

	"github.com/pingcap/log"
	cerror "github.com/victoriarmitchell/fraud-detection/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// DefaultParamsPath is where the run parameters live relative to the
// working directory.
const DefaultParamsPath = "params.yaml"

// RunConfig holds the parameters of a single training run.
// It is a value type and is never modified after LoadRunConfig returns.
type RunConfig struct {
	RandomState int64
	TestSize    float64
	Solver      string
}

type paramsFile struct {
	Model *struct {
		RandomState *int64   `yaml:"random_state"`
		TestSize    *float64 `yaml:"test_size"`
		Solver      *string  `yaml:"solver"`
	} `yaml:"model"`
}

// LoadRunConfig reads the `model` section of a params document.
func LoadRunConfig(path string) (RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RunConfig{}, cerror.WrapError(cerror.ErrConfigInvalid, err, path)
	}
	var f paramsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return RunConfig{}, cerror.WrapError(cerror.ErrConfigInvalid, err, path)
	}
	warnUnknownSections(path, data, "model")

	if f.Model == nil {
		return RunConfig{}, cerror.ErrConfigKeyMissing.GenWithStackByArgs(path, "model")
	}
	if f.Model.RandomState == nil {
		return RunConfig{}, cerror.ErrConfigKeyMissing.GenWithStackByArgs(path, "model.random_state")
	}
	if f.Model.TestSize == nil {
		return RunConfig{}, cerror.ErrConfigKeyMissing.GenWithStackByArgs(path, "model.test_size")
	}
	if f.Model.Solver == nil || *f.Model.Solver == "" {
		return RunConfig{}, cerror.ErrConfigKeyMissing.GenWithStackByArgs(path, "model.solver")
	}

	cfg := RunConfig{
		RandomState: *f.Model.RandomState,
		TestSize:    *f.Model.TestSize,
		Solver:      *f.Model.Solver,
	}
	if err := cfg.Validate(); err != nil {
		return RunConfig{}, err
	}
	return cfg, nil
}

// Validate checks the ranges of the run parameters.
func (c RunConfig) Validate() error {
	if !(c.TestSize > 0 && c.TestSize < 1) {
		return cerror.ErrInvalidTestSize.GenWithStackByArgs(c.TestSize, "must be in (0, 1)")
	}
	if c.RandomState < 0 {
		return cerror.ErrConfigInvalid.GenWithStackByArgs("model.random_state")
	}
	return nil
}

// warnUnknownSections logs top level keys that this program does not read.
// Params documents are often shared with other tools, so they are not an error.
func warnUnknownSections(path string, data []byte, known ...string) {
	var top map[string]any
	if err := yaml.Unmarshal(data, &top); err != nil {
		return
	}
	var unknown []string
	for k := range top {
		found := false
		for _, kn := range known {
			if k == kn {
				found = true
				break
			}
		}
		if !found {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		log.Warn("unknown configuration sections found",
			zap.String("path", path),
			zap.Strings("sections", unknown))
	}
}
