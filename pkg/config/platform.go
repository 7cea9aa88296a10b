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
	"strings"

	cerror "github.com/victoriarmitchell/fraud-detection/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultPlatformConfigPath is the platform mapping relative to the
	// working directory.
	DefaultPlatformConfigPath = "config/platform_config.yaml"
	// DefaultModelPath is used for local runs and unknown platforms.
	DefaultModelPath = "models/fraud_model.pkl"
	// PlatformEnv names the environment variable the command line tools read
	// the platform from.
	PlatformEnv = "PLATFORM"
)

// Platform identifies the deployment target of a run.
type Platform string

const (
	// PlatformLocal saves the model to DefaultModelPath.
	PlatformLocal Platform = "local"
	// PlatformVertexAI is Google Cloud Vertex AI.
	PlatformVertexAI Platform = "vertex_ai"
	// PlatformSageMaker is Amazon SageMaker.
	PlatformSageMaker Platform = "sagemaker"
	// PlatformAzureML is Azure Machine Learning.
	PlatformAzureML Platform = "azure_ml"
)

// KnownPlatforms lists the platforms that have an entry in the platform config.
var KnownPlatforms = []Platform{PlatformVertexAI, PlatformSageMaker, PlatformAzureML}

// ParsePlatform maps a platform name to a Platform. Empty and unrecognized
// names select PlatformLocal.
func ParsePlatform(s string) Platform {
	p := Platform(strings.TrimSpace(s))
	for _, known := range KnownPlatforms {
		if p == known {
			return p
		}
	}
	return PlatformLocal
}

// PlatformConfig maps every known platform to the path its model is saved to.
type PlatformConfig struct {
	paths map[Platform]string
}

// NewPlatformConfig copies paths into a PlatformConfig.
func NewPlatformConfig(paths map[Platform]string) PlatformConfig {
	cp := make(map[Platform]string, len(paths))
	for k, v := range paths {
		cp[k] = v
	}
	return PlatformConfig{paths: cp}
}

// ModelPath returns the save location for p.
func (c PlatformConfig) ModelPath(p Platform) string {
	if p == PlatformLocal {
		return DefaultModelPath
	}
	if path, ok := c.paths[p]; ok {
		return path
	}
	return DefaultModelPath
}

type platformEntry struct {
	ModelPath *string `yaml:"model_path"`
}

// LoadPlatformConfig reads the `<platform>.model_path` keys of every known
// platform.
func LoadPlatformConfig(path string) (PlatformConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return PlatformConfig{}, cerror.WrapError(cerror.ErrConfigInvalid, err, path)
	}
	var f map[string]*platformEntry
	if err := yaml.Unmarshal(data, &f); err != nil {
		return PlatformConfig{}, cerror.WrapError(cerror.ErrConfigInvalid, err, path)
	}

	paths := make(map[Platform]string, len(KnownPlatforms))
	for _, p := range KnownPlatforms {
		entry, ok := f[string(p)]
		if !ok || entry == nil || entry.ModelPath == nil || strings.TrimSpace(*entry.ModelPath) == "" {
			return PlatformConfig{}, cerror.ErrConfigKeyMissing.GenWithStackByArgs(path, string(p)+".model_path")
		}
		paths[p] = strings.TrimSpace(*entry.ModelPath)
	}
	return PlatformConfig{paths: paths}, nil
}
