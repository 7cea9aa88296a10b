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
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	cerror "github.com/victoriarmitchell/fraud-detection/pkg/errors"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadRunConfig(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	t.Run("valid", func(t *testing.T) {
		path := writeFile(t, dir, "params.yaml", `
model:
  random_state: 42
  test_size: 0.2
  solver: liblinear
data:
  source: synthetic
`)
		cfg, err := LoadRunConfig(path)
		require.NoError(t, err)
		require.Equal(t, RunConfig{RandomState: 42, TestSize: 0.2, Solver: "liblinear"}, cfg)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadRunConfig(filepath.Join(dir, "absent.yaml"))
		require.Error(t, err)
		require.True(t, cerror.HasCode(err, cerror.ErrConfigInvalid))
	})

	t.Run("unparseable", func(t *testing.T) {
		path := writeFile(t, dir, "broken.yaml", "model: [random_state: 1\n")
		_, err := LoadRunConfig(path)
		require.True(t, cerror.HasCode(err, cerror.ErrConfigInvalid))
	})

	t.Run("missing keys", func(t *testing.T) {
		cases := map[string]string{
			"model":              "other: 1\n",
			"model.random_state": "model:\n  test_size: 0.2\n  solver: lbfgs\n",
			"model.test_size":    "model:\n  random_state: 1\n  solver: lbfgs\n",
			"model.solver":       "model:\n  random_state: 1\n  test_size: 0.2\n",
		}
		for key, content := range cases {
			path := writeFile(t, dir, "missing.yaml", content)
			_, err := LoadRunConfig(path)
			require.True(t, cerror.HasCode(err, cerror.ErrConfigKeyMissing), "key %s", key)
			require.Contains(t, err.Error(), key)
			require.True(t, cerror.IsConfigError(err))
		}
	})

	t.Run("empty document", func(t *testing.T) {
		path := writeFile(t, dir, "empty.yaml", "")
		_, err := LoadRunConfig(path)
		require.True(t, cerror.HasCode(err, cerror.ErrConfigKeyMissing))
	})

	t.Run("test size out of range", func(t *testing.T) {
		for _, v := range []string{"0", "1", "-0.1", "1.5"} {
			path := writeFile(t, dir, "range.yaml",
				"model:\n  random_state: 1\n  test_size: "+v+"\n  solver: lbfgs\n")
			_, err := LoadRunConfig(path)
			require.True(t, cerror.HasCode(err, cerror.ErrInvalidTestSize), "test_size %s", v)
		}
	})
}

func TestLoadPlatformConfig(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	path := writeFile(t, dir, "config/platform_config.yaml", `
vertex_ai:
  model_path: gcs/models/fraud_model.pkl
sagemaker:
  model_path: /opt/ml/model/fraud_model.pkl
azure_ml:
  model_path: outputs/fraud_model.pkl
`)
	cfg, err := LoadPlatformConfig(path)
	require.NoError(t, err)
	require.Equal(t, "gcs/models/fraud_model.pkl", cfg.ModelPath(PlatformVertexAI))
	require.Equal(t, "/opt/ml/model/fraud_model.pkl", cfg.ModelPath(PlatformSageMaker))
	require.Equal(t, "outputs/fraud_model.pkl", cfg.ModelPath(PlatformAzureML))
	require.Equal(t, DefaultModelPath, cfg.ModelPath(PlatformLocal))

	missing := writeFile(t, dir, "partial.yaml", `
vertex_ai:
  model_path: X
sagemaker:
  model_path: Y
`)
	_, err = LoadPlatformConfig(missing)
	require.True(t, cerror.HasCode(err, cerror.ErrConfigKeyMissing))
	require.Contains(t, err.Error(), "azure_ml.model_path")
}

func TestPlatformResolution(t *testing.T) {
	t.Parallel()
	cfg := NewPlatformConfig(map[Platform]string{
		PlatformVertexAI:  "X",
		PlatformSageMaker: "Y",
		PlatformAzureML:   "Z",
	})
	tests := []struct {
		env      string
		expected string
	}{
		{"vertex_ai", "X"},
		{"sagemaker", "Y"},
		{"azure_ml", "Z"},
		{"", DefaultModelPath},
		{"local", DefaultModelPath},
		{"kubeflow", DefaultModelPath},
		{"VERTEX_AI", DefaultModelPath},
	}
	for _, tt := range tests {
		require.Equal(t, tt.expected, cfg.ModelPath(ParsePlatform(tt.env)), "platform %q", tt.env)
	}

	// the mapping is copied on construction
	paths := map[Platform]string{PlatformVertexAI: "X"}
	cfg = NewPlatformConfig(paths)
	paths[PlatformVertexAI] = "changed"
	require.Equal(t, "X", cfg.ModelPath(PlatformVertexAI))
	require.Equal(t, DefaultModelPath, cfg.ModelPath(PlatformAzureML))
}

func TestNormalizeBucket(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"gs://my-bucket/":   "my-bucket",
		"gs://my-bucket":    "my-bucket",
		"my-bucket":         "my-bucket",
		"/my-bucket/":       "my-bucket",
		"  gs://b/dir/  ":   "b/dir",
		"gs:///my-bucket//": "my-bucket",
	}
	for in, expected := range tests {
		require.Equal(t, expected, NormalizeBucket(in), "input %q", in)
	}
}

func TestPublishConfigValidateAndAdjust(t *testing.T) {
	t.Parallel()

	cfg := NewPublishConfig()
	require.NoError(t, cfg.ValidateAndAdjust())
	require.False(t, cfg.Enabled())

	cfg = NewPublishConfig()
	cfg.Registry = RegistryVertexAI
	require.True(t, cerror.HasCode(cfg.ValidateAndAdjust(), cerror.ErrInvalidPublishConfig))

	cfg = NewPublishConfig()
	cfg.Bucket = "gs://my-bucket/"
	cfg.Project = "proj"
	cfg.Region = "us-central1"
	cfg.Registry = RegistryVertexAI
	require.NoError(t, cfg.ValidateAndAdjust())
	require.Equal(t, "my-bucket", cfg.Bucket)
	require.Equal(t, "gs://my-bucket", cfg.StorageURI)
	require.Equal(t, "gs://my-bucket/models/fraud_model.pkl", cfg.ObjectURI())
	require.Equal(t, "gs://my-bucket/models", cfg.ArtifactDirURI())
	require.Equal(t, DefaultRemoteTimeout, cfg.RemoteTimeout())

	cfg = NewPublishConfig()
	cfg.StorageURI = "s3://models-bucket/fraud"
	cfg.Registry = RegistryVertexAI
	cfg.Project = "proj"
	cfg.Region = "us-central1"
	require.True(t, cerror.HasCode(cfg.ValidateAndAdjust(), cerror.ErrInvalidPublishConfig))

	cfg = NewPublishConfig()
	cfg.StorageURI = "s3://models-bucket/fraud/"
	cfg.Registry = RegistrySageMaker
	cfg.Region = "us-west-2"
	require.True(t, cerror.HasCode(cfg.ValidateAndAdjust(), cerror.ErrInvalidPublishConfig))
	cfg.SageMakerRoleARN = "arn:aws:iam::123456789012:role/sm"
	require.NoError(t, cfg.ValidateAndAdjust())
	require.Equal(t, "s3://models-bucket/fraud/models", cfg.ArtifactDirURI())

	cfg = NewPublishConfig()
	cfg.Bucket = "b"
	cfg.Registry = "mlflow"
	require.True(t, cerror.HasCode(cfg.ValidateAndAdjust(), cerror.ErrInvalidPublishConfig))

	cfg = NewPublishConfig()
	cfg.Bucket = "b"
	cfg.Timeout = "soon"
	require.True(t, cerror.HasCode(cfg.ValidateAndAdjust(), cerror.ErrInvalidPublishConfig))
}

func TestLoadPublishConfig(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	path := writeFile(t, dir, "publish.toml", `
bucket = "gs://fraud-models/"
project = "fraud-project"
region = "europe-west4"
registry = "vertex_ai"
timeout = "90s"
`)
	cfg, err := LoadPublishConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.ValidateAndAdjust())
	require.Equal(t, "fraud-models", cfg.Bucket)
	require.Equal(t, DefaultBlobName, cfg.BlobName)
	require.Equal(t, DefaultServingImage, cfg.ServingImage)
	require.Equal(t, 90*time.Second, cfg.RemoteTimeout())

	unknown := writeFile(t, dir, "unknown.toml", "bucket = \"b\"\nzone = \"a\"\n")
	_, err = LoadPublishConfig(unknown)
	require.True(t, cerror.HasCode(err, cerror.ErrInvalidPublishConfig))
	require.Contains(t, err.Error(), "unknown configuration options: zone")

	broken := writeFile(t, dir, "broken.toml", "bucket = \n")
	_, err = LoadPublishConfig(broken)
	require.True(t, cerror.HasCode(err, cerror.ErrInvalidPublishConfig))
	require.True(t, cerror.IsConfigError(err))

	_, err = LoadPublishConfig(filepath.Join(dir, "absent.toml"))
	require.True(t, cerror.HasCode(err, cerror.ErrConfigInvalid))
}

func TestShippedConfigs(t *testing.T) {
	t.Parallel()
	root := filepath.Join("..", "..")

	run, err := LoadRunConfig(filepath.Join(root, DefaultParamsPath))
	require.NoError(t, err)
	require.Equal(t, RunConfig{RandomState: 42, TestSize: 0.2, Solver: "liblinear"}, run)

	platform, err := LoadPlatformConfig(filepath.Join(root, DefaultPlatformConfigPath))
	require.NoError(t, err)
	for _, p := range KnownPlatforms {
		require.NotEqual(t, DefaultModelPath, platform.ModelPath(p))
	}

	publish, err := LoadPublishConfig(filepath.Join(root, "config", "publish.toml"))
	require.NoError(t, err)
	require.NoError(t, publish.ValidateAndAdjust())
	require.Equal(t, RegistryVertexAI, publish.Registry)
	require.Equal(t, "gs://my-bucket/models", publish.ArtifactDirURI())
}
