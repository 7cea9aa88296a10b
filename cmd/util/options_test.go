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

package util

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"github.com/victoriarmitchell/fraud-detection/pkg/config"
	cerror "github.com/victoriarmitchell/fraud-detection/pkg/errors"
)

func TestNewOptionsPlatformFromEnv(t *testing.T) {
	t.Setenv(config.PlatformEnv, "sagemaker")
	opts := NewOptions()
	require.Equal(t, "sagemaker", opts.Platform)

	cmd := &cobra.Command{Use: "test"}
	opts.AddFlags(cmd)
	require.NoError(t, cmd.Flags().Parse([]string{"--platform", "vertex_ai"}))
	require.Equal(t, "vertex_ai", opts.Platform)
	require.Equal(t, config.DefaultParamsPath, opts.ParamsPath)
	require.True(t, opts.PrintReport)
}

func newPublishCommand(t *testing.T, args ...string) (*cobra.Command, *PublishOptions) {
	t.Helper()
	opts := &PublishOptions{}
	cmd := &cobra.Command{Use: "test"}
	opts.AddFlags(cmd)
	require.NoError(t, cmd.Flags().Parse(args))
	return cmd, opts
}

func TestPublishConfigFromFlags(t *testing.T) {
	t.Parallel()

	cmd, opts := newPublishCommand(t, "--bucket", "gs://my-bucket/", "--project", "my-project", "--region", "us-central1")
	cfg, err := opts.PublishConfig(cmd)
	require.NoError(t, err)
	require.Equal(t, config.RegistryVertexAI, cfg.Registry)
	require.NoError(t, cfg.ValidateAndAdjust())
	require.Equal(t, "my-bucket", cfg.Bucket)
	require.Equal(t, "gs://my-bucket/models/fraud_model.pkl", cfg.ObjectURI())
	require.Equal(t, "gs://my-bucket/models", cfg.ArtifactDirURI())
}

func TestPublishConfigFileAndFlags(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "publish.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
bucket = "file-bucket"
project = "file-project"
region = "europe-west4"
registry = "none"
timeout = "30s"
`), 0o644))

	cmd, opts := newPublishCommand(t, "--config", path, "--bucket", "flag-bucket")
	cfg, err := opts.PublishConfig(cmd)
	require.NoError(t, err)
	require.Equal(t, "flag-bucket", cfg.Bucket)
	require.Equal(t, "file-project", cfg.Project)
	require.Equal(t, "europe-west4", cfg.Region)
	require.Equal(t, config.RegistryNone, cfg.Registry)
	require.Equal(t, "30s", cfg.Timeout)

	cmd, opts = newPublishCommand(t, "--config", path, "--registry", "vertex_ai")
	cfg, err = opts.PublishConfig(cmd)
	require.NoError(t, err)
	require.Equal(t, config.RegistryVertexAI, cfg.Registry)
	require.Equal(t, "file-bucket", cfg.Bucket)

	cmd, opts = newPublishCommand(t, "--config", filepath.Join(t.TempDir(), "absent.toml"))
	_, err = opts.PublishConfig(cmd)
	require.True(t, cerror.IsConfigError(err))
}

func TestPublishConfigRequiredSettings(t *testing.T) {
	t.Parallel()

	cmd, opts := newPublishCommand(t)
	_, err := opts.PublishConfig(cmd)
	require.True(t, cerror.HasCode(err, cerror.ErrInvalidPublishConfig))
	require.Contains(t, err.Error(), `required flag(s) "bucket", "project", "region" not set`)

	cmd, opts = newPublishCommand(t, "--bucket", "b", "--region", "us-central1")
	_, err = opts.PublishConfig(cmd)
	require.Error(t, err)
	require.Contains(t, err.Error(), `required flag(s) "project" not set`)

	cmd, opts = newPublishCommand(t, "--storage-uri", "s3://models/fraud", "--registry", "sagemaker", "--region", "eu-west-1")
	cfg, err := opts.PublishConfig(cmd)
	require.NoError(t, err)
	require.Equal(t, config.RegistrySageMaker, cfg.Registry)
	require.Empty(t, cfg.Bucket)

	cmd, opts = newPublishCommand(t, "--config", filepath.Join("..", "..", "config", "publish.toml"))
	cfg, err = opts.PublishConfig(cmd)
	require.NoError(t, err)
	require.NoError(t, cfg.ValidateAndAdjust())
	require.Equal(t, "gs://my-bucket/models/fraud_model.pkl", cfg.ObjectURI())
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	params := filepath.Join(dir, "params.yaml")
	require.NoError(t, os.WriteFile(params, []byte(
		"model:\n  random_state: 7\n  test_size: 0.25\n  solver: lbfgs\n"), 0o644))
	modelPath := filepath.Join(dir, "out", "vertex.pkl")
	platformConfig := filepath.Join(dir, "platform_config.yaml")
	require.NoError(t, os.WriteFile(platformConfig, []byte(fmt.Sprintf(
		"vertex_ai:\n  model_path: %s\nsagemaker:\n  model_path: s.pkl\nazure_ml:\n  model_path: a.pkl\n",
		modelPath)), 0o644))

	opts := NewOptions()
	opts.ParamsPath = params
	opts.PlatformConfigPath = platformConfig
	opts.Platform = "vertex_ai"
	opts.LogFile = filepath.Join(dir, "train.log")

	var out bytes.Buffer
	res, err := opts.Run(context.Background(), &out, nil)
	require.NoError(t, err)
	require.Equal(t, modelPath, res.ModelPath)
	require.Equal(t, 250, res.TestSamples)
	require.Contains(t, out.String(), "precision")
	require.Contains(t, out.String(), "weighted avg")
	require.Contains(t, out.String(), "Model saved to "+modelPath)
	require.NotContains(t, out.String(), "uploaded")

	_, err = os.Stat(modelPath)
	require.NoError(t, err)

	opts.ParamsPath = filepath.Join(dir, "absent.yaml")
	out.Reset()
	_, err = opts.Run(context.Background(), &out, nil)
	require.True(t, cerror.IsConfigError(err))
	require.Empty(t, out.String())
}
