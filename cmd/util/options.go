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
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pingcap/log"
	"github.com/spf13/cobra"
	"github.com/victoriarmitchell/fraud-detection/pkg/config"
	cerror "github.com/victoriarmitchell/fraud-detection/pkg/errors"
	"github.com/victoriarmitchell/fraud-detection/pkg/logutil"
	"github.com/victoriarmitchell/fraud-detection/pkg/metrics"
	"github.com/victoriarmitchell/fraud-detection/pkg/pipeline"
	"go.uber.org/zap"
)

// Exit codes of the training binaries.
const (
	ExitCodeExecuteFailed = 1
)

// Options are the flags shared by the training binaries.
type Options struct {
	ParamsPath         string
	PlatformConfigPath string
	Platform           string
	LogLevel           string
	LogFile            string
	Pushgateway        string
	PrintReport        bool
}

// NewOptions returns the defaults. The platform defaults to the PLATFORM
// environment variable.
func NewOptions() *Options {
	return &Options{
		ParamsPath:         config.DefaultParamsPath,
		PlatformConfigPath: config.DefaultPlatformConfigPath,
		Platform:           os.Getenv(config.PlatformEnv),
		LogLevel:           logutil.DefaultLogLevel,
		PrintReport:        true,
	}
}

// AddFlags binds the options to cmd.
func (o *Options) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.ParamsPath, "params", o.ParamsPath, "path of the run parameters document")
	cmd.Flags().StringVar(&o.PlatformConfigPath, "platform-config", o.PlatformConfigPath,
		"path of the platform config document, empty to save every model to "+config.DefaultModelPath)
	cmd.Flags().StringVar(&o.Platform, "platform", o.Platform,
		fmt.Sprintf("target platform, one of %s (defaults to $%s)", platformNames(), config.PlatformEnv))
	cmd.Flags().StringVar(&o.LogLevel, "log-level", o.LogLevel, "log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&o.LogFile, "log-file", o.LogFile, "log file path, empty to log to stdout")
	cmd.Flags().StringVar(&o.Pushgateway, "pushgateway", o.Pushgateway, "prometheus pushgateway url to push run metrics to")
	cmd.Flags().BoolVar(&o.PrintReport, "report", o.PrintReport, "print the classification report of the test partition")
}

func platformNames() string {
	names := []string{string(config.PlatformLocal)}
	for _, p := range config.KnownPlatforms {
		names = append(names, string(p))
	}
	return strings.Join(names, ", ")
}

// Run initializes logging, executes a pipeline and writes its summary to out.
// Metrics are pushed even when the run fails.
func (o *Options) Run(ctx context.Context, out io.Writer, publish *config.PublishConfig) (*pipeline.RunResult, error) {
	if err := logutil.InitLogger(&logutil.Config{Level: o.LogLevel, File: o.LogFile}); err != nil {
		return nil, err
	}
	registry := metrics.NewRegistry()

	p := pipeline.New(pipeline.Options{
		ParamsPath:         o.ParamsPath,
		PlatformConfigPath: o.PlatformConfigPath,
		Platform:           config.ParsePlatform(o.Platform),
		Publish:            publish,
	})
	res, err := p.Run(ctx)

	if o.Pushgateway != "" {
		if pushErr := metrics.Push(ctx, o.Pushgateway, registry, p.RunID()); pushErr != nil {
			log.Warn("push metrics failed", zap.String("pushgateway", o.Pushgateway), zap.Error(pushErr))
		}
	}
	if err != nil {
		return nil, err
	}

	if o.PrintReport {
		fmt.Fprintln(out, res.Report.String())
	}
	fmt.Fprintf(out, "Model saved to %s\n", res.ModelPath)
	if res.RemoteURI != "" {
		fmt.Fprintf(out, "Model uploaded to %s\n", res.RemoteURI)
	}
	if res.RegisteredModel != "" {
		fmt.Fprintf(out, "Model registered as %s\n", res.RegisteredModel)
	}
	return res, nil
}

// PublishOptions are the flags of the publishing binary.
type PublishOptions struct {
	ConfigPath string
	Bucket     string
	Project    string
	Region     string
	StorageURI string
	Registry   string
}

// AddFlags binds the options to cmd. Bucket, project and region are required
// unless the config file supplies them; see PublishConfig.
func (o *PublishOptions) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.ConfigPath, "config", "", "publish config file (TOML)")
	cmd.Flags().StringVar(&o.Bucket, "bucket", "", "GCS bucket the model is uploaded to, with or without gs://")
	cmd.Flags().StringVar(&o.Project, "project", "", "GCP project of the model registry")
	cmd.Flags().StringVar(&o.Region, "region", "", "region of the model registry")
	cmd.Flags().StringVar(&o.StorageURI, "storage-uri", "",
		"upload destination (gs://, s3://, azure://, file://), overrides --bucket")
	cmd.Flags().StringVar(&o.Registry, "registry", string(config.RegistryVertexAI),
		"model registry (vertex_ai, sagemaker, none)")
}

// PublishConfig merges the config file with the flags. Flags given on the
// command line win over file values. Only the presence of the destination,
// project and region is checked here; ValidateAndAdjust does the rest.
func (o *PublishOptions) PublishConfig(cmd *cobra.Command) (*config.PublishConfig, error) {
	cfg := config.NewPublishConfig()
	cfg.Registry = config.RegistryVertexAI
	if o.ConfigPath != "" {
		var err error
		if cfg, err = config.LoadPublishConfig(o.ConfigPath); err != nil {
			return nil, err
		}
	}

	flags := cmd.Flags()
	override := func(name string, dst *string, value string) {
		if flags.Changed(name) || (*dst == "" && value != "") {
			*dst = value
		}
	}
	override("bucket", &cfg.Bucket, o.Bucket)
	override("project", &cfg.Project, o.Project)
	override("region", &cfg.Region, o.Region)
	override("storage-uri", &cfg.StorageURI, o.StorageURI)
	if flags.Changed("registry") || o.ConfigPath == "" {
		cfg.Registry = config.RegistryKind(o.Registry)
	}
	if missing := missingPublishSettings(cfg); len(missing) > 0 {
		return nil, cerror.ErrInvalidPublishConfig.GenWithStackByArgs(
			fmt.Sprintf("required flag(s) %s not set", strings.Join(missing, ", ")))
	}
	return cfg, nil
}

// missingPublishSettings lists the flags the merged config still lacks. A
// storage uri replaces the bucket, and project is only needed by Vertex AI.
func missingPublishSettings(cfg *config.PublishConfig) []string {
	var missing []string
	if strings.TrimSpace(cfg.Bucket) == "" && strings.TrimSpace(cfg.StorageURI) == "" {
		missing = append(missing, `"bucket"`)
	}
	registry := config.RegistryKind(strings.ToLower(strings.TrimSpace(string(cfg.Registry))))
	if strings.TrimSpace(cfg.Project) == "" && registry == config.RegistryVertexAI {
		missing = append(missing, `"project"`)
	}
	if strings.TrimSpace(cfg.Region) == "" && registry != config.RegistryNone && registry != "" {
		missing = append(missing, `"region"`)
	}
	return missing
}
