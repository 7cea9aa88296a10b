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
	"fmt"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	cerror "github.com/victoriarmitchell/fraud-detection/pkg/errors"
	"github.com/victoriarmitchell/fraud-detection/pkg/util"
)

// RegistryKind selects the model registry an uploaded artifact is registered with.
type RegistryKind string

const (
	// RegistryNone skips registration.
	RegistryNone RegistryKind = "none"
	// RegistryVertexAI registers with the Vertex AI Model Registry.
	RegistryVertexAI RegistryKind = "vertex_ai"
	// RegistrySageMaker creates an Amazon SageMaker model.
	RegistrySageMaker RegistryKind = "sagemaker"
)

const (
	// DefaultBlobName is the object name of the uploaded artifact.
	DefaultBlobName = "models/fraud_model.pkl"
	// DefaultDisplayName is the display name of registered models.
	DefaultDisplayName = "fraud-detection-model"
	// DefaultServingImage is the prediction container registered with the model.
	DefaultServingImage = "us-docker.pkg.dev/vertex-ai/prediction/sklearn-cpu.1-0:latest"
	// DefaultRemoteTimeout bounds each remote call when the caller sets no deadline.
	DefaultRemoteTimeout = 5 * time.Minute

	schemeGCS = "gs"
	schemeS3  = "s3"
)

// PublishConfig holds the optional remote publish settings of a run.
type PublishConfig struct {
	// StorageURI is the base location of the uploaded artifact, e.g.
	// gs://bucket, s3://bucket/prefix or file:///tmp/mirror. When empty it is
	// derived from Bucket.
	StorageURI string `toml:"storage-uri" json:"storage-uri"`
	// Bucket is a GCS bucket name. A gs:// prefix and surrounding slashes are
	// stripped.
	Bucket   string `toml:"bucket" json:"bucket"`
	BlobName string `toml:"blob-name" json:"blob-name"`

	Project string `toml:"project" json:"project"`
	Region  string `toml:"region" json:"region"`

	Registry         RegistryKind `toml:"registry" json:"registry"`
	DisplayName      string       `toml:"display-name" json:"display-name"`
	ServingImage     string       `toml:"serving-image" json:"serving-image"`
	SageMakerRoleARN string       `toml:"sagemaker-role-arn" json:"sagemaker-role-arn"`

	AzureConnectionString string `toml:"azure-connection-string" json:"-"`

	Timeout string `toml:"timeout" json:"timeout"`
}

// NewPublishConfig returns a PublishConfig with default values.
func NewPublishConfig() *PublishConfig {
	return &PublishConfig{
		BlobName:     DefaultBlobName,
		Registry:     RegistryNone,
		DisplayName:  DefaultDisplayName,
		ServingImage: DefaultServingImage,
		Timeout:      DefaultRemoteTimeout.String(),
	}
}

// LoadPublishConfig strictly decodes a TOML file on top of the defaults.
func LoadPublishConfig(path string) (*PublishConfig, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, cerror.WrapError(cerror.ErrConfigInvalid, err, path)
	}
	cfg := NewPublishConfig()
	if err := util.StrictDecodeFile(path, "publish", cfg); err != nil {
		return nil, cerror.WrapError(cerror.ErrInvalidPublishConfig, err, path)
	}
	return cfg, nil
}

// NormalizeBucket strips every gs:// scheme marker and any leading or trailing
// slashes from a bucket name.
func NormalizeBucket(bucket string) string {
	bucket = strings.ReplaceAll(strings.TrimSpace(bucket), "gs://", "")
	return strings.Trim(bucket, "/")
}

// Enabled reports whether an upload destination is configured.
func (c *PublishConfig) Enabled() bool {
	return c != nil && (c.StorageURI != "" || c.Bucket != "")
}

// ValidateAndAdjust normalizes the configuration and checks that the
// selected registry has everything it needs.
func (c *PublishConfig) ValidateAndAdjust() error {
	c.Bucket = NormalizeBucket(c.Bucket)
	c.StorageURI = strings.TrimRight(strings.TrimSpace(c.StorageURI), "/")
	c.BlobName = strings.Trim(strings.TrimSpace(c.BlobName), "/")
	c.Project = strings.TrimSpace(c.Project)
	c.Region = strings.TrimSpace(c.Region)
	c.Registry = RegistryKind(strings.ToLower(strings.TrimSpace(string(c.Registry))))
	if c.Registry == "" {
		c.Registry = RegistryNone
	}
	if c.BlobName == "" {
		c.BlobName = DefaultBlobName
	}
	if c.DisplayName == "" {
		c.DisplayName = DefaultDisplayName
	}
	if c.ServingImage == "" {
		c.ServingImage = DefaultServingImage
	}
	if c.Timeout == "" {
		c.Timeout = DefaultRemoteTimeout.String()
	}
	if d, err := time.ParseDuration(c.Timeout); err != nil || d <= 0 {
		return cerror.ErrInvalidPublishConfig.GenWithStackByArgs(
			fmt.Sprintf("timeout %q must be a positive duration", c.Timeout))
	}

	if !c.Enabled() {
		if c.Registry != RegistryNone {
			return cerror.ErrInvalidPublishConfig.GenWithStackByArgs(
				"registering a model requires a bucket or storage-uri")
		}
		return nil
	}
	if c.StorageURI == "" {
		if c.Bucket == "" {
			return cerror.ErrInvalidPublishConfig.GenWithStackByArgs("bucket is empty")
		}
		c.StorageURI = schemeGCS + "://" + c.Bucket
	}
	u, err := url.Parse(c.StorageURI)
	if err != nil || u.Scheme == "" {
		return cerror.ErrStorageURIInvalid.GenWithStackByArgs(c.StorageURI)
	}

	switch c.Registry {
	case RegistryNone:
	case RegistryVertexAI:
		if c.Project == "" || c.Region == "" {
			return cerror.ErrInvalidPublishConfig.GenWithStackByArgs(
				"vertex_ai registry requires project and region")
		}
		if u.Scheme != schemeGCS {
			return cerror.ErrInvalidPublishConfig.GenWithStackByArgs(
				"vertex_ai registry requires a gs:// storage uri")
		}
	case RegistrySageMaker:
		if c.Region == "" || c.SageMakerRoleARN == "" {
			return cerror.ErrInvalidPublishConfig.GenWithStackByArgs(
				"sagemaker registry requires region and sagemaker-role-arn")
		}
		if u.Scheme != schemeS3 {
			return cerror.ErrInvalidPublishConfig.GenWithStackByArgs(
				"sagemaker registry requires an s3:// storage uri")
		}
	default:
		return cerror.ErrInvalidPublishConfig.GenWithStackByArgs(
			fmt.Sprintf("unknown registry %q", c.Registry))
	}
	return nil
}

// RemoteTimeout returns the parsed Timeout, falling back to the default.
func (c *PublishConfig) RemoteTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return DefaultRemoteTimeout
	}
	return d
}

// ObjectURI is the full location of the uploaded artifact.
func (c *PublishConfig) ObjectURI() string {
	return c.StorageURI + "/" + c.BlobName
}

// ArtifactDirURI is the directory holding the uploaded artifact, which is
// what model registries expect as the artifact location.
func (c *PublishConfig) ArtifactDirURI() string {
	dir := path.Dir(c.BlobName)
	if dir == "." || dir == "/" {
		return c.StorageURI
	}
	return c.StorageURI + "/" + dir
}
