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

package registry

import (
	"context"
	"errors"
	"testing"

	"cloud.google.com/go/aiplatform/apiv1/aiplatformpb"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
	"github.com/stretchr/testify/require"
	"github.com/victoriarmitchell/fraud-detection/pkg/config"
	cerror "github.com/victoriarmitchell/fraud-detection/pkg/errors"
)

type fakeUploader struct {
	requests []*aiplatformpb.UploadModelRequest
	err      error
	closed   bool
}

func (f *fakeUploader) UploadModel(
	_ context.Context, req *aiplatformpb.UploadModelRequest,
) (*aiplatformpb.UploadModelResponse, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &aiplatformpb.UploadModelResponse{
		Model: "projects/my-project/locations/us-central1/models/123",
	}, nil
}

func (f *fakeUploader) Close() error {
	f.closed = true
	return nil
}

func publishConfig(t *testing.T, registry config.RegistryKind) *config.PublishConfig {
	t.Helper()
	cfg := config.NewPublishConfig()
	cfg.Registry = registry
	cfg.Project = "my-project"
	cfg.Region = "us-central1"
	switch registry {
	case config.RegistrySageMaker:
		cfg.StorageURI = "s3://my-bucket"
		cfg.SageMakerRoleARN = "arn:aws:iam::123456789012:role/sagemaker"
	default:
		cfg.Bucket = "gs://my-bucket/"
	}
	require.NoError(t, cfg.ValidateAndAdjust())
	return cfg
}

func TestVertexAIRegister(t *testing.T) {
	t.Parallel()

	cfg := publishConfig(t, config.RegistryVertexAI)
	uploader := &fakeUploader{}
	r := newVertexAIRegistry(cfg.Project, cfg.Region, uploader)

	name, err := r.Register(context.Background(), SpecFromConfig(cfg, "run-1"))
	require.NoError(t, err)
	require.Equal(t, "projects/my-project/locations/us-central1/models/123", name)

	require.Len(t, uploader.requests, 1)
	req := uploader.requests[0]
	require.Equal(t, "projects/my-project/locations/us-central1", req.GetParent())
	require.Equal(t, "fraud-detection-model", req.GetModel().GetDisplayName())
	require.Equal(t, "gs://my-bucket/models", req.GetModel().GetArtifactUri())
	require.Equal(t,
		"us-docker.pkg.dev/vertex-ai/prediction/sklearn-cpu.1-0:latest",
		req.GetModel().GetContainerSpec().GetImageUri())
	require.Equal(t, map[string]string{"run-id": "run-1"}, req.GetModel().GetLabels())

	// registration is not idempotent
	_, err = r.Register(context.Background(), SpecFromConfig(cfg, "run-1"))
	require.NoError(t, err)
	require.Len(t, uploader.requests, 2)

	require.NoError(t, r.Close())
	require.True(t, uploader.closed)
}

func TestVertexAIRegisterError(t *testing.T) {
	t.Parallel()

	uploader := &fakeUploader{err: errors.New("permission denied")}
	r := newVertexAIRegistry("p", "europe-west4", uploader)
	_, err := r.Register(context.Background(), ModelSpec{DisplayName: "m"})
	require.Error(t, err)
	require.True(t, cerror.IsRegistryError(err))
	require.Contains(t, err.Error(), "permission denied")
	require.Contains(t, err.Error(), "UploadModel")
}

type fakeSageMaker struct {
	inputs []*sagemaker.CreateModelInput
	err    error
}

func (f *fakeSageMaker) CreateModel(
	_ context.Context, in *sagemaker.CreateModelInput, _ ...func(*sagemaker.Options),
) (*sagemaker.CreateModelOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return &sagemaker.CreateModelOutput{
		ModelArn: aws.String("arn:aws:sagemaker:us-east-1:123456789012:model/" + aws.ToString(in.ModelName)),
	}, nil
}

func TestSageMakerRegister(t *testing.T) {
	t.Parallel()

	cfg := publishConfig(t, config.RegistrySageMaker)
	client := &fakeSageMaker{}
	r := &SageMakerRegistry{roleARN: cfg.SageMakerRoleARN, client: client}

	arn, err := r.Register(context.Background(), SpecFromConfig(cfg, "0b7e2a10-93c4-4a4e-b1f1-6f8d3f4c2a11"))
	require.NoError(t, err)
	require.Equal(t,
		"arn:aws:sagemaker:us-east-1:123456789012:model/fraud-detection-model-0b7e2a10-93c4-4a4e-b1f1-6f8d3f4c2a11",
		arn)

	require.Len(t, client.inputs, 1)
	in := client.inputs[0]
	require.Equal(t, cfg.SageMakerRoleARN, aws.ToString(in.ExecutionRoleArn))
	require.Equal(t, "s3://my-bucket/models/fraud_model.pkl", aws.ToString(in.PrimaryContainer.ModelDataUrl))
	require.Equal(t, config.DefaultServingImage, aws.ToString(in.PrimaryContainer.Image))
	require.Len(t, in.Tags, 1)

	client.err = errors.New("ValidationException")
	_, err = r.Register(context.Background(), SpecFromConfig(cfg, "x"))
	require.True(t, cerror.IsRegistryError(err))
}

func TestSageMakerModelName(t *testing.T) {
	t.Parallel()

	require.Equal(t, "fraud-detection-model-abc", sageMakerModelName("fraud-detection-model", "abc"))
	require.Equal(t, "my-model-r1", sageMakerModelName("  My Model!! ", "r1"))
	require.Equal(t, "fraud-model", sageMakerModelName("", ""))

	long := sageMakerModelName("a-very-long-display-name-for-the-fraud-detection-model", "0b7e2a10-93c4-4a4e-b1f1-6f8d3f4c2a11")
	require.LessOrEqual(t, len(long), maxSageMakerModelName)
	require.NotEqual(t, '-', rune(long[len(long)-1]))
}

func TestNewNoRegistry(t *testing.T) {
	t.Parallel()

	r, err := New(context.Background(), config.NewPublishConfig())
	require.NoError(t, err)
	require.Nil(t, r)
}
