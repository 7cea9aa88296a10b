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
	"fmt"

	aiplatform "cloud.google.com/go/aiplatform/apiv1"
	"cloud.google.com/go/aiplatform/apiv1/aiplatformpb"
	"github.com/pingcap/log"
	"github.com/victoriarmitchell/fraud-detection/pkg/config"
	cerror "github.com/victoriarmitchell/fraud-detection/pkg/errors"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// modelUploader uploads a model and waits for the long running operation.
type modelUploader interface {
	UploadModel(ctx context.Context, req *aiplatformpb.UploadModelRequest) (*aiplatformpb.UploadModelResponse, error)
	Close() error
}

type modelClient struct {
	client *aiplatform.ModelClient
}

func (c *modelClient) UploadModel(
	ctx context.Context, req *aiplatformpb.UploadModelRequest,
) (*aiplatformpb.UploadModelResponse, error) {
	op, err := c.client.UploadModel(ctx, req)
	if err != nil {
		return nil, err
	}
	return op.Wait(ctx)
}

func (c *modelClient) Close() error {
	return c.client.Close()
}

// VertexAIRegistry uploads models to the Vertex AI Model Registry.
type VertexAIRegistry struct {
	project  string
	region   string
	uploader modelUploader
}

// NewVertexAIRegistry creates a registry client bound to the regional Vertex AI
// endpoint. Credentials come from Application Default Credentials.
func NewVertexAIRegistry(ctx context.Context, project, region string) (*VertexAIRegistry, error) {
	endpoint := fmt.Sprintf("%s-aiplatform.googleapis.com:443", region)
	client, err := aiplatform.NewModelClient(ctx, option.WithEndpoint(endpoint))
	if err != nil {
		return nil, cerror.WrapError(cerror.ErrRegistryAPI, err, config.RegistryVertexAI, "NewModelClient")
	}
	return newVertexAIRegistry(project, region, &modelClient{client: client}), nil
}

func newVertexAIRegistry(project, region string, uploader modelUploader) *VertexAIRegistry {
	return &VertexAIRegistry{project: project, region: region, uploader: uploader}
}

func (r *VertexAIRegistry) parent() string {
	return fmt.Sprintf("projects/%s/locations/%s", r.project, r.region)
}

// Register implements Registry.
func (r *VertexAIRegistry) Register(ctx context.Context, spec ModelSpec) (string, error) {
	req := &aiplatformpb.UploadModelRequest{
		Parent: r.parent(),
		Model: &aiplatformpb.Model{
			DisplayName: spec.DisplayName,
			ArtifactUri: spec.ArtifactURI,
			ContainerSpec: &aiplatformpb.ModelContainerSpec{
				ImageUri: spec.ServingImage,
			},
			Labels: runLabels(spec.RunID),
		},
	}
	resp, err := r.uploader.UploadModel(ctx, req)
	if err != nil {
		return "", cerror.WrapError(cerror.ErrRegistryAPI, err, config.RegistryVertexAI, "UploadModel")
	}
	name := resp.GetModel()
	log.Info("model registered",
		zap.String("registry", string(config.RegistryVertexAI)),
		zap.String("model", name),
		zap.String("artifactURI", spec.ArtifactURI))
	return name, nil
}

// Close implements Registry.
func (r *VertexAIRegistry) Close() error {
	return r.uploader.Close()
}

func runLabels(runID string) map[string]string {
	if runID == "" {
		return nil
	}
	return map[string]string{"run-id": runID}
}
