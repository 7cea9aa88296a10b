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
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
	sagemakertypes "github.com/aws/aws-sdk-go-v2/service/sagemaker/types"
	"github.com/pingcap/log"
	"github.com/victoriarmitchell/fraud-detection/pkg/config"
	cerror "github.com/victoriarmitchell/fraud-detection/pkg/errors"
	"go.uber.org/zap"
)

const maxSageMakerModelName = 63

type sageMakerClient interface {
	CreateModel(ctx context.Context, in *sagemaker.CreateModelInput, optFns ...func(*sagemaker.Options)) (*sagemaker.CreateModelOutput, error)
}

// SageMakerRegistry creates Amazon SageMaker models.
type SageMakerRegistry struct {
	roleARN string
	client  sageMakerClient
}

// NewSageMakerRegistry creates a registry from the default AWS credential chain.
func NewSageMakerRegistry(ctx context.Context, region, roleARN string) (*SageMakerRegistry, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, cerror.WrapError(cerror.ErrRegistryAPI, err, config.RegistrySageMaker, "LoadDefaultConfig")
	}
	return &SageMakerRegistry{roleARN: roleARN, client: sagemaker.NewFromConfig(awsCfg)}, nil
}

// Register implements Registry.
func (r *SageMakerRegistry) Register(ctx context.Context, spec ModelSpec) (string, error) {
	name := sageMakerModelName(spec.DisplayName, spec.RunID)
	in := &sagemaker.CreateModelInput{
		ModelName:        aws.String(name),
		ExecutionRoleArn: aws.String(r.roleARN),
		PrimaryContainer: &sagemakertypes.ContainerDefinition{
			Image:        aws.String(spec.ServingImage),
			ModelDataUrl: aws.String(spec.ArtifactURI),
		},
	}
	if spec.RunID != "" {
		in.Tags = []sagemakertypes.Tag{{Key: aws.String("run-id"), Value: aws.String(spec.RunID)}}
	}
	out, err := r.client.CreateModel(ctx, in)
	if err != nil {
		return "", cerror.WrapError(cerror.ErrRegistryAPI, err, config.RegistrySageMaker, "CreateModel")
	}
	arn := aws.ToString(out.ModelArn)
	log.Info("model registered",
		zap.String("registry", string(config.RegistrySageMaker)),
		zap.String("model", arn),
		zap.String("artifactURI", spec.ArtifactURI))
	return arn, nil
}

// Close implements Registry.
func (r *SageMakerRegistry) Close() error { return nil }

// sageMakerModelName derives a model name matching ^[a-zA-Z0-9](-*[a-zA-Z0-9])*$.
// The run id keeps names of repeated runs distinct.
func sageMakerModelName(displayName, runID string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(displayName + "-" + runID) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastDash = false
			continue
		}
		if !lastDash {
			b.WriteByte('-')
			lastDash = true
		}
	}
	out := strings.Trim(b.String(), "-")
	if len(out) > maxSageMakerModelName {
		out = strings.TrimRight(out[:maxSageMakerModelName], "-")
	}
	if out == "" {
		return "fraud-model"
	}
	return out
}
