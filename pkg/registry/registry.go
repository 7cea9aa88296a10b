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

// Package registry registers uploaded model artifacts with a managed model
// registry.
package registry

import (
	"context"

	"github.com/victoriarmitchell/fraud-detection/pkg/config"
	cerror "github.com/victoriarmitchell/fraud-detection/pkg/errors"
)

// ModelSpec describes a model to register.
type ModelSpec struct {
	DisplayName string
	// ArtifactURI is the directory holding the artifact for Vertex AI, or the
	// artifact object itself for SageMaker.
	ArtifactURI  string
	ServingImage string
	RunID        string
}

// Registry registers a model and returns the registry's resource name for it.
// Registering the same spec twice creates two entries.
type Registry interface {
	Register(ctx context.Context, spec ModelSpec) (string, error)
	Close() error
}

// New creates the registry selected by cfg. It returns nil when cfg selects no
// registry. cfg must have been validated.
func New(ctx context.Context, cfg *config.PublishConfig) (Registry, error) {
	switch cfg.Registry {
	case config.RegistryNone, "":
		return nil, nil
	case config.RegistryVertexAI:
		return NewVertexAIRegistry(ctx, cfg.Project, cfg.Region)
	case config.RegistrySageMaker:
		return NewSageMakerRegistry(ctx, cfg.Region, cfg.SageMakerRoleARN)
	default:
		return nil, cerror.ErrInvalidPublishConfig.GenWithStackByArgs(
			"unknown registry " + string(cfg.Registry))
	}
}

// SpecFromConfig builds the ModelSpec of the artifact published under cfg.
func SpecFromConfig(cfg *config.PublishConfig, runID string) ModelSpec {
	spec := ModelSpec{
		DisplayName:  cfg.DisplayName,
		ArtifactURI:  cfg.ArtifactDirURI(),
		ServingImage: cfg.ServingImage,
		RunID:        runID,
	}
	if cfg.Registry == config.RegistrySageMaker {
		spec.ArtifactURI = cfg.ObjectURI()
	}
	return spec
}
