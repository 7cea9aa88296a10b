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

package errors

import (
	"github.com/pingcap/errors"
)

// errors
var (
	// config related errors
	ErrConfigInvalid = errors.Normalize(
		"config %s is invalid",
		errors.RFCCodeText("FD:ErrConfigInvalid"),
	)
	ErrConfigKeyMissing = errors.Normalize(
		"config file %s is missing required key %s",
		errors.RFCCodeText("FD:ErrConfigKeyMissing"),
	)
	ErrInvalidTestSize = errors.Normalize(
		"test size %v is invalid: %s",
		errors.RFCCodeText("FD:ErrInvalidTestSize"),
	)
	ErrUnknownSolver = errors.Normalize(
		"solver %s is not supported, supported solvers are %v",
		errors.RFCCodeText("FD:ErrUnknownSolver"),
	)
	ErrInvalidPublishConfig = errors.Normalize(
		"publish config is invalid: %s",
		errors.RFCCodeText("FD:ErrInvalidPublishConfig"),
	)

	// dataset related errors
	ErrDatasetInvalid = errors.Normalize(
		"dataset is invalid: %s",
		errors.RFCCodeText("FD:ErrDatasetInvalid"),
	)

	// training and evaluation errors
	ErrTrainFailed = errors.Normalize(
		"train model with solver %s failed",
		errors.RFCCodeText("FD:ErrTrainFailed"),
	)
	ErrEvaluateFailed = errors.Normalize(
		"evaluate model failed: %s",
		errors.RFCCodeText("FD:ErrEvaluateFailed"),
	)

	// artifact errors
	ErrArtifactWriteFailed = errors.Normalize(
		"write model artifact to %s failed",
		errors.RFCCodeText("FD:ErrArtifactWriteFailed"),
	)
	ErrArtifactDecodeFailed = errors.Normalize(
		"decode model artifact %s failed",
		errors.RFCCodeText("FD:ErrArtifactDecodeFailed"),
	)

	// remote storage errors
	ErrStorageURIInvalid = errors.Normalize(
		"storage uri %s is invalid",
		errors.RFCCodeText("FD:ErrStorageURIInvalid"),
	)
	ErrRemoteStorageAPI = errors.Normalize(
		"external storage api: %s",
		errors.RFCCodeText("FD:ErrRemoteStorageAPI"),
	)

	// model registry errors
	ErrRegistryAPI = errors.Normalize(
		"model registry %s api: %s",
		errors.RFCCodeText("FD:ErrRegistryAPI"),
	)

	ErrMetricsPush = errors.Normalize(
		"push metrics to %s failed",
		errors.RFCCodeText("FD:ErrMetricsPush"),
	)
)
