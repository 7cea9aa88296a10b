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

package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	namespace = "fraud"
	subsystem = "train"
)

var (
	StageDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "stage_duration_seconds",
			Help:      "Bucketed histogram of pipeline stage duration (s).",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 20), // 1ms~524s
		}, []string{"platform", "stage"})

	StageErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "stage_errors_total",
			Help:      "Total failed pipeline stages.",
		}, []string{"platform", "stage"})

	DatasetSamplesGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "dataset_samples",
			Help:      "Samples per dataset partition of the last run.",
		}, []string{"platform", "partition"})

	TestScoreGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "test_score",
			Help:      "Precision, recall and f1 per class on the test partition of the last run.",
		}, []string{"platform", "class", "score"})

	TestAccuracyGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "test_accuracy",
			Help:      "Accuracy on the test partition of the last run.",
		}, []string{"platform"})

	SolverIterationsGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "solver_iterations",
			Help:      "Optimizer iterations used by the last fit.",
		}, []string{"platform", "solver"})

	ArtifactBytesGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "artifact_bytes",
			Help:      "Size of the last persisted model artifact.",
		}, []string{"platform"})

	ModelRegistrationsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "model_registrations_total",
			Help:      "Total models registered with a model registry.",
		}, []string{"platform", "registry"})
)

func initTrainMetrics(registry *prometheus.Registry) {
	registry.MustRegister(StageDurationHistogram)
	registry.MustRegister(StageErrorCounter)
	registry.MustRegister(DatasetSamplesGauge)
	registry.MustRegister(TestScoreGauge)
	registry.MustRegister(TestAccuracyGauge)
	registry.MustRegister(SolverIterationsGauge)
	registry.MustRegister(ArtifactBytesGauge)
	registry.MustRegister(ModelRegistrationsCounter)
}
