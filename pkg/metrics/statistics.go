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

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// NewStatistics creates a statistics bound to the platform label.
func NewStatistics(platform string) *Statistics {
	return &Statistics{
		platform:            platform,
		metricAccuracy:      TestAccuracyGauge.WithLabelValues(platform),
		metricArtifactBytes: ArtifactBytesGauge.WithLabelValues(platform),
	}
}

// Statistics records the metrics of one training run.
type Statistics struct {
	platform string

	metricAccuracy      prometheus.Gauge
	metricArtifactBytes prometheus.Gauge
}

// RecordStage times a pipeline stage and counts its failure.
func (s *Statistics) RecordStage(stage string, executor func() error) error {
	start := time.Now()
	err := executor()
	StageDurationHistogram.WithLabelValues(s.platform, stage).Observe(time.Since(start).Seconds())
	if err != nil {
		StageErrorCounter.WithLabelValues(s.platform, stage).Inc()
	}
	return err
}

// RecordDatasetSize sets the sample count of a dataset partition.
func (s *Statistics) RecordDatasetSize(partition string, samples int) {
	DatasetSamplesGauge.WithLabelValues(s.platform, partition).Set(float64(samples))
}

// RecordFit records the optimizer iterations of a fit.
func (s *Statistics) RecordFit(solver string, iterations int) {
	SolverIterationsGauge.WithLabelValues(s.platform, solver).Set(float64(iterations))
}

// RecordScore sets a per-class test score.
func (s *Statistics) RecordScore(class, score string, value float64) {
	TestScoreGauge.WithLabelValues(s.platform, class, score).Set(value)
}

// RecordAccuracy sets the test accuracy.
func (s *Statistics) RecordAccuracy(accuracy float64) {
	s.metricAccuracy.Set(accuracy)
}

// RecordArtifact sets the size of the persisted artifact.
func (s *Statistics) RecordArtifact(bytes int) {
	s.metricArtifactBytes.Set(float64(bytes))
}

// RecordRegistration counts a model registration.
func (s *Statistics) RecordRegistration(registry string) {
	ModelRegistrationsCounter.WithLabelValues(s.platform, registry).Inc()
}
