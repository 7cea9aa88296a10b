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
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	cerror "github.com/victoriarmitchell/fraud-detection/pkg/errors"
)

func TestStatistics(t *testing.T) {
	t.Parallel()

	s := NewStatistics("metrics_test")
	require.NoError(t, s.RecordStage("train", func() error { return nil }))
	err := s.RecordStage("publish", func() error { return cerror.New("boom") })
	require.Error(t, err)

	require.Equal(t, 2, testutil.CollectAndCount(StageDurationHistogram))
	require.Equal(t, float64(1), testutil.ToFloat64(StageErrorCounter.WithLabelValues("metrics_test", "publish")))
	require.Equal(t, float64(0), testutil.ToFloat64(StageErrorCounter.WithLabelValues("metrics_test", "train")))

	s.RecordDatasetSize("test", 200)
	require.Equal(t, float64(200), testutil.ToFloat64(DatasetSamplesGauge.WithLabelValues("metrics_test", "test")))

	s.RecordScore("1", "recall", 0.25)
	require.Equal(t, 0.25, testutil.ToFloat64(TestScoreGauge.WithLabelValues("metrics_test", "1", "recall")))

	s.RecordAccuracy(0.95)
	require.Equal(t, 0.95, testutil.ToFloat64(TestAccuracyGauge.WithLabelValues("metrics_test")))

	s.RecordFit("liblinear", 7)
	require.Equal(t, float64(7), testutil.ToFloat64(SolverIterationsGauge.WithLabelValues("metrics_test", "liblinear")))

	s.RecordArtifact(1024)
	require.Equal(t, float64(1024), testutil.ToFloat64(ArtifactBytesGauge.WithLabelValues("metrics_test")))

	s.RecordRegistration("vertex_ai")
	s.RecordRegistration("vertex_ai")
	require.Equal(t, float64(2), testutil.ToFloat64(ModelRegistrationsCounter.WithLabelValues("metrics_test", "vertex_ai")))
}

func TestNewRegistry(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	TestAccuracyGauge.WithLabelValues("registry_test").Set(0.5)
	families, err := registry.Gather()
	require.NoError(t, err)
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	require.True(t, names["fraud_train_test_accuracy"])
	require.True(t, names["go_goroutines"])
}

func TestPush(t *testing.T) {
	t.Parallel()

	var gotPath atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath.Store(r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	registry := prometheus.NewRegistry()
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{Name: "push_test_gauge", Help: "test"})
	registry.MustRegister(gauge)
	gauge.Set(1)

	require.NoError(t, Push(context.Background(), srv.URL, registry, "run-1"))
	path, _ := gotPath.Load().(string)
	require.True(t, strings.HasPrefix(path, "/metrics/job/"+PushJobName), path)
	require.Contains(t, path, "run_id/run-1")

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()
	err := Push(context.Background(), failing.URL, registry, "run-1")
	require.True(t, cerror.HasCode(err, cerror.ErrMetricsPush))
}
