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

// Package metrics defines the prometheus collectors of training runs.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/push"
	cerror "github.com/victoriarmitchell/fraud-detection/pkg/errors"
)

// PushJobName is the job label of pushed metrics.
const PushJobName = "fraud_train"

// InitMetrics registers all training metrics on registry.
func InitMetrics(registry *prometheus.Registry) {
	initTrainMetrics(registry)
}

// NewRegistry returns a registry holding the training metrics and the
// process and go runtime collectors.
func NewRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	InitMetrics(registry)
	return registry
}

// Push sends everything gathered by registry to a prometheus pushgateway.
// Batch runs exit before any scrape, so this is their only export path.
func Push(ctx context.Context, url string, registry prometheus.Gatherer, runID string) error {
	err := push.New(url, PushJobName).
		Gatherer(registry).
		Grouping("run_id", runID).
		PushContext(ctx)
	if err != nil {
		return cerror.WrapError(cerror.ErrMetricsPush, err, url)
	}
	return nil
}
