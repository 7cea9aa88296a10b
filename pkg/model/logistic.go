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

// Package model implements binary logistic regression.
package model

import (
	"fmt"
	"math"

	"github.com/victoriarmitchell/fraud-detection/pkg/dataset"
	cerror "github.com/victoriarmitchell/fraud-detection/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// LogisticRegression is a fitted binary logistic regression classifier.
type LogisticRegression struct {
	// Coef holds one weight per feature.
	Coef      []float64
	Intercept float64
	// Classes are the labels of the negative and positive class.
	Classes []int

	Solver    string
	C         float64
	MaxIter   int
	NIter     int
	Converged bool
}

// NumFeatures returns the number of features the model expects.
func (m *LogisticRegression) NumFeatures() int {
	return len(m.Coef)
}

// DecisionFunction returns the signed distance of x to the decision boundary.
func (m *LogisticRegression) DecisionFunction(x []float64) float64 {
	return floats.Dot(m.Coef, x) + m.Intercept
}

// PredictProba returns the probability that x belongs to the positive class.
func (m *LogisticRegression) PredictProba(x []float64) float64 {
	return sigmoid(m.DecisionFunction(x))
}

// PredictRow returns the class of a single feature vector.
func (m *LogisticRegression) PredictRow(x []float64) int {
	if m.DecisionFunction(x) > 0 {
		return m.Classes[1]
	}
	return m.Classes[0]
}

// Predict returns the predicted class of every sample in ds.
func (m *LogisticRegression) Predict(ds *dataset.Dataset) ([]int, error) {
	if ds.NumFeatures() != m.NumFeatures() {
		return nil, cerror.ErrDatasetInvalid.GenWithStackByArgs(fmt.Sprintf(
			"model expects %d features, got %d", m.NumFeatures(), ds.NumFeatures()))
	}
	out := make([]int, ds.Len())
	row := make([]float64, ds.NumFeatures())
	for i := range out {
		row = ds.Row(i, row)
		out[i] = m.PredictRow(row)
	}
	return out, nil
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// logLoss is log(1 + exp(z)) - y*z computed without overflow.
func logLoss(z float64, y float64) float64 {
	return math.Log1p(math.Exp(-math.Abs(z))) + math.Max(z, 0) - y*z
}
