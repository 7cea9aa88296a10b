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

package artifact

import (
	"fmt"

	"github.com/victoriarmitchell/fraud-detection/pkg/model"
)

func toRecord(m *model.LogisticRegression) map[string]any {
	coef := make([]any, len(m.Coef))
	for i, w := range m.Coef {
		coef[i] = w
	}
	classes := make([]any, len(m.Classes))
	for i, c := range m.Classes {
		classes[i] = int64(c)
	}
	return map[string]any{
		"solver":     m.Solver,
		"coef":       coef,
		"intercept":  m.Intercept,
		"classes":    classes,
		"n_features": int32(len(m.Coef)),
		"n_iter":     int32(m.NIter),
		"c":          m.C,
		"max_iter":   int32(m.MaxIter),
		"converged":  m.Converged,
	}
}

func fromRecord(datum any) (*model.LogisticRegression, error) {
	rec, ok := datum.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("unexpected record type %T", datum)
	}

	coefRaw, err := field[[]any](rec, "coef")
	if err != nil {
		return nil, err
	}
	coef := make([]float64, len(coefRaw))
	for i, v := range coefRaw {
		f, ok := v.(float64)
		if !ok {
			return nil, fmt.Errorf("coef[%d] has type %T", i, v)
		}
		coef[i] = f
	}
	nFeatures, err := field[int32](rec, "n_features")
	if err != nil {
		return nil, err
	}
	if int(nFeatures) != len(coef) {
		return nil, fmt.Errorf("n_features is %d but %d weights are stored", nFeatures, len(coef))
	}

	classesRaw, err := field[[]any](rec, "classes")
	if err != nil {
		return nil, err
	}
	if len(classesRaw) != 2 {
		return nil, fmt.Errorf("expected 2 classes, got %d", len(classesRaw))
	}
	classes := make([]int, len(classesRaw))
	for i, v := range classesRaw {
		c, ok := v.(int64)
		if !ok {
			return nil, fmt.Errorf("classes[%d] has type %T", i, v)
		}
		classes[i] = int(c)
	}

	m := &model.LogisticRegression{Coef: coef, Classes: classes}
	if m.Solver, err = field[string](rec, "solver"); err != nil {
		return nil, err
	}
	if m.Intercept, err = field[float64](rec, "intercept"); err != nil {
		return nil, err
	}
	if m.C, err = field[float64](rec, "c"); err != nil {
		return nil, err
	}
	if m.Converged, err = field[bool](rec, "converged"); err != nil {
		return nil, err
	}
	nIter, err := field[int32](rec, "n_iter")
	if err != nil {
		return nil, err
	}
	maxIter, err := field[int32](rec, "max_iter")
	if err != nil {
		return nil, err
	}
	m.NIter, m.MaxIter = int(nIter), int(maxIter)
	return m, nil
}

func field[T any](rec map[string]any, name string) (T, error) {
	var zero T
	raw, ok := rec[name]
	if !ok {
		return zero, fmt.Errorf("record is missing field %s", name)
	}
	v, ok := raw.(T)
	if !ok {
		return zero, fmt.Errorf("field %s has type %T", name, raw)
	}
	return v, nil
}
