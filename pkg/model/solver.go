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

package model

import (
	"sort"

	cerror "github.com/victoriarmitchell/fraud-detection/pkg/errors"
	"gonum.org/v1/gonum/optimize"
)

// DefaultSolver is used when no solver is configured.
const DefaultSolver = "lbfgs"

type solver struct {
	// penalizeIntercept treats the intercept as the weight of a constant
	// feature, the way liblinear does.
	penalizeIntercept bool
	method            func() optimize.Method
}

var solvers = map[string]solver{
	"lbfgs": {
		method: func() optimize.Method { return &optimize.LBFGS{} },
	},
	"liblinear": {
		penalizeIntercept: true,
		method:            func() optimize.Method { return &optimize.Newton{} },
	},
	"newton-cg": {
		method: func() optimize.Method { return &optimize.Newton{} },
	},
	"newton-cholesky": {
		method: func() optimize.Method { return &optimize.Newton{} },
	},
	"sag": {
		method: func() optimize.Method { return &optimize.GradientDescent{} },
	},
	"saga": {
		method: func() optimize.Method { return &optimize.GradientDescent{} },
	},
}

// Solvers returns the names of the supported solvers in sorted order.
func Solvers() []string {
	names := make([]string, 0, len(solvers))
	for name := range solvers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateSolver returns ErrUnknownSolver when name is not supported.
func ValidateSolver(name string) error {
	if _, ok := solvers[name]; !ok {
		return cerror.ErrUnknownSolver.GenWithStackByArgs(name, Solvers())
	}
	return nil
}
