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
	"context"
	"fmt"
	"time"

	"github.com/pingcap/log"
	"github.com/victoriarmitchell/fraud-detection/pkg/dataset"
	cerror "github.com/victoriarmitchell/fraud-detection/pkg/errors"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

const (
	defaultC       = 1.0
	defaultMaxIter = 100
	defaultTol     = 1e-4
)

// FitOptions configures Fit.
type FitOptions struct {
	Solver string
	// C is the inverse of the L2 regularization strength.
	C       float64
	MaxIter int
	Tol     float64
}

// DefaultFitOptions returns C=1, 100 iterations and a 1e-4 gradient tolerance.
func DefaultFitOptions(solver string) FitOptions {
	if solver == "" {
		solver = DefaultSolver
	}
	return FitOptions{
		Solver:  solver,
		C:       defaultC,
		MaxIter: defaultMaxIter,
		Tol:     defaultTol,
	}
}

// Fit estimates an L2 regularized logistic regression on train by maximum
// likelihood. Labels must be 0 or 1 and both classes must be present.
//
// Reaching MaxIter is not an error: the model is returned with Converged set
// to false and a warning is logged.
func Fit(ctx context.Context, train *dataset.Dataset, opts FitOptions) (*LogisticRegression, error) {
	if err := ValidateSolver(opts.Solver); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, cerror.WrapError(cerror.ErrTrainFailed, err, opts.Solver)
	}
	if opts.C <= 0 {
		return nil, cerror.ErrConfigInvalid.GenWithStackByArgs(fmt.Sprintf("C=%v", opts.C))
	}
	if opts.MaxIter <= 0 {
		opts.MaxIter = defaultMaxIter
	}
	if opts.Tol <= 0 {
		opts.Tol = defaultTol
	}
	counts := train.ClassCounts()
	for label := range counts {
		if label != 0 && label != 1 {
			return nil, cerror.ErrDatasetInvalid.GenWithStackByArgs(
				fmt.Sprintf("label %d is not binary", label))
		}
	}
	if len(counts) < 2 {
		return nil, cerror.ErrDatasetInvalid.GenWithStackByArgs(
			"training data needs samples of both classes")
	}

	s := solvers[opts.Solver]
	obj := newObjective(train, opts.C, s.penalizeIntercept)
	problem := optimize.Problem{
		Func: obj.value,
		Grad: obj.gradient,
		Hess: obj.hessian,
		Status: func() (optimize.Status, error) {
			if err := ctx.Err(); err != nil {
				return optimize.Failure, err
			}
			return optimize.NotTerminated, nil
		},
	}
	settings := &optimize.Settings{
		GradientThreshold: opts.Tol,
		MajorIterations:   opts.MaxIter,
	}

	start := time.Now()
	result, err := optimize.Minimize(problem, make([]float64, obj.dim), settings, s.method())
	if result == nil || (err != nil && !isLimit(result.Status)) {
		if err == nil {
			err = fmt.Errorf("optimizer stopped with status %v", result.Status)
		}
		return nil, cerror.WrapError(cerror.ErrTrainFailed, err, opts.Solver)
	}

	nFeatures := train.NumFeatures()
	m := &LogisticRegression{
		Coef:      append([]float64(nil), result.X[:nFeatures]...),
		Intercept: result.X[nFeatures],
		Classes:   []int{0, 1},
		Solver:    opts.Solver,
		C:         opts.C,
		MaxIter:   opts.MaxIter,
		NIter:     result.Stats.MajorIterations,
		Converged: !isLimit(result.Status),
	}
	if !m.Converged {
		log.Warn("solver failed to converge, the model is used as is",
			zap.String("solver", opts.Solver),
			zap.Int("maxIter", opts.MaxIter),
			zap.Stringer("status", result.Status))
	}
	log.Info("logistic regression fitted",
		zap.String("solver", opts.Solver),
		zap.Int("samples", train.Len()),
		zap.Int("features", nFeatures),
		zap.Int("iterations", m.NIter),
		zap.Float64("loss", result.F),
		zap.Bool("converged", m.Converged),
		zap.Duration("duration", time.Since(start)))
	return m, nil
}

func isLimit(s optimize.Status) bool {
	switch s {
	case optimize.IterationLimit, optimize.RuntimeLimit, optimize.FunctionEvaluationLimit,
		optimize.GradientEvaluationLimit, optimize.HessianEvaluationLimit:
		return true
	}
	return false
}

// objective is the mean log loss plus an L2 penalty scaled by 1/(C*n).
// Parameters are the feature weights followed by the intercept.
type objective struct {
	x                 *mat.Dense
	y                 []float64
	dim               int
	alpha             float64
	penalizeIntercept bool

	z []float64
}

func newObjective(ds *dataset.Dataset, c float64, penalizeIntercept bool) *objective {
	n := ds.Len()
	y := make([]float64, n)
	for i := range y {
		y[i] = float64(ds.Label(i))
	}
	return &objective{
		x:                 ds.Features(),
		y:                 y,
		dim:               ds.NumFeatures() + 1,
		alpha:             1 / (c * float64(n)),
		penalizeIntercept: penalizeIntercept,
		z:                 make([]float64, n),
	}
}

func (o *objective) penalized(j int) bool {
	return j < o.dim-1 || o.penalizeIntercept
}

// scores fills o.z with the linear predictor of every sample.
func (o *objective) scores(theta []float64) {
	w, b := theta[:o.dim-1], theta[o.dim-1]
	for i := range o.z {
		o.z[i] = floats.Dot(o.x.RawRowView(i), w) + b
	}
}

func (o *objective) value(theta []float64) float64 {
	o.scores(theta)
	loss := 0.0
	for i, z := range o.z {
		loss += logLoss(z, o.y[i])
	}
	loss /= float64(len(o.z))
	penalty := 0.0
	for j, v := range theta {
		if o.penalized(j) {
			penalty += v * v
		}
	}
	return loss + 0.5*o.alpha*penalty
}

func (o *objective) gradient(grad, theta []float64) {
	o.scores(theta)
	for j := range grad {
		grad[j] = 0
	}
	n := float64(len(o.z))
	last := o.dim - 1
	for i, z := range o.z {
		r := (sigmoid(z) - o.y[i]) / n
		floats.AddScaled(grad[:last], r, o.x.RawRowView(i))
		grad[last] += r
	}
	for j, v := range theta {
		if o.penalized(j) {
			grad[j] += o.alpha * v
		}
	}
}

func (o *objective) hessian(hess *mat.SymDense, theta []float64) {
	o.scores(theta)
	n := float64(len(o.z))
	last := o.dim - 1
	h := make([]float64, o.dim*o.dim)
	for i, z := range o.z {
		p := sigmoid(z)
		d := p * (1 - p) / n
		row := o.x.RawRowView(i)
		for a := 0; a < o.dim; a++ {
			xa := 1.0
			if a < last {
				xa = row[a]
			}
			for b := a; b < o.dim; b++ {
				xb := 1.0
				if b < last {
					xb = row[b]
				}
				h[a*o.dim+b] += d * xa * xb
			}
		}
	}
	for a := 0; a < o.dim; a++ {
		if o.penalized(a) {
			h[a*o.dim+a] += o.alpha
		}
		for b := a; b < o.dim; b++ {
			hess.SetSym(a, b, h[a*o.dim+b])
		}
	}
}
