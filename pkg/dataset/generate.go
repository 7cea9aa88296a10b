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

package dataset

import (
	"fmt"
	"math"
	"math/rand/v2"

	cerror "github.com/victoriarmitchell/fraud-detection/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Options controls MakeClassification.
type Options struct {
	Seed int64

	Samples          int
	Features         int
	Informative      int
	Redundant        int
	Repeated         int
	Classes          int
	ClustersPerClass int
	// Weights are the class proportions. The last weight may be omitted, in
	// which case it is one minus the sum of the others.
	Weights []float64
	// FlipY is the fraction of labels reassigned to a random class.
	FlipY    float64
	ClassSep float64
	// Hypercube places cluster centroids on hypercube vertices; otherwise they
	// are drawn uniformly inside it.
	Hypercube bool
	Shift     float64
	Scale     float64
	Shuffle   bool
}

// DefaultOptions returns the fraud detection data parameters: 1000 samples of
// 20 features, 5 informative and 2 redundant, one cluster per class and a
// 95/5 class skew.
func DefaultOptions(seed int64) Options {
	return Options{
		Seed:             seed,
		Samples:          1000,
		Features:         20,
		Informative:      5,
		Redundant:        2,
		Repeated:         0,
		Classes:          2,
		ClustersPerClass: 1,
		Weights:          []float64{0.95, 0.05},
		FlipY:            0.01,
		ClassSep:         1.0,
		Hypercube:        true,
		Shift:            0.0,
		Scale:            1.0,
		Shuffle:          true,
	}
}

func (o *Options) validate() error {
	switch {
	case o.Samples <= 0:
		return cerror.ErrDatasetInvalid.GenWithStackByArgs("samples must be positive")
	case o.Classes < 2:
		return cerror.ErrDatasetInvalid.GenWithStackByArgs("at least two classes are required")
	case o.ClustersPerClass < 1:
		return cerror.ErrDatasetInvalid.GenWithStackByArgs("clusters per class must be positive")
	case o.Informative < 1 || o.Informative > 62:
		return cerror.ErrDatasetInvalid.GenWithStackByArgs("informative features must be in [1, 62]")
	case o.Redundant < 0 || o.Repeated < 0:
		return cerror.ErrDatasetInvalid.GenWithStackByArgs("redundant and repeated features must be non-negative")
	case o.Informative+o.Redundant+o.Repeated > o.Features:
		return cerror.ErrDatasetInvalid.GenWithStackByArgs(fmt.Sprintf(
			"informative, redundant and repeated features (%d) exceed features (%d)",
			o.Informative+o.Redundant+o.Repeated, o.Features))
	case float64(o.Classes*o.ClustersPerClass) > math.Pow(2, float64(o.Informative)):
		return cerror.ErrDatasetInvalid.GenWithStackByArgs(
			"classes times clusters per class must not exceed 2^informative")
	case len(o.Weights) > 0 && len(o.Weights) != o.Classes && len(o.Weights) != o.Classes-1:
		return cerror.ErrDatasetInvalid.GenWithStackByArgs(fmt.Sprintf(
			"%d weights given for %d classes", len(o.Weights), o.Classes))
	case o.FlipY < 0 || o.FlipY > 1:
		return cerror.ErrDatasetInvalid.GenWithStackByArgs("flip_y must be in [0, 1]")
	}
	return nil
}

func (o *Options) classWeights() []float64 {
	if len(o.Weights) == 0 {
		w := make([]float64, o.Classes)
		for i := range w {
			w[i] = 1 / float64(o.Classes)
		}
		return w
	}
	w := append([]float64(nil), o.Weights...)
	if len(w) == o.Classes-1 {
		sum := 0.0
		for _, v := range w {
			sum += v
		}
		w = append(w, 1-sum)
	}
	return w
}

// MakeClassification generates a random n-class classification problem.
//
// Each class is made of normally distributed clusters placed on the vertices
// of a hypercube in the informative subspace. Redundant features are random
// linear combinations of the informative ones, repeated features are copies
// and the rest is gaussian noise. The same options always produce the same
// dataset.
func MakeClassification(opts Options) (*Dataset, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	rng := newRand(opts.Seed)

	n, nInf, nRed, nRep := opts.Samples, opts.Informative, opts.Redundant, opts.Repeated
	nUseless := opts.Features - nInf - nRed - nRep
	nClusters := opts.Classes * opts.ClustersPerClass

	weights := opts.classWeights()
	perCluster := make([]int, nClusters)
	total := 0
	for k := range perCluster {
		perCluster[k] = int(float64(n) * weights[k%opts.Classes] / float64(opts.ClustersPerClass))
		total += perCluster[k]
	}
	for i := 0; i < n-total; i++ {
		perCluster[i%nClusters]++
	}

	centroids := hypercubeVertices(rng, nClusters, nInf)
	for _, c := range centroids {
		for j := range c {
			c[j] = c[j]*2*opts.ClassSep - opts.ClassSep
		}
		if !opts.Hypercube {
			for j := range c {
				c[j] *= rng.Float64()
			}
		}
	}

	x := mat.NewDense(n, opts.Features, nil)
	y := make([]int, n)
	for i := 0; i < n; i++ {
		for j := 0; j < nInf; j++ {
			x.Set(i, j, rng.NormFloat64())
		}
	}

	start := 0
	for k, size := range perCluster {
		stop := start + size
		for i := start; i < stop; i++ {
			y[i] = k % opts.Classes
		}
		a := uniformMatrix(rng, nInf, nInf)
		if size > 0 {
			xk := x.Slice(start, stop, 0, nInf).(*mat.Dense)
			var cov mat.Dense
			cov.Mul(xk, a)
			xk.Copy(&cov)
			for i := 0; i < size; i++ {
				row := xk.RawRowView(i)
				for j := range row {
					row[j] += centroids[k][j]
				}
			}
		}
		start = stop
	}

	if nRed > 0 {
		b := uniformMatrix(rng, nInf, nRed)
		var red mat.Dense
		red.Mul(x.Slice(0, n, 0, nInf), b)
		x.Slice(0, n, nInf, nInf+nRed).(*mat.Dense).Copy(&red)
	}
	if nRep > 0 {
		m := nInf + nRed
		for r := 0; r < nRep; r++ {
			src := int(float64(m-1)*rng.Float64() + 0.5)
			for i := 0; i < n; i++ {
				x.Set(i, m+r, x.At(i, src))
			}
		}
	}
	for i := 0; i < n; i++ {
		for j := opts.Features - nUseless; j < opts.Features; j++ {
			x.Set(i, j, rng.NormFloat64())
		}
	}

	if opts.FlipY > 0 {
		flip := make([]bool, n)
		for i := range flip {
			flip[i] = rng.Float64() < opts.FlipY
		}
		for i, f := range flip {
			if f {
				y[i] = rng.IntN(opts.Classes)
			}
		}
	}

	if opts.Shift != 0 || (opts.Scale != 0 && opts.Scale != 1) {
		scale := opts.Scale
		if scale == 0 {
			scale = 1
		}
		x.Apply(func(_, _ int, v float64) float64 {
			return (v + opts.Shift) * scale
		}, x)
	}

	if opts.Shuffle {
		rows := rng.Perm(n)
		shuffled := mat.NewDense(n, opts.Features, nil)
		labels := make([]int, n)
		for i, src := range rows {
			shuffled.SetRow(i, x.RawRowView(src))
			labels[i] = y[src]
		}
		cols := rng.Perm(opts.Features)
		for i := 0; i < n; i++ {
			row := x.RawRowView(i)
			srcRow := shuffled.RawRowView(i)
			for j, src := range cols {
				row[j] = srcRow[src]
			}
		}
		y = labels
	}

	return &Dataset{x: x, y: y}, nil
}

// hypercubeVertices returns n distinct random vertices of the unit hypercube
// in dim dimensions.
func hypercubeVertices(rng *rand.Rand, n, dim int) [][]float64 {
	out := make([][]float64, 0, n)
	for _, v := range sampleWithoutReplacement(rng, uint64(1)<<uint(dim), n) {
		vertex := make([]float64, dim)
		for j := 0; j < dim; j++ {
			// most significant bit first
			if v&(uint64(1)<<uint(dim-1-j)) != 0 {
				vertex[j] = 1
			}
		}
		out = append(out, vertex)
	}
	return out
}

// sampleWithoutReplacement draws k distinct integers from [0, n) using
// Floyd's algorithm.
func sampleWithoutReplacement(rng *rand.Rand, n uint64, k int) []uint64 {
	seen := make(map[uint64]struct{}, k)
	out := make([]uint64, 0, k)
	for j := n - uint64(k); j < n; j++ {
		t := rng.Uint64N(j + 1)
		if _, ok := seen[t]; ok {
			t = j
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// uniformMatrix returns an r x c matrix with entries drawn from U(-1, 1).
func uniformMatrix(rng *rand.Rand, r, c int) *mat.Dense {
	data := make([]float64, r*c)
	for i := range data {
		data[i] = 2*rng.Float64() - 1
	}
	return mat.NewDense(r, c, data)
}
