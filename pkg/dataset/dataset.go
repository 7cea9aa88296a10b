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

// Package dataset generates the synthetic fraud detection data and splits it
// into train and test partitions.
package dataset

import (
	"fmt"
	"math/rand/v2"

	cerror "github.com/victoriarmitchell/fraud-detection/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Dataset is a feature matrix paired with integer class labels.
// A Dataset is never modified after it is built; accessors return copies.
type Dataset struct {
	x *mat.Dense
	y []int
}

// New builds a Dataset from a copy of x and y.
func New(x mat.Matrix, y []int) (*Dataset, error) {
	r, _ := x.Dims()
	if r != len(y) {
		return nil, cerror.ErrDatasetInvalid.GenWithStackByArgs(
			fmt.Sprintf("%d feature rows but %d labels", r, len(y)))
	}
	if r == 0 {
		return nil, cerror.ErrDatasetInvalid.GenWithStackByArgs("no samples")
	}
	labels := make([]int, len(y))
	copy(labels, y)
	return &Dataset{x: mat.DenseCopyOf(x), y: labels}, nil
}

// Len returns the number of samples.
func (d *Dataset) Len() int {
	return len(d.y)
}

// NumFeatures returns the length of each feature vector.
func (d *Dataset) NumFeatures() int {
	_, c := d.x.Dims()
	return c
}

// Features returns a copy of the feature matrix.
func (d *Dataset) Features() *mat.Dense {
	return mat.DenseCopyOf(d.x)
}

// Row copies the i-th feature vector into dst, allocating when dst is too short.
func (d *Dataset) Row(i int, dst []float64) []float64 {
	if cap(dst) < d.NumFeatures() {
		dst = make([]float64, d.NumFeatures())
	}
	dst = dst[:d.NumFeatures()]
	copy(dst, d.x.RawRowView(i))
	return dst
}

// Label returns the class of the i-th sample.
func (d *Dataset) Label(i int) int {
	return d.y[i]
}

// Labels returns a copy of all labels.
func (d *Dataset) Labels() []int {
	labels := make([]int, len(d.y))
	copy(labels, d.y)
	return labels
}

// ClassCounts returns the number of samples per class.
func (d *Dataset) ClassCounts() map[int]int {
	counts := make(map[int]int)
	for _, l := range d.y {
		counts[l]++
	}
	return counts
}

// FeatureNames returns feature_0 ... feature_{n-1}.
func (d *Dataset) FeatureNames() []string {
	names := make([]string, d.NumFeatures())
	for i := range names {
		names[i] = fmt.Sprintf("feature_%d", i)
	}
	return names
}

// Subset returns the samples at idx, in that order.
func (d *Dataset) Subset(idx []int) *Dataset {
	x := mat.NewDense(len(idx), d.NumFeatures(), nil)
	y := make([]int, len(idx))
	for i, j := range idx {
		x.SetRow(i, d.x.RawRowView(j))
		y[i] = d.y[j]
	}
	return &Dataset{x: x, y: y}
}

const pcgStream = 0x9e3779b97f4a7c15

// newRand returns the generator every seeded operation of this package uses.
func newRand(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)^pcgStream))
}
