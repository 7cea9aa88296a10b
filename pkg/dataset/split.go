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

	cerror "github.com/victoriarmitchell/fraud-detection/pkg/errors"
)

// Split holds two disjoint partitions of a Dataset.
type Split struct {
	Train *Dataset
	Test  *Dataset

	// TrainIndices and TestIndices are positions in the source dataset.
	TrainIndices []int
	TestIndices  []int
}

// TestCount returns how many of n samples go to the test partition for the
// given fraction: ceil(testSize * n). Ceil rather than round keeps the
// partition sizes identical to scikit-learn's train_test_split, so 0.3333 of
// 1000 samples yields 334, not 333.
func TestCount(n int, testSize float64) int {
	// tolerate representation error such as 0.1*30 = 3.0000000000000004
	return int(math.Ceil(testSize*float64(n) - 1e-9))
}

// TrainTestSplit shuffles the sample positions with seed and assigns the first
// TestCount of them to the test partition and the rest to the train
// partition. The same seed always yields the same partition.
func TrainTestSplit(ds *Dataset, testSize float64, seed int64) (*Split, error) {
	if !(testSize > 0 && testSize < 1) {
		return nil, cerror.ErrInvalidTestSize.GenWithStackByArgs(testSize, "must be in (0, 1)")
	}
	n := ds.Len()
	nTest := TestCount(n, testSize)
	nTrain := n - nTest
	if nTest <= 0 || nTrain <= 0 {
		return nil, cerror.ErrInvalidTestSize.GenWithStackByArgs(testSize,
			fmt.Sprintf("with %d samples the resulting train set or test set would be empty", n))
	}

	perm := newRand(seed).Perm(n)
	testIdx := append([]int(nil), perm[:nTest]...)
	trainIdx := append([]int(nil), perm[nTest:]...)

	return &Split{
		Train:        ds.Subset(trainIdx),
		Test:         ds.Subset(testIdx),
		TrainIndices: trainIdx,
		TestIndices:  testIdx,
	}, nil
}
