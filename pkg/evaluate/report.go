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

// Package evaluate scores predictions against true labels.
package evaluate

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	cerror "github.com/victoriarmitchell/fraud-detection/pkg/errors"
)

// ClassMetrics are the scores of one class, or an average over classes.
type ClassMetrics struct {
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

// Report is a per-class precision, recall and F1 summary.
type Report struct {
	Labels      []int
	PerClass    map[int]ClassMetrics
	Accuracy    float64
	MacroAvg    ClassMetrics
	WeightedAvg ClassMetrics
}

// ClassificationReport compares yPred with yTrue. Labels are the union of both
// slices. A score whose denominator is zero is reported as 0.
func ClassificationReport(yTrue, yPred []int) (*Report, error) {
	if len(yTrue) != len(yPred) {
		return nil, cerror.ErrEvaluateFailed.GenWithStackByArgs(
			fmt.Sprintf("%d true labels but %d predictions", len(yTrue), len(yPred)))
	}
	if len(yTrue) == 0 {
		return nil, cerror.ErrEvaluateFailed.GenWithStackByArgs("no samples")
	}

	var (
		truePos   = make(map[int]int)
		predicted = make(map[int]int)
		actual    = make(map[int]int)
		correct   int
	)
	for i, y := range yTrue {
		p := yPred[i]
		actual[y]++
		predicted[p]++
		if p == y {
			truePos[y]++
			correct++
		}
	}

	labelSet := make(map[int]struct{}, len(actual)+len(predicted))
	for l := range actual {
		labelSet[l] = struct{}{}
	}
	for l := range predicted {
		labelSet[l] = struct{}{}
	}
	labels := make([]int, 0, len(labelSet))
	for l := range labelSet {
		labels = append(labels, l)
	}
	sort.Ints(labels)

	r := &Report{
		Labels:   labels,
		PerClass: make(map[int]ClassMetrics, len(labels)),
		Accuracy: float64(correct) / float64(len(yTrue)),
	}
	total := len(yTrue)
	for _, l := range labels {
		m := ClassMetrics{
			Precision: ratio(truePos[l], predicted[l]),
			Recall:    ratio(truePos[l], actual[l]),
			Support:   actual[l],
		}
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		r.PerClass[l] = m

		r.MacroAvg.Precision += m.Precision / float64(len(labels))
		r.MacroAvg.Recall += m.Recall / float64(len(labels))
		r.MacroAvg.F1 += m.F1 / float64(len(labels))

		w := float64(m.Support) / float64(total)
		r.WeightedAvg.Precision += m.Precision * w
		r.WeightedAvg.Recall += m.Recall * w
		r.WeightedAvg.F1 += m.F1 * w
	}
	r.MacroAvg.Support = total
	r.WeightedAvg.Support = total
	return r, nil
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// Class returns the scores of label.
func (r *Report) Class(label int) (ClassMetrics, bool) {
	m, ok := r.PerClass[label]
	return m, ok
}

// String renders the report as a fixed width table.
func (r *Report) String() string {
	names := make([]string, len(r.Labels))
	width := len("weighted avg")
	for i, l := range r.Labels {
		names[i] = strconv.Itoa(l)
		if len(names[i]) > width {
			width = len(names[i])
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%*s ", width, "")
	for _, h := range []string{"precision", "recall", "f1-score", "support"} {
		fmt.Fprintf(&b, " %9s", h)
	}
	b.WriteString("\n\n")

	row := func(name string, m ClassMetrics) {
		fmt.Fprintf(&b, "%*s  %9.2f %9.2f %9.2f %9d\n",
			width, name, m.Precision, m.Recall, m.F1, m.Support)
	}
	for i, l := range r.Labels {
		row(names[i], r.PerClass[l])
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "%*s  %9s %9s %9.2f %9d\n",
		width, "accuracy", "", "", r.Accuracy, r.MacroAvg.Support)
	row("macro avg", r.MacroAvg)
	row("weighted avg", r.WeightedAvg)
	return b.String()
}
