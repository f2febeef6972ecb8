package model

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// Node is a single split or leaf of a regression tree. A node with Leaf set is
// terminal; otherwise rows with x[Feature] < Threshold go Left, the rest Right.
// Missing features (NaN) follow Left, as xgboost's default direction does.
type Node struct {
	Feature   int      `json:"feature"`
	Threshold float64  `json:"threshold"`
	Left      int      `json:"left"`
	Right     int      `json:"right"`
	Leaf      *float64 `json:"leaf,omitempty"`
}

// Tree is a flat node list rooted at index 0.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

func (t Tree) eval(x []float64) (float64, error) {
	if len(t.Nodes) == 0 {
		return 0, errors.New("empty tree")
	}
	idx := 0
	for steps := 0; steps <= len(t.Nodes); steps++ {
		n := t.Nodes[idx]
		if n.Leaf != nil {
			return *n.Leaf, nil
		}
		if n.Feature < 0 || n.Feature >= len(x) {
			return 0, fmt.Errorf("split on feature %d but vector has %d features", n.Feature, len(x))
		}
		next := n.Right
		if v := x[n.Feature]; math.IsNaN(v) || v < n.Threshold {
			next = n.Left
		}
		if next <= 0 || next >= len(t.Nodes) {
			return 0, fmt.Errorf("node %d points outside tree (%d)", idx, next)
		}
		idx = next
	}
	return 0, errors.New("tree contains a cycle")
}

// Ensemble is an additive tree model. With NumClass > 1 trees are assigned to
// classes round-robin and Predict returns the arg-max class index.
type Ensemble struct {
	Objective string  `json:"objective"`
	BaseScore float64 `json:"base_score"`
	NumClass  int     `json:"num_class"`
	Trees     []Tree  `json:"trees"`
}

// Predict returns the regression value, or the class index for multiclass ensembles.
func (e *Ensemble) Predict(x []float64) (float64, error) {
	if e == nil {
		return 0, errors.New("nil ensemble")
	}
	if e.NumClass > 1 {
		scores, err := e.Scores(x)
		if err != nil {
			return 0, err
		}
		best := 0
		for k := 1; k < len(scores); k++ {
			if scores[k] > scores[best] {
				best = k
			}
		}
		return float64(best), nil
	}

	sum := e.BaseScore
	for i, t := range e.Trees {
		v, err := t.eval(x)
		if err != nil {
			return 0, errors.Wrapf(err, "tree %d", i)
		}
		sum += v
	}
	return sum, nil
}

// Scores returns the per-class margins of a multiclass ensemble.
func (e *Ensemble) Scores(x []float64) ([]float64, error) {
	if e.NumClass < 2 {
		return nil, errors.New("ensemble is not multiclass")
	}
	scores := make([]float64, e.NumClass)
	for k := range scores {
		scores[k] = e.BaseScore
	}
	for i, t := range e.Trees {
		v, err := t.eval(x)
		if err != nil {
			return nil, errors.Wrapf(err, "tree %d", i)
		}
		scores[i%e.NumClass] += v
	}
	return scores, nil
}
