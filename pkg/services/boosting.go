package services

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// BoostingParams configures gradient-boosted regression trees
type BoostingParams struct {
	Rounds         int
	LearningRate   float64
	MaxDepth       int
	Lambda         float64 // L2 regularisation on leaf weights
	MinChildWeight float64 // minimum hessian sum per child
}

// DefaultBoostingParams mirrors the usual xgboost regressor defaults with 100 rounds
func DefaultBoostingParams() BoostingParams {
	return BoostingParams{
		Rounds:         100,
		LearningRate:   0.3,
		MaxDepth:       6,
		Lambda:         1,
		MinChildWeight: 1,
	}
}

var errEmptyTrainingSet = errors.New("training set is empty")

// GradientBoostedTrees is a fitted squared-error boosting model.
// Categorical columns split one category against the rest.
type GradientBoostedTrees struct {
	params      BoostingParams
	base        float64
	categorical []bool
	trees       []*treeNode
}

type treeNode struct {
	leaf        bool
	value       float64
	feature     int
	threshold   float64
	categorical bool
	left, right *treeNode
}

func (n *treeNode) predict(x []float64) float64 {
	for !n.leaf {
		if n.categorical {
			if x[n.feature] == n.threshold {
				n = n.left
			} else {
				n = n.right
			}
			continue
		}
		if x[n.feature] < n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.value
}

// FitGradientBoostedTrees trains a model on rows X and targets y.
// categorical marks which columns hold category codes.
func FitGradientBoostedTrees(X [][]float64, y []float64, categorical []bool, params BoostingParams) (*GradientBoostedTrees, error) {
	if len(X) == 0 {
		return nil, errEmptyTrainingSet
	}
	if len(X) != len(y) {
		return nil, fmt.Errorf("got %d rows but %d targets", len(X), len(y))
	}
	width := len(categorical)
	for i, row := range X {
		if len(row) != width {
			return nil, fmt.Errorf("row %d has %d features, want %d", i, len(row), width)
		}
	}
	if params.Rounds <= 0 || params.MaxDepth <= 0 || params.LearningRate <= 0 {
		return nil, fmt.Errorf("invalid boosting parameters %+v", params)
	}

	b := &builder{
		X:           X,
		categorical: categorical,
		params:      params,
		grad:        make([]float64, len(X)),
		hess:        make([]float64, len(X)),
		goLeft:      make([]bool, len(X)),
	}
	b.presort()

	model := &GradientBoostedTrees{
		params:      params,
		base:        stat.Mean(y, nil),
		categorical: categorical,
	}
	preds := make([]float64, len(y))
	for i := range preds {
		preds[i] = model.base
	}

	for round := 0; round < params.Rounds; round++ {
		// squared error: g = pred - y, h = 1
		floats.SubTo(b.grad, preds, y)
		for i := range b.hess {
			b.hess[i] = 1
		}
		tree := b.build(b.sorted, 0)
		model.trees = append(model.trees, tree)
		for i, row := range X {
			preds[i] += params.LearningRate * tree.predict(row)
		}
	}
	return model, nil
}

// Predict returns one prediction per row
func (m *GradientBoostedTrees) Predict(X [][]float64) ([]float64, error) {
	out := make([]float64, len(X))
	for i, row := range X {
		if len(row) != len(m.categorical) {
			return nil, fmt.Errorf("row %d has %d features, want %d", i, len(row), len(m.categorical))
		}
		v := m.base
		for _, tree := range m.trees {
			v += m.params.LearningRate * tree.predict(row)
		}
		out[i] = v
	}
	return out, nil
}

// builder grows one tree per round. sorted holds, per feature, the row indices of the
// current node ordered by that feature's value.
type builder struct {
	X           [][]float64
	categorical []bool
	params      BoostingParams
	grad, hess  []float64
	sorted      [][]int
	goLeft      []bool
}

func (b *builder) presort() {
	width := len(b.categorical)
	b.sorted = make([][]int, width)
	for f := 0; f < width; f++ {
		idx := make([]int, len(b.X))
		for i := range idx {
			idx[i] = i
		}
		sort.SliceStable(idx, func(i, j int) bool { return b.X[idx[i]][f] < b.X[idx[j]][f] })
		b.sorted[f] = idx
	}
}

type split struct {
	gain        float64
	feature     int
	threshold   float64
	categorical bool
}

func (b *builder) score(g, h float64) float64 {
	return g * g / (h + b.params.Lambda)
}

func (b *builder) build(sorted [][]int, depth int) *treeNode {
	rows := sorted[0]
	var G, H float64
	for _, i := range rows {
		G += b.grad[i]
		H += b.hess[i]
	}
	leaf := &treeNode{leaf: true, value: -G / (H + b.params.Lambda)}
	if depth >= b.params.MaxDepth || len(rows) < 2 {
		return leaf
	}

	best := split{gain: 1e-12}
	found := false
	parent := b.score(G, H)
	for f, idx := range sorted {
		var s split
		var ok bool
		if b.categorical[f] {
			s, ok = b.bestCategorical(f, idx, G, H, parent)
		} else {
			s, ok = b.bestNumeric(f, idx, G, H, parent)
		}
		if ok && s.gain > best.gain {
			best, found = s, true
		}
	}
	if !found {
		return leaf
	}

	for _, i := range rows {
		x := b.X[i][best.feature]
		if best.categorical {
			b.goLeft[i] = x == best.threshold
		} else {
			b.goLeft[i] = x < best.threshold
		}
	}
	left := make([][]int, len(sorted))
	right := make([][]int, len(sorted))
	for f, idx := range sorted {
		l := make([]int, 0, len(idx))
		r := make([]int, 0, len(idx))
		for _, i := range idx {
			if b.goLeft[i] {
				l = append(l, i)
			} else {
				r = append(r, i)
			}
		}
		left[f], right[f] = l, r
	}

	return &treeNode{
		feature:     best.feature,
		threshold:   best.threshold,
		categorical: best.categorical,
		left:        b.build(left, depth+1),
		right:       b.build(right, depth+1),
	}
}

func (b *builder) bestNumeric(f int, idx []int, G, H, parent float64) (split, bool) {
	var best split
	found := false
	var GL, HL float64
	for k := 0; k < len(idx)-1; k++ {
		i := idx[k]
		GL += b.grad[i]
		HL += b.hess[i]
		cur, next := b.X[i][f], b.X[idx[k+1]][f]
		if cur == next {
			continue
		}
		GR, HR := G-GL, H-HL
		if HL < b.params.MinChildWeight || HR < b.params.MinChildWeight {
			continue
		}
		gain := 0.5 * (b.score(GL, HL) + b.score(GR, HR) - parent)
		if !found || gain > best.gain {
			best = split{gain: gain, feature: f, threshold: (cur + next) / 2}
			found = true
		}
	}
	return best, found
}

func (b *builder) bestCategorical(f int, idx []int, G, H, parent float64) (split, bool) {
	var best split
	found := false
	for start := 0; start < len(idx); {
		category := b.X[idx[start]][f]
		var GL, HL float64
		end := start
		for end < len(idx) && b.X[idx[end]][f] == category {
			GL += b.grad[idx[end]]
			HL += b.hess[idx[end]]
			end++
		}
		start = end

		GR, HR := G-GL, H-HL
		if HL < b.params.MinChildWeight || HR < b.params.MinChildWeight {
			continue
		}
		gain := 0.5 * (b.score(GL, HL) + b.score(GR, HR) - parent)
		if !found || gain > best.gain {
			best = split{gain: gain, feature: f, threshold: category, categorical: true}
			found = true
		}
	}
	return best, found
}
