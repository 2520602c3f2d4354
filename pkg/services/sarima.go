package services

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"
)

// SARIMAOrder is the (p,d,q)(P,D,Q,s) specification of a seasonal ARIMA model
type SARIMAOrder struct {
	P, D, Q    int
	SP, SD, SQ int
	Season     int
}

// WeeklySARIMA is the (1,1,1)(1,1,1,7) model used for daily revenue
var WeeklySARIMA = SARIMAOrder{P: 1, D: 1, Q: 1, SP: 1, SD: 1, SQ: 1, Season: 7}

var errSeriesTooShort = errors.New("series too short for model order")

// MinObservations is the shortest series the order can be fitted on
func (o SARIMAOrder) MinObservations() int {
	return o.D + o.SD*o.Season + o.P + o.SP*o.Season + 2
}

func (o SARIMAOrder) numParams() int {
	return o.P + o.Q + o.SP + o.SQ
}

// SARIMAModel is a fitted seasonal ARIMA model estimated by conditional sum of squares
type SARIMAModel struct {
	order  SARIMAOrder
	params []float64
	y      []float64 // observed series
	w      []float64 // differenced series
	resid  []float64 // in-sample residuals of w
	ar     []float64 // expanded AR lag coefficients, ar[k] multiplies w[t-k]
	ma     []float64 // expanded MA lag coefficients, ma[k] multiplies e[t-k]
	integ  []float64 // integration coefficients, integ[k] multiplies y[t-k]
	sigma2 float64
}

// FitSARIMA estimates the model on y with Nelder-Mead over the CSS objective.
// Coefficients are kept inside (-1, 1) through a tanh transform.
func FitSARIMA(y []float64, order SARIMAOrder) (*SARIMAModel, error) {
	if len(y) < order.MinObservations() {
		return nil, fmt.Errorf("%w: have %d observations, need %d", errSeriesTooShort, len(y), order.MinObservations())
	}
	for _, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.New("series contains non-finite values")
		}
	}

	m := &SARIMAModel{
		order: order,
		y:     append([]float64(nil), y...),
		integ: integrationCoefficients(order),
	}
	m.w = difference(m.y, m.integ)

	k := order.numParams()
	if k > 0 {
		objective := func(x []float64) float64 {
			m.setParams(squash(x))
			v := m.css()
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return math.MaxFloat64
			}
			return v
		}
		problem := optimize.Problem{Func: objective}
		settings := &optimize.Settings{FuncEvaluations: 4000}
		res, err := optimize.Minimize(problem, make([]float64, k), settings, &optimize.NelderMead{})
		if res == nil {
			return nil, fmt.Errorf("sarima optimisation failed: %w", err)
		}
		if err != nil && res.F == math.MaxFloat64 {
			return nil, fmt.Errorf("sarima optimisation failed: %w", err)
		}
		m.setParams(squash(res.X))
	} else {
		m.setParams(nil)
	}
	m.sigma2 = m.css()
	return m, nil
}

// Params returns the fitted coefficients in (ar, ma, seasonal ar, seasonal ma) order
func (m *SARIMAModel) Params() []float64 {
	return append([]float64(nil), m.params...)
}

// Sigma2 returns the mean squared in-sample residual
func (m *SARIMAModel) Sigma2() float64 { return m.sigma2 }

// Forecast predicts the next steps values after the end of the series
func (m *SARIMAModel) Forecast(steps int) []float64 {
	if steps <= 0 {
		return nil
	}
	w := append([]float64(nil), m.w...)
	e := append([]float64(nil), m.resid...)
	y := append([]float64(nil), m.y...)
	out := make([]float64, steps)
	for h := 0; h < steps; h++ {
		t := len(w)
		var next float64
		for k := 1; k < len(m.ar); k++ {
			if t-k >= 0 {
				next += m.ar[k] * w[t-k]
			}
		}
		for k := 1; k < len(m.ma); k++ {
			if t-k >= 0 && t-k < len(e) {
				next += m.ma[k] * e[t-k]
			}
		}
		w = append(w, next)
		e = append(e, 0)

		level := next
		n := len(y)
		for k := 1; k < len(m.integ); k++ {
			level += m.integ[k] * y[n-k]
		}
		y = append(y, level)
		out[h] = level
	}
	return out
}

func (m *SARIMAModel) setParams(p []float64) {
	o := m.order
	m.params = p
	arNS := coeffs(p, 0, o.P)
	maNS := coeffs(p, o.P, o.Q)
	arS := coeffs(p, o.P+o.Q, o.SP)
	maS := coeffs(p, o.P+o.Q+o.SP, o.SQ)

	// (1 - phi(B))(1 - Phi(B^s)) expanded; ar holds the negated tail
	arPoly := polyMul(lagPoly(arNS, 1, -1), lagPoly(arS, o.Season, -1))
	m.ar = make([]float64, len(arPoly))
	for k := 1; k < len(arPoly); k++ {
		m.ar[k] = -arPoly[k]
	}
	m.ma = polyMul(lagPoly(maNS, 1, 1), lagPoly(maS, o.Season, 1))
}

// css computes residuals of the differenced series and returns their mean square.
// Residuals before the first full AR lag are taken as zero.
func (m *SARIMAModel) css() float64 {
	n := len(m.w)
	start := len(m.ar) - 1
	if start < 0 {
		start = 0
	}
	if cap(m.resid) < n {
		m.resid = make([]float64, n)
	}
	m.resid = m.resid[:n]
	for i := range m.resid {
		m.resid[i] = 0
	}
	var sum float64
	count := 0
	for t := start; t < n; t++ {
		pred := 0.0
		for k := 1; k < len(m.ar); k++ {
			pred += m.ar[k] * m.w[t-k]
		}
		for k := 1; k < len(m.ma); k++ {
			if t-k >= 0 {
				pred += m.ma[k] * m.resid[t-k]
			}
		}
		m.resid[t] = m.w[t] - pred
		sum += m.resid[t] * m.resid[t]
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// integrationCoefficients expands (1-B)^d (1-B^s)^D; entry k>0 is the weight of y[t-k]
// when undoing the differencing, i.e. the negated polynomial tail.
func integrationCoefficients(o SARIMAOrder) []float64 {
	poly := []float64{1}
	for i := 0; i < o.D; i++ {
		poly = polyMul(poly, []float64{1, -1})
	}
	for i := 0; i < o.SD; i++ {
		seasonal := make([]float64, o.Season+1)
		seasonal[0], seasonal[o.Season] = 1, -1
		poly = polyMul(poly, seasonal)
	}
	out := make([]float64, len(poly))
	for k := 1; k < len(poly); k++ {
		out[k] = -poly[k]
	}
	return out
}

// difference applies the differencing operator given by integ to y
func difference(y, integ []float64) []float64 {
	lag := len(integ) - 1
	if len(y) <= lag {
		return nil
	}
	out := make([]float64, 0, len(y)-lag)
	for t := lag; t < len(y); t++ {
		v := y[t]
		for k := 1; k <= lag; k++ {
			v -= integ[k] * y[t-k]
		}
		out = append(out, v)
	}
	return out
}

// lagPoly builds 1 + sign*(c1 B^step + c2 B^2step + ...)
func lagPoly(c []float64, step int, sign float64) []float64 {
	poly := make([]float64, len(c)*step+1)
	poly[0] = 1
	for i, v := range c {
		poly[(i+1)*step] = sign * v
	}
	return poly
}

func polyMul(a, b []float64) []float64 {
	out := make([]float64, len(a)+len(b)-1)
	for i, x := range a {
		if x == 0 {
			continue
		}
		for j, y := range b {
			out[i+j] += x * y
		}
	}
	return out
}

func coeffs(p []float64, offset, n int) []float64 {
	if n == 0 || len(p) < offset+n {
		return nil
	}
	return p[offset : offset+n]
}

func squash(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = math.Tanh(v)
	}
	return out
}
