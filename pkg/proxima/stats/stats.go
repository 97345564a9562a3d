// Package stats provides the significance helpers used to compare groups:
// Welch's t-test, Pearson correlation and simple linear regression.
package stats

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/cognicore/proxima/pkg/proxima/internalerr"
)

// DefaultAlpha is the p-value below which a result is significant.
const DefaultAlpha = 0.05

// WelchTTest runs a two-sided t-test without assuming equal variances.
func WelchTTest(a, b []float64) (t, p float64, err error) {
	if len(a) < 2 || len(b) < 2 {
		return 0, 0, fmt.Errorf("t-test needs at least two samples per side: %w", internalerr.ErrInvalidInput)
	}
	ma, va := stat.MeanVariance(a, nil)
	mb, vb := stat.MeanVariance(b, nil)
	na, nb := float64(len(a)), float64(len(b))

	sa, sb := va/na, vb/nb
	se := math.Sqrt(sa + sb)
	if se == 0 {
		if ma == mb {
			return 0, 1, nil
		}
		return 0, 0, fmt.Errorf("zero variance in both samples: %w", internalerr.ErrInvalidInput)
	}
	t = (ma - mb) / se
	df := (sa + sb) * (sa + sb) / (sa*sa/(na-1) + sb*sb/(nb-1))
	return t, twoSided(t, df), nil
}

// Significant reports whether the means of a and b differ at level alpha.
func Significant(a, b []float64, alpha float64) (bool, error) {
	_, p, err := WelchTTest(a, b)
	if err != nil {
		return false, err
	}
	return p < alpha, nil
}

// Pearson returns the correlation coefficient and its two-sided p-value.
func Pearson(x, y []float64) (r, p float64, err error) {
	if err := checkPaired(x, y); err != nil {
		return 0, 0, err
	}
	r = stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		return 0, 0, fmt.Errorf("correlation undefined for constant input: %w", internalerr.ErrInvalidInput)
	}
	return r, correlationP(r, len(x)), nil
}

// Regression is the result of LinearRegression.
type Regression struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	R         float64 `json:"r"`
	P         float64 `json:"p"`
}

// LinearRegression fits y = Intercept + Slope*x by least squares.
func LinearRegression(x, y []float64) (Regression, error) {
	if err := checkPaired(x, y); err != nil {
		return Regression{}, err
	}
	if stat.Variance(x, nil) == 0 {
		return Regression{}, fmt.Errorf("regression undefined for constant x: %w", internalerr.ErrInvalidInput)
	}
	alpha, beta := stat.LinearRegression(x, y, nil, false)
	r, p, err := Pearson(x, y)
	if err != nil {
		// constant y
		r, p = 0, 1
	}
	return Regression{Slope: beta, Intercept: alpha, R: r, P: p}, nil
}

func checkPaired(x, y []float64) error {
	if len(x) != len(y) {
		return fmt.Errorf("length mismatch %d != %d: %w", len(x), len(y), internalerr.ErrInvalidInput)
	}
	if len(x) < 3 {
		return fmt.Errorf("need at least three pairs: %w", internalerr.ErrInvalidInput)
	}
	return nil
}

func correlationP(r float64, n int) float64 {
	if math.Abs(r) >= 1 {
		return 0
	}
	df := float64(n - 2)
	t := r * math.Sqrt(df/(1-r*r))
	return twoSided(t, df)
}

func twoSided(t, df float64) float64 {
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return 2 * dist.Survival(math.Abs(t))
}

// Median returns the middle value, averaging the two middle values of an
// even-length input. It returns 0 for empty input.
func Median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// Mean returns the arithmetic mean, or 0 for empty input.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}
