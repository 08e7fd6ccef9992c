// internal/stats/stats.go

// Package stats implements the descriptive and inferential statistics behind
// drift detection: sample summaries, Welch's t-test and Cohen's d.
package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Summary describes one sample of accuracy means.
type Summary struct {
	N        int     `json:"n"`
	Mean     float64 `json:"mean"`
	Std      float64 `json:"std"`
	Variance float64 `json:"variance"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	CILow    float64 `json:"ci95Low"`
	CIHigh   float64 `json:"ci95High"`
}

// Describe computes a sample summary with a 95% confidence interval for the
// mean. The interval uses the t distribution, which matters at the small
// batch counts drift analysis works with.
func Describe(xs []float64) (Summary, error) {
	if len(xs) == 0 {
		return Summary{}, fmt.Errorf("cannot describe an empty sample")
	}
	s := Summary{
		N:    len(xs),
		Mean: stat.Mean(xs, nil),
		Min:  xs[0],
		Max:  xs[0],
	}
	for _, x := range xs {
		if x < s.Min {
			s.Min = x
		}
		if x > s.Max {
			s.Max = x
		}
	}
	if len(xs) == 1 {
		s.CILow, s.CIHigh = s.Mean, s.Mean
		return s, nil
	}
	s.Variance = stat.Variance(xs, nil)
	s.Std = math.Sqrt(s.Variance)

	tCrit := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(len(xs) - 1)}.Quantile(0.975)
	margin := tCrit * s.Std / math.Sqrt(float64(len(xs)))
	s.CILow = s.Mean - margin
	s.CIHigh = s.Mean + margin
	return s, nil
}

// TTest holds the outcome of Welch's unequal-variance t-test.
type TTest struct {
	T  float64 `json:"t"`
	DF float64 `json:"df"`
	P  float64 `json:"p"`
}

// WelchTTest compares the means of two independent samples without assuming
// equal variances. Both samples need at least two observations.
//
// When both samples have zero variance the test degenerates: equal means
// give t=0, p=1; differing means give t=±Inf, p=0.
func WelchTTest(a, b []float64) (TTest, error) {
	if len(a) < 2 || len(b) < 2 {
		return TTest{}, fmt.Errorf("welch t-test needs at least 2 observations per sample, got %d and %d", len(a), len(b))
	}

	meanA, varA := stat.MeanVariance(a, nil)
	meanB, varB := stat.MeanVariance(b, nil)
	nA, nB := float64(len(a)), float64(len(b))

	seSq := varA/nA + varB/nB
	if seSq == 0 {
		if meanA == meanB {
			return TTest{T: 0, DF: nA + nB - 2, P: 1}, nil
		}
		t := math.Inf(1)
		if meanA < meanB {
			t = math.Inf(-1)
		}
		return TTest{T: t, DF: nA + nB - 2, P: 0}, nil
	}

	t := (meanA - meanB) / math.Sqrt(seSq)

	// Welch–Satterthwaite approximation for the degrees of freedom.
	df := seSq * seSq / (varA*varA/(nA*nA*(nA-1)) + varB*varB/(nB*nB*(nB-1)))

	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := 2 * dist.CDF(-math.Abs(t))
	return TTest{T: t, DF: df, P: p}, nil
}

// CohensD measures the standardized difference between two sample means
// using the pooled standard deviation. Zero pooled variance degenerates the
// same way the t-test does.
func CohensD(a, b []float64) (float64, error) {
	if len(a) < 2 || len(b) < 2 {
		return 0, fmt.Errorf("cohen's d needs at least 2 observations per sample, got %d and %d", len(a), len(b))
	}

	meanA, varA := stat.MeanVariance(a, nil)
	meanB, varB := stat.MeanVariance(b, nil)
	nA, nB := float64(len(a)), float64(len(b))

	pooled := ((nA-1)*varA + (nB-1)*varB) / (nA + nB - 2)
	if pooled == 0 {
		if meanA == meanB {
			return 0, nil
		}
		if meanA > meanB {
			return math.Inf(1), nil
		}
		return math.Inf(-1), nil
	}
	return (meanA - meanB) / math.Sqrt(pooled), nil
}

// InterpretD names the conventional effect-size band for |d|.
func InterpretD(d float64) string {
	abs := math.Abs(d)
	switch {
	case abs < 0.2:
		return "negligible"
	case abs < 0.5:
		return "small"
	case abs < 0.8:
		return "medium"
	default:
		return "large"
	}
}
