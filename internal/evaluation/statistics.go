// Package evaluation summarises per-hand rewards from greedy evaluation runs.
package evaluation

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/lox/blackjackrl/sdk/qlearn"
)

// Summary describes a sample of per-hand rewards.
type Summary struct {
	Hands    int
	Mean     float64
	StdDev   float64
	StdError float64
	CI95Low  float64
	CI95High float64
}

// Comparison contrasts two reward samples (Welch's t-test).
type Comparison struct {
	Difference float64 // a.Mean - b.Mean
	StdError   float64
	TStatistic float64
	PValue     float64
	EffectSize float64 // Cohen's d
	CI95Low    float64
	CI95High   float64
}

// Summarize computes the mean reward and its 95% confidence interval.
func Summarize(rewards []float64) Summary {
	n := len(rewards)
	if n == 0 {
		return Summary{}
	}
	mean, stdDev := stat.MeanStdDev(rewards, nil)
	if n == 1 {
		stdDev = 0
	}
	se := stdDev / math.Sqrt(float64(n))
	low, high := ci95(mean, se, n-1)
	return Summary{
		Hands:    n,
		Mean:     mean,
		StdDev:   stdDev,
		StdError: se,
		CI95Low:  low,
		CI95High: high,
	}
}

// SummarizeResult is Summarize over an evaluation run.
func SummarizeResult(res qlearn.EvalResult) Summary {
	return Summarize(res.Rewards)
}

// Compare tests whether sample a differs from sample b.
func Compare(a, b Summary) Comparison {
	difference := a.Mean - b.Mean

	pooled := pooledStdDev(a.StdDev, a.Hands, b.StdDev, b.Hands)
	effect := 0.0
	if pooled > 0 {
		effect = difference / pooled
	}

	se := math.Sqrt(a.StdError*a.StdError + b.StdError*b.StdError)
	tStat := 0.0
	if se > 0 {
		tStat = difference / se
	}

	df := welchDF(a, b)
	low, high := ci95(difference, se, df)
	return Comparison{
		Difference: difference,
		StdError:   se,
		TStatistic: tStat,
		PValue:     pValue(tStat, df),
		EffectSize: effect,
		CI95Low:    low,
		CI95High:   high,
	}
}

// ci95 returns a two-tailed 95% interval around center using a t-distribution
// with df degrees of freedom.
func ci95(center, se float64, df int) (float64, float64) {
	if df <= 0 {
		return center, center
	}
	t := distuv.StudentsT{Nu: float64(df), Mu: 0, Sigma: 1}
	margin := t.Quantile(0.975) * se
	return center - margin, center + margin
}

func pooledStdDev(sd1 float64, n1 int, sd2 float64, n2 int) float64 {
	if n1+n2 <= 2 {
		return 0
	}
	v := (float64(n1-1)*sd1*sd1 + float64(n2-1)*sd2*sd2) / float64(n1+n2-2)
	return math.Sqrt(v)
}

func welchDF(a, b Summary) int {
	if a.Hands <= 1 || b.Hands <= 1 {
		return 1
	}
	v1 := a.StdError * a.StdError
	v2 := b.StdError * b.StdError
	denominator := v1*v1/float64(a.Hands-1) + v2*v2/float64(b.Hands-1)
	if denominator == 0 {
		return a.Hands + b.Hands - 2
	}
	return int(math.Floor((v1 + v2) * (v1 + v2) / denominator))
}

func pValue(tStat float64, df int) float64 {
	if df <= 0 {
		return 1
	}
	if tStat == 0 {
		return 1
	}
	t := distuv.StudentsT{Nu: float64(df), Mu: 0, Sigma: 1}
	p := 2 * (1 - t.CDF(math.Abs(tStat)))
	return math.Min(math.Max(p, 0), 1)
}

// InterpretPValue labels a p-value against significance level alpha.
func InterpretPValue(p, alpha float64) string {
	if p < alpha {
		return "significant"
	}
	return "not significant"
}

// InterpretEffectSize labels Cohen's d.
func InterpretEffectSize(d float64) string {
	switch absd := math.Abs(d); {
	case absd < 0.2:
		return "negligible"
	case absd < 0.5:
		return "small"
	case absd < 0.8:
		return "medium"
	default:
		return "large"
	}
}
