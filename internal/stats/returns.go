package stats

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ReturnSummary describes the spread of episode returns in one run.
type ReturnSummary struct {
	Episodes int     `json:"episodes"`
	Mean     float64 `json:"mean"`
	StdDev   float64 `json:"std_dev"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Total    float64 `json:"total"`
}

// SummarizeReturns computes the unweighted summary of returns. StdDev is the
// sample standard deviation and is zero for fewer than two episodes.
func SummarizeReturns(returns []float64) ReturnSummary {
	if len(returns) == 0 {
		return ReturnSummary{}
	}
	summary := ReturnSummary{
		Episodes: len(returns),
		Min:      floats.Min(returns),
		Max:      floats.Max(returns),
		Total:    floats.Sum(returns),
	}
	if len(returns) == 1 {
		summary.Mean = returns[0]
		return summary
	}
	summary.Mean, summary.StdDev = stat.MeanStdDev(returns, nil)
	return summary
}

// CumulativeReturns is the running return after each step.
func CumulativeReturns(rewards []float64) []float64 {
	out := make([]float64, len(rewards))
	if len(rewards) == 0 {
		return out
	}
	return floats.CumSum(out, rewards)
}
