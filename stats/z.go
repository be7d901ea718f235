package stats

import "gonum.org/v1/gonum/stat/distuv"

// ZVal is the two-sided standard normal quantile for a confidence level
// given in percent, e.g. 1.96 for 95.
func ZVal(confidence float64) float64 {
	tail := (100 - confidence) / 200
	return distuv.UnitNormal.Quantile(1 - tail)
}
