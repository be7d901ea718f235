package stats

import (
	"fmt"
	"io"
	"math"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"

	"github.com/domino14/minigo/results"
	"github.com/domino14/minigo/solver"
)

const (
	DefaultConfidence = 95.0
	histogramBins     = 10
	histogramWidth    = 40
)

// SizeSummary describes the first moves of one board size.
type SizeSummary struct {
	N           int
	Legal       int
	Wins        int
	WinFraction float64
}

// Summary aggregates a set of solved sizes.
type Summary struct {
	Sizes []SizeSummary

	MeanWinFraction  float64
	StdevWinFraction float64
	// CILow and CIHigh bound the mean win fraction at Confidence percent.
	Confidence float64
	CILow      float64
	CIHigh     float64

	Elapsed Statistic

	winFractions []float64
	elapsed      []float64
}

// Summarize computes per-size win fractions and their spread.
func Summarize(rows []results.Row, confidence float64) Summary {
	s := Summary{Confidence: confidence}
	for _, r := range rows {
		legal := lo.CountBy(r.Outcomes, func(o solver.Outcome) bool { return o != solver.Illegal })
		wins := solver.CountWins(r.Outcomes)
		frac := 0.0
		if legal > 0 {
			frac = float64(wins) / float64(legal)
		}
		s.Sizes = append(s.Sizes, SizeSummary{N: r.N, Legal: legal, Wins: wins, WinFraction: frac})
		s.winFractions = append(s.winFractions, frac)
		s.elapsed = append(s.elapsed, r.ElapsedSec)
		s.Elapsed.Push(r.ElapsedSec)
	}
	switch len(s.winFractions) {
	case 0:
		return s
	case 1:
		s.MeanWinFraction = s.winFractions[0]
	default:
		s.MeanWinFraction, s.StdevWinFraction = stat.MeanStdDev(s.winFractions, nil)
	}
	stderr := stat.StdErr(s.StdevWinFraction, float64(len(s.winFractions)))
	z := ZVal(confidence)
	s.CILow = math.Max(0, s.MeanWinFraction-z*stderr)
	s.CIHigh = math.Min(1, s.MeanWinFraction+z*stderr)
	return s
}

// Fprint writes a readable report with histograms of the win fractions and
// of the time spent per size.
func (s Summary) Fprint(w io.Writer) error {
	if len(s.Sizes) == 0 {
		_, err := fmt.Fprintln(w, "No results.")
		return err
	}
	fmt.Fprintf(w, "%-6s %6s %6s %8s\n", "N", "Legal", "Wins", "Win%")
	for _, sz := range s.Sizes {
		fmt.Fprintf(w, "%-6d %6d %6d %7.1f%%\n", sz.N, sz.Legal, sz.Wins, 100*sz.WinFraction)
	}
	fmt.Fprintf(w, "\nMean win fraction: %.4f (stdev %.4f, %g%% CI %.4f - %.4f)\n",
		s.MeanWinFraction, s.StdevWinFraction, s.Confidence, s.CILow, s.CIHigh)
	fmt.Fprintf(w, "Time over %d sizes: mean %.4gs +/- %.4gs (stdev %.4gs), total %.4gs\n",
		s.Elapsed.Iterations(), s.Elapsed.Mean(), s.Elapsed.StandardError(),
		s.Elapsed.Stdev(), lo.Sum(s.elapsed))
	fmt.Fprintf(w, "Last size N=%d took %.4gs\n", s.Sizes[len(s.Sizes)-1].N, s.Elapsed.Last())

	if len(s.Sizes) < 2 {
		return nil
	}
	fmt.Fprintln(w, "\nWin fraction histogram:")
	if err := histogram.Fprint(w, histogram.Hist(histogramBins, s.winFractions),
		histogram.Linear(histogramWidth)); err != nil {
		return err
	}
	fmt.Fprintln(w, "\nElapsed seconds histogram:")
	return histogram.Fprint(w, histogram.Hist(histogramBins, s.elapsed),
		histogram.Linear(histogramWidth))
}
