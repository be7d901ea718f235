// Package results records solved board sizes and moves them between the
// formats the tools read and write: CSV, YAML and a SQLite store.
package results

import (
	"fmt"

	"github.com/domino14/minigo/solver"
)

// Row is the analysis of one board size.
type Row struct {
	N          int
	Outcomes   []solver.Outcome
	ElapsedSec float64
}

func FromAnalysis(a solver.Analysis) Row {
	return Row{N: a.N, Outcomes: a.Outcomes, ElapsedSec: a.Elapsed.Seconds()}
}

// Result is the outcome map, e.g. "rgr".
func (r Row) Result() string {
	return solver.FormatOutcomes(r.Outcomes)
}

func (r Row) String() string {
	return fmt.Sprintf("N=%d : [%s] (%.4gs)", r.N, r.Result(), r.ElapsedSec)
}

func rowFromResult(n int, result string, elapsed float64) (Row, error) {
	outcomes, err := solver.ParseOutcomes(result)
	if err != nil {
		return Row{}, err
	}
	if len(outcomes) != n {
		return Row{}, fmt.Errorf("N=%d but result %q has %d cells", n, result, len(outcomes))
	}
	return Row{N: n, Outcomes: outcomes, ElapsedSec: elapsed}, nil
}
