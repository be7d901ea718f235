package solver

import (
	"fmt"
	"math/bits"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/domino14/minigo/board"
	"github.com/domino14/minigo/zobrist"
)

const (
	DefaultTableSizePowerOf2 = 24
	DefaultSeed              = zobrist.DefaultSeed
)

// Settings configure a Solver.
type Settings struct {
	// MaxBoardSize bounds the hash key space. At most board.MaxSize.
	MaxBoardSize int
	// TableSizePowerOf2 is log2 of the number of table entries. Ignored if
	// TableMemoryFraction is positive.
	TableSizePowerOf2 int
	// TableMemoryFraction sizes the table as a fraction of system memory.
	TableMemoryFraction float64
	// Seed for the hash keys.
	Seed uint64
	// Threads is the number of root moves searched at once. 1 is the
	// single-threaded configuration.
	Threads int
}

func DefaultSettings() Settings {
	return Settings{
		MaxBoardSize:      board.MaxSize,
		TableSizePowerOf2: DefaultTableSizePowerOf2,
		Seed:              DefaultSeed,
		Threads:           runtime.NumCPU(),
	}
}

// Analysis is the verdict for every first move of one board size.
type Analysis struct {
	N        int
	Outcomes []Outcome
	Elapsed  time.Duration
}

func (a Analysis) String() string {
	return fmt.Sprintf("N=%d : [%s] (%.4gs)", a.N, FormatOutcomes(a.Outcomes), a.Elapsed.Seconds())
}

// Solver decides 1xN capture-go positions by exhaustive search. A Solver
// is not safe for concurrent use; it runs its own goroutines internally
// when configured with more than one thread.
type Solver struct {
	zobrist *zobrist.Zobrist
	ttable  *TranspositionTable

	maxBoardSize int
	n            int
	fullMask     uint64
	threads      int

	parallelOptim           bool
	symmetryOptim           bool
	moveOrderingOptim       bool
	transpositionTableOptim bool

	nodes atomic.Uint64
}

// NewSolver allocates the hash keys and the transposition table.
func NewSolver(st Settings) (*Solver, error) {
	if st.MaxBoardSize == 0 {
		st.MaxBoardSize = board.MaxSize
	}
	if err := board.ValidateSize(st.MaxBoardSize); err != nil {
		return nil, fmt.Errorf("max board size: %w", err)
	}
	s := &Solver{
		maxBoardSize:            st.MaxBoardSize,
		symmetryOptim:           true,
		moveOrderingOptim:       true,
		transpositionTableOptim: true,
	}
	s.SetThreads(st.Threads)

	s.zobrist = &zobrist.Zobrist{}
	s.zobrist.Initialize(st.MaxBoardSize, st.Seed)

	s.ttable = &TranspositionTable{}
	var err error
	if st.TableMemoryFraction > 0 {
		err = s.ttable.ResetByMemoryFraction(st.TableMemoryFraction)
	} else {
		if st.TableSizePowerOf2 < 0 || st.TableSizePowerOf2 > MaxTableSizePowerOf2 {
			return nil, fmt.Errorf("%w: 2^%d entries", ErrTableTooLarge, st.TableSizePowerOf2)
		}
		err = s.ttable.Reset(uint64(1) << st.TableSizePowerOf2)
	}
	if err != nil {
		return nil, err
	}
	log.Debug().Int("max-board-size", st.MaxBoardSize).
		Int("tt-size", s.ttable.Size()).
		Uint64("seed", st.Seed).
		Int("threads", s.threads).
		Msg("solver-initialized")
	return s, nil
}

func (s *Solver) SetThreads(threads int) {
	switch {
	case threads < 2:
		s.threads = 1
		s.parallelOptim = false
	default:
		s.threads = threads
		s.parallelOptim = true
	}
}

func (s *Solver) Threads() int {
	return s.threads
}

func (s *Solver) MaxBoardSize() int {
	return s.maxBoardSize
}

// SetSymmetryOptim toggles searching only the first half of the root moves
// and mirroring the rest.
func (s *Solver) SetSymmetryOptim(o bool) {
	s.symmetryOptim = o
}

func (s *Solver) SetMoveOrderingOptim(o bool) {
	s.moveOrderingOptim = o
}

func (s *Solver) SetTranspositionTableOptim(o bool) {
	s.transpositionTableOptim = o
}

// SetTranspositionTable replaces the table, e.g. to resize it. The table
// is cleared before the next search.
func (s *Solver) SetTranspositionTable(tt *TranspositionTable) {
	s.ttable = tt
	s.n = 0
}

func (s *Solver) TranspositionTable() *TranspositionTable {
	return s.ttable
}

// ResizeTable reallocates the table with 2^powerOf2 entries.
func (s *Solver) ResizeTable(powerOf2 int) error {
	if powerOf2 < 0 || powerOf2 > MaxTableSizePowerOf2 {
		return fmt.Errorf("%w: 2^%d entries", ErrTableTooLarge, powerOf2)
	}
	tt := &TranspositionTable{}
	if err := tt.Reset(uint64(1) << powerOf2); err != nil {
		return err
	}
	s.SetTranspositionTable(tt)
	return nil
}

// Clear empties the transposition table.
func (s *Solver) Clear() {
	s.ttable.Clear()
	s.nodes.Store(0)
}

// prepare readies the solver for positions of size n.
func (s *Solver) prepare(n int, clearTable bool) error {
	if err := board.ValidateSize(n); err != nil {
		return err
	}
	if n > s.maxBoardSize {
		return fmt.Errorf("%w: %d > configured maximum %d", board.ErrBoardTooLarge, n, s.maxBoardSize)
	}
	if clearTable || n != s.n {
		s.Clear()
	}
	s.n = n
	s.fullMask = board.FullMask(n)
	return nil
}

// Analyze returns the outcome of every first move on an empty board of n
// cells, in increasing cell order.
func (s *Solver) Analyze(n int) ([]Outcome, error) {
	a, err := s.analyze(n)
	if err != nil {
		return nil, err
	}
	return a.Outcomes, nil
}

func (s *Solver) analyze(n int) (Analysis, error) {
	if err := s.prepare(n, true); err != nil {
		return Analysis{}, err
	}
	tstart := time.Now()
	outcomes := make([]Outcome, n)

	searched := n
	if s.symmetryOptim {
		searched = (n + 1) / 2
	}
	if s.parallelOptim && searched > 1 {
		s.analyzeParallel(0, 0, outcomes[:searched])
	} else {
		for i := 0; i < searched; i++ {
			outcomes[i] = s.moveOutcome(0, 0, i)
		}
	}
	for i := searched; i < n; i++ {
		outcomes[i] = outcomes[n-1-i]
	}

	a := Analysis{N: n, Outcomes: outcomes, Elapsed: time.Since(tstart)}
	st := s.ttable.Stats()
	log.Debug().
		Int("n", n).
		Str("result", FormatOutcomes(outcomes)).
		Uint64("nodes", s.nodes.Load()).
		Uint64("ttable-created", st.Created).
		Uint64("ttable-lookups", st.Lookups).
		Uint64("ttable-hits", st.Hits).
		Uint64("ttable-t2collisions", st.T2Collisions).
		Float64("time-elapsed-sec", a.Elapsed.Seconds()).
		Msg("analyze-returning")
	return a, nil
}

// analyzeParallel searches each root move in its own goroutine. All of
// them share the transposition table without locks.
func (s *Solver) analyzeParallel(ours, theirs uint64, outcomes []Outcome) {
	log.Debug().Int("threads", s.threads).Int("root-moves", len(outcomes)).Msg("using-parallel-root-search")
	g := errgroup.Group{}
	g.SetLimit(s.threads)
	for i := range outcomes {
		i := i
		g.Go(func() error {
			outcomes[i] = s.moveOutcome(ours, theirs, i)
			return nil
		})
	}
	// moveOutcome cannot fail.
	_ = g.Wait()
}

// AnalyzeRange analyzes every size from `from` to `to` inclusive, handing
// each result to fn as soon as it is known. It stops at the first error.
func (s *Solver) AnalyzeRange(from, to int, fn func(Analysis) error) error {
	if from > to {
		return fmt.Errorf("empty range %d-%d", from, to)
	}
	for n := from; n <= to; n++ {
		a, err := s.analyze(n)
		if err != nil {
			return err
		}
		log.Info().Int("n", n).Str("result", FormatOutcomes(a.Outcomes)).
			Float64("sec", a.Elapsed.Seconds()).Msg("analyzed")
		if err := fn(a); err != nil {
			return err
		}
	}
	return nil
}

// Evaluate returns Win if the side to move in pos wins with best play.
// The table is kept between calls with the same board size.
func (s *Solver) Evaluate(pos board.Position) (Outcome, error) {
	if err := pos.Validate(); err != nil {
		return Illegal, err
	}
	if err := s.prepare(pos.N, false); err != nil {
		return Illegal, err
	}
	return outcomeFromScore(s.negamax(pos.Mine, pos.Theirs, LossScore, WinScore)), nil
}

// AnalyzeMoves returns, for each cell of pos, the outcome for the side to
// move if it plays there. Occupied cells and suicides are Illegal.
func (s *Solver) AnalyzeMoves(pos board.Position) ([]Outcome, error) {
	if err := pos.Validate(); err != nil {
		return nil, err
	}
	if err := s.prepare(pos.N, false); err != nil {
		return nil, err
	}
	outcomes := make([]Outcome, pos.N)
	if s.parallelOptim && bits.OnesCount64(pos.Empty()) > 1 {
		s.analyzeParallel(pos.Mine, pos.Theirs, outcomes)
		return outcomes, nil
	}
	for i := range outcomes {
		outcomes[i] = s.moveOutcome(pos.Mine, pos.Theirs, i)
	}
	return outcomes, nil
}

// SolveStats describes the work done since the table was last cleared.
type SolveStats struct {
	Nodes uint64
	Table TableStats
}

func (s *Solver) Stats() SolveStats {
	return SolveStats{Nodes: s.nodes.Load(), Table: s.ttable.Stats()}
}
