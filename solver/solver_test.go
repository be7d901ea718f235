package solver

import (
	"errors"
	"math/rand"
	"os"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/domino14/minigo/board"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

func newTestSolver(t *testing.T, tablePower, threads int) *Solver {
	t.Helper()
	s, err := NewSolver(Settings{
		MaxBoardSize:      board.MaxSize,
		TableSizePowerOf2: tablePower,
		Seed:              DefaultSeed,
		Threads:           threads,
	})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// referenceWins is a slow minimax over a cell slice, with group liberties
// found by expansion. 1 is the side to move, 2 the opponent.
type reference struct {
	memo map[string]bool
}

func (r *reference) hasLiberty(cells []byte, idx int) bool {
	color := cells[idx]
	for i := idx; i >= 0 && cells[i] == color; i-- {
		if i > 0 && cells[i-1] == 0 {
			return true
		}
	}
	for i := idx; i < len(cells) && cells[i] == color; i++ {
		if i < len(cells)-1 && cells[i+1] == 0 {
			return true
		}
	}
	return false
}

func (r *reference) hasStones(cells []byte, color byte) bool {
	for _, c := range cells {
		if c == color {
			return true
		}
	}
	return false
}

// play returns whether the move at idx captures, and whether it is legal.
func (r *reference) play(cells []byte, idx int) (captured, legal bool) {
	if cells[idx] != 0 {
		return false, false
	}
	opponentPresent := r.hasStones(cells, 2)
	cells[idx] = 1
	defer func() { cells[idx] = 0 }()
	for _, adj := range []int{idx - 1, idx + 1} {
		if adj >= 0 && adj < len(cells) && cells[adj] == 2 && !r.hasLiberty(cells, adj) {
			return true, true
		}
	}
	if opponentPresent && !r.hasLiberty(cells, idx) {
		return false, false
	}
	return false, true
}

func (r *reference) wins(cells []byte) bool {
	key := string(cells)
	if v, ok := r.memo[key]; ok {
		return v
	}
	result := false
	for i := range cells {
		captured, legal := r.play(cells, i)
		if !legal {
			continue
		}
		if captured {
			result = true
			break
		}
		child := make([]byte, len(cells))
		for j, c := range cells {
			switch c {
			case 1:
				child[j] = 2
			case 2:
				child[j] = 1
			}
		}
		child[i] = 2
		if !r.wins(child) {
			result = true
			break
		}
	}
	r.memo[key] = result
	return result
}

func (r *reference) analyze(n int) []Outcome {
	out := make([]Outcome, n)
	for i := 0; i < n; i++ {
		cells := make([]byte, n)
		captured, legal := r.play(cells, i)
		switch {
		case !legal:
			out[i] = Illegal
		case captured:
			out[i] = Win
		default:
			child := make([]byte, n)
			child[i] = 2
			if r.wins(child) {
				out[i] = Loss
			} else {
				out[i] = Win
			}
		}
	}
	return out
}

func TestAnalyzeBoundaries(t *testing.T) {
	is := is.New(t)
	s := newTestSolver(t, 16, 1)

	res, err := s.Analyze(1)
	is.NoErr(err)
	is.Equal(res, []Outcome{Win})

	res, err = s.Analyze(2)
	is.NoErr(err)
	is.Equal(FormatOutcomes(res), "rr")

	// The edge stone is captured by a reply next to it; the centre stone
	// leaves only suicide replies.
	res, err = s.Analyze(3)
	is.NoErr(err)
	is.Equal(res, []Outcome{Loss, Win, Loss})
}

func TestAnalyzeMatchesReference(t *testing.T) {
	is := is.New(t)
	configs := map[string]*Solver{
		"single":      newTestSolver(t, 16, 1),
		"parallel":    newTestSolver(t, 16, 4),
		"tiny-table":  newTestSolver(t, 2, 1),
		"no-ordering": newTestSolver(t, 12, 1),
		"no-table":    newTestSolver(t, 0, 1),
	}
	configs["no-ordering"].SetMoveOrderingOptim(false)
	configs["no-table"].SetTranspositionTableOptim(false)

	for n := 1; n <= 11; n++ {
		ref := &reference{memo: map[string]bool{}}
		expected := ref.analyze(n)
		for name, s := range configs {
			if name == "no-table" && n > 9 {
				continue
			}
			got, err := s.Analyze(n)
			is.NoErr(err)
			if FormatOutcomes(got) != FormatOutcomes(expected) {
				t.Errorf("%s n=%d: got %s expected %s", name, n,
					FormatOutcomes(got), FormatOutcomes(expected))
			}
		}
	}
}

func TestAnalyzeMirrorSymmetry(t *testing.T) {
	is := is.New(t)
	s := newTestSolver(t, 18, 1)
	s.SetSymmetryOptim(false)
	for n := 1; n <= 14; n++ {
		res, err := s.Analyze(n)
		is.NoErr(err)
		for i := range res {
			is.Equal(res[i], res[n-1-i])
		}
	}
}

func TestParallelMatchesSingleThreaded(t *testing.T) {
	is := is.New(t)
	single := newTestSolver(t, 20, 1)
	parallel := newTestSolver(t, 20, 8)
	is.Equal(parallel.Threads(), 8)
	for n := 1; n <= 16; n++ {
		a, err := single.Analyze(n)
		is.NoErr(err)
		b, err := parallel.Analyze(n)
		is.NoErr(err)
		is.Equal(a, b)
	}
}

func TestAnalyzeMovesParallelMatchesSingleThreaded(t *testing.T) {
	is := is.New(t)
	single := newTestSolver(t, 16, 1)
	parallel := newTestSolver(t, 16, 4)
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 200; trial++ {
		n := 1 + rng.Intn(14)
		var pos board.Position
		pos.N = n
		for i := 0; i < n; i++ {
			switch rng.Intn(3) {
			case 0:
				pos.Mine |= 1 << i
			case 1:
				pos.Theirs |= 1 << i
			}
		}
		a, err := single.AnalyzeMoves(pos)
		is.NoErr(err)
		b, err := parallel.AnalyzeMoves(pos)
		is.NoErr(err)
		is.Equal(a, b)
	}
	// an empty board matches the root analysis.
	pos, err := board.Parse("..........")
	is.NoErr(err)
	moves, err := parallel.AnalyzeMoves(pos)
	is.NoErr(err)
	root, err := single.Analyze(10)
	is.NoErr(err)
	is.Equal(moves, root)
}

func TestTableSizeIndependence(t *testing.T) {
	is := is.New(t)
	var expected []string
	for _, power := range []int{0, 1, 4, 10, 20} {
		s := newTestSolver(t, power, 1)
		var got []string
		for n := 1; n <= 13; n++ {
			res, err := s.Analyze(n)
			is.NoErr(err)
			got = append(got, FormatOutcomes(res))
		}
		if expected == nil {
			expected = got
			continue
		}
		is.Equal(got, expected)
	}
}

func TestEvaluateCaptureWinsImmediately(t *testing.T) {
	is := is.New(t)
	s := newTestSolver(t, 10, 1)
	// playing cell 0 takes the last liberty of the stone on cell 1.
	pos, err := board.Parse(".ox.")
	is.NoErr(err)
	s.Clear()
	o, err := s.Evaluate(pos)
	is.NoErr(err)
	is.Equal(o, Win)
	is.Equal(s.Stats().Nodes, uint64(1))

	moves, err := s.AnalyzeMoves(pos)
	is.NoErr(err)
	is.Equal(moves[0], Win)
	is.Equal(moves[1], Illegal)
	is.Equal(moves[2], Illegal)
}

func TestEvaluateAllSuicide(t *testing.T) {
	is := is.New(t)
	s := newTestSolver(t, 10, 1)
	pos, err := board.Parse(".o.o.")
	is.NoErr(err)
	o, err := s.Evaluate(pos)
	is.NoErr(err)
	is.Equal(o, Loss)

	moves, err := s.AnalyzeMoves(pos)
	is.NoErr(err)
	is.Equal(FormatOutcomes(moves), "xxxxx")
}

func TestEvaluateIdempotentAcrossClear(t *testing.T) {
	is := is.New(t)
	s := newTestSolver(t, 12, 1)
	pos, err := board.Parse("..x...o...")
	is.NoErr(err)
	first, err := s.Evaluate(pos)
	is.NoErr(err)
	s.Clear()
	second, err := s.Evaluate(pos)
	is.NoErr(err)
	is.Equal(first, second)
}

// A position is won exactly when one of its moves wins, and a non-capturing
// move wins exactly when the opponent loses the resulting position.
func TestNegamaxConsistency(t *testing.T) {
	is := is.New(t)
	s := newTestSolver(t, 16, 1)
	rng := rand.New(rand.NewSource(42))
	for iter := 0; iter < 300; iter++ {
		n := 2 + rng.Intn(9)
		pos := board.Position{N: n}
		for i := 0; i < n; i++ {
			switch rng.Intn(4) {
			case 0:
				pos.Mine |= 1 << i
			case 1:
				pos.Theirs |= 1 << i
			}
		}
		o, err := s.Evaluate(pos)
		is.NoErr(err)
		moves, err := s.AnalyzeMoves(pos)
		is.NoErr(err)
		anyWin := false
		for i, m := range moves {
			if m == Win {
				anyWin = true
			}
			bit := uint64(1) << i
			if m == Illegal || s.captures(pos.Theirs, pos.Empty()&^bit, i) {
				continue
			}
			child := board.Position{Mine: pos.Theirs, Theirs: pos.Mine | bit, N: n}
			co, err := s.Evaluate(child)
			is.NoErr(err)
			is.True((m == Win) == (co == Loss))
		}
		is.Equal(o == Win, anyWin)

		// Mirrored positions have the same verdict.
		mo, err := s.Evaluate(pos.Mirror())
		is.NoErr(err)
		is.Equal(o, mo)
	}
}

func TestPreconditionErrors(t *testing.T) {
	s := newTestSolver(t, 4, 1)

	_, err := s.Analyze(board.MaxSize + 1)
	assert.ErrorIs(t, err, board.ErrBoardTooLarge)
	_, err = s.Analyze(0)
	assert.ErrorIs(t, err, board.ErrBoardTooSmall)
	_, err = s.Evaluate(board.Position{Mine: 3, Theirs: 1, N: 4})
	assert.ErrorIs(t, err, board.ErrOverlappingStones)
	_, err = s.AnalyzeMoves(board.Position{Mine: 1 << 5, N: 4})
	assert.ErrorIs(t, err, board.ErrStoneOutOfRange)

	small, err := NewSolver(Settings{MaxBoardSize: 10, TableSizePowerOf2: 4, Threads: 1})
	assert.NoError(t, err)
	_, err = small.Analyze(11)
	assert.ErrorIs(t, err, board.ErrBoardTooLarge)

	_, err = NewSolver(Settings{MaxBoardSize: 65})
	assert.ErrorIs(t, err, board.ErrBoardTooLarge)
	_, err = NewSolver(Settings{TableSizePowerOf2: MaxTableSizePowerOf2 + 1})
	assert.ErrorIs(t, err, ErrTableTooLarge)
	assert.ErrorIs(t, s.ResizeTable(-1), ErrTableTooLarge)
}

func TestResizeTableClearsState(t *testing.T) {
	is := is.New(t)
	s := newTestSolver(t, 4, 1)
	before, err := s.Analyze(9)
	is.NoErr(err)
	is.NoErr(s.ResizeTable(12))
	is.Equal(s.TranspositionTable().Size(), 1<<12)
	after, err := s.Analyze(9)
	is.NoErr(err)
	is.Equal(before, after)
}

func TestAnalyzeRange(t *testing.T) {
	is := is.New(t)
	s := newTestSolver(t, 14, 2)
	var got []Analysis
	err := s.AnalyzeRange(1, 5, func(a Analysis) error {
		got = append(got, a)
		return nil
	})
	is.NoErr(err)
	is.Equal(len(got), 5)
	is.Equal(got[2].N, 3)
	is.Equal(FormatOutcomes(got[2].Outcomes), "rgr")

	stop := errors.New("stop")
	err = s.AnalyzeRange(1, 5, func(a Analysis) error { return stop })
	is.True(errors.Is(err, stop))
	is.True(s.AnalyzeRange(5, 1, func(Analysis) error { return nil }) != nil)
}
