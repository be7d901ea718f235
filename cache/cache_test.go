package cache

import (
	"sync"
	"testing"

	"github.com/matryer/is"

	"github.com/domino14/minigo/config"
	"github.com/domino14/minigo/solver"
)

func testConfig(t *testing.T, args ...string) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	if _, err := cfg.Load(append([]string{"--tt-size-power", "10", "--threads", "2"}, args...)); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func TestSolverReused(t *testing.T) {
	is := is.New(t)
	CreateGlobalSolverCache()
	cfg := testConfig(t)

	var first, second *solver.Solver
	is.NoErr(WithSolver(cfg, func(s *solver.Solver) error {
		first = s
		res, err := s.Analyze(3)
		is.Equal(solver.FormatOutcomes(res), "rgr")
		return err
	}))
	is.NoErr(WithSolver(cfg, func(s *solver.Solver) error {
		second = s
		return nil
	}))
	is.True(first == second)
	is.Equal(GlobalSolverCache.len(), 1)

	// different settings get their own solver.
	is.NoErr(WithSolver(testConfig(t, "--seed", "7"), func(s *solver.Solver) error {
		is.True(s != first)
		return nil
	}))
	is.Equal(GlobalSolverCache.len(), 2)
}

func TestLoadErrorNotCached(t *testing.T) {
	is := is.New(t)
	CreateGlobalSolverCache()
	cfg := testConfig(t)
	cfg.Set(config.ConfigMaxBoardSize, 100)
	err := WithSolver(cfg, func(*solver.Solver) error { return nil })
	is.True(err != nil)
	is.Equal(GlobalSolverCache.len(), 0)
}

func TestConcurrentUse(t *testing.T) {
	is := is.New(t)
	CreateGlobalSolverCache()
	cfg := testConfig(t)
	var wg sync.WaitGroup
	results := make([]string, 8)
	for i := range results {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := WithSolver(cfg, func(s *solver.Solver) error {
				res, err := s.Analyze(5 + i%3)
				results[i] = solver.FormatOutcomes(res)
				return err
			})
			if err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()
	for i := range results {
		is.Equal(results[i], results[i%3])
	}
	is.Equal(GlobalSolverCache.len(), 1)
}
