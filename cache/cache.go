package cache

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/domino14/minigo/config"
	"github.com/domino14/minigo/solver"
)

// The cache holds solvers between requests, so a long-running server (the
// bot or a warm lambda) does not reallocate a transposition table and its
// hash keys for every analysis. Solvers are keyed by the settings they were
// built with.

// Entry is a cached solver. A solver is not reentrant, so callers go
// through Use.
type Entry struct {
	mu     sync.Mutex
	solver *solver.Solver
}

// Use runs fn with exclusive access to the entry's solver.
func (e *Entry) Use(fn func(*solver.Solver) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.solver)
}

type cache struct {
	sync.Mutex
	objects map[string]*Entry
}

type loadFunc func(cfg *config.Config, key string) (*solver.Solver, error)

// GlobalSolverCache is the process-wide cache.
var GlobalSolverCache *cache

func (c *cache) load(cfg *config.Config, key string, loadFunc loadFunc) error {
	log.Debug().Str("key", key).Msg("loading into cache")

	s, err := loadFunc(cfg, key)
	if err != nil {
		return err
	}
	c.objects[key] = &Entry{solver: s}
	return nil
}

func (c *cache) get(cfg *config.Config, key string, loadFunc loadFunc) (*Entry, error) {
	c.Lock()
	defer c.Unlock()
	if e, ok := c.objects[key]; ok {
		log.Debug().Str("key", key).Msg("getting solver from cache")
		return e, nil
	}
	if err := c.load(cfg, key, loadFunc); err != nil {
		return nil, err
	}
	return c.objects[key], nil
}

func (c *cache) len() int {
	c.Lock()
	defer c.Unlock()
	return len(c.objects)
}

func CreateGlobalSolverCache() {
	GlobalSolverCache = &cache{objects: make(map[string]*Entry)}
}

// Load returns the entry stored under key, calling loadFunc to build it
// the first time.
func Load(cfg *config.Config, key string, loadFunc loadFunc) (*Entry, error) {
	if GlobalSolverCache == nil {
		CreateGlobalSolverCache()
	}
	return GlobalSolverCache.get(cfg, key, loadFunc)
}

// SettingsKey identifies solvers that can be shared.
func SettingsKey(st solver.Settings) string {
	return fmt.Sprintf("solver:%d:%d:%g:%d:%d", st.MaxBoardSize, st.TableSizePowerOf2,
		st.TableMemoryFraction, st.Seed, st.Threads)
}

func newSolver(cfg *config.Config, key string) (*solver.Solver, error) {
	return solver.NewSolver(cfg.SolverSettings())
}

// WithSolver runs fn with the cached solver for cfg's settings.
func WithSolver(cfg *config.Config, fn func(*solver.Solver) error) error {
	e, err := Load(cfg, SettingsKey(cfg.SolverSettings()), newSolver)
	if err != nil {
		return err
	}
	return e.Use(fn)
}
