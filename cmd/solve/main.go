// solve analyzes a range of board sizes, printing one line per size and
// appending "N,Result" rows to a CSV file. With a results database, sizes
// already solved are skipped and new ones are stored, so an interrupted
// run can be resumed.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/pprof"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/domino14/minigo/config"
	"github.com/domino14/minigo/results"
	"github.com/domino14/minigo/solver"
)

const csvName = "results.csv"

func parseRange(args []string) (int, int, error) {
	switch len(args) {
	case 1:
		to, err := strconv.Atoi(args[0])
		return 1, to, err
	case 2:
		from, err := strconv.Atoi(args[0])
		if err != nil {
			return 0, 0, err
		}
		to, err := strconv.Atoi(args[1])
		return from, to, err
	}
	return 0, 0, errors.New("usage: solve [flags] [<from>] <to>")
}

func openCSV(dir string) (*os.File, *results.CSVWriter, error) {
	path := filepath.Join(dir, csvName)
	_, statErr := os.Stat(path)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}
	w, err := results.NewCSVWriter(f, os.IsNotExist(statErr))
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return f, w, nil
}

func run(ctx context.Context, cfg *config.Config, from, to int) error {
	s, err := solver.NewSolver(cfg.SolverSettings())
	if err != nil {
		return err
	}
	f, csvw, err := openCSV(cfg.GetString(config.ConfigResultsDir))
	if err != nil {
		return err
	}
	defer f.Close()

	var store *results.Store
	if path := cfg.GetString(config.ConfigResultsDB); path != "" {
		if store, err = results.OpenStore(ctx, path); err != nil {
			return err
		}
		defer store.Close()
	}

	for n := from; n <= to; n++ {
		if store != nil {
			row, err := store.Get(ctx, n)
			if err == nil {
				log.Info().Int("n", n).Str("result", row.Result()).Msg("already-solved")
				continue
			}
			if !errors.Is(err, results.ErrNotFound) {
				return err
			}
		}
		err := s.AnalyzeRange(n, n, func(a solver.Analysis) error {
			fmt.Println(a)
			row := results.FromAnalysis(a)
			if err := csvw.Write(row); err != nil {
				return err
			}
			if store != nil {
				return store.Put(ctx, row)
			}
			return nil
		})
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	st := s.Stats()
	log.Info().Uint64("nodes", st.Nodes).
		Uint64("ttable-hits", st.Table.Hits).
		Uint64("ttable-lookups", st.Table.Lookups).
		Msg("last-size-stats")
	return nil
}

func main() {
	cfg := config.DefaultConfig()
	args, err := cfg.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	from, to, err := parseRange(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	if cfg.GetBool(config.ConfigDebug) {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if cfg.GetString(config.ConfigCPUProfile) != "" {
		f, err := os.Create(cfg.GetString(config.ConfigCPUProfile))
		if err != nil {
			panic("could not create CPU profile: " + err.Error())
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			panic("could not start CPU profile: " + err.Error())
		}
		defer pprof.StopCPUProfile()
	}

	// A size in progress cannot be interrupted; the run stops after it.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info().Int("from", from).Int("to", to).
		Int("threads", cfg.GetInt(config.ConfigThreads)).Msg("solving")
	if err := run(ctx, cfg, from, to); err != nil {
		if errors.Is(err, context.Canceled) {
			log.Info().Msg("interrupted")
			return
		}
		log.Error().Err(err).Msg("solve-failed")
		os.Exit(1)
	}
}
