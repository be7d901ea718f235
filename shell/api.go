package shell

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/domino14/minigo/board"
	"github.com/domino14/minigo/config"
	"github.com/domino14/minigo/results"
	"github.com/domino14/minigo/solver"
	"github.com/domino14/minigo/stats"
)

type Response struct {
	message string
}

type CmdOptions map[string][]string

func (c CmdOptions) String(key string) string {
	v := c[key]
	if len(v) > 0 {
		return v[0]
	}
	return ""
}

func msg(message string) *Response {
	return &Response{message: message}
}

func intArg(cmd *shellcmd, idx int) (int, error) {
	if len(cmd.args) <= idx {
		return 0, fmt.Errorf("%s: missing argument; try help %s", cmd.cmd, cmd.cmd)
	}
	return strconv.Atoi(cmd.args[idx])
}

func positionArg(cmd *shellcmd) (board.Position, error) {
	if len(cmd.args) != 1 {
		return board.Position{}, fmt.Errorf("%s needs one board, e.g. %s x.o..", cmd.cmd, cmd.cmd)
	}
	return board.Parse(cmd.args[0])
}

func (sc *ShellController) record(a solver.Analysis) error {
	row := results.FromAnalysis(a)
	sc.rows[row.N] = row
	if sc.store != nil {
		return sc.store.Put(context.Background(), row)
	}
	return nil
}

// sortedRows returns the session's rows in increasing size.
func (sc *ShellController) sortedRows() []results.Row {
	rows := lo.Values(sc.rows)
	slices.SortFunc(rows, func(a, b results.Row) int { return a.N - b.N })
	return rows
}

func (sc *ShellController) analyze(cmd *shellcmd) (*Response, error) {
	n, err := intArg(cmd, 0)
	if err != nil {
		return nil, err
	}
	var out string
	err = sc.solver.AnalyzeRange(n, n, func(a solver.Analysis) error {
		out = a.String()
		return sc.record(a)
	})
	if err != nil {
		return nil, err
	}
	return msg(out), nil
}

// analyzeRange prints each size as soon as it is solved. Sizes already in
// the results database are reported from there.
func (sc *ShellController) analyzeRange(cmd *shellcmd) (*Response, error) {
	from, err := intArg(cmd, 0)
	if err != nil {
		return nil, err
	}
	to, err := intArg(cmd, 1)
	if err != nil {
		return nil, err
	}
	if from > to {
		return nil, fmt.Errorf("empty range %d-%d", from, to)
	}
	ctx := context.Background()
	for n := from; n <= to; n++ {
		if sc.store != nil {
			row, err := sc.store.Get(ctx, n)
			if err == nil {
				sc.rows[n] = row
				sc.showMessage(row.String() + " (stored)")
				continue
			}
			if !errors.Is(err, results.ErrNotFound) {
				return nil, err
			}
		}
		err = sc.solver.AnalyzeRange(n, n, func(a solver.Analysis) error {
			sc.showMessage(a.String())
			return sc.record(a)
		})
		if err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func (sc *ShellController) eval(cmd *shellcmd) (*Response, error) {
	pos, err := positionArg(cmd)
	if err != nil {
		return nil, err
	}
	o, err := sc.solver.Evaluate(pos)
	if err != nil {
		return nil, err
	}
	verdict := "loses"
	if o == solver.Win {
		verdict = "wins"
	}
	return msg(fmt.Sprintf("%s: side to move (x) %s (%d nodes)", pos, verdict,
		sc.solver.Stats().Nodes)), nil
}

func (sc *ShellController) moves(cmd *shellcmd) (*Response, error) {
	pos, err := positionArg(cmd)
	if err != nil {
		return nil, err
	}
	outcomes, err := sc.solver.AnalyzeMoves(pos)
	if err != nil {
		return nil, err
	}
	var sb strings.Builder
	sb.WriteString(pos.String() + "\n")
	sb.WriteString(solver.FormatOutcomes(outcomes) + "\n")
	wins := lo.Filter(lo.Range(pos.N), func(i, _ int) bool { return outcomes[i] == solver.Win })
	if len(wins) == 0 {
		sb.WriteString("no winning move")
	} else {
		sb.WriteString("winning moves: " + strings.Join(lo.Map(wins, func(i, _ int) string {
			return strconv.Itoa(i)
		}), " "))
	}
	return msg(sb.String()), nil
}

func (sc *ShellController) set(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) != 2 {
		return msg(fmt.Sprintf("threads %d\ntt-size-power %d",
			sc.solver.Threads(), sc.config.GetInt(config.ConfigTTSizePower))), nil
	}
	opt, val := cmd.args[0], cmd.args[1]
	v, err := strconv.Atoi(val)
	if err != nil {
		return nil, err
	}
	switch opt {
	case config.ConfigThreads:
		if v < 1 {
			return nil, errors.New("threads must be at least 1")
		}
		sc.solver.SetThreads(v)
	case config.ConfigTTSizePower:
		if err := sc.solver.ResizeTable(v); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("option %s not recognized", opt)
	}
	sc.config.Set(opt, v)
	return msg("set " + opt + " to " + val), nil
}

func (sc *ShellController) ttstats(cmd *shellcmd) (*Response, error) {
	st := sc.solver.Stats()
	hitRate := 0.0
	if st.Table.Lookups > 0 {
		hitRate = float64(st.Table.Hits) / float64(st.Table.Lookups)
	}
	return msg(fmt.Sprintf(
		"size %d\nnodes %d\ncreated %d\nlookups %d\nhits %d (%.2f%%)\nt2-collisions %d",
		st.Table.Size, st.Nodes, st.Table.Created, st.Table.Lookups, st.Table.Hits,
		100*hitRate, st.Table.T2Collisions)), nil
}

// summary reports on this session's rows, or with -source db on every
// row in the results database.
func (sc *ShellController) summary(cmd *shellcmd) (*Response, error) {
	confidence := stats.DefaultConfidence
	if c := cmd.options.String("ci"); c != "" {
		var err error
		if confidence, err = strconv.ParseFloat(c, 64); err != nil {
			return nil, err
		}
		if confidence <= 0 || confidence >= 100 {
			return nil, fmt.Errorf("confidence must be between 0 and 100, got %v", confidence)
		}
	}
	var rows []results.Row
	switch source := cmd.options.String("source"); source {
	case "", "session":
		rows = sc.sortedRows()
	case "db":
		if sc.store == nil {
			return nil, errors.New("no results database configured; set " + config.ConfigResultsDB)
		}
		var err error
		if rows, err = sc.store.All(context.Background()); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown summary source %s", source)
	}
	var sb strings.Builder
	if err := stats.Summarize(rows, confidence).Fprint(&sb); err != nil {
		return nil, err
	}
	return msg(sb.String()), nil
}

func (sc *ShellController) resultsPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(sc.config.GetString(config.ConfigResultsDir), path)
}

// importRows loads rows written by export, adding them to the session and
// to the results database.
func (sc *ShellController) importRows(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) != 2 {
		return nil, errors.New("usage: import csv|yaml <path>")
	}
	format, path := cmd.args[0], sc.resultsPath(cmd.args[1])
	if format != "csv" && format != "yaml" {
		return nil, fmt.Errorf("unknown import format %s", format)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var rows []results.Row
	if format == "csv" {
		rows, err = results.ReadCSV(f)
	} else {
		rows, err = results.ReadYAML(f)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	ctx := context.Background()
	for _, row := range rows {
		sc.rows[row.N] = row
		if sc.store != nil {
			if err := sc.store.Put(ctx, row); err != nil {
				return nil, err
			}
		}
	}
	return msg(fmt.Sprintf("read %d rows from %s", len(rows), path)), nil
}

func (sc *ShellController) export(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) != 2 {
		return nil, errors.New("usage: export csv|yaml <path>")
	}
	format, path := cmd.args[0], sc.resultsPath(cmd.args[1])
	if format != "csv" && format != "yaml" {
		return nil, fmt.Errorf("unknown export format %s", format)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	rows := sc.sortedRows()
	if format == "csv" {
		err = results.WriteCSV(f, rows)
	} else {
		err = results.WriteYAML(f, rows)
	}
	if err != nil {
		return nil, err
	}
	return msg(fmt.Sprintf("wrote %d rows to %s", len(rows), path)), nil
}
