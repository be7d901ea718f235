package results

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("no result stored for this size")

const schema = `CREATE TABLE IF NOT EXISTS results (
	n INTEGER PRIMARY KEY,
	result TEXT NOT NULL,
	elapsed REAL NOT NULL
)`

// Store persists rows in SQLite, keyed by board size.
type Store struct {
	db *sql.DB
}

// OpenStore opens (creating if needed) the database at path. ":memory:"
// gives a throwaway store.
func OpenStore(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening results db %s: %w", path, err)
	}
	// one writer; sqlite serializes anyway and :memory: is per-connection.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating results table: %w", err)
	}
	log.Debug().Str("path", path).Msg("results-store-opened")
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores r, replacing any earlier row for the same size.
func (s *Store) Put(ctx context.Context, r Row) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO results (n, result, elapsed) VALUES (?, ?, ?)
		 ON CONFLICT(n) DO UPDATE SET result = excluded.result, elapsed = excluded.elapsed`,
		r.N, r.Result(), r.ElapsedSec)
	return err
}

func (s *Store) Get(ctx context.Context, n int) (Row, error) {
	var result string
	var elapsed float64
	err := s.db.QueryRowContext(ctx, `SELECT result, elapsed FROM results WHERE n = ?`, n).
		Scan(&result, &elapsed)
	if errors.Is(err, sql.ErrNoRows) {
		return Row{}, fmt.Errorf("N=%d: %w", n, ErrNotFound)
	}
	if err != nil {
		return Row{}, err
	}
	return rowFromResult(n, result, elapsed)
}

// All returns every stored row in increasing size.
func (s *Store) All(ctx context.Context) ([]Row, error) {
	rs, err := s.db.QueryContext(ctx, `SELECT n, result, elapsed FROM results ORDER BY n`)
	if err != nil {
		return nil, err
	}
	defer rs.Close()
	var rows []Row
	for rs.Next() {
		var n int
		var result string
		var elapsed float64
		if err := rs.Scan(&n, &result, &elapsed); err != nil {
			return nil, err
		}
		row, err := rowFromResult(n, result, elapsed)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, rs.Err()
}
