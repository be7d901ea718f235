package results

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
)

var csvHeader = []string{"N", "Result"}

// CSVWriter writes rows as they are produced, one "N,Result" record each.
type CSVWriter struct {
	w *csv.Writer
}

func NewCSVWriter(w io.Writer, header bool) (*CSVWriter, error) {
	cw := &CSVWriter{w: csv.NewWriter(w)}
	if header {
		if err := cw.w.Write(csvHeader); err != nil {
			return nil, err
		}
		cw.w.Flush()
	}
	return cw, cw.w.Error()
}

// Write writes and flushes one row, so a long run keeps what it has.
func (cw *CSVWriter) Write(r Row) error {
	if err := cw.w.Write([]string{strconv.Itoa(r.N), r.Result()}); err != nil {
		return err
	}
	cw.w.Flush()
	return cw.w.Error()
}

func WriteCSV(w io.Writer, rows []Row) error {
	cw, err := NewCSVWriter(w, true)
	if err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// ReadCSV reads "N,Result" records. The header line is optional.
func ReadCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 2
	var rows []Row
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if record[0] == csvHeader[0] {
			continue
		}
		n, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, fmt.Errorf("bad size %q: %w", record[0], err)
		}
		row, err := rowFromResult(n, record[1], 0)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}
