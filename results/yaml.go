package results

import (
	"io"

	"gopkg.in/yaml.v3"
)

type yamlRow struct {
	N          int     `yaml:"n"`
	Result     string  `yaml:"result"`
	ElapsedSec float64 `yaml:"elapsed_sec,omitempty"`
}

func WriteYAML(w io.Writer, rows []Row) error {
	out := make([]yamlRow, len(rows))
	for i, r := range rows {
		out[i] = yamlRow{N: r.N, Result: r.Result(), ElapsedSec: r.ElapsedSec}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return err
	}
	return enc.Close()
}

func ReadYAML(r io.Reader) ([]Row, error) {
	var in []yamlRow
	if err := yaml.NewDecoder(r).Decode(&in); err != nil {
		return nil, err
	}
	rows := make([]Row, 0, len(in))
	for _, yr := range in {
		row, err := rowFromResult(yr.N, yr.Result, yr.ElapsedSec)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}
