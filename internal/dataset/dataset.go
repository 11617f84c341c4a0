// Package dataset holds the processed tabular form of the weather data: the
// hand-off artifact between the transform, load and visualize stages.
package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Row is one hourly observation for one city. Values is parallel to the
// owning Table's Variables; a nil entry means the API omitted the reading.
type Row struct {
	City   string
	Time   string
	Values []*float64
}

// Table is the full processed table for one run: all configured cities'
// rows, grouped by city in configuration order, chronological within a city.
type Table struct {
	Variables []string
	Rows      []Row
}

// VariableIndex returns the column index of a variable, or -1.
func (t *Table) VariableIndex(name string) int {
	for i, v := range t.Variables {
		if v == name {
			return i
		}
	}
	return -1
}

// CityRows returns the rows belonging to one city, preserving order.
func (t *Table) CityRows(city string) []Row {
	var rows []Row
	for _, r := range t.Rows {
		if r.City == city {
			rows = append(rows, r)
		}
	}
	return rows
}

// WriteCSV writes the table to path, fully replacing any previous file.
// Header: city, time, then one column per variable. Nil values are written
// as empty cells.
func WriteCSV(path string, t *Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create processed dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create processed file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)

	header := append([]string{"city", "time"}, t.Variables...)
	if err := w.Write(header); err != nil {
		return err
	}

	record := make([]string, len(header))
	for _, row := range t.Rows {
		record[0] = row.City
		record[1] = row.Time
		for i, v := range row.Values {
			if v == nil {
				record[i+2] = ""
			} else {
				record[i+2] = strconv.FormatFloat(*v, 'f', -1, 64)
			}
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

// ReadCSV reads a table previously written by WriteCSV.
func ReadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open processed file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read processed file: %w", err)
	}
	if len(records) == 0 || len(records[0]) < 2 {
		return nil, fmt.Errorf("processed file %s has no header", path)
	}

	t := &Table{Variables: records[0][2:]}
	for _, rec := range records[1:] {
		row := Row{
			City:   rec[0],
			Time:   rec[1],
			Values: make([]*float64, len(t.Variables)),
		}
		for i, cell := range rec[2:] {
			if cell == "" {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("processed file %s: bad value %q for %s: %w", path, cell, t.Variables[i], err)
			}
			row.Values[i] = &v
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}
